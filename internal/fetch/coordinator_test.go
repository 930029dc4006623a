package fetch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/mcb/internal/cache"
	"github.com/desertthunder/mcb/internal/models"
	"github.com/desertthunder/mcb/internal/shared"
)

type recordingConsumer struct {
	mu           sync.Mutex
	rows         models.RowSet
	setRows      int
	placeholders []Placeholder
	notes        []string
}

func (r *recordingConsumer) SetRows(rows models.RowSet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = rows
	r.setRows++
}

func (r *recordingConsumer) SetPlaceholder(p Placeholder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.placeholders = append(r.placeholders, p)
}

func (r *recordingConsumer) Notify(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, message)
}

func (r *recordingConsumer) snapshot() (models.RowSet, int, []Placeholder, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows, r.setRows, append([]Placeholder(nil), r.placeholders...), append([]string(nil), r.notes...)
}

func (r *recordingConsumer) lastPlaceholder() (Placeholder, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.placeholders) == 0 {
		return 0, false
	}
	return r.placeholders[len(r.placeholders)-1], true
}

type keySet map[string]bool

func (k keySet) Contains(key string) bool { return k[key] }
func (k keySet) Len() int                 { return len(k) }

// queuedDispatcher holds dispatched functions until run is called.
type queuedDispatcher struct {
	mu  sync.Mutex
	fns []func()
}

func (q *queuedDispatcher) Dispatch(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.fns = append(q.fns, fn)
}

func (q *queuedDispatcher) run() {
	q.mu.Lock()
	fns := q.fns
	q.fns = nil
	q.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// gatedCache holds a write of the gated rows until release is closed.
type gatedCache struct {
	Cache
	gated   models.RowSet
	entered chan struct{}
	release chan struct{}
}

func (g *gatedCache) Write(key string, rows models.RowSet) error {
	if rows.Equal(g.gated) {
		close(g.entered)
		<-g.release
	}
	return g.Cache.Write(key, rows)
}

func rowsProvider(rows models.RowSet, err error) Provider {
	return ProviderFunc(func(context.Context, string) (models.RowSet, error) {
		return rows.Clone(), err
	})
}

func wait(t *testing.T, c *Coordinator) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Wait(ctx); err != nil {
		t.Fatalf("coordinator did not become idle: %v", err)
	}
}

var catalogRows = models.RowSet{
	{"ID", "Title", "Artists"},
	{"1", "One", "Artist A"},
	{"2", "Two", "Artist B"},
	{"3", "Three", "Artist C"},
}

func TestCoordinator_Refresh(t *testing.T) {
	t.Run("success publishes and caches", func(t *testing.T) {
		disk := cache.New(t.TempDir(), true, nil)
		consumer := &recordingConsumer{}
		c := NewCoordinator(Options{
			Name:     "Catalog",
			Provider: rowsProvider(catalogRows, nil),
			Cache:    disk,
			Consumer: consumer,
		})

		c.Refresh(context.Background())
		wait(t, c)

		if c.State() != Succeeded {
			t.Errorf("expected Succeeded, got %s", c.State())
		}
		rows, _, placeholders, notes := consumer.snapshot()
		if !rows.Equal(catalogRows) {
			t.Errorf("expected published rows, got %v", rows)
		}
		if p, _ := consumer.lastPlaceholder(); p != PlaceholderNoMatches {
			t.Errorf("expected no-matches placeholder, got %v", placeholders)
		}
		if placeholders[0] != PlaceholderFetching {
			t.Errorf("expected fetching placeholder first, got %v", placeholders)
		}
		if len(notes) != 0 {
			t.Errorf("expected no notifications, got %v", notes)
		}

		cached, err := disk.Read("Catalog")
		if err != nil || !cached.Equal(catalogRows) {
			t.Errorf("expected rows cached, got %v (%v)", cached, err)
		}
		if idx, ok := c.Columns().Find("artist"); !ok || idx != 2 {
			t.Errorf("expected artist column at 2, got %d (%v)", idx, ok)
		}
	})

	t.Run("rows unknown to the reference are dropped", func(t *testing.T) {
		consumer := &recordingConsumer{}
		c := NewCoordinator(Options{
			Name:      "Catalog",
			KeyColumn: "id",
			Provider:  rowsProvider(catalogRows, nil),
			Reference: keySet{"1": true, "3": true},
			Consumer:  consumer,
		})

		c.Refresh(context.Background())
		wait(t, c)

		want := models.RowSet{catalogRows[0], catalogRows[1], catalogRows[3]}
		if rows, _, _, _ := consumer.snapshot(); !rows.Equal(want) {
			t.Errorf("expected %v, got %v", want, rows)
		}
	})

	t.Run("empty reference skips validation", func(t *testing.T) {
		c := NewCoordinator(Options{
			Name:      "Catalog",
			KeyColumn: "ID",
			Provider:  rowsProvider(catalogRows, nil),
			Reference: keySet{},
		})
		c.Refresh(context.Background())
		wait(t, c)
		if !c.Rows().Equal(catalogRows) {
			t.Errorf("expected all rows kept, got %v", c.Rows())
		}
	})

	t.Run("validation leaving no rows falls back", func(t *testing.T) {
		consumer := &recordingConsumer{}
		c := NewCoordinator(Options{
			Name:      "Catalog",
			KeyColumn: "ID",
			Provider:  rowsProvider(catalogRows, nil),
			Reference: keySet{"99": true},
			Cache:     cache.New(t.TempDir(), true, nil),
			Consumer:  consumer,
		})
		c.Refresh(context.Background())
		wait(t, c)
		if c.State() != FailedEmpty {
			t.Errorf("expected FailedEmpty, got %s", c.State())
		}
	})

	t.Run("empty remote restores from cache", func(t *testing.T) {
		disk := cache.New(t.TempDir(), true, nil)
		if err := disk.Write("Catalog", catalogRows); err != nil {
			t.Fatal(err)
		}
		consumer := &recordingConsumer{}
		c := NewCoordinator(Options{
			Name:     "Catalog",
			Provider: rowsProvider(nil, nil),
			Cache:    disk,
			Consumer: consumer,
		})

		c.Refresh(context.Background())
		wait(t, c)

		if c.State() != FailedWithFallback {
			t.Errorf("expected FailedWithFallback, got %s", c.State())
		}
		rows, _, _, notes := consumer.snapshot()
		if !rows.Equal(catalogRows) {
			t.Errorf("expected cached rows, got %v", rows)
		}
		if len(notes) != 1 || notes[0] != "Catalog was restored from cache" {
			t.Errorf("unexpected notifications %v", notes)
		}
	})

	t.Run("header-only cache entry is a miss", func(t *testing.T) {
		disk := cache.New(t.TempDir(), true, nil)
		if err := disk.Write("Catalog", catalogRows[:1]); err != nil {
			t.Fatal(err)
		}
		consumer := &recordingConsumer{}
		c := NewCoordinator(Options{
			Name:     "Catalog",
			Provider: rowsProvider(nil, nil),
			Cache:    disk,
			Consumer: consumer,
		})

		c.Refresh(context.Background())
		wait(t, c)

		if c.State() != FailedEmpty {
			t.Errorf("expected FailedEmpty, got %s", c.State())
		}
		if p, ok := consumer.lastPlaceholder(); !ok || p != PlaceholderRetry {
			t.Errorf("expected retry placeholder, got %s", p)
		}
		if _, n, _, notes := consumer.snapshot(); n != 0 || len(notes) != 0 {
			t.Errorf("expected nothing restored, got %d publications and %v", n, notes)
		}
	})

	t.Run("remote error without cache shows retry", func(t *testing.T) {
		consumer := &recordingConsumer{}
		c := NewCoordinator(Options{
			Name:     "Catalog",
			Provider: rowsProvider(nil, errors.New("connection refused")),
			Cache:    cache.New(t.TempDir(), true, nil),
			Consumer: consumer,
		})

		c.Refresh(context.Background())
		wait(t, c)

		if c.State() != FailedEmpty {
			t.Errorf("expected FailedEmpty, got %s", c.State())
		}
		if p, _ := consumer.lastPlaceholder(); p != PlaceholderRetry {
			t.Errorf("expected retry placeholder, got %v", p)
		}
		if !errors.Is(c.Err(), shared.ErrFetchFailed) || !errors.Is(c.Err(), shared.ErrCacheNotFound) {
			t.Errorf("expected fetch failure and cache miss, got %v", c.Err())
		}
		if _, n, _, _ := consumer.snapshot(); n != 0 {
			t.Errorf("expected no rows published, got %d", n)
		}
	})

	t.Run("provider panic is contained", func(t *testing.T) {
		c := NewCoordinator(Options{
			Name: "Catalog",
			Provider: ProviderFunc(func(context.Context, string) (models.RowSet, error) {
				panic("boom")
			}),
		})
		c.Refresh(context.Background())
		wait(t, c)
		if c.State() != FailedEmpty || !errors.Is(c.Err(), shared.ErrFetchFailed) {
			t.Errorf("expected FailedEmpty with fetch failure, got %s %v", c.State(), c.Err())
		}
	})

	t.Run("corrupt cache is cleared and treated as a miss", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "Catalog"), []byte("not a cache entry"), 0o644); err != nil {
			t.Fatal(err)
		}
		c := NewCoordinator(Options{
			Name:     "Catalog",
			Provider: rowsProvider(nil, nil),
			Cache:    cache.New(dir, true, nil),
		})
		c.Refresh(context.Background())
		wait(t, c)

		if c.State() != FailedEmpty {
			t.Errorf("expected FailedEmpty, got %s", c.State())
		}
		if _, err := os.Stat(filepath.Join(dir, "Catalog")); !os.IsNotExist(err) {
			t.Error("expected corrupt entry removed")
		}
	})

	t.Run("empty remote keeps existing rows silently", func(t *testing.T) {
		var mu sync.Mutex
		result := catalogRows
		consumer := &recordingConsumer{}
		c := NewCoordinator(Options{
			Name: "Catalog",
			Provider: ProviderFunc(func(context.Context, string) (models.RowSet, error) {
				mu.Lock()
				defer mu.Unlock()
				return result, nil
			}),
			Consumer: consumer,
		})
		c.Refresh(context.Background())
		wait(t, c)

		mu.Lock()
		result = nil
		mu.Unlock()

		_, _, before, _ := consumer.snapshot()
		c.Refresh(context.Background())
		wait(t, c)

		if c.State() != Idle {
			t.Errorf("expected Idle, got %s", c.State())
		}
		rows, n, after, notes := consumer.snapshot()
		if n != 1 || !rows.Equal(catalogRows) {
			t.Errorf("expected the original rows published once, got %d publications", n)
		}
		if len(after) != len(before) || len(notes) != 0 {
			t.Errorf("expected no placeholder change or notification, got %v %v", after, notes)
		}
	})

	t.Run("disabled cache falls through to retry", func(t *testing.T) {
		disk := cache.New(t.TempDir(), true, nil)
		_ = disk.Write("Catalog", catalogRows)
		disk.SetEnabled(false)

		c := NewCoordinator(Options{Name: "Catalog", Provider: rowsProvider(nil, nil), Cache: disk})
		c.Refresh(context.Background())
		wait(t, c)
		if c.State() != FailedEmpty {
			t.Errorf("expected FailedEmpty, got %s", c.State())
		}
	})

	t.Run("static rows bypass provider and cache", func(t *testing.T) {
		dir := t.TempDir()
		static := models.RowSet{{"Genre", "Color"}, {"Dubstep", "#8c0000"}}
		consumer := &recordingConsumer{}
		c := NewCoordinator(Options{
			Name:     "Genres",
			Static:   static,
			Cache:    cache.New(dir, true, nil),
			Consumer: consumer,
		})
		c.Refresh(context.Background())
		wait(t, c)

		if rows, _, _, _ := consumer.snapshot(); !rows.Equal(static) {
			t.Errorf("expected static rows, got %v", rows)
		}
		if entries, _ := os.ReadDir(dir); len(entries) != 0 {
			t.Errorf("static source should not touch the cache, found %d entries", len(entries))
		}
	})
}

func TestCoordinator_Concurrency(t *testing.T) {
	t.Run("refresh during a fetch queues exactly one more", func(t *testing.T) {
		var mu sync.Mutex
		calls := 0
		release := make(chan struct{})
		c := NewCoordinator(Options{
			Name: "Catalog",
			Provider: ProviderFunc(func(ctx context.Context, _ string) (models.RowSet, error) {
				mu.Lock()
				calls++
				first := calls == 1
				mu.Unlock()
				if first {
					<-release
				}
				return catalogRows, nil
			}),
		})

		c.Refresh(context.Background())
		for range 5 {
			c.Refresh(context.Background())
		}
		if c.State() == Succeeded {
			t.Fatal("first fetch should still be running")
		}
		close(release)
		wait(t, c)

		mu.Lock()
		defer mu.Unlock()
		if calls != 2 {
			t.Errorf("expected 2 provider calls, got %d", calls)
		}
	})

	t.Run("superseded fetch result is discarded", func(t *testing.T) {
		disk := cache.New(t.TempDir(), true, nil)
		consumer := &recordingConsumer{}

		oldRows := models.RowSet{{"ID"}, {"old"}}
		newRows := models.RowSet{{"ID"}, {"new"}}

		var mu sync.Mutex
		calls := 0
		started := make(chan struct{})
		releaseOld := make(chan struct{})
		oldDone := make(chan struct{})
		c := NewCoordinator(Options{
			Name:  "Catalog",
			Cache: disk,
			Provider: ProviderFunc(func(context.Context, string) (models.RowSet, error) {
				mu.Lock()
				calls++
				n := calls
				mu.Unlock()
				if n == 1 {
					defer close(oldDone)
					close(started)
					<-releaseOld
					return oldRows, nil
				}
				return newRows, nil
			}),
			Consumer: consumer,
		})

		c.Refresh(context.Background())
		<-started
		c.Restart(context.Background())
		wait(t, c)

		if rows, _, _, _ := consumer.snapshot(); !rows.Equal(newRows) {
			t.Fatalf("expected newer rows, got %v", rows)
		}

		close(releaseOld)
		<-oldDone
		time.Sleep(50 * time.Millisecond)

		if rows, n, _, _ := consumer.snapshot(); !rows.Equal(newRows) || n != 1 {
			t.Errorf("stale result overwrote newer rows: %v (%d publications)", rows, n)
		}
		if !c.Rows().Equal(newRows) {
			t.Errorf("coordinator holds stale rows %v", c.Rows())
		}
		if cached, _ := disk.Read("Catalog"); !cached.Equal(newRows) {
			t.Errorf("stale result written to cache: %v", cached)
		}
		if c.Generation() != 1 {
			t.Errorf("expected generation 1, got %d", c.Generation())
		}
	})

	t.Run("superseded cache write does not overwrite a newer one", func(t *testing.T) {
		disk := cache.New(t.TempDir(), true, nil)
		oldRows := models.RowSet{{"ID"}, {"old"}}
		newRows := models.RowSet{{"ID"}, {"new"}}
		gate := &gatedCache{
			Cache:   disk,
			gated:   oldRows,
			entered: make(chan struct{}),
			release: make(chan struct{}),
		}

		var mu sync.Mutex
		calls := 0
		c := NewCoordinator(Options{
			Name:  "Catalog",
			Cache: gate,
			Provider: ProviderFunc(func(context.Context, string) (models.RowSet, error) {
				mu.Lock()
				defer mu.Unlock()
				calls++
				if calls == 1 {
					return oldRows, nil
				}
				return newRows, nil
			}),
		})

		c.Refresh(context.Background())
		<-gate.entered
		c.Restart(context.Background())
		time.Sleep(50 * time.Millisecond)
		close(gate.release)
		wait(t, c)

		if cached, err := disk.Read("Catalog"); err != nil || !cached.Equal(newRows) {
			t.Errorf("expected newer rows cached, got %v (%v)", cached, err)
		}
		if !c.Rows().Equal(newRows) {
			t.Errorf("coordinator holds %v", c.Rows())
		}
	})

	t.Run("publication queued before a restart is dropped", func(t *testing.T) {
		dispatcher := &queuedDispatcher{}
		consumer := &recordingConsumer{}
		c := NewCoordinator(Options{
			Name:       "Catalog",
			Provider:   rowsProvider(catalogRows, nil),
			Consumer:   consumer,
			Dispatcher: dispatcher,
		})

		c.Refresh(context.Background())
		wait(t, c)

		blocked := make(chan struct{})
		c.opts.Provider = ProviderFunc(func(context.Context, string) (models.RowSet, error) {
			<-blocked
			return nil, nil
		})
		c.Restart(context.Background())
		dispatcher.run()

		if _, n, _, _ := consumer.snapshot(); n != 0 {
			t.Errorf("expected stale publication dropped, got %d", n)
		}
		close(blocked)
		wait(t, c)
	})

	t.Run("sources fetch in parallel", func(t *testing.T) {
		var wg sync.WaitGroup
		wg.Add(2)
		barrier := ProviderFunc(func(ctx context.Context, _ string) (models.RowSet, error) {
			wg.Done()
			wg.Wait()
			return catalogRows, nil
		})

		a := NewCoordinator(Options{Name: "A", Provider: barrier})
		b := NewCoordinator(Options{Name: "B", Provider: barrier})
		a.Refresh(context.Background())
		b.Refresh(context.Background())
		wait(t, a)
		wait(t, b)

		if a.State() != Succeeded || b.State() != Succeeded {
			t.Errorf("expected both to succeed, got %s and %s", a.State(), b.State())
		}
	})
}
