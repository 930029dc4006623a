package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/desertthunder/mcb/internal/catalog"
	"github.com/desertthunder/mcb/internal/models"
	"github.com/desertthunder/mcb/internal/queue"
	"github.com/desertthunder/mcb/internal/repositories"
	"github.com/desertthunder/mcb/internal/shared"
	th "github.com/desertthunder/mcb/internal/testing"
)

var known = []models.Track{
	{ID: "t1", Title: "Lights", Artists: "Alpha"},
	{ID: "t2", Title: "Shadows", Artists: "Beta & Gamma"},
	{ID: "t3", Title: "Rivers", Artists: "Delta"},
}

type fixture struct {
	engine    *Engine
	catalog   *catalog.Catalog
	player    *queue.Player
	playlists *repositories.PlaylistRepository
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	cat := catalog.New(repositories.NewTrackRepository(db), nil)
	if _, err := cat.Add(known); err != nil {
		t.Fatalf("failed to seed catalog: %v", err)
	}

	signal := queue.NewSignal()
	player := queue.NewPlayer(queue.New(signal), signal, nil)
	playlists := repositories.NewPlaylistRepository(db)

	return fixture{
		engine:    NewEngine(cat, player, playlists, nil),
		catalog:   cat,
		player:    player,
		playlists: playlists,
	}
}

func queuedIDs(p *queue.Player) []string {
	var out []string
	for _, t := range p.Queue().Tracks() {
		out = append(out, t.ID)
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func drain(ch chan ProgressUpdate) []ProgressUpdate {
	var out []ProgressUpdate
	for {
		select {
		case u := <-ch:
			out = append(out, u)
		default:
			return out
		}
	}
}

func TestParsePlaylistURL(t *testing.T) {
	const id = "5f3c9a7b2e1d4c6a8b0f1e2d"

	tests := []struct {
		name  string
		input string
		want  string
		err   bool
	}{
		{name: "bare ID", input: id, want: id},
		{name: "full URL", input: "https://player.monstercat.app/playlist/" + id, want: id},
		{name: "trailing slash", input: "https://player.monstercat.app/playlist/" + id + "/", want: id},
		{name: "query string", input: "https://player.monstercat.app/playlist/" + id + "?ref=share", want: id},
		{name: "surrounding whitespace", input: "  " + id + "\n", want: id},
		{name: "too short", input: "https://player.monstercat.app/playlist/abc", err: true},
		{name: "too long", input: id + "0", err: true},
		{name: "empty", input: "", err: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePlaylistURL(tt.input)
			if tt.err {
				if !errors.Is(err, shared.ErrInvalidPlaylistURL) {
					t.Fatalf("expected ErrInvalidPlaylistURL, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestEngine(t *testing.T) {
	ctx := context.Background()

	t.Run("LoadRemote", func(t *testing.T) {
		t.Run("reconciles against the catalog", func(t *testing.T) {
			f := newFixture(t)
			source := &th.MockSource{Tracklists: map[string][]models.Track{
				"p1": {
					{ID: "t2", Title: "stale title"},
					{ID: "gone", Title: "Unreleased", Artists: "Nobody"},
					{ID: "t1"},
				},
			}}
			progress := make(chan ProgressUpdate, 16)

			result, err := f.engine.LoadRemote(ctx, progress, source, "p1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if got := queuedIDs(f.player); !equalIDs(got, []string{"t2", "t1"}) {
				t.Errorf("expected queue [t2 t1], got %v", got)
			}
			if q, _ := f.player.Queue().Get(0); q.Title != "Shadows" {
				t.Errorf("expected the catalog copy of t2, got %+v", q)
			}
			if active, ok := f.player.Signal().Active(); !ok || active.ID != "t2" {
				t.Errorf("expected t2 to be playing, got %+v %v", active, ok)
			}
			if len(result.Skipped) != 1 || result.Skipped[0].ID != "gone" {
				t.Errorf("expected one skipped track, got %+v", result.Skipped)
			}
			if len(result.Errors) != 1 || !errors.Is(result.Errors[0], shared.ErrTrackNotInCatalog) {
				t.Errorf("expected ErrTrackNotInCatalog, got %v", result.Errors)
			}

			updates := drain(progress)
			if len(updates) != 5 {
				t.Fatalf("expected 5 updates, got %d", len(updates))
			}
			if updates[0].Phase != FetchPlaylist || updates[4].Phase != StartPlayback {
				t.Errorf("unexpected phases %v, %v", updates[0].Phase, updates[4].Phase)
			}
			if updates[2].Phase != Reconcile || updates[2].Step != 2 || updates[2].Total != 3 {
				t.Errorf("unexpected reconcile update %+v", updates[2])
			}
		})

		t.Run("nothing known keeps the queue", func(t *testing.T) {
			f := newFixture(t)
			f.player.PlayTracks(known[:1])
			source := &th.MockSource{Tracklists: map[string][]models.Track{"p1": {{ID: "x"}, {ID: "y"}}}}

			result, err := f.engine.LoadRemote(ctx, nil, source, "p1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(result.Loaded) != 0 || len(result.Skipped) != 2 {
				t.Errorf("unexpected result %+v", result)
			}
			if got := queuedIDs(f.player); !equalIDs(got, []string{"t1"}) {
				t.Errorf("expected the queue to be untouched, got %v", got)
			}
			if active, ok := f.player.Signal().Active(); !ok || active.ID != "t1" {
				t.Error("expected playback to be untouched")
			}
		})

		t.Run("source error", func(t *testing.T) {
			f := newFixture(t)
			source := &th.MockSource{NotFound: shared.ErrPlaylistNotFound}

			_, err := f.engine.LoadRemote(ctx, nil, source, "missing")
			if !errors.Is(err, shared.ErrPlaylistNotFound) {
				t.Fatalf("expected ErrPlaylistNotFound, got %v", err)
			}
		})

		t.Run("nil source", func(t *testing.T) {
			f := newFixture(t)
			if _, err := f.engine.LoadRemote(ctx, nil, nil, "p1"); !errors.Is(err, shared.ErrServiceUnavailable) {
				t.Fatalf("expected ErrServiceUnavailable, got %v", err)
			}
		})

		t.Run("full progress channel does not block", func(t *testing.T) {
			f := newFixture(t)
			source := &th.MockSource{Tracklists: map[string][]models.Track{"p1": known}}
			progress := make(chan ProgressUpdate)

			if _, err := f.engine.LoadRemote(ctx, progress, source, "p1"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if f.player.Queue().Len() != 3 {
				t.Errorf("expected 3 queued tracks, got %d", f.player.Queue().Len())
			}
		})
	})

	t.Run("SavePlaylist and LoadSaved", func(t *testing.T) {
		f := newFixture(t)
		f.player.PlayTracks(known)

		saved, err := f.engine.SavePlaylist(nil, "  Evening  ")
		if err != nil {
			t.Fatalf("save: %v", err)
		}
		if saved.Name() != "Evening" || !equalIDs(saved.TrackIDs(), []string{"t1", "t2", "t3"}) {
			t.Errorf("unexpected saved playlist %s %v", saved.Name(), saved.TrackIDs())
		}

		f.player.Queue().RemoveLast()
		again, err := f.engine.SavePlaylist(nil, "Evening")
		if err != nil {
			t.Fatalf("resave: %v", err)
		}
		if again.ID() != saved.ID() {
			t.Errorf("expected the playlist to be updated in place, got %s and %s", saved.ID(), again.ID())
		}

		f.player.Queue().Clear()
		result, err := f.engine.LoadSaved(nil, "Evening")
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if got := queuedIDs(f.player); !equalIDs(got, []string{"t1", "t2"}) {
			t.Errorf("expected [t1 t2], got %v", got)
		}
		if len(result.Loaded) != 2 {
			t.Errorf("expected 2 loaded, got %d", len(result.Loaded))
		}

		if _, err := f.engine.LoadSaved(nil, "Morning"); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})

	t.Run("saved playlists need a store", func(t *testing.T) {
		f := newFixture(t)
		engine := NewEngine(f.catalog, f.player, nil, nil)
		if _, err := engine.SavePlaylist(nil, "x"); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
		if _, err := engine.LoadSaved(nil, "x"); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("UploadQueue", func(t *testing.T) {
		t.Run("creates a playlist from the queue", func(t *testing.T) {
			f := newFixture(t)
			source := &th.MockSource{}
			f.player.PlayTracks(known[:2])

			created, err := f.engine.UploadQueue(ctx, source, "  Evening ", true)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if created.Name != "Evening" || !created.Public || !equalIDs(created.TrackIDs, queuedIDs(f.player)) {
				t.Errorf("unexpected playlist %+v", created)
			}
			if len(source.Account) != 1 {
				t.Errorf("expected 1 remote playlist, got %d", len(source.Account))
			}
		})

		t.Run("replaces the tracks of a playlist with the same name", func(t *testing.T) {
			f := newFixture(t)
			source := &th.MockSource{Account: []models.RemotePlaylist{
				{ID: "5a1b2c3d4e5f6a7b8c9d0e1f", Name: "Evening", TrackIDs: []string{"old"}},
			}}
			f.player.PlayTracks(known[1:])

			saved, err := f.engine.UploadQueue(ctx, source, "Evening", true)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if saved.ID != "5a1b2c3d4e5f6a7b8c9d0e1f" || saved.Public {
				t.Errorf("expected the existing playlist to be kept, got %+v", saved)
			}
			if len(source.Account) != 1 || !equalIDs(source.Account[0].TrackIDs, queuedIDs(f.player)) {
				t.Errorf("expected the tracks to be replaced, got %+v", source.Account)
			}
		})

		t.Run("blank names get a default", func(t *testing.T) {
			f := newFixture(t)
			source := &th.MockSource{}
			f.player.PlayTracks(known[:1])

			created, err := f.engine.UploadQueue(ctx, source, " ", false)
			if err != nil || created.Name != "New Playlist" {
				t.Errorf("expected the default name, got %+v %v", created, err)
			}
		})

		t.Run("empty queue", func(t *testing.T) {
			f := newFixture(t)
			source := &th.MockSource{}

			if _, err := f.engine.UploadQueue(ctx, source, "Evening", false); !errors.Is(err, shared.ErrQueueEmpty) {
				t.Errorf("expected ErrQueueEmpty, got %v", err)
			}
			if source.Calls() != 0 {
				t.Errorf("expected no remote calls, got %d", source.Calls())
			}
		})

		t.Run("needs an editor", func(t *testing.T) {
			f := newFixture(t)
			if _, err := f.engine.UploadQueue(ctx, nil, "x", false); !errors.Is(err, shared.ErrServiceUnavailable) {
				t.Errorf("expected ErrServiceUnavailable, got %v", err)
			}
		})
	})

	t.Run("SyncCatalog", func(t *testing.T) {
		f := newFixture(t)
		source := &th.MockSource{Catalog: []models.Track{
			{ID: "t1", Title: "Lights (Remastered)", Artists: "Alpha"},
			{ID: "t4", Title: "Embers", Artists: "Epsilon"},
		}}
		progress := make(chan ProgressUpdate, 4)

		n, err := f.engine.SyncCatalog(ctx, progress, source)
		if err != nil || n != 2 {
			t.Fatalf("expected 2 synced tracks, got %d %v", n, err)
		}
		if got, _ := f.catalog.Lookup("t1"); got.Title != "Lights (Remastered)" {
			t.Errorf("expected t1 to be updated, got %+v", got)
		}
		if f.catalog.Len() != 4 {
			t.Errorf("expected 4 catalog tracks, got %d", f.catalog.Len())
		}
		if updates := drain(progress); len(updates) != 2 || updates[1].Phase != StoreCatalog {
			t.Errorf("unexpected updates %+v", updates)
		}

		failing := &th.MockSource{Err: errors.New("boom")}
		if _, err := f.engine.SyncCatalog(ctx, nil, failing); err == nil {
			t.Error("expected an error from a failing source")
		}
	})

	t.Run("PlayRows", func(t *testing.T) {
		rows := models.RowSet{
			{"Catalog #", "Track", "Artist"},
			{"MCS1", "lights", "ALPHA"},
			{"MCS9", "Unknown", "Nobody"},
			{"MCS3", "Rivers", "Delta"},
		}
		cols := models.NewColumns(rows.Header())

		t.Run("play", func(t *testing.T) {
			f := newFixture(t)
			tracks := f.engine.PlayRows(nil, cols, rows.Body(), false)
			if len(tracks) != 2 {
				t.Fatalf("expected 2 resolved tracks, got %d", len(tracks))
			}
			if got := queuedIDs(f.player); !equalIDs(got, []string{"t1", "t3"}) {
				t.Errorf("expected [t1 t3], got %v", got)
			}
		})

		t.Run("add", func(t *testing.T) {
			f := newFixture(t)
			f.player.PlayTracks(known[1:2])
			f.engine.PlayRows(nil, cols, rows.Body(), true)
			if got := queuedIDs(f.player); !equalIDs(got, []string{"t2", "t1", "t3"}) {
				t.Errorf("expected [t2 t1 t3], got %v", got)
			}
			if active, _ := f.player.Signal().Active(); active.ID != "t2" {
				t.Errorf("expected playback to continue with t2, got %s", active.ID)
			}
		})

		t.Run("no matches", func(t *testing.T) {
			f := newFixture(t)
			if tracks := f.engine.PlayRows(nil, cols, rows[2:3], false); tracks != nil {
				t.Errorf("expected nothing, got %v", tracks)
			}
			if f.player.Queue().Len() != 0 {
				t.Error("expected an empty queue")
			}
		})
	})
}

func TestFindRemote(t *testing.T) {
	ctx := context.Background()
	source := &th.MockSource{Account: []models.RemotePlaylist{
		{ID: "5a1b2c3d4e5f6a7b8c9d0e1f", Name: "Morning"},
		{ID: "6b2c3d4e5f6a7b8c9d0e1f2a", Name: "Twice"},
		{ID: "7c3d4e5f6a7b8c9d0e1f2a3b", Name: "Twice"},
	}}

	t.Run("by name", func(t *testing.T) {
		p, err := FindRemote(ctx, source, "Morning")
		if err != nil || p.ID != "5a1b2c3d4e5f6a7b8c9d0e1f" {
			t.Errorf("expected Morning, got %+v %v", p, err)
		}
	})

	t.Run("by ID", func(t *testing.T) {
		p, err := FindRemote(ctx, source, "7c3d4e5f6a7b8c9d0e1f2a3b")
		if err != nil || p.Name != "Twice" {
			t.Errorf("expected the second Twice, got %+v %v", p, err)
		}
	})

	t.Run("ambiguous name", func(t *testing.T) {
		if _, err := FindRemote(ctx, source, "Twice"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if _, err := FindRemote(ctx, source, "Evening"); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})
}

func TestResolveRows(t *testing.T) {
	f := newFixture(t)

	t.Run("Title column fallback", func(t *testing.T) {
		rows := models.RowSet{{"Title", "Artists"}, {"Shadows", "Beta  &  Gamma"}, {"", ""}}
		tracks, unmatched := ResolveRows(models.NewColumns(rows.Header()), rows.Body(), f.catalog, nil)
		if len(tracks) != 1 || tracks[0].ID != "t2" {
			t.Errorf("expected t2, got %+v", tracks)
		}
		if len(unmatched) != 1 || unmatched[0] != 1 {
			t.Errorf("expected row 1 unmatched, got %v", unmatched)
		}
	})

	t.Run("short rows", func(t *testing.T) {
		rows := models.RowSet{{"Track", "Artist"}, {"Rivers"}}
		tracks, unmatched := ResolveRows(models.NewColumns(rows.Header()), rows.Body(), f.catalog, nil)
		if len(tracks) != 0 || len(unmatched) != 1 {
			t.Errorf("expected a short row to be unmatched, got %v %v", tracks, unmatched)
		}
	})
}

func TestPhaseString(t *testing.T) {
	phases := map[Phase]string{
		FetchPlaylist: "fetch_playlist",
		Reconcile:     "reconcile",
		StartPlayback: "start_playback",
		FetchCatalog:  "fetch_catalog",
		StoreCatalog:  "store_catalog",
		SavePlaylist:  "save_playlist",
		Phase(99):     "",
	}
	for phase, want := range phases {
		if got := phase.String(); got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	}
}
