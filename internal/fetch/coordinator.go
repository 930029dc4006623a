package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mcb/internal/models"
	"github.com/desertthunder/mcb/internal/shared"
)

// Options configures a [Coordinator].
type Options struct {
	// Name identifies the source in logs and notifications and is its cache key.
	Name string
	// Source is passed to the provider; it defaults to Name.
	Source string
	// KeyColumn names the header whose values must be known to Reference. Empty disables validation.
	KeyColumn string

	Provider  Provider
	Cache     Cache
	Reference Reference
	Consumer  Consumer
	// Dispatcher defaults to [Inline].
	Dispatcher Dispatcher
	Logger     *log.Logger

	// Static rows are published as-is on every refresh; the provider and the cache are never used.
	Static models.RowSet
}

// Coordinator owns the fetch lifecycle of a single source.
//
// Refresh while a fetch is running queues exactly one more fetch, however many calls arrive, so completions are
// strictly ordered. Restart supersedes the running fetch: its result is discarded when it arrives.
type Coordinator struct {
	opts   Options
	logger *log.Logger

	// cacheMu serializes cache writes with their staleness check.
	cacheMu sync.Mutex

	mu          sync.Mutex
	state       State
	placeholder Placeholder
	rows        models.RowSet
	err         error
	gen         uint64
	running     bool
	pending     bool
	idle        chan struct{}
}

// NewCoordinator creates an idle coordinator. Nothing is fetched until [Coordinator.Refresh].
func NewCoordinator(opts Options) *Coordinator {
	if opts.Source == "" {
		opts.Source = opts.Name
	}
	if opts.Dispatcher == nil {
		opts.Dispatcher = Inline{}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NopLogger()
	}

	idle := make(chan struct{})
	close(idle)

	return &Coordinator{
		opts:        opts,
		logger:      shared.WithLogger(opts.Logger, "component", "fetch", "source", opts.Name),
		placeholder: PlaceholderLoading,
		idle:        idle,
	}
}

// Refresh starts a fetch, or queues one more if a fetch is running. It never blocks.
func (c *Coordinator) Refresh(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		if !c.pending {
			c.logger.Debug("fetch in progress, queueing one more")
		}
		c.pending = true
		return
	}
	c.startLocked(ctx)
}

// Restart starts a new fetch generation immediately. A fetch already running completes but its result is dropped.
func (c *Coordinator) Restart(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	c.pending = false
	if !c.running {
		c.running = true
		c.idle = make(chan struct{})
	}
	c.logger.Debug("restarting fetch", "generation", c.gen)
	go c.run(ctx, c.gen)
}

func (c *Coordinator) startLocked(ctx context.Context) {
	c.running = true
	c.idle = make(chan struct{})
	go c.run(ctx, c.gen)
}

// Wait blocks until no fetch is running or queued.
func (c *Coordinator) Wait(ctx context.Context) error {
	c.mu.Lock()
	idle := c.idle
	c.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Coordinator) Name() string { return c.opts.Name }

// State returns the current fetch state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Placeholder returns the placeholder last published.
func (c *Coordinator) Placeholder() Placeholder {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.placeholder
}

// Rows returns a copy of the rows last published.
func (c *Coordinator) Rows() models.RowSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rows.Clone()
}

// Columns maps the header of the published rows.
func (c *Coordinator) Columns() models.Columns {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.NewColumns(c.rows.Header())
}

// Generation returns the current fetch generation. Only [Coordinator.Restart] advances it.
func (c *Coordinator) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Err returns the error of the last fetch, if it failed.
func (c *Coordinator) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// run fetches until no more fetches are queued for gen. A superseded runner exits without touching the idle state,
// which the runner of the newer generation owns.
func (c *Coordinator) run(ctx context.Context, gen uint64) {
	for {
		c.fetch(ctx, gen)

		c.mu.Lock()
		switch {
		case gen != c.gen:
			c.mu.Unlock()
			return
		case c.pending:
			c.pending = false
			c.mu.Unlock()
		default:
			c.running = false
			close(c.idle)
			c.mu.Unlock()
			return
		}
	}
}

func (c *Coordinator) fetch(ctx context.Context, gen uint64) {
	if c.opts.Static != nil {
		c.succeed(gen, c.opts.Static.Clone(), false)
		return
	}

	c.begin(gen)

	rows, err := c.fetchRemote(ctx)
	if err != nil {
		c.logger.Warn("fetch failed", "error", err)
	}
	if len(rows) > 0 {
		rows = c.validate(rows)
	}
	if len(rows.Body()) > 0 {
		c.succeed(gen, rows, true)
		return
	}

	c.fallback(gen, err)
}

// fetchRemote calls the provider, converting errors and panics into [shared.ErrFetchFailed].
func (c *Coordinator) fetchRemote(ctx context.Context) (rows models.RowSet, err error) {
	if c.opts.Provider == nil {
		return nil, fmt.Errorf("%w: no provider", shared.ErrFetchFailed)
	}
	defer func() {
		if r := recover(); r != nil {
			rows, err = nil, fmt.Errorf("%w: provider panicked: %v", shared.ErrFetchFailed, r)
		}
	}()

	rows, err = c.opts.Provider.FetchRows(ctx, c.opts.Source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrFetchFailed, err)
	}
	return rows, nil
}

// validate drops body rows whose key column value is unknown to the reference. Validation is skipped when there is
// no key column, no reference, an empty reference or a header without the key column.
func (c *Coordinator) validate(rows models.RowSet) models.RowSet {
	ref := c.opts.Reference
	if c.opts.KeyColumn == "" || ref == nil {
		return rows
	}
	if ref.Len() == 0 {
		c.logger.Debug("reference is empty, skipping validation")
		return rows
	}

	cols := models.NewColumns(rows.Header())
	idx, ok := cols.Find(c.opts.KeyColumn)
	if !ok {
		c.logger.Warn("key column missing, skipping validation", "column", c.opts.KeyColumn)
		return rows
	}

	out := models.RowSet{rows.Header()}
	dropped := 0
	for _, row := range rows.Body() {
		if idx < len(row) && ref.Contains(row[idx]) {
			out = append(out, row)
			continue
		}
		dropped++
		key := ""
		if idx < len(row) {
			key = row[idx]
		}
		c.logger.Warn("dropping row not found in reference", "key", key)
	}
	if dropped > 0 {
		c.logger.Info("validated rows", "kept", len(out)-1, "dropped", dropped)
	}
	return out
}

func (c *Coordinator) begin(gen uint64) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.state = Fetching
	empty := len(c.rows) == 0
	if empty {
		c.placeholder = PlaceholderFetching
	}
	c.mu.Unlock()

	if empty {
		c.publish(gen, func(consumer Consumer) { consumer.SetPlaceholder(PlaceholderFetching) })
	}
}

func (c *Coordinator) succeed(gen uint64, rows models.RowSet, cache bool) {
	if c.stale(gen) {
		c.logger.Debug("discarding stale result", "generation", gen)
		return
	}

	if cache && !c.writeCache(gen, rows) {
		c.logger.Debug("discarding stale result", "generation", gen)
		return
	}

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.state = Succeeded
	c.placeholder = PlaceholderNoMatches
	c.rows = rows
	c.err = nil
	c.mu.Unlock()

	c.logger.Info("fetched rows", "rows", len(rows.Body()))
	published := rows.Clone()
	c.publish(gen, func(consumer Consumer) {
		consumer.SetRows(published)
		consumer.SetPlaceholder(PlaceholderNoMatches)
	})
}

// fallback handles a fetch with nothing to show. Existing rows are kept silently; otherwise the cache is tried.
func (c *Coordinator) fallback(gen uint64, cause error) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	if len(c.rows) > 0 {
		c.state = Idle
		c.err = cause
		c.mu.Unlock()
		c.logger.Debug("no update, keeping existing rows")
		return
	}
	c.mu.Unlock()

	rows, err := c.readCache()
	if err != nil {
		c.logger.Warn("no data available", "error", err)
		c.mu.Lock()
		if gen != c.gen {
			c.mu.Unlock()
			return
		}
		c.state = FailedEmpty
		c.placeholder = PlaceholderRetry
		c.err = errors.Join(cause, err)
		c.mu.Unlock()

		c.publish(gen, func(consumer Consumer) { consumer.SetPlaceholder(PlaceholderRetry) })
		return
	}

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.state = FailedWithFallback
	c.placeholder = PlaceholderNoMatches
	c.rows = rows
	c.err = cause
	c.mu.Unlock()

	c.logger.Info("restored from cache", "rows", len(rows.Body()))
	published := rows.Clone()
	c.publish(gen, func(consumer Consumer) {
		consumer.SetRows(published)
		consumer.SetPlaceholder(PlaceholderNoMatches)
		consumer.Notify(RestoredMessage(c.opts.Name))
	})
}

// writeCache stores rows unless gen has been superseded, and reports false in that case. Writes are serialized so a
// superseded generation cannot overwrite the entry of a newer one. Write failures are logged and ignored.
func (c *Coordinator) writeCache(gen uint64, rows models.RowSet) bool {
	if c.opts.Cache == nil {
		return true
	}

	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()

	if c.stale(gen) {
		return false
	}
	if err := c.opts.Cache.Write(c.opts.Name, rows); err != nil {
		c.logger.Warn("could not cache rows", "error", err)
	}
	return true
}

// readCache reads the cached rows, clearing a corrupt entry. Any failure is reported as a miss.
func (c *Coordinator) readCache() (models.RowSet, error) {
	if c.opts.Cache == nil {
		return nil, shared.ErrCacheNotFound
	}

	rows, err := c.opts.Cache.Read(c.opts.Name)
	switch {
	case errors.Is(err, shared.ErrCacheCorrupt):
		c.logger.Warn("clearing corrupt cache entry", "error", err)
		if clearErr := c.opts.Cache.Clear(c.opts.Name); clearErr != nil {
			c.logger.Warn("could not clear cache entry", "error", clearErr)
		}
		return nil, fmt.Errorf("%w: %w", shared.ErrCacheNotFound, err)
	case err != nil:
		return nil, err
	case len(rows.Body()) == 0:
		return nil, fmt.Errorf("%w: empty entry", shared.ErrCacheNotFound)
	}
	return rows, nil
}

func (c *Coordinator) stale(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen != c.gen
}

// publish hands fn to the dispatcher, dropping it if gen has been superseded by the time it runs.
func (c *Coordinator) publish(gen uint64, fn func(Consumer)) {
	consumer := c.opts.Consumer
	if consumer == nil {
		return
	}
	c.opts.Dispatcher.Dispatch(func() {
		if c.stale(gen) {
			return
		}
		fn(consumer)
	})
}
