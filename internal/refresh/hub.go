package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mcb/internal/fetch"
	"github.com/desertthunder/mcb/internal/shared"
	"golang.org/x/sync/errgroup"
)

// Refresher is a refreshable data source. [*fetch.Coordinator] implements it.
type Refresher interface {
	Name() string
	Refresh(ctx context.Context)
	Wait(ctx context.Context) error
}

// Hub is the registry behind a coordinated refresh: shared caches are invalidated, every source is refreshed, then
// every view is redrawn.
type Hub struct {
	ctx        context.Context
	dispatcher fetch.Dispatcher
	logger     *log.Logger

	mu           sync.Mutex
	sources      []Refresher
	views        []func()
	invalidators []func()

	refreshDebounce *Debouncer
	redrawDebounce  *Debouncer
}

// NewHub creates a hub whose debounced refreshes run with ctx and publish redraws through dispatcher.
func NewHub(ctx context.Context, delay time.Duration, dispatcher fetch.Dispatcher, logger *log.Logger) *Hub {
	if dispatcher == nil {
		dispatcher = fetch.Inline{}
	}
	if logger == nil {
		logger = shared.NopLogger()
	}
	h := &Hub{
		ctx:        ctx,
		dispatcher: dispatcher,
		logger:     shared.WithLogger(logger, "component", "refresh"),
	}
	h.refreshDebounce = NewDebouncer(delay, func() {
		if err := h.Sync(h.ctx); err != nil {
			h.logger.Warn("coordinated refresh interrupted", "error", err)
		}
	})
	h.redrawDebounce = NewDebouncer(delay, h.RefreshViews)
	return h
}

// Register adds a source to every coordinated refresh.
func (h *Hub) Register(r Refresher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sources = append(h.sources, r)
}

// AddView adds a redraw callback. Callbacks run through the dispatcher.
func (h *Hub) AddView(redraw func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.views = append(h.views, redraw)
}

// AddInvalidator adds a shared computed cache to drop before sources refresh.
func (h *Hub) AddInvalidator(invalidate func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.invalidators = append(h.invalidators, invalidate)
}

// Sources returns the registered sources.
func (h *Hub) Sources() []Refresher {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Refresher(nil), h.sources...)
}

// RefreshAll invalidates shared caches and refreshes every source without waiting.
func (h *Hub) RefreshAll(ctx context.Context) {
	sources, invalidators := h.snapshot()

	for _, invalidate := range invalidators {
		invalidate()
	}
	for _, s := range sources {
		s.Refresh(ctx)
	}
	h.logger.Debug("refreshing sources", "count", len(sources))
}

// Sync refreshes every source, waits for all of them and then redraws the views.
func (h *Hub) Sync(ctx context.Context) error {
	h.RefreshAll(ctx)

	g, ctx := errgroup.WithContext(ctx)
	for _, s := range h.Sources() {
		g.Go(func() error { return s.Wait(ctx) })
	}
	if err := g.Wait(); err != nil {
		return err
	}

	h.RefreshViews()
	return nil
}

// RefreshViews asks every view to redraw.
func (h *Hub) RefreshViews() {
	h.mu.Lock()
	views := append([]func(){}, h.views...)
	h.mu.Unlock()

	for _, redraw := range views {
		h.dispatcher.Dispatch(redraw)
	}
}

// Trigger schedules a debounced [Hub.Sync].
func (h *Hub) Trigger() { h.refreshDebounce.Trigger() }

// TriggerViews schedules a debounced redraw only, for display settings that need no refetch.
func (h *Hub) TriggerViews() { h.redrawDebounce.Trigger() }

// SetDelay changes the debounce delay of both triggers.
func (h *Hub) SetDelay(delay time.Duration) {
	h.refreshDebounce.SetDelay(delay)
	h.redrawDebounce.SetDelay(delay)
}

// Stop cancels pending triggers.
func (h *Hub) Stop() {
	h.refreshDebounce.Stop()
	h.redrawDebounce.Stop()
}

func (h *Hub) snapshot() ([]Refresher, []func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Refresher(nil), h.sources...), append([]func(){}, h.invalidators...)
}
