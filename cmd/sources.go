package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/desertthunder/mcb/internal/catalog"
	"github.com/desertthunder/mcb/internal/fetch"
	"github.com/desertthunder/mcb/internal/models"
	"github.com/desertthunder/mcb/internal/services"
	"github.com/desertthunder/mcb/internal/shared"
)

// coordinators builds one fetch coordinator per configured source. An empty names list selects every source.
// consumer is called once per source to create the consumer its results are published to.
func (r *Runner) coordinators(e *env, names []string, dispatcher fetch.Dispatcher, consumer func(name string) fetch.Consumer) ([]*fetch.Coordinator, error) {
	selected, err := r.selectSources(names)
	if err != nil {
		return nil, err
	}

	coords := make([]*fetch.Coordinator, 0, len(selected))
	for _, src := range selected {
		opts := fetch.Options{
			Name:       src.Name,
			Consumer:   consumer(src.Name),
			Dispatcher: dispatcher,
			Logger:     r.logger,
		}

		if src.Static {
			rows, err := catalog.Genres()
			if err != nil {
				return nil, err
			}
			opts.Static = rows
		} else {
			opts.Source = services.SheetRange(src.Sheet, src.Request)
			opts.KeyColumn = src.KeyColumn
			opts.Provider = r.sheets
			opts.Cache = e.disk
			if src.KeyColumn != "" {
				opts.Reference = e.catalog
			}
		}

		coords = append(coords, fetch.NewCoordinator(opts))
	}
	return coords, nil
}

func (r *Runner) selectSources(names []string) ([]shared.SourceConfig, error) {
	if len(names) == 0 {
		return r.config.Sources, nil
	}

	selected := make([]shared.SourceConfig, 0, len(names))
	for _, name := range names {
		src, ok := r.config.Source(strings.TrimSpace(name))
		if !ok {
			return nil, fmt.Errorf("%w: %s", shared.ErrUnknownSource, name)
		}
		selected = append(selected, src)
	}
	return selected, nil
}

// collector is a [fetch.Consumer] that keeps the last published state of a source for printing. The placeholder
// only matters while no rows have been published.
type collector struct {
	name string

	mu          sync.Mutex
	rows        models.RowSet
	placeholder fetch.Placeholder
	hasRows     bool
	notices     []string
}

func newCollector(name string) *collector {
	return &collector{name: name}
}

func (c *collector) SetRows(rows models.RowSet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows = rows.Clone()
	c.hasRows = true
}

func (c *collector) SetPlaceholder(p fetch.Placeholder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.placeholder = p
}

func (c *collector) Notify(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = append(c.notices, message)
}

// result returns the rows, or the placeholder shown instead, and every notice received.
func (c *collector) result() (models.RowSet, fetch.Placeholder, bool, []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rows, c.placeholder, c.hasRows, append([]string(nil), c.notices...)
}
