package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/desertthunder/mcb/internal/fetch"
	"github.com/desertthunder/mcb/internal/models"
	"github.com/desertthunder/mcb/internal/refresh"
	"github.com/desertthunder/mcb/internal/shared"
	"github.com/urfave/cli/v3"
)

// printer is a [fetch.Consumer] that reports every publication as a line of output.
type printer struct {
	r    *Runner
	name string
}

func (p printer) SetRows(rows models.RowSet) {
	p.r.writePlain("[%s] %d rows\n", p.name, len(rows.Body()))
}

func (p printer) SetPlaceholder(ph fetch.Placeholder) {
	if ph == fetch.PlaceholderNoMatches {
		return
	}
	p.r.writePlain("[%s] %s\n", p.name, ph)
}

func (p printer) Notify(message string) {
	p.r.writePlain("[%s] %s\n", p.name, message)
}

// Watch refreshes every source, then watches the config file: each change reapplies the cache and debounce settings
// and schedules a coordinated refresh. Runs until interrupted.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	if r.configPath == "" {
		return fmt.Errorf("%w: watch needs a config file", shared.ErrMissingConfig)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e, err := r.open()
	if err != nil {
		return err
	}
	defer e.Close()

	loop := fetch.NewLoop()
	go loop.Run(ctx)

	coords, err := r.coordinators(e, cmd.StringSlice("source"), loop, func(name string) fetch.Consumer {
		return printer{r: r, name: name}
	})
	if err != nil {
		return err
	}

	hub := refresh.NewHub(ctx, r.config.Refresh.Debounce(), loop, r.logger)
	defer hub.Stop()
	hub.AddInvalidator(e.catalog.Invalidate)
	for _, c := range coords {
		hub.Register(c)
	}
	hub.AddView(func() { r.writePlain("✓ %d sources refreshed\n", len(coords)) })

	hub.Trigger()

	err = shared.WatchConfig(ctx, r.configPath, r.logger, func(config *shared.Config) {
		e.disk.SetEnabled(config.Cache.Enabled)
		hub.SetDelay(config.Refresh.Debounce())
		hub.Trigger()
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
