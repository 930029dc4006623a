package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/mcb/internal/fetch"
	"github.com/desertthunder/mcb/internal/formatter"
	"github.com/desertthunder/mcb/internal/models"
	"github.com/desertthunder/mcb/internal/refresh"
	"github.com/desertthunder/mcb/internal/tasks"
	"github.com/urfave/cli/v3"
)

// CatalogFetch runs one coordinated refresh of the selected sources and prints what each source published.
//
// Results are published through a [fetch.Loop] so that printing only starts once every coordinator has delivered.
func (r *Runner) CatalogFetch(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	e, err := r.open()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loop := fetch.NewLoop()
	go loop.Run(ctx)

	var collectors []*collector
	coords, err := r.coordinators(e, cmd.StringSlice("source"), loop, func(name string) fetch.Consumer {
		c := newCollector(name)
		collectors = append(collectors, c)
		return c
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

	if err := hub.Sync(ctx); err != nil {
		return fmt.Errorf("refresh interrupted: %w", err)
	}
	if err := loop.Drain(ctx); err != nil {
		return err
	}

	limit := int(cmd.Int("limit"))
	var failed []error
	for i, c := range coords {
		if err := r.printSource(c, collectors[i], format, limit); err != nil {
			return err
		}
		if c.State() == fetch.FailedEmpty {
			failed = append(failed, fmt.Errorf("%s: %w", c.Name(), c.Err()))
		}
	}

	if len(failed) == len(coords) && len(coords) > 0 {
		return errors.Join(failed...)
	}
	return nil
}

func (r *Runner) printSource(c *fetch.Coordinator, out *collector, format formatter.Format, limit int) error {
	rows, placeholder, ok, notices := out.result()

	if format == formatter.Table {
		r.writePlainHeader(fmt.Sprintf("%s (%s)", c.Name(), c.State()))
	}
	for _, notice := range notices {
		r.logger.Info(notice, "source", c.Name())
	}
	if !ok {
		r.writePlain("%s\n", placeholder)
		return nil
	}
	return formatter.WriteRows(r.output, truncate(rows, limit), format)
}

// truncate keeps the header and at most limit body rows. A limit of zero or less keeps everything.
func truncate(rows models.RowSet, limit int) models.RowSet {
	body := rows.Body()
	if limit <= 0 || len(body) <= limit {
		return rows
	}
	return append(models.RowSet{rows.Header()}, body[:limit]...)
}

// CatalogShow prints the tracks known to the local catalog.
func (r *Runner) CatalogShow(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	e, err := r.open()
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.catalog.Load(); err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	tracks := e.catalog.Tracks()
	if limit := int(cmd.Int("limit")); limit > 0 && len(tracks) > limit {
		tracks = tracks[:limit]
	}
	return formatter.WriteTracks(r.output, "Catalog", tracks, -1, format)
}

// CatalogSync replaces the local catalog with the tracks listed by the remote catalog.
func (r *Runner) CatalogSync(ctx context.Context, cmd *cli.Command) error {
	e, err := r.open()
	if err != nil {
		return err
	}
	defer e.Close()

	progress := make(chan tasks.ProgressUpdate, 8)
	done := r.printProgress(progress)

	n, err := e.engine.SyncCatalog(ctx, progress, r.remote)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	r.writePlain("✓ Catalog synced: %d tracks\n", n)
	return nil
}
