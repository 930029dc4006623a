package main

import (
	"context"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mcb/internal/fetch"
	"github.com/desertthunder/mcb/internal/refresh"
	"github.com/desertthunder/mcb/internal/shared"
	"github.com/desertthunder/mcb/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive browser: one tab per source plus the play queue.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	dir, err := r.config.Cache.ResolveDir()
	if err != nil {
		return err
	}

	// Logs go to a file so they do not interfere with rendering.
	fileLogger, closeLog, err := shared.NewFileLogger(filepath.Join(dir, "logs", "mcb-tui.log"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer closeLog()
	shared.SetLogLevel(fileLogger, shared.ParseLogLevel(r.config.Log.Level))
	r.SetLogger(fileLogger)

	e, err := r.open()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loop := fetch.NewLoop()
	var views []*ui.SourceView
	coords, err := r.coordinators(e, cmd.StringSlice("source"), loop, func(name string) fetch.Consumer {
		v := ui.NewSourceView(name)
		views = append(views, v)
		return v
	})
	if err != nil {
		return err
	}

	hub := refresh.NewHub(ctx, r.config.Refresh.Debounce(), loop, r.logger)
	defer hub.Stop()
	hub.AddInvalidator(e.catalog.Invalidate)
	for i, c := range coords {
		views[i].Attach(c)
		hub.Register(c)
	}

	model := ui.NewModel(ctx, ui.Options{
		Loop:    loop,
		Hub:     hub,
		Player:  e.player,
		Engine:  e.engine,
		Catalog: r.remote,
		Sources: views,
		Logger:  r.logger,
	})
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
