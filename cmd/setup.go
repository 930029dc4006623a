package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/mcb/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup creates the config file from the bundled template when it does not exist, then initializes the database and
// runs migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	config := r.config
	if r.configPath != "" {
		if _, err := os.Stat(r.configPath); err != nil {
			r.logger.Info("config file not found, creating from template", "path", r.configPath)
			if err := shared.CreateConfigFile(r.configPath); err != nil {
				r.logger.Warn("failed to create config file, using defaults", "error", err)
			} else if loaded, err := shared.LoadConfig(r.configPath); err == nil {
				config = loaded
			}
		}
	}
	r.config = config

	r.logger.Info("initializing database", "path", config.Database.Path)
	e, err := r.open()
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}
	defer e.Close()

	dir, err := config.Cache.ResolveDir()
	if err != nil {
		return err
	}

	r.writePlain("✓ Database ready: %s\n", config.Database.Path)
	r.writePlain("  Cache: %s (enabled: %t)\n", dir, config.Cache.Enabled)
	r.writePlain("  Sources: %d\n", len(config.Sources))
	return nil
}
