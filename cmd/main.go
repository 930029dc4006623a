package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/mcb/internal/shared"
	"github.com/urfave/cli/v3"
)

// configPath returns the config file location: $MCB_CONFIG, or config.toml in the working directory.
func configPath() string {
	if path := os.Getenv("MCB_CONFIG"); path != "" {
		return path
	}
	return "config.toml"
}

func main() {
	logger := shared.NewLogger(nil)

	path := configPath()
	config := shared.DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		loaded, err := shared.LoadConfig(path)
		if err != nil {
			logger.Warn("failed to load config, using defaults", "path", path, "error", err)
		} else {
			config = loaded
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: path,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "mcb",
		Usage:    "Browse the music catalog, fetch its sheets and play queues",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}
