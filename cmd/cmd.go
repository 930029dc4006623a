// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: table, csv, json, text or markdown",
		Value:   "table",
	}
}

func sourceFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:    "source",
		Aliases: []string{"s"},
		Usage:   "Source name from the config (repeatable, default: every source)",
	}
}

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Write the queue to a file; the format follows the extension",
	}
}

// queueFlags control how a queue is walked after it is loaded.
func queueFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{Name: "shuffle", Usage: "Pick next tracks at random"},
		&cli.BoolFlag{Name: "repeat", Usage: "Wrap around at the end of the queue"},
		&cli.StringFlag{
			Name:  "moves",
			Usage: "Playback steps to apply, 'n' for next and 'p' for previous (e.g. nnp)",
		},
		formatFlag(),
		outputFlag(),
	}
}

// setupCommand handles setup operations for the config file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create the config file if missing, initialize the database and run migrations",
		Action: r.Setup,
	}
}

// catalogCommand handles source fetching and the local track catalog.
func catalogCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "catalog",
		Aliases: []string{"cat"},
		Usage:   "Fetch sources and manage the local track catalog",
		Commands: []*cli.Command{
			{
				Name:  "fetch",
				Usage: "Refresh sources, falling back to the cache on failure, and print their rows",
				Flags: []cli.Flag{
					sourceFlag(),
					formatFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of rows to print per source (0 for all)",
						Value: 20,
					},
				},
				Action: r.CatalogFetch,
			},
			{
				Name:  "show",
				Usage: "Print the tracks in the local catalog",
				Flags: []cli.Flag{
					formatFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of tracks to print (0 for all)",
					},
				},
				Action: r.CatalogShow,
			},
			{
				Name:   "sync",
				Usage:  "Download the remote catalog into the local database",
				Action: r.CatalogSync,
			},
		},
	}
}

// cacheCommand handles the on-disk row-set cache.
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and clear cached source rows",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List cached sources",
				Action: r.CacheList,
			},
			{
				Name:      "show",
				Usage:     "Print the rows cached for a source",
				Arguments: []cli.Argument{&cli.StringArg{Name: "key"}},
				Flags:     []cli.Flag{formatFlag()},
				Action:    r.CacheShow,
			},
			{
				Name:      "clear",
				Usage:     "Delete the cache entry for a source",
				Arguments: []cli.Argument{&cli.StringArg{Name: "key"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "all", Usage: "Delete every cache entry"},
				},
				Action: r.CacheClear,
			},
		},
	}
}

// playlistCommand handles remote and saved playlists.
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlist",
		Aliases: []string{"pl"},
		Usage:   "Load, save and play playlists",
		Commands: []*cli.Command{
			{
				Name:      "load",
				Usage:     "Load a remote playlist by URL into the queue",
				Arguments: []cli.Argument{&cli.StringArg{Name: "url"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "save", Usage: "Save the loaded queue under this name"},
					formatFlag(),
					outputFlag(),
				},
				Action: r.PlaylistLoad,
			},
			{
				Name:   "list",
				Usage:  "List saved playlists",
				Action: r.PlaylistList,
			},
			{
				Name:      "play",
				Usage:     "Queue a saved playlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags:     queueFlags(),
				Action:    r.PlaylistPlay,
			},
			remotePlaylistCommand(r),
		},
	}
}

// remotePlaylistCommand manages the playlists of the signed-in account.
func remotePlaylistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "remote",
		Usage: "Manage the playlists of your account (needs api.connect_sid)",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List account playlists",
				Action: r.RemoteList,
			},
			{
				Name:      "save",
				Usage:     "Upload a queue as an account playlist, replacing one with the same name",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "from", Usage: "Saved playlist to queue and upload"},
					&cli.BoolFlag{Name: "public", Usage: "Make a new playlist public"},
				},
				Action: r.RemoteSave,
			},
			{
				Name:  "rename",
				Usage: "Rename an account playlist, by name or ID",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "playlist"},
					&cli.StringArg{Name: "name"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "public", Usage: "Also set whether the playlist is public"},
				},
				Action: r.RemoteRename,
			},
			{
				Name:      "delete",
				Usage:     "Delete an account playlist, by name or ID",
				Arguments: []cli.Argument{&cli.StringArg{Name: "playlist"}},
				Action:    r.RemoteDelete,
			},
		},
	}
}

// queueCommand plays the local catalog.
func queueCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "queue",
		Usage: "Queue the local catalog and step through it",
		Flags: append(queueFlags(), &cli.IntFlag{
			Name:  "limit",
			Usage: "Maximum number of catalog tracks to queue (0 for all)",
		}),
		Action: r.QueuePlay,
	}
}

// watchCommand refreshes sources whenever the config file changes.
func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "watch",
		Usage:  "Refresh sources and refresh again whenever the config file changes",
		Flags:  []cli.Flag{sourceFlag()},
		Action: r.Watch,
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Browse sources and the play queue interactively",
		Flags:   []cli.Flag{sourceFlag()},
		Action:  r.TUI,
	}
}
