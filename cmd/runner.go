package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mcb/internal/cache"
	"github.com/desertthunder/mcb/internal/catalog"
	"github.com/desertthunder/mcb/internal/fetch"
	"github.com/desertthunder/mcb/internal/queue"
	"github.com/desertthunder/mcb/internal/repositories"
	"github.com/desertthunder/mcb/internal/services"
	"github.com/desertthunder/mcb/internal/shared"
	"github.com/desertthunder/mcb/internal/tasks"
	"github.com/urfave/cli/v3"
)

// RemoteSource lists remote playlists and the remote catalog, and edits account playlists.
// [*services.ConnectService] implements it.
type RemoteSource interface {
	tasks.PlaylistSource
	tasks.CatalogSource
	tasks.PlaylistEditor
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	sheets     fetch.Provider
	remote     RemoteSource
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Sheets     fetch.Provider
	Remote     RemoteSource
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration.
//
// Sheets and Remote default to the HTTP adapters configured by the [api] section.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	shared.SetLogLevel(opts.Logger, shared.ParseLogLevel(opts.Config.Log.Level))

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		sheets:     opts.Sheets,
		remote:     opts.Remote,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}

	api := opts.Config.API
	if r.sheets == nil {
		r.sheets = services.NewSheetService(api.SheetsURL, api.SpreadsheetID, api.SheetsKey, r.serviceOptions()...)
	}
	if r.remote == nil {
		r.remote = services.NewConnectService(api.ConnectURL, api.ConnectSID, r.serviceOptions()...)
	}
	return r
}

func (r *Runner) serviceOptions() []services.Option {
	opts := []services.Option{
		services.WithLogger(r.logger),
		services.WithRateLimit(r.config.API.RateLimit),
	}
	if r.httpClient != nil {
		return append(opts, services.WithHTTPClient(r.httpClient))
	}
	return append(opts, services.WithTimeout(r.config.API.Timeout()))
}

// SetLogger replaces the logger, for example to keep log output away from the terminal UI.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, catalogCommand, cacheCommand, playlistCommand, queueCommand, watchCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// env is the set of local components a command works with.
type env struct {
	db        *sql.DB
	tracks    *repositories.TrackRepository
	playlists *repositories.PlaylistRepository
	catalog   *catalog.Catalog
	disk      *cache.Disk
	player    *queue.Player
	engine    *tasks.Engine
}

func (e *env) Close() error {
	return e.db.Close()
}

// open connects to the database, applies pending migrations and wires the catalog, cache and player.
func (r *Runner) open() (*env, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, err
	}
	if r.config.Database.Path != ":memory:" {
		shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	}
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	disk, err := r.disk()
	if err != nil {
		db.Close()
		return nil, err
	}

	tracks := repositories.NewTrackRepository(db)
	playlists := repositories.NewPlaylistRepository(db)
	cat := catalog.New(tracks, r.logger)

	signal := queue.NewSignal()
	player := queue.NewPlayer(queue.New(signal), signal, r.logger)

	return &env{
		db:        db,
		tracks:    tracks,
		playlists: playlists,
		catalog:   cat,
		disk:      disk,
		player:    player,
		engine:    tasks.NewEngine(cat, player, playlists, r.logger),
	}, nil
}

func (r *Runner) disk() (*cache.Disk, error) {
	dir, err := r.config.Cache.ResolveDir()
	if err != nil {
		return nil, err
	}
	return cache.New(dir, r.config.Cache.Enabled, r.logger), nil
}

// printProgress writes progress updates until the channel is closed. The returned channel is closed once every
// update has been written.
func (r *Runner) printProgress(progress <-chan tasks.ProgressUpdate) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			switch update.Phase {
			case tasks.FetchPlaylist, tasks.FetchCatalog:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.Reconcile:
				r.writePlain("   %s\n", update.Message)
			case tasks.StoreCatalog, tasks.SavePlaylist:
				r.writePlain("📝 %s\n", update.Message)
			default:
				r.writePlain("▶ %s\n", update.Message)
			}
		}
	}()
	return done
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// requireArg returns the named argument or a [shared.ErrMissingArgument].
func requireArg(cmd *cli.Command, name string) (string, error) {
	value := cmd.StringArg(name)
	if value == "" {
		return "", fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	return value, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, shared.ErrCacheNotFound) || errors.Is(err, shared.ErrPlaylistNotFound)
}
