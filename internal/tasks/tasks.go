package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mcb/internal/models"
	"github.com/desertthunder/mcb/internal/queue"
	"github.com/desertthunder/mcb/internal/shared"
	"github.com/samber/lo"
)

// PlaylistIDLength is the length of a remote playlist ID.
const PlaylistIDLength = 24

// PlaylistSource returns the tracks of a remote playlist. [*services.ConnectService] implements it.
type PlaylistSource interface {
	PlaylistTracks(ctx context.Context, id string) ([]models.Track, error)
}

// CatalogSource lists the remote catalog. [*services.ConnectService] implements it.
type CatalogSource interface {
	CatalogTracks(ctx context.Context) ([]models.Track, error)
}

// PlaylistEditor manages the playlists of the remote account. [*services.ConnectService] implements it.
type PlaylistEditor interface {
	Playlists(ctx context.Context) ([]models.RemotePlaylist, error)
	CreatePlaylist(ctx context.Context, name string, trackIDs []string, public bool) (models.RemotePlaylist, error)
	EditPlaylist(ctx context.Context, id string, edit models.PlaylistEdit) error
}

// TrackCatalog is the local authority on tracks. [*catalog.Catalog] implements it.
type TrackCatalog interface {
	Lookup(id string) (models.Track, bool)
	Find(title, artists string) (models.Track, bool)
	Add(tracks []models.Track) (int, error)
}

// PlaylistStore persists saved playlists. [*repositories.PlaylistRepository] implements it.
type PlaylistStore interface {
	Create(p *models.Playlist) error
	Update(p *models.Playlist) error
	GetByName(name string) (*models.Playlist, error)
}

// LoadResult reports how a playlist was reconciled.
type LoadResult struct {
	Loaded  []models.Track // Tracks placed in the queue, in playlist order
	Skipped []models.Track // Tracks missing from the catalog
	Errors  []error        // One [shared.ErrTrackNotInCatalog] per skipped track
}

// Engine runs playlist and catalog operations against one player.
type Engine struct {
	catalog   TrackCatalog
	player    *queue.Player
	playlists PlaylistStore
	logger    *log.Logger
}

// NewEngine creates an engine. playlists may be nil when saved playlists are not used.
func NewEngine(catalog TrackCatalog, player *queue.Player, playlists PlaylistStore, logger *log.Logger) *Engine {
	if logger == nil {
		logger = shared.NopLogger()
	}
	return &Engine{
		catalog:   catalog,
		player:    player,
		playlists: playlists,
		logger:    shared.WithLogger(logger, "component", "tasks"),
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// ParsePlaylistURL extracts the playlist ID from a playlist URL or a bare ID: the text after the last "/",
// which must be [PlaylistIDLength] characters long.
func ParsePlaylistURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimRight(s, "/")
	id := s[strings.LastIndex(s, "/")+1:]
	if len(id) != PlaylistIDLength {
		return "", fmt.Errorf("%w: %q", shared.ErrInvalidPlaylistURL, raw)
	}
	return id, nil
}

// Reconcile replaces each track with the catalog's copy, dropping and logging tracks the catalog does not know.
func (e *Engine) Reconcile(progress chan<- ProgressUpdate, tracks []models.Track) *LoadResult {
	result := &LoadResult{}
	for i, t := range tracks {
		found, ok := e.catalog.Lookup(t.ID)
		e.sendProgress(progress, reconcileUpdate(i+1, len(tracks), t, ok))
		if !ok {
			e.logger.Error("skipped track not found in catalog", "track", t.String(), "id", t.ID)
			result.Skipped = append(result.Skipped, t)
			result.Errors = append(result.Errors, fmt.Errorf("%w: %s (%s)", shared.ErrTrackNotInCatalog, t, t.ID))
			continue
		}
		result.Loaded = append(result.Loaded, found)
	}
	return result
}

// LoadRemote fetches a remote playlist and makes the reconciled tracks the queue.
//
// The player is reset and the queue replaced only when at least one track survives reconciliation.
func (e *Engine) LoadRemote(ctx context.Context, progress chan<- ProgressUpdate, source PlaylistSource, id string) (*LoadResult, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: playlist source not initialized", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, fetchPlaylistUpdate(id))
	tracks, err := source.PlaylistTracks(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load playlist %s: %w", id, err)
	}

	result := e.Reconcile(progress, tracks)
	e.play(progress, result.Loaded)
	return result, nil
}

// LoadSaved loads a saved playlist by name into the queue.
func (e *Engine) LoadSaved(progress chan<- ProgressUpdate, name string) (*LoadResult, error) {
	if e.playlists == nil {
		return nil, fmt.Errorf("%w: playlist store not initialized", shared.ErrServiceUnavailable)
	}
	playlist, err := e.playlists.GetByName(name)
	if err != nil {
		return nil, err
	}

	tracks := lo.Map(playlist.TrackIDs(), func(id string, _ int) models.Track { return models.Track{ID: id} })
	result := e.Reconcile(progress, tracks)
	e.play(progress, result.Loaded)
	return result, nil
}

// SavePlaylist stores the current queue under name, replacing a playlist with the same name.
func (e *Engine) SavePlaylist(progress chan<- ProgressUpdate, name string) (*models.Playlist, error) {
	if e.playlists == nil {
		return nil, fmt.Errorf("%w: playlist store not initialized", shared.ErrServiceUnavailable)
	}

	name = strings.TrimSpace(name)
	ids := lo.Map(e.player.Queue().Tracks(), func(t models.Track, _ int) string { return t.ID })

	existing, err := e.playlists.GetByName(name)
	switch {
	case err == nil:
		existing.SetTrackIDs(ids)
		if err := e.playlists.Update(existing); err != nil {
			return nil, err
		}
		e.sendProgress(progress, savePlaylistUpdate(name, len(ids)))
		return existing, nil
	case errors.Is(err, shared.ErrPlaylistNotFound):
		playlist := models.NewPlaylist(name, ids)
		if err := e.playlists.Create(playlist); err != nil {
			return nil, err
		}
		e.sendProgress(progress, savePlaylistUpdate(name, len(ids)))
		return playlist, nil
	default:
		return nil, err
	}
}

// UploadQueue stores the current queue on the remote account under name. A remote playlist with that name has its
// tracks replaced; otherwise a new one is created with the given visibility. A blank name becomes "New Playlist".
func (e *Engine) UploadQueue(ctx context.Context, editor PlaylistEditor, name string, public bool) (models.RemotePlaylist, error) {
	if editor == nil {
		return models.RemotePlaylist{}, fmt.Errorf("%w: playlist editor not initialized", shared.ErrServiceUnavailable)
	}
	ids := lo.Map(e.player.Queue().Tracks(), func(t models.Track, _ int) string { return t.ID })
	if len(ids) == 0 {
		return models.RemotePlaylist{}, shared.ErrQueueEmpty
	}
	if name = strings.TrimSpace(name); name == "" {
		name = "New Playlist"
	}

	existing, err := FindRemote(ctx, editor, name)
	switch {
	case err == nil:
		if err := editor.EditPlaylist(ctx, existing.ID, models.PlaylistEdit{TrackIDs: ids}); err != nil {
			return models.RemotePlaylist{}, err
		}
		existing.TrackIDs = ids
		e.logger.Info("replaced remote playlist", "name", name, "tracks", len(ids))
		return existing, nil
	case errors.Is(err, shared.ErrPlaylistNotFound):
		created, err := editor.CreatePlaylist(ctx, name, ids, public)
		if err != nil {
			return models.RemotePlaylist{}, err
		}
		e.logger.Info("created remote playlist", "name", name, "tracks", len(ids))
		return created, nil
	default:
		return models.RemotePlaylist{}, err
	}
}

// FindRemote returns the remote playlist whose ID or name is ref. A name shared by several playlists is ambiguous.
func FindRemote(ctx context.Context, editor PlaylistEditor, ref string) (models.RemotePlaylist, error) {
	playlists, err := editor.Playlists(ctx)
	if err != nil {
		return models.RemotePlaylist{}, err
	}
	if p, ok := lo.Find(playlists, func(p models.RemotePlaylist) bool { return p.ID == ref }); ok {
		return p, nil
	}

	named := lo.Filter(playlists, func(p models.RemotePlaylist, _ int) bool { return p.Name == ref })
	switch len(named) {
	case 0:
		return models.RemotePlaylist{}, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, ref)
	case 1:
		return named[0], nil
	default:
		return models.RemotePlaylist{}, fmt.Errorf("%w: %d remote playlists are named %q, use the ID", shared.ErrInvalidArgument, len(named), ref)
	}
}

// SyncCatalog replaces the local catalog's view of every track the source lists.
func (e *Engine) SyncCatalog(ctx context.Context, progress chan<- ProgressUpdate, source CatalogSource) (int, error) {
	if source == nil {
		return 0, fmt.Errorf("%w: catalog source not initialized", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, fetchCatalogUpdate())
	tracks, err := source.CatalogTracks(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch catalog: %w", err)
	}

	e.sendProgress(progress, storeCatalogUpdate(len(tracks)))
	n, err := e.catalog.Add(tracks)
	if err != nil {
		return 0, fmt.Errorf("failed to store catalog: %w", err)
	}
	return n, nil
}

// PlayRows resolves sheet rows to catalog tracks and plays them, or appends them to the queue when add is set.
// It returns the resolved tracks.
func (e *Engine) PlayRows(progress chan<- ProgressUpdate, cols models.Columns, rows models.RowSet, add bool) []models.Track {
	tracks, _ := ResolveRows(cols, rows, e.catalog, e.logger)
	if len(tracks) == 0 {
		return nil
	}
	if add {
		e.player.Queue().AddAll(tracks, false)
		e.sendProgress(progress, startPlaybackUpdate(len(tracks)))
		return tracks
	}
	e.play(progress, tracks)
	return tracks
}

func (e *Engine) play(progress chan<- ProgressUpdate, tracks []models.Track) {
	if len(tracks) == 0 {
		e.logger.Warn("nothing to play, keeping the current queue")
		return
	}
	e.player.PlayTracks(tracks)
	e.sendProgress(progress, startPlaybackUpdate(len(tracks)))
}

// ResolveRows matches sheet rows to catalog tracks by their track title and artist columns. Unmatched rows are
// logged and their indexes returned.
func ResolveRows(cols models.Columns, rows models.RowSet, catalog TrackCatalog, logger *log.Logger) ([]models.Track, []int) {
	if logger == nil {
		logger = shared.NopLogger()
	}

	titleCol := "Track"
	if _, ok := cols.Find(titleCol); !ok {
		titleCol = "Title"
	}

	var (
		tracks    []models.Track
		unmatched []int
	)
	for i, row := range rows {
		title := strings.TrimSpace(cols.Value(row, titleCol))
		artists := cols.Value(row, "Artist")
		if t, ok := catalog.Find(title, artists); ok {
			tracks = append(tracks, t)
			continue
		}
		logger.Warn("failed matching row", "artists", artists, "title", title)
		unmatched = append(unmatched, i)
	}
	return tracks, unmatched
}
