package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/mcb/internal/models"
	"github.com/desertthunder/mcb/internal/shared"
)

// PlaylistRepository persists saved queue snapshots.
//
// A playlist row holds the name; its tracks are stored by position in playlist_tracks and replaced wholesale on
// update.
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Create inserts a new playlist and its tracks with a generated ID
func (r *PlaylistRepository) Create(playlist *models.Playlist) error {
	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	id := shared.GenerateID()

	err := withTx(r.db, func(tx *sql.Tx) error {
		query := `INSERT INTO playlists (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`
		if _, err := tx.Exec(query, id, playlist.Name(), playlist.CreatedAt(), playlist.UpdatedAt()); err != nil {
			return fmt.Errorf("failed to insert playlist: %w", err)
		}
		return insertPlaylistTracks(tx, id, playlist.TrackIDs())
	})
	if err != nil {
		return err
	}

	playlist.SetID(id)
	return nil
}

// Get retrieves a playlist by ID
func (r *PlaylistRepository) Get(id string) (*models.Playlist, error) {
	return r.getWhere("id = ?", id)
}

// GetByName retrieves a playlist by its unique name
func (r *PlaylistRepository) GetByName(name string) (*models.Playlist, error) {
	return r.getWhere("name = ?", strings.TrimSpace(name))
}

// List retrieves every playlist ordered by name.
func (r *PlaylistRepository) List() ([]*models.Playlist, error) {
	rows, err := r.db.Query(`SELECT id, name, created_at, updated_at FROM playlists ORDER BY name COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}

	type header struct {
		id, name             string
		createdAt, updatedAt time.Time
	}
	var headers []header
	for rows.Next() {
		var h header
		if err := rows.Scan(&h.id, &h.name, &h.createdAt, &h.updatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan playlist: %w", err)
		}
		headers = append(headers, h)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	rows.Close()

	playlists := make([]*models.Playlist, 0, len(headers))
	for _, h := range headers {
		ids, err := r.trackIDs(h.id)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, models.RestorePlaylist(h.id, h.name, ids, h.createdAt, h.updatedAt))
	}
	return playlists, nil
}

// Update renames the playlist and replaces its tracks
func (r *PlaylistRepository) Update(playlist *models.Playlist) error {
	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()

	err := withTx(r.db, func(tx *sql.Tx) error {
		result, err := tx.Exec(`UPDATE playlists SET name = ?, updated_at = ? WHERE id = ?`, playlist.Name(), now, playlist.ID())
		if err != nil {
			return fmt.Errorf("failed to update playlist: %w", err)
		}
		if err := requireAffected(result, shared.ErrPlaylistNotFound, playlist.ID()); err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM playlist_tracks WHERE playlist_id = ?`, playlist.ID()); err != nil {
			return fmt.Errorf("failed to clear playlist tracks: %w", err)
		}
		return insertPlaylistTracks(tx, playlist.ID(), playlist.TrackIDs())
	})
	if err != nil {
		return err
	}

	playlist.SetUpdatedAt(now)
	return nil
}

// Delete removes a playlist and its tracks
func (r *PlaylistRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM playlists WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}
	return requireAffected(result, shared.ErrPlaylistNotFound, id)
}

func (r *PlaylistRepository) getWhere(cond string, arg any) (*models.Playlist, error) {
	var (
		id, name             string
		createdAt, updatedAt time.Time
	)

	query := `SELECT id, name, created_at, updated_at FROM playlists WHERE ` + cond
	err := r.db.QueryRow(query, arg).Scan(&id, &name, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %v", shared.ErrPlaylistNotFound, arg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist: %w", err)
	}

	ids, err := r.trackIDs(id)
	if err != nil {
		return nil, err
	}
	return models.RestorePlaylist(id, name, ids, createdAt, updatedAt), nil
}

func (r *PlaylistRepository) trackIDs(playlistID string) ([]string, error) {
	rows, err := r.db.Query(`SELECT track_id FROM playlist_tracks WHERE playlist_id = ? ORDER BY position`, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist tracks: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan playlist track: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return ids, nil
}

func insertPlaylistTracks(tx *sql.Tx, playlistID string, trackIDs []string) error {
	stmt, err := tx.Prepare(`INSERT INTO playlist_tracks (playlist_id, position, track_id) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare playlist track insert: %w", err)
	}
	defer stmt.Close()

	for i, trackID := range trackIDs {
		if _, err := stmt.Exec(playlistID, i, trackID); err != nil {
			return fmt.Errorf("failed to insert playlist track: %w", err)
		}
	}
	return nil
}
