package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/mcb/internal/models"
	"github.com/desertthunder/mcb/internal/shared"
)

const trackColumns = `id, catalog_id, title, artists, album, genre, duration, created_at, updated_at`

// TrackRepository persists the local track catalog.
//
// Track IDs come from the remote catalog and are the primary key, so writes are upserts.
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// Upsert inserts track or updates the stored copy, keeping its creation time.
func (r *TrackRepository) Upsert(track *models.PersistedTrack) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if _, err := upsertTrack(r.db, track); err != nil {
		return fmt.Errorf("failed to upsert track: %w", err)
	}
	return nil
}

// UpsertAll stores tracks in a single transaction and returns how many were written.
// Invalid tracks are skipped.
func (r *TrackRepository) UpsertAll(tracks []models.Track) (int, error) {
	written := 0
	err := withTx(r.db, func(tx *sql.Tx) error {
		for _, t := range tracks {
			p := models.NewPersistedTrack(t)
			if p.Validate() != nil {
				continue
			}
			if _, err := upsertTrack(tx, p); err != nil {
				return fmt.Errorf("failed to upsert track %s: %w", t.ID, err)
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

// Get retrieves a track by ID
func (r *TrackRepository) Get(id string) (*models.PersistedTrack, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE id = ?`

	track, err := scanTrack(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, id)
	}
	return track, err
}

// List retrieves every track ordered by artists then title.
func (r *TrackRepository) List() ([]*models.PersistedTrack, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks ORDER BY artists COLLATE NOCASE, title COLLATE NOCASE`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*models.PersistedTrack
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

// Count returns the number of stored tracks.
func (r *TrackRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM tracks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count tracks: %w", err)
	}
	return n, nil
}

// Delete removes a track by ID
func (r *TrackRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM tracks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}
	return requireAffected(result, shared.ErrTrackNotFound, id)
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func upsertTrack(db execer, track *models.PersistedTrack) (sql.Result, error) {
	t := track.Track()
	now := time.Now()
	track.SetUpdatedAt(now)

	query := `
		INSERT INTO tracks (` + trackColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			catalog_id = excluded.catalog_id,
			title = excluded.title,
			artists = excluded.artists,
			album = excluded.album,
			genre = excluded.genre,
			duration = excluded.duration,
			updated_at = excluded.updated_at
	`

	return db.Exec(query,
		t.ID,
		t.CatalogID,
		t.Title,
		t.Artists,
		t.Album,
		t.Genre,
		t.Duration,
		track.CreatedAt(),
		now,
	)
}

// scanTrack scans a single row into a [models.PersistedTrack]
func scanTrack(row scanner) (*models.PersistedTrack, error) {
	var (
		t         models.Track
		createdAt time.Time
		updatedAt time.Time
	)

	err := row.Scan(&t.ID, &t.CatalogID, &t.Title, &t.Artists, &t.Album, &t.Genre, &t.Duration, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}

	return models.RestorePersistedTrack(t, createdAt, updatedAt), nil
}
