package models

import (
	"fmt"
	"strings"
	"time"
)

// PersistedTrack is a [Track] stored in the local catalog. Its ID is the track ID.
type PersistedTrack struct {
	track     Track
	createdAt time.Time
	updatedAt time.Time
}

// NewPersistedTrack wraps t with fresh timestamps.
func NewPersistedTrack(t Track) *PersistedTrack {
	now := time.Now()
	return &PersistedTrack{track: t, createdAt: now, updatedAt: now}
}

// RestorePersistedTrack rebuilds a track read back from storage.
func RestorePersistedTrack(t Track, createdAt, updatedAt time.Time) *PersistedTrack {
	return &PersistedTrack{track: t, createdAt: createdAt, updatedAt: updatedAt}
}

func (p *PersistedTrack) ID() string           { return p.track.ID }
func (p *PersistedTrack) Track() Track         { return p.track }
func (p *PersistedTrack) CreatedAt() time.Time { return p.createdAt }
func (p *PersistedTrack) UpdatedAt() time.Time { return p.updatedAt }

// SetUpdatedAt sets the last modification time.
func (p *PersistedTrack) SetUpdatedAt(t time.Time) { p.updatedAt = t }

// Validate requires an ID and a title.
func (p *PersistedTrack) Validate() error {
	if strings.TrimSpace(p.track.ID) == "" {
		return fmt.Errorf("track id is required")
	}
	if strings.TrimSpace(p.track.Title) == "" {
		return fmt.Errorf("track title is required")
	}
	return nil
}

// Playlist is a named, ordered snapshot of track IDs saved from the queue.
type Playlist struct {
	id        string
	name      string
	trackIDs  []string
	createdAt time.Time
	updatedAt time.Time
}

// NewPlaylist creates an unsaved playlist. The ID is assigned on creation by the repository.
func NewPlaylist(name string, trackIDs []string) *Playlist {
	now := time.Now()
	return &Playlist{
		name:      name,
		trackIDs:  append([]string(nil), trackIDs...),
		createdAt: now,
		updatedAt: now,
	}
}

// RestorePlaylist rebuilds a playlist read back from storage.
func RestorePlaylist(id, name string, trackIDs []string, createdAt, updatedAt time.Time) *Playlist {
	return &Playlist{id: id, name: name, trackIDs: trackIDs, createdAt: createdAt, updatedAt: updatedAt}
}

func (p *Playlist) ID() string           { return p.id }
func (p *Playlist) Name() string         { return p.name }
func (p *Playlist) TrackIDs() []string   { return append([]string(nil), p.trackIDs...) }
func (p *Playlist) CreatedAt() time.Time { return p.createdAt }
func (p *Playlist) UpdatedAt() time.Time { return p.updatedAt }

func (p *Playlist) SetID(id string)               { p.id = id }
func (p *Playlist) SetUpdatedAt(t time.Time)      { p.updatedAt = t }
func (p *Playlist) SetTrackIDs(trackIDs []string) { p.trackIDs = append([]string(nil), trackIDs...) }

// Validate requires a name.
func (p *Playlist) Validate() error {
	if strings.TrimSpace(p.name) == "" {
		return fmt.Errorf("playlist name is required")
	}
	return nil
}
