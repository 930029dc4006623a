// package catalog is the in-memory index over the locally stored track catalog.
//
// It is the reference dataset fetched rows are validated against and the authority playlists are reconciled with.
// The index is a shared computed cache: [Catalog.Invalidate] drops it and the next read rebuilds it from the store.
package catalog

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mcb/internal/models"
	"github.com/desertthunder/mcb/internal/shared"
	"github.com/samber/lo"
)

// Store is the persistence behind a catalog. [*repositories.TrackRepository] implements it.
type Store interface {
	List() ([]*models.PersistedTrack, error)
	UpsertAll(tracks []models.Track) (int, error)
}

// Catalog indexes tracks by ID and by normalized title and artist.
type Catalog struct {
	store  Store
	logger *log.Logger

	mu     sync.RWMutex
	loaded bool
	tracks []models.Track
	byID   map[string]int
	byKey  map[string]int
}

// New creates a catalog over store. Nothing is read until first use.
func New(store Store, logger *log.Logger) *Catalog {
	if logger == nil {
		logger = shared.NopLogger()
	}
	return &Catalog{store: store, logger: shared.WithLogger(logger, "component", "catalog")}
}

// Load rebuilds the index from the store.
func (c *Catalog) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadLocked()
}

// Invalidate drops the index.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = false
	c.tracks, c.byID, c.byKey = nil, nil, nil
	c.logger.Debug("catalog invalidated")
}

// Add stores tracks and drops the index so the next read sees them.
func (c *Catalog) Add(tracks []models.Track) (int, error) {
	n, err := c.store.UpsertAll(tracks)
	if err != nil {
		return 0, err
	}
	c.Invalidate()
	c.logger.Info("catalog updated", "tracks", n)
	return n, nil
}

// Lookup returns the track with the given ID.
func (c *Catalog) Lookup(id string) (models.Track, bool) {
	c.ensure()
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.byID[id]
	if !ok {
		return models.Track{}, false
	}
	return c.tracks[i], true
}

// Find returns the track matching title and artists, ignoring case and extra whitespace.
func (c *Catalog) Find(title, artists string) (models.Track, bool) {
	c.ensure()
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.byKey[shared.NormalizeTrackKey(title, artists)]
	if !ok {
		return models.Track{}, false
	}
	return c.tracks[i], true
}

// Contains reports whether id is in the catalog.
func (c *Catalog) Contains(id string) bool {
	_, ok := c.Lookup(id)
	return ok
}

// Len returns the number of indexed tracks.
func (c *Catalog) Len() int {
	c.ensure()
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tracks)
}

// Tracks returns a copy of every indexed track in store order.
func (c *Catalog) Tracks() []models.Track {
	c.ensure()
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.Track(nil), c.tracks...)
}

// ensure loads the index if it was never loaded or has been invalidated. A failed load leaves the catalog empty
// until the next attempt.
func (c *Catalog) ensure() {
	c.mu.RLock()
	loaded := c.loaded
	c.mu.RUnlock()
	if loaded {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return
	}
	if err := c.loadLocked(); err != nil {
		c.logger.Warn("could not load catalog", "error", err)
	}
}

func (c *Catalog) loadLocked() error {
	persisted, err := c.store.List()
	if err != nil {
		return err
	}

	tracks := lo.Map(persisted, func(p *models.PersistedTrack, _ int) models.Track { return p.Track() })
	byID := make(map[string]int, len(tracks))
	byKey := make(map[string]int, len(tracks))
	for i, t := range tracks {
		byID[t.ID] = i
		key := shared.NormalizeTrackKey(t.Title, t.Artists)
		if _, dup := byKey[key]; !dup {
			byKey[key] = i
		}
	}

	c.tracks, c.byID, c.byKey = tracks, byID, byKey
	c.loaded = true
	c.logger.Debug("catalog loaded", "tracks", len(tracks))
	return nil
}
