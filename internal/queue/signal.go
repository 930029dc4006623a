package queue

import (
	"sync"

	"github.com/desertthunder/mcb/internal/models"
)

// ActiveTrack reports the track currently being played.
type ActiveTrack interface {
	Active() (models.Track, bool)
}

// Signal is an observable "currently active track" value.
//
// Subscribers are called synchronously by Set and Clear, after the lock is released, so a subscriber may read the
// signal or a [Queue] built on it.
type Signal struct {
	mu     sync.RWMutex
	track  models.Track
	set    bool
	nextID int
	subs   map[int]func(models.Track, bool)
}

// NewSignal returns a signal with no active track.
func NewSignal() *Signal {
	return &Signal{subs: make(map[int]func(models.Track, bool))}
}

// Active returns the active track, if any.
func (s *Signal) Active() (models.Track, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.track, s.set
}

// Set makes t the active track.
func (s *Signal) Set(t models.Track) {
	s.update(t, true)
}

// Clear unsets the active track.
func (s *Signal) Clear() {
	s.update(models.Track{}, false)
}

// Subscribe registers fn to be called on every change and returns a function that removes it.
func (s *Signal) Subscribe(fn func(models.Track, bool)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subs == nil {
		s.subs = make(map[int]func(models.Track, bool))
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Signal) update(t models.Track, set bool) {
	s.mu.Lock()
	s.track, s.set = t, set
	subs := make([]func(models.Track, bool), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(t, set)
	}
}
