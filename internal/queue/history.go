package queue

import "github.com/desertthunder/mcb/internal/models"

// History is a deque of previously played tracks. Tracks are appended at the tail and navigating
// backward takes them from the tail again. It is unbounded.
type History struct {
	tracks []models.Track
}

// Push appends t at the tail.
func (h *History) Push(t models.Track) {
	h.tracks = append(h.tracks, t)
}

// PopBack removes and returns the most recently pushed track.
func (h *History) PopBack() (models.Track, bool) {
	if len(h.tracks) == 0 {
		return models.Track{}, false
	}
	last := h.tracks[len(h.tracks)-1]
	h.tracks[len(h.tracks)-1] = models.Track{}
	h.tracks = h.tracks[:len(h.tracks)-1]
	return last, true
}

// Len returns the number of tracks in the history.
func (h *History) Len() int {
	return len(h.tracks)
}

// Clear empties the history.
func (h *History) Clear() {
	h.tracks = nil
}

// Snapshot returns a copy, oldest first.
func (h *History) Snapshot() []models.Track {
	return append([]models.Track(nil), h.tracks...)
}
