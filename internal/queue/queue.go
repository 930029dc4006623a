package queue

import (
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/desertthunder/mcb/internal/models"
	"github.com/samber/lo"
)

// Queue is the ordered track list with shuffle/repeat semantics and a navigation history.
//
// The current position is never stored; [Queue.CurrentIndex] looks the active track up on every call.
type Queue struct {
	mu         sync.Mutex
	active     ActiveTrack
	tracks     []models.Track
	history    History
	lastPolled *models.Track
	repeat     bool
	shuffle    bool
	rng        *rand.Rand
}

// Option configures a [Queue].
type Option func(*Queue)

// WithRand sets the random source used by shuffle.
func WithRand(r *rand.Rand) Option {
	return func(q *Queue) { q.rng = r }
}

// New creates an empty queue whose position follows active.
func New(active ActiveTrack, opts ...Option) *Queue {
	q := &Queue{active: active}
	for _, opt := range opts {
		opt(q)
	}
	if q.rng == nil {
		q.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return q
}

// Next resolves the track to play after the current one.
//
// Shuffle picks uniformly at random, never the current track when there is more than one.
// Otherwise the track after the current one is returned, wrapping to the first when repeat is set.
// With no current track the first track is next. An empty queue has no next track.
func (q *Queue) Next() (models.Track, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	switch {
	case q.shuffle:
		return q.randomLocked()
	case q.repeat:
		if t, ok := q.sequentialLocked(); ok {
			return t, true
		}
		return q.firstLocked()
	default:
		return q.sequentialLocked()
	}
}

// Previous resolves the track to go back to: the tail of the history if there is one, recorded as the last polled
// track, otherwise the track before the current one.
func (q *Queue) Previous() (models.Track, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if t, ok := q.history.PopBack(); ok {
		q.lastPolled = &t
		return t, true
	}

	cur, ok := q.currentLocked()
	if !ok || cur == 0 {
		return models.Track{}, false
	}
	return q.tracks[cur-1], true
}

// AddNext moves or inserts t directly after the current track, or at the front when nothing is playing.
func (q *Queue) AddNext(t models.Track) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.removeLocked(t)
	q.tracks = slices.Insert(q.tracks, q.insertPointLocked(), t)
}

// Add moves or appends t to the end.
func (q *Queue) Add(t models.Track) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.removeLocked(t)
	q.tracks = append(q.tracks, t)
}

// AddAll adds tracks in their given order, at the end or, when asNext is set, after the current track.
// Tracks already queued are relocated rather than duplicated.
func (q *Queue) AddAll(tracks []models.Track, asNext bool) {
	tracks = uniq(tracks)
	if len(tracks) == 0 {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.tracks = lo.Filter(q.tracks, func(existing models.Track, _ int) bool {
		return !lo.ContainsBy(tracks, existing.Is)
	})

	if asNext {
		q.tracks = slices.Insert(q.tracks, q.insertPointLocked(), tracks...)
		return
	}
	q.tracks = append(q.tracks, tracks...)
}

// RemoveAt removes the track at index i. It reports false when i is out of range.
func (q *Queue) RemoveAt(i int) (models.Track, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.removeAtLocked(i)
}

// RemoveLast removes the last track. It reports false when the queue is empty.
func (q *Queue) RemoveLast() (models.Track, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.removeAtLocked(len(q.tracks) - 1)
}

func (q *Queue) removeAtLocked(i int) (models.Track, bool) {
	if i < 0 || i >= len(q.tracks) {
		return models.Track{}, false
	}
	removed := q.tracks[i]
	q.tracks = slices.Delete(q.tracks, i, i+1)
	return removed, true
}

// Clear empties the queue and the history and forgets the last polled track.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.tracks = nil
	q.history.Clear()
	q.lastPolled = nil
}

// SetTracks replaces the whole queue, for example with a loaded playlist, and clears the history and the last
// polled track.
func (q *Queue) SetTracks(tracks []models.Track) {
	tracks = uniq(tracks)

	q.mu.Lock()
	defer q.mu.Unlock()

	q.history.Clear()
	q.lastPolled = nil
	q.tracks = tracks
}

// PushHistory records t as played and reports whether it was recorded.
//
// The last polled track is refused once, so that a track taken out of the history is not put straight back by the
// step that follows it. Any push consumes the last polled marker.
func (q *Queue) PushHistory(t models.Track) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	polled := q.lastPolled
	q.lastPolled = nil
	if polled != nil && polled.Is(t) {
		return false
	}
	q.history.Push(t)
	return true
}

// CurrentIndex returns the position of the active track, or false when nothing is playing or the active track is
// not queued.
func (q *Queue) CurrentIndex() (int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.currentLocked()
}

// Current returns the active track if it is queued.
func (q *Queue) Current() (models.Track, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	i, ok := q.currentLocked()
	if !ok {
		return models.Track{}, false
	}
	return q.tracks[i], true
}

// Get returns the track at index i.
func (q *Queue) Get(i int) (models.Track, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if i < 0 || i >= len(q.tracks) {
		return models.Track{}, false
	}
	return q.tracks[i], true
}

// Tracks returns a copy of the queued tracks.
func (q *Queue) Tracks() []models.Track {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]models.Track(nil), q.tracks...)
}

// Len returns the number of queued tracks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tracks)
}

// History returns a copy of the history, oldest first.
func (q *Queue) History() []models.Track {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.history.Snapshot()
}

// LastPolled returns the track most recently taken out of the history.
func (q *Queue) LastPolled() (models.Track, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.lastPolled == nil {
		return models.Track{}, false
	}
	return *q.lastPolled, true
}

func (q *Queue) SetRepeat(on bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.repeat = on
}

func (q *Queue) Repeat() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.repeat
}

func (q *Queue) SetShuffle(on bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.shuffle = on
}

func (q *Queue) Shuffle() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.shuffle
}

func (q *Queue) currentLocked() (int, bool) {
	if q.active == nil {
		return 0, false
	}
	active, ok := q.active.Active()
	if !ok {
		return 0, false
	}
	_, i, found := lo.FindIndexOf(q.tracks, active.Is)
	return i, found
}

func (q *Queue) sequentialLocked() (models.Track, bool) {
	cur, ok := q.currentLocked()
	switch {
	case !ok:
		return q.firstLocked()
	case cur+1 < len(q.tracks):
		return q.tracks[cur+1], true
	case q.repeat:
		return q.firstLocked()
	default:
		return models.Track{}, false
	}
}

func (q *Queue) firstLocked() (models.Track, bool) {
	if len(q.tracks) == 0 {
		return models.Track{}, false
	}
	return q.tracks[0], true
}

// randomLocked draws until it lands on a track other than the current one. With a single track, that track is
// returned even if it is playing.
func (q *Queue) randomLocked() (models.Track, bool) {
	n := len(q.tracks)
	if n == 0 {
		return models.Track{}, false
	}
	cur, playing := q.currentLocked()
	for {
		i := q.rng.IntN(n)
		if n == 1 || !playing || i != cur {
			return q.tracks[i], true
		}
	}
}

func (q *Queue) insertPointLocked() int {
	if cur, ok := q.currentLocked(); ok {
		return cur + 1
	}
	return 0
}

func (q *Queue) removeLocked(t models.Track) {
	q.tracks = lo.Filter(q.tracks, func(existing models.Track, _ int) bool {
		return !existing.Is(t)
	})
}

func uniq(tracks []models.Track) []models.Track {
	return lo.UniqBy(tracks, func(t models.Track) string { return t.ID })
}
