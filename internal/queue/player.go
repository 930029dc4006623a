package queue

import (
	"github.com/charmbracelet/log"
	"github.com/desertthunder/mcb/internal/models"
	"github.com/desertthunder/mcb/internal/shared"
)

// Player is the playback driver: it decides which track is active and keeps the queue history in step.
//
// Moving forward (Play, Next) pushes the outgoing track onto the history. Moving back (Previous) does not, and the
// queue refuses the track it last handed out from the history, which is what breaks next/previous cycles.
// Audio output is not handled here; a real engine observes the [Signal].
type Player struct {
	queue  *Queue
	signal *Signal
	logger *log.Logger
}

// NewPlayer wires a player to q and the signal q derives its position from.
func NewPlayer(q *Queue, s *Signal, logger *log.Logger) *Player {
	if logger == nil {
		logger = shared.NopLogger()
	}
	return &Player{queue: q, signal: s, logger: logger}
}

// Queue returns the queue driven by this player.
func (p *Player) Queue() *Queue { return p.queue }

// Signal returns the active track signal.
func (p *Player) Signal() *Signal { return p.signal }

// Play makes t the active track, recording the previously active track in the history.
func (p *Player) Play(t models.Track) {
	if prev, ok := p.signal.Active(); ok && !prev.Is(t) {
		if p.queue.PushHistory(prev) {
			p.logger.Debug("pushed to history", "track", prev.String())
		}
	}
	p.logger.Debug("playing", "track", t.String())
	p.signal.Set(t)
}

// Next advances to the queue's next track. It reports false and leaves playback untouched when there is none.
func (p *Player) Next() (models.Track, bool) {
	t, ok := p.queue.Next()
	if !ok {
		return models.Track{}, false
	}
	p.Play(t)
	return t, true
}

// Previous goes back to the queue's previous track without recording history.
func (p *Player) Previous() (models.Track, bool) {
	t, ok := p.queue.Previous()
	if !ok {
		return models.Track{}, false
	}
	p.logger.Debug("playing previous", "track", t.String())
	p.signal.Set(t)
	return t, true
}

// PlayTracks replaces the queue with tracks and starts the first one.
func (p *Player) PlayTracks(tracks []models.Track) bool {
	p.Reset()
	p.queue.SetTracks(tracks)
	first, ok := p.queue.Get(0)
	if !ok {
		return false
	}
	p.signal.Set(first)
	return true
}

// Reset stops playback, leaving the queue as is.
func (p *Player) Reset() {
	p.signal.Clear()
}
