// Package queue implements the playback queue engine.
//
// A [Queue] holds an ordered list of tracks in which every track appears at most once, a [History] of previously
// played tracks, and the shuffle/repeat flags. The queue never stores a current position: it is derived on every read
// from an [ActiveTrack] signal reported by the playback component, so it cannot drift out of sync with what is
// actually playing.
//
// [Player] is the playback driver. It owns the writer side of a [Signal] and feeds the history on forward
// progression, skipping the track most recently taken out of the history so that next/previous cannot cycle.
//
// Nothing in this package performs I/O or blocks; every method is safe to call from the UI goroutine.
package queue
