package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mcb/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgDispatched MsgKind = iota
	MsgProgressUpdate
	MsgSyncComplete
)

// dispatchedMsg is the constructor for [MsgDispatched]: functions published by coordinators and the refresh hub,
// to run on the event loop.
func dispatchedMsg(batch []func()) Msg {
	return Msg{kind: MsgDispatched, data: batch}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

type syncResult struct {
	count int
	err   error
}

// syncCompleteMsg is the constructor for [MsgSyncComplete]
func syncCompleteMsg(count int, err error) Msg {
	return Msg{kind: MsgSyncComplete, data: syncResult{count, err}}
}
