package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up         key.Binding
	down       key.Binding
	nextTab    key.Binding
	prevTab    key.Binding
	play       key.Binding
	playAll    key.Binding
	add        key.Binding
	remove     key.Binding
	next       key.Binding
	previous   key.Binding
	shuffle    key.Binding
	repeat     key.Binding
	refresh    key.Binding
	refreshAll key.Binding
	sync       key.Binding
	filter     key.Binding
	back       key.Binding
	help       key.Binding
	quit       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		nextTab:    key.NewBinding(key.WithKeys("tab", "l"), key.WithHelp("tab", "next tab")),
		prevTab:    key.NewBinding(key.WithKeys("shift+tab", "h"), key.WithHelp("shift+tab", "prev tab")),
		play:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play")),
		playAll:    key.NewBinding(key.WithKeys("P"), key.WithHelp("P", "play all")),
		add:        key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add to queue")),
		remove:     key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "remove")),
		next:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		previous:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "previous")),
		shuffle:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "shuffle")),
		repeat:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "repeat")),
		refresh:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		refreshAll: key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "refresh all")),
		sync:       key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "sync catalog")),
		filter:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear")),
		help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.nextTab, k.play, k.filter, k.refresh, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.nextTab, k.prevTab},
		{k.play, k.playAll, k.add, k.remove},
		{k.next, k.previous, k.shuffle, k.repeat},
		{k.refresh, k.refreshAll, k.sync, k.filter},
		{k.back, k.help, k.quit},
	}
}
