package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/mcb/internal/fetch"
	"github.com/desertthunder/mcb/internal/models"
	"github.com/desertthunder/mcb/internal/queue"
	"github.com/desertthunder/mcb/internal/refresh"
	"github.com/desertthunder/mcb/internal/shared"
	"github.com/desertthunder/mcb/internal/tasks"
)

// Options holds the dependencies of a [Model].
type Options struct {
	Loop    *fetch.Loop
	Hub     *refresh.Hub
	Player  *queue.Player
	Engine  *tasks.Engine
	Catalog tasks.CatalogSource // optional; enables catalog sync
	Sources []*SourceView
	Logger  *log.Logger
}

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	loop    *fetch.Loop
	hub     *refresh.Hub
	player  *queue.Player
	engine  *tasks.Engine
	catalog tasks.CatalogSource
	logger  *log.Logger

	sources []*SourceView
	queue   list.Model
	active  int // len(sources) is the queue tab

	filtering bool
	filter    textinput.Model

	progressChan chan tasks.ProgressUpdate
	syncDone     chan syncResult
	progress     tasks.ProgressUpdate
	syncing      bool
	status       string
	err          error

	width  int
	height int
	help   help.Model
	keys   keyMap

	unsubscribe func()
}

// NewModel creates a TUI model. It subscribes to the player's signal and registers itself as a hub view; call
// [Model.Close] once the program exits.
func NewModel(ctx context.Context, opts Options) *Model {
	filter := textinput.New()
	filter.Placeholder = "filter"
	filter.Prompt = "/ "

	queueList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	queueList.Title = "Queue"
	queueList.SetShowHelp(false)
	queueList.SetFilteringEnabled(false)

	logger := opts.Logger
	if logger == nil {
		logger = shared.NopLogger()
	}

	m := &Model{
		ctx:     ctx,
		logger:  shared.WithLogger(logger, "component", "ui"),
		loop:    opts.Loop,
		hub:     opts.Hub,
		player:  opts.Player,
		engine:  opts.Engine,
		catalog: opts.Catalog,
		sources: opts.Sources,
		queue:   queueList,
		filter:  filter,
		help:    help.New(),
		keys:    newKeyMap(),
	}

	m.unsubscribe = m.player.Signal().Subscribe(func(models.Track, bool) {
		m.loop.Dispatch(m.syncQueue)
	})
	if m.hub != nil {
		m.hub.AddView(m.redraw)
	}
	m.syncQueue()
	return m
}

// Close releases the signal subscription.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Init starts pulling dispatched work and refreshes every source.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.waitForDispatch(), m.refreshAll())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		if m.filtering {
			return m.handleFilterKeys(msg)
		}
		return m.handleKeys(msg)

	case Msg:
		switch msg.kind {
		case MsgDispatched:
			for _, fn := range msg.data.([]func()) {
				fn()
			}
			return m, m.waitForDispatch()
		case MsgProgressUpdate:
			m.progress = msg.data.(tasks.ProgressUpdate)
			m.status = m.progress.Message
			return m, m.waitForProgress()
		case MsgSyncComplete:
			result := msg.data.(syncResult)
			m.syncing = false
			m.progressChan, m.syncDone = nil, nil
			if result.err != nil {
				m.err = result.err
				return m, nil
			}
			m.err = nil
			m.status = fmt.Sprintf("Catalog synced: %d tracks", result.count)
			if m.hub != nil {
				m.hub.Trigger()
			}
			return m, nil
		}
	}

	return m, m.updateActive(msg)
}

// View renders the tab bar, the active tab, the status line and help.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	if m.onQueue() {
		if len(m.queue.Items()) == 0 {
			b.WriteString(styles.help.Render("Queue is empty"))
		} else {
			b.WriteString(m.queue.View())
		}
	} else {
		b.WriteString(m.sources[m.active].View())
	}

	b.WriteString("\n")
	if m.filtering {
		b.WriteString(m.filter.View())
		b.WriteString("\n")
	}
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize()
	case key.Matches(msg, m.keys.nextTab):
		m.active = (m.active + 1) % m.tabCount()
	case key.Matches(msg, m.keys.prevTab):
		m.active = (m.active + m.tabCount() - 1) % m.tabCount()
	case key.Matches(msg, m.keys.next):
		if _, ok := m.player.Next(); !ok {
			m.status = "End of queue"
		}
	case key.Matches(msg, m.keys.previous):
		if _, ok := m.player.Previous(); !ok {
			m.status = "Nothing before this track"
		}
	case key.Matches(msg, m.keys.shuffle):
		q := m.player.Queue()
		q.SetShuffle(!q.Shuffle())
	case key.Matches(msg, m.keys.repeat):
		q := m.player.Queue()
		q.SetRepeat(!q.Repeat())
	case key.Matches(msg, m.keys.refreshAll):
		return m, m.refreshAll()
	case key.Matches(msg, m.keys.sync):
		return m, m.startSync()
	case m.onQueue():
		return m, m.handleQueueKeys(msg)
	default:
		return m, m.handleSourceKeys(msg)
	}
	return m, nil
}

func (m *Model) handleSourceKeys(msg tea.KeyMsg) tea.Cmd {
	view := m.sources[m.active]
	switch {
	case key.Matches(msg, m.keys.refresh):
		view.Refresh(m.ctx)
	case key.Matches(msg, m.keys.filter):
		m.filtering = true
		m.filter.SetValue(view.Filter())
		return m.filter.Focus()
	case key.Matches(msg, m.keys.back):
		view.SetFilter("")
	case key.Matches(msg, m.keys.play):
		if row, ok := view.Selected(); ok {
			m.playRows(view, models.RowSet{row}, false)
		}
	case key.Matches(msg, m.keys.playAll):
		m.playRows(view, view.Visible(), false)
	case key.Matches(msg, m.keys.add):
		if row, ok := view.Selected(); ok {
			m.playRows(view, models.RowSet{row}, true)
		}
	default:
		return view.Update(msg)
	}
	return nil
}

func (m *Model) handleQueueKeys(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.play):
		if item, ok := m.queue.SelectedItem().(trackItem); ok {
			m.player.Play(item.track)
		}
	case key.Matches(msg, m.keys.remove):
		if _, ok := m.player.Queue().RemoveAt(m.queue.Index()); ok {
			m.syncQueue()
		}
	default:
		var cmd tea.Cmd
		m.queue, cmd = m.queue.Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) handleFilterKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	view := m.sources[m.active]
	switch msg.Type {
	case tea.KeyEnter:
		m.filtering = false
		m.filter.Blur()
		return m, nil
	case tea.KeyEsc:
		m.filtering = false
		m.filter.Blur()
		m.filter.SetValue("")
		view.SetFilter("")
		return m, nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	view.SetFilter(m.filter.Value())
	return m, cmd
}

func (m *Model) playRows(view *SourceView, rows models.RowSet, add bool) {
	if m.engine == nil {
		return
	}
	tracks := m.engine.PlayRows(nil, view.Columns(), rows, add)
	m.syncQueue()
	switch {
	case len(tracks) == 0:
		m.status = "No matching tracks in the catalog"
	case add:
		m.status = fmt.Sprintf("Added %d to the queue", len(tracks))
	default:
		m.status = fmt.Sprintf("Playing %s", tracks[0])
	}
}

func (m *Model) updateActive(msg tea.Msg) tea.Cmd {
	if m.onQueue() {
		var cmd tea.Cmd
		m.queue, cmd = m.queue.Update(msg)
		return cmd
	}
	return m.sources[m.active].Update(msg)
}

// redraw reapplies filters and rebuilds the queue; it runs through the dispatcher after a coordinated refresh.
func (m *Model) redraw() {
	for _, view := range m.sources {
		view.SetFilter(view.Filter())
	}
	m.syncQueue()
}

func (m *Model) syncQueue() {
	q := m.player.Queue()
	tracks := q.Tracks()
	current, playing := q.CurrentIndex()

	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{track: t, playing: playing && i == current}
	}
	m.queue.SetItems(items)
	if playing {
		m.queue.Select(current)
	}
}

func (m *Model) refreshAll() tea.Cmd {
	return func() tea.Msg {
		if m.hub == nil {
			return nil
		}
		if err := m.hub.Sync(m.ctx); err != nil {
			m.logger.Warn("refresh interrupted", "error", err)
		}
		return nil
	}
}

func (m *Model) waitForDispatch() tea.Cmd {
	return func() tea.Msg {
		batch, err := m.loop.Take(m.ctx)
		if err != nil {
			return nil
		}
		return dispatchedMsg(batch)
	}
}

func (m *Model) startSync() tea.Cmd {
	if m.catalog == nil || m.engine == nil || m.syncing {
		return nil
	}
	m.syncing = true
	m.err = nil
	m.progressChan = make(chan tasks.ProgressUpdate, 8)
	m.syncDone = make(chan syncResult, 1)

	progress, done := m.progressChan, m.syncDone
	go func() {
		count, err := m.engine.SyncCatalog(m.ctx, progress, m.catalog)
		done <- syncResult{count, err}
		close(progress)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.syncDone
	return func() tea.Msg {
		if progress == nil {
			return nil
		}
		update, ok := <-progress
		if !ok {
			result := <-done
			return syncCompleteMsg(result.count, result.err)
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) onQueue() bool { return m.active >= len(m.sources) }

func (m *Model) tabCount() int { return len(m.sources) + 1 }

func (m *Model) resize() {
	reserved := 6
	if m.help.ShowAll {
		reserved += 4
	}
	height := max(m.height-reserved, 3)
	for _, view := range m.sources {
		view.SetSize(m.width, height)
	}
	m.queue.SetSize(m.width, height)
	m.help.Width = m.width
}

func (m *Model) renderTabs() string {
	tabs := make([]string, 0, m.tabCount())
	for i := range m.tabCount() {
		name := "Queue"
		if i < len(m.sources) {
			name = m.sources[i].Name()
		}
		if i == m.active {
			tabs = append(tabs, styles.activeTab.Render(name))
		} else {
			tabs = append(tabs, styles.tab.Render(name))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m *Model) renderStatus() string {
	parts := []string{}
	if t, ok := m.player.Signal().Active(); ok {
		parts = append(parts, styles.ok.Render("▶ "+t.String()))
	}

	q := m.player.Queue()
	var modes []string
	if q.Shuffle() {
		modes = append(modes, "shuffle")
	}
	if q.Repeat() {
		modes = append(modes, "repeat")
	}
	if len(modes) > 0 {
		parts = append(parts, "["+strings.Join(modes, ", ")+"]")
	}

	if !m.onQueue() {
		if notice := m.sources[m.active].Notice(); notice != "" {
			parts = append(parts, styles.warn.Render(notice))
		}
	}
	if m.err != nil {
		parts = append(parts, styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
	} else if m.status != "" {
		parts = append(parts, m.status)
	}
	return strings.Join(parts, "  ")
}
