package ui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/rehearse/internal/models"
	"github.com/desertthunder/rehearse/internal/ordering"
	"github.com/desertthunder/rehearse/internal/services"
	"github.com/desertthunder/rehearse/internal/shared"
	"github.com/desertthunder/rehearse/internal/tasks"
)

// Options configures the song list.
type Options struct {
	// DefaultRepertoire is the repertoire opened first; 0 selects the first tab.
	DefaultRepertoire int
	Now               func() time.Time
}

// grab is a song being moved with the keyboard.
type grab struct {
	id    int
	order []int
}

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	ctrl      *tasks.Controller
	opts      Options
	width     int
	height    int
	songs     list.Model
	rendered  []*models.Song
	tabs      string
	summary   string
	search    textinput.Model
	searching bool
	grab      *grab
	tab       int
	// busy serializes backend calls; the controller is not safe for concurrent use.
	busy      bool
	offline   bool
	status    string
	statusErr bool
	err       error
	help      help.Model
	keys      keyMap
}

// NewModel creates a new TUI model over ctrl.
func NewModel(ctx context.Context, ctrl *tasks.Controller, opts Options) *Model {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search titles"

	songs := list.New(nil, songDelegate{now: opts.Now}, 0, 0)
	songs.SetShowTitle(false)
	songs.SetShowStatusBar(false)
	songs.SetShowHelp(false)
	songs.SetFilteringEnabled(false)
	songs.KeyMap.Quit.SetEnabled(false)
	songs.KeyMap.ForceQuit.SetEnabled(false)

	return &Model{
		ctx:    ctx,
		ctrl:   ctrl,
		opts:   opts,
		songs:  songs,
		search: search,
		help:   help.New(),
		keys:   newKeyMap(),
	}
}

// Err returns the error that ended the program, if any.
func (m *Model) Err() error { return m.err }

// Init loads the repertoires and the songs of the default one.
func (m *Model) Init() tea.Cmd {
	return m.load()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.songs.SetSize(msg.Width, max(msg.Height-8, 1))
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) && (!m.searching || msg.Type == tea.KeyCtrlC) {
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}
		switch {
		case m.searching:
			return m.handleSearchKeys(msg)
		case m.grab != nil:
			return m.handleGrabKeys(msg)
		default:
			return m.handleListKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	m.busy = false

	var err error
	switch msg.kind {
	case MsgLoaded:
		data := msg.data.(loadedData)
		err = data.err
		m.tab = data.tab
		m.offline = data.offline
		if err == nil && data.offline {
			m.setStatus("Offline: showing cached songs", false)
		}

	case MsgActionDone:
		data := msg.data.(actionData)
		err = data.err
		if err == nil {
			m.setStatus(data.name, false)
		}

	case MsgReorderDone:
		data := msg.data.(reorderData)
		err = data.err
		switch {
		case err != nil:
		case data.outcome == ordering.Failed:
			m.setStatus("Reorder failed, the list refreshes on the next reload", true)
		case data.outcome == ordering.Submitted:
			m.setStatus("Order saved", false)
		}
	}

	if errors.Is(err, shared.ErrNotAuthenticated) {
		m.err = err
		return m, tea.Quit
	}
	if err != nil {
		m.setStatus(services.UserMessage(err), true)
	}

	m.refresh()
	return m, nil
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.nextTab):
		return m, m.switchTab(1)
	case key.Matches(msg, m.keys.prevTab):
		return m, m.switchTab(-1)
	case key.Matches(msg, m.keys.nextSort):
		m.cycleSort(1)
	case key.Matches(msg, m.keys.prevSort):
		m.cycleSort(-1)
	case key.Matches(msg, m.keys.reverse):
		m.ctrl.ToggleReverse()
	case key.Matches(msg, m.keys.resetSort):
		m.ctrl.ResetSort()
	case key.Matches(msg, m.keys.search):
		m.searching = true
		m.search.Focus()
		return m, textinput.Blink
	case key.Matches(msg, m.keys.back):
		m.search.SetValue("")
		m.ctrl.Search("")
		m.setStatus("", false)
	case key.Matches(msg, m.keys.reload):
		return m, m.run("Reloaded", m.ctrl.Reload)
	case key.Matches(msg, m.keys.saveOrder):
		return m, m.reorder(func(ctx context.Context) (ordering.Outcome, error) {
			return m.ctrl.SaveVisualOrder(ctx)
		})
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.grab):
		m.startGrab()
	default:
		if cmd, ok := m.rowKey(msg); ok {
			return m, cmd
		}
		var cmd tea.Cmd
		m.songs, cmd = m.songs.Update(msg)
		return m, cmd
	}

	m.refresh()
	return m, nil
}

// rowKey maps a key to a row action on the selected song.
func (m *Model) rowKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	song := m.selected()
	if song == nil {
		return nil, false
	}
	id := song.ID

	switch {
	case key.Matches(msg, m.keys.practice):
		return m.run("Practiced "+song.Title, func(ctx context.Context) error { return m.ctrl.Practice(ctx, id) }), true
	case key.Matches(msg, m.keys.priority):
		return m.run("Priority updated", func(ctx context.Context) error { return m.ctrl.TogglePriority(ctx, id) }), true
	case key.Matches(msg, m.keys.difficulty):
		return m.run("Difficulty updated", func(ctx context.Context) error { return m.ctrl.ToggleDifficulty(ctx, id) }), true
	case key.Matches(msg, m.keys.target):
		return m.run("Target increased", func(ctx context.Context) error { return m.ctrl.IncreaseTarget(ctx, id) }), true
	case key.Matches(msg, m.keys.archive):
		return m.run("Archived "+song.Title, func(ctx context.Context) error { return m.ctrl.Archive(ctx, id) }), true
	case key.Matches(msg, m.keys.skill):
		n := int(msg.String()[0] - '0')
		return m.run("Skill toggled", func(ctx context.Context) error { return m.ctrl.ToggleNthSkill(ctx, id, n) }), true
	}
	return nil, false
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.search.SetValue("")
		m.search.Blur()
		m.searching = false
		m.ctrl.Search("")
		m.refresh()
		return m, nil
	case tea.KeyEnter:
		m.search.Blur()
		m.searching = false
		return m, nil
	}

	var cmd tea.Cmd
	prev := m.search.Value()
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != prev {
		m.ctrl.Search(m.search.Value())
		m.refresh()
	}
	return m, cmd
}

func (m *Model) handleGrabKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.up):
		m.grab.order = ordering.MoveID(m.grab.order, m.grab.id, -1)
	case key.Matches(msg, m.keys.down):
		m.grab.order = ordering.MoveID(m.grab.order, m.grab.id, 1)
	case key.Matches(msg, m.keys.drop):
		final := m.grab.order
		m.grab = nil
		return m, m.reorder(func(ctx context.Context) (ordering.Outcome, error) {
			return m.ctrl.Drop(ctx, final)
		})
	case key.Matches(msg, m.keys.back):
		m.grab = nil
		m.refresh()
		return m, nil
	default:
		return m, nil
	}

	m.showGrab()
	return m, nil
}

func (m *Model) startGrab() {
	song := m.selected()
	if song == nil {
		return
	}
	if !m.ctrl.State().CanDrag() {
		m.setStatus(shared.ErrDragDisabled.Error(), true)
		return
	}
	m.grab = &grab{id: song.ID, order: ordering.IDs(m.rendered)}
	m.setStatus("Moving "+song.Title, false)
	m.showGrab()
}

// showGrab previews the grabbed order without touching the controller.
func (m *Model) showGrab() {
	byID := make(map[int]*models.Song, len(m.rendered))
	for _, s := range m.rendered {
		byID[s.ID] = s
	}

	items := make([]list.Item, 0, len(m.grab.order))
	cursor := 0
	for i, id := range m.grab.order {
		items = append(items, songItem{song: byID[id], grabbed: id == m.grab.id})
		if id == m.grab.id {
			cursor = i
		}
	}
	m.songs.SetItems(items)
	m.songs.Select(cursor)
}

func (m *Model) cycleSort(delta int) {
	keys := m.ctrl.SortKeys()
	i := max(0, slices.Index(keys, m.ctrl.State().Sort.Key))
	i = ((i+delta)%len(keys) + len(keys)) % len(keys)
	m.ctrl.SelectSort(keys[i])
}

// tabID returns the repertoire id of tab i; the last tab holds all songs.
func (m *Model) tabID(i int) *int {
	reps := m.ctrl.Repertoires()
	if i < 0 || i >= len(reps) {
		return nil
	}
	id := reps[i].ID
	return &id
}

func (m *Model) switchTab(delta int) tea.Cmd {
	n := len(m.ctrl.Repertoires()) + 1
	m.tab = ((m.tab+delta)%n + n) % n
	m.search.SetValue("")
	m.ctrl.Search("")
	m.grab = nil

	id := m.tabID(m.tab)
	if m.offline {
		return m.run("", func(context.Context) error { return m.ctrl.LoadOffline(id) })
	}
	return m.run("", func(ctx context.Context) error { return m.ctrl.SwitchRepertoire(ctx, id) })
}

// load fetches repertoires and skills, falling back to the cache when the server is unreachable.
func (m *Model) load() tea.Cmd {
	m.busy = true
	return func() tea.Msg {
		if _, err := m.ctrl.LoadSkills(m.ctx); errors.Is(err, shared.ErrNotAuthenticated) {
			return loadedMsg(0, false, err)
		}

		reps, err := m.ctrl.LoadRepertoires(m.ctx)
		if errors.Is(err, shared.ErrTransport) {
			if reps, cerr := m.ctrl.LoadOfflineRepertoires(); cerr == nil {
				tab := m.defaultTab(reps)
				if cerr := m.ctrl.LoadOffline(m.tabID(tab)); cerr == nil {
					return loadedMsg(tab, true, nil)
				}
			}
			return loadedMsg(0, false, err)
		}
		if err != nil {
			return loadedMsg(0, false, err)
		}

		tab := m.defaultTab(reps)
		return loadedMsg(tab, false, m.ctrl.SwitchRepertoire(m.ctx, m.tabID(tab)))
	}
}

func (m *Model) defaultTab(reps []models.Repertoire) int {
	if i := slices.IndexFunc(reps, func(r models.Repertoire) bool { return r.ID == m.opts.DefaultRepertoire }); i >= 0 {
		return i
	}
	return 0
}

// run executes a backend call as a command.
func (m *Model) run(name string, fn func(context.Context) error) tea.Cmd {
	m.busy = true
	return func() tea.Msg {
		return actionDoneMsg(name, fn(m.ctx))
	}
}

func (m *Model) reorder(fn func(context.Context) (ordering.Outcome, error)) tea.Cmd {
	m.busy = true
	return func() tea.Msg {
		outcome, err := fn(m.ctx)
		return reorderDoneMsg(outcome, err)
	}
}

// refresh renders the controller's order into the list, keeping the cursor on the same song.
func (m *Model) refresh() {
	var selectedID int
	if s := m.selected(); s != nil {
		selectedID = s.ID
	}

	m.rendered = m.ctrl.Render()
	items := make([]list.Item, len(m.rendered))
	cursor := 0
	for i, s := range m.rendered {
		items[i] = songItem{song: s}
		if s.ID == selectedID {
			cursor = i
		}
	}
	m.songs.SetItems(items)
	m.songs.Select(cursor)
	m.tabs = m.renderTabs()
	m.summary = m.renderSummary()
}

func (m *Model) selected() *models.Song {
	if it, ok := m.songs.SelectedItem().(songItem); ok {
		return it.song
	}
	return nil
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

// View renders the tabs, the song list and the status line.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %s", services.UserMessage(m.err)))
	}

	var b strings.Builder
	b.WriteString(m.tabs)
	b.WriteString("\n")
	b.WriteString(m.summary)
	b.WriteString("\n\n")

	if len(m.rendered) == 0 && m.grab == nil {
		b.WriteString(styles.help.Render("  No songs"))
	} else {
		b.WriteString(m.songs.View())
	}
	b.WriteString("\n\n")

	if m.searching || m.search.Value() != "" {
		b.WriteString(m.search.View())
		b.WriteString("\n")
	}
	b.WriteString(m.renderStatus())
	b.WriteString("\n")

	if m.grab != nil {
		b.WriteString(m.help.View(grabKeyMap{m.keys}))
	} else {
		b.WriteString(m.help.View(m.keys))
	}
	return b.String()
}

func (m *Model) renderTabs() string {
	reps := m.ctrl.Repertoires()
	tabs := make([]string, 0, len(reps)+1)
	for i := range len(reps) + 1 {
		name := "All songs"
		if i < len(reps) {
			name = reps[i].Name
		}
		if i == m.tab {
			tabs = append(tabs, styles.activeTab.Render(name))
		} else {
			tabs = append(tabs, styles.tab.Render(name))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m *Model) renderSummary() string {
	state := m.ctrl.State()
	mastery := m.ctrl.Mastery()

	parts := []string{
		fmt.Sprintf("Sort: %s", state.Sort),
		fmt.Sprintf("Songs: %d", len(m.rendered)),
		fmt.Sprintf("Mastery: %d%% (%d/%d)", mastery.Percent(), mastery.Mastered, mastery.Assigned),
	}
	if state.Lock.Locked {
		parts = append(parts, "order held")
	}
	out := styles.help.Render(strings.Join(parts, " · "))
	if m.offline {
		out += " " + styles.warn.Render("offline")
	}
	return out
}

func (m *Model) renderStatus() string {
	switch {
	case m.busy:
		return styles.help.Render("Working...")
	case m.status == "":
		return ""
	case m.statusErr:
		return styles.err.Render(m.status)
	default:
		return styles.ok.Render(m.status)
	}
}
