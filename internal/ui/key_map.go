package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the song list.
type keyMap struct {
	up         key.Binding
	down       key.Binding
	nextTab    key.Binding
	prevTab    key.Binding
	nextSort   key.Binding
	prevSort   key.Binding
	reverse    key.Binding
	resetSort  key.Binding
	search     key.Binding
	back       key.Binding
	practice   key.Binding
	skill      key.Binding
	priority   key.Binding
	difficulty key.Binding
	target     key.Binding
	archive    key.Binding
	grab       key.Binding
	drop       key.Binding
	saveOrder  key.Binding
	reload     key.Binding
	help       key.Binding
	quit       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		nextTab:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next repertoire")),
		prevTab:    key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev repertoire")),
		nextSort:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s/S", "sort key")),
		prevSort:   key.NewBinding(key.WithKeys("S")),
		reverse:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reverse")),
		resetSort:  key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "reset sort")),
		search:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear")),
		practice:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "practice")),
		skill:      key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "toggle skill")),
		priority:   key.NewBinding(key.WithKeys("P"), key.WithHelp("P", "priority")),
		difficulty: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "difficulty")),
		target:     key.NewBinding(key.WithKeys("+"), key.WithHelp("+", "target")),
		archive:    key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "archive")),
		grab:       key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "move")),
		drop:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "drop")),
		saveOrder:  key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "save order")),
		reload:     key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reload")),
		help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.nextSort, k.reverse, k.search, k.practice, k.grab, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.nextTab, k.prevTab, k.reload},
		{k.nextSort, k.reverse, k.resetSort, k.search, k.back},
		{k.practice, k.skill, k.priority, k.difficulty, k.target, k.archive},
		{k.grab, k.saveOrder, k.help, k.quit},
	}
}

// grabKeyMap is shown while a song is being moved.
type grabKeyMap struct{ keyMap }

func (k grabKeyMap) ShortHelp() []key.Binding {
	back := key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel"))
	return []key.Binding{k.up, k.down, k.drop, back}
}

func (k grabKeyMap) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }
