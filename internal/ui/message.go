package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/rehearse/internal/ordering"
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
	MsgLoaded MsgKind = iota
	MsgActionDone
	MsgReorderDone
)

type loadedData struct {
	tab     int
	offline bool
	err     error
}

type actionData struct {
	name string
	err  error
}

type reorderData struct {
	outcome ordering.Outcome
	err     error
}

// loadedMsg is the constructor for [MsgLoaded]
func loadedMsg(tab int, offline bool, err error) Msg {
	return Msg{kind: MsgLoaded, data: loadedData{tab, offline, err}}
}

// actionDoneMsg is the constructor for [MsgActionDone]
func actionDoneMsg(name string, err error) Msg {
	return Msg{kind: MsgActionDone, data: actionData{name, err}}
}

// reorderDoneMsg is the constructor for [MsgReorderDone]
func reorderDoneMsg(outcome ordering.Outcome, err error) Msg {
	return Msg{kind: MsgReorderDone, data: reorderData{outcome, err}}
}
