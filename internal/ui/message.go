package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/sortify/internal/tasks"
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
	MsgProgressUpdate MsgKind = iota
	MsgGroupingComplete
)

type groupingResult struct {
	result *tasks.Result
	err    error
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// groupingCompleteMsg is the constructor for [MsgGroupingComplete]
func groupingCompleteMsg(result *tasks.Result, err error) Msg {
	return Msg{kind: MsgGroupingComplete, data: groupingResult{result, err}}
}
