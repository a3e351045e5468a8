// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/owngpt/internal/core/domain"
)

// AskRequested asks the pipeline a question.
type AskRequested struct {
	Query string
}

// StageChanged reports a pipeline state transition of the running question.
type StageChanged struct {
	State domain.State
}

// FragmentReceived carries one streamed piece of the answer.
type FragmentReceived struct {
	Text string
}

// AskCompleted carries the final report of a run.
// Report may be non-nil even when Err is set.
type AskCompleted struct {
	Report *domain.RunReport
	Err    error
}

// HistoryLoaded carries recent runs.
type HistoryLoaded struct {
	Runs []domain.RunSummary
	Err  error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewAsk is the question input and streamed answer view.
	ViewAsk ViewType = iota
	// ViewHistory lists past runs.
	ViewHistory
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewAsk:
		return "ask"
	case ViewHistory:
		return "history"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
