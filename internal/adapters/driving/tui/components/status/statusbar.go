// Package status provides the status bar component for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/owngpt/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/owngpt/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/owngpt/internal/core/domain"
)

// Mode selects which hints and message the bar shows.
type Mode string

const (
	ModeReady    Mode = "ready"
	ModeRunning  Mode = "running"
	ModeDone     Mode = "done"
	ModeDegraded Mode = "degraded"
	ModeError    Mode = "error"
	ModeHistory  Mode = "history"
)

// Bar displays the pipeline stage and keybinding hints.
type Bar struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	mode    Mode
	stage   domain.State
	message string
	width   int
}

// NewBar creates a new status bar.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &Bar{
		styles: s,
		keymap: km,
		mode:   ModeReady,
		width:  80,
	}
}

// View renders the status bar.
func (b *Bar) View() string {
	left := b.renderLeft()
	right := b.renderRight()

	padding := b.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}
	return b.styles.StatusBar.Width(b.width).Render(left + strings.Repeat(" ", padding) + right)
}

func (b *Bar) renderLeft() string {
	switch b.mode {
	case ModeRunning:
		if b.stage != "" {
			return b.styles.Stage.Render(b.stage.Description() + "...")
		}
		return b.styles.Stage.Render("Starting...")
	case ModeError:
		if b.message != "" {
			return b.styles.Error.Render(fmt.Sprintf("Error: %s", b.message))
		}
		return b.styles.Error.Render("Error")
	case ModeDegraded:
		return b.styles.Warning.Render("No answer from the model")
	case ModeDone:
		if b.message != "" {
			return b.styles.Success.Render(b.message)
		}
		return b.styles.Success.Render("Done")
	case ModeHistory:
		return b.styles.Normal.Render("History")
	case ModeReady:
	}
	return b.styles.Muted.Render("Ready")
}

func (b *Bar) renderRight() string {
	var bindings []key.Binding
	switch b.mode {
	case ModeRunning:
		bindings = b.keymap.RunningHelp()
	case ModeHistory:
		bindings = b.keymap.HistoryHelp()
	default:
		bindings = b.keymap.ShortHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		h := binding.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return b.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetMode sets the display mode.
func (b *Bar) SetMode(mode Mode) {
	b.mode = mode
}

// Mode returns the display mode.
func (b *Bar) Mode() Mode {
	return b.mode
}

// SetStage records the running pipeline stage.
func (b *Bar) SetStage(stage domain.State) {
	b.stage = stage
}

// Stage returns the last recorded stage.
func (b *Bar) Stage() domain.State {
	return b.stage
}

// SetMessage sets a custom message.
func (b *Bar) SetMessage(message string) {
	b.message = message
}

// Message returns the current message.
func (b *Bar) Message() string {
	return b.message
}

// SetWidth sets the status bar width.
func (b *Bar) SetWidth(width int) {
	b.width = width
}

// Clear resets the bar to ready.
func (b *Bar) Clear() {
	b.mode = ModeReady
	b.stage = ""
	b.message = ""
}
