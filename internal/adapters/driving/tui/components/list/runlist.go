// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/owngpt/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/owngpt/internal/core/domain"
)

// RunList displays past runs in a navigable list.
type RunList struct {
	runs     []domain.RunSummary
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewRunList creates an empty run list.
func NewRunList(s *styles.Styles) *RunList {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &RunList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Update handles list navigation keys.
func (r *RunList) Update(msg tea.Msg) (*RunList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			r.MoveUp()
		case "down", "j":
			r.MoveDown()
		}
	}
	return r, nil
}

// View renders the visible window of runs around the selection.
func (r *RunList) View() string {
	if len(r.runs) == 0 {
		return r.styles.Muted.Render("No runs yet")
	}

	lines := make([]string, 0, len(r.runs)+2)
	lines = append(lines, r.styles.Subtitle.Render(fmt.Sprintf("Runs (%d)", len(r.runs))), "")

	visible := r.height - 4
	if visible < 1 {
		visible = 1
	}
	start := 0
	if r.selected >= visible {
		start = r.selected - visible + 1
	}
	end := start + visible
	if end > len(r.runs) {
		end = len(r.runs)
	}

	for i := start; i < end; i++ {
		lines = append(lines, r.renderRun(i, &r.runs[i]))
	}
	return strings.Join(lines, "\n")
}

func (r *RunList) renderRun(index int, run *domain.RunSummary) string {
	indicator := "  "
	if index == r.selected {
		indicator = "> "
	}

	status := run.State.String()
	if run.Degraded {
		status = "degraded"
	}

	query := run.Query
	if query == "" {
		query = "(index only)"
	}
	maxQuery := r.width - 34
	if maxQuery < 10 {
		maxQuery = 10
	}
	if q := []rune(query); len(q) > maxQuery {
		query = string(q[:maxQuery-3]) + "..."
	}

	line := fmt.Sprintf("%s%s  %-8s  %s", indicator, run.StartedAt.Format("01-02 15:04"), status, query)
	if index == r.selected {
		return r.styles.Selected.Render(line)
	}
	if run.State == domain.StateFailed {
		return r.styles.Error.Render(line)
	}
	return r.styles.Normal.Render(line)
}

// SetRuns replaces the list and resets the selection.
func (r *RunList) SetRuns(runs []domain.RunSummary) {
	r.runs = runs
	r.selected = 0
}

// Runs returns the listed runs.
func (r *RunList) Runs() []domain.RunSummary {
	return r.runs
}

// Selected returns the selected index.
func (r *RunList) Selected() int {
	return r.selected
}

// SelectedRun returns the selected run, or nil when the list is empty.
func (r *RunList) SelectedRun() *domain.RunSummary {
	if r.selected < 0 || r.selected >= len(r.runs) {
		return nil
	}
	return &r.runs[r.selected]
}

// MoveUp moves the selection up.
func (r *RunList) MoveUp() {
	if r.selected > 0 {
		r.selected--
	}
}

// MoveDown moves the selection down.
func (r *RunList) MoveDown() {
	if r.selected < len(r.runs)-1 {
		r.selected++
	}
}

// SetDimensions sets the component dimensions.
func (r *RunList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}

// Count returns the number of runs.
func (r *RunList) Count() int {
	return len(r.runs)
}
