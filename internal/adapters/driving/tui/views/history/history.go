// Package history provides the run history view for the TUI.
package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/owngpt/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/owngpt/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/owngpt/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/owngpt/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/owngpt/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/owngpt/internal/core/domain"
	"github.com/custodia-labs/owngpt/internal/core/ports/driving"
)

// recentRuns is how many runs the view loads.
const recentRuns = 50

// View lists recent runs with details of the selected one.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	list      *list.RunList
	statusbar *status.Bar

	history driving.HistoryService
	ctx     context.Context

	loading bool
	err     error
	width   int
	height  int
}

// NewView creates a history view. history may be nil.
func NewView(s *styles.Styles, km *keymap.KeyMap, history driving.HistoryService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	bar := status.NewBar(s, km)
	bar.SetMode(status.ModeHistory)

	return &View{
		styles:    s,
		keymap:    km,
		list:      list.NewRunList(s),
		statusbar: bar,
		history:   history,
		ctx:       context.Background(),
		width:     80,
		height:    24,
	}
}

// WithContext sets the context used for loading.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads recent runs.
func (v *View) Init() tea.Cmd {
	if v.history == nil {
		return nil
	}
	v.loading = true
	history, ctx := v.history, v.ctx
	return func() tea.Msg {
		runs, err := history.Recent(ctx, recentRuns)
		return messages.HistoryLoaded{Runs: runs, Err: err}
	}
}

// Update handles messages for the history view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.HistoryLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.list.SetRuns(msg.Runs)
		}
		return v, nil

	case tea.KeyMsg:
		if keymap.Matches(msg.String(), v.keymap.Back) {
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewAsk}
			}
		}
		var cmd tea.Cmd
		v.list, cmd = v.list.Update(msg)
		return v, cmd
	}
	return v, nil
}

// View renders the run list and the selected run's details.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Run history"))
	b.WriteString("\n\n")

	switch {
	case v.history == nil:
		b.WriteString(v.styles.Muted.Render("History is not available."))
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	default:
		b.WriteString(v.list.View())
		if run := v.list.SelectedRun(); run != nil {
			b.WriteString("\n\n")
			b.WriteString(v.renderDetails(run))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.statusbar.View())
	return b.String()
}

func (v *View) renderDetails(run *domain.RunSummary) string {
	lines := []string{
		v.styles.Subtitle.Render("Run " + run.ID),
		fmt.Sprintf("  Query:     %s", run.Query),
		fmt.Sprintf("  State:     %s", run.State),
	}
	if run.State == domain.StateFailed {
		lines = append(lines,
			v.styles.Error.Render(fmt.Sprintf("  Failed at: %s (%s)", run.FailedStage, run.Error)))
	}
	lines = append(lines,
		fmt.Sprintf("  Pages:     %d fetched of %d", run.Fetched, run.URLs),
		fmt.Sprintf("  Chunks:    %d indexed, %d failed", run.Indexed, run.IndexFails),
		fmt.Sprintf("  Context:   %d chunks", run.Retrieved),
		fmt.Sprintf("  Took:      %s", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond)),
	)
	return strings.Join(lines, "\n")
}

// SetDimensions sizes the view.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.statusbar.SetWidth(width)
	listHeight := height - 14
	if listHeight < 3 {
		listHeight = 3
	}
	v.list.SetDimensions(width, listHeight)
}

// Runs returns the loaded runs.
func (v *View) Runs() []domain.RunSummary {
	return v.list.Runs()
}

// Err returns the last load error.
func (v *View) Err() error {
	return v.err
}
