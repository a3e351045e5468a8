// Package ask provides the question view: an input line, the streamed
// answer and the sources it was grounded on.
package ask

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/owngpt/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/owngpt/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/owngpt/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/owngpt/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/owngpt/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/owngpt/internal/core/domain"
	"github.com/custodia-labs/owngpt/internal/core/ports/driving"
)

// eventBuffer bounds fragments queued between the pipeline and the UI.
const eventBuffer = 64

// View is the ask view.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QuestionInput
	viewport  viewport.Model
	spinner   spinner.Model
	statusbar *status.Bar

	pipeline driving.Pipeline
	ctx      context.Context
	cancel   context.CancelFunc
	events   chan tea.Msg

	running  bool
	question string
	answer   strings.Builder
	sources  []string
	err      error

	width  int
	height int
}

// NewView creates an ask view.
func NewView(s *styles.Styles, km *keymap.KeyMap, pipeline driving.Pipeline) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = s.Title

	v := &View{
		styles:    s,
		keymap:    km,
		input:     input.NewQuestionInput(s),
		viewport:  viewport.New(80, 16),
		spinner:   sp,
		statusbar: status.NewBar(s, km),
		pipeline:  pipeline,
		ctx:       context.Background(),
	}
	v.SetDimensions(80, 24)
	return v
}

// WithContext sets the parent context for runs.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the ask view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v.handleKey(msg)

	case messages.AskRequested:
		return v, v.start(msg.Query)

	case messages.StageChanged:
		v.statusbar.SetStage(msg.State)
		return v, v.next()

	case messages.FragmentReceived:
		v.answer.WriteString(msg.Text)
		v.refresh()
		return v, v.next()

	case messages.AskCompleted:
		v.finish(msg)
		return v, v.input.Focus()

	case messages.ErrorOccurred:
		v.err = msg.Err
		v.statusbar.SetMode(status.ModeError)
		v.statusbar.SetMessage(msg.Err.Error())
		return v, nil

	case spinner.TickMsg:
		if !v.running {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	keyStr := msg.String()

	switch {
	case keymap.Matches(keyStr, v.keymap.PageUp), keymap.Matches(keyStr, v.keymap.PageDown):
		var cmd tea.Cmd
		v.viewport, cmd = v.viewport.Update(msg)
		return v, cmd

	case keymap.Matches(keyStr, v.keymap.Back):
		if v.running && v.cancel != nil {
			v.cancel()
		}
		return v, nil
	}

	if v.running {
		return v, nil
	}

	if keymap.Matches(keyStr, v.keymap.Submit) {
		query := strings.TrimSpace(v.input.Value())
		if query == "" {
			return v, nil
		}
		return v, v.start(query)
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// start launches a run in the background and returns the command that
// delivers its first event.
func (v *View) start(query string) tea.Cmd {
	if v.running || v.pipeline == nil {
		return nil
	}

	ctx, cancel := context.WithCancel(v.ctx)
	events := make(chan tea.Msg, eventBuffer)

	v.cancel = cancel
	v.events = events
	v.running = true
	v.question = query
	v.answer.Reset()
	v.sources = nil
	v.err = nil
	v.input.Reset()
	v.input.Blur()
	v.statusbar.Clear()
	v.statusbar.SetMode(status.ModeRunning)
	v.refresh()

	send := func(msg tea.Msg) {
		select {
		case events <- msg:
		case <-ctx.Done():
		}
	}

	go func() {
		report, err := v.pipeline.Ask(ctx, query, driving.AskOptions{
			OnFragment: func(s string) { send(messages.FragmentReceived{Text: s}) },
			OnState:    func(s domain.State) { send(messages.StageChanged{State: s}) },
		})
		events <- messages.AskCompleted{Report: report, Err: err}
		close(events)
	}()

	return tea.Batch(v.spinner.Tick, v.next())
}

// next waits for the next event of the current run.
func (v *View) next() tea.Cmd {
	events := v.events
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return nil
		}
		return msg
	}
}

func (v *View) finish(msg messages.AskCompleted) {
	v.running = false
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	v.events = nil

	report := msg.Report
	if report != nil {
		if v.answer.Len() == 0 && report.Answer != "" {
			v.answer.WriteString(report.Answer)
		}
		v.sources = contextSources(report.Context)
	}

	switch {
	case msg.Err != nil:
		v.err = msg.Err
		v.statusbar.SetMode(status.ModeError)
		v.statusbar.SetMessage(msg.Err.Error())
	case report != nil && report.Degraded:
		v.statusbar.SetMode(status.ModeDegraded)
	default:
		v.statusbar.SetMode(status.ModeDone)
		v.statusbar.SetMessage(fmt.Sprintf("Done (%d sources)", len(v.sources)))
	}
	v.refresh()
}

// refresh re-renders the answer and sources into the viewport.
func (v *View) refresh() {
	var b strings.Builder
	b.WriteString(v.styles.Answer.Width(v.viewport.Width).Render(v.answer.String()))
	if len(v.sources) > 0 {
		b.WriteString("\n\n")
		b.WriteString(v.styles.Subtitle.Render("Sources"))
		for _, src := range v.sources {
			b.WriteString("\n  ")
			b.WriteString(v.styles.Source.Render(src))
		}
	}
	v.viewport.SetContent(b.String())
	v.viewport.GotoBottom()
}

// View renders the ask view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("owngpt"))
	b.WriteString("\n\n")
	b.WriteString(v.input.View())
	b.WriteString("\n\n")

	if v.question != "" {
		b.WriteString(v.styles.Question.Render("Q: " + v.question))
		b.WriteString("\n")
		if v.running {
			stage := "Starting"
			if s := v.statusbar.Stage(); s != "" {
				stage = s.Description()
			}
			b.WriteString(v.spinner.View() + " " + v.styles.Stage.Render(stage))
		}
		b.WriteString("\n")
		b.WriteString(v.viewport.View())
		b.WriteString("\n")
	} else {
		b.WriteString(v.styles.Muted.Render("Type a question and press enter."))
		b.WriteString("\n\n")
	}

	b.WriteString(v.statusbar.View())
	return b.String()
}

// SetDimensions sizes the view and its components.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)

	vpHeight := height - 9
	if vpHeight < 3 {
		vpHeight = 3
	}
	v.viewport.Width = width
	v.viewport.Height = vpHeight
	v.refresh()
}

// Running reports whether a question is in flight.
func (v *View) Running() bool {
	return v.running
}

// Answer returns the answer text received so far.
func (v *View) Answer() string {
	return v.answer.String()
}

// Sources returns the context sources of the last completed run.
func (v *View) Sources() []string {
	return v.sources
}

// Question returns the last submitted question.
func (v *View) Question() string {
	return v.question
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

// InputFocused reports whether the question input has focus.
func (v *View) InputFocused() bool {
	return v.input.Focused()
}

// contextSources lists distinct sources in rank order.
func contextSources(rctx domain.RetrievedContext) []string {
	seen := make(map[string]bool)
	var sources []string
	for _, r := range rctx.Records {
		src := r.Record.Chunk.Source
		if src == "" || seen[src] {
			continue
		}
		seen[src] = true
		sources = append(sources, src)
	}
	return sources
}
