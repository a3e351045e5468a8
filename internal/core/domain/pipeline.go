package domain

import "time"

// State is a stage of the answer pipeline.
type State string

// Pipeline states, in execution order.
const (
	StateSearchPending State = "search_pending"
	StateFetching      State = "fetching"
	StateExtracting    State = "extracting"
	StateChunking      State = "chunking"
	StateIndexing      State = "indexing"
	StateRetrieving    State = "retrieving"
	StateGenerating    State = "generating"
	StateDone          State = "done"

	// StateFailed is terminal and reachable from any stage.
	// RunReport.FailedStage records where it happened.
	StateFailed State = "failed"
)

var stateOrder = []State{
	StateSearchPending,
	StateFetching,
	StateExtracting,
	StateChunking,
	StateIndexing,
	StateRetrieving,
	StateGenerating,
	StateDone,
}

// AllStates returns the non-failure states in execution order.
func AllStates() []State {
	out := make([]State, len(stateOrder))
	copy(out, stateOrder)
	return out
}

// String returns the string representation.
func (s State) String() string {
	return string(s)
}

// IsTerminal reports whether no further transitions are possible.
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateFailed
}

// Next returns the linear successor. Terminal states return themselves.
func (s State) Next() State {
	for i, st := range stateOrder {
		if st == s && i+1 < len(stateOrder) {
			return stateOrder[i+1]
		}
	}
	return s
}

// CanTransition reports whether moving from s to next is allowed.
// Besides the linear successor, a run may jump forward to Retrieving
// when there is nothing to fetch or index, and may fail from anywhere.
// Ingest-only runs finish from Indexing, or from any state that could
// have skipped to Retrieving.
func (s State) CanTransition(next State) bool {
	if s.IsTerminal() {
		return false
	}
	if next == StateFailed || next == s.Next() {
		return true
	}
	switch next {
	case StateRetrieving:
		return s.canSkipIndexing()
	case StateDone:
		return s == StateIndexing || s.canSkipIndexing()
	}
	return false
}

func (s State) canSkipIndexing() bool {
	return s == StateSearchPending || s == StateExtracting || s == StateChunking
}

// Description returns a human-readable label for the state.
func (s State) Description() string {
	switch s {
	case StateSearchPending:
		return "Searching the web"
	case StateFetching:
		return "Fetching pages"
	case StateExtracting:
		return "Extracting text"
	case StateChunking:
		return "Chunking documents"
	case StateIndexing:
		return "Indexing chunks"
	case StateRetrieving:
		return "Retrieving context"
	case StateGenerating:
		return "Generating answer"
	case StateDone:
		return "Done"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// RunReport records what one pipeline run did.
type RunReport struct {
	// ID identifies the run.
	ID string

	// Query is the trimmed query text.
	Query string

	// State is the final state, StateDone or StateFailed.
	State State

	// FailedStage is the stage that was active when the run failed.
	FailedStage State

	// Err is the cause of a failed run.
	Err error

	// URLs are the seed URLs from search or the caller.
	URLs []string

	// Fetch is the per-URL fetch result.
	Fetch FetchResult

	// Documents is the number of non-empty documents extracted.
	Documents int

	// Chunks is the number of chunks produced.
	Chunks int

	// Index is the indexing outcome.
	Index IndexReport

	// Context is what the retriever returned.
	Context RetrievedContext

	// Answer is the full generated text.
	Answer string

	// Degraded is true when the answer is the fallback apology.
	Degraded bool

	// Transitions lists every state entered, in order.
	Transitions []State

	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration returns how long the run took.
func (r *RunReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Summary returns the persisted view of the report.
func (r *RunReport) Summary() RunSummary {
	s := RunSummary{
		ID:         r.ID,
		Query:      r.Query,
		State:      r.State,
		URLs:       len(r.URLs),
		Fetched:    len(r.Fetch.Succeeded()),
		FetchFails: len(r.Fetch.Failed()),
		Indexed:    r.Index.Indexed,
		IndexFails: r.Index.Failed,
		Retrieved:  len(r.Context.Records),
		Degraded:   r.Degraded,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
	if r.State == StateFailed {
		s.FailedStage = r.FailedStage
		if r.Err != nil {
			s.Error = r.Err.Error()
		}
	}
	return s
}

// RunSummary is the persisted record of a run, used by history listings.
type RunSummary struct {
	ID          string
	Query       string
	State       State
	FailedStage State
	Error       string
	URLs        int
	Fetched     int
	FetchFails  int
	Indexed     int
	IndexFails  int
	Retrieved   int
	Degraded    bool
	StartedAt   time.Time
	FinishedAt  time.Time
}
