package downloader

// State is the lifecycle position of a download task.
type State int

const (
	StatePending State = iota
	StateInFlight
	StateRetrying
	StateSucceeded
	StateFailed
	StateSkipped
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateInFlight:
		return "in_flight"
	case StateRetrying:
		return "retrying"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further attempt follows this state.
func (s State) Terminal() bool {
	switch s {
	case StateSucceeded, StateFailed, StateSkipped:
		return true
	default:
		return false
	}
}

// Outcome classifies the result of one download attempt.
type Outcome int

const (
	// OutcomeSuccess: bytes verified and renamed into place.
	OutcomeSuccess Outcome = iota
	// OutcomeTransient: timeout, 5xx, connection reset, truncated body.
	OutcomeTransient
	// OutcomeGone: 404 on a temporary item that expired before fetch.
	OutcomeGone
	// OutcomePermanent: anything that will not change on retry.
	OutcomePermanent
	// OutcomeFatal: credentials rejected; the whole run must stop.
	OutcomeFatal
)

// NextState is the pure transition function for a task. attempt is the
// number of attempts made so far including the one that produced outcome.
func NextState(current State, outcome Outcome, attempt, maxAttempts int) State {
	if current.Terminal() {
		return current
	}

	switch outcome {
	case OutcomeSuccess:
		return StateSucceeded
	case OutcomeGone:
		return StateSkipped
	case OutcomePermanent, OutcomeFatal:
		return StateFailed
	case OutcomeTransient:
		if attempt >= maxAttempts {
			return StateFailed
		}
		return StateRetrying
	default:
		return StateFailed
	}
}
