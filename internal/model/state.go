package model

// State represents the lifecycle state of a crawl run.
// A run starts in StateIdle, moves to StateRunning when the first step
// executes, and ends in exactly one of the terminal states.
//
// Design decision: We use iota-based constants rather than string constants
// for efficiency in comparisons and sorting. The String() method provides
// human-readable output when needed.
type State int

const (
	// StateIdle indicates a run that has been created but not started.
	StateIdle State = iota

	// StateRunning indicates a run that is actively crawling.
	StateRunning

	// StateFinished indicates a run that completed normally: the frontier
	// drained or a quota was reached, and at least one page was visited.
	StateFinished

	// StateFailed indicates a run that ended without visiting any page,
	// or that was aborted by an unrecoverable error.
	StateFailed

	// StateTimedOut indicates a run terminated by the inactivity watchdog
	// because no page was parsed within the configured window.
	StateTimedOut
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRunning:
		return "RUNNING"
	case StateFinished:
		return "FINISHED"
	case StateFailed:
		return "FAILED"
	case StateTimedOut:
		return "TIMED_OUT"
	default:
		return "UNKNOWN"
	}
}

// Terminal returns true if the state is one of the three end states.
// Once a run reaches a terminal state it never transitions again.
func (s State) Terminal() bool {
	return s == StateFinished || s == StateFailed || s == StateTimedOut
}

// Success returns true if the run ended in the successful terminal state.
func (s State) Success() bool {
	return s == StateFinished
}

// ParseState converts a string produced by String() back into a State.
// Unrecognized input returns StateIdle; database rows only ever contain
// values written by String(), so this is a round-trip in practice.
func ParseState(s string) State {
	switch s {
	case "RUNNING":
		return StateRunning
	case "FINISHED":
		return StateFinished
	case "FAILED":
		return StateFailed
	case "TIMED_OUT":
		return StateTimedOut
	default:
		return StateIdle
	}
}
