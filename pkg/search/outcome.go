package search

import "fmt"

// OutcomeKind distinguishes the two terminal states a worker can report.
type OutcomeKind int

const (
	// OutcomeNotFound means the worker exhausted its partition without a match.
	OutcomeNotFound OutcomeKind = iota
	// OutcomeFound means the worker located a candidate satisfying the probe.
	OutcomeFound
)

// String returns the string representation of the outcome kind.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeFound:
		return "found"
	case OutcomeNotFound:
		return "not_found"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Outcome is the single terminal message a worker emits for its task.
// A worker sends exactly one Outcome per task: never zero, never more than
// one. "No match" travels as an Outcome, not as an error; a worker that
// terminates without sending one has crashed, which the pool tracks
// separately from this protocol.
type Outcome struct {
	Kind    OutcomeKind
	Value   uint64
	Derived string
	Reason  string
}

// FoundOutcome builds the success outcome for a matching candidate.
func FoundOutcome(value uint64, derived string) Outcome {
	return Outcome{Kind: OutcomeFound, Value: value, Derived: derived}
}

// NotFoundOutcome builds the expected-failure outcome for an exhausted
// partition.
func NotFoundOutcome(reason string) Outcome {
	return Outcome{Kind: OutcomeNotFound, Reason: reason}
}

// PoolResult is what a completed Run returns to the caller. FailureCount is
// the number of workers that either exhausted their partition or crashed.
// When Succeeded is true, Outcome holds the winning Found outcome; otherwise
// Outcome is nil. A PoolResult is not mutated after construction.
type PoolResult struct {
	Succeeded    bool
	Outcome      *Outcome
	FailureCount int
}
