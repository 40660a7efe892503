package search

import (
	"context"
	"sync/atomic"
)

// Probe is the externally supplied predicate each worker applies to its
// candidates. It returns the derived form of the candidate and true on a
// match. A probe must be a pure function of its input: it is invoked
// concurrently from every worker with no synchronization.
type Probe func(candidate uint64) (derived string, ok bool)

// cancelCheckMask controls how often the scan loop polls for cancellation.
// The scan is a tight synchronous loop over the probe; checking the context
// on every candidate would dominate cheap probes, so the check runs every
// 4096 candidates. The progress counter is flushed on the same cadence.
const cancelCheckMask = 1<<12 - 1

// scan walks the task's partition and produces the worker's single Outcome.
// It returns (outcome, true) when the worker has something to report: a
// Found for the first matching candidate, or a NotFound once the partition
// is exhausted. It returns (zero, false) only when cancelled mid-scan, in
// which case the worker stays silent; an outcome racing the cancellation
// boundary may be either delivered or dropped, which callers accept.
//
// scanned accumulates the number of probed candidates across all workers of
// the run, flushed in batches to keep the hot loop free of shared writes.
func (t SearchTask) scan(ctx context.Context, probe Probe, scanned *atomic.Uint64) (Outcome, bool) {
	var local uint64
	defer func() {
		if local > 0 {
			scanned.Add(local)
		}
	}()

	var step uint64
	for candidate := uint64(t.WorkerIndex); candidate < t.UpperBound; {
		derived, ok := probe(candidate)
		local++
		if ok {
			return FoundOutcome(candidate, derived), true
		}

		if step++; step&cancelCheckMask == 0 {
			scanned.Add(local)
			local = 0
			select {
			case <-ctx.Done():
				return Outcome{}, false
			default:
			}
		}

		next := candidate + t.Stride
		if next < candidate {
			// Keyspace wrapped around uint64; nothing left to scan.
			break
		}
		candidate = next
	}
	return NotFoundOutcome("partition exhausted"), true
}
