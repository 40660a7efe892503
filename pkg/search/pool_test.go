package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func matchOnly(value uint64) Probe {
	return func(candidate uint64) (string, bool) {
		if candidate == value {
			return fmt.Sprintf("derived-%d", candidate), true
		}
		return "", false
	}
}

func neverMatch(uint64) (string, bool) {
	return "", false
}

func TestRunFindsKnownCandidate(t *testing.T) {
	// workerCount=3, upperBound=10, only candidate 7 matches: worker 1
	// (stride 3, scanning 1, 4, 7) must find it.
	pool := New(Config{})
	result, err := pool.Run(context.Background(), 3, 10, matchOnly(7))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !result.Succeeded {
		t.Fatal("Run did not succeed")
	}
	if result.Outcome == nil || result.Outcome.Kind != OutcomeFound {
		t.Fatalf("winning outcome = %+v, want Found", result.Outcome)
	}
	if result.Outcome.Value != 7 {
		t.Errorf("value = %d, want 7", result.Outcome.Value)
	}
	if result.Outcome.Derived != "derived-7" {
		t.Errorf("derived = %q, want %q", result.Outcome.Derived, "derived-7")
	}
	if got := pool.Running(); got != 0 {
		t.Errorf("%d workers still running after Run", got)
	}
}

func TestRunNoMatch(t *testing.T) {
	// workerCount=2, upperBound=4, no candidate matches.
	pool := New(Config{})
	result, err := pool.Run(context.Background(), 2, 4, neverMatch)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Succeeded {
		t.Fatal("Run succeeded on a matchless keyspace")
	}
	if result.Outcome != nil {
		t.Errorf("outcome = %+v, want nil", result.Outcome)
	}
	if result.FailureCount != 2 {
		t.Errorf("FailureCount = %d, want 2", result.FailureCount)
	}
	if got := pool.Running(); got != 0 {
		t.Errorf("%d workers still running after Run", got)
	}
}

func TestRunReturnsSomeSatisfyingValue(t *testing.T) {
	// With many matches the race may return any satisfying value.
	match := func(candidate uint64) (string, bool) {
		if candidate%10 == 3 {
			return "x", true
		}
		return "", false
	}

	pool := New(Config{})
	result, err := pool.Run(context.Background(), 4, 1000, match)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !result.Succeeded {
		t.Fatal("Run did not succeed")
	}
	if _, ok := match(result.Outcome.Value); !ok {
		t.Errorf("returned value %d does not satisfy the probe", result.Outcome.Value)
	}
}

func TestRunCrashDoesNotAbortRace(t *testing.T) {
	// Worker 2 of 5 panics on its first candidate. Worker 4 (scanning
	// 4, 9, 14, ...) holds the only match at 14; the race must still
	// resolve with it.
	probe := func(candidate uint64) (string, bool) {
		if candidate%5 == 2 {
			panic(fmt.Sprintf("corrupt state at %d", candidate))
		}
		if candidate == 14 {
			return "winner", true
		}
		return "", false
	}

	pool := New(Config{})
	result, err := pool.Run(context.Background(), 5, 50, probe)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !result.Succeeded {
		t.Fatal("Run failed although worker 4 held a match")
	}
	if result.Outcome.Value != 14 {
		t.Errorf("value = %d, want 14", result.Outcome.Value)
	}
	if got := pool.Running(); got != 0 {
		t.Errorf("%d workers still running after Run", got)
	}
}

func TestRunAllWorkersCrash(t *testing.T) {
	probe := func(candidate uint64) (string, bool) {
		panic("broken probe")
	}

	pool := New(Config{})
	result, err := pool.Run(context.Background(), 4, 100, probe)
	if err != nil {
		t.Fatalf("crashes must be absorbed, got error: %v", err)
	}
	if result.Succeeded {
		t.Fatal("Run succeeded although every worker crashed")
	}
	if result.FailureCount != 4 {
		t.Errorf("FailureCount = %d, want 4", result.FailureCount)
	}
	if got := pool.Running(); got != 0 {
		t.Errorf("%d workers still running after Run", got)
	}
}

func TestRunCrashedAndExhaustedMix(t *testing.T) {
	// Workers 0 and 1 of 3 exhaust their partitions; worker 2 crashes.
	probe := func(candidate uint64) (string, bool) {
		if candidate%3 == 2 {
			panic("bad partition")
		}
		return "", false
	}

	pool := New(Config{})
	result, err := pool.Run(context.Background(), 3, 30, probe)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Succeeded {
		t.Fatal("Run succeeded without a match")
	}
	if result.FailureCount != 3 {
		t.Errorf("FailureCount = %d, want 3", result.FailureCount)
	}
}

func TestRunZeroUpperBound(t *testing.T) {
	pool := New(Config{})
	result, err := pool.Run(context.Background(), 4, 0, neverMatch)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Succeeded || result.FailureCount != 4 {
		t.Errorf("result = %+v, want 4 exhausted workers", result)
	}
}

func TestRunRejectsInvalidArguments(t *testing.T) {
	pool := New(Config{})

	if _, err := pool.Run(context.Background(), 0, 10, neverMatch); err == nil {
		t.Error("Run accepted workerCount 0")
	}
	if _, err := pool.Run(context.Background(), -3, 10, neverMatch); err == nil {
		t.Error("Run accepted a negative worker count")
	}
	if _, err := pool.Run(context.Background(), 1, 10, nil); err == nil {
		t.Error("Run accepted a nil probe")
	}
	if got := pool.Running(); got != 0 {
		t.Errorf("%d workers running after rejected Runs", got)
	}
}

func TestRunStopsLosingWorkersBeforeReturning(t *testing.T) {
	// The keyspace is far too large to exhaust; only worker 3's first
	// candidate matches. The other workers are mid-scan when the race
	// resolves and must be stopped before Run returns.
	pool := New(Config{})
	result, err := pool.Run(context.Background(), 8, 1<<40, matchOnly(3))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !result.Succeeded || result.Outcome.Value != 3 {
		t.Fatalf("result = %+v, want Found{3}", result)
	}
	if got := pool.Running(); got != 0 {
		t.Errorf("%d workers still running after Run returned", got)
	}
}

func TestRunExternalCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	// Cancel as soon as any worker has started probing. The keyspace is
	// too large to finish, so only cancellation can end the run.
	var once sync.Once
	probe := func(uint64) (string, bool) {
		once.Do(cancel)
		return "", false
	}

	pool := New(Config{})
	result, err := pool.Run(ctx, 4, 1<<40, probe)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if result.Succeeded {
		t.Error("cancelled run reported success")
	}
	if got := pool.Running(); got != 0 {
		t.Errorf("%d workers still running after cancelled Run", got)
	}
}

func TestRunReportsProgress(t *testing.T) {
	var calls atomic.Int64
	var bad atomic.Int64
	reporter := func(scanned, total uint64) {
		calls.Add(1)
		if total != 1<<24 || scanned > total {
			bad.Add(1)
		}
	}

	pool := New(Config{
		ProgressInterval: time.Millisecond,
		ProgressReporter: reporter,
	})
	result, err := pool.Run(context.Background(), 4, 1<<24, neverMatch)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Succeeded {
		t.Fatal("unexpected success")
	}
	if calls.Load() == 0 {
		t.Error("progress reporter was never invoked")
	}
	if bad.Load() != 0 {
		t.Errorf("progress reporter received %d inconsistent updates", bad.Load())
	}
}

func TestRunConcurrentFoundsResolveToOne(t *testing.T) {
	// Every worker matches immediately; whichever report wins, the run
	// resolves exactly once with a satisfying value and stops the rest.
	probe := func(candidate uint64) (string, bool) {
		return "any", true
	}

	pool := New(Config{})
	result, err := pool.Run(context.Background(), 8, 1<<30, probe)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !result.Succeeded {
		t.Fatal("Run did not succeed")
	}
	if result.Outcome.Value >= 8 {
		t.Errorf("winning value %d is not any worker's first candidate", result.Outcome.Value)
	}
	if got := pool.Running(); got != 0 {
		t.Errorf("%d workers still running after Run", got)
	}
}
