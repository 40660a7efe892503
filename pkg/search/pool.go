package search

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/panics"

	"github.com/hashrace/hashrace/pkg/logging"
)

// ProgressReporter is called periodically during a run with the number of
// candidates probed so far and the size of the keyspace. It may be invoked
// from a background goroutine and must be safe for that.
type ProgressReporter func(scanned, total uint64)

// Config holds configuration for the search pool
type Config struct {
	// ProgressInterval is how often the ProgressReporter is invoked.
	// Defaults to one second.
	ProgressInterval time.Duration

	// ProgressReporter receives periodic scan-count updates (optional).
	ProgressReporter ProgressReporter

	// Logger used for worker lifecycle events. Defaults to the global
	// logger with a "search" component.
	Logger *logging.Logger
}

// Pool races a fixed set of workers over disjoint partitions of an integer
// keyspace. A Pool carries no per-run state and is safe for concurrent Runs.
type Pool struct {
	config  Config
	logger  *logging.Logger
	running atomic.Int64
}

// workerState tracks the liveness of a spawned worker.
type workerState int32

const (
	stateRunning workerState = iota
	stateCompleted
	stateStopped
)

// workerHandle is the pool's per-worker bookkeeping for one run. The pool
// retains every handle until the worker it names has been joined; no worker
// outlives the Run that spawned it.
type workerHandle struct {
	task  SearchTask
	state atomic.Int32
}

func (h *workerHandle) setState(s workerState) { h.state.Store(int32(s)) }

// workerReport is the single message a worker delivers to the race. Exactly
// one of outcome or fault is meaningful: a fault is a captured panic from
// the scan, which is a crash, not a NotFound.
type workerReport struct {
	index   int
	outcome Outcome
	fault   *panics.Recovered
}

// New creates a pool with the given configuration.
func New(config Config) *Pool {
	if config.ProgressInterval <= 0 {
		config.ProgressInterval = time.Second
	}
	logger := config.Logger
	if logger == nil {
		logger = logging.GetGlobalLogger().WithComponent("search")
	}
	return &Pool{config: config, logger: logger}
}

// Running returns the number of workers currently executing. It is zero
// before a Run starts and zero again by the time any Run returns.
func (p *Pool) Running() int {
	return int(p.running.Load())
}

// Run partitions [0, upperBound) across workerCount workers and races them
// to the first candidate satisfying probe.
//
// The first Found outcome resolves the run; outcomes arriving afterwards
// are ignored. A worker that panics is recorded as a failure but does not
// end the race, since other partitions may still hold a match. Only when
// every worker has either exhausted its partition or crashed does the run
// resolve negatively, with FailureCount == workerCount. A negative result
// is not an error: Run returns a non-nil error only for infrastructure
// problems (invalid arguments) or an external cancellation via ctx.
//
// On every exit path Run cancels and joins all workers before returning,
// so callers never observe a still-running worker from a completed Run.
func (p *Pool) Run(ctx context.Context, workerCount int, upperBound uint64, probe Probe) (PoolResult, error) {
	if workerCount < 1 {
		return PoolResult{}, fmt.Errorf("worker count must be at least 1, got %d", workerCount)
	}
	if probe == nil {
		return PoolResult{}, fmt.Errorf("probe must not be nil")
	}

	runCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	handles := make([]*workerHandle, workerCount)

	// Guaranteed teardown: request exit, join every worker, retire the
	// handles. Runs before the result reaches the caller on all paths.
	defer func() {
		cancel()
		wg.Wait()
		interrupted := 0
		for _, h := range handles {
			if workerState(h.state.Load()) == stateRunning {
				interrupted++
			}
			h.setState(stateStopped)
		}
		if interrupted > 0 {
			p.logger.Debug("workers stopped mid-scan", map[string]interface{}{
				"count": interrupted,
			})
		}
	}()

	// Buffered so a worker reporting after the race has resolved never
	// blocks; each worker sends at most one report.
	reports := make(chan workerReport, workerCount)
	var scanned atomic.Uint64

	for i := 0; i < workerCount; i++ {
		h := &workerHandle{task: NewSearchTask(i, workerCount, upperBound)}
		h.setState(stateRunning)
		handles[i] = h

		wg.Add(1)
		p.running.Add(1)
		go func(h *workerHandle) {
			defer wg.Done()
			defer p.running.Add(-1)

			var out Outcome
			var emitted bool
			fault := panics.Try(func() {
				out, emitted = h.task.scan(runCtx, probe, &scanned)
			})
			if fault != nil {
				reports <- workerReport{index: h.task.WorkerIndex, fault: fault}
				return
			}
			if emitted {
				h.setState(stateCompleted)
				reports <- workerReport{index: h.task.WorkerIndex, outcome: out}
			}
			// Cancelled mid-scan: the worker stays silent.
		}(h)
	}

	if p.config.ProgressReporter != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticker := time.NewTicker(p.config.ProgressInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					p.config.ProgressReporter(scanned.Load(), upperBound)
				case <-runCtx.Done():
					return
				}
			}
		}()
	}

	p.logger.Debug("race started", map[string]interface{}{
		"workers":     workerCount,
		"upper_bound": upperBound,
	})

	failures := 0
	for received := 0; received < workerCount; received++ {
		select {
		case report := <-reports:
			switch {
			case report.fault != nil:
				failures++
				p.logger.Warn("worker crashed", map[string]interface{}{
					"worker": report.index,
					"panic":  fmt.Sprint(report.fault.Value),
				})
			case report.outcome.Kind == OutcomeFound:
				outcome := report.outcome
				p.logger.Info("candidate found", map[string]interface{}{
					"worker": report.index,
					"value":  outcome.Value,
				})
				return PoolResult{Succeeded: true, Outcome: &outcome, FailureCount: failures}, nil
			default:
				failures++
				p.logger.Debug("partition exhausted", map[string]interface{}{
					"worker": report.index,
				})
			}
		case <-ctx.Done():
			return PoolResult{FailureCount: failures}, ctx.Err()
		}
	}

	p.logger.Info("keyspace exhausted without a match", map[string]interface{}{
		"workers": workerCount,
		"scanned": scanned.Load(),
	})
	return PoolResult{Succeeded: false, FailureCount: failures}, nil
}
