// Command hashrace runs a one-shot parallel search for a nonce whose
// derived address ends in the requested hex suffix.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/hashrace/hashrace/pkg/logging"
	"github.com/hashrace/hashrace/pkg/mining"
	"github.com/hashrace/hashrace/pkg/search"
	"github.com/hashrace/hashrace/pkg/util"
)

func main() {
	var (
		suffix   = flag.String("suffix", "", "Lowercase hex suffix the derived address must end with (required)")
		workers  = flag.Int("workers", runtime.NumCPU(), "Number of parallel search workers")
		max      = flag.Uint64("max", 1<<32, "Exclusive upper bound of the nonce keyspace")
		quiet    = flag.Bool("quiet", false, "Suppress progress output")
		logLevel = flag.String("log-level", "warn", "Log level (debug, info, warn, error)")
	)
	flag.Parse()

	level, err := logging.ParseLogLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	logging.InitGlobalLogger(&logging.Config{Level: level, Output: os.Stderr})

	if *suffix == "" {
		fmt.Fprintln(os.Stderr, "Error: -suffix is required")
		flag.Usage()
		os.Exit(2)
	}

	probe, err := mining.SuffixProbe(*suffix)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	poolConfig := search.Config{ProgressInterval: time.Second}
	var reporter *util.RateReporter
	if !*quiet {
		reporter = util.NewRateReporter("mining", os.Stderr)
		poolConfig.ProgressReporter = reporter.Report
	}
	pool := search.New(poolConfig)

	// Ctrl-C cancels the run; the pool stops and joins every worker
	// before Run returns, so this exits cleanly mid-scan.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	result, err := pool.Run(ctx, *workers, *max, probe)
	if reporter != nil {
		reporter.Finish()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: search aborted: %v\n", err)
		os.Exit(2)
	}

	if !result.Succeeded {
		fmt.Printf("no address ending in %q among %d nonces (%d workers exhausted or crashed)\n",
			*suffix, *max, result.FailureCount)
		os.Exit(1)
	}

	fmt.Printf("nonce %d derives %s (found in %s)\n",
		result.Outcome.Value, result.Outcome.Derived, time.Since(start).Round(time.Millisecond))
}
