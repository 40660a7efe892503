package util

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// RateReporter renders in-place progress for a long-running scan: count of
// probed candidates, percentage of the keyspace, and a smoothed probe rate.
// Its Report method matches the search pool's progress callback signature
// and is safe to call from a background goroutine.
type RateReporter struct {
	mu          sync.Mutex
	prefix      string
	writer      io.Writer
	start       time.Time
	lastTime    time.Time
	lastScanned uint64
}

// NewRateReporter creates a reporter writing to the given writer.
func NewRateReporter(prefix string, writer io.Writer) *RateReporter {
	now := time.Now()
	return &RateReporter{
		prefix:   prefix,
		writer:   writer,
		start:    now,
		lastTime: now,
	}
}

// Report redraws the progress line for the given scan counters.
func (r *RateReporter) Report(scanned, total uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(r.lastTime)
	if elapsed <= 0 {
		return
	}
	rate := float64(scanned-r.lastScanned) / elapsed.Seconds()
	r.lastTime = now
	r.lastScanned = scanned

	var percent float64
	if total > 0 {
		percent = 100 * float64(scanned) / float64(total)
	}

	fmt.Fprintf(r.writer, "\r%s %s / %s (%.1f%%) %s",
		r.prefix, FormatCount(scanned), FormatCount(total), percent, FormatRate(rate))
}

// Finish replaces the progress line with a closing summary.
func (r *RateReporter) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()

	elapsed := time.Since(r.start)
	var rate float64
	if secs := elapsed.Seconds(); secs > 0 {
		rate = float64(r.lastScanned) / secs
	}
	fmt.Fprintf(r.writer, "\r%s %s probed in %s (%s)\n",
		r.prefix, FormatCount(r.lastScanned), elapsed.Round(time.Millisecond), FormatRate(rate))
}

// FormatCount renders a candidate count with a metric suffix.
func FormatCount(n uint64) string {
	switch {
	case n >= 1_000_000_000_000:
		return fmt.Sprintf("%.2fT", float64(n)/1e12)
	case n >= 1_000_000_000:
		return fmt.Sprintf("%.2fG", float64(n)/1e9)
	case n >= 1_000_000:
		return fmt.Sprintf("%.2fM", float64(n)/1e6)
	case n >= 1_000:
		return fmt.Sprintf("%.2fK", float64(n)/1e3)
	default:
		return fmt.Sprintf("%d", n)
	}
}

// FormatRate renders a probe rate in hashes per second.
func FormatRate(rate float64) string {
	switch {
	case rate >= 1e9:
		return fmt.Sprintf("%.2f GH/s", rate/1e9)
	case rate >= 1e6:
		return fmt.Sprintf("%.2f MH/s", rate/1e6)
	case rate >= 1e3:
		return fmt.Sprintf("%.2f KH/s", rate/1e3)
	default:
		return fmt.Sprintf("%.0f H/s", rate)
	}
}
