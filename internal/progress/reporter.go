package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Options configures the progress reporter.
type Options struct {
	// TotalItems is the number of items in the run.
	TotalItems int

	// Workers is the number of parallel workers (for display).
	Workers int

	// Label describes the run, e.g. "Downloading media".
	Label string

	// Output is where to write progress output.
	// Default: os.Stderr
	Output io.Writer

	// UpdateInterval is how often to update the progress display.
	// Default: 500ms
	UpdateInterval time.Duration
}

// Reporter aggregates per-item outcomes into human-readable progress output
// and collects the identifiers of items that failed. All methods are safe
// for concurrent use from any number of workers.
type Reporter struct {
	opts Options

	completed  atomic.Int64
	skipped    atomic.Int64
	failed     atomic.Int64
	inProgress atomic.Int64
	bytes      atomic.Int64

	mu        sync.Mutex
	failures  []string
	startTime time.Time
	stopCh    chan struct{}
	stopped   bool
	started   bool
}

// NewReporter creates a new progress reporter.
func NewReporter(opts Options) *Reporter {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if opts.UpdateInterval == 0 {
		opts.UpdateInterval = 500 * time.Millisecond
	}
	if opts.Label == "" {
		opts.Label = "Processing media"
	}

	return &Reporter{
		opts:   opts,
		stopCh: make(chan struct{}),
	}
}

// Start begins outputting progress information.
func (r *Reporter) Start() {
	r.mu.Lock()
	r.started = true
	r.startTime = time.Now()
	r.mu.Unlock()

	fmt.Fprintf(r.opts.Output, "[offload] %s: %d items | Workers: %d\n",
		r.opts.Label, r.opts.TotalItems, r.opts.Workers)

	go r.updateLoop()
}

// Stop stops the progress reporter and prints the final status line.
func (r *Reporter) Stop() {
	r.mu.Lock()
	if r.stopped || !r.started {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.mu.Unlock()

	close(r.stopCh)
}

// ItemStarted marks an item as in progress.
func (r *Reporter) ItemStarted() {
	r.inProgress.Add(1)
}

// ItemCompleted records a successfully transferred item and its payload
// size.
func (r *Reporter) ItemCompleted(size int64) {
	r.bytes.Add(size)
	r.completed.Add(1)
	r.inProgress.Add(-1)
}

// ItemSkipped records an item that was already complete before the run.
func (r *Reporter) ItemSkipped() {
	r.skipped.Add(1)
}

// ItemFailed records an item that exhausted its retries. The identifier is
// kept for the final failure list.
func (r *Reporter) ItemFailed(id string) {
	r.failed.Add(1)
	r.inProgress.Add(-1)

	r.mu.Lock()
	r.failures = append(r.failures, id)
	r.mu.Unlock()
}

// Completed returns the number of successfully transferred items.
func (r *Reporter) Completed() int {
	return int(r.completed.Load())
}

// Skipped returns the number of items skipped as already complete.
func (r *Reporter) Skipped() int {
	return int(r.skipped.Load())
}

// Failed returns the number of items whose retries were exhausted.
func (r *Reporter) Failed() int {
	return int(r.failed.Load())
}

// Failures returns the failed identifiers in completion order.
func (r *Reporter) Failures() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.failures))
	copy(out, r.failures)
	return out
}

// updateLoop periodically updates the progress display.
func (r *Reporter) updateLoop() {
	ticker := time.NewTicker(r.opts.UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			r.printFinalStatus()
			return
		case <-ticker.C:
			r.printProgress()
		}
	}
}

// printProgress outputs the current progress.
func (r *Reporter) printProgress() {
	completed := r.completed.Load()
	skipped := r.skipped.Load()
	failed := r.failed.Load()
	inProgress := r.inProgress.Load()
	done := completed + skipped + failed

	var percent float64
	if r.opts.TotalItems > 0 {
		percent = float64(done) / float64(r.opts.TotalItems) * 100
	}

	fmt.Fprintf(r.opts.Output, "\r[offload] Progress: %.1f%% | %d/%d items | %s | %d in-progress | %d failed    ",
		percent,
		done,
		r.opts.TotalItems,
		formatBytes(r.bytes.Load()),
		inProgress,
		failed,
	)
}

// printFinalStatus outputs the final status.
func (r *Reporter) printFinalStatus() {
	r.mu.Lock()
	duration := time.Since(r.startTime)
	r.mu.Unlock()

	fmt.Fprintf(r.opts.Output, "\r[offload] Done: %d transferred | %d already archived | %d failed | %s in %s    \n",
		r.completed.Load(),
		r.skipped.Load(),
		r.failed.Load(),
		formatBytes(r.bytes.Load()),
		formatDuration(duration),
	)
}

// formatBytes formats bytes as a human-readable string.
func formatBytes(b int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
		TB = GB * 1024
	)

	switch {
	case b >= TB:
		return fmt.Sprintf("%.2f TB", float64(b)/float64(TB))
	case b >= GB:
		return fmt.Sprintf("%.2f GB", float64(b)/float64(GB))
	case b >= MB:
		return fmt.Sprintf("%.2f MB", float64(b)/float64(MB))
	case b >= KB:
		return fmt.Sprintf("%.2f KB", float64(b)/float64(KB))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// formatDuration formats a duration as a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh %dm %ds", h, m, s)
}

// FormatBytes is exported for use by other packages.
func FormatBytes(b int64) string {
	return formatBytes(b)
}
