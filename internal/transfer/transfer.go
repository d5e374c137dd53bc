package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ligustah/offload/internal/batch"
	"github.com/ligustah/offload/internal/progress"
	"github.com/ligustah/offload/internal/source"
	"github.com/ligustah/offload/internal/worker"
	"github.com/ligustah/offload/pkg/archive"
	"github.com/ligustah/offload/pkg/ledger"
)

// ErrCannotRepair is returned by RepairMetadata when the archive sink has no
// way to adjust metadata on committed entries.
var ErrCannotRepair = errors.New("transfer: archive does not support metadata repair")

// Options configures an Engine. Zero values fall back to the defaults the
// CLI ships with.
type Options struct {
	// BatchSize is the number of items per batch. Default: 100.
	BatchSize int

	// Workers is the maximum number of items in flight at once. Default: 10.
	Workers int

	// MaxAttempts is the total number of tries per item. Default: 3.
	MaxAttempts int

	// Progress enables the live progress display.
	Progress bool

	// Output receives progress and warning output. Default: os.Stderr.
	Output io.Writer

	// Sleep overrides the retry backoff wait. Nil means real timers.
	Sleep worker.SleepFunc
}

// Summary is the aggregate result of one run phase. Failures holds the
// identifiers of items whose retries were exhausted, in completion order.
type Summary struct {
	Total       int
	AlreadyDone int
	Completed   int
	Failed      int
	Failures    []string
}

// Engine orchestrates bulk runs against one library, sink, and ledger. Per-item
// failures are retried, then recorded; they never abort a run. Only listing
// failures propagate as errors.
type Engine struct {
	lib    source.Library
	sink   archive.Sink
	led    *ledger.Ledger
	opts   Options
	runner *worker.Runner
}

// New creates an Engine. The ledger may be nil only if Download is never
// called.
func New(lib source.Library, sink archive.Sink, led *ledger.Ledger, opts Options) *Engine {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.Workers <= 0 {
		opts.Workers = 10
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.Output == nil {
		opts.Output = os.Stderr
	}

	return &Engine{
		lib:  lib,
		sink: sink,
		led:  led,
		opts: opts,
		runner: &worker.Runner{
			MaxAttempts: opts.MaxAttempts,
			Sleep:       opts.Sleep,
		},
	}
}

// Download archives every listed item that is not already recorded in the
// ledger. Items are processed in fixed batches with a bounded worker pool;
// each item is downloaded, written to the sink, and only then recorded.
//
// When a previous run left entries behind, their timestamp metadata is
// repaired first. Repair is best-effort: a failure is reported on Output and
// the download proceeds.
func (e *Engine) Download(ctx context.Context) (Summary, error) {
	items, err := e.lib.List(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("transfer: list library: %w", err)
	}

	if e.led.Len() > 0 {
		if err := e.repair(ctx, items); err != nil && !errors.Is(err, ErrCannotRepair) {
			fmt.Fprintf(e.opts.Output, "[offload] metadata repair: %v\n", err)
		}
	}

	already := 0
	for _, item := range items {
		if e.led.Contains(item.Filename) {
			already++
		}
	}
	fmt.Fprintf(e.opts.Output, "[offload] Library: %d items | %d already archived | %d to download\n",
		len(items), already, len(items)-already)

	reporter := e.newReporter(len(items), "Downloading media")
	if e.opts.Progress {
		reporter.Start()
	}

	runErr := batch.Run(ctx, items, e.opts.BatchSize, e.opts.Workers, func(ctx context.Context, item source.Item) {
		if e.led.Contains(item.Filename) {
			reporter.ItemSkipped()
			return
		}

		reporter.ItemStarted()
		action := &downloadAction{lib: e.lib, sink: e.sink, led: e.led, item: item}
		if out := e.runner.Process(ctx, action); out.Failed() {
			reporter.ItemFailed(out.ID)
		} else {
			reporter.ItemCompleted(action.bytes)
		}
	})

	reporter.Stop()
	return summarize(len(items), reporter), runErr
}

// Delete removes every listed item from the remote service. Deletion has no
// completion ledger: every item is attempted on every run.
//
// The failure log at failureLog is rewritten at the end of the run with one
// identifier per line; it is truncated to empty when everything succeeded.
// An empty failureLog path disables the log.
func (e *Engine) Delete(ctx context.Context, failureLog string) (Summary, error) {
	items, err := e.lib.List(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("transfer: list library: %w", err)
	}
	return e.deleteItems(ctx, items, failureLog)
}

// Run downloads everything, then deletes. Only items recorded in the ledger
// are deleted, so an item whose download failed is never destroyed.
func (e *Engine) Run(ctx context.Context, failureLog string) (Summary, Summary, error) {
	dl, err := e.Download(ctx)
	if err != nil {
		return dl, Summary{}, err
	}

	items, err := e.lib.List(ctx)
	if err != nil {
		return dl, Summary{}, fmt.Errorf("transfer: list library: %w", err)
	}

	archived := items[:0:0]
	for _, item := range items {
		if e.led.Contains(item.Filename) {
			archived = append(archived, item)
		}
	}

	del, err := e.deleteItems(ctx, archived, failureLog)
	return dl, del, err
}

// RepairMetadata re-applies creation timestamps to every archived entry that
// is both in the ledger and still listed by the library. It returns the
// number of entries repaired.
func (e *Engine) RepairMetadata(ctx context.Context) (int, error) {
	items, err := e.lib.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("transfer: list library: %w", err)
	}

	created := e.archivedTimes(items)
	if len(created) == 0 {
		return 0, nil
	}

	rw, ok := e.sink.(archive.Rewriter)
	if !ok {
		return 0, ErrCannotRepair
	}
	if err := rw.Rewrite(ctx, created); err != nil {
		return 0, err
	}
	return len(created), nil
}

func (e *Engine) repair(ctx context.Context, items []source.Item) error {
	created := e.archivedTimes(items)
	if len(created) == 0 {
		return nil
	}
	rw, ok := e.sink.(archive.Rewriter)
	if !ok {
		return ErrCannotRepair
	}
	return rw.Rewrite(ctx, created)
}

// archivedTimes maps each ledger-recorded item to its creation time. Items no
// longer listed by the library are left alone: there is nothing authoritative
// to restore from.
func (e *Engine) archivedTimes(items []source.Item) map[string]time.Time {
	created := make(map[string]time.Time)
	for _, item := range items {
		if e.led.Contains(item.Filename) {
			created[item.Filename] = item.Created
		}
	}
	return created
}

func (e *Engine) deleteItems(ctx context.Context, items []source.Item, failureLog string) (Summary, error) {
	reporter := e.newReporter(len(items), "Deleting media")
	if e.opts.Progress {
		reporter.Start()
	}

	runErr := batch.Run(ctx, items, e.opts.BatchSize, e.opts.Workers, func(ctx context.Context, item source.Item) {
		reporter.ItemStarted()
		action := &deleteAction{lib: e.lib, item: item}
		if out := e.runner.Process(ctx, action); out.Failed() {
			reporter.ItemFailed(out.ID)
		} else {
			reporter.ItemCompleted(0)
		}
	})

	reporter.Stop()

	if failureLog != "" {
		if err := writeFailureLog(failureLog, reporter.Failures()); err != nil {
			fmt.Fprintf(e.opts.Output, "[offload] write failure log: %v\n", err)
		}
	}

	return summarize(len(items), reporter), runErr
}

func (e *Engine) newReporter(total int, label string) *progress.Reporter {
	return progress.NewReporter(progress.Options{
		TotalItems: total,
		Workers:    e.opts.Workers,
		Label:      label,
		Output:     e.opts.Output,
	})
}

// writeFailureLog overwrites path with one identifier per line. The log is
// always rewritten, so a clean run truncates the leftovers of an earlier one.
func writeFailureLog(path string, failures []string) error {
	var body string
	if len(failures) > 0 {
		body = strings.Join(failures, "\n") + "\n"
	}
	return os.WriteFile(path, []byte(body), 0644)
}

func summarize(total int, reporter *progress.Reporter) Summary {
	return Summary{
		Total:       total,
		AlreadyDone: reporter.Skipped(),
		Completed:   reporter.Completed(),
		Failed:      reporter.Failed(),
		Failures:    reporter.Failures(),
	}
}

// downloadAction archives one item. A try is only successful once the payload
// is durably in the sink and the ledger append has synced; any step failing
// makes the whole try retryable.
type downloadAction struct {
	lib  source.Library
	sink archive.Sink
	led  *ledger.Ledger
	item source.Item

	bytes int64
}

func (a *downloadAction) ID() string {
	return a.item.Filename
}

func (a *downloadAction) Attempt(ctx context.Context) error {
	rc, err := a.lib.Download(ctx, a.item)
	if err != nil {
		return err
	}
	defer rc.Close()

	n, err := a.sink.Write(ctx, a.item.Filename, rc, a.item.Created)
	if err != nil {
		return err
	}
	a.bytes = n

	return a.led.Record(a.item.Filename)
}

// deleteAction removes one item from the remote service.
type deleteAction struct {
	lib  source.Library
	item source.Item
}

func (a *deleteAction) ID() string {
	return a.item.Filename
}

func (a *deleteAction) Attempt(ctx context.Context) error {
	return a.lib.Delete(ctx, a.item)
}
