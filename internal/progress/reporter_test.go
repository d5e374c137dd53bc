package progress

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{0, "0 B"},
		{100, "100 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{1024 * 1024, "1.00 MB"},
		{256 * 1024 * 1024, "256.00 MB"},
		{1024 * 1024 * 1024, "1.00 GB"},
		{1024 * 1024 * 1024 * 1024, "1.00 TB"},
	}

	for _, tt := range tests {
		result := FormatBytes(tt.input)
		if result != tt.expected {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestReporterItemTracking(t *testing.T) {
	reporter := NewReporter(Options{
		TotalItems:     4,
		Workers:        2,
		UpdateInterval: 100 * time.Millisecond,
	})

	reporter.ItemStarted()
	if reporter.inProgress.Load() != 1 {
		t.Errorf("expected 1 in-progress, got %d", reporter.inProgress.Load())
	}

	reporter.ItemCompleted(256)
	if reporter.inProgress.Load() != 0 {
		t.Errorf("expected 0 in-progress after complete, got %d", reporter.inProgress.Load())
	}
	if reporter.Completed() != 1 {
		t.Errorf("expected 1 completed, got %d", reporter.Completed())
	}
	if reporter.bytes.Load() != 256 {
		t.Errorf("expected 256 bytes, got %d", reporter.bytes.Load())
	}

	reporter.ItemSkipped()
	if reporter.Skipped() != 1 {
		t.Errorf("expected 1 skipped, got %d", reporter.Skipped())
	}

	reporter.ItemStarted()
	reporter.ItemFailed("IMG_0042.JPG")
	if reporter.inProgress.Load() != 0 {
		t.Errorf("expected 0 in-progress after fail, got %d", reporter.inProgress.Load())
	}
	if reporter.Failed() != 1 {
		t.Errorf("expected 1 failed, got %d", reporter.Failed())
	}
}

func TestReporterFailureList(t *testing.T) {
	reporter := NewReporter(Options{TotalItems: 3})

	reporter.ItemStarted()
	reporter.ItemFailed("b.jpg")
	reporter.ItemStarted()
	reporter.ItemFailed("a.jpg")

	failures := reporter.Failures()
	if len(failures) != 2 {
		t.Fatalf("expected 2 failures, got %d", len(failures))
	}
	// Completion order, not lexical order.
	if failures[0] != "b.jpg" || failures[1] != "a.jpg" {
		t.Errorf("unexpected failure order: %v", failures)
	}

	// The returned slice is a copy.
	failures[0] = "mutated"
	if reporter.Failures()[0] != "b.jpg" {
		t.Error("Failures must return a copy")
	}
}

func TestReporterConcurrentOutcomes(t *testing.T) {
	reporter := NewReporter(Options{TotalItems: 100})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reporter.ItemStarted()
			if i%10 == 0 {
				reporter.ItemFailed("failed.jpg")
			} else {
				reporter.ItemCompleted(10)
			}
		}(i)
	}
	wg.Wait()

	if reporter.Completed() != 90 {
		t.Errorf("expected 90 completed, got %d", reporter.Completed())
	}
	if reporter.Failed() != 10 {
		t.Errorf("expected 10 failed, got %d", reporter.Failed())
	}
	if len(reporter.Failures()) != 10 {
		t.Errorf("expected 10 failure entries, got %d", len(reporter.Failures()))
	}
}

func TestReporterStartStop(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewReporter(Options{
		TotalItems:     4,
		Workers:        2,
		Label:          "Downloading media",
		Output:         &buf,
		UpdateInterval: 10 * time.Millisecond,
	})

	reporter.Start()

	reporter.ItemStarted()
	reporter.ItemCompleted(1024)
	reporter.ItemStarted()
	reporter.ItemCompleted(1024)

	time.Sleep(50 * time.Millisecond)
	reporter.Stop()
	time.Sleep(20 * time.Millisecond) // let the final line flush

	out := buf.String()
	if !strings.Contains(out, "Downloading media: 4 items") {
		t.Errorf("missing header in output: %q", out)
	}
	if !strings.Contains(out, "2 transferred") {
		t.Errorf("missing final status in output: %q", out)
	}
}

func TestReporterStopIdempotent(t *testing.T) {
	reporter := NewReporter(Options{TotalItems: 1, Output: &bytes.Buffer{}})
	reporter.Start()
	reporter.Stop()
	reporter.Stop() // must not panic
}
