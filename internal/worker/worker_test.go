package worker

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeAction fails a fixed number of times before succeeding.
type fakeAction struct {
	id       string
	failures int
	calls    int
}

func (a *fakeAction) ID() string { return a.id }

func (a *fakeAction) Attempt(ctx context.Context) error {
	a.calls++
	if a.calls <= a.failures {
		return errors.New("transient failure")
	}
	return nil
}

func recordingSleep(slept *[]time.Duration) SleepFunc {
	return func(ctx context.Context, d time.Duration) error {
		*slept = append(*slept, d)
		return nil
	}
}

func TestProcessFirstTrySuccess(t *testing.T) {
	var slept []time.Duration
	r := &Runner{MaxAttempts: 3, Sleep: recordingSleep(&slept)}

	a := &fakeAction{id: "IMG_0001.JPG"}
	out := r.Process(context.Background(), a)

	if out.Failed() {
		t.Fatalf("expected success, got %v", out.Err)
	}
	if out.ID != "IMG_0001.JPG" {
		t.Errorf("outcome ID = %q", out.ID)
	}
	if a.calls != 1 {
		t.Errorf("expected 1 attempt, got %d", a.calls)
	}
	if len(slept) != 0 {
		t.Errorf("expected no backoff, slept %v", slept)
	}
}

func TestProcessRetriesWithBackoff(t *testing.T) {
	var slept []time.Duration
	r := &Runner{MaxAttempts: 3, Sleep: recordingSleep(&slept)}

	// Fails twice, succeeds on the third attempt.
	a := &fakeAction{id: "IMG_0003.JPG", failures: 2}
	out := r.Process(context.Background(), a)

	if out.Failed() {
		t.Fatalf("expected success after retries, got %v", out.Err)
	}
	if a.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", a.calls)
	}

	// Backoff is 2^attempt seconds: 2s after the first failure, 4s after
	// the second.
	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if len(slept) != len(want) {
		t.Fatalf("slept %v, want %v", slept, want)
	}
	for i := range want {
		if slept[i] != want[i] {
			t.Errorf("sleep %d = %v, want %v", i, slept[i], want[i])
		}
	}
}

func TestProcessExhaustsRetries(t *testing.T) {
	var slept []time.Duration
	r := &Runner{MaxAttempts: 3, Sleep: recordingSleep(&slept)}

	a := &fakeAction{id: "bad.jpg", failures: 99}
	out := r.Process(context.Background(), a)

	if !out.Failed() {
		t.Fatal("expected failure outcome")
	}
	if a.calls != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", a.calls)
	}
	// No sleep after the final attempt.
	if len(slept) != 2 {
		t.Errorf("expected 2 backoff sleeps, got %v", slept)
	}
}

func TestProcessLastErrorSurvives(t *testing.T) {
	r := &Runner{MaxAttempts: 2, Sleep: func(ctx context.Context, d time.Duration) error { return nil }}

	wantErr := errors.New("disk full")
	a := &errAction{id: "x.jpg", errs: []error{errors.New("first"), wantErr}}
	out := r.Process(context.Background(), a)

	if !errors.Is(out.Err, wantErr) {
		t.Errorf("expected terminal error %v, got %v", wantErr, out.Err)
	}
}

type errAction struct {
	id    string
	errs  []error
	calls int
}

func (a *errAction) ID() string { return a.id }

func (a *errAction) Attempt(ctx context.Context) error {
	err := a.errs[a.calls]
	a.calls++
	return err
}

func TestProcessCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	r := &Runner{MaxAttempts: 3, Sleep: func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}}

	a := &fakeAction{id: "x.jpg", failures: 99}
	out := r.Process(ctx, a)

	if !out.Failed() {
		t.Fatal("expected failure outcome")
	}
	// The item's own error is reported, and no further attempts are made.
	if a.calls != 1 {
		t.Errorf("expected 1 attempt before cancellation, got %d", a.calls)
	}
}
