package ledger

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Ledger is a durable, append-only record of item identifiers that have been
// fully archived. It backs resume: identifiers recorded in a previous run are
// skipped without contacting the remote service.
//
// The on-disk format is plain UTF-8 text, one identifier per line, with no
// header or trailing metadata. Lines are only ever appended; the file is
// never rewritten. Re-running against a library with a different total item
// count is always safe because the ledger is a pure allow-list, never an
// exhaustive manifest.
type Ledger struct {
	path string

	mu   sync.Mutex
	f    *os.File
	done map[string]struct{}
}

// Open loads the ledger at path and opens it for appending.
//
// A missing or unreadable file is treated as an empty ledger (first-run
// semantics), never as an error. Opening the file for appending can still
// fail (permissions, disk full) and that is fatal: without a writable log
// nothing can be safely marked complete.
func Open(path string) (*Ledger, error) {
	done := make(map[string]struct{})

	if data, err := os.ReadFile(path); err == nil {
		scanner := bufio.NewScanner(strings.NewReader(string(data)))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" {
				done[line] = struct{}{}
			}
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("ledger: open %s: %w", path, err)
	}

	return &Ledger{path: path, f: f, done: done}, nil
}

// Contains reports whether id has already been recorded.
func (l *Ledger) Contains(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.done[id]
	return ok
}

// Record appends id to the durable log and adds it to the in-memory set.
// The append is flushed to stable storage before the insertion becomes
// visible, so the set and the log cannot diverge. Safe for concurrent use.
//
// Callers must only record an identifier after its artifact has been
// durably written; recording first would mark lost work as done.
func (l *Ledger) Record(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.done[id]; ok {
		return nil
	}

	if _, err := fmt.Fprintf(l.f, "%s\n", id); err != nil {
		return fmt.Errorf("ledger: append %s: %w", id, err)
	}
	if err := l.f.Sync(); err != nil {
		return fmt.Errorf("ledger: sync: %w", err)
	}

	l.done[id] = struct{}{}
	return nil
}

// Len returns the number of recorded identifiers.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.done)
}

// IDs returns a snapshot of all recorded identifiers, in no particular order.
func (l *Ledger) IDs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := make([]string, 0, len(l.done))
	for id := range l.done {
		ids = append(ids, id)
	}
	return ids
}

// Path returns the location of the backing log file.
func (l *Ledger) Path() string {
	return l.path
}

// Close closes the backing log file. Record must not be called after Close.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}
