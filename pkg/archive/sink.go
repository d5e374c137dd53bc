package archive

import (
	"context"
	"io"
	"time"
)

// Sink is a shared output destination for downloaded media. Implementations
// must serialize writes internally: any number of workers may call Write
// concurrently, but at most one write touches the underlying container at a
// time.
//
// Entry names are item identifiers. Writing an existing name replaces the
// previous entry (last write wins).
type Sink interface {
	// Write stores the contents of r under name and returns the number of
	// payload bytes written. modTime is the item's creation timestamp;
	// applying it is best-effort and never fails the write.
	Write(ctx context.Context, name string, r io.Reader, modTime time.Time) (int64, error)

	// Close releases any resources held by the sink.
	Close() error
}

// Rewriter is implemented by sinks that can repair timestamp metadata on
// already-committed entries. created maps entry names to their correct
// modification times.
type Rewriter interface {
	Rewrite(ctx context.Context, created map[string]time.Time) error
}
