package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gocloud.dev/blob"
)

// Bucket is a Sink backed by a gocloud blob bucket, so archived media can
// land in a plain directory (file://), S3, GCS, or anything else gocloud
// can address. Entry names map directly to object keys.
//
// Writes are serialized through a single mutex: the bucket drivers are
// individually safe, but the sink contract promises at most one in-flight
// write so behavior matches the zip container exactly.
type Bucket struct {
	bucket *blob.Bucket

	// localRoot is the directory backing a file:// bucket, when known.
	// Timestamp metadata can only be applied to local files; for remote
	// buckets it is silently skipped.
	localRoot string

	// Warn receives best-effort metadata failure notices. Defaults to
	// os.Stderr; set to io.Discard to silence.
	Warn io.Writer

	mu sync.Mutex
}

// NewBucket wraps bucket as a Sink. localRoot is the directory backing the
// bucket if it is filesystem-based, or empty for remote buckets.
func NewBucket(bucket *blob.Bucket, localRoot string) *Bucket {
	return &Bucket{bucket: bucket, localRoot: localRoot, Warn: os.Stderr}
}

// Write streams r into the bucket under name. For directory-backed buckets
// the file's access and modification times are set from modTime afterward;
// failure to do so is reported on Warn and does not fail the write.
func (b *Bucket) Write(ctx context.Context, name string, r io.Reader, modTime time.Time) (int64, error) {
	if err := checkEntryName(name); err != nil {
		return 0, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	w, err := b.bucket.NewWriter(ctx, name, nil)
	if err != nil {
		return 0, fmt.Errorf("archive: create writer for %s: %w", name, err)
	}
	n, err := io.Copy(w, r)
	if err != nil {
		w.Close()
		return n, fmt.Errorf("archive: write %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return n, fmt.Errorf("archive: commit %s: %w", name, err)
	}

	if b.localRoot != "" {
		path := filepath.Join(b.localRoot, filepath.FromSlash(name))
		if err := os.Chtimes(path, modTime, modTime); err != nil && b.Warn != nil {
			fmt.Fprintf(b.Warn, "[offload] adjust metadata for %s: %v\n", name, err)
		}
	}

	return n, nil
}

// Rewrite re-applies timestamps to already-committed entries. Only
// meaningful for directory-backed buckets; remote buckets have no
// client-settable modification time, so this is a no-op for them.
func (b *Bucket) Rewrite(ctx context.Context, created map[string]time.Time) error {
	if b.localRoot == "" {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for name, mod := range created {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(b.localRoot, filepath.FromSlash(name))
		if _, err := os.Stat(path); err != nil {
			continue // never archived, nothing to repair
		}
		if err := os.Chtimes(path, mod, mod); err != nil && b.Warn != nil {
			fmt.Fprintf(b.Warn, "[offload] adjust metadata for %s: %v\n", name, err)
		}
	}
	return nil
}

// Close closes the underlying bucket.
func (b *Bucket) Close() error {
	return b.bucket.Close()
}
