package archive

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
)

func TestBucketWrite(t *testing.T) {
	ctx := context.Background()
	bkt, err := blob.OpenBucket(ctx, "mem://")
	if err != nil {
		t.Fatalf("open bucket: %v", err)
	}

	sink := NewBucket(bkt, "")
	sink.Warn = io.Discard
	defer sink.Close()

	payload := []byte("mov bytes")
	n, err := sink.Write(ctx, "VID_0001.MOV", bytes.NewReader(payload), time.Now())
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != int64(len(payload)) {
		t.Errorf("Write returned %d, want %d", n, len(payload))
	}

	got, err := bkt.ReadAll(ctx, "VID_0001.MOV")
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("round-trip mismatch: %q", got)
	}
}

func TestBucketConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	bkt, err := blob.OpenBucket(ctx, "mem://")
	if err != nil {
		t.Fatalf("open bucket: %v", err)
	}

	sink := NewBucket(bkt, "")
	sink.Warn = io.Discard
	defer sink.Close()

	var wg sync.WaitGroup
	names := []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg", "e.jpg"}
	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			if _, err := sink.Write(ctx, name, bytes.NewReader([]byte(name)), time.Now()); err != nil {
				t.Errorf("Write %s: %v", name, err)
			}
		}(name)
	}
	wg.Wait()

	for _, name := range names {
		got, err := bkt.ReadAll(ctx, name)
		if err != nil {
			t.Fatalf("ReadAll %s: %v", name, err)
		}
		if string(got) != name {
			t.Errorf("%s: got %q", name, got)
		}
	}
}

func TestBucketDirectoryTimestamps(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	bkt, err := fileblob.OpenBucket(dir, nil)
	if err != nil {
		t.Fatalf("fileblob.OpenBucket: %v", err)
	}

	sink := NewBucket(bkt, dir)
	sink.Warn = io.Discard
	defer sink.Close()

	created := time.Date(2020, 8, 15, 6, 0, 0, 0, time.UTC)
	if _, err := sink.Write(ctx, "IMG_0001.JPG", bytes.NewReader([]byte("x")), created); err != nil {
		t.Fatalf("Write: %v", err)
	}

	fi, err := os.Stat(filepath.Join(dir, "IMG_0001.JPG"))
	if err != nil {
		t.Fatalf("stat archived file: %v", err)
	}
	if !fi.ModTime().Equal(created) {
		t.Errorf("mtime = %v, want %v", fi.ModTime(), created)
	}
}

func TestBucketRewrite(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	bkt, err := fileblob.OpenBucket(dir, nil)
	if err != nil {
		t.Fatalf("fileblob.OpenBucket: %v", err)
	}

	sink := NewBucket(bkt, dir)
	sink.Warn = io.Discard
	defer sink.Close()

	// Written with a wrong timestamp.
	if _, err := sink.Write(ctx, "IMG_0001.JPG", bytes.NewReader([]byte("x")), time.Now()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	created := time.Date(2016, 1, 2, 3, 4, 5, 0, time.UTC)
	err = sink.Rewrite(ctx, map[string]time.Time{
		"IMG_0001.JPG": created,
		"missing.jpg":  created, // never archived, must be skipped
	})
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}

	fi, err := os.Stat(filepath.Join(dir, "IMG_0001.JPG"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if !fi.ModTime().Equal(created) {
		t.Errorf("mtime = %v, want %v", fi.ModTime(), created)
	}
}

func TestValidateBucket(t *testing.T) {
	ctx := context.Background()
	bkt, err := blob.OpenBucket(ctx, "mem://")
	if err != nil {
		t.Fatalf("open bucket: %v", err)
	}
	defer bkt.Close()

	bkt.WriteAll(ctx, "a.jpg", []byte("data"), nil)
	bkt.WriteAll(ctx, "empty.jpg", nil, nil)

	result, err := ValidateBucket(ctx, bkt, []string{"a.jpg", "empty.jpg", "gone.jpg"})
	if err != nil {
		t.Fatalf("ValidateBucket: %v", err)
	}
	if result.Valid {
		t.Error("expected invalid result")
	}
	if result.Missing != 1 || result.Empty != 1 {
		t.Errorf("missing=%d empty=%d, want 1 and 1", result.Missing, result.Empty)
	}
}
