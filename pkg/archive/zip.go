package archive

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrBadEntryName is returned for entry names that would escape the
// container when extracted (absolute paths or parent references).
var ErrBadEntryName = errors.New("archive: invalid entry name")

// Zip is a Sink backed by a single zip container on the local filesystem.
//
// The container is never held open across writes. Each write rebuilds the
// archive to a temporary path (raw-copying existing entries, so nothing is
// recompressed) and atomically renames it over the original. A crash at any
// point leaves either the old container or the new one, never a torn file.
type Zip struct {
	path string
	mu   sync.Mutex
}

// OpenZip returns a Zip sink writing to path. The container itself is
// created lazily on first write; a missing file is not an error.
func OpenZip(path string) (*Zip, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("archive: create parent dir: %w", err)
		}
	}
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		return nil, fmt.Errorf("archive: %s is a directory", path)
	}
	return &Zip{path: path}, nil
}

// Path returns the container's location.
func (z *Zip) Path() string {
	return z.path
}

// Write adds an entry under name, replacing any existing entry with the same
// name. The entry's Modified header is set from modTime.
func (z *Zip) Write(ctx context.Context, name string, r io.Reader, modTime time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := checkEntryName(name); err != nil {
		return 0, err
	}

	// The payload must be fully in hand before touching the container, so a
	// slow or failing download never holds the archive lock.
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("archive: read payload for %s: %w", name, err)
	}

	z.mu.Lock()
	defer z.mu.Unlock()

	err = z.rebuildLocked(func(zw *zip.Writer, existing *zip.Reader) error {
		if existing != nil {
			for _, f := range existing.File {
				if f.Name == name {
					continue // replaced below
				}
				if err := zw.Copy(f); err != nil {
					return fmt.Errorf("copy entry %s: %w", f.Name, err)
				}
			}
		}
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: modTime,
		})
		if err != nil {
			return fmt.Errorf("create entry %s: %w", name, err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("write entry %s: %w", name, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}

// Close is a no-op; the container is not held open between writes.
func (z *Zip) Close() error {
	return nil
}

// Entry describes one entry in the container.
type Entry struct {
	Name     string
	Size     int64
	Modified time.Time
}

// Entries lists the container's contents. A missing container is an empty
// archive, not an error.
func (z *Zip) Entries() ([]Entry, error) {
	z.mu.Lock()
	defer z.mu.Unlock()

	zr, err := zip.OpenReader(z.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("archive: open %s: %w", z.path, err)
	}
	defer zr.Close()

	entries := make([]Entry, 0, len(zr.File))
	for _, f := range zr.File {
		entries = append(entries, Entry{
			Name:     f.Name,
			Size:     int64(f.UncompressedSize64),
			Modified: f.Modified,
		})
	}
	return entries, nil
}

// ReadEntry returns the payload bytes of the named entry.
func (z *Zip) ReadEntry(name string) ([]byte, error) {
	z.mu.Lock()
	defer z.mu.Unlock()

	zr, err := zip.OpenReader(z.path)
	if err != nil {
		return nil, fmt.Errorf("archive: open %s: %w", z.path, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("archive: open entry %s: %w", name, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("archive: entry %s not found", name)
}

// Rewrite repairs timestamp metadata on already-committed entries: every
// entry is extracted to a scratch directory, its times are re-applied from
// created, and a fresh container is rebuilt and atomically swapped in. A
// crash mid-rebuild leaves the original container intact.
//
// Entries without a created timestamp keep their current Modified header.
// A missing container means there is nothing to repair.
func (z *Zip) Rewrite(ctx context.Context, created map[string]time.Time) error {
	z.mu.Lock()
	defer z.mu.Unlock()

	zr, err := zip.OpenReader(z.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("archive: open %s: %w", z.path, err)
	}

	scratch := filepath.Join(os.TempDir(), "offload-rewrite-"+uuid.NewString())
	if err := os.MkdirAll(scratch, 0700); err != nil {
		zr.Close()
		return fmt.Errorf("archive: create scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	var files []scratchFile

	for i, f := range zr.File {
		if err := ctx.Err(); err != nil {
			zr.Close()
			return err
		}
		if err := checkEntryName(f.Name); err != nil {
			zr.Close()
			return err
		}

		mod := f.Modified
		if t, ok := created[f.Name]; ok {
			mod = t
		}

		// Entry names can repeat across nested paths; index keeps scratch
		// files unique without caring.
		dst := filepath.Join(scratch, fmt.Sprintf("%06d", i))
		if err := extractEntry(f, dst, mod); err != nil {
			zr.Close()
			return fmt.Errorf("archive: extract %s: %w", f.Name, err)
		}
		files = append(files, scratchFile{name: f.Name, path: dst, mod: mod})
	}
	zr.Close()

	return z.rebuildFromFilesLocked(files)
}

// scratchFile is one entry extracted to the scratch area during Rewrite.
type scratchFile struct {
	name string
	path string
	mod  time.Time
}

// rebuildFromFilesLocked writes a fresh container from extracted scratch
// files and swaps it in. Must be called with z.mu held.
func (z *Zip) rebuildFromFilesLocked(files []scratchFile) error {
	tmp := z.path + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("archive: create temp container: %w", err)
	}

	zw := zip.NewWriter(out)
	for _, f := range files {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.name,
			Method:   zip.Deflate,
			Modified: f.mod,
		})
		if err != nil {
			out.Close()
			os.Remove(tmp)
			return fmt.Errorf("archive: create entry %s: %w", f.name, err)
		}
		src, err := os.Open(f.path)
		if err != nil {
			out.Close()
			os.Remove(tmp)
			return fmt.Errorf("archive: reopen scratch %s: %w", f.name, err)
		}
		_, err = io.Copy(w, src)
		src.Close()
		if err != nil {
			out.Close()
			os.Remove(tmp)
			return fmt.Errorf("archive: write entry %s: %w", f.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("archive: finalize container: %w", err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("archive: sync container: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("archive: close container: %w", err)
	}

	// The swap is the commit point.
	if err := os.Rename(tmp, z.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("archive: replace container: %w", err)
	}
	return nil
}

// rebuildLocked rewrites the container through build, writing to a temporary
// path and renaming over the original only on success. Must be called with
// z.mu held.
func (z *Zip) rebuildLocked(build func(zw *zip.Writer, existing *zip.Reader) error) error {
	var existing *zip.Reader
	zr, err := zip.OpenReader(z.path)
	if err == nil {
		defer zr.Close()
		existing = &zr.Reader
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("archive: open %s: %w", z.path, err)
	}

	tmp := z.path + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("archive: create temp container: %w", err)
	}

	zw := zip.NewWriter(out)
	if err := build(zw, existing); err != nil {
		zw.Close()
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("archive: %w", err)
	}
	if err := zw.Close(); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("archive: finalize container: %w", err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("archive: sync container: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("archive: close container: %w", err)
	}

	if err := os.Rename(tmp, z.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("archive: replace container: %w", err)
	}
	return nil
}

func extractEntry(f *zip.File, dst string, mod time.Time) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	// Timestamp repair on the scratch copy is best-effort; the rebuilt
	// header carries the authoritative time.
	os.Chtimes(dst, mod, mod)
	return nil
}

func checkEntryName(name string) error {
	if name == "" || filepath.IsAbs(name) || strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q", ErrBadEntryName, name)
	}
	return nil
}
