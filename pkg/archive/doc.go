// Package archive provides the shared output container that downloaded
// media is written into.
//
// Two implementations of [Sink] exist:
//
//   - [Zip]: a single compressed container on the local filesystem. Every
//     write rebuilds the archive to a temporary path and atomically renames
//     it into place, so concurrent workers can never corrupt the central
//     directory and a crash never leaves a torn file. Entry modification
//     times carry the media's original creation timestamps.
//
//   - [Bucket]: any gocloud.dev/blob bucket: a plain directory via
//     file://, or S3/GCS for off-box archives. For directory-backed buckets
//     the file mtimes are set from the media timestamps.
//
// Both serialize writes through a single mutex; at most one writer touches
// the container at a time.
//
// # Maintenance
//
// [Zip.Rewrite] repairs timestamps on entries committed by earlier runs:
// entries are extracted to a scratch area, re-stamped, and a fresh container
// is rebuilt and swapped in atomically. [ValidateZip] and [ValidateBucket]
// verify that every identifier recorded as complete actually has a
// non-empty entry.
//
// Entry names are item identifiers (filenames). Duplicate names are
// last-write-wins; the archive cannot distinguish two distinct items that
// share a filename.
package archive
