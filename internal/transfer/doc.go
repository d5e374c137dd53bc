// Package transfer orchestrates bulk runs against a remote media library.
//
// An Engine ties together a source.Library, an archive.Sink, and a ledger:
// Download archives everything not yet recorded, Delete removes items
// remotely, and Run chains the two, deleting only what was archived first.
//
// Work flows through fixed-size sequential batches (internal/batch), each
// item through bounded retry with exponential backoff (internal/worker), and
// outcomes into a progress reporter. A run only fails as a whole when the
// library cannot be listed; individual items fail quietly into the summary.
package transfer
