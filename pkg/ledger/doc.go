// Package ledger implements the durable completion log that makes transfer
// runs resumable.
//
// The ledger pairs an in-memory set with an append-only text file, one
// identifier per line. Every insertion is preceded by a synchronous, flushed
// append, so a crash can lose at most work that was never marked complete,
// never the other way around. Items absent from the ledger are simply
// retried on the next run.
//
// # Usage
//
//	led, err := ledger.Open("downloaded_files.txt")
//	if led.Contains(item.Filename) {
//	    // already archived, skip
//	}
//	// ... after the artifact is durably written:
//	err = led.Record(item.Filename)
//
// Identifiers are item filenames. If the remote library produces duplicate
// filenames for distinct items, the second item is skipped as already done;
// the ledger has no way to tell them apart.
package ledger
