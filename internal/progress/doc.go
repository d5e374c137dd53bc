// Package progress provides progress reporting for transfer runs.
//
// The reporter observes one outcome per item (completed, skipped, or
// failed) from any number of workers, renders aggregate progress on a
// timer, and keeps the ordered list of failed identifiers for the final
// report.
//
// # Output Format
//
//	[offload] Downloading media: 250 items | Workers: 10
//	[offload] Progress: 42.0% | 105/250 items | 1.31 GB | 10 in-progress | 2 failed
//	[offload] Done: 230 transferred | 18 already archived | 2 failed | 2.87 GB in 4m 12s
package progress
