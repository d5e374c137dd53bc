// Package batch schedules work over a large item list in fixed-size batches
// with bounded concurrency.
//
// Batches are hard synchronization points: batch N+1 never starts before
// every item in batch N has produced a result. Concurrency exists only
// within a batch, capped by the worker count. The scheduler knows nothing
// about retries; how hard to try is the worker's concern, how many at once
// is this package's.
package batch
