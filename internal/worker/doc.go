// Package worker retries single-item operations with exponential backoff.
//
// Download and delete are two implementations of the same [Action]
// interface; [Runner.Process] holds the retry loop exactly once for both.
// Every result, success or exhausted retries, comes back as an [Outcome],
// never as a raised error, so a failing item cannot take its batch down.
package worker
