// Package config defines configuration structures for the offload CLI.
//
// Configuration can be provided via:
//   - Command-line flags
//   - Environment variables (OFFLOAD_ prefix)
//   - YAML configuration file
//
// # Example
//
//	source:
//	  index_url: https://media.example.com/items.json
//	archive:
//	  zip: /backups/media.zip
//	ledger: downloaded_files.txt
//	failure_log: failed_deletions.log
//	batch_size: 100
//	workers: 10
//	retry:
//	  attempts: 3
//
// Batch size, worker count, and retry attempts are fixed for the duration
// of a run.
package config
