package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/ligustah/offload/internal/transfer"
)

func runDelete(args []string) int {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	cf := registerCommonFlags(fs)
	force := fs.Bool("force", false, "Skip the confirmation prompt")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: offload delete [options]

Remove every library item from the remote service. Deletion does not consult
the ledger: every listed item is attempted. Identifiers that could not be
deleted are written to the failure log, one per line.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	cfg, err := loadConfig(cf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fs.Usage()
		return ExitInvalidArgs
	}

	if !*force {
		fmt.Fprintln(os.Stderr, "Error: delete removes items remotely; pass -force to confirm")
		return ExitInvalidArgs
	}

	ctx, cancel := signalContext()
	defer cancel()

	engine := transfer.New(newLibrary(cfg), nil, nil, engineOptions(cfg))
	summary, err := engine.Delete(ctx, cfg.FailureLog)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, context.Canceled) {
			printSummary("Delete", summary)
			return ExitGeneralError
		}
		return ExitSourceError
	}

	printSummary("Delete", summary)
	if summary.Failed > 0 {
		fmt.Fprintf(os.Stderr, "[offload] Failed identifiers written to %s\n", cfg.FailureLog)
		return ExitPartialFailure
	}
	return ExitSuccess
}
