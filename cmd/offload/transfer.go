package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/ligustah/offload/internal/transfer"
	"github.com/ligustah/offload/pkg/ledger"
)

func runTransfer(args []string) int {
	fs := flag.NewFlagSet("transfer", flag.ExitOnError)
	cf := registerCommonFlags(fs)
	force := fs.Bool("force", false, "Skip the confirmation prompt")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: offload transfer [options]

Download everything, then delete from the remote service. Only items recorded
in the ledger are deleted, so an item whose download failed stays remote and
is retried on the next run.

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
		fmt.Fprintln(os.Stderr, "Error: transfer removes items remotely after archiving; pass -force to confirm")
		return ExitInvalidArgs
	}

	ctx, cancel := signalContext()
	defer cancel()

	led, err := ledger.Open(cfg.Ledger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitGeneralError
	}
	defer led.Close()

	sink, err := openSink(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitArchiveError
	}
	defer sink.Close()

	engine := transfer.New(newLibrary(cfg), sink, led, engineOptions(cfg))
	dl, del, err := engine.Run(ctx, cfg.FailureLog)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, context.Canceled) {
			printSummary("Download", dl)
			printSummary("Delete", del)
			return ExitGeneralError
		}
		return ExitSourceError
	}

	printSummary("Download", dl)
	printSummary("Delete", del)
	if dl.Failed > 0 || del.Failed > 0 {
		fmt.Fprintln(os.Stderr, "[offload] Run again to retry failed items")
		return ExitPartialFailure
	}
	return ExitSuccess
}
