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

func runDownload(args []string) int {
	fs := flag.NewFlagSet("download", flag.ExitOnError)
	cf := registerCommonFlags(fs)

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: offload download [options]

Archive every library item into the configured destination. Items already
recorded in the ledger are skipped, so an interrupted run can simply be
started again. Failed items are reported and retried on the next run.

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
	summary, err := engine.Download(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, context.Canceled) {
			printSummary("Download", summary)
			return ExitGeneralError
		}
		return ExitSourceError
	}

	printSummary("Download", summary)
	if summary.Failed > 0 {
		fmt.Fprintln(os.Stderr, "[offload] Run again to retry failed items")
		return ExitPartialFailure
	}
	return ExitSuccess
}
