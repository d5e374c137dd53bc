package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/ligustah/offload/pkg/archive"
	"github.com/ligustah/offload/pkg/ledger"
)

// runValidate checks that every identifier in the ledger has a non-empty
// entry in the archive. Entry payloads are not downloaded.
func runValidate(args []string) int {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	cf := registerCommonFlags(fs)

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: offload validate [options]

Verify that every identifier recorded in the ledger exists in the archive
with a non-zero size. Checks metadata only.

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

	ids := led.IDs()
	sort.Strings(ids)

	var result *archive.ValidationResult
	if cfg.Archive.Zip != "" {
		z, err := archive.OpenZip(cfg.Archive.Zip)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitArchiveError
		}
		defer z.Close()
		result, err = archive.ValidateZip(z, ids)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitArchiveError
		}
	} else {
		bkt, err := openBlobBucket(ctx, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitArchiveError
		}
		defer bkt.Close()
		result, err = archive.ValidateBucket(ctx, bkt, ids)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitArchiveError
		}
	}

	fmt.Printf("Ledger: %s\n", cfg.Ledger)
	fmt.Printf("Entries checked: %d\n", result.Checked)

	if result.Valid {
		fmt.Println("Status: VALID")
		return ExitSuccess
	}

	fmt.Println("Status: INVALID")
	fmt.Printf("Missing entries: %d\n", result.Missing)
	fmt.Printf("Empty entries: %d\n", result.Empty)

	if len(result.Errors) > 0 {
		fmt.Println("\nErrors:")
		for _, e := range result.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}

	return ExitValidationFailed
}
