package main

import (
	"fmt"
	"os"
)

// Exit codes
const (
	ExitSuccess          = 0
	ExitGeneralError     = 1
	ExitInvalidArgs      = 2
	ExitSourceError      = 3
	ExitArchiveError     = 4
	ExitValidationFailed = 5
	ExitPartialFailure   = 6
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return ExitInvalidArgs
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "download":
		return runDownload(cmdArgs)
	case "delete":
		return runDelete(cmdArgs)
	case "transfer":
		return runTransfer(cmdArgs)
	case "validate":
		return runValidate(cmdArgs)
	case "repair":
		return runRepair(cmdArgs)
	case "help", "-h", "--help":
		printUsage()
		return ExitSuccess
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		return ExitInvalidArgs
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: offload <command> [options]

Commands:
  download  Archive every library item not yet recorded in the ledger
  delete    Remove every library item from the remote service
  transfer  Download everything, then delete what was archived
  validate  Verify every ledger entry exists in the archive
  repair    Re-apply creation timestamps to archived entries

Run 'offload <command> -h' for command-specific help.`)
}
