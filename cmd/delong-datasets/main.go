package main

import (
	"fmt"
	"os"

	// Register bucket drivers for export destinations.
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"
)

// Exit codes
const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitInvalidArgs  = 2
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
	case "export":
		return runExport(cmdArgs)
	case "fetch":
		return runFetch(cmdArgs)
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
	fmt.Fprintln(os.Stderr, `Usage: delong-datasets <command> [options]

Commands:
  download  Download and display a dataset (preview mode)
  export    Download a dataset and export it to CSV or JSON
  fetch     Download a URL to a local file with resume support

Run 'delong-datasets <command> -h' for command-specific help.`)
}
