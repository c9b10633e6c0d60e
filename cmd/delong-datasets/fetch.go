package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/AvinasiLabs/delong-datasets/internal/config"
	"github.com/AvinasiLabs/delong-datasets/internal/downloader"
	dshttp "github.com/AvinasiLabs/delong-datasets/internal/http"
	"github.com/AvinasiLabs/delong-datasets/internal/progress"
)

func runFetch(args []string) int {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)

	force := fs.Bool("force", false, "Discard any existing partial download")
	showProgress := fs.Bool("progress", false, "Show download progress")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: delong-datasets fetch <url> <dest> [options]

Download a URL to a local file. An interrupted download leaves a
<dest>.part file and resumes from it on the next run when the server
supports byte ranges.

Options:`)
		fs.PrintDefaults()
	}

	if len(args) < 2 || args[0] == "" || args[1] == "" {
		fmt.Fprintln(os.Stderr, "Error: url and dest are required")
		fs.Usage()
		return ExitInvalidArgs
	}
	url, dest := args[0], args[1]
	if err := fs.Parse(args[2:]); err != nil {
		return ExitInvalidArgs
	}

	ctx, cancel := signalContext()
	defer cancel()

	cfg := config.Default()
	if err := cfg.LoadFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitGeneralError
	}

	opts := downloader.Options{
		Force: *force,
		HTTPOptions: dshttp.Options{
			Timeout:         cfg.Timeout,
			RetryAttempts:   cfg.Retry.Attempts,
			RetryBackoff:    cfg.Retry.Backoff,
			RetryMaxBackoff: cfg.Retry.MaxBackoff,
		},
	}

	if *showProgress {
		reporter := progress.NewReporter(progress.Options{SourceURL: url})
		reporter.Start()
		defer reporter.Stop()
		opts.Progress = reporter
	}

	if err := downloader.Download(ctx, url, dest, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitGeneralError
	}

	fmt.Fprintf(os.Stderr, "[delong] Downloaded %s\n", dest)
	return ExitSuccess
}
