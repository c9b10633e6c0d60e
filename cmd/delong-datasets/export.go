package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/AvinasiLabs/delong-datasets/internal/config"
	"github.com/AvinasiLabs/delong-datasets/internal/export"
	"github.com/AvinasiLabs/delong-datasets/pkg/dataset"
)

func runExport(args []string) int {
	fs := flag.NewFlagSet("export", flag.ExitOnError)

	token := fs.String("token", "", "JWT bearer token (required)")
	format := fs.String("format", "", "Export format: csv or json (required)")
	output := fs.String("output", "", "Output file path or bucket URL (required)")
	columns := fs.String("columns", "", "Comma-separated list of columns to export")
	limit := fs.Int("limit", 0, "Maximum number of rows to export")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: delong-datasets export <dataset_id> [options]

Download a dataset and export it to a file. The export row ceiling
(DS_MAX_LOCAL_EXPORT_ROWS) is enforced before anything is written.

Options:`)
		fs.PrintDefaults()
	}

	datasetID, rest, ok := splitDatasetID(args, fs)
	if !ok {
		return ExitInvalidArgs
	}
	if err := fs.Parse(rest); err != nil {
		return ExitInvalidArgs
	}
	if *token == "" || *format == "" || *output == "" {
		fmt.Fprintln(os.Stderr, "Error: -token, -format, and -output are required")
		fs.Usage()
		return ExitInvalidArgs
	}

	fmtParsed, err := export.ParseFormat(*format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fs.Usage()
		return ExitInvalidArgs
	}

	ctx, cancel := signalContext()
	defer cancel()

	cfg := config.Default()
	if err := cfg.LoadFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitGeneralError
	}

	client, err := dataset.NewClient(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitGeneralError
	}

	table, err := client.Fetch(ctx, datasetID, *token, dataset.FetchOptions{
		Columns: splitColumns(*columns),
		Limit:   *limit,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitGeneralError
	}

	err = export.Export(ctx, table, export.Options{
		Format:  fmtParsed,
		Output:  *output,
		MaxRows: cfg.MaxLocalExportRows,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitGeneralError
	}

	fmt.Printf("Exported %d rows to %s\n", table.NumRows(), *output)
	return ExitSuccess
}
