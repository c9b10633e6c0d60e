package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/AvinasiLabs/delong-datasets/internal/config"
	"github.com/AvinasiLabs/delong-datasets/pkg/dataset"
)

func runDownload(args []string) int {
	fs := flag.NewFlagSet("download", flag.ExitOnError)

	token := fs.String("token", "", "JWT bearer token (required)")
	stream := fs.Bool("stream", false, "Enable streaming mode (lazy loading)")
	columns := fs.String("columns", "", "Comma-separated list of columns to fetch, e.g. 'patient_id,diagnosis'")
	limit := fs.Int("limit", 0, "Maximum number of rows to fetch")
	offset := fs.Int("offset", 0, "Starting row offset")
	preview := fs.Int("preview", 5, "Number of rows to preview")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: delong-datasets download <dataset_id> [options]

Download a dataset and print a preview. The backend decides whether to
return real or sample data based on the attestation cipher.

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
	if *token == "" {
		fmt.Fprintln(os.Stderr, "Error: -token is required")
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

	opts := dataset.FetchOptions{
		Columns: splitColumns(*columns),
		Limit:   *limit,
		Offset:  *offset,
	}

	if *stream {
		return streamPreview(ctx, client, datasetID, *token, opts, *preview)
	}

	table, err := client.Fetch(ctx, datasetID, *token, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitGeneralError
	}

	fmt.Printf("Dataset loaded: %d rows, %d columns (%s)\n",
		table.NumRows(), len(table.ColumnNames()), table.DataType())
	fmt.Printf("Columns: %s\n", strings.Join(table.ColumnNames(), ", "))

	n := *preview
	if n > table.NumRows() {
		n = table.NumRows()
	}
	fmt.Printf("\nPreview (first %d rows):\n", n)
	for i, row := range table.Rows()[:n] {
		fmt.Printf("Row %d: %s\n", i, formatRow(row, table.ColumnNames()))
	}
	return ExitSuccess
}

func streamPreview(ctx context.Context, client *dataset.Client, datasetID, token string, opts dataset.FetchOptions, preview int) int {
	fmt.Println("Streaming dataset (preview mode)")

	it := client.Stream(datasetID, token, opts)
	for i := 0; i < preview && it.Next(ctx); i++ {
		fmt.Printf("Row %d: %s\n", i, formatRow(it.Row(), it.Columns()))
	}
	if err := it.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitGeneralError
	}
	return ExitSuccess
}

// splitDatasetID extracts the leading positional dataset id from args.
func splitDatasetID(args []string, fs *flag.FlagSet) (string, []string, bool) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		fmt.Fprintln(os.Stderr, "Error: dataset_id is required")
		fs.Usage()
		return "", nil, false
	}
	return args[0], args[1:], true
}

func splitColumns(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// formatRow renders a row with values in column order.
func formatRow(row dataset.Row, columns []string) string {
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = fmt.Sprintf("%s=%v", col, row[col])
	}
	return strings.Join(parts, " ")
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\n[delong] Received interrupt, shutting down...")
		cancel()
	}()

	return ctx, cancel
}
