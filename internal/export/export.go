package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"

	"github.com/AvinasiLabs/delong-datasets/pkg/dataset"
)

// Format selects the export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported export format: %s", s)
	}
}

// Options configures an export.
type Options struct {
	Format Format

	// Output is a local file path or a bucket URL (s3://, gs://, mem://).
	Output string

	// MaxRows is the export row ceiling. Zero disables the check.
	MaxRows int
}

// EnforcePolicy checks the export row ceiling. It must pass before any
// output is opened.
func EnforcePolicy(rows, maxRows int) error {
	if maxRows > 0 && rows > maxRows {
		return fmt.Errorf("%w: export exceeds limit: %d rows > %d allowed; "+
			"set DS_MAX_LOCAL_EXPORT_ROWS to increase the limit",
			dataset.ErrPolicyViolation, rows, maxRows)
	}
	return nil
}

// Export writes the table to the destination in the requested format.
func Export(ctx context.Context, t *dataset.Table, opts Options) error {
	if err := EnforcePolicy(t.NumRows(), opts.MaxRows); err != nil {
		return err
	}

	bucket, key, err := openBucket(ctx, opts.Output)
	if err != nil {
		return err
	}
	defer bucket.Close()

	return ExportToBucket(ctx, t, bucket, key, opts)
}

// ExportToBucket writes the table to a key in an already-open bucket.
func ExportToBucket(ctx context.Context, t *dataset.Table, bucket *blob.Bucket, key string, opts Options) error {
	if err := EnforcePolicy(t.NumRows(), opts.MaxRows); err != nil {
		return err
	}

	var buf bytes.Buffer
	var err error
	switch opts.Format {
	case FormatCSV:
		err = writeCSV(&buf, t)
	case FormatJSON:
		err = writeJSON(&buf, t)
	default:
		err = fmt.Errorf("unsupported export format: %s", opts.Format)
	}
	if err != nil {
		return err
	}

	if err := bucket.WriteAll(ctx, key, buf.Bytes(), nil); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// openBucket resolves the output destination to a bucket and key.
// Paths without a scheme open a fileblob bucket over the parent
// directory; URLs go through the registered blob drivers.
func openBucket(ctx context.Context, output string) (*blob.Bucket, string, error) {
	u, err := url.Parse(output)
	if err == nil && u.Scheme != "" && u.Scheme != "file" {
		key := strings.TrimPrefix(u.Path, "/")
		bucketURL := *u
		bucketURL.Path = ""
		bucket, err := blob.OpenBucket(ctx, bucketURL.String())
		if err != nil {
			return nil, "", fmt.Errorf("open bucket %s: %w", bucketURL.String(), err)
		}
		return bucket, key, nil
	}

	path := strings.TrimPrefix(output, "file://")
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, "", fmt.Errorf("resolve output path: %w", err)
	}
	// No .attrs sidecars next to the user's output file.
	bucket, err := fileblob.OpenBucket(filepath.Dir(abs), &fileblob.Options{
		Metadata: fileblob.MetadataDontWrite,
	})
	if err != nil {
		return nil, "", fmt.Errorf("open output directory: %w", err)
	}
	return bucket, filepath.Base(abs), nil
}

// writeCSV encodes the table as CSV with a header row.
func writeCSV(buf *bytes.Buffer, t *dataset.Table) error {
	w := csv.NewWriter(buf)
	cols := t.ColumnNames()

	if err := w.Write(cols); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	record := make([]string, len(cols))
	for _, row := range t.Rows() {
		for i, col := range cols {
			record[i] = formatScalar(row[col])
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

// writeJSON encodes the table as newline-delimited JSON records with
// keys in column order.
func writeJSON(buf *bytes.Buffer, t *dataset.Table) error {
	cols := t.ColumnNames()
	keys := make([][]byte, len(cols))
	for i, col := range cols {
		k, err := json.Marshal(col)
		if err != nil {
			return fmt.Errorf("encode column name: %w", err)
		}
		keys[i] = k
	}

	for _, row := range t.Rows() {
		buf.WriteByte('{')
		for i, col := range cols {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.Write(keys[i])
			buf.WriteByte(':')
			v, err := json.Marshal(row[col])
			if err != nil {
				return fmt.Errorf("encode value for %s: %w", col, err)
			}
			buf.Write(v)
		}
		buf.WriteString("}\n")
	}
	return nil
}

// formatScalar renders a cell value for CSV output.
func formatScalar(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case json.Number:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
