// Package export writes materialized datasets to CSV or JSON.
//
// Output goes through gocloud.dev/blob so the destination can be a
// local path (fileblob) or a bucket URL such as s3://bucket/key, with
// drivers registered by the importing binary.
//
// The local export policy is enforced before anything is opened or
// written: a dataset whose row count exceeds the configured ceiling is
// rejected with dataset.ErrPolicyViolation and no output file is
// created.
//
// JSON output is newline-delimited, one object per row, with keys in
// column order. CSV output starts with a header row of column names.
package export
