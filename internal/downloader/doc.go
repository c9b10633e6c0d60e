// Package downloader fetches a URL to a local path with partial-file
// resume via byte-range requests.
//
// # Resume
//
// Data is written to <dest>.part. When a partial file exists, its size
// is the resume offset and the download continues with a Range request
// if the server advertises range support. A sidecar <dest>.part.etag
// records the source ETag when the partial write starts; a mismatch
// against the current remote ETag discards the partial data instead of
// splicing bytes from two different object versions. The stored ETag is
// also sent as If-Range so a changed server responds 200 and the
// download restarts cleanly.
//
// A 200 response to a range request overwrites the partial file from
// scratch. On completion the .part file atomically replaces dest.
//
// # Usage
//
//	err := downloader.Download(ctx, url, dest, downloader.Options{})
package downloader
