package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	dshttp "github.com/AvinasiLabs/delong-datasets/internal/http"
	"github.com/AvinasiLabs/delong-datasets/internal/progress"
)

// Options configures the downloader.
type Options struct {
	// Force discards any existing partial download.
	Force bool

	// Progress is an optional progress reporter.
	Progress *progress.Reporter

	// HTTPOptions configures the HTTP client.
	HTTPOptions dshttp.Options
}

// Download fetches url to dest, resuming a previous partial download
// when possible. On success dest exists with the complete content and
// the .part file is gone.
func Download(ctx context.Context, url, dest string, opts Options) error {
	if opts.HTTPOptions.Timeout == 0 {
		opts.HTTPOptions = dshttp.DefaultOptions()
	}
	client := dshttp.NewClient(opts.HTTPOptions)

	partPath := dest + ".part"
	etagPath := partPath + ".etag"

	if opts.Force {
		os.Remove(partPath)
		os.Remove(etagPath)
	}

	var resumeOffset int64
	if fi, err := os.Stat(partPath); err == nil {
		resumeOffset = fi.Size()
	}

	// Best-effort probe. On failure, optimistically assume range support.
	supportsRange := true
	remoteETag := ""
	if info, err := client.Head(ctx, url); err == nil {
		supportsRange = info.AcceptsRanges
		remoteETag = info.ETag
	}

	storedETag := readETag(etagPath)
	if resumeOffset > 0 && storedETag != "" && remoteETag != "" && storedETag != remoteETag {
		// Source changed since the partial write started.
		os.Remove(partPath)
		os.Remove(etagPath)
		resumeOffset = 0
		storedETag = ""
	}

	var rangeStart int64
	if resumeOffset > 0 && supportsRange {
		rangeStart = resumeOffset
	}

	resp, err := client.Get(ctx, url, rangeStart, storedETag)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	// Append only when the server actually honored a requested range.
	// A 200 means full content from byte zero; stale partial data is
	// overwritten.
	appendMode := resp.StatusCode == http.StatusPartialContent && rangeStart > 0

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if appendMode {
		flags = os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(partPath, flags, 0o644)
	if err != nil {
		return fmt.Errorf("open partial file: %w", err)
	}

	if !appendMode {
		writeETag(etagPath, firstNonEmpty(resp.ETag, remoteETag))
	}

	var w io.Writer = f
	if opts.Progress != nil {
		if appendMode {
			opts.Progress.Add(resumeOffset)
		}
		w = io.MultiWriter(f, countWriter{opts.Progress})
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		f.Close()
		return fmt.Errorf("write partial file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close partial file: %w", err)
	}

	// Commit: the completed partial atomically replaces dest.
	if err := os.Rename(partPath, dest); err != nil {
		return fmt.Errorf("commit download: %w", err)
	}
	os.Remove(etagPath)

	return nil
}

// readETag returns the stored source ETag, or "" when absent.
func readETag(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// writeETag records the source ETag for the partial file. An empty
// etag clears the sidecar so a later resume cannot validate against a
// stale value.
func writeETag(path, etag string) {
	if etag == "" {
		os.Remove(path)
		return
	}
	os.WriteFile(path, []byte(etag+"\n"), 0o644)
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

type countWriter struct {
	r *progress.Reporter
}

func (c countWriter) Write(p []byte) (int, error) {
	c.r.Add(int64(len(p)))
	return len(p), nil
}
