package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Error taxonomy. Status codes map deterministically onto these;
// callers match with errors.Is.
var (
	ErrAuth              = errors.New("http: authentication failed")
	ErrNotFound          = errors.New("http: resource not found")
	ErrRateLimit         = errors.New("http: rate limited")
	ErrRemoteServer      = errors.New("http: server error")
	ErrNetwork           = errors.New("http: network error")
	ErrParse             = errors.New("http: parse error")
	ErrRangeNotSupported = errors.New("http: server does not support range requests")
)

// Options configures the HTTP client.
type Options struct {
	// Timeout for individual requests.
	// Default: 30s
	Timeout time.Duration

	// RetryAttempts is the maximum number of retry attempts for
	// transient failures (rate limit, server error, network error).
	// Zero disables retries.
	RetryAttempts int

	// RetryBackoff is the initial backoff duration.
	// Default: 1s
	RetryBackoff time.Duration

	// RetryMaxBackoff is the maximum backoff duration.
	// Default: 30s
	RetryMaxBackoff time.Duration

	// MaxIdleConnsPerHost sets the maximum idle connections per host.
	// Default: 10
	MaxIdleConnsPerHost int
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Timeout:             30 * time.Second,
		RetryAttempts:       3,
		RetryBackoff:        time.Second,
		RetryMaxBackoff:     30 * time.Second,
		MaxIdleConnsPerHost: 10,
	}
}

// FileInfo contains metadata about a remote file.
type FileInfo struct {
	Size          int64
	ETag          string
	AcceptsRanges bool
	ContentType   string
	LastModified  time.Time
}

// GetResponse is the response to a plain or ranged GET.
type GetResponse struct {
	// StatusCode is 200 or 206. 206 means the server honored a
	// requested byte range.
	StatusCode    int
	Body          io.ReadCloser
	ContentLength int64
	ETag          string
}

// Client is an HTTP client for the dataset backend and download URLs.
type Client struct {
	client *http.Client
	opts   Options
}

// NewClient creates a new HTTP client with the given options.
func NewClient(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RetryBackoff == 0 {
		opts.RetryBackoff = time.Second
	}
	if opts.RetryMaxBackoff == 0 {
		opts.RetryMaxBackoff = 30 * time.Second
	}
	if opts.MaxIdleConnsPerHost == 0 {
		opts.MaxIdleConnsPerHost = 10
	}

	transport := &http.Transport{
		MaxIdleConnsPerHost: opts.MaxIdleConnsPerHost,
		MaxIdleConns:        opts.MaxIdleConnsPerHost * 2,
		IdleConnTimeout:     90 * time.Second,
		DisableCompression:  true, // raw bytes for range requests
	}

	return &Client{
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		opts: opts,
	}
}

// PostJSON sends body as a JSON POST with bearer authorization and
// decodes the 200 response into out. Transient failures are retried up
// to RetryAttempts times; auth and not-found errors fail immediately.
func (c *Client) PostJSON(ctx context.Context, url, bearer string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.opts.RetryAttempts; attempt++ {
		if attempt > 0 {
			if err := c.backoff(ctx, attempt); err != nil {
				return err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: %v", ErrNetwork, err)
			continue
		}

		if err := checkStatusCode(resp.StatusCode, resp); err != nil {
			resp.Body.Close()
			if !retryable(err) {
				return err
			}
			lastErr = err
			continue
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("%w: decode response: %v", ErrRemoteServer, err)
		}
		return nil
	}

	return lastErr
}

// Head performs a HEAD request to get file metadata.
func (c *Client) Head(ctx context.Context, url string) (*FileInfo, error) {
	var lastErr error

	for attempt := 0; attempt <= c.opts.RetryAttempts; attempt++ {
		if attempt > 0 {
			if err := c.backoff(ctx, attempt); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: %v", ErrNetwork, err)
			continue
		}
		resp.Body.Close()

		if err := checkStatusCode(resp.StatusCode, nil); err != nil {
			if !retryable(err) {
				return nil, err
			}
			lastErr = err
			continue
		}

		info := &FileInfo{
			Size:          resp.ContentLength,
			ETag:          cleanETag(resp.Header.Get("ETag")),
			AcceptsRanges: resp.Header.Get("Accept-Ranges") == "bytes",
			ContentType:   resp.Header.Get("Content-Type"),
		}
		if lm := resp.Header.Get("Last-Modified"); lm != "" {
			if t, err := http.ParseTime(lm); err == nil {
				info.LastModified = t
			}
		}
		return info, nil
	}

	return nil, fmt.Errorf("head request failed after %d attempts: %w", c.opts.RetryAttempts+1, lastErr)
}

// Get performs a GET request, optionally resuming from rangeStart.
// When rangeStart > 0 a Range header is sent, and ifRange (when
// non-empty) conditions the range on the stored ETag. The caller must
// inspect StatusCode: 206 means the server honored the range, 200 means
// the body is the full content from byte zero.
func (c *Client) Get(ctx context.Context, url string, rangeStart int64, ifRange string) (*GetResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if rangeStart > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", rangeStart))
		if ifRange != "" {
			req.Header.Set("If-Range", `"`+ifRange+`"`)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		resp.Body.Close()
		if resp.StatusCode == http.StatusRequestedRangeNotSatisfiable {
			return nil, ErrRangeNotSupported
		}
		return nil, checkStatusCode(resp.StatusCode, nil)
	}

	return &GetResponse{
		StatusCode:    resp.StatusCode,
		Body:          resp.Body,
		ContentLength: resp.ContentLength,
		ETag:          cleanETag(resp.Header.Get("ETag")),
	}, nil
}

// backoff waits for an exponentially increasing duration with jitter.
func (c *Client) backoff(ctx context.Context, attempt int) error {
	backoff := c.opts.RetryBackoff * time.Duration(1<<uint(attempt-1))
	if backoff > c.opts.RetryMaxBackoff {
		backoff = c.opts.RetryMaxBackoff
	}

	// Jitter: 0.5 to 1.5 of backoff
	jitter := time.Duration(float64(backoff) * (0.5 + rand.Float64()))

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(jitter):
		return nil
	}
}

// retryable reports whether an error is worth retrying.
func retryable(err error) bool {
	return errors.Is(err, ErrRateLimit) || errors.Is(err, ErrRemoteServer) || errors.Is(err, ErrNetwork)
}

// checkStatusCode returns the taxonomy error for a non-success status.
// When resp is non-nil, a snippet of the body is included in the message.
func checkStatusCode(code int, resp *http.Response) error {
	if code >= 200 && code < 300 {
		return nil
	}

	detail := ""
	if resp != nil {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if len(body) > 0 {
			detail = ": " + strings.TrimSpace(string(body))
		}
	}

	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w: status %d%s", ErrAuth, code, detail)
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: status %d%s", ErrNotFound, code, detail)
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d%s", ErrRateLimit, code, detail)
	case code >= 500:
		return fmt.Errorf("%w: status %d%s", ErrRemoteServer, code, detail)
	default:
		return fmt.Errorf("%w: unexpected status %d%s", ErrRemoteServer, code, detail)
	}
}

// cleanETag removes quotes from an ETag value.
func cleanETag(etag string) string {
	etag = strings.TrimPrefix(etag, "W/")
	etag = strings.Trim(etag, `"`)
	return etag
}

// ParseContentRange parses a Content-Range header value.
// Returns start, end, total bytes. Total may be -1 if unknown.
func ParseContentRange(header string) (start, end, total int64, err error) {
	// Format: bytes start-end/total or bytes start-end/*
	header = strings.TrimPrefix(header, "bytes ")
	parts := strings.Split(header, "/")
	if len(parts) != 2 {
		return 0, 0, 0, fmt.Errorf("%w: invalid Content-Range: %s", ErrParse, header)
	}

	rangeParts := strings.Split(parts[0], "-")
	if len(rangeParts) != 2 {
		return 0, 0, 0, fmt.Errorf("%w: invalid Content-Range: %s", ErrParse, header)
	}

	start, err = strconv.ParseInt(rangeParts[0], 10, 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: invalid start byte: %v", ErrParse, err)
	}

	end, err = strconv.ParseInt(rangeParts[1], 10, 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: invalid end byte: %v", ErrParse, err)
	}

	if parts[1] == "*" {
		total = -1
	} else {
		total, err = strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("%w: invalid total bytes: %v", ErrParse, err)
		}
	}

	return start, end, total, nil
}
