// Package http provides the HTTP client used for all backend traffic.
//
// This package handles:
//   - JSON POST requests with bearer authorization
//   - Deterministic mapping of status codes to the error taxonomy
//   - Bounded retry with exponential backoff for transient failures
//   - HEAD requests and ranged GETs for the resumable downloader
//
// # Usage
//
//	client := http.NewClient(Options{
//	    Timeout:       30 * time.Second,
//	    RetryAttempts: 3,
//	})
//
//	var page PageResponse
//	err := client.PostJSON(ctx, url, token, reqBody, &page)
//
//	// Probe a download URL
//	info, err := client.Head(ctx, url)
//	// info.Size, info.ETag, info.AcceptsRanges
package http
