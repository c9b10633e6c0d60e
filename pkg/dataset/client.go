package dataset

import (
	"context"
	"fmt"

	"github.com/AvinasiLabs/delong-datasets/internal/attest"
	"github.com/AvinasiLabs/delong-datasets/internal/config"
	dshttp "github.com/AvinasiLabs/delong-datasets/internal/http"
)

// CipherResolver produces the runtime key sent with every decrypt
// request. An empty string means "no attestation available"; the
// backend decides what that implies.
type CipherResolver interface {
	Cipher(ctx context.Context) string
}

// Client fetches datasets from the decrypt endpoint.
type Client struct {
	cfg      config.Config
	http     *dshttp.Client
	resolver CipherResolver
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *dshttp.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithResolver replaces the attestation cipher resolver.
func WithResolver(r CipherResolver) Option {
	return func(c *Client) { c.resolver = r }
}

// NewClient creates a dataset client from the given configuration.
func NewClient(cfg config.Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{cfg: cfg}
	for _, opt := range opts {
		opt(c)
	}

	if c.http == nil {
		c.http = dshttp.NewClient(dshttp.Options{
			Timeout:         cfg.Timeout,
			RetryAttempts:   cfg.Retry.Attempts,
			RetryBackoff:    cfg.Retry.Backoff,
			RetryMaxBackoff: cfg.Retry.MaxBackoff,
		})
	}
	if c.resolver == nil {
		c.resolver = attest.NewResolver(cfg.Attestation)
	}

	return c, nil
}

// DecryptRequest is the body of a decrypt endpoint call.
type DecryptRequest struct {
	DatasetID  string   `json:"dataset_id"`
	RuntimeKey string   `json:"runtime_key"`
	Columns    []string `json:"columns,omitempty"`
	Offset     int      `json:"offset"`
	Limit      int      `json:"limit"`
}

// Decrypt fetches one page from the decrypt endpoint. The runtime key
// is filled in from the resolver; callers set the remaining fields.
func (c *Client) Decrypt(ctx context.Context, token string, req DecryptRequest) (*Page, error) {
	if req.Limit <= 0 {
		req.Limit = c.cfg.DefaultLimit
	}
	req.RuntimeKey = c.resolver.Cipher(ctx)

	var page Page
	if err := c.http.PostJSON(ctx, c.cfg.DecryptURL(), token, req, &page); err != nil {
		return nil, fmt.Errorf("decrypt %s: %w", req.DatasetID, err)
	}
	if err := page.Validate(); err != nil {
		return nil, fmt.Errorf("decrypt %s: %w", req.DatasetID, err)
	}
	return &page, nil
}

// FetchOptions controls Fetch and Stream.
type FetchOptions struct {
	// Columns restricts the fetch to the named columns.
	Columns []string

	// Limit caps the number of rows fetched. Zero means fetch all.
	Limit int

	// Offset is the starting row offset.
	Offset int
}

// Fetch pages through the dataset eagerly and materializes the result.
// Fetching stops once Limit rows are collected or the backend reports
// no more data; no further page requests are issued past the limit.
func (c *Client) Fetch(ctx context.Context, datasetID, token string, opts FetchOptions) (*Table, error) {
	pageSize := c.cfg.DefaultLimit
	if opts.Limit > 0 && opts.Limit < pageSize {
		pageSize = opts.Limit
	}

	t := &Table{}
	offset := opts.Offset
	for {
		page, err := c.Decrypt(ctx, token, DecryptRequest{
			DatasetID: datasetID,
			Columns:   opts.Columns,
			Offset:    offset,
			Limit:     pageSize,
		})
		if err != nil {
			return nil, err
		}

		if t.columns == nil {
			t.columns = page.Columns
			t.dataType = page.DataType
		}
		t.totalRows = page.TotalRows

		for _, row := range page.Rows() {
			t.rows = append(t.rows, row)
			if opts.Limit > 0 && len(t.rows) >= opts.Limit {
				return t, nil
			}
		}

		if !page.HasMore {
			return t, nil
		}
		offset += page.RowCount
	}
}

// Stream returns a lazy iterator over the dataset. Pages are requested
// on demand as the caller pulls rows.
func (c *Client) Stream(datasetID, token string, opts FetchOptions) *RowIterator {
	return &RowIterator{
		client:    c,
		datasetID: datasetID,
		token:     token,
		opts:      opts,
		offset:    opts.Offset,
	}
}
