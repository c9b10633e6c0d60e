package dataset

import "context"

// RowIterator is a lazy pull iterator over a dataset. It is not safe
// for concurrent use and cannot be resumed mid-stream; restart by
// calling Client.Stream again with a new offset.
type RowIterator struct {
	client    *Client
	datasetID string
	token     string
	opts      FetchOptions

	offset  int
	rows    []Row
	idx     int
	hasMore bool
	started bool
	emitted int
	done    bool
	err     error

	columns   []string
	dataType  DataType
	totalRows int
}

// Next advances to the next row, fetching further pages on demand.
// It returns false when the dataset is exhausted or an error occurred;
// check Err afterwards.
func (it *RowIterator) Next(ctx context.Context) bool {
	if it.done || it.err != nil {
		return false
	}
	if it.opts.Limit > 0 && it.emitted >= it.opts.Limit {
		it.done = true
		return false
	}

	for it.idx >= len(it.rows) {
		if it.started && !it.hasMore {
			it.done = true
			return false
		}
		if !it.fetchPage(ctx) {
			return false
		}
	}

	it.idx++
	it.emitted++
	return true
}

// Row returns the current row. Valid only after Next returned true.
func (it *RowIterator) Row() Row {
	return it.rows[it.idx-1]
}

// Err returns the first error encountered while iterating.
func (it *RowIterator) Err() error {
	return it.err
}

// Columns returns the column names in backend order. Empty until the
// first page has been fetched.
func (it *RowIterator) Columns() []string {
	return it.columns
}

// DataType reports whether the backend returned real or sample data.
// Empty until the first page has been fetched.
func (it *RowIterator) DataType() DataType {
	return it.dataType
}

// TotalRows returns the backend-reported dataset size. Zero until the
// first page has been fetched.
func (it *RowIterator) TotalRows() int {
	return it.totalRows
}

func (it *RowIterator) fetchPage(ctx context.Context) bool {
	page, err := it.client.Decrypt(ctx, it.token, DecryptRequest{
		DatasetID: it.datasetID,
		Columns:   it.opts.Columns,
		Offset:    it.offset,
		Limit:     it.client.cfg.DefaultLimit,
	})
	if err != nil {
		it.err = err
		it.done = true
		return false
	}

	if !it.started {
		it.started = true
		it.columns = page.Columns
		it.dataType = page.DataType
	}
	it.totalRows = page.TotalRows
	it.offset += page.RowCount
	it.hasMore = page.HasMore
	it.rows = page.Rows()
	it.idx = 0

	if len(it.rows) == 0 && !page.HasMore {
		it.done = true
		return false
	}
	return true
}
