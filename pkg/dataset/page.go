package dataset

import "fmt"

// DataType reports which table the backend chose to return.
type DataType string

const (
	// DataTypeReal is returned when the runtime key verified.
	DataTypeReal DataType = "real"

	// DataTypeSample is returned when no valid runtime key was sent.
	DataTypeSample DataType = "sample"
)

// Page is one bounded-size response from the decrypt endpoint.
type Page struct {
	// Data is the page content in row-major order.
	Data [][]any `json:"data"`

	// Columns names each value position. Names are unique.
	Columns []string `json:"columns"`

	// RowCount is the number of rows in this page.
	RowCount int `json:"row_count"`

	// TotalRows is the total number of rows in the dataset.
	TotalRows int `json:"total_rows"`

	// HasMore reports whether further pages exist past this one.
	HasMore bool `json:"has_more"`

	// DataType is "real" or "sample".
	DataType DataType `json:"data_type"`
}

// Row is a single record, keyed by column name. Key order is carried
// separately by the Columns slice of the Page, Table, or RowIterator
// the row came from.
type Row map[string]any

// Validate checks the structural invariants of a page. A violation
// means the backend sent a malformed or incomplete response.
func (p *Page) Validate() error {
	if p.DataType != DataTypeReal && p.DataType != DataTypeSample {
		return fmt.Errorf("%w: invalid response: data_type %q", ErrRemoteServer, p.DataType)
	}
	if p.RowCount != len(p.Data) {
		return fmt.Errorf("%w: invalid response: row_count %d does not match %d data rows",
			ErrRemoteServer, p.RowCount, len(p.Data))
	}
	for i, row := range p.Data {
		if len(row) != len(p.Columns) {
			return fmt.Errorf("%w: invalid response: row %d has %d values for %d columns",
				ErrRemoteServer, i, len(row), len(p.Columns))
		}
	}
	return nil
}

// Rows converts the page's 2D data into Row records by zipping each
// row with the column names.
func (p *Page) Rows() []Row {
	rows := make([]Row, 0, len(p.Data))
	for _, values := range p.Data {
		row := make(Row, len(p.Columns))
		for i, col := range p.Columns {
			row[col] = values[i]
		}
		rows = append(rows, row)
	}
	return rows
}
