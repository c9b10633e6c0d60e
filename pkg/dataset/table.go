package dataset

// Table is a fully materialized dataset.
type Table struct {
	columns   []string
	rows      []Row
	dataType  DataType
	totalRows int
}

// NewTable builds a table from local rows. Fetch is the usual way to
// obtain a Table; NewTable exists for tooling and tests.
func NewTable(columns []string, rows []Row) *Table {
	return &Table{
		columns:   columns,
		rows:      rows,
		totalRows: len(rows),
	}
}

// Rows returns the materialized rows.
func (t *Table) Rows() []Row {
	return t.rows
}

// NumRows returns the number of materialized rows.
func (t *Table) NumRows() int {
	return len(t.rows)
}

// ColumnNames returns the column names in backend order.
func (t *Table) ColumnNames() []string {
	return t.columns
}

// DataType reports whether the backend returned real or sample data.
func (t *Table) DataType() DataType {
	return t.dataType
}

// TotalRows returns the total row count the backend reported for the
// dataset, which may exceed NumRows when a fetch limit was applied.
func (t *Table) TotalRows() int {
	return t.totalRows
}
