package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageValidate(t *testing.T) {
	tests := []struct {
		name string
		page Page
		ok   bool
	}{
		{
			name: "valid",
			page: Page{
				Data:     [][]any{{"a", 1.0}},
				Columns:  []string{"x", "y"},
				RowCount: 1,
				DataType: DataTypeReal,
			},
			ok: true,
		},
		{
			name: "empty page",
			page: Page{
				Columns:  []string{"x"},
				DataType: DataTypeSample,
			},
			ok: true,
		},
		{
			name: "bad data type",
			page: Page{
				Columns:  []string{"x"},
				DataType: "encrypted",
			},
		},
		{
			name: "row count mismatch",
			page: Page{
				Data:     [][]any{{"a"}},
				Columns:  []string{"x"},
				RowCount: 3,
				DataType: DataTypeReal,
			},
		},
		{
			name: "ragged row",
			page: Page{
				Data:     [][]any{{"a", 1.0, true}},
				Columns:  []string{"x", "y"},
				RowCount: 1,
				DataType: DataTypeReal,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.page.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrRemoteServer)
			}
		})
	}
}

func TestPageRows(t *testing.T) {
	page := Page{
		Data: [][]any{
			{"PT-00001", 45.0},
			{"PT-00002", 62.0},
		},
		Columns:  []string{"patient_id", "age"},
		RowCount: 2,
		DataType: DataTypeReal,
	}

	rows := page.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "PT-00001", rows[0]["patient_id"])
	assert.Equal(t, 45.0, rows[0]["age"])
	assert.Equal(t, "PT-00002", rows[1]["patient_id"])
}
