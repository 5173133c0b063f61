/*
2026 © Postgres.ai
*/

package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResultTableRepeatedColumns(t *testing.T) {
	testCases := []struct {
		caseName string
		row      Row
		columns  []string
		values   []string
	}{
		{
			caseName: "unique columns",
			row:      Row{{Column: "A", Value: StringValue("1")}, {Column: "B", Value: StringValue("2")}},
			columns:  []string{"A", "B"},
			values:   []string{"1", "2"},
		},
		{
			caseName: "repeated column",
			row: Row{
				{Column: "ID", Value: StringValue("1")},
				{Column: "ID", Value: StringValue("2")},
				{Column: "ID", Value: StringValue("3")},
			},
			columns: []string{"ID", "ID_2", "ID_3"},
			values:  []string{"1", "2", "3"},
		},
		{
			caseName: "suffix already taken",
			row: Row{
				{Column: "A", Value: StringValue("1")},
				{Column: "A", Value: StringValue("2")},
				{Column: "A_2", Value: StringValue("3")},
			},
			columns: []string{"A", "A_3", "A_2"},
			values:  []string{"1", "2", "3"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.caseName, func(t *testing.T) {
			table := NewResultTable([]Row{tc.row})
			require.Len(t, table.Rows, 1)
			assert.Equal(t, tc.columns, table.Columns)

			values := make([]string, 0, len(table.Rows[0]))
			for _, c := range table.Rows[0] {
				require.NotNil(t, c.Value)
				values = append(values, *c.Value)
			}

			assert.Equal(t, tc.values, values)
		})
	}
}

func TestNewResultTablePadsMissingCells(t *testing.T) {
	table := NewResultTable([]Row{
		{{Column: "A", Value: StringValue("1")}},
		{{Column: "B", Value: StringValue("2")}, {Column: "A", Value: nil}},
	})

	assert.Equal(t, []string{"A", "B"}, table.Columns)

	data, err := json.Marshal(table.Rows)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"A":"1","B":null},{"A":null,"B":"2"}]`, string(data))
}
