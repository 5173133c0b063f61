/*
2026 © Postgres.ai
*/

package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/AlekSi/pointer"
)

// Cell holds a single column value of a row. Nil Value means SQL NULL.
type Cell struct {
	Column string
	Value  *string
}

// Row is an ordered set of cells.
type Row []Cell

// Get returns a value by column name.
func (r Row) Get(column string) (*string, bool) {
	for _, c := range r {
		if c.Column == column {
			return c.Value, true
		}
	}

	return nil, false
}

// Map converts the row into a plain mapping.
func (r Row) Map() map[string]*string {
	m := make(map[string]*string, len(r))

	for _, c := range r {
		m[c.Column] = c.Value
	}

	return m
}

// MarshalJSON keeps the column order of the row.
func (r Row) MarshalJSON() ([]byte, error) {
	buf := bytes.Buffer{}
	buf.WriteByte('{')

	for i, c := range r {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(c.Column)
		if err != nil {
			return nil, err
		}

		value, err := json.Marshal(c.Value)
		if err != nil {
			return nil, err
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object keeping its key order. Values other than strings and null
// are kept as their JSON text.
func (r *Row) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))

	token, err := decoder.Token()
	if err != nil {
		return err
	}

	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("row must be a JSON object, got %v", token)
	}

	row := make(Row, 0)

	for decoder.More() {
		token, err := decoder.Token()
		if err != nil {
			return err
		}

		column, ok := token.(string)
		if !ok {
			return fmt.Errorf("unexpected row key %v", token)
		}

		var raw json.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			return err
		}

		row = append(row, Cell{Column: column, Value: rawValue(raw)})
	}

	*r = row

	return nil
}

func rawValue(raw json.RawMessage) *string {
	trimmed := bytes.TrimSpace(raw)

	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return &s
	}

	return StringValue(string(trimmed))
}

// ResultTable is the normalized tabular output of a query.
type ResultTable struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// NewResultTable builds a table where every row has the same column set.
// Columns follow the key order of the first row, keys seen later are appended,
// and cells missing from a row are padded with NULL.
// A column repeated within a row is kept as NAME_2, NAME_3 and so on.
func NewResultTable(rows []Row) *ResultTable {
	columns := make([]string, 0)
	seen := make(map[string]struct{})

	unique := make([]Row, 0, len(rows))
	for _, row := range rows {
		unique = append(unique, uniqueColumns(row))
	}

	rows = unique

	for _, row := range rows {
		for _, c := range row {
			if _, ok := seen[c.Column]; ok {
				continue
			}

			seen[c.Column] = struct{}{}
			columns = append(columns, c.Column)
		}
	}

	normalized := make([]Row, 0, len(rows))

	for _, row := range rows {
		values := row.Map()
		padded := make(Row, 0, len(columns))

		for _, column := range columns {
			padded = append(padded, Cell{Column: column, Value: values[column]})
		}

		normalized = append(normalized, padded)
	}

	return &ResultTable{Columns: columns, Rows: normalized}
}

// StringValue returns a pointer to a copy of s.
func StringValue(s string) *string {
	return pointer.ToString(s)
}

// uniqueColumns renames repeated column names of a row by position.
func uniqueColumns(row Row) Row {
	names := make(map[string]struct{}, len(row))
	for _, c := range row {
		names[c.Column] = struct{}{}
	}

	if len(names) == len(row) {
		return row
	}

	used := make(map[string]struct{}, len(row))
	renamed := make(Row, 0, len(row))

	for _, c := range row {
		name := c.Column

		if _, ok := used[name]; ok {
			for n := 2; ; n++ {
				candidate := fmt.Sprintf("%s_%d", c.Column, n)

				_, original := names[candidate]
				_, taken := used[candidate]

				if !original && !taken {
					name = candidate
					break
				}
			}
		}

		used[name] = struct{}{}
		renamed = append(renamed, Cell{Column: name, Value: c.Value})
	}

	return renamed
}
