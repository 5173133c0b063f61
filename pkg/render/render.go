/*
2019 © Postgres.ai
*/

// Package render provides text representations of query results.
package render

import (
	"encoding/csv"
	"encoding/json"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"

	"gitlab.com/postgres-ai/fusionql/pkg/models"
)

const (
	// NullDisplay is shown instead of NULL cells in tables.
	NullDisplay = "NULL"

	// MsgNoResults is shown for empty results.
	MsgNoResults = "No results.\n"
)

// Table renders a result table in the psql style.
func Table(w io.Writer, table *models.ResultTable) error {
	if table == nil || len(table.Rows) == 0 {
		_, err := io.WriteString(w, MsgNoResults)
		return err
	}

	tw := tablewriter.NewWriter(w)
	tw.SetBorder(false)
	tw.SetAutoWrapText(false)
	tw.SetAutoFormatHeaders(false)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetHeader(table.Columns)
	tw.AppendBulk(cells(table, NullDisplay))
	tw.Render()

	return nil
}

// CSV exports a result table. NULL cells are written as empty fields.
func CSV(w io.Writer, table *models.ResultTable) error {
	cw := csv.NewWriter(w)

	if table != nil {
		if err := cw.Write(table.Columns); err != nil {
			return errors.Wrap(err, "failed to write a CSV header")
		}

		if err := cw.WriteAll(cells(table, "")); err != nil {
			return errors.Wrap(err, "failed to write CSV rows")
		}
	}

	cw.Flush()

	return cw.Error()
}

// JSON writes any value as indented JSON.
func JSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(v)
}

func cells(table *models.ResultTable, null string) [][]string {
	res := make([][]string, 0, len(table.Rows))

	for _, row := range table.Rows {
		values := make([]string, 0, len(table.Columns))

		for _, column := range table.Columns {
			value, ok := row.Get(column)
			if !ok || value == nil {
				values = append(values, null)
				continue
			}

			values = append(values, *value)
		}

		res = append(res, values)
	}

	return res
}
