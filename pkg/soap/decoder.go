/*
2026 © Postgres.ai
*/

package soap

import (
	"encoding/base64"
	"strings"
	"unicode"

	"github.com/pkg/errors"

	"gitlab.com/postgres-ai/fusionql/pkg/models"
)

// Shape names a known layout of the decoded report document.
type Shape string

// Report shapes in the order they are probed.
const (
	ShapeJSONDoc        Shape = "json_doc"
	ShapeEmbeddedRowset Shape = "embedded_rowset"
	ShapeGroupColumns   Shape = "group_columns"
	ShapeRowset         Shape = "rowset"
	ShapeRaw            Shape = "raw"
)

// G_DATA fields holding an embedded ROWSET document.
const (
	embeddedResultTag    = "RESULT"
	embeddedResultTagAlt = "r"
)

// Payload is a decoded report. Table is nil when the data could not be tabularized,
// in that case Raw holds the generic document structure.
type Payload struct {
	Shape Shape
	Table *models.ResultTable
	Raw   interface{}
}

// Tabular reports whether the payload was normalized into a table.
func (p *Payload) Tabular() bool {
	return p != nil && p.Table != nil
}

// DecodeResponse extracts and decodes the report from a runReport response.
// It returns *FaultError for fault envelopes and ErrEmptyResult when neither
// report bytes nor a fault is present.
func DecodeResponse(body []byte) (*Payload, error) {
	envelope, err := parseXML(body)
	if err != nil {
		return nil, &DecodeError{Stage: "SOAP envelope", Err: err}
	}

	soapBody := envelopeBody(envelope)

	if reportBytes := findReportBytes(soapBody); reportBytes != nil {
		encoded := reportBytes.Text
		if encoded == "" {
			return nil, ErrEmptyResult
		}

		decoded, err := decodeBase64(encoded)
		if err != nil {
			return nil, &DecodeError{Stage: "report bytes", Err: err}
		}

		return DecodeReport(decoded)
	}

	if fault := soapBody.Child("Fault"); fault != nil {
		return nil, newFaultError(fault)
	}

	return nil, ErrEmptyResult
}

// ParseFault looks for a SOAP fault in an arbitrary response body.
func ParseFault(body []byte) (*FaultError, bool) {
	envelope, err := parseXML(body)
	if err != nil {
		return nil, false
	}

	fault := envelopeBody(envelope).Child("Fault")
	if fault == nil {
		return nil, false
	}

	return newFaultError(fault), true
}

func envelopeBody(envelope *Node) *Node {
	if envelope.Local() == "Envelope" {
		if body := envelope.Child("Body"); body != nil {
			return body
		}
	}

	return envelope
}

func findReportBytes(body *Node) *Node {
	if node := body.Path("runReportResponse", "runReportReturn", "reportBytes"); node != nil {
		return node
	}

	return body.Find("reportBytes")
}

func newFaultError(fault *Node) *FaultError {
	faultErr := &FaultError{}

	// SOAP 1.2.
	if reason := fault.Child("Reason"); reason != nil {
		if text := reason.Child("Text"); text != nil {
			faultErr.Text = text.Text
		} else {
			faultErr.Text = reason.Text
		}
	}

	if value := fault.Path("Code", "Value"); value != nil {
		faultErr.Code = value.Text
	}

	// SOAP 1.1.
	if faultErr.Text == "" {
		if faultString := fault.Child("faultstring"); faultString != nil {
			faultErr.Text = faultString.Text
		}
	}

	if faultErr.Code == "" {
		if faultCode := fault.Child("faultcode"); faultCode != nil {
			faultErr.Code = faultCode.Text
		}
	}

	return faultErr
}

func decodeBase64(encoded string) ([]byte, error) {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}

		return r
	}, encoded)

	decoded, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		decoded, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(compact, "="))
		if err != nil {
			return nil, errors.Wrap(err, "invalid base64")
		}
	}

	return decoded, nil
}

// DecodeReport parses the inner report document and normalizes it by shape.
func DecodeReport(data []byte) (*Payload, error) {
	doc, err := parseXML(data)
	if err != nil {
		return nil, &DecodeError{Stage: "report document", Err: err}
	}

	shape, node := detectShape(doc)

	switch shape {
	case ShapeJSONDoc:
		return decodeJSONDoc(node), nil

	case ShapeEmbeddedRowset:
		rows, err := embeddedRowsetRows(doc.ChildrenNamed("G_DATA"))
		if err != nil {
			return nil, &DecodeError{Stage: "embedded result set", Err: err}
		}

		return &Payload{Shape: shape, Table: models.NewResultTable(rows)}, nil

	case ShapeGroupColumns:
		return &Payload{Shape: shape, Table: models.NewResultTable(groupColumnRows(doc.ChildrenNamed("G_DATA")))}, nil

	case ShapeRowset:
		return &Payload{Shape: shape, Table: models.NewResultTable(rowsetRows(node))}, nil

	default:
		return &Payload{Shape: ShapeRaw, Raw: doc.Document()}, nil
	}
}

// detectShape probes json_doc, DATA_DS/G_DATA and ROWSET/ROW in order.
func detectShape(doc *Node) (Shape, *Node) {
	if doc.Local() == "json_doc" {
		return ShapeJSONDoc, doc
	}

	if jsonDoc := doc.Child("json_doc"); jsonDoc != nil {
		return ShapeJSONDoc, jsonDoc
	}

	if doc.Local() == "DATA_DS" {
		groups := doc.ChildrenNamed("G_DATA")
		if len(groups) > 0 {
			for _, group := range groups {
				if embeddedResult(group) != nil {
					return ShapeEmbeddedRowset, doc
				}
			}

			return ShapeGroupColumns, doc
		}
	}

	if doc.Local() == "ROWSET" {
		return ShapeRowset, doc
	}

	return ShapeRaw, doc
}

func embeddedResult(group *Node) *Node {
	if result := group.Child(embeddedResultTag); result != nil {
		return result
	}

	return group.Child(embeddedResultTagAlt)
}

func embeddedRowsetRows(groups []*Node) ([]models.Row, error) {
	rows := make([]models.Row, 0)

	for _, group := range groups {
		result := embeddedResult(group)
		if result == nil {
			continue
		}

		if rowset := result.Child("ROWSET"); rowset != nil {
			rows = append(rows, rowsetRows(rowset)...)
			continue
		}

		if result.Text == "" {
			continue
		}

		rowset, err := parseXML([]byte(result.Text))
		if err != nil {
			return nil, err
		}

		if rowset.Local() != "ROWSET" {
			rowset = rowset.Find("ROWSET")
		}

		if rowset == nil {
			continue
		}

		rows = append(rows, rowsetRows(rowset)...)
	}

	return rows, nil
}

// groupColumnRows turns G_DATA children into rows. Each key is a column; a key repeated
// inside one group holds parallel values that are zipped by index, a single value is
// repeated on every row and shorter lists are padded with NULL.
func groupColumnRows(groups []*Node) []models.Row {
	rows := make([]models.Row, 0)

	for _, group := range groups {
		keys := make([]string, 0)
		values := make(map[string][]*Node)

		for _, child := range group.Children {
			key := child.Local()

			if _, ok := values[key]; !ok {
				keys = append(keys, key)
			}

			values[key] = append(values[key], child)
		}

		rowCount := 0
		for _, key := range keys {
			if len(values[key]) > rowCount {
				rowCount = len(values[key])
			}
		}

		for i := 0; i < rowCount; i++ {
			row := make(models.Row, 0, len(keys))

			for _, key := range keys {
				column := values[key]

				switch {
				case len(column) == 1:
					row = append(row, models.Cell{Column: key, Value: cellValue(column[0])})
				case i < len(column):
					row = append(row, models.Cell{Column: key, Value: cellValue(column[i])})
				default:
					row = append(row, models.Cell{Column: key})
				}
			}

			rows = append(rows, row)
		}
	}

	return rows
}

func rowsetRows(rowset *Node) []models.Row {
	rows := make([]models.Row, 0)

	for _, rowNode := range rowset.ChildrenNamed("ROW") {
		row := make(models.Row, 0, len(rowNode.Children))

		for _, child := range rowNode.Children {
			row = append(row, models.Cell{Column: child.Local(), Value: cellValue(child)})
		}

		rows = append(rows, row)
	}

	return rows
}

func cellValue(n *Node) *string {
	if n.IsNil() {
		return nil
	}

	if len(n.Children) > 0 {
		return models.StringValue(n.InnerXML())
	}

	return models.StringValue(n.Text)
}
