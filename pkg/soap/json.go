/*
2026 © Postgres.ai
*/

package soap

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	"gitlab.com/postgres-ai/fusionql/pkg/models"
)

// nilMarkers are the keys a JSON-encoded cell uses to carry xsi:nil.
var nilMarkers = []string{attrPrefix + "xsi:nil", attrPrefix + "nil", "xsi:nil"}

func decodeJSONDoc(node *Node) *Payload {
	if len(node.Children) > 0 {
		return &Payload{Shape: ShapeRaw, Raw: node.Document()}
	}

	rows, err := decodeJSONRows([]byte(node.Text))
	if err != nil {
		return &Payload{Shape: ShapeRaw, Raw: map[string]interface{}{"raw": node.Text}}
	}

	return &Payload{Shape: ShapeJSONDoc, Table: models.NewResultTable(rows)}
}

// decodeJSONRows accepts an array of objects or a single object and keeps key order.
func decodeJSONRows(data []byte) ([]models.Row, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("empty JSON document")
	}

	switch data[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, errors.Wrap(err, "failed to decode JSON array")
		}

		rows := make([]models.Row, 0, len(items))

		for _, item := range items {
			row, err := decodeJSONObject(item)
			if err != nil {
				return nil, err
			}

			rows = append(rows, row)
		}

		return rows, nil

	case '{':
		row, err := decodeJSONObject(data)
		if err != nil {
			return nil, err
		}

		return []models.Row{row}, nil
	}

	return nil, errors.New("JSON document is neither an object nor an array")
}

func decodeJSONObject(data json.RawMessage) (models.Row, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))

	token, err := decoder.Token()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read JSON object")
	}

	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("JSON row is not an object")
	}

	row := make(models.Row, 0)

	for decoder.More() {
		keyToken, err := decoder.Token()
		if err != nil {
			return nil, errors.Wrap(err, "failed to read JSON key")
		}

		key, ok := keyToken.(string)
		if !ok {
			return nil, errors.Errorf("unexpected JSON key %v", keyToken)
		}

		var value json.RawMessage
		if err := decoder.Decode(&value); err != nil {
			return nil, errors.Wrapf(err, "failed to read JSON value of %q", key)
		}

		row = append(row, models.Cell{Column: key, Value: jsonCellValue(value)})
	}

	return row, nil
}

func jsonCellValue(raw json.RawMessage) *string {
	raw = bytes.TrimSpace(raw)

	switch {
	case len(raw) == 0, bytes.Equal(raw, []byte("null")):
		return nil

	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return &s
		}

	case raw[0] == '{':
		var object map[string]interface{}
		if err := json.Unmarshal(raw, &object); err == nil && isNilObject(object) {
			return nil
		}

		compacted := bytes.Buffer{}
		if err := json.Compact(&compacted, raw); err == nil {
			return models.StringValue(compacted.String())
		}

	case raw[0] == '[':
		compacted := bytes.Buffer{}
		if err := json.Compact(&compacted, raw); err == nil {
			return models.StringValue(compacted.String())
		}
	}

	return models.StringValue(string(raw))
}

// isNilObject reports whether a decoded cell is the nil marker of an XML-to-JSON conversion.
func isNilObject(object map[string]interface{}) bool {
	for _, key := range nilMarkers {
		switch v := object[key].(type) {
		case string:
			if strings.EqualFold(v, "true") {
				return true
			}
		case bool:
			if v {
				return true
			}
		}
	}

	return false
}
