// Package export converts nested transaction records into a flat tabular
// form for CSV export.
//
// Records coming off the wire are schema-varying generic mappings; the
// flattener joins nested keys with "." and the CSV encoder takes the sorted
// union of all keys so every record lands in one consistent table.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Flatten recursively descends nested mappings, joining keys with ".".
// Array-valued fields are kept as their compact JSON text rather than
// flattened further.
func Flatten(record map[string]any) map[string]string {
	out := make(map[string]string, len(record))
	flattenInto(out, "", record)
	return out
}

func flattenInto(out map[string]string, prefix string, record map[string]any) {
	for k, v := range record {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			flattenInto(out, key, nested)
			continue
		}
		out[key] = stringify(v)
	}
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		// arrays and anything else: compact JSON text
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(encoded)
	}
}

// ToCSV flattens every record and emits one table. The header row is the
// sorted union of all flattened keys; absent fields render as empty
// strings. Values containing commas, quotes, or newlines are quoted with
// internal quotes doubled (RFC 4180).
func ToCSV(records []map[string]any) ([]byte, error) {
	flattened := make([]map[string]string, 0, len(records))
	keySet := make(map[string]struct{})
	for _, record := range records {
		flat := Flatten(record)
		flattened = append(flattened, flat)
		for k := range flat {
			keySet[k] = struct{}{}
		}
	}

	header := make([]string, 0, len(keySet))
	for k := range keySet {
		header = append(header, k)
	}
	sort.Strings(header)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}

	row := make([]string, len(header))
	for _, flat := range flattened {
		for i, k := range header {
			row[i] = flat[k]
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
