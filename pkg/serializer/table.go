package serializer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var headerCaser = cases.Title(language.English, cases.NoLower)

// writeTable renders a list of objects as one column per scalar key. A single object
// is a one-row table and a scalar is a single cell.
func writeTable(buf *bytes.Buffer, data any) {
	rows := tableRows(data)
	if len(rows) == 0 {
		buf.WriteString(emptyValue + "\n")
		return
	}

	columns := tableColumns(rows)
	if len(columns) == 0 {
		for _, r := range rows {
			buf.WriteString(formatScalar(r) + "\n")
		}
		return
	}

	headers := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = headerCaser.String(c)
	}

	table := tablewriter.NewWriter(buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetHeaderLine(true)
	table.SetColumnSeparator(" ")
	table.SetCenterSeparator(" ")
	table.SetRowSeparator("-")
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader(headers)
	for _, r := range rows {
		obj, _ := r.(map[string]any)
		cells := make([]string, len(columns))
		for i, c := range columns {
			cells[i] = formatScalar(obj[c])
		}
		table.Append(cells)
	}
	table.Render()
}

// writeTSV renders rows of tab-separated scalar values without headers.
func writeTSV(buf *bytes.Buffer, data any) {
	for _, r := range tableRows(data) {
		obj, ok := r.(map[string]any)
		if !ok {
			buf.WriteString(formatScalar(r) + "\n")
			continue
		}
		keys := scalarKeys(obj)
		cells := make([]string, len(keys))
		for i, k := range keys {
			cells[i] = formatScalar(obj[k])
		}
		buf.WriteString(strings.Join(cells, "\t") + "\n")
	}
}

func tableRows(data any) []any {
	switch t := data.(type) {
	case nil:
		return nil
	case []any:
		return t
	default:
		return []any{t}
	}
}

// tableColumns returns the union of scalar keys across rows, sorted.
func tableColumns(rows []any) []string {
	seen := map[string]bool{}
	var cols []string
	for _, r := range rows {
		obj, ok := r.(map[string]any)
		if !ok {
			continue
		}
		for _, k := range scalarKeys(obj) {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)
	return cols
}

func scalarKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k, v := range obj {
		switch v.(type) {
		case map[string]any, []any:
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatScalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case map[string]any, []any:
		raw, _ := json.Marshal(t)
		return string(raw)
	default:
		return fmt.Sprint(t)
	}
}
