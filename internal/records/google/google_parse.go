package google

import (
	"fmt"
	"strings"

	"invoicepro/internal/records"
)

// parseTable converts a values matrix whose first row is a header into
// records rows. Blank rows are skipped; cell values are passed through
// untouched so the records converters see what the sheet holds.
func parseTable(values [][]any) []records.Row {
	if len(values) == 0 {
		return []records.Row{}
	}
	header := make([]string, len(values[0]))
	for i, h := range values[0] {
		header[i] = records.NormalizeHeader(toString(h))
	}
	out := make([]records.Row, 0, len(values)-1)
	for _, cells := range values[1:] {
		if blank(cells) {
			continue
		}
		out = append(out, records.RowFromCells(header, cells))
	}
	return out
}

func blank(cells []any) bool {
	for _, c := range cells {
		if strings.TrimSpace(toString(c)) != "" {
			return false
		}
	}
	return true
}

func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(v)
	}
}
