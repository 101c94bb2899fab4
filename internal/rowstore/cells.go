package rowstore

import (
	"strconv"
	"strings"
)

// Cell helpers convert between typed fields and the untyped grid scalars
// the transport returns (string, float64, bool or nil). A missing or
// all-whitespace cell is treated as absent.

// CellString returns the trimmed text of a cell, or "" when absent.
// Numbers and booleans stringify.
func CellString(cell any) string {
	switch v := cell.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// CellFloat parses a numeric cell. Numeral strings are accepted with
// comma-as-decimal-separator tolerance. Returns nil when absent or
// unparsable.
func CellFloat(cell any) *float64 {
	switch v := cell.(type) {
	case float64:
		return &v
	case string:
		normalized := strings.ReplaceAll(strings.TrimSpace(v), ",", ".")
		if normalized == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(normalized, 64)
		if err != nil {
			return nil
		}
		return &parsed
	default:
		return nil
	}
}

// CellInt parses an integer cell; fractional values are rejected.
func CellInt(cell any) *int {
	f := CellFloat(cell)
	if f == nil {
		return nil
	}
	n := int(*f)
	if float64(n) != *f {
		return nil
	}
	return &n
}

// cellAt guards against ragged rows: trailing empty cells are omitted by
// the API, so reads past the row length yield nil.
func cellAt(row []any, idx int) any {
	if idx < 0 || idx >= len(row) {
		return nil
	}
	return row[idx]
}

// StringAt reads a trimmed string cell at idx.
func StringAt(row []any, idx int) string { return CellString(cellAt(row, idx)) }

// FloatAt reads a numeric cell at idx.
func FloatAt(row []any, idx int) *float64 { return CellFloat(cellAt(row, idx)) }

// IntAt reads an integer cell at idx.
func IntAt(row []any, idx int) *int { return CellInt(cellAt(row, idx)) }

// IsBlankRow reports whether every cell is absent or whitespace-only.
// Blank rows are skippable noise, not records.
func IsBlankRow(row []any) bool {
	for _, cell := range row {
		if cell == nil {
			continue
		}
		if s, ok := cell.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		return false
	}
	return true
}

// OptCell maps "" to nil so absent fields encode as cleared cells.
func OptCell(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// FloatCell maps nil to a cleared cell.
func FloatCell(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

// IntCell maps nil to a cleared cell.
func IntCell(n *int) any {
	if n == nil {
		return nil
	}
	return float64(*n)
}
