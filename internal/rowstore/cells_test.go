package rowstore

import "testing"

func TestCellString(t *testing.T) {
	t.Parallel()

	if got := CellString("  hello "); got != "hello" {
		t.Fatalf("trim: %q", got)
	}
	if got := CellString(float64(7.5)); got != "7.5" {
		t.Fatalf("number: %q", got)
	}
	if got := CellString(true); got != "true" {
		t.Fatalf("bool: %q", got)
	}
	if got := CellString(nil); got != "" {
		t.Fatalf("nil: %q", got)
	}
}

func TestCellFloat(t *testing.T) {
	t.Parallel()

	if got := CellFloat(float64(1.25)); got == nil || *got != 1.25 {
		t.Fatalf("native: %v", got)
	}
	// Comma decimal separators appear in locales where the sheet was edited
	// by hand.
	if got := CellFloat("3,5"); got == nil || *got != 3.5 {
		t.Fatalf("comma decimal: %v", got)
	}
	if got := CellFloat(" 0 "); got == nil || *got != 0 {
		t.Fatalf("zero: %v", got)
	}
	for _, bad := range []any{"", "  ", "abc", true, nil} {
		if got := CellFloat(bad); got != nil {
			t.Fatalf("want nil for %v, got %v", bad, *got)
		}
	}
}

func TestCellInt(t *testing.T) {
	t.Parallel()

	if got := CellInt(float64(7)); got == nil || *got != 7 {
		t.Fatalf("int: %v", got)
	}
	if got := CellInt("14"); got == nil || *got != 14 {
		t.Fatalf("string int: %v", got)
	}
	if got := CellInt(float64(7.5)); got != nil {
		t.Fatalf("fractional accepted: %v", *got)
	}
}

func TestIsBlankRow(t *testing.T) {
	t.Parallel()

	if !IsBlankRow(nil) || !IsBlankRow([]any{}) {
		t.Fatalf("empty rows are blank")
	}
	if !IsBlankRow([]any{nil, "  ", ""}) {
		t.Fatalf("whitespace-only row is blank")
	}
	if IsBlankRow([]any{nil, "x"}) {
		t.Fatalf("row with content is not blank")
	}
	if IsBlankRow([]any{float64(0)}) {
		t.Fatalf("numeric zero is content, not blank")
	}
}

func TestRowAccessors_RaggedRows(t *testing.T) {
	t.Parallel()

	row := []any{"id", float64(2)}
	if got := StringAt(row, 5); got != "" {
		t.Fatalf("past-end string: %q", got)
	}
	if got := FloatAt(row, 1); got == nil || *got != 2 {
		t.Fatalf("float at: %v", got)
	}
	if got := IntAt(row, 9); got != nil {
		t.Fatalf("past-end int: %v", *got)
	}
}

func TestEncodeCellHelpers(t *testing.T) {
	t.Parallel()

	if OptCell("") != nil {
		t.Fatalf("empty string should encode as cleared cell")
	}
	if OptCell("x") != "x" {
		t.Fatalf("text should pass through")
	}
	if FloatCell(nil) != nil {
		t.Fatalf("nil float should encode as cleared cell")
	}
	v := 1.5
	if FloatCell(&v) != 1.5 {
		t.Fatalf("float should pass through")
	}
	n := 3
	if IntCell(&n) != float64(3) {
		t.Fatalf("ints encode as sheet numbers")
	}
}
