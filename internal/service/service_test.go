package service

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/lavolpecheprogramma/tanklog/internal/rowstore"
	"github.com/lavolpecheprogramma/tanklog/internal/sheets"
)

const sid = "tank-sheet"

// fakeTransport keeps one in-memory grid per sheet title, mimicking the
// value and structural endpoints the row store drives.
type fakeTransport struct {
	grids    map[string][][]any
	sheetIDs map[string]int64
	nextID   int64
}

var _ rowstore.Transport = (*fakeTransport)(nil)

func newFakeTransport(titles ...string) *fakeTransport {
	f := &fakeTransport{
		grids:    map[string][][]any{},
		sheetIDs: map[string]int64{},
		nextID:   100,
	}
	for _, t := range titles {
		f.addSheet(t)
	}
	return f
}

func (f *fakeTransport) addSheet(title string) {
	if _, ok := f.sheetIDs[title]; ok {
		return
	}
	f.sheetIDs[title] = f.nextID
	f.nextID++
	f.grids[title] = [][]any{}
}

func splitRange(rng string) (title string, row int) {
	parts := strings.SplitN(rng, "!", 2)
	title = parts[0]
	if len(parts) < 2 {
		return title, 0
	}
	cellRef := strings.SplitN(parts[1], ":", 2)[0]
	digits := strings.TrimLeft(cellRef, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
	if digits == "" {
		return title, 0
	}
	n, _ := strconv.Atoi(digits)
	return title, n
}

func (f *fakeTransport) Values(_ context.Context, _ string, rng string) ([][]any, error) {
	title, row := splitRange(rng)
	grid, ok := f.grids[title]
	if !ok {
		return nil, &sheets.APIError{Status: 400, Message: "no such sheet"}
	}
	if row == 0 {
		out := make([][]any, len(grid))
		copy(out, grid)
		return out, nil
	}
	if row > len(grid) {
		return nil, nil
	}
	return [][]any{grid[row-1]}, nil
}

func (f *fakeTransport) UpdateValues(_ context.Context, _ string, rng string, values [][]any) error {
	title, row := splitRange(rng)
	grid, ok := f.grids[title]
	if !ok {
		return &sheets.APIError{Status: 400, Message: "no such sheet"}
	}
	if row == 0 {
		row = 1
	}
	for i, vals := range values {
		idx := row - 1 + i
		for idx >= len(grid) {
			grid = append(grid, []any{})
		}
		grid[idx] = vals
	}
	f.grids[title] = grid
	return nil
}

func (f *fakeTransport) AppendValues(_ context.Context, _ string, rng string, values [][]any) error {
	title, _ := splitRange(rng)
	grid, ok := f.grids[title]
	if !ok {
		return &sheets.APIError{Status: 400, Message: "no such sheet"}
	}
	f.grids[title] = append(grid, values...)
	return nil
}

type decodedRequest struct {
	AddSheet *struct {
		Properties struct {
			Title string `json:"title"`
		} `json:"properties"`
	} `json:"addSheet"`
	DeleteDimension *struct {
		Range struct {
			SheetID    int64 `json:"sheetId"`
			StartIndex int   `json:"startIndex"`
			EndIndex   int   `json:"endIndex"`
		} `json:"range"`
	} `json:"deleteDimension"`
}

func (f *fakeTransport) BatchUpdate(_ context.Context, _ string, reqs []sheets.Request) error {
	for _, req := range reqs {
		raw, err := json.Marshal(req)
		if err != nil {
			return err
		}
		var dec decodedRequest
		if err := json.Unmarshal(raw, &dec); err != nil {
			return err
		}
		switch {
		case dec.AddSheet != nil:
			f.addSheet(dec.AddSheet.Properties.Title)
		case dec.DeleteDimension != nil:
			r := dec.DeleteDimension.Range
			for title, id := range f.sheetIDs {
				if id == r.SheetID {
					grid := f.grids[title]
					f.grids[title] = append(grid[:r.StartIndex:r.StartIndex], grid[r.EndIndex:]...)
				}
			}
		}
	}
	return nil
}

func (f *fakeTransport) Sheets(context.Context, string) ([]sheets.SheetProperties, error) {
	props := make([]sheets.SheetProperties, 0, len(f.sheetIDs))
	for title, id := range f.sheetIDs {
		props = append(props, sheets.SheetProperties{SheetID: id, Title: title})
	}
	return props, nil
}

func fptr(v float64) *float64 { return &v }

func iptr(v int) *int { return &v }
