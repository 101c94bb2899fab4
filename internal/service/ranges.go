package service

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/lavolpecheprogramma/tanklog/internal/model"
	"github.com/lavolpecheprogramma/tanklog/internal/rowstore"
)

const rangesTable = "PARAMETER_RANGES"

var rangesHeaders = []string{"parameter", "min_value", "max_value", "unit", "status", "color"}

var hexColorRe = regexp.MustCompile(`^#([0-9a-f]{3}|[0-9a-f]{4}|[0-9a-f]{6}|[0-9a-f]{8})$`)

// normalizeParameterKey is the case-insensitive identity of a parameter row.
func normalizeParameterKey(parameter string) string {
	return strings.ToLower(strings.TrimSpace(parameter))
}

// normalizeColor lowercases and validates a hex color; anything else is
// dropped.
func normalizeColor(color string) string {
	c := strings.ToLower(strings.TrimSpace(color))
	if !hexColorRe.MatchString(c) {
		return ""
	}
	return c
}

func rangesSchema() rowstore.Schema[model.ParameterRange] {
	return rowstore.Schema[model.ParameterRange]{
		Table:   rangesTable,
		Headers: rangesHeaders,
		Encode: func(r model.ParameterRange) []any {
			return []any{
				r.Parameter,
				rowstore.FloatCell(r.MinValue),
				rowstore.FloatCell(r.MaxValue),
				r.Unit,
				string(r.Status),
				rowstore.OptCell(r.Color),
			}
		},
		Decode: func(row []any) (model.ParameterRange, bool) {
			r := model.ParameterRange{
				Parameter: rowstore.StringAt(row, 0),
				MinValue:  rowstore.FloatAt(row, 1),
				MaxValue:  rowstore.FloatAt(row, 2),
				Unit:      rowstore.StringAt(row, 3),
				Status:    model.RangeStatus(rowstore.StringAt(row, 4)),
				Color:     normalizeColor(rowstore.StringAt(row, 5)),
			}
			if r.Parameter == "" || r.Unit == "" {
				return model.ParameterRange{}, false
			}
			if r.MinValue == nil && r.MaxValue == nil {
				return model.ParameterRange{}, false
			}
			// Legacy rows carry a tank type or nothing in the status column;
			// they fold into the acceptable band.
			if !r.Status.Valid() {
				r.Status = model.RangeAcceptable
			}
			return r, true
		},
	}
}

func statusRank(status model.RangeStatus) int {
	switch status {
	case model.RangeOptimal:
		return 0
	case model.RangeAcceptable:
		return 1
	case model.RangeCritical:
		return 2
	}
	return 3
}

// Ranges manages the parameter threshold table. Rows are keyed by
// (parameter, status), not by a generated id, so the table is always saved
// as a whole.
type Ranges struct {
	store *rowstore.Store[model.ParameterRange]
}

func NewRanges(tx rowstore.Transport, log *zap.Logger) *Ranges {
	return &Ranges{store: rowstore.New(tx, rangesSchema(), log)}
}

// List returns one effective range per parameter for single-band consumers,
// chosen by status priority acceptable, then optimal, then critical. The
// effective row borrows a color from a sibling band when it has none.
// Sorted by parameter name.
func (s *Ranges) List(ctx context.Context, spreadsheetID string) ([]model.ParameterRange, error) {
	all, err := s.store.List(ctx, spreadsheetID)
	if err != nil {
		return nil, err
	}

	byParam := make(map[string][]model.ParameterRange)
	order := make([]string, 0)
	for _, r := range all {
		key := normalizeParameterKey(r.Parameter)
		if _, ok := byParam[key]; !ok {
			order = append(order, key)
		}
		byParam[key] = append(byParam[key], r)
	}

	effective := make([]model.ParameterRange, 0, len(order))
	for _, key := range order {
		group := byParam[key]
		selected, ok := pickEffectiveRange(group)
		if !ok {
			continue
		}
		if selected.Color == "" {
			selected.Color = pickPreferredColor(group)
		}
		effective = append(effective, selected)
	}
	sort.SliceStable(effective, func(i, j int) bool {
		return effective[i].Parameter < effective[j].Parameter
	})
	return effective, nil
}

// ReadSheet returns every stored band sorted by parameter, then by status
// from optimal to critical. This is the editor view.
func (s *Ranges) ReadSheet(ctx context.Context, spreadsheetID string) ([]model.ParameterRange, error) {
	all, err := s.store.List(ctx, spreadsheetID)
	if err != nil {
		return nil, err
	}
	sortRanges(all)
	return all, nil
}

// RangeInput is one band as supplied by the caller. A blank status means
// acceptable.
type RangeInput struct {
	Parameter string
	MinValue  *float64
	MaxValue  *float64
	Unit      string
	Status    model.RangeStatus
	Color     string
}

// Save replaces the whole table with the given bands. Inputs missing a
// parameter, a unit or both bounds are skipped; duplicate (parameter,
// status) pairs keep the first occurrence. Rows beyond the new set are
// blanked so nothing stale survives. Returns the number of rows written.
func (s *Ranges) Save(ctx context.Context, spreadsheetID string, inputs []RangeInput) (int, error) {
	seen := make(map[string]struct{})
	deduped := make([]model.ParameterRange, 0, len(inputs))
	for _, in := range inputs {
		parameter := strings.TrimSpace(in.Parameter)
		unit := strings.TrimSpace(in.Unit)
		if parameter == "" || unit == "" {
			continue
		}
		if in.MinValue == nil && in.MaxValue == nil {
			continue
		}
		status := in.Status
		if !status.Valid() {
			status = model.RangeAcceptable
		}
		key := normalizeParameterKey(parameter) + ":" + string(status)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		deduped = append(deduped, model.ParameterRange{
			Parameter: parameter,
			MinValue:  in.MinValue,
			MaxValue:  in.MaxValue,
			Unit:      unit,
			Status:    status,
			Color:     normalizeColor(in.Color),
		})
	}
	sortRanges(deduped)

	if err := s.store.ReplaceAll(ctx, spreadsheetID, deduped); err != nil {
		return 0, err
	}
	return len(deduped), nil
}

func sortRanges(ranges []model.ParameterRange) {
	sort.SliceStable(ranges, func(i, j int) bool {
		if ranges[i].Parameter != ranges[j].Parameter {
			return ranges[i].Parameter < ranges[j].Parameter
		}
		return statusRank(ranges[i].Status) < statusRank(ranges[j].Status)
	})
}

// pickEffectiveRange selects the single representative band for legacy
// consumers: acceptable wins, then optimal, then critical.
func pickEffectiveRange(group []model.ParameterRange) (model.ParameterRange, bool) {
	for _, status := range []model.RangeStatus{model.RangeAcceptable, model.RangeOptimal, model.RangeCritical} {
		for _, r := range group {
			if r.Status == status {
				return r, true
			}
		}
	}
	return model.ParameterRange{}, false
}

// pickPreferredColor borrows a color from sibling bands, preferring the
// acceptable one.
func pickPreferredColor(group []model.ParameterRange) string {
	for _, status := range []model.RangeStatus{model.RangeAcceptable, model.RangeOptimal, model.RangeCritical} {
		for _, r := range group {
			if r.Status == status && r.Color != "" {
				return r.Color
			}
		}
	}
	for _, r := range group {
		if r.Color != "" {
			return r.Color
		}
	}
	return ""
}
