package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/lavolpecheprogramma/tanklog/internal/errs"
	"github.com/lavolpecheprogramma/tanklog/internal/ident"
	"github.com/lavolpecheprogramma/tanklog/internal/model"
	"github.com/lavolpecheprogramma/tanklog/internal/rowstore"
)

const waterTestsTable = "WATER_TESTS"

var waterTestsHeaders = []string{"id", "test_group_id", "date", "parameter", "value", "unit", "method", "note"}

// canonicalParameterOrder is the display order for measurements inside a
// session; parameters not listed sort alphabetically after these.
var canonicalParameterOrder = []string{
	"Temp", "Salinity", "pH", "KH", "GH", "Ca", "Mg", "NH3", "NO2", "NO3", "PO4", "Fe",
}

func parameterRank(parameter string) int {
	for i, known := range canonicalParameterOrder {
		if strings.EqualFold(parameter, known) {
			return i
		}
	}
	return len(canonicalParameterOrder)
}

func waterTestsSchema() rowstore.Schema[model.WaterTestMeasurement] {
	return rowstore.Schema[model.WaterTestMeasurement]{
		Table:   waterTestsTable,
		Headers: waterTestsHeaders,
		Encode: func(m model.WaterTestMeasurement) []any {
			return []any{
				m.ID,
				m.GroupID,
				m.Date,
				m.Parameter,
				m.Value,
				m.Unit,
				rowstore.OptCell(m.Method),
				rowstore.OptCell(m.Note),
			}
		},
		Decode: func(row []any) (model.WaterTestMeasurement, bool) {
			value := rowstore.FloatAt(row, 4)
			m := model.WaterTestMeasurement{
				ID:        rowstore.StringAt(row, 0),
				GroupID:   rowstore.StringAt(row, 1),
				Date:      rowstore.StringAt(row, 2),
				Parameter: rowstore.StringAt(row, 3),
				Unit:      rowstore.StringAt(row, 5),
				Method:    rowstore.StringAt(row, 6),
				Note:      rowstore.StringAt(row, 7),
			}
			if m.ID == "" || m.GroupID == "" || m.Date == "" || m.Parameter == "" || value == nil {
				return model.WaterTestMeasurement{}, false
			}
			m.Value = *value
			return m, true
		},
	}
}

// WaterTests manages parameter measurements grouped into sampling sessions.
type WaterTests struct {
	store *rowstore.Store[model.WaterTestMeasurement]
}

func NewWaterTests(tx rowstore.Transport, log *zap.Logger) *WaterTests {
	return &WaterTests{store: rowstore.New(tx, waterTestsSchema(), log)}
}

// MeasurementInput is one reading inside a new session.
type MeasurementInput struct {
	Parameter string
	Value     float64
	Unit      string
}

// SessionInput describes one sampling sitting.
type SessionInput struct {
	Date         string
	Measurements []MeasurementInput
	Method       string
	Note         string
}

// CreateSession writes one row per valid measurement, all sharing a fresh
// group id. Measurements with negative values are skipped; at least one
// valid measurement is required.
func (s *WaterTests) CreateSession(ctx context.Context, spreadsheetID string, in SessionInput) (model.WaterTestSession, error) {
	date, ok := normalizeDateOrInstant(strings.TrimSpace(in.Date))
	if !ok {
		return model.WaterTestSession{}, fmt.Errorf("%w: invalid test date %q", errs.ErrValidation, in.Date)
	}
	method := strings.TrimSpace(in.Method)
	note := strings.TrimSpace(in.Note)

	groupID := ident.New("tg")
	measurements := make([]model.WaterTestMeasurement, 0, len(in.Measurements))
	for _, m := range in.Measurements {
		parameter := strings.TrimSpace(m.Parameter)
		if parameter == "" || m.Value < 0 {
			continue
		}
		measurements = append(measurements, model.WaterTestMeasurement{
			ID:        ident.New("m"),
			GroupID:   groupID,
			Date:      date,
			Parameter: parameter,
			Value:     m.Value,
			Unit:      strings.TrimSpace(m.Unit),
			Method:    method,
			Note:      note,
		})
	}
	if len(measurements) == 0 {
		return model.WaterTestSession{}, fmt.Errorf("%w: at least one measurement is required", errs.ErrValidation)
	}

	if err := s.store.CreateBatch(ctx, spreadsheetID, measurements); err != nil {
		return model.WaterTestSession{}, err
	}
	return model.WaterTestSession{
		GroupID:      groupID,
		Date:         date,
		Method:       method,
		Note:         note,
		Measurements: measurements,
	}, nil
}

// ListMeasurements returns every measurement in sheet order.
func (s *WaterTests) ListMeasurements(ctx context.Context, spreadsheetID string) ([]model.WaterTestMeasurement, error) {
	return s.store.List(ctx, spreadsheetID)
}

// ListSessions groups measurements by group id. A session's date is the
// latest measurement date in the group; method and note are the first
// non-empty values seen. Sessions come newest first, measurements in
// canonical parameter order then alphabetically.
func (s *WaterTests) ListSessions(ctx context.Context, spreadsheetID string) ([]model.WaterTestSession, error) {
	measurements, err := s.store.List(ctx, spreadsheetID)
	if err != nil {
		return nil, err
	}

	byGroup := make(map[string]*model.WaterTestSession)
	order := make([]string, 0)
	for _, m := range measurements {
		sess, ok := byGroup[m.GroupID]
		if !ok {
			sess = &model.WaterTestSession{GroupID: m.GroupID, Date: m.Date}
			byGroup[m.GroupID] = sess
			order = append(order, m.GroupID)
		}
		if sessionDateLess(sess.Date, m.Date) {
			sess.Date = m.Date
		}
		if sess.Method == "" {
			sess.Method = m.Method
		}
		if sess.Note == "" {
			sess.Note = m.Note
		}
		sess.Measurements = append(sess.Measurements, m)
	}

	sessions := make([]model.WaterTestSession, 0, len(byGroup))
	for _, groupID := range order {
		sess := byGroup[groupID]
		sort.SliceStable(sess.Measurements, func(i, j int) bool {
			ri, rj := parameterRank(sess.Measurements[i].Parameter), parameterRank(sess.Measurements[j].Parameter)
			if ri != rj {
				return ri < rj
			}
			return strings.ToLower(sess.Measurements[i].Parameter) < strings.ToLower(sess.Measurements[j].Parameter)
		})
		sessions = append(sessions, *sess)
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return sortNewestFirst(sessions[i].Date, sessions[j].Date)
	})
	return sessions, nil
}

// DeleteMeasurement removes one reading.
func (s *WaterTests) DeleteMeasurement(ctx context.Context, spreadsheetID, id string) error {
	return s.store.Delete(ctx, spreadsheetID, id)
}

// DeleteSession removes every measurement of a group. Rows are re-resolved
// one at a time because each deletion shifts the positions below it.
func (s *WaterTests) DeleteSession(ctx context.Context, spreadsheetID, groupID string) error {
	if groupID == "" {
		return fmt.Errorf("%w: missing test group id", errs.ErrValidation)
	}
	measurements, err := s.store.List(ctx, spreadsheetID)
	if err != nil {
		return err
	}
	found := false
	for _, m := range measurements {
		if m.GroupID != groupID {
			continue
		}
		found = true
		if err := s.store.Delete(ctx, spreadsheetID, m.ID); err != nil {
			return err
		}
	}
	if !found {
		return fmt.Errorf("%w: test group %q", errs.ErrNotFound, groupID)
	}
	return nil
}

// sessionDateLess reports whether candidate is a later date than current.
func sessionDateLess(current, candidate string) bool {
	tc, okC := eventTime(current)
	tn, okN := eventTime(candidate)
	if !okN {
		return false
	}
	if !okC {
		return true
	}
	return tn.After(tc)
}
