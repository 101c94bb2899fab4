// Package rowstore maps typed records onto spreadsheet rows: one sheet per
// table, a canonical header in row 1, the record id in the first column, and
// linear-scan lookup over the untyped grid. It is the single engine behind
// every domain table.
package rowstore

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/lavolpecheprogramma/tanklog/internal/errs"
	"github.com/lavolpecheprogramma/tanklog/internal/sheets"
)

// Transport is the narrow slice of the spreadsheet API the store needs.
// *sheets.Client satisfies it.
type Transport interface {
	Values(ctx context.Context, spreadsheetID, rng string) ([][]any, error)
	UpdateValues(ctx context.Context, spreadsheetID, rng string, values [][]any) error
	AppendValues(ctx context.Context, spreadsheetID, rng string, values [][]any) error
	BatchUpdate(ctx context.Context, spreadsheetID string, reqs []sheets.Request) error
	Sheets(ctx context.Context, spreadsheetID string) ([]sheets.SheetProperties, error)
}

// Provisioning says what EnsureTable does when the sheet is absent.
type Provisioning int

const (
	// ProvisionCreate adds the sheet on first use.
	ProvisionCreate Provisioning = iota
	// ProvisionRequire treats an absent sheet as a fatal schema error; the
	// sheet is expected to exist before this store ever touches the document.
	ProvisionRequire
)

// Schema describes one table: its sheet title, fixed header layout and the
// record codec. The first column always holds the record id.
type Schema[T any] struct {
	Table        string
	Headers      []string
	KeyCols      []int // header cells compared during header detection; first 3 when empty
	Provisioning Provisioning

	Encode func(T) []any
	Decode func(row []any) (T, bool)
}

// Store is a generic CRUD engine over one table. Row position is not a
// stable identifier: every mutation re-resolves the row by id immediately
// before writing, because deletions shift all subsequent positions.
type Store[T any] struct {
	tx     Transport
	schema Schema[T]
	log    *zap.Logger

	mu      sync.Mutex
	ensured map[string]struct{} // spreadsheet ids provisioned by this store
}

// New constructs a Store for the given schema.
func New[T any](tx Transport, schema Schema[T], log *zap.Logger) *Store[T] {
	return &Store[T]{
		tx:      tx,
		schema:  schema,
		log:     log,
		ensured: make(map[string]struct{}),
	}
}

// Table returns the sheet title this store operates on.
func (s *Store[T]) Table() string { return s.schema.Table }

func (s *Store[T]) lastCol() string { return columnLabel(len(s.schema.Headers)) }

func (s *Store[T]) dataRange() string {
	return fmt.Sprintf("%s!A:%s", s.schema.Table, s.lastCol())
}

func (s *Store[T]) headerRange() string {
	return fmt.Sprintf("%s!A1:%s1", s.schema.Table, s.lastCol())
}

func (s *Store[T]) rowRange(row int) string {
	return fmt.Sprintf("%s!A%d:%s%d", s.schema.Table, row, s.lastCol(), row)
}

// EnsureTable verifies the sheet exists (creating it when provisioning
// allows) and unconditionally rewrites the header row, healing accidental
// header edits. The whole body is memoized per spreadsheet id for the
// lifetime of this store, so repeated calls skip the network round-trips;
// Invalidate re-arms it.
func (s *Store[T]) EnsureTable(ctx context.Context, spreadsheetID string) error {
	if spreadsheetID == "" {
		return fmt.Errorf("%w: missing spreadsheet id", errs.ErrValidation)
	}

	s.mu.Lock()
	if _, ok := s.ensured[spreadsheetID]; ok {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	props, err := s.tx.Sheets(ctx, spreadsheetID)
	if err != nil {
		return err
	}
	exists := false
	for _, p := range props {
		if p.Title == s.schema.Table {
			exists = true
			break
		}
	}

	if !exists {
		if s.schema.Provisioning == ProvisionRequire {
			return fmt.Errorf("%w: %s", errs.ErrSchemaMissing, s.schema.Table)
		}
		if err := s.tx.BatchUpdate(ctx, spreadsheetID, []sheets.Request{sheets.AddSheet(s.schema.Table)}); err != nil {
			return err
		}
		s.log.Info("created table", zap.String("table", s.schema.Table), zap.String("spreadsheet", spreadsheetID))
	}

	header := make([]any, len(s.schema.Headers))
	for i, h := range s.schema.Headers {
		header[i] = h
	}
	if err := s.tx.UpdateValues(ctx, spreadsheetID, s.headerRange(), [][]any{header}); err != nil {
		return err
	}

	s.mu.Lock()
	s.ensured[spreadsheetID] = struct{}{}
	s.mu.Unlock()
	return nil
}

// Invalidate evicts the provisioning memo for a spreadsheet so the next
// operation re-verifies the table. Wired to the transport's auth-error hook.
func (s *Store[T]) Invalidate(spreadsheetID string) {
	s.mu.Lock()
	delete(s.ensured, spreadsheetID)
	s.mu.Unlock()
}

// InvalidateAll evicts every provisioning memo.
func (s *Store[T]) InvalidateAll() {
	s.mu.Lock()
	s.ensured = make(map[string]struct{})
	s.mu.Unlock()
}

func (s *Store[T]) looksLikeHeader(row []any) bool {
	if len(row) == 0 {
		return false
	}
	cols := s.schema.KeyCols
	if len(cols) == 0 {
		n := min(3, len(s.schema.Headers))
		for i := 0; i < n; i++ {
			cols = append(cols, i)
		}
	}
	for _, i := range cols {
		if i >= len(s.schema.Headers) {
			continue
		}
		if !strings.EqualFold(StringAt(row, i), s.schema.Headers[i]) {
			return false
		}
	}
	return true
}

// FindRowNumber resolves the 1-based row of the record with the given id by
// scanning the identity column. It must be called immediately before any
// mutation and never cached: a concurrent delete shifts every later row.
func (s *Store[T]) FindRowNumber(ctx context.Context, spreadsheetID, id string) (int, error) {
	if err := s.EnsureTable(ctx, spreadsheetID); err != nil {
		return 0, err
	}

	rows, err := s.tx.Values(ctx, spreadsheetID, s.dataRange())
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("%w: %s %q", errs.ErrNotFound, s.schema.Table, id)
	}

	start := 0
	if s.looksLikeHeader(rows[0]) {
		start = 1
	}
	for i := start; i < len(rows); i++ {
		if IsBlankRow(rows[i]) {
			continue
		}
		if StringAt(rows[i], 0) == id {
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("%w: %s %q", errs.ErrNotFound, s.schema.Table, id)
}

// List reads the whole table and decodes every non-blank data row. Rows the
// codec rejects are dropped as corrupt or legacy data, not surfaced as
// errors. Order is the sheet's row order; callers apply their own sort.
func (s *Store[T]) List(ctx context.Context, spreadsheetID string) ([]T, error) {
	if err := s.EnsureTable(ctx, spreadsheetID); err != nil {
		return nil, err
	}

	rows, err := s.tx.Values(ctx, spreadsheetID, s.dataRange())
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []T{}, nil
	}

	if s.looksLikeHeader(rows[0]) {
		rows = rows[1:]
	}

	records := make([]T, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		if IsBlankRow(row) {
			continue
		}
		rec, ok := s.schema.Decode(row)
		if !ok {
			dropped++
			continue
		}
		records = append(records, rec)
	}
	if dropped > 0 {
		s.log.Debug("dropped undecodable rows", zap.String("table", s.schema.Table), zap.Int("count", dropped))
	}
	return records, nil
}

// Get resolves one record by id.
func (s *Store[T]) Get(ctx context.Context, spreadsheetID, id string) (T, error) {
	var zero T
	row, err := s.FindRowNumber(ctx, spreadsheetID, id)
	if err != nil {
		return zero, err
	}
	rows, err := s.tx.Values(ctx, spreadsheetID, s.rowRange(row))
	if err != nil {
		return zero, err
	}
	if len(rows) == 0 || IsBlankRow(rows[0]) {
		return zero, fmt.Errorf("%w: %s %q", errs.ErrNotFound, s.schema.Table, id)
	}
	rec, ok := s.schema.Decode(rows[0])
	if !ok {
		return zero, fmt.Errorf("%w: %s %q is not decodable", errs.ErrNotFound, s.schema.Table, id)
	}
	return rec, nil
}

// Create appends one encoded record as a new row. Append inserts rows, so
// existing data is never overwritten.
func (s *Store[T]) Create(ctx context.Context, spreadsheetID string, rec T) error {
	return s.CreateBatch(ctx, spreadsheetID, []T{rec})
}

// CreateBatch appends several records in one call (used by water test
// sessions, which write one row per measurement).
func (s *Store[T]) CreateBatch(ctx context.Context, spreadsheetID string, recs []T) error {
	if err := s.EnsureTable(ctx, spreadsheetID); err != nil {
		return err
	}
	values := make([][]any, len(recs))
	for i, rec := range recs {
		values[i] = s.schema.Encode(rec)
	}
	return s.tx.AppendValues(ctx, spreadsheetID, s.dataRange(), values)
}

// Update overwrites the record's current row with the encoded replacement.
func (s *Store[T]) Update(ctx context.Context, spreadsheetID, id string, rec T) error {
	row, err := s.FindRowNumber(ctx, spreadsheetID, id)
	if err != nil {
		return err
	}
	return s.tx.UpdateValues(ctx, spreadsheetID, s.rowRange(row), [][]any{s.schema.Encode(rec)})
}

// ReplaceAll overwrites the whole table body with the given records. When
// the new set is shorter than the current one the remaining rows are
// overwritten with blanks so no stale records survive below the new data.
func (s *Store[T]) ReplaceAll(ctx context.Context, spreadsheetID string, recs []T) error {
	if err := s.EnsureTable(ctx, spreadsheetID); err != nil {
		return err
	}

	existing, err := s.tx.Values(ctx, spreadsheetID, s.dataRange())
	if err != nil {
		return err
	}
	prior := len(existing)
	if prior > 0 && s.looksLikeHeader(existing[0]) {
		prior--
	}

	values := make([][]any, 0, len(recs))
	for _, rec := range recs {
		values = append(values, s.schema.Encode(rec))
	}
	for len(values) < prior {
		blank := make([]any, len(s.schema.Headers))
		for i := range blank {
			blank[i] = ""
		}
		values = append(values, blank)
	}
	if len(values) == 0 {
		return nil
	}

	rng := fmt.Sprintf("%s!A2:%s%d", s.schema.Table, s.lastCol(), 1+len(values))
	return s.tx.UpdateValues(ctx, spreadsheetID, rng, values)
}

// Delete removes the record's row structurally, shifting later rows up.
func (s *Store[T]) Delete(ctx context.Context, spreadsheetID, id string) error {
	row, err := s.FindRowNumber(ctx, spreadsheetID, id)
	if err != nil {
		return err
	}
	sheetID, err := s.sheetID(ctx, spreadsheetID)
	if err != nil {
		return err
	}
	return s.tx.BatchUpdate(ctx, spreadsheetID, []sheets.Request{sheets.DeleteRows(sheetID, row-1, row)})
}

func (s *Store[T]) sheetID(ctx context.Context, spreadsheetID string) (int64, error) {
	props, err := s.tx.Sheets(ctx, spreadsheetID)
	if err != nil {
		return 0, err
	}
	for _, p := range props {
		if p.Title == s.schema.Table {
			return p.SheetID, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", errs.ErrSchemaMissing, s.schema.Table)
}

// columnLabel converts a 1-based column count to its A1 letter ("A", "H", "AA").
func columnLabel(n int) string {
	label := ""
	for n > 0 {
		n--
		label = string(rune('A'+n%26)) + label
		n /= 26
	}
	return label
}
