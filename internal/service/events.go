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

const eventsTable = "EVENTS"

var eventsHeaders = []string{"id", "date", "type", "description", "quantity", "unit", "product", "note"}

func eventsSchema() rowstore.Schema[model.TankEvent] {
	return rowstore.Schema[model.TankEvent]{
		Table:   eventsTable,
		Headers: eventsHeaders,
		Encode: func(ev model.TankEvent) []any {
			return []any{
				ev.ID,
				ev.Date,
				string(ev.Type),
				ev.Description,
				rowstore.FloatCell(ev.Quantity),
				rowstore.OptCell(ev.Unit),
				rowstore.OptCell(ev.Product),
				rowstore.OptCell(ev.Note),
			}
		},
		Decode: func(row []any) (model.TankEvent, bool) {
			ev := model.TankEvent{
				ID:          rowstore.StringAt(row, 0),
				Date:        rowstore.StringAt(row, 1),
				Type:        model.EventType(rowstore.StringAt(row, 2)),
				Description: rowstore.StringAt(row, 3),
				Quantity:    rowstore.FloatAt(row, 4),
				Unit:        rowstore.StringAt(row, 5),
				Product:     rowstore.StringAt(row, 6),
				Note:        rowstore.StringAt(row, 7),
			}
			if ev.ID == "" || ev.Date == "" || ev.Description == "" || !ev.Type.Valid() {
				return model.TankEvent{}, false
			}
			return ev, true
		},
	}
}

// Events manages the husbandry event log.
type Events struct {
	store *rowstore.Store[model.TankEvent]
}

func NewEvents(tx rowstore.Transport, log *zap.Logger) *Events {
	return &Events{store: rowstore.New(tx, eventsSchema(), log)}
}

// EventInput is the caller-supplied part of an event.
type EventInput struct {
	Date        string
	Type        model.EventType
	Description string
	Quantity    *float64
	Unit        string
	Product     string
	Note        string
}

func (in EventInput) validate() (model.TankEvent, error) {
	date, ok := normalizeDateOrInstant(strings.TrimSpace(in.Date))
	if !ok {
		return model.TankEvent{}, fmt.Errorf("%w: invalid event date %q", errs.ErrValidation, in.Date)
	}
	if !in.Type.Valid() {
		return model.TankEvent{}, fmt.Errorf("%w: invalid event type %q", errs.ErrValidation, in.Type)
	}
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return model.TankEvent{}, fmt.Errorf("%w: description is required", errs.ErrValidation)
	}
	if in.Quantity != nil && *in.Quantity < 0 {
		return model.TankEvent{}, fmt.Errorf("%w: quantity must not be negative", errs.ErrValidation)
	}
	return model.TankEvent{
		Date:        date,
		Type:        in.Type,
		Description: description,
		Quantity:    in.Quantity,
		Unit:        strings.TrimSpace(in.Unit),
		Product:     strings.TrimSpace(in.Product),
		Note:        strings.TrimSpace(in.Note),
	}, nil
}

// List returns all events, newest first; events with unparsable dates sort
// last.
func (s *Events) List(ctx context.Context, spreadsheetID string) ([]model.TankEvent, error) {
	events, err := s.store.List(ctx, spreadsheetID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(events, func(i, j int) bool {
		return sortNewestFirst(events[i].Date, events[j].Date)
	})
	return events, nil
}

func (s *Events) Get(ctx context.Context, spreadsheetID, id string) (model.TankEvent, error) {
	return s.store.Get(ctx, spreadsheetID, id)
}

func (s *Events) Create(ctx context.Context, spreadsheetID string, in EventInput) (model.TankEvent, error) {
	ev, err := in.validate()
	if err != nil {
		return model.TankEvent{}, err
	}
	ev.ID = ident.New("ev")
	if err := s.store.Create(ctx, spreadsheetID, ev); err != nil {
		return model.TankEvent{}, err
	}
	return ev, nil
}

func (s *Events) Update(ctx context.Context, spreadsheetID, id string, in EventInput) (model.TankEvent, error) {
	if id == "" {
		return model.TankEvent{}, fmt.Errorf("%w: missing event id", errs.ErrValidation)
	}
	ev, err := in.validate()
	if err != nil {
		return model.TankEvent{}, err
	}
	ev.ID = id
	if err := s.store.Update(ctx, spreadsheetID, id, ev); err != nil {
		return model.TankEvent{}, err
	}
	return ev, nil
}

func (s *Events) Delete(ctx context.Context, spreadsheetID, id string) error {
	return s.store.Delete(ctx, spreadsheetID, id)
}
