package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lavolpecheprogramma/tanklog/internal/errs"
	"github.com/lavolpecheprogramma/tanklog/internal/ident"
	"github.com/lavolpecheprogramma/tanklog/internal/model"
	"github.com/lavolpecheprogramma/tanklog/internal/rowstore"
)

const remindersTable = "REMINDERS"

var remindersHeaders = []string{"id", "title", "next_due", "repeat_every_days", "last_done", "notes"}

func remindersSchema() rowstore.Schema[model.TankReminder] {
	return rowstore.Schema[model.TankReminder]{
		Table:   remindersTable,
		Headers: remindersHeaders,
		Encode: func(r model.TankReminder) []any {
			return []any{
				r.ID,
				r.Title,
				r.NextDue,
				rowstore.IntCell(r.RepeatEveryDays),
				rowstore.OptCell(r.LastDone),
				rowstore.OptCell(r.Notes),
			}
		},
		Decode: func(row []any) (model.TankReminder, bool) {
			r := model.TankReminder{
				ID:              rowstore.StringAt(row, 0),
				Title:           rowstore.StringAt(row, 1),
				NextDue:         rowstore.StringAt(row, 2),
				RepeatEveryDays: rowstore.IntAt(row, 3),
				LastDone:        rowstore.StringAt(row, 4),
				Notes:           rowstore.StringAt(row, 5),
			}
			if r.ID == "" || r.Title == "" || r.NextDue == "" {
				return model.TankReminder{}, false
			}
			if r.RepeatEveryDays != nil && *r.RepeatEveryDays <= 0 {
				r.RepeatEveryDays = nil
			}
			return r, true
		},
	}
}

// Reminders manages scheduled tank tasks.
type Reminders struct {
	store *rowstore.Store[model.TankReminder]
	now   func() time.Time
}

func NewReminders(tx rowstore.Transport, log *zap.Logger) *Reminders {
	return &Reminders{store: rowstore.New(tx, remindersSchema(), log), now: time.Now}
}

// ReminderInput is the caller-supplied part of a reminder.
type ReminderInput struct {
	Title           string
	NextDue         string
	RepeatEveryDays *int
	Notes           string
}

func (in ReminderInput) validate() (model.TankReminder, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return model.TankReminder{}, fmt.Errorf("%w: title is required", errs.ErrValidation)
	}
	nextDue, ok := normalizeDateOrInstant(strings.TrimSpace(in.NextDue))
	if !ok {
		return model.TankReminder{}, fmt.Errorf("%w: invalid next due date %q", errs.ErrValidation, in.NextDue)
	}
	if in.RepeatEveryDays != nil && *in.RepeatEveryDays <= 0 {
		return model.TankReminder{}, fmt.Errorf("%w: repeat interval must be positive", errs.ErrValidation)
	}
	return model.TankReminder{
		Title:           title,
		NextDue:         nextDue,
		RepeatEveryDays: in.RepeatEveryDays,
		Notes:           strings.TrimSpace(in.Notes),
	}, nil
}

// List returns all reminders soonest due first; date-only due values compare
// at the end of their local day.
func (s *Reminders) List(ctx context.Context, spreadsheetID string) ([]model.TankReminder, error) {
	reminders, err := s.store.List(ctx, spreadsheetID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(reminders, func(i, j int) bool {
		ti, okI := dueTime(reminders[i].NextDue)
		tj, okJ := dueTime(reminders[j].NextDue)
		switch {
		case okI && okJ:
			return ti.Before(tj)
		case okI:
			return true
		default:
			return false
		}
	})
	return reminders, nil
}

func (s *Reminders) Get(ctx context.Context, spreadsheetID, id string) (model.TankReminder, error) {
	return s.store.Get(ctx, spreadsheetID, id)
}

func (s *Reminders) Create(ctx context.Context, spreadsheetID string, in ReminderInput) (model.TankReminder, error) {
	r, err := in.validate()
	if err != nil {
		return model.TankReminder{}, err
	}
	r.ID = ident.New("r")
	if err := s.store.Create(ctx, spreadsheetID, r); err != nil {
		return model.TankReminder{}, err
	}
	return r, nil
}

func (s *Reminders) Update(ctx context.Context, spreadsheetID, id string, in ReminderInput) (model.TankReminder, error) {
	if id == "" {
		return model.TankReminder{}, fmt.Errorf("%w: missing reminder id", errs.ErrValidation)
	}
	current, err := s.store.Get(ctx, spreadsheetID, id)
	if err != nil {
		return model.TankReminder{}, err
	}
	r, err := in.validate()
	if err != nil {
		return model.TankReminder{}, err
	}
	r.ID = id
	r.LastDone = current.LastDone
	if err := s.store.Update(ctx, spreadsheetID, id, r); err != nil {
		return model.TankReminder{}, err
	}
	return r, nil
}

// MarkDone records a completion and, for repeating reminders, advances the
// due date from the previous due by whole repeat intervals until it lands
// strictly after the completion time. Whether the due value was date-only or
// an instant is preserved.
func (s *Reminders) MarkDone(ctx context.Context, spreadsheetID, id string, doneAt time.Time) (model.TankReminder, error) {
	if doneAt.IsZero() {
		doneAt = s.now()
	}
	r, err := s.store.Get(ctx, spreadsheetID, id)
	if err != nil {
		return model.TankReminder{}, err
	}

	r.LastDone = doneAt.UTC().Format(time.RFC3339)

	if r.RepeatEveryDays != nil {
		base, ok := dueTime(r.NextDue)
		if !ok {
			base = doneAt
		}
		next := addDaysLocal(base, *r.RepeatEveryDays)
		for !next.After(doneAt) {
			next = addDaysLocal(next, *r.RepeatEveryDays)
		}
		if isDateOnly(r.NextDue) {
			r.NextDue = next.In(time.Local).Format("2006-01-02")
		} else {
			r.NextDue = next.UTC().Format(time.RFC3339)
		}
	}

	if err := s.store.Update(ctx, spreadsheetID, id, r); err != nil {
		return model.TankReminder{}, err
	}
	return r, nil
}

// SetDone overwrites only the completion timestamp, leaving the schedule
// untouched.
func (s *Reminders) SetDone(ctx context.Context, spreadsheetID, id string, doneAt time.Time) (model.TankReminder, error) {
	r, err := s.store.Get(ctx, spreadsheetID, id)
	if err != nil {
		return model.TankReminder{}, err
	}
	if doneAt.IsZero() {
		r.LastDone = ""
	} else {
		r.LastDone = doneAt.UTC().Format(time.RFC3339)
	}
	if err := s.store.Update(ctx, spreadsheetID, id, r); err != nil {
		return model.TankReminder{}, err
	}
	return r, nil
}

func (s *Reminders) Delete(ctx context.Context, spreadsheetID, id string) error {
	return s.store.Delete(ctx, spreadsheetID, id)
}

// addDaysLocal advances by calendar days in local time, so the result lands
// on the same wall-clock time across DST changes.
func addDaysLocal(t time.Time, days int) time.Time {
	return t.In(time.Local).AddDate(0, 0, days)
}
