package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lavolpecheprogramma/tanklog/internal/errs"
)

func TestReminders_MarkDoneRollsOverPastMissedIntervals(t *testing.T) {
	t.Parallel()
	tx := newFakeTransport("REMINDERS")
	tx.grids["REMINDERS"] = [][]any{
		{"id", "title", "next_due", "repeat_every_days", "last_done", "notes"},
		{"r_1", "Water change", "2024-01-10", 7.0, "", ""},
	}
	svc := NewReminders(tx, zap.NewNop())

	doneAt := time.Date(2024, 1, 25, 10, 0, 0, 0, time.Local)
	got, err := svc.MarkDone(context.Background(), sid, "r_1", doneAt)
	require.NoError(t, err)

	// Advance from the previous due date by whole intervals until strictly
	// after completion: 01-17, 01-24 are not after 01-25; 01-31 is.
	require.Equal(t, "2024-01-31", got.NextDue)
	require.Equal(t, doneAt.UTC().Format(time.RFC3339), got.LastDone)
}

func TestReminders_MarkDonePreservesInstantRepresentation(t *testing.T) {
	t.Parallel()
	tx := newFakeTransport("REMINDERS")
	tx.grids["REMINDERS"] = [][]any{
		{"id", "title", "next_due", "repeat_every_days", "last_done", "notes"},
		{"r_1", "Dose trace elements", "2024-02-01T08:00:00Z", 3.0, "", ""},
	}
	svc := NewReminders(tx, zap.NewNop())

	doneAt := time.Date(2024, 2, 2, 12, 0, 0, 0, time.UTC)
	got, err := svc.MarkDone(context.Background(), sid, "r_1", doneAt)
	require.NoError(t, err)

	// An instant stays an instant.
	require.False(t, isDateOnly(got.NextDue))
	next, ok := parseInstant(got.NextDue)
	require.True(t, ok)
	require.True(t, next.After(doneAt))
}

func TestReminders_MarkDoneOneShotKeepsDueDate(t *testing.T) {
	t.Parallel()
	tx := newFakeTransport("REMINDERS")
	tx.grids["REMINDERS"] = [][]any{
		{"id", "title", "next_due", "repeat_every_days", "last_done", "notes"},
		{"r_1", "Replace filter sock", "2024-03-01", "", "", ""},
	}
	svc := NewReminders(tx, zap.NewNop())

	doneAt := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)
	got, err := svc.MarkDone(context.Background(), sid, "r_1", doneAt)
	require.NoError(t, err)
	require.Equal(t, "2024-03-01", got.NextDue)
	require.NotEmpty(t, got.LastDone)
}

func TestReminders_ListSoonestFirst(t *testing.T) {
	t.Parallel()
	tx := newFakeTransport("REMINDERS")
	tx.grids["REMINDERS"] = [][]any{
		{"id", "title", "next_due", "repeat_every_days", "last_done", "notes"},
		{"r_1", "Later", "2024-06-20", "", "", ""},
		{"r_2", "Sooner", "2024-06-05T08:00:00Z", "", "", ""},
		{"r_3", "Broken", "someday", "", "", ""},
	}
	svc := NewReminders(tx, zap.NewNop())

	got, err := svc.List(context.Background(), sid)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "r_2", got[0].ID)
	require.Equal(t, "r_1", got[1].ID)
	require.Equal(t, "r_3", got[2].ID)
}

func TestReminders_CreateValidation(t *testing.T) {
	t.Parallel()
	svc := NewReminders(newFakeTransport(), zap.NewNop())
	ctx := context.Background()

	_, err := svc.Create(ctx, sid, ReminderInput{Title: "", NextDue: "2024-06-01"})
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = svc.Create(ctx, sid, ReminderInput{Title: "Test", NextDue: "whenever"})
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = svc.Create(ctx, sid, ReminderInput{Title: "Test", NextDue: "2024-06-01", RepeatEveryDays: iptr(0)})
	require.ErrorIs(t, err, errs.ErrValidation)

	created, err := svc.Create(ctx, sid, ReminderInput{Title: "Test kit calibration", NextDue: "2024-06-01", RepeatEveryDays: iptr(30)})
	require.NoError(t, err)
	require.Equal(t, 30, *created.RepeatEveryDays)
}

func TestReminders_SetDoneTouchesOnlyLastDone(t *testing.T) {
	t.Parallel()
	tx := newFakeTransport("REMINDERS")
	tx.grids["REMINDERS"] = [][]any{
		{"id", "title", "next_due", "repeat_every_days", "last_done", "notes"},
		{"r_1", "Glass cleaning", "2024-04-01", 14.0, "", "magnet cleaner"},
	}
	svc := NewReminders(tx, zap.NewNop())
	ctx := context.Background()

	doneAt := time.Date(2024, 3, 30, 18, 0, 0, 0, time.UTC)
	got, err := svc.SetDone(ctx, sid, "r_1", doneAt)
	require.NoError(t, err)
	require.Equal(t, "2024-04-01", got.NextDue)
	require.Equal(t, "2024-03-30T18:00:00Z", got.LastDone)
	require.Equal(t, "magnet cleaner", got.Notes)

	// Zero time clears the completion mark.
	got, err = svc.SetDone(ctx, sid, "r_1", time.Time{})
	require.NoError(t, err)
	require.Empty(t, got.LastDone)
}
