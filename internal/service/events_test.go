package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lavolpecheprogramma/tanklog/internal/errs"
	"github.com/lavolpecheprogramma/tanklog/internal/model"
)

func TestEvents_ListNewestFirst(t *testing.T) {
	t.Parallel()
	tx := newFakeTransport()
	svc := NewEvents(tx, zap.NewNop())
	ctx := context.Background()

	for _, date := range []string{"2024-01-01T10:00:00Z", "2024-03-01T10:00:00Z", "2024-02-01T10:00:00Z"} {
		_, err := svc.Create(ctx, sid, EventInput{
			Date:        date,
			Type:        model.EventWaterChange,
			Description: "weekly change",
		})
		require.NoError(t, err)
	}

	got, err := svc.List(ctx, sid)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "2024-03-01T10:00:00Z", got[0].Date)
	require.Equal(t, "2024-02-01T10:00:00Z", got[1].Date)
	require.Equal(t, "2024-01-01T10:00:00Z", got[2].Date)
}

func TestEvents_UnparsableDatesSortLast(t *testing.T) {
	t.Parallel()
	tx := newFakeTransport("EVENTS")
	tx.grids["EVENTS"] = [][]any{
		{"id", "date", "type", "description", "quantity", "unit", "product", "note"},
		{"ev_1", "not a date", "dosing", "mystery", "", "", "", ""},
		{"ev_2", "2024-05-01T08:00:00Z", "dosing", "iron", "", "", "", ""},
	}
	svc := NewEvents(tx, zap.NewNop())

	got, err := svc.List(context.Background(), sid)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "ev_2", got[0].ID)
	require.Equal(t, "ev_1", got[1].ID)
}

func TestEvents_CreateValidation(t *testing.T) {
	t.Parallel()
	svc := NewEvents(newFakeTransport(), zap.NewNop())
	ctx := context.Background()

	tests := []struct {
		name string
		in   EventInput
	}{
		{name: "bad date", in: EventInput{Date: "yesterday", Type: model.EventDosing, Description: "x"}},
		{name: "bad type", in: EventInput{Date: "2024-01-01T00:00:00Z", Type: "feeding", Description: "x"}},
		{name: "empty description", in: EventInput{Date: "2024-01-01T00:00:00Z", Type: model.EventDosing, Description: "  "}},
		{name: "negative quantity", in: EventInput{Date: "2024-01-01T00:00:00Z", Type: model.EventDosing, Description: "x", Quantity: fptr(-1)}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := svc.Create(ctx, sid, tt.in)
			require.ErrorIs(t, err, errs.ErrValidation)
		})
	}
}

func TestEvents_RoundTrip(t *testing.T) {
	t.Parallel()
	tx := newFakeTransport()
	svc := NewEvents(tx, zap.NewNop())
	ctx := context.Background()

	created, err := svc.Create(ctx, sid, EventInput{
		Date:        "2024-06-10T09:30:00Z",
		Type:        model.EventDosing,
		Description: "alkalinity dose",
		Quantity:    fptr(12.5),
		Unit:        "ml",
		Product:     "All-For-Reef",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := svc.Get(ctx, sid, created.ID)
	require.NoError(t, err)
	require.Equal(t, created, got)

	updated, err := svc.Update(ctx, sid, created.ID, EventInput{
		Date:        created.Date,
		Type:        model.EventDosing,
		Description: "alkalinity dose",
		Quantity:    fptr(15),
		Unit:        "ml",
	})
	require.NoError(t, err)
	require.Equal(t, 15.0, *updated.Quantity)
	require.Empty(t, updated.Product)

	require.NoError(t, svc.Delete(ctx, sid, created.ID))
	_, err = svc.Get(ctx, sid, created.ID)
	require.ErrorIs(t, err, errs.ErrNotFound)

	// A zero quantity is a value, not an absent one.
	zeroed, err := svc.Create(ctx, sid, EventInput{
		Date:        "2024-06-11",
		Type:        model.EventMaintenance,
		Description: "skimmer cleaned dry",
		Quantity:    fptr(0),
	})
	require.NoError(t, err)
	got, err = svc.Get(ctx, sid, zeroed.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Quantity)
	require.Equal(t, 0.0, *got.Quantity)
}

func TestEvents_ListDropsUnknownTypes(t *testing.T) {
	t.Parallel()
	tx := newFakeTransport("EVENTS")
	tx.grids["EVENTS"] = [][]any{
		{"id", "date", "type", "description", "quantity", "unit", "product", "note"},
		{"ev_1", "2024-01-01T00:00:00Z", "feeding", "legacy type", "", "", "", ""},
		{"ev_2", "2024-01-02T00:00:00Z", "maintenance", "filter clean", "", "", "", ""},
	}
	svc := NewEvents(tx, zap.NewNop())

	got, err := svc.List(context.Background(), sid)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "ev_2", got[0].ID)
}
