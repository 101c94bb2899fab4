package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lavolpecheprogramma/tanklog/internal/errs"
	"github.com/lavolpecheprogramma/tanklog/internal/model"
)

func TestLivestock_MissingSheetIsSchemaError(t *testing.T) {
	t.Parallel()
	svc := NewLivestock(newFakeTransport(), zap.NewNop())

	_, err := svc.List(context.Background(), sid)
	require.ErrorIs(t, err, errs.ErrSchemaMissing)
}

func TestLivestock_DateOnlyValidation(t *testing.T) {
	t.Parallel()
	svc := NewLivestock(newFakeTransport("LIVESTOCK"), zap.NewNop())
	ctx := context.Background()

	base := LivestockInput{
		NameCommon: "Clownfish",
		Category:   model.CategoryFish,
		Status:     model.StatusActive,
	}

	in := base
	in.DateAdded = "2024-06-01T00:00:00Z"
	_, err := svc.Create(ctx, sid, in)
	require.ErrorIs(t, err, errs.ErrValidation)

	in = base
	in.DateAdded = "2024-06-01"
	in.DateRemoved = "june"
	_, err = svc.Create(ctx, sid, in)
	require.ErrorIs(t, err, errs.ErrValidation)

	in = base
	in.DateAdded = "2024-06-01"
	created, err := svc.Create(ctx, sid, in)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
}

func TestLivestock_RoundTripAndSheetOrder(t *testing.T) {
	t.Parallel()
	tx := newFakeTransport("LIVESTOCK")
	svc := NewLivestock(tx, zap.NewNop())
	ctx := context.Background()

	first, err := svc.Create(ctx, sid, LivestockInput{
		NameCommon:     "Ocellaris Clownfish",
		NameScientific: "Amphiprion ocellaris",
		Category:       model.CategoryFish,
		TankZone:       model.ZoneMid,
		Origin:         model.OriginCaptive,
		DateAdded:      "2024-03-15",
		Status:         model.StatusActive,
	})
	require.NoError(t, err)

	second, err := svc.Create(ctx, sid, LivestockInput{
		NameCommon: "Hammer Coral",
		Category:   model.CategoryCoral,
		TankZone:   model.ZoneRock,
		Origin:     model.OriginFrag,
		DateAdded:  "2024-01-02",
		Status:     model.StatusActive,
	})
	require.NoError(t, err)

	// No presentation sort: rows come back in sheet order.
	got, err := svc.List(ctx, sid)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, first.ID, got[0].ID)
	require.Equal(t, second.ID, got[1].ID)

	updated, err := svc.Update(ctx, sid, first.ID, LivestockInput{
		NameCommon:     first.NameCommon,
		NameScientific: first.NameScientific,
		Category:       first.Category,
		TankZone:       first.TankZone,
		Origin:         first.Origin,
		DateAdded:      first.DateAdded,
		DateRemoved:    "2024-08-01",
		Status:         model.StatusRemoved,
	})
	require.NoError(t, err)
	require.Equal(t, model.StatusRemoved, updated.Status)

	fetched, err := svc.Get(ctx, sid, first.ID)
	require.NoError(t, err)
	require.Equal(t, "2024-08-01", fetched.DateRemoved)
}

func TestLivestock_InvalidEnumRejected(t *testing.T) {
	t.Parallel()
	svc := NewLivestock(newFakeTransport("LIVESTOCK"), zap.NewNop())

	_, err := svc.Create(context.Background(), sid, LivestockInput{
		NameCommon: "Mystery Snail",
		Category:   "mollusk",
		DateAdded:  "2024-06-01",
		Status:     model.StatusActive,
	})
	require.ErrorIs(t, err, errs.ErrValidation)
}
