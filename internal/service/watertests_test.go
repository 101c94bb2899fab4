package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lavolpecheprogramma/tanklog/internal/errs"
)

func TestWaterTests_CreateSessionSharesGroupID(t *testing.T) {
	t.Parallel()
	tx := newFakeTransport()
	svc := NewWaterTests(tx, zap.NewNop())

	sess, err := svc.CreateSession(context.Background(), sid, SessionInput{
		Date: "2024-07-01T09:00:00Z",
		Measurements: []MeasurementInput{
			{Parameter: "pH", Value: 8.2, Unit: "pH"},
			{Parameter: "KH", Value: 8.5, Unit: "dKH"},
			{Parameter: "NO3", Value: -1, Unit: "mg/l"}, // skipped
		},
		Method: "Salifert",
	})
	require.NoError(t, err)
	require.NotEmpty(t, sess.GroupID)
	require.Len(t, sess.Measurements, 2)
	for _, m := range sess.Measurements {
		require.Equal(t, sess.GroupID, m.GroupID)
		require.Equal(t, "2024-07-01T09:00:00Z", m.Date)
		require.Equal(t, "Salifert", m.Method)
		require.NotEmpty(t, m.ID)
	}
	require.NotEqual(t, sess.Measurements[0].ID, sess.Measurements[1].ID)
}

func TestWaterTests_CreateSessionRequiresMeasurements(t *testing.T) {
	t.Parallel()
	svc := NewWaterTests(newFakeTransport(), zap.NewNop())

	_, err := svc.CreateSession(context.Background(), sid, SessionInput{
		Date:         "2024-07-01T09:00:00Z",
		Measurements: []MeasurementInput{{Parameter: "pH", Value: -2, Unit: "pH"}},
	})
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestWaterTests_ListSessionsGroupsAndSorts(t *testing.T) {
	t.Parallel()
	tx := newFakeTransport("WATER_TESTS")
	tx.grids["WATER_TESTS"] = [][]any{
		{"id", "test_group_id", "date", "parameter", "value", "unit", "method", "note"},
		// Group A: mixed dates, method only on the second row.
		{"m_1", "tg_a", "2024-07-01T09:00:00Z", "NO3", 5.0, "mg/l", "", ""},
		{"m_2", "tg_a", "2024-07-01T09:05:00Z", "pH", 8.2, "pH", "Salifert", "after feeding"},
		{"m_3", "tg_a", "2024-07-01T09:02:00Z", "KH", 8.5, "dKH", "", ""},
		// Group B: newer session.
		{"m_4", "tg_b", "2024-07-08T09:00:00Z", "Custom", 1.0, "x", "", ""},
		{"m_5", "tg_b", "2024-07-08T09:00:00Z", "Ca", 420.0, "ppm", "Hanna", ""},
	}
	svc := NewWaterTests(tx, zap.NewNop())

	sessions, err := svc.ListSessions(context.Background(), sid)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	// Newest session first.
	require.Equal(t, "tg_b", sessions[0].GroupID)
	require.Equal(t, "tg_a", sessions[1].GroupID)

	// Session date is the latest measurement date; method is the first
	// non-empty one in sheet order.
	groupA := sessions[1]
	require.Equal(t, "2024-07-01T09:05:00Z", groupA.Date)
	require.Equal(t, "Salifert", groupA.Method)
	require.Equal(t, "after feeding", groupA.Note)

	// Canonical parameter order inside a session: pH, KH, NO3.
	require.Equal(t, "pH", groupA.Measurements[0].Parameter)
	require.Equal(t, "KH", groupA.Measurements[1].Parameter)
	require.Equal(t, "NO3", groupA.Measurements[2].Parameter)

	// Known parameters precede unknown ones; unknowns sort alphabetically.
	groupB := sessions[0]
	require.Equal(t, "Ca", groupB.Measurements[0].Parameter)
	require.Equal(t, "Custom", groupB.Measurements[1].Parameter)
}

func TestWaterTests_DeleteSession(t *testing.T) {
	t.Parallel()
	tx := newFakeTransport("WATER_TESTS")
	tx.grids["WATER_TESTS"] = [][]any{
		{"id", "test_group_id", "date", "parameter", "value", "unit", "method", "note"},
		{"m_1", "tg_a", "2024-07-01T09:00:00Z", "pH", 8.2, "pH", "", ""},
		{"m_2", "tg_b", "2024-07-02T09:00:00Z", "KH", 8.0, "dKH", "", ""},
		{"m_3", "tg_a", "2024-07-01T09:01:00Z", "NO3", 5.0, "mg/l", "", ""},
	}
	svc := NewWaterTests(tx, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, svc.DeleteSession(ctx, sid, "tg_a"))

	left, err := svc.ListMeasurements(ctx, sid)
	require.NoError(t, err)
	require.Len(t, left, 1)
	require.Equal(t, "m_2", left[0].ID)

	require.ErrorIs(t, svc.DeleteSession(ctx, sid, "tg_a"), errs.ErrNotFound)
}
