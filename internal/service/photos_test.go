package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lavolpecheprogramma/tanklog/internal/errs"
	"github.com/lavolpecheprogramma/tanklog/internal/model"
)

func TestPhotos_SubjectLinkValidation(t *testing.T) {
	t.Parallel()
	svc := NewPhotos(newFakeTransport(), zap.NewNop())
	ctx := context.Background()

	base := PhotoInput{
		Date:          "2024-05-01T12:00:00Z",
		StorageFileID: "file-1",
		StorageURL:    "https://drive.example.com/file-1",
	}

	in := base
	in.RelatedType = model.PhotoOfTank
	in.RelatedID = "ls_123"
	_, err := svc.Create(ctx, sid, in)
	require.ErrorIs(t, err, errs.ErrValidation)

	in = base
	in.RelatedType = model.PhotoOfAnimal
	_, err = svc.Create(ctx, sid, in)
	require.ErrorIs(t, err, errs.ErrValidation)

	in = base
	in.RelatedType = model.PhotoOfAnimal
	in.RelatedID = "ls_123"
	created, err := svc.Create(ctx, sid, in)
	require.NoError(t, err)
	require.Equal(t, "ls_123", created.RelatedID)

	in = base
	in.RelatedType = model.PhotoOfTank
	created, err = svc.Create(ctx, sid, in)
	require.NoError(t, err)
	require.Empty(t, created.RelatedID)
}

func TestPhotos_ListNewestFirstAndDropsCorruptLinks(t *testing.T) {
	t.Parallel()
	tx := newFakeTransport("PHOTOS")
	tx.grids["PHOTOS"] = [][]any{
		{"id", "date", "related_type", "related_id", "drive_file_id", "drive_url", "note"},
		{"p_1", "2024-01-05T10:00:00Z", "tank", "", "f1", "https://x/1", ""},
		{"p_2", "2024-03-05T10:00:00Z", "animal", "ls_9", "f2", "https://x/2", ""},
		// Corrupt: tank photo with a subject id.
		{"p_3", "2024-02-05T10:00:00Z", "tank", "ls_1", "f3", "https://x/3", ""},
		// Corrupt: animal photo without one.
		{"p_4", "2024-04-05T10:00:00Z", "animal", "", "f4", "https://x/4", ""},
	}
	svc := NewPhotos(tx, zap.NewNop())

	got, err := svc.List(context.Background(), sid)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "p_2", got[0].ID)
	require.Equal(t, "p_1", got[1].ID)
}

func TestPhotos_Delete(t *testing.T) {
	t.Parallel()
	tx := newFakeTransport()
	svc := NewPhotos(tx, zap.NewNop())
	ctx := context.Background()

	created, err := svc.Create(ctx, sid, PhotoInput{
		Date:          "2024-05-01T12:00:00Z",
		RelatedType:   model.PhotoOfTank,
		StorageFileID: "f1",
		StorageURL:    "https://x/1",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, sid, created.ID))
	photos, err := svc.List(ctx, sid)
	require.NoError(t, err)
	require.Empty(t, photos)
}
