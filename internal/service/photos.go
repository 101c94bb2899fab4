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

const photosTable = "PHOTOS"

var photosHeaders = []string{"id", "date", "related_type", "related_id", "drive_file_id", "drive_url", "note"}

func photosSchema() rowstore.Schema[model.TankPhoto] {
	return rowstore.Schema[model.TankPhoto]{
		Table:   photosTable,
		Headers: photosHeaders,
		Encode: func(p model.TankPhoto) []any {
			return []any{
				p.ID,
				p.Date,
				string(p.RelatedType),
				rowstore.OptCell(p.RelatedID),
				p.StorageFileID,
				p.StorageURL,
				rowstore.OptCell(p.Note),
			}
		},
		Decode: func(row []any) (model.TankPhoto, bool) {
			p := model.TankPhoto{
				ID:            rowstore.StringAt(row, 0),
				Date:          rowstore.StringAt(row, 1),
				RelatedType:   model.PhotoRelatedType(rowstore.StringAt(row, 2)),
				RelatedID:     rowstore.StringAt(row, 3),
				StorageFileID: rowstore.StringAt(row, 4),
				StorageURL:    rowstore.StringAt(row, 5),
				Note:          rowstore.StringAt(row, 6),
			}
			if p.ID == "" || p.Date == "" || p.StorageFileID == "" || p.StorageURL == "" || !p.RelatedType.Valid() {
				return model.TankPhoto{}, false
			}
			// The subject link is part of row validity, not just input
			// validation: a tank photo with a subject id or an animal photo
			// without one is corrupt.
			if p.RelatedType == model.PhotoOfTank && p.RelatedID != "" {
				return model.TankPhoto{}, false
			}
			if p.RelatedType == model.PhotoOfAnimal && p.RelatedID == "" {
				return model.TankPhoto{}, false
			}
			return p, true
		},
	}
}

// Photos manages references to images held in the external document store.
// Upload and download of the image bytes happen elsewhere; rows carry only
// the storage file id and URL.
type Photos struct {
	store *rowstore.Store[model.TankPhoto]
}

func NewPhotos(tx rowstore.Transport, log *zap.Logger) *Photos {
	return &Photos{store: rowstore.New(tx, photosSchema(), log)}
}

// PhotoInput is the caller-supplied part of a photo record.
type PhotoInput struct {
	Date          string
	RelatedType   model.PhotoRelatedType
	RelatedID     string
	StorageFileID string
	StorageURL    string
	Note          string
}

func (in PhotoInput) validate() (model.TankPhoto, error) {
	date, ok := normalizeDateOrInstant(strings.TrimSpace(in.Date))
	if !ok {
		return model.TankPhoto{}, fmt.Errorf("%w: invalid photo date %q", errs.ErrValidation, in.Date)
	}
	if !in.RelatedType.Valid() {
		return model.TankPhoto{}, fmt.Errorf("%w: invalid related type %q", errs.ErrValidation, in.RelatedType)
	}
	relatedID := strings.TrimSpace(in.RelatedID)
	if in.RelatedType == model.PhotoOfTank && relatedID != "" {
		return model.TankPhoto{}, fmt.Errorf("%w: tank photos must not reference an animal", errs.ErrValidation)
	}
	if in.RelatedType == model.PhotoOfAnimal && relatedID == "" {
		return model.TankPhoto{}, fmt.Errorf("%w: animal photos require a livestock id", errs.ErrValidation)
	}
	fileID := strings.TrimSpace(in.StorageFileID)
	url := strings.TrimSpace(in.StorageURL)
	if fileID == "" || url == "" {
		return model.TankPhoto{}, fmt.Errorf("%w: storage file id and url are required", errs.ErrValidation)
	}
	return model.TankPhoto{
		Date:          date,
		RelatedType:   in.RelatedType,
		RelatedID:     relatedID,
		StorageFileID: fileID,
		StorageURL:    url,
		Note:          strings.TrimSpace(in.Note),
	}, nil
}

// List returns all photos newest first; unparsable dates sort last.
func (s *Photos) List(ctx context.Context, spreadsheetID string) ([]model.TankPhoto, error) {
	photos, err := s.store.List(ctx, spreadsheetID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(photos, func(i, j int) bool {
		return sortNewestFirst(photos[i].Date, photos[j].Date)
	})
	return photos, nil
}

func (s *Photos) Create(ctx context.Context, spreadsheetID string, in PhotoInput) (model.TankPhoto, error) {
	p, err := in.validate()
	if err != nil {
		return model.TankPhoto{}, err
	}
	p.ID = ident.New("p")
	if err := s.store.Create(ctx, spreadsheetID, p); err != nil {
		return model.TankPhoto{}, err
	}
	return p, nil
}

func (s *Photos) Update(ctx context.Context, spreadsheetID, id string, in PhotoInput) (model.TankPhoto, error) {
	if id == "" {
		return model.TankPhoto{}, fmt.Errorf("%w: missing photo id", errs.ErrValidation)
	}
	p, err := in.validate()
	if err != nil {
		return model.TankPhoto{}, err
	}
	p.ID = id
	if err := s.store.Update(ctx, spreadsheetID, id, p); err != nil {
		return model.TankPhoto{}, err
	}
	return p, nil
}

func (s *Photos) Delete(ctx context.Context, spreadsheetID, id string) error {
	return s.store.Delete(ctx, spreadsheetID, id)
}
