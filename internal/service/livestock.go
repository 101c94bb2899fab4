package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/lavolpecheprogramma/tanklog/internal/errs"
	"github.com/lavolpecheprogramma/tanklog/internal/ident"
	"github.com/lavolpecheprogramma/tanklog/internal/model"
	"github.com/lavolpecheprogramma/tanklog/internal/rowstore"
)

const livestockTable = "LIVESTOCK"

var livestockHeaders = []string{
	"livestock_id",
	"name_common",
	"name_scientific",
	"category",
	"sub_category",
	"tank_zone",
	"origin",
	"date_added",
	"date_removed",
	"status",
	"notes",
}

func livestockSchema() rowstore.Schema[model.TankLivestock] {
	return rowstore.Schema[model.TankLivestock]{
		Table:   livestockTable,
		Headers: livestockHeaders,
		// The sheet is provisioned at tank creation; its absence means the
		// document is not a tank spreadsheet at all.
		Provisioning: rowstore.ProvisionRequire,
		Encode: func(ls model.TankLivestock) []any {
			return []any{
				ls.ID,
				ls.NameCommon,
				rowstore.OptCell(ls.NameScientific),
				string(ls.Category),
				rowstore.OptCell(ls.SubCategory),
				rowstore.OptCell(string(ls.TankZone)),
				rowstore.OptCell(string(ls.Origin)),
				ls.DateAdded,
				rowstore.OptCell(ls.DateRemoved),
				string(ls.Status),
				rowstore.OptCell(ls.Notes),
			}
		},
		Decode: func(row []any) (model.TankLivestock, bool) {
			ls := model.TankLivestock{
				ID:             rowstore.StringAt(row, 0),
				NameCommon:     rowstore.StringAt(row, 1),
				NameScientific: rowstore.StringAt(row, 2),
				Category:       model.LivestockCategory(rowstore.StringAt(row, 3)),
				SubCategory:    rowstore.StringAt(row, 4),
				TankZone:       model.LivestockZone(rowstore.StringAt(row, 5)),
				Origin:         model.LivestockOrigin(rowstore.StringAt(row, 6)),
				DateAdded:      rowstore.StringAt(row, 7),
				DateRemoved:    rowstore.StringAt(row, 8),
				Status:         model.LivestockStatus(rowstore.StringAt(row, 9)),
				Notes:          rowstore.StringAt(row, 10),
			}
			if ls.ID == "" || ls.NameCommon == "" || !ls.Category.Valid() || !ls.Status.Valid() {
				return model.TankLivestock{}, false
			}
			if ls.TankZone != "" && !ls.TankZone.Valid() {
				return model.TankLivestock{}, false
			}
			if ls.Origin != "" && !ls.Origin.Valid() {
				return model.TankLivestock{}, false
			}
			return ls, true
		},
	}
}

// Livestock manages the animal, coral and plant records.
type Livestock struct {
	store *rowstore.Store[model.TankLivestock]
}

func NewLivestock(tx rowstore.Transport, log *zap.Logger) *Livestock {
	return &Livestock{store: rowstore.New(tx, livestockSchema(), log)}
}

// LivestockInput is the caller-supplied part of a livestock record.
type LivestockInput struct {
	NameCommon     string
	NameScientific string
	Category       model.LivestockCategory
	SubCategory    string
	TankZone       model.LivestockZone
	Origin         model.LivestockOrigin
	DateAdded      string
	DateRemoved    string
	Status         model.LivestockStatus
	Notes          string
}

func (in LivestockInput) validate() (model.TankLivestock, error) {
	nameCommon := strings.TrimSpace(in.NameCommon)
	if nameCommon == "" {
		return model.TankLivestock{}, fmt.Errorf("%w: common name is required", errs.ErrValidation)
	}
	if !in.Category.Valid() {
		return model.TankLivestock{}, fmt.Errorf("%w: invalid category %q", errs.ErrValidation, in.Category)
	}
	if !in.Status.Valid() {
		return model.TankLivestock{}, fmt.Errorf("%w: invalid status %q", errs.ErrValidation, in.Status)
	}
	dateAdded := strings.TrimSpace(in.DateAdded)
	if !isDateOnly(dateAdded) {
		return model.TankLivestock{}, fmt.Errorf("%w: date added must be YYYY-MM-DD", errs.ErrValidation)
	}
	dateRemoved := strings.TrimSpace(in.DateRemoved)
	if dateRemoved != "" && !isDateOnly(dateRemoved) {
		return model.TankLivestock{}, fmt.Errorf("%w: date removed must be YYYY-MM-DD", errs.ErrValidation)
	}
	if in.TankZone != "" && !in.TankZone.Valid() {
		return model.TankLivestock{}, fmt.Errorf("%w: invalid tank zone %q", errs.ErrValidation, in.TankZone)
	}
	if in.Origin != "" && !in.Origin.Valid() {
		return model.TankLivestock{}, fmt.Errorf("%w: invalid origin %q", errs.ErrValidation, in.Origin)
	}
	return model.TankLivestock{
		NameCommon:     nameCommon,
		NameScientific: strings.TrimSpace(in.NameScientific),
		Category:       in.Category,
		SubCategory:    strings.TrimSpace(in.SubCategory),
		TankZone:       in.TankZone,
		Origin:         in.Origin,
		DateAdded:      dateAdded,
		DateRemoved:    dateRemoved,
		Status:         in.Status,
		Notes:          strings.TrimSpace(in.Notes),
	}, nil
}

// List returns livestock in sheet order; consumers group and sort as they
// present.
func (s *Livestock) List(ctx context.Context, spreadsheetID string) ([]model.TankLivestock, error) {
	return s.store.List(ctx, spreadsheetID)
}

func (s *Livestock) Get(ctx context.Context, spreadsheetID, id string) (model.TankLivestock, error) {
	return s.store.Get(ctx, spreadsheetID, id)
}

func (s *Livestock) Create(ctx context.Context, spreadsheetID string, in LivestockInput) (model.TankLivestock, error) {
	ls, err := in.validate()
	if err != nil {
		return model.TankLivestock{}, err
	}
	ls.ID = ident.New("ls")
	if err := s.store.Create(ctx, spreadsheetID, ls); err != nil {
		return model.TankLivestock{}, err
	}
	return ls, nil
}

func (s *Livestock) Update(ctx context.Context, spreadsheetID, id string, in LivestockInput) (model.TankLivestock, error) {
	if id == "" {
		return model.TankLivestock{}, fmt.Errorf("%w: missing livestock id", errs.ErrValidation)
	}
	ls, err := in.validate()
	if err != nil {
		return model.TankLivestock{}, err
	}
	ls.ID = id
	if err := s.store.Update(ctx, spreadsheetID, id, ls); err != nil {
		return model.TankLivestock{}, err
	}
	return ls, nil
}

func (s *Livestock) Delete(ctx context.Context, spreadsheetID, id string) error {
	return s.store.Delete(ctx, spreadsheetID, id)
}
