package service

import (
	"go.uber.org/zap"

	"github.com/lavolpecheprogramma/tanklog/internal/rowstore"
)

// Tank bundles the six record services for one spreadsheet-backed tank.
type Tank struct {
	Events     *Events
	Livestock  *Livestock
	WaterTests *WaterTests
	Reminders  *Reminders
	Photos     *Photos
	Ranges     *Ranges
}

func NewTank(tx rowstore.Transport, log *zap.Logger) *Tank {
	return &Tank{
		Events:     NewEvents(tx, log),
		Livestock:  NewLivestock(tx, log),
		WaterTests: NewWaterTests(tx, log),
		Reminders:  NewReminders(tx, log),
		Photos:     NewPhotos(tx, log),
		Ranges:     NewRanges(tx, log),
	}
}

// InvalidateProvisioning evicts every table's provisioning memo. Wired to
// the transport's auth-error hook: after a rejected token the next
// operation re-verifies its table instead of trusting a possibly stale
// memo.
func (t *Tank) InvalidateProvisioning() {
	t.Events.store.InvalidateAll()
	t.Livestock.store.InvalidateAll()
	t.WaterTests.store.InvalidateAll()
	t.Reminders.store.InvalidateAll()
	t.Photos.store.InvalidateAll()
	t.Ranges.store.InvalidateAll()
}
