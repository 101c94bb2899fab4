// Package model defines domain entities used by services and the row store.
package model

import "time"

// UserProfile is display-only account info attached to a session.
// It is never trusted for authorization.
type UserProfile struct {
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
}

// Session is the cached OAuth bearer token plus its metadata and expiry.
// Sessions are replaced wholesale on refresh, never partially mutated.
type Session struct {
	AccessToken string       `json:"accessToken"`
	TokenType   string       `json:"tokenType"`
	Scope       string       `json:"scope"`
	CreatedAt   time.Time    `json:"createdAt"`
	ExpiresAt   time.Time    `json:"expiresAt"`
	User        *UserProfile `json:"user,omitempty"`
}

// EventType classifies a tank event.
type EventType string

const (
	EventWaterChange       EventType = "water_change"
	EventDosing            EventType = "dosing"
	EventMaintenance       EventType = "maintenance"
	EventLivestockAddition EventType = "livestock_addition"
	EventLivestockRemoval  EventType = "livestock_removal"
)

// EventTypes lists all known event types.
var EventTypes = []EventType{
	EventWaterChange,
	EventDosing,
	EventMaintenance,
	EventLivestockAddition,
	EventLivestockRemoval,
}

// Valid reports whether the value is a known event type.
func (t EventType) Valid() bool {
	for _, known := range EventTypes {
		if t == known {
			return true
		}
	}
	return false
}

// TankEvent is a single logged husbandry event.
// Date is an RFC 3339 instant; optional strings are empty when absent.
type TankEvent struct {
	ID          string
	Date        string
	Type        EventType
	Description string
	Quantity    *float64 // nil when absent; never negative
	Unit        string
	Product     string
	Note        string
}

// LivestockCategory classifies a livestock entry.
type LivestockCategory string

const (
	CategoryFish         LivestockCategory = "fish"
	CategoryCoral        LivestockCategory = "coral"
	CategoryInvertebrate LivestockCategory = "invertebrate"
	CategoryPlant        LivestockCategory = "plant"
)

// LivestockCategories lists all known categories.
var LivestockCategories = []LivestockCategory{CategoryFish, CategoryCoral, CategoryInvertebrate, CategoryPlant}

// Valid reports whether the value is a known category.
func (c LivestockCategory) Valid() bool {
	for _, known := range LivestockCategories {
		if c == known {
			return true
		}
	}
	return false
}

// LivestockStatus tracks whether an animal is still in the tank.
type LivestockStatus string

const (
	StatusActive  LivestockStatus = "active"
	StatusRemoved LivestockStatus = "removed"
	StatusDead    LivestockStatus = "dead"
)

// LivestockStatuses lists all known statuses.
var LivestockStatuses = []LivestockStatus{StatusActive, StatusRemoved, StatusDead}

// Valid reports whether the value is a known status.
func (s LivestockStatus) Valid() bool {
	for _, known := range LivestockStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// LivestockZone is the tank zone an animal usually occupies. Empty when unset.
type LivestockZone string

const (
	ZoneTop    LivestockZone = "top"
	ZoneMid    LivestockZone = "mid"
	ZoneBottom LivestockZone = "bottom"
	ZoneRock   LivestockZone = "rock"
	ZoneSand   LivestockZone = "sand"
)

// LivestockZones lists all known zones.
var LivestockZones = []LivestockZone{ZoneTop, ZoneMid, ZoneBottom, ZoneRock, ZoneSand}

// Valid reports whether the value is a known zone.
func (z LivestockZone) Valid() bool {
	for _, known := range LivestockZones {
		if z == known {
			return true
		}
	}
	return false
}

// LivestockOrigin records where an animal came from. Empty when unset.
type LivestockOrigin string

const (
	OriginWild    LivestockOrigin = "wild"
	OriginCaptive LivestockOrigin = "captive"
	OriginFrag    LivestockOrigin = "frag"
)

// LivestockOrigins lists all known origins.
var LivestockOrigins = []LivestockOrigin{OriginWild, OriginCaptive, OriginFrag}

// Valid reports whether the value is a known origin.
func (o LivestockOrigin) Valid() bool {
	for _, known := range LivestockOrigins {
		if o == known {
			return true
		}
	}
	return false
}

// TankLivestock is a single animal, coral or plant tracked in the tank.
// DateAdded and DateRemoved are date-only values (YYYY-MM-DD).
type TankLivestock struct {
	ID             string
	NameCommon     string
	NameScientific string
	Category       LivestockCategory
	SubCategory    string
	TankZone       LivestockZone
	Origin         LivestockOrigin
	DateAdded      string
	DateRemoved    string
	Status         LivestockStatus
	Notes          string
}

// WaterTestMeasurement is one parameter reading. Measurements sharing a
// GroupID were taken in the same sampling sitting.
type WaterTestMeasurement struct {
	ID        string
	GroupID   string
	Date      string
	Parameter string
	Value     float64 // >= 0
	Unit      string
	Method    string
	Note      string
}

// WaterTestSession is the grouped view over measurements with one GroupID.
// Date is the latest measurement date in the group; Method and Note are the
// first non-empty values seen across its measurements.
type WaterTestSession struct {
	GroupID      string
	Date         string
	Method       string
	Note         string
	Measurements []WaterTestMeasurement
}

// TankReminder is a scheduled task. NextDue and LastDone are either
// date-only values (YYYY-MM-DD) or RFC 3339 instants; the representation is
// preserved across rollovers.
type TankReminder struct {
	ID              string
	Title           string
	NextDue         string
	RepeatEveryDays *int // nil when one-shot; always positive when set
	LastDone        string
	Notes           string
}

// PhotoRelatedType says what a photo depicts.
type PhotoRelatedType string

const (
	PhotoOfTank   PhotoRelatedType = "tank"
	PhotoOfAnimal PhotoRelatedType = "animal"
)

// Valid reports whether the value is a known related type.
func (t PhotoRelatedType) Valid() bool {
	return t == PhotoOfTank || t == PhotoOfAnimal
}

// TankPhoto references an image stored in the external document store.
// RelatedID is required iff RelatedType is "animal" and forbidden for "tank".
type TankPhoto struct {
	ID            string
	Date          string
	RelatedType   PhotoRelatedType
	RelatedID     string
	StorageFileID string
	StorageURL    string
	Note          string
}

// RangeStatus grades a parameter range.
type RangeStatus string

const (
	RangeOptimal    RangeStatus = "optimal"
	RangeAcceptable RangeStatus = "acceptable"
	RangeCritical   RangeStatus = "critical"
)

// RangeStatuses lists all known range statuses.
var RangeStatuses = []RangeStatus{RangeOptimal, RangeAcceptable, RangeCritical}

// Valid reports whether the value is a known range status.
func (s RangeStatus) Valid() bool {
	for _, known := range RangeStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// ParameterRange is a threshold band for one water parameter. Rows with the
// same parameter but different status coexist. At least one bound is set.
type ParameterRange struct {
	Parameter string
	MinValue  *float64
	MaxValue  *float64
	Unit      string
	Status    RangeStatus
	Color     string // optional hex color, e.g. "#3b82f6"
}

// TankKind selects a parameter range preset.
type TankKind string

const (
	TankFreshwater TankKind = "freshwater"
	TankPlanted    TankKind = "planted"
	TankMarine     TankKind = "marine"
	TankReef       TankKind = "reef"
)
