package models

import "time"

// World is a pre-tracking world: it accepts preclaims until PreclaimEnd and is
// superseded by a TrackedWorld of the same name once tracking begins.
type World struct {
	ID                uint   `gorm:"primaryKey"`
	Name              string `gorm:"uniqueIndex;type:varchar(255);not null"`
	RealityID         *uint  `gorm:"index"`
	Reality           *Reality
	PreclaimEnd       int64     `gorm:"not null"` // unix seconds
	ResolvedPreclaims bool      `gorm:"default:false;not null"`
	CreatedAt         time.Time `gorm:"autoCreateTime"`

	Slots []Slot `gorm:"foreignKey:WorldID;constraint:OnDelete:CASCADE"`
}

func (w *World) PreclaimsOpen(now time.Time) bool {
	return now.Unix() < w.PreclaimEnd
}

func (World) TableName() string {
	return "worlds"
}

// TrackedWorld is an actively played world whose slot statuses are refreshed
// from the external tracker page.
type TrackedWorld struct {
	ID         uint   `gorm:"primaryKey"`
	TrackerID  string `gorm:"type:varchar(64);not null"`
	Name       string `gorm:"uniqueIndex;type:varchar(255);not null"`
	RealityID  *uint  `gorm:"index"`
	Reality    *Reality
	LastScrape int64     `gorm:"default:0;not null"` // unix seconds
	Done       bool      `gorm:"default:false;not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`

	Slots []TrackedSlot `gorm:"foreignKey:WorldID;constraint:OnDelete:CASCADE"`
}

func (TrackedWorld) TableName() string {
	return "tracked_worlds"
}
