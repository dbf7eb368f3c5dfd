package models

// Slot belongs to a pre-tracking world. Points is the display string parsed
// from the slot file; real point values are computed when tracking begins.
type Slot struct {
	ID      uint   `gorm:"primaryKey"`
	WorldID uint   `gorm:"index;not null"`
	Name    string `gorm:"type:varchar(255);not null;index"`
	Games   string `gorm:"type:text;not null"`
	Notes   string `gorm:"type:text"`
	Points  string `gorm:"type:varchar(64)"`
}

func (Slot) TableName() string {
	return "slots"
}

// TrackedSlot belongs to a tracked world and carries live completion status.
// Free slots do not consume a reality's claim capacity.
type TrackedSlot struct {
	ID           uint       `gorm:"primaryKey"`
	WorldID      uint       `gorm:"index;not null"`
	Name         string     `gorm:"type:varchar(255);not null;index"`
	Games        string     `gorm:"type:text;not null"`
	Status       SlotStatus `gorm:"default:0;not null"`
	Checks       int64      `gorm:"default:0;not null"`
	ChecksTotal  int64      `gorm:"default:0;not null"`
	LastActivity *int64     // minutes since last check, nil when never active
	Points       int64      `gorm:"default:0;not null"`
	Free         bool       `gorm:"default:false;not null"`
}

func (TrackedSlot) TableName() string {
	return "tracked_slots"
}
