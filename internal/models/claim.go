package models

import "time"

// Claim binds exactly one player to one tracked slot. The unique index on
// SlotID is the authoritative enforcement of that uniqueness; application
// checks are only there for friendlier error messages.
type Claim struct {
	ID        uint      `gorm:"primaryKey"`
	SlotID    uint      `gorm:"uniqueIndex;not null"`
	PlayerID  uint      `gorm:"index;not null"`
	Public    string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Claim) TableName() string {
	return "claims"
}

// StatusUpdate is an audit row recorded whenever a scrape changes a tracked
// slot's status. Trimmed when the world finishes.
type StatusUpdate struct {
	ID        uint       `gorm:"primaryKey"`
	SlotID    uint       `gorm:"index;not null"`
	OldStatus SlotStatus `gorm:"not null"`
	NewStatus SlotStatus `gorm:"not null"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
}

func (StatusUpdate) TableName() string {
	return "status_updates"
}
