package models

import "time"

// PreclaimStatus tracks a preclaim through the lottery.
type PreclaimStatus int64

const (
	PreclaimPending    PreclaimStatus = 0
	PreclaimSuperseded PreclaimStatus = 1
	PreclaimWon        PreclaimStatus = 2
)

// Preclaim is a non-binding reservation of a pre-tracking slot. A player holds
// at most one pending preclaim system-wide; requesting a new one deletes the
// old one first.
type Preclaim struct {
	ID        uint           `gorm:"primaryKey"`
	SlotID    uint           `gorm:"index;not null"`
	PlayerID  uint           `gorm:"index;not null"`
	Status    PreclaimStatus `gorm:"default:0;not null"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
}

func (Preclaim) TableName() string {
	return "preclaims"
}
