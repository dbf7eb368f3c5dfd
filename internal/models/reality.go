package models

import "gorm.io/gorm"

// Reality is an independent claim-capacity pool. Worlds tagged with a reality
// share that pool's per-player claim limit.
type Reality struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"uniqueIndex;type:varchar(255);not null"`
	MaxClaims int64  `gorm:"not null"`
}

func (r *Reality) BeforeSave(tx *gorm.DB) error {
	if r.MaxClaims < 1 {
		return gorm.ErrInvalidData
	}
	return nil
}

func (Reality) TableName() string {
	return "realities"
}
