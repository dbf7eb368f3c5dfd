package models

import (
	"time"
)

type Player struct {
	ID            uint   `gorm:"primaryKey"`
	TelegramID    int64  `gorm:"uniqueIndex;not null"`
	Name          string `gorm:"type:varchar(255);not null"`
	Points        int64  `gorm:"default:0;not null"`
	UnspentPoints int64  `gorm:"default:0;not null"`
	// TransferTo redirects points earned at world finish to another player.
	TransferTo *uint
	Moderator  bool      `gorm:"default:false;not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (Player) TableName() string {
	return "players"
}
