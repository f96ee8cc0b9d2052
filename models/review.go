package models

import (
	"time"

	"gorm.io/datatypes"
)

type Review struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Comment     string         `gorm:"column:comment;size:1000" json:"comment"`
	Score       int            `gorm:"column:score;not null" json:"score"`
	PublishedOn datatypes.Date `gorm:"column:published_on;not null" json:"published_on"`
	VillainID   uint           `gorm:"column:villain_id;index;not null" json:"villain_id"`
	LairID      uint           `gorm:"column:lair_id;index;not null" json:"lair_id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
