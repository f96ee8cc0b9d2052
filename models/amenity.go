package models

import "time"

type Amenity struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"column:name;size:255;not null;uniqueIndex" json:"name"`
	SelfDestruct bool      `gorm:"column:self_destruct;default:false" json:"self_destruct"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
