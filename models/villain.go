package models

import "time"

// Villain is a guest of the bed and breakfast.
type Villain struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"column:name;size:255;not null;index" json:"name"`
	Alias       string    `gorm:"column:alias;size:255;not null;index" json:"alias"`
	LicenseCode string    `gorm:"column:license_code;size:10;not null;uniqueIndex" json:"license_code"`
	Email       string    `gorm:"column:email;size:255;not null;uniqueIndex" json:"email"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
