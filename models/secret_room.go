package models

import "time"

// SecretRoom belongs to at most one lair (Lair.SecretRoomID).
// The access code itself is never stored, only its bcrypt hash.
type SecretRoom struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	AccessCodeHash string    `gorm:"column:access_code_hash;size:100;not null" json:"-"`
	MainFunction   string    `gorm:"column:main_function;size:255;not null" json:"main_function"`
	EmergencyExit  bool      `gorm:"column:emergency_exit;default:false" json:"emergency_exit"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
