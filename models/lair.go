package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const DefaultLairImage = "/images/lair-default.jpg"

type Lair struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Name         string          `gorm:"column:name;size:255;not null;uniqueIndex" json:"name"`
	Description  string          `gorm:"column:description;size:1000" json:"description"`
	Location     string          `gorm:"column:location;size:255;not null;index" json:"location"`
	NightlyPrice decimal.Decimal `gorm:"column:nightly_price;type:decimal(12,2);not null" json:"nightly_price"`
	Image        string          `gorm:"column:image;size:255" json:"image,omitempty"`

	// one secret room per lair; NULL when the lair has none
	SecretRoomID *uint `gorm:"column:secret_room_id;uniqueIndex" json:"secret_room_id,omitempty"`

	Amenities []Amenity `gorm:"many2many:lair_amenities;" json:"amenities,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ImagePath returns the public URL of the lair picture, or the default one.
func (l Lair) ImagePath() string {
	img := strings.TrimSpace(l.Image)
	if img == "" {
		return DefaultLairImage
	}
	return "/uploads/" + strings.TrimPrefix(img, "/")
}
