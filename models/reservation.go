package models

import (
	"time"

	"bnbillains/utils"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Reservation books a lair for an inclusive range of calendar days.
type Reservation struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	StartDate datatypes.Date  `gorm:"column:start_date;not null;index:idx_reservations_lair_range,priority:2" json:"start_date"`
	EndDate   datatypes.Date  `gorm:"column:end_date;not null;index:idx_reservations_lair_range,priority:3" json:"end_date"`
	TotalCost decimal.Decimal `gorm:"column:total_cost;type:decimal(12,2);not null" json:"total_cost"`
	Confirmed bool            `gorm:"column:confirmed;default:false" json:"confirmed"`
	VillainID uint            `gorm:"column:villain_id;index;not null" json:"villain_id"`
	LairID    uint            `gorm:"column:lair_id;not null;index:idx_reservations_lair_range,priority:1" json:"lair_id"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (r Reservation) Start() time.Time { return utils.CivilDate(time.Time(r.StartDate)) }
func (r Reservation) End() time.Time   { return utils.CivilDate(time.Time(r.EndDate)) }
