package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const PaymentPending = "pending"

// Invoice mirrors the cost of exactly one reservation.
// Tax keeps four decimals so that Tax == Amount * 0.21 holds exactly.
type Invoice struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	IssueDate     datatypes.Date  `gorm:"column:issue_date;not null" json:"issue_date"`
	Amount        decimal.Decimal `gorm:"column:amount;type:decimal(12,2);not null" json:"amount"`
	Tax           decimal.Decimal `gorm:"column:tax;type:decimal(14,4);not null" json:"tax"`
	PaymentMethod string          `gorm:"column:payment_method;size:100;not null" json:"payment_method"`
	ReservationID uint            `gorm:"column:reservation_id;not null;uniqueIndex" json:"reservation_id"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
