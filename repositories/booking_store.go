package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bnbillains/models"
)

// BookingStore implements models.BookingStore on top of gorm.
type BookingStore struct {
	db *gorm.DB
}

func NewBookingStore(db *gorm.DB) *BookingStore {
	return &BookingStore{db: db}
}

func (s *BookingStore) Lairs() models.LairDirectory           { return lairDirectory{db: s.db} }
func (s *BookingStore) Villains() models.VillainDirectory     { return villainDirectory{db: s.db} }
func (s *BookingStore) Reservations() models.ReservationStore { return reservationStore{db: s.db} }
func (s *BookingStore) Invoices() models.InvoiceStore         { return invoiceStore{db: s.db} }

func (s *BookingStore) WithinTransaction(ctx context.Context, fn func(tx models.BookingStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&BookingStore{db: tx})
	})
}

// ---------------------------
// Lairs
// ---------------------------

type lairDirectory struct{ db *gorm.DB }

func (d lairDirectory) LairPrice(ctx context.Context, lairID uint) (decimal.Decimal, error) {
	var lair models.Lair
	err := d.db.WithContext(ctx).Select("id", "nightly_price").First(&lair, lairID).Error
	if err != nil {
		return decimal.Zero, translateNotFound(err)
	}
	return lair.NightlyPrice, nil
}

func (d lairDirectory) LockForBooking(ctx context.Context, lairID uint) error {
	// SQLite has no row locks; its writer lock already serialises transactions.
	if d.db.Dialector.Name() == "sqlite" {
		return nil
	}
	var lair models.Lair
	err := d.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", lairID).
		Limit(1).
		Find(&lair).Error
	if err != nil {
		return fmt.Errorf("lock lair %d: %w", lairID, err)
	}
	return nil
}

// ---------------------------
// Villains
// ---------------------------

type villainDirectory struct{ db *gorm.DB }

func (d villainDirectory) VillainExists(ctx context.Context, villainID uint) (bool, error) {
	var count int64
	if err := d.db.WithContext(ctx).Model(&models.Villain{}).Where("id = ?", villainID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ---------------------------
// Reservations
// ---------------------------

type reservationStore struct{ db *gorm.DB }

func (r reservationStore) overlapping(ctx context.Context, lairID uint, start, end time.Time) *gorm.DB {
	return r.db.WithContext(ctx).
		Where("lair_id = ?", lairID).
		Where("start_date <= ? AND end_date >= ?", datatypes.Date(end), datatypes.Date(start)).
		Order("start_date ASC").
		Order("id ASC")
}

func (r reservationStore) FindOverlapping(ctx context.Context, lairID uint, start, end time.Time) ([]models.Reservation, error) {
	var out []models.Reservation
	if err := r.overlapping(ctx, lairID, start, end).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r reservationStore) FindOverlappingExcluding(ctx context.Context, lairID, excludeID uint, start, end time.Time) ([]models.Reservation, error) {
	var out []models.Reservation
	if err := r.overlapping(ctx, lairID, start, end).Where("id <> ?", excludeID).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r reservationStore) FindByLair(ctx context.Context, lairID uint) ([]models.Reservation, error) {
	var out []models.Reservation
	err := r.db.WithContext(ctx).Where("lair_id = ?", lairID).Order("start_date ASC").Order("id ASC").Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r reservationStore) Get(ctx context.Context, id uint) (*models.Reservation, error) {
	var res models.Reservation
	if err := r.db.WithContext(ctx).First(&res, id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &res, nil
}

func (r reservationStore) Save(ctx context.Context, res *models.Reservation) error {
	if res.ID == 0 {
		return r.db.WithContext(ctx).Create(res).Error
	}
	return r.db.WithContext(ctx).Save(res).Error
}

func (r reservationStore) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Reservation{}, id).Error
}

// ---------------------------
// Invoices
// ---------------------------

type invoiceStore struct{ db *gorm.DB }

func (s invoiceStore) FindByReservationID(ctx context.Context, reservationID uint) (*models.Invoice, error) {
	var inv models.Invoice
	if err := s.db.WithContext(ctx).Where("reservation_id = ?", reservationID).First(&inv).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &inv, nil
}

func (s invoiceStore) Save(ctx context.Context, inv *models.Invoice) error {
	if inv.ID == 0 {
		return s.db.WithContext(ctx).Create(inv).Error
	}
	return s.db.WithContext(ctx).Save(inv).Error
}

func (s invoiceStore) DeleteByReservationID(ctx context.Context, reservationID uint) error {
	return s.db.WithContext(ctx).Where("reservation_id = ?", reservationID).Delete(&models.Invoice{}).Error
}
