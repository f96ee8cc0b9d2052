package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"bnbillains/models"
)

// ReservationQueries serves the read side of reservations. Writes go through
// ReservationService.
type ReservationQueries struct {
	DB *gorm.DB
}

func NewReservationQueries(db *gorm.DB) *ReservationQueries {
	return &ReservationQueries{DB: db}
}

type ReservationFilter struct {
	VillainID uint
	LairID    uint
	Confirmed *bool
	Sort      SortKey
}

func (q *ReservationQueries) List(ctx context.Context, f ReservationFilter, pr PageRequest) (Page[models.Reservation], error) {
	db := q.DB.WithContext(ctx).Model(&models.Reservation{})
	if f.VillainID != 0 {
		db = db.Where("villain_id = ?", f.VillainID)
	}
	if f.LairID != 0 {
		db = db.Where("lair_id = ?", f.LairID)
	}
	if f.Confirmed != nil {
		db = db.Where("confirmed = ?", *f.Confirmed)
	}
	return paginate[models.Reservation](db, func(db *gorm.DB) *gorm.DB { return ReservationSorts.apply(db, f.Sort) }, pr)
}

func (q *ReservationQueries) Get(ctx context.Context, id uint) (*models.Reservation, error) {
	var r models.Reservation
	if err := q.DB.WithContext(ctx).First(&r, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound("Reservation", id)
		}
		return nil, fmt.Errorf("load reservation %d: %w", id, err)
	}
	return &r, nil
}
