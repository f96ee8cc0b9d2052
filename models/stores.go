package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by store lookups when no row matches.
var ErrNotFound = errors.New("record not found")

// LairDirectory resolves lairs for the booking engine.
type LairDirectory interface {
	// LairPrice returns the nightly price, or ErrNotFound.
	LairPrice(ctx context.Context, lairID uint) (decimal.Decimal, error)
	// LockForBooking takes a row lock on the lair for the rest of the transaction.
	// Missing lairs are not an error here.
	LockForBooking(ctx context.Context, lairID uint) error
}

type VillainDirectory interface {
	VillainExists(ctx context.Context, villainID uint) (bool, error)
}

type ReservationStore interface {
	// FindOverlapping returns reservations of the lair whose inclusive range
	// intersects [start, end], ordered by start date.
	FindOverlapping(ctx context.Context, lairID uint, start, end time.Time) ([]Reservation, error)
	// FindOverlappingExcluding is FindOverlapping without the reservation excludeID.
	FindOverlappingExcluding(ctx context.Context, lairID, excludeID uint, start, end time.Time) ([]Reservation, error)
	FindByLair(ctx context.Context, lairID uint) ([]Reservation, error)
	Get(ctx context.Context, id uint) (*Reservation, error)
	// Save inserts when ID is zero and updates otherwise.
	Save(ctx context.Context, r *Reservation) error
	Delete(ctx context.Context, id uint) error
}

type InvoiceStore interface {
	// FindByReservationID returns ErrNotFound when the reservation has no invoice.
	FindByReservationID(ctx context.Context, reservationID uint) (*Invoice, error)
	Save(ctx context.Context, inv *Invoice) error
	DeleteByReservationID(ctx context.Context, reservationID uint) error
}

// BookingStore groups everything the booking engine touches so that a
// whole operation can run against one transaction.
type BookingStore interface {
	Lairs() LairDirectory
	Villains() VillainDirectory
	Reservations() ReservationStore
	Invoices() InvoiceStore

	// WithinTransaction runs fn against a store bound to a single transaction.
	// A non-nil error from fn rolls everything back.
	WithinTransaction(ctx context.Context, fn func(tx BookingStore) error) error
}
