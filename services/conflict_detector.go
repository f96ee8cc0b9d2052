package services

import (
	"context"
	"time"

	"bnbillains/models"
)

// ConflictDetector finds reservations of a lair that collide with a stay.
type ConflictDetector struct{}

// FindOverlapping returns every reservation of lairID whose inclusive range
// intersects [start, end]. A non-zero excludeID leaves that reservation out,
// which lets a reservation be moved within its own dates.
func (ConflictDetector) FindOverlapping(ctx context.Context, reservations models.ReservationStore, lairID uint, start, end time.Time, excludeID uint) ([]models.Reservation, error) {
	if excludeID == 0 {
		return reservations.FindOverlapping(ctx, lairID, start, end)
	}
	return reservations.FindOverlappingExcluding(ctx, lairID, excludeID, start, end)
}
