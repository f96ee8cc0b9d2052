package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"bnbillains/metrics"
	"bnbillains/models"
	"bnbillains/utils"
)

// InvoiceSynchronizer keeps a reservation's invoice equal to its cost.
type InvoiceSynchronizer struct {
	now func() time.Time
	log *logrus.Logger
}

func NewInvoiceSynchronizer(now func() time.Time, log *logrus.Logger) *InvoiceSynchronizer {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &InvoiceSynchronizer{now: now, log: log}
}

// newInvoice builds the pending invoice for a reservation costing cost.
func newInvoice(reservationID uint, cost decimal.Decimal, issued time.Time) models.Invoice {
	return models.Invoice{
		IssueDate:     datatypes.Date(utils.CivilDate(issued)),
		Amount:        cost,
		Tax:           TaxFor(cost),
		PaymentMethod: models.PaymentPending,
		ReservationID: reservationID,
	}
}

// CreateFor issues today's pending invoice for a freshly saved reservation.
func (s *InvoiceSynchronizer) CreateFor(ctx context.Context, invoices models.InvoiceStore, reservation models.Reservation, cost decimal.Decimal) (*models.Invoice, error) {
	inv := newInvoice(reservation.ID, cost, s.now())
	if err := invoices.Save(ctx, &inv); err != nil {
		return nil, fmt.Errorf("create invoice for reservation %d: %w", reservation.ID, err)
	}
	return &inv, nil
}

// SyncFor rewrites amount and tax of the reservation's invoice. A reservation
// without an invoice is left as is.
func (s *InvoiceSynchronizer) SyncFor(ctx context.Context, invoices models.InvoiceStore, reservationID uint, newCost decimal.Decimal) error {
	inv, err := invoices.FindByReservationID(ctx, reservationID)
	if errors.Is(err, models.ErrNotFound) {
		metrics.IncInvoiceSyncSkipped()
		s.log.WithField("reservation_id", reservationID).Warn("no invoice to sync for reservation")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load invoice of reservation %d: %w", reservationID, err)
	}

	inv.Amount = newCost
	inv.Tax = TaxFor(newCost)
	if err := invoices.Save(ctx, inv); err != nil {
		return fmt.Errorf("sync invoice %d: %w", inv.ID, err)
	}
	return nil
}
