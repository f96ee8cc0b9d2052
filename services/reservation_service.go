package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"bnbillains/metrics"
	"bnbillains/models"
	"bnbillains/queue"
	"bnbillains/utils"
)

var tracer = otel.Tracer("bnbillains/services")

// OccupancyCache holds per-lair calendars as "YYYY-MM-DD" strings.
type OccupancyCache interface {
	Get(ctx context.Context, lairID uint) ([]string, bool, error)
	Set(ctx context.Context, lairID uint, dates []string) error
	Invalidate(ctx context.Context, lairIDs ...uint) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event queue.ReservationEvent) error
}

type BookingRequest struct {
	VillainID uint
	LairID    uint
	StartDate time.Time
	EndDate   time.Time
	Confirmed bool
}

type ReservationOptions struct {
	// Optional. Nil disables the calendar cache.
	Cache OccupancyCache
	// Optional. Nil disables reservation events.
	Events EventPublisher
	Logger *logrus.Logger
	// Clock for invoice issue dates; defaults to time.Now.
	Now func() time.Time
	// LockLair takes a row lock on the lair before the conflict scan.
	LockLair bool
}

// ReservationService is the booking engine: it validates stays, rejects
// overbooking, prices the stay and keeps the invoice in step, each operation
// in one transaction.
type ReservationService struct {
	store     models.BookingStore
	conflicts ConflictDetector
	invoices  *InvoiceSynchronizer
	cache     OccupancyCache
	events    EventPublisher
	log       *logrus.Logger
	lockLair  bool
}

func NewReservationService(store models.BookingStore, opts ReservationOptions) *ReservationService {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ReservationService{
		store:    store,
		invoices: NewInvoiceSynchronizer(opts.Now, log),
		cache:    opts.Cache,
		events:   opts.Events,
		log:      log,
		lockLair: opts.LockLair,
	}
}

// Book creates a reservation and its pending invoice.
func (s *ReservationService) Book(ctx context.Context, req BookingRequest) (*models.Reservation, error) {
	ctx, span := tracer.Start(ctx, "ReservationService.Book", trace.WithAttributes(
		attribute.Int64("lair.id", int64(req.LairID)),
		attribute.Int64("villain.id", int64(req.VillainID)),
	))
	defer span.End()
	started := time.Now()

	stay, err := NewStay(req.StartDate, req.EndDate)
	if err != nil {
		s.observe(span, "book", started, err)
		return nil, err
	}

	var booked models.Reservation
	err = s.store.WithinTransaction(ctx, func(tx models.BookingStore) error {
		if err := s.lock(ctx, tx, req.LairID); err != nil {
			return err
		}
		if err := s.ensureAvailable(ctx, tx, req.LairID, stay, 0); err != nil {
			return err
		}
		price, err := lairPrice(ctx, tx, req.LairID)
		if err != nil {
			return err
		}
		if err := ensureVillain(ctx, tx, req.VillainID); err != nil {
			return err
		}

		booked = models.Reservation{
			StartDate: datatypes.Date(stay.Start),
			EndDate:   datatypes.Date(stay.End),
			TotalCost: PriceStay(stay.Start, stay.End, price),
			Confirmed: req.Confirmed,
			VillainID: req.VillainID,
			LairID:    req.LairID,
		}
		if err := tx.Reservations().Save(ctx, &booked); err != nil {
			return fmt.Errorf("save reservation: %w", err)
		}

		_, err = s.invoices.CreateFor(ctx, tx.Invoices(), booked, booked.TotalCost)
		return err
	})
	s.observe(span, "book", started, err)
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, queue.EventBooked, booked, booked.LairID)
	return &booked, nil
}

// Reschedule moves an existing reservation to new dates, lair, villain or
// status, reprices it and syncs its invoice.
func (s *ReservationService) Reschedule(ctx context.Context, reservationID uint, req BookingRequest) (*models.Reservation, error) {
	ctx, span := tracer.Start(ctx, "ReservationService.Reschedule", trace.WithAttributes(
		attribute.Int64("reservation.id", int64(reservationID)),
		attribute.Int64("lair.id", int64(req.LairID)),
	))
	defer span.End()
	started := time.Now()

	stay, err := NewStay(req.StartDate, req.EndDate)
	if err != nil {
		s.observe(span, "reschedule", started, err)
		return nil, err
	}

	var (
		updated      models.Reservation
		previousLair uint
	)
	err = s.store.WithinTransaction(ctx, func(tx models.BookingStore) error {
		if err := s.lock(ctx, tx, req.LairID); err != nil {
			return err
		}
		if err := s.ensureAvailable(ctx, tx, req.LairID, stay, reservationID); err != nil {
			return err
		}

		current, err := tx.Reservations().Get(ctx, reservationID)
		if errors.Is(err, models.ErrNotFound) {
			return errNotFound("Reservation", reservationID)
		}
		if err != nil {
			return fmt.Errorf("load reservation %d: %w", reservationID, err)
		}
		previousLair = current.LairID

		if req.VillainID != current.VillainID {
			if err := ensureVillain(ctx, tx, req.VillainID); err != nil {
				return err
			}
		}

		// the price always comes from the target lair, which may be a new one
		price, err := lairPrice(ctx, tx, req.LairID)
		if err != nil {
			return err
		}

		current.VillainID = req.VillainID
		current.Confirmed = req.Confirmed
		current.LairID = req.LairID
		current.StartDate = datatypes.Date(stay.Start)
		current.EndDate = datatypes.Date(stay.End)
		current.TotalCost = PriceStay(stay.Start, stay.End, price)

		if err := tx.Reservations().Save(ctx, current); err != nil {
			return fmt.Errorf("save reservation %d: %w", reservationID, err)
		}
		if err := s.invoices.SyncFor(ctx, tx.Invoices(), current.ID, current.TotalCost); err != nil {
			return err
		}
		updated = *current
		return nil
	})
	s.observe(span, "reschedule", started, err)
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, queue.EventRescheduled, updated, previousLair, updated.LairID)
	return &updated, nil
}

// Cancel deletes a reservation together with its invoice.
func (s *ReservationService) Cancel(ctx context.Context, reservationID uint) error {
	ctx, span := tracer.Start(ctx, "ReservationService.Cancel", trace.WithAttributes(
		attribute.Int64("reservation.id", int64(reservationID)),
	))
	defer span.End()
	started := time.Now()

	var cancelled models.Reservation
	err := s.store.WithinTransaction(ctx, func(tx models.BookingStore) error {
		current, err := tx.Reservations().Get(ctx, reservationID)
		if errors.Is(err, models.ErrNotFound) {
			return errNotFound("Reservation", reservationID)
		}
		if err != nil {
			return fmt.Errorf("load reservation %d: %w", reservationID, err)
		}
		cancelled = *current

		if err := tx.Invoices().DeleteByReservationID(ctx, reservationID); err != nil {
			return fmt.Errorf("delete invoice of reservation %d: %w", reservationID, err)
		}
		if err := tx.Reservations().Delete(ctx, reservationID); err != nil {
			return fmt.Errorf("delete reservation %d: %w", reservationID, err)
		}
		return nil
	})
	s.observe(span, "cancel", started, err)
	if err != nil {
		return err
	}

	s.afterCommit(ctx, queue.EventCancelled, cancelled, cancelled.LairID)
	return nil
}

// ListOccupiedDates expands every reservation of the lair into its days,
// both ends included. Days shared by two reservations appear twice.
func (s *ReservationService) ListOccupiedDates(ctx context.Context, lairID uint) ([]time.Time, error) {
	ctx, span := tracer.Start(ctx, "ReservationService.ListOccupiedDates", trace.WithAttributes(
		attribute.Int64("lair.id", int64(lairID)),
	))
	defer span.End()

	if dates, ok := s.cachedCalendar(ctx, lairID); ok {
		return dates, nil
	}

	reservations, err := s.store.Reservations().FindByLair(ctx, lairID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list reservations of lair %d: %w", lairID, err)
	}

	dates := make([]time.Time, 0)
	for _, r := range reservations {
		dates = append(dates, stayOf(r).Days()...)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, lairID, formatDates(dates)); err != nil {
			s.log.WithError(err).WithField("lair_id", lairID).Warn("failed to cache occupied dates")
		}
	}
	return dates, nil
}

func (s *ReservationService) cachedCalendar(ctx context.Context, lairID uint) ([]time.Time, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, ok, err := s.cache.Get(ctx, lairID)
	if err != nil {
		metrics.ObserveOccupancyCache("error")
		s.log.WithError(err).WithField("lair_id", lairID).Warn("occupied dates cache read failed")
		return nil, false
	}
	if !ok {
		metrics.ObserveOccupancyCache("miss")
		return nil, false
	}

	dates := make([]time.Time, 0, len(raw))
	for _, d := range raw {
		t, err := time.Parse(utils.DateLayout, d)
		if err != nil {
			metrics.ObserveOccupancyCache("error")
			return nil, false
		}
		dates = append(dates, t)
	}
	metrics.ObserveOccupancyCache("hit")
	return dates, true
}

func (s *ReservationService) lock(ctx context.Context, tx models.BookingStore, lairID uint) error {
	if !s.lockLair {
		return nil
	}
	return tx.Lairs().LockForBooking(ctx, lairID)
}

// ensureAvailable fails with an overbooking error naming the first conflict.
func (s *ReservationService) ensureAvailable(ctx context.Context, tx models.BookingStore, lairID uint, stay Stay, excludeID uint) error {
	conflicts, err := s.conflicts.FindOverlapping(ctx, tx.Reservations(), lairID, stay.Start, stay.End, excludeID)
	if err != nil {
		return fmt.Errorf("check availability of lair %d: %w", lairID, err)
	}
	if len(conflicts) > 0 {
		return errOverbooking(lairID, stayOf(conflicts[0]))
	}
	return nil
}

func lairPrice(ctx context.Context, tx models.BookingStore, lairID uint) (decimal.Decimal, error) {
	price, err := tx.Lairs().LairPrice(ctx, lairID)
	if errors.Is(err, models.ErrNotFound) {
		return decimal.Zero, errNotFound("Lair", lairID)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("load lair %d: %w", lairID, err)
	}
	return price, nil
}

func ensureVillain(ctx context.Context, tx models.BookingStore, villainID uint) error {
	ok, err := tx.Villains().VillainExists(ctx, villainID)
	if err != nil {
		return fmt.Errorf("load villain %d: %w", villainID, err)
	}
	if !ok {
		return errNotFound("Villain", villainID)
	}
	return nil
}

// observe records the outcome of one engine operation on metrics and span.
func (s *ReservationService) observe(span trace.Span, operation string, started time.Time, err error) {
	result := "success"
	if err != nil {
		if kind, ok := KindOf(err); ok {
			result = string(kind)
		} else {
			result = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.String("booking.result", result))
	}
	metrics.ObserveBooking(operation, result, time.Since(started))
}

// afterCommit runs the best-effort side effects of a committed change.
func (s *ReservationService) afterCommit(ctx context.Context, eventType string, r models.Reservation, lairIDs ...uint) {
	invalidateCalendars(ctx, s.cache, s.log, lairIDs...)

	if s.events == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	event := queue.ReservationEvent{
		Type:          eventType,
		ReservationID: r.ID,
		VillainID:     r.VillainID,
		LairID:        r.LairID,
		StartDate:     utils.FormatDate(r.Start()),
		EndDate:       utils.FormatDate(r.End()),
		TotalCost:     r.TotalCost.StringFixed(2),
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.events.Publish(pubCtx, event); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"event":          eventType,
			"reservation_id": r.ID,
		}).Warn("failed to publish reservation event")
	}
}

func invalidateCalendars(ctx context.Context, cache OccupancyCache, log *logrus.Logger, lairIDs ...uint) {
	if cache == nil || len(lairIDs) == 0 {
		return
	}
	if err := cache.Invalidate(context.WithoutCancel(ctx), lairIDs...); err != nil {
		log.WithError(err).WithField("lair_ids", lairIDs).Warn("failed to invalidate occupied dates cache")
	}
}

func formatDates(dates []time.Time) []string {
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, utils.FormatDate(d))
	}
	return out
}
