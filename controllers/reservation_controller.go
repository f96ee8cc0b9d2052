package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bnbillains/services"
)

type reservationPayload struct {
	VillainID uint   `json:"villain_id" binding:"required"`
	LairID    uint   `json:"lair_id" binding:"required"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Confirmed bool   `json:"confirmed"`
}

func (p reservationPayload) request(c *gin.Context) (services.BookingRequest, bool) {
	start, ok := parseDateField(c, "start_date", p.StartDate)
	if !ok {
		return services.BookingRequest{}, false
	}
	end, ok := parseDateField(c, "end_date", p.EndDate)
	if !ok {
		return services.BookingRequest{}, false
	}
	return services.BookingRequest{
		VillainID: p.VillainID,
		LairID:    p.LairID,
		StartDate: start,
		EndDate:   end,
		Confirmed: p.Confirmed,
	}, true
}

// ReservationController exposes the booking engine. Book, Reschedule and
// Cancel go through ReservationService; listing is read-only.
type ReservationController struct {
	BookingSvc *services.ReservationService
	QuerySvc   *services.ReservationQueries
	log        *logrus.Logger
}

func NewReservationController(booking *services.ReservationService, queries *services.ReservationQueries, log *logrus.Logger) *ReservationController {
	return &ReservationController{BookingSvc: booking, QuerySvc: queries, log: log}
}

// GetReservations (GET /api/reservations?villain_id=&lair_id=&confirmed=&sort=&page=&size=)
func (ctrl *ReservationController) GetReservations(c *gin.Context) {
	villainID, ok := queryUint(c, "villain_id")
	if !ok {
		return
	}
	lairID, ok := queryUint(c, "lair_id")
	if !ok {
		return
	}
	confirmed, ok := queryBool(c, "confirmed")
	if !ok {
		return
	}

	page, err := ctrl.QuerySvc.List(c.Request.Context(), services.ReservationFilter{
		VillainID: villainID,
		LairID:    lairID,
		Confirmed: confirmed,
		Sort:      sortKey(c),
	}, pageRequest(c))
	if err != nil {
		respondError(c, ctrl.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (ctrl *ReservationController) GetReservationByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	r, err := ctrl.QuerySvc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, ctrl.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": r})
}

// Book (POST /api/reservations)
func (ctrl *ReservationController) Book(c *gin.Context) {
	var p reservationPayload
	if !bindJSON(c, &p) {
		return
	}
	req, ok := p.request(c)
	if !ok {
		return
	}
	r, err := ctrl.BookingSvc.Book(c.Request.Context(), req)
	if err != nil {
		respondError(c, ctrl.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Reservation created successfully", "data": r})
}

// Reschedule (PUT /api/reservations/:id) moves, re-prices and re-invoices a reservation.
func (ctrl *ReservationController) Reschedule(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var p reservationPayload
	if !bindJSON(c, &p) {
		return
	}
	req, ok := p.request(c)
	if !ok {
		return
	}
	r, err := ctrl.BookingSvc.Reschedule(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, ctrl.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reservation updated successfully", "data": r})
}

// Cancel (DELETE /api/reservations/:id) removes the reservation and its invoice.
func (ctrl *ReservationController) Cancel(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := ctrl.BookingSvc.Cancel(c.Request.Context(), id); err != nil {
		respondError(c, ctrl.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Reservation cancelled"})
}
