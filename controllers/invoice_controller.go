package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bnbillains/services"
)

type createInvoicePayload struct {
	ReservationID uint `json:"reservation_id" binding:"required"`
}

type updateInvoicePayload struct {
	PaymentMethod string  `json:"payment_method"`
	IssueDate     *string `json:"issue_date"`
}

type InvoiceController struct {
	InvoiceSvc *services.InvoiceService
	log        *logrus.Logger
}

func NewInvoiceController(svc *services.InvoiceService, log *logrus.Logger) *InvoiceController {
	return &InvoiceController{InvoiceSvc: svc, log: log}
}

// GetInvoices (GET /api/invoices?payment_method=&min_amount=&max_amount=&sort=&page=&size=)
func (ctrl *InvoiceController) GetInvoices(c *gin.Context) {
	minAmount, ok := queryDecimal(c, "min_amount")
	if !ok {
		return
	}
	maxAmount, ok := queryDecimal(c, "max_amount")
	if !ok {
		return
	}

	page, err := ctrl.InvoiceSvc.List(c.Request.Context(), services.InvoiceFilter{
		PaymentMethod: c.Query("payment_method"),
		MinAmount:     minAmount,
		MaxAmount:     maxAmount,
		Sort:          sortKey(c),
	}, pageRequest(c))
	if err != nil {
		respondError(c, ctrl.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (ctrl *InvoiceController) GetInvoiceByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	inv, err := ctrl.InvoiceSvc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, ctrl.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": inv})
}

// CreateInvoice bills a reservation that lost its invoice. Amount and tax
// always come from the reservation.
func (ctrl *InvoiceController) CreateInvoice(c *gin.Context) {
	var p createInvoicePayload
	if !bindJSON(c, &p) {
		return
	}
	inv, err := ctrl.InvoiceSvc.Create(c.Request.Context(), p.ReservationID)
	if err != nil {
		respondError(c, ctrl.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Invoice created successfully", "data": inv})
}

func (ctrl *InvoiceController) UpdateInvoice(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var p updateInvoicePayload
	if !bindJSON(c, &p) {
		return
	}
	issued, ok := optionalDateField(c, "issue_date", p.IssueDate)
	if !ok {
		return
	}
	inv, err := ctrl.InvoiceSvc.Update(c.Request.Context(), id, services.InvoiceUpdate{PaymentMethod: p.PaymentMethod, IssueDate: issued})
	if err != nil {
		respondError(c, ctrl.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Invoice updated successfully", "data": inv})
}

func (ctrl *InvoiceController) DeleteInvoice(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := ctrl.InvoiceSvc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, ctrl.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Invoice deleted"})
}
