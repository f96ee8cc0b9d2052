package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bnbillains/services"
)

type villainPayload struct {
	Name        string `json:"name"`
	Alias       string `json:"alias"`
	LicenseCode string `json:"license_code"`
	Email       string `json:"email"`
}

func (p villainPayload) input() services.VillainInput {
	return services.VillainInput{Name: p.Name, Alias: p.Alias, LicenseCode: p.LicenseCode, Email: p.Email}
}

type VillainController struct {
	VillainSvc *services.VillainService
	InvoiceSvc *services.InvoiceService
	log        *logrus.Logger
}

func NewVillainController(svc *services.VillainService, invoices *services.InvoiceService, log *logrus.Logger) *VillainController {
	return &VillainController{VillainSvc: svc, InvoiceSvc: invoices, log: log}
}

// GetVillains (GET /api/villains?q=&sort=&page=&size=)
func (ctrl *VillainController) GetVillains(c *gin.Context) {
	page, err := ctrl.VillainSvc.List(c.Request.Context(), services.VillainFilter{
		Query: c.Query("q"),
		Sort:  sortKey(c),
	}, pageRequest(c))
	if err != nil {
		respondError(c, ctrl.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (ctrl *VillainController) GetVillainByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	v, err := ctrl.VillainSvc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, ctrl.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": v})
}

func (ctrl *VillainController) CreateVillain(c *gin.Context) {
	var p villainPayload
	if !bindJSON(c, &p) {
		return
	}
	v, err := ctrl.VillainSvc.Create(c.Request.Context(), p.input())
	if err != nil {
		respondError(c, ctrl.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Villain created successfully", "data": v})
}

func (ctrl *VillainController) UpdateVillain(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var p villainPayload
	if !bindJSON(c, &p) {
		return
	}
	v, err := ctrl.VillainSvc.Update(c.Request.Context(), id, p.input())
	if err != nil {
		respondError(c, ctrl.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Villain updated successfully", "data": v})
}

// DeleteVillain also removes the villain's reservations, invoices and reviews.
func (ctrl *VillainController) DeleteVillain(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := ctrl.VillainSvc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, ctrl.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Villain deleted"})
}

// GetVillainInvoices (GET /api/villains/:id/invoices)
func (ctrl *VillainController) GetVillainInvoices(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := ctrl.VillainSvc.Get(ctx, id); err != nil {
		respondError(c, ctrl.log, err)
		return
	}
	invoices, err := ctrl.InvoiceSvc.ListByVillain(ctx, id)
	if err != nil {
		respondError(c, ctrl.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": invoices})
}
