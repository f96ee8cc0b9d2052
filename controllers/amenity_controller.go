package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bnbillains/services"
)

type amenityPayload struct {
	Name         string `json:"name"`
	SelfDestruct bool   `json:"self_destruct"`
}

type AmenityController struct {
	AmenitySvc *services.AmenityService
	log        *logrus.Logger
}

func NewAmenityController(svc *services.AmenityService, log *logrus.Logger) *AmenityController {
	return &AmenityController{AmenitySvc: svc, log: log}
}

func (ctrl *AmenityController) GetAmenities(c *gin.Context) {
	page, err := ctrl.AmenitySvc.List(c.Request.Context(), services.AmenityFilter{
		Name: c.Query("name"),
		Sort: sortKey(c),
	}, pageRequest(c))
	if err != nil {
		respondError(c, ctrl.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (ctrl *AmenityController) GetAmenityByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	a, err := ctrl.AmenitySvc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, ctrl.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": a})
}

func (ctrl *AmenityController) CreateAmenity(c *gin.Context) {
	var p amenityPayload
	if !bindJSON(c, &p) {
		return
	}
	a, err := ctrl.AmenitySvc.Create(c.Request.Context(), services.AmenityInput{Name: p.Name, SelfDestruct: p.SelfDestruct})
	if err != nil {
		respondError(c, ctrl.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Amenity created successfully", "data": a})
}

func (ctrl *AmenityController) UpdateAmenity(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var p amenityPayload
	if !bindJSON(c, &p) {
		return
	}
	a, err := ctrl.AmenitySvc.Update(c.Request.Context(), id, services.AmenityInput{Name: p.Name, SelfDestruct: p.SelfDestruct})
	if err != nil {
		respondError(c, ctrl.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Amenity updated successfully", "data": a})
}

func (ctrl *AmenityController) DeleteAmenity(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := ctrl.AmenitySvc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, ctrl.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Amenity deleted"})
}
