package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bnbillains/services"
)

type secretRoomPayload struct {
	AccessCode    string `json:"access_code"`
	MainFunction  string `json:"main_function"`
	EmergencyExit bool   `json:"emergency_exit"`
}

func (p secretRoomPayload) input() services.SecretRoomInput {
	return services.SecretRoomInput{AccessCode: p.AccessCode, MainFunction: p.MainFunction, EmergencyExit: p.EmergencyExit}
}

type verifyPayload struct {
	AccessCode string `json:"access_code" binding:"required"`
}

type SecretRoomController struct {
	RoomSvc *services.SecretRoomService
	log     *logrus.Logger
}

func NewSecretRoomController(svc *services.SecretRoomService, log *logrus.Logger) *SecretRoomController {
	return &SecretRoomController{RoomSvc: svc, log: log}
}

func (ctrl *SecretRoomController) GetSecretRooms(c *gin.Context) {
	page, err := ctrl.RoomSvc.List(c.Request.Context(), services.SecretRoomFilter{
		Query: c.Query("q"),
		Sort:  sortKey(c),
	}, pageRequest(c))
	if err != nil {
		respondError(c, ctrl.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (ctrl *SecretRoomController) GetSecretRoomByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	room, err := ctrl.RoomSvc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, ctrl.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": room})
}

func (ctrl *SecretRoomController) CreateSecretRoom(c *gin.Context) {
	var p secretRoomPayload
	if !bindJSON(c, &p) {
		return
	}
	room, err := ctrl.RoomSvc.Create(c.Request.Context(), p.input())
	if err != nil {
		respondError(c, ctrl.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Secret room created successfully", "data": room})
}

func (ctrl *SecretRoomController) UpdateSecretRoom(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var p secretRoomPayload
	if !bindJSON(c, &p) {
		return
	}
	room, err := ctrl.RoomSvc.Update(c.Request.Context(), id, p.input())
	if err != nil {
		respondError(c, ctrl.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Secret room updated successfully", "data": room})
}

// VerifySecretRoom (POST /api/secret-rooms/:id/verify) answers {"valid": bool}.
func (ctrl *SecretRoomController) VerifySecretRoom(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var p verifyPayload
	if !bindJSON(c, &p) {
		return
	}
	valid, err := ctrl.RoomSvc.Verify(c.Request.Context(), id, p.AccessCode)
	if err != nil {
		respondError(c, ctrl.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": valid})
}

func (ctrl *SecretRoomController) DeleteSecretRoom(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := ctrl.RoomSvc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, ctrl.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Secret room deleted"})
}
