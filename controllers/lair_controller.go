package controllers

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"bnbillains/models"
	"bnbillains/services"
	"bnbillains/utils"
)

type lairPayload struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Location     string          `json:"location"`
	NightlyPrice decimal.Decimal `json:"nightly_price"`
	Image        string          `json:"image"`
	SecretRoomID *uint           `json:"secret_room_id"`
	AmenityIDs   []uint          `json:"amenity_ids"`
}

func (p lairPayload) input() services.LairInput {
	return services.LairInput{
		Name:         p.Name,
		Description:  p.Description,
		Location:     p.Location,
		NightlyPrice: p.NightlyPrice,
		Image:        p.Image,
		SecretRoomID: p.SecretRoomID,
		AmenityIDs:   p.AmenityIDs,
	}
}

type lairView struct {
	models.Lair
	ImagePath string `json:"image_path"`
}

func viewOf(l models.Lair) lairView {
	return lairView{Lair: l, ImagePath: l.ImagePath()}
}

type imagePayload struct {
	Image string `json:"image" binding:"required"`
}

type LairController struct {
	LairSvc    *services.LairService
	BookingSvc *services.ReservationService
	Images     *services.ImageStore
	log        *logrus.Logger
}

func NewLairController(svc *services.LairService, booking *services.ReservationService, images *services.ImageStore, log *logrus.Logger) *LairController {
	return &LairController{LairSvc: svc, BookingSvc: booking, Images: images, log: log}
}

// GetLairs (GET /api/lairs?name=&location=&min_price=&max_price=&sort=&page=&size=)
func (ctrl *LairController) GetLairs(c *gin.Context) {
	minPrice, ok := queryDecimal(c, "min_price")
	if !ok {
		return
	}
	maxPrice, ok := queryDecimal(c, "max_price")
	if !ok {
		return
	}

	page, err := ctrl.LairSvc.List(c.Request.Context(), services.LairFilter{
		Name:     c.Query("name"),
		Location: c.Query("location"),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
		Sort:     sortKey(c),
	}, pageRequest(c))
	if err != nil {
		respondError(c, ctrl.log, err)
		return
	}

	views := make([]lairView, 0, len(page.Items))
	for _, l := range page.Items {
		views = append(views, viewOf(l))
	}
	c.JSON(http.StatusOK, services.Page[lairView]{
		Items:      views,
		Page:       page.Page,
		Size:       page.Size,
		TotalItems: page.TotalItems,
		TotalPages: page.TotalPages,
	})
}

func (ctrl *LairController) GetLairByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	l, err := ctrl.LairSvc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, ctrl.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": viewOf(*l)})
}

func (ctrl *LairController) CreateLair(c *gin.Context) {
	var p lairPayload
	if !bindJSON(c, &p) {
		return
	}
	l, err := ctrl.LairSvc.Create(c.Request.Context(), p.input())
	if err != nil {
		respondError(c, ctrl.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Lair created successfully", "data": viewOf(*l)})
}

func (ctrl *LairController) UpdateLair(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var p lairPayload
	if !bindJSON(c, &p) {
		return
	}
	l, err := ctrl.LairSvc.Update(c.Request.Context(), id, p.input())
	if err != nil {
		respondError(c, ctrl.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Lair updated successfully", "data": viewOf(*l)})
}

func (ctrl *LairController) DeleteLair(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := ctrl.LairSvc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, ctrl.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Lair deleted"})
}

// GetOccupiedDates (GET /api/lairs/:id/occupied-dates) feeds the booking
// calendar; an unknown lair simply has no occupied dates.
func (ctrl *LairController) GetOccupiedDates(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	dates, err := ctrl.BookingSvc.ListOccupiedDates(c.Request.Context(), id)
	if err != nil {
		respondError(c, ctrl.log, err)
		return
	}
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, utils.FormatDate(d))
	}
	c.JSON(http.StatusOK, out)
}

// GetLairImage (GET /api/lairs/:id/image) redirects to the lair picture or
// the default one.
func (ctrl *LairController) GetLairImage(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	path, err := ctrl.LairSvc.ImagePath(c.Request.Context(), id)
	if err != nil {
		respondError(c, ctrl.log, err)
		return
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	c.Redirect(http.StatusFound, path)
}

// UploadLairImage (POST /api/lairs/:id/image) takes a multipart "image" file
// or a JSON {"image": "<base64 or data URL>"} body.
func (ctrl *LairController) UploadLairImage(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := ctrl.LairSvc.Get(ctx, id); err != nil {
		respondError(c, ctrl.log, err)
		return
	}

	var (
		stored string
		err    error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		file, ferr := c.FormFile("image")
		if ferr != nil {
			badRequest(c, "Form field image is required.")
			return
		}
		f, ferr := file.Open()
		if ferr != nil {
			respondError(c, ctrl.log, ferr)
			return
		}
		data, ferr := io.ReadAll(io.LimitReader(f, 6<<20))
		f.Close()
		if ferr != nil {
			respondError(c, ctrl.log, ferr)
			return
		}
		stored, err = ctrl.Images.Save(data, "lairs")
	} else {
		var p imagePayload
		if !bindJSON(c, &p) {
			return
		}
		stored, err = ctrl.Images.SaveBase64(p.Image, "lairs")
	}
	if err != nil {
		respondError(c, ctrl.log, err)
		return
	}

	lair, previous, err := ctrl.LairSvc.SetImage(ctx, id, stored)
	if err != nil {
		_ = ctrl.Images.Remove(stored)
		respondError(c, ctrl.log, err)
		return
	}
	if previous != "" && previous != stored {
		if err := ctrl.Images.Remove(previous); err != nil {
			ctrl.log.WithError(err).WithField("lair_id", id).Warn("old lair image not removed")
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Image uploaded", "data": viewOf(*lair)})
}
