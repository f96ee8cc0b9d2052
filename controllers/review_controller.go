package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bnbillains/services"
)

type reviewPayload struct {
	Comment     string  `json:"comment"`
	Score       int     `json:"score"`
	VillainID   uint    `json:"villain_id"`
	LairID      uint    `json:"lair_id"`
	PublishedOn *string `json:"published_on"`
}

func (p reviewPayload) input(c *gin.Context) (services.ReviewInput, bool) {
	published, ok := optionalDateField(c, "published_on", p.PublishedOn)
	if !ok {
		return services.ReviewInput{}, false
	}
	return services.ReviewInput{
		Comment:     p.Comment,
		Score:       p.Score,
		VillainID:   p.VillainID,
		LairID:      p.LairID,
		PublishedOn: published,
	}, true
}

type ReviewController struct {
	ReviewSvc *services.ReviewService
	log       *logrus.Logger
}

func NewReviewController(svc *services.ReviewService, log *logrus.Logger) *ReviewController {
	return &ReviewController{ReviewSvc: svc, log: log}
}

// GetReviews (GET /api/reviews?score=&q=&lair_id=&villain_id=&sort=&page=&size=)
func (ctrl *ReviewController) GetReviews(c *gin.Context) {
	score := 0
	if raw := strings.TrimSpace(c.Query("score")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "Query parameter score must be a number between 1 and 5.")
			return
		}
		score = v
	}
	lairID, ok := queryUint(c, "lair_id")
	if !ok {
		return
	}
	villainID, ok := queryUint(c, "villain_id")
	if !ok {
		return
	}

	page, err := ctrl.ReviewSvc.List(c.Request.Context(), services.ReviewFilter{
		Score:     score,
		Query:     c.Query("q"),
		LairID:    lairID,
		VillainID: villainID,
		Sort:      sortKey(c),
	}, pageRequest(c))
	if err != nil {
		respondError(c, ctrl.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (ctrl *ReviewController) GetReviewByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	r, err := ctrl.ReviewSvc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, ctrl.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": r})
}

func (ctrl *ReviewController) CreateReview(c *gin.Context) {
	var p reviewPayload
	if !bindJSON(c, &p) {
		return
	}
	in, ok := p.input(c)
	if !ok {
		return
	}
	r, err := ctrl.ReviewSvc.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, ctrl.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Review created successfully", "data": r})
}

func (ctrl *ReviewController) UpdateReview(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var p reviewPayload
	if !bindJSON(c, &p) {
		return
	}
	in, ok := p.input(c)
	if !ok {
		return
	}
	r, err := ctrl.ReviewSvc.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, ctrl.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Review updated successfully", "data": r})
}

func (ctrl *ReviewController) DeleteReview(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := ctrl.ReviewSvc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, ctrl.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Review deleted"})
}
