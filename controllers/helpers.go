package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"bnbillains/middleware"
	"bnbillains/services"
	"bnbillains/utils"
)

// DefaultPageSize applies when a listing request has no size parameter.
var DefaultPageSize = services.DefaultPageSize

var errorCodes = map[services.ErrorKind]string{
	services.KindInvalidRange: "error.invalidRange",
	services.KindOverbooking:  "error.overbooking",
	services.KindNotFound:     "error.notFound",
	services.KindDuplicate:    "error.duplicate",
	services.KindInvalidInput: "error.invalidInput",
}

func statusOf(kind services.ErrorKind) int {
	switch kind {
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindOverbooking, services.KindDuplicate:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// respondError turns a service error into the JSON error envelope. Anything
// that is not a ValidationError is logged and reported as a 500.
func respondError(c *gin.Context, log *logrus.Logger, err error) {
	var verr *services.ValidationError
	if !errors.As(err, &verr) {
		log.WithFields(logrus.Fields{
			"request_id": middleware.GetRequestID(c),
			"path":       c.FullPath(),
		}).WithError(err).Error("request failed")
		utils.JSONError(c, http.StatusInternalServerError, "error.internal", "Something went wrong, please try again later.")
		return
	}

	code := errorCodes[verr.Kind]
	if verr.Kind == services.KindOverbooking {
		utils.JSONErrorWithDetails(c, statusOf(verr.Kind), code, verr.Message, gin.H{
			"conflict": gin.H{
				"start_date": utils.FormatDate(verr.ConflictStart),
				"end_date":   utils.FormatDate(verr.ConflictEnd),
			},
		})
		return
	}
	utils.JSONError(c, statusOf(verr.Kind), code, verr.Message)
}

func badRequest(c *gin.Context, message string) {
	utils.JSONError(c, http.StatusBadRequest, "error.invalidInput", message)
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "Invalid id.")
		return 0, false
	}
	return uint(id), true
}

func pageRequest(c *gin.Context) services.PageRequest {
	page, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("size"))
	if size < 1 {
		size = DefaultPageSize
	}
	return services.NewPageRequest(page, size)
}

func sortKey(c *gin.Context) services.SortKey {
	return services.SortKey(strings.TrimSpace(c.Query("sort")))
}

// optional query parsers report false after answering 400

func queryUint(c *gin.Context, name string) (uint, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		badRequest(c, "Query parameter "+name+" must be a positive integer.")
		return 0, false
	}
	return uint(v), true
}

func queryDecimal(c *gin.Context, name string) (*decimal.Decimal, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		badRequest(c, "Query parameter "+name+" must be a number.")
		return nil, false
	}
	return &v, true
}

func queryBool(c *gin.Context, name string) (*bool, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		badRequest(c, "Query parameter "+name+" must be true or false.")
		return nil, false
	}
	return &v, true
}

// parseDateField parses a required YYYY-MM-DD body field.
func parseDateField(c *gin.Context, name, raw string) (time.Time, bool) {
	if strings.TrimSpace(raw) == "" {
		badRequest(c, "Field "+name+" is required.")
		return time.Time{}, false
	}
	d, err := utils.ParseDate(raw)
	if err != nil {
		badRequest(c, "Field "+name+" must be a date in YYYY-MM-DD format.")
		return time.Time{}, false
	}
	return d, true
}

func optionalDateField(c *gin.Context, name string, raw *string) (*time.Time, bool) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, true
	}
	d, ok := parseDateField(c, name, *raw)
	if !ok {
		return nil, false
	}
	return &d, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return false
	}
	return true
}
