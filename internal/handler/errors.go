package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"wayfare/internal/service"
	"wayfare/internal/store"
	"wayfare/pkg/mapview"

	"github.com/gin-gonic/gin"
)

var badRequest = []error{
	service.ErrInvalidPlaceType,
	service.ErrInvalidCoordinates,
	service.ErrInvalidVisibility,
	service.ErrInvalidRating,
	service.ErrInvalidOrder,
	service.ErrInvalidZoom,
	service.ErrInvalidImport,
	service.ErrInvalidName,
	service.ErrInvalidFilter,
	service.ErrTypeImmutable,
	service.ErrPlaceNotInList,
	service.ErrPhotoNotOfPlace,
	store.ErrInvalidFilter,
	mapview.ErrInvalidBounds,
}

var conflict = []error{
	service.ErrPlaceAlreadyInList,
	service.ErrSlugTaken,
	service.ErrEmailExists,
	service.ErrUsernameExists,
}

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// statusOf maps a service error to its HTTP status.
func statusOf(err error) int {
	switch {
	case store.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInvalidCreds):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrPhotosDisabled):
		return http.StatusServiceUnavailable
	case isAny(err, conflict):
		return http.StatusConflict
	case isAny(err, badRequest):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError writes err as {"error": ...}. Internal errors are logged and
// replaced by fallback so storage details never reach the client.
func respondError(c *gin.Context, err error, fallback string) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		log.Printf("[HTTP] %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(status, gin.H{"error": fallback})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
