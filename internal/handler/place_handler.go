package handler

import (
	"context"
	"net/http"

	"wayfare/internal/models"
	"wayfare/internal/service"
	"wayfare/internal/store"

	"github.com/gin-gonic/gin"
)

// PlaceSearcher pages through the catalog for the admin browser.
type PlaceSearcher interface {
	Search(ctx context.Context, page, perPage int, q, placeType string) (*store.Page[models.Place], error)
}

type PlaceHandler struct {
	svc    *service.PlaceService
	search PlaceSearcher
}

func NewPlaceHandler(svc *service.PlaceService, search PlaceSearcher) *PlaceHandler {
	return &PlaceHandler{svc: svc, search: search}
}

// Search handles GET /places?q=&type=&page=&limit=.
func (h *PlaceHandler) Search(c *gin.Context) {
	page, limit := parsePagination(c)
	res, err := h.search.Search(c.Request.Context(), page, limit, c.Query("q"), c.Query("type"))
	if err != nil {
		respondError(c, err, "failed to search places")
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *PlaceHandler) Get(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "failed to load place")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *PlaceHandler) Create(c *gin.Context) {
	var in service.PlaceInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err, "failed to create place")
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *PlaceHandler) Update(c *gin.Context) {
	var patch service.PlacePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.svc.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, err, "failed to update place")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *PlaceHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, "failed to delete place")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
