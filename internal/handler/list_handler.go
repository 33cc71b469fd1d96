package handler

import (
	"bytes"
	"net/http"

	"wayfare/internal/middleware"
	"wayfare/internal/service"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ListHandler struct {
	lists   *service.ListService
	imports *service.ImportService
}

func NewListHandler(lists *service.ListService, imports *service.ImportService) *ListHandler {
	return &ListHandler{lists: lists, imports: imports}
}

// Public handles GET /lists?q=&page=&limit=.
func (h *ListHandler) Public(c *gin.Context) {
	page, limit := parsePagination(c)
	res, err := h.lists.ListPublic(c.Request.Context(), page, limit, c.Query("q"))
	if err != nil {
		respondError(c, err, "failed to list lists")
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ListHandler) Get(c *gin.Context) {
	l, err := h.lists.GetList(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err, "failed to load list")
		return
	}
	c.JSON(http.StatusOK, l)
}

func (h *ListHandler) Create(c *gin.Context) {
	var in service.CreateListInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	l, err := h.lists.CreateList(c.Request.Context(), middleware.GetUserID(c), in)
	if err != nil {
		respondError(c, err, "failed to create list")
		return
	}
	c.JSON(http.StatusCreated, l)
}

func (h *ListHandler) Update(c *gin.Context) {
	var in service.UpdateListInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	l, err := h.lists.UpdateList(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), in)
	if err != nil {
		respondError(c, err, "failed to update list")
		return
	}
	c.JSON(http.StatusOK, l)
}

func (h *ListHandler) Delete(c *gin.Context) {
	if err := h.lists.DeleteList(c.Request.Context(), c.Param("id"), middleware.GetUserID(c)); err != nil {
		respondError(c, err, "failed to delete list")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// SlugExists handles GET /lists/slug/:slug/exists.
func (h *ListHandler) SlugExists(c *gin.Context) {
	slug := service.Slugify(c.Param("slug"))
	if slug == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrInvalidName.Error()})
		return
	}
	ok, err := h.lists.SlugExists(c.Request.Context(), slug)
	if err != nil {
		respondError(c, err, "failed to check slug")
		return
	}
	c.JSON(http.StatusOK, gin.H{"slug": slug, "exists": ok})
}

// Places handles GET /lists/:id/places; members come back in rank order.
func (h *ListHandler) Places(c *gin.Context) {
	places, err := h.lists.Places(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err, "failed to load list places")
		return
	}
	c.JSON(http.StatusOK, gin.H{"places": places})
}

func (h *ListHandler) Route(c *gin.Context) {
	fc, err := h.lists.Route(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err, "failed to build route")
		return
	}
	c.JSON(http.StatusOK, fc)
}

func (h *ListHandler) Center(c *gin.Context) {
	loc, err := h.lists.Center(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err, "failed to load list center")
		return
	}
	c.JSON(http.StatusOK, loc)
}

// Export handles GET /lists/:id/export.xlsx.
func (h *ListHandler) Export(c *gin.Context) {
	id := c.Param("id")
	var buf bytes.Buffer
	if err := h.imports.ExportXLSX(c.Request.Context(), id, middleware.GetUserID(c), &buf); err != nil {
		respondError(c, err, "export failed")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="list-`+id+`.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

type addPlaceRequest struct {
	PlaceID string `json:"place_id" binding:"required"`
}

// AddPlace appends a place at the end of the list.
func (h *ListHandler) AddPlace(c *gin.Context) {
	var req addPlaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	lp, err := h.lists.AddPlace(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), req.PlaceID)
	if err != nil {
		respondError(c, err, "failed to add place")
		return
	}
	c.JSON(http.StatusCreated, lp)
}

func (h *ListHandler) RemovePlace(c *gin.Context) {
	err := h.lists.RemovePlace(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), c.Param("place_id"))
	if err != nil {
		respondError(c, err, "failed to remove place")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type reorderRequest struct {
	PlaceIDs []string `json:"place_ids" binding:"required"`
}

// Reorder handles PUT /lists/:id/places/order with the full new order.
func (h *ListHandler) Reorder(c *gin.Context) {
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.lists.ReorderPlaces(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), req.PlaceIDs); err != nil {
		respondError(c, err, "failed to reorder places")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *ListHandler) Save(c *gin.Context) {
	if err := h.lists.SaveList(c.Request.Context(), c.Param("id"), middleware.GetUserID(c)); err != nil {
		respondError(c, err, "failed to save list")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *ListHandler) Unsave(c *gin.Context) {
	if err := h.lists.UnsaveList(c.Request.Context(), c.Param("id"), middleware.GetUserID(c)); err != nil {
		respondError(c, err, "failed to unsave list")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type rateRequest struct {
	Score int `json:"score" binding:"required"`
}

func (h *ListHandler) Rate(c *gin.Context) {
	var req rateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	l, err := h.lists.RateList(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), req.Score)
	if err != nil {
		respondError(c, err, "failed to rate list")
		return
	}
	c.JSON(http.StatusOK, l)
}
