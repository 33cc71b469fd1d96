package handler

import (
	"context"
	"net/http"
	"strings"

	"wayfare/internal/domain"
	"wayfare/internal/models"
	"wayfare/internal/service"
	"wayfare/internal/store"

	"github.com/gin-gonic/gin"
)

type TagStore interface {
	Active(ctx context.Context) ([]models.Tag, error)
	All(ctx context.Context) ([]models.Tag, error)
	GetByIdentifier(ctx context.Context, identifier string) (*models.Tag, error)
	Create(ctx context.Context, t *models.Tag) error
}

type TagHandler struct {
	tags TagStore
}

func NewTagHandler(tags TagStore) *TagHandler {
	return &TagHandler{tags: tags}
}

// List handles GET /tags. Admins may pass all=true to include disabled tags.
func (h *TagHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		tags []models.Tag
		err  error
	)
	if c.Query("all") == "true" && c.GetString("role") == domain.RoleAdmin {
		tags, err = h.tags.All(ctx)
	} else {
		tags, err = h.tags.Active(ctx)
	}
	if err != nil {
		respondError(c, err, "failed to list tags")
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

type createTagRequest struct {
	Label      string `json:"label" binding:"required,max=128"`
	Identifier string `json:"identifier" binding:"max=64"`
	SortOrder  int    `json:"sort_order"`
}

// Create handles POST /tags. The identifier defaults to the slug of the label.
func (h *TagHandler) Create(c *gin.Context) {
	var req createTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ident := service.Slugify(req.Identifier)
	if ident == "" {
		ident = service.Slugify(req.Label)
	}
	if ident == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrInvalidName.Error()})
		return
	}
	ctx := c.Request.Context()
	if _, err := h.tags.GetByIdentifier(ctx, ident); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "tag identifier already in use"})
		return
	} else if !store.IsNotFound(err) {
		respondError(c, err, "failed to create tag")
		return
	}
	tag := &models.Tag{Label: strings.TrimSpace(req.Label), Identifier: ident, Active: true, SortOrder: req.SortOrder}
	if err := h.tags.Create(ctx, tag); err != nil {
		respondError(c, err, "failed to create tag")
		return
	}
	c.JSON(http.StatusCreated, tag)
}
