package handler

import (
	"net/http"

	"wayfare/internal/domain"
	"wayfare/internal/middleware"
	"wayfare/internal/service"

	"github.com/gin-gonic/gin"
)

const maxPhotoBytes = 10 << 20

type PhotoHandler struct {
	svc *service.PhotoService
}

func NewPhotoHandler(svc *service.PhotoService) *PhotoHandler {
	return &PhotoHandler{svc: svc}
}

// List handles GET /places/:id/photos.
func (h *PhotoHandler) List(c *gin.Context) {
	photos, err := h.svc.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "failed to list photos")
		return
	}
	c.JSON(http.StatusOK, gin.H{"photos": photos})
}

// Upload handles POST /places/:id/photos with a multipart "file" field.
func (h *PhotoHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	if file.Size > maxPhotoBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}
	defer f.Close()

	photo, err := h.svc.Upload(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), f)
	if err != nil {
		respondError(c, err, "upload failed")
		return
	}
	c.JSON(http.StatusCreated, photo)
}

// Delete handles DELETE /places/:id/photos/:photo_id.
func (h *PhotoHandler) Delete(c *gin.Context) {
	isAdmin := c.GetString("role") == domain.RoleAdmin
	err := h.svc.Delete(c.Request.Context(), c.Param("id"), c.Param("photo_id"), middleware.GetUserID(c), isAdmin)
	if err != nil {
		respondError(c, err, "failed to delete photo")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
