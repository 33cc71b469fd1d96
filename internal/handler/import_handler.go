package handler

import (
	"errors"
	"net/http"

	"wayfare/internal/middleware"
	"wayfare/internal/service"

	"github.com/gin-gonic/gin"
)

const maxImportBytes = 20 << 20

type ImportHandler struct {
	svc       *service.ImportService
	onCreated func()
}

// NewImportHandler calls onCreated after an import that created places.
func NewImportHandler(svc *service.ImportService, onCreated func()) *ImportHandler {
	return &ImportHandler{svc: svc, onCreated: onCreated}
}

func (h *ImportHandler) notify(reports []service.ImportReport) {
	if h.onCreated == nil {
		return
	}
	for _, r := range reports {
		if r.Created > 0 {
			h.onCreated()
			return
		}
	}
}

type importRequest struct {
	Lists []service.ImportList `json:"lists" binding:"required,min=1"`
}

// ImportJSON handles POST /admin/import/lists. Each list is imported on its
// own; a list whose header is invalid is reported and the rest continue.
func (h *ImportHandler) ImportJSON(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	owner := middleware.GetUserID(c)
	reports := make([]service.ImportReport, 0, len(req.Lists))
	for _, in := range req.Lists {
		rep, err := h.svc.ImportList(ctx, owner, in)
		if err != nil && !errors.Is(err, service.ErrInvalidImport) {
			respondError(c, err, "import failed")
			return
		}
		reports = append(reports, *rep)
	}
	h.notify(reports)
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

// ImportXLSX handles POST /admin/import/lists.xlsx with a multipart "file".
func (h *ImportHandler) ImportXLSX(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	if file.Size > maxImportBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}
	defer f.Close()

	reports, err := h.svc.ImportXLSX(c.Request.Context(), middleware.GetUserID(c), f)
	h.notify(reports)
	if err != nil {
		respondError(c, err, "import failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}
