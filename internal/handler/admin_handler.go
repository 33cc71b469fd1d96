package handler

import (
	"errors"
	"net/http"
	"strconv"

	"wayfare/internal/domain"
	"wayfare/internal/repository"
	"wayfare/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AdminHandler struct {
	adminRepo *repository.AdminRepository
	authSvc   *service.AuthService
	lists     *service.ListService
	explore   *service.ExploreService
	notify    Notifier
}

// Notifier pushes admin changes to connected map clients.
type Notifier interface {
	PlacesChanged()
	RoleChanged(userID, role string)
}

func NewAdminHandler(
	adminRepo *repository.AdminRepository,
	authSvc *service.AuthService,
	lists *service.ListService,
	explore *service.ExploreService,
	notify Notifier,
) *AdminHandler {
	return &AdminHandler{
		adminRepo: adminRepo,
		authSvc:   authSvc,
		lists:     lists,
		explore:   explore,
		notify:    notify,
	}
}

// AdminLogin handles POST /admin/login; only ADMIN accounts get tokens.
func (h *AdminHandler) AdminLogin(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, access, refresh, err := h.authSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if u.Role != domain.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":          u,
		"access_token":  access,
		"refresh_token": refresh,
	})
}

// Dashboard handles GET /admin/dashboard.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.adminRepo.GetDashboardStats(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to load stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Analytics handles GET /admin/analytics?days=30.
func (h *AdminHandler) Analytics(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	if days < 1 || days > 365 {
		days = 30
	}
	ctx := c.Request.Context()
	signups, err := h.adminRepo.UserSignupsByDay(ctx, days)
	if err != nil {
		respondError(c, err, "failed to load analytics")
		return
	}
	lists, err := h.adminRepo.ListsByDay(ctx, days)
	if err != nil {
		respondError(c, err, "failed to load analytics")
		return
	}
	saves, err := h.adminRepo.SavesByDay(ctx, days)
	if err != nil {
		respondError(c, err, "failed to load analytics")
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": days, "signups": signups, "lists": lists, "saves": saves})
}

// ListUsers handles GET /admin/users.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, limit := parsePagination(c)
	users, total, err := h.adminRepo.ListUsers(c.Request.Context(), c.Query("search"), c.Query("role"), page, limit)
	if err != nil {
		respondError(c, err, "failed to list users")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": users, "total": total, "page": page, "limit": limit})
}

// SetUserRole handles PATCH /admin/users/:id/role.
func (h *AdminHandler) SetUserRole(c *gin.Context) {
	var req struct {
		Role string `json:"role" binding:"required,oneof=USER ADMIN"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.adminRepo.SetUserRole(c.Request.Context(), c.Param("id"), req.Role); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		respondError(c, err, "update failed")
		return
	}
	if h.notify != nil {
		h.notify.RoleChanged(c.Param("id"), req.Role)
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RecomputeCenter handles POST /admin/lists/:id/recompute-center.
func (h *AdminHandler) RecomputeCenter(c *gin.Context) {
	id := c.Param("id")
	if err := h.lists.RecomputeCenter(c.Request.Context(), id); err != nil {
		respondError(c, err, "recompute failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "list_id": id})
}

// ReloadCatalog handles POST /admin/catalog/reload: drops the cached
// catalog and tells connected map clients to refresh.
func (h *AdminHandler) ReloadCatalog(c *gin.Context) {
	ctx := c.Request.Context()
	h.explore.Invalidate(ctx)
	places, err := h.explore.Catalog(ctx)
	if err != nil {
		respondError(c, err, "reload failed")
		return
	}
	if h.notify != nil {
		h.notify.PlacesChanged()
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "places": len(places)})
}
