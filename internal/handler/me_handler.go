package handler

import (
	"context"
	"net/http"

	"wayfare/internal/middleware"
	"wayfare/internal/models"
	"wayfare/internal/service"

	"github.com/gin-gonic/gin"
)

type UserReader interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

type MeHandler struct {
	users UserReader
	lists *service.ListService
	feed  *service.FeedService
}

func NewMeHandler(users UserReader, lists *service.ListService, feed *service.FeedService) *MeHandler {
	return &MeHandler{users: users, lists: lists, feed: feed}
}

// Profile handles GET /me.
func (h *MeHandler) Profile(c *gin.Context) {
	u, err := h.users.GetByID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err, "failed to load profile")
		return
	}
	c.JSON(http.StatusOK, u)
}

// Lists handles GET /me/lists, every visibility included.
func (h *MeHandler) Lists(c *gin.Context) {
	lists, err := h.lists.ListMine(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err, "failed to load lists")
		return
	}
	c.JSON(http.StatusOK, gin.H{"lists": lists})
}

func (h *MeHandler) SavedLists(c *gin.Context) {
	lists, err := h.lists.SavedLists(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err, "failed to load saved lists")
		return
	}
	c.JSON(http.StatusOK, gin.H{"lists": lists})
}

func (h *MeHandler) Preferences(c *gin.Context) {
	p, err := h.feed.Preferences(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err, "failed to load preferences")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *MeHandler) Feed(c *gin.Context) {
	feed, err := h.feed.Feed(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err, "failed to build feed")
		return
	}
	c.JSON(http.StatusOK, feed)
}

type followFunc func(ctx context.Context, userID, id string) (*models.UserPreference, error)

func (h *MeHandler) follow(c *gin.Context, param string, fn followFunc) {
	p, err := fn(c.Request.Context(), middleware.GetUserID(c), c.Param(param))
	if err != nil {
		respondError(c, err, "failed to update preferences")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *MeHandler) FollowTag(c *gin.Context)     { h.follow(c, "tag_id", h.feed.FollowTag) }
func (h *MeHandler) UnfollowTag(c *gin.Context)   { h.follow(c, "tag_id", h.feed.UnfollowTag) }
func (h *MeHandler) FollowPlace(c *gin.Context)   { h.follow(c, "place_id", h.feed.FollowPlace) }
func (h *MeHandler) UnfollowPlace(c *gin.Context) { h.follow(c, "place_id", h.feed.UnfollowPlace) }
