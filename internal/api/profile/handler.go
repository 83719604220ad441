// Package profile provides REST API handlers for the caller's profile.
package profile

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aimd54/questforge/internal/api/middleware"
	"github.com/aimd54/questforge/internal/api/response"
	profilesvc "github.com/aimd54/questforge/internal/service/profile"
	"github.com/aimd54/questforge/pkg/logger"
)

// ProfileService interface for profile operations.
type ProfileService interface {
	GetProfile(ctx context.Context, userID string) (*profilesvc.Profile, error)
	UpdateProfile(ctx context.Context, userID string, in profilesvc.UpdateInput) (*profilesvc.Profile, error)
}

// Handler handles profile API requests.
type Handler struct {
	service ProfileService
	log     *logger.Logger
}

// NewHandler creates a new profile handler.
func NewHandler(service *profilesvc.Service, log *logger.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// NewHandlerWithInterfaces creates a new profile handler with interface dependencies (useful for testing).
func NewHandlerWithInterfaces(service ProfileService, log *logger.Logger) *Handler {
	return &Handler{service: service, log: log}
}

type updateRequest struct {
	Username       *string `json:"username"`
	CharacterClass *string `json:"character_class"`
}

// Register mounts the profile routes on an authenticated group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/me", h.Get)
	rg.PATCH("/me", h.Update)
}

// Get returns the caller's profile.
// GET /api/v1/me.
func (h *Handler) Get(c *gin.Context) {
	p, err := h.service.GetProfile(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Update changes the caller's username or character class.
// PATCH /api/v1/me.
func (h *Handler) Update(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.service.UpdateProfile(c.Request.Context(), middleware.UserID(c), profilesvc.UpdateInput{
		Username:       req.Username,
		CharacterClass: req.CharacterClass,
	})
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
