// Package achievements provides REST API handlers for the achievement catalog
// and per-user achievement progress.
package achievements

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	catalog "github.com/aimd54/questforge/internal/achievements"
	"github.com/aimd54/questforge/internal/api/middleware"
	"github.com/aimd54/questforge/internal/api/response"
	"github.com/aimd54/questforge/internal/service/awards"
	"github.com/aimd54/questforge/pkg/logger"
)

// AwardService interface for achievement operations.
type AwardService interface {
	Catalog(ctx context.Context, userID string) ([]catalog.Achievement, error)
	GetUserSummary(ctx context.Context, userID string) (*awards.Summary, error)
	CheckAndAward(ctx context.Context, userID string) (*awards.CheckResult, error)
}

// Handler handles achievement API requests.
type Handler struct {
	service AwardService
	log     *logger.Logger
}

// NewHandler creates a new achievement handler.
func NewHandler(service *awards.Service, log *logger.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// NewHandlerWithInterfaces creates a new achievement handler with interface dependencies (useful for testing).
func NewHandlerWithInterfaces(service AwardService, log *logger.Logger) *Handler {
	return &Handler{service: service, log: log}
}

type checkRequest struct {
	UserID string `json:"userId"`
}

// Register mounts the achievement routes on an authenticated group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/achievements", h.GetCatalog)
	rg.GET("/achievements/me", h.GetMine)
	rg.POST("/achievements/check", h.Check)
}

// GetCatalog returns the achievement catalog with hidden entries masked.
// GET /api/v1/achievements.
func (h *Handler) GetCatalog(c *gin.Context) {
	list, err := h.service.Catalog(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"achievements": list,
		"total":        len(list),
	})
}

// GetMine returns the caller's unlocked and available achievements.
// GET /api/v1/achievements/me.
func (h *Handler) GetMine(c *gin.Context) {
	summary, err := h.service.GetUserSummary(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_achievements":     summary.TotalAchievements,
		"unlocked_achievements":  summary.UnlockedAchievements,
		"unlocked_list":          summary.UnlockedList,
		"available_achievements": summary.AvailableAchievements,
		"recent_achievements":    summary.RecentAchievements,
		"generated_at":           time.Now().UTC(),
	})
}

// Check evaluates the caller's progress and awards newly met achievements.
// A body naming another user is refused.
// POST /api/v1/achievements/check.
func (h *Handler) Check(c *gin.Context) {
	var req checkRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}

	userID := middleware.UserID(c)
	if req.UserID != "" && req.UserID != userID {
		response.Error(c, http.StatusForbidden, "cannot check achievements for another user")
		return
	}

	result, err := h.service.CheckAndAward(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
