// Package quests provides REST API handlers for quest management.
package quests

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aimd54/questforge/internal/api/middleware"
	"github.com/aimd54/questforge/internal/api/response"
	"github.com/aimd54/questforge/internal/models"
	"github.com/aimd54/questforge/internal/progression"
	"github.com/aimd54/questforge/internal/repository"
	"github.com/aimd54/questforge/internal/service/questgen"
	questsvc "github.com/aimd54/questforge/internal/service/quests"
	"github.com/aimd54/questforge/pkg/logger"
)

// QuestService interface for quest operations.
type QuestService interface {
	List(ctx context.Context, userID string, filter repository.QuestFilter) ([]models.Quest, error)
	Create(ctx context.Context, userID string, in questsvc.CreateInput) (*models.Quest, bool, error)
	Get(ctx context.Context, userID, questID string) (*models.Quest, error)
	Update(ctx context.Context, userID, questID string, in questsvc.UpdateInput) (*models.Quest, error)
	Delete(ctx context.Context, userID, questID string) error
	Generate(ctx context.Context, userID string, in questsvc.GenerateInput) (*questgen.Result, error)
	Complete(ctx context.Context, userID, questID, reflection string) (*questsvc.CompleteResult, error)
	GetCompletionStatus(ctx context.Context, userID, questID string) (*questsvc.CompletionStatus, error)
	Fail(ctx context.Context, userID, questID string) (*models.Quest, error)
}

// Handler handles quest API requests.
type Handler struct {
	service QuestService
	log     *logger.Logger
}

// NewHandler creates a new quest handler.
func NewHandler(service *questsvc.Service, log *logger.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// NewHandlerWithInterfaces creates a new quest handler with interface dependencies (useful for testing).
func NewHandlerWithInterfaces(service QuestService, log *logger.Logger) *Handler {
	return &Handler{service: service, log: log}
}

type createRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	OriginalTask string `json:"originalTask"`
	XPReward     *int   `json:"xpReward"`
	Difficulty   string `json:"difficulty"`
	Category     string `json:"category"`
	PrimaryStat  string `json:"primaryStat"`
}

type updateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

type generateRequest struct {
	Task           string `json:"task"`
	UserLevel      *int   `json:"userLevel"`
	CharacterClass string `json:"characterClass"`
	UseAI          *bool  `json:"useAI"`
}

type completeRequest struct {
	Reflection string `json:"reflection"`
}

// Register mounts the quest routes on an authenticated group. generateLimit
// guards the generation endpoint and may be nil.
func (h *Handler) Register(rg *gin.RouterGroup, generateLimit gin.HandlerFunc) {
	rg.GET("/quests", h.List)
	rg.POST("/quests", h.Create)
	if generateLimit != nil {
		rg.POST("/quests/generate", generateLimit, h.Generate)
	} else {
		rg.POST("/quests/generate", h.Generate)
	}
	rg.GET("/quests/:id", h.Get)
	rg.PATCH("/quests/:id", h.Update)
	rg.DELETE("/quests/:id", h.Delete)
	rg.POST("/quests/:id/complete", h.Complete)
	rg.GET("/quests/:id/complete", h.CompletionStatus)
	rg.POST("/quests/:id/fail", h.Fail)
}

// List returns the caller's quests.
// GET /api/v1/quests?status=active&limit=20&offset=0.
func (h *Handler) List(c *gin.Context) {
	limit, err := parseNonNegative(c, "limit")
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := parseNonNegative(c, "offset")
	if err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	quests, err := h.service.List(c.Request.Context(), middleware.UserID(c), repository.QuestFilter{
		Status: c.Query("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"quests":       quests,
		"count":        len(quests),
		"generated_at": time.Now().UTC(),
	})
}

// Create stores a quest. A duplicate active task answers 200 with created=false.
// POST /api/v1/quests.
func (h *Handler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}

	quest, created, err := h.service.Create(c.Request.Context(), middleware.UserID(c), questsvc.CreateInput{
		Title:        req.Title,
		Description:  req.Description,
		OriginalTask: req.OriginalTask,
		XPReward:     req.XPReward,
		Difficulty:   req.Difficulty,
		Category:     req.Category,
		PrimaryStat:  req.PrimaryStat,
	})
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{
		"quest":   quest,
		"created": created,
	})
}

// Generate returns a quest draft for a task.
// POST /api/v1/quests/generate.
func (h *Handler) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.service.Generate(c.Request.Context(), middleware.UserID(c), questsvc.GenerateInput{
		Task:           req.Task,
		UserLevel:      req.UserLevel,
		CharacterClass: req.CharacterClass,
		UseAI:          req.UseAI,
	})
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"quest":           result.Draft,
		"source":          result.Source,
		"difficulty_icon": progression.DifficultyIcon(result.Difficulty),
		"generated_at":    time.Now().UTC(),
	})
}

// Get returns one quest.
// GET /api/v1/quests/:id.
func (h *Handler) Get(c *gin.Context) {
	quest, err := h.service.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quest": quest})
}

// Update edits an active quest's title or description.
// PATCH /api/v1/quests/:id.
func (h *Handler) Update(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}

	quest, err := h.service.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), questsvc.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quest": quest})
}

// Delete removes a quest.
// DELETE /api/v1/quests/:id.
func (h *Handler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		response.FromError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Complete completes a quest with an optional reflection.
// POST /api/v1/quests/:id/complete.
func (h *Handler) Complete(c *gin.Context) {
	var req completeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.service.Complete(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Reflection)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CompletionStatus reports whether a quest is completed.
// GET /api/v1/quests/:id/complete.
func (h *Handler) CompletionStatus(c *gin.Context) {
	status, err := h.service.GetCompletionStatus(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// Fail marks a quest failed.
// POST /api/v1/quests/:id/fail.
func (h *Handler) Fail(c *gin.Context) {
	quest, err := h.service.Fail(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quest": quest})
}

// parseNonNegative reads an optional integer query parameter.
func parseNonNegative(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s parameter: %s", name, raw)
	}
	if v < 0 {
		return 0, fmt.Errorf("%s must not be negative", name)
	}
	return v, nil
}
