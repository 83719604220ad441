// Package quests implements the quest lifecycle: creation, generation,
// editing and the completion and failure transitions.
package quests

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aimd54/questforge/internal/achievements"
	"github.com/aimd54/questforge/internal/apperrors"
	prommetrics "github.com/aimd54/questforge/internal/metrics"
	"github.com/aimd54/questforge/internal/models"
	"github.com/aimd54/questforge/internal/notify"
	"github.com/aimd54/questforge/internal/progression"
	"github.com/aimd54/questforge/internal/repository"
	"github.com/aimd54/questforge/internal/service/awards"
	"github.com/aimd54/questforge/internal/service/questgen"
	"github.com/aimd54/questforge/pkg/logger"
)

// Listing and text limits.
const (
	DefaultListLimit     = 50
	MaxListLimit         = 100
	MaxTitleLength       = 255
	MaxDescriptionLength = 5000
	MaxReflectionLength  = 2000
)

// QuestRepository interface for quest persistence.
type QuestRepository interface {
	Create(ctx context.Context, quest *models.Quest) (*models.Quest, bool, error)
	GetByID(ctx context.Context, id string) (*models.Quest, error)
	ListByUser(ctx context.Context, userID string, filter repository.QuestFilter) ([]models.Quest, error)
	UpdateText(ctx context.Context, id, userID string, updates map[string]interface{}) (*models.Quest, error)
	Delete(ctx context.Context, id, userID string) error
	SaveReflection(ctx context.Context, reflection *models.QuestReflection) error
}

// UserRepository interface for user lookups.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// ProgressionStore applies completion and failure transitions.
type ProgressionStore interface {
	CompleteQuest(ctx context.Context, userID, questID string) (*models.CompletionResult, error)
	FailQuest(ctx context.Context, userID, questID string) (*models.Quest, error)
}

// AchievementChecker awards achievements after progress changes.
type AchievementChecker interface {
	CheckAndAward(ctx context.Context, userID string) (*awards.CheckResult, error)
}

// LevelUpNotifier announces level-ups.
type LevelUpNotifier interface {
	SendLevelUp(ctx context.Context, ev notify.LevelUp) error
}

// Service handles quest operations.
type Service struct {
	questRepo    QuestRepository
	userRepo     UserRepository
	store        ProgressionStore
	generator    questgen.Generator
	achievements AchievementChecker
	notifier     LevelUpNotifier
	useAIDefault bool
	log          *logger.Logger
}

// Options holds optional collaborators and defaults.
type Options struct {
	// UseAIDefault applies when a generation request does not say.
	UseAIDefault bool
	// Notifier may be nil.
	Notifier LevelUpNotifier
}

// NewService creates a new quest service.
func NewService(
	questRepo *repository.QuestRepository,
	userRepo *repository.UserRepository,
	store *repository.ProgressionStore,
	generator questgen.Generator,
	checker *awards.Service,
	opts Options,
	log *logger.Logger,
) *Service {
	var c AchievementChecker
	if checker != nil {
		c = checker
	}
	return NewServiceWithInterfaces(questRepo, userRepo, store, generator, c, opts, log)
}

// NewServiceWithInterfaces creates a new quest service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(
	questRepo QuestRepository,
	userRepo UserRepository,
	store ProgressionStore,
	generator questgen.Generator,
	checker AchievementChecker,
	opts Options,
	log *logger.Logger,
) *Service {
	return &Service{
		questRepo:    questRepo,
		userRepo:     userRepo,
		store:        store,
		generator:    generator,
		achievements: checker,
		notifier:     opts.Notifier,
		useAIDefault: opts.UseAIDefault,
		log:          log,
	}
}

// CreateInput is a quest creation request. Optional fields are derived when empty.
type CreateInput struct {
	Title        string
	Description  string
	OriginalTask string
	XPReward     *int
	Difficulty   string
	Category     string
	PrimaryStat  string
}

// Create validates and stores a quest. A duplicate active task returns the
// existing quest with created set to false.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*models.Quest, bool, error) {
	quest, err := s.buildQuest(ctx, userID, in)
	if err != nil {
		return nil, false, err
	}

	saved, created, err := s.questRepo.Create(ctx, quest)
	if err != nil {
		return nil, false, err
	}

	s.log.Info().
		Str("user_id", userID).
		Str("quest_id", saved.ID).
		Bool("created", created).
		Msg("Quest stored")

	return saved, created, nil
}

func (s *Service) buildQuest(ctx context.Context, userID string, in CreateInput) (*models.Quest, error) {
	task, err := validateTask("originalTask", in.OriginalTask)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	description := strings.TrimSpace(in.Description)
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return nil, apperrors.NewValidationError("description", fmt.Sprintf("must be at most %d characters", MaxDescriptionLength))
	}

	difficulty := in.Difficulty
	if difficulty == "" {
		difficulty = models.DifficultyMedium
	} else if !models.IsValidDifficulty(difficulty) {
		return nil, apperrors.NewValidationError("difficulty", "must be one of easy, medium, hard, epic")
	}

	category := in.Category
	if category == "" {
		category = models.CategoryGeneral
	} else if !models.IsValidCategory(category) {
		return nil, apperrors.NewValidationError("category", "unknown category")
	}

	stat := in.PrimaryStat
	if stat == "" {
		stat = progression.ClassifyStat(task, category)
	} else if !models.IsValidStat(stat) {
		return nil, apperrors.NewValidationError("primaryStat", "must be one of strength, wisdom, endurance, charisma")
	}

	var xp int
	if in.XPReward != nil {
		xp = *in.XPReward
		if xp < models.MinQuestXP || xp > models.MaxQuestXP {
			return nil, apperrors.NewValidationError("xpReward",
				fmt.Sprintf("must be between %d and %d", models.MinQuestXP, models.MaxQuestXP))
		}
	} else {
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		xp = progression.ClampXP(progression.XPReward(difficulty, user.Level))
	}

	return &models.Quest{
		UserID:       userID,
		OriginalTask: task,
		Title:        title,
		Description:  description,
		Category:     category,
		Difficulty:   difficulty,
		PrimaryStat:  stat,
		XPReward:     xp,
		Status:       models.QuestStatusActive,
	}, nil
}

// GenerateInput is a draft generation request. Nil fields take the caller's
// profile values or configured defaults.
type GenerateInput struct {
	Task           string
	UserLevel      *int
	CharacterClass string
	UseAI          *bool
}

// Generate produces a quest draft for a task. Generation itself never fails;
// only invalid input or a failed profile lookup return an error.
func (s *Service) Generate(ctx context.Context, userID string, in GenerateInput) (*questgen.Result, error) {
	task, err := validateTask("task", in.Task)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	req := questgen.Request{
		Task:           task,
		Level:          user.Level,
		CharacterClass: user.CharacterClass,
		UseAI:          s.useAIDefault,
	}
	if in.UserLevel != nil {
		if *in.UserLevel < 1 {
			return nil, apperrors.NewValidationError("userLevel", "must be at least 1")
		}
		req.Level = *in.UserLevel
	}
	if in.CharacterClass != "" {
		if !models.IsValidCharacterClass(in.CharacterClass) {
			return nil, apperrors.NewValidationError("characterClass", "unknown character class")
		}
		req.CharacterClass = in.CharacterClass
	}
	if in.UseAI != nil {
		req.UseAI = *in.UseAI
	}

	result := s.generator.Generate(ctx, req)

	s.log.Debug().
		Str("user_id", userID).
		Str("source", string(result.Source)).
		Str("category", result.Category).
		Int("xp_reward", result.XPReward).
		Msg("Quest draft generated")

	return &result, nil
}

// List returns the caller's quests, newest first.
func (s *Service) List(ctx context.Context, userID string, filter repository.QuestFilter) ([]models.Quest, error) {
	switch filter.Status {
	case "", models.QuestStatusActive, models.QuestStatusCompleted, models.QuestStatusFailed:
	default:
		return nil, apperrors.NewValidationError("status", "must be one of active, completed, failed")
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, apperrors.NewValidationError("limit", "limit and offset must not be negative")
	}
	if filter.Limit == 0 {
		filter.Limit = DefaultListLimit
	}
	filter.Limit = min(filter.Limit, MaxListLimit)

	quests, err := s.questRepo.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	if quests == nil {
		quests = []models.Quest{}
	}
	return quests, nil
}

// Get returns a quest owned by the caller.
func (s *Service) Get(ctx context.Context, userID, questID string) (*models.Quest, error) {
	quest, err := s.questRepo.GetByID(ctx, questID)
	if err != nil {
		return nil, err
	}
	if quest.UserID != userID {
		return nil, apperrors.ErrForbidden
	}
	return quest, nil
}

// UpdateInput carries editable quest text. Nil fields are left unchanged.
type UpdateInput struct {
	Title       *string
	Description *string
}

// Update edits the title or description of an active quest.
func (s *Service) Update(ctx context.Context, userID, questID string, in UpdateInput) (*models.Quest, error) {
	updates := map[string]interface{}{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if err := validateTitle(title); err != nil {
			return nil, err
		}
		updates["title"] = title
	}
	if in.Description != nil {
		description := strings.TrimSpace(*in.Description)
		if utf8.RuneCountInString(description) > MaxDescriptionLength {
			return nil, apperrors.NewValidationError("description", fmt.Sprintf("must be at most %d characters", MaxDescriptionLength))
		}
		updates["description"] = description
	}
	if len(updates) == 0 {
		return nil, apperrors.NewValidationError("", "nothing to update")
	}

	if _, err := s.Get(ctx, userID, questID); err != nil {
		return nil, err
	}
	return s.questRepo.UpdateText(ctx, questID, userID, updates)
}

// Delete removes a quest owned by the caller.
func (s *Service) Delete(ctx context.Context, userID, questID string) error {
	if _, err := s.Get(ctx, userID, questID); err != nil {
		return err
	}
	if err := s.questRepo.Delete(ctx, questID, userID); err != nil {
		return err
	}

	s.log.Info().Str("user_id", userID).Str("quest_id", questID).Msg("Quest deleted")
	return nil
}

// CompleteResult is the outcome of completing a quest.
type CompleteResult struct {
	models.CompletionResult
	NewAchievements []achievements.Achievement `json:"new_achievements"`
}

// Complete marks an active quest completed, grants its XP and stat, stores the
// optional reflection and awards any achievements the new progress unlocks.
func (s *Service) Complete(ctx context.Context, userID, questID, reflection string) (*CompleteResult, error) {
	reflection = strings.TrimSpace(reflection)
	if utf8.RuneCountInString(reflection) > MaxReflectionLength {
		return nil, apperrors.NewValidationError("reflection", fmt.Sprintf("must be at most %d characters", MaxReflectionLength))
	}

	quest, err := s.ownedForTransition(ctx, userID, questID)
	if err != nil {
		return nil, err
	}

	res, err := s.store.CompleteQuest(ctx, userID, questID)
	if err != nil {
		return nil, err
	}

	prommetrics.RecordQuestCompleted(quest.Difficulty, res.StatImproved, res.XPAwarded)
	s.log.Info().
		Str("user_id", userID).
		Str("quest_id", questID).
		Int("xp_awarded", res.XPAwarded).
		Int("new_total_xp", res.NewTotalXP).
		Bool("level_up", res.LevelUp).
		Msg("Quest completed")

	if reflection != "" {
		err := s.questRepo.SaveReflection(ctx, &models.QuestReflection{
			QuestID:    questID,
			UserID:     userID,
			Reflection: reflection,
		})
		if err != nil {
			s.log.Warn().Err(err).Str("quest_id", questID).Msg("Failed to save reflection")
		}
	}

	if res.LevelUp {
		prommetrics.RecordLevelUp()
		s.announceLevelUp(ctx, userID, res)
	}

	out := &CompleteResult{CompletionResult: *res, NewAchievements: []achievements.Achievement{}}
	if s.achievements != nil {
		check, err := s.achievements.CheckAndAward(ctx, userID)
		if err != nil {
			// The completion is committed; achievements catch up on the next check or sweep.
			s.log.Error().Err(err).Str("user_id", userID).Msg("Failed to check achievements after completion")
		} else {
			out.NewAchievements = check.NewAchievements
		}
	}

	return out, nil
}

// CompletionStatus is the completion state of a quest.
type CompletionStatus struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	CompletedAt *time.Time `json:"completed_at"`
	XPReward    int        `json:"xp_reward"`
}

// GetCompletionStatus returns the completion state of a quest owned by the caller.
func (s *Service) GetCompletionStatus(ctx context.Context, userID, questID string) (*CompletionStatus, error) {
	quest, err := s.Get(ctx, userID, questID)
	if err != nil {
		return nil, err
	}
	return &CompletionStatus{
		ID:          quest.ID,
		Status:      quest.Status,
		CompletedAt: quest.CompletedAt,
		XPReward:    quest.XPReward,
	}, nil
}

// Fail marks an active quest failed. Failing grants nothing.
func (s *Service) Fail(ctx context.Context, userID, questID string) (*models.Quest, error) {
	if _, err := s.ownedForTransition(ctx, userID, questID); err != nil {
		return nil, err
	}

	quest, err := s.store.FailQuest(ctx, userID, questID)
	if err != nil {
		return nil, err
	}

	prommetrics.RecordQuestFailed()
	s.log.Info().Str("user_id", userID).Str("quest_id", questID).Msg("Quest failed")
	return quest, nil
}

// ownedForTransition loads a quest for a state change. A missing quest reads
// as not found or already completed; another owner's quest is forbidden.
func (s *Service) ownedForTransition(ctx context.Context, userID, questID string) (*models.Quest, error) {
	quest, err := s.Get(ctx, userID, questID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.ErrNotFoundOrAlreadyCompleted
	}
	return quest, err
}

func (s *Service) announceLevelUp(ctx context.Context, userID string, res *models.CompletionResult) {
	if s.notifier == nil {
		return
	}

	username := ""
	if user, err := s.userRepo.GetByID(ctx, userID); err == nil {
		username = user.Username
	}

	err := s.notifier.SendLevelUp(ctx, notify.LevelUp{
		UserID:   userID,
		Username: username,
		OldLevel: res.OldLevel,
		NewLevel: res.NewLevel,
		TotalXP:  res.NewTotalXP,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("Failed to announce level up")
	}
}

func validateTask(field, task string) (string, error) {
	task = strings.TrimSpace(task)
	if task == "" {
		return "", apperrors.NewValidationError(field, "is required")
	}
	if utf8.RuneCountInString(task) > models.MaxTaskLength {
		return "", apperrors.NewValidationError(field, fmt.Sprintf("must be at most %d characters", models.MaxTaskLength))
	}
	return task, nil
}

func validateTitle(title string) error {
	if title == "" {
		return apperrors.NewValidationError("title", "is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return apperrors.NewValidationError("title", fmt.Sprintf("must be at most %d characters", MaxTitleLength))
	}
	return nil
}
