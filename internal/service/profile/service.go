// Package profile provides the player profile: level progress, stats and totals.
package profile

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aimd54/questforge/internal/achievements"
	"github.com/aimd54/questforge/internal/apperrors"
	"github.com/aimd54/questforge/internal/models"
	"github.com/aimd54/questforge/internal/progression"
	"github.com/aimd54/questforge/internal/repository"
	"github.com/aimd54/questforge/pkg/logger"
)

// MaxUsernameLength is the longest accepted username.
const MaxUsernameLength = 255

// UserRepository interface for user operations.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetStats(ctx context.Context, userID string) (map[string]int, error)
	UpdateProfile(ctx context.Context, id string, updates map[string]interface{}) (*models.User, error)
}

// QuestRepository interface for quest aggregates.
type QuestRepository interface {
	Aggregates(ctx context.Context, userID string) (*repository.QuestAggregates, error)
}

// AchievementRepository interface for unlock counts.
type AchievementRepository interface {
	GetUnlockedKeys(ctx context.Context, userID string) (map[string]bool, error)
}

// Stat is one character stat with its display metadata.
type Stat struct {
	progression.StatInfo
	Value int `json:"value"`
}

// Totals are lifetime counters for a player.
type Totals struct {
	QuestsCompleted      int `json:"quests_completed"`
	QuestsActive         int `json:"quests_active"`
	EpicQuestsCompleted  int `json:"epic_quests_completed"`
	CategoriesExplored   int `json:"categories_explored"`
	LongestStreakDays    int `json:"longest_streak_days"`
	AchievementsUnlocked int `json:"achievements_unlocked"`
}

// Profile is the player's view of their character.
type Profile struct {
	ID             string                    `json:"id"`
	Username       string                    `json:"username"`
	CharacterClass string                    `json:"character_class"`
	Level          int                       `json:"level"`
	TotalXP        int                       `json:"total_xp"`
	Progress       progression.LevelProgress `json:"progress"`
	Stats          []Stat                    `json:"stats"`
	Totals         Totals                    `json:"totals"`
	CreatedAt      time.Time                 `json:"created_at"`
}

// Service handles profile reads and updates.
type Service struct {
	userRepo        UserRepository
	questRepo       QuestRepository
	achievementRepo AchievementRepository
	log             *logger.Logger
}

// NewService creates a new profile service with concrete repository types.
func NewService(
	userRepo *repository.UserRepository,
	questRepo *repository.QuestRepository,
	achievementRepo *repository.AchievementRepository,
	log *logger.Logger,
) *Service {
	return NewServiceWithInterfaces(userRepo, questRepo, achievementRepo, log)
}

// NewServiceWithInterfaces creates a new profile service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(
	userRepo UserRepository,
	questRepo QuestRepository,
	achievementRepo AchievementRepository,
	log *logger.Logger,
) *Service {
	return &Service{
		userRepo:        userRepo,
		questRepo:       questRepo,
		achievementRepo: achievementRepo,
		log:             log,
	}
}

// GetProfile assembles the profile of a user.
func (s *Service) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats, err := s.userRepo.GetStats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	agg, err := s.questRepo.Aggregates(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get quest aggregates: %w", err)
	}

	unlocked, err := s.achievementRepo.GetUnlockedKeys(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get achievements: %w", err)
	}

	return &Profile{
		ID:             user.ID,
		Username:       user.Username,
		CharacterClass: user.CharacterClass,
		Level:          user.Level,
		TotalXP:        user.TotalXP,
		Progress:       progression.Progress(user.TotalXP),
		Stats:          statList(stats),
		Totals: Totals{
			QuestsCompleted:      agg.Completed,
			QuestsActive:         agg.Active,
			EpicQuestsCompleted:  agg.EpicCompleted,
			CategoriesExplored:   agg.CategoriesExplored,
			LongestStreakDays:    achievements.LongestStreak(agg.CompletionTimes),
			AchievementsUnlocked: len(unlocked),
		},
		CreatedAt: user.CreatedAt,
	}, nil
}

// UpdateInput carries editable profile fields. Nil fields are left unchanged.
type UpdateInput struct {
	Username       *string
	CharacterClass *string
}

// UpdateProfile changes the username or character class and returns the new profile.
func (s *Service) UpdateProfile(ctx context.Context, userID string, in UpdateInput) (*Profile, error) {
	updates := map[string]interface{}{}

	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if username == "" {
			return nil, apperrors.NewValidationError("username", "must not be empty")
		}
		if utf8.RuneCountInString(username) > MaxUsernameLength {
			return nil, apperrors.NewValidationError("username", fmt.Sprintf("must be at most %d characters", MaxUsernameLength))
		}
		updates["username"] = username
	}

	if in.CharacterClass != nil {
		if !models.IsValidCharacterClass(*in.CharacterClass) {
			return nil, apperrors.NewValidationError("character_class",
				"must be one of "+strings.Join(models.CharacterClasses, ", "))
		}
		updates["character_class"] = *in.CharacterClass
	}

	if len(updates) == 0 {
		return nil, apperrors.NewValidationError("", "nothing to update")
	}

	if _, err := s.userRepo.UpdateProfile(ctx, userID, updates); err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", userID).Int("fields", len(updates)).Msg("Profile updated")

	return s.GetProfile(ctx, userID)
}

// statList orders stats the canonical way with display info attached.
func statList(values map[string]int) []Stat {
	out := make([]Stat, 0, len(models.Stats))
	for _, name := range models.Stats {
		out = append(out, Stat{StatInfo: progression.GetStatInfo(name), Value: values[name]})
	}
	return out
}
