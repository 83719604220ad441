// Package awards evaluates the achievement catalog against user progress and
// records newly earned achievements.
package awards

import (
	"context"
	"fmt"
	"time"

	"github.com/aimd54/questforge/internal/achievements"
	prommetrics "github.com/aimd54/questforge/internal/metrics"
	"github.com/aimd54/questforge/internal/models"
	"github.com/aimd54/questforge/internal/notify"
	"github.com/aimd54/questforge/internal/repository"
	"github.com/aimd54/questforge/pkg/logger"
)

// recentLimit caps the recent achievements in a summary.
const recentLimit = 5

// UserRepository interface for user operations.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetStats(ctx context.Context, userID string) (map[string]int, error)
	ListIDs(ctx context.Context) ([]string, error)
}

// QuestRepository interface for quest aggregate queries.
type QuestRepository interface {
	Aggregates(ctx context.Context, userID string) (*repository.QuestAggregates, error)
}

// AchievementRepository interface for unlock records.
type AchievementRepository interface {
	GetUserAchievements(ctx context.Context, userID string) ([]models.UserAchievement, error)
	GetUnlockedKeys(ctx context.Context, userID string) (map[string]bool, error)
	Award(ctx context.Context, userID string, grant repository.Grant) (bool, error)
}

// Notifier announces unlocks and level-ups.
type Notifier interface {
	SendAchievementUnlocked(ctx context.Context, ev notify.AchievementUnlocked) error
	SendLevelUp(ctx context.Context, ev notify.LevelUp) error
}

// Service handles achievement evaluation and awarding.
type Service struct {
	evaluator       *achievements.Evaluator
	userRepo        UserRepository
	questRepo       QuestRepository
	achievementRepo AchievementRepository
	notifier        Notifier
	log             *logger.Logger
}

// NewService creates a new awards service.
func NewService(
	catalog *achievements.Catalog,
	userRepo *repository.UserRepository,
	questRepo *repository.QuestRepository,
	achievementRepo *repository.AchievementRepository,
	notifier *notify.Client,
	log *logger.Logger,
) *Service {
	var n Notifier
	if notifier != nil {
		n = notifier
	}
	return NewServiceWithInterfaces(catalog, userRepo, questRepo, achievementRepo, n, log)
}

// NewServiceWithInterfaces creates a new awards service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(
	catalog *achievements.Catalog,
	userRepo UserRepository,
	questRepo QuestRepository,
	achievementRepo AchievementRepository,
	notifier Notifier,
	log *logger.Logger,
) *Service {
	return &Service{
		evaluator:       achievements.NewEvaluator(catalog),
		userRepo:        userRepo,
		questRepo:       questRepo,
		achievementRepo: achievementRepo,
		notifier:        notifier,
		log:             log,
	}
}

// CheckResult is the outcome of an achievement check.
type CheckResult struct {
	AchievementsAwarded int                        `json:"achievements_awarded"`
	NewAchievements     []achievements.Achievement `json:"new_achievements"`
}

// UnlockedAchievement is a catalog entry with its unlock time.
type UnlockedAchievement struct {
	achievements.Achievement
	UnlockedAt time.Time `json:"unlocked_at"`
}

// AvailableAchievement is a visible locked entry with per-metric progress.
type AvailableAchievement struct {
	achievements.Achievement
	Progress map[string]achievements.Progress `json:"progress"`
}

// Summary describes a user's standing against the catalog.
type Summary struct {
	TotalAchievements     int                    `json:"total_achievements"`
	UnlockedAchievements  int                    `json:"unlocked_achievements"`
	UnlockedList          []UnlockedAchievement  `json:"unlocked_list"`
	AvailableAchievements []AvailableAchievement `json:"available_achievements"`
	RecentAchievements    []UnlockedAchievement  `json:"recent_achievements"`
}

// Snapshot builds the progression snapshot the evaluator consumes.
func (s *Service) Snapshot(ctx context.Context, userID string) (*models.User, achievements.Snapshot, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, achievements.Snapshot{}, err
	}

	stats, err := s.userRepo.GetStats(ctx, userID)
	if err != nil {
		return nil, achievements.Snapshot{}, err
	}

	agg, err := s.questRepo.Aggregates(ctx, userID)
	if err != nil {
		return nil, achievements.Snapshot{}, err
	}

	return user, achievements.Snapshot{
		QuestsCompleted:     agg.Completed,
		TotalXP:             user.TotalXP,
		Level:               user.Level,
		StreakDays:          achievements.LongestStreak(agg.CompletionTimes),
		EpicQuestsCompleted: agg.EpicCompleted,
		CategoriesExplored:  agg.CategoriesExplored,
		Stats:               stats,
	}, nil
}

// CheckAndAward evaluates the catalog for one user and awards every newly
// satisfied achievement. Concurrent calls never award an achievement twice.
func (s *Service) CheckAndAward(ctx context.Context, userID string) (*CheckResult, error) {
	user, snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to build snapshot: %w", err)
	}

	unlocked, err := s.achievementRepo.GetUnlockedKeys(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get unlocked achievements: %w", err)
	}

	eval := s.evaluator.Evaluate(snap, unlocked)
	result := &CheckResult{NewAchievements: []achievements.Achievement{}}
	xpGranted := 0

	for _, a := range eval.Newly {
		awarded, err := s.achievementRepo.Award(ctx, userID, grantFor(a))
		if err != nil {
			return nil, fmt.Errorf("failed to award achievement %s: %w", a.Key, err)
		}
		if !awarded {
			// Another request recorded it first.
			continue
		}

		result.NewAchievements = append(result.NewAchievements, a)
		xpGranted += a.XPReward
		prommetrics.RecordAchievementAwarded(a.Key, a.Category, a.XPReward)

		s.log.Info().
			Str("user_id", userID).
			Str("achievement", a.Key).
			Int("xp_reward", a.XPReward).
			Msg("Achievement awarded")

		s.announceUnlock(ctx, user, a)
	}
	result.AchievementsAwarded = len(result.NewAchievements)

	if xpGranted > 0 {
		s.announceBonusLevelUp(ctx, user)
	}

	return result, nil
}

// EvaluateAll runs CheckAndAward for every user and returns the number of
// achievements awarded. Failures for one user do not stop the sweep.
func (s *Service) EvaluateAll(ctx context.Context) (int, error) {
	s.log.Info().Msg("Starting achievement evaluation for all users")
	start := time.Now()

	ids, err := s.userRepo.ListIDs(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list users")
		return 0, fmt.Errorf("failed to list users: %w", err)
	}

	awardsCount := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return awardsCount, err
		}

		res, err := s.CheckAndAward(ctx, id)
		if err != nil {
			s.log.Error().
				Err(err).
				Str("user_id", id).
				Msg("Failed to evaluate achievements")
			continue
		}
		awardsCount += res.AchievementsAwarded
	}

	s.log.Info().
		Int("users_evaluated", len(ids)).
		Int("achievements_awarded", awardsCount).
		Dur("duration", time.Since(start)).
		Msg("Achievement evaluation complete")

	return awardsCount, nil
}

// GetUserSummary returns unlocked, available and recent achievements for a user.
func (s *Service) GetUserSummary(ctx context.Context, userID string) (*Summary, error) {
	_, snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to build snapshot: %w", err)
	}

	rows, err := s.achievementRepo.GetUserAchievements(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user achievements: %w", err)
	}

	catalog := s.evaluator.Catalog()
	unlocked := make(map[string]bool, len(rows))
	unlockedList := make([]UnlockedAchievement, 0, len(rows))

	// rows are newest first
	for _, row := range rows {
		a, ok := catalog.Get(row.AchievementKey)
		if !ok {
			// Unlocked under a catalog that no longer lists it.
			continue
		}
		unlocked[row.AchievementKey] = true
		unlockedList = append(unlockedList, UnlockedAchievement{Achievement: a, UnlockedAt: row.UnlockedAt})
	}

	eval := s.evaluator.Evaluate(snap, unlocked)
	available := make([]AvailableAchievement, 0, len(eval.Progress))
	for _, a := range catalog.All() {
		if progress, ok := eval.Progress[a.Key]; ok {
			available = append(available, AvailableAchievement{Achievement: a, Progress: progress})
		}
	}

	recent := unlockedList
	if len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}

	return &Summary{
		TotalAchievements:     catalog.Len(),
		UnlockedAchievements:  len(unlockedList),
		UnlockedList:          unlockedList,
		AvailableAchievements: available,
		RecentAchievements:    recent,
	}, nil
}

// Catalog returns every achievement in display order. Hidden entries are
// masked unless the user has unlocked them.
func (s *Service) Catalog(ctx context.Context, userID string) ([]achievements.Achievement, error) {
	unlocked := map[string]bool{}
	if userID != "" {
		keys, err := s.achievementRepo.GetUnlockedKeys(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to get unlocked achievements: %w", err)
		}
		unlocked = keys
	}

	all := s.evaluator.Catalog().All()
	for i, a := range all {
		if a.IsHidden && !unlocked[a.Key] {
			all[i] = a.Masked()
		}
	}
	return all, nil
}

func grantFor(a achievements.Achievement) repository.Grant {
	g := repository.Grant{Key: a.Key, XPReward: a.XPReward}
	if a.StatBonus != nil {
		g.StatType = a.StatBonus.Type
		g.StatBonus = a.StatBonus.Amount
	}
	return g
}

func (s *Service) announceUnlock(ctx context.Context, user *models.User, a achievements.Achievement) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.SendAchievementUnlocked(ctx, notify.AchievementUnlocked{
		UserID:      user.ID,
		Username:    user.Username,
		Key:         a.Key,
		Title:       a.Title,
		Description: a.Description,
		Icon:        a.Icon,
		Tier:        a.Tier,
		XPReward:    a.XPReward,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Str("achievement", a.Key).Msg("Failed to announce achievement")
	}
}

// announceBonusLevelUp reports a level-up caused by achievement XP.
func (s *Service) announceBonusLevelUp(ctx context.Context, before *models.User) {
	after, err := s.userRepo.GetByID(ctx, before.ID)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", before.ID).Msg("Failed to reload user after awarding")
		return
	}
	if after.Level <= before.Level {
		return
	}

	prommetrics.RecordLevelUp()
	s.log.Info().
		Str("user_id", before.ID).
		Int("old_level", before.Level).
		Int("new_level", after.Level).
		Msg("Level up from achievement rewards")

	if s.notifier == nil {
		return
	}
	err = s.notifier.SendLevelUp(ctx, notify.LevelUp{
		UserID:   after.ID,
		Username: after.Username,
		OldLevel: before.Level,
		NewLevel: after.Level,
		TotalXP:  after.TotalXP,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", before.ID).Msg("Failed to announce level up")
	}
}
