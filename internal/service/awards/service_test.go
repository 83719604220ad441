package awards

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aimd54/questforge/internal/achievements"
	"github.com/aimd54/questforge/internal/apperrors"
	"github.com/aimd54/questforge/internal/models"
	"github.com/aimd54/questforge/pkg/logger"
	"github.com/aimd54/questforge/test/mocks"
)

type fixture struct {
	users    *mocks.MockUserRepository
	quests   *mocks.MockQuestRepository
	unlocks  *mocks.MockAchievementRepository
	notifier *mocks.MockNotifier
	svc      *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		users:    mocks.NewMockUserRepository(),
		quests:   mocks.NewMockQuestRepository(),
		notifier: &mocks.MockNotifier{},
	}
	f.unlocks = mocks.NewMockAchievementRepository(f.users)
	f.svc = NewServiceWithInterfaces(
		achievements.DefaultCatalog(), f.users, f.quests, f.unlocks, f.notifier,
		logger.New("error", "json", "stdout"),
	)
	return f
}

func (f *fixture) completeQuest(userID, category, difficulty string, at time.Time) {
	f.quests.Put(models.Quest{
		UserID:       userID,
		OriginalTask: category + difficulty + at.String(),
		Title:        "Quest",
		Category:     category,
		Difficulty:   difficulty,
		PrimaryStat:  models.StatStrength,
		XPReward:     50,
		Status:       models.QuestStatusCompleted,
		CompletedAt:  &at,
	})
}

func newKeys(res *CheckResult) []string {
	out := make([]string, len(res.NewAchievements))
	for i, a := range res.NewAchievements {
		out[i] = a.Key
	}
	return out
}

func TestCheckAndAward_FirstQuest(t *testing.T) {
	f := newFixture(t)
	f.users.AddUser("u1", "alice", 50)
	f.completeQuest("u1", models.CategoryHome, models.DifficultyMedium, time.Now())

	res, err := f.svc.CheckAndAward(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, 1, res.AchievementsAwarded)
	assert.Equal(t, []string{"first_quest"}, newKeys(res))

	user, err := f.users.GetByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 100, user.TotalXP, "achievement XP is granted")

	require.Len(t, f.notifier.Achievements, 1)
	assert.Equal(t, "first_quest", f.notifier.Achievements[0].Key)
	assert.Equal(t, "alice", f.notifier.Achievements[0].Username)
	assert.Empty(t, f.notifier.LevelUps)
}

func TestCheckAndAward_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.users.AddUser("u1", "alice", 50)
	f.completeQuest("u1", models.CategoryHome, models.DifficultyMedium, time.Now())

	first, err := f.svc.CheckAndAward(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, 1, first.AchievementsAwarded)

	second, err := f.svc.CheckAndAward(context.Background(), "u1")
	require.NoError(t, err)
	assert.Zero(t, second.AchievementsAwarded)
	assert.NotNil(t, second.NewAchievements)
	assert.Empty(t, second.NewAchievements)
}

func TestCheckAndAward_ConcurrentNeverDoubleAwards(t *testing.T) {
	f := newFixture(t)
	f.users.AddUser("u1", "alice", 50)
	f.completeQuest("u1", models.CategoryHome, models.DifficultyMedium, time.Now())

	var wg sync.WaitGroup
	var mu sync.Mutex
	total := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.svc.CheckAndAward(context.Background(), "u1")
			if err != nil {
				return
			}
			mu.Lock()
			total += res.AchievementsAwarded
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, total)
	user, _ := f.users.GetByID(context.Background(), "u1")
	assert.Equal(t, 100, user.TotalXP)
}

func TestCheckAndAward_StatBonusAndLevelUp(t *testing.T) {
	f := newFixture(t)
	f.users.AddUser("u1", "alice", 950)
	f.users.SetStat("u1", models.StatWisdom, 25)
	f.unlocks.Unlock("u1", "first_quest", time.Now())

	res, err := f.svc.CheckAndAward(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"wisdom_25"}, newKeys(res))

	stats, err := f.users.GetStats(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 27, stats[models.StatWisdom])

	user, _ := f.users.GetByID(context.Background(), "u1")
	assert.Equal(t, 1100, user.TotalXP)
	assert.Equal(t, 2, user.Level)

	require.Len(t, f.notifier.LevelUps, 1)
	assert.Equal(t, 1, f.notifier.LevelUps[0].OldLevel)
	assert.Equal(t, 2, f.notifier.LevelUps[0].NewLevel)
}

func TestCheckAndAward_Streak(t *testing.T) {
	f := newFixture(t)
	f.users.AddUser("u1", "alice", 350)
	start := time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC)
	for d := 0; d < 7; d++ {
		f.completeQuest("u1", models.CategoryHealth, models.DifficultyEasy, start.AddDate(0, 0, d))
	}

	res, err := f.svc.CheckAndAward(context.Background(), "u1")

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"first_quest", "streak_7"}, newKeys(res))
}

func TestCheckAndAward_NotifierErrorIgnored(t *testing.T) {
	f := newFixture(t)
	f.notifier.Err = errors.New("webhook down")
	f.users.AddUser("u1", "alice", 50)
	f.completeQuest("u1", models.CategoryHome, models.DifficultyMedium, time.Now())

	res, err := f.svc.CheckAndAward(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, 1, res.AchievementsAwarded)
}

func TestCheckAndAward_NilNotifier(t *testing.T) {
	f := newFixture(t)
	svc := NewServiceWithInterfaces(achievements.DefaultCatalog(), f.users, f.quests, f.unlocks, nil,
		logger.New("error", "json", "stdout"))
	f.users.AddUser("u1", "alice", 50)
	f.completeQuest("u1", models.CategoryHome, models.DifficultyMedium, time.Now())

	res, err := svc.CheckAndAward(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, 1, res.AchievementsAwarded)
}

func TestCheckAndAward_UnknownUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CheckAndAward(context.Background(), "ghost")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCheckAndAward_AwardError(t *testing.T) {
	f := newFixture(t)
	f.users.AddUser("u1", "alice", 50)
	f.completeQuest("u1", models.CategoryHome, models.DifficultyMedium, time.Now())
	f.unlocks.Err = errors.New("db down")

	_, err := f.svc.CheckAndAward(context.Background(), "u1")

	assert.Error(t, err)
}

func TestEvaluateAll(t *testing.T) {
	f := newFixture(t)
	f.users.AddUser("u1", "alice", 50)
	f.users.AddUser("u2", "bob", 0)
	f.users.AddUser("u3", "carol", 50)
	f.completeQuest("u1", models.CategoryHome, models.DifficultyMedium, time.Now())
	f.completeQuest("u3", models.CategoryHome, models.DifficultyMedium, time.Now())

	count, err := f.svc.EvaluateAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, count)

	again, err := f.svc.EvaluateAll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, again)
}

func TestEvaluateAll_ListError(t *testing.T) {
	f := newFixture(t)
	f.users.Err = errors.New("db down")

	_, err := f.svc.EvaluateAll(context.Background())

	assert.Error(t, err)
}

func TestGetUserSummary(t *testing.T) {
	f := newFixture(t)
	f.users.AddUser("u1", "alice", 300)
	for i := 0; i < 3; i++ {
		f.completeQuest("u1", models.CategoryEducation, models.DifficultyMedium, time.Now().Add(-time.Duration(i)*time.Hour))
	}
	base := time.Now().Add(-24 * time.Hour)
	f.unlocks.Unlock("u1", "first_quest", base)
	f.unlocks.Unlock("u1", "explorer", base.Add(time.Hour))

	summary, err := f.svc.GetUserSummary(context.Background(), "u1")
	require.NoError(t, err)

	catalog := achievements.DefaultCatalog()
	assert.Equal(t, catalog.Len(), summary.TotalAchievements)
	assert.Equal(t, 2, summary.UnlockedAchievements)
	require.Len(t, summary.UnlockedList, 2)
	assert.Equal(t, "explorer", summary.UnlockedList[0].Key, "newest first")
	assert.Equal(t, "Explorer of Realms", summary.UnlockedList[0].Title, "unlocked hidden entries are revealed")
	assert.Len(t, summary.RecentAchievements, 2)

	available := map[string]AvailableAchievement{}
	for _, a := range summary.AvailableAchievements {
		available[a.Key] = a
	}
	assert.NotContains(t, available, "first_quest")
	assert.NotContains(t, available, "legend", "hidden locked entries are not listed")
	require.Contains(t, available, "quest_apprentice")
	p := available["quest_apprentice"].Progress[achievements.MetricQuestsCompleted]
	assert.Equal(t, float64(3), p.Current)
	assert.InDelta(t, 30.0, p.Percentage, 0.001)
}

func TestGetUserSummary_RecentCapped(t *testing.T) {
	f := newFixture(t)
	f.users.AddUser("u1", "alice", 0)
	keys := []string{"first_quest", "quest_apprentice", "quest_master", "level_5", "level_10", "streak_7", "xp_5000"}
	base := time.Now().Add(-time.Hour)
	for i, k := range keys {
		f.unlocks.Unlock("u1", k, base.Add(time.Duration(i)*time.Minute))
	}
	f.unlocks.Unlock("u1", "retired_key", base)

	summary, err := f.svc.GetUserSummary(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, len(keys), summary.UnlockedAchievements, "unknown keys are skipped")
	require.Len(t, summary.RecentAchievements, recentLimit)
	assert.Equal(t, "xp_5000", summary.RecentAchievements[0].Key)
}

func TestCatalog_MasksHidden(t *testing.T) {
	f := newFixture(t)
	f.users.AddUser("u1", "alice", 0)
	f.unlocks.Unlock("u1", "explorer", time.Now())

	list, err := f.svc.Catalog(context.Background(), "u1")
	require.NoError(t, err)

	byKey := map[string]achievements.Achievement{}
	for _, a := range list {
		byKey[a.Key] = a
	}
	assert.Equal(t, "???", byKey["legend"].Title)
	assert.Empty(t, byKey["legend"].Criteria)
	assert.Equal(t, "Explorer of Realms", byKey["explorer"].Title)
	assert.Equal(t, "First Steps", byKey["first_quest"].Title)

	anonymous, err := f.svc.Catalog(context.Background(), "")
	require.NoError(t, err)
	for _, a := range anonymous {
		if a.Key == "explorer" {
			assert.Equal(t, "???", a.Title)
		}
	}
}
