package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aimd54/questforge/internal/apperrors"
	"github.com/aimd54/questforge/internal/models"
	"github.com/aimd54/questforge/internal/progression"
	"github.com/aimd54/questforge/internal/repository"
)

// MockUserRepository is an in-memory user and stat store.
type MockUserRepository struct {
	mu      sync.Mutex
	users   map[string]*models.User
	stats   map[string]map[string]int
	created []string

	// Err, when set, is returned by every method.
	Err error
}

// NewMockUserRepository creates an empty user store.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]*models.User),
		stats: make(map[string]map[string]int),
	}
}

// AddUser stores a user with the given total XP and initial stats.
func (m *MockUserRepository) AddUser(id, username string, totalXP int) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()

	user := m.provision(id, username)
	user.TotalXP = totalXP
	user.Level = progression.LevelForXP(totalXP)
	u := *user
	return &u
}

// SetStat overrides one stat value.
func (m *MockUserRepository) SetStat(userID, stat string, value int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stats[userID] == nil {
		m.stats[userID] = initialStats()
	}
	m.stats[userID][stat] = value
}

func (m *MockUserRepository) provision(id, username string) *models.User {
	if user, ok := m.users[id]; ok {
		return user
	}
	user := &models.User{
		ID:             id,
		Username:       username,
		CharacterClass: models.DefaultCharacterClass,
		Level:          1,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	m.users[id] = user
	m.stats[id] = initialStats()
	m.created = append(m.created, id)
	return user
}

func initialStats() map[string]int {
	stats := make(map[string]int, len(models.Stats))
	for _, s := range models.Stats {
		stats[s] = models.InitialStatValue
	}
	return stats
}

func (m *MockUserRepository) GetOrCreate(_ context.Context, id, username string) (*models.User, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	u := *m.provision(id, username)
	return &u, nil
}

func (m *MockUserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	u := *user
	return &u, nil
}

func (m *MockUserRepository) UpdateProfile(_ context.Context, id string, updates map[string]interface{}) (*models.User, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if v, ok := updates["username"].(string); ok {
		user.Username = v
	}
	if v, ok := updates["character_class"].(string); ok {
		user.CharacterClass = v
	}
	user.UpdatedAt = time.Now()
	u := *user
	return &u, nil
}

func (m *MockUserRepository) ListIDs(_ context.Context) ([]string, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]string(nil), m.created...), nil
}

func (m *MockUserRepository) GetStats(_ context.Context, userID string) (map[string]int, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := initialStats()
	for k, v := range m.stats[userID] {
		out[k] = v
	}
	return out, nil
}

// AddXP adds xp to a user and recomputes the level, returning the new total.
func (m *MockUserRepository) AddXP(userID string, xp int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return 0, fmt.Errorf("user %s: %w", userID, apperrors.ErrNotFound)
	}
	user.TotalXP += xp
	user.Level = progression.LevelForXP(user.TotalXP)
	return user.TotalXP, nil
}

// AddStat adds delta to a user's stat.
func (m *MockUserRepository) AddStat(userID, stat string, delta int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stats[userID] == nil {
		m.stats[userID] = initialStats()
	}
	m.stats[userID][stat] += delta
}

// MockQuestRepository is an in-memory quest store.
type MockQuestRepository struct {
	mu          sync.Mutex
	quests      map[string]*models.Quest
	Reflections []models.QuestReflection

	// Err, when set, is returned by every method.
	Err error
}

// NewMockQuestRepository creates an empty quest store.
func NewMockQuestRepository() *MockQuestRepository {
	return &MockQuestRepository{quests: make(map[string]*models.Quest)}
}

// Put stores a quest as-is, assigning an id when missing.
func (m *MockQuestRepository) Put(q models.Quest) *models.Quest {
	m.mu.Lock()
	defer m.mu.Unlock()

	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.Status == "" {
		q.Status = models.QuestStatusActive
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now()
	}
	m.quests[q.ID] = &q
	out := q
	return &out
}

func (m *MockQuestRepository) Create(_ context.Context, quest *models.Quest) (*models.Quest, bool, error) {
	if m.Err != nil {
		return nil, false, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, q := range m.quests {
		if q.UserID == quest.UserID && q.OriginalTask == quest.OriginalTask && q.IsActive() {
			existing := *q
			return &existing, false, nil
		}
	}

	q := *quest
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.Status == "" {
		q.Status = models.QuestStatusActive
	}
	q.CreatedAt = time.Now()
	q.UpdatedAt = q.CreatedAt
	m.quests[q.ID] = &q
	out := q
	return &out, true, nil
}

func (m *MockQuestRepository) GetByID(_ context.Context, id string) (*models.Quest, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	q, ok := m.quests[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	out := *q
	return &out, nil
}

func (m *MockQuestRepository) ListByUser(_ context.Context, userID string, filter repository.QuestFilter) ([]models.Quest, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Quest
	for _, q := range m.quests {
		if q.UserID != userID {
			continue
		}
		if filter.Status != "" && q.Status != filter.Status {
			continue
		}
		out = append(out, *q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []models.Quest{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *MockQuestRepository) UpdateText(_ context.Context, id, userID string, updates map[string]interface{}) (*models.Quest, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	q, ok := m.quests[id]
	if !ok || q.UserID != userID || !q.IsActive() {
		return nil, apperrors.ErrNotFoundOrAlreadyCompleted
	}
	if v, ok := updates["title"].(string); ok {
		q.Title = v
	}
	if v, ok := updates["description"].(string); ok {
		q.Description = v
	}
	out := *q
	return &out, nil
}

func (m *MockQuestRepository) Delete(_ context.Context, id, userID string) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	q, ok := m.quests[id]
	if !ok || q.UserID != userID {
		return apperrors.ErrNotFound
	}
	delete(m.quests, id)
	return nil
}

func (m *MockQuestRepository) SaveReflection(_ context.Context, reflection *models.QuestReflection) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Reflections = append(m.Reflections, *reflection)
	return nil
}

func (m *MockQuestRepository) Aggregates(_ context.Context, userID string) (*repository.QuestAggregates, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var agg repository.QuestAggregates
	categories := map[string]bool{}
	for _, q := range m.quests {
		if q.UserID != userID {
			continue
		}
		switch q.Status {
		case models.QuestStatusActive:
			agg.Active++
		case models.QuestStatusCompleted:
			agg.Completed++
			if q.Difficulty == models.DifficultyEpic {
				agg.EpicCompleted++
			}
			categories[q.Category] = true
			if q.CompletedAt != nil {
				agg.CompletionTimes = append(agg.CompletionTimes, *q.CompletedAt)
			}
		}
	}
	agg.CategoriesExplored = len(categories)
	sort.Slice(agg.CompletionTimes, func(i, j int) bool { return agg.CompletionTimes[i].Before(agg.CompletionTimes[j]) })
	return &agg, nil
}

// transition moves an active quest to status, returning the updated copy.
func (m *MockQuestRepository) transition(userID, questID, status string, at time.Time) (*models.Quest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	q, ok := m.quests[questID]
	if !ok || q.UserID != userID || !q.IsActive() {
		return nil, apperrors.ErrNotFoundOrAlreadyCompleted
	}
	q.Status = status
	if !at.IsZero() {
		q.CompletedAt = &at
	}
	out := *q
	return &out, nil
}

// MockProgressionStore applies quest transitions against the mock stores.
type MockProgressionStore struct {
	Quests *MockQuestRepository
	Users  *MockUserRepository
	Now    func() time.Time

	// Err, when set, is returned by every method.
	Err error
}

// NewMockProgressionStore creates a progression store over the given mocks.
func NewMockProgressionStore(quests *MockQuestRepository, users *MockUserRepository) *MockProgressionStore {
	return &MockProgressionStore{Quests: quests, Users: users, Now: time.Now}
}

func (m *MockProgressionStore) CompleteQuest(_ context.Context, userID, questID string) (*models.CompletionResult, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	quest, err := m.Quests.transition(userID, questID, models.QuestStatusCompleted, m.Now().UTC())
	if err != nil {
		return nil, err
	}

	newTotal, err := m.Users.AddXP(userID, quest.XPReward)
	if err != nil {
		return nil, err
	}
	m.Users.AddStat(userID, quest.PrimaryStat, 1)

	oldLevel, newLevel, levelUp := progression.DetectLevelUp(newTotal-quest.XPReward, newTotal)
	return &models.CompletionResult{
		QuestID:      quest.ID,
		XPAwarded:    quest.XPReward,
		NewTotalXP:   newTotal,
		OldLevel:     oldLevel,
		NewLevel:     newLevel,
		LevelUp:      levelUp,
		StatImproved: quest.PrimaryStat,
	}, nil
}

func (m *MockProgressionStore) FailQuest(_ context.Context, userID, questID string) (*models.Quest, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Quests.transition(userID, questID, models.QuestStatusFailed, time.Time{})
}

func (m *MockProgressionStore) UpsertStat(_ context.Context, userID, stat string, delta int) error {
	if m.Err != nil {
		return m.Err
	}
	m.Users.AddStat(userID, stat, delta)
	return nil
}

// MockAchievementRepository is an in-memory unlock store. Awards grant their
// rewards through Users when it is set.
type MockAchievementRepository struct {
	mu      sync.Mutex
	unlocks map[string]map[string]time.Time
	Users   *MockUserRepository

	// Err, when set, is returned by every method.
	Err error
}

// NewMockAchievementRepository creates an empty unlock store.
func NewMockAchievementRepository(users *MockUserRepository) *MockAchievementRepository {
	return &MockAchievementRepository{
		unlocks: make(map[string]map[string]time.Time),
		Users:   users,
	}
}

// Unlock records an unlock at the given time without granting rewards.
func (m *MockAchievementRepository) Unlock(userID, key string, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.unlocks[userID] == nil {
		m.unlocks[userID] = make(map[string]time.Time)
	}
	m.unlocks[userID][key] = at
}

func (m *MockAchievementRepository) GetUserAchievements(_ context.Context, userID string) ([]models.UserAchievement, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.UserAchievement, 0, len(m.unlocks[userID]))
	for key, at := range m.unlocks[userID] {
		out = append(out, models.UserAchievement{UserID: userID, AchievementKey: key, UnlockedAt: at})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UnlockedAt.After(out[j].UnlockedAt) })
	return out, nil
}

func (m *MockAchievementRepository) GetUnlockedKeys(_ context.Context, userID string) (map[string]bool, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]bool, len(m.unlocks[userID]))
	for key := range m.unlocks[userID] {
		out[key] = true
	}
	return out, nil
}

func (m *MockAchievementRepository) Award(_ context.Context, userID string, grant repository.Grant) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	m.mu.Lock()
	if _, ok := m.unlocks[userID][grant.Key]; ok {
		m.mu.Unlock()
		return false, nil
	}
	if m.unlocks[userID] == nil {
		m.unlocks[userID] = make(map[string]time.Time)
	}
	m.unlocks[userID][grant.Key] = time.Now()
	m.mu.Unlock()

	if m.Users != nil {
		if grant.XPReward > 0 {
			if _, err := m.Users.AddXP(userID, grant.XPReward); err != nil {
				return false, err
			}
		}
		if grant.StatType != "" && grant.StatBonus > 0 {
			m.Users.AddStat(userID, grant.StatType, grant.StatBonus)
		}
	}
	return true, nil
}
