package mocks

import (
	"context"
	"sync"

	"github.com/aimd54/questforge/internal/notify"
)

// MockNotifier records announcements instead of posting them.
type MockNotifier struct {
	mu           sync.Mutex
	LevelUps     []notify.LevelUp
	Achievements []notify.AchievementUnlocked

	// Err, when set, is returned after recording.
	Err error
}

func (m *MockNotifier) SendLevelUp(_ context.Context, ev notify.LevelUp) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LevelUps = append(m.LevelUps, ev)
	return m.Err
}

func (m *MockNotifier) SendAchievementUnlocked(_ context.Context, ev notify.AchievementUnlocked) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Achievements = append(m.Achievements, ev)
	return m.Err
}
