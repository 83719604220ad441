package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aimd54/questforge/internal/config"
	prommetrics "github.com/aimd54/questforge/internal/metrics"
	"github.com/aimd54/questforge/pkg/logger"
)

func newTestServer(t *testing.T, status int) (*httptest.Server, *[]Message) {
	t.Helper()

	var received []Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var msg Message
		require.NoError(t, json.Unmarshal(body, &msg))
		received = append(received, msg)

		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &received
}

func newTestClient(url string, enabled bool) *Client {
	return NewClient(&config.NotificationsConfig{
		Enabled:    enabled,
		WebhookURL: url,
		Channel:    "quests",
	}, logger.New("error", "json", "stdout"))
}

func TestSendLevelUp(t *testing.T) {
	srv, received := newTestServer(t, http.StatusOK)
	client := newTestClient(srv.URL, true)
	before := testutil.ToFloat64(prommetrics.NotificationsSentTotal.WithLabelValues("level_up", "success"))

	err := client.SendLevelUp(context.Background(), LevelUp{
		UserID: "u1", Username: "alice", OldLevel: 2, NewLevel: 3, TotalXP: 2100,
	})

	require.NoError(t, err)
	require.Len(t, *received, 1)
	msg := (*received)[0]
	assert.Equal(t, "quests", msg.Channel)
	assert.Equal(t, botUsername, msg.Username)
	assert.Contains(t, msg.Text, "@alice")
	assert.Contains(t, msg.Text, "level 3")
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "100 / 1000 XP", msg.Attachments[0].Fields[2].Value)
	assert.Equal(t, before+1, testutil.ToFloat64(prommetrics.NotificationsSentTotal.WithLabelValues("level_up", "success")))
}

func TestSendAchievementUnlocked(t *testing.T) {
	srv, received := newTestServer(t, http.StatusOK)
	client := newTestClient(srv.URL, true)

	err := client.SendAchievementUnlocked(context.Background(), AchievementUnlocked{
		UserID: "u1", Key: "first_quest", Title: "First Steps", Icon: "🗡️", Tier: "bronze", XPReward: 25,
	})

	require.NoError(t, err)
	require.Len(t, *received, 1)
	msg := (*received)[0]
	assert.Contains(t, msg.Text, "u1")
	assert.Contains(t, msg.Text, "First Steps")
	att := msg.Attachments[0]
	assert.Equal(t, "first_quest", att.Footer)
	assert.Equal(t, "#cd7f32", att.Color)
	require.Len(t, att.Fields, 2)
	assert.Equal(t, "+25 XP", att.Fields[1].Value)
}

func TestSend_ErrorStatus(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusInternalServerError)
	client := newTestClient(srv.URL, true)
	before := testutil.ToFloat64(prommetrics.NotificationsSentTotal.WithLabelValues("achievement", "error"))

	err := client.SendAchievementUnlocked(context.Background(), AchievementUnlocked{Key: "k", Title: "T", Tier: "gold"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Equal(t, before+1, testutil.ToFloat64(prommetrics.NotificationsSentTotal.WithLabelValues("achievement", "error")))
}

func TestSend_Disabled(t *testing.T) {
	srv, received := newTestServer(t, http.StatusOK)
	client := newTestClient(srv.URL, false)

	assert.False(t, client.Enabled())
	require.NoError(t, client.SendLevelUp(context.Background(), LevelUp{UserID: "u1", NewLevel: 2}))
	require.NoError(t, client.SendMessage(context.Background(), &Message{Text: "hi"}))
	assert.Empty(t, *received)
}

func TestTierColor(t *testing.T) {
	assert.Equal(t, "#ffd700", tierColor("gold"))
	assert.Equal(t, "#a335ee", tierColor("legendary"))
	assert.Equal(t, "#cd7f32", tierColor("unknown"))
}
