// Package notify announces level-ups and achievement unlocks to a
// Mattermost or Slack compatible incoming webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aimd54/questforge/internal/config"
	prommetrics "github.com/aimd54/questforge/internal/metrics"
	"github.com/aimd54/questforge/internal/progression"
	"github.com/aimd54/questforge/pkg/logger"
)

const (
	botUsername = "QuestForge"
	sendTimeout = 10 * time.Second
)

// Client handles webhook notifications.
type Client struct {
	webhookURL string
	channel    string
	enabled    bool
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient creates a new webhook client.
func NewClient(cfg *config.NotificationsConfig, log *logger.Logger) *Client {
	return &Client{
		webhookURL: cfg.WebhookURL,
		channel:    cfg.Channel,
		enabled:    cfg.Enabled,
		httpClient: &http.Client{Timeout: sendTimeout},
		log:        log,
	}
}

// Message represents a webhook message payload.
type Message struct {
	Channel     string       `json:"channel,omitempty"`
	Username    string       `json:"username,omitempty"`
	Text        string       `json:"text,omitempty"`
	IconEmoji   string       `json:"icon_emoji,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment represents a message attachment.
type Attachment struct {
	Fallback string  `json:"fallback,omitempty"`
	Color    string  `json:"color,omitempty"`
	Title    string  `json:"title,omitempty"`
	Text     string  `json:"text,omitempty"`
	Fields   []Field `json:"fields,omitempty"`
	Footer   string  `json:"footer,omitempty"`
}

// Field represents a message field.
type Field struct {
	Short bool   `json:"short"`
	Title string `json:"title"`
	Value string `json:"value"`
}

// Enabled reports whether messages are actually delivered.
func (c *Client) Enabled() bool {
	return c.enabled
}

// SendMessage posts a message to the webhook.
func (c *Client) SendMessage(ctx context.Context, msg *Message) error {
	if !c.enabled {
		c.log.Debug().Msg("Notifications are disabled, skipping message")
		return nil
	}

	if msg.Channel == "" {
		msg.Channel = c.channel
	}
	if msg.Username == "" {
		msg.Username = botUsername
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	c.log.Debug().
		Str("channel", msg.Channel).
		Msg("Sent webhook message")

	return nil
}

// LevelUp describes a level-up announcement.
type LevelUp struct {
	UserID   string
	Username string
	OldLevel int
	NewLevel int
	TotalXP  int
}

// SendLevelUp announces that a user reached a new level.
func (c *Client) SendLevelUp(ctx context.Context, ev LevelUp) error {
	if !c.enabled {
		return nil
	}

	text := fmt.Sprintf("🎉 **%s** reached **level %d**!", displayName(ev.Username, ev.UserID), ev.NewLevel)
	progress := progression.Progress(ev.TotalXP)

	err := c.SendMessage(ctx, &Message{
		Text: text,
		Attachments: []Attachment{{
			Fallback: text,
			Color:    "#f5a623",
			Fields: []Field{
				{Short: true, Title: "Previous level", Value: fmt.Sprintf("%d", ev.OldLevel)},
				{Short: true, Title: "Total XP", Value: fmt.Sprintf("%d", ev.TotalXP)},
				{Short: true, Title: "Next level", Value: fmt.Sprintf("%d / %d XP", progress.ProgressXP, progress.NeededXP)},
			},
		}},
	})
	recordResult("level_up", err)
	return err
}

// AchievementUnlocked describes an achievement announcement.
type AchievementUnlocked struct {
	UserID      string
	Username    string
	Key         string
	Title       string
	Description string
	Icon        string
	Tier        string
	XPReward    int
}

// SendAchievementUnlocked announces a newly unlocked achievement.
func (c *Client) SendAchievementUnlocked(ctx context.Context, ev AchievementUnlocked) error {
	if !c.enabled {
		return nil
	}

	text := fmt.Sprintf("%s **%s** unlocked **%s**", ev.Icon, displayName(ev.Username, ev.UserID), ev.Title)

	fields := []Field{{Short: true, Title: "Tier", Value: ev.Tier}}
	if ev.XPReward > 0 {
		fields = append(fields, Field{Short: true, Title: "Reward", Value: fmt.Sprintf("+%d XP", ev.XPReward)})
	}

	err := c.SendMessage(ctx, &Message{
		Text: text,
		Attachments: []Attachment{{
			Fallback: text,
			Color:    tierColor(ev.Tier),
			Title:    ev.Title,
			Text:     ev.Description,
			Fields:   fields,
			Footer:   ev.Key,
		}},
	})
	recordResult("achievement", err)
	return err
}

func recordResult(kind string, err error) {
	if err != nil {
		prommetrics.RecordNotification(kind, "error")
		return
	}
	prommetrics.RecordNotification(kind, "success")
}

func displayName(username, userID string) string {
	if username != "" {
		return "@" + username
	}
	return userID
}

func tierColor(tier string) string {
	switch tier {
	case "silver":
		return "#c0c0c0"
	case "gold":
		return "#ffd700"
	case "platinum":
		return "#8fd3fe"
	case "legendary":
		return "#a335ee"
	default:
		return "#cd7f32"
	}
}
