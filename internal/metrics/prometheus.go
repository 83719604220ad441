// Package metrics provides Prometheus exporters for application metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the quest engine.
var (
	// Counters.
	QuestsGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quests_generated_total",
			Help: "Total number of quest drafts generated",
		},
		[]string{"source", "category", "difficulty"},
	)

	AIFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quest_ai_fallbacks_total",
			Help: "Total number of AI generations that fell back to templates",
		},
		[]string{"reason"},
	)

	QuestDraftCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quest_draft_cache_total",
			Help: "Quest draft cache lookups by result",
		},
		[]string{"result"},
	)

	QuestsCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quests_completed_total",
			Help: "Total number of quests completed",
		},
		[]string{"difficulty", "stat"},
	)

	QuestsFailedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quests_failed_total",
			Help: "Total number of quests marked as failed",
		},
	)

	XPAwardedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xp_awarded_total",
			Help: "Total XP awarded by source",
		},
		[]string{"source"},
	)

	LevelUpsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "level_ups_total",
			Help: "Total number of level-up events",
		},
	)

	AchievementsAwardedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "achievements_awarded_total",
			Help: "Total number of achievements unlocked",
		},
		[]string{"achievement", "category"},
	)

	RateLimitedRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limited_requests_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
		[]string{"route"},
	)

	NotificationsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Webhook notifications by kind and status",
		},
		[]string{"kind", "status"},
	)

	// LLM metrics.
	LLMRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_requests_total",
			Help: "Total LLM provider requests",
		},
		[]string{"provider", "status"},
	)

	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens consumed",
		},
		[]string{"provider", "direction"},
	)

	// Histograms.
	LLMRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "LLM provider request latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 8), // 100ms to ~12.8s
		},
		[]string{"provider"},
	)

	QuestXPReward = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quest_xp_reward",
			Help:    "XP reward of generated quests",
			Buckets: prometheus.LinearBuckets(10, 20, 10), // 10 to 190 XP
		},
		[]string{"source"},
	)

	// Scheduler metrics.
	SchedulerJobsRunTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_jobs_run_total",
			Help: "Total scheduler job executions",
		},
		[]string{"job", "status"},
	)

	SchedulerLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scheduler_last_run_timestamp",
			Help: "Unix timestamp of last scheduler run",
		},
	)

	AchievementSweepDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "achievement_sweep_duration_seconds",
			Help:    "Time taken to re-evaluate achievements for all users",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1s to ~1024s
		},
	)
)

// RecordQuestGenerated records a generated quest draft.
func RecordQuestGenerated(source, category, difficulty string, xp int) {
	QuestsGeneratedTotal.WithLabelValues(source, category, difficulty).Inc()
	QuestXPReward.WithLabelValues(source).Observe(float64(xp))
}

// RecordAIFallback records a fallback from the AI generator to templates.
func RecordAIFallback(reason string) {
	AIFallbacksTotal.WithLabelValues(reason).Inc()
}

// RecordDraftCache records a draft cache lookup result ("hit", "miss", "error").
func RecordDraftCache(result string) {
	QuestDraftCacheTotal.WithLabelValues(result).Inc()
}

// RecordQuestCompleted records a completed quest and the XP it awarded.
func RecordQuestCompleted(difficulty, stat string, xp int) {
	QuestsCompletedTotal.WithLabelValues(difficulty, stat).Inc()
	XPAwardedTotal.WithLabelValues("quest").Add(float64(xp))
}

// RecordQuestFailed records a quest marked as failed.
func RecordQuestFailed() {
	QuestsFailedTotal.Inc()
}

// RecordLevelUp records a level-up event.
func RecordLevelUp() {
	LevelUpsTotal.Inc()
}

// RecordAchievementAwarded records an achievement unlock and its XP reward.
func RecordAchievementAwarded(key, category string, xp int) {
	AchievementsAwardedTotal.WithLabelValues(key, category).Inc()
	if xp > 0 {
		XPAwardedTotal.WithLabelValues("achievement").Add(float64(xp))
	}
}

// RecordRateLimited records a request rejected by the rate limiter.
func RecordRateLimited(route string) {
	RateLimitedRequestsTotal.WithLabelValues(route).Inc()
}

// RecordNotification records a webhook notification attempt.
func RecordNotification(kind, status string) {
	NotificationsSentTotal.WithLabelValues(kind, status).Inc()
}

// RecordLLMRequest records a provider call, its latency and token usage.
func RecordLLMRequest(provider, status string, seconds float64, inputTokens, outputTokens int) {
	LLMRequestsTotal.WithLabelValues(provider, status).Inc()
	LLMRequestDurationSeconds.WithLabelValues(provider).Observe(seconds)
	if inputTokens > 0 {
		LLMTokensTotal.WithLabelValues(provider, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		LLMTokensTotal.WithLabelValues(provider, "output").Add(float64(outputTokens))
	}
}

// RecordSchedulerJobRun records a scheduler job execution.
func RecordSchedulerJobRun(job, status string) {
	SchedulerJobsRunTotal.WithLabelValues(job, status).Inc()
}

// SetSchedulerLastRun sets the timestamp of the last scheduler run.
func SetSchedulerLastRun() {
	SchedulerLastRunTimestamp.SetToCurrentTime()
}

// ObserveAchievementSweepDuration observes the duration of an achievement sweep.
func ObserveAchievementSweepDuration(seconds float64) {
	AchievementSweepDurationSeconds.Observe(seconds)
}
