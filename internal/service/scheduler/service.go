// Package scheduler runs the periodic achievement sweep.
package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/aimd54/questforge/internal/config"
	prommetrics "github.com/aimd54/questforge/internal/metrics"
	"github.com/aimd54/questforge/pkg/logger"
)

const jobAchievementSweep = "achievement_sweep"

// Sweeper evaluates achievements for every user.
type Sweeper interface {
	EvaluateAll(ctx context.Context) (int, error)
}

// Service handles periodic job scheduling.
type Service struct {
	config  *config.SchedulerConfig
	sweeper Sweeper
	log     *logger.Logger
	cron    *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewService creates a new scheduler service.
func NewService(cfg *config.SchedulerConfig, sweeper Sweeper, log *logger.Logger) *Service {
	return &Service{
		config:  cfg,
		sweeper: sweeper,
		log:     log,
	}
}

// Start initializes and starts the cron scheduler.
func (s *Service) Start() error {
	if !s.config.Enabled {
		s.log.Info().Msg("Scheduler is disabled in configuration")
		return nil
	}

	location, err := s.config.GetLocation()
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", s.config.Timezone, err)
	}

	cronExpr, err := buildCronExpression(s.config.AchievementSweep)
	if err != nil {
		return fmt.Errorf("failed to build cron expression: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ctx, s.cancel = context.WithCancel(context.Background())
	cl := cronLogger{log: s.log}
	s.cron = cron.New(
		cron.WithLocation(location),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	if _, err := s.cron.AddFunc(cronExpr, func() { s.runAchievementSweep(s.ctx) }); err != nil {
		s.cancel()
		return fmt.Errorf("failed to register achievement sweep job: %w", err)
	}

	s.cron.Start()

	nextRun := ""
	if entries := s.cron.Entries(); len(entries) > 0 {
		nextRun = entries[0].Next.Format(time.RFC3339)
	}

	s.log.Info().
		Str("schedule", cronExpr).
		Str("timezone", s.config.Timezone).
		Str("next_run", nextRun).
		Msg("Scheduler started successfully")

	return nil
}

// Stop cancels a running sweep and waits for it to return.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return
	}
	s.cancel()
	<-s.cron.Stop().Done()
	s.cron = nil
	s.log.Info().Msg("Scheduler stopped")
}

// buildCronExpression accepts either a daily "HH:MM" time or a standard cron
// expression (including descriptors such as "@every 1h").
func buildCronExpression(spec string) (string, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return "", fmt.Errorf("empty schedule")
	}

	if !strings.ContainsAny(spec, " @") {
		parts := strings.Split(spec, ":")
		if len(parts) != 2 {
			return "", fmt.Errorf("invalid time format %q, expected HH:MM or a cron expression", spec)
		}

		hour, err := strconv.Atoi(parts[0])
		if err != nil || hour < 0 || hour > 23 {
			return "", fmt.Errorf("invalid hour %q", parts[0])
		}

		minute, err := strconv.Atoi(parts[1])
		if err != nil || minute < 0 || minute > 59 {
			return "", fmt.Errorf("invalid minute %q", parts[1])
		}

		// minute hour day month weekday
		return fmt.Sprintf("%d %d * * *", minute, hour), nil
	}

	if _, err := cron.ParseStandard(spec); err != nil {
		return "", fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}
	return spec, nil
}

// runAchievementSweep executes the achievement sweep job.
func (s *Service) runAchievementSweep(ctx context.Context) {
	start := time.Now()

	defer func() {
		prommetrics.ObserveAchievementSweepDuration(time.Since(start).Seconds())
		prommetrics.SetSchedulerLastRun()
	}()

	s.log.Info().Msg("Running achievement sweep job")

	awarded, err := s.sweeper.EvaluateAll(ctx)
	if err != nil {
		s.log.Error().
			Err(err).
			Dur("duration", time.Since(start)).
			Msg("Achievement sweep job failed")
		prommetrics.RecordSchedulerJobRun(jobAchievementSweep, "error")
		return
	}

	prommetrics.RecordSchedulerJobRun(jobAchievementSweep, "success")

	s.log.Info().
		Int("achievements_awarded", awarded).
		Dur("duration", time.Since(start)).
		Msg("Achievement sweep job completed successfully")
}

// cronLogger adapts the application logger to cron.Logger.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
