package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aimd54/questforge/internal/achievements"
	"github.com/aimd54/questforge/internal/api"
	achievementsapi "github.com/aimd54/questforge/internal/api/achievements"
	"github.com/aimd54/questforge/internal/api/middleware"
	profileapi "github.com/aimd54/questforge/internal/api/profile"
	questsapi "github.com/aimd54/questforge/internal/api/quests"
	"github.com/aimd54/questforge/internal/cache"
	"github.com/aimd54/questforge/internal/config"
	"github.com/aimd54/questforge/internal/llm"
	"github.com/aimd54/questforge/internal/migrations"
	"github.com/aimd54/questforge/internal/notify"
	"github.com/aimd54/questforge/internal/repository"
	"github.com/aimd54/questforge/internal/service/awards"
	"github.com/aimd54/questforge/internal/service/profile"
	"github.com/aimd54/questforge/internal/service/questgen"
	"github.com/aimd54/questforge/internal/service/quests"
	"github.com/aimd54/questforge/internal/service/scheduler"
	"github.com/aimd54/questforge/pkg/logger"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the achievement scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	log.Info().
		Str("environment", cfg.Server.Environment).
		Str("version", Version).
		Msg("Starting QuestForge")

	if cfg.Database.AutoMigrate {
		if err := applyMigrations(cfg, log); err != nil {
			return err
		}
	}

	db, err := repository.NewDB(&cfg.Database.Postgres, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close database")
		}
	}()

	redisCache, err := cache.NewCache(&cfg.Database.Redis, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisCache.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close redis")
		}
	}()

	catalog, err := achievements.LoadCatalog(cfg.Achievements.CatalogPath)
	if err != nil {
		return err
	}
	log.Info().Int("achievements", catalog.Len()).Msg("Achievement catalog loaded")

	userRepo := repository.NewUserRepository(db)
	questRepo := repository.NewQuestRepository(db)
	achievementRepo := repository.NewAchievementRepository(db)
	store := repository.NewProgressionStore(db)

	notifier := notify.NewClient(&cfg.Notifications, log.Named("notify"))

	generator, err := buildGenerator(ctx, cfg, redisCache, log)
	if err != nil {
		return err
	}

	awardService := awards.NewService(catalog, userRepo, questRepo, achievementRepo, notifier, log.Named("awards"))
	questService := quests.NewService(questRepo, userRepo, store, generator, awardService, quests.Options{
		UseAIDefault: cfg.QuestGen.UseAIDefault,
		Notifier:     notifier,
	}, log.Named("quests"))
	profileService := profile.NewService(userRepo, questRepo, achievementRepo, log.Named("profile"))

	router := api.NewRouter(cfg, api.Dependencies{
		Quests:       questsapi.NewHandler(questService, log),
		Achievements: achievementsapi.NewHandler(awardService, log),
		Profile:      profileapi.NewHandler(profileService, log),
		Verifier:     middleware.NewTokenVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
		Users:        userRepo,
		Limiter:      middleware.NewRateLimiter(redisCache, log.Named("ratelimit")),
		Health: map[string]api.HealthChecker{
			"database": db,
			"redis":    redisCache,
		},
	}, log)

	var sched *scheduler.Service
	if cfg.Scheduler.Enabled {
		sched = scheduler.NewService(&cfg.Scheduler, awardService, log.Named("scheduler"))
		if err := sched.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer sched.Stop()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Info().Msg("Server stopped")
	return nil
}

// buildGenerator wires the AI provider, when configured, behind the template fallback.
func buildGenerator(ctx context.Context, cfg *config.Config, draftCache questgen.DraftCache, log *logger.Logger) (*questgen.FallbackGenerator, error) {
	provider, err := llm.NewProvider(ctx, &cfg.LLM, log)
	if err != nil {
		return nil, err
	}

	var ai *questgen.AIGenerator
	if provider != nil {
		ai = questgen.NewAIGenerator(provider, questgen.AIOptions{
			Timeout:     cfg.LLM.TimeoutDuration(),
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		})
	} else {
		log.Info().Msg("No LLM provider configured, quests use templates")
	}

	ttl := time.Duration(cfg.QuestGen.CacheTTL) * time.Second
	if ttl <= 0 {
		draftCache = nil
	}
	return questgen.NewFallbackGenerator(ai, questgen.NewTemplateGenerator(), draftCache, ttl, log.Named("questgen")), nil
}

func applyMigrations(cfg *config.Config, log *logger.Logger) error {
	runner, err := migrations.NewRunner(cfg.Database.Postgres.URL(), log.Named("migrate"))
	if err != nil {
		return err
	}
	defer func() {
		if err := runner.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close migration runner")
		}
	}()
	return runner.Up()
}
