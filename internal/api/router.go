// Package api assembles the HTTP surface: middleware, health, metrics and the
// authenticated /api/v1 routes.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aimd54/questforge/internal/api/achievements"
	"github.com/aimd54/questforge/internal/api/middleware"
	"github.com/aimd54/questforge/internal/api/profile"
	"github.com/aimd54/questforge/internal/api/quests"
	"github.com/aimd54/questforge/internal/config"
	"github.com/aimd54/questforge/pkg/logger"
)

// HealthChecker reports whether a backing store is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Dependencies are the collaborators the router mounts.
type Dependencies struct {
	Quests       *quests.Handler
	Achievements *achievements.Handler
	Profile      *profile.Handler
	Verifier     *middleware.TokenVerifier
	Users        middleware.UserProvisioner
	Limiter      *middleware.RateLimiter
	// Health checks keyed by component name.
	Health map[string]HealthChecker
}

// NewRouter builds the gin engine.
func NewRouter(cfg *config.Config, deps Dependencies, log *logger.Logger) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log.Named("http")))

	corsConfig := cors.DefaultConfig()
	if len(cfg.Server.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.Server.AllowedOrigins
		corsConfig.AllowCredentials = true
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", healthHandler(deps.Health))

	if cfg.Metrics.Prometheus.Enabled {
		r.GET(cfg.Metrics.Prometheus.Path, gin.WrapH(promhttp.Handler()))
	}

	var generateLimit gin.HandlerFunc
	if deps.Limiter != nil {
		generateLimit = deps.Limiter.Limit("quest_generate", cfg.RateLimit.GeneratePerMinute, time.Minute)
	}

	v1 := r.Group("/api/v1")
	v1.Use(middleware.Auth(deps.Verifier, deps.Users, log.Named("auth")))
	{
		deps.Quests.Register(v1, generateLimit)
		deps.Achievements.Register(v1)
		deps.Profile.Register(v1)
	}

	return r
}

func healthHandler(checks map[string]HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		components := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check.Health(ctx); err != nil {
				components[name] = "unhealthy"
				status = http.StatusServiceUnavailable
				continue
			}
			components[name] = "healthy"
		}

		overall := "healthy"
		if status != http.StatusOK {
			overall = "unhealthy"
		}
		c.JSON(status, gin.H{
			"status":     overall,
			"components": components,
			"timestamp":  time.Now().UTC(),
		})
	}
}
