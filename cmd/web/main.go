package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/spt-web/internal/handler"
	"github.com/noah-isme/spt-web/internal/service"
	"github.com/noah-isme/spt-web/internal/session"
	"github.com/noah-isme/spt-web/internal/store"
	"github.com/noah-isme/spt-web/internal/upstream"
	"github.com/noah-isme/spt-web/pkg/cache"
	"github.com/noah-isme/spt-web/pkg/config"
	"github.com/noah-isme/spt-web/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	var tokens session.TokenStore
	switch cfg.Session.Store {
	case config.SessionStoreRedis:
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		tokens = session.NewRedisStore(redisClient, cfg.Session.TTL)
	default:
		tokens = session.NewMemoryStore(cfg.Session.TTL)
	}

	sessions := session.NewManager(cfg.Session.CookieName, cfg.Session.Secret, cfg.Session.TTL, cfg.Session.Secure)
	metrics := service.NewMetricsService()

	// The bearer token is resolved per call from the request's session,
	// so login and logout take effect without rebuilding the client.
	tokenSource := func(ctx context.Context) string {
		sid, ok := session.IDFromContext(ctx)
		if !ok {
			return ""
		}
		token, err := tokens.Get(ctx, sid)
		if err != nil {
			return ""
		}
		return token
	}

	client := upstream.NewClient(upstream.Config{
		BaseURL: cfg.Upstream.BaseURL,
		Timeout: cfg.Upstream.Timeout,
	}, tokenSource, metrics, logr)

	roster := store.NewRoster(client, metrics, logr)
	validate := validator.New()

	authService := service.NewAuthService(client, tokens, roster, validate, logr)
	rosterService := service.NewRosterService(roster, client, validate, logr)
	exportService := service.NewExportService()

	router := handler.NewRouter(handler.RouterDeps{
		Logger:        logr,
		Metrics:       metrics,
		Sessions:      sessions,
		Auth:          authService,
		Roster:        rosterService,
		Exports:       exportService,
		ExportEnabled: cfg.Exports.Enabled,
		TemplateGlob:  "web/templates/*.tmpl",
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "upstream", cfg.Upstream.BaseURL)
	if err := router.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
