// Package main is the entry point of the CreaLearn API server.
//
// The API serves the gamification engine of the platform: account
// registration, XP-earning progress writes (modules, quizzes, simulations,
// daily challenge) and the read side (progress summary, badges, leaderboard,
// XP history).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/crealearn/crealearn-backend/config"
	"github.com/crealearn/crealearn-backend/internal/application/command"
	"github.com/crealearn/crealearn-backend/internal/application/eventhandler"
	"github.com/crealearn/crealearn-backend/internal/application/query"
	"github.com/crealearn/crealearn-backend/internal/domain/badge"
	"github.com/crealearn/crealearn-backend/internal/domain/catalog"
	"github.com/crealearn/crealearn-backend/internal/infrastructure/messaging"
	"github.com/crealearn/crealearn-backend/internal/infrastructure/persistence/postgres"
	"github.com/crealearn/crealearn-backend/internal/infrastructure/persistence/redis"
	httpapi "github.com/crealearn/crealearn-backend/internal/interface/http"
	"github.com/crealearn/crealearn-backend/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// Configuration & logging
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(logger.Options{
		Output: os.Stdout,
		Level:  logger.ParseLevel(cfg.Observability.LogLevel),
	})

	log.Info("starting CreaLearn API",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.String("timezone", cfg.App.Timezone),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// Postgres
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to postgres")
	conn, err := postgres.NewConnection(ctx, postgres.Config{
		URL:             cfg.Database.URL,
		MaxConns:        int32(cfg.Database.MaxOpenConns),
		MinConns:        int32(cfg.Database.MaxIdleConns),
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer conn.Close()

	if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database schema is up to date")

	// ─────────────────────────────────────────────────────────────────────────
	// Redis (optional: the API degrades to Postgres-only reads without it)
	// ─────────────────────────────────────────────────────────────────────────
	var (
		cache       *redis.Cache
		leaderboard *redis.Leaderboard
	)

	if !cfg.Redis.Disabled {
		log.Info("connecting to redis")
		cache, err = redis.NewCache(redis.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			log.Warn("redis unavailable, read-path acceleration disabled", logger.Err(err))
			cache = nil
		} else {
			defer cache.Close()
			leaderboard = redis.NewLeaderboard(cache)
			log.Info("redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Event bus & repositories
	// ─────────────────────────────────────────────────────────────────────────
	busCfg := messaging.DefaultConfig()
	busCfg.Logger = log
	bus := messaging.NewInMemoryEventBus(busCfg)
	defer func() { _ = bus.Close() }()

	learnerRepo := postgres.NewLearnerRepository(conn)
	historyRepo := postgres.NewHistoryRepository(conn)
	progressRepo := postgres.NewProgressionRepository(conn)
	awardRepo := postgres.NewBadgeAwardRepository(conn)

	content := catalog.NewDefaultCatalog()
	definitions := badge.MustStaticDefinitions(badge.DefaultDefinitions())

	// ─────────────────────────────────────────────────────────────────────────
	// Application layer
	// ─────────────────────────────────────────────────────────────────────────
	evaluateBadges := command.NewEvaluateBadgesHandler(
		learnerRepo, progressRepo, definitions, awardRepo, bus, log,
	)
	awardXP := command.NewAwardXPHandler(learnerRepo, historyRepo, bus, evaluateBadges, log)

	deps := httpapi.Dependencies{
		RegisterLearner:        command.NewRegisterLearnerHandler(learnerRepo, bus, log),
		CompleteModule:         command.NewCompleteModuleHandler(content, progressRepo, awardXP, bus, log),
		SubmitQuiz:             command.NewSubmitQuizHandler(content, progressRepo, awardXP, bus, log),
		RecordSimulation:       command.NewRecordSimulationHandler(content, progressRepo, awardXP, bus, log),
		CompleteDailyChallenge: command.NewCompleteDailyChallengeHandler(progressRepo, awardXP, bus, log),
		GetBadges:              query.NewGetBadgesHandler(definitions, awardRepo),
		GetXPHistory:           query.NewGetXPHistoryHandler(historyRepo),
		PingPostgres:           conn.Ping,
		Logger:                 log,
	}

	var summaryCache query.SummaryCache
	var ranking query.RankingSource
	if cache != nil {
		summaryCache = cache
		ranking = leaderboard
		deps.PingRedis = cache.Ping
	}

	deps.GetLearnerSummary = query.NewGetLearnerSummaryHandler(
		learnerRepo, progressRepo, awardRepo,
		summaryCache, cfg.Gamification.SummaryCacheTTL, log,
	)
	deps.GetLeaderboard = query.NewGetLeaderboardHandler(
		ranking, learnerRepo, cfg.Gamification.LeaderboardMaxLimit, log,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// Event handlers (read-path side effects)
	// ─────────────────────────────────────────────────────────────────────────
	var scoreSink eventhandler.ScoreIncrementer
	var cacheSink eventhandler.CacheInvalidator
	if cache != nil {
		scoreSink = leaderboard
		cacheSink = cache
	}

	onXPGained := eventhandler.NewOnXPGainedHandler(scoreSink, cacheSink, log)
	if err := bus.Subscribe(onXPGained.EventType(), onXPGained.Handle); err != nil {
		return fmt.Errorf("failed to subscribe xp handler: %w", err)
	}

	onBadgeAwarded := eventhandler.NewOnBadgeAwardedHandler(cacheSink, log)
	if err := bus.Subscribe(onBadgeAwarded.EventType(), onBadgeAwarded.Handle); err != nil {
		return fmt.Errorf("failed to subscribe badge handler: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// HTTP server & graceful shutdown
	// ─────────────────────────────────────────────────────────────────────────
	server := httpapi.NewServer(httpapi.Config{
		Host:           cfg.HTTP.Host,
		Port:           cfg.HTTP.Port,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxBodyBytes:   1 << 20,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	}, deps)

	errCh := server.StartAsync()

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	case <-sigCtx.Done():
		log.Info("received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown failed: %w", err)
	}

	log.Info("shutdown completed")
	return nil
}
