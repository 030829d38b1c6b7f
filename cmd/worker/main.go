// Package main is the entry point of the CreaLearn background worker.
//
// The worker runs the maintenance jobs that keep the read path honest:
// periodic full rebuilds of the Redis leaderboard from Postgres and audits
// of the level-vs-XP invariant across all learners.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/crealearn/crealearn-backend/config"
	"github.com/crealearn/crealearn-backend/internal/infrastructure/persistence/postgres"
	"github.com/crealearn/crealearn-backend/internal/infrastructure/persistence/redis"
	"github.com/crealearn/crealearn-backend/internal/infrastructure/scheduler"
	"github.com/crealearn/crealearn-backend/internal/infrastructure/scheduler/jobs"
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

	log.Info("starting CreaLearn worker",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
	)

	if !cfg.Scheduler.Enabled {
		log.Warn("scheduler disabled by configuration, exiting")
		return nil
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Postgres
	// ─────────────────────────────────────────────────────────────────────────
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

	// The API owns migrations; the worker only verifies the schema exists
	// by applying whatever is pending, which is a no-op in steady state.
	if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	learnerRepo := postgres.NewLearnerRepository(conn)

	// ─────────────────────────────────────────────────────────────────────────
	// Redis (the rebuild job is skipped without it)
	// ─────────────────────────────────────────────────────────────────────────
	var board *redis.Leaderboard

	if !cfg.Redis.Disabled {
		cache, err := redis.NewCache(redis.Config{
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
			log.Warn("redis unavailable, leaderboard rebuild disabled", logger.Err(err))
		} else {
			defer cache.Close()
			board = redis.NewLeaderboard(cache)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Scheduler & jobs
	// ─────────────────────────────────────────────────────────────────────────
	sched := scheduler.New(scheduler.Config{
		Logger:            log,
		JobTimeout:        cfg.Scheduler.JobTimeout,
		MaxConcurrentJobs: cfg.Scheduler.MaxConcurrentJobs,
	})

	if board != nil {
		rebuild := jobs.NewRebuildLeaderboardJob(learnerRepo, board, log)
		if err := sched.Register(rebuild, scheduler.Every(cfg.Scheduler.RebuildLeaderboardInterval)); err != nil {
			return fmt.Errorf("failed to register rebuild job: %w", err)
		}
	}

	audit := jobs.NewAuditLevelsJob(learnerRepo, log)
	if err := sched.Register(audit, scheduler.Every(cfg.Scheduler.AuditLevelsInterval)); err != nil {
		return fmt.Errorf("failed to register audit job: %w", err)
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Graceful shutdown
	// ─────────────────────────────────────────────────────────────────────────
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-sigCtx.Done()
	log.Info("received shutdown signal")

	if err := sched.Stop(); err != nil {
		return fmt.Errorf("scheduler shutdown failed: %w", err)
	}

	log.Info("shutdown completed")
	return nil
}
