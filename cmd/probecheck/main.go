package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/kibirigec/mjkprints-sub000/internal/common"
	"github.com/kibirigec/mjkprints-sub000/internal/render"
	repo "github.com/kibirigec/mjkprints-sub000/internal/repository"
)

// probecheck reports whether this environment can run the pipeline at full
// fidelity: database reachable, and whether the external converter answers a
// version probe. A missing converter is reported but is not a failure.
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	_ = godotenv.Load()

	cfg := common.LoadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	runner := render.NewExecRunner(logger)
	prober := render.NewProber(runner, cfg.Render.Pdftoppm, cfg.Render.ProbeTimeout, logger)
	if prober.Available(ctx) {
		logger.Info("converter: OK", "binary", cfg.Render.Pdftoppm)
	} else {
		logger.Warn("converter: MISSING, in-process strategies only", "binary", cfg.Render.Pdftoppm)
	}

	if cfg.Database.DSN == "" {
		logger.Error("DB_URL env var is required")
		os.Exit(2)
	}

	pool, err := repo.Open(ctx, repo.Config{
		DSN:             cfg.Database.DSN,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		DialTimeout:     cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("db: FAIL", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := repo.HealthCheck(ctx, pool, time.Second, logger); err != nil {
		logger.Error("db health: FAIL", "error", err)
		os.Exit(1)
	}
	logger.Info("db health: OK")
}
