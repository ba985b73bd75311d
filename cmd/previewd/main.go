package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/kibirigec/mjkprints-sub000/internal/common"
	"github.com/kibirigec/mjkprints-sub000/internal/core"
	"github.com/kibirigec/mjkprints-sub000/internal/document"
	"github.com/kibirigec/mjkprints-sub000/internal/preview"
	"github.com/kibirigec/mjkprints-sub000/internal/render"
	repo "github.com/kibirigec/mjkprints-sub000/internal/repository"
	"github.com/kibirigec/mjkprints-sub000/internal/storage"
)

// previewd processes one upload end to end: claim, download, introspect,
// render, derive previews, persist. Exit 0 on completion (including the
// degraded placeholder path), 2 on usage errors, 1 otherwise.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	_ = godotenv.Load()

	if len(os.Args) < 2 {
		logger.Error("usage: previewd <upload_id>")
		os.Exit(2)
	}
	uploadID, err := uuid.Parse(os.Args[1])
	if err != nil {
		logger.Error("invalid upload_id", "arg", os.Args[1], "error", err)
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := repo.Open(ctx, repo.Config{
		DSN:             cfg.Database.DSN,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		DialTimeout:     cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("open db", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	s3c, err := storage.NewS3Client(ctx, cfg.Storage.Region)
	if err != nil {
		logger.Error("init object store", "error", err)
		os.Exit(1)
	}
	store := storage.NewS3Store(s3c, cfg.Storage.Bucket,
		cfg.Storage.DownloadTimeout, cfg.Storage.UploadTimeout, logger)

	uploads := repo.NewUploadRepository(pool, logger)
	intro := document.NewIntrospector(logger)

	runner := render.NewExecRunner(logger)
	prober := render.NewProber(runner, cfg.Render.Pdftoppm, cfg.Render.ProbeTimeout, logger)
	chain := render.NewChain(cfg.Render, cfg.Preview.MinRasterSize, cfg.Preview.JPEGQuality,
		runner, prober, logger)
	fallback := render.FallbackChain(cfg.Preview.JPEGQuality, cfg.Preview.MinRasterSize, logger)

	generator := preview.NewGenerator(store, chain,
		cfg.Preview.JPEGQuality, cfg.Render.ThumbnailDensity, logger)

	processor := core.NewProcessor(uploads, store, intro, chain, generator, fallback,
		cfg.Render, logger)

	result, err := processor.Process(ctx, uploadID)
	if err != nil {
		logger.Error("processing failed",
			"upload_id", uploadID, "class", common.ClassOf(err), "error", err)
		if errors.Is(err, common.ErrNotFound) {
			os.Exit(2)
		}
		os.Exit(1)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logger.Error("encode result", "error", err)
		os.Exit(1)
	}
	os.Stdout.Write(out)
	os.Stdout.Write([]byte("\n"))
}
