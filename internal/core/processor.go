package core

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kibirigec/mjkprints-sub000/constants"
	"github.com/kibirigec/mjkprints-sub000/internal/common"
	"github.com/kibirigec/mjkprints-sub000/internal/entity"
	"github.com/kibirigec/mjkprints-sub000/internal/preview"
	"github.com/kibirigec/mjkprints-sub000/internal/repository"
	"github.com/kibirigec/mjkprints-sub000/internal/storage"
)

// DocumentIntrospector validates a raw buffer and extracts structure and
// descriptive metadata from it.
type DocumentIntrospector interface {
	ExtractMetadata(data []byte) (*entity.DocumentMetadata, int, error)
	FirstPageDimensions(data []byte) (entity.Dimensions, error)
}

// PreviewGenerator produces and uploads all derived images for one upload.
type PreviewGenerator interface {
	Generate(ctx context.Context, uploadID uuid.UUID, docData []byte, pageRaster *entity.Raster, pageCount int) (*preview.Result, error)
	GeneratePlaceholders(ctx context.Context, uploadID uuid.UUID, pageCount int, fallback preview.PageRenderer, density int) (*preview.Result, error)
}

// Processor drives one upload through the conversion pipeline:
// claim -> download -> introspect -> render -> derive previews -> persist.
// The persisted status is the single source of truth for where a record is in
// that lifecycle, and the claim step's compare-and-set makes concurrent runs
// against the same upload safe across processes.
type Processor struct {
	repo      repository.UploadRepository
	store     storage.ObjectStore
	intro     DocumentIntrospector
	chain     preview.PageRenderer
	generator PreviewGenerator
	// fallback renders synthetic placeholders only; used for the best-effort
	// pass after a rendering-environment failure.
	fallback         preview.PageRenderer
	density          int
	thumbnailDensity int
	logger           *slog.Logger
}

func NewProcessor(
	repo repository.UploadRepository,
	store storage.ObjectStore,
	intro DocumentIntrospector,
	chain preview.PageRenderer,
	generator PreviewGenerator,
	fallback preview.PageRenderer,
	cfg common.RenderConfig,
	logger *slog.Logger,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		repo:             repo,
		store:            store,
		intro:            intro,
		chain:            chain,
		generator:        generator,
		fallback:         fallback,
		density:          cfg.Density,
		thumbnailDensity: cfg.ThumbnailDensity,
		logger:           logger,
	}
}

// Process is the sole entry point of the pipeline. It is idempotent for
// completed uploads (the stored result is returned without touching the
// record) and rejects uploads another run currently holds.
func (p *Processor) Process(ctx context.Context, uploadID uuid.UUID) (*entity.ProcessingResult, error) {
	if err := p.repo.ClaimForProcessing(ctx, uploadID); err != nil {
		if errors.Is(err, common.ErrAlreadyCompleted) {
			p.logger.Info("processor.claim.already_completed", "upload_id", uploadID)
			u, getErr := p.repo.GetByID(ctx, uploadID)
			if getErr != nil {
				return nil, getErr
			}
			return resultFromUpload(u), nil
		}
		p.logger.Warn("processor.claim.rejected", "upload_id", uploadID, "error", err)
		return nil, err
	}

	upload, err := p.repo.GetByID(ctx, uploadID)
	if err != nil {
		return nil, p.fail(ctx, uploadID, err)
	}

	p.logger.Info("processor.started",
		"upload_id", uploadID, "filename", upload.Filename, "source", upload.SourcePath)

	data, err := p.store.Download(ctx, upload.SourcePath)
	if err != nil {
		p.logger.Error("processor.download.failed",
			"upload_id", uploadID, "source", upload.SourcePath, "error", err)
		return nil, p.fail(ctx, uploadID, err)
	}

	md, pageCount, err := p.intro.ExtractMetadata(data)
	if err != nil {
		p.logger.Error("processor.introspect.failed", "upload_id", uploadID, "error", err)
		return nil, p.fail(ctx, uploadID, err)
	}
	dims, err := p.intro.FirstPageDimensions(data)
	if err != nil {
		p.logger.Error("processor.introspect.failed", "upload_id", uploadID, "error", err)
		return nil, p.fail(ctx, uploadID, err)
	}

	raster, outcomes, err := p.chain.RenderPage(ctx, data, 0, p.density)
	if err != nil {
		return p.recoverWithPlaceholders(ctx, uploadID, pageCount, dims, md, err)
	}

	res, err := p.generator.Generate(ctx, uploadID, data, raster, pageCount)
	if err != nil {
		if isRenderingFailure(err) {
			return p.recoverWithPlaceholders(ctx, uploadID, pageCount, dims, md, err)
		}
		p.logger.Error("processor.previews.failed", "upload_id", uploadID, "error", err)
		return nil, p.fail(ctx, uploadID, err)
	}

	md.ProcessedAt = time.Now().UTC()
	md.Strategy = winningStrategy(outcomes)

	// The chain can "succeed" by drawing a synthetic placeholder when the
	// rendering environment is broken; that still completes, but flagged.
	var warning string
	if res.Degraded {
		md.FallbackUsed = true
		warning = "fallback preview generated"
		p.logger.Warn("processor.render.degraded",
			"upload_id", uploadID, "strategy", md.Strategy)
	}

	return p.complete(ctx, uploadID, pageCount, dims, md, res, warning)
}

// recoverWithPlaceholders runs the degraded pass: synthetic placeholders for
// every derived image. On success the record still completes, flagged so the
// caller can tell real previews from stand-ins. On failure the original
// rendering error is what gets persisted and returned.
func (p *Processor) recoverWithPlaceholders(
	ctx context.Context,
	uploadID uuid.UUID,
	pageCount int,
	dims entity.Dimensions,
	md *entity.DocumentMetadata,
	cause error,
) (*entity.ProcessingResult, error) {
	if !isRenderingFailure(cause) {
		return nil, p.fail(ctx, uploadID, cause)
	}

	p.logger.Warn("processor.render.fallback",
		"upload_id", uploadID, "class", common.ClassOf(cause), "error", cause)

	res, err := p.generator.GeneratePlaceholders(ctx, uploadID, pageCount, p.fallback, p.thumbnailDensity)
	if err != nil {
		p.logger.Error("processor.render.fallback_failed", "upload_id", uploadID, "error", err)
		return nil, p.fail(ctx, uploadID, cause)
	}

	md.ProcessedAt = time.Now().UTC()
	md.Strategy = winningStrategy(res.Outcomes)
	md.FallbackUsed = true
	md.FailureDetail = cause.Error()

	return p.complete(ctx, uploadID, pageCount, dims, md, res, "fallback preview generated")
}

// complete persists the derived fields and flips the record to completed.
func (p *Processor) complete(
	ctx context.Context,
	uploadID uuid.UUID,
	pageCount int,
	dims entity.Dimensions,
	md *entity.DocumentMetadata,
	res *preview.Result,
	warning string,
) (*entity.ProcessingResult, error) {
	results := &entity.UploadResults{
		PageCount:  pageCount,
		Dimensions: dims,
		Previews:   res.Previews,
		Thumbnails: res.Thumbnails,
		Metadata:   *md,
	}
	if err := p.repo.SetResults(ctx, uploadID, results); err != nil {
		return nil, p.fail(ctx, uploadID, err)
	}

	p.logger.Info("processor.completed",
		"upload_id", uploadID,
		"pages", pageCount,
		"previews", len(res.Previews),
		"thumbnails", len(res.Thumbnails),
		"strategy", md.Strategy,
		"fallback", md.FallbackUsed)

	return &entity.ProcessingResult{
		Success: true,
		Warning: warning,
		File: entity.ResultFile{
			ID:               uploadID.String(),
			PageCount:        pageCount,
			Dimensions:       dims,
			PreviewURLs:      previewURLMap(res.Previews),
			ThumbnailURLs:    res.Thumbnails,
			ProcessingStatus: string(constants.StatusCompleted),
			Metadata:         *md,
		},
	}, nil
}

// fail persists the failure class and message, then returns the original
// error. Persistence here is best effort: the caller's error must survive
// even when the status write itself fails.
func (p *Processor) fail(ctx context.Context, uploadID uuid.UUID, cause error) error {
	detail := entity.FailureDetail{
		Class:    common.ClassOf(cause),
		Message:  cause.Error(),
		FailedAt: time.Now().UTC(),
	}
	if err := p.repo.SetFailed(ctx, uploadID, detail); err != nil {
		p.logger.Error("processor.fail.persist_failed",
			"upload_id", uploadID, "cause", cause, "error", err)
	}
	return cause
}

func isRenderingFailure(err error) bool {
	return errors.Is(err, common.ErrRenderingUnavailable) ||
		errors.Is(err, common.ErrAllStrategiesExhausted)
}

func winningStrategy(outcomes []entity.StrategyOutcome) string {
	for _, o := range outcomes {
		if o.Success {
			return o.Strategy
		}
	}
	return ""
}

func previewURLMap(previews map[constants.PreviewSize]string) map[string]string {
	m := make(map[string]string, len(previews))
	for size, path := range previews {
		m[string(size)] = path
	}
	return m
}

// resultFromUpload rebuilds the caller-facing result from a record that
// completed on an earlier run.
func resultFromUpload(u *entity.Upload) *entity.ProcessingResult {
	var warning string
	if u.Metadata.FallbackUsed {
		warning = "fallback preview generated"
	}
	return &entity.ProcessingResult{
		Success: true,
		Warning: warning,
		File: entity.ResultFile{
			ID:               u.ID.String(),
			PageCount:        u.PageCount,
			Dimensions:       u.Dimensions,
			PreviewURLs:      previewURLMap(u.Previews),
			ThumbnailURLs:    u.Thumbnails,
			ProcessingStatus: string(u.Status),
			Metadata:         u.Metadata,
		},
	}
}
