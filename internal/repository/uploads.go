package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kibirigec/mjkprints-sub000/constants"
	"github.com/kibirigec/mjkprints-sub000/internal/common"
	"github.com/kibirigec/mjkprints-sub000/internal/entity"
)

// UploadRepository is the metadata-store contract the pipeline depends on.
// The concurrency guard lives here as a compare-and-set on the persisted
// status, so it stays correct across independent processes.
type UploadRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Upload, error)

	// ClaimForProcessing transitions pending|failed -> processing. It returns
	// common.ErrAlreadyProcessing when a run is active and
	// common.ErrAlreadyCompleted when the record is terminal-successful.
	ClaimForProcessing(ctx context.Context, id uuid.UUID) error

	// SetResults writes all derived fields and marks the record completed in
	// one statement.
	SetResults(ctx context.Context, id uuid.UUID, res *entity.UploadResults) error

	// SetFailed marks the record failed and persists the structured failure
	// payload for diagnosis.
	SetFailed(ctx context.Context, id uuid.UUID, detail entity.FailureDetail) error
}

type uploadRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewUploadRepository(pool *pgxpool.Pool, logger *slog.Logger) UploadRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &uploadRepo{pool: pool, logger: logger}
}

func (r *uploadRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Upload, error) {
	const q = `
		SELECT id, filename, file_size, source_path, processing_status,
		       COALESCE(page_count, 0), COALESCE(page_width, 0), COALESCE(page_height, 0),
		       COALESCE(preview_paths, '{}'::jsonb), COALESCE(thumbnail_paths, '[]'::jsonb),
		       COALESCE(metadata, '{}'::jsonb), created_at, updated_at
		FROM uploads WHERE id = $1`

	var (
		u              entity.Upload
		status         string
		previewsJSON   []byte
		thumbnailsJSON []byte
		metadataJSON   []byte
	)
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&u.ID, &u.Filename, &u.FileSize, &u.SourcePath, &status,
		&u.PageCount, &u.Dimensions.Width, &u.Dimensions.Height,
		&previewsJSON, &thumbnailsJSON, &metadataJSON,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get upload", "upload_id", id, "error", err)
		return nil, err
	}
	u.Status = constants.ProcessingStatus(status)
	if err := json.Unmarshal(previewsJSON, &u.Previews); err != nil {
		return nil, fmt.Errorf("decode preview_paths: %w", err)
	}
	if err := json.Unmarshal(thumbnailsJSON, &u.Thumbnails); err != nil {
		return nil, fmt.Errorf("decode thumbnail_paths: %w", err)
	}
	if err := json.Unmarshal(metadataJSON, &u.Metadata); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return &u, nil
}

func (r *uploadRepo) ClaimForProcessing(ctx context.Context, id uuid.UUID) error {
	const q = `
		UPDATE uploads
		SET processing_status = $2, updated_at = now()
		WHERE id = $1 AND processing_status IN ($3, $4)`

	tag, err := r.pool.Exec(ctx, q, id,
		string(constants.StatusProcessing),
		string(constants.StatusPending),
		string(constants.StatusFailed),
	)
	if err != nil {
		r.logger.Error("failed to claim upload", "upload_id", id, "error", err)
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	// CAS lost: report why from the current status.
	var status string
	err = r.pool.QueryRow(ctx, `SELECT processing_status FROM uploads WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return common.ErrNotFound
	}
	if err != nil {
		return err
	}
	switch constants.ProcessingStatus(status) {
	case constants.StatusProcessing:
		return common.ErrAlreadyProcessing
	case constants.StatusCompleted:
		return common.ErrAlreadyCompleted
	default:
		return fmt.Errorf("claim raced with status %q", status)
	}
}

func (r *uploadRepo) SetResults(ctx context.Context, id uuid.UUID, res *entity.UploadResults) error {
	previewsJSON, err := json.Marshal(res.Previews)
	if err != nil {
		return fmt.Errorf("encode preview_paths: %w", err)
	}
	thumbnailsJSON, err := json.Marshal(res.Thumbnails)
	if err != nil {
		return fmt.Errorf("encode thumbnail_paths: %w", err)
	}
	metadataJSON, err := json.Marshal(res.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	const q = `
		UPDATE uploads
		SET processing_status = $2,
		    page_count = $3, page_width = $4, page_height = $5,
		    preview_paths = $6, thumbnail_paths = $7, metadata = $8,
		    updated_at = now()
		WHERE id = $1 AND processing_status = $9`

	tag, err := r.pool.Exec(ctx, q, id,
		string(constants.StatusCompleted),
		res.PageCount, res.Dimensions.Width, res.Dimensions.Height,
		previewsJSON, thumbnailsJSON, metadataJSON,
		string(constants.StatusProcessing),
	)
	if err != nil {
		r.logger.Error("failed to persist results", "upload_id", id, "error", err)
		return err
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("upload %s not in processing state at completion", id)
	}
	return nil
}

func (r *uploadRepo) SetFailed(ctx context.Context, id uuid.UUID, detail entity.FailureDetail) error {
	if detail.FailedAt.IsZero() {
		detail.FailedAt = time.Now().UTC()
	}
	detailJSON, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("encode failure detail: %w", err)
	}

	const q = `
		UPDATE uploads
		SET processing_status = $2, failure = $3, updated_at = now()
		WHERE id = $1`

	if _, err := r.pool.Exec(ctx, q, id, string(constants.StatusFailed), detailJSON); err != nil {
		r.logger.Error("failed to persist failure", "upload_id", id, "error", err)
		return err
	}
	return nil
}
