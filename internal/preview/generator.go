package preview

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kibirigec/mjkprints-sub000/constants"
	"github.com/kibirigec/mjkprints-sub000/internal/entity"
	"github.com/kibirigec/mjkprints-sub000/internal/storage"
)

// PageRenderer is the strategy-chain surface the generator depends on.
type PageRenderer interface {
	RenderPage(ctx context.Context, data []byte, page, dpi int) (*entity.Raster, []entity.StrategyOutcome, error)
}

// Generator derives the three named preview sizes from one high-resolution
// raster of page 1 and renders up to five per-page thumbnails through the
// strategy chain. Every derived image is uploaded under a deterministic key;
// any single upload failure fails the whole step.
type Generator struct {
	store            storage.ObjectStore
	chain            PageRenderer
	quality          int
	thumbnailDensity int
	logger           *slog.Logger
}

func NewGenerator(store storage.ObjectStore, chain PageRenderer, quality, thumbnailDensity int, logger *slog.Logger) *Generator {
	if quality <= 0 || quality > 100 {
		quality = constants.JPEGQuality
	}
	if thumbnailDensity <= 0 {
		thumbnailDensity = 72
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		store:            store,
		chain:            chain,
		quality:          quality,
		thumbnailDensity: thumbnailDensity,
		logger:           logger,
	}
}

// Result carries the stored paths plus aggregated strategy diagnostics.
// Degraded is set when any derived image came from a synthetic placeholder
// rather than the document itself.
type Result struct {
	Previews   map[constants.PreviewSize]string
	Thumbnails []entity.PageThumbnail
	Outcomes   []entity.StrategyOutcome
	Degraded   bool
}

// Generate produces and uploads all derived images for one upload.
// pageRaster must already have passed chain validation.
func (g *Generator) Generate(ctx context.Context, uploadID uuid.UUID, docData []byte, pageRaster *entity.Raster, pageCount int) (*Result, error) {
	src, err := imaging.Decode(bytes.NewReader(pageRaster.Data))
	if err != nil {
		return nil, fmt.Errorf("decode page raster: %w", err)
	}

	res := &Result{
		Previews: make(map[constants.PreviewSize]string, len(constants.PreviewSizes)),
		Degraded: pageRaster.Synthetic,
	}

	var mu sync.Mutex
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(4)

	for _, size := range constants.PreviewSizes {
		eg.Go(func() error {
			data, err := g.encodeResized(src, size)
			if err != nil {
				return fmt.Errorf("derive %s preview: %w", size, err)
			}
			key := previewKey(uploadID, size)
			if _, err := g.store.Upload(gctx, data, key, "image/jpeg"); err != nil {
				return err
			}
			mu.Lock()
			res.Previews[size] = key
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	thumbs, outcomes, degraded, err := g.renderThumbnails(ctx, uploadID, docData, pageCount)
	if err != nil {
		return nil, err
	}
	res.Thumbnails = thumbs
	res.Outcomes = outcomes
	res.Degraded = res.Degraded || degraded

	g.logger.Info("derived images uploaded",
		"upload_id", uploadID,
		"previews", len(res.Previews),
		"thumbnails", len(res.Thumbnails))
	return res, nil
}

// encodeResized fits src inside the size's bounding box, never upscaling.
func (g *Generator) encodeResized(src image.Image, size constants.PreviewSize) ([]byte, error) {
	bounds := constants.PreviewBounds[size]

	out := src
	b := src.Bounds()
	if b.Dx() > bounds.Width || b.Dy() > bounds.Height {
		out = imaging.Fit(src, bounds.Width, bounds.Height, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.JPEG, imaging.JPEGQuality(g.quality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderThumbnails rasterizes up to MaxThumbnails pages through the chain at
// thumbnail density, sequentially: strategy attempts must never overlap.
func (g *Generator) renderThumbnails(ctx context.Context, uploadID uuid.UUID, docData []byte, pageCount int) ([]entity.PageThumbnail, []entity.StrategyOutcome, bool, error) {
	n := pageCount
	if n > constants.MaxThumbnails {
		n = constants.MaxThumbnails
	}

	thumbs := make([]entity.PageThumbnail, 0, n)
	var all []entity.StrategyOutcome
	degraded := false

	for page := 0; page < n; page++ {
		raster, outcomes, err := g.chain.RenderPage(ctx, docData, page, g.thumbnailDensity)
		all = append(all, outcomes...)
		if err != nil {
			return nil, all, degraded, fmt.Errorf("thumbnail page %d: %w", page+1, err)
		}
		degraded = degraded || raster.Synthetic

		key := thumbnailKey(uploadID, page+1)
		if _, err := g.store.Upload(ctx, raster.Data, key, raster.Format.ContentType()); err != nil {
			return nil, all, degraded, err
		}
		thumbs = append(thumbs, entity.PageThumbnail{Page: page + 1, Path: key})
	}
	return thumbs, all, degraded, nil
}

// GeneratePlaceholders is the best-effort fallback pass: it feeds the
// placeholder raster back through Generate so a rendering-environment
// failure can still end in a completed record with degraded previews.
func (g *Generator) GeneratePlaceholders(ctx context.Context, uploadID uuid.UUID, pageCount int, fallback PageRenderer, density int) (*Result, error) {
	raster, _, err := fallback.RenderPage(ctx, nil, 0, density)
	if err != nil {
		return nil, err
	}

	gen := *g
	gen.chain = fallback
	return gen.Generate(ctx, uploadID, nil, raster, pageCount)
}
