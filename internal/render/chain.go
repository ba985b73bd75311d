package render

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kibirigec/mjkprints-sub000/internal/common"
	"github.com/kibirigec/mjkprints-sub000/internal/entity"
)

// Strategy is one page-to-raster conversion algorithm. Implementations must
// be safe to retry and must not share mutable state across invocations.
type Strategy interface {
	Name() string
	// RenderPage rasterizes one page (0-based) at the given density.
	RenderPage(ctx context.Context, data []byte, page, dpi int) (*entity.Raster, error)
}

// Chain tries strategies strictly in priority order and stops at the first
// raster that passes validation. Attempts never run in parallel: each is
// expensive and they share subprocess and surface resources.
type Chain struct {
	strategies []Strategy
	prober     *Prober
	minBytes   int
	logger     *slog.Logger
}

// NewChain assembles the standard five-tier chain, highest fidelity first.
func NewChain(cfg common.RenderConfig, minBytes, quality int, runner Runner, prober *Prober, logger *slog.Logger) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{
		strategies: []Strategy{
			NewExternalTool(runner, cfg.Pdftoppm, cfg.ConvertTimeout, quality, logger),
			NewFitzFull(quality, cfg.WhiteThreshold, logger),
			NewFitzSimple(quality, logger),
			NewSyntheticLayout(quality, logger),
			NewMinimalPlaceholder(quality, logger),
		},
		prober:   prober,
		minBytes: minBytes,
		logger:   logger,
	}
}

// NewChainWith builds a chain from an explicit strategy list, for tests and
// the placeholder-fallback pass.
func NewChainWith(strategies []Strategy, prober *Prober, minBytes int, logger *slog.Logger) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{strategies: strategies, prober: prober, minBytes: minBytes, logger: logger}
}

// RenderPage folds over the ordered strategies and short-circuits on the
// first validated raster. A win by a placeholder tier is still a success but
// the raster carries Synthetic=true, so callers can report the degraded
// completion. It fails only when the final placeholder tier itself throws,
// which is terminal.
func (c *Chain) RenderPage(ctx context.Context, data []byte, page, dpi int) (*entity.Raster, []entity.StrategyOutcome, error) {
	outcomes := make([]entity.StrategyOutcome, 0, len(c.strategies))

	for _, s := range c.strategies {
		if s.Name() == "externaltool" && c.prober != nil && !c.prober.Available(ctx) {
			outcomes = append(outcomes, entity.StrategyOutcome{
				Strategy: s.Name(),
				Err:      "external converter unavailable",
			})
			continue
		}

		start := time.Now()
		raster, err := s.RenderPage(ctx, data, page, dpi)
		elapsed := time.Since(start)

		if err == nil && raster == nil {
			err = fmt.Errorf("strategy %s returned no raster", s.Name())
		}
		if err == nil {
			err = c.validate(raster, s.Name(), page)
		}
		if err != nil {
			outcomes = append(outcomes, entity.StrategyOutcome{
				Strategy: s.Name(),
				Elapsed:  elapsed,
				Err:      err.Error(),
			})
			c.logger.Warn("strategy failed",
				"strategy", s.Name(), "page", page+1,
				"duration_ms", elapsed.Milliseconds(), "error", err)
			continue
		}

		outcomes = append(outcomes, entity.StrategyOutcome{
			Strategy: s.Name(),
			Success:  true,
			Elapsed:  elapsed,
			Bytes:    len(raster.Data),
		})
		c.logger.Debug("strategy succeeded",
			"strategy", s.Name(), "page", page+1,
			"duration_ms", elapsed.Milliseconds(), "bytes", len(raster.Data))
		return raster, outcomes, nil
	}

	c.logger.Error("every rendering strategy failed, including the minimal placeholder",
		"page", page+1, "attempts", len(outcomes))
	return nil, outcomes, fmt.Errorf("%w: page %d", common.ErrAllStrategiesExhausted, page+1)
}

// validate enforces the format-header check and logs sub-threshold results
// as suspect without rejecting them: legibility is best effort at the lower
// tiers.
func (c *Chain) validate(r *entity.Raster, strategy string, page int) error {
	format, err := DetectFormat(r.Data)
	if err != nil {
		return err
	}
	r.Format = format

	if len(r.Data) < c.minBytes {
		c.logger.Warn("raster below minimum size, accepting as suspect",
			"strategy", strategy, "page", page+1,
			"bytes", len(r.Data), "min_bytes", c.minBytes)
	}
	return nil
}

// FallbackChain returns a chain holding only the synthetic tiers, used for
// the best-effort placeholder pass after a rendering-environment failure.
func FallbackChain(quality, minBytes int, logger *slog.Logger) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return NewChainWith([]Strategy{
		NewSyntheticLayout(quality, logger),
		NewMinimalPlaceholder(quality, logger),
	}, nil, minBytes, logger)
}
