package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kibirigec/mjkprints-sub000/internal/entity"
)

// ExternalTool converts a page by invoking the external raster converter in
// a bounded-timeout subprocess. Temporary input/output files live in a
// uniquely named directory per invocation and are removed on every exit
// path, including timeout and panic, via the deferred cleanup.
type ExternalTool struct {
	runner  Runner
	binary  string
	timeout time.Duration
	quality int
	logger  *slog.Logger
}

func NewExternalTool(runner Runner, binary string, timeout time.Duration, quality int, logger *slog.Logger) *ExternalTool {
	if binary == "" {
		binary = "pdftoppm"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if quality <= 0 || quality > 100 {
		quality = 85
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExternalTool{runner: runner, binary: binary, timeout: timeout, quality: quality, logger: logger}
}

func (e *ExternalTool) Name() string { return "externaltool" }

// RenderPage rasterizes one page (0-based) at the given density.
func (e *ExternalTool) RenderPage(ctx context.Context, data []byte, page, dpi int) (raster *entity.Raster, err error) {
	tmpDir, err := os.MkdirTemp("", "preview-"+uuid.NewString()[:8]+"-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			e.logger.Warn("failed to remove temp dir", "path", tmpDir, "error", rmErr)
		}
		if r := recover(); r != nil {
			err = fmt.Errorf("external conversion panicked: %v", r)
		}
	}()

	inPath := filepath.Join(tmpDir, "in.pdf")
	if err := os.WriteFile(inPath, data, 0o600); err != nil {
		return nil, fmt.Errorf("write temp input: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	pageArg := fmt.Sprintf("%d", page+1)
	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -jpeg -r <dpi> -f <p> -l <p> -jpegopt quality=<q> in.pdf page
	_, errb, err := e.runner.Run(runCtx, e.binary,
		"-jpeg",
		"-r", fmt.Sprintf("%d", dpi),
		"-f", pageArg,
		"-l", pageArg,
		"-jpegopt", fmt.Sprintf("quality=%d", e.quality),
		inPath, prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("converter failed: %w (stderr: %s)", err, truncate(string(errb), 512))
	}

	// output suffix padding depends on the document's page count, so glob
	matches, _ := filepath.Glob(prefix + "-*.jpg")
	sort.Strings(matches)
	if len(matches) == 0 {
		return nil, fmt.Errorf("converter produced no output for page %d", page+1)
	}

	out, err := os.ReadFile(matches[0])
	if err != nil {
		return nil, fmt.Errorf("read converter output: %w", err)
	}
	return &entity.Raster{Data: out, Format: entity.RasterJPEG}, nil
}
