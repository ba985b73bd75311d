package render

import (
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// Prober detects whether the external raster converter is installed and
// functional. Absence is never fatal: it only narrows the strategy chain.
// The probe result is cached for the process lifetime.
type Prober struct {
	runner  Runner
	binary  string
	timeout time.Duration
	logger  *slog.Logger

	once      sync.Once
	available bool
}

func NewProber(runner Runner, binary string, timeout time.Duration, logger *slog.Logger) *Prober {
	if binary == "" {
		binary = "pdftoppm"
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Prober{runner: runner, binary: binary, timeout: timeout, logger: logger}
}

// Available reports whether the converter answered a version probe.
func (p *Prober) Available(ctx context.Context) bool {
	p.once.Do(func() {
		probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()

		out, errb, err := p.runner.Run(probeCtx, p.binary, "-v")
		combined := strings.ToLower(string(out) + string(errb))

		switch {
		case err == nil:
			p.available = true
		case errors.Is(err, exec.ErrNotFound):
			p.available = false
		case strings.Contains(combined, "pdftoppm version"):
			// poppler tools exit non-zero on -v but still print a banner
			p.available = true
		default:
			p.available = false
		}

		if p.available {
			p.logger.Info("external converter available", "binary", p.binary)
		} else {
			p.logger.Warn("external converter unavailable, in-process strategies only",
				"binary", p.binary, "error", err)
		}
	})
	return p.available
}
