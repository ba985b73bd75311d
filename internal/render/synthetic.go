package render

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"

	"github.com/kibirigec/mjkprints-sub000/internal/canvas"
	"github.com/kibirigec/mjkprints-sub000/internal/entity"
)

// SyntheticLayout bypasses the rendering library entirely and draws a
// document-shaped placeholder: border, ruled lines suggesting text, and the
// page number, proportional to a standard page at the requested density.
type SyntheticLayout struct {
	quality int
	logger  *slog.Logger
}

func NewSyntheticLayout(quality int, logger *slog.Logger) *SyntheticLayout {
	if quality <= 0 || quality > 100 {
		quality = 85
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SyntheticLayout{quality: quality, logger: logger}
}

func (s *SyntheticLayout) Name() string { return "synthetic" }

func (s *SyntheticLayout) RenderPage(ctx context.Context, _ []byte, page, dpi int) (raster *entity.Raster, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("synthetic render panicked: %v", r)
		}
	}()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w, h := pagePixels(dpi)
	surf := canvas.NewSurface(w, h, s.logger)
	c := surf.Context()

	fw, fh := float64(w), float64(h)
	margin := fw / 12

	c.SetFillColor(color.White)
	c.FillRect(0, 0, fw, fh)

	c.SetStrokeColor(color.RGBA{R: 0xD1, G: 0xD5, B: 0xDB, A: 0xFF})
	c.SetLineWidth(fw / 200)
	c.BeginPath()
	c.RectPath(margin/2, margin/2, fw-margin, fh-margin)
	c.Stroke()

	// ruled lines suggesting text, shorter last line per "paragraph"
	c.SetStrokeColor(color.RGBA{R: 0xE5, G: 0xE7, B: 0xEB, A: 0xFF})
	c.SetLineWidth(fh / 160)
	lineGap := fh / 24
	y := margin * 1.5
	for i := 0; y < fh-margin*1.5; i++ {
		endX := fw - margin
		if i%5 == 4 {
			endX = fw * 0.6
		}
		c.BeginPath()
		c.MoveTo(margin, y)
		c.LineTo(endX, y)
		c.Stroke()
		y += lineGap
	}

	c.SetFillColor(color.RGBA{R: 0x9C, G: 0xA3, B: 0xAF, A: 0xFF})
	c.DrawStringCentered(fmt.Sprintf("page %d", page+1), fw/2, fh-margin)

	raster, err = encodeJPEG(surf.Image(), s.quality)
	if raster != nil {
		raster.Synthetic = true
	}
	return raster, err
}

// MinimalPlaceholder is the last-resort strategy: the smallest valid raster.
// If even this throws, the whole pipeline fails terminally.
type MinimalPlaceholder struct {
	quality int
	logger  *slog.Logger
}

func NewMinimalPlaceholder(quality int, logger *slog.Logger) *MinimalPlaceholder {
	if quality <= 0 || quality > 100 {
		quality = 85
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MinimalPlaceholder{quality: quality, logger: logger}
}

func (m *MinimalPlaceholder) Name() string { return "placeholder" }

func (m *MinimalPlaceholder) RenderPage(ctx context.Context, _ []byte, _, _ int) (raster *entity.Raster, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("placeholder render panicked: %v", r)
		}
	}()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	surf := canvas.NewSurface(64, 64, m.logger)
	c := surf.Context()
	c.SetFillColor(color.RGBA{R: 0x93, G: 0xC5, B: 0xFD, A: 0xFF})
	c.FillRect(0, 0, 64, 64)

	raster, err = encodeJPEG(surf.Image(), m.quality)
	if raster != nil {
		raster.Synthetic = true
	}
	return raster, err
}
