package canvas

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSurfaceIsWhite(t *testing.T) {
	s := NewSurface(20, 10, nil)
	img := s.Image()
	require.Equal(t, image.Rect(0, 0, 20, 10), img.Bounds())

	r, g, b, a := img.At(5, 5).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, uint32(0xffff), g)
	assert.Equal(t, uint32(0xffff), b)
	assert.Equal(t, uint32(0xffff), a)
}

func TestFillRectPaintsPixels(t *testing.T) {
	s := NewSurface(40, 40, nil)
	ctx := s.Context()
	ctx.SetFillColor(color.RGBA{R: 255, A: 255})
	ctx.FillRect(10, 10, 20, 20)

	r, _, _, _ := s.Image().At(20, 20).RGBA()
	assert.Equal(t, uint32(0xffff), r)

	// outside the rect stays white
	_, g, _, _ := s.Image().At(2, 2).RGBA()
	assert.Equal(t, uint32(0xffff), g)
}

func TestFillPath(t *testing.T) {
	s := NewSurface(50, 50, nil)
	ctx := s.Context()
	ctx.SetFillColor(color.Black)
	ctx.BeginPath()
	ctx.MoveTo(5, 5)
	ctx.LineTo(45, 5)
	ctx.LineTo(45, 45)
	ctx.LineTo(5, 45)
	ctx.ClosePath()
	ctx.Fill()

	r, g, b, _ := s.Image().At(25, 25).RGBA()
	assert.Zero(t, r)
	assert.Zero(t, g)
	assert.Zero(t, b)
}

func TestStrokeDrawsLine(t *testing.T) {
	s := NewSurface(50, 50, nil)
	ctx := s.Context()
	ctx.SetStrokeColor(color.Black)
	ctx.SetLineWidth(4)
	ctx.BeginPath()
	ctx.MoveTo(5, 25)
	ctx.LineTo(45, 25)
	ctx.Stroke()

	r, _, _, _ := s.Image().At(25, 25).RGBA()
	assert.Less(t, r, uint32(0x8000), "stroked pixel should be dark")

	// well away from the line stays white
	r2, _, _, _ := s.Image().At(25, 5).RGBA()
	assert.Equal(t, uint32(0xffff), r2)
}

func TestSaveRestoreNesting(t *testing.T) {
	s := NewSurface(10, 10, nil)
	ctx := s.Context()

	ctx.SetFillColor(color.Black)
	ctx.Save()
	ctx.SetFillColor(color.White)
	ctx.Save()
	ctx.Translate(3, 3)
	ctx.Restore()
	ctx.Restore()

	assert.Equal(t, color.Color(color.Black), ctx.state.fill)
	assert.Zero(t, ctx.state.tx)
	assert.Zero(t, ctx.state.ty)
}

func TestUnbalancedRestoreIsAbsorbed(t *testing.T) {
	s := NewSurface(10, 10, nil)
	ctx := s.Context()
	ctx.Restore()
	ctx.Restore()
	assert.Equal(t, 2, ctx.DroppedOps())
}

func TestTransformAppliesToPath(t *testing.T) {
	s := NewSurface(40, 40, nil)
	ctx := s.Context()
	ctx.SetFillColor(color.Black)
	ctx.Save()
	ctx.Translate(20, 20)
	ctx.FillRect(0, 0, 10, 10)
	ctx.Restore()

	r, _, _, _ := s.Image().At(25, 25).RGBA()
	assert.Zero(t, r, "translated rect should cover (25,25)")
	r2, _, _, _ := s.Image().At(5, 5).RGBA()
	assert.Equal(t, uint32(0xffff), r2, "origin should be untouched")
}

func TestDrawImageComposites(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			src.Set(x, y, color.RGBA{B: 255, A: 255})
		}
	}

	s := NewSurface(20, 20, nil)
	ctx := s.Context()
	ctx.DrawImage(src, 4, 4, 12, 12)

	_, _, b, _ := s.Image().At(10, 10).RGBA()
	assert.Equal(t, uint32(0xffff), b)
	assert.Zero(t, ctx.DroppedOps())
}

func TestDrawImageNilIsDroppedNotFatal(t *testing.T) {
	s := NewSurface(10, 10, nil)
	ctx := s.Context()

	assert.NotPanics(t, func() {
		ctx.DrawImage(nil, 0, 0, 5, 5)
	})
	assert.Equal(t, 1, ctx.DroppedOps())
}

func TestPixelRegionRoundTrip(t *testing.T) {
	s := NewSurface(16, 16, nil)
	ctx := s.Context()
	ctx.SetFillColor(color.Black)
	ctx.FillRect(0, 0, 8, 8)

	region := ctx.PixelRegion(image.Rect(0, 0, 8, 8))
	require.Equal(t, image.Rect(0, 0, 8, 8), region.Bounds())

	ctx.SetPixelRegion(region, image.Point{X: 8, Y: 8})
	r, _, _, _ := s.Image().At(12, 12).RGBA()
	assert.Zero(t, r)
}

func TestMeasureStringNonZero(t *testing.T) {
	s := NewSurface(100, 30, nil)
	ctx := s.Context()
	w, h := ctx.MeasureString("document content")
	assert.Greater(t, w, 0.0)
	assert.Greater(t, h, 0.0)
}

func TestDrawStringMarksPixels(t *testing.T) {
	s := NewSurface(120, 30, nil)
	ctx := s.Context()
	ctx.SetFillColor(color.Black)
	ctx.DrawString("MM", 5, 20)

	dark := 0
	img := s.Image()
	for y := 0; y < 30; y++ {
		for x := 0; x < 120; x++ {
			r, _, _, _ := img.At(x, y).RGBA()
			if r < 0x8000 {
				dark++
			}
		}
	}
	assert.Greater(t, dark, 5, "glyphs should paint some dark pixels")
}
