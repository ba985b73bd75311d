package render

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kibirigec/mjkprints-sub000/internal/common"
	"github.com/kibirigec/mjkprints-sub000/internal/entity"
)

type stubStrategy struct {
	name   string
	raster *entity.Raster
	err    error
	calls  int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) RenderPage(_ context.Context, _ []byte, _, _ int) (*entity.Raster, error) {
	s.calls++
	return s.raster, s.err
}

func jpegRaster(size int) *entity.Raster {
	data := make([]byte, size)
	copy(data, []byte{0xFF, 0xD8, 0xFF})
	return &entity.Raster{Data: data, Format: entity.RasterJPEG}
}

func TestChainStopsAtFirstSuccess(t *testing.T) {
	first := &stubStrategy{name: "a", raster: jpegRaster(4096)}
	second := &stubStrategy{name: "b", raster: jpegRaster(4096)}
	chain := NewChainWith([]Strategy{first, second}, nil, 1024, nil)

	raster, outcomes, err := chain.RenderPage(context.Background(), nil, 0, 150)
	require.NoError(t, err)
	require.NotNil(t, raster)

	assert.Equal(t, 1, first.calls)
	assert.Zero(t, second.calls, "later strategies must not run after a success")
	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Success)
	assert.Equal(t, "a", outcomes[0].Strategy)
}

func TestChainFallsThroughOnError(t *testing.T) {
	first := &stubStrategy{name: "a", err: errors.New("boom")}
	second := &stubStrategy{name: "b", raster: jpegRaster(4096)}
	chain := NewChainWith([]Strategy{first, second}, nil, 1024, nil)

	raster, outcomes, err := chain.RenderPage(context.Background(), nil, 0, 150)
	require.NoError(t, err)
	require.NotNil(t, raster)

	require.Len(t, outcomes, 2)
	assert.False(t, outcomes[0].Success)
	assert.Contains(t, outcomes[0].Err, "boom")
	assert.True(t, outcomes[1].Success)
}

func TestChainRejectsBadHeader(t *testing.T) {
	corrupt := &stubStrategy{name: "a", raster: &entity.Raster{Data: []byte("not an image at all")}}
	good := &stubStrategy{name: "b", raster: jpegRaster(4096)}
	chain := NewChainWith([]Strategy{corrupt, good}, nil, 1024, nil)

	raster, outcomes, err := chain.RenderPage(context.Background(), nil, 0, 150)
	require.NoError(t, err)
	assert.Equal(t, entity.RasterJPEG, raster.Format)
	assert.False(t, outcomes[0].Success, "non-image output must fall through")
}

func TestChainAcceptsSuspectSmallResult(t *testing.T) {
	small := &stubStrategy{name: "a", raster: jpegRaster(64)}
	chain := NewChainWith([]Strategy{small}, nil, 1024, nil)

	raster, _, err := chain.RenderPage(context.Background(), nil, 0, 150)
	require.NoError(t, err)
	assert.Len(t, raster.Data, 64)
}

func TestChainNilRasterFallsThrough(t *testing.T) {
	broken := &stubStrategy{name: "a"} // nil raster, nil error
	good := &stubStrategy{name: "b", raster: jpegRaster(4096)}
	chain := NewChainWith([]Strategy{broken, good}, nil, 1024, nil)

	raster, outcomes, err := chain.RenderPage(context.Background(), nil, 0, 150)
	require.NoError(t, err)
	require.NotNil(t, raster)

	require.Len(t, outcomes, 2)
	assert.False(t, outcomes[0].Success)
	assert.Contains(t, outcomes[0].Err, "no raster")
	assert.True(t, outcomes[1].Success)
}

func TestChainSyntheticWinIsMarkedDegraded(t *testing.T) {
	// a broken rendering environment: the library tiers fail, the synthetic
	// tiers take over and the result must say so
	brokenFitz := &stubStrategy{name: "fitz",
		err: fmt.Errorf("%w: open document: library init", common.ErrRenderingUnavailable)}
	chain := NewChainWith([]Strategy{
		brokenFitz,
		NewSyntheticLayout(85, nil),
		NewMinimalPlaceholder(85, nil),
	}, nil, 1024, nil)

	raster, outcomes, err := chain.RenderPage(context.Background(), nil, 0, 72)
	require.NoError(t, err)
	require.NotNil(t, raster)

	assert.True(t, raster.Synthetic, "placeholder win must be marked synthetic")
	require.Len(t, outcomes, 2)
	assert.Equal(t, "synthetic", outcomes[1].Strategy)
	assert.True(t, outcomes[1].Success)
}

func TestChainLibraryWinIsNotDegraded(t *testing.T) {
	real := &stubStrategy{name: "fitz", raster: jpegRaster(4096)}
	chain := NewChainWith([]Strategy{real, NewSyntheticLayout(85, nil)}, nil, 1024, nil)

	raster, _, err := chain.RenderPage(context.Background(), nil, 0, 72)
	require.NoError(t, err)
	assert.False(t, raster.Synthetic)
}

func TestChainExhaustedIsTerminal(t *testing.T) {
	a := &stubStrategy{name: "a", err: errors.New("a failed")}
	b := &stubStrategy{name: "b", err: errors.New("b failed")}
	chain := NewChainWith([]Strategy{a, b}, nil, 1024, nil)

	_, outcomes, err := chain.RenderPage(context.Background(), nil, 0, 150)
	assert.ErrorIs(t, err, common.ErrAllStrategiesExhausted)
	assert.Len(t, outcomes, 2)
}

func TestChainSkipsExternalWhenUnavailable(t *testing.T) {
	runner := &fakeRunner{err: errNotFound()}
	prober := NewProber(runner, "pdftoppm", 0, nil)

	external := &stubStrategy{name: "externaltool", raster: jpegRaster(4096)}
	inProcess := &stubStrategy{name: "b", raster: jpegRaster(4096)}
	chain := NewChainWith([]Strategy{external, inProcess}, prober, 1024, nil)

	raster, outcomes, err := chain.RenderPage(context.Background(), nil, 0, 150)
	require.NoError(t, err)
	require.NotNil(t, raster)

	assert.Zero(t, external.calls, "external strategy must be skipped, not attempted")
	require.Len(t, outcomes, 2)
	assert.Contains(t, outcomes[0].Err, "unavailable")
	assert.Equal(t, 1, inProcess.calls)
}

func TestSyntheticLayoutProducesValidJPEG(t *testing.T) {
	s := NewSyntheticLayout(85, nil)
	raster, err := s.RenderPage(context.Background(), nil, 2, 72)
	require.NoError(t, err)

	format, err := DetectFormat(raster.Data)
	require.NoError(t, err)
	assert.Equal(t, entity.RasterJPEG, format)
	assert.Equal(t, 612, raster.Width)
	assert.Equal(t, 792, raster.Height)
	assert.True(t, raster.Synthetic)
}

func TestMinimalPlaceholderAlwaysSucceeds(t *testing.T) {
	m := NewMinimalPlaceholder(85, nil)
	raster, err := m.RenderPage(context.Background(), nil, 0, 150)
	require.NoError(t, err)

	format, err := DetectFormat(raster.Data)
	require.NoError(t, err)
	assert.Equal(t, entity.RasterJPEG, format)
	assert.Equal(t, 64, raster.Width)
	assert.True(t, raster.Synthetic)
}

func TestDetectFormat(t *testing.T) {
	_, err := DetectFormat([]byte{0x00, 0x01})
	assert.Error(t, err)

	f, err := DetectFormat([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00})
	require.NoError(t, err)
	assert.Equal(t, entity.RasterJPEG, f)

	f, err = DetectFormat([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A})
	require.NoError(t, err)
	assert.Equal(t, entity.RasterPNG, f)
}
