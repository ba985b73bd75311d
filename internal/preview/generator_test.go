package preview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"
	"sync"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kibirigec/mjkprints-sub000/constants"
	"github.com/kibirigec/mjkprints-sub000/internal/entity"
)

type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	failKey string
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (f *fakeStore) Download(_ context.Context, path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[path]
	if !ok {
		return nil, errors.New("no such object")
	}
	return data, nil
}

func (f *fakeStore) Upload(_ context.Context, data []byte, path, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failKey != "" && strings.Contains(path, f.failKey) {
		return "", fmt.Errorf("simulated upload failure for %s", path)
	}
	f.objects[path] = data
	return path, nil
}

type fakeChain struct {
	calls     int
	err       error
	synthetic bool
}

func (f *fakeChain) RenderPage(_ context.Context, _ []byte, page, _ int) (*entity.Raster, []entity.StrategyOutcome, error) {
	f.calls++
	if f.err != nil {
		return nil, nil, f.err
	}
	data := encodeTestJPEG(40, 52)
	return &entity.Raster{Data: data, Format: entity.RasterJPEG, Synthetic: f.synthetic},
		[]entity.StrategyOutcome{{Strategy: "fitz", Success: true, Bytes: len(data)}}, nil
}

func encodeTestJPEG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 5), G: uint8(y * 4), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func pageOneRaster() *entity.Raster {
	return &entity.Raster{Data: encodeTestJPEG(1000, 1294), Format: entity.RasterJPEG}
}

func TestGenerateProducesThreePreviewsAndThumbnails(t *testing.T) {
	store := newFakeStore()
	chain := &fakeChain{}
	g := NewGenerator(store, chain, 85, 72, nil)
	id := uuid.New()

	res, err := g.Generate(context.Background(), id, []byte("doc"), pageOneRaster(), 3)
	require.NoError(t, err)

	require.Len(t, res.Previews, 3)
	for _, size := range constants.PreviewSizes {
		key, ok := res.Previews[size]
		require.True(t, ok, "missing %s preview", size)
		assert.Contains(t, key, id.String())
		assert.NotEmpty(t, store.objects[key])
	}

	require.Len(t, res.Thumbnails, 3)
	assert.Equal(t, 3, chain.calls, "one chain render per page")
	for i, th := range res.Thumbnails {
		assert.Equal(t, i+1, th.Page)
		assert.NotEmpty(t, store.objects[th.Path])
	}
	assert.False(t, res.Degraded)
}

func TestGenerateSyntheticPageRasterIsDegraded(t *testing.T) {
	store := newFakeStore()
	g := NewGenerator(store, &fakeChain{}, 85, 72, nil)

	synthetic := pageOneRaster()
	synthetic.Synthetic = true
	res, err := g.Generate(context.Background(), uuid.New(), []byte("doc"), synthetic, 1)
	require.NoError(t, err)
	assert.True(t, res.Degraded)
}

func TestGenerateSyntheticThumbnailsAreDegraded(t *testing.T) {
	store := newFakeStore()
	g := NewGenerator(store, &fakeChain{synthetic: true}, 85, 72, nil)

	res, err := g.Generate(context.Background(), uuid.New(), []byte("doc"), pageOneRaster(), 2)
	require.NoError(t, err)
	assert.True(t, res.Degraded)
}

func TestGenerateCapsThumbnailsAtFive(t *testing.T) {
	store := newFakeStore()
	chain := &fakeChain{}
	g := NewGenerator(store, chain, 85, 72, nil)

	res, err := g.Generate(context.Background(), uuid.New(), []byte("doc"), pageOneRaster(), 12)
	require.NoError(t, err)
	assert.Len(t, res.Thumbnails, 5)
	assert.Equal(t, 5, chain.calls)
}

func TestGenerateNeverUpscales(t *testing.T) {
	store := newFakeStore()
	g := NewGenerator(store, &fakeChain{}, 85, 72, nil)
	id := uuid.New()

	// a tiny source stays tiny in every size
	tiny := &entity.Raster{Data: encodeTestJPEG(50, 64), Format: entity.RasterJPEG}
	res, err := g.Generate(context.Background(), id, []byte("doc"), tiny, 1)
	require.NoError(t, err)

	for _, size := range constants.PreviewSizes {
		img, err := imaging.Decode(bytes.NewReader(store.objects[res.Previews[size]]))
		require.NoError(t, err)
		assert.Equal(t, 50, img.Bounds().Dx(), "%s preview must not be upscaled", size)
	}
}

func TestGenerateLargePreviewFitsBounds(t *testing.T) {
	store := newFakeStore()
	g := NewGenerator(store, &fakeChain{}, 85, 72, nil)

	res, err := g.Generate(context.Background(), uuid.New(), []byte("doc"), pageOneRaster(), 1)
	require.NoError(t, err)

	img, err := imaging.Decode(bytes.NewReader(store.objects[res.Previews[constants.PreviewLarge]]))
	require.NoError(t, err)
	assert.LessOrEqual(t, img.Bounds().Dx(), 800)
	assert.LessOrEqual(t, img.Bounds().Dy(), 1132)
}

func TestGenerateUploadFailureIsFatal(t *testing.T) {
	store := newFakeStore()
	store.failKey = "medium"
	g := NewGenerator(store, &fakeChain{}, 85, 72, nil)

	_, err := g.Generate(context.Background(), uuid.New(), []byte("doc"), pageOneRaster(), 2)
	require.Error(t, err)
}

func TestGenerateThumbnailRenderFailureIsFatal(t *testing.T) {
	store := newFakeStore()
	chain := &fakeChain{err: errors.New("chain exhausted")}
	g := NewGenerator(store, chain, 85, 72, nil)

	_, err := g.Generate(context.Background(), uuid.New(), []byte("doc"), pageOneRaster(), 2)
	assert.ErrorContains(t, err, "thumbnail page 1")
}

func TestDeterministicKeys(t *testing.T) {
	id := uuid.MustParse("6b4a73c2-0000-4000-8000-000000000001")
	assert.Equal(t,
		"previews/6b4a73c2-0000-4000-8000-000000000001/small.jpg",
		previewKey(id, constants.PreviewSmall))
	assert.Equal(t,
		"previews/6b4a73c2-0000-4000-8000-000000000001/thumbs/page-3.jpg",
		thumbnailKey(id, 3))
}
