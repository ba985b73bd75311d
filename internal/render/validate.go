package render

import (
	"bytes"
	"fmt"

	"github.com/kibirigec/mjkprints-sub000/internal/entity"
)

var (
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
	pngMagic  = []byte{0x89, 0x50, 0x4E, 0x47}
)

// DetectFormat checks the format header of an encoded raster. Every raster
// candidate must pass this check before the chain accepts it.
func DetectFormat(data []byte) (entity.RasterFormat, error) {
	switch {
	case bytes.HasPrefix(data, jpegMagic):
		return entity.RasterJPEG, nil
	case bytes.HasPrefix(data, pngMagic):
		return entity.RasterPNG, nil
	default:
		return "", fmt.Errorf("raster has no recognized format header (%d bytes)", len(data))
	}
}
