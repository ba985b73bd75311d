package constants

// PreviewSize names the three derived preview resolutions.
type PreviewSize string

const (
	PreviewSmall  PreviewSize = "small"
	PreviewMedium PreviewSize = "medium"
	PreviewLarge  PreviewSize = "large"
)

// PreviewSizes lists the sizes in ascending order; every completed upload
// carries exactly one path per entry.
var PreviewSizes = []PreviewSize{PreviewSmall, PreviewMedium, PreviewLarge}

// PreviewBounds holds the max width/height box for each size. Images are
// fitted inside the box preserving aspect ratio and are never upscaled.
var PreviewBounds = map[PreviewSize]struct{ Width, Height int }{
	PreviewSmall:  {200, 283},
	PreviewMedium: {400, 566},
	PreviewLarge:  {800, 1132},
}

const (
	// MaxThumbnails caps per-page thumbnails regardless of page count.
	MaxThumbnails = 5

	// JPEGQuality is the fixed encode quality for all derived images.
	JPEGQuality = 85

	// ExcerptLimit bounds the extracted leading-text excerpt in bytes.
	ExcerptLimit = 1000
)
