package entity

import "time"

// RasterFormat is the encoding of an accepted raster candidate.
type RasterFormat string

const (
	RasterJPEG RasterFormat = "jpeg"
	RasterPNG  RasterFormat = "png"
)

// ContentType returns the MIME type for the encoding.
func (f RasterFormat) ContentType() string {
	if f == RasterPNG {
		return "image/png"
	}
	return "image/jpeg"
}

// Raster is an encoded bitmap produced by a rendering strategy. Candidates
// are validated against magic bytes and a minimum size before acceptance.
// Synthetic marks output drawn without consulting the document; placeholder
// tiers set it so a degraded completion can be surfaced to the caller.
type Raster struct {
	Data      []byte
	Format    RasterFormat
	Width     int
	Height    int
	Synthetic bool
}

// StrategyOutcome records one strategy attempt. Outcomes are aggregated for
// diagnostics only and never persisted individually.
type StrategyOutcome struct {
	Strategy string
	Success  bool
	Elapsed  time.Duration
	Bytes    int
	Err      string
}

// ProcessingResult is the structured result returned to the caller.
type ProcessingResult struct {
	Success bool       `json:"success"`
	File    ResultFile `json:"file"`
	Warning string     `json:"warning,omitempty"`
}

// ResultFile is the file view inside a ProcessingResult.
type ResultFile struct {
	ID               string            `json:"id"`
	PageCount        int               `json:"pageCount"`
	Dimensions       Dimensions        `json:"dimensions"`
	PreviewURLs      map[string]string `json:"previewUrls"`
	ThumbnailURLs    []PageThumbnail   `json:"thumbnailUrls"`
	ProcessingStatus string            `json:"processingStatus"`
	Metadata         DocumentMetadata  `json:"metadata"`
}
