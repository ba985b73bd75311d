package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/kibirigec/mjkprints-sub000/constants"
)

// Upload represents one submitted document and its processing state, for
// data transfer between layers. The record itself is created by the upload
// flow before this pipeline ever runs; the pipeline only transitions its
// status and writes derived fields.
type Upload struct {
	ID         uuid.UUID                  `json:"id"`
	Filename   string                     `json:"filename"`
	FileSize   int64                      `json:"file_size"`
	SourcePath string                     `json:"source_path"`
	Status     constants.ProcessingStatus `json:"processing_status"`

	PageCount  int                              `json:"page_count"`
	Dimensions Dimensions                       `json:"dimensions"`
	Previews   map[constants.PreviewSize]string `json:"preview_paths"`
	Thumbnails []PageThumbnail                  `json:"thumbnail_paths"`
	Metadata   DocumentMetadata                 `json:"metadata"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Dimensions is the native size of the first page, in PDF points.
type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// AspectRatio returns width/height, or 0 for a degenerate height.
func (d Dimensions) AspectRatio() float64 {
	if d.Height == 0 {
		return 0
	}
	return d.Width / d.Height
}

// PageThumbnail links a page number to its stored thumbnail.
type PageThumbnail struct {
	Page int    `json:"page"`
	Path string `json:"path"`
}

// DocumentMetadata holds descriptive facts extracted from the document plus
// processing provenance.
type DocumentMetadata struct {
	Title         string    `json:"title,omitempty"`
	Author        string    `json:"author,omitempty"`
	Creator       string    `json:"creator,omitempty"`
	Producer      string    `json:"producer,omitempty"`
	Subject       string    `json:"subject,omitempty"`
	Keywords      string    `json:"keywords,omitempty"`
	CreatedAt     string    `json:"created_at,omitempty"`
	Excerpt       string    `json:"text_excerpt,omitempty"`
	ProcessedAt   time.Time `json:"processed_at,omitempty"`
	Strategy      string    `json:"strategy,omitempty"`
	FallbackUsed  bool      `json:"fallback_used,omitempty"`
	FailureDetail string    `json:"failure_detail,omitempty"`
}

// UploadResults is the derived-field set written atomically (from the
// pipeline's point of view) when a run completes.
type UploadResults struct {
	PageCount  int
	Dimensions Dimensions
	Previews   map[constants.PreviewSize]string
	Thumbnails []PageThumbnail
	Metadata   DocumentMetadata
}

// FailureDetail is the structured payload persisted on a failed run.
type FailureDetail struct {
	Class    string    `json:"error_class"`
	Message  string    `json:"message"`
	FailedAt time.Time `json:"failed_at"`
}
