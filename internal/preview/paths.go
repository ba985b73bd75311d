package preview

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/kibirigec/mjkprints-sub000/constants"
)

// Object keys are deterministic functions of the upload identifier, role and
// page number, so reprocessing overwrites rather than accumulates.

func previewKey(uploadID uuid.UUID, size constants.PreviewSize) string {
	return fmt.Sprintf("previews/%s/%s.jpg", uploadID, size)
}

func thumbnailKey(uploadID uuid.UUID, page int) string {
	return fmt.Sprintf("previews/%s/thumbs/page-%d.jpg", uploadID, page)
}
