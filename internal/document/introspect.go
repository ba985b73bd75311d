package document

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/kibirigec/mjkprints-sub000/constants"
	"github.com/kibirigec/mjkprints-sub000/internal/common"
	"github.com/kibirigec/mjkprints-sub000/internal/entity"
)

// Introspector extracts structural and descriptive facts from a raw PDF
// buffer. All methods are pure functions of the input and safely retryable.
type Introspector struct {
	logger *slog.Logger
}

func NewIntrospector(logger *slog.Logger) *Introspector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Introspector{logger: logger}
}

func relaxedConf() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// ExtractMetadata returns descriptive metadata and the page count.
// Structure (page count) comes from pdfcpu and is authoritative: when it
// cannot parse the buffer the document is invalid. Descriptive fields and
// the text excerpt come from the rendering library and are best effort — a
// failure there degrades to empty fields rather than an error.
func (in *Introspector) ExtractMetadata(data []byte) (*entity.DocumentMetadata, int, error) {
	if len(data) == 0 {
		return nil, 0, fmt.Errorf("%w: empty buffer", common.ErrInvalidDocument)
	}

	pageCount, err := api.PageCount(bytes.NewReader(data), relaxedConf())
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", common.ErrInvalidDocument, err)
	}
	if pageCount < 1 {
		return nil, 0, fmt.Errorf("%w: document has no pages", common.ErrInvalidDocument)
	}

	md := &entity.DocumentMetadata{}
	in.fillDescriptive(data, md)
	return md, pageCount, nil
}

// fillDescriptive populates title/author/excerpt fields via the rendering
// library, swallowing failures: metadata must not block dimension discovery
// or rendering.
func (in *Introspector) fillDescriptive(data []byte, md *entity.DocumentMetadata) {
	defer func() {
		if r := recover(); r != nil {
			in.logger.Warn("descriptive metadata extraction panicked", "panic", r)
		}
	}()

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		in.logger.Warn("descriptive metadata unavailable", "error", err)
		return
	}
	defer doc.Close()

	meta := doc.Metadata()
	md.Title = strings.TrimSpace(meta["title"])
	md.Author = strings.TrimSpace(meta["author"])
	md.Creator = strings.TrimSpace(meta["creator"])
	md.Producer = strings.TrimSpace(meta["producer"])
	md.Subject = strings.TrimSpace(meta["subject"])
	md.Keywords = strings.TrimSpace(meta["keywords"])
	md.CreatedAt = strings.TrimSpace(meta["creationDate"])

	text, err := doc.Text(0)
	if err != nil {
		in.logger.Debug("leading text extraction failed", "error", err)
		return
	}
	md.Excerpt = truncateText(text, constants.ExcerptLimit)
}

// FirstPageDimensions returns the native size of page 1 in PDF points. It is
// independent of metadata extraction so a failure in one never blocks the
// other.
func (in *Introspector) FirstPageDimensions(data []byte) (entity.Dimensions, error) {
	if len(data) == 0 {
		return entity.Dimensions{}, fmt.Errorf("%w: empty buffer", common.ErrInvalidDocument)
	}

	dims, err := api.PageDims(bytes.NewReader(data), relaxedConf())
	if err != nil {
		return entity.Dimensions{}, fmt.Errorf("%w: %v", common.ErrInvalidDocument, err)
	}
	if len(dims) == 0 {
		return entity.Dimensions{}, fmt.Errorf("%w: no page dimensions", common.ErrInvalidDocument)
	}
	return entity.Dimensions{Width: dims[0].Width, Height: dims[0].Height}, nil
}

// truncateText bounds s to limit bytes without splitting a rune, collapsing
// leading whitespace. Pathological inputs stay bounded in memory.
func truncateText(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}
	cut := s[:limit]
	for !utf8.ValidString(cut) && len(cut) > 0 {
		cut = cut[:len(cut)-1]
	}
	return cut
}
