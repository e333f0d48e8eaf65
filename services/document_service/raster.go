package document_service

import (
	"fmt"
	"log/slog"

	"github.com/gen2brain/go-fitz"
)

// baseDPI is the PDF point resolution; the configured scale factor is
// applied on top of it when rendering.
const baseDPI = 72

// Rasterizer converts PDF pages into PNG images for the vision fallback
// path. Output is capped at the first maxPages pages regardless of document
// length, bounding request size against provider limits.
type Rasterizer struct {
	maxPages int
	scale    float64
	logger   *slog.Logger
}

func NewRasterizer(maxPages int, scale float64, logger *slog.Logger) *Rasterizer {
	return &Rasterizer{
		maxPages: maxPages,
		scale:    scale,
		logger:   logger,
	}
}

// RenderPages renders the first pages of the document as PNG images in page
// order. Rasterization is atomic: failure on any page fails the whole call,
// partial image sets are never returned.
func (r *Rasterizer) RenderPages(data []byte) ([][]byte, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		r.logger.Error("Failed to open PDF for rasterization",
			slog.String("error", err.Error()),
			slog.Int("data_size", len(data)))
		return nil, &ExtractionError{Format: FormatPDF, Err: fmt.Errorf("failed to open PDF for rasterization: %w", err)}
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	if pageCount > r.maxPages {
		r.logger.Info("Capping rasterization to page limit",
			slog.Int("page_count", pageCount),
			slog.Int("max_pages", r.maxPages))
		pageCount = r.maxPages
	}

	dpi := baseDPI * r.scale
	pages := make([][]byte, 0, pageCount)
	for i := 0; i < pageCount; i++ {
		img, err := doc.ImagePNG(i, dpi)
		if err != nil {
			r.logger.Error("Failed to render PDF page",
				slog.Int("page_number", i+1),
				slog.String("error", err.Error()))
			return nil, &ExtractionError{
				Format: FormatPDF,
				Err:    fmt.Errorf("failed to render page %d: %w", i+1, err),
			}
		}
		pages = append(pages, img)
	}

	r.logger.Info("Rasterized PDF pages",
		slog.Int("rendered_pages", len(pages)),
		slog.Float64("dpi", dpi))

	return pages, nil
}
