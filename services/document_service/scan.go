package document_service

import (
	"regexp"
	"strings"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// IsScanned classifies a PDF as a scan (no usable text layer) based on its
// extracted text and page count. Scanned PDFs typically report pages but
// carry zero or near-zero extractable text, so a document averaging fewer
// than threshold characters per page is treated as scanned. Slide-style PDFs
// with very little text per page can misclassify; that is a known limitation
// of the heuristic, not a defect.
//
// A page count of zero is classified as scanned: a degenerate PDF is handled
// conservatively through the vision path. The threshold is exclusive, so an
// average of exactly threshold characters per page is not scanned.
func IsScanned(text string, pageCount int, threshold float64) bool {
	if pageCount == 0 {
		return true
	}

	cleanText := strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
	avgCharsPerPage := float64(len(cleanText)) / float64(pageCount)

	return avgCharsPerPage < threshold
}
