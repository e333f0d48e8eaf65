package document_service

import "fmt"

// ExtractionError reports that a document could not be parsed by the
// extractor its format maps to. It is distinct from upstream model failures:
// callers surface it as a client-visible input error.
type ExtractionError struct {
	Format Format
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed for %s document: %v", e.Format, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// OversizedUploadError is returned before extraction begins when the upload
// exceeds the configured size ceiling.
type OversizedUploadError struct {
	SizeMB  float64
	LimitMB int
}

func (e *OversizedUploadError) Error() string {
	return fmt.Sprintf("Datei zu groß. Maximum: %dMB", e.LimitMB)
}
