package document_service

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies which extraction strategy handles an uploaded document.
// The set is closed: every MIME type accepted by the upload boundary maps to
// exactly one variant, anything else is rejected up front.
type Format int

const (
	FormatPDF Format = iota
	FormatWord
	FormatSpreadsheet
	FormatPresentation
	FormatDelimitedText
	FormatPlainText
	FormatHTML
)

func (f Format) String() string {
	switch f {
	case FormatPDF:
		return "pdf"
	case FormatWord:
		return "word"
	case FormatSpreadsheet:
		return "spreadsheet"
	case FormatPresentation:
		return "presentation"
	case FormatDelimitedText:
		return "delimited_text"
	case FormatPlainText:
		return "plain_text"
	case FormatHTML:
		return "html"
	default:
		return "unknown"
	}
}

// UnsupportedFormatError is returned for MIME types outside the accepted set.
type UnsupportedFormatError struct {
	MimeType string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("nicht unterstützter Dateityp: %s", e.MimeType)
}

// Classify maps a declared MIME type to its extraction format. When the MIME
// type carries no useful information (empty or octet-stream), the filename
// extension decides instead.
func Classify(mimeType, filename string) (Format, error) {
	switch mimeType {
	case "application/pdf":
		return FormatPDF, nil
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/msword":
		return FormatWord, nil
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/vnd.ms-excel":
		return FormatSpreadsheet, nil
	case "application/vnd.openxmlformats-officedocument.presentationml.presentation":
		return FormatPresentation, nil
	case "text/csv":
		return FormatDelimitedText, nil
	case "text/html":
		return FormatHTML, nil
	case "application/json":
		return FormatPlainText, nil
	case "", "application/octet-stream":
		return classifyByExtension(mimeType, filename)
	}

	if strings.HasPrefix(mimeType, "text/") {
		return FormatPlainText, nil
	}

	return 0, &UnsupportedFormatError{MimeType: mimeType}
}

func classifyByExtension(mimeType, filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return FormatPDF, nil
	case ".doc", ".docx":
		return FormatWord, nil
	case ".xls", ".xlsx":
		return FormatSpreadsheet, nil
	case ".ppt", ".pptx":
		return FormatPresentation, nil
	case ".csv":
		return FormatDelimitedText, nil
	case ".html", ".htm":
		return FormatHTML, nil
	case ".txt", ".md", ".json":
		return FormatPlainText, nil
	}
	return 0, &UnsupportedFormatError{MimeType: mimeType}
}
