package document_service

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"code.sajari.com/docconv/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
)

// ExtractionResult is the single normalized outcome of one extraction run.
// PageCount is meaningful for PDFs only.
type ExtractionResult struct {
	Text      string
	PageCount int
}

type DocumentExtractor struct {
	logger *slog.Logger
}

func NewDocumentExtractor(logger *slog.Logger) *DocumentExtractor {
	return &DocumentExtractor{
		logger: logger,
	}
}

// Extract dispatches the document to the extractor its format maps to.
func (e *DocumentExtractor) Extract(data []byte, format Format, filename string) (ExtractionResult, error) {
	switch format {
	case FormatPDF:
		return e.ExtractPDF(data)
	case FormatWord:
		text, err := e.ExtractWord(data)
		return ExtractionResult{Text: text}, err
	case FormatSpreadsheet:
		text, err := e.ExtractSpreadsheet(data)
		return ExtractionResult{Text: text}, err
	case FormatPresentation:
		return ExtractionResult{Text: PresentationPlaceholder(filename)}, nil
	case FormatHTML:
		text, err := e.ExtractHTML(data)
		return ExtractionResult{Text: text}, err
	case FormatDelimitedText, FormatPlainText:
		return ExtractionResult{Text: string(data)}, nil
	default:
		return ExtractionResult{}, &ExtractionError{Format: format, Err: fmt.Errorf("no extractor registered")}
	}
}

// ExtractPDF renders each page's text layer in page order and reports the
// page count. An empty text layer is not an error here: the scan detector
// needs exactly that signal to route the document to the vision path.
func (e *DocumentExtractor) ExtractPDF(data []byte) (ExtractionResult, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		e.logger.Error("Failed to create PDF reader",
			slog.String("error", err.Error()),
			slog.Int("data_size", len(data)))
		return ExtractionResult{}, &ExtractionError{Format: FormatPDF, Err: err}
	}

	totalPage := reader.NumPage()
	e.logger.Debug("Starting PDF text extraction",
		slog.Int("total_pages", totalPage))

	var fullText strings.Builder
	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			e.logger.Warn("Null page encountered",
				slog.Int("page_number", pageIndex))
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			e.logger.Error("Failed to extract text from page",
				slog.Int("page_number", pageIndex),
				slog.String("error", err.Error()))
			return ExtractionResult{}, &ExtractionError{
				Format: FormatPDF,
				Err:    fmt.Errorf("failed to extract text from page %d: %w", pageIndex, err),
			}
		}

		fullText.WriteString(text)
		fullText.WriteString("\n")
	}

	e.logger.Info("Extracted text from PDF",
		slog.Int("total_pages", totalPage),
		slog.Int("total_text_length", fullText.Len()))

	return ExtractionResult{Text: fullText.String(), PageCount: totalPage}, nil
}

// ExtractWord emits raw paragraph text only; formatting, images and embedded
// objects are dropped.
func (e *DocumentExtractor) ExtractWord(data []byte) (string, error) {
	e.logger.Debug("Starting Word document text extraction",
		slog.Int("data_size", len(data)))

	mimeType := "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	result, err := docconv.Convert(bytes.NewReader(data), mimeType, false)
	if err != nil {
		e.logger.Error("Failed to convert Word document",
			slog.String("error", err.Error()),
			slog.Int("data_size", len(data)))
		return "", &ExtractionError{Format: FormatWord, Err: err}
	}

	if len(result.Body) == 0 {
		e.logger.Error("No text extracted from Word document")
		return "", &ExtractionError{Format: FormatWord, Err: fmt.Errorf("no text content extracted")}
	}

	e.logger.Info("Extracted text from Word document",
		slog.Int("text_length", len(result.Body)))

	return result.Body, nil
}

// ExtractSpreadsheet renders each sheet as a named header followed by its
// rows as comma-delimited lines, sheets in workbook order separated by a
// blank line. Single pass, so identical workbook bytes yield identical text.
func (e *DocumentExtractor) ExtractSpreadsheet(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		e.logger.Error("Failed to open spreadsheet",
			slog.String("error", err.Error()),
			slog.Int("data_size", len(data)))
		return "", &ExtractionError{Format: FormatSpreadsheet, Err: err}
	}
	defer f.Close()

	var text strings.Builder
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			e.logger.Error("Failed to read sheet rows",
				slog.String("sheet", name),
				slog.String("error", err.Error()))
			return "", &ExtractionError{
				Format: FormatSpreadsheet,
				Err:    fmt.Errorf("failed to read sheet %q: %w", name, err),
			}
		}

		text.WriteString(fmt.Sprintf("--- Sheet: %s ---\n", name))
		for _, row := range rows {
			text.WriteString(strings.Join(row, ","))
			text.WriteString("\n")
		}
		text.WriteString("\n")
	}

	e.logger.Info("Extracted text from spreadsheet",
		slog.Int("sheet_count", len(f.GetSheetList())),
		slog.Int("text_length", text.Len()))

	return text.String(), nil
}

// ExtractHTML strips markup and returns the visible text.
func (e *DocumentExtractor) ExtractHTML(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		e.logger.Error("Failed to parse HTML document",
			slog.String("error", err.Error()))
		return "", &ExtractionError{Format: FormatHTML, Err: err}
	}

	doc.Find("script, style, noscript").Remove()
	text := strings.TrimSpace(doc.Text())

	if text == "" {
		return "", &ExtractionError{Format: FormatHTML, Err: fmt.Errorf("no text content extracted")}
	}

	return text, nil
}

// PresentationPlaceholder is the fixed stand-in for slide decks: full
// extraction is a declared limitation, not an error, so the request still
// succeeds with this text as grounding.
func PresentationPlaceholder(filename string) string {
	return fmt.Sprintf("[PowerPoint-Datei: %s] - Vollständige Textextraktion nicht verfügbar. Bitte beschreiben Sie, was Sie wissen möchten.", filename)
}
