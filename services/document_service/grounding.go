package document_service

import (
	"fmt"
	"unicode/utf8"
)

// TruncationMarker is appended whenever extracted text is cut to the context
// budget. Callers detect incomplete grounding by its presence, so it is never
// dropped silently.
const TruncationMarker = "\n\n[... Text gekürzt ...]"

// Grounding is the document-derived payload handed to the model. Exactly one
// variant is built per request; the two PDF sub-paths are mutually exclusive.
type Grounding interface {
	isGrounding()
}

// DigitalText grounds the completion in extracted (possibly truncated) text,
// framed so the answer stays scoped to the document.
type DigitalText struct {
	Body string
}

// ScannedPages grounds the completion in rasterized page images plus a
// caption naming the file and page count.
type ScannedPages struct {
	Caption string
	Pages   [][]byte
}

func (DigitalText) isGrounding()  {}
func (ScannedPages) isGrounding() {}

// ContextBuilder frames extraction output into a Grounding payload under a
// fixed character budget.
type ContextBuilder struct {
	maxChars int
}

func NewContextBuilder(maxChars int) *ContextBuilder {
	return &ContextBuilder{maxChars: maxChars}
}

// Truncate cuts text to the character budget and appends the truncation
// marker. Text at or below the budget passes through unmodified. The cut
// backs off to a rune boundary so a multi-byte sequence is never split.
func (b *ContextBuilder) Truncate(text string) string {
	if len(text) <= b.maxChars {
		return text
	}
	cut := b.maxChars
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + TruncationMarker
}

// BuildTextGrounding frames extracted text inside the instructional template
// naming the source file.
func (b *ContextBuilder) BuildTextGrounding(text, filename string) DigitalText {
	body := fmt.Sprintf(`Der Benutzer hat ein Dokument hochgeladen: "%s"

Hier ist der extrahierte Inhalt des Dokuments:

---
%s
---

Beantworte die Fragen des Benutzers basierend auf diesem Dokumentinhalt.`, filename, b.Truncate(text))

	return DigitalText{Body: body}
}

// BuildVisionGrounding assembles the image payload for a scanned PDF: one
// caption naming the file and page count, plus the rendered pages in page
// order.
func (b *ContextBuilder) BuildVisionGrounding(pages [][]byte, filename, prompt string) ScannedPages {
	plural := ""
	if len(pages) > 1 {
		plural = "n"
	}
	caption := fmt.Sprintf("Dokument: \"%s\" (%d Seite%s)\n\n%s", filename, len(pages), plural, prompt)

	return ScannedPages{Caption: caption, Pages: pages}
}
