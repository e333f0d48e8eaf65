package handlers

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/senagpt/senagpt/chatstore"
	"github.com/senagpt/senagpt/config"
	"github.com/senagpt/senagpt/services/document_service"
	"github.com/senagpt/senagpt/services/llm_service"
)

const (
	defaultTextPrompt   = "Was steht in diesem Dokument? Fasse den Inhalt zusammen."
	defaultVisionPrompt = "Analysiere dieses Dokument und fasse den Inhalt zusammen."
)

type documentExtractor interface {
	Extract(data []byte, format document_service.Format, filename string) (document_service.ExtractionResult, error)
}

type pageRasterizer interface {
	RenderPages(data []byte) ([][]byte, error)
}

type analyzeDocumentRequest struct {
	FileBase64 string `json:"fileBase64"`
	FileName   string `json:"fileName"`
	MimeType   string `json:"mimeType"`
	Prompt     string `json:"prompt"`
	ChatID     string `json:"chatId"`
}

// DocumentAnalysisHandler runs the document-to-context pipeline: classify,
// extract, decide between the digital-text and scanned-PDF paths, frame the
// grounding payload, then stream the completion back to the caller.
type DocumentAnalysisHandler struct {
	logger        *slog.Logger
	extractor     documentExtractor
	rasterizer    pageRasterizer
	builder       *document_service.ContextBuilder
	relay         *completionRelay
	maxUploadMB   int
	scanThreshold float64
}

func NewDocumentAnalysisHandler(cfg config.Config, extractor documentExtractor, rasterizer pageRasterizer, chat llm_service.ChatService, store chatstore.Store, logger *slog.Logger) *DocumentAnalysisHandler {
	return &DocumentAnalysisHandler{
		logger:        logger,
		extractor:     extractor,
		rasterizer:    rasterizer,
		builder:       document_service.NewContextBuilder(cfg.MaxContextChars),
		relay:         &completionRelay{chat: chat, store: store, logger: logger},
		maxUploadMB:   cfg.MaxUploadMB,
		scanThreshold: cfg.ScannedPDFThreshold,
	}
}

func (h *DocumentAnalysisHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req analyzeDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.FileBase64 == "" || req.FileName == "" || req.MimeType == "" {
		writeJSONError(w, "File data, name, and type are required", http.StatusBadRequest)
		return
	}

	// Base64 is about 4/3 larger than binary
	fileSizeMB := float64(len(req.FileBase64)) * 3 / 4 / (1024 * 1024)
	if fileSizeMB > float64(h.maxUploadMB) {
		oversized := &document_service.OversizedUploadError{SizeMB: fileSizeMB, LimitMB: h.maxUploadMB}
		h.logger.Warn("Rejected oversized upload",
			slog.String("filename", req.FileName),
			slog.Float64("size_mb", fileSizeMB),
			slog.Int("limit_mb", h.maxUploadMB))
		writeJSONError(w, oversized.Error(), http.StatusBadRequest)
		return
	}

	data, err := base64.StdEncoding.DecodeString(req.FileBase64)
	if err != nil {
		writeJSONError(w, "Ungültige Base64-Daten", http.StatusBadRequest)
		return
	}

	format, err := document_service.Classify(req.MimeType, req.FileName)
	if err != nil {
		h.logger.Error("Unsupported file type",
			slog.String("filename", req.FileName),
			slog.String("mime_type", req.MimeType))
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.logger.Debug("Starting document analysis",
		slog.String("filename", req.FileName),
		slog.String("format", format.String()),
		slog.Int("size", len(data)))

	result, err := h.extractor.Extract(data, format, req.FileName)
	if err != nil {
		h.logger.Error("Text extraction failed",
			slog.String("filename", req.FileName),
			slog.String("error", err.Error()))
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var messages []llm_service.ChatMessage
	prompt := req.Prompt

	if format == document_service.FormatPDF && document_service.IsScanned(result.Text, result.PageCount, h.scanThreshold) {
		h.logger.Info("Scanned PDF detected, using vision path",
			slog.String("filename", req.FileName),
			slog.Int("page_count", result.PageCount),
			slog.Int("text_length", len(result.Text)))

		pages, err := h.rasterizer.RenderPages(data)
		if err != nil {
			h.logger.Error("Rasterization failed",
				slog.String("filename", req.FileName),
				slog.String("error", err.Error()))
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}

		if prompt == "" {
			prompt = defaultVisionPrompt
		}
		grounding := h.builder.BuildVisionGrounding(pages, req.FileName, prompt)
		messages = visionMessages(grounding)
	} else {
		if prompt == "" {
			prompt = defaultTextPrompt
		}
		grounding := h.builder.BuildTextGrounding(result.Text, req.FileName)
		messages = []llm_service.ChatMessage{
			llm_service.TextMessage("system", grounding.Body),
			llm_service.TextMessage("user", prompt),
		}
	}

	h.relay.run(w, r, messages, relayOptions{chatID: req.ChatID, titleSource: prompt})
}

// visionMessages builds the single multimodal user message for the scanned
// path: the caption first, then the page images in page order.
func visionMessages(grounding document_service.ScannedPages) []llm_service.ChatMessage {
	parts := make([]llm_service.ContentPart, 0, len(grounding.Pages)+1)
	parts = append(parts, llm_service.TextPart(grounding.Caption))
	for _, page := range grounding.Pages {
		dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(page)
		parts = append(parts, llm_service.ImagePart(dataURL))
	}
	return []llm_service.ChatMessage{
		{Role: "user", Content: parts},
	}
}
