package server

import (
	"crypto/tls"
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/urfave/negroni"
	"golang.org/x/crypto/acme/autocert"

	"github.com/senagpt/senagpt/chatstore"
	"github.com/senagpt/senagpt/config"
	"github.com/senagpt/senagpt/handlers"
	"github.com/senagpt/senagpt/services/document_service"
	"github.com/senagpt/senagpt/services/llm_service"
)

func SetupRoutes(cfg config.Config, chat llm_service.ChatService, images llm_service.ImageService, store chatstore.Store, logger *slog.Logger) *mux.Router {
	r := mux.NewRouter()

	extractor := document_service.NewDocumentExtractor(logger)
	rasterizer := document_service.NewRasterizer(cfg.RasterMaxPages, cfg.RasterScale, logger)

	r.Handle("/api/documents/analyze", handlers.NewDocumentAnalysisHandler(cfg, extractor, rasterizer, chat, store, logger)).Methods("POST")
	r.Handle("/api/chat/completions", handlers.NewChatCompletionHandler(chat, store, logger)).Methods("POST")
	r.Handle("/api/images/generate", handlers.NewGenerateImageHandler(images, store, logger)).Methods("POST")
	r.Handle("/api/images/analyze", handlers.NewAnalyzeImageHandler(chat, store, logger)).Methods("POST")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}).Methods("GET")

	return r
}

// ServeProduction builds the server when we operate in a production environment.
func ServeProduction(n *negroni.Negroni, cfg config.Config) {
	// Configure autocert settings
	autocertManager := autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(cfg.Domains...),
		Cache:      autocert.DirCache(cfg.CertCacheDir),
	}

	// Listen for HTTP requests on port 80 in a new goroutine. Use
	// autocertManager.HTTPHandler(nil) as the handler. This will send ACME
	// "http-01" challenge responses as necessary, and 302 redirect all other
	// requests to HTTPS.
	go func() {
		srv := &http.Server{
			Addr:         ":80",
			Handler:      autocertManager.HTTPHandler(nil),
			IdleTimeout:  time.Minute,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		}

		err := srv.ListenAndServe()
		log.Fatal(err)
	}()

	// Configure the TLS config to use the autocertManager.GetCertificate function.
	tlsConfig := &tls.Config{
		GetCertificate:           autocertManager.GetCertificate,
		PreferServerCipherSuites: true,
		CurvePreferences:         []tls.CurveID{tls.X25519, tls.CurveP256},
	}

	srv := &http.Server{
		Addr:      ":" + cfg.HTTPSPort,
		Handler:   n,
		TLSConfig: tlsConfig,
		// Completion streams stay open well past ordinary request
		// lifetimes, so no write timeout here.
		IdleTimeout: time.Minute,
		ReadTimeout: 30 * time.Second,
	}

	err := srv.ListenAndServeTLS("", "") // Key and cert provided automatically by autocert.
	log.Fatal(err)
}

// ServeDevelopment starts the server when we operate in a dev environment.
func ServeDevelopment(s *http.Server) {
	log.Fatal(s.ListenAndServe())
}
