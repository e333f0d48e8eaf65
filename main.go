package main

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/urfave/negroni"
	"go.uber.org/zap"

	"github.com/senagpt/senagpt/chatstore"
	"github.com/senagpt/senagpt/config"
	"github.com/senagpt/senagpt/db"
	"github.com/senagpt/senagpt/logging"
	"github.com/senagpt/senagpt/server"
	"github.com/senagpt/senagpt/services/llm_service"
)

func main() {
	cfg := config.Load()

	fileHandler, err := logging.NewDailyFileHandler("logs", &slog.HandlerOptions{Level: slog.LevelInfo})
	if err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	logger := slog.New(fileHandler)

	zapLogger, _ := zap.NewProduction()
	defer zapLogger.Sync()

	pool, err := db.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	store := chatstore.NewPostgresStore(pool, logger)
	chat := llm_service.NewOpenAIService(cfg.OpenAIAPIURL, cfg.OpenAIAPIKey, cfg.ChatModel, zapLogger)
	images := llm_service.NewOpenAIImageService(cfg.OpenAIImageAPIURL, cfg.OpenAIAPIKey, cfg.ImageModel, logger)

	r := server.SetupRoutes(cfg, chat, images, store, logger)
	n := setupNegroni(r)

	if cfg.Environment == "production" {
		server.ServeProduction(n, cfg)
	} else {
		srv := &http.Server{
			Addr:    ":" + cfg.HTTPPort,
			Handler: n,
			// Streaming responses rule out a write timeout.
			IdleTimeout: time.Minute,
			ReadTimeout: 30 * time.Second,
		}
		server.ServeDevelopment(srv)
	}
}

func setupNegroni(r *mux.Router) *negroni.Negroni {
	n := negroni.New()

	n.Use(negroni.NewRecovery())
	n.Use(negroni.NewLogger())

	n.UseHandler(r)
	return n
}
