package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment  string
	HTTPPort     string
	HTTPSPort    string
	Domains      []string
	CertCacheDir string

	OpenAIAPIURL      string
	OpenAIImageAPIURL string
	OpenAIAPIKey      string
	ChatModel         string
	ImageModel        string

	// Document ingestion tunables. Defaults reflect observed provider
	// limits; change them only with evidence.
	MaxUploadMB         int
	MaxContextChars     int
	ScannedPDFThreshold float64
	RasterMaxPages      int
	RasterScale         float64
}

var isTest bool

func init() {
	isTest = os.Getenv("GO_ENVIRONMENT") == "test"
	if !isTest {
		err := godotenv.Load()
		if err != nil {
			log.Println("Warning: Error loading .env file:", err)
		}
	}
}

func Load() Config {
	return Config{
		Environment:  getEnv("ENVIRONMENT", "development"),
		HTTPPort:     getEnv("HTTP_PORT", "8090"),
		HTTPSPort:    getEnv("HTTPS_PORT", "443"),
		Domains:      []string{getEnv("DOMAIN", "example.com")},
		CertCacheDir: getEnv("CERT_CACHE_DIR", "/etc/letsencrypt/live/example.com"),

		OpenAIAPIURL:      getEnv("OPENAI_API_URL", "https://api.openai.com/v1/chat/completions"),
		OpenAIImageAPIURL: getEnv("OPENAI_IMAGE_API_URL", "https://api.openai.com/v1/images/generations"),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		ChatModel:         getEnv("CHAT_MODEL", "gpt-4o"),
		ImageModel:        getEnv("IMAGE_MODEL", "dall-e-3"),

		MaxUploadMB:         getEnvAsInt("MAX_UPLOAD_MB", 20),
		MaxContextChars:     getEnvAsInt("MAX_CONTEXT_CHARS", 100000),
		ScannedPDFThreshold: getEnvAsFloat("SCANNED_PDF_THRESHOLD", 100),
		RasterMaxPages:      getEnvAsInt("RASTER_MAX_PAGES", 15),
		RasterScale:         getEnvAsFloat("RASTER_SCALE", 1.5),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}
