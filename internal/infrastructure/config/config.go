package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddress   string
	ShutdownTimeout time.Duration

	LogLevel  string
	LogFormat string // "json" or "text"

	// Storage
	DBDriver string // "sqlite" or "postgres"
	DBDSN    string

	// LLM grading
	LLMProvider string // "openai", "gemini" or "anthropic"
	LLMAPIKey   string
	LLMBaseURL  string // OpenAI-compatible endpoint, e.g. "https://openrouter.ai/api/v1"
	LLMModel    string
	LLMTimeout  time.Duration

	// Technical grading
	TechnicalBackend   string // "embedding", "heuristic" or "none"
	EmbeddingModelPath string
	EmbeddingVocabPath string
	ONNXRuntimeLib     string
	RegressionModel    string
	RegressionMax      float64

	MinAnswerLength int
	TechnicalWeight float64
	GradingWorkers  int
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()
	cfg := &Config{
		ServerAddress:   getenvDefault("SERVER_ADDRESS", ":8080"),
		ShutdownTimeout: getDurationDefault("SHUTDOWN_TIMEOUT", 10*time.Second),

		LogLevel:  getenvDefault("LOG_LEVEL", "info"),
		LogFormat: getenvDefault("LOG_FORMAT", "json"),

		DBDriver: getenvDefault("DB_DRIVER", "sqlite"),
		DBDSN:    getenvDefault("DB_DSN", "essaygrade.db"),

		LLMProvider: getenvDefault("LLM_PROVIDER", "openai"),
		LLMAPIKey:   os.Getenv("LLM_API_KEY"),
		LLMBaseURL:  getenvDefault("LLM_BASE_URL", "https://openrouter.ai/api/v1"),
		LLMTimeout:  getDurationDefault("LLM_TIMEOUT", 30*time.Second),

		TechnicalBackend:   getenvDefault("TECHNICAL_BACKEND", "embedding"),
		EmbeddingModelPath: getenvDefault("EMBEDDING_MODEL_PATH", "models/model.onnx"),
		EmbeddingVocabPath: getenvDefault("EMBEDDING_VOCAB_PATH", "models/vocab.txt"),
		ONNXRuntimeLib:     os.Getenv("ONNXRUNTIME_LIB"),
		RegressionModel:    os.Getenv("REGRESSION_MODEL_PATH"),
		RegressionMax:      getFloatDefault("REGRESSION_MAX_SCORE", 100),

		MinAnswerLength: getIntDefault("MIN_ANSWER_LENGTH", 5),
		TechnicalWeight: getFloatDefault("TECHNICAL_WEIGHT", 0.5),
		GradingWorkers:  getIntDefault("GRADING_WORKERS", 4),
	}
	cfg.LLMModel = getenvDefault("LLM_MODEL", DefaultModel(cfg.LLMProvider))
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

// DefaultModel is the model used for provider when LLM_MODEL is unset.
func DefaultModel(provider string) string {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "gemini":
		return "gemini-1.5-flash"
	case "anthropic":
		return "claude-3-5-haiku-latest"
	default:
		return "mistralai/mistral-7b-instruct:free"
	}
}

func getenvDefault(k, fallback string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return fallback
}

func getDurationDefault(k string, fallback time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("config: %s=%q is not a valid duration: %v", k, v, err)
	}
	return d
}

func getFloatDefault(k string, fallback float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Fatalf("config: %s=%q is not a valid number: %v", k, v, err)
	}
	return f
}

func getIntDefault(k string, fallback int) int {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("config: %s=%q is not a valid integer: %v", k, v, err)
	}
	return n
}
