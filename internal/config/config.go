package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values.
type Config struct {
	// Embedding provider
	EmbedProvider  string
	EmbedModel     string
	EmbedDimension int
	OllamaHost     string
	OpenAIAPIKey   string
	BedrockRegion  string

	// Embedding batching
	EmbedBatchSize      int
	EmbedBatchMaxTokens int
	EmbedTimeout        time.Duration
	EmbedPacing         time.Duration

	// Chunking
	MaxChunkTokens int
	OverlapTokens  int
	MinChunkChars  int

	// Scheduler
	BatchSize  int
	Workers    int
	JobTimeout time.Duration

	// Durable state
	QueuePath string
	RulesPath string

	// SurrealDB sink (optional; empty URL disables it)
	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		EmbedProvider:  getEnv("JURIDOC_EMBED_PROVIDER", "ollama"),
		EmbedModel:     getEnv("JURIDOC_EMBED_MODEL", "nomic-embed-text"),
		EmbedDimension: getEnvInt("JURIDOC_EMBED_DIMENSION", 768),
		OllamaHost:     getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		BedrockRegion:  getEnv("JURIDOC_BEDROCK_REGION", "us-east-1"),

		EmbedBatchSize:      getEnvInt("JURIDOC_EMBED_BATCH_SIZE", 100),
		EmbedBatchMaxTokens: getEnvInt("JURIDOC_EMBED_BATCH_MAX_TOKENS", 8000),
		EmbedTimeout:        getEnvDuration("JURIDOC_EMBED_TIMEOUT", 8*time.Second),
		EmbedPacing:         getEnvDuration("JURIDOC_EMBED_PACING", 100*time.Millisecond),

		MaxChunkTokens: getEnvInt("JURIDOC_MAX_CHUNK_TOKENS", 500),
		OverlapTokens:  getEnvInt("JURIDOC_OVERLAP_TOKENS", 50),
		MinChunkChars:  getEnvInt("JURIDOC_MIN_CHUNK_CHARS", 50),

		BatchSize:  getEnvInt("JURIDOC_BATCH_SIZE", 10),
		Workers:    getEnvInt("JURIDOC_WORKERS", 5),
		JobTimeout: getEnvDuration("JURIDOC_JOB_TIMEOUT", 5*time.Minute),

		QueuePath: getEnv("JURIDOC_QUEUE_PATH", "juridoc-queue.jsonl"),
		RulesPath: getEnv("JURIDOC_RULES_PATH", ""),

		SurrealDBURL:       getEnv("SURREALDB_URL", ""),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", "juridoc"),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", "corpus"),
		SurrealDBUser:      getEnv("SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),

		LogFile:  getEnv("JURIDOC_LOG_FILE", "/tmp/juridoc.log"),
		LogLevel: parseLogLevel(getEnv("JURIDOC_LOG_LEVEL", "INFO")),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
