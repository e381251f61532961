package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Backend    BackendConfig
	Jama       JamaConfig
	Extraction ExtractionConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	LLMTraceFilePath   string
	CorsAllowedOrigins string
	APIKey             string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type BackendConfig struct {
	BaseURL string
	APIKey  string
}

type JamaConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
}

// ExtractionConfig carries the pipeline tuning knobs. The stuck-detection
// thresholds and the yield ratio are empirical numbers tuned per backend
// deployment, which is why they live in configuration and not code.
type ExtractionConfig struct {
	PollInterval       time.Duration
	ConfirmCeiling     time.Duration
	StuckPolls         int
	StuckElapsed       time.Duration
	HardZeroElapsed    time.Duration
	QueryTimeout       time.Duration
	ValidationTimeout  time.Duration
	RecoveryTimeout    time.Duration
	YieldTriggerRatio  float64
	ValidationFailOpen bool
	FallbackMax        int
	ResultTTL          time.Duration // redis idempotency marker lifetime
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			LLMTraceFilePath:   getEnv("LLM_TRACE_FILE_PATH", "logs/llm_trace.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			APIKey:             getEnv("API_KEY", ""),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Backend: BackendConfig{
			BaseURL: getEnv("RAG_BACKEND_BASE_URL", "http://localhost:3001"),
			APIKey:  getEnv("RAG_BACKEND_API_KEY", ""),
		},
		Jama: JamaConfig{
			BaseURL:      getEnv("JAMA_BASE_URL", ""),
			ClientID:     getEnv("JAMA_CLIENT_ID", ""),
			ClientSecret: getEnv("JAMA_CLIENT_SECRET", ""),
		},
		Extraction: ExtractionConfig{
			PollInterval:       getEnvAsDuration("EMBED_POLL_INTERVAL", 15*time.Second),
			ConfirmCeiling:     getEnvAsDuration("EMBED_CONFIRM_CEILING", 3*time.Minute),
			StuckPolls:         getEnvAsInt("EMBED_STUCK_POLLS", 6),
			StuckElapsed:       getEnvAsDuration("EMBED_STUCK_ELAPSED", 90*time.Second),
			HardZeroElapsed:    getEnvAsDuration("EMBED_HARD_ZERO_ELAPSED", 120*time.Second),
			QueryTimeout:       getEnvAsDuration("EXTRACT_QUERY_TIMEOUT", 4*time.Minute),
			ValidationTimeout:  getEnvAsDuration("VALIDATION_TIMEOUT", 2*time.Minute),
			RecoveryTimeout:    getEnvAsDuration("RECOVERY_TIMEOUT", 90*time.Second),
			YieldTriggerRatio:  getEnvAsFloat("YIELD_TRIGGER_RATIO", 0.7),
			ValidationFailOpen: getEnvAsBool("VALIDATION_FAIL_OPEN", true),
			FallbackMax:        getEnvAsInt("FALLBACK_MAX_CANDIDATES", 50),
			ResultTTL:          getEnvAsDuration("RESULT_TTL", 24*time.Hour),
		},
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

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
