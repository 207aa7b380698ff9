package config

import (
	"os"
	"strconv"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for the decision-trace archive.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// RouterConfig holds the weights and limits for the routing decision core.
// Weights do not need to sum to 1; the scorer normalizes them.
type RouterConfig struct {
	WeightSuccessRate float64
	WeightCost        float64
	WeightLatency     float64
	WeightHealth      float64
	ExcludeUnhealthy  bool
	MaxAttempts       int
	RetriesPerTarget  int
	RetryBackoffMS    int
}

// SearchConfig holds hybrid search settings.
type SearchConfig struct {
	// EmbeddingURL is an Ollama-compatible /api/embed endpoint.
	EmbeddingURL   string
	EmbeddingModel string
	// FusionK is the RRF constant (typically 60).
	FusionK float64
	// ScoreThreshold drops results scoring below topScore*ScoreThreshold.
	// 0 disables thresholding. Typical value: 0.5
	ScoreThreshold float64
	CandidateLimit int
}

// NotifyConfig holds notification routing defaults.
// QuietHoursStart/End are hours of day (0-23) in the recipient's timezone;
// non-urgent notifications are suppressed on intrusive channels in that window.
type NotifyConfig struct {
	QuietHoursStart int
	QuietHoursEnd   int
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost  string
	Port     string
	Database DatabaseConfig
	MinIO    MinIOConfig
	Router   RouterConfig
	Search   SearchConfig
	Notify   NotifyConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost: getEnv("APP_HOST", "localhost:8080"),
		Port:    getEnv("PORT", "8080"), // default only for non-sensitive value
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Router: RouterConfig{
			WeightSuccessRate: getEnvFloat("ROUTER_WEIGHT_SUCCESS_RATE", 0.4),
			WeightCost:        getEnvFloat("ROUTER_WEIGHT_COST", 0.3),
			WeightLatency:     getEnvFloat("ROUTER_WEIGHT_LATENCY", 0.2),
			WeightHealth:      getEnvFloat("ROUTER_WEIGHT_HEALTH", 0.1),
			ExcludeUnhealthy:  getEnvBool("ROUTER_EXCLUDE_UNHEALTHY", true),
			MaxAttempts:       getEnvInt("ROUTER_MAX_ATTEMPTS", 5),
			RetriesPerTarget:  getEnvInt("ROUTER_RETRIES_PER_TARGET", 1),
			RetryBackoffMS:    getEnvInt("ROUTER_RETRY_BACKOFF_MS", 200),
		},
		Search: SearchConfig{
			EmbeddingURL:   getEnv("SEARCH_EMBEDDING_URL", "http://localhost:11434/api/embed"),
			EmbeddingModel: getEnv("SEARCH_EMBEDDING_MODEL", "nomic-embed-text"),
			FusionK:        getEnvFloat("SEARCH_FUSION_K", 60),
			ScoreThreshold: getEnvFloat("SEARCH_SCORE_THRESHOLD", 0),
			CandidateLimit: getEnvInt("SEARCH_CANDIDATE_LIMIT", 50),
		},
		Notify: NotifyConfig{
			QuietHoursStart: getEnvInt("NOTIFY_QUIET_HOURS_START", 22),
			QuietHoursEnd:   getEnvInt("NOTIFY_QUIET_HOURS_END", 8),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}
