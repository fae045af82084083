package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Env         Environment    `mapstructure:"-"`
	Server      ServerConfig   `mapstructure:"server"`
	Database    DatabaseConfig `mapstructure:"database"`
	Redis       RedisConfig    `mapstructure:"redis"`
	AI          AIConfig       `mapstructure:"ai"`
	Auth        AuthConfig     `mapstructure:"auth"`
	Storage     StorageConfig  `mapstructure:"storage"`
	Quota       QuotaConfig    `mapstructure:"quota"`
	App         AppConfig      `mapstructure:"app"`
	Log         LogConfig      `mapstructure:"log"`
	Jobs        JobsConfig     `mapstructure:"jobs"`
	DedupWindow time.Duration  `mapstructure:"dedup_window"`
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns host:port for http.Server
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig selects and configures the recipe store.
// Driver is "postgres" or "sqlite"; for sqlite, Name is the file path.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"ssl_mode"`
	URL      string `mapstructure:"url"`
}

// DSN returns the postgres connection string
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// RedisConfig configures the draft store and quota limiter backend
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	URL      string `mapstructure:"url"`
}

// AIConfig configures the generative service
type AIConfig struct {
	Provider          string        `mapstructure:"provider"`
	OpenAIAPIKey      string        `mapstructure:"openai_api_key"`
	OpenAIBaseURL     string        `mapstructure:"openai_base_url"`
	GeminiAPIKey      string        `mapstructure:"gemini_api_key"`
	ChatModel         string        `mapstructure:"chat_model"`
	ImageModel        string        `mapstructure:"image_model"`
	SpeechModel       string        `mapstructure:"speech_model"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

// AuthConfig holds the shared secret of the external auth provider
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// StorageConfig configures S3 re-hosting of generated media.
// An empty bucket disables re-hosting.
type StorageConfig struct {
	Bucket        string `mapstructure:"bucket"`
	Region        string `mapstructure:"region"`
	PublicBaseURL string `mapstructure:"public_base_url"`
}

// QuotaConfig bounds AI generation calls per user and window
type QuotaConfig struct {
	Limit  int           `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`
}

// AppConfig holds the server-to-server and client base URLs
type AppConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	PublicBaseURL string `mapstructure:"public_base_url"`
}

// LogConfig configures zap
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// JobsConfig configures the river tag worker
type JobsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Workers int  `mapstructure:"workers"`
}

// envBindings maps config keys to the environment variables that set them
var envBindings = map[string]string{
	"server.host":             "SERVER_HOST",
	"server.port":             "SERVER_PORT",
	"database.driver":         "DB_DRIVER",
	"database.host":           "DB_HOST",
	"database.port":           "DB_PORT",
	"database.user":           "DB_USER",
	"database.password":       "DB_PASSWORD",
	"database.name":           "DB_NAME",
	"database.ssl_mode":       "DB_SSL_MODE",
	"database.url":            "DATABASE_URL",
	"redis.host":              "REDIS_HOST",
	"redis.port":              "REDIS_PORT",
	"redis.password":          "REDIS_PASSWORD",
	"redis.db":                "REDIS_DB",
	"redis.url":               "REDIS_URL",
	"ai.provider":             "AI_PROVIDER",
	"ai.openai_api_key":       "OPENAI_API_KEY",
	"ai.openai_base_url":      "OPENAI_BASE_URL",
	"ai.gemini_api_key":       "GEMINI_API_KEY",
	"ai.chat_model":           "AI_CHAT_MODEL",
	"ai.requests_per_minute":  "AI_REQUESTS_PER_MINUTE",
	"auth.jwt_secret":         "JWT_SECRET",
	"storage.bucket":          "S3_BUCKET_NAME",
	"storage.region":          "AWS_REGION",
	"storage.public_base_url": "S3_PUBLIC_BASE_URL",
	"quota.limit":             "QUOTA_LIMIT",
	"quota.window":            "QUOTA_WINDOW",
	"app.base_url":            "API_BASE_URL",
	"app.public_base_url":     "NEXT_PUBLIC_API_BASE_URL",
	"log.level":               "LOG_LEVEL",
	"log.file":                "LOG_FILE",
	"jobs.enabled":            "JOBS_ENABLED",
	"jobs.workers":            "JOBS_WORKERS",
	"dedup_window":            "DEDUP_WINDOW",
}

// secretBindings maps Docker secret file names to config keys
var secretBindings = map[string]string{
	"openai_api_key": "ai.openai_api_key",
	"gemini_api_key": "ai.gemini_api_key",
	"db_password":    "database.password",
	"jwt_secret":     "auth.jwt_secret",
	"redis_password": "redis.password",
}

// LoadConfig reads .env, environment variables and Docker secrets, in that
// order of increasing precedence, and validates the result for the current environment
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	for name, key := range secretBindings {
		if value := readSecret(name); value != "" {
			v.Set(key, value)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Env = GetEnvironment()

	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "smart_recipe")
	v.SetDefault("database.ssl_mode", "disable")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.openai_base_url", "https://api.openai.com/v1")
	v.SetDefault("ai.chat_model", "gpt-4o")
	v.SetDefault("ai.image_model", "dall-e-3")
	v.SetDefault("ai.speech_model", "tts-1")
	v.SetDefault("ai.requests_per_minute", 60)
	v.SetDefault("ai.timeout", "90s")

	v.SetDefault("quota.limit", 10)
	v.SetDefault("quota.window", "24h")

	v.SetDefault("app.base_url", "http://localhost:8080")
	v.SetDefault("app.public_base_url", "http://localhost:3000")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "logs/app.log")

	v.SetDefault("jobs.enabled", true)
	v.SetDefault("jobs.workers", 5)

	v.SetDefault("dedup_window", "2s")
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	data, err := os.ReadFile(filepath.Join(secretsDir, name))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
