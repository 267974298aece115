package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server settings
	ServerPort   string        `json:"server_port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
	Debug        bool          `json:"debug"`

	// Application paths
	LogDir       string `json:"log_dir"`
	ProcessedDir string `json:"processed_dir"`
	TempDir      string `json:"temp_dir"`

	// Shutdown timeout
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`

	// Auth settings
	Auth AuthConfig `json:"auth"`

	// Activity webhook sink
	Activity ActivityConfig `json:"activity"`

	// Database settings
	Database DatabaseConfig `json:"database"`

	// Media tooling
	Media MediaConfig `json:"media"`

	// OpenAI-backed services
	OpenAI OpenAIConfig `json:"openai"`

	// Stripe payments
	Stripe StripeConfig `json:"stripe"`

	// Optional archive upload to S3-compatible storage
	Spaces SpacesConfig `json:"spaces"`

	// CORS configuration
	CORS CORSConfig `json:"cors"`

	// Rate limiting
	RateLimit RateLimitConfig `json:"rate_limit"`

	// Application version
	Version string `json:"version"`
}

type AuthConfig struct {
	Secret    string        `json:"-"`
	Algorithm string        `json:"algorithm"`
	TokenTTL  time.Duration `json:"token_ttl"`
}

type ActivityConfig struct {
	WebhookURL string `json:"-"`
	QueueSize  int    `json:"queue_size"`
}

type DatabaseConfig struct {
	Path           string `json:"path"`
	MaxConnections int    `json:"max_connections"`
}

type MediaConfig struct {
	YTDLPPath       string        `json:"ytdlp_path"`
	FFmpegPath      string        `json:"ffmpeg_path"`
	FramesPerSecond float64       `json:"frames_per_second"`
	FetchTimeout    time.Duration `json:"fetch_timeout"`
}

type OpenAIConfig struct {
	APIKey            string        `json:"-"`
	SummaryModel      string        `json:"summary_model"`
	VisionModel       string        `json:"vision_model"`
	WhisperModel      string        `json:"whisper_model"`
	FramePacing       time.Duration `json:"frame_pacing"`
	TranscribeWorkers int           `json:"transcribe_workers"`
}

type StripeConfig struct {
	SecretKey string `json:"-"`
	Currency  string `json:"currency"`
}

type SpacesConfig struct {
	Enabled   bool   `json:"enabled"`
	AccessKey string `json:"-"`
	SecretKey string `json:"-"`
	Region    string `json:"region"`
	Endpoint  string `json:"endpoint"`
	Bucket    string `json:"bucket"`
}

type CORSConfig struct {
	AllowedOrigins []string `json:"allowed_origins"`
	AllowedMethods []string `json:"allowed_methods"`
	AllowedHeaders []string `json:"allowed_headers"`
	ExposedHeaders []string `json:"exposed_headers"`
}

type RateLimitConfig struct {
	Enabled           bool `json:"enabled"`
	RequestsPerMinute int  `json:"requests_per_minute"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:   getEnv("SERVER_PORT", "8080"),
		ReadTimeout:  getEnvAsDuration("READ_TIMEOUT", 15*time.Second),
		WriteTimeout: getEnvAsDuration("WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:  getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
		Debug:        getEnvAsBool("DEBUG", false),

		LogDir:       getEnv("LOG_DIR", "/var/log/mediaforge"),
		ProcessedDir: getEnv("PROCESSED_DIR", "processed"),
		TempDir:      getEnv("TEMP_DIR", "/tmp/mediaforge"),

		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		Auth: AuthConfig{
			Secret:    getEnv("SECRET_KEY", ""),
			Algorithm: getEnv("ALGORITHM", "HS256"),
			TokenTTL:  getEnvAsDuration("TOKEN_TTL", 60*time.Minute),
		},

		Activity: ActivityConfig{
			WebhookURL: getEnv("ACTIVITY_WEBHOOK_URL", ""),
			QueueSize:  getEnvAsInt("ACTIVITY_QUEUE_SIZE", 256),
		},

		Database: DatabaseConfig{
			Path:           getEnv("DB_PATH", "/var/lib/mediaforge/data.db"),
			MaxConnections: getEnvAsInt("DB_MAX_CONNECTIONS", 10),
		},

		Media: MediaConfig{
			YTDLPPath:       getEnv("YTDLP_PATH", "yt-dlp"),
			FFmpegPath:      getEnv("FFMPEG_PATH", "ffmpeg"),
			FramesPerSecond: getEnvAsFloat("FRAMES_PER_SECOND", 1.0),
			FetchTimeout:    getEnvAsDuration("FETCH_TIMEOUT", 10*time.Minute),
		},

		OpenAI: OpenAIConfig{
			APIKey:            getEnv("OPENAI_API_KEY", ""),
			SummaryModel:      getEnv("OPENAI_SUMMARY_MODEL", "gpt-4"),
			VisionModel:       getEnv("OPENAI_VISION_MODEL", "gpt-4-vision-preview"),
			WhisperModel:      getEnv("OPENAI_WHISPER_MODEL", "whisper-1"),
			FramePacing:       getEnvAsDuration("OPENAI_FRAME_PACING", 200*time.Millisecond),
			TranscribeWorkers: getEnvAsInt("TRANSCRIBE_WORKERS", 2),
		},

		Stripe: StripeConfig{
			SecretKey: getEnv("STRIPE_SECRET_KEY", ""),
			Currency:  getEnv("STRIPE_CURRENCY", "usd"),
		},

		Spaces: SpacesConfig{
			Enabled:   getEnvAsBool("SPACES_ENABLED", false),
			AccessKey: getEnv("SPACES_ACCESS_KEY", ""),
			SecretKey: getEnv("SPACES_SECRET_KEY", ""),
			Region:    getEnv("SPACES_REGION", "us-east-1"),
			Endpoint:  getEnv("SPACES_ENDPOINT", ""),
			Bucket:    getEnv("SPACES_BUCKET", ""),
		},

		CORS: CORSConfig{
			AllowedOrigins: getEnvAsStringSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsStringSlice(
				"CORS_ALLOWED_METHODS",
				[]string{"GET", "POST", "OPTIONS"},
			),
			AllowedHeaders: getEnvAsStringSlice(
				"CORS_ALLOWED_HEADERS",
				[]string{"Content-Type", "Authorization"},
			),
			ExposedHeaders: getEnvAsStringSlice(
				"CORS_EXPOSED_HEADERS",
				[]string{"Content-Disposition"},
			),
		},

		RateLimit: RateLimitConfig{
			Enabled:           getEnvAsBool("RATE_LIMIT_ENABLED", true),
			RequestsPerMinute: getEnvAsInt("RATE_LIMIT_RPM", 60),
		},

		Version: getEnv("VERSION", "1.0.0"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validatePaths(c); err != nil {
		return err
	}
	if err := validateAuth(c); err != nil {
		return err
	}
	if err := validateTimeouts(c); err != nil {
		return err
	}
	return nil
}

func validatePaths(c *Config) error {
	paths := []struct {
		path string
		name string
	}{
		{c.LogDir, "log directory"},
		{c.ProcessedDir, "processed directory"},
		{c.TempDir, "temp directory"},
		{filepath.Dir(c.Database.Path), "database directory"},
	}

	for _, p := range paths {
		if err := os.MkdirAll(p.path, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", p.name, err)
		}
	}

	return nil
}

func validateAuth(c *Config) error {
	if c.Auth.Secret == "" {
		return fmt.Errorf("SECRET_KEY is required")
	}
	if !strings.HasPrefix(c.Auth.Algorithm, "HS") {
		return fmt.Errorf("unsupported signing algorithm: %s", c.Auth.Algorithm)
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token TTL must be positive")
	}
	return nil
}

func validateTimeouts(c *Config) error {
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive")
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("write timeout must be positive")
	}
	if c.Media.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive")
	}
	return nil
}

// Helper functions for reading environment variables
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists {
		if value = strings.TrimSpace(value); value != "" {
			return strings.Split(value, ",")
		}
	}
	return defaultValue
}
