package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPort          = "8080"
	defaultAppURL        = "http://localhost:8080"
	defaultAPIBaseURL    = "http://localhost:8000/api"
	defaultAPITimeout    = 15 * time.Second
	defaultCacheTTL      = 5 * time.Minute
	defaultStatusPoll    = 10 * time.Second
	defaultWorkerTick    = 60 * time.Second
	defaultDBDriver      = "postgres"
	defaultFirebaseCreds = "./firebase-service-account.json"
	defaultWahaBaseURL   = "http://waha:3000"
)

// Config holds runtime configuration shared by the server, worker and CLI.
type Config struct {
	Env    string
	Port   string
	AppURL string

	APIBaseURL string
	APITimeout time.Duration
	// APIToken is only used by the CLI and the worker; browser sessions carry
	// their own bearer token in a cookie.
	APIToken string

	DatabaseURL string
	DBDriver    string
	RedisURL    string
	CacheTTL    time.Duration
	NatsURL     string

	FirebaseCredentialsPath string
	// Web config for the operator sign-in page
	FirebaseAPIKey     string
	FirebaseAuthDomain string
	FirebaseProjectID  string

	StatusPollInterval time.Duration
	WorkerTick         time.Duration

	SMTPHost  string
	SMTPPort  string
	SMTPUser  string
	SMTPPass  string
	EmailFrom string

	WahaBaseURL string
	WahaAPIKey  string
}

// Load reads the .env file when present and builds a Config from the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables and applies defaults.
func FromEnv() (Config, error) {
	cfg := Config{
		Env:                     os.Getenv("ENV"),
		Port:                    getEnv("PORT", defaultPort),
		AppURL:                  getEnv("APP_URL", defaultAppURL),
		APIBaseURL:              getEnv("API_BASE_URL", defaultAPIBaseURL),
		APITimeout:              defaultAPITimeout,
		APIToken:                os.Getenv("API_TOKEN"),
		DatabaseURL:             os.Getenv("DATABASE_URL"),
		DBDriver:                getEnv("DB_DRIVER", defaultDBDriver),
		RedisURL:                os.Getenv("REDIS_URL"),
		CacheTTL:                defaultCacheTTL,
		NatsURL:                 os.Getenv("NATS_URL"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", defaultFirebaseCreds),
		FirebaseAPIKey:          os.Getenv("FIREBASE_API_KEY"),
		FirebaseAuthDomain:      os.Getenv("FIREBASE_AUTH_DOMAIN"),
		FirebaseProjectID:       os.Getenv("FIREBASE_PROJECT_ID"),
		StatusPollInterval:      defaultStatusPoll,
		WorkerTick:              defaultWorkerTick,
		SMTPHost:                os.Getenv("SMTP_HOST"),
		SMTPPort:                os.Getenv("SMTP_PORT"),
		SMTPUser:                os.Getenv("SMTP_USER"),
		SMTPPass:                os.Getenv("SMTP_PASS"),
		EmailFrom:               os.Getenv("EMAIL_FROM"),
		WahaBaseURL:             getEnv("WAHA_BASE_URL", defaultWahaBaseURL),
		WahaAPIKey:              os.Getenv("WAHA_API_KEY"),
	}

	if v, err := readSecondsEnv("API_TIMEOUT_SECONDS"); err != nil {
		return Config{}, fmt.Errorf("parse API_TIMEOUT_SECONDS: %w", err)
	} else if v != nil {
		cfg.APITimeout = *v
	}

	if v, err := readSecondsEnv("CACHE_TTL_SECONDS"); err != nil {
		return Config{}, fmt.Errorf("parse CACHE_TTL_SECONDS: %w", err)
	} else if v != nil {
		cfg.CacheTTL = *v
	}

	if v, err := readSecondsEnv("STATUS_POLL_SECONDS"); err != nil {
		return Config{}, fmt.Errorf("parse STATUS_POLL_SECONDS: %w", err)
	} else if v != nil {
		cfg.StatusPollInterval = *v
	}

	if v, err := readSecondsEnv("WORKER_TICK_SECONDS"); err != nil {
		return Config{}, fmt.Errorf("parse WORKER_TICK_SECONDS: %w", err)
	} else if v != nil {
		cfg.WorkerTick = *v
	}

	if cfg.DBDriver != "postgres" && cfg.DBDriver != "mysql" {
		return Config{}, fmt.Errorf("DB_DRIVER must be postgres or mysql, got %q", cfg.DBDriver)
	}
	if cfg.StatusPollInterval <= 0 || cfg.WorkerTick <= 0 {
		return Config{}, fmt.Errorf("poll and worker intervals must be positive")
	}

	return cfg, nil
}

// IsProduction reports whether ENV=production.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func readIntEnv(name string) (*int, error) {
	val := os.Getenv(name)
	if val == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(val)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func readSecondsEnv(name string) (*time.Duration, error) {
	secs, err := readIntEnv(name)
	if err != nil || secs == nil {
		return nil, err
	}
	d := time.Duration(*secs) * time.Second
	return &d, nil
}
