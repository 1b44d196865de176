package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	BackendFirestore = "firestore"
	BackendMongo     = "mongo"
	BackendMemory    = "memory"
)

// Config holds all server configuration.
type Config struct {
	Port        string
	Environment string
	LogLevel    string

	StoreBackend    string
	UsersCollection string

	// Firebase
	KeyData   string // service account JSON
	ProjectID string

	// MongoDB
	MongoURI string
	DBName   string

	RequestTimeout   time.Duration
	RefreshOnFailure bool
	// GardenIdleTTL drops cached gardens nobody used for this long; zero
	// keeps them for the life of the process.
	GardenIdleTTL time.Duration

	// AuthDisabled trusts the X-Debug-User header instead of Firebase ID
	// tokens. Only allowed with the memory backend.
	AuthDisabled bool
}

// Load reads .env when present, then the environment.
func Load() (*Config, bool, error) {
	envFileLoaded := godotenv.Load() == nil

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		Environment:      getEnv("ENVIRONMENT", "development"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		StoreBackend:     strings.ToLower(getEnv("STORE_BACKEND", BackendFirestore)),
		UsersCollection:  getEnv("USERS_COLLECTION", "users"),
		KeyData:          os.Getenv("KEY_DATA"),
		ProjectID:        os.Getenv("FIREBASE_PROJECT_ID"),
		MongoURI:         os.Getenv("MONGO_URI"),
		DBName:           getEnv("DB_NAME", "whispers"),
		RequestTimeout:   getEnvDuration("REQUEST_TIMEOUT", 10*time.Second),
		RefreshOnFailure: getEnvBool("GARDEN_REFRESH_ON_FAILURE", false),
		GardenIdleTTL:    getEnvDuration("GARDEN_IDLE_TTL", 30*time.Minute),
		AuthDisabled:     getEnvBool("AUTH_DISABLED", false),
	}
	if err := cfg.Validate(); err != nil {
		return nil, envFileLoaded, err
	}
	return cfg, envFileLoaded, nil
}

// Validate rejects inconsistent settings.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendFirestore, BackendMemory:
	case BackendMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI environment variable not set")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.AuthDisabled && c.StoreBackend != BackendMemory {
		return fmt.Errorf("AUTH_DISABLED is only allowed with the %s backend", BackendMemory)
	}
	if !c.AuthDisabled && c.KeyData == "" {
		return fmt.Errorf("KEY_DATA environment variable not set")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	if c.GardenIdleTTL < 0 {
		return fmt.Errorf("GARDEN_IDLE_TTL must not be negative")
	}
	return nil
}

// IsProduction reports whether the server runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// NeedsFirebase reports whether a Firebase app must be initialized.
func (c *Config) NeedsFirebase() bool {
	return !c.AuthDisabled || c.StoreBackend == BackendFirestore
}

// Credentials returns the service account JSON with escaped newlines in
// private_key restored, as env vars usually carry it on one line.
func (c *Config) Credentials() ([]byte, error) {
	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(c.KeyData), &parsed); err != nil {
		return nil, fmt.Errorf("error unmarshalling key data: %w", err)
	}
	if key, ok := parsed["private_key"].(string); ok {
		parsed["private_key"] = strings.ReplaceAll(key, "\\n", "\n")
	}
	out, err := json.Marshal(parsed)
	if err != nil {
		return nil, fmt.Errorf("error marshalling key data: %w", err)
	}
	return out, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
