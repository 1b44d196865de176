package config

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnv(t *testing.T, env map[string]string) {
	t.Helper()
	for _, key := range []string{
		"PORT", "ENVIRONMENT", "LOG_LEVEL", "STORE_BACKEND", "USERS_COLLECTION",
		"KEY_DATA", "FIREBASE_PROJECT_ID", "MONGO_URI", "DB_NAME",
		"REQUEST_TIMEOUT", "GARDEN_REFRESH_ON_FAILURE", "GARDEN_IDLE_TTL", "AUTH_DISABLED",
	} {
		t.Setenv(key, env[key])
	}
}

func TestLoad_Defaults(t *testing.T) {
	setEnv(t, map[string]string{"KEY_DATA": `{"type":"service_account"}`})

	cfg, _, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, BackendFirestore, cfg.StoreBackend)
	assert.Equal(t, "users", cfg.UsersCollection)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.False(t, cfg.RefreshOnFailure)
	assert.Equal(t, 30*time.Minute, cfg.GardenIdleTTL)
	assert.False(t, cfg.IsProduction())
	assert.True(t, cfg.NeedsFirebase())
}

func TestLoad_Overrides(t *testing.T) {
	setEnv(t, map[string]string{
		"PORT":                      "9090",
		"ENVIRONMENT":               "production",
		"STORE_BACKEND":             "Mongo",
		"MONGO_URI":                 "mongodb://localhost:27017",
		"KEY_DATA":                  `{}`,
		"REQUEST_TIMEOUT":           "3s",
		"GARDEN_REFRESH_ON_FAILURE": "true",
		"GARDEN_IDLE_TTL":           "0",
	})

	cfg, _, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, BackendMongo, cfg.StoreBackend)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.True(t, cfg.RefreshOnFailure)
	assert.Zero(t, cfg.GardenIdleTTL)
	assert.True(t, cfg.IsProduction())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"missing key data", Config{StoreBackend: BackendFirestore, RequestTimeout: time.Second}, "KEY_DATA"},
		{"mongo without uri", Config{StoreBackend: BackendMongo, KeyData: "{}", RequestTimeout: time.Second}, "MONGO_URI"},
		{"unknown backend", Config{StoreBackend: "sqlite", KeyData: "{}", RequestTimeout: time.Second}, "unknown STORE_BACKEND"},
		{"auth disabled outside memory", Config{StoreBackend: BackendFirestore, AuthDisabled: true, RequestTimeout: time.Second}, "AUTH_DISABLED"},
		{"bad timeout", Config{StoreBackend: BackendMemory, KeyData: "{}"}, "REQUEST_TIMEOUT"},
		{"negative idle ttl", Config{StoreBackend: BackendMemory, KeyData: "{}", RequestTimeout: time.Second, GardenIdleTTL: -time.Minute}, "GARDEN_IDLE_TTL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	ok := Config{StoreBackend: BackendMemory, AuthDisabled: true, RequestTimeout: time.Second}
	assert.NoError(t, ok.Validate())
	assert.False(t, ok.NeedsFirebase())
}

func TestCredentials_RestoresPrivateKeyNewlines(t *testing.T) {
	cfg := Config{KeyData: `{"type":"service_account","private_key":"-----BEGIN-----\\nabc\\n-----END-----"}`}

	raw, err := cfg.Credentials()
	require.NoError(t, err)

	var parsed map[string]string
	require.NoError(t, json.Unmarshal(raw, &parsed))
	assert.Equal(t, "-----BEGIN-----\nabc\n-----END-----", parsed["private_key"])
	assert.Equal(t, "service_account", parsed["type"])
}

func TestCredentials_InvalidJSON(t *testing.T) {
	_, err := (&Config{KeyData: "not json"}).Credentials()
	assert.Error(t, err)
}
