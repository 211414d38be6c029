package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "STORAGE_BACKEND", "DATA_FILE", "CORS_ORIGINS", "ENABLE_DEBUG_ROUTES", "STORE_TIMEOUT"} {
		t.Setenv(key, "")
	}
	cfg := FromEnv()

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, BackendFile, cfg.Backend)
	assert.Equal(t, "public/js/data.json", cfg.DataFile)
	assert.Empty(t, cfg.CORSOrigins)
	assert.True(t, cfg.EnableDebugRoutes)
	assert.Equal(t, 10*time.Second, cfg.StoreTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("STORAGE_BACKEND", "SQLite")
	t.Setenv("CORS_ORIGINS", "https://chama.example, http://localhost:5173 ,")
	t.Setenv("ENABLE_DEBUG_ROUTES", "false")
	t.Setenv("STORE_TIMEOUT", "3s")

	cfg := FromEnv()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.Equal(t, []string{"https://chama.example", "http://localhost:5173"}, cfg.CORSOrigins)
	assert.False(t, cfg.EnableDebugRoutes)
	assert.Equal(t, 3*time.Second, cfg.StoreTimeout)
}

func TestFromEnvIgnoresGarbage(t *testing.T) {
	t.Setenv("ENABLE_DEBUG_ROUTES", "maybe")
	t.Setenv("STORE_TIMEOUT", "soon")

	cfg := FromEnv()
	assert.True(t, cfg.EnableDebugRoutes)
	assert.Equal(t, 10*time.Second, cfg.StoreTimeout)
}

func TestValidate(t *testing.T) {
	var testCases = []struct {
		name    string
		mutate  func(c *Config)
		problem string
	}{
		{"bad port", func(c *Config) { c.Port = "http" }, "invalid port 'http'"},
		{"port range", func(c *Config) { c.Port = "70000" }, "invalid port 70000"},
		{"unknown backend", func(c *Config) { c.Backend = "s3" }, "invalid storage backend 's3'"},
		{"github creds", func(c *Config) { c.Backend = BackendGitHub }, "GITHUB_TOKEN, GITHUB_OWNER and GITHUB_REPO"},
		{"cloudinary creds", func(c *Config) { c.Backend = BackendCloudinary }, "CLOUDINARY_CLOUD_NAME"},
		{"mongo uri", func(c *Config) { c.Backend = BackendMongo; c.MongoURI = "localhost:27017" }, "invalid MONGO_URI"},
		{"sqlite path", func(c *Config) { c.Backend = BackendSQLite; c.SQLitePath = "" }, "SQLITE_PATH is required"},
		{"amqp scheme", func(c *Config) { c.AMQPURL = "http://rabbit" }, "invalid AMQP URL scheme 'http'"},
		{"timeout", func(c *Config) { c.StoreTimeout = 0 }, "invalid store timeout"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{Port: "3000", Backend: BackendFile, DataFile: "data.json", StoreTimeout: time.Second}
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tc.problem), err.Error())
		})
	}
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := &Config{Port: "x", Backend: "nope", StoreTimeout: 0}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, 3, strings.Count(err.Error(), "\n- "))
}

func TestEmailEnabled(t *testing.T) {
	cfg := &Config{ZeptoAPIURL: "https://api.zeptomail.com/v1.1/email", ZeptoAPIKey: "k", EmailFrom: "a@b.c"}
	assert.False(t, cfg.EmailEnabled())
	cfg.NotifyEmailTo = "t@b.c"
	assert.True(t, cfg.EmailEnabled())
}
