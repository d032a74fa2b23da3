package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

// TestDefaultConfig ensures the defaults are consistent on their own.
func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	require.NoError(t, InitConfig(config, "abc123", "v1.0.0", "2024-03-05"))
	assert.Equal(t, "4000", config.Server.Port)
	assert.Equal(t, StoreMongo, config.Store.Driver)
	assert.Equal(t, "mongodb://localhost:27017/apple", config.Mongo.URI)
	assert.Equal(t, "/images", config.Images.URLPrefix)
	assert.Equal(t, "./uploads", config.Images.Folder)
	assert.Equal(t, []string{"http://localhost:5173"}, config.CORS.AllowedOrigins)
	assert.Equal(t, "v1.0.0", config.GitTag)
	assert.Equal(t, "abc123", config.GitCommit)
}

// TestLoadConfigFile ensures yaml values override the defaults.
func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	content := `
log_level: debug
server:
  port: "8080"
  request_timeout: 5s
store:
  driver: bolt
images:
  url_prefix: /covers/
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	config := DefaultConfig()
	require.NoError(t, LoadConfigFile(path, config))
	assert.Equal(t, zapcore.DebugLevel, config.LogLevel)
	assert.Equal(t, "8080", config.Server.Port)
	assert.Equal(t, 5*time.Second, config.Server.RequestTimeout)
	assert.Equal(t, StoreBolt, config.Store.Driver)

	require.NoError(t, InitConfig(config, "", "", ""))
	assert.Equal(t, "/covers", config.Images.URLPrefix)
}

// TestLoadConfigFile_Missing ensures a missing file keeps the defaults.
func TestLoadConfigFile_Missing(t *testing.T) {
	config := DefaultConfig()
	require.NoError(t, LoadConfigFile(filepath.Join(t.TempDir(), "none.yml"), config))
	assert.Equal(t, DefaultConfig(), config)
}

// TestLoadConfigEnvs ensures environment variables take precedence.
func TestLoadConfigEnvs(t *testing.T) {
	t.Run("prefixed variables", func(t *testing.T) {
		t.Setenv("CATALOG_SERVER_PORT", "9000")
		t.Setenv("PORT", "7000")
		t.Setenv("CATALOG_STORE_DRIVER", "redis")
		t.Setenv("CATALOG_CORS_ALLOWED_ORIGINS", "http://a.test,http://b.test")
		config := DefaultConfig()
		require.NoError(t, LoadConfigEnvs("CATALOG", config))
		assert.Equal(t, "9000", config.Server.Port)
		assert.Equal(t, StoreRedis, config.Store.Driver)
		assert.Equal(t, []string{"http://a.test", "http://b.test"}, config.CORS.AllowedOrigins)
	})

	t.Run("conventional port", func(t *testing.T) {
		t.Setenv("PORT", "7000")
		config := DefaultConfig()
		require.NoError(t, LoadConfigEnvs("CATALOG", config))
		assert.Equal(t, "7000", config.Server.Port)
	})
}

// TestInitConfig ensures inconsistent settings are refused.
func TestInitConfig(t *testing.T) {
	testCases := []struct {
		name   string
		change func(*Config)
	}{
		{"empty port", func(c *Config) { c.Server.Port = "" }},
		{"unknown store", func(c *Config) { c.Store.Driver = "sqlite" }},
		{"postgres without dsn", func(c *Config) { c.Store.Driver = StorePostgres }},
		{"unknown images driver", func(c *Config) { c.Images.Driver = "ftp" }},
		{"s3 without bucket", func(c *Config) { c.Images.Driver = ImagesS3 }},
		{"relative url prefix", func(c *Config) { c.Images.URLPrefix = "images" }},
		{"mirror without redis", func(c *Config) { c.Mirror.Enable = true; c.Redis.Host = "" }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			config := DefaultConfig()
			tc.change(config)
			assert.Error(t, InitConfig(config, "", "", ""))
		})
	}

	config := DefaultConfig()
	config.Store.Driver = "BOLT"
	require.NoError(t, InitConfig(config, "", "", ""))
	assert.Equal(t, StoreBolt, config.Store.Driver)
}
