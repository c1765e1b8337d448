package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:                      "production",
		DBSSLMode:                "require",
		JWTSecret:                "secure-secret-at-least-32-chars-long",
		DBPassword:               "secure-password",
		Port:                     "8080",
		ImageMaxUploadSizeMB:     5,
		DBConnMaxLifetimeMinutes: 1,
		RedisURL:                 "redis://localhost:6379",
	}
}

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with disable SSL mode", "prod", "disable", true},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			c.Env = tt.env
			c.DBSSLMode = tt.sslMode

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateSecretsAndURL(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"default secret", func(c *Config) { c.JWTSecret = DefaultJWTSecret }, "JWT_SECRET must be changed"},
		{"short secret", func(c *Config) { c.JWTSecret = "short" }, "at least 32 characters"},
		{"weak db password", func(c *Config) { c.DBPassword = "password" }, "strong DB_PASSWORD"},
		{"missing port", func(c *Config) { c.Port = "" }, "PORT is required"},
		{"bad database url", func(c *Config) { c.DatabaseURL = "mysql://x" }, "DATABASE_URL must start"},
		{"zero upload size", func(c *Config) { c.ImageMaxUploadSizeMB = 0 }, "UPLOAD_MAX_SIZE_MB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	t.Run("database url skips discrete db checks", func(t *testing.T) {
		c := validConfig()
		c.DatabaseURL = "postgresql://u:p@db:5432/roommatch?sslmode=require"
		c.DBPassword = ""
		c.DBSSLMode = ""
		assert.NoError(t, c.Validate())
	})
}

func TestLoadConfig_DefaultsAndNormalization(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("APP_ENV", "development")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("JWT_EXPIRES_IN", "2h")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "5000", c.Port)
	assert.Equal(t, 2*time.Hour, c.TokenTTL())
	assert.Equal(t, 5, c.DBConnectRetries)
	assert.Equal(t, int64(5<<20), c.UploadLimitBytes())
	assert.True(t, c.ExposesDebugData())
	assert.False(t, c.IsProduction())
}

func TestTokenTTLFallback(t *testing.T) {
	c := &Config{}
	assert.Equal(t, 7*24*time.Hour, c.TokenTTL())
}
