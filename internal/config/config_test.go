package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:        "development",
		DBSSLMode:  "disable",
		JWTSecret:  "secure-secret-at-least-32-chars-long",
		DBPassword: "secure-password",
		Port:       "8080",
		BlobDriver: "fs",
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

func TestConfig_ValidateBlobDriver(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"fs", func(c *Config) {}, false},
		{"memory in development", func(c *Config) { c.BlobDriver = "memory" }, false},
		{"s3 without bucket", func(c *Config) { c.BlobDriver = "s3" }, true},
		{"s3 with bucket", func(c *Config) { c.BlobDriver = "s3"; c.S3Bucket = "designs" }, false},
		{"minio without endpoint", func(c *Config) { c.BlobDriver = "minio"; c.MinioBucket = "designs" }, true},
		{"minio configured", func(c *Config) {
			c.BlobDriver = "minio"
			c.MinioBucket = "designs"
			c.MinioEndpoint = "minio:9000"
		}, false},
		{"unknown driver", func(c *Config) { c.BlobDriver = "ftp" }, true},
		{"memory in production", func(c *Config) {
			c.Env = "production"
			c.DBSSLMode = "require"
			c.BlobDriver = "memory"
		}, true},
		{"dev staff in production", func(c *Config) {
			c.Env = "production"
			c.DBSSLMode = "require"
			c.DevBootstrapStaff = true
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateProductionSecrets(t *testing.T) {
	c := validConfig()
	c.Env = "production"
	c.DBSSLMode = "require"
	c.JWTSecret = "your-secret-key-change-in-production"
	assert.Error(t, c.Validate())

	c.JWTSecret = "short"
	assert.Error(t, c.Validate())

	c.JWTSecret = "secure-secret-at-least-32-chars-long"
	c.DBPassword = "password"
	assert.Error(t, c.Validate())
}

func TestLoadConfig_Normalization(t *testing.T) {
	defer viper.Reset()

	t.Setenv("APP_ENV", "development")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("BLOB_DRIVER", " Memory ")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "memory", c.BlobDriver)
	assert.Equal(t, "design_request_events", c.AMQPQueue)
	assert.Equal(t, 25, c.DBMaxOpenConns)
}
