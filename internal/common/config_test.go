package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := LoadConfig()
	cfg.Auth.JWTSecret = "secret"
	cfg.LLM.APIKey = "sk-test"
	return cfg
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()
	require.Equal(t, ":8000", cfg.Server.Addr)
	require.EqualValues(t, 10<<20, cfg.Upload.MaxBytes)
	require.Equal(t, 8*24*time.Hour, cfg.Auth.TokenTTL)
	require.Zero(t, cfg.Batch.FailureRatio, "failure policy is off by default")
	require.Contains(t, cfg.Upload.AllowedExtensions, "pdf")
	require.Contains(t, cfg.Upload.AllowedExtensions, "jpeg")
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9001")
	t.Setenv("FAILURE_RATIO", "0.25")
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("ALLOWED_EXTENSIONS", ".PDF, png")

	cfg := LoadConfig()
	require.Equal(t, ":9001", cfg.Server.Addr)
	require.Equal(t, 0.25, cfg.Batch.FailureRatio)
	require.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL)
	require.Equal(t, map[string]struct{}{"pdf": {}, "png": {}}, cfg.Upload.AllowedExtensions)
}

func TestValidateRequiredFields(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())

	missingSecret := validConfig()
	missingSecret.Auth.JWTSecret = ""
	require.Error(t, missingSecret.Validate())

	missingKey := validConfig()
	missingKey.LLM.APIKey = ""
	require.Error(t, missingKey.Validate())

	badRatio := validConfig()
	badRatio.Batch.FailureRatio = 1.5
	require.Error(t, badRatio.Validate())

	badUpload := validConfig()
	badUpload.Upload.MaxBytes = 0
	require.Error(t, badUpload.Validate())
}
