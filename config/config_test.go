package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutCredentials(t *testing.T) {
	t.Setenv("REGION", "eu-central-1")
	t.Setenv("PUBLIC_BASE_URL", "https://calls.example.com/")
	for _, key := range []string{"GPT_API_KEY", "OPENAI_API_KEY", "GPT_MODEL", "TELEPHONY_MODE", "DYNAMO_TABLE_NAME", "JWKS_URL", "PORT", "SSE_STREAM_WORKERS"} {
		t.Setenv(key, "")
	}

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Empty(t, cfg.Gpt.ApiKey)
	assert.Equal(t, defaultGptModel, cfg.Gpt.Model)
	assert.Equal(t, 0.5, cfg.ElevenLabs.Stability)
	assert.Equal(t, 0.75, cfg.ElevenLabs.SimilarityBoost)
	assert.Equal(t, "Bella", cfg.ElevenLabs.DefaultVoice)
	assert.Equal(t, "https://calls.example.com/calls/status", cfg.Twilio.StatusCallbackURL())
	assert.False(t, cfg.Dynamo.Enabled())
	assert.False(t, cfg.Auth.Enabled())
	assert.Equal(t, time.Hour, cfg.S3.PresignExpiry)
	assert.True(t, cfg.Campaign.ReuseArtifacts)
	assert.Equal(t, 500, cfg.Campaign.StreamWorkers)
}

func TestLoad_ReadsEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("GPT_API_KEY=from-file\nTELEPHONY_MODE=simulated\n"), 0o600))
	t.Setenv("REGION", "eu-central-1")
	for _, key := range []string{"GPT_API_KEY", "TELEPHONY_MODE"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.Gpt.ApiKey)
	assert.Equal(t, SimulatedTelephonyMode, cfg.Twilio.Mode)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.env")

	t.Run("region", func(t *testing.T) {
		t.Setenv("REGION", "")
		t.Setenv("PUBLIC_BASE_URL", "https://calls.example.com")
		_, err := Load(missing)
		require.Error(t, err)
	})

	t.Run("stability", func(t *testing.T) {
		t.Setenv("REGION", "eu-central-1")
		t.Setenv("PUBLIC_BASE_URL", "https://calls.example.com")
		t.Setenv("ELEVEN_LABS_STABILITY", "1.5")
		_, err := Load(missing)
		require.Error(t, err)
	})

	t.Run("callback base url", func(t *testing.T) {
		t.Setenv("REGION", "eu-central-1")
		t.Setenv("PUBLIC_BASE_URL", "")
		t.Setenv("TELEPHONY_MODE", "twilio")
		_, err := Load(missing)
		require.Error(t, err)
	})

	t.Run("stream workers", func(t *testing.T) {
		t.Setenv("REGION", "eu-central-1")
		t.Setenv("PUBLIC_BASE_URL", "https://calls.example.com")
		t.Setenv("SSE_STREAM_WORKERS", "0")
		_, err := Load(missing)
		require.Error(t, err)
	})

	t.Run("workers", func(t *testing.T) {
		t.Setenv("REGION", "eu-central-1")
		t.Setenv("PUBLIC_BASE_URL", "https://calls.example.com")
		t.Setenv("CAMPAIGN_WORKERS", "0")
		_, err := Load(missing)
		require.Error(t, err)
	})
}
