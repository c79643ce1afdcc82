package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("WAMSG_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "OPENAI_API_KEY", cfg.LLM.APIKeyEnv)
	require.Empty(t, cfg.LLM.APIKey)
	require.Empty(t, cfg.Twilio.AccountSID)
	require.Empty(t, cfg.Twilio.From)
	require.Equal(t, "02/01 15:04", cfg.UI.TimeFormat)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := []byte(`
[llm]
api_key_env = "MY_OPENAI_KEY"

[twilio]
account_sid = "ACtest"
from = "whatsapp:+14155238886"
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	t.Setenv("WAMSG_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "MY_OPENAI_KEY", cfg.LLM.APIKeyEnv)
	require.Equal(t, "ACtest", cfg.Twilio.AccountSID)
	require.Equal(t, "whatsapp:+14155238886", cfg.Twilio.From)
	// unset fields keep defaults
	require.Equal(t, "02/01 15:04", cfg.UI.TimeFormat)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	t.Setenv("WAMSG_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	cfg.Twilio.AccountSID = "ACsaved"
	cfg.Twilio.From = "whatsapp:+12025550123"
	require.NoError(t, Save(cfg))

	got, err := Load()
	require.NoError(t, err)
	require.Equal(t, "ACsaved", got.Twilio.AccountSID)
	require.Equal(t, "whatsapp:+12025550123", got.Twilio.From)
}
