package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	LLM    LLMConfig    `mapstructure:"llm"`
	Twilio TwilioConfig `mapstructure:"twilio"`
	UI     UIConfig     `mapstructure:"ui"`
}

// LLMConfig holds OpenAI settings. The model is fixed in code; only the key
// source is configurable.
type LLMConfig struct {
	APIKeyEnv string `mapstructure:"api_key_env"`
	APIKey    string `mapstructure:"api_key"`
}

// TwilioConfig holds carrier settings. The auth token belongs in the
// environment or the secret store; the file value is a last resort.
type TwilioConfig struct {
	AccountSID string `mapstructure:"account_sid"`
	AuthToken  string `mapstructure:"auth_token"`
	From       string `mapstructure:"from"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	TimeFormat string `mapstructure:"time_format"`
}

// Load reads configuration from file and env. Env var overrides use prefix WAMSG_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("llm.api_key_env", "OPENAI_API_KEY")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("twilio.account_sid", "")
	v.SetDefault("twilio.auth_token", "")
	v.SetDefault("twilio.from", "")
	v.SetDefault("ui.time_format", "02/01 15:04")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("WAMSG_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "wamsg"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("WAMSG")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Save writes the provided config to disk, creating the config directory if
// needed. Secrets should go through the secret store instead; anything stored
// here ends up in plain text.
func Save(cfg Config) error {
	path := os.Getenv("WAMSG_CONFIG")
	if path == "" {
		path = filepath.Join(os.Getenv("HOME"), ".config", "wamsg", "config.toml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("llm.api_key_env", cfg.LLM.APIKeyEnv)
	v.Set("llm.api_key", cfg.LLM.APIKey)
	v.Set("twilio.account_sid", cfg.Twilio.AccountSID)
	v.Set("twilio.auth_token", cfg.Twilio.AuthToken)
	v.Set("twilio.from", cfg.Twilio.From)
	v.Set("ui.time_format", cfg.UI.TimeFormat)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
