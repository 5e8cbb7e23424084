package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Environment string          `mapstructure:"environment"`
	Version     string          `mapstructure:"version"`
	API         APIConfig       `mapstructure:"api"`
	Chat        ChatConfig      `mapstructure:"chat"`
	Logging     LoggingConfig   `mapstructure:"logging"`
	Analytics   AnalyticsConfig `mapstructure:"analytics"`
	Storage     StorageConfig   `mapstructure:"storage"`
	Server      ServerConfig    `mapstructure:"server"`
	LLM         LLMConfig       `mapstructure:"llm"`
}

// APIConfig holds the backend API configuration
type APIConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	SearchLimit int           `mapstructure:"search_limit"`
}

// ChatConfig holds the chat controller timings
type ChatConfig struct {
	RevealInterval time.Duration `mapstructure:"reveal_interval"`
	ClearDelay     time.Duration `mapstructure:"clear_delay"`
}

// LoggingConfig holds the logger configuration
type LoggingConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Level   string `mapstructure:"level"`
	File    string `mapstructure:"file"`
}

// AnalyticsConfig holds the tracking sinks configuration
type AnalyticsConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	GAMeasurementID string `mapstructure:"ga_measurement_id"`
	GAAPISecret     string `mapstructure:"ga_api_secret"`
	MetaPixelID     string `mapstructure:"meta_pixel_id"`
	MetaAccessToken string `mapstructure:"meta_access_token"`
}

// StorageConfig holds local file locations
type StorageConfig struct {
	SessionPath string `mapstructure:"session_path"`
	HistoryPath string `mapstructure:"history_path"`
}

// ServerConfig holds the server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

// LLMConfig holds the configuration for the optional tool-calling assistant
type LLMConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	APIKey       string `mapstructure:"api_key"`
	Model        string `mapstructure:"model"`
	SystemPrompt string `mapstructure:"system_prompt"`
	MaxTurns     int    `mapstructure:"max_turns"`
}

// Production reports whether the configured environment is production.
func (c Config) Production() bool {
	return strings.EqualFold(c.Environment, "production")
}

const envPrefix = "DERMACHAT"

func setDefaults(v *viper.Viper) {
	dataDir := defaultDataDir()

	v.SetDefault("environment", "development")
	v.SetDefault("version", "1.0.0")
	v.SetDefault("api.base_url", "http://localhost:5000/api")
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("api.search_limit", 4)
	v.SetDefault("chat.reveal_interval", 80*time.Millisecond)
	v.SetDefault("chat.clear_delay", 100*time.Millisecond)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "")
	v.SetDefault("analytics.enabled", false)
	v.SetDefault("analytics.ga_measurement_id", "")
	v.SetDefault("analytics.ga_api_secret", "")
	v.SetDefault("analytics.meta_pixel_id", "")
	v.SetDefault("analytics.meta_access_token", "")
	v.SetDefault("storage.session_path", filepath.Join(dataDir, "session.db"))
	v.SetDefault("storage.history_path", filepath.Join(dataDir, "history.db"))
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", "8080")
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.system_prompt", "")
	v.SetDefault("llm.max_turns", 5)
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "dermachat")
	}
	return "."
}

// Load loads the configuration from config.yaml, or from the file named by CONFIG_PATH.
// A missing config file is not an error; defaults and DERMACHAT_* environment
// variables still apply.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("logging.enabled")

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(defaultDataDir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Logging defaults to on everywhere except production.
	if !v.InConfig("logging.enabled") && os.Getenv(envPrefix+"_LOGGING_ENABLED") == "" {
		config.Logging.Enabled = !config.Production()
	}

	return &config, nil
}
