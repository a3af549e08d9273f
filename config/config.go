// Package config loads application settings from the environment and
// an optional config file.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds everything the CLI and server need to run.
type Config struct {
	OpenAIAPIKey  string `mapstructure:"openai_api_key" validate:"required"`
	OpenAIBaseURL string `mapstructure:"openai_base_url"`
	TavilyAPIKey  string `mapstructure:"tavily_api_key" validate:"required"`

	Model       string  `mapstructure:"model" validate:"required"`
	Temperature float64 `mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int     `mapstructure:"max_tokens" validate:"gte=0"`

	MaxAnalysts      int `mapstructure:"max_analysts" validate:"gte=1,lte=6"`
	MaxTurns         int `mapstructure:"max_turns" validate:"gte=1,lte=5"`
	MaxSearchResults int `mapstructure:"max_search_results" validate:"gte=1"`
	Parallelism      int `mapstructure:"parallelism" validate:"gte=0"`

	ServerAddress string `mapstructure:"server_address" validate:"required"`
	PostgresDSN   string `mapstructure:"postgres_dsn"`
	LogLevel      string `mapstructure:"log_level" validate:"oneof=trace debug info warn error"`
}

// Load reads configuration from environment variables and, when path
// is non-empty, a config file. Environment variables win.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("model", "gpt-4o")
	v.SetDefault("temperature", 0.0)
	v.SetDefault("max_tokens", 2000)
	v.SetDefault("max_analysts", 3)
	v.SetDefault("max_turns", 2)
	v.SetDefault("max_search_results", 3)
	v.SetDefault("parallelism", 0)
	v.SetDefault("server_address", ":8080")
	v.SetDefault("log_level", "info")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range []string{
		"openai_api_key", "openai_base_url", "tavily_api_key",
		"model", "temperature", "max_tokens",
		"max_analysts", "max_turns", "max_search_results", "parallelism",
		"server_address", "postgres_dsn", "log_level",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}
