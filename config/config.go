// Package config loads service configuration from an optional JSON file plus
// TOPICRADAR_* environment variables, env winning over file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the radar service.
type Config struct {
	General GeneralConfig `mapstructure:"general"`
	Server  ServerConfig  `mapstructure:"server"`
	LLM     LLMConfig     `mapstructure:"llm"`
	Storage StorageConfig `mapstructure:"storage"`
	Search  SearchConfig  `mapstructure:"search"`
}

// GeneralConfig contains general application settings.
type GeneralConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Address        string   `mapstructure:"address"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LLMConfig configures the hosted model provider.
type LLMConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	ResearchModel  string        `mapstructure:"research_model"`
	StructureModel string        `mapstructure:"structure_model"`
	MaxTokens      int           `mapstructure:"max_tokens"`
	MaxWebSearches int           `mapstructure:"max_web_searches"`
	MaxRetries     int           `mapstructure:"max_retries"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

func (l LLMConfig) Validate() error {
	if l.APIKey == "" {
		return errors.New("llm.api_key is required (set TOPICRADAR_LLM_API_KEY)")
	}
	if l.MaxRetries < 0 {
		return errors.New("llm.max_retries must be >= 0")
	}
	return nil
}

// StorageConfig locates the history database.
type StorageConfig struct {
	SQLitePath string `mapstructure:"sqlite_path"`
}

// SearchConfig tunes the aggregated search variant.
type SearchConfig struct {
	MaxResults int `mapstructure:"max_results"`
	MaxSources int `mapstructure:"max_sources"`
}

// LoadConfig reads configuration from path, or from the default search paths
// when path is empty. A missing config file is fine; defaults and environment
// variables still apply.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")

	v.SetDefault("general.debug", false)
	v.SetDefault("general.log_level", "info")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.allowed_origins", []string{"*"})
	// Registered with an empty default so AutomaticEnv picks it up during
	// Unmarshal even when no config file sets it.
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "https://api.anthropic.com")
	v.SetDefault("llm.research_model", "claude-opus-4-6")
	v.SetDefault("llm.structure_model", "claude-opus-4-6")
	v.SetDefault("llm.max_tokens", 8192)
	v.SetDefault("llm.max_web_searches", 3)
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.timeout", 5*time.Minute)
	v.SetDefault("storage.sqlite_path", "data/history.db")
	v.SetDefault("search.max_results", 20)
	v.SetDefault("search.max_sources", 10)

	if path == "" {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("TOPICRADAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.LLM.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
