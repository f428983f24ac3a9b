// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package config loads server configuration from file, environment and
// defaults.
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds the voterscan server configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Gemini     GeminiConfig     `mapstructure:"gemini"`
	Extraction ExtractionConfig `mapstructure:"extraction"`
	Watch      WatchConfig      `mapstructure:"watch"`
	Redis      RedisConfig      `mapstructure:"redis"`
	LogFile    string           `mapstructure:"log_file"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port      int    `mapstructure:"port"`
	UploadDir string `mapstructure:"upload_dir"`
}

// DatabaseConfig holds sqlite settings
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// GeminiConfig holds the model and API settings
type GeminiConfig struct {
	APIKey        string `mapstructure:"api_key"`
	Model         string `mapstructure:"model"`
	MaxConcurrent int    `mapstructure:"max_concurrent"`
	Retries       int    `mapstructure:"retries"`
}

// ExtractionConfig holds pipeline tuning knobs
type ExtractionConfig struct {
	DPI            float64 `mapstructure:"dpi"`
	MatchThreshold int     `mapstructure:"match_threshold"`
	WorkerCount    int     `mapstructure:"worker_count"`
}

// WatchConfig holds the drop-folder settings
type WatchConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Paths   []string `mapstructure:"paths"`
}

// RedisConfig holds the optional Redis queue settings
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	DB       int    `mapstructure:"db"`
	Password string `mapstructure:"password"`
}

// Load reads configuration from the given file, falling back to
// defaults when the file is absent. Environment variables with the
// VOTERSCAN_ prefix override file values.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.upload_dir", "./uploads")
	v.SetDefault("database.path", "./voterscan.db")
	v.SetDefault("gemini.model", "gemini-1.5-flash")
	v.SetDefault("gemini.max_concurrent", 50)
	v.SetDefault("gemini.retries", 5)
	v.SetDefault("extraction.dpi", 300.0)
	v.SetDefault("extraction.match_threshold", 0)
	v.SetDefault("extraction.worker_count", 2)
	v.SetDefault("watch.enabled", false)
	v.SetDefault("watch.paths", []string{"./watch"})
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("log_file", "voterscan.log")

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", configPath, err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
			log.Printf("Load: no config file found, using defaults")
		}
	}

	v.SetEnvPrefix("VOTERSCAN")
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// The API key usually comes from the environment, not the file.
	if config.Gemini.APIKey == "" {
		config.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	}

	if err := os.MkdirAll(config.Server.UploadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	if dir := filepath.Dir(config.Database.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database dir: %w", err)
		}
	}

	return &config, nil
}
