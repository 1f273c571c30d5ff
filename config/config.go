// Package config loads the service configuration: defaults first, then an
// optional YAML file, then AICREW_-prefixed environment overrides.
package config

import (
	"fmt"
	"time"
)

// Config is the full service configuration.
type Config struct {
	Redis    RedisConfig    `yaml:"redis" env:"REDIS"`
	Database DatabaseConfig `yaml:"database" env:"DATABASE"`
	LLM      LLMConfig      `yaml:"llm" env:"LLM"`
	Log      LogConfig      `yaml:"log" env:"LOG"`
	Dispatch DispatchConfig `yaml:"dispatch" env:"DISPATCH"`
}

// RedisConfig covers the queue and the memory store.
type RedisConfig struct {
	Addr         string `yaml:"addr" env:"ADDR"`
	Password     string `yaml:"password" env:"PASSWORD"`
	DB           int    `yaml:"db" env:"DB"`
	QueueKey     string `yaml:"queue_key" env:"QUEUE_KEY"`
	MemoryPrefix string `yaml:"memory_prefix" env:"MEMORY_PREFIX"`
}

// DatabaseConfig locates the embedded board database.
type DatabaseConfig struct {
	Path string `yaml:"path" env:"PATH"`
}

// LLMConfig configures the chat completions backend.
type LLMConfig struct {
	BaseURL           string  `yaml:"base_url" env:"BASE_URL"`
	APIKey            string  `yaml:"api_key" env:"API_KEY"`
	Model             string  `yaml:"model" env:"MODEL"`
	RequestsPerSecond float64 `yaml:"requests_per_second" env:"REQUESTS_PER_SECOND"`
	Burst             int     `yaml:"burst" env:"BURST"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// DispatchConfig bounds the worker pool and exposes the metrics listener.
type DispatchConfig struct {
	MaxConcurrent   int           `yaml:"max_concurrent" env:"MAX_CONCURRENT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	MetricsAddr     string        `yaml:"metrics_addr" env:"METRICS_ADDR"`
}

// Default returns the configuration used when nothing else is specified.
func Default() *Config {
	return &Config{
		Redis: RedisConfig{
			Addr:         "localhost:6379",
			QueueKey:     "aicrew:tasks",
			MemoryPrefix: "aicrew:memory:",
		},
		Database: DatabaseConfig{
			Path: "aicrew.db",
		},
		LLM: LLMConfig{
			BaseURL:           "https://api.openai.com/v1",
			Model:             "gpt-4o-mini",
			RequestsPerSecond: 2,
			Burst:             4,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Dispatch: DispatchConfig{
			MaxConcurrent:   4,
			ShutdownTimeout: 30 * time.Second,
			MetricsAddr:     ":9090",
		},
	}
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	if c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr must not be empty")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("config: database.path must not be empty")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("config: llm.model must not be empty")
	}
	if c.Dispatch.MaxConcurrent < 1 {
		return fmt.Errorf("config: dispatch.max_concurrent must be at least 1, got %d", c.Dispatch.MaxConcurrent)
	}
	return nil
}
