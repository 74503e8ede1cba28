// Package config provides configuration management for the application.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	YouTube  YouTubeConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Worker   WorkerConfig
	Logging  LoggingConfig
}

// YouTubeConfig contains the upstream API credentials and quota policy.
type YouTubeConfig struct {
	APIKey          string
	DailyQuota      int
	QuotaThreshold  int
	QuotaTrackingOn bool
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int
	APIKeys         []string
	ShutdownTimeout time.Duration
}

// DatabaseConfig contains database connection configuration.
type DatabaseConfig struct {
	Host           string
	Name           string
	User           string
	Password       string
	SSLMode        string
	Port           int
	MaxConnections int
	MinConnections int
	MaxIdleTime    time.Duration
	MaxLifetime    time.Duration
}

// RedisConfig contains the Redis connection used by the queue and the shared
// memoization cache.
type RedisConfig struct {
	URL       string
	ReportTTL time.Duration
}

// CacheConfig controls resolution and collection memoization.
type CacheConfig struct {
	TTL time.Duration
}

// WorkerConfig contains asynq worker configuration.
type WorkerConfig struct {
	Concurrency int
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level string
	File  string
}

// Load loads configuration from file and environment variables.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()

	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate rejects configurations that cannot serve a single request.
func (c *Config) Validate() error {
	if c.YouTube.APIKey == "" {
		return fmt.Errorf("youtube.apikey is required (set APP_YOUTUBE_APIKEY)")
	}
	if c.YouTube.QuotaThreshold < 0 || c.YouTube.QuotaThreshold > 100 {
		return fmt.Errorf("youtube.quotathreshold must be between 0 and 100, got %d", c.YouTube.QuotaThreshold)
	}
	return nil
}

func setDefaults() {
	// YouTube
	viper.SetDefault("youtube.apikey", "")
	viper.SetDefault("youtube.dailyquota", 10000)
	viper.SetDefault("youtube.quotathreshold", 90)
	viper.SetDefault("youtube.quotatrackingon", false)

	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.apikeys", []string{})
	viper.SetDefault("server.shutdowntimeout", 30*time.Second)

	// Database
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "channel_reports")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.maxconnections", 10)
	viper.SetDefault("database.minconnections", 2)
	viper.SetDefault("database.maxidletime", 10*time.Minute)
	viper.SetDefault("database.maxlifetime", 1*time.Hour)

	// Redis
	viper.SetDefault("redis.url", "redis://localhost:6379/0")
	viper.SetDefault("redis.reportttl", time.Hour)

	// Cache
	viper.SetDefault("cache.ttl", 15*time.Minute)

	// Worker
	viper.SetDefault("worker.concurrency", 5)

	// Logging
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.file", "")
}
