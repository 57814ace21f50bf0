package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DiscordToken  string         `yaml:"discord_token"`
	OwnerID       string         `yaml:"owner_id"`
	DatabasePath  string         `yaml:"database_path"`
	LogLevel      string         `yaml:"log_level"`
	RetentionDays int            `yaml:"retention_days"`
	Health        HealthConfig   `yaml:"health"`
	Archive       ArchiveConfig  `yaml:"archive"`
	Cooldowns     CooldownConfig `yaml:"cooldowns"`
}

type HealthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type ArchiveConfig struct {
	StorageRoot    string `yaml:"storage_root"`
	WebhookName    string `yaml:"webhook_name"`
	RestoreDelayMs int    `yaml:"restore_delay_ms"`
}

type CooldownConfig struct {
	ClearSeconds   int `yaml:"clear_seconds"`
	RestoreSeconds int `yaml:"restore_seconds"`
	DefaultSeconds int `yaml:"default_seconds"`
}

func DefaultConfig() Config {
	return Config{
		DatabasePath:  "/data/lynx.db",
		LogLevel:      "info",
		RetentionDays: 30,
		Health:        HealthConfig{Enabled: false, Addr: ":8080"},
		Archive: ArchiveConfig{
			StorageRoot:    "/data/archives",
			WebhookName:    "Lynx Restore",
			RestoreDelayMs: 750,
		},
		Cooldowns: CooldownConfig{
			ClearSeconds:   10,
			RestoreSeconds: 30,
			DefaultSeconds: 3,
		},
	}
}

func Load() (Config, error) {
	cfg := DefaultConfig()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	if cfg.DiscordToken == "" {
		return Config{}, errors.New("DISCORD_TOKEN is required")
	}
	if cfg.Archive.RestoreDelayMs < 0 {
		cfg.Archive.RestoreDelayMs = 0
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.DiscordToken = envString("DISCORD_TOKEN", cfg.DiscordToken)
	cfg.OwnerID = envString("OWNER_ID", cfg.OwnerID)
	cfg.DatabasePath = envString("DATABASE_PATH", cfg.DatabasePath)
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)
	cfg.RetentionDays = envInt("RETENTION_DAYS", cfg.RetentionDays)
	cfg.Health.Enabled = envBool("HEALTH_ENABLED", cfg.Health.Enabled)
	cfg.Health.Addr = envString("HEALTH_ADDR", cfg.Health.Addr)
	cfg.Archive.StorageRoot = envString("ARCHIVE_STORAGE_ROOT", cfg.Archive.StorageRoot)
	cfg.Archive.WebhookName = envString("ARCHIVE_WEBHOOK_NAME", cfg.Archive.WebhookName)
	cfg.Archive.RestoreDelayMs = envInt("RESTORE_DELAY_MS", cfg.Archive.RestoreDelayMs)
	cfg.Cooldowns.ClearSeconds = envInt("COOLDOWN_CLEAR_SECONDS", cfg.Cooldowns.ClearSeconds)
	cfg.Cooldowns.RestoreSeconds = envInt("COOLDOWN_RESTORE_SECONDS", cfg.Cooldowns.RestoreSeconds)
	cfg.Cooldowns.DefaultSeconds = envInt("COOLDOWN_DEFAULT_SECONDS", cfg.Cooldowns.DefaultSeconds)
}

func BuildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	lvl := strings.ToLower(level)
	switch lvl {
	case "debug", "info", "warn", "error":
		cfg.Level = zap.NewAtomicLevelAt(parseLevel(lvl))
	default:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	return cfg.Build()
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		lower := strings.ToLower(value)
		return lower == "1" || lower == "true" || lower == "yes"
	}
	return fallback
}
