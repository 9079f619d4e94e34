package config

import "time"

// Config holds runtime configuration for the drip-course bot.
type Config struct {
	AppEnv    string          `mapstructure:"app_env"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Bot       BotConfig       `mapstructure:"bot"`
	Server    ServerConfig    `mapstructure:"server"`
	Sheets    SheetsConfig    `mapstructure:"sheets"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Jobs      JobsConfig      `mapstructure:"jobs"`
}

// LoggerConfig controls slog output.
type LoggerConfig struct {
	Level  string        `mapstructure:"level"`
	Format string        `mapstructure:"format"`
	File   LogFileConfig `mapstructure:"file"`
}

// LogFileConfig controls rotating file output. An empty path disables it.
type LogFileConfig struct {
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// BotConfig holds Telegram transport settings.
type BotConfig struct {
	Token string `mapstructure:"token" validate:"required"`
	// Mode selects the update source: "webhook" or "longpoll".
	Mode          string        `mapstructure:"mode" validate:"oneof=webhook longpoll"`
	Timeout       time.Duration `mapstructure:"timeout"`
	WebhookURL    string        `mapstructure:"webhook_url"`
	WebhookListen string        `mapstructure:"webhook_listen"`
	ChannelID     int64         `mapstructure:"channel_id" validate:"required"`
	AdminContact  string        `mapstructure:"admin_contact"`
}

// ServerConfig holds settings for the operational HTTP server.
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// SheetsConfig holds Google Sheets store settings. The spreadsheet carries
// the user registry and the content map.
type SheetsConfig struct {
	SpreadsheetID   string        `mapstructure:"spreadsheet_id" validate:"required"`
	CredentialsFile string        `mapstructure:"credentials_file" validate:"required"`
	UsersSheet      string        `mapstructure:"users_sheet"`
	ContentSheet    string        `mapstructure:"content_sheet"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
}

// RedisConfig holds connection settings for locks, idempotency, rate
// limiting, and background jobs. Disabled deployments fall back to
// in-process equivalents.
type RedisConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Addr         string `mapstructure:"addr"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

// SentryConfig controls error reporting.
type SentryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

// RateLimitRule is one limit/window pair.
type RateLimitRule struct {
	Limit  int    `mapstructure:"limit"`
	Window string `mapstructure:"window"`
}

// RateLimitConfig controls per-user throttling of incoming updates.
type RateLimitConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	PerUser   RateLimitRule `mapstructure:"per_user"`
	Global    RateLimitRule `mapstructure:"global"`
	Whitelist []int64       `mapstructure:"whitelist"`
}

// JobsConfig controls the background reminder worker.
type JobsConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	ReminderCron string `mapstructure:"reminder_cron"`
}
