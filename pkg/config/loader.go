// Package config provides configuration loading and validation utilities.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from YAML files and environment variables, validates it, and returns the resulting Config.
func Load() (*Config, *viper.Viper, error) {
	if err := godotenv.Load(".env.local", ".env"); err != nil {
		// env files are optional
		_ = err
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	v := viper.New()
	v.SetConfigFile(fmt.Sprintf("./configs/%s.yaml", env))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.AppEnv = env

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return nil, nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, v, nil
}

// Watch logs config file edits so that operators see when a deployment picks
// up changed limits. Values already unmarshaled into Config are not mutated;
// a restart applies them.
func Watch(v *viper.Viper, log *slog.Logger) {
	if v == nil {
		return
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if log != nil {
			log.Info("config file changed", slog.String("file", e.Name), slog.String("op", e.Op.String()))
		}
	})
	v.WatchConfig()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("bot.mode", "longpoll")
	v.SetDefault("bot.timeout", "10s")
	v.SetDefault("bot.webhook_listen", ":8443")
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("sheets.users_sheet", "Users")
	v.SetDefault("sheets.content_sheet", "Content")
	v.SetDefault("sheets.request_timeout", "15s")
	v.SetDefault("jobs.reminder_cron", "0 10 * * *")
}
