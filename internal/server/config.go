package server

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/npek/portal/internal/config"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTesting     = "testing"
)

func LoadConfig() (*config.AppConfig, error) {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = EnvDevelopment
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	if dir := os.Getenv("CONFIG_PATH"); dir != "" {
		v.AddConfigPath(dir)
	}
	v.AddConfigPath("./config/server")

	setDefaults(v)
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config config.AppConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Load environment-specific configurations
	if envSettings := v.GetStringMap(fmt.Sprintf("grpc.%s", env)); len(envSettings) > 0 {
		if err := v.UnmarshalKey(fmt.Sprintf("grpc.%s", env), &config.GRPC); err != nil {
			return nil, fmt.Errorf("error unmarshaling env config: %w", err)
		}
	}

	if port := os.Getenv("PORT"); port != "" {
		config.Server.Port = port
	}

	if !v.IsSet("auth.secure_cookie") {
		config.Auth.SecureCookie = env == EnvProduction && strings.HasPrefix(config.Server.BaseURL, "https://")
	}

	if err := validateConfig(&config, env); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.base_url", "https://pashq.ru")

	v.SetDefault("grpc.enabled", false)
	v.SetDefault("grpc.port", "9090")
	v.SetDefault("grpc.enable_reflection", true)
	v.SetDefault("grpc.max_receive_message_size", 4<<20)
	v.SetDefault("grpc.max_send_message_size", 4<<20)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "/data/npek.db")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("auth.secret_key", "default-secret-key-change-this-in-production")
	v.SetDefault("auth.session_lifetime", 31*24*time.Hour)
	v.SetDefault("auth.cookie_name", "npek_session")
	v.SetDefault("auth.code_length", 4)
	v.SetDefault("auth.code_ttl", 5*time.Minute)
	v.SetDefault("auth.max_attempts", 3)
	v.SetDefault("auth.block_duration", 10*time.Minute)
	v.SetDefault("auth.cleanup_interval", time.Hour)

	v.SetDefault("bot.super_admin_id", int64(5720640497))
	v.SetDefault("bot.delivery_timeout", 5*time.Second)
	v.SetDefault("bot.poll_timeout", time.Minute)
	v.SetDefault("bot.send_rate", 25.0)
	v.SetDefault("bot.send_burst", 5)

	v.SetDefault("content.social_studies_primary_doc", "1NinpeaaHuRZtMvFWs3Wp3vXVPnzu05PDCoJhh5RnWYQ")
	v.SetDefault("content.social_studies_secondary_doc", "1DYEZFxMTJ9v76dWqkAy8vZ_A0n1EeZDtZCBcmcDoBIw")
	v.SetDefault("content.philosophy_doc", "")
}

func bindEnv(v *viper.Viper) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("bot.token", "BOT_TOKEN")
	_ = v.BindEnv("bot.passphrase_hash", "BOT_PASSPHRASE_HASH")
	_ = v.BindEnv("auth.secret_key", "SECRET_KEY")
	_ = v.BindEnv("database.dsn", "DATABASE_DSN")
	_ = v.BindEnv("database.driver", "DATABASE_DRIVER")
}

func validateConfig(cfg *config.AppConfig, env string) error {
	switch cfg.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver: %q", cfg.Database.Driver)
	}

	if cfg.Auth.CodeLength <= 0 || cfg.Auth.MaxAttempts <= 0 {
		return errors.New("auth.code_length and auth.max_attempts must be positive")
	}

	if env == EnvProduction && cfg.Auth.SecretKey == "default-secret-key-change-this-in-production" {
		return errors.New("auth.secret_key must be set in production")
	}

	return nil
}
