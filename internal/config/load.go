package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from, in increasing precedence: built-in
// defaults, an optional config.yaml in the working directory, a .env file,
// and ASLEMA_-prefixed environment variables. The result is validated
// before being returned.
func Load() (*Config, error) {
	// A .env file is a developer convenience; absence is not an error.
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.env", "production")
	v.SetDefault("server.time_zone", "UTC")
	v.SetDefault("session.default_new_limit", 5)
	v.SetDefault("session.default_due_limit", 20)
	v.SetDefault("session.default_locale", "fr")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("ASLEMA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv does not register keys for Unmarshal; bind explicitly.
	for _, key := range []string{
		"server.port",
		"server.log_level",
		"server.env",
		"server.time_zone",
		"database.url",
		"auth.token_secret",
		"session.default_new_limit",
		"session.default_due_limit",
		"session.default_locale",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
