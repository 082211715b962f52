package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Session  SessionConfig  `mapstructure:"session" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`

	// Env selects the runtime profile. The development profile additionally
	// mounts the /reviews/dev endpoints.
	Env string `mapstructure:"env" validate:"required,oneof=development production"`

	// TimeZone is the IANA zone used for all calendar-day computations
	// (streaks, daily budgets). Defaults to UTC.
	TimeZone string `mapstructure:"time_zone" validate:"required"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains identity-extraction settings. Token issuance lives in
// an external service; this application only verifies signatures.
type AuthConfig struct {
	// TokenSecret verifies externally issued HS256 bearer tokens. When
	// empty, only the X-User-ID header form of identity is accepted.
	TokenSecret string `mapstructure:"token_secret" validate:"omitempty,min=32"`
}

// SessionConfig contains the defaults for daily session composition.
type SessionConfig struct {
	DefaultNewLimit int    `mapstructure:"default_new_limit" validate:"required,gt=0"`
	DefaultDueLimit int    `mapstructure:"default_due_limit" validate:"required,gt=0"`
	DefaultLocale   string `mapstructure:"default_locale"    validate:"required"`
}
