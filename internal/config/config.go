package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"     validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"       validate:"required"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" validate:"required"`
}

// Operating modes accepted in ServerConfig.Environment.
const (
	EnvironmentDevelopment = "development"
	EnvironmentTest        = "test"
	EnvironmentProduction  = "production"
)

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// Environment selects diagnostic verbosity: full error detail is only
	// written to the operator log outside production.
	Environment string `mapstructure:"environment" validate:"required,oneof=development test production"`
}

// IsProduction reports whether the server runs in production mode.
func (c ServerConfig) IsProduction() bool {
	return c.Environment == EnvironmentProduction
}

// DatabaseConfig contains all database-related configuration settings.
// An empty URL selects the in-memory user repository.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

// AuthConfig contains all authentication settings.
type AuthConfig struct {
	JWTSecret                   string `mapstructure:"jwt_secret"                     validate:"required,min=32"`
	AccessTokenLifetimeMinutes  int    `mapstructure:"access_token_lifetime_minutes"  validate:"required,gt=0,lte=60"`
	RefreshTokenLifetimeMinutes int    `mapstructure:"refresh_token_lifetime_minutes" validate:"required,gtfield=AccessTokenLifetimeMinutes"`
	// ClockSkewSeconds is the leeway granted on exp/iat checks. Zero means a
	// token fails the second it expires.
	ClockSkewSeconds int `mapstructure:"clock_skew_seconds" validate:"gte=0,lte=300"`
	// CookieSecure sets the Secure attribute on the refresh token cookie.
	CookieSecure bool `mapstructure:"cookie_secure"`
}

// RateLimitConfig bounds how often one client may hit the credential endpoints.
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"required,gt=0"`
	Burst             int     `mapstructure:"burst"               validate:"required,gt=0"`
}
