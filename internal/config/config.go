package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	Redis    RedisConfig    `mapstructure:"redis" validate:"required"`
	Review   ReviewConfig   `mapstructure:"review" validate:"required"`
	Task     TaskConfig     `mapstructure:"task" validate:"required"`
}

// ServerConfig contains all HTTP server related settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all PostgreSQL related settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
	// TokenLifetimeMinutes is the validity window of access tokens.
	TokenLifetimeMinutes int `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
	// RefreshTokenLifetimeMinutes is the validity window of refresh tokens.
	RefreshTokenLifetimeMinutes int `mapstructure:"refresh_token_lifetime_minutes" validate:"required,gt=0"`
	// BcryptCost controls the work factor of password hashing. 0 selects the
	// bcrypt library default.
	BcryptCost int `mapstructure:"bcrypt_cost" validate:"gte=0,lte=31"`
}

// RedisConfig contains the session cache settings.
type RedisConfig struct {
	Addr              string `mapstructure:"addr" validate:"required"`
	Password          string `mapstructure:"password"`
	DB                int    `mapstructure:"db" validate:"gte=0"`
	SessionTTLMinutes int    `mapstructure:"session_ttl_minutes" validate:"required,gt=0"`
}

// ReviewConfig tunes the spaced-repetition scheduler. Zero values select the
// scheduler's built-in defaults, so every field is optional.
type ReviewConfig struct {
	MinEasiness         float64 `mapstructure:"min_easiness" validate:"gte=0"`
	InitialInterval     int     `mapstructure:"initial_interval" validate:"gte=0"`
	GraduationInterval  int     `mapstructure:"graduation_interval" validate:"gte=0"`
	PassThreshold       int     `mapstructure:"pass_threshold" validate:"gte=0,lte=5"`
	MasteryIntervalDays int     `mapstructure:"mastery_interval_days" validate:"gte=0"`
	// QueueLimit caps how many due words a single review queue hands out.
	QueueLimit int `mapstructure:"queue_limit" validate:"required,gt=0"`
}

// TaskConfig tunes the background task runner and the reminder scanner.
type TaskConfig struct {
	WorkerCount             int `mapstructure:"worker_count" validate:"required,gt=0"`
	QueueSize               int `mapstructure:"queue_size" validate:"required,gt=0"`
	ReminderIntervalMinutes int `mapstructure:"reminder_interval_minutes" validate:"required,gt=0"`
}
