package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port           string        `env:"PORT,             default=8080"`
	Env            string        `env:"ENV,              default=development"`
	LogLevel       string        `env:"LOG_LEVEL,        default=info"`
	JWTSecret      string        `env:"JWT_SECRET,       required"`
	TokenTTL       time.Duration `env:"TOKEN_TTL,        default=24h"`
	LoginRateLimit float64       `env:"LOGIN_RATE_LIMIT, default=5"`

	Mongo     MongoConfig
	Redis     RedisConfig
	Artifacts ArtifactConfig
	Admin     AdminConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=badge_system"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type ArtifactConfig struct {
	Dir string `env:"ARTIFACT_DIR, default=./storage/badges"`
}

// AdminConfig seeds the first administrator. Seeding is skipped unless both
// email and password are set.
type AdminConfig struct {
	Name     string `env:"ADMIN_NAME, default=Airport Admin"`
	Email    string `env:"ADMIN_EMAIL"`
	Password string `env:"ADMIN_PASSWORD"`
}

// Enabled reports whether a bootstrap admin was configured.
func (a AdminConfig) Enabled() bool { return a.Email != "" && a.Password != "" }

// Development reports whether human-friendly logs should be used.
func (c *Config) Development() bool { return c.Env == "development" }

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("config: TOKEN_TTL must be positive, got %s", cfg.TokenTTL)
	}
	if cfg.LoginRateLimit <= 0 {
		return nil, fmt.Errorf("config: LOGIN_RATE_LIMIT must be positive, got %v", cfg.LoginRateLimit)
	}
	return &cfg, nil
}
