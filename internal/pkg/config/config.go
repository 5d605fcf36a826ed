package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port         string        `env:"PORT,          default=8080"`
	Env          string        `env:"ENV,           default=development"`
	TokenSecret  string        `env:"TOKEN_SECRET"`
	TokenTTL     time.Duration `env:"TOKEN_TTL,     default=24h"`
	MFATokenTTL  time.Duration `env:"MFA_TOKEN_TTL, default=5m"`
	OpTimeout    time.Duration `env:"OP_TIMEOUT,    default=10s"`
	TOTPIssuer   string        `env:"TOTP_ISSUER,   default=PasswordVault"`
	AuditWorkers int           `env:"AUDIT_WORKERS, default=4"`
	LogLevel     string        `env:"LOG_LEVEL,     default=info"`

	Mongo MongoConfig
	Redis RedisConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=password_vault"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
