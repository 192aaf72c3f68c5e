package config

import (
	"fmt"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	RedisURL    string `env:"REDIS_URL"`
	Port        int    `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string `env:"APP_ENV" envDefault:"production"`

	OpTimeoutS    int `env:"OP_TIMEOUT_S" envDefault:"30"`
	LockStripes   int `env:"LOCK_STRIPES" envDefault:"256"`
	IDMaxAttempts int `env:"ID_MAX_ATTEMPTS" envDefault:"5"`

	BalanceCacheTTLS        int `env:"BALANCE_CACHE_TTL_S" envDefault:"60"`
	PendingCleanupIntervalS int `env:"PENDING_CLEANUP_INTERVAL_S" envDefault:"300"`
	PendingCutoffS          int `env:"PENDING_CUTOFF_S" envDefault:"3600"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}
