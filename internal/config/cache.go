package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// CacheConfig is the connection target for the shared hand-state cache.
type CacheConfig struct {
	Host string `env:"CACHE_HOST" envDefault:"localhost"`
	Port int    `env:"CACHE_PORT" envDefault:"5432"`
	DB   string `env:"CACHE_DB" envDefault:"holdem"`

	User     string `env:"CACHE_USER" envDefault:"holdem"`
	Password string `env:"CACHE_PASSWORD"`
}

// DSN renders the postgres connection string the pgx pool dials.
func (c CacheConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s", c.User, c.Password, c.Host, c.Port, c.DB)
}

func LoadCache() (CacheConfig, error) {
	var cfg CacheConfig
	err := env.Parse(&cfg)
	return cfg, err
}
