package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Mode selects how external collaborators are reached. In test mode
// Directory calls are short-circuited and tokens are verified locally
// against AuthTokenSecret.
const (
	ModeProd = "prod"
	ModeTest = "test"
)

type ServerConfig struct {
	ListenPort int    `env:"LISTEN_PORT" envDefault:"8080"`
	Mode       string `env:"MODE" envDefault:"prod"`

	DirectoryURL    string `env:"DIRECTORY_URL"`
	AuthTokenSecret string `env:"AUTH_TOKEN_SECRET"`

	ReconnectGraceMS        int `env:"RECONNECT_GRACE_MS" envDefault:"60000"`
	DefaultActionTimeoutSec int `env:"DEFAULT_ACTION_TIMEOUT_SEC" envDefault:"30"`
}

func (c ServerConfig) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.ListenPort)
}

func (c ServerConfig) ReconnectGrace() time.Duration {
	return time.Duration(c.ReconnectGraceMS) * time.Millisecond
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	if err := env.Parse(&cfg); err != nil {
		return ServerConfig{}, err
	}
	if cfg.Mode != ModeProd && cfg.Mode != ModeTest {
		return ServerConfig{}, fmt.Errorf("config: MODE must be prod or test, got %q", cfg.Mode)
	}
	if cfg.Mode == ModeProd && cfg.DirectoryURL == "" {
		return ServerConfig{}, fmt.Errorf("config: DIRECTORY_URL is required in prod mode")
	}
	return cfg, nil
}
