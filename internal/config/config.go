package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken        string        `envconfig:"BOT_TOKEN" required:"true"`
	DBPath          string        `envconfig:"DB_PATH" default:"./data/smartquiz.db"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`   // debug|info|warn|error
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080"`  // healthz
	PollInterval    time.Duration `envconfig:"POLL_INTERVAL" default:"5m"` // re-check cadence while the gate rejects
	EmptyQAInterval time.Duration `envconfig:"EMPTY_QA_INTERVAL" default:"60s"`
}

// Load reads environment variables into Config.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
