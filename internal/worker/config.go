package worker

import (
	"time"

	"github.com/canteenhq/canteend/internal/config"
)

type Config struct {
	PollInterval   time.Duration
	ReconnectDelay time.Duration
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = 30 * time.Second
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = 5 * time.Second
	}
	return c
}

func DefaultConfig(cfg config.Config) Config {
	return Config{
		PollInterval: cfg.WorkerPollInterval,
	}.withDefaults()
}
