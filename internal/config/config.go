package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/fx"
)

// Config carries the process configuration, loaded from the environment.
type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// HTTPAddr is the listen address of the operator read API.
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	// PhonePrefix is prepended to bare local numbers when matching guardians.
	PhonePrefix string `envconfig:"PHONE_PREFIX" default:"+48"`

	// WorkerPollInterval is the fallback re-check period of the intake loop,
	// covering notifications lost while no listener connection was up.
	WorkerPollInterval time.Duration `envconfig:"WORKER_POLL_INTERVAL" default:"30s"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

func Load() (Config, error) {
	// Missing .env is fine, the environment may be set by the supervisor.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("canteend", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

var Module = fx.Module("config",
	fx.Provide(Load),
)
