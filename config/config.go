package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	HTTPAddr     string `envconfig:"HTTP_ADDR" default:":8080"`
	DatabasePath string `envconfig:"DATABASE_PATH" default:""`

	QueueCapacity int `envconfig:"QUEUE_CAPACITY" default:"128"`
	MaxInFlight   int `envconfig:"MAX_IN_FLIGHT" default:"8"`
	Workers       int `envconfig:"WORKERS" default:"4"`

	MaxAttempts int           `envconfig:"MAX_ATTEMPTS" default:"3"`
	RetryDelay  time.Duration `envconfig:"RETRY_DELAY" default:"2s"`

	LockLease      time.Duration `envconfig:"LOCK_LEASE" default:"5m"`
	IdempotencyTTL time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`

	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" default:"1m"`
	WarningWindow time.Duration `envconfig:"WARNING_WINDOW" default:"5m"`
}

func Load() (Config, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	var c Config
	err := envconfig.Process("payment", &c)
	return c, err
}
