// Package worker parses worker command flags and launches the worker runtime.
package worker

import (
	"context"
	"flag"
	"log"
	"time"

	entrypoint "github.com/talio-hq/talio/internal/platform/cmd"
	"github.com/talio-hq/talio/internal/storage/sqlite"
	"github.com/talio-hq/talio/internal/worker"
)

// Config holds worker command configuration.
type Config struct {
	DBPath        string        `env:"TALIO_DB_PATH" envDefault:"data/talio.db"`
	Consumer      string        `env:"TALIO_WORKER_CONSUMER" envDefault:"talio-worker"`
	PollInterval  time.Duration `env:"TALIO_WORKER_POLL_INTERVAL" envDefault:"2s"`
	LeaseTTL      time.Duration `env:"TALIO_WORKER_LEASE_TTL" envDefault:"30s"`
	BatchSize     int           `env:"TALIO_WORKER_BATCH_SIZE" envDefault:"16"`
	MaxAttempts   int           `env:"TALIO_WORKER_MAX_ATTEMPTS" envDefault:"5"`
	RetryBackoff  time.Duration `env:"TALIO_WORKER_RETRY_BACKOFF" envDefault:"5s"`
	RetryMaxDelay time.Duration `env:"TALIO_WORKER_RETRY_MAX_DELAY" envDefault:"5m"`
	SweepInterval time.Duration `env:"TALIO_WORKER_SWEEP_INTERVAL" envDefault:"1m"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The SQLite database path")
	fs.StringVar(&cfg.Consumer, "consumer", cfg.Consumer, "Outbox consumer name")
	fs.DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval, "Outbox poll interval")
	fs.DurationVar(&cfg.LeaseTTL, "lease-ttl", cfg.LeaseTTL, "Outbox lease duration")
	fs.IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "Maximum events leased per poll")
	fs.IntVar(&cfg.MaxAttempts, "max-attempts", cfg.MaxAttempts, "Maximum processing attempts before dead-letter")
	fs.DurationVar(&cfg.RetryBackoff, "retry-backoff", cfg.RetryBackoff, "Base retry backoff delay")
	fs.DurationVar(&cfg.RetryMaxDelay, "retry-max-delay", cfg.RetryMaxDelay, "Maximum retry delay")
	fs.DurationVar(&cfg.SweepInterval, "sweep-interval", cfg.SweepInterval, "Overdue compliance sweep interval")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the worker runtime and blocks until ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceWorker, func(ctx context.Context) error {
		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Printf("close store: %v", err)
			}
		}()

		engine := worker.NewEngine(store, nil, log.Printf)
		loop := worker.New(store, engine, worker.Config{
			Consumer:      cfg.Consumer,
			PollInterval:  cfg.PollInterval,
			LeaseTTL:      cfg.LeaseTTL,
			BatchSize:     cfg.BatchSize,
			MaxAttempts:   cfg.MaxAttempts,
			RetryBackoff:  cfg.RetryBackoff,
			RetryMaxDelay: cfg.RetryMaxDelay,
			SweepInterval: cfg.SweepInterval,
		}, nil, log.Printf)
		return loop.Run(ctx)
	})
}
