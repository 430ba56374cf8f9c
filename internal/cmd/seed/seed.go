// Package seed parses seed command flags and populates a demo database.
package seed

import (
	"context"
	"flag"
	"io"
	"log"
	"time"

	entrypoint "github.com/talio-hq/talio/internal/platform/cmd"
	"github.com/talio-hq/talio/internal/seed"
	"github.com/talio-hq/talio/internal/server/authn"
	"github.com/talio-hq/talio/internal/storage/sqlite"
)

// Config holds seed command configuration.
type Config struct {
	DBPath     string        `env:"TALIO_DB_PATH" envDefault:"data/talio.db"`
	AuthSecret string        `env:"TALIO_AUTH_SECRET"`
	TokenTTL   time.Duration `env:"TALIO_TOKEN_TTL" envDefault:"12h"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The SQLite database path")
	fs.StringVar(&cfg.AuthSecret, "auth-secret", cfg.AuthSecret, "The HS256 session token secret; omit to skip token output")
	fs.DurationVar(&cfg.TokenTTL, "token-ttl", cfg.TokenTTL, "The demo session token lifetime")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run seeds the database and reports the demo identities.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceSeed, func(ctx context.Context) error {
		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Printf("close store: %v", err)
			}
		}()

		var auth *authn.Authenticator
		if cfg.AuthSecret != "" {
			auth, err = authn.New(cfg.AuthSecret, cfg.TokenTTL, nil)
			if err != nil {
				return err
			}
		}

		result, err := seed.Run(ctx, store, auth, nil)
		if err != nil {
			return err
		}
		seed.Report(out, result)
		return nil
	})
}
