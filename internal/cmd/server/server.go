// Package server parses API server flags and launches the HTTP runtime.
package server

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	entrypoint "github.com/talio-hq/talio/internal/platform/cmd"
	"github.com/talio-hq/talio/internal/platform/timeouts"
	"github.com/talio-hq/talio/internal/server"
	"github.com/talio-hq/talio/internal/server/authn"
	"github.com/talio-hq/talio/internal/storage/sqlite"
)

// Config holds API server command configuration.
type Config struct {
	Port       int           `env:"TALIO_SERVER_PORT" envDefault:"8080"`
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
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The API server port")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The SQLite database path")
	fs.StringVar(&cfg.AuthSecret, "auth-secret", cfg.AuthSecret, "The HS256 session token secret")
	fs.DurationVar(&cfg.TokenTTL, "token-ttl", cfg.TokenTTL, "The session token lifetime")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the API server runtime and blocks until ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceServer, func(ctx context.Context) error {
		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Printf("close store: %v", err)
			}
		}()

		auth, err := authn.New(cfg.AuthSecret, cfg.TokenTTL, nil)
		if err != nil {
			return err
		}

		api := server.New(store, auth, nil)
		httpServer := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           api.Handler(),
			ReadHeaderTimeout: timeouts.ReadHeader,
		}

		serveErr := make(chan error, 1)
		go func() {
			log.Printf("api server listening on %s", httpServer.Addr)
			serveErr <- httpServer.ListenAndServe()
		}()

		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		case err := <-serveErr:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		}
	})
}
