package server

import (
	"flag"
	"testing"
	"time"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 8080 {
		t.Fatalf("port = %d, want 8080", cfg.Port)
	}
	if cfg.DBPath != "data/talio.db" {
		t.Fatalf("db_path = %q, want %q", cfg.DBPath, "data/talio.db")
	}
	if cfg.TokenTTL != 12*time.Hour {
		t.Fatalf("token_ttl = %s, want %s", cfg.TokenTTL, 12*time.Hour)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	t.Setenv("TALIO_SERVER_PORT", "9000")
	t.Setenv("TALIO_AUTH_SECRET", "env-secret")

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{
		"-port", "9001",
		"-db-path", "/tmp/custom.db",
		"-token-ttl", "1h",
	})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 9001 {
		t.Fatalf("port = %d, want 9001 (flag wins over env)", cfg.Port)
	}
	if cfg.DBPath != "/tmp/custom.db" {
		t.Fatalf("db_path = %q, want %q", cfg.DBPath, "/tmp/custom.db")
	}
	if cfg.AuthSecret != "env-secret" {
		t.Fatalf("auth_secret = %q, want %q", cfg.AuthSecret, "env-secret")
	}
	if cfg.TokenTTL != time.Hour {
		t.Fatalf("token_ttl = %s, want %s", cfg.TokenTTL, time.Hour)
	}
}
