package seed

import (
	"flag"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "data/talio.db" {
		t.Fatalf("db_path = %q, want %q", cfg.DBPath, "data/talio.db")
	}
	if cfg.AuthSecret != "" {
		t.Fatalf("auth_secret = %q, want empty", cfg.AuthSecret)
	}
}

func TestParseConfigFlags(t *testing.T) {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-db-path", "/tmp/demo.db", "-auth-secret", "s3cret"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DBPath != "/tmp/demo.db" {
		t.Fatalf("db_path = %q, want %q", cfg.DBPath, "/tmp/demo.db")
	}
	if cfg.AuthSecret != "s3cret" {
		t.Fatalf("auth_secret = %q, want %q", cfg.AuthSecret, "s3cret")
	}
}
