package config

import "testing"

type testEnvConfig struct {
	Addr string `env:"TALIO_TEST_ADDR" envDefault:"127.0.0.1:8080"`
	Mode string `env:"TALIO_TEST_MODE" envDefault:"server"`
}

func TestParseEnvUsesDefaults(t *testing.T) {
	var cfg testEnvConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Addr != "127.0.0.1:8080" || cfg.Mode != "server" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestParseEnvReadsVariables(t *testing.T) {
	t.Setenv("TALIO_TEST_ADDR", "0.0.0.0:9000")
	var cfg testEnvConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Addr != "0.0.0.0:9000" {
		t.Fatalf("addr = %q", cfg.Addr)
	}
}
