package worker

import (
	"flag"
	"testing"
	"time"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("worker", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Consumer != "talio-worker" {
		t.Fatalf("consumer = %q, want %q", cfg.Consumer, "talio-worker")
	}
	if cfg.PollInterval != 2*time.Second {
		t.Fatalf("poll_interval = %s, want %s", cfg.PollInterval, 2*time.Second)
	}
	if cfg.LeaseTTL != 30*time.Second {
		t.Fatalf("lease_ttl = %s, want %s", cfg.LeaseTTL, 30*time.Second)
	}
	if cfg.BatchSize != 16 {
		t.Fatalf("batch_size = %d, want 16", cfg.BatchSize)
	}
	if cfg.MaxAttempts != 5 {
		t.Fatalf("max_attempts = %d, want 5", cfg.MaxAttempts)
	}
	if cfg.SweepInterval != time.Minute {
		t.Fatalf("sweep_interval = %s, want %s", cfg.SweepInterval, time.Minute)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	t.Setenv("TALIO_WORKER_CONSUMER", "worker-b")
	t.Setenv("TALIO_WORKER_MAX_ATTEMPTS", "3")

	fs := flag.NewFlagSet("worker", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{
		"-poll-interval", "500ms",
		"-batch-size", "4",
		"-sweep-interval", "10s",
	})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Consumer != "worker-b" {
		t.Fatalf("consumer = %q, want %q", cfg.Consumer, "worker-b")
	}
	if cfg.MaxAttempts != 3 {
		t.Fatalf("max_attempts = %d, want 3", cfg.MaxAttempts)
	}
	if cfg.PollInterval != 500*time.Millisecond {
		t.Fatalf("poll_interval = %s, want %s", cfg.PollInterval, 500*time.Millisecond)
	}
	if cfg.BatchSize != 4 {
		t.Fatalf("batch_size = %d, want 4", cfg.BatchSize)
	}
	if cfg.SweepInterval != 10*time.Second {
		t.Fatalf("sweep_interval = %s, want %s", cfg.SweepInterval, 10*time.Second)
	}
}
