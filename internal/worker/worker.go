// Package worker drains the HR outbox and drives workflow automation.
//
// Events are leased in batches, evaluated against the owning organization's
// enabled workflows, then settled as succeeded, retried with exponential
// backoff, or parked as dead once the attempt budget is spent. A periodic
// sweep flips compliance items past their due date to overdue, which feeds
// compliance.item.overdue events back through the same outbox.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/talio-hq/talio/internal/domain/compliance"
	"github.com/talio-hq/talio/internal/event"
	"github.com/talio-hq/talio/internal/metrics"
	"github.com/talio-hq/talio/internal/storage"
)

// Loop defaults applied by Config.normalized.
const (
	defaultConsumer      = "talio-worker"
	defaultPollInterval  = 2 * time.Second
	defaultLeaseTTL      = 30 * time.Second
	defaultBatchSize     = 16
	defaultMaxAttempts   = 5
	defaultRetryBackoff  = 5 * time.Second
	defaultRetryMaxDelay = 5 * time.Minute
	defaultSweepInterval = time.Minute
)

// Store is the persistence surface the worker loop needs beyond the engine.
type Store interface {
	EngineStore

	LeaseOutboxEvents(ctx context.Context, consumer string, limit int, now time.Time, leaseTTL time.Duration) ([]storage.OutboxEvent, error)
	MarkOutboxSucceeded(ctx context.Context, id, consumer string, processedAt time.Time) error
	MarkOutboxRetry(ctx context.Context, id, consumer string, nextAttemptAt time.Time, lastError string) error
	MarkOutboxDead(ctx context.Context, id, consumer, lastError string, processedAt time.Time) error
	MarkOverdueComplianceItems(ctx context.Context, now time.Time, newEnvelope func(item compliance.ActionItem) (event.Envelope, error)) ([]compliance.ActionItem, error)
}

// Config controls the worker loop behavior.
type Config struct {
	Consumer      string
	PollInterval  time.Duration
	LeaseTTL      time.Duration
	BatchSize     int
	MaxAttempts   int
	RetryBackoff  time.Duration
	RetryMaxDelay time.Duration
	SweepInterval time.Duration
}

func (c Config) normalized() Config {
	if strings.TrimSpace(c.Consumer) == "" {
		c.Consumer = defaultConsumer
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.LeaseTTL <= 0 {
		c.LeaseTTL = defaultLeaseTTL
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = defaultRetryBackoff
	}
	if c.RetryMaxDelay <= 0 {
		c.RetryMaxDelay = defaultRetryMaxDelay
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = defaultSweepInterval
	}
	return c
}

// Worker leases outbox events and dispatches them to the workflow engine.
type Worker struct {
	store  Store
	engine *Engine
	cfg    Config
	now    func() time.Time
	logf   func(format string, args ...any)
}

// New builds a worker over the given store and engine.
func New(store Store, engine *Engine, cfg Config, now func() time.Time, logf func(format string, args ...any)) *Worker {
	if now == nil {
		now = time.Now
	}
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Worker{
		store:  store,
		engine: engine,
		cfg:    cfg.normalized(),
		now:    now,
		logf:   logf,
	}
}

// Run drives the poll and sweep loops until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	poll := time.NewTicker(w.cfg.PollInterval)
	defer poll.Stop()
	sweep := time.NewTicker(w.cfg.SweepInterval)
	defer sweep.Stop()

	w.logf("worker running consumer=%s poll=%s lease=%s", w.cfg.Consumer, w.cfg.PollInterval, w.cfg.LeaseTTL)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-poll.C:
			if err := w.ProcessOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				w.logf("process outbox: %v", err)
			}
		case <-sweep.C:
			if err := w.SweepOverdue(ctx); err != nil && !errors.Is(err, context.Canceled) {
				w.logf("sweep overdue items: %v", err)
			}
		}
	}
}

// ProcessOnce leases one batch of due events and settles each of them.
func (w *Worker) ProcessOnce(ctx context.Context) error {
	moment := w.now().UTC()
	events, err := w.store.LeaseOutboxEvents(ctx, w.cfg.Consumer, w.cfg.BatchSize, moment, w.cfg.LeaseTTL)
	if err != nil {
		return fmt.Errorf("lease outbox events: %w", err)
	}

	for _, evt := range events {
		w.settle(ctx, evt)
	}
	return nil
}

func (w *Worker) settle(ctx context.Context, evt storage.OutboxEvent) {
	handleErr := w.engine.HandleEvent(ctx, evt)
	moment := w.now().UTC()

	if handleErr == nil {
		if err := w.store.MarkOutboxSucceeded(ctx, evt.ID, w.cfg.Consumer, moment); err != nil {
			w.logf("mark event %s succeeded: %v", evt.ID, err)
			return
		}
		metrics.EventsProcessed.WithLabelValues("succeeded").Inc()
		return
	}

	// AttemptCount reflects prior failures; this failed attempt makes one more.
	attempts := evt.AttemptCount + 1
	if attempts >= w.cfg.MaxAttempts {
		if err := w.store.MarkOutboxDead(ctx, evt.ID, w.cfg.Consumer, handleErr.Error(), moment); err != nil {
			w.logf("mark event %s dead: %v", evt.ID, err)
			return
		}
		metrics.EventsProcessed.WithLabelValues("dead").Inc()
		w.logf("event %s dead after %d attempts: %v", evt.ID, attempts, handleErr)
		return
	}

	nextAttemptAt := moment.Add(w.backoff(attempts))
	if err := w.store.MarkOutboxRetry(ctx, evt.ID, w.cfg.Consumer, nextAttemptAt, handleErr.Error()); err != nil {
		w.logf("mark event %s retry: %v", evt.ID, err)
		return
	}
	metrics.EventsProcessed.WithLabelValues("retry").Inc()
	w.logf("event %s retry %d at %s: %v", evt.ID, attempts, nextAttemptAt.Format(time.RFC3339), handleErr)
}

// backoff returns the delay before the given attempt number, doubling per
// failure and capped at RetryMaxDelay.
func (w *Worker) backoff(attempts int) time.Duration {
	delay := w.cfg.RetryBackoff
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= w.cfg.RetryMaxDelay {
			return w.cfg.RetryMaxDelay
		}
	}
	if delay > w.cfg.RetryMaxDelay {
		return w.cfg.RetryMaxDelay
	}
	return delay
}

// SweepOverdue flips due compliance items to overdue. Each flipped item
// enqueues a compliance.item.overdue event so workflows can react to it.
func (w *Worker) SweepOverdue(ctx context.Context) error {
	moment := w.now().UTC()
	flipped, err := w.store.MarkOverdueComplianceItems(ctx, moment, func(item compliance.ActionItem) (event.Envelope, error) {
		return event.New(item.OrgID, event.TypeComplianceItemOverdue, item.ID, map[string]any{
			"item_title": item.Title,
			"tracker_id": item.TrackerID,
			"due_date":   item.DueDate.UTC().Format(time.RFC3339),
		}, w.now, nil)
	})
	if err != nil {
		return fmt.Errorf("mark overdue items: %w", err)
	}
	if len(flipped) > 0 {
		metrics.OverdueItemsMarked.Add(float64(len(flipped)))
		w.logf("marked %d compliance items overdue", len(flipped))
	}
	return nil
}
