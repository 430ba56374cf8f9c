package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/talio-hq/talio/internal/event"
	"github.com/talio-hq/talio/internal/storage"
)

func enqueueTestEvent(t *testing.T, store *Store, id string, occurredAt time.Time) {
	t.Helper()
	envelope, err := event.New("org-1", event.TypeEmployeeCreated, "emp-1", map[string]any{"first_name": "Aminata"},
		func() time.Time { return occurredAt }, staticID(id))
	if err != nil {
		t.Fatalf("new envelope: %v", err)
	}
	if err := store.EnqueueEvent(context.Background(), envelope); err != nil {
		t.Fatalf("enqueue event: %v", err)
	}
}

func TestLeaseOutboxEventsClaimsDueEvents(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	seedOrganization(t, store, "org-1")

	enqueueTestEvent(t, store, "evt-1", fixedNow())
	enqueueTestEvent(t, store, "evt-2", fixedNow().Add(time.Second))

	leased, err := store.LeaseOutboxEvents(ctx, "worker-a", 10, fixedNow().Add(time.Minute), time.Minute)
	if err != nil {
		t.Fatalf("lease events: %v", err)
	}
	if len(leased) != 2 {
		t.Fatalf("leased = %d, want 2", len(leased))
	}
	if leased[0].ID != "evt-1" {
		t.Errorf("first leased = %q, want evt-1", leased[0].ID)
	}
	for _, evt := range leased {
		if evt.Status != storage.OutboxStatusLeased {
			t.Errorf("event %s status = %q, want leased", evt.ID, evt.Status)
		}
		if evt.LeaseOwner != "worker-a" {
			t.Errorf("event %s lease owner = %q, want worker-a", evt.ID, evt.LeaseOwner)
		}
	}

	// A second consumer sees nothing while the lease holds.
	other, err := store.LeaseOutboxEvents(ctx, "worker-b", 10, fixedNow().Add(time.Minute), time.Minute)
	if err != nil {
		t.Fatalf("lease as worker-b: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("worker-b leased = %d, want 0", len(other))
	}
}

func TestLeaseOutboxEventsReclaimsExpiredLease(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	seedOrganization(t, store, "org-1")
	enqueueTestEvent(t, store, "evt-1", fixedNow())

	if _, err := store.LeaseOutboxEvents(ctx, "worker-a", 1, fixedNow(), time.Minute); err != nil {
		t.Fatalf("lease as worker-a: %v", err)
	}

	reclaimed, err := store.LeaseOutboxEvents(ctx, "worker-b", 1, fixedNow().Add(2*time.Minute), time.Minute)
	if err != nil {
		t.Fatalf("lease as worker-b: %v", err)
	}
	if len(reclaimed) != 1 || reclaimed[0].LeaseOwner != "worker-b" {
		t.Fatalf("reclaimed = %+v, want one event owned by worker-b", reclaimed)
	}

	// The original owner can no longer settle the event.
	err = store.MarkOutboxSucceeded(ctx, "evt-1", "worker-a", fixedNow().Add(3*time.Minute))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("stale owner settle err = %v, want ErrNotFound", err)
	}
}

func TestMarkOutboxRetryAndDead(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	seedOrganization(t, store, "org-1")
	enqueueTestEvent(t, store, "evt-1", fixedNow())

	leased, err := store.LeaseOutboxEvents(ctx, "worker-a", 1, fixedNow(), time.Minute)
	if err != nil || len(leased) != 1 {
		t.Fatalf("lease events: %v (leased %d)", err, len(leased))
	}

	retryAt := fixedNow().Add(30 * time.Second)
	if err := store.MarkOutboxRetry(ctx, "evt-1", "worker-a", retryAt, "dispatch failed"); err != nil {
		t.Fatalf("mark retry: %v", err)
	}
	evt, err := store.GetOutboxEvent(ctx, "evt-1")
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	if evt.Status != storage.OutboxStatusPending {
		t.Errorf("status after retry = %q, want pending", evt.Status)
	}
	if evt.AttemptCount != 1 {
		t.Errorf("attempt count = %d, want 1", evt.AttemptCount)
	}
	if !evt.NextAttemptAt.Equal(retryAt) {
		t.Errorf("next attempt = %v, want %v", evt.NextAttemptAt, retryAt)
	}

	// Not due again until the backoff elapses.
	early, err := store.LeaseOutboxEvents(ctx, "worker-a", 1, fixedNow().Add(10*time.Second), time.Minute)
	if err != nil {
		t.Fatalf("early lease: %v", err)
	}
	if len(early) != 0 {
		t.Fatalf("early leased = %d, want 0", len(early))
	}

	leased, err = store.LeaseOutboxEvents(ctx, "worker-a", 1, retryAt, time.Minute)
	if err != nil || len(leased) != 1 {
		t.Fatalf("re-lease events: %v (leased %d)", err, len(leased))
	}
	if err := store.MarkOutboxDead(ctx, "evt-1", "worker-a", "gave up", retryAt.Add(time.Second)); err != nil {
		t.Fatalf("mark dead: %v", err)
	}
	evt, err = store.GetOutboxEvent(ctx, "evt-1")
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	if evt.Status != storage.OutboxStatusDead {
		t.Errorf("status = %q, want dead", evt.Status)
	}
	if evt.LastError != "gave up" {
		t.Errorf("last error = %q, want %q", evt.LastError, "gave up")
	}
}
