package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/talio-hq/talio/internal/event"
	"github.com/talio-hq/talio/internal/storage"
)

// enqueueEventTx writes one HR event into the outbox inside a transaction.
// Mutations call this so the event shares the mutation's commit.
func enqueueEventTx(tx *sql.Tx, envelope event.Envelope) error {
	payloadJSON, err := envelope.MarshalPayload()
	if err != nil {
		return err
	}
	occurredAt := toMillis(envelope.OccurredAt)
	_, err = tx.Exec(`
INSERT INTO hr_outbox (
	id, org_id, event_type, subject_id, payload_json,
	status, attempt_count, next_attempt_at,
	lease_owner, lease_expires_at, last_error, processed_at,
	created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, 0, ?, '', NULL, '', NULL, ?, ?)
`,
		envelope.ID,
		envelope.OrgID,
		envelope.Type,
		envelope.SubjectID,
		payloadJSON,
		storage.OutboxStatusPending,
		occurredAt,
		occurredAt,
		occurredAt,
	)
	if err != nil {
		return fmt.Errorf("enqueue outbox event: %w", err)
	}
	return nil
}

// EnqueueEvent writes one HR event into the outbox on its own transaction.
func (s *Store) EnqueueEvent(ctx context.Context, envelope event.Envelope) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return enqueueEventTx(tx, envelope)
	})
}

const outboxColumns = `
	id,
	org_id,
	event_type,
	subject_id,
	payload_json,
	status,
	attempt_count,
	next_attempt_at,
	lease_owner,
	lease_expires_at,
	last_error,
	processed_at,
	created_at,
	updated_at
`

type outboxScanner func(dest ...any) error

func scanOutboxEvent(scan outboxScanner) (storage.OutboxEvent, error) {
	var (
		evt            storage.OutboxEvent
		nextAttemptAt  int64
		leaseExpiresAt sql.NullInt64
		processedAt    sql.NullInt64
		createdAt      int64
		updatedAt      int64
	)
	if err := scan(
		&evt.ID,
		&evt.OrgID,
		&evt.EventType,
		&evt.SubjectID,
		&evt.PayloadJSON,
		&evt.Status,
		&evt.AttemptCount,
		&nextAttemptAt,
		&evt.LeaseOwner,
		&leaseExpiresAt,
		&evt.LastError,
		&processedAt,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.OutboxEvent{}, err
	}
	evt.NextAttemptAt = fromMillis(nextAttemptAt)
	if leaseExpiresAt.Valid {
		evt.LeaseExpiresAt = fromMillis(leaseExpiresAt.Int64)
	}
	if processedAt.Valid {
		evt.ProcessedAt = fromMillis(processedAt.Int64)
	}
	evt.CreatedAt = fromMillis(createdAt)
	evt.UpdatedAt = fromMillis(updatedAt)
	return evt, nil
}

// GetOutboxEvent returns one outbox event by ID.
func (s *Store) GetOutboxEvent(ctx context.Context, id string) (storage.OutboxEvent, error) {
	if err := s.ready(ctx); err != nil {
		return storage.OutboxEvent{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return storage.OutboxEvent{}, fmt.Errorf("event id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+outboxColumns+` FROM hr_outbox WHERE id = ?`, id)
	evt, err := scanOutboxEvent(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.OutboxEvent{}, storage.ErrNotFound
		}
		return storage.OutboxEvent{}, fmt.Errorf("get outbox event: %w", err)
	}
	return evt, nil
}

// LeaseOutboxEvents leases due outbox events for one worker consumer.
// Events are due when pending with a passed next_attempt_at, or leased with
// an expired lease.
func (s *Store) LeaseOutboxEvents(ctx context.Context, consumer string, limit int, now time.Time, leaseTTL time.Duration) ([]storage.OutboxEvent, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	consumer = strings.TrimSpace(consumer)
	if consumer == "" {
		return nil, fmt.Errorf("consumer is required")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}
	if leaseTTL <= 0 {
		return nil, fmt.Errorf("lease ttl must be greater than zero")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	now = now.UTC()
	leaseExpiresAt := now.Add(leaseTTL)

	var leased []storage.OutboxEvent
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
SELECT id
FROM hr_outbox
WHERE (
	(status = ? AND next_attempt_at <= ?)
	OR
	(status = ? AND lease_expires_at IS NOT NULL AND lease_expires_at <= ?)
)
ORDER BY next_attempt_at ASC, created_at ASC, id ASC
LIMIT ?
`,
			storage.OutboxStatusPending,
			toMillis(now),
			storage.OutboxStatusLeased,
			toMillis(now),
			limit,
		)
		if err != nil {
			return fmt.Errorf("select lease candidates: %w", err)
		}
		var candidateIDs []string
		for rows.Next() {
			var id string
			if scanErr := rows.Scan(&id); scanErr != nil {
				_ = rows.Close()
				return fmt.Errorf("scan lease candidate: %w", scanErr)
			}
			candidateIDs = append(candidateIDs, id)
		}
		if err := rows.Err(); err != nil {
			_ = rows.Close()
			return fmt.Errorf("iterate lease candidates: %w", err)
		}
		if err := rows.Close(); err != nil {
			return fmt.Errorf("close lease candidates: %w", err)
		}

		for _, id := range candidateIDs {
			result, err := tx.ExecContext(ctx, `
UPDATE hr_outbox
SET status = ?, lease_owner = ?, lease_expires_at = ?, updated_at = ?
WHERE id = ?
AND (
	(status = ? AND next_attempt_at <= ?)
	OR
	(status = ? AND lease_expires_at IS NOT NULL AND lease_expires_at <= ?)
)
`,
				storage.OutboxStatusLeased,
				consumer,
				toMillis(leaseExpiresAt),
				toMillis(now),
				id,
				storage.OutboxStatusPending,
				toMillis(now),
				storage.OutboxStatusLeased,
				toMillis(now),
			)
			if err != nil {
				return fmt.Errorf("lease outbox event %s: %w", id, err)
			}
			affected, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("lease rows affected for %s: %w", id, err)
			}
			if affected == 0 {
				continue
			}

			row := tx.QueryRowContext(ctx, `SELECT `+outboxColumns+` FROM hr_outbox WHERE id = ?`, id)
			evt, scanErr := scanOutboxEvent(row.Scan)
			if scanErr != nil {
				return fmt.Errorf("scan leased outbox event %s: %w", id, scanErr)
			}
			leased = append(leased, evt)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if leased == nil {
		leased = []storage.OutboxEvent{}
	}
	return leased, nil
}

// MarkOutboxSucceeded marks one leased outbox event as succeeded.
func (s *Store) MarkOutboxSucceeded(ctx context.Context, id, consumer string, processedAt time.Time) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	consumer = strings.TrimSpace(consumer)
	if id == "" || consumer == "" {
		return fmt.Errorf("event id and consumer are required")
	}
	if processedAt.IsZero() {
		processedAt = time.Now().UTC()
	}
	processedAt = processedAt.UTC()

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE hr_outbox
SET status = ?, lease_owner = '', lease_expires_at = NULL, last_error = '', processed_at = ?, updated_at = ?
WHERE id = ? AND status = ? AND lease_owner = ?
`,
		storage.OutboxStatusSucceeded,
		toMillis(processedAt),
		toMillis(processedAt),
		id,
		storage.OutboxStatusLeased,
		consumer,
	)
	if err != nil {
		return fmt.Errorf("mark outbox succeeded: %w", err)
	}
	return requireRowAffected(result)
}

// MarkOutboxRetry returns one leased outbox event to pending for a later attempt.
func (s *Store) MarkOutboxRetry(ctx context.Context, id, consumer string, nextAttemptAt time.Time, lastError string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	consumer = strings.TrimSpace(consumer)
	if id == "" || consumer == "" {
		return fmt.Errorf("event id and consumer are required")
	}
	if nextAttemptAt.IsZero() {
		return fmt.Errorf("next attempt at is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE hr_outbox
SET status = ?, attempt_count = attempt_count + 1, next_attempt_at = ?,
	lease_owner = '', lease_expires_at = NULL, last_error = ?, processed_at = NULL, updated_at = ?
WHERE id = ? AND status = ? AND lease_owner = ?
`,
		storage.OutboxStatusPending,
		toMillis(nextAttemptAt.UTC()),
		strings.TrimSpace(lastError),
		toMillis(time.Now().UTC()),
		id,
		storage.OutboxStatusLeased,
		consumer,
	)
	if err != nil {
		return fmt.Errorf("mark outbox retry: %w", err)
	}
	return requireRowAffected(result)
}

// MarkOutboxDead marks one leased outbox event as permanently failed.
func (s *Store) MarkOutboxDead(ctx context.Context, id, consumer, lastError string, processedAt time.Time) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	consumer = strings.TrimSpace(consumer)
	if id == "" || consumer == "" {
		return fmt.Errorf("event id and consumer are required")
	}
	if processedAt.IsZero() {
		processedAt = time.Now().UTC()
	}
	processedAt = processedAt.UTC()

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE hr_outbox
SET status = ?, attempt_count = attempt_count + 1,
	lease_owner = '', lease_expires_at = NULL, last_error = ?, processed_at = ?, updated_at = ?
WHERE id = ? AND status = ? AND lease_owner = ?
`,
		storage.OutboxStatusDead,
		strings.TrimSpace(lastError),
		toMillis(processedAt),
		toMillis(processedAt),
		id,
		storage.OutboxStatusLeased,
		consumer,
	)
	if err != nil {
		return fmt.Errorf("mark outbox dead: %w", err)
	}
	return requireRowAffected(result)
}

func requireRowAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}
