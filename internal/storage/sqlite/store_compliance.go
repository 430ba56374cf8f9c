package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/talio-hq/talio/internal/domain/compliance"
	"github.com/talio-hq/talio/internal/event"
	"github.com/talio-hq/talio/internal/storage"
)

const complianceItemColumns = `
	id, org_id, tracker_id, title, assignee_id, due_date, status, priority,
	created_at, updated_at
`

// PutComplianceTracker inserts or updates a tracker.
func (s *Store) PutComplianceTracker(ctx context.Context, tracker compliance.Tracker) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO compliance_trackers (id, org_id, name, category, description, active, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	category = excluded.category,
	description = excluded.description,
	active = excluded.active,
	updated_at = excluded.updated_at
`,
		tracker.ID,
		tracker.OrgID,
		tracker.Name,
		compliance.CategoryLabel(tracker.Category),
		tracker.Description,
		boolToInt(tracker.Active),
		toMillis(tracker.CreatedAt),
		toMillis(tracker.UpdatedAt),
	); err != nil {
		return fmt.Errorf("put compliance tracker: %w", err)
	}
	return nil
}

// GetComplianceTracker returns one tracker scoped by organization.
func (s *Store) GetComplianceTracker(ctx context.Context, orgID, trackerID string) (compliance.Tracker, error) {
	if err := s.ready(ctx); err != nil {
		return compliance.Tracker{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, org_id, name, category, description, active, created_at, updated_at
FROM compliance_trackers
WHERE id = ? AND org_id = ?
`, strings.TrimSpace(trackerID), strings.TrimSpace(orgID))
	return scanComplianceTracker(row.Scan)
}

// ListComplianceTrackers returns all trackers of an organization.
func (s *Store) ListComplianceTrackers(ctx context.Context, orgID string) ([]compliance.Tracker, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, org_id, name, category, description, active, created_at, updated_at
FROM compliance_trackers
WHERE org_id = ?
ORDER BY name ASC, id ASC
`, strings.TrimSpace(orgID))
	if err != nil {
		return nil, fmt.Errorf("list compliance trackers: %w", err)
	}
	defer rows.Close()

	trackers := []compliance.Tracker{}
	for rows.Next() {
		tracker, err := scanComplianceTracker(rows.Scan)
		if err != nil {
			return nil, err
		}
		trackers = append(trackers, tracker)
	}
	return trackers, rows.Err()
}

// CreateComplianceItem stores a new action item.
func (s *Store) CreateComplianceItem(ctx context.Context, item compliance.ActionItem) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO compliance_items (`+complianceItemColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		item.ID,
		item.OrgID,
		item.TrackerID,
		item.Title,
		item.AssigneeID,
		toMillis(item.DueDate),
		compliance.ItemStatusLabel(item.Status),
		compliance.PriorityLabel(item.Priority),
		toMillis(item.CreatedAt),
		toMillis(item.UpdatedAt),
	); err != nil {
		return fmt.Errorf("insert compliance item: %w", err)
	}
	return nil
}

// UpdateComplianceItem persists status, assignee, and priority changes.
func (s *Store) UpdateComplianceItem(ctx context.Context, item compliance.ActionItem) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE compliance_items
SET title = ?, assignee_id = ?, due_date = ?, status = ?, priority = ?, updated_at = ?
WHERE id = ? AND org_id = ?
`,
		item.Title,
		item.AssigneeID,
		toMillis(item.DueDate),
		compliance.ItemStatusLabel(item.Status),
		compliance.PriorityLabel(item.Priority),
		toMillis(item.UpdatedAt),
		item.ID,
		item.OrgID,
	)
	if err != nil {
		return fmt.Errorf("update compliance item: %w", err)
	}
	return requireRowAffected(result)
}

// GetComplianceItem returns one action item scoped by organization.
func (s *Store) GetComplianceItem(ctx context.Context, orgID, itemID string) (compliance.ActionItem, error) {
	if err := s.ready(ctx); err != nil {
		return compliance.ActionItem{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT `+complianceItemColumns+`
FROM compliance_items
WHERE id = ? AND org_id = ?
`, strings.TrimSpace(itemID), strings.TrimSpace(orgID))
	return scanComplianceItem(row.Scan)
}

// ListComplianceItems returns the items of a tracker ordered by due date.
func (s *Store) ListComplianceItems(ctx context.Context, orgID, trackerID string) ([]compliance.ActionItem, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT `+complianceItemColumns+`
FROM compliance_items
WHERE org_id = ? AND tracker_id = ?
ORDER BY due_date ASC, id ASC
`, strings.TrimSpace(orgID), strings.TrimSpace(trackerID))
	if err != nil {
		return nil, fmt.Errorf("list compliance items: %w", err)
	}
	defer rows.Close()

	items := []compliance.ActionItem{}
	for rows.Next() {
		item, err := scanComplianceItem(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// MarkOverdueComplianceItems flips open and in-progress items past their due
// date to overdue, enqueueing a compliance.item.overdue event per item in the
// same transaction. Returns the items transitioned.
func (s *Store) MarkOverdueComplianceItems(ctx context.Context, now time.Time, newEnvelope func(item compliance.ActionItem) (event.Envelope, error)) ([]compliance.ActionItem, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	moment := toMillis(now.UTC())

	var flipped []compliance.ActionItem
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.Query(`
SELECT `+complianceItemColumns+`
FROM compliance_items
WHERE status IN (?, ?) AND due_date > 0 AND due_date < ?
ORDER BY due_date ASC, id ASC
`,
			compliance.ItemStatusLabel(compliance.ItemOpen),
			compliance.ItemStatusLabel(compliance.ItemInProgress),
			moment,
		)
		if err != nil {
			return fmt.Errorf("select due compliance items: %w", err)
		}
		candidates := []compliance.ActionItem{}
		for rows.Next() {
			item, err := scanComplianceItem(rows.Scan)
			if err != nil {
				rows.Close()
				return err
			}
			candidates = append(candidates, item)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()

		for _, item := range candidates {
			if _, err := tx.Exec(`
UPDATE compliance_items SET status = ?, updated_at = ? WHERE id = ?
`, compliance.ItemStatusLabel(compliance.ItemOverdue), moment, item.ID); err != nil {
				return fmt.Errorf("mark compliance item overdue: %w", err)
			}
			item.Status = compliance.ItemOverdue
			item.UpdatedAt = now.UTC()

			envelope, err := newEnvelope(item)
			if err != nil {
				return err
			}
			if err := enqueueEventTx(tx, envelope); err != nil {
				return err
			}
			flipped = append(flipped, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return flipped, nil
}

func scanComplianceTracker(scan func(dest ...any) error) (compliance.Tracker, error) {
	var (
		tracker       compliance.Tracker
		categoryLabel string
		active        int
		createdAt     int64
		updatedAt     int64
	)
	if err := scan(
		&tracker.ID,
		&tracker.OrgID,
		&tracker.Name,
		&categoryLabel,
		&tracker.Description,
		&active,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return compliance.Tracker{}, storage.ErrNotFound
		}
		return compliance.Tracker{}, fmt.Errorf("scan compliance tracker: %w", err)
	}
	tracker.Category = compliance.CategoryFromLabel(categoryLabel)
	tracker.Active = active != 0
	tracker.CreatedAt = fromMillis(createdAt)
	tracker.UpdatedAt = fromMillis(updatedAt)
	return tracker, nil
}

func scanComplianceItem(scan func(dest ...any) error) (compliance.ActionItem, error) {
	var (
		item          compliance.ActionItem
		statusLabel   string
		priorityLabel string
		dueDate       int64
		createdAt     int64
		updatedAt     int64
	)
	if err := scan(
		&item.ID,
		&item.OrgID,
		&item.TrackerID,
		&item.Title,
		&item.AssigneeID,
		&dueDate,
		&statusLabel,
		&priorityLabel,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return compliance.ActionItem{}, storage.ErrNotFound
		}
		return compliance.ActionItem{}, fmt.Errorf("scan compliance item: %w", err)
	}
	item.Status = compliance.ItemStatusFromLabel(statusLabel)
	item.Priority = compliance.PriorityFromLabel(priorityLabel)
	if dueDate > 0 {
		item.DueDate = fromMillis(dueDate)
	}
	item.CreatedAt = fromMillis(createdAt)
	item.UpdatedAt = fromMillis(updatedAt)
	return item, nil
}
