package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/talio-hq/talio/internal/storage"
)

// CreateNotification stores a rendered in-app notification.
func (s *Store) CreateNotification(ctx context.Context, notification storage.Notification) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO notifications (id, org_id, user_id, message_type, subject, body, read, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`,
		notification.ID,
		notification.OrgID,
		notification.UserID,
		notification.MessageType,
		notification.Subject,
		notification.Body,
		boolToInt(notification.Read),
		toMillis(notification.CreatedAt),
	); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// MarkNotificationRead flips a notification to read.
func (s *Store) MarkNotificationRead(ctx context.Context, orgID, userID, notificationID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE notifications
SET read = 1
WHERE id = ? AND org_id = ? AND user_id = ?
`, strings.TrimSpace(notificationID), strings.TrimSpace(orgID), strings.TrimSpace(userID))
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return requireRowAffected(result)
}

// ListNotifications returns a user's notifications, newest first.
func (s *Store) ListNotifications(ctx context.Context, orgID, userID string, unreadOnly bool) ([]storage.Notification, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	query := `
SELECT id, org_id, user_id, message_type, subject, body, read, created_at
FROM notifications
WHERE org_id = ? AND user_id = ?`
	args := []any{strings.TrimSpace(orgID), strings.TrimSpace(userID)}
	if unreadOnly {
		query += ` AND read = 0`
	}
	query += ` ORDER BY created_at DESC, id ASC`

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	notifications := []storage.Notification{}
	for rows.Next() {
		var (
			notification storage.Notification
			read         int
			createdAt    int64
		)
		if err := rows.Scan(
			&notification.ID,
			&notification.OrgID,
			&notification.UserID,
			&notification.MessageType,
			&notification.Subject,
			&notification.Body,
			&read,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notification.Read = read != 0
		notification.CreatedAt = fromMillis(createdAt)
		notifications = append(notifications, notification)
	}
	return notifications, rows.Err()
}
