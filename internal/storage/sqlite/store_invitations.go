package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/talio-hq/talio/internal/domain/invitation"
	"github.com/talio-hq/talio/internal/domain/org"
	apperrors "github.com/talio-hq/talio/internal/errors"
	"github.com/talio-hq/talio/internal/event"
	"github.com/talio-hq/talio/internal/storage"
)

const invitationColumns = `
	id, org_id, email, role, token_hash, status, expires_at, resend_count,
	last_sent_at, invited_by, accepted_by, accepted_at, created_at, updated_at
`

// IssueInvitation stores a new pending invitation, revokes prior pending
// invitations for the same address, and enqueues the invite.sent event in
// the same transaction.
func (s *Store) IssueInvitation(ctx context.Context, invite invitation.Invitation, envelope event.Envelope) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
UPDATE invitations
SET status = ?, updated_at = ?
WHERE org_id = ? AND email = ? AND status = ?
`,
			invitation.StatusLabel(invitation.StatusRevoked),
			toMillis(invite.CreatedAt),
			invite.OrgID,
			invite.Email,
			invitation.StatusLabel(invitation.StatusPending),
		); err != nil {
			return fmt.Errorf("revoke prior invitations: %w", err)
		}
		if err := insertInvitationTx(tx, invite); err != nil {
			return err
		}
		return enqueueEventTx(tx, envelope)
	})
}

func insertInvitationTx(tx *sql.Tx, invite invitation.Invitation) error {
	if _, err := tx.Exec(`
INSERT INTO invitations (`+invitationColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		invite.ID,
		invite.OrgID,
		invite.Email,
		org.RoleLabel(invite.Role),
		invite.TokenHash,
		invitation.StatusLabel(invite.Status),
		toMillis(invite.ExpiresAt),
		invite.ResendCount,
		toMillis(invite.LastSentAt),
		invite.InvitedByUserID,
		invite.AcceptedByUser,
		toMillis(invite.AcceptedAt),
		toMillis(invite.CreatedAt),
		toMillis(invite.UpdatedAt),
	); err != nil {
		return fmt.Errorf("insert invitation: %w", err)
	}
	return nil
}

// UpdateInvitation persists resend counters, expiry refreshes and status
// changes for an existing invitation.
func (s *Store) UpdateInvitation(ctx context.Context, invite invitation.Invitation, envelope event.Envelope) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := updateInvitationTx(tx, invite); err != nil {
			return err
		}
		if envelope.ID == "" {
			return nil
		}
		return enqueueEventTx(tx, envelope)
	})
}

func updateInvitationTx(tx *sql.Tx, invite invitation.Invitation) error {
	result, err := tx.Exec(`
UPDATE invitations
SET status = ?, expires_at = ?, resend_count = ?, last_sent_at = ?,
	accepted_by = ?, accepted_at = ?, updated_at = ?
WHERE id = ? AND org_id = ?
`,
		invitation.StatusLabel(invite.Status),
		toMillis(invite.ExpiresAt),
		invite.ResendCount,
		toMillis(invite.LastSentAt),
		invite.AcceptedByUser,
		toMillis(invite.AcceptedAt),
		toMillis(invite.UpdatedAt),
		invite.ID,
		invite.OrgID,
	)
	if err != nil {
		return fmt.Errorf("update invitation: %w", err)
	}
	return requireRowAffected(result)
}

// GetInvitation returns one invitation scoped by organization.
func (s *Store) GetInvitation(ctx context.Context, orgID, inviteID string) (invitation.Invitation, error) {
	if err := s.ready(ctx); err != nil {
		return invitation.Invitation{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT `+invitationColumns+`
FROM invitations
WHERE id = ? AND org_id = ?
`, strings.TrimSpace(inviteID), strings.TrimSpace(orgID))
	return scanInvitation(row.Scan)
}

// ListInvitations returns all invitations of an organization, newest first.
// Pending invitations past their deadline are swept to expired before the
// listing so callers always observe settled statuses.
func (s *Store) ListInvitations(ctx context.Context, orgID string, now time.Time) ([]invitation.Invitation, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if err := s.sweepExpiredInvitations(ctx, orgID, now); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT `+invitationColumns+`
FROM invitations
WHERE org_id = ?
ORDER BY created_at DESC, id ASC
`, strings.TrimSpace(orgID))
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	defer rows.Close()

	invites := []invitation.Invitation{}
	for rows.Next() {
		invite, err := scanInvitation(rows.Scan)
		if err != nil {
			return nil, err
		}
		invites = append(invites, invite)
	}
	return invites, rows.Err()
}

func (s *Store) sweepExpiredInvitations(ctx context.Context, orgID string, now time.Time) error {
	moment := toMillis(now.UTC())
	if _, err := s.sqlDB.ExecContext(ctx, `
UPDATE invitations
SET status = ?, updated_at = ?
WHERE org_id = ? AND status = ? AND expires_at < ?
`,
		invitation.StatusLabel(invitation.StatusExpired),
		moment,
		strings.TrimSpace(orgID),
		invitation.StatusLabel(invitation.StatusPending),
		moment,
	); err != nil {
		return fmt.Errorf("sweep expired invitations: %w", err)
	}
	return nil
}

// AcceptInvitation redeems a token atomically. The invitation lookup by
// token hash, the validation, the membership insert and the status flip all
// happen in one transaction so a token can only ever be redeemed once.
func (s *Store) AcceptInvitation(ctx context.Context, tokenHash, userID string, now time.Time) (invitation.Invitation, error) {
	if err := s.ready(ctx); err != nil {
		return invitation.Invitation{}, err
	}
	userID = strings.TrimSpace(userID)
	moment := now.UTC()

	var accepted invitation.Invitation
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRow(`
SELECT `+invitationColumns+`
FROM invitations
WHERE token_hash = ?
`, tokenHash)
		invite, err := scanInvitation(row.Scan)
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.New(apperrors.CodeInviteTokenInvalid, "invitation token is not valid")
		}
		if err != nil {
			return err
		}

		if err := invitation.ValidateForAccept(invite, moment); err != nil {
			if apperrors.IsCode(err, apperrors.CodeInviteExpired) && invite.Status == invitation.StatusPending {
				invite.Status = invitation.StatusExpired
				invite.UpdatedAt = moment
				if updateErr := updateInvitationTx(tx, invite); updateErr != nil {
					return updateErr
				}
			}
			return err
		}

		if _, memberErr := membershipTx(tx, invite.OrgID, userID); memberErr == nil {
			return apperrors.New(apperrors.CodeInviteAlreadyMember, "user is already a member of this organization")
		} else if !errors.Is(memberErr, storage.ErrNotFound) {
			return memberErr
		}

		member, err := org.NewMembership(invite.OrgID, userID, invite.Role, func() time.Time { return moment })
		if err != nil {
			return err
		}
		if err := putMembershipTx(tx, member); err != nil {
			return err
		}

		invite.Status = invitation.StatusAccepted
		invite.AcceptedByUser = userID
		invite.AcceptedAt = moment
		invite.UpdatedAt = moment
		if err := updateInvitationTx(tx, invite); err != nil {
			return err
		}
		accepted = invite
		return nil
	})
	if err != nil {
		return invitation.Invitation{}, err
	}
	return accepted, nil
}

func scanInvitation(scan func(dest ...any) error) (invitation.Invitation, error) {
	var (
		invite      invitation.Invitation
		roleLabel   string
		statusLabel string
		expiresAt   int64
		lastSentAt  int64
		acceptedAt  int64
		createdAt   int64
		updatedAt   int64
	)
	if err := scan(
		&invite.ID,
		&invite.OrgID,
		&invite.Email,
		&roleLabel,
		&invite.TokenHash,
		&statusLabel,
		&expiresAt,
		&invite.ResendCount,
		&lastSentAt,
		&invite.InvitedByUserID,
		&invite.AcceptedByUser,
		&acceptedAt,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return invitation.Invitation{}, storage.ErrNotFound
		}
		return invitation.Invitation{}, fmt.Errorf("scan invitation: %w", err)
	}
	invite.Role = org.RoleFromLabel(roleLabel)
	invite.Status = invitation.StatusFromLabel(statusLabel)
	invite.ExpiresAt = fromMillis(expiresAt)
	if lastSentAt > 0 {
		invite.LastSentAt = fromMillis(lastSentAt)
	}
	if acceptedAt > 0 {
		invite.AcceptedAt = fromMillis(acceptedAt)
	}
	invite.CreatedAt = fromMillis(createdAt)
	invite.UpdatedAt = fromMillis(updatedAt)
	return invite, nil
}
