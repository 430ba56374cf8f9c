// Package invitation provides the member invitation lifecycle for organizations.
//
// An invitation is issued with an opaque token that is returned exactly once;
// only its SHA-256 hash is stored. The lifecycle is pending -> accepted,
// pending -> revoked, or pending -> expired. Acceptance is performed
// atomically by storage so the membership insert and the status change share
// one transaction.
package invitation

import (
	"fmt"
	"strings"
	"time"

	"github.com/talio-hq/talio/internal/domain/org"
	apperrors "github.com/talio-hq/talio/internal/errors"
	"github.com/talio-hq/talio/internal/platform/id"
)

// Default lifecycle limits applied when the caller does not override them.
const (
	DefaultTTL          = 7 * 24 * time.Hour
	DefaultMaxResends   = 5
	MinResendInterval   = time.Minute
)

var (
	// ErrInvalidEmail indicates a missing or malformed invite email.
	ErrInvalidEmail = apperrors.New(apperrors.CodeInviteEmailInvalid, "a valid email address is required")
	// ErrInvalidRole indicates an unknown membership role.
	ErrInvalidRole = apperrors.New(apperrors.CodeInviteInvalidRole, "invitation role is required")
	// ErrNotPending indicates an operation on a non-pending invitation.
	ErrNotPending = apperrors.New(apperrors.CodeInviteNotPending, "invitation is no longer pending")
	// ErrExpired indicates the invitation deadline has passed.
	ErrExpired = apperrors.New(apperrors.CodeInviteExpired, "invitation has expired")
	// ErrResendLimit indicates the resend budget is exhausted.
	ErrResendLimit = apperrors.New(apperrors.CodeInviteResendLimit, "invitation resend limit reached")
	// ErrResendTooSoon indicates resends are being requested too quickly.
	ErrResendTooSoon = apperrors.New(apperrors.CodeInviteResendTooSoon, "invitation was sent too recently")
)

// Status represents the lifecycle status of an invitation.
type Status int

const (
	// StatusUnspecified represents an invalid invitation status.
	StatusUnspecified Status = iota
	// StatusPending indicates an invitation is available to accept.
	StatusPending
	// StatusAccepted indicates an invitation has been accepted.
	StatusAccepted
	// StatusRevoked indicates an invitation has been revoked.
	StatusRevoked
	// StatusExpired indicates an invitation passed its deadline unclaimed.
	StatusExpired
)

// Invitation represents an email-targeted invitation into an organization.
type Invitation struct {
	ID              string
	OrgID           string
	Email           string
	Role            org.Role
	TokenHash       string
	Status          Status
	ExpiresAt       time.Time
	ResendCount     int
	LastSentAt      time.Time
	InvitedByUserID string
	AcceptedByUser  string
	AcceptedAt      time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IssueInput describes the metadata needed to issue an invitation.
type IssueInput struct {
	OrgID           string
	Email           string
	Role            org.Role
	InvitedByUserID string
	TTL             time.Duration
}

// Issue creates a pending invitation and returns it with the raw token.
// The raw token is never persisted; callers deliver it out of band.
func Issue(input IssueInput, now func() time.Time, idGenerator func() (string, error)) (Invitation, string, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	normalized, err := NormalizeIssueInput(input)
	if err != nil {
		return Invitation{}, "", err
	}

	inviteID, err := idGenerator()
	if err != nil {
		return Invitation{}, "", fmt.Errorf("generate invitation id: %w", err)
	}
	rawToken, err := NewToken()
	if err != nil {
		return Invitation{}, "", fmt.Errorf("generate invitation token: %w", err)
	}

	createdAt := now().UTC()
	ttl := normalized.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return Invitation{
		ID:              inviteID,
		OrgID:           normalized.OrgID,
		Email:           normalized.Email,
		Role:            normalized.Role,
		TokenHash:       HashToken(rawToken),
		Status:          StatusPending,
		ExpiresAt:       createdAt.Add(ttl),
		ResendCount:     0,
		LastSentAt:      createdAt,
		InvitedByUserID: normalized.InvitedByUserID,
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}, rawToken, nil
}

// NormalizeIssueInput trims and validates invitation input metadata.
func NormalizeIssueInput(input IssueInput) (IssueInput, error) {
	input.OrgID = strings.TrimSpace(input.OrgID)
	if input.OrgID == "" {
		return IssueInput{}, apperrors.New(apperrors.CodeEmptyOrgID, "organization id is required")
	}
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	at := strings.Index(input.Email, "@")
	if at <= 0 || at == len(input.Email)-1 || strings.Count(input.Email, "@") != 1 {
		return IssueInput{}, ErrInvalidEmail
	}
	if input.Role == org.RoleUnspecified {
		return IssueInput{}, ErrInvalidRole
	}
	input.InvitedByUserID = strings.TrimSpace(input.InvitedByUserID)
	return input, nil
}

// PrepareResend validates resend limits and returns the refreshed invitation.
// Resending refreshes the expiry window and counts against the resend budget.
func PrepareResend(invite Invitation, maxResends int, now func() time.Time) (Invitation, error) {
	if now == nil {
		now = time.Now
	}
	if maxResends <= 0 {
		maxResends = DefaultMaxResends
	}
	moment := now().UTC()

	if invite.Status != StatusPending {
		return Invitation{}, ErrNotPending
	}
	if invite.ResendCount >= maxResends {
		return Invitation{}, ErrResendLimit
	}
	if !invite.LastSentAt.IsZero() && moment.Sub(invite.LastSentAt) < MinResendInterval {
		return Invitation{}, ErrResendTooSoon
	}

	invite.ResendCount++
	invite.LastSentAt = moment
	invite.ExpiresAt = moment.Add(DefaultTTL)
	invite.UpdatedAt = moment
	return invite, nil
}

// ValidateForAccept checks that the invitation can still be accepted at the
// given moment. Expired pending invitations return ErrExpired so callers can
// sweep the status change into the same transaction.
func ValidateForAccept(invite Invitation, moment time.Time) error {
	switch invite.Status {
	case StatusPending:
	case StatusExpired:
		return ErrExpired
	default:
		return ErrNotPending
	}
	if !invite.ExpiresAt.IsZero() && moment.UTC().After(invite.ExpiresAt) {
		return ErrExpired
	}
	return nil
}

// StatusLabel returns the string label for an invitation status.
func StatusLabel(status Status) string {
	switch status {
	case StatusPending:
		return "PENDING"
	case StatusAccepted:
		return "ACCEPTED"
	case StatusRevoked:
		return "REVOKED"
	case StatusExpired:
		return "EXPIRED"
	default:
		return "UNSPECIFIED"
	}
}

// StatusFromLabel converts a status label to a Status value.
func StatusFromLabel(label string) Status {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "PENDING":
		return StatusPending
	case "ACCEPTED":
		return StatusAccepted
	case "REVOKED":
		return StatusRevoked
	case "EXPIRED":
		return StatusExpired
	default:
		return StatusUnspecified
	}
}
