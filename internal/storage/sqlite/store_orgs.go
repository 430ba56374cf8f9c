package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/talio-hq/talio/internal/domain/org"
	"github.com/talio-hq/talio/internal/storage"
)

// PutOrganization inserts or replaces an organization.
func (s *Store) PutOrganization(ctx context.Context, organization org.Organization) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO organizations (id, name, country_code, default_locale, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	country_code = excluded.country_code,
	default_locale = excluded.default_locale,
	updated_at = excluded.updated_at
`,
		organization.ID,
		organization.Name,
		organization.CountryCode,
		organization.DefaultLocale,
		toMillis(organization.CreatedAt),
		toMillis(organization.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put organization: %w", err)
	}
	return nil
}

// GetOrganization returns one organization by ID.
func (s *Store) GetOrganization(ctx context.Context, id string) (org.Organization, error) {
	if err := s.ready(ctx); err != nil {
		return org.Organization{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return org.Organization{}, fmt.Errorf("organization id is required")
	}

	var (
		organization org.Organization
		createdAt    int64
		updatedAt    int64
	)
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT id, name, country_code, default_locale, created_at, updated_at
FROM organizations
WHERE id = ?
`, id).Scan(
		&organization.ID,
		&organization.Name,
		&organization.CountryCode,
		&organization.DefaultLocale,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return org.Organization{}, storage.ErrNotFound
		}
		return org.Organization{}, fmt.Errorf("get organization: %w", err)
	}
	organization.CreatedAt = fromMillis(createdAt)
	organization.UpdatedAt = fromMillis(updatedAt)
	return organization, nil
}

// PutMembership inserts or replaces a membership row.
func (s *Store) PutMembership(ctx context.Context, membership org.Membership) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return putMembershipTx(tx, membership)
	})
}

func putMembershipTx(tx *sql.Tx, membership org.Membership) error {
	_, err := tx.Exec(`
INSERT INTO memberships (org_id, user_id, role, active, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(org_id, user_id) DO UPDATE SET
	role = excluded.role,
	active = excluded.active,
	updated_at = excluded.updated_at
`,
		membership.OrgID,
		membership.UserID,
		org.RoleLabel(membership.Role),
		boolToInt(membership.Active),
		toMillis(membership.CreatedAt),
		toMillis(membership.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put membership: %w", err)
	}
	return nil
}

// GetMembership returns one membership by org and user.
func (s *Store) GetMembership(ctx context.Context, orgID, userID string) (org.Membership, error) {
	if err := s.ready(ctx); err != nil {
		return org.Membership{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT org_id, user_id, role, active, created_at, updated_at
FROM memberships
WHERE org_id = ? AND user_id = ?
`, strings.TrimSpace(orgID), strings.TrimSpace(userID))
	return scanMembership(row.Scan)
}

func membershipTx(tx *sql.Tx, orgID, userID string) (org.Membership, error) {
	row := tx.QueryRow(`
SELECT org_id, user_id, role, active, created_at, updated_at
FROM memberships
WHERE org_id = ? AND user_id = ?
`, strings.TrimSpace(orgID), strings.TrimSpace(userID))
	return scanMembership(row.Scan)
}

// ListMemberships returns active memberships of an organization.
func (s *Store) ListMemberships(ctx context.Context, orgID string) ([]org.Membership, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT org_id, user_id, role, active, created_at, updated_at
FROM memberships
WHERE org_id = ? AND active = 1
ORDER BY created_at ASC, user_id ASC
`, strings.TrimSpace(orgID))
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()

	memberships := []org.Membership{}
	for rows.Next() {
		membership, err := scanMembership(rows.Scan)
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, membership)
	}
	return memberships, rows.Err()
}

// ListMembershipsByRole returns active memberships of an organization holding a role.
func (s *Store) ListMembershipsByRole(ctx context.Context, orgID string, role org.Role) ([]org.Membership, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT org_id, user_id, role, active, created_at, updated_at
FROM memberships
WHERE org_id = ? AND role = ? AND active = 1
ORDER BY created_at ASC, user_id ASC
`, strings.TrimSpace(orgID), org.RoleLabel(role))
	if err != nil {
		return nil, fmt.Errorf("list memberships by role: %w", err)
	}
	defer rows.Close()

	memberships := []org.Membership{}
	for rows.Next() {
		membership, err := scanMembership(rows.Scan)
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, membership)
	}
	return memberships, rows.Err()
}

func scanMembership(scan func(dest ...any) error) (org.Membership, error) {
	var (
		membership org.Membership
		roleLabel  string
		active     int
		createdAt  int64
		updatedAt  int64
	)
	if err := scan(&membership.OrgID, &membership.UserID, &roleLabel, &active, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return org.Membership{}, storage.ErrNotFound
		}
		return org.Membership{}, fmt.Errorf("scan membership: %w", err)
	}
	membership.Role = org.RoleFromLabel(roleLabel)
	membership.Active = active != 0
	membership.CreatedAt = fromMillis(createdAt)
	membership.UpdatedAt = fromMillis(updatedAt)
	return membership, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
