// Package org provides organization and membership management for tenants.
package org

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/talio-hq/talio/internal/errors"
	"github.com/talio-hq/talio/internal/platform/id"
)

// ErrEmptyName indicates a missing organization name.
var ErrEmptyName = apperrors.New(apperrors.CodeOrgNameEmpty, "organization name is required")

// Role represents a member's role within an organization.
type Role int

const (
	// RoleUnspecified represents an invalid role.
	RoleUnspecified Role = iota
	// RoleAdmin can manage members, invitations, and workflows.
	RoleAdmin
	// RoleManager can approve time off and run evaluations.
	RoleManager
	// RoleMember has read access and self-service operations.
	RoleMember
)

// Organization represents a tenant.
type Organization struct {
	ID            string
	Name          string
	CountryCode   string
	DefaultLocale string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Membership links a user to an organization with a role.
type Membership struct {
	OrgID     string
	UserID    string
	Role      Role
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateOrganizationInput describes the metadata needed to create an organization.
type CreateOrganizationInput struct {
	Name          string
	CountryCode   string
	DefaultLocale string
}

// CreateOrganization creates a new organization with a generated ID and timestamps.
func CreateOrganization(input CreateOrganizationInput, now func() time.Time, idGenerator func() (string, error)) (Organization, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return Organization{}, ErrEmptyName
	}
	input.CountryCode = strings.ToUpper(strings.TrimSpace(input.CountryCode))
	if input.CountryCode == "" {
		input.CountryCode = "CM"
	}
	input.DefaultLocale = strings.TrimSpace(input.DefaultLocale)
	if input.DefaultLocale == "" {
		input.DefaultLocale = "fr"
	}

	orgID, err := idGenerator()
	if err != nil {
		return Organization{}, fmt.Errorf("generate organization id: %w", err)
	}

	createdAt := now().UTC()
	return Organization{
		ID:            orgID,
		Name:          input.Name,
		CountryCode:   input.CountryCode,
		DefaultLocale: input.DefaultLocale,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}, nil
}

// NewMembership creates an active membership for a user in an organization.
func NewMembership(orgID, userID string, role Role, now func() time.Time) (Membership, error) {
	if now == nil {
		now = time.Now
	}
	orgID = strings.TrimSpace(orgID)
	userID = strings.TrimSpace(userID)
	if orgID == "" || userID == "" {
		return Membership{}, apperrors.New(apperrors.CodeNotFound, "organization and user are required")
	}
	if role == RoleUnspecified {
		return Membership{}, apperrors.New(apperrors.CodeMembershipInvalidRole, "membership role is required")
	}
	createdAt := now().UTC()
	return Membership{
		OrgID:     orgID,
		UserID:    userID,
		Role:      role,
		Active:    true,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}, nil
}

// RoleLabel returns the string label for a role.
func RoleLabel(role Role) string {
	switch role {
	case RoleAdmin:
		return "ADMIN"
	case RoleManager:
		return "MANAGER"
	case RoleMember:
		return "MEMBER"
	default:
		return "UNSPECIFIED"
	}
}

// RoleFromLabel converts a role label to a Role value.
func RoleFromLabel(label string) Role {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "ADMIN":
		return RoleAdmin
	case "MANAGER":
		return RoleManager
	case "MEMBER":
		return RoleMember
	default:
		return RoleUnspecified
	}
}

// CanManageOrg reports whether the role may manage invitations, workflows
// and time-off policies.
func CanManageOrg(role Role) bool {
	return role == RoleAdmin
}

// CanApprove reports whether the role may approve time off and status changes.
func CanApprove(role Role) bool {
	return role == RoleAdmin || role == RoleManager
}
