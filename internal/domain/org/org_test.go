package org

import (
	"testing"
	"time"
)

func fixedNow() time.Time {
	return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
}

func TestCreateOrganizationDefaults(t *testing.T) {
	organization, err := CreateOrganization(CreateOrganizationInput{Name: "  Malaika SARL "}, fixedNow, nil)
	if err != nil {
		t.Fatalf("create organization: %v", err)
	}
	if organization.Name != "Malaika SARL" {
		t.Fatalf("name = %q", organization.Name)
	}
	if organization.CountryCode != "CM" || organization.DefaultLocale != "fr" {
		t.Fatalf("defaults not applied: %+v", organization)
	}
	if organization.ID == "" {
		t.Fatal("expected generated id")
	}
	if !organization.CreatedAt.Equal(fixedNow()) {
		t.Fatalf("created at = %v", organization.CreatedAt)
	}
}

func TestCreateOrganizationRequiresName(t *testing.T) {
	if _, err := CreateOrganization(CreateOrganizationInput{Name: "  "}, nil, nil); err != ErrEmptyName {
		t.Fatalf("err = %v, want ErrEmptyName", err)
	}
}

func TestNewMembershipValidation(t *testing.T) {
	if _, err := NewMembership("org-1", "user-1", RoleUnspecified, fixedNow); err == nil {
		t.Fatal("expected error for unspecified role")
	}
	membership, err := NewMembership("org-1", "user-1", RoleManager, fixedNow)
	if err != nil {
		t.Fatalf("new membership: %v", err)
	}
	if !membership.Active {
		t.Fatal("membership should start active")
	}
}

func TestRoleLabelRoundTrip(t *testing.T) {
	for _, role := range []Role{RoleAdmin, RoleManager, RoleMember} {
		if got := RoleFromLabel(RoleLabel(role)); got != role {
			t.Fatalf("round trip %v -> %v", role, got)
		}
	}
	if RoleFromLabel("nope") != RoleUnspecified {
		t.Fatal("unknown label should map to unspecified")
	}
}

func TestRoleCapabilities(t *testing.T) {
	if !CanManageOrg(RoleAdmin) || CanManageOrg(RoleManager) {
		t.Fatal("only admins manage the organization")
	}
	if !CanApprove(RoleManager) || CanApprove(RoleMember) {
		t.Fatal("managers approve, members do not")
	}
}
