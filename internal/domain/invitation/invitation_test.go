package invitation

import (
	"testing"
	"time"

	"github.com/talio-hq/talio/internal/domain/org"
)

func fixedNow() time.Time {
	return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
}

func issueTestInvite(t *testing.T) (Invitation, string) {
	t.Helper()
	invite, rawToken, err := Issue(IssueInput{
		OrgID:           "org-1",
		Email:           " RH@Example.com ",
		Role:            org.RoleMember,
		InvitedByUserID: "user-admin",
	}, fixedNow, nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return invite, rawToken
}

func TestIssueNormalizesAndHashesToken(t *testing.T) {
	invite, rawToken := issueTestInvite(t)
	if invite.Email != "rh@example.com" {
		t.Fatalf("email = %q", invite.Email)
	}
	if invite.Status != StatusPending {
		t.Fatalf("status = %v, want pending", invite.Status)
	}
	if invite.TokenHash == rawToken || invite.TokenHash == "" {
		t.Fatal("raw token must not be stored")
	}
	if !TokenMatches(rawToken, invite.TokenHash) {
		t.Fatal("raw token should match stored hash")
	}
	if TokenMatches("forged", invite.TokenHash) {
		t.Fatal("forged token should not match")
	}
	wantExpiry := fixedNow().Add(DefaultTTL)
	if !invite.ExpiresAt.Equal(wantExpiry) {
		t.Fatalf("expires at = %v, want %v", invite.ExpiresAt, wantExpiry)
	}
}

func TestIssueValidation(t *testing.T) {
	cases := []struct {
		name  string
		input IssueInput
	}{
		{"missing org", IssueInput{Email: "a@b.cm", Role: org.RoleMember}},
		{"bad email", IssueInput{OrgID: "org-1", Email: "not-an-email", Role: org.RoleMember}},
		{"trailing at", IssueInput{OrgID: "org-1", Email: "user@", Role: org.RoleMember}},
		{"missing role", IssueInput{OrgID: "org-1", Email: "a@b.cm"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := Issue(tc.input, fixedNow, nil); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestPrepareResendRefreshesExpiry(t *testing.T) {
	invite, _ := issueTestInvite(t)
	later := func() time.Time { return fixedNow().Add(2 * time.Minute) }

	resent, err := PrepareResend(invite, 0, later)
	if err != nil {
		t.Fatalf("resend: %v", err)
	}
	if resent.ResendCount != 1 {
		t.Fatalf("resend count = %d", resent.ResendCount)
	}
	if !resent.ExpiresAt.Equal(later().Add(DefaultTTL)) {
		t.Fatalf("expiry not refreshed: %v", resent.ExpiresAt)
	}
}

func TestPrepareResendLimits(t *testing.T) {
	invite, _ := issueTestInvite(t)

	// Too soon after the initial send.
	if _, err := PrepareResend(invite, 0, fixedNow); err != ErrResendTooSoon {
		t.Fatalf("err = %v, want ErrResendTooSoon", err)
	}

	// Budget exhausted.
	invite.ResendCount = DefaultMaxResends
	later := func() time.Time { return fixedNow().Add(time.Hour) }
	if _, err := PrepareResend(invite, 0, later); err != ErrResendLimit {
		t.Fatalf("err = %v, want ErrResendLimit", err)
	}

	// Non-pending invitations cannot be resent.
	invite.ResendCount = 0
	invite.Status = StatusRevoked
	if _, err := PrepareResend(invite, 0, later); err != ErrNotPending {
		t.Fatalf("err = %v, want ErrNotPending", err)
	}
}

func TestValidateForAccept(t *testing.T) {
	invite, _ := issueTestInvite(t)

	if err := ValidateForAccept(invite, fixedNow().Add(time.Hour)); err != nil {
		t.Fatalf("accept within window: %v", err)
	}
	if err := ValidateForAccept(invite, invite.ExpiresAt.Add(time.Second)); err != ErrExpired {
		t.Fatalf("err = %v, want ErrExpired", err)
	}

	invite.Status = StatusAccepted
	if err := ValidateForAccept(invite, fixedNow()); err != ErrNotPending {
		t.Fatalf("err = %v, want ErrNotPending", err)
	}
	invite.Status = StatusExpired
	if err := ValidateForAccept(invite, fixedNow()); err != ErrExpired {
		t.Fatalf("err = %v, want ErrExpired", err)
	}
}

func TestNewTokenShape(t *testing.T) {
	token, err := NewToken()
	if err != nil {
		t.Fatalf("new token: %v", err)
	}
	if len(token) < 40 {
		t.Fatalf("token too short: %d", len(token))
	}
	second, err := NewToken()
	if err != nil {
		t.Fatalf("new token: %v", err)
	}
	if token == second {
		t.Fatal("tokens should be unique")
	}
}

func TestStatusLabelRoundTrip(t *testing.T) {
	for _, status := range []Status{StatusPending, StatusAccepted, StatusRevoked, StatusExpired} {
		if got := StatusFromLabel(StatusLabel(status)); got != status {
			t.Fatalf("round trip %v -> %v", status, got)
		}
	}
}
