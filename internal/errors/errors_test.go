package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestNewCarriesCodeAndMessage(t *testing.T) {
	err := New(CodeInviteExpired, "invitation has expired")
	if err.Code != CodeInviteExpired {
		t.Fatalf("code = %q, want %q", err.Code, CodeInviteExpired)
	}
	if got := err.Error(); got != "INVITE_EXPIRED: invitation has expired" {
		t.Fatalf("message = %q", got)
	}
}

func TestGetCodeUnwrapsWrappedErrors(t *testing.T) {
	base := New(CodeNotFound, "employee not found")
	wrapped := fmt.Errorf("load employee: %w", base)
	if got := GetCode(wrapped); got != CodeNotFound {
		t.Fatalf("code = %q, want %q", got, CodeNotFound)
	}
	if !IsCode(wrapped, CodeNotFound) {
		t.Fatal("IsCode should match through wrapping")
	}
}

func TestGetCodeUnknownForPlainErrors(t *testing.T) {
	if got := GetCode(errors.New("boom")); got != CodeUnknown {
		t.Fatalf("code = %q, want %q", got, CodeUnknown)
	}
}

func TestWithMetadata(t *testing.T) {
	err := New(CodeTimeOffInsufficientBalance, "not enough balance").
		WithMetadata(map[string]string{"remaining": "2"})
	meta := GetMetadata(err)
	if meta["remaining"] != "2" {
		t.Fatalf("metadata = %v", meta)
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", New(CodeEmployeeEmptyName, "name required"), http.StatusBadRequest},
		{"conflict", New(CodeTimeOffAlreadyDecided, "already decided"), http.StatusConflict},
		{"not found", New(CodeNotFound, "missing"), http.StatusNotFound},
		{"bad token", New(CodeInviteTokenInvalid, "bad token"), http.StatusUnauthorized},
		{"forbidden", New(CodeAuthForbidden, "nope"), http.StatusForbidden},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := HTTPStatus(tc.err); got != tc.want {
				t.Fatalf("status = %d, want %d", got, tc.want)
			}
		})
	}
}
