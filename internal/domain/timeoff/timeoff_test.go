package timeoff

import (
	"testing"
	"time"

	apperrors "github.com/talio-hq/talio/internal/errors"
)

func fixedNow() time.Time {
	return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
}

func day(d int) time.Time {
	return time.Date(2026, 4, d, 0, 0, 0, 0, time.UTC)
}

func TestNewPolicyValidation(t *testing.T) {
	if _, err := NewPolicy("org-1", " ", 18, 5, fixedNow, nil); err != ErrEmptyPolicyName {
		t.Fatalf("err = %v, want ErrEmptyPolicyName", err)
	}
	if _, err := NewPolicy("org-1", "Congés payés", 0, 5, fixedNow, nil); err != ErrInvalidAllowance {
		t.Fatalf("err = %v, want ErrInvalidAllowance", err)
	}
	policy, err := NewPolicy("org-1", "Congés payés", 18, -2, fixedNow, nil)
	if err != nil {
		t.Fatalf("new policy: %v", err)
	}
	if policy.CarryoverCap != 0 {
		t.Fatalf("carryover cap = %d, want clamped to 0", policy.CarryoverCap)
	}
}

func TestCountDaysInclusive(t *testing.T) {
	cases := []struct {
		name       string
		start, end time.Time
		want       int
	}{
		{"single day", day(6), day(6), 1},
		{"one week", day(6), day(12), 7},
		{"inverted", day(12), day(6), -5},
		{"zero times", time.Time{}, day(6), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CountDays(tc.start, tc.end); got != tc.want {
				t.Fatalf("days = %d, want %d", got, tc.want)
			}
		})
	}
}

func validRequestInput() RequestInput {
	return RequestInput{
		OrgID:      "org-1",
		EmployeeID: "emp-1",
		PolicyID:   "policy-1",
		StartDate:  day(6),
		EndDate:    day(10),
		Note:       "congé annuel",
	}
}

func TestNewRequestChecksBalance(t *testing.T) {
	request, err := NewRequest(validRequestInput(), 10, fixedNow, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if request.Days != 5 {
		t.Fatalf("days = %d, want 5", request.Days)
	}
	if request.Status != RequestPending {
		t.Fatalf("status = %v, want pending", request.Status)
	}

	_, err = NewRequest(validRequestInput(), 4, fixedNow, nil)
	if !apperrors.IsCode(err, apperrors.CodeTimeOffInsufficientBalance) {
		t.Fatalf("err = %v, want insufficient balance", err)
	}
	meta := apperrors.GetMetadata(err)
	if meta["requested"] != "5" || meta["remaining"] != "4" {
		t.Fatalf("metadata = %v", meta)
	}
}

func TestNewRequestRejectsInvertedRange(t *testing.T) {
	input := validRequestInput()
	input.StartDate, input.EndDate = input.EndDate.AddDate(0, 0, 5), input.StartDate
	if _, err := NewRequest(input, 30, fixedNow, nil); err != ErrInvalidRange {
		t.Fatalf("err = %v, want ErrInvalidRange", err)
	}
}

func TestDecideOnce(t *testing.T) {
	request, err := NewRequest(validRequestInput(), 10, fixedNow, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}

	approved, err := Decide(request, true, "user-manager", fixedNow)
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if approved.Status != RequestApproved || approved.DecidedByUserID != "user-manager" {
		t.Fatalf("approved = %+v", approved)
	}

	if _, err := Decide(approved, false, "user-manager", fixedNow); err != ErrAlreadyDecided {
		t.Fatalf("err = %v, want ErrAlreadyDecided", err)
	}
}

func TestCancelOnlyRequester(t *testing.T) {
	request, err := NewRequest(validRequestInput(), 10, fixedNow, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}

	if _, err := Cancel(request, "emp-2", fixedNow); !apperrors.IsCode(err, apperrors.CodeTimeOffNotRequester) {
		t.Fatalf("err = %v, want not requester", err)
	}
	cancelled, err := Cancel(request, "emp-1", fixedNow)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != RequestCancelled {
		t.Fatalf("status = %v, want cancelled", cancelled.Status)
	}
	if _, err := Cancel(cancelled, "emp-1", fixedNow); err != ErrAlreadyDecided {
		t.Fatalf("err = %v, want ErrAlreadyDecided", err)
	}
}

func TestBalanceRemaining(t *testing.T) {
	balance := Balance{Allowed: 18, Used: 7}
	if balance.Remaining() != 11 {
		t.Fatalf("remaining = %d, want 11", balance.Remaining())
	}
}
