// Package timeoff provides leave policies, balances, and requests.
package timeoff

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/talio-hq/talio/internal/errors"
	"github.com/talio-hq/talio/internal/platform/id"
)

var (
	// ErrEmptyPolicyName indicates a missing policy name.
	ErrEmptyPolicyName = apperrors.New(apperrors.CodePolicyNameEmpty, "policy name is required")
	// ErrInvalidAllowance indicates a non-positive annual allowance.
	ErrInvalidAllowance = apperrors.New(apperrors.CodePolicyInvalidAllowance, "annual allowance must be positive")
	// ErrInvalidRange indicates an inverted or empty date range.
	ErrInvalidRange = apperrors.New(apperrors.CodeTimeOffInvalidRange, "end date must not be before start date")
	// ErrAlreadyDecided indicates a decision on a non-pending request.
	ErrAlreadyDecided = apperrors.New(apperrors.CodeTimeOffAlreadyDecided, "request has already been decided")
	// ErrInsufficientBalance indicates the request exceeds the remaining balance.
	ErrInsufficientBalance = apperrors.New(apperrors.CodeTimeOffInsufficientBalance, "insufficient time-off balance")
)

// RequestStatus represents the lifecycle status of a time-off request.
type RequestStatus int

const (
	// RequestUnspecified represents an invalid request status.
	RequestUnspecified RequestStatus = iota
	// RequestPending indicates a request awaiting a decision.
	RequestPending
	// RequestApproved indicates an approved request. Terminal.
	RequestApproved
	// RequestDenied indicates a denied request. Terminal.
	RequestDenied
	// RequestCancelled indicates the requester withdrew. Terminal.
	RequestCancelled
)

// Policy represents a leave policy of an organization.
type Policy struct {
	ID            string
	OrgID         string
	Name          string
	AnnualDays    int
	CarryoverCap  int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Balance tracks allowed and used days per employee, policy, and year.
type Balance struct {
	OrgID      string
	EmployeeID string
	PolicyID   string
	Year       int
	Allowed    int
	Used       int
}

// Remaining returns the days still available on the balance.
func (b Balance) Remaining() int {
	return b.Allowed - b.Used
}

// Request represents a dated leave request.
type Request struct {
	ID              string
	OrgID           string
	EmployeeID      string
	PolicyID        string
	StartDate       time.Time
	EndDate         time.Time
	Days            int
	Note            string
	Status          RequestStatus
	DecidedByUserID string
	DecidedAt       time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewPolicy creates a leave policy with a generated ID.
func NewPolicy(orgID, name string, annualDays, carryoverCap int, now func() time.Time, idGenerator func() (string, error)) (Policy, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}
	orgID = strings.TrimSpace(orgID)
	if orgID == "" {
		return Policy{}, apperrors.New(apperrors.CodeEmptyOrgID, "organization id is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Policy{}, ErrEmptyPolicyName
	}
	if annualDays <= 0 {
		return Policy{}, ErrInvalidAllowance
	}
	if carryoverCap < 0 {
		carryoverCap = 0
	}

	policyID, err := idGenerator()
	if err != nil {
		return Policy{}, fmt.Errorf("generate policy id: %w", err)
	}

	createdAt := now().UTC()
	return Policy{
		ID:           policyID,
		OrgID:        orgID,
		Name:         name,
		AnnualDays:   annualDays,
		CarryoverCap: carryoverCap,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}, nil
}

// RequestInput describes the metadata needed to file a request.
type RequestInput struct {
	OrgID      string
	EmployeeID string
	PolicyID   string
	StartDate  time.Time
	EndDate    time.Time
	Note       string
}

// NewRequest validates the date range and creates a pending request.
// Days are counted as inclusive calendar days.
func NewRequest(input RequestInput, remaining int, now func() time.Time, idGenerator func() (string, error)) (Request, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	input.OrgID = strings.TrimSpace(input.OrgID)
	input.EmployeeID = strings.TrimSpace(input.EmployeeID)
	input.PolicyID = strings.TrimSpace(input.PolicyID)
	if input.OrgID == "" || input.EmployeeID == "" || input.PolicyID == "" {
		return Request{}, apperrors.New(apperrors.CodeNotFound, "organization, employee, and policy are required")
	}

	days := CountDays(input.StartDate, input.EndDate)
	if days <= 0 {
		return Request{}, ErrInvalidRange
	}
	if days > remaining {
		return Request{}, ErrInsufficientBalance.WithMetadata(map[string]string{
			"requested": fmt.Sprintf("%d", days),
			"remaining": fmt.Sprintf("%d", remaining),
		})
	}

	requestID, err := idGenerator()
	if err != nil {
		return Request{}, fmt.Errorf("generate request id: %w", err)
	}

	createdAt := now().UTC()
	return Request{
		ID:         requestID,
		OrgID:      input.OrgID,
		EmployeeID: input.EmployeeID,
		PolicyID:   input.PolicyID,
		StartDate:  input.StartDate,
		EndDate:    input.EndDate,
		Days:       days,
		Note:       strings.TrimSpace(input.Note),
		Status:     RequestPending,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}, nil
}

// CountDays returns the inclusive number of calendar days between two dates.
// Returns zero or negative for inverted ranges.
func CountDays(start, end time.Time) int {
	if start.IsZero() || end.IsZero() {
		return 0
	}
	start = start.UTC().Truncate(24 * time.Hour)
	end = end.UTC().Truncate(24 * time.Hour)
	return int(end.Sub(start).Hours()/24) + 1
}

// Decide moves a pending request to approved or denied.
func Decide(request Request, approve bool, deciderUserID string, now func() time.Time) (Request, error) {
	if now == nil {
		now = time.Now
	}
	if request.Status != RequestPending {
		return Request{}, ErrAlreadyDecided
	}
	if approve {
		request.Status = RequestApproved
	} else {
		request.Status = RequestDenied
	}
	request.DecidedByUserID = strings.TrimSpace(deciderUserID)
	request.DecidedAt = now().UTC()
	request.UpdatedAt = request.DecidedAt
	return request, nil
}

// Cancel withdraws a pending request. Only the requester may cancel.
func Cancel(request Request, requesterEmployeeID string, now func() time.Time) (Request, error) {
	if now == nil {
		now = time.Now
	}
	if request.Status != RequestPending {
		return Request{}, ErrAlreadyDecided
	}
	if strings.TrimSpace(requesterEmployeeID) != request.EmployeeID {
		return Request{}, apperrors.New(apperrors.CodeTimeOffNotRequester, "only the requester may cancel a request")
	}
	request.Status = RequestCancelled
	request.UpdatedAt = now().UTC()
	return request, nil
}

// RequestStatusLabel returns the string label for a request status.
func RequestStatusLabel(status RequestStatus) string {
	switch status {
	case RequestPending:
		return "PENDING"
	case RequestApproved:
		return "APPROVED"
	case RequestDenied:
		return "DENIED"
	case RequestCancelled:
		return "CANCELLED"
	default:
		return "UNSPECIFIED"
	}
}

// RequestStatusFromLabel converts a status label to a RequestStatus value.
func RequestStatusFromLabel(label string) RequestStatus {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "PENDING":
		return RequestPending
	case "APPROVED":
		return RequestApproved
	case "DENIED":
		return RequestDenied
	case "CANCELLED":
		return RequestCancelled
	default:
		return RequestUnspecified
	}
}
