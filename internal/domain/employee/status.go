package employee

import (
	"strings"

	apperrors "github.com/talio-hq/talio/internal/errors"
)

// allowedTransitions lists the valid next statuses from each status.
var allowedTransitions = map[Status][]Status{
	StatusOnboarding: {StatusActive, StatusTerminated},
	StatusActive:     {StatusOnLeave, StatusSuspended, StatusTerminated},
	StatusOnLeave:    {StatusActive, StatusTerminated},
	StatusSuspended:  {StatusActive, StatusTerminated},
	StatusTerminated: {},
}

// CanTransition reports whether the status change from -> to is allowed.
func CanTransition(from, to Status) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates a status change and returns the new status.
func Transition(from, to Status) (Status, error) {
	if to == StatusUnspecified {
		return StatusUnspecified, apperrors.New(apperrors.CodeEmployeeInvalidStatus, "target status is required")
	}
	if !CanTransition(from, to) {
		return StatusUnspecified, apperrors.Newf(
			apperrors.CodeEmployeeInvalidTransition,
			"cannot change employee status from %s to %s", StatusLabel(from), StatusLabel(to),
		).WithMetadata(map[string]string{"from": StatusLabel(from), "to": StatusLabel(to)})
	}
	return to, nil
}

// StatusLabel returns the string label for an employee status.
func StatusLabel(status Status) string {
	switch status {
	case StatusOnboarding:
		return "ONBOARDING"
	case StatusActive:
		return "ACTIVE"
	case StatusOnLeave:
		return "ON_LEAVE"
	case StatusSuspended:
		return "SUSPENDED"
	case StatusTerminated:
		return "TERMINATED"
	default:
		return "UNSPECIFIED"
	}
}

// StatusFromLabel converts a status label to a Status value.
func StatusFromLabel(label string) Status {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "ONBOARDING":
		return StatusOnboarding
	case "ACTIVE":
		return StatusActive
	case "ON_LEAVE":
		return StatusOnLeave
	case "SUSPENDED":
		return StatusSuspended
	case "TERMINATED":
		return StatusTerminated
	default:
		return StatusUnspecified
	}
}
