// Package notify renders localized in-app notification copy.
package notify

import (
	"encoding/json"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message types produced by the workflow engine and lifecycle mutations.
const (
	TypeInviteSent        = "org.invite.sent"
	TypeLeaveApproved     = "timeoff.leave.approved"
	TypeStatusChanged     = "directory.status.changed"
	TypeEvaluationReady   = "evaluation.submitted"
	TypeComplianceOverdue = "compliance.item.overdue"
)

// Input is one render request for a stored notification.
type Input struct {
	MessageType string
	PayloadJSON string
}

// Output is localized copy derived from one notification.
type Output struct {
	Subject string
	Body    string
}

// Localizer is the minimal message-printer contract required by the renderer.
type Localizer interface {
	Sprintf(key message.Reference, args ...any) string
}

// Printer returns a message printer for the given locale tag, falling back
// to French, the default organization locale.
func Printer(locale string) *message.Printer {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		tag = language.French
	}
	return message.NewPrinter(tag)
}

// NormalizeMessageType normalizes a producer-provided message type token.
func NormalizeMessageType(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

type namePayload struct {
	EmployeeName string `json:"employee_name"`
	OrgName      string `json:"org_name"`
	Status       string `json:"status"`
	Days         int    `json:"days"`
	ItemTitle    string `json:"item_title"`
	Period       string `json:"period"`
}

// Render returns localized copy for one notification.
// Unknown message types fall back to a generic notification.
func Render(loc Localizer, input Input) Output {
	payload := namePayload{}
	if raw := strings.TrimSpace(input.PayloadJSON); raw != "" {
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			return genericOutput(loc)
		}
	}

	switch NormalizeMessageType(input.MessageType) {
	case TypeInviteSent:
		return Output{
			Subject: loc.Sprintf("notify.invite_sent.subject", payload.OrgName),
			Body:    loc.Sprintf("notify.invite_sent.body", payload.OrgName),
		}
	case TypeLeaveApproved:
		return Output{
			Subject: loc.Sprintf("notify.leave_approved.subject"),
			Body:    loc.Sprintf("notify.leave_approved.body", payload.EmployeeName, payload.Days),
		}
	case TypeStatusChanged:
		return Output{
			Subject: loc.Sprintf("notify.status_changed.subject"),
			Body:    loc.Sprintf("notify.status_changed.body", payload.EmployeeName, payload.Status),
		}
	case TypeEvaluationReady:
		return Output{
			Subject: loc.Sprintf("notify.evaluation_submitted.subject"),
			Body:    loc.Sprintf("notify.evaluation_submitted.body", payload.EmployeeName, payload.Period),
		}
	case TypeComplianceOverdue:
		return Output{
			Subject: loc.Sprintf("notify.compliance_overdue.subject"),
			Body:    loc.Sprintf("notify.compliance_overdue.body", payload.ItemTitle),
		}
	default:
		return genericOutput(loc)
	}
}

func genericOutput(loc Localizer) Output {
	return Output{
		Subject: loc.Sprintf("notify.generic.subject"),
		Body:    loc.Sprintf("notify.generic.body"),
	}
}
