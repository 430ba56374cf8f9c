// Package event defines the HR event envelope carried through the outbox.
//
// Events are written in the same transaction as the mutation that caused
// them, then leased and dispatched to workflow evaluation by the worker.
package event

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/talio-hq/talio/internal/platform/id"
)

// HR event types observed by workflow triggers.
const (
	TypeEmployeeCreated       = "employee.created"
	TypeEmployeeStatusChanged = "employee.status.changed"
	TypeLeaveApproved         = "leave.approved"
	TypeEvaluationSubmitted   = "evaluation.submitted"
	TypeComplianceItemOverdue = "compliance.item.overdue"
	TypeInviteSent            = "invite.sent"
)

var knownTypes = map[string]bool{
	TypeEmployeeCreated:       true,
	TypeEmployeeStatusChanged: true,
	TypeLeaveApproved:         true,
	TypeEvaluationSubmitted:   true,
	TypeComplianceItemOverdue: true,
	TypeInviteSent:            true,
}

// KnownType reports whether the event type is part of the HR vocabulary.
func KnownType(eventType string) bool {
	return knownTypes[strings.TrimSpace(eventType)]
}

// Types returns the HR event vocabulary in a stable order.
func Types() []string {
	return []string{
		TypeEmployeeCreated,
		TypeEmployeeStatusChanged,
		TypeLeaveApproved,
		TypeEvaluationSubmitted,
		TypeComplianceItemOverdue,
		TypeInviteSent,
	}
}

// Envelope is one HR event headed for the outbox.
type Envelope struct {
	ID         string
	OrgID      string
	Type       string
	SubjectID  string
	Payload    map[string]any
	OccurredAt time.Time
}

// New creates an event envelope with a generated ID.
func New(orgID, eventType, subjectID string, payload map[string]any, now func() time.Time, idGenerator func() (string, error)) (Envelope, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}
	orgID = strings.TrimSpace(orgID)
	if orgID == "" {
		return Envelope{}, fmt.Errorf("organization id is required")
	}
	if !KnownType(eventType) {
		return Envelope{}, fmt.Errorf("unknown event type %q", eventType)
	}
	eventID, err := idGenerator()
	if err != nil {
		return Envelope{}, fmt.Errorf("generate event id: %w", err)
	}
	if payload == nil {
		payload = map[string]any{}
	}
	return Envelope{
		ID:         eventID,
		OrgID:      orgID,
		Type:       strings.TrimSpace(eventType),
		SubjectID:  strings.TrimSpace(subjectID),
		Payload:    payload,
		OccurredAt: now().UTC(),
	}, nil
}

// MarshalPayload encodes the payload for storage.
func (e Envelope) MarshalPayload() (string, error) {
	buf, err := json.Marshal(e.Payload)
	if err != nil {
		return "", fmt.Errorf("marshal event payload: %w", err)
	}
	return string(buf), nil
}

// UnmarshalPayload decodes a stored payload.
func UnmarshalPayload(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}, nil
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("unmarshal event payload: %w", err)
	}
	return payload, nil
}
