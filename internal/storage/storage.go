// Package storage defines shared persistence records and sentinel errors.
package storage

import (
	"time"

	apperrors "github.com/talio-hq/talio/internal/errors"
)

// ErrNotFound indicates a missing record.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// Outbox lifecycle statuses.
const (
	OutboxStatusPending   = "pending"
	OutboxStatusLeased    = "leased"
	OutboxStatusSucceeded = "succeeded"
	OutboxStatusDead      = "dead"
)

// OutboxEvent is one HR event row in the outbox.
type OutboxEvent struct {
	ID             string
	OrgID          string
	EventType      string
	SubjectID      string
	PayloadJSON    string
	Status         string
	AttemptCount   int
	NextAttemptAt  time.Time
	LeaseOwner     string
	LeaseExpiresAt time.Time
	LastError      string
	ProcessedAt    time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Notification is one stored in-app notification.
type Notification struct {
	ID          string
	OrgID       string
	UserID      string
	MessageType string
	Subject     string
	Body        string
	Read        bool
	CreatedAt   time.Time
}

// Workflow run outcomes.
const (
	RunOutcomeSkipped   = "skipped"
	RunOutcomeSucceeded = "succeeded"
	RunOutcomeFailed    = "failed"
)

// WorkflowRun is one recorded evaluation of a workflow against an event.
type WorkflowRun struct {
	ID            string
	WorkflowID    string
	OrgID         string
	EventID       string
	Matched       bool
	Outcome       string
	StepsExecuted int
	LastError     string
	CreatedAt     time.Time
}
