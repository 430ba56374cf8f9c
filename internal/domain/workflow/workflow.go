// Package workflow provides the automation rule model and its evaluation.
//
// A workflow binds a trigger event type to a list of conditions and an
// ordered list of action steps. Evaluation is pure: given an event payload,
// the package decides whether a rule matches. Executing the matched steps is
// the worker's job, so rules can be unit-tested without storage.
package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/talio-hq/talio/internal/event"
	apperrors "github.com/talio-hq/talio/internal/errors"
	"github.com/talio-hq/talio/internal/platform/id"
)

var (
	// ErrEmptyName indicates a missing workflow name.
	ErrEmptyName = apperrors.New(apperrors.CodeWorkflowNameEmpty, "workflow name is required")
	// ErrNoSteps indicates a workflow without action steps.
	ErrNoSteps = apperrors.New(apperrors.CodeWorkflowNoSteps, "a workflow needs at least one action step")
)

// Workflow represents an automation rule scoped to an organization.
type Workflow struct {
	ID         string
	OrgID      string
	Name       string
	Enabled    bool
	Trigger    string
	Conditions []Condition
	Steps      []Step
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CreateInput describes the metadata needed to create a workflow.
type CreateInput struct {
	OrgID      string
	Name       string
	Trigger    string
	Conditions []Condition
	Steps      []Step
}

// Create validates the rule definition and creates an enabled workflow.
func Create(input CreateInput, now func() time.Time, idGenerator func() (string, error)) (Workflow, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	input.OrgID = strings.TrimSpace(input.OrgID)
	if input.OrgID == "" {
		return Workflow{}, apperrors.New(apperrors.CodeEmptyOrgID, "organization id is required")
	}
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return Workflow{}, ErrEmptyName
	}
	input.Trigger = strings.TrimSpace(input.Trigger)
	if !event.KnownType(input.Trigger) {
		return Workflow{}, apperrors.Newf(apperrors.CodeWorkflowInvalidTrigger, "unknown trigger event type %q", input.Trigger)
	}
	for i, condition := range input.Conditions {
		if err := condition.Validate(); err != nil {
			return Workflow{}, fmt.Errorf("condition %d: %w", i, err)
		}
	}
	if len(input.Steps) == 0 {
		return Workflow{}, ErrNoSteps
	}
	for i, step := range input.Steps {
		if err := step.Validate(); err != nil {
			return Workflow{}, fmt.Errorf("step %d: %w", i, err)
		}
	}

	workflowID, err := idGenerator()
	if err != nil {
		return Workflow{}, fmt.Errorf("generate workflow id: %w", err)
	}

	createdAt := now().UTC()
	return Workflow{
		ID:         workflowID,
		OrgID:      input.OrgID,
		Name:       input.Name,
		Enabled:    true,
		Trigger:    input.Trigger,
		Conditions: input.Conditions,
		Steps:      input.Steps,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}, nil
}

// Matches reports whether the workflow applies to the event.
// The trigger type must match and every condition must hold (AND semantics).
func (w Workflow) Matches(eventType string, payload map[string]any) bool {
	if !w.Enabled {
		return false
	}
	if w.Trigger != strings.TrimSpace(eventType) {
		return false
	}
	for _, condition := range w.Conditions {
		if !condition.Evaluate(payload) {
			return false
		}
	}
	return true
}
