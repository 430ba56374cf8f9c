package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/talio-hq/talio/internal/domain/compliance"
	"github.com/talio-hq/talio/internal/domain/employee"
	"github.com/talio-hq/talio/internal/domain/org"
	"github.com/talio-hq/talio/internal/domain/workflow"
	"github.com/talio-hq/talio/internal/event"
	"github.com/talio-hq/talio/internal/metrics"
	"github.com/talio-hq/talio/internal/notify"
	"github.com/talio-hq/talio/internal/platform/id"
	"github.com/talio-hq/talio/internal/storage"
)

// EngineStore is the persistence surface the workflow engine needs.
type EngineStore interface {
	GetOrganization(ctx context.Context, id string) (org.Organization, error)
	ListEnabledWorkflowsByTrigger(ctx context.Context, orgID, eventType string) ([]workflow.Workflow, error)
	RecordWorkflowRun(ctx context.Context, run storage.WorkflowRun) error
	ListMemberships(ctx context.Context, orgID string) ([]org.Membership, error)
	ListMembershipsByRole(ctx context.Context, orgID string, role org.Role) ([]org.Membership, error)
	CreateNotification(ctx context.Context, notification storage.Notification) error
	CreateComplianceItem(ctx context.Context, item compliance.ActionItem) error
	GetEmployee(ctx context.Context, orgID, employeeID string) (employee.Employee, error)
	ChangeEmployeeStatus(ctx context.Context, orgID, employeeID string, from, to employee.Status, updatedAtMillis int64, envelope event.Envelope) error
}

// Engine evaluates an organization's workflows against one delivered event
// and executes the matching action steps. Steps never enqueue further HR
// events, so a workflow cannot trigger another workflow.
type Engine struct {
	store EngineStore
	now   func() time.Time
	logf  func(format string, args ...any)
}

// NewEngine builds a workflow engine over the given store.
func NewEngine(store EngineStore, now func() time.Time, logf func(format string, args ...any)) *Engine {
	if now == nil {
		now = time.Now
	}
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Engine{store: store, now: now, logf: logf}
}

// HandleEvent runs every enabled workflow whose trigger matches the event.
// A step failure fails that workflow's run but does not stop the sibling
// workflows; the event itself is retried only on storage errors.
func (e *Engine) HandleEvent(ctx context.Context, evt storage.OutboxEvent) error {
	workflows, err := e.store.ListEnabledWorkflowsByTrigger(ctx, evt.OrgID, evt.EventType)
	if err != nil {
		return fmt.Errorf("list workflows for event %s: %w", evt.ID, err)
	}
	if len(workflows) == 0 {
		return nil
	}

	payload, err := event.UnmarshalPayload(evt.PayloadJSON)
	if err != nil {
		return fmt.Errorf("decode payload for event %s: %w", evt.ID, err)
	}

	for _, wf := range workflows {
		if err := e.runWorkflow(ctx, wf, evt, payload); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) runWorkflow(ctx context.Context, wf workflow.Workflow, evt storage.OutboxEvent, payload map[string]any) error {
	run := storage.WorkflowRun{
		WorkflowID: wf.ID,
		OrgID:      wf.OrgID,
		EventID:    evt.ID,
		CreatedAt:  e.now().UTC(),
	}
	runID, err := id.NewID()
	if err != nil {
		return fmt.Errorf("generate run id: %w", err)
	}
	run.ID = runID

	if !wf.Matches(evt.EventType, payload) {
		run.Outcome = storage.RunOutcomeSkipped
		metrics.WorkflowRuns.WithLabelValues(run.Outcome).Inc()
		return e.store.RecordWorkflowRun(ctx, run)
	}
	run.Matched = true

	for i, step := range wf.Steps {
		if err := e.executeStep(ctx, wf, step, evt, payload); err != nil {
			run.Outcome = storage.RunOutcomeFailed
			run.StepsExecuted = i
			run.LastError = err.Error()
			metrics.WorkflowRuns.WithLabelValues(run.Outcome).Inc()
			e.logf("workflow=%s event=%s step=%d failed: %v", wf.ID, evt.ID, i, err)
			return e.store.RecordWorkflowRun(ctx, run)
		}
		run.StepsExecuted = i + 1
	}

	run.Outcome = storage.RunOutcomeSucceeded
	metrics.WorkflowRuns.WithLabelValues(run.Outcome).Inc()
	return e.store.RecordWorkflowRun(ctx, run)
}

func (e *Engine) executeStep(ctx context.Context, wf workflow.Workflow, step workflow.Step, evt storage.OutboxEvent, payload map[string]any) error {
	switch step.Type {
	case workflow.ActionCreateTask:
		return e.createTask(ctx, wf, step, payload)
	case workflow.ActionSendNotification:
		return e.sendNotification(ctx, wf, step, evt, payload)
	case workflow.ActionSetEmployeeStatus:
		return e.setEmployeeStatus(ctx, wf, step, evt)
	default:
		return fmt.Errorf("unknown action type %q", string(step.Type))
	}
}

func (e *Engine) createTask(ctx context.Context, wf workflow.Workflow, step workflow.Step, payload map[string]any) error {
	input := compliance.CreateItemInput{
		OrgID:      wf.OrgID,
		TrackerID:  step.Param("tracker_id"),
		Title:      workflow.RenderTemplate(step.Param("title"), payload),
		AssigneeID: step.Param("assignee_id"),
		Priority:   compliance.PriorityFromLabel(step.Param("priority")),
	}
	if dueInDays := step.Param("due_in_days"); dueInDays != "" {
		days, err := strconv.Atoi(dueInDays)
		if err != nil || days < 0 {
			return fmt.Errorf("invalid due_in_days %q", dueInDays)
		}
		input.DueDate = e.now().UTC().AddDate(0, 0, days)
	}

	item, err := compliance.CreateItem(input, e.now, nil)
	if err != nil {
		return fmt.Errorf("create task item: %w", err)
	}
	return e.store.CreateComplianceItem(ctx, item)
}

func (e *Engine) sendNotification(ctx context.Context, wf workflow.Workflow, step workflow.Step, evt storage.OutboxEvent, payload map[string]any) error {
	organization, err := e.store.GetOrganization(ctx, wf.OrgID)
	if err != nil {
		return fmt.Errorf("load organization: %w", err)
	}

	recipients, err := e.recipients(ctx, wf.OrgID, step.Param("recipient_role"))
	if err != nil {
		return err
	}
	if len(recipients) == 0 {
		return nil
	}

	renderPayload := map[string]any{"org_name": organization.Name}
	for key, value := range payload {
		renderPayload[key] = value
	}
	payloadJSON, err := json.Marshal(renderPayload)
	if err != nil {
		return fmt.Errorf("encode notification payload: %w", err)
	}

	messageType := notify.NormalizeMessageType(step.Param("message_type"))
	output := notify.Render(notify.Printer(organization.DefaultLocale), notify.Input{
		MessageType: messageType,
		PayloadJSON: string(payloadJSON),
	})

	for _, member := range recipients {
		notificationID, err := id.NewID()
		if err != nil {
			return fmt.Errorf("generate notification id: %w", err)
		}
		if err := e.store.CreateNotification(ctx, storage.Notification{
			ID:          notificationID,
			OrgID:       wf.OrgID,
			UserID:      member.UserID,
			MessageType: messageType,
			Subject:     output.Subject,
			Body:        output.Body,
			CreatedAt:   e.now().UTC(),
		}); err != nil {
			return fmt.Errorf("store notification: %w", err)
		}
		metrics.NotificationsRendered.Inc()
	}
	return nil
}

func (e *Engine) recipients(ctx context.Context, orgID, roleLabel string) ([]org.Membership, error) {
	if strings.TrimSpace(roleLabel) == "" {
		members, err := e.store.ListMemberships(ctx, orgID)
		if err != nil {
			return nil, fmt.Errorf("list recipients: %w", err)
		}
		return members, nil
	}
	role := org.RoleFromLabel(roleLabel)
	if role == org.RoleUnspecified {
		return nil, fmt.Errorf("unknown recipient role %q", roleLabel)
	}
	members, err := e.store.ListMembershipsByRole(ctx, orgID, role)
	if err != nil {
		return nil, fmt.Errorf("list recipients by role: %w", err)
	}
	return members, nil
}

func (e *Engine) setEmployeeStatus(ctx context.Context, wf workflow.Workflow, step workflow.Step, evt storage.OutboxEvent) error {
	target := employee.StatusFromLabel(step.Param("status"))
	if target == employee.StatusUnspecified {
		return fmt.Errorf("unknown target status %q", step.Param("status"))
	}

	record, err := e.store.GetEmployee(ctx, wf.OrgID, evt.SubjectID)
	if err != nil {
		return fmt.Errorf("load employee %s: %w", evt.SubjectID, err)
	}
	if record.Status == target {
		return nil
	}
	next, err := employee.Transition(record.Status, target)
	if err != nil {
		return fmt.Errorf("transition employee %s: %w", record.ID, err)
	}

	// Empty envelope: action-driven status changes do not emit events.
	moment := e.now().UTC().UnixMilli()
	if err := e.store.ChangeEmployeeStatus(ctx, wf.OrgID, record.ID, record.Status, next, moment, event.Envelope{}); err != nil {
		return fmt.Errorf("store employee status: %w", err)
	}
	return nil
}
