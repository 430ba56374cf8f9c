package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/talio-hq/talio/internal/domain/workflow"
	"github.com/talio-hq/talio/internal/storage"
)

const workflowColumns = `
	id, org_id, name, enabled, trigger_type, conditions_json, steps_json,
	created_at, updated_at
`

// PutWorkflow inserts or updates a workflow definition. Conditions and steps
// are stored as JSON documents.
func (s *Store) PutWorkflow(ctx context.Context, record workflow.Workflow) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	conditionsJSON, err := json.Marshal(record.Conditions)
	if err != nil {
		return fmt.Errorf("marshal workflow conditions: %w", err)
	}
	stepsJSON, err := json.Marshal(record.Steps)
	if err != nil {
		return fmt.Errorf("marshal workflow steps: %w", err)
	}

	if _, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO workflows (`+workflowColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	enabled = excluded.enabled,
	trigger_type = excluded.trigger_type,
	conditions_json = excluded.conditions_json,
	steps_json = excluded.steps_json,
	updated_at = excluded.updated_at
`,
		record.ID,
		record.OrgID,
		record.Name,
		boolToInt(record.Enabled),
		record.Trigger,
		string(conditionsJSON),
		string(stepsJSON),
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
	); err != nil {
		return fmt.Errorf("put workflow: %w", err)
	}
	return nil
}

// SetWorkflowEnabled toggles a workflow without touching its definition.
func (s *Store) SetWorkflowEnabled(ctx context.Context, orgID, workflowID string, enabled bool, updatedAtMillis int64) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE workflows
SET enabled = ?, updated_at = ?
WHERE id = ? AND org_id = ?
`, boolToInt(enabled), updatedAtMillis, strings.TrimSpace(workflowID), strings.TrimSpace(orgID))
	if err != nil {
		return fmt.Errorf("set workflow enabled: %w", err)
	}
	return requireRowAffected(result)
}

// DeleteWorkflow removes a workflow definition. Past runs are kept.
func (s *Store) DeleteWorkflow(ctx context.Context, orgID, workflowID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, `
DELETE FROM workflows WHERE id = ? AND org_id = ?
`, strings.TrimSpace(workflowID), strings.TrimSpace(orgID))
	if err != nil {
		return fmt.Errorf("delete workflow: %w", err)
	}
	return requireRowAffected(result)
}

// GetWorkflow returns one workflow scoped by organization.
func (s *Store) GetWorkflow(ctx context.Context, orgID, workflowID string) (workflow.Workflow, error) {
	if err := s.ready(ctx); err != nil {
		return workflow.Workflow{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT `+workflowColumns+`
FROM workflows
WHERE id = ? AND org_id = ?
`, strings.TrimSpace(workflowID), strings.TrimSpace(orgID))
	return scanWorkflow(row.Scan)
}

// ListWorkflows returns all workflows of an organization.
func (s *Store) ListWorkflows(ctx context.Context, orgID string) ([]workflow.Workflow, error) {
	return s.queryWorkflows(ctx, `
SELECT `+workflowColumns+`
FROM workflows
WHERE org_id = ?
ORDER BY name ASC, id ASC
`, strings.TrimSpace(orgID))
}

// ListEnabledWorkflowsByTrigger returns the enabled workflows of an
// organization whose trigger matches the given event type. This is the query
// the event worker runs per delivered event.
func (s *Store) ListEnabledWorkflowsByTrigger(ctx context.Context, orgID, eventType string) ([]workflow.Workflow, error) {
	return s.queryWorkflows(ctx, `
SELECT `+workflowColumns+`
FROM workflows
WHERE org_id = ? AND trigger_type = ? AND enabled = 1
ORDER BY created_at ASC, id ASC
`, strings.TrimSpace(orgID), strings.TrimSpace(eventType))
}

func (s *Store) queryWorkflows(ctx context.Context, query string, args ...any) ([]workflow.Workflow, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	defer rows.Close()

	workflows := []workflow.Workflow{}
	for rows.Next() {
		record, err := scanWorkflow(rows.Scan)
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, record)
	}
	return workflows, rows.Err()
}

// RecordWorkflowRun stores the outcome of one workflow evaluation.
func (s *Store) RecordWorkflowRun(ctx context.Context, run storage.WorkflowRun) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO workflow_runs (id, workflow_id, org_id, event_id, matched, outcome, steps_executed, last_error, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		run.ID,
		run.WorkflowID,
		run.OrgID,
		run.EventID,
		boolToInt(run.Matched),
		run.Outcome,
		run.StepsExecuted,
		run.LastError,
		toMillis(run.CreatedAt),
	); err != nil {
		return fmt.Errorf("insert workflow run: %w", err)
	}
	return nil
}

// ListWorkflowRuns returns the most recent runs of a workflow.
func (s *Store) ListWorkflowRuns(ctx context.Context, orgID, workflowID string, limit int) ([]storage.WorkflowRun, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, workflow_id, org_id, event_id, matched, outcome, steps_executed, last_error, created_at
FROM workflow_runs
WHERE org_id = ? AND workflow_id = ?
ORDER BY created_at DESC, id ASC
LIMIT ?
`, strings.TrimSpace(orgID), strings.TrimSpace(workflowID), limit)
	if err != nil {
		return nil, fmt.Errorf("list workflow runs: %w", err)
	}
	defer rows.Close()

	runs := []storage.WorkflowRun{}
	for rows.Next() {
		var (
			run       storage.WorkflowRun
			matched   int
			createdAt int64
		)
		if err := rows.Scan(
			&run.ID,
			&run.WorkflowID,
			&run.OrgID,
			&run.EventID,
			&matched,
			&run.Outcome,
			&run.StepsExecuted,
			&run.LastError,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan workflow run: %w", err)
		}
		run.Matched = matched != 0
		run.CreatedAt = fromMillis(createdAt)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func scanWorkflow(scan func(dest ...any) error) (workflow.Workflow, error) {
	var (
		record         workflow.Workflow
		enabled        int
		conditionsJSON string
		stepsJSON      string
		createdAt      int64
		updatedAt      int64
	)
	if err := scan(
		&record.ID,
		&record.OrgID,
		&record.Name,
		&enabled,
		&record.Trigger,
		&conditionsJSON,
		&stepsJSON,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return workflow.Workflow{}, storage.ErrNotFound
		}
		return workflow.Workflow{}, fmt.Errorf("scan workflow: %w", err)
	}
	if err := json.Unmarshal([]byte(conditionsJSON), &record.Conditions); err != nil {
		return workflow.Workflow{}, fmt.Errorf("unmarshal workflow conditions: %w", err)
	}
	if err := json.Unmarshal([]byte(stepsJSON), &record.Steps); err != nil {
		return workflow.Workflow{}, fmt.Errorf("unmarshal workflow steps: %w", err)
	}
	record.Enabled = enabled != 0
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}
