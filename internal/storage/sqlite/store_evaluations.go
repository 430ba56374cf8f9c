package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/talio-hq/talio/internal/domain/evaluation"
	"github.com/talio-hq/talio/internal/event"
	"github.com/talio-hq/talio/internal/storage"
)

const evaluationColumns = `
	id, org_id, employee_id, reviewer_id, period, status, overall_rating,
	summary, created_at, updated_at
`

// CreateEvaluation stores a new draft evaluation.
func (s *Store) CreateEvaluation(ctx context.Context, record evaluation.Evaluation) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO evaluations (`+evaluationColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		record.ID,
		record.OrgID,
		record.EmployeeID,
		record.ReviewerID,
		record.Period,
		evaluation.StatusLabel(record.Status),
		record.OverallRating,
		record.Summary,
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
	); err != nil {
		return fmt.Errorf("insert evaluation: %w", err)
	}
	return nil
}

// SubmitEvaluation persists the submitted state and enqueues the
// evaluation.submitted event in the same transaction. The update is guarded
// on draft status.
func (s *Store) SubmitEvaluation(ctx context.Context, record evaluation.Evaluation, envelope event.Envelope) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec(`
UPDATE evaluations
SET status = ?, overall_rating = ?, summary = ?, updated_at = ?
WHERE id = ? AND org_id = ? AND status = ?
`,
			evaluation.StatusLabel(record.Status),
			record.OverallRating,
			record.Summary,
			toMillis(record.UpdatedAt),
			record.ID,
			record.OrgID,
			evaluation.StatusLabel(evaluation.StatusDraft),
		)
		if err != nil {
			return fmt.Errorf("submit evaluation: %w", err)
		}
		if err := requireRowAffected(result); err != nil {
			return err
		}
		return enqueueEventTx(tx, envelope)
	})
}

// AcknowledgeEvaluation persists the acknowledged state.
func (s *Store) AcknowledgeEvaluation(ctx context.Context, record evaluation.Evaluation) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE evaluations
SET status = ?, updated_at = ?
WHERE id = ? AND org_id = ? AND status = ?
`,
		evaluation.StatusLabel(evaluation.StatusAcknowledged),
		toMillis(record.UpdatedAt),
		record.ID,
		record.OrgID,
		evaluation.StatusLabel(evaluation.StatusSubmitted),
	)
	if err != nil {
		return fmt.Errorf("acknowledge evaluation: %w", err)
	}
	return requireRowAffected(result)
}

// GetEvaluation returns one evaluation scoped by organization.
func (s *Store) GetEvaluation(ctx context.Context, orgID, evaluationID string) (evaluation.Evaluation, error) {
	if err := s.ready(ctx); err != nil {
		return evaluation.Evaluation{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT `+evaluationColumns+`
FROM evaluations
WHERE id = ? AND org_id = ?
`, strings.TrimSpace(evaluationID), strings.TrimSpace(orgID))
	return scanEvaluation(row.Scan)
}

// ListEvaluations returns evaluations of an organization, optionally
// filtered by employee, newest first.
func (s *Store) ListEvaluations(ctx context.Context, orgID, employeeID string) ([]evaluation.Evaluation, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + evaluationColumns + ` FROM evaluations WHERE org_id = ?`
	args := []any{strings.TrimSpace(orgID)}
	if employeeID = strings.TrimSpace(employeeID); employeeID != "" {
		query += ` AND employee_id = ?`
		args = append(args, employeeID)
	}
	query += ` ORDER BY created_at DESC, id ASC`

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	defer rows.Close()

	records := []evaluation.Evaluation{}
	for rows.Next() {
		record, err := scanEvaluation(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// PutObjective inserts or updates an objective.
func (s *Store) PutObjective(ctx context.Context, objective evaluation.Objective) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO objectives (id, evaluation_id, title, weight, progress, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	title = excluded.title,
	weight = excluded.weight,
	progress = excluded.progress,
	updated_at = excluded.updated_at
`,
		objective.ID,
		objective.EvaluationID,
		objective.Title,
		objective.Weight,
		objective.Progress,
		toMillis(objective.CreatedAt),
		toMillis(objective.UpdatedAt),
	); err != nil {
		return fmt.Errorf("put objective: %w", err)
	}
	return nil
}

// ListObjectives returns the objectives of an evaluation in creation order.
func (s *Store) ListObjectives(ctx context.Context, evaluationID string) ([]evaluation.Objective, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, evaluation_id, title, weight, progress, created_at, updated_at
FROM objectives
WHERE evaluation_id = ?
ORDER BY created_at ASC, id ASC
`, strings.TrimSpace(evaluationID))
	if err != nil {
		return nil, fmt.Errorf("list objectives: %w", err)
	}
	defer rows.Close()

	objectives := []evaluation.Objective{}
	for rows.Next() {
		var (
			objective evaluation.Objective
			createdAt int64
			updatedAt int64
		)
		if err := rows.Scan(
			&objective.ID,
			&objective.EvaluationID,
			&objective.Title,
			&objective.Weight,
			&objective.Progress,
			&createdAt,
			&updatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan objective: %w", err)
		}
		objective.CreatedAt = fromMillis(createdAt)
		objective.UpdatedAt = fromMillis(updatedAt)
		objectives = append(objectives, objective)
	}
	return objectives, rows.Err()
}

// CountObjectives returns how many objectives an evaluation has.
func (s *Store) CountObjectives(ctx context.Context, evaluationID string) (int, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	var count int
	if err := s.sqlDB.QueryRowContext(ctx, `
SELECT COUNT(*) FROM objectives WHERE evaluation_id = ?
`, strings.TrimSpace(evaluationID)).Scan(&count); err != nil {
		return 0, fmt.Errorf("count objectives: %w", err)
	}
	return count, nil
}

func scanEvaluation(scan func(dest ...any) error) (evaluation.Evaluation, error) {
	var (
		record      evaluation.Evaluation
		statusLabel string
		createdAt   int64
		updatedAt   int64
	)
	if err := scan(
		&record.ID,
		&record.OrgID,
		&record.EmployeeID,
		&record.ReviewerID,
		&record.Period,
		&statusLabel,
		&record.OverallRating,
		&record.Summary,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return evaluation.Evaluation{}, storage.ErrNotFound
		}
		return evaluation.Evaluation{}, fmt.Errorf("scan evaluation: %w", err)
	}
	record.Status = evaluation.StatusFromLabel(statusLabel)
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}
