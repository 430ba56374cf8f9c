// Package evaluation provides performance evaluations and objectives.
package evaluation

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/talio-hq/talio/internal/errors"
	"github.com/talio-hq/talio/internal/platform/id"
)

var (
	// ErrEmptyEmployeeID indicates a missing subject employee.
	ErrEmptyEmployeeID = apperrors.New(apperrors.CodeEvaluationEmptyEmployeeID, "employee id is required")
	// ErrNoObjectives indicates a submit without objectives.
	ErrNoObjectives = apperrors.New(apperrors.CodeEvaluationNoObjectives, "an evaluation needs at least one objective before submission")
	// ErrInvalidRating indicates an overall rating outside 1..5.
	ErrInvalidRating = apperrors.New(apperrors.CodeEvaluationInvalidRating, "overall rating must be between 1 and 5")
)

// Status represents the lifecycle status of an evaluation.
type Status int

const (
	// StatusUnspecified represents an invalid evaluation status.
	StatusUnspecified Status = iota
	// StatusDraft indicates objectives are still being edited.
	StatusDraft
	// StatusSubmitted indicates the reviewer has signed off.
	StatusSubmitted
	// StatusAcknowledged indicates the employee has seen the result. Terminal.
	StatusAcknowledged
)

// Evaluation represents one review period for one employee.
type Evaluation struct {
	ID            string
	OrgID         string
	EmployeeID    string
	ReviewerID    string
	Period        string
	Status        Status
	OverallRating int
	Summary       string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Objective represents a weighted goal within an evaluation.
type Objective struct {
	ID           string
	EvaluationID string
	Title        string
	Weight       int
	Progress     int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// OpenInput describes the metadata needed to open an evaluation.
type OpenInput struct {
	OrgID      string
	EmployeeID string
	ReviewerID string
	Period     string
}

// Open creates a draft evaluation with a generated ID.
func Open(input OpenInput, now func() time.Time, idGenerator func() (string, error)) (Evaluation, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	input.OrgID = strings.TrimSpace(input.OrgID)
	if input.OrgID == "" {
		return Evaluation{}, apperrors.New(apperrors.CodeEmptyOrgID, "organization id is required")
	}
	input.EmployeeID = strings.TrimSpace(input.EmployeeID)
	if input.EmployeeID == "" {
		return Evaluation{}, ErrEmptyEmployeeID
	}
	input.Period = strings.TrimSpace(input.Period)
	if input.Period == "" {
		input.Period = fmt.Sprintf("%d", now().UTC().Year())
	}

	evaluationID, err := idGenerator()
	if err != nil {
		return Evaluation{}, fmt.Errorf("generate evaluation id: %w", err)
	}

	createdAt := now().UTC()
	return Evaluation{
		ID:         evaluationID,
		OrgID:      input.OrgID,
		EmployeeID: input.EmployeeID,
		ReviewerID: strings.TrimSpace(input.ReviewerID),
		Period:     input.Period,
		Status:     StatusDraft,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}, nil
}

// NewObjective creates an objective attached to an evaluation.
func NewObjective(evaluationID, title string, weight int, now func() time.Time, idGenerator func() (string, error)) (Objective, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}
	evaluationID = strings.TrimSpace(evaluationID)
	title = strings.TrimSpace(title)
	if evaluationID == "" || title == "" {
		return Objective{}, apperrors.New(apperrors.CodeNotFound, "evaluation and title are required")
	}
	if weight < 0 || weight > 100 {
		return Objective{}, apperrors.New(apperrors.CodeObjectiveInvalidWeight, "objective weight must be between 0 and 100")
	}

	objectiveID, err := idGenerator()
	if err != nil {
		return Objective{}, fmt.Errorf("generate objective id: %w", err)
	}

	createdAt := now().UTC()
	return Objective{
		ID:           objectiveID,
		EvaluationID: evaluationID,
		Title:        title,
		Weight:       weight,
		Progress:     0,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}, nil
}

// ValidateProgress checks an objective progress update.
func ValidateProgress(progress int) error {
	if progress < 0 || progress > 100 {
		return apperrors.New(apperrors.CodeObjectiveInvalidProgress, "objective progress must be between 0 and 100")
	}
	return nil
}

// Submit moves a draft evaluation to submitted with a rating and summary.
// Submission requires at least one objective.
func Submit(evaluation Evaluation, objectiveCount int, rating int, summary string, now func() time.Time) (Evaluation, error) {
	if now == nil {
		now = time.Now
	}
	if evaluation.Status != StatusDraft {
		return Evaluation{}, apperrors.Newf(
			apperrors.CodeEvaluationInvalidTransition,
			"cannot submit evaluation in status %s", StatusLabel(evaluation.Status),
		)
	}
	if objectiveCount < 1 {
		return Evaluation{}, ErrNoObjectives
	}
	if rating < 1 || rating > 5 {
		return Evaluation{}, ErrInvalidRating
	}
	evaluation.Status = StatusSubmitted
	evaluation.OverallRating = rating
	evaluation.Summary = strings.TrimSpace(summary)
	evaluation.UpdatedAt = now().UTC()
	return evaluation, nil
}

// Acknowledge moves a submitted evaluation to acknowledged.
func Acknowledge(evaluation Evaluation, now func() time.Time) (Evaluation, error) {
	if now == nil {
		now = time.Now
	}
	if evaluation.Status != StatusSubmitted {
		return Evaluation{}, apperrors.Newf(
			apperrors.CodeEvaluationInvalidTransition,
			"cannot acknowledge evaluation in status %s", StatusLabel(evaluation.Status),
		)
	}
	evaluation.Status = StatusAcknowledged
	evaluation.UpdatedAt = now().UTC()
	return evaluation, nil
}

// StatusLabel returns the string label for an evaluation status.
func StatusLabel(status Status) string {
	switch status {
	case StatusDraft:
		return "DRAFT"
	case StatusSubmitted:
		return "SUBMITTED"
	case StatusAcknowledged:
		return "ACKNOWLEDGED"
	default:
		return "UNSPECIFIED"
	}
}

// StatusFromLabel converts a status label to a Status value.
func StatusFromLabel(label string) Status {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "DRAFT":
		return StatusDraft
	case "SUBMITTED":
		return StatusSubmitted
	case "ACKNOWLEDGED":
		return StatusAcknowledged
	default:
		return StatusUnspecified
	}
}
