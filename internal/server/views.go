package server

import (
	"time"

	"github.com/talio-hq/talio/internal/domain/compliance"
	"github.com/talio-hq/talio/internal/domain/employee"
	"github.com/talio-hq/talio/internal/domain/evaluation"
	"github.com/talio-hq/talio/internal/domain/invitation"
	"github.com/talio-hq/talio/internal/domain/org"
	"github.com/talio-hq/talio/internal/domain/timeoff"
	"github.com/talio-hq/talio/internal/domain/workflow"
	apperrors "github.com/talio-hq/talio/internal/errors"
	"github.com/talio-hq/talio/internal/storage"
)

// parseDate accepts RFC 3339 timestamps or bare yyyy-mm-dd dates.
func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed.UTC(), nil
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, apperrors.Newf(apperrors.CodeBadRequest, "invalid date %q, want RFC 3339 or yyyy-mm-dd", value)
	}
	return parsed.UTC(), nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

type orgView struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	CountryCode   string `json:"country_code"`
	DefaultLocale string `json:"default_locale"`
	CreatedAt     string `json:"created_at"`
}

func newOrgView(organization org.Organization) orgView {
	return orgView{
		ID:            organization.ID,
		Name:          organization.Name,
		CountryCode:   organization.CountryCode,
		DefaultLocale: organization.DefaultLocale,
		CreatedAt:     formatTime(organization.CreatedAt),
	}
}

type memberView struct {
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at"`
}

func newMemberView(member org.Membership) memberView {
	return memberView{
		UserID:    member.UserID,
		Role:      org.RoleLabel(member.Role),
		Active:    member.Active,
		CreatedAt: formatTime(member.CreatedAt),
	}
}

type employeeView struct {
	ID            string `json:"id"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	WorkEmail     string `json:"work_email,omitempty"`
	JobTitle      string `json:"job_title,omitempty"`
	Department    string `json:"department,omitempty"`
	Contract      string `json:"contract"`
	CNPSNumber    string `json:"cnps_number,omitempty"`
	MonthlySalary int64  `json:"monthly_salary"`
	HireDate      string `json:"hire_date,omitempty"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

func newEmployeeView(record employee.Employee) employeeView {
	return employeeView{
		ID:            record.ID,
		FirstName:     record.FirstName,
		LastName:      record.LastName,
		WorkEmail:     record.WorkEmail,
		JobTitle:      record.JobTitle,
		Department:    record.Department,
		Contract:      employee.ContractLabel(record.Contract),
		CNPSNumber:    record.CNPSNumber,
		MonthlySalary: record.MonthlySalary,
		HireDate:      formatTime(record.HireDate),
		Status:        employee.StatusLabel(record.Status),
		CreatedAt:     formatTime(record.CreatedAt),
		UpdatedAt:     formatTime(record.UpdatedAt),
	}
}

func newEmployeeViews(records []employee.Employee) []employeeView {
	views := make([]employeeView, 0, len(records))
	for _, record := range records {
		views = append(views, newEmployeeView(record))
	}
	return views
}

type trackerView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
	Active      bool   `json:"active"`
	CreatedAt   string `json:"created_at"`
}

func newTrackerView(tracker compliance.Tracker) trackerView {
	return trackerView{
		ID:          tracker.ID,
		Name:        tracker.Name,
		Category:    compliance.CategoryLabel(tracker.Category),
		Description: tracker.Description,
		Active:      tracker.Active,
		CreatedAt:   formatTime(tracker.CreatedAt),
	}
}

type itemView struct {
	ID         string `json:"id"`
	TrackerID  string `json:"tracker_id"`
	Title      string `json:"title"`
	AssigneeID string `json:"assignee_id,omitempty"`
	DueDate    string `json:"due_date,omitempty"`
	Status     string `json:"status"`
	Priority   string `json:"priority"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

func newItemView(item compliance.ActionItem) itemView {
	return itemView{
		ID:         item.ID,
		TrackerID:  item.TrackerID,
		Title:      item.Title,
		AssigneeID: item.AssigneeID,
		DueDate:    formatTime(item.DueDate),
		Status:     compliance.ItemStatusLabel(item.Status),
		Priority:   compliance.PriorityLabel(item.Priority),
		CreatedAt:  formatTime(item.CreatedAt),
		UpdatedAt:  formatTime(item.UpdatedAt),
	}
}

type evaluationView struct {
	ID            string `json:"id"`
	EmployeeID    string `json:"employee_id"`
	ReviewerID    string `json:"reviewer_id,omitempty"`
	Period        string `json:"period"`
	Status        string `json:"status"`
	OverallRating int    `json:"overall_rating,omitempty"`
	Summary       string `json:"summary,omitempty"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

func newEvaluationView(record evaluation.Evaluation) evaluationView {
	return evaluationView{
		ID:            record.ID,
		EmployeeID:    record.EmployeeID,
		ReviewerID:    record.ReviewerID,
		Period:        record.Period,
		Status:        evaluation.StatusLabel(record.Status),
		OverallRating: record.OverallRating,
		Summary:       record.Summary,
		CreatedAt:     formatTime(record.CreatedAt),
		UpdatedAt:     formatTime(record.UpdatedAt),
	}
}

type objectiveView struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Weight   int    `json:"weight"`
	Progress int    `json:"progress"`
}

func newObjectiveView(objective evaluation.Objective) objectiveView {
	return objectiveView{
		ID:       objective.ID,
		Title:    objective.Title,
		Weight:   objective.Weight,
		Progress: objective.Progress,
	}
}

type policyView struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	AnnualDays   int    `json:"annual_days"`
	CarryoverCap int    `json:"carryover_cap"`
	CreatedAt    string `json:"created_at"`
}

func newPolicyView(policy timeoff.Policy) policyView {
	return policyView{
		ID:           policy.ID,
		Name:         policy.Name,
		AnnualDays:   policy.AnnualDays,
		CarryoverCap: policy.CarryoverCap,
		CreatedAt:    formatTime(policy.CreatedAt),
	}
}

type balanceView struct {
	EmployeeID string `json:"employee_id"`
	PolicyID   string `json:"policy_id"`
	Year       int    `json:"year"`
	Allowed    int    `json:"allowed"`
	Used       int    `json:"used"`
	Remaining  int    `json:"remaining"`
}

func newBalanceView(balance timeoff.Balance) balanceView {
	return balanceView{
		EmployeeID: balance.EmployeeID,
		PolicyID:   balance.PolicyID,
		Year:       balance.Year,
		Allowed:    balance.Allowed,
		Used:       balance.Used,
		Remaining:  balance.Remaining(),
	}
}

type requestView struct {
	ID              string `json:"id"`
	EmployeeID      string `json:"employee_id"`
	PolicyID        string `json:"policy_id"`
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
	Days            int    `json:"days"`
	Note            string `json:"note,omitempty"`
	Status          string `json:"status"`
	DecidedByUserID string `json:"decided_by_user_id,omitempty"`
	DecidedAt       string `json:"decided_at,omitempty"`
	CreatedAt       string `json:"created_at"`
}

func newRequestView(request timeoff.Request) requestView {
	return requestView{
		ID:              request.ID,
		EmployeeID:      request.EmployeeID,
		PolicyID:        request.PolicyID,
		StartDate:       formatTime(request.StartDate),
		EndDate:         formatTime(request.EndDate),
		Days:            request.Days,
		Note:            request.Note,
		Status:          timeoff.RequestStatusLabel(request.Status),
		DecidedByUserID: request.DecidedByUserID,
		DecidedAt:       formatTime(request.DecidedAt),
		CreatedAt:       formatTime(request.CreatedAt),
	}
}

type inviteView struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	Status      string `json:"status"`
	ExpiresAt   string `json:"expires_at"`
	ResendCount int    `json:"resend_count"`
	LastSentAt  string `json:"last_sent_at,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func newInviteView(invite invitation.Invitation) inviteView {
	return inviteView{
		ID:          invite.ID,
		Email:       invite.Email,
		Role:        org.RoleLabel(invite.Role),
		Status:      invitation.StatusLabel(invite.Status),
		ExpiresAt:   formatTime(invite.ExpiresAt),
		ResendCount: invite.ResendCount,
		LastSentAt:  formatTime(invite.LastSentAt),
		CreatedAt:   formatTime(invite.CreatedAt),
	}
}

type workflowView struct {
	ID         string               `json:"id"`
	Name       string               `json:"name"`
	Enabled    bool                 `json:"enabled"`
	Trigger    string               `json:"trigger"`
	Conditions []workflow.Condition `json:"conditions"`
	Steps      []workflow.Step      `json:"steps"`
	CreatedAt  string               `json:"created_at"`
	UpdatedAt  string               `json:"updated_at"`
}

func newWorkflowView(record workflow.Workflow) workflowView {
	if record.Conditions == nil {
		record.Conditions = []workflow.Condition{}
	}
	return workflowView{
		ID:         record.ID,
		Name:       record.Name,
		Enabled:    record.Enabled,
		Trigger:    record.Trigger,
		Conditions: record.Conditions,
		Steps:      record.Steps,
		CreatedAt:  formatTime(record.CreatedAt),
		UpdatedAt:  formatTime(record.UpdatedAt),
	}
}

type runView struct {
	ID            string `json:"id"`
	WorkflowID    string `json:"workflow_id"`
	EventID       string `json:"event_id"`
	Matched       bool   `json:"matched"`
	Outcome       string `json:"outcome"`
	StepsExecuted int    `json:"steps_executed"`
	LastError     string `json:"last_error,omitempty"`
	CreatedAt     string `json:"created_at"`
}

func newRunView(run storage.WorkflowRun) runView {
	return runView{
		ID:            run.ID,
		WorkflowID:    run.WorkflowID,
		EventID:       run.EventID,
		Matched:       run.Matched,
		Outcome:       run.Outcome,
		StepsExecuted: run.StepsExecuted,
		LastError:     run.LastError,
		CreatedAt:     formatTime(run.CreatedAt),
	}
}

type notificationView struct {
	ID          string `json:"id"`
	MessageType string `json:"message_type"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
	Read        bool   `json:"read"`
	CreatedAt   string `json:"created_at"`
}

func newNotificationView(notification storage.Notification) notificationView {
	return notificationView{
		ID:          notification.ID,
		MessageType: notification.MessageType,
		Subject:     notification.Subject,
		Body:        notification.Body,
		Read:        notification.Read,
		CreatedAt:   formatTime(notification.CreatedAt),
	}
}
