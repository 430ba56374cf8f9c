// Package seed populates a database with demo data for local development.
//
// Seeding goes through the same domain constructors and storage calls as the
// API, so the demo data also exercises the outbox: a freshly seeded database
// gives the worker real events to process.
package seed

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/talio-hq/talio/internal/domain/compliance"
	"github.com/talio-hq/talio/internal/domain/employee"
	"github.com/talio-hq/talio/internal/domain/org"
	"github.com/talio-hq/talio/internal/domain/timeoff"
	"github.com/talio-hq/talio/internal/domain/workflow"
	"github.com/talio-hq/talio/internal/event"
	"github.com/talio-hq/talio/internal/server/authn"
	"github.com/talio-hq/talio/internal/storage/sqlite"
)

// Demo user identities created by Run.
const (
	AdminUserID   = "user-awa"
	ManagerUserID = "user-bintou"
	MemberUserID  = "user-koffi"
)

// Result reports what was seeded, including ready-to-use session tokens.
type Result struct {
	OrgID       string
	EmployeeIDs []string
	TrackerID   string
	PolicyID    string
	WorkflowID  string
	Tokens      map[string]string
}

// Run seeds a demo organization with members, employees, a compliance
// tracker, a leave policy, and a welcome workflow.
func Run(ctx context.Context, store *sqlite.Store, auth *authn.Authenticator, now func() time.Time) (Result, error) {
	if now == nil {
		now = time.Now
	}

	organization, err := org.CreateOrganization(org.CreateOrganizationInput{
		Name: "Ndogou Services",
	}, now, nil)
	if err != nil {
		return Result{}, fmt.Errorf("create organization: %w", err)
	}
	if err := store.PutOrganization(ctx, organization); err != nil {
		return Result{}, fmt.Errorf("put organization: %w", err)
	}

	memberships := []struct {
		userID string
		role   org.Role
	}{
		{AdminUserID, org.RoleAdmin},
		{ManagerUserID, org.RoleManager},
		{MemberUserID, org.RoleMember},
	}
	for _, m := range memberships {
		member, err := org.NewMembership(organization.ID, m.userID, m.role, now)
		if err != nil {
			return Result{}, fmt.Errorf("new membership %s: %w", m.userID, err)
		}
		if err := store.PutMembership(ctx, member); err != nil {
			return Result{}, fmt.Errorf("put membership %s: %w", m.userID, err)
		}
	}

	result := Result{OrgID: organization.ID, Tokens: map[string]string{}}

	employees := []employee.CreateInput{
		{
			OrgID:      organization.ID,
			FirstName:  "Aminata",
			LastName:   "Diallo",
			WorkEmail:  "aminata.diallo@ndogou.cm",
			JobTitle:   "Comptable",
			Department: "Finance",
			Contract:   employee.ContractCDI,
			CNPSNumber: "CM-2210-4471",
			HireDate:   time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC),
		},
		{
			OrgID:      organization.ID,
			FirstName:  "Moussa",
			LastName:   "Traoré",
			WorkEmail:  "moussa.traore@ndogou.cm",
			JobTitle:   "Chauffeur-livreur",
			Department: "Operations",
			Contract:   employee.ContractCDD,
			HireDate:   time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			OrgID:      organization.ID,
			FirstName:  "Khady",
			LastName:   "Ndiaye",
			WorkEmail:  "khady.ndiaye@ndogou.cm",
			JobTitle:   "Stagiaire RH",
			Department: "RH",
			Contract:   employee.ContractInternship,
			HireDate:   time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, input := range employees {
		record, err := employee.Create(input, now, nil)
		if err != nil {
			return Result{}, fmt.Errorf("create employee %s: %w", input.LastName, err)
		}
		envelope, err := event.New(organization.ID, event.TypeEmployeeCreated, record.ID, map[string]any{
			"full_name":  record.FullName(),
			"department": record.Department,
			"job_title":  record.JobTitle,
			"contract":   employee.ContractLabel(record.Contract),
			"status":     employee.StatusLabel(record.Status),
		}, now, nil)
		if err != nil {
			return Result{}, fmt.Errorf("employee event: %w", err)
		}
		if err := store.CreateEmployee(ctx, record, envelope); err != nil {
			return Result{}, fmt.Errorf("put employee %s: %w", input.LastName, err)
		}
		result.EmployeeIDs = append(result.EmployeeIDs, record.ID)
	}

	tracker, err := compliance.CreateTracker(compliance.CreateTrackerInput{
		OrgID:       organization.ID,
		Name:        "Déclarations CNPS",
		Category:    compliance.CategoryCNPS,
		Description: "Déclarations mensuelles de cotisations sociales",
	}, now, nil)
	if err != nil {
		return Result{}, fmt.Errorf("create tracker: %w", err)
	}
	if err := store.PutComplianceTracker(ctx, tracker); err != nil {
		return Result{}, fmt.Errorf("put tracker: %w", err)
	}
	result.TrackerID = tracker.ID

	item, err := compliance.CreateItem(compliance.CreateItemInput{
		OrgID:     organization.ID,
		TrackerID: tracker.ID,
		Title:     "Déclaration CNPS du mois",
		DueDate:   now().UTC().AddDate(0, 0, 20),
		Priority:  compliance.PriorityHigh,
	}, now, nil)
	if err != nil {
		return Result{}, fmt.Errorf("create item: %w", err)
	}
	if err := store.CreateComplianceItem(ctx, item); err != nil {
		return Result{}, fmt.Errorf("put item: %w", err)
	}

	policy, err := timeoff.NewPolicy(organization.ID, "Congés payés", 18, 6, now, nil)
	if err != nil {
		return Result{}, fmt.Errorf("create policy: %w", err)
	}
	if err := store.PutTimeOffPolicy(ctx, policy); err != nil {
		return Result{}, fmt.Errorf("put policy: %w", err)
	}
	result.PolicyID = policy.ID

	welcome, err := workflow.Create(workflow.CreateInput{
		OrgID:   organization.ID,
		Name:    "Accueil des nouvelles recrues",
		Trigger: event.TypeEmployeeCreated,
		Steps: []workflow.Step{
			{
				Type: workflow.ActionSendNotification,
				Params: map[string]string{
					"message_type":   "welcome",
					"recipient_role": org.RoleLabel(org.RoleAdmin),
				},
			},
			{
				Type: workflow.ActionCreateTask,
				Params: map[string]string{
					"tracker_id":  tracker.ID,
					"title":       "Immatriculation CNPS de {{full_name}}",
					"due_in_days": "30",
					"priority":    compliance.PriorityLabel(compliance.PriorityMedium),
				},
			},
		},
	}, now, nil)
	if err != nil {
		return Result{}, fmt.Errorf("create workflow: %w", err)
	}
	if err := store.PutWorkflow(ctx, welcome); err != nil {
		return Result{}, fmt.Errorf("put workflow: %w", err)
	}
	result.WorkflowID = welcome.ID

	if auth != nil {
		for _, m := range memberships {
			token, err := auth.Issue(m.userID)
			if err != nil {
				return Result{}, fmt.Errorf("issue token %s: %w", m.userID, err)
			}
			result.Tokens[m.userID] = token
		}
	}

	return result, nil
}

// Report writes a human-readable summary of a seeding run.
func Report(out io.Writer, result Result) {
	if out == nil {
		return
	}
	fmt.Fprintf(out, "seeded organization %s\n", result.OrgID)
	fmt.Fprintf(out, "  employees: %d\n", len(result.EmployeeIDs))
	fmt.Fprintf(out, "  tracker:   %s\n", result.TrackerID)
	fmt.Fprintf(out, "  policy:    %s\n", result.PolicyID)
	fmt.Fprintf(out, "  workflow:  %s\n", result.WorkflowID)
	for user, token := range result.Tokens {
		fmt.Fprintf(out, "  token %s: %s\n", user, token)
	}
}
