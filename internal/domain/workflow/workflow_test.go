package workflow

import (
	"testing"
	"time"

	"github.com/talio-hq/talio/internal/event"
	apperrors "github.com/talio-hq/talio/internal/errors"
)

func fixedNow() time.Time {
	return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
}

func validCreateInput() CreateInput {
	return CreateInput{
		OrgID:   "org-1",
		Name:    "Onboarding checklist",
		Trigger: event.TypeEmployeeStatusChanged,
		Conditions: []Condition{
			{Field: "status", Op: OpChangedTo, Value: "ACTIVE"},
		},
		Steps: []Step{
			{Type: ActionCreateTask, Params: map[string]string{
				"tracker_id": "tracker-1",
				"title":      "Immatriculation CNPS",
			}},
		},
	}
}

func TestCreateValidWorkflow(t *testing.T) {
	created, err := Create(validCreateInput(), fixedNow, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !created.Enabled {
		t.Fatal("workflow should start enabled")
	}
	if created.ID == "" {
		t.Fatal("expected generated id")
	}
}

func TestCreateValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*CreateInput)
		code   apperrors.Code
	}{
		{"missing org", func(in *CreateInput) { in.OrgID = " " }, apperrors.CodeEmptyOrgID},
		{"missing name", func(in *CreateInput) { in.Name = " " }, apperrors.CodeWorkflowNameEmpty},
		{"unknown trigger", func(in *CreateInput) { in.Trigger = "payroll.exploded" }, apperrors.CodeWorkflowInvalidTrigger},
		{"no steps", func(in *CreateInput) { in.Steps = nil }, apperrors.CodeWorkflowNoSteps},
		{"bad operator", func(in *CreateInput) {
			in.Conditions = []Condition{{Field: "status", Op: "matches", Value: "x"}}
		}, apperrors.CodeWorkflowInvalidOp},
		{"bad action", func(in *CreateInput) {
			in.Steps = []Step{{Type: "rocket.launch"}}
		}, apperrors.CodeWorkflowInvalidAction},
		{"task without tracker", func(in *CreateInput) {
			in.Steps = []Step{{Type: ActionCreateTask, Params: map[string]string{"title": "x"}}}
		}, apperrors.CodeWorkflowInvalidAction},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validCreateInput()
			tc.mutate(&input)
			_, err := Create(input, fixedNow, nil)
			if !apperrors.IsCode(err, tc.code) {
				t.Fatalf("err = %v, want code %s", err, tc.code)
			}
		})
	}
}

func TestMatchesTriggerAndConditions(t *testing.T) {
	created, err := Create(validCreateInput(), fixedNow, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	matching := map[string]any{"status": "ACTIVE", "previous_status": "ONBOARDING"}
	if !created.Matches(event.TypeEmployeeStatusChanged, matching) {
		t.Fatal("expected match")
	}
	if created.Matches(event.TypeLeaveApproved, matching) {
		t.Fatal("different trigger should not match")
	}
	if created.Matches(event.TypeEmployeeStatusChanged, map[string]any{"status": "ACTIVE", "previous_status": "ACTIVE"}) {
		t.Fatal("unchanged status should not match changed_to")
	}

	created.Enabled = false
	if created.Matches(event.TypeEmployeeStatusChanged, matching) {
		t.Fatal("disabled workflow should not match")
	}
}

func TestConditionOperators(t *testing.T) {
	payload := map[string]any{
		"status":     "APPROVED",
		"days":       float64(7),
		"department": "Finance",
		"employee":   map[string]any{"contract": "CDD"},
	}
	cases := []struct {
		name      string
		condition Condition
		want      bool
	}{
		{"eq match", Condition{Field: "status", Op: OpEqual, Value: "APPROVED"}, true},
		{"eq miss", Condition{Field: "status", Op: OpEqual, Value: "DENIED"}, false},
		{"neq", Condition{Field: "status", Op: OpNotEqual, Value: "DENIED"}, true},
		{"gt numeric", Condition{Field: "days", Op: OpGreaterThan, Value: "5"}, true},
		{"gte boundary", Condition{Field: "days", Op: OpGreaterOrEqual, Value: "7"}, true},
		{"lt miss", Condition{Field: "days", Op: OpLessThan, Value: "7"}, false},
		{"lte boundary", Condition{Field: "days", Op: OpLessOrEqual, Value: "7"}, true},
		{"gt non-numeric", Condition{Field: "status", Op: OpGreaterThan, Value: "5"}, false},
		{"contains case-insensitive", Condition{Field: "department", Op: OpContains, Value: "fin"}, true},
		{"nested path", Condition{Field: "employee.contract", Op: OpEqual, Value: "CDD"}, true},
		{"missing field", Condition{Field: "site", Op: OpEqual, Value: "Douala"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.condition.Evaluate(payload); got != tc.want {
				t.Fatalf("evaluate = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestChangedToWithoutPrevious(t *testing.T) {
	condition := Condition{Field: "status", Op: OpChangedTo, Value: "ACTIVE"}
	// No previous_status recorded counts as a change.
	if !condition.Evaluate(map[string]any{"status": "ACTIVE"}) {
		t.Fatal("expected match when no previous value is present")
	}
}

func TestStepParam(t *testing.T) {
	step := Step{Type: ActionSendNotification, Params: map[string]string{"message_type": " leave_approved "}}
	if step.Param("message_type") != "leave_approved" {
		t.Fatalf("param = %q", step.Param("message_type"))
	}
	if step.Param("missing") != "" {
		t.Fatal("missing param should be empty")
	}
}

func TestRenderTemplate(t *testing.T) {
	payload := map[string]any{
		"employee_name": "Aminata Diallo",
		"days":          float64(5),
		"request":       map[string]any{"policy_id": "pol-1"},
	}

	cases := []struct {
		template string
		want     string
	}{
		{"Immatriculation CNPS de {{employee_name}}", "Immatriculation CNPS de Aminata Diallo"},
		{"{{ days }} jours ({{request.policy_id}})", "5 jours (pol-1)"},
		{"{{unknown}} reste vide", " reste vide"},
		{"sans placeholder", "sans placeholder"},
		{"accolade ouverte {{employee_name", "accolade ouverte {{employee_name"},
	}
	for _, tc := range cases {
		if got := RenderTemplate(tc.template, payload); got != tc.want {
			t.Errorf("RenderTemplate(%q) = %q, want %q", tc.template, got, tc.want)
		}
	}
}
