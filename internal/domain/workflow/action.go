package workflow

import (
	"strings"

	apperrors "github.com/talio-hq/talio/internal/errors"
)

// ActionType identifies what a workflow step does.
type ActionType string

const (
	// ActionCreateTask creates a compliance action item.
	ActionCreateTask ActionType = "task.create"
	// ActionSendNotification renders and persists an in-app notification.
	ActionSendNotification ActionType = "notification.send"
	// ActionSetEmployeeStatus transitions the subject employee's status.
	ActionSetEmployeeStatus ActionType = "employee.set_status"
)

var actionTypes = map[ActionType]bool{
	ActionCreateTask:        true,
	ActionSendNotification:  true,
	ActionSetEmployeeStatus: true,
}

// Step is one ordered action inside a workflow.
//
// Params are action-specific:
//
//	task.create:          tracker_id, title ({{field}} placeholders allowed),
//	                      assignee_id, due_in_days, priority
//	notification.send:    message_type, recipient_role
//	employee.set_status:  status
type Step struct {
	Type   ActionType        `json:"type"`
	Params map[string]string `json:"params"`
}

// Validate checks the step shape and its required parameters.
func (s Step) Validate() error {
	if !actionTypes[s.Type] {
		return apperrors.Newf(apperrors.CodeWorkflowInvalidAction, "unknown action type %q", string(s.Type))
	}
	switch s.Type {
	case ActionCreateTask:
		if strings.TrimSpace(s.Params["tracker_id"]) == "" || strings.TrimSpace(s.Params["title"]) == "" {
			return apperrors.New(apperrors.CodeWorkflowInvalidAction, "task.create requires tracker_id and title params")
		}
	case ActionSendNotification:
		if strings.TrimSpace(s.Params["message_type"]) == "" {
			return apperrors.New(apperrors.CodeWorkflowInvalidAction, "notification.send requires a message_type param")
		}
	case ActionSetEmployeeStatus:
		if strings.TrimSpace(s.Params["status"]) == "" {
			return apperrors.New(apperrors.CodeWorkflowInvalidAction, "employee.set_status requires a status param")
		}
	}
	return nil
}

// Param returns a trimmed step parameter.
func (s Step) Param(key string) string {
	return strings.TrimSpace(s.Params[key])
}

// RenderTemplate substitutes {{field}} placeholders in a step parameter with
// values from the event payload, resolving dot-notation paths the way
// conditions do. Unknown fields render as empty strings.
func RenderTemplate(template string, payload map[string]any) string {
	var out strings.Builder
	for {
		start := strings.Index(template, "{{")
		if start < 0 {
			break
		}
		end := strings.Index(template[start:], "}}")
		if end < 0 {
			break
		}
		out.WriteString(template[:start])
		field := strings.TrimSpace(template[start+2 : start+end])
		if value, ok := lookupField(payload, field); ok {
			out.WriteString(stringify(value))
		}
		template = template[start+end+2:]
	}
	out.WriteString(template)
	return out.String()
}
