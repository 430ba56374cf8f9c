package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"

	// Transport errors
	CodeBadRequest Code = "BAD_REQUEST"

	// Shared validation errors
	CodeEmptyOrgID Code = "EMPTY_ORG_ID"

	// Organization errors
	CodeOrgNameEmpty          Code = "ORG_NAME_EMPTY"
	CodeMembershipInvalidRole Code = "MEMBERSHIP_INVALID_ROLE"
	CodeMembershipExists      Code = "MEMBERSHIP_EXISTS"

	// Employee errors
	CodeEmployeeEmptyOrgID           Code = "EMPLOYEE_EMPTY_ORG_ID"
	CodeEmployeeEmptyName            Code = "EMPLOYEE_EMPTY_NAME"
	CodeEmployeeInvalidContract      Code = "EMPLOYEE_INVALID_CONTRACT_TYPE"
	CodeEmployeeInvalidStatus        Code = "EMPLOYEE_INVALID_STATUS"
	CodeEmployeeInvalidTransition    Code = "EMPLOYEE_INVALID_STATUS_TRANSITION"
	CodeEmployeeInvalidMonthlySalary Code = "EMPLOYEE_INVALID_MONTHLY_SALARY"

	// Compliance errors
	CodeTrackerNameEmpty          Code = "TRACKER_NAME_EMPTY"
	CodeTrackerInvalidCategory    Code = "TRACKER_INVALID_CATEGORY"
	CodeActionItemTitleEmpty      Code = "ACTION_ITEM_TITLE_EMPTY"
	CodeActionItemInvalidStatus   Code = "ACTION_ITEM_INVALID_STATUS"
	CodeActionItemInvalidPriority Code = "ACTION_ITEM_INVALID_PRIORITY"
	CodeActionItemAlreadyDone     Code = "ACTION_ITEM_ALREADY_DONE"

	// Evaluation errors
	CodeEvaluationEmptyEmployeeID   Code = "EVALUATION_EMPTY_EMPLOYEE_ID"
	CodeEvaluationInvalidRating     Code = "EVALUATION_INVALID_RATING"
	CodeEvaluationNoObjectives      Code = "EVALUATION_NO_OBJECTIVES"
	CodeEvaluationInvalidTransition Code = "EVALUATION_INVALID_STATUS_TRANSITION"
	CodeObjectiveInvalidProgress    Code = "OBJECTIVE_INVALID_PROGRESS"
	CodeObjectiveInvalidWeight      Code = "OBJECTIVE_INVALID_WEIGHT"

	// Time-off errors
	CodePolicyNameEmpty            Code = "TIMEOFF_POLICY_NAME_EMPTY"
	CodePolicyInvalidAllowance     Code = "TIMEOFF_POLICY_INVALID_ALLOWANCE"
	CodeTimeOffInvalidRange        Code = "TIMEOFF_INVALID_DATE_RANGE"
	CodeTimeOffInsufficientBalance Code = "TIMEOFF_INSUFFICIENT_BALANCE"
	CodeTimeOffAlreadyDecided      Code = "TIMEOFF_REQUEST_ALREADY_DECIDED"
	CodeTimeOffNotRequester        Code = "TIMEOFF_NOT_REQUESTER"

	// Invitation errors
	CodeInviteEmailInvalid  Code = "INVITE_EMAIL_INVALID"
	CodeInviteInvalidRole   Code = "INVITE_INVALID_ROLE"
	CodeInviteNotPending    Code = "INVITE_NOT_PENDING"
	CodeInviteExpired       Code = "INVITE_EXPIRED"
	CodeInviteResendLimit   Code = "INVITE_RESEND_LIMIT_REACHED"
	CodeInviteResendTooSoon Code = "INVITE_RESEND_TOO_SOON"
	CodeInviteTokenInvalid  Code = "INVITE_TOKEN_INVALID"
	CodeInviteAlreadyMember Code = "INVITE_ALREADY_MEMBER"

	// Workflow errors
	CodeWorkflowNameEmpty      Code = "WORKFLOW_NAME_EMPTY"
	CodeWorkflowInvalidTrigger Code = "WORKFLOW_INVALID_TRIGGER"
	CodeWorkflowInvalidOp      Code = "WORKFLOW_INVALID_CONDITION_OPERATOR"
	CodeWorkflowInvalidAction  Code = "WORKFLOW_INVALID_ACTION_TYPE"
	CodeWorkflowNoSteps        Code = "WORKFLOW_NO_ACTION_STEPS"
	CodeWorkflowStepFailed     Code = "WORKFLOW_STEP_FAILED"

	// Auth errors
	CodeAuthMissingToken Code = "AUTH_MISSING_TOKEN"
	CodeAuthInvalidToken Code = "AUTH_INVALID_TOKEN"
	CodeAuthForbidden    Code = "AUTH_FORBIDDEN"
)
