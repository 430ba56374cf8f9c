package errors

import "net/http"

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	// Bad request - validation failures, bad input
	case CodeBadRequest,
		CodeEmptyOrgID,
		CodeOrgNameEmpty,
		CodeMembershipInvalidRole,
		CodeEmployeeEmptyOrgID,
		CodeEmployeeEmptyName,
		CodeEmployeeInvalidContract,
		CodeEmployeeInvalidStatus,
		CodeEmployeeInvalidMonthlySalary,
		CodeTrackerNameEmpty,
		CodeTrackerInvalidCategory,
		CodeActionItemTitleEmpty,
		CodeActionItemInvalidStatus,
		CodeActionItemInvalidPriority,
		CodeEvaluationEmptyEmployeeID,
		CodeEvaluationInvalidRating,
		CodeObjectiveInvalidProgress,
		CodeObjectiveInvalidWeight,
		CodePolicyNameEmpty,
		CodePolicyInvalidAllowance,
		CodeTimeOffInvalidRange,
		CodeInviteEmailInvalid,
		CodeInviteInvalidRole,
		CodeWorkflowNameEmpty,
		CodeWorkflowInvalidTrigger,
		CodeWorkflowInvalidOp,
		CodeWorkflowInvalidAction,
		CodeWorkflowNoSteps:
		return http.StatusBadRequest

	// Conflict - state doesn't allow the operation
	case CodeMembershipExists,
		CodeEmployeeInvalidTransition,
		CodeActionItemAlreadyDone,
		CodeEvaluationNoObjectives,
		CodeEvaluationInvalidTransition,
		CodeTimeOffInsufficientBalance,
		CodeTimeOffAlreadyDecided,
		CodeInviteNotPending,
		CodeInviteExpired,
		CodeInviteResendLimit,
		CodeInviteResendTooSoon,
		CodeInviteAlreadyMember,
		CodeWorkflowStepFailed:
		return http.StatusConflict

	// Not found
	case CodeNotFound:
		return http.StatusNotFound

	// Unauthorized - missing or bad credentials
	case CodeAuthMissingToken,
		CodeAuthInvalidToken,
		CodeInviteTokenInvalid:
		return http.StatusUnauthorized

	// Forbidden - authenticated but not allowed
	case CodeAuthForbidden,
		CodeTimeOffNotRequester:
		return http.StatusForbidden

	default:
		return http.StatusInternalServerError
	}
}

// HTTPStatus returns the HTTP status for any error, defaulting to 500.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return GetCode(err).HTTPStatus()
}
