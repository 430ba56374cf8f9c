// Package server exposes the HR administration HTTP API.
package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/talio-hq/talio/internal/domain/compliance"
	"github.com/talio-hq/talio/internal/domain/employee"
	"github.com/talio-hq/talio/internal/domain/evaluation"
	"github.com/talio-hq/talio/internal/domain/invitation"
	"github.com/talio-hq/talio/internal/domain/org"
	"github.com/talio-hq/talio/internal/domain/timeoff"
	"github.com/talio-hq/talio/internal/domain/workflow"
	apperrors "github.com/talio-hq/talio/internal/errors"
	"github.com/talio-hq/talio/internal/event"
	"github.com/talio-hq/talio/internal/metrics"
	"github.com/talio-hq/talio/internal/platform/timeouts"
	"github.com/talio-hq/talio/internal/server/authn"
	"github.com/talio-hq/talio/internal/server/httpx"
	"github.com/talio-hq/talio/internal/storage"
	"github.com/talio-hq/talio/internal/storage/sqlite"
)

// Store is the persistence surface the API modules need.
type Store interface {
	PutOrganization(ctx context.Context, organization org.Organization) error
	GetOrganization(ctx context.Context, id string) (org.Organization, error)
	PutMembership(ctx context.Context, membership org.Membership) error
	GetMembership(ctx context.Context, orgID, userID string) (org.Membership, error)
	ListMemberships(ctx context.Context, orgID string) ([]org.Membership, error)

	CreateEmployee(ctx context.Context, record employee.Employee, envelope event.Envelope) error
	UpdateEmployeeProfile(ctx context.Context, record employee.Employee) error
	ChangeEmployeeStatus(ctx context.Context, orgID, employeeID string, from, to employee.Status, updatedAtMillis int64, envelope event.Envelope) error
	GetEmployee(ctx context.Context, orgID, employeeID string) (employee.Employee, error)
	ListEmployees(ctx context.Context, orgID string, filter sqlite.EmployeeFilter) ([]employee.Employee, error)

	PutComplianceTracker(ctx context.Context, tracker compliance.Tracker) error
	GetComplianceTracker(ctx context.Context, orgID, trackerID string) (compliance.Tracker, error)
	ListComplianceTrackers(ctx context.Context, orgID string) ([]compliance.Tracker, error)
	CreateComplianceItem(ctx context.Context, item compliance.ActionItem) error
	UpdateComplianceItem(ctx context.Context, item compliance.ActionItem) error
	GetComplianceItem(ctx context.Context, orgID, itemID string) (compliance.ActionItem, error)
	ListComplianceItems(ctx context.Context, orgID, trackerID string) ([]compliance.ActionItem, error)

	CreateEvaluation(ctx context.Context, record evaluation.Evaluation) error
	SubmitEvaluation(ctx context.Context, record evaluation.Evaluation, envelope event.Envelope) error
	AcknowledgeEvaluation(ctx context.Context, record evaluation.Evaluation) error
	GetEvaluation(ctx context.Context, orgID, evaluationID string) (evaluation.Evaluation, error)
	ListEvaluations(ctx context.Context, orgID, employeeID string) ([]evaluation.Evaluation, error)
	PutObjective(ctx context.Context, objective evaluation.Objective) error
	ListObjectives(ctx context.Context, evaluationID string) ([]evaluation.Objective, error)
	CountObjectives(ctx context.Context, evaluationID string) (int, error)

	PutTimeOffPolicy(ctx context.Context, policy timeoff.Policy) error
	GetTimeOffPolicy(ctx context.Context, orgID, policyID string) (timeoff.Policy, error)
	ListTimeOffPolicies(ctx context.Context, orgID string) ([]timeoff.Policy, error)
	GetTimeOffBalance(ctx context.Context, orgID, employeeID, policyID string, year int) (timeoff.Balance, error)
	CreateTimeOffRequest(ctx context.Context, request timeoff.Request) error
	DecideTimeOffRequest(ctx context.Context, request timeoff.Request, envelope event.Envelope) error
	CancelTimeOffRequest(ctx context.Context, request timeoff.Request) error
	GetTimeOffRequest(ctx context.Context, orgID, requestID string) (timeoff.Request, error)
	ListTimeOffRequests(ctx context.Context, orgID string, filter sqlite.TimeOffRequestFilter) ([]timeoff.Request, error)

	IssueInvitation(ctx context.Context, invite invitation.Invitation, envelope event.Envelope) error
	UpdateInvitation(ctx context.Context, invite invitation.Invitation, envelope event.Envelope) error
	GetInvitation(ctx context.Context, orgID, inviteID string) (invitation.Invitation, error)
	ListInvitations(ctx context.Context, orgID string, now time.Time) ([]invitation.Invitation, error)
	AcceptInvitation(ctx context.Context, tokenHash, userID string, now time.Time) (invitation.Invitation, error)

	PutWorkflow(ctx context.Context, record workflow.Workflow) error
	SetWorkflowEnabled(ctx context.Context, orgID, workflowID string, enabled bool, updatedAtMillis int64) error
	DeleteWorkflow(ctx context.Context, orgID, workflowID string) error
	GetWorkflow(ctx context.Context, orgID, workflowID string) (workflow.Workflow, error)
	ListWorkflows(ctx context.Context, orgID string) ([]workflow.Workflow, error)
	ListWorkflowRuns(ctx context.Context, orgID, workflowID string, limit int) ([]storage.WorkflowRun, error)

	MarkNotificationRead(ctx context.Context, orgID, userID, notificationID string) error
	ListNotifications(ctx context.Context, orgID, userID string, unreadOnly bool) ([]storage.Notification, error)
}

// Server wires the API modules over one store and authenticator.
type Server struct {
	store Store
	auth  *authn.Authenticator
	now   func() time.Time
}

// New builds an API server.
func New(store Store, auth *authn.Authenticator, now func() time.Time) *Server {
	if now == nil {
		now = time.Now
	}
	return &Server{store: store, auth: auth, now: now}
}

// Handler assembles the routed and instrumented API handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		_ = httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", metrics.Handler())

	// Token is the credential; acceptance must work before a session exists.
	mux.HandleFunc("POST /api/v1/invitations/accept", s.handleAcceptInvitation)

	authed := s.auth.Middleware()
	protect := func(handler http.HandlerFunc) http.Handler {
		return authed(handler)
	}

	mux.Handle("POST /api/v1/orgs", protect(s.handleCreateOrg))
	mux.Handle("GET /api/v1/orgs/{orgID}", protect(s.handleGetOrg))
	mux.Handle("GET /api/v1/orgs/{orgID}/members", protect(s.handleListMembers))

	mux.Handle("POST /api/v1/orgs/{orgID}/employees", protect(s.handleCreateEmployee))
	mux.Handle("GET /api/v1/orgs/{orgID}/employees", protect(s.handleListEmployees))
	mux.Handle("GET /api/v1/orgs/{orgID}/employees/{employeeID}", protect(s.handleGetEmployee))
	mux.Handle("PATCH /api/v1/orgs/{orgID}/employees/{employeeID}", protect(s.handleUpdateEmployee))
	mux.Handle("POST /api/v1/orgs/{orgID}/employees/{employeeID}/status", protect(s.handleChangeEmployeeStatus))

	mux.Handle("POST /api/v1/orgs/{orgID}/trackers", protect(s.handleCreateTracker))
	mux.Handle("GET /api/v1/orgs/{orgID}/trackers", protect(s.handleListTrackers))
	mux.Handle("PATCH /api/v1/orgs/{orgID}/trackers/{trackerID}", protect(s.handleUpdateTracker))
	mux.Handle("POST /api/v1/orgs/{orgID}/trackers/{trackerID}/items", protect(s.handleCreateItem))
	mux.Handle("GET /api/v1/orgs/{orgID}/trackers/{trackerID}/items", protect(s.handleListItems))
	mux.Handle("PATCH /api/v1/orgs/{orgID}/items/{itemID}", protect(s.handleUpdateItem))
	mux.Handle("POST /api/v1/orgs/{orgID}/items/{itemID}/complete", protect(s.handleCompleteItem))

	mux.Handle("POST /api/v1/orgs/{orgID}/evaluations", protect(s.handleOpenEvaluation))
	mux.Handle("GET /api/v1/orgs/{orgID}/evaluations", protect(s.handleListEvaluations))
	mux.Handle("GET /api/v1/orgs/{orgID}/evaluations/{evaluationID}", protect(s.handleGetEvaluation))
	mux.Handle("POST /api/v1/orgs/{orgID}/evaluations/{evaluationID}/objectives", protect(s.handleAddObjective))
	mux.Handle("PATCH /api/v1/orgs/{orgID}/evaluations/{evaluationID}/objectives/{objectiveID}", protect(s.handleUpdateObjective))
	mux.Handle("POST /api/v1/orgs/{orgID}/evaluations/{evaluationID}/submit", protect(s.handleSubmitEvaluation))
	mux.Handle("POST /api/v1/orgs/{orgID}/evaluations/{evaluationID}/acknowledge", protect(s.handleAcknowledgeEvaluation))

	mux.Handle("POST /api/v1/orgs/{orgID}/timeoff/policies", protect(s.handleCreatePolicy))
	mux.Handle("GET /api/v1/orgs/{orgID}/timeoff/policies", protect(s.handleListPolicies))
	mux.Handle("GET /api/v1/orgs/{orgID}/timeoff/balance", protect(s.handleGetBalance))
	mux.Handle("POST /api/v1/orgs/{orgID}/timeoff/requests", protect(s.handleCreateRequest))
	mux.Handle("GET /api/v1/orgs/{orgID}/timeoff/requests", protect(s.handleListRequests))
	mux.Handle("POST /api/v1/orgs/{orgID}/timeoff/requests/{requestID}/approve", protect(s.handleApproveRequest))
	mux.Handle("POST /api/v1/orgs/{orgID}/timeoff/requests/{requestID}/deny", protect(s.handleDenyRequest))
	mux.Handle("POST /api/v1/orgs/{orgID}/timeoff/requests/{requestID}/cancel", protect(s.handleCancelRequest))

	mux.Handle("POST /api/v1/orgs/{orgID}/invitations", protect(s.handleIssueInvitation))
	mux.Handle("GET /api/v1/orgs/{orgID}/invitations", protect(s.handleListInvitations))
	mux.Handle("POST /api/v1/orgs/{orgID}/invitations/{inviteID}/resend", protect(s.handleResendInvitation))
	mux.Handle("POST /api/v1/orgs/{orgID}/invitations/{inviteID}/revoke", protect(s.handleRevokeInvitation))

	mux.Handle("POST /api/v1/orgs/{orgID}/workflows", protect(s.handleCreateWorkflow))
	mux.Handle("GET /api/v1/orgs/{orgID}/workflows", protect(s.handleListWorkflows))
	mux.Handle("GET /api/v1/orgs/{orgID}/workflows/{workflowID}", protect(s.handleGetWorkflow))
	mux.Handle("PUT /api/v1/orgs/{orgID}/workflows/{workflowID}", protect(s.handleUpdateWorkflow))
	mux.Handle("DELETE /api/v1/orgs/{orgID}/workflows/{workflowID}", protect(s.handleDeleteWorkflow))
	mux.Handle("POST /api/v1/orgs/{orgID}/workflows/{workflowID}/enable", protect(s.handleEnableWorkflow))
	mux.Handle("POST /api/v1/orgs/{orgID}/workflows/{workflowID}/disable", protect(s.handleDisableWorkflow))
	mux.Handle("GET /api/v1/orgs/{orgID}/workflows/{workflowID}/runs", protect(s.handleListWorkflowRuns))

	mux.Handle("GET /api/v1/orgs/{orgID}/notifications", protect(s.handleListNotifications))
	mux.Handle("POST /api/v1/orgs/{orgID}/notifications/{notificationID}/read", protect(s.handleMarkNotificationRead))

	handler := httpx.Chain(mux, httpx.RequestID(), httpx.RecoverPanic(), httpx.Timeout(timeouts.Request), httpx.Observe())
	return otelhttp.NewHandler(handler, "talio.api")
}

// membership resolves the caller's membership in the path organization.
func (s *Server) membership(r *http.Request) (org.Membership, error) {
	userID := authn.UserID(r.Context())
	if userID == "" {
		return org.Membership{}, apperrors.New(apperrors.CodeAuthMissingToken, "a bearer token is required")
	}
	orgID := strings.TrimSpace(r.PathValue("orgID"))
	member, err := s.store.GetMembership(httpx.RequestContext(r), orgID, userID)
	if err != nil {
		return org.Membership{}, apperrors.New(apperrors.CodeAuthForbidden, "not a member of this organization")
	}
	if !member.Active {
		return org.Membership{}, apperrors.New(apperrors.CodeAuthForbidden, "membership is inactive")
	}
	return member, nil
}

// requireRole resolves the caller's membership and checks its role.
func (s *Server) requireRole(r *http.Request, allow func(org.Role) bool) (org.Membership, error) {
	member, err := s.membership(r)
	if err != nil {
		return org.Membership{}, err
	}
	if !allow(member.Role) {
		return org.Membership{}, apperrors.New(apperrors.CodeAuthForbidden, "role does not allow this operation")
	}
	return member, nil
}
