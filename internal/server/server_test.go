package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/talio-hq/talio/internal/domain/org"
	"github.com/talio-hq/talio/internal/server/authn"
	"github.com/talio-hq/talio/internal/server/httpx"
	"github.com/talio-hq/talio/internal/storage/sqlite"
)

func fixedNow() time.Time {
	return time.Date(2026, 5, 12, 9, 30, 0, 0, time.UTC)
}

type apiFixture struct {
	t       *testing.T
	handler http.Handler
	store   *sqlite.Store
	auth    *authn.Authenticator
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "talio.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	auth, err := authn.New("test-secret", time.Hour, fixedNow)
	if err != nil {
		t.Fatalf("new authenticator: %v", err)
	}
	server := New(store, auth, fixedNow)
	return &apiFixture{t: t, handler: server.Handler(), store: store, auth: auth}
}

func (f *apiFixture) token(userID string) string {
	f.t.Helper()
	token, err := f.auth.Issue(userID)
	if err != nil {
		f.t.Fatalf("issue token: %v", err)
	}
	return token
}

func (f *apiFixture) do(method, path, token string, body any) *httptest.ResponseRecorder {
	f.t.Helper()
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			f.t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var payload T
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return payload
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body %s", rec.Code, want, rec.Body.String())
	}
}

func requireErrorCode(t *testing.T, rec *httptest.ResponseRecorder, want string) {
	t.Helper()
	body := decodeBody[httpx.ErrorBody](t, rec)
	if body.Code != want {
		t.Fatalf("error code = %q, want %q; body %s", body.Code, want, rec.Body.String())
	}
}

// createOrg creates an organization as the given user and returns its ID.
func (f *apiFixture) createOrg(token string) string {
	f.t.Helper()
	rec := f.do("POST", "/api/v1/orgs", token, map[string]any{"name": "Sahel Logistics"})
	requireStatus(f.t, rec, http.StatusCreated)
	return decodeBody[orgView](f.t, rec).ID
}

func (f *apiFixture) addMember(orgID, userID string, role org.Role) {
	f.t.Helper()
	member, err := org.NewMembership(orgID, userID, role, fixedNow)
	if err != nil {
		f.t.Fatalf("new membership: %v", err)
	}
	if err := f.store.PutMembership(f.t.Context(), member); err != nil {
		f.t.Fatalf("put membership: %v", err)
	}
}

func (f *apiFixture) createEmployee(token, orgID, firstName string) employeeView {
	f.t.Helper()
	rec := f.do("POST", "/api/v1/orgs/"+orgID+"/employees", token, map[string]any{
		"first_name": firstName,
		"last_name":  "Diallo",
		"department": "Finance",
		"job_title":  "Comptable",
		"contract":   "CDI",
		"hire_date":  "2026-01-05",
	})
	requireStatus(f.t, rec, http.StatusCreated)
	return decodeBody[employeeView](f.t, rec)
}

func TestHealthz(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do("GET", "/healthz", "", nil)
	requireStatus(t, rec, http.StatusOK)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do("POST", "/api/v1/orgs", "", map[string]any{"name": "Sahel Logistics"})
	requireStatus(t, rec, http.StatusUnauthorized)
	requireErrorCode(t, rec, "AUTH_MISSING_TOKEN")
}

func TestCreateOrgMakesCreatorAdmin(t *testing.T) {
	f := newAPIFixture(t)
	token := f.token("user-admin")
	orgID := f.createOrg(token)

	rec := f.do("GET", "/api/v1/orgs/"+orgID, token, nil)
	requireStatus(t, rec, http.StatusOK)
	if got := decodeBody[orgView](t, rec); got.DefaultLocale != "fr" || got.CountryCode != "CM" {
		t.Fatalf("org defaults = %q/%q, want fr/CM", got.DefaultLocale, got.CountryCode)
	}

	rec = f.do("GET", "/api/v1/orgs/"+orgID+"/members", token, nil)
	requireStatus(t, rec, http.StatusOK)
	members := decodeBody[[]memberView](t, rec)
	if len(members) != 1 || members[0].UserID != "user-admin" || members[0].Role != "ADMIN" {
		t.Fatalf("members = %+v, want the creator as admin", members)
	}
}

func TestOrgScopeIsEnforced(t *testing.T) {
	f := newAPIFixture(t)
	orgID := f.createOrg(f.token("user-admin"))

	rec := f.do("GET", "/api/v1/orgs/"+orgID, f.token("user-outsider"), nil)
	requireStatus(t, rec, http.StatusForbidden)
	requireErrorCode(t, rec, "AUTH_FORBIDDEN")
}

func TestEmployeeLifecycle(t *testing.T) {
	f := newAPIFixture(t)
	token := f.token("user-admin")
	orgID := f.createOrg(token)

	created := f.createEmployee(token, orgID, "Aminata")
	if created.Status != "ONBOARDING" {
		t.Fatalf("new employee status = %q, want ONBOARDING", created.Status)
	}

	base := "/api/v1/orgs/" + orgID + "/employees/" + created.ID
	rec := f.do("POST", base+"/status", token, map[string]any{"status": "ACTIVE"})
	requireStatus(t, rec, http.StatusOK)
	if got := decodeBody[employeeView](t, rec); got.Status != "ACTIVE" {
		t.Fatalf("status after activation = %q, want ACTIVE", got.Status)
	}

	// Activation is one way; onboarding is not reachable again.
	rec = f.do("POST", base+"/status", token, map[string]any{"status": "ONBOARDING"})
	requireStatus(t, rec, http.StatusConflict)
	requireErrorCode(t, rec, "EMPLOYEE_INVALID_STATUS_TRANSITION")

	rec = f.do("PATCH", base, token, map[string]any{"job_title": "Chef Comptable"})
	requireStatus(t, rec, http.StatusOK)
	if got := decodeBody[employeeView](t, rec); got.JobTitle != "Chef Comptable" {
		t.Fatalf("job title = %q, want Chef Comptable", got.JobTitle)
	}

	f.createEmployee(token, orgID, "Moussa")
	rec = f.do("GET", "/api/v1/orgs/"+orgID+"/employees?status=ACTIVE", token, nil)
	requireStatus(t, rec, http.StatusOK)
	if got := decodeBody[[]employeeView](t, rec); len(got) != 1 || got[0].ID != created.ID {
		t.Fatalf("active employees = %+v, want only %s", got, created.ID)
	}
}

func TestComplianceTrackerAndItems(t *testing.T) {
	f := newAPIFixture(t)
	token := f.token("user-admin")
	orgID := f.createOrg(token)

	rec := f.do("POST", "/api/v1/orgs/"+orgID+"/trackers", token, map[string]any{
		"name":     "Déclarations CNPS",
		"category": "CNPS",
	})
	requireStatus(t, rec, http.StatusCreated)
	tracker := decodeBody[trackerView](t, rec)
	if !tracker.Active {
		t.Fatal("tracker should start active")
	}

	rec = f.do("POST", "/api/v1/orgs/"+orgID+"/trackers/"+tracker.ID+"/items", token, map[string]any{
		"title":    "Déclaration CNPS du mois",
		"due_date": "2026-06-15",
		"priority": "HIGH",
	})
	requireStatus(t, rec, http.StatusCreated)
	item := decodeBody[itemView](t, rec)
	if item.Status != "OPEN" {
		t.Fatalf("new item status = %q, want OPEN", item.Status)
	}

	itemBase := "/api/v1/orgs/" + orgID + "/items/" + item.ID
	rec = f.do("PATCH", itemBase, token, map[string]any{"status": "IN_PROGRESS"})
	requireStatus(t, rec, http.StatusOK)
	if got := decodeBody[itemView](t, rec); got.Status != "IN_PROGRESS" {
		t.Fatalf("item status = %q, want IN_PROGRESS", got.Status)
	}

	rec = f.do("POST", itemBase+"/complete", token, nil)
	requireStatus(t, rec, http.StatusOK)
	if got := decodeBody[itemView](t, rec); got.Status != "DONE" {
		t.Fatalf("item status = %q, want DONE", got.Status)
	}

	// Done is terminal; further edits conflict.
	rec = f.do("PATCH", itemBase, token, map[string]any{"title": "Autre"})
	requireStatus(t, rec, http.StatusConflict)
	requireErrorCode(t, rec, "ACTION_ITEM_ALREADY_DONE")

	rec = f.do("PATCH", "/api/v1/orgs/"+orgID+"/trackers/"+tracker.ID, token, map[string]any{"active": false})
	requireStatus(t, rec, http.StatusOK)
	if got := decodeBody[trackerView](t, rec); got.Active {
		t.Fatal("tracker should be inactive after update")
	}
}

func TestEmployeeWritesNeedManagerRole(t *testing.T) {
	f := newAPIFixture(t)
	admin := f.token("user-admin")
	orgID := f.createOrg(admin)
	f.addMember(orgID, "user-member", org.RoleMember)

	rec := f.do("POST", "/api/v1/orgs/"+orgID+"/employees", f.token("user-member"), map[string]any{
		"first_name": "Aminata", "last_name": "Diallo", "contract": "CDI",
	})
	requireStatus(t, rec, http.StatusForbidden)

	rec = f.do("GET", "/api/v1/orgs/"+orgID+"/employees", f.token("user-member"), nil)
	requireStatus(t, rec, http.StatusOK)
}

func TestInvitationAcceptFlow(t *testing.T) {
	f := newAPIFixture(t)
	admin := f.token("user-admin")
	orgID := f.createOrg(admin)

	rec := f.do("POST", "/api/v1/orgs/"+orgID+"/invitations", admin, map[string]any{
		"email": "fatou@example.cm",
		"role":  "MANAGER",
	})
	requireStatus(t, rec, http.StatusCreated)
	issued := decodeBody[issueInvitationResponse](t, rec)
	if issued.Token == "" {
		t.Fatal("issue response is missing the one-time token")
	}

	rec = f.do("POST", "/api/v1/invitations/accept", "", map[string]any{
		"token":   issued.Token,
		"user_id": "user-fatou",
	})
	requireStatus(t, rec, http.StatusOK)
	accepted := decodeBody[acceptInvitationResponse](t, rec)
	if accepted.OrgID != orgID || accepted.Role != "MANAGER" {
		t.Fatalf("accept response = %+v, want org %s as MANAGER", accepted, orgID)
	}
	if accepted.SessionToken == "" {
		t.Fatal("accept response is missing the session token")
	}

	// The session token works immediately.
	rec = f.do("GET", "/api/v1/orgs/"+orgID, accepted.SessionToken, nil)
	requireStatus(t, rec, http.StatusOK)

	// Tokens are single use.
	rec = f.do("POST", "/api/v1/invitations/accept", "", map[string]any{
		"token":   issued.Token,
		"user_id": "user-other",
	})
	requireStatus(t, rec, http.StatusConflict)
	requireErrorCode(t, rec, "INVITE_NOT_PENDING")
}

func TestRevokedInvitationCannotBeResent(t *testing.T) {
	f := newAPIFixture(t)
	admin := f.token("user-admin")
	orgID := f.createOrg(admin)

	rec := f.do("POST", "/api/v1/orgs/"+orgID+"/invitations", admin, map[string]any{
		"email": "omar@example.cm",
		"role":  "MEMBER",
	})
	requireStatus(t, rec, http.StatusCreated)
	issued := decodeBody[issueInvitationResponse](t, rec)

	base := "/api/v1/orgs/" + orgID + "/invitations/" + issued.ID
	rec = f.do("POST", base+"/revoke", admin, nil)
	requireStatus(t, rec, http.StatusOK)
	if got := decodeBody[inviteView](t, rec); got.Status != "REVOKED" {
		t.Fatalf("status after revoke = %q, want REVOKED", got.Status)
	}

	rec = f.do("POST", base+"/resend", admin, nil)
	requireStatus(t, rec, http.StatusConflict)
	requireErrorCode(t, rec, "INVITE_NOT_PENDING")
}

func TestInvitationsAreAdminOnly(t *testing.T) {
	f := newAPIFixture(t)
	admin := f.token("user-admin")
	orgID := f.createOrg(admin)
	f.addMember(orgID, "user-manager", org.RoleManager)

	rec := f.do("POST", "/api/v1/orgs/"+orgID+"/invitations", f.token("user-manager"), map[string]any{
		"email": "ali@example.cm",
		"role":  "MEMBER",
	})
	requireStatus(t, rec, http.StatusForbidden)
}

func TestTimeOffApprovalDeductsBalance(t *testing.T) {
	f := newAPIFixture(t)
	admin := f.token("user-admin")
	orgID := f.createOrg(admin)
	record := f.createEmployee(admin, orgID, "Aminata")

	rec := f.do("POST", "/api/v1/orgs/"+orgID+"/timeoff/policies", admin, map[string]any{
		"name":        "Congés payés",
		"annual_days": 18,
	})
	requireStatus(t, rec, http.StatusCreated)
	policy := decodeBody[policyView](t, rec)

	rec = f.do("POST", "/api/v1/orgs/"+orgID+"/timeoff/requests", admin, map[string]any{
		"employee_id": record.ID,
		"policy_id":   policy.ID,
		"start_date":  "2026-06-01",
		"end_date":    "2026-06-05",
	})
	requireStatus(t, rec, http.StatusCreated)
	request := decodeBody[requestView](t, rec)
	if request.Days != 5 || request.Status != "PENDING" {
		t.Fatalf("request = %+v, want 5 pending days", request)
	}

	rec = f.do("POST", "/api/v1/orgs/"+orgID+"/timeoff/requests/"+request.ID+"/approve", admin, nil)
	requireStatus(t, rec, http.StatusOK)
	if got := decodeBody[requestView](t, rec); got.Status != "APPROVED" || got.DecidedByUserID != "user-admin" {
		t.Fatalf("approved request = %+v", got)
	}

	balancePath := fmt.Sprintf("/api/v1/orgs/%s/timeoff/balance?employee_id=%s&policy_id=%s&year=2026", orgID, record.ID, policy.ID)
	rec = f.do("GET", balancePath, admin, nil)
	requireStatus(t, rec, http.StatusOK)
	if got := decodeBody[balanceView](t, rec); got.Used != 5 || got.Remaining != 13 {
		t.Fatalf("balance = %+v, want 5 used of 18", got)
	}

	// A decision is final.
	rec = f.do("POST", "/api/v1/orgs/"+orgID+"/timeoff/requests/"+request.ID+"/deny", admin, nil)
	requireStatus(t, rec, http.StatusConflict)
	requireErrorCode(t, rec, "TIMEOFF_REQUEST_ALREADY_DECIDED")
}

func TestTimeOffRequestOverBalanceIsRejected(t *testing.T) {
	f := newAPIFixture(t)
	admin := f.token("user-admin")
	orgID := f.createOrg(admin)
	record := f.createEmployee(admin, orgID, "Aminata")

	rec := f.do("POST", "/api/v1/orgs/"+orgID+"/timeoff/policies", admin, map[string]any{
		"name":        "Congés payés",
		"annual_days": 18,
	})
	requireStatus(t, rec, http.StatusCreated)
	policy := decodeBody[policyView](t, rec)

	rec = f.do("POST", "/api/v1/orgs/"+orgID+"/timeoff/requests", admin, map[string]any{
		"employee_id": record.ID,
		"policy_id":   policy.ID,
		"start_date":  "2026-06-01",
		"end_date":    "2026-06-30",
	})
	requireStatus(t, rec, http.StatusConflict)
	requireErrorCode(t, rec, "TIMEOFF_INSUFFICIENT_BALANCE")
}

func TestCancelRequestIsRequesterOnly(t *testing.T) {
	f := newAPIFixture(t)
	admin := f.token("user-admin")
	orgID := f.createOrg(admin)
	record := f.createEmployee(admin, orgID, "Aminata")

	rec := f.do("POST", "/api/v1/orgs/"+orgID+"/timeoff/policies", admin, map[string]any{
		"name":        "Congés payés",
		"annual_days": 18,
	})
	requireStatus(t, rec, http.StatusCreated)
	policy := decodeBody[policyView](t, rec)

	rec = f.do("POST", "/api/v1/orgs/"+orgID+"/timeoff/requests", admin, map[string]any{
		"employee_id": record.ID,
		"policy_id":   policy.ID,
		"start_date":  "2026-07-01",
		"end_date":    "2026-07-03",
	})
	requireStatus(t, rec, http.StatusCreated)
	request := decodeBody[requestView](t, rec)

	cancelPath := "/api/v1/orgs/" + orgID + "/timeoff/requests/" + request.ID + "/cancel"
	rec = f.do("POST", cancelPath, admin, map[string]any{"employee_id": "someone-else"})
	requireStatus(t, rec, http.StatusForbidden)
	requireErrorCode(t, rec, "TIMEOFF_NOT_REQUESTER")

	rec = f.do("POST", cancelPath, admin, map[string]any{"employee_id": record.ID})
	requireStatus(t, rec, http.StatusOK)
	if got := decodeBody[requestView](t, rec); got.Status != "CANCELLED" {
		t.Fatalf("status after cancel = %q, want CANCELLED", got.Status)
	}
}

func TestEvaluationFlow(t *testing.T) {
	f := newAPIFixture(t)
	admin := f.token("user-admin")
	orgID := f.createOrg(admin)
	record := f.createEmployee(admin, orgID, "Aminata")

	rec := f.do("POST", "/api/v1/orgs/"+orgID+"/evaluations", admin, map[string]any{
		"employee_id": record.ID,
		"period":      "2026-S1",
	})
	requireStatus(t, rec, http.StatusCreated)
	opened := decodeBody[evaluationView](t, rec)
	if opened.Status != "DRAFT" {
		t.Fatalf("new evaluation status = %q, want DRAFT", opened.Status)
	}

	base := "/api/v1/orgs/" + orgID + "/evaluations/" + opened.ID

	// Objectives are a submission prerequisite.
	rec = f.do("POST", base+"/submit", admin, map[string]any{"rating": 4})
	requireStatus(t, rec, http.StatusConflict)
	requireErrorCode(t, rec, "EVALUATION_NO_OBJECTIVES")

	rec = f.do("POST", base+"/objectives", admin, map[string]any{
		"title":  "Clôture mensuelle sous 5 jours",
		"weight": 60,
	})
	requireStatus(t, rec, http.StatusCreated)
	objective := decodeBody[objectiveView](t, rec)

	rec = f.do("PATCH", base+"/objectives/"+objective.ID, admin, map[string]any{"progress": 80})
	requireStatus(t, rec, http.StatusOK)
	if got := decodeBody[objectiveView](t, rec); got.Progress != 80 {
		t.Fatalf("objective progress = %d, want 80", got.Progress)
	}

	rec = f.do("POST", base+"/submit", admin, map[string]any{"rating": 4, "summary": "Solide semestre."})
	requireStatus(t, rec, http.StatusOK)
	if got := decodeBody[evaluationView](t, rec); got.Status != "SUBMITTED" || got.OverallRating != 4 {
		t.Fatalf("submitted evaluation = %+v", got)
	}

	rec = f.do("POST", base+"/acknowledge", admin, nil)
	requireStatus(t, rec, http.StatusOK)
	if got := decodeBody[evaluationView](t, rec); got.Status != "ACKNOWLEDGED" {
		t.Fatalf("status after acknowledge = %q, want ACKNOWLEDGED", got.Status)
	}
}

func TestWorkflowLifecycle(t *testing.T) {
	f := newAPIFixture(t)
	admin := f.token("user-admin")
	orgID := f.createOrg(admin)

	rec := f.do("POST", "/api/v1/orgs/"+orgID+"/workflows", admin, map[string]any{
		"name":    "Welcome pack",
		"trigger": "employee.created",
	})
	requireStatus(t, rec, http.StatusBadRequest)
	requireErrorCode(t, rec, "WORKFLOW_NO_ACTION_STEPS")

	rec = f.do("POST", "/api/v1/orgs/"+orgID+"/workflows", admin, map[string]any{
		"name":    "Welcome pack",
		"trigger": "employee.created",
		"steps": []map[string]any{
			{"type": "notification.send", "params": map[string]string{"message_type": "welcome"}},
		},
	})
	requireStatus(t, rec, http.StatusCreated)
	created := decodeBody[workflowView](t, rec)
	if !created.Enabled {
		t.Fatal("new workflows start enabled")
	}

	base := "/api/v1/orgs/" + orgID + "/workflows/" + created.ID
	rec = f.do("POST", base+"/disable", admin, nil)
	requireStatus(t, rec, http.StatusOK)
	if got := decodeBody[workflowView](t, rec); got.Enabled {
		t.Fatal("workflow is still enabled after disable")
	}

	rec = f.do("PUT", base, admin, map[string]any{
		"name":    "Welcome pack v2",
		"trigger": "employee.created",
		"conditions": []map[string]any{
			{"field": "department", "op": "eq", "value": "Finance"},
		},
		"steps": []map[string]any{
			{"type": "notification.send", "params": map[string]string{"message_type": "welcome"}},
		},
	})
	requireStatus(t, rec, http.StatusOK)
	updated := decodeBody[workflowView](t, rec)
	if updated.Name != "Welcome pack v2" || updated.Enabled {
		t.Fatalf("updated workflow = %+v, want renamed and still disabled", updated)
	}

	rec = f.do("DELETE", base, admin, nil)
	requireStatus(t, rec, http.StatusNoContent)
	rec = f.do("GET", base, admin, nil)
	requireStatus(t, rec, http.StatusNotFound)
}

func TestMalformedBodyIsBadRequest(t *testing.T) {
	f := newAPIFixture(t)
	token := f.token("user-admin")
	req := httptest.NewRequest("POST", "/api/v1/orgs", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	requireStatus(t, rec, http.StatusBadRequest)
	requireErrorCode(t, rec, "BAD_REQUEST")
}
