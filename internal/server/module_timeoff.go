package server

import (
	"net/http"
	"strconv"

	"github.com/talio-hq/talio/internal/domain/org"
	"github.com/talio-hq/talio/internal/domain/timeoff"
	"github.com/talio-hq/talio/internal/event"
	"github.com/talio-hq/talio/internal/server/httpx"
	"github.com/talio-hq/talio/internal/storage/sqlite"
)

type createPolicyRequest struct {
	Name         string `json:"name"`
	AnnualDays   int    `json:"annual_days"`
	CarryoverCap int    `json:"carryover_cap"`
}

func (s *Server) handleCreatePolicy(w http.ResponseWriter, r *http.Request) {
	member, err := s.requireRole(r, org.CanManageOrg)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	var body createPolicyRequest
	if err := httpx.DecodeJSON(w, r, &body); err != nil {
		httpx.WriteError(w, err)
		return
	}

	policy, err := timeoff.NewPolicy(member.OrgID, body.Name, body.AnnualDays, body.CarryoverCap, s.now, nil)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if err := s.store.PutTimeOffPolicy(httpx.RequestContext(r), policy); err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusCreated, newPolicyView(policy))
}

func (s *Server) handleListPolicies(w http.ResponseWriter, r *http.Request) {
	member, err := s.membership(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	policies, err := s.store.ListTimeOffPolicies(httpx.RequestContext(r), member.OrgID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	views := make([]policyView, 0, len(policies))
	for _, policy := range policies {
		views = append(views, newPolicyView(policy))
	}
	_ = httpx.WriteJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	member, err := s.membership(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	query := r.URL.Query()
	year, _ := strconv.Atoi(query.Get("year"))
	if year == 0 {
		year = s.now().UTC().Year()
	}
	balance, err := s.store.GetTimeOffBalance(httpx.RequestContext(r), member.OrgID, query.Get("employee_id"), query.Get("policy_id"), year)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, newBalanceView(balance))
}

type createTimeOffRequest struct {
	EmployeeID string `json:"employee_id"`
	PolicyID   string `json:"policy_id"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Note       string `json:"note"`
}

func (s *Server) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	member, err := s.membership(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	var body createTimeOffRequest
	if err := httpx.DecodeJSON(w, r, &body); err != nil {
		httpx.WriteError(w, err)
		return
	}
	startDate, err := parseDate(body.StartDate)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	endDate, err := parseDate(body.EndDate)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	ctx := httpx.RequestContext(r)
	balance, err := s.store.GetTimeOffBalance(ctx, member.OrgID, body.EmployeeID, body.PolicyID, startDate.UTC().Year())
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	request, err := timeoff.NewRequest(timeoff.RequestInput{
		OrgID:      member.OrgID,
		EmployeeID: body.EmployeeID,
		PolicyID:   body.PolicyID,
		StartDate:  startDate,
		EndDate:    endDate,
		Note:       body.Note,
	}, balance.Remaining(), s.now, nil)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	if err := s.store.CreateTimeOffRequest(ctx, request); err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusCreated, newRequestView(request))
}

func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	member, err := s.membership(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	query := r.URL.Query()
	filter := sqlite.TimeOffRequestFilter{
		EmployeeID: query.Get("employee_id"),
		Status:     timeoff.RequestStatusFromLabel(query.Get("status")),
	}
	requests, err := s.store.ListTimeOffRequests(httpx.RequestContext(r), member.OrgID, filter)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	views := make([]requestView, 0, len(requests))
	for _, request := range requests {
		views = append(views, newRequestView(request))
	}
	_ = httpx.WriteJSON(w, http.StatusOK, views)
}

func (s *Server) handleApproveRequest(w http.ResponseWriter, r *http.Request) {
	s.decideRequest(w, r, true)
}

func (s *Server) handleDenyRequest(w http.ResponseWriter, r *http.Request) {
	s.decideRequest(w, r, false)
}

func (s *Server) decideRequest(w http.ResponseWriter, r *http.Request, approve bool) {
	member, err := s.requireRole(r, org.CanApprove)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	ctx := httpx.RequestContext(r)
	request, err := s.store.GetTimeOffRequest(ctx, member.OrgID, r.PathValue("requestID"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	decided, err := timeoff.Decide(request, approve, member.UserID, s.now)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	// Denials settle in place; only approvals feed workflows.
	envelope := event.Envelope{}
	if approve {
		envelope, err = event.New(member.OrgID, event.TypeLeaveApproved, decided.EmployeeID, map[string]any{
			"request_id": decided.ID,
			"policy_id":  decided.PolicyID,
			"days":       decided.Days,
			"start_date": formatTime(decided.StartDate),
			"end_date":   formatTime(decided.EndDate),
		}, s.now, nil)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
	}

	if err := s.store.DecideTimeOffRequest(ctx, decided, envelope); err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, newRequestView(decided))
}

type cancelRequestBody struct {
	EmployeeID string `json:"employee_id"`
}

func (s *Server) handleCancelRequest(w http.ResponseWriter, r *http.Request) {
	member, err := s.membership(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	var body cancelRequestBody
	if err := httpx.DecodeJSON(w, r, &body); err != nil {
		httpx.WriteError(w, err)
		return
	}

	ctx := httpx.RequestContext(r)
	request, err := s.store.GetTimeOffRequest(ctx, member.OrgID, r.PathValue("requestID"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	cancelled, err := timeoff.Cancel(request, body.EmployeeID, s.now)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if err := s.store.CancelTimeOffRequest(ctx, cancelled); err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, newRequestView(cancelled))
}
