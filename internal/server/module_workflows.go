package server

import (
	"net/http"
	"strconv"

	"github.com/talio-hq/talio/internal/domain/org"
	"github.com/talio-hq/talio/internal/domain/workflow"
	"github.com/talio-hq/talio/internal/server/httpx"
)

type workflowRequest struct {
	Name       string               `json:"name"`
	Trigger    string               `json:"trigger"`
	Conditions []workflow.Condition `json:"conditions"`
	Steps      []workflow.Step      `json:"steps"`
}

func (s *Server) handleCreateWorkflow(w http.ResponseWriter, r *http.Request) {
	member, err := s.requireRole(r, org.CanManageOrg)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	var body workflowRequest
	if err := httpx.DecodeJSON(w, r, &body); err != nil {
		httpx.WriteError(w, err)
		return
	}

	record, err := workflow.Create(workflow.CreateInput{
		OrgID:      member.OrgID,
		Name:       body.Name,
		Trigger:    body.Trigger,
		Conditions: body.Conditions,
		Steps:      body.Steps,
	}, s.now, nil)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	if err := s.store.PutWorkflow(httpx.RequestContext(r), record); err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusCreated, newWorkflowView(record))
}

func (s *Server) handleListWorkflows(w http.ResponseWriter, r *http.Request) {
	member, err := s.requireRole(r, org.CanManageOrg)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	records, err := s.store.ListWorkflows(httpx.RequestContext(r), member.OrgID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	views := make([]workflowView, 0, len(records))
	for _, record := range records {
		views = append(views, newWorkflowView(record))
	}
	_ = httpx.WriteJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	member, err := s.requireRole(r, org.CanManageOrg)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	record, err := s.store.GetWorkflow(httpx.RequestContext(r), member.OrgID, r.PathValue("workflowID"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, newWorkflowView(record))
}

// handleUpdateWorkflow replaces the rule definition, keeping its identity
// and enabled flag.
func (s *Server) handleUpdateWorkflow(w http.ResponseWriter, r *http.Request) {
	member, err := s.requireRole(r, org.CanManageOrg)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	var body workflowRequest
	if err := httpx.DecodeJSON(w, r, &body); err != nil {
		httpx.WriteError(w, err)
		return
	}

	ctx := httpx.RequestContext(r)
	existing, err := s.store.GetWorkflow(ctx, member.OrgID, r.PathValue("workflowID"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	// Create validates the full definition; identity fields are restored after.
	validated, err := workflow.Create(workflow.CreateInput{
		OrgID:      member.OrgID,
		Name:       body.Name,
		Trigger:    body.Trigger,
		Conditions: body.Conditions,
		Steps:      body.Steps,
	}, s.now, nil)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	validated.ID = existing.ID
	validated.Enabled = existing.Enabled
	validated.CreatedAt = existing.CreatedAt

	if err := s.store.PutWorkflow(ctx, validated); err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, newWorkflowView(validated))
}

func (s *Server) handleDeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	member, err := s.requireRole(r, org.CanManageOrg)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if err := s.store.DeleteWorkflow(httpx.RequestContext(r), member.OrgID, r.PathValue("workflowID")); err != nil {
		httpx.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEnableWorkflow(w http.ResponseWriter, r *http.Request) {
	s.setWorkflowEnabled(w, r, true)
}

func (s *Server) handleDisableWorkflow(w http.ResponseWriter, r *http.Request) {
	s.setWorkflowEnabled(w, r, false)
}

func (s *Server) setWorkflowEnabled(w http.ResponseWriter, r *http.Request, enabled bool) {
	member, err := s.requireRole(r, org.CanManageOrg)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	ctx := httpx.RequestContext(r)
	workflowID := r.PathValue("workflowID")
	if err := s.store.SetWorkflowEnabled(ctx, member.OrgID, workflowID, enabled, s.now().UTC().UnixMilli()); err != nil {
		httpx.WriteError(w, err)
		return
	}
	record, err := s.store.GetWorkflow(ctx, member.OrgID, workflowID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, newWorkflowView(record))
}

func (s *Server) handleListWorkflowRuns(w http.ResponseWriter, r *http.Request) {
	member, err := s.requireRole(r, org.CanManageOrg)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := s.store.ListWorkflowRuns(httpx.RequestContext(r), member.OrgID, r.PathValue("workflowID"), limit)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	views := make([]runView, 0, len(runs))
	for _, run := range runs {
		views = append(views, newRunView(run))
	}
	_ = httpx.WriteJSON(w, http.StatusOK, views)
}
