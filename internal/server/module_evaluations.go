package server

import (
	"net/http"

	"github.com/talio-hq/talio/internal/domain/evaluation"
	"github.com/talio-hq/talio/internal/domain/org"
	apperrors "github.com/talio-hq/talio/internal/errors"
	"github.com/talio-hq/talio/internal/event"
	"github.com/talio-hq/talio/internal/server/httpx"
)

type openEvaluationRequest struct {
	EmployeeID string `json:"employee_id"`
	Period     string `json:"period"`
}

func (s *Server) handleOpenEvaluation(w http.ResponseWriter, r *http.Request) {
	member, err := s.requireRole(r, org.CanApprove)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	var body openEvaluationRequest
	if err := httpx.DecodeJSON(w, r, &body); err != nil {
		httpx.WriteError(w, err)
		return
	}

	ctx := httpx.RequestContext(r)
	// The subject must exist in this organization before a review opens.
	if _, err := s.store.GetEmployee(ctx, member.OrgID, body.EmployeeID); err != nil {
		httpx.WriteError(w, err)
		return
	}

	record, err := evaluation.Open(evaluation.OpenInput{
		OrgID:      member.OrgID,
		EmployeeID: body.EmployeeID,
		ReviewerID: member.UserID,
		Period:     body.Period,
	}, s.now, nil)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	if err := s.store.CreateEvaluation(ctx, record); err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusCreated, newEvaluationView(record))
}

func (s *Server) handleListEvaluations(w http.ResponseWriter, r *http.Request) {
	member, err := s.membership(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	records, err := s.store.ListEvaluations(httpx.RequestContext(r), member.OrgID, r.URL.Query().Get("employee_id"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	views := make([]evaluationView, 0, len(records))
	for _, record := range records {
		views = append(views, newEvaluationView(record))
	}
	_ = httpx.WriteJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetEvaluation(w http.ResponseWriter, r *http.Request) {
	member, err := s.membership(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	ctx := httpx.RequestContext(r)
	record, err := s.store.GetEvaluation(ctx, member.OrgID, r.PathValue("evaluationID"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	objectives, err := s.store.ListObjectives(ctx, record.ID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	objectiveViews := make([]objectiveView, 0, len(objectives))
	for _, objective := range objectives {
		objectiveViews = append(objectiveViews, newObjectiveView(objective))
	}
	_ = httpx.WriteJSON(w, http.StatusOK, struct {
		evaluationView
		Objectives []objectiveView `json:"objectives"`
	}{newEvaluationView(record), objectiveViews})
}

type addObjectiveRequest struct {
	Title  string `json:"title"`
	Weight int    `json:"weight"`
}

func (s *Server) handleAddObjective(w http.ResponseWriter, r *http.Request) {
	member, err := s.requireRole(r, org.CanApprove)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	var body addObjectiveRequest
	if err := httpx.DecodeJSON(w, r, &body); err != nil {
		httpx.WriteError(w, err)
		return
	}

	ctx := httpx.RequestContext(r)
	record, err := s.store.GetEvaluation(ctx, member.OrgID, r.PathValue("evaluationID"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if record.Status != evaluation.StatusDraft {
		httpx.WriteError(w, apperrors.New(apperrors.CodeEvaluationInvalidTransition, "objectives can only change while the evaluation is a draft"))
		return
	}

	objective, err := evaluation.NewObjective(record.ID, body.Title, body.Weight, s.now, nil)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if err := s.store.PutObjective(ctx, objective); err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusCreated, newObjectiveView(objective))
}

type updateObjectiveRequest struct {
	Progress int `json:"progress"`
}

func (s *Server) handleUpdateObjective(w http.ResponseWriter, r *http.Request) {
	member, err := s.requireRole(r, org.CanApprove)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	var body updateObjectiveRequest
	if err := httpx.DecodeJSON(w, r, &body); err != nil {
		httpx.WriteError(w, err)
		return
	}
	if err := evaluation.ValidateProgress(body.Progress); err != nil {
		httpx.WriteError(w, err)
		return
	}

	ctx := httpx.RequestContext(r)
	record, err := s.store.GetEvaluation(ctx, member.OrgID, r.PathValue("evaluationID"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	objectives, err := s.store.ListObjectives(ctx, record.ID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	objectiveID := r.PathValue("objectiveID")
	for _, objective := range objectives {
		if objective.ID != objectiveID {
			continue
		}
		objective.Progress = body.Progress
		objective.UpdatedAt = s.now().UTC()
		if err := s.store.PutObjective(ctx, objective); err != nil {
			httpx.WriteError(w, err)
			return
		}
		_ = httpx.WriteJSON(w, http.StatusOK, newObjectiveView(objective))
		return
	}
	httpx.WriteError(w, apperrors.New(apperrors.CodeNotFound, "objective not found"))
}

type submitEvaluationRequest struct {
	Rating  int    `json:"rating"`
	Summary string `json:"summary"`
}

func (s *Server) handleSubmitEvaluation(w http.ResponseWriter, r *http.Request) {
	member, err := s.requireRole(r, org.CanApprove)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	var body submitEvaluationRequest
	if err := httpx.DecodeJSON(w, r, &body); err != nil {
		httpx.WriteError(w, err)
		return
	}

	ctx := httpx.RequestContext(r)
	record, err := s.store.GetEvaluation(ctx, member.OrgID, r.PathValue("evaluationID"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	count, err := s.store.CountObjectives(ctx, record.ID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	submitted, err := evaluation.Submit(record, count, body.Rating, body.Summary, s.now)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	envelope, err := event.New(member.OrgID, event.TypeEvaluationSubmitted, submitted.ID, map[string]any{
		"employee_id": submitted.EmployeeID,
		"rating":      submitted.OverallRating,
		"period":      submitted.Period,
	}, s.now, nil)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	if err := s.store.SubmitEvaluation(ctx, submitted, envelope); err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, newEvaluationView(submitted))
}

func (s *Server) handleAcknowledgeEvaluation(w http.ResponseWriter, r *http.Request) {
	member, err := s.membership(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	ctx := httpx.RequestContext(r)
	record, err := s.store.GetEvaluation(ctx, member.OrgID, r.PathValue("evaluationID"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	acknowledged, err := evaluation.Acknowledge(record, s.now)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if err := s.store.AcknowledgeEvaluation(ctx, acknowledged); err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, newEvaluationView(acknowledged))
}
