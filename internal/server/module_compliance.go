package server

import (
	"net/http"

	"github.com/talio-hq/talio/internal/domain/compliance"
	"github.com/talio-hq/talio/internal/domain/org"
	"github.com/talio-hq/talio/internal/server/httpx"
)

type createTrackerRequest struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

func (s *Server) handleCreateTracker(w http.ResponseWriter, r *http.Request) {
	member, err := s.requireRole(r, org.CanApprove)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	var body createTrackerRequest
	if err := httpx.DecodeJSON(w, r, &body); err != nil {
		httpx.WriteError(w, err)
		return
	}

	tracker, err := compliance.CreateTracker(compliance.CreateTrackerInput{
		OrgID:       member.OrgID,
		Name:        body.Name,
		Category:    compliance.CategoryFromLabel(body.Category),
		Description: body.Description,
	}, s.now, nil)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	if err := s.store.PutComplianceTracker(httpx.RequestContext(r), tracker); err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusCreated, newTrackerView(tracker))
}

func (s *Server) handleListTrackers(w http.ResponseWriter, r *http.Request) {
	member, err := s.membership(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	trackers, err := s.store.ListComplianceTrackers(httpx.RequestContext(r), member.OrgID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	views := make([]trackerView, 0, len(trackers))
	for _, tracker := range trackers {
		views = append(views, newTrackerView(tracker))
	}
	_ = httpx.WriteJSON(w, http.StatusOK, views)
}

type updateTrackerRequest struct {
	Name        *string `json:"name"`
	Category    *string `json:"category"`
	Description *string `json:"description"`
	Active      *bool   `json:"active"`
}

func (s *Server) handleUpdateTracker(w http.ResponseWriter, r *http.Request) {
	member, err := s.requireRole(r, org.CanApprove)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	var body updateTrackerRequest
	if err := httpx.DecodeJSON(w, r, &body); err != nil {
		httpx.WriteError(w, err)
		return
	}

	ctx := httpx.RequestContext(r)
	tracker, err := s.store.GetComplianceTracker(ctx, member.OrgID, r.PathValue("trackerID"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	input := compliance.UpdateTrackerInput{
		Name:        body.Name,
		Description: body.Description,
		Active:      body.Active,
	}
	if body.Category != nil {
		category := compliance.CategoryFromLabel(*body.Category)
		input.Category = &category
	}
	updated, err := compliance.UpdateTracker(tracker, input, s.now)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	if err := s.store.PutComplianceTracker(ctx, updated); err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, newTrackerView(updated))
}

type createItemRequest struct {
	Title      string `json:"title"`
	AssigneeID string `json:"assignee_id"`
	DueDate    string `json:"due_date"`
	Priority   string `json:"priority"`
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	member, err := s.requireRole(r, org.CanApprove)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	var body createItemRequest
	if err := httpx.DecodeJSON(w, r, &body); err != nil {
		httpx.WriteError(w, err)
		return
	}
	dueDate, err := parseDate(body.DueDate)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	ctx := httpx.RequestContext(r)
	tracker, err := s.store.GetComplianceTracker(ctx, member.OrgID, r.PathValue("trackerID"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	item, err := compliance.CreateItem(compliance.CreateItemInput{
		OrgID:      member.OrgID,
		TrackerID:  tracker.ID,
		Title:      body.Title,
		AssigneeID: body.AssigneeID,
		DueDate:    dueDate,
		Priority:   compliance.PriorityFromLabel(body.Priority),
	}, s.now, nil)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	if err := s.store.CreateComplianceItem(ctx, item); err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusCreated, newItemView(item))
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	member, err := s.membership(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	items, err := s.store.ListComplianceItems(httpx.RequestContext(r), member.OrgID, r.PathValue("trackerID"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	views := make([]itemView, 0, len(items))
	for _, item := range items {
		views = append(views, newItemView(item))
	}
	_ = httpx.WriteJSON(w, http.StatusOK, views)
}

type updateItemRequest struct {
	Title      *string `json:"title"`
	AssigneeID *string `json:"assignee_id"`
	DueDate    *string `json:"due_date"`
	Priority   *string `json:"priority"`
	Status     *string `json:"status"`
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	member, err := s.requireRole(r, org.CanApprove)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	var body updateItemRequest
	if err := httpx.DecodeJSON(w, r, &body); err != nil {
		httpx.WriteError(w, err)
		return
	}

	ctx := httpx.RequestContext(r)
	item, err := s.store.GetComplianceItem(ctx, member.OrgID, r.PathValue("itemID"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	input := compliance.UpdateItemInput{
		Title:      body.Title,
		AssigneeID: body.AssigneeID,
	}
	if body.DueDate != nil {
		dueDate, err := parseDate(*body.DueDate)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		input.DueDate = &dueDate
	}
	if body.Priority != nil {
		priority := compliance.PriorityFromLabel(*body.Priority)
		input.Priority = &priority
	}
	if body.Status != nil {
		status := compliance.ItemStatusFromLabel(*body.Status)
		input.Status = &status
	}
	updated, err := compliance.UpdateItem(item, input, s.now)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	if err := s.store.UpdateComplianceItem(ctx, updated); err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, newItemView(updated))
}

func (s *Server) handleCompleteItem(w http.ResponseWriter, r *http.Request) {
	member, err := s.requireRole(r, org.CanApprove)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	ctx := httpx.RequestContext(r)
	item, err := s.store.GetComplianceItem(ctx, member.OrgID, r.PathValue("itemID"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	done, err := compliance.Complete(item, s.now)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if err := s.store.UpdateComplianceItem(ctx, done); err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, newItemView(done))
}
