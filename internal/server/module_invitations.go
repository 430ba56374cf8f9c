package server

import (
	"net/http"

	"github.com/talio-hq/talio/internal/domain/invitation"
	"github.com/talio-hq/talio/internal/domain/org"
	apperrors "github.com/talio-hq/talio/internal/errors"
	"github.com/talio-hq/talio/internal/event"
	"github.com/talio-hq/talio/internal/server/httpx"
)

type issueInvitationRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type issueInvitationResponse struct {
	inviteView
	// Token is returned exactly once; only its hash is stored.
	Token string `json:"token"`
}

func (s *Server) handleIssueInvitation(w http.ResponseWriter, r *http.Request) {
	member, err := s.requireRole(r, org.CanManageOrg)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	var body issueInvitationRequest
	if err := httpx.DecodeJSON(w, r, &body); err != nil {
		httpx.WriteError(w, err)
		return
	}

	invite, rawToken, err := invitation.Issue(invitation.IssueInput{
		OrgID:           member.OrgID,
		Email:           body.Email,
		Role:            org.RoleFromLabel(body.Role),
		InvitedByUserID: member.UserID,
	}, s.now, nil)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	envelope, err := event.New(member.OrgID, event.TypeInviteSent, invite.ID, map[string]any{
		"email": invite.Email,
		"role":  org.RoleLabel(invite.Role),
	}, s.now, nil)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	if err := s.store.IssueInvitation(httpx.RequestContext(r), invite, envelope); err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusCreated, issueInvitationResponse{newInviteView(invite), rawToken})
}

func (s *Server) handleListInvitations(w http.ResponseWriter, r *http.Request) {
	member, err := s.requireRole(r, org.CanManageOrg)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	invites, err := s.store.ListInvitations(httpx.RequestContext(r), member.OrgID, s.now())
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	views := make([]inviteView, 0, len(invites))
	for _, invite := range invites {
		views = append(views, newInviteView(invite))
	}
	_ = httpx.WriteJSON(w, http.StatusOK, views)
}

func (s *Server) handleResendInvitation(w http.ResponseWriter, r *http.Request) {
	member, err := s.requireRole(r, org.CanManageOrg)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	ctx := httpx.RequestContext(r)
	invite, err := s.store.GetInvitation(ctx, member.OrgID, r.PathValue("inviteID"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	refreshed, err := invitation.PrepareResend(invite, 0, s.now)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	envelope, err := event.New(member.OrgID, event.TypeInviteSent, refreshed.ID, map[string]any{
		"email":  refreshed.Email,
		"role":   org.RoleLabel(refreshed.Role),
		"resend": true,
	}, s.now, nil)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	if err := s.store.UpdateInvitation(ctx, refreshed, envelope); err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, newInviteView(refreshed))
}

func (s *Server) handleRevokeInvitation(w http.ResponseWriter, r *http.Request) {
	member, err := s.requireRole(r, org.CanManageOrg)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	ctx := httpx.RequestContext(r)
	invite, err := s.store.GetInvitation(ctx, member.OrgID, r.PathValue("inviteID"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if invite.Status != invitation.StatusPending {
		httpx.WriteError(w, invitation.ErrNotPending)
		return
	}

	invite.Status = invitation.StatusRevoked
	invite.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateInvitation(ctx, invite, event.Envelope{}); err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, newInviteView(invite))
}

type acceptInvitationRequest struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

type acceptInvitationResponse struct {
	OrgID string `json:"org_id"`
	Role  string `json:"role"`
	// SessionToken authenticates follow-up API calls for the new member.
	SessionToken string `json:"session_token"`
}

// handleAcceptInvitation redeems an invitation token and opens a session.
func (s *Server) handleAcceptInvitation(w http.ResponseWriter, r *http.Request) {
	var body acceptInvitationRequest
	if err := httpx.DecodeJSON(w, r, &body); err != nil {
		httpx.WriteError(w, err)
		return
	}
	if body.Token == "" || body.UserID == "" {
		httpx.WriteError(w, apperrors.New(apperrors.CodeBadRequest, "token and user_id are required"))
		return
	}

	invite, err := s.store.AcceptInvitation(httpx.RequestContext(r), invitation.HashToken(body.Token), body.UserID, s.now())
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	sessionToken, err := s.auth.Issue(body.UserID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, acceptInvitationResponse{
		OrgID:        invite.OrgID,
		Role:         org.RoleLabel(invite.Role),
		SessionToken: sessionToken,
	})
}
