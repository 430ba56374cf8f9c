package server

import (
	"net/http"

	"github.com/talio-hq/talio/internal/domain/org"
	apperrors "github.com/talio-hq/talio/internal/errors"
	"github.com/talio-hq/talio/internal/server/authn"
	"github.com/talio-hq/talio/internal/server/httpx"
)

type createOrgRequest struct {
	Name          string `json:"name"`
	CountryCode   string `json:"country_code"`
	DefaultLocale string `json:"default_locale"`
}

// handleCreateOrg creates an organization. The creator becomes its admin.
func (s *Server) handleCreateOrg(w http.ResponseWriter, r *http.Request) {
	userID := authn.UserID(r.Context())
	if userID == "" {
		httpx.WriteError(w, apperrors.New(apperrors.CodeAuthMissingToken, "a bearer token is required"))
		return
	}

	var body createOrgRequest
	if err := httpx.DecodeJSON(w, r, &body); err != nil {
		httpx.WriteError(w, err)
		return
	}

	organization, err := org.CreateOrganization(org.CreateOrganizationInput{
		Name:          body.Name,
		CountryCode:   body.CountryCode,
		DefaultLocale: body.DefaultLocale,
	}, s.now, nil)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	ctx := httpx.RequestContext(r)
	if err := s.store.PutOrganization(ctx, organization); err != nil {
		httpx.WriteError(w, err)
		return
	}
	member, err := org.NewMembership(organization.ID, userID, org.RoleAdmin, s.now)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if err := s.store.PutMembership(ctx, member); err != nil {
		httpx.WriteError(w, err)
		return
	}

	_ = httpx.WriteJSON(w, http.StatusCreated, newOrgView(organization))
}

func (s *Server) handleGetOrg(w http.ResponseWriter, r *http.Request) {
	member, err := s.membership(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	organization, err := s.store.GetOrganization(httpx.RequestContext(r), member.OrgID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, newOrgView(organization))
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	member, err := s.membership(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	members, err := s.store.ListMemberships(httpx.RequestContext(r), member.OrgID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	views := make([]memberView, 0, len(members))
	for _, m := range members {
		views = append(views, newMemberView(m))
	}
	_ = httpx.WriteJSON(w, http.StatusOK, views)
}
