package server

import (
	"net/http"

	"github.com/talio-hq/talio/internal/server/httpx"
)

// Notifications are personal; members only ever see their own.

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	member, err := s.membership(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	unreadOnly := r.URL.Query().Get("unread") == "true"
	notifications, err := s.store.ListNotifications(httpx.RequestContext(r), member.OrgID, member.UserID, unreadOnly)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	views := make([]notificationView, 0, len(notifications))
	for _, notification := range notifications {
		views = append(views, newNotificationView(notification))
	}
	_ = httpx.WriteJSON(w, http.StatusOK, views)
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	member, err := s.membership(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if err := s.store.MarkNotificationRead(httpx.RequestContext(r), member.OrgID, member.UserID, r.PathValue("notificationID")); err != nil {
		httpx.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
