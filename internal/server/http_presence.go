package server

import (
	"net/http"

	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/presence"
)

// handleGetPresence handles GET /api/organization-canvases/{id}/presence.
func (s *CanvasServer) handleGetPresence(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Presence.Sessions(r.PathValue("id")))
}

// handleHeartbeat handles POST /api/organization-canvases/{id}/presence.
// It records the heartbeat and returns every session on the canvas, so an
// editor can warn that someone else is working on it.
func (s *CanvasServer) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var hb presence.Heartbeat
	if !decodeBody(w, r, &hb) {
		return
	}
	if hb.SessionID == "" {
		writeError(w, http.StatusBadRequest, "sessionId is required")
		return
	}
	if _, err := s.getCanvas(r.Context(), id); err != nil {
		writeErr(w, r, err)
		return
	}
	hb.CanvasID = id
	if hb.Actor == "" {
		hb.Actor = actorFrom(r)
	}
	s.Presence.Heartbeat(hb)
	writeJSON(w, http.StatusOK, s.Presence.Sessions(id))
}

// handleLeave handles DELETE /api/organization-canvases/{id}/presence/{session}.
func (s *CanvasServer) handleLeave(w http.ResponseWriter, r *http.Request) {
	s.Presence.Leave(r.PathValue("id"), r.PathValue("session"))
	w.WriteHeader(http.StatusNoContent)
}
