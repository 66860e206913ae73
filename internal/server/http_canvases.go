package server

import (
	"net/http"
	"strconv"

	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/canvas"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/model"
)

// handleListCanvases handles GET /api/organization-canvases. The body is the
// bare array; the unpaged total is reported in X-Total-Count.
func (s *CanvasServer) handleListCanvases(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.CanvasFilter{
		Search: q.Get("search"),
		Sort:   q.Get("sort"),
	}
	for _, p := range []struct {
		name string
		dst  *int
	}{{"limit", &filter.Limit}, {"offset", &filter.Offset}} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, p.name+" must be an integer")
			return
		}
		*p.dst = n
	}

	canvases, total, err := s.listCanvases(r.Context(), filter)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	writeJSON(w, http.StatusOK, canvases)
}

// handleCreateCanvas handles POST /api/organization-canvases.
func (s *CanvasServer) handleCreateCanvas(w http.ResponseWriter, r *http.Request) {
	var in createCanvasInput
	if !decodeBody(w, r, &in) {
		return
	}
	c, err := s.createCanvas(r.Context(), in, actorFrom(r))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/organization-canvases/"+c.ID)
	writeJSON(w, http.StatusCreated, c)
}

// handleGetCanvas handles GET /api/organization-canvases/{id}.
func (s *CanvasServer) handleGetCanvas(w http.ResponseWriter, r *http.Request) {
	c, err := s.getCanvas(r.Context(), r.PathValue("id"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// handleUpdateCanvas handles PUT /api/organization-canvases/{id}.
func (s *CanvasServer) handleUpdateCanvas(w http.ResponseWriter, r *http.Request) {
	var in updateCanvasInput
	if !decodeBody(w, r, &in) {
		return
	}
	c, err := s.updateCanvas(r.Context(), r.PathValue("id"), in, actorFrom(r))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// handleRenameCanvas handles PATCH /api/organization-canvases/{id}.
func (s *CanvasServer) handleRenameCanvas(w http.ResponseWriter, r *http.Request) {
	var in renameCanvasInput
	if !decodeBody(w, r, &in) {
		return
	}
	c, err := s.renameCanvas(r.Context(), r.PathValue("id"), in, actorFrom(r))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// handleDeleteCanvas handles DELETE /api/organization-canvases/{id}.
func (s *CanvasServer) handleDeleteCanvas(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.deleteCanvas(r.Context(), id, actorFrom(r)); err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true, "id": id})
}

// handleGetEvents handles GET /api/organization-canvases/{id}/events.
func (s *CanvasServer) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	evts, err := s.canvasEvents(r.Context(), r.PathValue("id"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, evts)
}

// handleGetDiagram handles GET /api/organization-canvases/{id}/diagram.
func (s *CanvasServer) handleGetDiagram(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = canvas.FormatMermaid
	}
	c, err := s.getCanvas(r.Context(), r.PathValue("id"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	out, err := canvas.RenderDiagram(format, c.Name, c.CanvasData, s.catalog)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(out))
}
