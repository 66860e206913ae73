package server

import (
	"net/http"

	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/model"
)

// softwareCategory is one group in the software-categories response.
type softwareCategory struct {
	Name      string            `json:"name"`
	Artifacts []*model.Artifact `json:"artifacts"`
}

// handleListArtifacts handles GET /api/artifacts[?type=].
func (s *CanvasServer) handleListArtifacts(w http.ResponseWriter, r *http.Request) {
	t := r.URL.Query().Get("type")
	if t == "" {
		writeJSON(w, http.StatusOK, s.catalog.All())
		return
	}
	at := model.ArtifactType(t)
	if !at.IsValid() {
		writeError(w, http.StatusBadRequest, "unknown artifact type "+t)
		return
	}
	list := s.catalog.ArtifactsByType(at)
	if list == nil {
		list = []*model.Artifact{}
	}
	writeJSON(w, http.StatusOK, list)
}

// handleGetArtifact handles GET /api/artifacts/{id}.
func (s *CanvasServer) handleGetArtifact(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	a, ok := s.catalog.ArtifactByID(id)
	if !ok {
		writeErr(w, r, &model.NotFoundError{Kind: "artifact", ID: id})
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// handleSoftwareCategories handles GET /api/artifacts/software-categories.
// Categories are listed in catalog order.
func (s *CanvasServer) handleSoftwareCategories(w http.ResponseWriter, _ *http.Request) {
	groups := s.catalog.SoftwareByCategory()
	out := make([]softwareCategory, 0, len(groups))
	for _, name := range s.catalog.Categories() {
		out = append(out, softwareCategory{Name: name, Artifacts: groups[name]})
	}
	writeJSON(w, http.StatusOK, out)
}
