// Package catalog holds the static registry of artifacts (pipeline stages,
// organizational roles and software tools) that can be placed on a canvas.
//
// A Catalog is immutable once built. Lookups never fail loudly: an unknown id
// simply reports not found, and nodes that reference it render as unknown.
package catalog

import (
	"fmt"

	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/model"
)

// OtherCategory groups software artifacts that carry no category.
const OtherCategory = "Other"

// Catalog is an ordered, indexed set of artifacts.
type Catalog struct {
	items []*model.Artifact
	byID  map[string]*model.Artifact
}

// Default is the built-in catalog.
var Default = MustNew(builtin())

// New builds a catalog from the given artifacts, preserving their order.
// It rejects empty or duplicate ids and unknown artifact types.
func New(artifacts []model.Artifact) (*Catalog, error) {
	c := &Catalog{
		items: make([]*model.Artifact, 0, len(artifacts)),
		byID:  make(map[string]*model.Artifact, len(artifacts)),
	}
	for i := range artifacts {
		a := artifacts[i]
		if a.ID == "" {
			return nil, fmt.Errorf("catalog: artifact %d has no id", i)
		}
		if !a.Type.IsValid() {
			return nil, fmt.Errorf("catalog: artifact %q has invalid type %q", a.ID, a.Type)
		}
		if _, dup := c.byID[a.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate artifact id %q", a.ID)
		}
		c.items = append(c.items, &a)
		c.byID[a.ID] = &a
	}
	return c, nil
}

// MustNew is like New but panics on error. Used for the built-in catalog.
func MustNew(artifacts []model.Artifact) *Catalog {
	c, err := New(artifacts)
	if err != nil {
		panic(err)
	}
	return c
}

// ArtifactByID returns the artifact with the given id.
func (c *Catalog) ArtifactByID(id string) (*model.Artifact, bool) {
	a, ok := c.byID[id]
	return a, ok
}

// ArtifactsByType returns every artifact of type t in catalog order.
func (c *Catalog) ArtifactsByType(t model.ArtifactType) []*model.Artifact {
	var out []*model.Artifact
	for _, a := range c.items {
		if a.Type == t {
			out = append(out, a)
		}
	}
	return out
}

// SoftwareByCategory groups software artifacts by category in a single pass.
// Artifacts without a category land in OtherCategory.
func (c *Catalog) SoftwareByCategory() map[string][]*model.Artifact {
	out := make(map[string][]*model.Artifact)
	for _, a := range c.items {
		if a.Type != model.ArtifactSoftware {
			continue
		}
		cat := a.Category
		if cat == "" {
			cat = OtherCategory
		}
		out[cat] = append(out[cat], a)
	}
	return out
}

// Categories returns software category names in first-seen order.
func (c *Catalog) Categories() []string {
	var out []string
	seen := make(map[string]bool)
	for _, a := range c.items {
		if a.Type != model.ArtifactSoftware {
			continue
		}
		cat := a.Category
		if cat == "" {
			cat = OtherCategory
		}
		if !seen[cat] {
			seen[cat] = true
			out = append(out, cat)
		}
	}
	return out
}

// All returns every artifact in catalog order.
func (c *Catalog) All() []*model.Artifact {
	out := make([]*model.Artifact, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of artifacts.
func (c *Catalog) Len() int { return len(c.items) }

// ArtifactByID looks up id in the default catalog.
func ArtifactByID(id string) (*model.Artifact, bool) { return Default.ArtifactByID(id) }

// ArtifactsByType filters the default catalog by type.
func ArtifactsByType(t model.ArtifactType) []*model.Artifact { return Default.ArtifactsByType(t) }

// SoftwareByCategory groups the default catalog's software artifacts.
func SoftwareByCategory() map[string][]*model.Artifact { return Default.SoftwareByCategory() }
