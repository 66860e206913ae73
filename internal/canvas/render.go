package canvas

import (
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/catalog"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/model"
)

// NodeView is the display form of a node after its artifact reference has
// been resolved.
type NodeView struct {
	ID       string             `json:"id"`
	Label    string             `json:"label"`
	Kind     model.ArtifactType `json:"kind,omitempty"`
	Icon     string             `json:"icon,omitempty"`
	Color    string             `json:"color,omitempty"`
	Category string             `json:"category,omitempty"`
	Position model.Position     `json:"position"`
	// Known is false when the node type has no renderer or the artifact id
	// does not resolve in the catalog.
	Known bool `json:"known"`
}

// NodeRenderer turns a node into a NodeView.
type NodeRenderer interface {
	Render(n model.Node, cat *catalog.Catalog) NodeView
}

// NodeRendererFunc adapts a function to NodeRenderer.
type NodeRendererFunc func(n model.Node, cat *catalog.Catalog) NodeView

// Render calls f.
func (f NodeRendererFunc) Render(n model.Node, cat *catalog.Catalog) NodeView { return f(n, cat) }

// renderers maps node type tags to renderers. Built once at init.
var renderers = map[string]NodeRenderer{
	model.NodeTypeOrg: NodeRendererFunc(renderOrgNode),
}

// RendererFor returns the renderer registered for nodeType, falling back to a
// renderer that marks the node unknown.
func RendererFor(nodeType string) NodeRenderer {
	if r, ok := renderers[nodeType]; ok {
		return r
	}
	return NodeRendererFunc(renderUnknown)
}

// RenderNode resolves n against cat using the renderer for its type.
func RenderNode(n model.Node, cat *catalog.Catalog) NodeView {
	if cat == nil {
		cat = catalog.Default
	}
	return RendererFor(n.Type).Render(n, cat)
}

func renderOrgNode(n model.Node, cat *catalog.Catalog) NodeView {
	a, ok := cat.ArtifactByID(n.Data.ArtifactID)
	if !ok {
		return renderUnknown(n, cat)
	}
	return NodeView{
		ID:       n.ID,
		Label:    a.DisplayName,
		Kind:     a.Type,
		Icon:     a.Icon,
		Color:    a.ColorToken,
		Category: a.Category,
		Position: n.Position,
		Known:    true,
	}
}

func renderUnknown(n model.Node, _ *catalog.Catalog) NodeView {
	label := "Unknown"
	if n.Data.ArtifactID != "" {
		label = "Unknown (" + n.Data.ArtifactID + ")"
	}
	return NodeView{
		ID:       n.ID,
		Label:    label,
		Position: n.Position,
	}
}
