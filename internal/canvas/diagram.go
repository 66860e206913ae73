package canvas

import (
	"fmt"
	"strings"

	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/catalog"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/model"
)

// Diagram export formats.
const (
	FormatMermaid = "mermaid"
	FormatText    = "text"
)

// RenderDiagram renders d in the named format. An empty format selects Mermaid.
func RenderDiagram(format, title string, d model.CanvasData, cat *catalog.Catalog) (string, error) {
	if cat == nil {
		cat = catalog.Default
	}
	switch format {
	case "", FormatMermaid:
		return RenderMermaid(title, d, cat), nil
	case FormatText:
		return RenderText(title, d, cat), nil
	default:
		return "", fmt.Errorf("unknown diagram format %q (want %s or %s)", format, FormatMermaid, FormatText)
	}
}

// RenderMermaid renders the canvas graph as a left-to-right Mermaid flowchart.
func RenderMermaid(title string, d model.CanvasData, cat *catalog.Catalog) string {
	var b strings.Builder

	b.WriteString("graph LR\n")
	if title != "" {
		fmt.Fprintf(&b, "    %%%% %s\n", title)
	}

	views := make([]NodeView, len(d.Nodes))
	for i, n := range d.Nodes {
		views[i] = RenderNode(n, cat)
		fmt.Fprintf(&b, "    %s\n", mermaidNodeDef(views[i]))
	}

	for _, e := range d.Edges {
		arrow := "-->"
		if e.Dashed() {
			arrow = "-.->"
		}
		label := ""
		if e.Label != "" {
			label = fmt.Sprintf("|%s|", mermaidEscapeLabel(e.Label))
		}
		fmt.Fprintf(&b, "    %s %s%s %s\n", mermaidSafeID(e.Source), arrow, label, mermaidSafeID(e.Target))
	}

	b.WriteString("\n")
	b.WriteString("    classDef stage fill:#1a5276,stroke:#0e3a52,color:#fff\n")
	b.WriteString("    classDef role fill:#2d6a2d,stroke:#1a4a1a,color:#fff\n")
	b.WriteString("    classDef software fill:#6b3fa0,stroke:#4a2a70,color:#fff\n")
	b.WriteString("    classDef unknown fill:#6b6b6b,stroke:#4a4a4a,color:#ddd,stroke-dasharray:5 5\n")

	for _, v := range views {
		cls := "unknown"
		if v.Known {
			switch v.Kind {
			case model.ArtifactStage, model.ArtifactRole, model.ArtifactSoftware:
				cls = string(v.Kind)
			}
		}
		fmt.Fprintf(&b, "    class %s %s\n", mermaidSafeID(v.ID), cls)
	}

	return b.String()
}

func mermaidNodeDef(v NodeView) string {
	id := mermaidSafeID(v.ID)
	label := mermaidEscapeLabel(v.Label)
	if !v.Known {
		return fmt.Sprintf("%s{{%q}}", id, label)
	}
	switch v.Kind {
	case model.ArtifactStage:
		return fmt.Sprintf("%s([%q])", id, label)
	case model.ArtifactSoftware:
		return fmt.Sprintf("%s[(%q)]", id, label)
	case model.ArtifactRole:
		return fmt.Sprintf("%s[/%q/]", id, label)
	default:
		return fmt.Sprintf("%s[%q]", id, label)
	}
}

// mermaidSafeID replaces characters Mermaid treats as syntax in identifiers.
func mermaidSafeID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", " ", "_")
	return r.Replace(id)
}

func mermaidEscapeLabel(s string) string {
	r := strings.NewReplacer(`"`, "'", "|", "/", "\n", " ")
	return r.Replace(s)
}

// RenderText renders the canvas graph as a plain listing of nodes and edges.
// Edges referencing missing nodes are shown with the raw id.
func RenderText(title string, d model.CanvasData, cat *catalog.Catalog) string {
	var b strings.Builder
	if title != "" {
		b.WriteString(title)
		b.WriteString("\n")
		b.WriteString(strings.Repeat("=", len([]rune(title))))
		b.WriteString("\n")
	}

	labels := make(map[string]string, len(d.Nodes))
	fmt.Fprintf(&b, "Nodes (%d):\n", len(d.Nodes))
	for _, n := range d.Nodes {
		v := RenderNode(n, cat)
		labels[n.ID] = v.Label
		kind := "unknown"
		if v.Known {
			kind = string(v.Kind)
		}
		fmt.Fprintf(&b, "  %-20s %-28s [%s] (%.0f, %.0f)\n", n.ID, v.Label, kind, n.Position.X, n.Position.Y)
	}

	name := func(id string) string {
		if l, ok := labels[id]; ok {
			return l
		}
		return id + " (missing)"
	}

	fmt.Fprintf(&b, "Edges (%d):\n", len(d.Edges))
	for _, e := range d.Edges {
		arrow := "-->"
		if e.Dashed() {
			arrow = "..>"
		}
		line := fmt.Sprintf("  %s %s %s", name(e.Source), arrow, name(e.Target))
		if e.Label != "" {
			line += "  [" + e.Label + "]"
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
