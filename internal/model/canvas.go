package model

import (
	"encoding/json"
	"maps"
	"time"
)

// NodeTypeOrg is the type tag carried by every node placed from the artifact
// catalog. Renderers are dispatched on this tag.
const NodeTypeOrg = "orgNode"

// MarkerArrowClosed is the edge terminator applied to newly drawn connections.
const MarkerArrowClosed = "arrowclosed"

// Canvas is a named, persisted organization workflow diagram.
type Canvas struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	CanvasData  CanvasData `json:"canvasData"`
	Version     int        `json:"version"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// CanvasData is the opaque graph document stored alongside a canvas. It is
// persisted verbatim and replaced wholesale on save.
type CanvasData struct {
	Nodes    []Node   `json:"nodes"`
	Edges    []Edge   `json:"edges"`
	Viewport Viewport `json:"viewport"`
}

// Node is a placed instance of a catalog artifact.
type Node struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
}

// NodeData carries the weak reference into the artifact catalog.
type NodeData struct {
	ArtifactID string `json:"artifactId"`
}

// Position is a point in canvas coordinates.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Edge is a directed connection between two nodes on the same canvas.
type Edge struct {
	ID        string     `json:"id"`
	Source    string     `json:"source"`
	Target    string     `json:"target"`
	Label     string     `json:"label,omitempty"`
	Animated  bool       `json:"animated,omitempty"`
	Style     *EdgeStyle `json:"style,omitempty"`
	MarkerEnd *Marker    `json:"markerEnd,omitempty"`
}

// EdgeStyle holds display hints for an edge. Keys other than the typed
// ones are kept as received and written back unchanged.
type EdgeStyle struct {
	Stroke          string
	StrokeWidth     float64
	StrokeDasharray string

	extra extraFields
}

func (s EdgeStyle) MarshalJSON() ([]byte, error) {
	return joinObject(s.extra,
		field{"stroke", s.Stroke, s.Stroke != ""},
		field{"strokeWidth", s.StrokeWidth, s.StrokeWidth != 0},
		field{"strokeDasharray", s.StrokeDasharray, s.StrokeDasharray != ""},
	)
}

func (s *EdgeStyle) UnmarshalJSON(data []byte) error {
	*s = EdgeStyle{}
	extra, err := splitObject(data, map[string]any{
		"stroke":          &s.Stroke,
		"strokeWidth":     &s.StrokeWidth,
		"strokeDasharray": &s.StrokeDasharray,
	})
	s.extra = extra
	return err
}

// Marker is an edge terminator. Like EdgeStyle it keeps unknown keys.
type Marker struct {
	Type string

	extra extraFields
}

func (m Marker) MarshalJSON() ([]byte, error) {
	return joinObject(m.extra, field{"type", m.Type, true})
}

func (m *Marker) UnmarshalJSON(data []byte) error {
	*m = Marker{}
	extra, err := splitObject(data, map[string]any{"type": &m.Type})
	m.extra = extra
	return err
}

// Dashed reports whether the edge is drawn as a dashed (feedback) line.
func (e Edge) Dashed() bool {
	return e.Style != nil && e.Style.StrokeDasharray != ""
}

// Viewport is the pan/zoom state of the canvas view.
type Viewport struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// DefaultViewport is the viewport used when none has been saved.
var DefaultViewport = Viewport{X: 0, Y: 0, Zoom: 1}

// ScreenToCanvas converts a point in screen space into canvas space.
// A zero zoom is treated as 1.
func (v Viewport) ScreenToCanvas(p Position) Position {
	zoom := v.Zoom
	if zoom == 0 {
		zoom = 1
	}
	return Position{X: (p.X - v.X) / zoom, Y: (p.Y - v.Y) / zoom}
}

// CanvasToScreen is the inverse of ScreenToCanvas.
func (v Viewport) CanvasToScreen(p Position) Position {
	zoom := v.Zoom
	if zoom == 0 {
		zoom = 1
	}
	return Position{X: p.X*zoom + v.X, Y: p.Y*zoom + v.Y}
}

// Clone returns a deep copy of d.
func (d CanvasData) Clone() CanvasData {
	out := CanvasData{
		Nodes:    make([]Node, len(d.Nodes)),
		Edges:    make([]Edge, len(d.Edges)),
		Viewport: d.Viewport,
	}
	copy(out.Nodes, d.Nodes)
	for i, e := range d.Edges {
		if e.Style != nil {
			s := *e.Style
			s.extra = maps.Clone(s.extra)
			e.Style = &s
		}
		if e.MarkerEnd != nil {
			m := *e.MarkerEnd
			m.extra = maps.Clone(m.extra)
			e.MarkerEnd = &m
		}
		out.Edges[i] = e
	}
	return out
}

// Normalize replaces nil slices with empty ones and a zero viewport with
// DefaultViewport, so the document always serializes to the full shape.
func (d *CanvasData) Normalize() {
	if d.Nodes == nil {
		d.Nodes = []Node{}
	}
	if d.Edges == nil {
		d.Edges = []Edge{}
	}
	if d.Viewport == (Viewport{}) {
		d.Viewport = DefaultViewport
	}
}

// FindNode returns the index of the node with the given id, or -1.
func (d CanvasData) FindNode(id string) int {
	for i, n := range d.Nodes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// MarshalJSON always emits nodes and edges as arrays, never null.
func (d CanvasData) MarshalJSON() ([]byte, error) {
	type plain CanvasData
	out := plain(d)
	if out.Nodes == nil {
		out.Nodes = []Node{}
	}
	if out.Edges == nil {
		out.Edges = []Edge{}
	}
	return json.Marshal(out)
}
