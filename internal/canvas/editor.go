// Package canvas implements the interactive canvas editor: an in-memory graph
// driven by discrete interaction events (drag, drop, connect, delete) that is
// persisted by replacing the whole document on Save.
package canvas

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/catalog"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/idgen"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/model"
)

// State is the editor's persistence state.
type State int

const (
	// Idle means the in-memory graph matches the last load or save.
	Idle State = iota
	// Dirty means local changes are pending.
	Dirty
	// Saving means a save request is in flight.
	Saving
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dirty:
		return "dirty"
	case Saving:
		return "saving"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var (
	// ErrNotLoaded is returned by operations that need a loaded canvas.
	ErrNotLoaded = errors.New("canvas: no canvas loaded")
	// ErrNoActiveDrag is returned by Drop when nothing is being dragged.
	ErrNoActiveDrag = errors.New("canvas: no active drag")
)

// Backend is the persistence surface the editor needs.
type Backend interface {
	GetCanvas(ctx context.Context, id string) (*model.Canvas, error)
	SaveCanvasData(ctx context.Context, id string, data model.CanvasData, version int) (*model.Canvas, error)
}

// IsGone reports whether err means the canvas no longer exists server-side.
// Callers respond by returning to the collection view with a notice.
func IsGone(err error) bool {
	return errors.Is(err, model.ErrNotFound)
}

// Editor holds one canvas graph in memory. All methods are safe for
// concurrent use; saves are serialized so a second Save waits for the first
// and then sends the newer document.
type Editor struct {
	backend Backend
	catalog *catalog.Catalog

	// NewNodeID and NewEdgeID generate ids for created elements.
	NewNodeID func() string
	NewEdgeID func() string

	saveMu sync.Mutex

	mu        sync.Mutex
	canvas    *model.Canvas // metadata of the loaded document; CanvasData unused
	data      model.CanvasData
	state     State
	revision  uint64
	dragging  bool
	dragID    string
	lastError error
}

// NewEditor returns an editor backed by b. A nil catalog selects catalog.Default.
func NewEditor(b Backend, cat *catalog.Catalog) *Editor {
	if cat == nil {
		cat = catalog.Default
	}
	return &Editor{
		backend:   b,
		catalog:   cat,
		NewNodeID: idgen.NodeID,
		NewEdgeID: idgen.EdgeID,
	}
}

// Load fetches the canvas and replaces any in-memory state with it.
func (e *Editor) Load(ctx context.Context, id string) error {
	c, err := e.backend.GetCanvas(ctx, id)
	if err != nil {
		return fmt.Errorf("load canvas %s: %w", id, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.data = c.CanvasData.Clone()
	e.data.Normalize()
	meta := *c
	meta.CanvasData = model.CanvasData{}
	e.canvas = &meta
	e.state = Idle
	e.revision = 0
	e.dragging = false
	e.dragID = ""
	e.lastError = nil
	return nil
}

// Canvas returns the loaded canvas with the current in-memory graph.
func (e *Editor) Canvas() (*model.Canvas, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.canvas == nil {
		return nil, ErrNotLoaded
	}
	c := *e.canvas
	c.CanvasData = e.data.Clone()
	return &c, nil
}

// Snapshot returns a copy of the in-memory graph.
func (e *Editor) Snapshot() model.CanvasData {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.data.Clone()
}

// State returns the current persistence state.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Dirty reports whether unsaved changes exist.
func (e *Editor) Dirty() bool {
	return e.State() != Idle
}

// LastError returns the error from the most recent failed save, or nil.
func (e *Editor) LastError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastError
}

// BeginDrag records the artifact being dragged from the catalog. The graph is
// not modified.
func (e *Editor) BeginDrag(artifactID string) error {
	if _, ok := e.catalog.ArtifactByID(artifactID); !ok {
		return &model.NotFoundError{Kind: "artifact", ID: artifactID}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.canvas == nil {
		return ErrNotLoaded
	}
	e.dragging = true
	e.dragID = artifactID
	return nil
}

// CancelDrag drops the transient drag reference.
func (e *Editor) CancelDrag() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dragging = false
	e.dragID = ""
}

// Dragging returns the artifact currently being dragged, if any.
func (e *Editor) Dragging() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dragID, e.dragging
}

// Drop places the dragged artifact at the given screen point, translated
// into canvas coordinates through the current viewport.
func (e *Editor) Drop(screen model.Position) (model.Node, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.canvas == nil {
		return model.Node{}, ErrNotLoaded
	}
	if !e.dragging {
		return model.Node{}, ErrNoActiveDrag
	}
	artifactID := e.dragID
	e.dragging = false
	e.dragID = ""
	return e.appendNodeLocked(artifactID, e.data.Viewport.ScreenToCanvas(screen)), nil
}

// AddNode places an artifact directly at a canvas-space position.
func (e *Editor) AddNode(artifactID string, pos model.Position) (model.Node, error) {
	if _, ok := e.catalog.ArtifactByID(artifactID); !ok {
		return model.Node{}, &model.NotFoundError{Kind: "artifact", ID: artifactID}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.canvas == nil {
		return model.Node{}, ErrNotLoaded
	}
	return e.appendNodeLocked(artifactID, pos), nil
}

func (e *Editor) appendNodeLocked(artifactID string, pos model.Position) model.Node {
	n := model.Node{
		ID:       e.NewNodeID(),
		Type:     model.NodeTypeOrg,
		Position: pos,
		Data:     model.NodeData{ArtifactID: artifactID},
	}
	e.data.Nodes = append(e.data.Nodes, n)
	e.markDirtyLocked()
	return n
}

// Connect appends an animated edge with an arrow terminator from source to
// target. Self-loops, parallel edges and cycles are allowed.
func (e *Editor) Connect(source, target string) (model.Edge, error) {
	return e.ConnectLabeled(source, target, "")
}

// ConnectLabeled is Connect with an edge label.
func (e *Editor) ConnectLabeled(source, target, label string) (model.Edge, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.canvas == nil {
		return model.Edge{}, ErrNotLoaded
	}
	edge := model.Edge{
		ID:        e.NewEdgeID(),
		Source:    source,
		Target:    target,
		Label:     label,
		Animated:  true,
		MarkerEnd: &model.Marker{Type: model.MarkerArrowClosed},
	}
	e.data.Edges = append(e.data.Edges, edge)
	e.markDirtyLocked()
	return edge, nil
}

// DeleteNode removes the node and every edge that references it.
// It returns the number of edges removed with it.
func (e *Editor) DeleteNode(id string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.canvas == nil {
		return 0, ErrNotLoaded
	}
	idx := e.data.FindNode(id)
	if idx < 0 {
		return 0, &model.NotFoundError{Kind: "node", ID: id}
	}
	e.data.Nodes = append(e.data.Nodes[:idx], e.data.Nodes[idx+1:]...)

	kept := e.data.Edges[:0]
	removed := 0
	for _, edge := range e.data.Edges {
		if edge.Source == id || edge.Target == id {
			removed++
			continue
		}
		kept = append(kept, edge)
	}
	e.data.Edges = kept
	e.markDirtyLocked()
	return removed, nil
}

// DeleteEdge removes a single edge.
func (e *Editor) DeleteEdge(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.canvas == nil {
		return ErrNotLoaded
	}
	for i, edge := range e.data.Edges {
		if edge.ID == id {
			e.data.Edges = append(e.data.Edges[:i], e.data.Edges[i+1:]...)
			e.markDirtyLocked()
			return nil
		}
	}
	return &model.NotFoundError{Kind: "edge", ID: id}
}

// MoveNode repositions a node.
func (e *Editor) MoveNode(id string, pos model.Position) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.canvas == nil {
		return ErrNotLoaded
	}
	idx := e.data.FindNode(id)
	if idx < 0 {
		return &model.NotFoundError{Kind: "node", ID: id}
	}
	e.data.Nodes[idx].Position = pos
	e.markDirtyLocked()
	return nil
}

// SetViewport records a pan or zoom.
func (e *Editor) SetViewport(v model.Viewport) error {
	if v.Zoom <= 0 {
		return fmt.Errorf("canvas: zoom must be positive, got %v", v.Zoom)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.canvas == nil {
		return ErrNotLoaded
	}
	e.data.Viewport = v
	e.markDirtyLocked()
	return nil
}

func (e *Editor) markDirtyLocked() {
	e.revision++
	if e.state != Saving {
		e.state = Dirty
	}
}

// Save sends the full graph to the backend. On failure the local graph is
// left untouched, the state stays Dirty and the error is kept for LastError.
func (e *Editor) Save(ctx context.Context) error {
	e.saveMu.Lock()
	defer e.saveMu.Unlock()

	e.mu.Lock()
	if e.canvas == nil {
		e.mu.Unlock()
		return ErrNotLoaded
	}
	id := e.canvas.ID
	version := e.canvas.Version
	rev := e.revision
	doc := stripForSave(e.data)
	e.state = Saving
	e.mu.Unlock()

	saved, err := e.backend.SaveCanvasData(ctx, id, doc, version)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.lastError = err
		e.state = Dirty
		return fmt.Errorf("save canvas %s: %w", id, err)
	}
	e.lastError = nil
	e.canvas.Version = saved.Version
	e.canvas.UpdatedAt = saved.UpdatedAt
	if e.revision == rev {
		e.state = Idle
	} else {
		e.state = Dirty
	}
	return nil
}

// stripForSave copies only the persisted node fields (id, type, position,
// artifact reference) and the edges and viewport.
func stripForSave(d model.CanvasData) model.CanvasData {
	out := d.Clone()
	for i, n := range out.Nodes {
		out.Nodes[i] = model.Node{
			ID:       n.ID,
			Type:     n.Type,
			Position: n.Position,
			Data:     model.NodeData{ArtifactID: n.Data.ArtifactID},
		}
	}
	out.Normalize()
	return out
}
