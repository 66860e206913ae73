package canvas

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/catalog"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/model"
)

// fakeBackend is an in-memory Backend that stores canvases by id.
type fakeBackend struct {
	mu       sync.Mutex
	canvases map[string]*model.Canvas
	saveErr  error
	saves    int
	// block, when set, is received from before a save completes.
	block chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{canvases: make(map[string]*model.Canvas)}
}

func (f *fakeBackend) put(c *model.Canvas) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.canvases[c.ID] = c
}

func (f *fakeBackend) GetCanvas(_ context.Context, id string) (*model.Canvas, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.canvases[id]
	if !ok {
		return nil, &model.NotFoundError{Kind: "canvas", ID: id}
	}
	out := *c
	out.CanvasData = c.CanvasData.Clone()
	return &out, nil
}

func (f *fakeBackend) SaveCanvasData(_ context.Context, id string, data model.CanvasData, version int) (*model.Canvas, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	c, ok := f.canvases[id]
	if !ok {
		return nil, &model.NotFoundError{Kind: "canvas", ID: id}
	}
	if version != 0 && version != c.Version {
		return nil, &model.ConflictError{ID: id, Expected: version, Actual: c.Version}
	}
	c.CanvasData = data.Clone()
	c.Version++
	c.UpdatedAt = time.Now()
	out := *c
	return &out, nil
}

func seededBackend(t *testing.T) (*fakeBackend, string) {
	t.Helper()
	b := newFakeBackend()
	b.put(&model.Canvas{
		ID:         "cv-acme",
		Name:       "Acme Corp",
		CanvasData: catalog.DefaultCanvasData(),
		Version:    1,
	})
	return b, "cv-acme"
}

func loadedEditor(t *testing.T) (*Editor, *fakeBackend) {
	t.Helper()
	b, id := seededBackend(t)
	e := NewEditor(b, nil)
	require.NoError(t, e.Load(context.Background(), id))
	return e, b
}

func nodeForArtifact(d model.CanvasData, artifactID string) (model.Node, bool) {
	for _, n := range d.Nodes {
		if n.Data.ArtifactID == artifactID {
			return n, true
		}
	}
	return model.Node{}, false
}

func TestEditor_AcmeScenario(t *testing.T) {
	ctx := context.Background()
	e, b := loadedEditor(t)

	snap := e.Snapshot()
	require.Len(t, snap.Nodes, 6)
	require.Len(t, snap.Edges, 7)
	assert.Equal(t, Idle, e.State())

	require.NoError(t, e.BeginDrag("software-salesforce"))
	sf, err := e.Drop(model.Position{X: 400, Y: 450})
	require.NoError(t, err)
	assert.Equal(t, model.NodeTypeOrg, sf.Type)
	assert.Equal(t, Dirty, e.State())
	require.Len(t, e.Snapshot().Nodes, 7)

	processing, ok := nodeForArtifact(e.Snapshot(), catalog.StageProcessing)
	require.True(t, ok)
	edge, err := e.Connect(sf.ID, processing.ID)
	require.NoError(t, err)
	assert.True(t, edge.Animated)
	require.NotNil(t, edge.MarkerEnd)
	assert.Equal(t, model.MarkerArrowClosed, edge.MarkerEnd.Type)
	require.Len(t, e.Snapshot().Edges, 8)

	require.NoError(t, e.Save(ctx))
	assert.Equal(t, Idle, e.State())
	assert.Equal(t, 1, b.saves)

	reloaded := NewEditor(b, nil)
	require.NoError(t, reloaded.Load(ctx, "cv-acme"))
	got := reloaded.Snapshot()
	assert.Len(t, got.Nodes, 7)
	assert.Len(t, got.Edges, 8)
	n, ok := nodeForArtifact(got, "software-salesforce")
	require.True(t, ok)
	assert.Equal(t, model.Position{X: 400, Y: 450}, n.Position)

	c, err := reloaded.Canvas()
	require.NoError(t, err)
	assert.Equal(t, 2, c.Version)
}

func TestEditor_DropTranslatesThroughViewport(t *testing.T) {
	e, _ := loadedEditor(t)
	require.NoError(t, e.SetViewport(model.Viewport{X: 100, Y: 50, Zoom: 2}))

	require.NoError(t, e.BeginDrag("role-grant-writer"))
	n, err := e.Drop(model.Position{X: 300, Y: 250})
	require.NoError(t, err)
	assert.Equal(t, model.Position{X: 100, Y: 100}, n.Position)
}

func TestEditor_DropWithoutDrag(t *testing.T) {
	e, _ := loadedEditor(t)

	_, err := e.Drop(model.Position{X: 1, Y: 1})
	assert.ErrorIs(t, err, ErrNoActiveDrag)
	assert.Len(t, e.Snapshot().Nodes, 6)
	assert.Equal(t, Idle, e.State())

	require.NoError(t, e.BeginDrag("role-board-member"))
	e.CancelDrag()
	_, err = e.Drop(model.Position{X: 1, Y: 1})
	assert.ErrorIs(t, err, ErrNoActiveDrag)
}

func TestEditor_DropClearsDrag(t *testing.T) {
	e, _ := loadedEditor(t)
	require.NoError(t, e.BeginDrag("role-board-member"))
	_, err := e.Drop(model.Position{})
	require.NoError(t, err)

	_, dragging := e.Dragging()
	assert.False(t, dragging)
	_, err = e.Drop(model.Position{})
	assert.ErrorIs(t, err, ErrNoActiveDrag)
}

func TestEditor_BeginDragUnknownArtifact(t *testing.T) {
	e, _ := loadedEditor(t)
	err := e.BeginDrag("software-nope")
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, dragging := e.Dragging()
	assert.False(t, dragging)
}

func TestEditor_DeleteNodeCascadesEdges(t *testing.T) {
	e, _ := loadedEditor(t)
	cultivation, ok := nodeForArtifact(e.Snapshot(), catalog.StageCultivation)
	require.True(t, ok)

	// Qualification->Cultivation, Cultivation->Solicitation and the two
	// feedback edges into Cultivation.
	removed, err := e.DeleteNode(cultivation.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, removed)

	snap := e.Snapshot()
	assert.Len(t, snap.Nodes, 5)
	assert.Len(t, snap.Edges, 3)
	for _, edge := range snap.Edges {
		assert.NotEqual(t, cultivation.ID, edge.Source)
		assert.NotEqual(t, cultivation.ID, edge.Target)
	}
	assert.Equal(t, Dirty, e.State())
}

func TestEditor_DeleteMissing(t *testing.T) {
	e, _ := loadedEditor(t)
	_, err := e.DeleteNode("node-missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.ErrorIs(t, e.DeleteEdge("edge-missing"), model.ErrNotFound)
	assert.ErrorIs(t, e.MoveNode("node-missing", model.Position{}), model.ErrNotFound)
	assert.Equal(t, Idle, e.State())
}

func TestEditor_DeleteEdge(t *testing.T) {
	e, _ := loadedEditor(t)
	first := e.Snapshot().Edges[0]
	require.NoError(t, e.DeleteEdge(first.ID))
	snap := e.Snapshot()
	assert.Len(t, snap.Edges, 6)
	assert.Len(t, snap.Nodes, 6)
}

func TestEditor_PermissiveEdges(t *testing.T) {
	e, _ := loadedEditor(t)
	n := e.Snapshot().Nodes[0]

	_, err := e.Connect(n.ID, n.ID)
	require.NoError(t, err, "self-loop")
	_, err = e.Connect(n.ID, n.ID)
	require.NoError(t, err, "parallel edge")
	_, err = e.Connect(n.ID, "node-elsewhere")
	require.NoError(t, err, "dangling target")
	assert.Len(t, e.Snapshot().Edges, 10)
}

func TestEditor_SaveFailureKeepsDirty(t *testing.T) {
	ctx := context.Background()
	e, b := loadedEditor(t)
	_, err := e.AddNode("role-executive-director", model.Position{X: 10, Y: 10})
	require.NoError(t, err)
	before := e.Snapshot()

	b.saveErr = &model.NetworkError{Op: "PUT", Err: errors.New("connection refused")}
	err = e.Save(ctx)
	require.Error(t, err)
	var netErr *model.NetworkError
	assert.ErrorAs(t, err, &netErr)
	assert.Equal(t, Dirty, e.State())
	assert.Equal(t, b.saveErr, e.LastError())
	assert.Equal(t, before, e.Snapshot())

	b.saveErr = nil
	require.NoError(t, e.Save(ctx))
	assert.Equal(t, Idle, e.State())
	assert.NoError(t, e.LastError())
}

func TestEditor_EditDuringSaveStaysDirty(t *testing.T) {
	ctx := context.Background()
	e, b := loadedEditor(t)
	_, err := e.AddNode("role-volunteer-coordinator", model.Position{})
	require.NoError(t, err)

	b.block = make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- e.Save(ctx) }()

	require.Eventually(t, func() bool { return e.State() == Saving }, time.Second, time.Millisecond)
	_, err = e.AddNode("role-gift-processor", model.Position{X: 5})
	require.NoError(t, err)
	assert.Equal(t, Saving, e.State())

	close(b.block)
	require.NoError(t, <-done)
	assert.Equal(t, Dirty, e.State())

	b.block = nil
	require.NoError(t, e.Save(ctx))
	assert.Equal(t, Idle, e.State())
	stored, err := b.GetCanvas(ctx, "cv-acme")
	require.NoError(t, err)
	assert.Len(t, stored.CanvasData.Nodes, 8)
}

func TestEditor_ConcurrentSavesSerialize(t *testing.T) {
	ctx := context.Background()
	e, b := loadedEditor(t)
	_, err := e.AddNode("role-grant-writer", model.Position{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = e.Save(ctx)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, fmt.Sprintf("save %d", i))
	}
	assert.Equal(t, 4, b.saves)
	assert.Equal(t, Idle, e.State())
}

func TestEditor_SaveConflict(t *testing.T) {
	ctx := context.Background()
	b, id := seededBackend(t)
	first := NewEditor(b, nil)
	second := NewEditor(b, nil)
	require.NoError(t, first.Load(ctx, id))
	require.NoError(t, second.Load(ctx, id))

	_, err := first.AddNode("role-board-member", model.Position{})
	require.NoError(t, err)
	require.NoError(t, first.Save(ctx))

	require.NoError(t, second.MoveNode(second.Snapshot().Nodes[0].ID, model.Position{X: 1}))
	err = second.Save(ctx)
	var conflict *model.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, 1, conflict.Expected)
	assert.Equal(t, 2, conflict.Actual)
	assert.Equal(t, Dirty, second.State())
}

func TestEditor_LoadGone(t *testing.T) {
	e := NewEditor(newFakeBackend(), nil)
	err := e.Load(context.Background(), "cv-deleted")
	require.Error(t, err)
	assert.True(t, IsGone(err))

	_, err = e.AddNode("role-board-member", model.Position{})
	assert.ErrorIs(t, err, ErrNotLoaded)
	assert.ErrorIs(t, e.Save(context.Background()), ErrNotLoaded)
}

func TestEditor_SaveGone(t *testing.T) {
	e, b := loadedEditor(t)
	b.mu.Lock()
	delete(b.canvases, "cv-acme")
	b.mu.Unlock()

	_, err := e.AddNode("role-board-member", model.Position{})
	require.NoError(t, err)
	err = e.Save(context.Background())
	assert.True(t, IsGone(err))
	assert.Equal(t, Dirty, e.State())
}

func TestEditor_SetViewportRejectsZeroZoom(t *testing.T) {
	e, _ := loadedEditor(t)
	assert.Error(t, e.SetViewport(model.Viewport{Zoom: 0}))
	assert.Equal(t, Idle, e.State())
}

func TestEditor_LoadNormalizesEmptyDocument(t *testing.T) {
	b := newFakeBackend()
	b.put(&model.Canvas{ID: "cv-empty", Name: "Empty", Version: 1})
	e := NewEditor(b, nil)
	require.NoError(t, e.Load(context.Background(), "cv-empty"))

	snap := e.Snapshot()
	assert.NotNil(t, snap.Nodes)
	assert.NotNil(t, snap.Edges)
	assert.Equal(t, model.DefaultViewport, snap.Viewport)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "dirty", Dirty.String())
	assert.Equal(t, "saving", Saving.String())
	assert.Equal(t, "State(9)", State(9).String())
}
