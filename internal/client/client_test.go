package client

import (
	"context"
	"errors"
	"net"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/canvas"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/catalog"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/events"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/model"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/server"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/store/memstore"
)

// newHTTPTestClient serves a fresh in-memory server over httptest.
func newHTTPTestClient(t *testing.T, token string) *HTTPClient {
	t.Helper()
	srv := server.NewCanvasServer(memstore.New(), nil)
	ts := httptest.NewServer(srv.NewHTTPHandler(token))
	t.Cleanup(ts.Close)
	c := NewHTTPClient(ts.URL, token)
	c.Actor = "alice"
	return c
}

// newGRPCTestClient serves a fresh in-memory server over bufconn.
func newGRPCTestClient(t *testing.T, token string) *GRPCClient {
	t.Helper()
	srv := server.NewCanvasServer(memstore.New(), nil)
	lis := bufconn.Listen(1 << 20)
	gs := server.NewGRPCServer(srv, token)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	c, err := NewGRPCClient("passthrough:///bufnet", token,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	c.Actor = "alice"
	return c
}

// transports runs fn once per CanvasClient implementation.
func transports(t *testing.T, fn func(t *testing.T, c CanvasClient)) {
	t.Run("http", func(t *testing.T) { fn(t, newHTTPTestClient(t, "")) })
	t.Run("grpc", func(t *testing.T) { fn(t, newGRPCTestClient(t, "")) })
}

func TestClient_CreateSeedsTemplate(t *testing.T) {
	transports(t, func(t *testing.T, c CanvasClient) {
		ctx := context.Background()
		cv, err := c.CreateCanvas(ctx, &CreateCanvasRequest{Name: "Acme Fundraising", Description: "FY27"})
		require.NoError(t, err)
		assert.NotEmpty(t, cv.ID)
		assert.Equal(t, "Acme Fundraising", cv.Name)
		assert.Equal(t, 1, cv.Version)
		assert.Len(t, cv.CanvasData.Nodes, len(catalog.PipelineStages))

		got, err := c.GetCanvas(ctx, cv.ID)
		require.NoError(t, err)
		assert.Equal(t, cv.ID, got.ID)
		assert.Equal(t, "FY27", got.Description)
	})
}

func TestClient_ListInsertionOrderAndTotal(t *testing.T) {
	transports(t, func(t *testing.T, c CanvasClient) {
		ctx := context.Background()
		for _, name := range []string{"Gamma", "Alpha", "Beta"} {
			_, err := c.CreateCanvas(ctx, &CreateCanvasRequest{Name: name})
			require.NoError(t, err)
		}

		resp, err := c.ListCanvases(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, 3, resp.Total)
		require.Len(t, resp.Canvases, 3)
		assert.Equal(t, "Gamma", resp.Canvases[0].Name)
		assert.Equal(t, "Beta", resp.Canvases[2].Name)

		resp, err = c.ListCanvases(ctx, &ListCanvasesRequest{Sort: "name", Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, 3, resp.Total)
		require.Len(t, resp.Canvases, 2)
		assert.Equal(t, "Alpha", resp.Canvases[0].Name)
	})
}

func TestClient_EmptyList(t *testing.T) {
	transports(t, func(t *testing.T, c CanvasClient) {
		resp, err := c.ListCanvases(context.Background(), &ListCanvasesRequest{Search: "nothing"})
		require.NoError(t, err)
		assert.NotNil(t, resp.Canvases)
		assert.Empty(t, resp.Canvases)
		assert.Zero(t, resp.Total)
	})
}

func TestClient_SaveConflict(t *testing.T) {
	transports(t, func(t *testing.T, c CanvasClient) {
		ctx := context.Background()
		cv, err := c.CreateCanvas(ctx, &CreateCanvasRequest{Name: "Versioned"})
		require.NoError(t, err)

		saved, err := c.SaveCanvasData(ctx, cv.ID, model.CanvasData{Viewport: model.DefaultViewport}, cv.Version)
		require.NoError(t, err)
		assert.Equal(t, 2, saved.Version)
		assert.Empty(t, saved.CanvasData.Nodes)

		_, err = c.SaveCanvasData(ctx, cv.ID, cv.CanvasData, cv.Version)
		var ce *model.ConflictError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, cv.ID, ce.ID)
		assert.Equal(t, 1, ce.Expected)
		assert.Equal(t, 2, ce.Actual)
	})
}

func TestClient_RenameAndDelete(t *testing.T) {
	transports(t, func(t *testing.T, c CanvasClient) {
		ctx := context.Background()
		cv, err := c.CreateCanvas(ctx, &CreateCanvasRequest{Name: "Old"})
		require.NoError(t, err)

		name := "New"
		renamed, err := c.RenameCanvas(ctx, cv.ID, &RenameCanvasRequest{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "New", renamed.Name)
		assert.Equal(t, cv.Version, renamed.Version)

		require.NoError(t, c.DeleteCanvas(ctx, cv.ID))

		_, err = c.GetCanvas(ctx, cv.ID)
		assert.True(t, errors.Is(err, model.ErrNotFound), "got %v", err)
		assert.True(t, errors.Is(c.DeleteCanvas(ctx, cv.ID), model.ErrNotFound))
	})
}

func TestClient_ValidationError(t *testing.T) {
	transports(t, func(t *testing.T, c CanvasClient) {
		_, err := c.CreateCanvas(context.Background(), &CreateCanvasRequest{Name: "   "})
		var ve *model.ValidationError
		require.ErrorAs(t, err, &ve)
	})
}

func TestClient_Events(t *testing.T) {
	transports(t, func(t *testing.T, c CanvasClient) {
		ctx := context.Background()
		cv, err := c.CreateCanvas(ctx, &CreateCanvasRequest{Name: "Audited"})
		require.NoError(t, err)
		_, err = c.SaveCanvasData(ctx, cv.ID, cv.CanvasData, cv.Version)
		require.NoError(t, err)

		evts, err := c.GetEvents(ctx, cv.ID)
		require.NoError(t, err)
		require.Len(t, evts, 2)
		assert.Equal(t, events.TopicCanvasCreated, evts[0].Topic)
		assert.Equal(t, events.TopicCanvasUpdated, evts[1].Topic)
		assert.Equal(t, "alice", evts[0].Actor)
	})
}

func TestClient_Diagram(t *testing.T) {
	transports(t, func(t *testing.T, c CanvasClient) {
		ctx := context.Background()
		cv, err := c.CreateCanvas(ctx, &CreateCanvasRequest{Name: "Pipeline"})
		require.NoError(t, err)

		out, err := c.GetDiagram(ctx, cv.ID, "")
		require.NoError(t, err)
		assert.Contains(t, out, "graph LR")

		out, err = c.GetDiagram(ctx, cv.ID, canvas.FormatText)
		require.NoError(t, err)
		assert.Contains(t, out, "Pipeline")

		_, err = c.GetDiagram(ctx, cv.ID, "svg")
		var ve *model.ValidationError
		assert.ErrorAs(t, err, &ve)
	})
}

func TestClient_Artifacts(t *testing.T) {
	transports(t, func(t *testing.T, c CanvasClient) {
		ctx := context.Background()

		all, err := c.ListArtifacts(ctx, "")
		require.NoError(t, err)
		assert.Len(t, all, catalog.Default.Len())

		stages, err := c.ListArtifacts(ctx, model.ArtifactStage)
		require.NoError(t, err)
		require.Len(t, stages, len(catalog.PipelineStages))
		assert.Equal(t, catalog.PipelineStages[0], stages[0].ID)

		a, err := c.GetArtifact(ctx, "software-salesforce")
		require.NoError(t, err)
		assert.Equal(t, model.ArtifactSoftware, a.Type)

		_, err = c.GetArtifact(ctx, "software-nope")
		assert.True(t, errors.Is(err, model.ErrNotFound))

		groups, err := c.SoftwareCategories(ctx)
		require.NoError(t, err)
		require.Len(t, groups, len(catalog.Default.Categories()))
		assert.Equal(t, catalog.Default.Categories()[0], groups[0].Name)
	})
}

func TestClient_Health(t *testing.T) {
	transports(t, func(t *testing.T, c CanvasClient) {
		status, err := c.Health(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "ok", status)
	})
}

func TestClient_BacksEditor(t *testing.T) {
	transports(t, func(t *testing.T, c CanvasClient) {
		ctx := context.Background()
		cv, err := c.CreateCanvas(ctx, &CreateCanvasRequest{Name: "Edited"})
		require.NoError(t, err)

		ed := canvas.NewEditor(c.(canvas.Backend), catalog.Default)
		require.NoError(t, ed.Load(ctx, cv.ID))
		_, err = ed.AddNode("software-salesforce", model.Position{X: 100, Y: 400})
		require.NoError(t, err)
		require.NoError(t, ed.Save(ctx))
		assert.Equal(t, canvas.Idle, ed.State())

		got, err := c.GetCanvas(ctx, cv.ID)
		require.NoError(t, err)
		assert.Len(t, got.CanvasData.Nodes, len(cv.CanvasData.Nodes)+1)
		assert.Equal(t, 2, got.Version)
	})
}
