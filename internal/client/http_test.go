package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/model"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/presence"
)

func TestHTTPClient_Presence(t *testing.T) {
	c := newHTTPTestClient(t, "")
	ctx := context.Background()
	cv, err := c.CreateCanvas(ctx, &CreateCanvasRequest{Name: "Shared"})
	require.NoError(t, err)

	sessions, err := c.Heartbeat(ctx, cv.ID, presence.Heartbeat{SessionID: "s-1", State: "dirty"})
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "alice", sessions[0].Actor, "actor defaults to the client's actor header")

	bob := *c
	bob.Actor = "bob"
	sessions, err = bob.Heartbeat(ctx, cv.ID, presence.Heartbeat{SessionID: "s-2"})
	require.NoError(t, err)
	assert.Len(t, sessions, 2)

	require.NoError(t, c.Leave(ctx, cv.ID, "s-1"))
	sessions, err = c.Presence(ctx, cv.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "bob", sessions[0].Actor)
}

func TestHTTPClient_HeartbeatUnknownCanvas(t *testing.T) {
	c := newHTTPTestClient(t, "")
	_, err := c.Heartbeat(context.Background(), "cv-missing", presence.Heartbeat{SessionID: "s-1"})
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestHTTPClient_NetworkError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c := NewHTTPClient(url, "")
	_, err := c.GetCanvas(context.Background(), "cv-1")
	var ne *model.NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, "GET /api/organization-canvases/cv-1", ne.Op)
}

func TestHTTPClient_Unauthorized(t *testing.T) {
	c := newHTTPTestClient(t, "secret")
	ctx := context.Background()

	_, err := c.ListCanvases(ctx, nil)
	require.NoError(t, err)

	wrong := NewHTTPClient(c.baseURL, "nope")
	_, err = wrong.ListCanvases(ctx, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	// Health stays open without a token.
	status, err := NewHTTPClient(c.baseURL, "").Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", status)
}

func TestHTTPClient_RequestShape(t *testing.T) {
	var gotPath, gotQuery, gotActor, gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotActor = r.Header.Get(actorHeader)
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("X-Total-Count", "42")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer ts.Close()

	c := NewHTTPClient(ts.URL+"/", "tok")
	c.Actor = "carol"
	resp, err := c.ListCanvases(context.Background(), &ListCanvasesRequest{Search: "acme", Sort: "-name", Limit: 5, Offset: 10})
	require.NoError(t, err)

	assert.Equal(t, "/api/organization-canvases", gotPath)
	assert.Equal(t, "limit=5&offset=10&search=acme&sort=-name", gotQuery)
	assert.Equal(t, "carol", gotActor)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, 42, resp.Total)
	assert.Empty(t, resp.Canvases)
}

func TestNewAPIError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "not found",
			status: http.StatusNotFound,
			body:   `{"error":"canvas \"x\" not found"}`,
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, model.ErrNotFound))
				assert.Contains(t, err.Error(), `canvas "x" not found`)
			},
		},
		{
			name:   "conflict",
			status: http.StatusConflict,
			body:   `{"error":"stale","expected":3,"actual":5}`,
			check: func(t *testing.T, err error) {
				var ce *model.ConflictError
				require.ErrorAs(t, err, &ce)
				assert.Equal(t, 3, ce.Expected)
				assert.Equal(t, 5, ce.Actual)
			},
		},
		{
			name:   "validation",
			status: http.StatusBadRequest,
			body:   `{"error":"validation failed: name: is required"}`,
			check: func(t *testing.T, err error) {
				var ve *model.ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, "validation failed: name: is required", ve.Errors[0].Message)
			},
		},
		{
			name:   "plain text body",
			status: http.StatusBadGateway,
			body:   "upstream down",
			check: func(t *testing.T, err error) {
				assert.Equal(t, "HTTP 502: upstream down", err.Error())
				assert.Nil(t, errors.Unwrap(err))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, newAPIError(tt.status, []byte(tt.body)))
		})
	}
}
