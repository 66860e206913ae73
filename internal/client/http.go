package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/model"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/presence"
)

const canvasesPath = "/api/organization-canvases"

// actorHeader must match server.ActorHeader.
const actorHeader = "X-Fundrazor-Actor"

// HTTPClient implements CanvasClient using the HTTP/JSON REST API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client

	// Actor is sent with every request for the audit trail.
	Actor string
}

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8080"). When token is non-empty, an Authorization
// header is set on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

func canvasPath(id string) string {
	return canvasesPath + "/" + url.PathEscape(id)
}

// --- Canvas CRUD ---

func (c *HTTPClient) ListCanvases(ctx context.Context, req *ListCanvasesRequest) (*ListCanvasesResponse, error) {
	if req == nil {
		req = &ListCanvasesRequest{}
	}
	q := url.Values{}
	if req.Search != "" {
		q.Set("search", req.Search)
	}
	if req.Sort != "" {
		q.Set("sort", req.Sort)
	}
	if req.Limit > 0 {
		q.Set("limit", strconv.Itoa(req.Limit))
	}
	if req.Offset > 0 {
		q.Set("offset", strconv.Itoa(req.Offset))
	}

	path := canvasesPath
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	body, header, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	resp := &ListCanvasesResponse{}
	if err := json.Unmarshal(body, &resp.Canvases); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	resp.Total = len(resp.Canvases)
	if n, err := strconv.Atoi(header.Get("X-Total-Count")); err == nil {
		resp.Total = n
	}
	return resp, nil
}

func (c *HTTPClient) GetCanvas(ctx context.Context, id string) (*model.Canvas, error) {
	var cv model.Canvas
	if err := c.doJSON(ctx, http.MethodGet, canvasPath(id), nil, &cv); err != nil {
		return nil, err
	}
	return &cv, nil
}

func (c *HTTPClient) CreateCanvas(ctx context.Context, req *CreateCanvasRequest) (*model.Canvas, error) {
	var cv model.Canvas
	if err := c.doJSON(ctx, http.MethodPost, canvasesPath, req, &cv); err != nil {
		return nil, err
	}
	return &cv, nil
}

func (c *HTTPClient) UpdateCanvas(ctx context.Context, id string, req *UpdateCanvasRequest) (*model.Canvas, error) {
	var cv model.Canvas
	if err := c.doJSON(ctx, http.MethodPut, canvasPath(id), req, &cv); err != nil {
		return nil, withConflictID(err, id)
	}
	return &cv, nil
}

// SaveCanvasData replaces the canvas document, guarded by version.
func (c *HTTPClient) SaveCanvasData(ctx context.Context, id string, data model.CanvasData, version int) (*model.Canvas, error) {
	return c.UpdateCanvas(ctx, id, &UpdateCanvasRequest{CanvasData: data, Version: version})
}

func (c *HTTPClient) RenameCanvas(ctx context.Context, id string, req *RenameCanvasRequest) (*model.Canvas, error) {
	var cv model.Canvas
	if err := c.doJSON(ctx, http.MethodPatch, canvasPath(id), req, &cv); err != nil {
		return nil, err
	}
	return &cv, nil
}

func (c *HTTPClient) DeleteCanvas(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, canvasPath(id), nil, nil)
}

// --- History and rendering ---

func (c *HTTPClient) GetEvents(ctx context.Context, canvasID string) ([]*model.Event, error) {
	var evts []*model.Event
	if err := c.doJSON(ctx, http.MethodGet, canvasPath(canvasID)+"/events", nil, &evts); err != nil {
		return nil, err
	}
	return evts, nil
}

func (c *HTTPClient) GetDiagram(ctx context.Context, id, format string) (string, error) {
	path := canvasPath(id) + "/diagram"
	if format != "" {
		path += "?format=" + url.QueryEscape(format)
	}
	body, _, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// --- Artifact catalog ---

func (c *HTTPClient) ListArtifacts(ctx context.Context, artifactType model.ArtifactType) ([]*model.Artifact, error) {
	path := "/api/artifacts"
	if artifactType != "" {
		path += "?type=" + url.QueryEscape(string(artifactType))
	}
	var list []*model.Artifact
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *HTTPClient) GetArtifact(ctx context.Context, id string) (*model.Artifact, error) {
	var a model.Artifact
	if err := c.doJSON(ctx, http.MethodGet, "/api/artifacts/"+url.PathEscape(id), nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *HTTPClient) SoftwareCategories(ctx context.Context) ([]SoftwareCategory, error) {
	var groups []SoftwareCategory
	if err := c.doJSON(ctx, http.MethodGet, "/api/artifacts/software-categories", nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// --- Presence (HTTP only) ---

// Heartbeat reports an open editing session and returns every session on
// the canvas.
func (c *HTTPClient) Heartbeat(ctx context.Context, canvasID string, hb presence.Heartbeat) ([]presence.Session, error) {
	var sessions []presence.Session
	if err := c.doJSON(ctx, http.MethodPost, canvasPath(canvasID)+"/presence", hb, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// Presence lists the open editing sessions on a canvas.
func (c *HTTPClient) Presence(ctx context.Context, canvasID string) ([]presence.Session, error) {
	var sessions []presence.Session
	if err := c.doJSON(ctx, http.MethodGet, canvasPath(canvasID)+"/presence", nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// Leave closes an editing session.
func (c *HTTPClient) Leave(ctx context.Context, canvasID, sessionID string) error {
	return c.doJSON(ctx, http.MethodDelete, canvasPath(canvasID)+"/presence/"+url.PathEscape(sessionID), nil, nil)
}

// --- Health ---

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// --- internal helpers ---

// APIError represents an error response from the server. Err carries the
// model error the status maps to, so errors.Is and errors.As see through it.
type APIError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// errorResponse is the server's error body.
type errorResponse struct {
	Error    string `json:"error"`
	Expected *int   `json:"expected"`
	Actual   *int   `json:"actual"`
}

func newAPIError(status int, body []byte) *APIError {
	var er errorResponse
	msg := string(body)
	if json.Unmarshal(body, &er) == nil && er.Error != "" {
		msg = er.Error
	}
	apiErr := &APIError{StatusCode: status, Message: msg}
	switch status {
	case http.StatusNotFound:
		apiErr.Err = model.ErrNotFound
	case http.StatusConflict:
		ce := &model.ConflictError{}
		if er.Expected != nil {
			ce.Expected = *er.Expected
		}
		if er.Actual != nil {
			ce.Actual = *er.Actual
		}
		apiErr.Err = ce
	case http.StatusBadRequest:
		apiErr.Err = &model.ValidationError{Errors: []model.FieldError{{Field: "request", Message: msg}}}
	}
	return apiErr
}

// withConflictID fills in the canvas id on a conflict decoded from a response.
func withConflictID(err error, id string) error {
	var ce *model.ConflictError
	if errors.As(err, &ce) && ce.ID == "" {
		ce.ID = id
	}
	return err
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded (for DELETE/204 responses).
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	respBody, _, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// do sends one request and returns the raw response body and headers.
// Transport failures come back as *model.NetworkError and error statuses as
// *APIError.
func (c *HTTPClient) do(ctx context.Context, method, path string, body any) ([]byte, http.Header, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.Actor != "" {
		req.Header.Set(actorHeader, c.Actor)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, &model.NetworkError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	// 204 No Content: success with no body.
	if resp.StatusCode == http.StatusNoContent {
		return nil, resp.Header, nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &model.NetworkError{Op: "reading response", Err: err}
	}

	if resp.StatusCode >= 400 {
		return nil, nil, newAPIError(resp.StatusCode, respBody)
	}
	return respBody, resp.Header, nil
}
