// Package client provides a transport-agnostic interface for the canvas
// service and HTTP/JSON and gRPC implementations of it.
package client

import (
	"context"

	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/canvas"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/model"
)

// CanvasClient is the interface the CLI uses to talk to the canvas server.
// It is implemented by HTTPClient (default) and GRPCClient.
//
// Errors follow the model package: a missing canvas wraps model.ErrNotFound,
// a stale save is a *model.ConflictError, rejected input is a
// *model.ValidationError and an unreachable server is a *model.NetworkError.
type CanvasClient interface {
	// Canvas CRUD
	ListCanvases(ctx context.Context, req *ListCanvasesRequest) (*ListCanvasesResponse, error)
	GetCanvas(ctx context.Context, id string) (*model.Canvas, error)
	CreateCanvas(ctx context.Context, req *CreateCanvasRequest) (*model.Canvas, error)
	UpdateCanvas(ctx context.Context, id string, req *UpdateCanvasRequest) (*model.Canvas, error)
	SaveCanvasData(ctx context.Context, id string, data model.CanvasData, version int) (*model.Canvas, error)
	RenameCanvas(ctx context.Context, id string, req *RenameCanvasRequest) (*model.Canvas, error)
	DeleteCanvas(ctx context.Context, id string) error

	// History
	GetEvents(ctx context.Context, canvasID string) ([]*model.Event, error)

	// Rendering
	GetDiagram(ctx context.Context, id, format string) (string, error)

	// Artifact catalog
	ListArtifacts(ctx context.Context, artifactType model.ArtifactType) ([]*model.Artifact, error)
	GetArtifact(ctx context.Context, id string) (*model.Artifact, error)
	SoftwareCategories(ctx context.Context) ([]SoftwareCategory, error)

	// Health
	Health(ctx context.Context) (string, error)

	// Lifecycle
	Close() error
}

// Both clients can back an interactive editor.
var (
	_ canvas.Backend = (*HTTPClient)(nil)
	_ canvas.Backend = (*GRPCClient)(nil)
)

// ListCanvasesRequest holds the filter for listing canvases.
type ListCanvasesRequest struct {
	Search string `json:"search,omitempty"`
	Sort   string `json:"sort,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// ListCanvasesResponse is one page of canvases plus the unpaged match count.
type ListCanvasesResponse struct {
	Canvases []*model.Canvas `json:"canvases"`
	Total    int             `json:"total"`
}

// CreateCanvasRequest holds parameters for creating a canvas. A nil
// CanvasData asks the server to seed the default pipeline template.
type CreateCanvasRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	CanvasData  *model.CanvasData `json:"canvasData,omitempty"`
}

// UpdateCanvasRequest replaces a canvas document. Version 0 skips the
// optimistic concurrency check.
type UpdateCanvasRequest struct {
	CanvasData  model.CanvasData `json:"canvasData"`
	Version     int              `json:"version,omitempty"`
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
}

// RenameCanvasRequest changes canvas metadata. Nil fields are left alone.
type RenameCanvasRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// SoftwareCategory groups software tools under one category name.
type SoftwareCategory struct {
	Name      string            `json:"name"`
	Artifacts []*model.Artifact `json:"artifacts"`
}
