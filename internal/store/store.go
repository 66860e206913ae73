package store

import (
	"context"

	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/model"
)

// Store defines the persistence interface for organization canvases.
type Store interface {
	// Canvas CRUD
	CreateCanvas(ctx context.Context, canvas *model.Canvas) error
	GetCanvas(ctx context.Context, id string) (*model.Canvas, error)
	ListCanvases(ctx context.Context, filter model.CanvasFilter) ([]*model.Canvas, int, error) // returns canvases, total count, error
	// UpdateCanvasData replaces the stored graph document. A non-zero
	// expectedVersion must match the stored version or a *model.ConflictError
	// is returned.
	UpdateCanvasData(ctx context.Context, id string, data model.CanvasData, expectedVersion int) (*model.Canvas, error)
	// UpdateCanvasMeta changes name and/or description; nil leaves a field as is.
	UpdateCanvasMeta(ctx context.Context, id string, name, description *string) (*model.Canvas, error)
	DeleteCanvas(ctx context.Context, id string) error

	// Events
	RecordEvent(ctx context.Context, event *model.Event) error
	GetEvents(ctx context.Context, canvasID string) ([]*model.Event, error)

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Close() error
}
