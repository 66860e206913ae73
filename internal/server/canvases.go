package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/catalog"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/events"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/idgen"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/model"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/store"
)

// createCanvasInput holds transport-agnostic parameters for creating a canvas.
type createCanvasInput struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	CanvasData  *model.CanvasData `json:"canvasData"`
}

// updateCanvasInput replaces a canvas's graph document. Version, when
// non-zero, must match the stored version. Name and Description are optional
// metadata changes applied in the same transaction.
type updateCanvasInput struct {
	CanvasData  *model.CanvasData `json:"canvasData"`
	Version     int               `json:"version,omitempty"`
	Name        *string           `json:"name,omitempty"`
	Description *string           `json:"description,omitempty"`
}

// renameCanvasInput changes metadata only.
type renameCanvasInput struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (s *CanvasServer) listCanvases(ctx context.Context, filter model.CanvasFilter) ([]*model.Canvas, int, error) {
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, 0, &model.ValidationError{Errors: []model.FieldError{{Field: "limit/offset", Message: "must not be negative"}}}
	}
	canvases, total, err := s.store.ListCanvases(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list canvases: %w", err)
	}
	if canvases == nil {
		canvases = []*model.Canvas{}
	}
	return canvases, total, nil
}

// createCanvas validates input and persists a new canvas. A canvas created
// without a graph is seeded with the default pipeline template.
func (s *CanvasServer) createCanvas(ctx context.Context, in createCanvasInput, actor string) (*model.Canvas, error) {
	id, err := idgen.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate id: %w", err)
	}

	c := &model.Canvas{
		ID:          id,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
	}
	if in.CanvasData != nil {
		c.CanvasData = in.CanvasData.Clone()
	} else {
		c.CanvasData = catalog.DefaultCanvasData()
	}
	c.CanvasData.Normalize()

	if err := model.ValidateCanvas(c); err != nil {
		return nil, err
	}
	if err := s.store.CreateCanvas(ctx, c); err != nil {
		return nil, fmt.Errorf("create canvas: %w", err)
	}

	s.recordAndPublish(ctx, events.TopicCanvasCreated, c.ID, actor, events.CanvasCreated{Canvas: c})
	return c, nil
}

func (s *CanvasServer) getCanvas(ctx context.Context, id string) (*model.Canvas, error) {
	c, err := s.store.GetCanvas(ctx, id)
	if err != nil {
		return nil, notFound(err, id)
	}
	return c, nil
}

// updateCanvas replaces the graph document wholesale. Without a version the
// last write wins.
func (s *CanvasServer) updateCanvas(ctx context.Context, id string, in updateCanvasInput, actor string) (*model.Canvas, error) {
	if in.CanvasData == nil {
		return nil, &model.ValidationError{Errors: []model.FieldError{{Field: "canvasData", Message: "is required"}}}
	}
	if in.Version < 0 {
		return nil, &model.ValidationError{Errors: []model.FieldError{{Field: "version", Message: "must not be negative"}}}
	}
	data := in.CanvasData.Clone()
	data.Normalize()
	if err := model.ValidateCanvasData(&data); err != nil {
		return nil, err
	}
	if in.Name != nil {
		trimmed := strings.TrimSpace(*in.Name)
		if err := model.ValidateName(trimmed); err != nil {
			return nil, err
		}
		in.Name = &trimmed
	}

	var updated *model.Canvas
	err := s.store.RunInTransaction(ctx, func(tx store.Store) error {
		if in.Name != nil || in.Description != nil {
			if _, err := tx.UpdateCanvasMeta(ctx, id, in.Name, in.Description); err != nil {
				return err
			}
		}
		c, err := tx.UpdateCanvasData(ctx, id, data, in.Version)
		if err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, notFound(err, id)
	}

	s.recordAndPublish(ctx, events.TopicCanvasUpdated, id, actor, events.CanvasUpdated{
		Canvas:    updated,
		NodeCount: len(updated.CanvasData.Nodes),
		EdgeCount: len(updated.CanvasData.Edges),
	})
	return updated, nil
}

// renameCanvas changes name and/or description without touching the graph
// or the version.
func (s *CanvasServer) renameCanvas(ctx context.Context, id string, in renameCanvasInput, actor string) (*model.Canvas, error) {
	changes := make(map[string]any)
	if in.Name != nil {
		trimmed := strings.TrimSpace(*in.Name)
		if err := model.ValidateName(trimmed); err != nil {
			return nil, err
		}
		in.Name = &trimmed
		changes["name"] = trimmed
	}
	if in.Description != nil {
		changes["description"] = *in.Description
	}

	c, err := s.store.UpdateCanvasMeta(ctx, id, in.Name, in.Description)
	if err != nil {
		return nil, notFound(err, id)
	}
	if len(changes) > 0 {
		s.recordAndPublish(ctx, events.TopicCanvasRenamed, id, actor, events.CanvasRenamed{Canvas: c, Changes: changes})
	}
	return c, nil
}

// deleteCanvas removes a canvas and drops any editing sessions on it.
func (s *CanvasServer) deleteCanvas(ctx context.Context, id, actor string) error {
	if err := s.store.DeleteCanvas(ctx, id); err != nil {
		return notFound(err, id)
	}
	s.Presence.Forget(id)
	s.recordAndPublish(ctx, events.TopicCanvasDeleted, id, actor, events.CanvasDeleted{CanvasID: id})
	return nil
}

// canvasEvents returns the audit history of a canvas. History outlives the
// canvas, so a deleted id still returns its events.
func (s *CanvasServer) canvasEvents(ctx context.Context, id string) ([]*model.Event, error) {
	evts, err := s.store.GetEvents(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get events: %w", err)
	}
	if evts == nil {
		evts = []*model.Event{}
	}
	return evts, nil
}
