package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/catalog"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/events"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/model"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/presence"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/store"
)

// CanvasServer is the transport-agnostic core of the canvas collection
// service. The HTTP handlers and the gRPC service both delegate to it.
type CanvasServer struct {
	store     store.Store
	publisher events.Publisher
	catalog   *catalog.Catalog
	sseHub    *sseHub
	Presence  *presence.Tracker
}

// NewCanvasServer returns a CanvasServer backed by the given store and
// publisher. A nil publisher discards events.
func NewCanvasServer(s store.Store, p events.Publisher) *CanvasServer {
	if p == nil {
		p = &events.NoopPublisher{}
	}
	return &CanvasServer{
		store:     s,
		publisher: p,
		catalog:   catalog.Default,
		sseHub:    newSSEHub(),
		Presence:  presence.New(),
	}
}

// recordAndPublish persists an event to the store, publishes it to NATS and
// fans it out to SSE clients. All three are best-effort; failures are logged
// but do not fail the mutation that caused them.
func (s *CanvasServer) recordAndPublish(ctx context.Context, topic, canvasID, actor string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Warn("failed to marshal event", "topic", topic, "canvas_id", canvasID, "error", err)
		return
	}
	if err := s.store.RecordEvent(ctx, &model.Event{
		Topic:    topic,
		CanvasID: canvasID,
		Actor:    actor,
		Payload:  payload,
	}); err != nil {
		slog.Warn("failed to record event", "topic", topic, "canvas_id", canvasID, "error", err)
	}
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		slog.Warn("failed to publish event", "topic", topic, "canvas_id", canvasID, "error", err)
	}
	s.sseHub.broadcast(topic, payload)
}

// notFound turns the store's sql.ErrNoRows into a typed canvas NotFoundError.
// Other errors pass through unchanged.
func notFound(err error, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return &model.NotFoundError{Kind: "canvas", ID: id}
	}
	return err
}
