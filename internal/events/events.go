package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/model"
)

// Event topic constants
const (
	TopicCanvasCreated = "fundrazor.canvas.created"
	TopicCanvasUpdated = "fundrazor.canvas.updated"
	TopicCanvasRenamed = "fundrazor.canvas.renamed"
	TopicCanvasDeleted = "fundrazor.canvas.deleted"

	// TopicCanvasAll matches every canvas topic.
	TopicCanvasAll = "fundrazor.canvas.>"
)

// CanvasHeader is the NATS header carrying the canvas id of an event, so
// consumers can filter without decoding the payload.
const CanvasHeader = "Fundrazor-Canvas"

// Event types

type CanvasCreated struct {
	Canvas *model.Canvas `json:"canvas"`
}

func (e CanvasCreated) canvasRef() string { return canvasID(e.Canvas) }

// CanvasUpdated is published when the graph document is replaced.
type CanvasUpdated struct {
	Canvas    *model.Canvas `json:"canvas"`
	NodeCount int           `json:"nodeCount"`
	EdgeCount int           `json:"edgeCount"`
}

func (e CanvasUpdated) canvasRef() string { return canvasID(e.Canvas) }

// CanvasRenamed is published when name or description change.
type CanvasRenamed struct {
	Canvas  *model.Canvas  `json:"canvas"`
	Changes map[string]any `json:"changes"` // field name -> new value
}

func (e CanvasRenamed) canvasRef() string { return canvasID(e.Canvas) }

type CanvasDeleted struct {
	CanvasID string `json:"canvasId"`
}

func (e CanvasDeleted) canvasRef() string { return e.CanvasID }

// canvasEvent is implemented by every payload above.
type canvasEvent interface {
	canvasRef() string
}

func canvasID(c *model.Canvas) string {
	if c == nil {
		return ""
	}
	return c.ID
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// Message is one event received from the bus.
type Message struct {
	Topic    string
	CanvasID string // empty when the publisher did not set CanvasHeader
	Data     []byte
}

// Subscriber receives events from the event bus.
type Subscriber interface {
	// Subscribe delivers messages matching topic (NATS wildcards allowed) on
	// the returned channel until the returned cancel function is called,
	// which also closes the channel.
	Subscribe(topic string) (<-chan Message, func(), error)
	Close() error
}

// NoopPublisher discards events. The server uses it when NATS is not
// configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, any) error { return nil }
func (NoopPublisher) Close() error                               { return nil }

// CanvasIDOf extracts the canvas id from the payload of any canvas event.
func CanvasIDOf(data []byte) (string, error) {
	var ref struct {
		Canvas *struct {
			ID string `json:"id"`
		} `json:"canvas"`
		CanvasID string `json:"canvasId"`
	}
	if err := json.Unmarshal(data, &ref); err != nil {
		return "", fmt.Errorf("decoding canvas event: %w", err)
	}
	if ref.CanvasID != "" {
		return ref.CanvasID, nil
	}
	if ref.Canvas != nil && ref.Canvas.ID != "" {
		return ref.Canvas.ID, nil
	}
	return "", fmt.Errorf("canvas event carries no canvas id")
}
