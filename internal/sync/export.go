package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/model"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/store"
)

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version     string    `json:"version"`
	Type        string    `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	CanvasCount int       `json:"canvas_count"`
	EventCount  int       `json:"event_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ExportOptions controls what ExportJSONL writes.
type ExportOptions struct {
	// IncludeEvents appends each canvas's audit history after the canvases.
	IncludeEvents bool
}

// ExportJSONL writes every canvas in the store as JSONL to w, sorted by id,
// preceded by a header record.
func ExportJSONL(ctx context.Context, s store.Store, w io.Writer, opts ExportOptions) error {
	canvases, _, err := s.ListCanvases(ctx, model.CanvasFilter{Sort: "created_at"})
	if err != nil {
		return fmt.Errorf("list canvases: %w", err)
	}

	sort.Slice(canvases, func(i, j int) bool {
		return canvases[i].ID < canvases[j].ID
	})

	var events []*model.Event
	if opts.IncludeEvents {
		for _, c := range canvases {
			evts, err := s.GetEvents(ctx, c.ID)
			if err != nil {
				return fmt.Errorf("get events for %s: %w", c.ID, err)
			}
			events = append(events, evts...)
		}
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:     "1",
		Type:        "header",
		Timestamp:   time.Now().UTC(),
		CanvasCount: len(canvases),
		EventCount:  len(events),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, c := range canvases {
		if err := enc.Encode(record{Type: "canvas", Data: c}); err != nil {
			return fmt.Errorf("encode canvas %s: %w", c.ID, err)
		}
	}

	for _, e := range events {
		if err := enc.Encode(record{Type: "event", Data: e}); err != nil {
			return fmt.Errorf("encode event %d: %w", e.ID, err)
		}
	}

	return nil
}
