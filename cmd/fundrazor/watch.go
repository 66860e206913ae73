package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/client"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/events"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/model"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/ui"
)

// watchedEvent is one change seen by watch, from NATS or from polling.
type watchedEvent struct {
	Topic    string          `json:"topic"`
	CanvasID string          `json:"canvasId"`
	At       time.Time       `json:"at"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

var watchCmd = &cobra.Command{
	Use:     "watch [canvas-id]",
	Short:   "Stream canvas changes as they happen",
	GroupID: "canvases",
	Long: `Prints canvas create, update, rename and delete events. With a canvas id
only that canvas is followed.

Events come from NATS when FUNDRAZOR_NATS_URL (or the active remote's
nats_url) is set; otherwise the server is polled.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var canvasID string
		if len(args) == 1 {
			canvasID = args[0]
		}
		interval, _ := cmd.Flags().GetDuration("interval")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		natsURL := os.Getenv("FUNDRAZOR_NATS_URL")
		if natsURL == "" {
			natsURL = activeRemote().NATSURL
		}
		if natsURL != "" {
			return watchNATS(ctx, cmd.OutOrStdout(), natsURL, canvasID)
		}
		return watchPoll(ctx, cmd.OutOrStdout(), interval, canvasID)
	},
}

// watchNATS prints every canvas event published on the bus.
func watchNATS(ctx context.Context, w io.Writer, natsURL, canvasID string) error {
	sub, err := events.NewNATSSubscriber(natsURL,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("nats: disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Printf("nats: reconnected")
		}),
	)
	if err != nil {
		return fmt.Errorf("connecting to NATS: %w", err)
	}
	defer sub.Close()

	ch, cancel, err := sub.Subscribe(events.TopicCanvasAll)
	if err != nil {
		return fmt.Errorf("subscribing to events: %w", err)
	}
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			ev, err := fromMessage(msg)
			if err != nil {
				log.Printf("watch: skipping %s: %v", msg.Topic, err)
				continue
			}
			if canvasID != "" && ev.CanvasID != canvasID {
				continue
			}
			if err := printWatched(w, ev); err != nil {
				return err
			}
		}
	}
}

// fromMessage converts a bus message, falling back to the payload when the
// canvas header is missing.
func fromMessage(msg events.Message) (watchedEvent, error) {
	id := msg.CanvasID
	if id == "" {
		var err error
		if id, err = events.CanvasIDOf(msg.Data); err != nil {
			return watchedEvent{}, err
		}
	}
	return watchedEvent{Topic: msg.Topic, CanvasID: id, At: time.Now(), Payload: msg.Data}, nil
}

// watchPoll follows one canvas's history, or the whole collection, by
// polling at the given interval.
func watchPoll(ctx context.Context, w io.Writer, interval time.Duration, canvasID string) error {
	var poll func(context.Context) ([]watchedEvent, error)
	if canvasID != "" {
		var lastID int64 = -1
		poll = func(ctx context.Context) ([]watchedEvent, error) {
			evts, err := canvasClient.GetEvents(ctx, canvasID)
			if err != nil {
				return nil, err
			}
			out, next := newEvents(evts, lastID)
			if lastID < 0 {
				// Existing history is not replayed.
				out = nil
			}
			lastID = next
			return out, nil
		}
	} else {
		seen := make(map[string]time.Time)
		first := true
		poll = func(ctx context.Context) ([]watchedEvent, error) {
			resp, err := canvasClient.ListCanvases(ctx, &client.ListCanvasesRequest{})
			if err != nil {
				return nil, err
			}
			out := diffCanvases(resp.Canvases, seen)
			if first {
				out, first = nil, false
			}
			return out, nil
		}
	}

	if _, err := poll(ctx); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
		changed, err := poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		for _, ev := range changed {
			if err := printWatched(w, ev); err != nil {
				return err
			}
		}
	}
}

// newEvents returns the events with an id above lastID and the highest id
// seen.
func newEvents(evts []*model.Event, lastID int64) ([]watchedEvent, int64) {
	var out []watchedEvent
	next := lastID
	for _, e := range evts {
		if e.ID <= lastID {
			continue
		}
		out = append(out, watchedEvent{Topic: e.Topic, CanvasID: e.CanvasID, At: e.CreatedAt, Payload: e.Payload})
		if e.ID > next {
			next = e.ID
		}
	}
	if next < 0 {
		next = 0
	}
	return out, next
}

// diffCanvases compares canvases against the seen map and reports created,
// changed and vanished ones. It updates seen in place.
func diffCanvases(canvases []*model.Canvas, seen map[string]time.Time) []watchedEvent {
	var out []watchedEvent
	present := make(map[string]bool, len(canvases))
	for _, c := range canvases {
		present[c.ID] = true
		prev, ok := seen[c.ID]
		switch {
		case !ok:
			out = append(out, watchedEvent{Topic: events.TopicCanvasCreated, CanvasID: c.ID, At: c.UpdatedAt})
		case !c.UpdatedAt.Equal(prev):
			out = append(out, watchedEvent{Topic: events.TopicCanvasUpdated, CanvasID: c.ID, At: c.UpdatedAt})
		}
		seen[c.ID] = c.UpdatedAt
	}
	for id := range seen {
		if !present[id] {
			out = append(out, watchedEvent{Topic: events.TopicCanvasDeleted, CanvasID: id, At: time.Now()})
			delete(seen, id)
		}
	}
	return out
}

func printWatched(w io.Writer, ev watchedEvent) error {
	if jsonOutput {
		data, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	_, err := fmt.Fprintf(w, "%s  %s %s\n", ev.At.Local().Format(timeLayout), ui.RenderCommand(fmt.Sprintf("%-26s", ev.Topic)), ui.RenderAccent(ev.CanvasID))
	return err
}

func init() {
	watchCmd.Flags().Duration("interval", 5*time.Second, "polling interval when NATS is not configured")
}
