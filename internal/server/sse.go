package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/events"
)

const (
	// sseReplaySize is how many recent events are kept for Last-Event-ID
	// reconnection.
	sseReplaySize = 512

	sseKeepaliveInterval = 15 * time.Second
)

// sseEvent is one change-feed entry.
type sseEvent struct {
	ID       uint64
	Topic    string
	CanvasID string
	Data     []byte // JSON payload
}

// replayRing keeps the most recent events for Last-Event-ID reconnects.
type replayRing struct {
	buf  [sseReplaySize]sseEvent
	next int
	size int
}

func (r *replayRing) push(evt sseEvent) {
	r.buf[r.next] = evt
	r.next = (r.next + 1) % sseReplaySize
	r.size = min(r.size+1, sseReplaySize)
}

// since returns events with ID > lastID, oldest first.
func (r *replayRing) since(lastID uint64) []*sseEvent {
	var out []*sseEvent
	first := (r.next - r.size + sseReplaySize) % sseReplaySize
	for i := range r.size {
		evt := r.buf[(first+i)%sseReplaySize]
		if evt.ID > lastID {
			out = append(out, &evt)
		}
	}
	return out
}

// sseHub fans canvas events out to connected SSE clients.
type sseHub struct {
	mu      sync.RWMutex
	clients map[*sseClient]struct{}
	lastID  uint64
	recent  replayRing
}

// sseClient is one connected stream consumer.
type sseClient struct {
	topics   []string // NATS-style patterns; empty matches all
	canvasID string   // when set, only events for this canvas
	ch       chan *sseEvent
}

func newSSEHub() *sseHub {
	return &sseHub{clients: make(map[*sseClient]struct{})}
}

// broadcast numbers the event and hands it to every matching client. A
// client whose buffer is full misses the event; it can recover it from the
// replay ring by reconnecting with Last-Event-ID.
func (h *sseHub) broadcast(topic string, payload []byte) {
	canvasID, _ := events.CanvasIDOf(payload)

	h.mu.Lock()
	h.lastID++
	evt := &sseEvent{ID: h.lastID, Topic: topic, CanvasID: canvasID, Data: payload}
	h.recent.push(*evt)
	var targets []*sseClient
	for c := range h.clients {
		if c.matches(evt) {
			targets = append(targets, c)
		}
	}
	h.mu.Unlock()

	for _, c := range targets {
		select {
		case c.ch <- evt:
		default:
		}
	}
}

func (h *sseHub) subscribe(topics []string, canvasID string) *sseClient {
	c := &sseClient{topics: topics, canvasID: canvasID, ch: make(chan *sseEvent, 64)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *sseHub) unsubscribe(c *sseClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

func (h *sseHub) eventsSince(lastID uint64) []*sseEvent {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.recent.since(lastID)
}

func (c *sseClient) matches(evt *sseEvent) bool {
	if c.canvasID != "" && c.canvasID != evt.CanvasID {
		return false
	}
	if len(c.topics) == 0 {
		return true
	}
	for _, p := range c.topics {
		if matchTopicPattern(p, evt.Topic) {
			return true
		}
	}
	return false
}

// matchTopicPattern matches a dot-separated topic against a pattern with
// NATS wildcards: "*" is one segment, a trailing ">" is one or more.
func matchTopicPattern(pattern, topic string) bool {
	if pattern == topic {
		return true
	}
	patParts := strings.Split(pattern, ".")
	topParts := strings.Split(topic, ".")
	for i, pp := range patParts {
		if pp == ">" {
			return i < len(topParts)
		}
		if i >= len(topParts) {
			return false
		}
		if pp != "*" && pp != topParts[i] {
			return false
		}
	}
	return len(patParts) == len(topParts)
}

// parseTopics splits the comma-separated topics query parameter.
func parseTopics(raw string) []string {
	var topics []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}
	return topics
}

// handleEventStream handles GET /api/events/stream. Query parameters:
// topics (comma-separated patterns) and canvas (a single canvas id).
func (s *CanvasServer) handleEventStream(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	// Streams outlive the server's write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	q := r.URL.Query()
	client := s.sseHub.subscribe(parseTopics(q.Get("topics")), q.Get("canvas"))
	defer s.sseHub.unsubscribe(client)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		return
	}

	// Replay what the client missed. Events queued on client.ch that were
	// already replayed are skipped by id.
	var lastSent uint64
	if v := r.Header.Get("Last-Event-ID"); v != "" {
		if lastID, err := strconv.ParseUint(v, 10, 64); err == nil {
			lastSent = lastID
			for _, evt := range s.sseHub.eventsSince(lastID) {
				if client.matches(evt) {
					writeSSEEvent(w, evt)
					lastSent = evt.ID
				}
			}
			_ = rc.Flush()
		}
	}

	keepalive := time.NewTicker(sseKeepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case evt := <-client.ch:
			if evt.ID <= lastSent {
				continue
			}
			writeSSEEvent(w, evt)
			lastSent = evt.ID
		case <-keepalive.C:
			fmt.Fprint(w, ":keepalive\n\n")
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func writeSSEEvent(w http.ResponseWriter, evt *sseEvent) {
	fmt.Fprintf(w, "id:%d\nevent:%s\ndata:%s\n\n", evt.ID, evt.Topic, evt.Data)
}
