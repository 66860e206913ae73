// Package presence tracks which editing sessions currently have a canvas
// open.
//
// Saves are whole-document replacements, so two sessions editing the same
// canvas will overwrite each other unless they use the version token. The
// tracker does not lock anything; it only lets an editor see that someone
// else is working on the same canvas. Editors send a heartbeat while open and
// a background reaper drops sessions that stop sending them.
package presence

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Session is one editor's live presence on a canvas.
type Session struct {
	CanvasID  string    `json:"canvasId"`
	SessionID string    `json:"sessionId"`
	Actor     string    `json:"actor,omitempty"`
	State     string    `json:"state,omitempty"` // editor state: idle, dirty, saving
	FirstSeen time.Time `json:"firstSeen"`
	LastSeen  time.Time `json:"lastSeen"`
	IdleSecs  float64   `json:"idleSecs"`
	Beats     int64     `json:"beats"`
}

// Heartbeat is what an open editor reports periodically.
type Heartbeat struct {
	CanvasID  string `json:"canvasId"`
	SessionID string `json:"sessionId"`
	Actor     string `json:"actor,omitempty"`
	State     string `json:"state,omitempty"`
}

// ReaperConfig configures the background idle-session reaper.
type ReaperConfig struct {
	// IdleAfter is how long a session may go without a heartbeat before it
	// is dropped. Default: 2 minutes.
	IdleAfter time.Duration

	// SweepInterval is how often the reaper scans. Default: 30 seconds.
	SweepInterval time.Duration

	// OnEvict is called for each dropped session, outside the lock.
	OnEvict func(s Session)
}

type sessionKey struct {
	canvasID  string
	sessionID string
}

type sessionState struct {
	actor     string
	state     string
	firstSeen time.Time
	lastSeen  time.Time
	beats     int64
}

// Tracker maintains the in-memory set of open editing sessions.
type Tracker struct {
	mu       sync.RWMutex
	sessions map[sessionKey]*sessionState
	now      func() time.Time

	reaperStop chan struct{}
	reaperDone chan struct{}
}

// New creates a new presence tracker.
func New() *Tracker {
	return &Tracker{
		sessions: make(map[sessionKey]*sessionState),
		now:      time.Now,
	}
}

// Heartbeat records that a session is still editing a canvas. Heartbeats
// without a canvas or session id are ignored.
func (t *Tracker) Heartbeat(hb Heartbeat) {
	if hb.CanvasID == "" || hb.SessionID == "" {
		return
	}

	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()

	key := sessionKey{hb.CanvasID, hb.SessionID}
	st, ok := t.sessions[key]
	if !ok {
		st = &sessionState{firstSeen: now}
		t.sessions[key] = st
		slog.Debug("presence: session opened", "canvas", hb.CanvasID, "session", hb.SessionID, "actor", hb.Actor)
	}
	st.lastSeen = now
	st.beats++
	if hb.Actor != "" {
		st.actor = hb.Actor
	}
	if hb.State != "" {
		st.state = hb.State
	}
}

// Leave removes a session explicitly, e.g. when an editor closes.
func (t *Tracker) Leave(canvasID, sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, sessionKey{canvasID, sessionID})
}

// Forget drops every session on a canvas. Used when the canvas is deleted.
func (t *Tracker) Forget(canvasID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for key := range t.sessions {
		if key.canvasID == canvasID {
			delete(t.sessions, key)
			n++
		}
	}
	return n
}

// Sessions returns the open sessions on a canvas, most recently active first.
func (t *Tracker) Sessions(canvasID string) []Session {
	t.mu.RLock()
	defer t.mu.RUnlock()

	now := t.now()
	out := []Session{}
	for key, st := range t.sessions {
		if key.canvasID != canvasID {
			continue
		}
		out = append(out, st.snapshot(key, now))
	}
	sortSessions(out)
	return out
}

// All returns every open session across canvases, most recently active first.
func (t *Tracker) All() []Session {
	t.mu.RLock()
	defer t.mu.RUnlock()

	now := t.now()
	out := make([]Session, 0, len(t.sessions))
	for key, st := range t.sessions {
		out = append(out, st.snapshot(key, now))
	}
	sortSessions(out)
	return out
}

func (st *sessionState) snapshot(key sessionKey, now time.Time) Session {
	return Session{
		CanvasID:  key.canvasID,
		SessionID: key.sessionID,
		Actor:     st.actor,
		State:     st.state,
		FirstSeen: st.firstSeen,
		LastSeen:  st.lastSeen,
		IdleSecs:  now.Sub(st.lastSeen).Seconds(),
		Beats:     st.beats,
	}
}

func sortSessions(s []Session) {
	sort.Slice(s, func(i, j int) bool {
		if !s[i].LastSeen.Equal(s[j].LastSeen) {
			return s[i].LastSeen.After(s[j].LastSeen)
		}
		return s[i].SessionID < s[j].SessionID
	})
}

// StartReaper launches a background goroutine that periodically drops idle
// sessions. Call Stop() to shut it down.
func (t *Tracker) StartReaper(cfg *ReaperConfig) {
	if cfg == nil {
		cfg = &ReaperConfig{}
	}
	if cfg.IdleAfter == 0 {
		cfg.IdleAfter = 2 * time.Minute
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = 30 * time.Second
	}

	t.reaperStop = make(chan struct{})
	t.reaperDone = make(chan struct{})

	go t.reapLoop(cfg)
	slog.Info("presence: reaper started",
		"idle_after", cfg.IdleAfter,
		"sweep_interval", cfg.SweepInterval)
}

// Stop shuts down the reaper goroutine.
func (t *Tracker) Stop() {
	if t.reaperStop != nil {
		close(t.reaperStop)
		<-t.reaperDone
		t.reaperStop = nil
		t.reaperDone = nil
	}
}

func (t *Tracker) reapLoop(cfg *ReaperConfig) {
	defer close(t.reaperDone)

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.reaperStop:
			return
		case <-ticker.C:
			t.sweep(cfg)
		}
	}
}

func (t *Tracker) sweep(cfg *ReaperConfig) {
	now := t.now()
	var evicted []Session

	t.mu.Lock()
	for key, st := range t.sessions {
		if now.Sub(st.lastSeen) > cfg.IdleAfter {
			evicted = append(evicted, st.snapshot(key, now))
			delete(t.sessions, key)
		}
	}
	t.mu.Unlock()

	for _, s := range evicted {
		slog.Info("presence: dropped idle session",
			"canvas", s.CanvasID,
			"session", s.SessionID,
			"idle_after", cfg.IdleAfter)
		if cfg.OnEvict != nil {
			cfg.OnEvict(s)
		}
	}
}
