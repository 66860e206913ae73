// Package memstore implements store.Store in memory. It backs the server's
// "memory://" database URL for local demos and is used by tests across the
// module.
package memstore

import (
	"context"
	"database/sql"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/model"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/store"
)

// Store is an in-memory store.Store. The zero value is not usable; call New.
type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

// state is everything a transaction can change. Canvases and events are
// never mutated in place once stored, so a shallow copy isolates a
// transaction.
type state struct {
	canvases map[string]*model.Canvas
	order    map[string]int64 // insertion sequence per canvas
	seq      int64
	events   []*model.Event
	nextID   int64
}

func (st *state) clone() *state {
	return &state{
		canvases: maps.Clone(st.canvases),
		order:    maps.Clone(st.order),
		seq:      st.seq,
		events:   slices.Clone(st.events),
		nextID:   st.nextID,
	}
}

var _ store.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		st: &state{
			canvases: make(map[string]*model.Canvas),
			order:    make(map[string]int64),
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

func cloneCanvas(c *model.Canvas) *model.Canvas {
	out := *c
	out.CanvasData = c.CanvasData.Clone()
	return &out
}

func (s *Store) locked() (*view, func()) {
	s.mu.Lock()
	return &view{st: s.st, now: s.now}, s.mu.Unlock
}

func (s *Store) CreateCanvas(ctx context.Context, c *model.Canvas) error {
	v, unlock := s.locked()
	defer unlock()
	return v.CreateCanvas(ctx, c)
}

func (s *Store) GetCanvas(ctx context.Context, id string) (*model.Canvas, error) {
	v, unlock := s.locked()
	defer unlock()
	return v.GetCanvas(ctx, id)
}

func (s *Store) ListCanvases(ctx context.Context, filter model.CanvasFilter) ([]*model.Canvas, int, error) {
	v, unlock := s.locked()
	defer unlock()
	return v.ListCanvases(ctx, filter)
}

func (s *Store) UpdateCanvasData(ctx context.Context, id string, data model.CanvasData, expectedVersion int) (*model.Canvas, error) {
	v, unlock := s.locked()
	defer unlock()
	return v.UpdateCanvasData(ctx, id, data, expectedVersion)
}

func (s *Store) UpdateCanvasMeta(ctx context.Context, id string, name, description *string) (*model.Canvas, error) {
	v, unlock := s.locked()
	defer unlock()
	return v.UpdateCanvasMeta(ctx, id, name, description)
}

func (s *Store) DeleteCanvas(ctx context.Context, id string) error {
	v, unlock := s.locked()
	defer unlock()
	return v.DeleteCanvas(ctx, id)
}

func (s *Store) RecordEvent(ctx context.Context, e *model.Event) error {
	v, unlock := s.locked()
	defer unlock()
	return v.RecordEvent(ctx, e)
}

func (s *Store) GetEvents(ctx context.Context, canvasID string) ([]*model.Event, error) {
	v, unlock := s.locked()
	defer unlock()
	return v.GetEvents(ctx, canvasID)
}

// RunInTransaction runs fn against a private copy of the store and publishes
// the copy only when fn returns nil. The store stays locked while fn runs,
// so fn must use tx and not s.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &view{st: s.st.clone(), now: s.now}
	if err := fn(tx); err != nil {
		return err
	}
	s.st = tx.st
	return nil
}

func (s *Store) Close() error {
	return nil
}

// view implements store.Store over a state the caller has already locked.
type view struct {
	st  *state
	now func() time.Time
}

var _ store.Store = (*view)(nil)

func (v *view) CreateCanvas(_ context.Context, c *model.Canvas) error {
	if _, exists := v.st.canvases[c.ID]; exists {
		return &model.ConflictError{ID: c.ID}
	}
	now := v.now()
	c.Version = 1
	c.CreatedAt = now
	c.UpdatedAt = now
	c.CanvasData.Normalize()
	v.st.seq++
	v.st.order[c.ID] = v.st.seq
	v.st.canvases[c.ID] = cloneCanvas(c)
	return nil
}

func (v *view) GetCanvas(_ context.Context, id string) (*model.Canvas, error) {
	c, ok := v.st.canvases[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return cloneCanvas(c), nil
}

func (v *view) ListCanvases(_ context.Context, filter model.CanvasFilter) ([]*model.Canvas, int, error) {
	search := strings.ToLower(filter.Search)
	result := []*model.Canvas{}
	for _, c := range v.st.canvases {
		if search != "" &&
			!strings.Contains(strings.ToLower(c.Name), search) &&
			!strings.Contains(strings.ToLower(c.Description), search) {
			continue
		}
		result = append(result, cloneCanvas(c))
	}
	v.sortCanvases(result, filter.Sort)

	total := len(result)
	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			result = []*model.Canvas{}
		} else {
			result = result[filter.Offset:]
		}
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, total, nil
}

// sortCanvases mirrors the postgres ordering rules: a known column first,
// then insertion order to break ties.
func (v *view) sortCanvases(list []*model.Canvas, sortBy string) {
	desc := strings.HasPrefix(sortBy, "-")
	var cmp func(a, b *model.Canvas) int
	switch strings.TrimPrefix(sortBy, "-") {
	case "name":
		cmp = func(a, b *model.Canvas) int { return strings.Compare(a.Name, b.Name) }
	case "updated_at":
		cmp = func(a, b *model.Canvas) int { return a.UpdatedAt.Compare(b.UpdatedAt) }
	case "created_at":
		cmp = func(a, b *model.Canvas) int { return a.CreatedAt.Compare(b.CreatedAt) }
	default:
		desc = false
		cmp = func(*model.Canvas, *model.Canvas) int { return 0 }
	}
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		c := cmp(a, b)
		if desc {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		return v.st.order[a.ID] < v.st.order[b.ID]
	})
}

// stored returns a private copy of the canvas for a write. The copy replaces
// the map entry so snapshots taken by a transaction are never mutated.
func (v *view) stored(id string) (*model.Canvas, bool) {
	c, ok := v.st.canvases[id]
	if !ok {
		return nil, false
	}
	c = cloneCanvas(c)
	v.st.canvases[id] = c
	return c, true
}

func (v *view) UpdateCanvasData(_ context.Context, id string, data model.CanvasData, expectedVersion int) (*model.Canvas, error) {
	cur, ok := v.st.canvases[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if expectedVersion != 0 && expectedVersion != cur.Version {
		return nil, &model.ConflictError{ID: id, Expected: expectedVersion, Actual: cur.Version}
	}
	c, _ := v.stored(id)
	c.CanvasData = data.Clone()
	c.CanvasData.Normalize()
	c.Version++
	c.UpdatedAt = v.now()
	return cloneCanvas(c), nil
}

func (v *view) UpdateCanvasMeta(ctx context.Context, id string, name, description *string) (*model.Canvas, error) {
	if name == nil && description == nil {
		return v.GetCanvas(ctx, id)
	}
	c, ok := v.stored(id)
	if !ok {
		return nil, sql.ErrNoRows
	}
	if name != nil {
		c.Name = *name
	}
	if description != nil {
		c.Description = *description
	}
	c.UpdatedAt = v.now()
	return cloneCanvas(c), nil
}

func (v *view) DeleteCanvas(_ context.Context, id string) error {
	if _, ok := v.st.canvases[id]; !ok {
		return sql.ErrNoRows
	}
	delete(v.st.canvases, id)
	delete(v.st.order, id)
	return nil
}

func (v *view) RecordEvent(_ context.Context, e *model.Event) error {
	v.st.nextID++
	e.ID = v.st.nextID
	e.CreatedAt = v.now()
	cp := *e
	v.st.events = append(v.st.events, &cp)
	return nil
}

func (v *view) GetEvents(_ context.Context, canvasID string) ([]*model.Event, error) {
	out := []*model.Event{}
	for _, e := range v.st.events {
		if e.CanvasID == canvasID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

// RunInTransaction inside a transaction joins it.
func (v *view) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	return fn(v)
}

func (v *view) Close() error { return nil }
