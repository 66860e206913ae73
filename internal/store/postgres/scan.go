package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// canvasRow holds the scan targets for canvasColumns, in order.
type canvasRow struct {
	c           model.Canvas
	description sql.NullString
	data        []byte
}

func (r *canvasRow) dest() []any {
	return []any{&r.c.ID, &r.c.Name, &r.description, &r.data, &r.c.Version, &r.c.CreatedAt, &r.c.UpdatedAt}
}

func (r *canvasRow) canvas() (*model.Canvas, error) {
	r.c.Description = r.description.String
	if err := decodeCanvasData(r.data, &r.c.CanvasData); err != nil {
		return nil, fmt.Errorf("decode canvas_data for %s: %w", r.c.ID, err)
	}
	return &r.c, nil
}

func scanCanvas(row scannable) (*model.Canvas, error) {
	var r canvasRow
	if err := row.Scan(r.dest()...); err != nil {
		return nil, err
	}
	return r.canvas()
}

// scanCanvasWithTotal reads a list row: COUNT(*) OVER() followed by
// canvasColumns.
func scanCanvasWithTotal(row scannable) (*model.Canvas, int, error) {
	var (
		r     canvasRow
		total int
	)
	if err := row.Scan(append([]any{&total}, r.dest()...)...); err != nil {
		return nil, 0, err
	}
	c, err := r.canvas()
	if err != nil {
		return nil, 0, err
	}
	return c, total, nil
}

// decodeCanvasData unmarshals a JSONB document. Empty input yields an empty
// normalized graph.
func decodeCanvasData(raw []byte, d *model.CanvasData) error {
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, d); err != nil {
			return err
		}
	}
	d.Normalize()
	return nil
}

// canvasDataBytes encodes a graph document for the canvas_data JSONB column.
func canvasDataBytes(d model.CanvasData) ([]byte, error) {
	d.Normalize()
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode canvas_data: %w", err)
	}
	return b, nil
}

// scanEvent scans a single row into a model.Event.
func scanEvent(row scannable) (*model.Event, error) {
	var e model.Event
	var (
		actor   sql.NullString
		payload []byte
	)
	err := row.Scan(&e.ID, &e.Topic, &e.CanvasID, &actor, &payload, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.Actor = actor.String
	if len(payload) > 0 {
		e.Payload = json.RawMessage(payload)
	}
	return &e, nil
}

// scanEvents scans multiple rows into a slice of model.Event pointers.
func scanEvents(rows *sql.Rows) ([]*model.Event, error) {
	events := []*model.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// nullString converts a string to sql.NullString; empty string is null.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// jsonbBytes converts json.RawMessage to a []byte suitable for JSONB columns.
func jsonbBytes(m json.RawMessage) []byte {
	if len(m) == 0 {
		return nil
	}
	return []byte(m)
}
