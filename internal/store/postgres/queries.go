package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/model"
)

// canvasColumns is the column list used for SELECT statements on the
// organization_canvases table.
const canvasColumns = `id, name, description, canvas_data, version, created_at, updated_at`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryCreateCanvas(ctx context.Context, db executor, c *model.Canvas) error {
	data, err := canvasDataBytes(c.CanvasData)
	if err != nil {
		return err
	}
	return db.QueryRowContext(ctx, `
		INSERT INTO organization_canvases (id, name, description, canvas_data)
		VALUES ($1, $2, $3, $4)
		RETURNING version, created_at, updated_at`,
		c.ID,
		c.Name,
		nullString(c.Description),
		data,
	).Scan(&c.Version, &c.CreatedAt, &c.UpdatedAt)
}

func queryGetCanvas(ctx context.Context, db executor, id string) (*model.Canvas, error) {
	row := db.QueryRowContext(ctx, `SELECT `+canvasColumns+` FROM organization_canvases WHERE id = $1`, id)
	return scanCanvas(row)
}

func queryListCanvases(ctx context.Context, db executor, filter model.CanvasFilter) ([]*model.Canvas, int, error) {
	var (
		whereClauses []string
		args         []any
		argIdx       int
	)

	nextArg := func() string {
		argIdx++
		return fmt.Sprintf("$%d", argIdx)
	}

	if filter.Search != "" {
		p := nextArg()
		whereClauses = append(whereClauses,
			fmt.Sprintf("(name ILIKE '%%' || %s || '%%' OR description ILIKE '%%' || %s || '%%')", p, p))
		args = append(args, filter.Search)
	}

	whereSQL := ""
	if len(whereClauses) > 0 {
		whereSQL = " WHERE " + strings.Join(whereClauses, " AND ")
	}

	// Single query with COUNT(*) OVER() to get total and rows atomically.
	dataQuery := "SELECT COUNT(*) OVER() AS total_count, " + canvasColumns +
		" FROM organization_canvases" + whereSQL + " ORDER BY " + parseSortClause(filter.Sort)

	if filter.Limit > 0 {
		dataQuery += " LIMIT " + nextArg()
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		dataQuery += " OFFSET " + nextArg()
		args = append(args, filter.Offset)
	}

	rows, err := db.QueryContext(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list canvases: %w", err)
	}
	defer rows.Close()

	canvases := []*model.Canvas{}
	var total int
	for rows.Next() {
		c, t, err := scanCanvasWithTotal(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan canvases: %w", err)
		}
		total = t
		canvases = append(canvases, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("scan canvases: %w", err)
	}

	return canvases, total, nil
}

// queryUpdateCanvasData replaces canvas_data and bumps the version. When
// expectedVersion is non-zero the update only applies if it matches; a miss
// is then resolved into sql.ErrNoRows or a *model.ConflictError.
func queryUpdateCanvasData(ctx context.Context, db executor, id string, data model.CanvasData, expectedVersion int) (*model.Canvas, error) {
	raw, err := canvasDataBytes(data)
	if err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx, `
		UPDATE organization_canvases SET
			canvas_data = $2,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $1 AND ($3 = 0 OR version = $3)
		RETURNING `+canvasColumns,
		id, raw, expectedVersion,
	)
	c, err := scanCanvas(row)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, sql.ErrNoRows) || expectedVersion == 0 {
		return nil, err
	}

	var actual int
	if err := db.QueryRowContext(ctx,
		`SELECT version FROM organization_canvases WHERE id = $1`, id,
	).Scan(&actual); err != nil {
		return nil, err
	}
	return nil, &model.ConflictError{ID: id, Expected: expectedVersion, Actual: actual}
}

func queryUpdateCanvasMeta(ctx context.Context, db executor, id string, name, description *string) (*model.Canvas, error) {
	var (
		sets []string
		args = []any{id}
	)
	if name != nil {
		args = append(args, *name)
		sets = append(sets, fmt.Sprintf("name = $%d", len(args)))
	}
	if description != nil {
		args = append(args, nullString(*description))
		sets = append(sets, fmt.Sprintf("description = $%d", len(args)))
	}
	if len(sets) == 0 {
		return queryGetCanvas(ctx, db, id)
	}
	sets = append(sets, "updated_at = NOW()")

	row := db.QueryRowContext(ctx,
		`UPDATE organization_canvases SET `+strings.Join(sets, ", ")+
			` WHERE id = $1 RETURNING `+canvasColumns,
		args...,
	)
	return scanCanvas(row)
}

func queryDeleteCanvas(ctx context.Context, db executor, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM organization_canvases WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func queryRecordEvent(ctx context.Context, db executor, e *model.Event) error {
	return db.QueryRowContext(ctx, `
		INSERT INTO canvas_events (topic, canvas_id, actor, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		e.Topic, e.CanvasID, nullString(e.Actor), jsonbBytes(e.Payload),
	).Scan(&e.ID, &e.CreatedAt)
}

func queryGetEvents(ctx context.Context, db executor, canvasID string) ([]*model.Event, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, topic, canvas_id, actor, payload, created_at
		FROM canvas_events
		WHERE canvas_id = $1
		ORDER BY id ASC`,
		canvasID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

// parseSortClause converts a sort key such as "-updated_at" into an ORDER BY
// clause, falling back to insertion order for unknown columns. Ties on the
// named column fall back to insertion order too.
func parseSortClause(sort string) string {
	const fallback = "created_at ASC, id ASC"
	if sort == "" {
		return fallback
	}
	desc := strings.HasPrefix(sort, "-")
	col := strings.TrimPrefix(sort, "-")
	allowed := map[string]bool{
		"name": true, "created_at": true, "updated_at": true,
	}
	if !allowed[col] {
		return fallback
	}
	dir := " ASC"
	if desc {
		dir = " DESC"
	}
	if col == "created_at" {
		return col + dir + ", id ASC"
	}
	return col + dir + ", " + fallback
}
