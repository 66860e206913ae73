// Package postgres stores canvases and their event history in PostgreSQL.
//
// Canvas documents live in a single JSONB column; the schema is applied
// from embedded migrations when the store opens.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/model"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Option adjusts how New opens the database.
type Option func(*options)

type options struct {
	maxOpen     int
	maxIdle     int
	maxLifetime time.Duration
	pingTimeout time.Duration
	logger      *slog.Logger
}

// WithPool overrides the connection pool limits.
func WithPool(maxOpen, maxIdle int, maxLifetime time.Duration) Option {
	return func(o *options) {
		o.maxOpen = maxOpen
		o.maxIdle = maxIdle
		o.maxLifetime = maxLifetime
	}
}

// WithLogger sets the logger used for migration progress.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Store is a store.Store backed by a *sql.DB.
type Store struct {
	session
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// New connects to databaseURL, waits for it to answer a ping and brings the
// schema up to date.
func New(ctx context.Context, databaseURL string, opts ...Option) (*Store, error) {
	o := options{
		maxOpen:     25,
		maxIdle:     5,
		maxLifetime: 5 * time.Minute,
		pingTimeout: 10 * time.Second,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(o.maxOpen)
	db.SetMaxIdleConns(o.maxIdle)
	db.SetConnMaxLifetime(o.maxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, o.pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migrateUp(db, o.logger); err != nil {
		db.Close()
		return nil, err
	}
	return wrap(db), nil
}

func wrap(db *sql.DB) *Store {
	return &Store{session: session{ex: db}, db: db}
}

func migrateUp(db *sql.DB, logger *slog.Logger) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrator: %w", err)
	}

	switch err := m.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
	case err != nil:
		return fmt.Errorf("apply migrations: %w", err)
	}
	if v, dirty, err := m.Version(); err == nil {
		logger.Info("postgres: schema ready", "version", v, "dirty", dirty)
	}
	return nil
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// RunInTransaction runs fn against a store bound to one transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(&txSession{session{ex: tx}}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// session runs the canvas queries against either the pool or a transaction.
type session struct {
	ex executor
}

func (s session) CreateCanvas(ctx context.Context, c *model.Canvas) error {
	return queryCreateCanvas(ctx, s.ex, c)
}

func (s session) GetCanvas(ctx context.Context, id string) (*model.Canvas, error) {
	return queryGetCanvas(ctx, s.ex, id)
}

func (s session) ListCanvases(ctx context.Context, filter model.CanvasFilter) ([]*model.Canvas, int, error) {
	return queryListCanvases(ctx, s.ex, filter)
}

func (s session) UpdateCanvasData(ctx context.Context, id string, data model.CanvasData, expectedVersion int) (*model.Canvas, error) {
	return queryUpdateCanvasData(ctx, s.ex, id, data, expectedVersion)
}

func (s session) UpdateCanvasMeta(ctx context.Context, id string, name, description *string) (*model.Canvas, error) {
	return queryUpdateCanvasMeta(ctx, s.ex, id, name, description)
}

func (s session) DeleteCanvas(ctx context.Context, id string) error {
	return queryDeleteCanvas(ctx, s.ex, id)
}

func (s session) RecordEvent(ctx context.Context, e *model.Event) error {
	return queryRecordEvent(ctx, s.ex, e)
}

func (s session) GetEvents(ctx context.Context, canvasID string) ([]*model.Event, error) {
	return queryGetEvents(ctx, s.ex, canvasID)
}

// txSession is the store handed to RunInTransaction callbacks. Nested
// transactions reuse it and Close leaves the pool alone.
type txSession struct {
	session
}

var _ store.Store = (*txSession)(nil)

func (t *txSession) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	return fn(t)
}

func (t *txSession) Close() error { return nil }
