// Package sync periodically backs up all canvases as JSONL to one or more
// destinations (S3, a git remote).
package sync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/events"
	"github.com/benpeays-blip/National-Church-Residences-sub005/internal/store"
)

// Destination is the interface for a sync target (S3, git, etc.).
type Destination interface {
	// Write sends the JSONL payload to the destination.
	Write(ctx context.Context, data []byte) error
}

// Scheduler runs periodic syncs to one or more destinations. Between ticks a
// sync can be requested early with Trigger, e.g. when a canvas changes.
type Scheduler struct {
	store        store.Store
	destinations []Destination
	interval     time.Duration
	options      ExportOptions
	logger       *slog.Logger

	trigger chan struct{}
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler that exports from the store to the given
// destinations at the specified interval.
func NewScheduler(s store.Store, destinations []Destination, interval time.Duration, opts ExportOptions, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		store:        s,
		destinations: destinations,
		interval:     interval,
		options:      opts,
		logger:       logger,
		trigger:      make(chan struct{}, 1),
	}
}

// Start begins periodic sync. It runs an initial sync immediately, then
// on each tick.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Stop cancels the scheduler and waits for the current sync (if any) to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// Trigger requests a sync as soon as the current one (if any) finishes.
// Requests made while one is already pending are coalesced.
func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// TriggerOn subscribes to topic and calls Trigger for every message. The
// returned function cancels the subscription and ends the forwarding goroutine.
func (s *Scheduler) TriggerOn(sub events.Subscriber, topic string) (func(), error) {
	ch, cancel, err := sub.Subscribe(topic)
	if err != nil {
		return nil, err
	}
	go func() {
		for range ch {
			s.Trigger()
		}
	}()
	return cancel, nil
}

func (s *Scheduler) run(ctx context.Context) {
	_ = s.SyncOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.SyncOnce(ctx)
		case <-s.trigger:
			_ = s.SyncOnce(ctx)
		}
	}
}

// SyncOnce exports and writes to every destination. One failing destination
// does not stop the others; their errors are joined in the result.
func (s *Scheduler) SyncOnce(ctx context.Context) error {
	start := time.Now()
	var buf bytes.Buffer
	if err := ExportJSONL(ctx, s.store, &buf, s.options); err != nil {
		s.logger.Error("sync export failed", "err", err)
		return fmt.Errorf("export: %w", err)
	}
	data := buf.Bytes()

	var errs []error
	for i, dest := range s.destinations {
		name := destinationName(i, dest)
		if err := dest.Write(ctx, data); err != nil {
			s.logger.Error("sync destination write failed", "destination", name, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	s.logger.Info("sync completed",
		"destinations", len(s.destinations),
		"failed", len(errs),
		"bytes", len(data),
		"took", time.Since(start).Round(time.Millisecond))
	return errors.Join(errs...)
}

// destinationName labels a destination in logs and errors. Destinations
// that implement fmt.Stringer name themselves.
func destinationName(i int, d Destination) string {
	if st, ok := d.(fmt.Stringer); ok {
		return st.String()
	}
	return fmt.Sprintf("destination[%d]", i)
}
