// Package scheduler drives an i18n.Manager from an assets.Server one tick at a time.
//
// Every tick first applies the most recent language request, then drains the asset events
// that accumulated since the previous tick and hands them to the manager as one batch, so a
// group of files finishing together produces a single ready signal.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/kdsmith18542/localekit/assets"
	"github.com/kdsmith18542/localekit/i18n"
	"github.com/kdsmith18542/localekit/logger"
)

const defaultInterval = 100 * time.Millisecond

// Scheduler owns the tick loop.
type Scheduler struct {
	manager  *i18n.Manager
	server   *assets.Server
	log      *zap.Logger
	interval time.Duration

	mu      sync.Mutex
	request []language.Tag
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the scheduler's logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

// WithInterval sets the time between ticks in Run.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// New creates a scheduler for manager and the server it loads from.
func New(manager *i18n.Manager, server *assets.Server, opts ...Option) *Scheduler {
	s := &Scheduler{
		manager:  manager,
		server:   server,
		interval: defaultInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Named("scheduler")
	}
	return s
}

// RequestLanguage queues a language change for the next tick. Only the last request queued
// before a tick is applied.
func (s *Scheduler) RequestLanguage(tags []language.Tag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.request = append([]language.Tag(nil), tags...)
}

// Tick applies the queued language request, then the pending asset events. The error is the
// language change's; asset problems are only logged.
func (s *Scheduler) Tick(ctx context.Context) error {
	s.mu.Lock()
	request := s.request
	s.request = nil
	s.mu.Unlock()

	var err error
	if request != nil {
		if err = s.manager.RequestLanguage(ctx, request); err != nil {
			s.log.Error("failed changing language", zap.Error(err))
		}
	}

	if batch := Notifications(s.server.Drain(), s.server); len(batch) > 0 {
		s.manager.Apply(ctx, batch)
	}
	return err
}

// Run ticks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			_ = s.Tick(ctx)
		}
	}
}

// Settle ticks until no read is in flight and the active language is fully loaded. It is
// meant for command line tools and tests that need a complete language before resolving.
func (s *Scheduler) Settle(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.server.Wait()
		if err := s.Tick(ctx); err != nil {
			return err
		}
		if s.server.Pending() == 0 && s.manager.IsFullyLoaded() {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Notifications converts asset events into manager notifications, attaching the content the
// server currently holds. Content events for files forgotten in the meantime are dropped.
func Notifications(events []assets.Event, s *assets.Server) []i18n.Notification {
	batch := make([]i18n.Notification, 0, len(events))
	for _, ev := range events {
		n := i18n.Notification{Handle: ev.Handle, Path: ev.Path}

		switch ev.Kind {
		case assets.Discovered:
			n.Kind = i18n.Discovered
		case assets.Created, assets.Modified:
			n.Kind = i18n.ContentAvailable
			if ev.Kind == assets.Modified {
				n.Kind = i18n.ContentChanged
			}
			text, ok := s.Get(ev.Handle)
			if !ok {
				continue
			}
			n.Text = text
		case assets.Removed:
			n.Kind = i18n.Removed
		default:
			continue
		}
		batch = append(batch, n)
	}
	return batch
}
