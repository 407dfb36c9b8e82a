// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package presence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"
	"sync"
	"time"

	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/logging"
)

const persistTimeout = 10 * time.Second

// Metrics receives store activity. The metrics package implements it with Prometheus.
type Metrics interface {
	ObserveDispatch(action string, err error)
	ObservePersist(err error)
}

// Option configures a Store.
type Option func(*Store)

// WithRepository persists every committed state to repo in the background.
func WithRepository(repo domain.StateRepository) Option {
	return func(s *Store) {
		s.repo = repo
	}
}

// WithVersion sets the version written into the persisted envelope.
func WithVersion(version string) Option {
	return func(s *Store) {
		s.version = version
	}
}

// WithMetrics reports dispatch and persistence outcomes to m.
func WithMetrics(m Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

type subscriber struct {
	id uint64
	// since is the commit sequence the subscriber was registered at; older
	// notifications still in the queue are not delivered to it.
	since uint64
	fn    func(ctx context.Context, state models.RootState)
}

type notification struct {
	ctx   context.Context
	seq   uint64
	state models.RootState
	// only restricts delivery to one subscriber (its immediate first call).
	only *subscriber
}

// Store owns the RootState. Dispatches are serialized, subscribers are notified
// in dispatch order and never while the state lock is held.
type Store struct {
	mu          sync.Mutex
	state       models.RootState
	seq         uint64
	nextSubID   uint64
	subscribers []*subscriber
	queue       []notification
	notifying   bool

	repo      domain.StateRepository
	version   string
	metrics   Metrics
	persister *persister
}

// NewStore creates a store holding initial.
func NewStore(initial models.RootState, opts ...Option) *Store {
	initial.Normalize()
	s := &Store{
		state:   initial.Clone(),
		version: "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.repo != nil {
		s.persister = newPersister(s.repo, s.version, s.metrics)
		go s.persister.run()
	}
	return s
}

// State returns a deep copy of the current state.
func (s *Store) State() models.RootState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Dispatch applies action. On success, and on an anomalous transition, the new
// state is committed, queued for persistence and delivered to subscribers before
// Dispatch returns, unless another goroutine is already delivering, in which
// case that goroutine delivers it. A dispatch made from inside a subscriber is
// delivered after the current notification finishes.
func (s *Store) Dispatch(ctx context.Context, action Action) error {
	s.mu.Lock()
	next, err := Reduce(s.state, action)
	committed := err == nil || errors.Is(err, domain.ErrAnomalousTransition)
	if committed {
		s.state = next
		s.seq++
		s.queue = append(s.queue, notification{
			ctx:   context.WithoutCancel(ctx),
			seq:   s.seq,
			state: next,
		})
		if s.persister != nil {
			s.persister.enqueue(next)
		}
	}
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.ObserveDispatch(action.Type(), err)
	}

	switch {
	case err == nil:
		slog.DebugContext(ctx, "presence action applied", "action", action.Type())
	case committed:
		slog.WarnContext(ctx, "anomalous presence transition applied in degraded form",
			"action", action.Type(),
			logging.ErrKey, err,
		)
	default:
		slog.DebugContext(ctx, "presence action rejected", "action", action.Type(), logging.ErrKey, err)
	}

	if committed {
		s.drain()
	}
	return err
}

// register adds fn as a subscriber. init runs under the state lock with the
// state the subscription starts from. When immediate is set, fn is first called
// with that same state.
func (s *Store) register(ctx context.Context, init func(models.RootState), fn func(context.Context, models.RootState), immediate bool) func() {
	s.mu.Lock()
	s.nextSubID++
	sub := &subscriber{id: s.nextSubID, since: s.seq, fn: fn}
	init(s.state)
	s.subscribers = append(s.subscribers, sub)
	if immediate {
		s.queue = append(s.queue, notification{
			ctx:   context.WithoutCancel(ctx),
			seq:   s.seq,
			state: s.state,
			only:  sub,
		})
	}
	s.mu.Unlock()

	if immediate {
		s.drain()
	}

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.subscribers = slices.DeleteFunc(s.subscribers, func(o *subscriber) bool { return o.id == sub.id })
	}
}

// drain delivers queued notifications. Only one goroutine drains at a time;
// anything queued meanwhile is picked up by the goroutine already draining.
func (s *Store) drain() {
	s.mu.Lock()
	if s.notifying {
		s.mu.Unlock()
		return
	}
	s.notifying = true
	for len(s.queue) > 0 {
		n := s.queue[0]
		s.queue = s.queue[1:]
		subs := slices.Clone(s.subscribers)
		s.mu.Unlock()

		if n.only != nil {
			deliver(n, n.only)
		} else {
			for _, sub := range subs {
				if n.seq > sub.since {
					deliver(n, sub)
				}
			}
		}

		s.mu.Lock()
	}
	s.notifying = false
	s.mu.Unlock()
}

func deliver(n notification, sub *subscriber) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(n.ctx, "presence subscriber panicked",
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
				logging.PriorityCritical(),
			)
		}
	}()
	sub.fn(n.ctx, n.state)
}

// Close flushes the latest state to the repository and stops the background writer.
func (s *Store) Close(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	return s.persister.close(ctx)
}

// LoadState reads the persisted state from repo. A missing or unreadable state
// is logged and replaced by empty defaults.
func LoadState(ctx context.Context, repo domain.StateRepository) models.RootState {
	if repo == nil {
		return models.NewRootState()
	}
	persisted, err := repo.LoadState(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			slog.InfoContext(ctx, "no persisted state found, starting from empty state")
		} else {
			slog.WarnContext(ctx, "failed to load persisted state, starting from empty state", logging.ErrKey, err)
		}
		return models.NewRootState()
	}
	if persisted == nil {
		return models.NewRootState()
	}
	state := persisted.State
	state.Normalize()
	slog.InfoContext(ctx, "loaded persisted state",
		"version", persisted.Version,
		"attendees", len(state.Presence.ByID),
		"online", len(state.Presence.OnlineIDs),
		"active", state.Presence.Active,
	)
	return state
}

// persister writes the most recent state with a single background goroutine.
// States queued while a write is in flight collapse to the latest one.
type persister struct {
	repo    domain.StateRepository
	version string
	metrics Metrics

	mu      sync.Mutex
	pending *models.RootState

	wake     chan struct{}
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newPersister(repo domain.StateRepository, version string, metrics Metrics) *persister {
	return &persister{
		repo:    repo,
		version: version,
		metrics: metrics,
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (p *persister) enqueue(state models.RootState) {
	p.mu.Lock()
	p.pending = &state
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *persister) run() {
	defer close(p.done)
	for {
		select {
		case <-p.wake:
			p.flush()
		case <-p.stop:
			p.flush()
			return
		}
	}
}

func (p *persister) flush() {
	p.mu.Lock()
	state := p.pending
	p.pending = nil
	p.mu.Unlock()
	if state == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	err := p.repo.SaveState(ctx, &models.PersistedState{State: *state, Version: p.version})
	if p.metrics != nil {
		p.metrics.ObservePersist(err)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to persist presence state", logging.ErrKey, err)
		return
	}
	slog.DebugContext(ctx, "presence state persisted")
}

func (p *persister) close(ctx context.Context) error {
	p.stopOnce.Do(func() { close(p.stop) })
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for state persistence: %w", ctx.Err())
	}
}
