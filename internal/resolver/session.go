// Package resolver memoizes lazily fetched references for one render
// session. Every id moves through Unseen -> Pending -> Resolved | Failed
// exactly once; failures are not retried and results arriving after the
// session is closed are dropped.
package resolver

import (
	"context"
	"sync"

	"github.com/goliatone/go-jumpgate/internal/logging"
	"github.com/goliatone/go-jumpgate/pkg/interfaces"
)

// State is the resolution state of one reference.
type State int

const (
	Unseen State = iota
	Pending
	Resolved
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Resolved:
		return "resolved"
	case Failed:
		return "failed"
	default:
		return "unseen"
	}
}

// Event reports a settled reference.
type Event struct {
	Key   string `json:"reference"`
	State State  `json:"-"`
}

// Listener is notified when a reference settles.
type Listener func(Event)

// Option customises a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithListener registers a listener at construction.
func WithListener(fn Listener) Option {
	return func(s *Session) {
		if fn != nil {
			s.listeners[s.nextID] = fn
			s.nextID++
		}
	}
}

// Session owns the fetch goroutines and memo tables of one panel instance.
type Session struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger interfaces.Logger

	wg sync.WaitGroup

	mu        sync.Mutex
	closed    bool
	pending   int
	fetches   int
	listeners map[int]Listener
	nextID    int
}

// NewSession starts a session bound to parent. Close releases it.
func NewSession(parent context.Context, opts ...Option) *Session {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		ctx:       ctx,
		cancel:    cancel,
		logger:    logging.NoOp(),
		listeners: map[int]Listener{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Context is cancelled when the session closes.
func (s *Session) Context() context.Context { return s.ctx }

// Subscribe adds a listener and returns its removal func.
func (s *Session) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Close cancels in-flight fetches and discards their results. It is safe to
// call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.listeners = map[int]Listener{}
	s.mu.Unlock()
	s.cancel()
	s.logger.Debug("resolver.session.closed")
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Pending returns the number of in-flight fetches.
func (s *Session) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Fetches returns how many fetches the session has started.
func (s *Session) Fetches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

// Wait blocks until every fetch started so far has settled.
func (s *Session) Wait() {
	s.wg.Wait()
}

// WaitContext is Wait bounded by ctx.
func (s *Session) WaitContext(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// start registers a fetch. It returns false when the session is closed.
func (s *Session) start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.pending++
	s.fetches++
	s.wg.Add(1)
	return true
}

// settle runs apply under the session lock unless the session is closed,
// then notifies listeners outside the lock.
func (s *Session) settle(key string, apply func() State) {
	defer s.wg.Done()

	s.mu.Lock()
	s.pending--
	if s.closed {
		s.mu.Unlock()
		s.logger.Debug("resolver.result.discarded", "reference", key)
		return
	}
	state := apply()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	s.logger.Debug("resolver.settled", "reference", key, "state", state.String())
	event := Event{Key: key, State: state}
	for _, fn := range listeners {
		fn(event)
	}
}
