package resolver

import "context"

// FetchFunc loads one reference. ok=false marks the reference as failed.
type FetchFunc[T any] func(ctx context.Context, id string) (value T, ok bool)

type cell[T any] struct {
	state State
	value T
}

// Memo is a per-session table for one kind of reference.
type Memo[T any] struct {
	session *Session
	kind    string
	fetch   FetchFunc[T]
	cells   map[string]*cell[T]
}

// NewMemo attaches a memo table for kind to session. kind prefixes event
// keys, e.g. "asset:<id>".
func NewMemo[T any](session *Session, kind string, fetch FetchFunc[T]) *Memo[T] {
	return &Memo[T]{
		session: session,
		kind:    kind,
		fetch:   fetch,
		cells:   map[string]*cell[T]{},
	}
}

// Key is the event key of id.
func (m *Memo[T]) Key(id string) string {
	if m.kind == "" {
		return id
	}
	return m.kind + ":" + id
}

// State returns the current state of id without triggering a fetch.
func (m *Memo[T]) State(id string) State {
	m.session.mu.Lock()
	defer m.session.mu.Unlock()
	if c, ok := m.cells[id]; ok {
		return c.state
	}
	return Unseen
}

// Lookup returns the value of id when resolved. The first lookup of an id
// starts an asynchronous fetch and reports Pending; later lookups never
// fetch again.
func (m *Memo[T]) Lookup(id string) (T, State) {
	var zero T
	s := m.session

	s.mu.Lock()
	if c, ok := m.cells[id]; ok {
		state, value := c.state, c.value
		s.mu.Unlock()
		if state == Resolved {
			return value, Resolved
		}
		return zero, state
	}
	if s.closed {
		s.mu.Unlock()
		return zero, Unseen
	}
	m.cells[id] = &cell[T]{state: Pending}
	s.mu.Unlock()

	if !s.start() {
		return zero, Pending
	}
	key := m.Key(id)
	s.logger.Debug("resolver.fetch", "reference", key)

	go func() {
		value, ok := m.fetch(s.ctx, id)
		s.settle(key, func() State {
			c := m.cells[id]
			if ok {
				c.state = Resolved
				c.value = value
			} else {
				c.state = Failed
			}
			return c.state
		})
	}()
	return zero, Pending
}
