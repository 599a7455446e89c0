// internal/store/store.go
//
// Store owns the authoritative cart state for one session. Every transition
// goes through Dispatch, which runs the pure reducer under a lock so that
// actions apply one at a time, in the order they arrive, and then republishes
// an immutable Snapshot to subscribers.

package store

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/kingrea/cartstate/internal/cart"
	"github.com/kingrea/cartstate/internal/money"
)

// ErrClosed is returned by Dispatch after the store has been torn down.
var ErrClosed = errors.New("store: closed")

// Logger records diagnostics. It matches logging.Logger's signature.
type Logger interface {
	Printf(format string, args ...any)
}

// Journal records one human-readable line per transition. It matches
// logbook.Logbook's leveled helpers.
type Journal interface {
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// Snapshot is a read-only view of the store after a transition. Seq grows
// by one per successful dispatch.
type Snapshot struct {
	Seq     uint64
	Session string
	State   cart.State
	View    cart.View
}

// Option customizes Store construction.
type Option func(*Store)

// WithFormatter sets the currency formatter used for View.TotalPrice.
func WithFormatter(formatter cart.PriceFormatter) Option {
	return func(s *Store) {
		if formatter != nil {
			s.formatter = formatter
		}
	}
}

// WithLogger injects a diagnostic logger.
func WithLogger(logger Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithJournal injects the session journal.
func WithJournal(journal Journal) Option {
	return func(s *Store) {
		s.journal = journal
	}
}

// WithSubscriberCapacity overrides the buffered channel size per subscriber.
func WithSubscriberCapacity(capacity int) Option {
	return func(s *Store) {
		if capacity > 0 {
			s.subscribers.capacity = capacity
		}
	}
}

// WithSessionID assigns the session identifier instead of generating one.
func WithSessionID(id string) Option {
	return func(s *Store) {
		if id != "" {
			s.session = id
		}
	}
}

// WithInitialState seeds the store. Sessions normally start empty.
func WithInitialState(state cart.State) Option {
	return func(s *Store) {
		s.state = state.Clone()
	}
}

// Store serializes cart transitions and fans snapshots out to subscribers.
type Store struct {
	mu          sync.Mutex
	session     string
	state       cart.State
	snapshot    Snapshot
	formatter   cart.PriceFormatter
	logger      Logger
	journal     Journal
	subscribers *fanout
	closed      bool
}

// New creates a store holding an empty cart.
func New(opts ...Option) *Store {
	s := &Store{
		state:       cart.Empty(),
		formatter:   money.Default(),
		subscribers: newFanout(defaultSubscriberCapacity),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.session == "" {
		s.session = uuid.NewString()
	}
	s.subscribers.logger = s.logger
	s.snapshot = s.buildSnapshot(0)
	s.logf("store: session %s opened", s.session)
	return s
}

// Session returns the identifier assigned when the store was created.
func (s *Store) Session() string {
	return s.session
}

// Dispatch applies action. Reducer failures come back unchanged (match them
// with errors.Is against cart.ErrInvalidAction and friends) and leave the
// state as it was.
func (s *Store) Dispatch(action cart.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	next, err := cart.Reduce(s.state, action)
	if err != nil {
		s.logf("store: %s rejected: %v", describe(action), err)
		if s.journal != nil {
			s.journal.Error("%s rejected: %v", describe(action), err)
		}
		return err
	}
	s.state = next
	s.snapshot = s.buildSnapshot(s.snapshot.Seq + 1)
	if s.journal != nil {
		s.journal.Info("%s · %d items · %s", describe(action), s.snapshot.View.TotalItems, s.snapshot.View.TotalPrice)
	}
	s.subscribers.publish(s.snapshot)
	return nil
}

// Snapshot returns a copy of the latest published snapshot. Callers own the
// returned slices.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot.clone()
}

// Subscribe registers for snapshots published after this call. The current
// snapshot is delivered first so subscribers never start blind.
func (s *Store) Subscribe() Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub := s.subscribers.add()
	if s.closed {
		s.subscribers.remove(sub)
	} else {
		sub.deliver(s.snapshot.clone())
	}
	return Subscription{
		Snapshots: sub.channel(),
		cancel: func() {
			s.subscribers.remove(sub)
		},
	}
}

// Close tears the store down and closes every subscription. It is safe to
// call more than once.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.subscribers.closeAll()
	s.logf("store: session %s closed after %d transitions", s.session, s.snapshot.Seq)
}

func (s *Store) buildSnapshot(seq uint64) Snapshot {
	return Snapshot{
		Seq:     seq,
		Session: s.session,
		State:   s.state.Clone(),
		View:    cart.Derive(s.state, s.formatter),
	}
}

// clone copies the item slices so no two holders share a backing array.
func (snap Snapshot) clone() Snapshot {
	snap.State = snap.State.Clone()
	snap.View.Cart = cart.CloneLines(snap.View.Cart)
	return snap
}

func (s *Store) logf(format string, args ...any) {
	if s.logger == nil {
		return
	}
	s.logger.Printf(format, args...)
}

func describe(action cart.Action) string {
	switch a := action.(type) {
	case cart.AddItem:
		return string(a.Type()) + " " + a.Item.SKU
	case cart.RemoveItem:
		return string(a.Type()) + " " + a.SKU
	case cart.SetQuantity:
		return string(a.Type()) + " " + a.SKU
	case nil:
		return "<nil action>"
	default:
		return string(action.Type())
	}
}
