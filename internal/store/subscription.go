package store

import "sync"

const defaultSubscriberCapacity = 16

// Subscription represents an active snapshot feed.
type Subscription struct {
	Snapshots <-chan Snapshot
	cancel    func()
}

// Close terminates the subscription and closes its channel.
func (s Subscription) Close() {
	if s.cancel != nil {
		s.cancel()
	}
}

// fanout delivers snapshots to every live subscriber, each receiving its own
// copy. Callers hold the store lock while publishing, so deliveries never
// interleave.
type fanout struct {
	mu          sync.Mutex
	subscribers map[*subscriber]struct{}
	capacity    int
	logger      Logger
}

func newFanout(capacity int) *fanout {
	return &fanout{
		subscribers: map[*subscriber]struct{}{},
		capacity:    capacity,
	}
}

func (f *fanout) add() *subscriber {
	sub := newSubscriber(f.capacity, f.logger)
	f.mu.Lock()
	f.subscribers[sub] = struct{}{}
	f.mu.Unlock()
	return sub
}

func (f *fanout) remove(sub *subscriber) {
	f.mu.Lock()
	_, ok := f.subscribers[sub]
	delete(f.subscribers, sub)
	f.mu.Unlock()
	if ok {
		sub.close()
	}
}

func (f *fanout) publish(snapshot Snapshot) {
	f.mu.Lock()
	targets := make([]*subscriber, 0, len(f.subscribers))
	for sub := range f.subscribers {
		targets = append(targets, sub)
	}
	f.mu.Unlock()
	for _, sub := range targets {
		sub.deliver(snapshot.clone())
	}
}

func (f *fanout) closeAll() {
	f.mu.Lock()
	subs := f.subscribers
	f.subscribers = map[*subscriber]struct{}{}
	f.mu.Unlock()
	for sub := range subs {
		sub.close()
	}
}

func (f *fanout) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers)
}

type subscriber struct {
	mu     sync.Mutex
	ch     chan Snapshot
	closed bool
	logger Logger
}

func newSubscriber(capacity int, logger Logger) *subscriber {
	if capacity <= 0 {
		capacity = defaultSubscriberCapacity
	}
	return &subscriber{
		ch:     make(chan Snapshot, capacity),
		logger: logger,
	}
}

func (s *subscriber) channel() <-chan Snapshot {
	return s.ch
}

// deliver never blocks: when the buffer is full the oldest snapshot is
// discarded, since a newer one supersedes it.
func (s *subscriber) deliver(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for {
		select {
		case s.ch <- snapshot:
			return
		default:
		}
		select {
		case dropped := <-s.ch:
			s.logDrop(dropped)
		default:
		}
	}
}

func (s *subscriber) logDrop(snapshot Snapshot) {
	if s.logger == nil {
		return
	}
	s.logger.Printf("store: subscriber lagging, dropped snapshot %d", snapshot.Seq)
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}
