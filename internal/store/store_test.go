package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/kingrea/cartstate/internal/cart"
)

type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) Printf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) contains(fragment string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range l.lines {
		if strings.Contains(line, fragment) {
			return true
		}
	}
	return false
}

type recordingJournal struct {
	infos  []string
	errors []string
}

func (j *recordingJournal) Info(format string, args ...any) {
	j.infos = append(j.infos, fmt.Sprintf(format, args...))
}

func (j *recordingJournal) Error(format string, args ...any) {
	j.errors = append(j.errors, fmt.Sprintf(format, args...))
}

func add(sku string, price int64) cart.AddItem {
	return cart.AddItem{Item: cart.LineItem{SKU: sku, Name: sku, Price: decimal.NewFromInt(price), Qty: 1}}
}

func TestDispatchScenario(t *testing.T) {
	s := New()
	defer s.Close()

	steps := []struct {
		action cart.Action
		items  int
		price  string
	}{
		{add("SKU0001", 10), 1, "$10.00"},
		{add("SKU0001", 10), 2, "$20.00"},
		{cart.SetQuantity{SKU: "SKU0001", Qty: 5}, 5, "$50.00"},
		{cart.RemoveItem{SKU: "SKU0001"}, 0, "$0.00"},
	}
	for idx, step := range steps {
		if err := s.Dispatch(step.action); err != nil {
			t.Fatalf("step %d: dispatch: %v", idx, err)
		}
		snap := s.Snapshot()
		if snap.View.TotalItems != step.items {
			t.Fatalf("step %d: total items = %d, want %d", idx, snap.View.TotalItems, step.items)
		}
		if snap.View.TotalPrice != step.price {
			t.Fatalf("step %d: total price = %q, want %q", idx, snap.View.TotalPrice, step.price)
		}
		if snap.Seq != uint64(idx+1) {
			t.Fatalf("step %d: seq = %d", idx, snap.Seq)
		}
	}
}

func TestInitialSnapshotIsEmpty(t *testing.T) {
	s := New()
	snap := s.Snapshot()
	if snap.Seq != 0 || snap.View.TotalItems != 0 || snap.View.TotalPrice != "$0.00" {
		t.Fatalf("unexpected initial snapshot: %+v", snap)
	}
	if snap.Session == "" || snap.Session != s.Session() {
		t.Fatalf("session id not propagated: %q vs %q", snap.Session, s.Session())
	}
}

func TestDispatchErrorLeavesStateAndSeq(t *testing.T) {
	logger := &recordingLogger{}
	journal := &recordingJournal{}
	s := New(WithLogger(logger), WithJournal(journal))
	if err := s.Dispatch(add("SKU0001", 10)); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	before := s.Snapshot()

	err := s.Dispatch(cart.SetQuantity{SKU: "SKU0404", Qty: 2})
	if !errors.Is(err, cart.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
	after := s.Snapshot()
	if after.Seq != before.Seq || after.View.TotalItems != before.View.TotalItems {
		t.Fatalf("failed dispatch changed the store: %+v -> %+v", before, after)
	}
	if !logger.contains("rejected") {
		t.Fatalf("expected rejection to be logged, got %v", logger.lines)
	}
	if len(journal.errors) != 1 || len(journal.infos) != 1 {
		t.Fatalf("journal infos=%v errors=%v", journal.infos, journal.errors)
	}
}

func TestSnapshotStateIsIsolated(t *testing.T) {
	s := New()
	if err := s.Dispatch(add("SKU0001", 10)); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	snap := s.Snapshot()
	snap.State.Items[0].Qty = 99
	if got := s.Snapshot().State.Items[0].Qty; got != 1 {
		t.Fatalf("store state leaked through snapshot, qty = %d", got)
	}
}

func TestSnapshotViewCartIsIsolated(t *testing.T) {
	s := New()
	if err := s.Dispatch(add("SKU0001", 10)); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	first := s.Snapshot()
	first.View.Cart[0].Qty = 99
	first.View.Cart[0].Name = "tampered"

	second := s.Snapshot()
	if line := second.View.Cart[0]; line.Qty != 1 || line.Name == "tampered" {
		t.Fatalf("view cart leaked between snapshots: %+v", line)
	}
	if line := second.State.Items[0]; line.Qty != 1 || line.Name == "tampered" {
		t.Fatalf("store state changed through view cart: %+v", line)
	}
}

func TestSubscribersReceiveIndependentCopies(t *testing.T) {
	s := New()
	left := s.Subscribe()
	defer left.Close()
	right := s.Subscribe()
	defer right.Close()
	<-left.Snapshots
	<-right.Snapshots

	if err := s.Dispatch(add("SKU0001", 10)); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	fromLeft := <-left.Snapshots
	fromLeft.View.Cart[0].Qty = 42
	fromLeft.State.Items[0].Qty = 42

	fromRight := <-right.Snapshots
	if fromRight.View.Cart[0].Qty != 1 || fromRight.State.Items[0].Qty != 1 {
		t.Fatalf("subscribers share snapshot slices: %+v", fromRight)
	}
	if got := s.Snapshot().View.Cart[0].Qty; got != 1 {
		t.Fatalf("subscriber edit reached the store, qty = %d", got)
	}
}

func TestSubscribeReceivesCurrentThenUpdates(t *testing.T) {
	s := New()
	sub := s.Subscribe()
	defer sub.Close()

	first := <-sub.Snapshots
	if first.Seq != 0 {
		t.Fatalf("expected current snapshot first, got seq %d", first.Seq)
	}
	if err := s.Dispatch(add("SKU0002", 5)); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	second := <-sub.Snapshots
	if second.Seq != 1 || second.View.TotalPrice != "$5.00" {
		t.Fatalf("unexpected update: %+v", second)
	}
}

func TestSlowSubscriberKeepsNewest(t *testing.T) {
	logger := &recordingLogger{}
	s := New(WithSubscriberCapacity(1), WithLogger(logger))
	sub := s.Subscribe()
	defer sub.Close()

	for i := 0; i < 3; i++ {
		if err := s.Dispatch(add("SKU0001", 1)); err != nil {
			t.Fatalf("dispatch: %v", err)
		}
	}
	got := <-sub.Snapshots
	if got.Seq != 3 {
		t.Fatalf("expected newest snapshot, got seq %d", got.Seq)
	}
	select {
	case extra := <-sub.Snapshots:
		t.Fatalf("unexpected extra snapshot %d", extra.Seq)
	default:
	}
	if !logger.contains("dropped snapshot") {
		t.Fatalf("expected drop to be logged")
	}
}

func TestSubscriptionCloseStopsDelivery(t *testing.T) {
	s := New()
	sub := s.Subscribe()
	<-sub.Snapshots
	sub.Close()
	sub.Close()
	if err := s.Dispatch(add("SKU0001", 1)); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if _, ok := <-sub.Snapshots; ok {
		t.Fatalf("expected closed channel")
	}
	if n := s.subscribers.count(); n != 0 {
		t.Fatalf("subscriber still registered: %d", n)
	}
}

func TestCloseTearsDown(t *testing.T) {
	s := New()
	sub := s.Subscribe()
	<-sub.Snapshots
	s.Close()
	s.Close()

	if _, ok := <-sub.Snapshots; ok {
		t.Fatalf("expected subscription channel to close on teardown")
	}
	if err := s.Dispatch(add("SKU0001", 1)); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	late := s.Subscribe()
	if _, ok := <-late.Snapshots; ok {
		t.Fatalf("subscribing to a closed store should yield a closed channel")
	}
}

func TestConcurrentDispatchIsSerialized(t *testing.T) {
	s := New()
	const workers, perWorker = 8, 25
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if err := s.Dispatch(add("SKU0001", 2)); err != nil {
					t.Errorf("dispatch: %v", err)
				}
			}
		}()
	}
	wg.Wait()
	snap := s.Snapshot()
	if snap.View.TotalItems != workers*perWorker {
		t.Fatalf("total items = %d, want %d", snap.View.TotalItems, workers*perWorker)
	}
	if snap.Seq != workers*perWorker {
		t.Fatalf("seq = %d", snap.Seq)
	}
}

func TestInitialStateOption(t *testing.T) {
	seed := cart.State{Items: []cart.LineItem{{SKU: "SKU0002", Price: decimal.NewFromInt(4), Qty: 3}}}
	s := New(WithInitialState(seed))
	if got := s.Snapshot().View.TotalPrice; got != "$12.00" {
		t.Fatalf("total price = %q", got)
	}
	seed.Items[0].Qty = 100
	if got := s.Snapshot().View.TotalItems; got != 3 {
		t.Fatalf("seed mutation leaked into store: %d", got)
	}
}

func TestSessionIDOption(t *testing.T) {
	s := New(WithSessionID("fixed-session"))
	if s.Session() != "fixed-session" || s.Snapshot().Session != "fixed-session" {
		t.Fatalf("session = %q", s.Session())
	}
	if other := New(); other.Session() == "" || other.Session() == s.Session() {
		t.Fatalf("generated session id = %q", other.Session())
	}
}
