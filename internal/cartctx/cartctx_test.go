package cartctx

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/kingrea/cartstate/internal/cart"
	"github.com/kingrea/cartstate/internal/money"
	"github.com/kingrea/cartstate/internal/store"
)

func widget(sku string, price int64) cart.LineItem {
	return cart.LineItem{SKU: sku, Name: "Widget " + sku, Price: decimal.NewFromInt(price), Qty: 1}
}

func TestFromWithoutProviderReturnsFallback(t *testing.T) {
	fallback := Fallback(money.Default())
	value := From(context.Background(), fallback)

	if value.TotalItems != 0 || value.TotalPrice != "$0.00" || len(value.Cart) != 0 {
		t.Fatalf("unexpected fallback value: %+v", value)
	}
	if value.Actions != cart.ActionTypes() {
		t.Fatalf("fallback must still expose the action vocabulary")
	}
	if err := value.AddItem(widget("SKU0001", 10)); err != nil {
		t.Fatalf("fallback dispatch should be a no-op, got %v", err)
	}
	if err := value.SubmitCart(); err != nil {
		t.Fatalf("fallback submit: %v", err)
	}
}

func TestFallbackWithNilFormatter(t *testing.T) {
	if got := Fallback(nil).TotalPrice; got != "$0.00" {
		t.Fatalf("TotalPrice = %q", got)
	}
}

func TestProviderPropagatesThroughContext(t *testing.T) {
	p := Mount()
	defer p.Unmount()
	root := With(context.Background(), p)
	child, cancel := context.WithCancel(root)
	defer cancel()

	value := From(child, Fallback(nil))
	if value.Session != p.Store().Session() {
		t.Fatalf("expected provider session, got %q", value.Session)
	}
	if err := value.AddItem(widget("SKU0002", 5)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := value.AddItem(widget("SKU0001", 10)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := value.UpdateQty("SKU0001", 2); err != nil {
		t.Fatalf("qty: %v", err)
	}

	refreshed := From(child, Fallback(nil))
	if refreshed.TotalItems != 3 || refreshed.TotalPrice != "$25.00" {
		t.Fatalf("unexpected totals: %d %s", refreshed.TotalItems, refreshed.TotalPrice)
	}
	if len(refreshed.Cart) != 2 || refreshed.Cart[0].SKU != "SKU0001" {
		t.Fatalf("expected display-ordered cart, got %+v", refreshed.Cart)
	}
	if line, ok := refreshed.Find("SKU0001"); !ok || line.Qty != 2 {
		t.Fatalf("find SKU0001 = %+v, %v", line, ok)
	}
}

func TestConsumersCannotEditEachOthersCart(t *testing.T) {
	p := Mount()
	defer p.Unmount()
	if err := p.Value().AddItem(widget("SKU0001", 10)); err != nil {
		t.Fatalf("add: %v", err)
	}

	first := p.Value()
	first.Cart[0].Qty = 99
	first.Cart[0].Name = "tampered"

	second := p.Value()
	if line := second.Cart[0]; line.Qty != 1 || line.Name != "Widget SKU0001" {
		t.Fatalf("second consumer saw another's edit: %+v", line)
	}
	if got := p.Store().Snapshot().View.Cart[0].Qty; got != 1 {
		t.Fatalf("consumer edit reached the store, qty = %d", got)
	}
	if second.TotalItems != 1 || second.TotalPrice != "$10.00" {
		t.Fatalf("totals = %d %s", second.TotalItems, second.TotalPrice)
	}
}

func TestValueSurfacesDispatchErrors(t *testing.T) {
	p := Mount()
	defer p.Unmount()
	value := p.Value()

	if err := value.UpdateQty("SKU0404", 1); !errors.Is(err, cart.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
	if err := value.RemoveItem(""); !errors.Is(err, cart.ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}
}

func TestUnmountDropsStateAndFallsBack(t *testing.T) {
	p := Mount()
	ctx := With(context.Background(), p)
	if err := p.Value().AddItem(widget("SKU0001", 10)); err != nil {
		t.Fatalf("add: %v", err)
	}
	sub := p.Subscribe()

	p.Unmount()
	p.Unmount()

	if p.Mounted() {
		t.Fatalf("provider still mounted")
	}
	if _, ok := ProviderFrom(ctx); ok {
		t.Fatalf("unmounted provider must not be visible")
	}
	if got := From(ctx, Fallback(nil)); got.TotalItems != 0 {
		t.Fatalf("expected fallback after unmount, got %+v", got)
	}
	for range sub.Snapshots {
	}
	if err := p.Store().Dispatch(cart.Submit{}); !errors.Is(err, store.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}

	remounted := Mount()
	defer remounted.Unmount()
	if got := remounted.Value().TotalItems; got != 0 {
		t.Fatalf("state must not survive a remount, got %d items", got)
	}
}

func TestProviderFromNilContext(t *testing.T) {
	if _, ok := ProviderFrom(nil); ok {
		t.Fatalf("nil context should carry no provider")
	}
}

func TestMountAcceptsStoreOptions(t *testing.T) {
	p := Mount(store.WithFormatter(money.New("de-DE", "€")))
	defer p.Unmount()
	if err := p.Value().AddItem(widget("SKU0001", 1500)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := p.Value().TotalPrice; got != "€1.500,00" {
		t.Fatalf("TotalPrice = %q", got)
	}
}
