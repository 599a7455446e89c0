// Package cartctx distributes one cart store to everything below a session
// root. Consumers read the cart through a context.Context instead of having
// the store threaded through every constructor, and anything running outside
// a provider gets an explicit fallback value rather than a nil store.
package cartctx

import (
	"context"
	"sync"

	"github.com/kingrea/cartstate/internal/cart"
	"github.com/kingrea/cartstate/internal/money"
	"github.com/kingrea/cartstate/internal/store"
)

// Value is what a consumer sees: the dispatch function, the action
// vocabulary and the derived read values of the latest snapshot.
type Value struct {
	Dispatch   func(cart.Action) error
	Actions    cart.ActionTypeSet
	TotalItems int
	TotalPrice string
	Cart       []cart.LineItem
	Session    string
}

// AddItem dispatches an ADD for item.
func (v Value) AddItem(item cart.LineItem) error {
	return v.dispatch(cart.AddItem{Item: item})
}

// RemoveItem dispatches a REMOVE for sku.
func (v Value) RemoveItem(sku string) error {
	return v.dispatch(cart.RemoveItem{SKU: sku})
}

// UpdateQty dispatches a QUANTITY change for sku.
func (v Value) UpdateQty(sku string, qty int) error {
	return v.dispatch(cart.SetQuantity{SKU: sku, Qty: qty})
}

// SubmitCart dispatches a SUBMIT.
func (v Value) SubmitCart() error {
	return v.dispatch(cart.Submit{})
}

// Find returns the displayed line for sku.
func (v Value) Find(sku string) (cart.LineItem, bool) {
	for _, line := range v.Cart {
		if line.SKU == sku {
			return line, true
		}
	}
	return cart.LineItem{}, false
}

func (v Value) dispatch(action cart.Action) error {
	if v.Dispatch == nil {
		return nil
	}
	return v.Dispatch(action)
}

// Fallback is the value handed to consumers rendered outside any provider:
// an empty cart whose dispatch silently does nothing.
func Fallback(formatter *money.Formatter) Value {
	return Value{
		Dispatch:   func(cart.Action) error { return nil },
		Actions:    cart.ActionTypes(),
		TotalItems: 0,
		TotalPrice: formatter.Zero(),
	}
}

// Provider owns the store for one session root. It is created on mount and
// discards its state on unmount; nothing survives a remount.
type Provider struct {
	mu      sync.Mutex
	store   *store.Store
	mounted bool
}

// Mount creates the provider and its single store.
func Mount(opts ...store.Option) *Provider {
	return &Provider{
		store:   store.New(opts...),
		mounted: true,
	}
}

// Store exposes the underlying store.
func (p *Provider) Store() *store.Store {
	return p.store
}

// Mounted reports whether Unmount has not yet been called.
func (p *Provider) Mounted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mounted
}

// Value republishes the latest snapshot.
func (p *Provider) Value() Value {
	return ValueOf(p.store.Snapshot(), p.store.Dispatch)
}

// Subscribe forwards to the store's snapshot feed.
func (p *Provider) Subscribe() store.Subscription {
	return p.store.Subscribe()
}

// Unmount tears the store down.
func (p *Provider) Unmount() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.mounted {
		return
	}
	p.mounted = false
	p.store.Close()
}

// ValueOf turns a snapshot into the consumer-facing value. The cart lines are
// copied, so a consumer editing its Value cannot reach anyone else's.
func ValueOf(snapshot store.Snapshot, dispatch func(cart.Action) error) Value {
	return Value{
		Dispatch:   dispatch,
		Actions:    cart.ActionTypes(),
		TotalItems: snapshot.View.TotalItems,
		TotalPrice: snapshot.View.TotalPrice,
		Cart:       cart.CloneLines(snapshot.View.Cart),
		Session:    snapshot.Session,
	}
}

type providerKey struct{}

// With attaches p to ctx so every consumer derived from the returned context
// can reach it.
func With(ctx context.Context, p *Provider) context.Context {
	return context.WithValue(ctx, providerKey{}, p)
}

// ProviderFrom returns the nearest mounted provider on ctx.
func ProviderFrom(ctx context.Context) (*Provider, bool) {
	if ctx == nil {
		return nil, false
	}
	p, ok := ctx.Value(providerKey{}).(*Provider)
	if !ok || p == nil || !p.Mounted() {
		return nil, false
	}
	return p, true
}

// From returns the cart value for ctx, or fallback when ctx carries no
// mounted provider.
func From(ctx context.Context, fallback Value) Value {
	p, ok := ProviderFrom(ctx)
	if !ok {
		return fallback
	}
	return p.Value()
}
