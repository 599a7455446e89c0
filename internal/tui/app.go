// internal/tui/app.go
//
// This is the terminal front end for the cart. It uses bubbletea, which
// follows The Elm Architecture:
//
// 1. Model: the App below, holding only UI state
// 2. Update: turns key presses into cart actions
// 3. View: renders the catalog, the cart and its totals
//
// The cart itself never lives here. The App reads it from the provider
// carried on its context.Context and re-renders whenever the store publishes
// a new snapshot.

package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/cartstate/internal/cart"
	"github.com/kingrea/cartstate/internal/cartctx"
	"github.com/kingrea/cartstate/internal/config"
	"github.com/kingrea/cartstate/internal/logbook"
	"github.com/kingrea/cartstate/internal/money"
	"github.com/kingrea/cartstate/internal/store"
)

// panelFocus tracks which panel receives navigation keys
type panelFocus int

const (
	focusCatalog panelFocus = iota
	focusCart
)

const journalLines = 6

// snapshotMsg carries a store snapshot into Update. closed is set once the
// subscription ends because the provider unmounted.
type snapshotMsg struct {
	snapshot store.Snapshot
	closed   bool
}

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithJournal attaches the journal shown in the log panel.
func WithJournal(lb *logbook.Logbook) AppOption {
	return func(a *App) {
		a.journal = lb
	}
}

// WithFallback overrides the value used when no provider is mounted.
func WithFallback(value cartctx.Value) AppOption {
	return func(a *App) {
		a.fallback = value
	}
}

// WithFormatter sets the formatter used for catalog prices.
func WithFormatter(formatter *money.Formatter) AppOption {
	return func(a *App) {
		if formatter != nil {
			a.formatter = formatter
		}
	}
}

// productItem implements list.Item for one catalog product
type productItem struct {
	product config.Product
	price   string
	inCart  int
}

func (i productItem) Title() string { return i.product.Name }
func (i productItem) Description() string {
	if i.inCart > 0 {
		return fmt.Sprintf("%s · %s · in cart: %d", i.product.SKU, i.price, i.inCart)
	}
	return fmt.Sprintf("%s · %s", i.product.SKU, i.price)
}
func (i productItem) FilterValue() string { return i.product.Name }

// App is the main application model.
type App struct {
	ctx       context.Context
	fallback  cartctx.Value
	formatter *money.Formatter
	journal   *logbook.Logbook

	products []config.Product
	catalog  list.Model
	keys     keyMap
	help     help.Model

	// value is the last cart value published to this subtree
	value         cartctx.Value
	sub           store.Subscription
	subscribed    bool
	focus         panelFocus
	cartSelection int

	statusMsg string
	err       error

	width  int
	height int
}

// NewApp creates the App. ctx should carry a mounted cartctx.Provider; without
// one the App renders the fallback value and its actions do nothing.
func NewApp(ctx context.Context, products []config.Product, opts ...AppOption) *App {
	if ctx == nil {
		ctx = context.Background()
	}
	app := &App{
		ctx:       ctx,
		formatter: money.Default(),
		products:  products,
		keys:      defaultKeyMap(),
		help:      help.New(),
		focus:     focusCatalog,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	if app.fallback.Dispatch == nil {
		app.fallback = cartctx.Fallback(app.formatter)
	}

	catalog := list.New(nil, list.NewDefaultDelegate(), 40, 16)
	catalog.Title = "Catalog"
	catalog.SetShowStatusBar(false)
	catalog.SetFilteringEnabled(false)
	catalog.SetShowHelp(false)
	app.catalog = catalog

	app.refresh()
	return app
}

// Init subscribes to the provider's snapshots, if one is mounted.
func (a *App) Init() tea.Cmd {
	provider, ok := cartctx.ProviderFrom(a.ctx)
	if !ok {
		return nil
	}
	a.sub = provider.Subscribe()
	a.subscribed = true
	return waitForSnapshot(a.sub)
}

func waitForSnapshot(sub store.Subscription) tea.Cmd {
	return func() tea.Msg {
		snapshot, ok := <-sub.Snapshots
		if !ok {
			return snapshotMsg{closed: true}
		}
		return snapshotMsg{snapshot: snapshot}
	}
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.catalog.SetSize(max(20, msg.Width/2-4), max(6, msg.Height-14))
		a.help.Width = msg.Width
		return a, nil

	case snapshotMsg:
		if msg.closed {
			a.subscribed = false
			a.value = a.fallback
			a.statusMsg = "Cart session closed"
			a.syncCatalog()
			return a, nil
		}
		a.refresh()
		return a, waitForSnapshot(a.sub)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, a.keys.Quit):
			a.unsubscribe()
			return a, tea.Quit
		case key.Matches(msg, a.keys.Focus):
			a.toggleFocus()
			return a, nil
		case key.Matches(msg, a.keys.Add):
			a.addSelected()
			return a, nil
		case key.Matches(msg, a.keys.Remove):
			a.removeSelected()
			return a, nil
		case key.Matches(msg, a.keys.Increase):
			a.adjustSelected(1)
			return a, nil
		case key.Matches(msg, a.keys.Decrease):
			a.adjustSelected(-1)
			return a, nil
		case key.Matches(msg, a.keys.Submit):
			a.submit()
			return a, nil
		}
		if a.focus == focusCart {
			switch {
			case key.Matches(msg, a.keys.Up):
				if a.cartSelection > 0 {
					a.cartSelection--
				}
				return a, nil
			case key.Matches(msg, a.keys.Down):
				if a.cartSelection < len(a.value.Cart)-1 {
					a.cartSelection++
				}
				return a, nil
			}
			return a, nil
		}
	}

	var cmd tea.Cmd
	a.catalog, cmd = a.catalog.Update(msg)
	return a, cmd
}

// View renders the current state to a string.
func (a *App) View() string {
	return a.renderBoard()
}

func (a *App) toggleFocus() {
	if a.focus == focusCatalog && len(a.value.Cart) > 0 {
		a.focus = focusCart
		return
	}
	a.focus = focusCatalog
}

// selectedSKU is the catalog selection or the highlighted cart line,
// depending on focus.
func (a *App) selectedSKU() (string, bool) {
	if a.focus == focusCart {
		if a.cartSelection >= 0 && a.cartSelection < len(a.value.Cart) {
			return a.value.Cart[a.cartSelection].SKU, true
		}
		return "", false
	}
	if item, ok := a.catalog.SelectedItem().(productItem); ok {
		return item.product.SKU, true
	}
	return "", false
}

func (a *App) addSelected() {
	if a.focus != focusCatalog {
		return
	}
	item, ok := a.catalog.SelectedItem().(productItem)
	if !ok {
		return
	}
	a.apply(fmt.Sprintf("Added %s", item.product.Name), a.value.AddItem(item.product.LineItem()))
}

func (a *App) removeSelected() {
	sku, ok := a.selectedSKU()
	if !ok {
		return
	}
	a.apply(fmt.Sprintf("Removed %s", sku), a.value.RemoveItem(sku))
}

// adjustSelected changes the quantity by delta through a QUANTITY action. The
// store accepts any quantity, so the UI keeps it positive and turns a drop
// below one into a removal. A product not yet in the cart is added on + and
// left alone on -.
func (a *App) adjustSelected(delta int) {
	sku, ok := a.selectedSKU()
	if !ok {
		return
	}
	line, found := a.value.Find(sku)
	if !found {
		if delta > 0 {
			a.addSelected()
			return
		}
		a.err = nil
		a.statusMsg = fmt.Sprintf("%s is not in the cart", sku)
		return
	}
	current := line.Qty
	next := current + delta
	if next < 1 {
		a.apply(fmt.Sprintf("Removed %s", sku), a.value.RemoveItem(sku))
		return
	}
	a.apply(fmt.Sprintf("%s quantity %d", sku, next), a.value.UpdateQty(sku, next))
}

func (a *App) submit() {
	if len(a.value.Cart) == 0 {
		a.statusMsg = "Cart is empty"
		return
	}
	summary := fmt.Sprintf("Submitted %d items for %s", a.value.TotalItems, a.value.TotalPrice)
	a.apply(summary, a.value.SubmitCart())
}

// apply records the outcome of a dispatch. Errors are contract violations
// surfaced to the user; the cart itself is left untouched by the store.
func (a *App) apply(success string, err error) {
	if err != nil {
		a.err = err
		a.statusMsg = err.Error()
	} else {
		a.err = nil
		a.statusMsg = success
	}
	a.refresh()
}

// refresh re-reads the cart from the context and syncs derived UI state.
func (a *App) refresh() {
	a.value = cartctx.From(a.ctx, a.fallback)
	if a.cartSelection >= len(a.value.Cart) {
		a.cartSelection = max(0, len(a.value.Cart)-1)
	}
	if len(a.value.Cart) == 0 && a.focus == focusCart {
		a.focus = focusCatalog
	}
	a.syncCatalog()
}

func (a *App) syncCatalog() {
	items := make([]list.Item, len(a.products))
	for idx, product := range a.products {
		qty := 0
		if line, ok := a.value.Find(product.SKU); ok {
			qty = line.Qty
		}
		items[idx] = productItem{
			product: product,
			price:   a.formatter.Format(product.Price),
			inCart:  qty,
		}
	}
	selected := a.catalog.Index()
	a.catalog.SetItems(items)
	if selected >= 0 && selected < len(items) {
		a.catalog.Select(selected)
	}
}

func (a *App) unsubscribe() {
	if !a.subscribed {
		return
	}
	a.subscribed = false
	a.sub.Close()
}

// Actions exposes the action vocabulary the App dispatches with.
func (a *App) Actions() cart.ActionTypeSet {
	return a.value.Actions
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
