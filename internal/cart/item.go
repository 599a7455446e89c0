// internal/cart/item.go
//
// Line items and the cart state they live in. A State is treated as a value:
// the reducer never edits a slice it was handed, it always builds a new one.

package cart

import (
	"strings"

	"github.com/shopspring/decimal"
)

// LineItem is one distinct product in the cart, keyed by SKU.
type LineItem struct {
	SKU   string          `json:"sku" yaml:"sku"`
	Name  string          `json:"name" yaml:"name"`
	Price decimal.Decimal `json:"price" yaml:"price"`
	Qty   int             `json:"qty" yaml:"qty"`
}

// Subtotal returns price*qty for the line.
func (i LineItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Qty)))
}

// State holds the cart's line items in storage order.
type State struct {
	Items []LineItem
}

// Empty returns the initial cart state.
func Empty() State {
	return State{}
}

// Len reports the number of distinct line items.
func (s State) Len() int {
	return len(s.Items)
}

// Find returns the item stored under sku.
func (s State) Find(sku string) (LineItem, bool) {
	if idx := s.indexOf(sku); idx >= 0 {
		return s.Items[idx], true
	}
	return LineItem{}, false
}

// Clone returns a State that shares no backing array with s.
func (s State) Clone() State {
	return State{Items: CloneLines(s.Items)}
}

// CloneLines copies items into a fresh slice; nil for an empty input.
func CloneLines(items []LineItem) []LineItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}

func (s State) indexOf(sku string) int {
	for idx, item := range s.Items {
		if item.SKU == sku {
			return idx
		}
	}
	return -1
}

func normalizeSKU(sku string) string {
	return strings.TrimSpace(sku)
}
