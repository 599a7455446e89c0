package cart

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
)

// sortKeyDigits is how many trailing SKU characters form the display key.
const sortKeyDigits = 4

// ErrMalformedSKU marks a SKU whose trailing characters are not a number.
var ErrMalformedSKU = errors.New("sku has no numeric display suffix")

// PriceFormatter renders a money amount for display.
type PriceFormatter interface {
	Format(amount decimal.Decimal) string
}

// View is the read side of the cart, recomputed after every transition.
type View struct {
	TotalItems int
	Total      decimal.Decimal
	TotalPrice string
	// Cart is display-ordered; see Ordered.
	Cart []LineItem
}

// Derive computes the totals and the display-ordered cart for state.
func Derive(state State, formatter PriceFormatter) View {
	total := decimal.Zero
	count := 0
	for _, item := range state.Items {
		count += item.Qty
		total = total.Add(item.Subtotal())
	}
	view := View{
		TotalItems: count,
		Total:      total,
		Cart:       Ordered(state.Items),
	}
	if formatter != nil {
		view.TotalPrice = formatter.Format(total)
	} else {
		view.TotalPrice = total.StringFixed(2)
	}
	return view
}

// SortKey parses the trailing four characters of sku as an integer. SKUs
// are expected to end in a numeric suffix such as "SKU0042".
func SortKey(sku string) (int, error) {
	if len(sku) < sortKeyDigits {
		return 0, fmt.Errorf("%w: %q", ErrMalformedSKU, sku)
	}
	key, err := strconv.Atoi(sku[len(sku)-sortKeyDigits:])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedSKU, sku)
	}
	return key, nil
}

// Ordered returns a copy of items sorted by SortKey ascending. Items whose
// SKU breaks the suffix precondition follow the well-formed ones in their
// original order. The input slice is left untouched.
func Ordered(items []LineItem) []LineItem {
	if len(items) == 0 {
		return nil
	}
	type keyed struct {
		item  LineItem
		key   int
		valid bool
	}
	rows := make([]keyed, len(items))
	for idx, item := range items {
		key, err := SortKey(item.SKU)
		rows[idx] = keyed{item: item, key: key, valid: err == nil}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].valid != rows[j].valid {
			return rows[i].valid
		}
		if !rows[i].valid {
			return false
		}
		return rows[i].key < rows[j].key
	})
	out := make([]LineItem, len(rows))
	for idx, row := range rows {
		out[idx] = row.item
	}
	return out
}
