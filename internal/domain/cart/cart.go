// Package cart implements the shopping cart state engine.
//
// State is an immutable value: every mutation is a pure function from a State
// and an Action to a new State (see Reduce). Store owns the single current
// State and serializes dispatches so that mutations never interleave.
//
// The derived total is recomputed from the line items after every mutation,
// never adjusted incrementally.
package cart

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-storefront/internal/domain/product"
)

// LineItem pairs a product with a positive quantity.
type LineItem struct {
	Product  product.Product
	Quantity int
}

// Subtotal returns unit price × quantity for the line.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.Product.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// State is a snapshot of the cart. Items are unique by product ID and Total
// always equals the sum of line subtotals.
type State struct {
	Items   []LineItem
	Total   decimal.Decimal
	Version uint64
}

// Empty returns the initial cart state.
func Empty() State {
	return State{Total: decimal.Zero}
}

// Count returns the number of units in the cart, not the number of lines.
func (s State) Count() int {
	n := 0
	for _, li := range s.Items {
		n += li.Quantity
	}
	return n
}

// Len returns the number of distinct line items.
func (s State) Len() int {
	return len(s.Items)
}

// IsEmpty reports whether the cart has no line items.
func (s State) IsEmpty() bool {
	return len(s.Items) == 0
}

// Find returns the index of the line item for productID, or -1.
func (s State) Find(productID string) int {
	for i := range s.Items {
		if s.Items[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

// Quantity returns the quantity held for productID (0 when absent).
func (s State) Quantity(productID string) int {
	if i := s.Find(productID); i >= 0 {
		return s.Items[i].Quantity
	}
	return 0
}

// Clone returns a deep copy of the state so callers may not alias the
// store's backing slice.
func (s State) Clone() State {
	out := s
	if s.Items != nil {
		out.Items = make([]LineItem, len(s.Items))
		copy(out.Items, s.Items)
	}
	return out
}

// CalculateTotal sums unit price × quantity over items.
func CalculateTotal(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, li := range items {
		total = total.Add(li.Subtotal())
	}
	return total
}
