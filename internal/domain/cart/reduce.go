package cart

import (
	"github.com/xenking/kart-storefront/internal/domain/product"
)

// Action is a cart mutation understood by Reduce.
type Action interface {
	isAction()
}

// AddItem adds one unit of Product, appending a new line when absent.
// Stock is not consulted.
type AddItem struct {
	Product product.Product
}

// RemoveItem deletes the line for ProductID. Absent IDs are a no-op.
type RemoveItem struct {
	ProductID string
}

// UpdateQuantity sets the quantity for ProductID. A quantity <= 0 removes the
// line; an absent ID is a no-op.
type UpdateQuantity struct {
	ProductID string
	Quantity  int
}

// Clear empties the cart.
type Clear struct{}

// ReplaceAll swaps in a whole line-item sequence, as when restoring a
// persisted snapshot or reconciling with the server cart. Items are taken as
// given and not deduplicated.
type ReplaceAll struct {
	Items []LineItem
}

func (AddItem) isAction()        {}
func (RemoveItem) isAction()     {}
func (UpdateQuantity) isAction() {}
func (Clear) isAction()          {}
func (ReplaceAll) isAction()     {}

// Reduce applies action to s and returns the resulting state. The input state
// is never modified. The second result reports whether the action changed the
// cart; no-op actions return s unchanged (same Version).
func Reduce(s State, action Action) (State, bool) {
	var items []LineItem

	switch a := action.(type) {
	case AddItem:
		items = cloneItems(s.Items)
		if i := s.Find(a.Product.ID); i >= 0 {
			items[i].Quantity++
		} else {
			items = append(items, LineItem{Product: a.Product, Quantity: 1})
		}

	case RemoveItem:
		i := s.Find(a.ProductID)
		if i < 0 {
			return s, false
		}
		items = removeAt(s.Items, i)

	case UpdateQuantity:
		i := s.Find(a.ProductID)
		if i < 0 {
			return s, false
		}
		if a.Quantity <= 0 {
			items = removeAt(s.Items, i)
			break
		}
		if s.Items[i].Quantity == a.Quantity {
			return s, false
		}
		items = cloneItems(s.Items)
		items[i].Quantity = a.Quantity

	case Clear:
		if s.IsEmpty() {
			return s, false
		}
		items = nil

	case ReplaceAll:
		items = cloneItems(a.Items)

	default:
		return s, false
	}

	return State{
		Items:   items,
		Total:   CalculateTotal(items),
		Version: s.Version + 1,
	}, true
}

func cloneItems(items []LineItem) []LineItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]LineItem, len(items), len(items)+1)
	copy(out, items)
	return out
}

func removeAt(items []LineItem, i int) []LineItem {
	if len(items) == 1 {
		return nil
	}
	out := make([]LineItem, 0, len(items)-1)
	out = append(out, items[:i]...)
	return append(out, items[i+1:]...)
}
