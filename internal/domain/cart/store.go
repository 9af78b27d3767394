package cart

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/xenking/kart-storefront/internal/domain/product"
)

// Listener is notified after every mutation that changed the cart. It
// receives a private copy of the new state.
type Listener func(State)

// Store is the single owner of the current cart State. All mutations go
// through Dispatch; dispatches are serialized, so concurrent callers are
// applied one after another and listeners observe states in version order.
type Store struct {
	dispatchMu sync.Mutex

	mu    sync.RWMutex
	state State

	lmu       sync.RWMutex
	listeners []subscription
	nextID    int
}

type subscription struct {
	id int
	fn Listener
}

// NewStore returns a Store holding an empty cart.
func NewStore() *Store {
	return &Store{state: Empty()}
}

// Dispatch applies action and returns the resulting state. Listeners run
// synchronously before Dispatch returns, only when the action changed the
// cart. A listener must not call Dispatch.
func (s *Store) Dispatch(action Action) State {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	next, changed := Reduce(s.state, action)
	s.state = next
	s.mu.Unlock()

	if changed {
		s.notify(next)
	}
	return next.Clone()
}

// DispatchChecked runs check against the current state and applies action
// only if check returns nil. Both happen under the dispatch lock, so no other
// mutation can slip in between.
func (s *Store) DispatchChecked(action Action, check func(State) error) (State, error) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	// state only changes under dispatchMu, so it can be read here without mu.
	cur := s.state.Clone()
	if err := check(cur); err != nil {
		return cur, err
	}

	s.mu.Lock()
	next, changed := Reduce(s.state, action)
	s.state = next
	s.mu.Unlock()

	if changed {
		s.notify(next)
	}
	return next.Clone(), nil
}

// AddItem adds one unit of p.
func (s *Store) AddItem(p product.Product) State {
	return s.Dispatch(AddItem{Product: p})
}

// RemoveItem removes the line for productID, if any.
func (s *Store) RemoveItem(productID string) State {
	return s.Dispatch(RemoveItem{ProductID: productID})
}

// UpdateQuantity sets the quantity for productID; quantity <= 0 removes it.
func (s *Store) UpdateQuantity(productID string, quantity int) State {
	return s.Dispatch(UpdateQuantity{ProductID: productID, Quantity: quantity})
}

// Clear empties the cart.
func (s *Store) Clear() State {
	return s.Dispatch(Clear{})
}

// ReplaceAll replaces every line item with items.
func (s *Store) ReplaceAll(items []LineItem) State {
	return s.Dispatch(ReplaceAll{Items: items})
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Items returns a copy of the current line items.
func (s *Store) Items() []LineItem {
	return s.Snapshot().Items
}

// Total returns the current derived total.
func (s *Store) Total() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Total
}

// Count returns the number of units in the cart.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Count()
}

// Subscribe registers l and returns a function that removes it. Listeners
// are called in registration order.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.lmu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, subscription{id: id, fn: l})
	s.lmu.Unlock()

	return func() {
		s.lmu.Lock()
		defer s.lmu.Unlock()
		for i, sub := range s.listeners {
			if sub.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) notify(state State) {
	s.lmu.RLock()
	subs := make([]subscription, len(s.listeners))
	copy(subs, s.listeners)
	s.lmu.RUnlock()

	for _, sub := range subs {
		sub.fn(state.Clone())
	}
}
