// Package wishlist keeps the set of saved product ids.
package wishlist

import (
	"context"
	"slices"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// DefaultMax is the default wishlist capacity.
const DefaultMax = 100

// ErrFull is returned when adding to a wishlist at capacity.
var ErrFull = errors.New("wishlist is full")

// Set is an insertion-ordered set of product ids with a capacity.
type Set struct {
	mu  sync.RWMutex
	ids []string
	max int
}

// NewSet creates an empty Set. A non-positive capacity means DefaultMax.
func NewSet(capacity int) *Set {
	if capacity <= 0 {
		capacity = DefaultMax
	}
	return &Set{max: capacity}
}

// Contains reports whether id is saved.
func (s *Set) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Contains(s.ids, id)
}

// Add saves id. Adding a saved id is a no-op.
func (s *Set) Add(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.ids, id) {
		return false, nil
	}
	if len(s.ids) >= s.max {
		return false, ErrFull
	}
	s.ids = append(s.ids, id)
	return true, nil
}

// Remove deletes id and reports whether it was present.
func (s *Set) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.Index(s.ids, id)
	if i < 0 {
		return false
	}
	s.ids = slices.Delete(s.ids, i, i+1)
	return true
}

// IDs returns a copy of the saved ids in insertion order.
func (s *Set) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.ids)
}

// Len returns the number of saved ids.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// Replace swaps the contents, dropping duplicates and anything past capacity.
func (s *Set) Replace(ids []string) {
	out := make([]string, 0, min(len(ids), s.max))
	for _, id := range ids {
		if id == "" || slices.Contains(out, id) {
			continue
		}
		if len(out) == s.max {
			break
		}
		out = append(out, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = out
}

// Store persists the wishlist locally.
type Store interface {
	LoadWishlist(ctx context.Context) ([]string, bool)
	SaveWishlist(ctx context.Context, ids []string) error
}

// Remote is the server-side wishlist.
type Remote interface {
	List(ctx context.Context) ([]string, error)
	Add(ctx context.Context, productID string) error
	Remove(ctx context.Context, productID string) error
}

// Service keeps a Set in sync with local storage and, best effort, with the
// server.
type Service struct {
	set    *Set
	store  Store
	remote Remote
}

// NewService creates a Service. remote may be nil for offline use.
func NewService(set *Set, store Store, remote Remote) *Service {
	return &Service{set: set, store: store, remote: remote}
}

// Load restores the persisted wishlist.
func (s *Service) Load(ctx context.Context) {
	if ids, ok := s.store.LoadWishlist(ctx); ok {
		s.set.Replace(ids)
	}
}

// Sync replaces the local wishlist with the server's copy.
func (s *Service) Sync(ctx context.Context) error {
	if s.remote == nil {
		return nil
	}
	ids, err := s.remote.List(ctx)
	if err != nil {
		return errors.Wrap(err, "fetch wishlist")
	}
	s.set.Replace(ids)
	return s.persist(ctx)
}

// Toggle adds id if absent or removes it if present and returns whether it is
// saved afterwards.
func (s *Service) Toggle(ctx context.Context, id string) (bool, error) {
	if s.set.Contains(id) {
		return false, s.Remove(ctx, id)
	}
	if err := s.Add(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}

// Add saves id locally and on the server.
func (s *Service) Add(ctx context.Context, id string) error {
	added, err := s.set.Add(id)
	if err != nil || !added {
		return err
	}
	if err := s.persist(ctx); err != nil {
		return err
	}
	if s.remote != nil {
		if err := s.remote.Add(ctx, id); err != nil {
			zctx.From(ctx).Warn("Wishlist add not synced", zap.String("product_id", id), zap.Error(err))
		}
	}
	return nil
}

// Remove deletes id locally and on the server.
func (s *Service) Remove(ctx context.Context, id string) error {
	if !s.set.Remove(id) {
		return nil
	}
	if err := s.persist(ctx); err != nil {
		return err
	}
	if s.remote != nil {
		if err := s.remote.Remove(ctx, id); err != nil {
			zctx.From(ctx).Warn("Wishlist remove not synced", zap.String("product_id", id), zap.Error(err))
		}
	}
	return nil
}

// Contains reports whether id is saved.
func (s *Service) Contains(id string) bool {
	return s.set.Contains(id)
}

// IDs returns the saved ids.
func (s *Service) IDs() []string {
	return s.set.IDs()
}

func (s *Service) persist(ctx context.Context) error {
	if err := s.store.SaveWishlist(ctx, s.set.IDs()); err != nil {
		return errors.Wrap(err, "save wishlist")
	}
	return nil
}
