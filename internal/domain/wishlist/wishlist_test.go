package wishlist

import (
	"context"
	"fmt"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	ids     []string
	saveErr error
	saves   int
}

func (m *memStore) LoadWishlist(context.Context) ([]string, bool) {
	return m.ids, m.ids != nil
}

func (m *memStore) SaveWishlist(_ context.Context, ids []string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.ids = ids
	return nil
}

type mockRemote struct {
	ids     []string
	added   []string
	removed []string
	err     error
}

func (m *mockRemote) List(context.Context) ([]string, error) { return m.ids, m.err }

func (m *mockRemote) Add(_ context.Context, id string) error {
	m.added = append(m.added, id)
	return m.err
}

func (m *mockRemote) Remove(_ context.Context, id string) error {
	m.removed = append(m.removed, id)
	return m.err
}

func TestSet(t *testing.T) {
	s := NewSet(2)

	added, err := s.Add("a")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = s.Add("a")
	require.NoError(t, err)
	assert.False(t, added)

	_, err = s.Add("b")
	require.NoError(t, err)
	_, err = s.Add("c")
	require.ErrorIs(t, err, ErrFull)

	assert.Equal(t, []string{"a", "b"}, s.IDs())
	assert.True(t, s.Remove("a"))
	assert.False(t, s.Remove("a"))
	assert.Equal(t, 1, s.Len())
}

func TestSet_Replace(t *testing.T) {
	s := NewSet(3)
	s.Replace([]string{"a", "b", "a", "", "c", "d"})
	assert.Equal(t, []string{"a", "b", "c"}, s.IDs())
}

func TestSet_DefaultMax(t *testing.T) {
	s := NewSet(0)
	for i := range DefaultMax {
		_, err := s.Add(fmt.Sprint(i))
		require.NoError(t, err)
	}
	_, err := s.Add("overflow")
	require.ErrorIs(t, err, ErrFull)
}

func TestService_Toggle(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	remote := &mockRemote{}
	svc := NewService(NewSet(0), store, remote)

	saved, err := svc.Toggle(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, saved)
	assert.Equal(t, []string{"p1"}, store.ids)
	assert.Equal(t, []string{"p1"}, remote.added)

	saved, err = svc.Toggle(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, saved)
	assert.Empty(t, store.ids)
	assert.Equal(t, []string{"p1"}, remote.removed)
}

func TestService_RemoteFailureIsBestEffort(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	svc := NewService(NewSet(0), store, &mockRemote{err: errors.New("offline")})

	require.NoError(t, svc.Add(ctx, "p1"))
	assert.True(t, svc.Contains("p1"))
	assert.Equal(t, 1, store.saves)
}

func TestService_SaveFailureReturned(t *testing.T) {
	errDisk := errors.New("disk full")
	svc := NewService(NewSet(0), &memStore{saveErr: errDisk}, nil)
	require.ErrorIs(t, svc.Add(context.Background(), "p1"), errDisk)
}

func TestService_LoadAndSync(t *testing.T) {
	ctx := context.Background()
	store := &memStore{ids: []string{"a", "b"}}
	remote := &mockRemote{ids: []string{"c"}}
	svc := NewService(NewSet(0), store, remote)

	svc.Load(ctx)
	assert.Equal(t, []string{"a", "b"}, svc.IDs())

	require.NoError(t, svc.Sync(ctx))
	assert.Equal(t, []string{"c"}, svc.IDs())
	assert.Equal(t, []string{"c"}, store.ids)
}
