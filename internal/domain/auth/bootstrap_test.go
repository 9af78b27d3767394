package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	token string
	user  User
}

func (r fakeReader) LoadToken(context.Context) (string, bool) {
	return r.token, r.token != ""
}

func (r fakeReader) LoadUser(context.Context) (User, bool) {
	return r.user, !r.user.IsZero()
}

type fakeClock struct {
	now     time.Time
	fire    chan time.Time
	waitFor chan time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{
		now:     time.Unix(1_700_000_000, 0),
		fire:    make(chan time.Time),
		waitFor: make(chan time.Duration, 1),
	}
}

func (c *fakeClock) install(b *Bootstrap) {
	b.now = func() time.Time { return c.now }
	b.after = func(d time.Duration) <-chan time.Time {
		c.waitFor <- d
		return c.fire
	}
}

func TestBootstrap_Authenticated(t *testing.T) {
	ctx := context.Background()
	b := NewBootstrap(fakeReader{token: "tok", user: User{ID: "u1", Email: "a@b.c"}}, 0)

	st, err := b.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, Authenticated, st)
	assert.Equal(t, "tok", b.Session().Token)
	assert.Equal(t, "u1", b.Session().User.ID)

	select {
	case <-b.Done():
	default:
		t.Fatal("done channel not closed")
	}
}

func TestBootstrap_Unauthenticated(t *testing.T) {
	for _, tc := range []struct {
		name   string
		reader fakeReader
	}{
		{name: "Nothing stored", reader: fakeReader{}},
		{name: "Token without user", reader: fakeReader{token: "tok"}},
		{name: "User without token", reader: fakeReader{user: User{ID: "u1"}}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			b := NewBootstrap(tc.reader, 0)
			st, err := b.Run(context.Background())
			require.NoError(t, err)
			assert.Equal(t, Unauthenticated, st)
			assert.Equal(t, Session{}, b.Session())
		})
	}
}

func TestBootstrap_MinimumDuration(t *testing.T) {
	clock := newFakeClock()
	b := NewBootstrap(fakeReader{}, time.Second)
	clock.install(b)

	result := make(chan State, 1)
	go func() {
		st, _ := b.Run(context.Background())
		result <- st
	}()

	// Storage answered instantly; the full floor is still awaited.
	assert.Equal(t, time.Second, <-clock.waitFor)
	assert.Equal(t, Checking, b.State())

	clock.now = clock.now.Add(time.Second)
	clock.fire <- clock.now

	assert.Equal(t, Unauthenticated, <-result)
	assert.Equal(t, Unauthenticated, b.State())
}

func TestBootstrap_CancelledStaysChecking(t *testing.T) {
	clock := newFakeClock()
	b := NewBootstrap(fakeReader{token: "tok", user: User{ID: "u1"}}, time.Second)
	clock.install(b)

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() {
		_, err := b.Run(ctx)
		errs <- err
	}()

	<-clock.waitFor
	cancel()

	require.ErrorIs(t, <-errs, context.Canceled)
	assert.Equal(t, Checking, b.State())
}

func TestBootstrap_TerminalIsSticky(t *testing.T) {
	r := &switchingReader{fakeReader: fakeReader{token: "tok", user: User{ID: "u1"}}}
	b := NewBootstrap(r, 0)

	st, err := b.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, Authenticated, st)

	r.fakeReader = fakeReader{}
	st, err = b.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Authenticated, st)
}

type switchingReader struct {
	fakeReader
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "checking", Checking.String())
	assert.Equal(t, "authenticated", Authenticated.String())
	assert.Equal(t, "unauthenticated", Unauthenticated.String())
	assert.Equal(t, "unknown", State(42).String())
}
