package auth

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// State is the authentication bootstrap state.
type State int

const (
	// Checking is the initial state while stored credentials are read.
	Checking State = iota
	// Authenticated means a token and user record were found.
	Authenticated
	// Unauthenticated means no usable session was found.
	Unauthenticated
)

func (s State) String() string {
	switch s {
	case Checking:
		return "checking"
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// DefaultMinDuration is the default floor for the Checking state.
const DefaultMinDuration = time.Second

// Bootstrap decides, once per process, whether a stored session exists.
// The terminal transition is delayed until at least minDuration has passed
// since Run started; fast storage reads never shorten it.
type Bootstrap struct {
	reader      SessionReader
	minDuration time.Duration
	now         func() time.Time
	after       func(time.Duration) <-chan time.Time

	mu      sync.Mutex
	state   State
	session Session
	done    chan struct{}
}

// NewBootstrap creates a Bootstrap in the Checking state.
func NewBootstrap(reader SessionReader, minDuration time.Duration) *Bootstrap {
	if minDuration < 0 {
		minDuration = 0
	}
	return &Bootstrap{
		reader:      reader,
		minDuration: minDuration,
		now:         time.Now,
		after:       time.After,
		done:        make(chan struct{}),
	}
}

// State returns the current state.
func (b *Bootstrap) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Session returns the session found by Run. It is the zero value unless the
// state is Authenticated.
func (b *Bootstrap) Session() Session {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.session
}

// Done is closed once a terminal state has been reached.
func (b *Bootstrap) Done() <-chan struct{} {
	return b.done
}

// Run reads the stored token and user record and transitions to
// Authenticated or Unauthenticated. No network request is made. Calling Run
// after a terminal state was reached returns that state immediately.
//
// If ctx is cancelled before the floor elapses, Run returns ctx.Err() and the
// state stays Checking.
func (b *Bootstrap) Run(ctx context.Context) (State, error) {
	if st := b.State(); st != Checking {
		return st, nil
	}

	start := b.now()

	var sess Session
	token, hasToken := b.reader.LoadToken(ctx)
	user, hasUser := b.reader.LoadUser(ctx)
	if hasToken && hasUser {
		sess = Session{Token: token, User: user}
	}

	next := Unauthenticated
	if sess.Valid() {
		next = Authenticated
	}

	if remaining := b.minDuration - b.now().Sub(start); remaining > 0 {
		select {
		case <-ctx.Done():
			return Checking, ctx.Err()
		case <-b.after(remaining):
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != Checking {
		// Lost a race with a concurrent Run.
		return b.state, nil
	}
	b.state = next
	if next == Authenticated {
		b.session = sess
	}
	close(b.done)

	zctx.From(ctx).Debug("Bootstrap finished",
		zap.Stringer("state", next),
		zap.Duration("elapsed", b.now().Sub(start)),
	)
	return next, nil
}
