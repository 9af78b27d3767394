package transport

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-faster/errors"
)

// ErrRateLimited is matched by every *RateLimitError.
var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimitError is returned without sending the request when the local
// budget for its key is exhausted.
type RateLimitError struct {
	Key        string
	Limit      int
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit of %d exceeded for %q, retry after %s", e.Limit, e.Key, e.RetryAfter)
}

// Is makes errors.Is(err, ErrRateLimited) work.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// RateLimitConfig configures the sliding window limiter.
type RateLimitConfig struct {
	// Max is the maximum number of requests allowed per window.
	// Zero or negative disables limiting.
	Max int
	// Window is the duration of each sliding window.
	Window time.Duration
	// KeyFunc extracts the limit key from a request. Defaults to URL host.
	KeyFunc func(*http.Request) string
	// Now defaults to time.Now.
	Now func() time.Time
}

// window tracks request counts across two adjacent fixed windows.
type window struct {
	prevCount float64
	prevStart time.Time
	currCount float64
	currStart time.Time
}

// Limiter is a keyed sliding window counter.
type Limiter struct {
	cfg RateLimitConfig

	mu      sync.Mutex
	windows map[string]*window
}

// NewLimiter creates a Limiter with defaults applied.
func NewLimiter(cfg RateLimitConfig) *Limiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = hostKey
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return &Limiter{
		cfg:     cfg,
		windows: make(map[string]*window),
	}
}

// Allow records a request for key at now. It returns false and the time until
// the current window resets when the budget is exhausted.
func (l *Limiter) Allow(key string, now time.Time) (bool, time.Duration) {
	if l.cfg.Max <= 0 {
		return true, 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok {
		w = &window{currStart: now}
		l.windows[key] = w
	}

	if now.Sub(w.currStart) >= l.cfg.Window {
		w.prevCount, w.prevStart = w.currCount, w.currStart
		w.currCount = 0
		w.currStart = now.Truncate(l.cfg.Window)
		if now.Sub(w.prevStart) >= 2*l.cfg.Window {
			w.prevCount = 0
		}
	}

	// The previous window counts proportionally to its overlap with the
	// sliding window ending at now.
	overlap := 1.0 - now.Sub(w.currStart).Seconds()/l.cfg.Window.Seconds()
	if overlap < 0 {
		overlap = 0
	}
	if w.prevCount*overlap+w.currCount >= float64(l.cfg.Max) {
		return false, max(w.currStart.Add(l.cfg.Window).Sub(now), 0)
	}
	w.currCount++
	return true, 0
}

// Cleanup drops keys whose windows have fully expired.
func (l *Limiter) Cleanup(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, w := range l.windows {
		if now.Sub(w.currStart) >= 2*l.cfg.Window {
			delete(l.windows, key)
		}
	}
}

// StartCleanup runs Cleanup every two windows until ctx is done.
func (l *Limiter) StartCleanup(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(2 * l.cfg.Window)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				l.Cleanup(now)
			}
		}
	}()
}

// RateLimit returns a middleware that rejects requests over the limit with a
// *RateLimitError before they reach the network.
func RateLimit(l *Limiter) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			key := l.cfg.KeyFunc(req)
			if ok, retryAfter := l.Allow(key, l.cfg.Now()); !ok {
				return nil, &RateLimitError{Key: key, Limit: l.cfg.Max, RetryAfter: retryAfter}
			}
			return next.RoundTrip(req)
		})
	}
}

func hostKey(req *http.Request) string {
	return req.URL.Host
}
