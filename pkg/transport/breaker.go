package transport

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// ErrCircuitOpen is returned while the breaker rejects requests.
var ErrCircuitOpen = errors.New("circuit open")

// BreakerConfig configures the circuit breaker middleware.
type BreakerConfig struct {
	Name string
	// Failures is the number of consecutive failures that opens the circuit.
	Failures uint32
	// Timeout is how long the circuit stays open before probing.
	Timeout time.Duration
	// HalfOpenRequests is the number of probes allowed while half-open.
	HalfOpenRequests uint32
	// Logger receives state changes. Defaults to zap.NewNop.
	Logger *zap.Logger
}

// serverError marks a 5xx response as a breaker failure while keeping the
// response for the caller.
type serverError struct {
	resp *http.Response
}

func (e *serverError) Error() string {
	return "server error: " + e.resp.Status
}

// Breaker returns a middleware that opens after consecutive transport errors
// or 5xx responses. Client errors (4xx) and context cancellation do not count.
func Breaker(cfg BreakerConfig) Middleware {
	if cfg.Failures == 0 {
		cfg.Failures = 5
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.Failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			cfg.Logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		},
		IsExcluded: func(err error) bool {
			var ee *excludedError
			return errors.As(err, &ee) || errors.Is(err, ErrRateLimited)
		},
	})

	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			resp, err := cb.Execute(func() (*http.Response, error) {
				resp, err := next.RoundTrip(req)
				if err != nil {
					if req.Context().Err() != nil {
						// Caller gave up; not the server's fault.
						return nil, &excludedError{err: err}
					}
					return nil, err
				}
				if resp.StatusCode >= http.StatusInternalServerError {
					return resp, &serverError{resp: resp}
				}
				return resp, nil
			})

			var se *serverError
			var ee *excludedError
			switch {
			case err == nil:
				return resp, nil
			case errors.As(err, &se):
				return se.resp, nil
			case errors.As(err, &ee):
				return nil, ee.err
			case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
				zctx.From(req.Context()).Debug("Request rejected by breaker", zap.String("breaker", cb.Name()))
				return nil, errors.Wrap(ErrCircuitOpen, cb.Name())
			default:
				return nil, err
			}
		})
	}
}

type excludedError struct {
	err error
}

func (e *excludedError) Error() string { return e.err.Error() }
func (e *excludedError) Unwrap() error { return e.err }
