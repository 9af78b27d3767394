package transport

import (
	"net/http"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// LogRequests returns a middleware that logs one line per request with the
// logger from the request context.
func LogRequests() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(req)

			lg := zctx.From(req.Context()).With(
				zap.String("http.method", req.Method),
				zap.String("http.path", req.URL.Path),
				zap.String("request_id", req.Header.Get(HeaderRequestID)),
				zap.Duration("duration", time.Since(start)),
			)
			switch {
			case err != nil:
				lg.Warn("Request failed", zap.Error(err))
			case resp.StatusCode >= http.StatusInternalServerError:
				lg.Warn("Request done", zap.Int("http.status", resp.StatusCode))
			default:
				lg.Debug("Request done", zap.Int("http.status", resp.StatusCode))
			}
			return resp, err
		})
	}
}
