// Package client implements the HTTP gateway to the storefront API: bearer
// authorization, a single token refresh on 401, and API error decoding.
package client

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/ogen-go/ogen/validate"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/xenking/kart-storefront/pkg/transport"
)

const (
	// DefaultBaseURL is used when no base URL is configured.
	DefaultBaseURL = "http://localhost:3000/api"
	// DefaultTimeout bounds every request attempt.
	DefaultTimeout = 30 * time.Second

	maxResponseBody = 10 << 20
)

// Payload is a request body.
type Payload interface {
	Encode(e *jx.Encoder)
}

// Result is a response body.
type Result interface {
	Decode(d *jx.Decoder) error
}

// validator is implemented by results that check themselves after decoding.
type validator interface {
	Validate() error
}

// TokenStore gives the client access to the stored session. LoadToken fails
// open: a storage error is reported as no token.
type TokenStore interface {
	LoadToken(ctx context.Context) (string, bool)
	ClearSession(ctx context.Context) error
}

// Refresher obtains a new access token. On success the implementation has
// already persisted the token.
type Refresher interface {
	Refresh(ctx context.Context) (string, error)
}

// RefresherFunc adapts a function to Refresher.
type RefresherFunc func(ctx context.Context) (string, error)

// Refresh implements Refresher.
func (f RefresherFunc) Refresh(ctx context.Context) (string, error) { return f(ctx) }

// Options configures a Client.
type Options struct {
	// Timeout bounds a single request attempt. Defaults to DefaultTimeout.
	Timeout time.Duration
	// Transport is the innermost RoundTripper. Defaults to http.DefaultTransport.
	Transport http.RoundTripper
	// Middlewares wrap Transport, outermost first.
	Middlewares []transport.Middleware

	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

func (o *Options) setDefaults() {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Transport == nil {
		o.Transport = http.DefaultTransport
	}
	if o.TracerProvider == nil {
		o.TracerProvider = otel.GetTracerProvider()
	}
	if o.MeterProvider == nil {
		o.MeterProvider = otel.GetMeterProvider()
	}
}

// Client is the HTTP gateway. It is safe for concurrent use.
type Client struct {
	base   *url.URL
	http   *http.Client
	tokens TokenStore

	mu        sync.RWMutex
	refresher Refresher
	refreshes singleflight.Group

	refreshCount metric.Int64Counter
}

// New creates a Client for baseURL. A refresher is attached separately with
// SetRefresher because it usually depends on the Client itself.
func New(baseURL string, tokens TokenStore, opts Options) (*Client, error) {
	opts.setDefaults()
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, errors.Errorf("unsupported base url scheme %q", base.Scheme)
	}

	meter := opts.MeterProvider.Meter("github.com/xenking/kart-storefront/internal/client")
	refreshCount, err := meter.Int64Counter("storefront.client.token_refresh",
		metric.WithDescription("Token refresh attempts by outcome"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create refresh counter")
	}

	rt := transport.Wrap(opts.Transport, opts.Middlewares...)
	rt = otelhttp.NewTransport(rt,
		otelhttp.WithTracerProvider(opts.TracerProvider),
		otelhttp.WithMeterProvider(opts.MeterProvider),
	)

	return &Client{
		base: base,
		http: &http.Client{
			Transport: rt,
			Timeout:   opts.Timeout,
		},
		tokens:       tokens,
		refreshCount: refreshCount,
	}, nil
}

// SetRefresher attaches the token refresher. Without one, a 401 clears the
// session immediately.
func (c *Client) SetRefresher(r Refresher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refresher = r
}

func (c *Client) getRefresher() Refresher {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refresher
}

// BaseURL returns the configured API base.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Request describes one API call.
type Request struct {
	Method string
	// Path is appended to the base URL, e.g. "/products/42".
	Path  string
	Query url.Values
	Body  Payload
	// NoRefresh disables the refresh-and-retry step, used by the refresh
	// call itself.
	NoRefresh bool
}

// Do sends req and decodes a 2xx body into out, which may be nil.
//
// On a 401 the refresher is invoked exactly once. If it succeeds the request
// is retried once with the new token and the retry result is final. If it
// fails the stored token and user are removed and the original 401 is
// returned.
func (c *Client) Do(ctx context.Context, req Request, out Result) error {
	var body []byte
	if req.Body != nil {
		e := jx.GetEncoder()
		req.Body.Encode(e)
		// Copy so the body can be replayed after the encoder is recycled.
		body = append([]byte(nil), e.Bytes()...)
		jx.PutEncoder(e)
	}

	token, _ := c.tokens.LoadToken(ctx)
	resp, err := c.send(ctx, req, body, token)
	if err != nil {
		return err
	}

	if resp.status == http.StatusUnauthorized && !req.NoRefresh {
		original := decodeAPIError(resp.status, resp.body)

		newToken, rerr := c.refresh(ctx)
		if rerr != nil {
			zctx.From(ctx).Info("Token refresh failed, clearing session",
				zap.String("path", req.Path),
				zap.Error(rerr),
			)
			if err := c.tokens.ClearSession(ctx); err != nil {
				zctx.From(ctx).Warn("Clear session", zap.Error(err))
			}
			return original
		}

		resp, err = c.send(ctx, req, body, newToken)
		if err != nil {
			return err
		}
	}

	return c.handle(ctx, resp, out)
}

// refresh coalesces concurrent refreshes into one refresher call.
func (c *Client) refresh(ctx context.Context) (string, error) {
	r := c.getRefresher()
	if r == nil {
		c.refreshCount.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "unavailable")))
		return "", errors.New("no refresher configured")
	}

	// The shared call outlives any single caller: one waiter giving up must
	// not fail the refresh for the others.
	v, err, _ := c.refreshes.Do("refresh", func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.http.Timeout)
		defer cancel()
		return r.Refresh(rctx)
	})
	if err != nil {
		c.refreshCount.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "failure")))
		return "", err
	}
	token := v.(string)
	if token == "" {
		c.refreshCount.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "failure")))
		return "", errors.New("refresh returned empty token")
	}
	c.refreshCount.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "success")))
	return token, nil
}

type response struct {
	status      int
	contentType string
	body        []byte
}

func (c *Client) send(ctx context.Context, req Request, body []byte, token string) (*response, error) {
	u := c.base.JoinPath(req.Path)
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	var rd io.Reader = http.NoBody
	if body != nil {
		rd = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), rd)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", req.Method, req.Path)
	}
	defer func() { _ = httpResp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody))
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}
	return &response{
		status:      httpResp.StatusCode,
		contentType: httpResp.Header.Get("Content-Type"),
		body:        data,
	}, nil
}

func (c *Client) handle(ctx context.Context, resp *response, out Result) error {
	if resp.status < 200 || resp.status > 299 {
		return decodeAPIError(resp.status, resp.body)
	}
	if out == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if resp.contentType != "" && !strings.HasPrefix(resp.contentType, "application/json") {
		return validate.InvalidContentType(resp.contentType)
	}

	if err := out.Decode(jx.DecodeBytes(resp.body)); err != nil {
		zctx.From(ctx).Debug("Decode response", zap.Error(err))
		return errors.Wrap(err, "decode response")
	}
	if v, ok := out.(validator); ok {
		if err := v.Validate(); err != nil {
			return errors.Wrap(err, "invalid response")
		}
	}
	return nil
}
