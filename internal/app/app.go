// Package app wires configuration, storage, the HTTP gateway and the domain
// services into a single App.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/xenking/kart-storefront/internal/api"
	"github.com/xenking/kart-storefront/internal/client"
	"github.com/xenking/kart-storefront/internal/domain/auth"
	"github.com/xenking/kart-storefront/internal/domain/cart"
	"github.com/xenking/kart-storefront/internal/domain/order"
	"github.com/xenking/kart-storefront/internal/domain/product"
	"github.com/xenking/kart-storefront/internal/domain/route"
	"github.com/xenking/kart-storefront/internal/domain/wishlist"
	"github.com/xenking/kart-storefront/internal/form"
	"github.com/xenking/kart-storefront/internal/session"
	"github.com/xenking/kart-storefront/internal/storage"
	"github.com/xenking/kart-storefront/pkg/health"
	"github.com/xenking/kart-storefront/pkg/transport"
)

// App is the assembled storefront client.
type App struct {
	Config *Config

	Storage   *storage.Gateway
	Client    *client.Client
	API       *api.Client
	Sessions  *session.Manager
	Bootstrap *auth.Bootstrap
	Cart      *cart.Store
	Policy    cart.Policy
	Catalog   *product.Service
	Orders    *order.Service
	Wishlist  *wishlist.Service
	Routes    *route.Resolver
	Health    *health.Checker

	closers []func() error
}

// Options carries process-level dependencies. Zero values fall back to the
// global otel providers.
type Options struct {
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	// Transport replaces http.DefaultTransport, mostly for tests.
	Transport http.RoundTripper
}

// OptionsFrom takes the providers from the go-faster/sdk telemetry.
func OptionsFrom(m *app.Telemetry) Options {
	if m == nil {
		return Options{}
	}
	return Options{
		TracerProvider: m.TracerProvider(),
		MeterProvider:  m.MeterProvider(),
	}
}

// New creates all dependencies. Background work is bound to ctx.
func New(ctx context.Context, cfg *Config, opts Options) (_ *App, rerr error) {
	lg := zctx.From(ctx)
	lg.Debug("Initializing",
		zap.String("api", cfg.API.BaseURL),
		zap.String("storage", cfg.Storage.Driver),
	)

	a := &App{Config: cfg, Policy: cart.Policy{
		MaxQuantity: cfg.Cart.MaxQuantity,
		GateStock:   cfg.Cart.GateStock,
	}}
	defer func() {
		if rerr != nil {
			_ = a.Close()
		}
	}()

	backend, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, backend.store.Close)
	a.Storage = storage.NewGateway(backend.store)

	// HTTP gateway.
	limiter := transport.NewLimiter(transport.RateLimitConfig{
		Max:    cfg.RateLimit.Max,
		Window: cfg.RateLimit.Window,
	})
	limiter.StartCleanup(ctx)

	a.Client, err = client.New(cfg.API.BaseURL, a.Storage, client.Options{
		Timeout:   cfg.API.Timeout,
		Transport: opts.Transport,
		Middlewares: []transport.Middleware{
			transport.Recovery(),
			transport.RequestID(),
			transport.LogRequests(),
			transport.RateLimit(limiter),
			transport.Breaker(transport.BreakerConfig{
				Name:             "storefront-api",
				Failures:         cfg.Breaker.Failures,
				Timeout:          cfg.Breaker.Timeout,
				HalfOpenRequests: cfg.Breaker.HalfOpenRequests,
				Logger:           lg,
			}),
		},
		TracerProvider: opts.TracerProvider,
		MeterProvider:  opts.MeterProvider,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create api client")
	}
	a.API = api.New(a.Client)

	a.Sessions = session.NewManager(a.API.Auth, a.Storage)
	a.Client.SetRefresher(a.Sessions)
	a.Bootstrap = auth.NewBootstrap(a.Storage, cfg.Bootstrap.MinDuration)

	// Cart mutations go through App so each write is persisted before it
	// is reported as done.
	a.Cart = cart.NewStore()
	if items, ok := a.Storage.LoadCart(ctx); ok {
		a.Cart.ReplaceAll(items)
	}
	a.Cart.Subscribe(func(s cart.State) {
		lg.Debug("Cart changed",
			zap.Uint64("version", s.Version),
			zap.Int("lines", s.Len()),
			zap.Int("count", s.Count()),
		)
	})

	var mirror product.Mirror
	if backend.mirror != nil {
		mirror = backend.mirror
	}
	a.Catalog = product.NewService(a.API.Products, mirror)

	fee, err := cfg.DeliveryFee()
	if err != nil {
		return nil, err
	}
	a.Orders = order.NewService(a.API.Orders, a.Cart, fee)

	a.Wishlist = wishlist.NewService(wishlist.NewSet(wishlist.DefaultMax), a.Storage, a.API.Wishlist)
	a.Wishlist.Load(ctx)

	a.Routes = route.NewResolver(cfg.DeepLinks.Prefixes)

	a.Health = health.New()
	a.Health.Add("storage", 5*time.Second, health.PingCheck(a.Storage))
	a.Health.Add("api", cfg.API.Timeout, health.HTTPCheck(
		&http.Client{Transport: opts.Transport, Timeout: cfg.API.Timeout},
		a.Client.BaseURL()+api.PathCategories,
	))

	return a, nil
}

// Launch runs the authentication bootstrap and resolves the screen to show:
// the deep link, if any, gated by the resulting auth state.
func (a *App) Launch(ctx context.Context, link string) (route.Target, error) {
	st, err := a.Bootstrap.Run(ctx)
	if err != nil {
		return route.Target{Screen: route.Splash}, errors.Wrap(err, "bootstrap")
	}
	target := route.Target{Screen: route.Home}
	if link != "" {
		target = a.Routes.Resolve(link)
	}
	return a.Routes.Gate(target, st), nil
}

// persistCart writes st to storage. The in-memory cart is already updated,
// so callers must surface the error instead of reporting success.
func (a *App) persistCart(ctx context.Context, st cart.State) error {
	if err := a.Storage.SaveCart(ctx, st.Items); err != nil {
		zctx.From(ctx).Warn("Persist cart",
			zap.Uint64("version", st.Version),
			zap.Error(err),
		)
		return errors.Wrap(err, "persist cart")
	}
	return nil
}

// AddToCart fetches the product and adds one unit within the cart policy.
func (a *App) AddToCart(ctx context.Context, productID string) (cart.State, error) {
	p, err := a.Catalog.Get(ctx, productID)
	if err != nil {
		return cart.State{}, err
	}
	st, err := a.Cart.DispatchChecked(cart.AddItem{Product: *p}, func(s cart.State) error {
		return a.Policy.CheckAdd(s, *p)
	})
	if err != nil {
		return cart.State{}, err
	}
	return st, a.persistCart(ctx, st)
}

// SetQuantity sets a line's quantity within the cart policy; zero or less
// removes the line.
func (a *App) SetQuantity(ctx context.Context, productID string, quantity int) (cart.State, error) {
	st, err := a.Cart.DispatchChecked(cart.UpdateQuantity{ProductID: productID, Quantity: quantity}, func(cart.State) error {
		return a.Policy.CheckQuantity(productID, quantity)
	})
	if err != nil {
		return cart.State{}, err
	}
	return st, a.persistCart(ctx, st)
}

// RemoveFromCart deletes the line for productID.
func (a *App) RemoveFromCart(ctx context.Context, productID string) (cart.State, error) {
	st := a.Cart.RemoveItem(productID)
	return st, a.persistCart(ctx, st)
}

// ClearCart empties the cart.
func (a *App) ClearCart(ctx context.Context) (cart.State, error) {
	st := a.Cart.Clear()
	return st, a.persistCart(ctx, st)
}

// PullCart replaces the local cart with the server-side cart.
func (a *App) PullCart(ctx context.Context) (cart.State, error) {
	remote, err := a.API.Cart.Get(ctx)
	if err != nil {
		return cart.State{}, err
	}
	st := a.Cart.ReplaceAll(remote.Items)
	return st, a.persistCart(ctx, st)
}

// Checkout validates the form and places an order for the current cart.
// When the order is placed but the emptied cart cannot be persisted, the
// order is returned together with the error.
func (a *App) Checkout(ctx context.Context, f form.Checkout) (*order.Order, error) {
	if err := form.Validate(f); err != nil {
		return nil, err
	}
	o, err := a.Orders.Place(ctx, order.PlaceRequest{
		Address: order.Address{
			Street:     f.Address.Street,
			City:       f.Address.City,
			State:      f.Address.State,
			PostalCode: f.Address.PostalCode,
			Country:    f.Address.Country,
		},
		PaymentMethod: order.PaymentMethod(f.PaymentMethod),
	})
	if err != nil {
		return nil, err
	}
	return o, a.persistCart(ctx, a.Cart.Snapshot())
}

// UpdateProfile validates the form, updates the server profile and stores
// the returned user.
func (a *App) UpdateProfile(ctx context.Context, f form.Profile) (auth.User, error) {
	f.Normalize()
	if err := form.Validate(f); err != nil {
		return auth.User{}, err
	}
	u, err := a.API.User.Update(ctx, api.UpdateProfileRequest{
		Name:  f.Name,
		Email: f.Email,
		Phone: f.Phone,
	})
	if err != nil {
		return auth.User{}, err
	}
	if err := a.Sessions.SetUser(ctx, u); err != nil {
		return auth.User{}, errors.Wrap(err, "store user")
	}
	return u, nil
}

// Close releases storage connections.
func (a *App) Close() error {
	var err error
	for i := len(a.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, a.closers[i]())
	}
	a.closers = nil
	return err
}
