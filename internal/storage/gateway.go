package storage

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/kart-storefront/internal/domain/auth"
	"github.com/xenking/kart-storefront/internal/domain/cart"
	"github.com/xenking/kart-storefront/internal/wire"
)

// Gateway reads and writes typed values.
//
// Reads fail open: an absent key, a backend error or an undecodable value all
// yield the zero value and false, with errors logged. Writes and deletes fail
// closed and return the error.
type Gateway struct {
	store Store
}

// NewGateway wraps store.
func NewGateway(store Store) *Gateway {
	return &Gateway{store: store}
}

// Store returns the underlying backend.
func (g *Gateway) Store() Store {
	return g.store
}

func load[T any](ctx context.Context, g *Gateway, key string, decode func(d *jx.Decoder) (T, error)) (T, bool) {
	var zero T
	data, err := g.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return zero, false
	}
	if err != nil {
		zctx.From(ctx).Warn("Storage read failed", zap.String("key", key), zap.Error(err))
		return zero, false
	}
	if d := jx.DecodeBytes(data); d.Next() == jx.Null {
		return zero, false
	}
	v, err := decode(jx.DecodeBytes(data))
	if err != nil {
		zctx.From(ctx).Warn("Storage value undecodable", zap.String("key", key), zap.Error(err))
		return zero, false
	}
	return v, true
}

func (g *Gateway) save(ctx context.Context, key string, encode func(e *jx.Encoder)) error {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	encode(e)

	if err := g.store.Set(ctx, key, append([]byte(nil), e.Bytes()...)); err != nil {
		return errors.Wrapf(err, "save %s", key)
	}
	return nil
}

func decodeStr(d *jx.Decoder) (string, error) { return d.Str() }

func (g *Gateway) loadNonEmptyStr(ctx context.Context, key string) (string, bool) {
	v, ok := load(ctx, g, key, decodeStr)
	return v, ok && v != ""
}

func (g *Gateway) saveStr(ctx context.Context, key, v string) error {
	return g.save(ctx, key, func(e *jx.Encoder) { e.Str(v) })
}

// LoadToken returns the stored access token.
func (g *Gateway) LoadToken(ctx context.Context) (string, bool) {
	return g.loadNonEmptyStr(ctx, KeyUserToken)
}

// SaveToken stores the access token.
func (g *Gateway) SaveToken(ctx context.Context, token string) error {
	return g.saveStr(ctx, KeyUserToken, token)
}

// LoadRefreshToken returns the stored refresh token.
func (g *Gateway) LoadRefreshToken(ctx context.Context) (string, bool) {
	return g.loadNonEmptyStr(ctx, KeyRefreshToken)
}

// SaveRefreshToken stores the refresh token.
func (g *Gateway) SaveRefreshToken(ctx context.Context, token string) error {
	return g.saveStr(ctx, KeyRefreshToken, token)
}

// LoadUser returns the stored user record. An all-empty record counts as
// absent.
func (g *Gateway) LoadUser(ctx context.Context) (auth.User, bool) {
	u, ok := load(ctx, g, KeyUserData, wire.DecodeUser)
	return u, ok && !u.IsZero()
}

// SaveUser stores the user record.
func (g *Gateway) SaveUser(ctx context.Context, u auth.User) error {
	return g.save(ctx, KeyUserData, func(e *jx.Encoder) { wire.EncodeUser(e, u) })
}

// SaveSession stores token, user and, when present, the refresh token.
func (g *Gateway) SaveSession(ctx context.Context, s auth.Session) error {
	if err := g.SaveToken(ctx, s.Token); err != nil {
		return err
	}
	if err := g.SaveUser(ctx, s.User); err != nil {
		return err
	}
	if s.RefreshToken != "" {
		return g.SaveRefreshToken(ctx, s.RefreshToken)
	}
	return nil
}

// LoadSession returns the stored session if both token and user are present.
func (g *Gateway) LoadSession(ctx context.Context) (auth.Session, bool) {
	token, ok := g.LoadToken(ctx)
	if !ok {
		return auth.Session{}, false
	}
	u, ok := g.LoadUser(ctx)
	if !ok {
		return auth.Session{}, false
	}
	refresh, _ := g.LoadRefreshToken(ctx)
	return auth.Session{Token: token, RefreshToken: refresh, User: u}, true
}

// ClearSession removes the token, refresh token and user record.
func (g *Gateway) ClearSession(ctx context.Context) error {
	if err := g.store.Delete(ctx, KeyUserToken, KeyUserData, KeyRefreshToken); err != nil {
		return errors.Wrap(err, "clear session")
	}
	return nil
}

// LoadCart returns the persisted cart lines.
func (g *Gateway) LoadCart(ctx context.Context) ([]cart.LineItem, bool) {
	return load(ctx, g, KeyCartData, wire.DecodeLineItems)
}

// SaveCart persists cart lines.
func (g *Gateway) SaveCart(ctx context.Context, items []cart.LineItem) error {
	return g.save(ctx, KeyCartData, func(e *jx.Encoder) { wire.EncodeLineItems(e, items) })
}

// LoadWishlist returns the persisted wishlist product ids.
func (g *Gateway) LoadWishlist(ctx context.Context) ([]string, bool) {
	return load(ctx, g, KeyWishlistData, wire.DecodeStrings)
}

// SaveWishlist persists wishlist product ids.
func (g *Gateway) SaveWishlist(ctx context.Context, ids []string) error {
	return g.save(ctx, KeyWishlistData, func(e *jx.Encoder) { wire.EncodeStrings(e, ids) })
}

// LoadLanguage returns the preferred language code.
func (g *Gateway) LoadLanguage(ctx context.Context) (string, bool) {
	return g.loadNonEmptyStr(ctx, KeyLanguage)
}

// SaveLanguage stores the preferred language code.
func (g *Gateway) SaveLanguage(ctx context.Context, lang string) error {
	return g.saveStr(ctx, KeyLanguage, lang)
}

// LoadTheme returns the preferred theme.
func (g *Gateway) LoadTheme(ctx context.Context) (string, bool) {
	return g.loadNonEmptyStr(ctx, KeyTheme)
}

// SaveTheme stores the preferred theme.
func (g *Gateway) SaveTheme(ctx context.Context, theme string) error {
	return g.saveStr(ctx, KeyTheme, theme)
}

// OnboardingCompleted reports whether onboarding was finished.
func (g *Gateway) OnboardingCompleted(ctx context.Context) bool {
	v, ok := load(ctx, g, KeyOnboardingCompleted, func(d *jx.Decoder) (bool, error) { return d.Bool() })
	return ok && v
}

// SetOnboardingCompleted stores the onboarding flag.
func (g *Gateway) SetOnboardingCompleted(ctx context.Context, done bool) error {
	return g.save(ctx, KeyOnboardingCompleted, func(e *jx.Encoder) { e.Bool(done) })
}

// GetMany returns the raw values of the keys that are present and readable.
func (g *Gateway) GetMany(ctx context.Context, keys ...string) map[string][]byte {
	out := make(map[string][]byte, len(keys))
	for _, key := range keys {
		data, err := g.store.Get(ctx, key)
		switch {
		case errors.Is(err, ErrNotFound):
		case err != nil:
			zctx.From(ctx).Warn("Storage read failed", zap.String("key", key), zap.Error(err))
		default:
			out[key] = data
		}
	}
	return out
}

// Remove deletes keys.
func (g *Gateway) Remove(ctx context.Context, keys ...string) error {
	if err := g.store.Delete(ctx, keys...); err != nil {
		return errors.Wrap(err, "remove")
	}
	return nil
}

// Clear removes everything.
func (g *Gateway) Clear(ctx context.Context) error {
	if err := g.store.Clear(ctx); err != nil {
		return errors.Wrap(err, "clear storage")
	}
	return nil
}

// Ping checks the backend.
func (g *Gateway) Ping(ctx context.Context) error {
	return g.store.Ping(ctx)
}
