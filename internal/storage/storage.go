// Package storage is the local persistence layer: a small key-value Store
// contract with interchangeable backends and a typed Gateway on top.
package storage

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned by Store.Get for an absent key.
var ErrNotFound = errors.New("storage: key not found")

// Well-known keys.
const (
	KeyUserToken           = "@user_token"
	KeyUserData            = "@user_data"
	KeyRefreshToken        = "@refresh_token"
	KeyCartData            = "@cart_data"
	KeyWishlistData        = "@wishlist_data"
	KeyLanguage            = "@language"
	KeyTheme               = "@theme"
	KeyOnboardingCompleted = "@onboarding_completed"
)

// Keys lists every well-known key.
var Keys = []string{
	KeyUserToken,
	KeyUserData,
	KeyRefreshToken,
	KeyCartData,
	KeyWishlistData,
	KeyLanguage,
	KeyTheme,
	KeyOnboardingCompleted,
}

// Store is a string-keyed byte store. Values are JSON documents written by
// Gateway; backends treat them as opaque.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes keys; absent keys are not an error.
	Delete(ctx context.Context, keys ...string) error
	// Clear removes every key owned by the store.
	Clear(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
