// Package api is the typed REST surface of the storefront backend. Every
// endpoint has explicit request and response records; responses are validated
// right after decoding.
package api

import (
	"github.com/go-faster/jx"

	"github.com/xenking/kart-storefront/internal/client"
)

// Endpoint paths relative to the API base URL.
const (
	PathLogin          = "/auth/login"
	PathRegister       = "/auth/register"
	PathLogout         = "/auth/logout"
	PathRefresh        = "/auth/refresh"
	PathVerifyOTP      = "/auth/verify-otp"
	PathForgotPassword = "/auth/forgot-password"

	PathProducts   = "/products"
	PathSearch     = "/products/search"
	PathCategories = "/products/categories"

	PathCart       = "/cart"
	PathCartAdd    = "/cart/add"
	PathCartUpdate = "/cart/update"
	PathCartRemove = "/cart/remove"
	PathCartClear  = "/cart/clear"

	PathOrders      = "/orders"
	PathOrderCreate = "/orders/create"

	PathProfile       = "/user/profile"
	PathProfileUpdate = "/user/update"
	PathAddresses     = "/user/addresses"

	PathWishlist       = "/wishlist"
	PathWishlistAdd    = "/wishlist/add"
	PathWishlistRemove = "/wishlist/remove"
)

// Client groups the resource clients.
type Client struct {
	Auth     *AuthAPI
	Products *ProductsAPI
	Cart     *CartAPI
	Orders   *OrdersAPI
	User     *UserAPI
	Wishlist *WishlistAPI
}

// New builds resource clients on top of c.
func New(c *client.Client) *Client {
	return &Client{
		Auth:     &AuthAPI{c: c},
		Products: &ProductsAPI{c: c},
		Cart:     &CartAPI{c: c},
		Orders:   &OrdersAPI{c: c},
		User:     &UserAPI{c: c},
		Wishlist: &WishlistAPI{c: c},
	}
}

// envelope unwraps {"data": ...} when present and decodes the payload with
// inner. Bare payloads are accepted as well.
func envelope(d *jx.Decoder, key string, inner func(d *jx.Decoder) error) error {
	if d.Next() != jx.Object {
		return inner(d)
	}
	raw, err := d.Raw()
	if err != nil {
		return err
	}
	found := false
	if err := jx.DecodeBytes(raw).ObjBytes(func(d *jx.Decoder, k []byte) error {
		if string(k) != key {
			return d.Skip()
		}
		found = true
		return inner(d)
	}); err != nil {
		return err
	}
	if found {
		return nil
	}
	return inner(jx.DecodeBytes(raw))
}
