package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/ogen-go/ogen/validate"

	"github.com/xenking/kart-storefront/internal/client"
	"github.com/xenking/kart-storefront/internal/domain/wishlist"
	"github.com/xenking/kart-storefront/internal/wire"
)

var _ wishlist.Remote = (*WishlistAPI)(nil)

// WishlistRequest is the body of POST /wishlist/add.
type WishlistRequest struct {
	ProductID string
}

// Encode implements client.Payload.
func (r WishlistRequest) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("productId")
	e.Str(r.ProductID)
	e.ObjEnd()
}

// WishlistResponse lists product ids. Elements may be ids or product
// objects.
type WishlistResponse struct {
	ProductIDs []string
}

// Decode implements client.Result.
func (r *WishlistResponse) Decode(d *jx.Decoder) error {
	return envelope(d, "data", func(d *jx.Decoder) error {
		r.ProductIDs = []string{}
		return d.Arr(func(d *jx.Decoder) error {
			if d.Next() == jx.String {
				id, err := d.Str()
				r.ProductIDs = append(r.ProductIDs, id)
				return err
			}
			var id string
			if err := d.Obj(func(d *jx.Decoder, key string) error {
				switch key {
				case "id", "productId":
					v, err := wire.DecodeOptStr(d)
					if id == "" {
						id = v
					}
					return err
				default:
					return d.Skip()
				}
			}); err != nil {
				return err
			}
			r.ProductIDs = append(r.ProductIDs, id)
			return nil
		})
	})
}

// Validate rejects empty ids.
func (r *WishlistResponse) Validate() error {
	for _, id := range r.ProductIDs {
		if id == "" {
			return &validate.Error{Fields: []validate.FieldError{{Name: "productId", Error: validate.ErrFieldRequired}}}
		}
	}
	return nil
}

// WishlistAPI covers /wishlist and implements wishlist.Remote.
type WishlistAPI struct {
	c *client.Client
}

// List returns the server-side wishlist.
func (a *WishlistAPI) List(ctx context.Context) ([]string, error) {
	var out WishlistResponse
	if err := a.c.Do(ctx, client.Request{Method: http.MethodGet, Path: PathWishlist}, &out); err != nil {
		return nil, errors.Wrap(err, "list wishlist")
	}
	return out.ProductIDs, nil
}

// Add adds a product.
func (a *WishlistAPI) Add(ctx context.Context, productID string) error {
	if err := a.c.Do(ctx, client.Request{
		Method: http.MethodPost,
		Path:   PathWishlistAdd,
		Body:   WishlistRequest{ProductID: productID},
	}, nil); err != nil {
		return errors.Wrap(err, "add to wishlist")
	}
	return nil
}

// Remove removes a product.
func (a *WishlistAPI) Remove(ctx context.Context, productID string) error {
	if err := a.c.Do(ctx, client.Request{
		Method: http.MethodDelete,
		Path:   PathWishlistRemove + "/" + url.PathEscape(productID),
	}, nil); err != nil {
		return errors.Wrap(err, "remove from wishlist")
	}
	return nil
}
