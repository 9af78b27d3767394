package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/ogen-go/ogen/validate"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-storefront/internal/client"
	"github.com/xenking/kart-storefront/internal/domain/cart"
	"github.com/xenking/kart-storefront/internal/wire"
)

// CartItemRequest is the body of POST /cart/add and PUT /cart/update.
type CartItemRequest struct {
	ProductID string
	Quantity  int
}

// Encode implements client.Payload.
func (r CartItemRequest) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("productId")
	e.Str(r.ProductID)
	e.FieldStart("quantity")
	e.Int(r.Quantity)
	e.ObjEnd()
}

// CartResponse is the server-side cart: {items, total}.
type CartResponse struct {
	Items []cart.LineItem
	Total decimal.Decimal
}

// Decode implements client.Result.
func (r *CartResponse) Decode(d *jx.Decoder) error {
	return envelope(d, "data", func(d *jx.Decoder) error {
		return d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "items":
				r.Items, err = wire.DecodeLineItems(d)
			case "total":
				r.Total, err = wire.DecodeDecimal(d)
			default:
				err = d.Skip()
			}
			return err
		})
	})
}

// Validate checks that line items are unique by product.
func (r *CartResponse) Validate() error {
	seen := make(map[string]struct{}, len(r.Items))
	for _, li := range r.Items {
		if _, ok := seen[li.Product.ID]; ok {
			return &validate.Error{Fields: []validate.FieldError{{
				Name:  "items",
				Error: errors.Errorf("duplicate product %q", li.Product.ID),
			}}}
		}
		seen[li.Product.ID] = struct{}{}
	}
	if r.Total.IsNegative() {
		return &validate.Error{Fields: []validate.FieldError{{Name: "total", Error: errors.New("must not be negative")}}}
	}
	return nil
}

// CartAPI covers the server-side cart.
type CartAPI struct {
	c *client.Client
}

func (a *CartAPI) do(ctx context.Context, req client.Request, op string) (*CartResponse, error) {
	var out CartResponse
	if err := a.c.Do(ctx, req, &out); err != nil {
		return nil, errors.Wrap(err, op)
	}
	return &out, nil
}

// Get fetches the server cart.
func (a *CartAPI) Get(ctx context.Context) (*CartResponse, error) {
	return a.do(ctx, client.Request{Method: http.MethodGet, Path: PathCart}, "get cart")
}

// Add adds quantity units of a product.
func (a *CartAPI) Add(ctx context.Context, productID string, quantity int) (*CartResponse, error) {
	if quantity < 1 {
		quantity = 1
	}
	return a.do(ctx, client.Request{
		Method: http.MethodPost,
		Path:   PathCartAdd,
		Body:   CartItemRequest{ProductID: productID, Quantity: quantity},
	}, "add to cart")
}

// Update sets the quantity of a line.
func (a *CartAPI) Update(ctx context.Context, productID string, quantity int) (*CartResponse, error) {
	return a.do(ctx, client.Request{
		Method: http.MethodPut,
		Path:   PathCartUpdate,
		Body:   CartItemRequest{ProductID: productID, Quantity: quantity},
	}, "update cart")
}

// Remove drops a line.
func (a *CartAPI) Remove(ctx context.Context, productID string) (*CartResponse, error) {
	return a.do(ctx, client.Request{
		Method: http.MethodDelete,
		Path:   PathCartRemove + "/" + url.PathEscape(productID),
	}, "remove from cart")
}

// Clear empties the server cart.
func (a *CartAPI) Clear(ctx context.Context) error {
	if err := a.c.Do(ctx, client.Request{Method: http.MethodDelete, Path: PathCartClear}, nil); err != nil {
		return errors.Wrap(err, "clear cart")
	}
	return nil
}
