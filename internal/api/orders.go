package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/kart-storefront/internal/client"
	"github.com/xenking/kart-storefront/internal/domain/order"
	"github.com/xenking/kart-storefront/internal/wire"
)

var _ order.Gateway = (*OrdersAPI)(nil)

// CreateOrderRequest is the body of POST /orders/create.
type CreateOrderRequest struct {
	order.CreateRequest
}

// Encode implements client.Payload.
func (r CreateOrderRequest) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("idempotencyKey")
	e.Str(r.IdempotencyKey)
	e.FieldStart("items")
	wire.EncodeOrderItems(e, r.Items)
	e.FieldStart("shippingAddress")
	wire.EncodeAddress(e, r.Address)
	e.FieldStart("paymentMethod")
	e.Str(string(r.PaymentMethod))
	e.FieldStart("subtotal")
	wire.EncodeDecimal(e, r.Subtotal)
	e.FieldStart("deliveryFee")
	wire.EncodeDecimal(e, r.DeliveryFee)
	e.FieldStart("total")
	wire.EncodeDecimal(e, r.Total)
	e.ObjEnd()
}

// OrderResponse is {data: order} or a bare order. DecodeOrder validates.
type OrderResponse struct {
	Order order.Order
}

// Decode implements client.Result.
func (r *OrderResponse) Decode(d *jx.Decoder) error {
	return envelope(d, "data", func(d *jx.Decoder) error {
		o, err := wire.DecodeOrder(d)
		r.Order = o
		return err
	})
}

// OrdersResponse is {data: [order]} or a bare array.
type OrdersResponse struct {
	Orders []order.Order
}

// Decode implements client.Result.
func (r *OrdersResponse) Decode(d *jx.Decoder) error {
	return envelope(d, "data", func(d *jx.Decoder) error {
		v, err := wire.DecodeOrders(d)
		r.Orders = v
		return err
	})
}

// OrdersAPI covers /orders and implements order.Gateway.
type OrdersAPI struct {
	c *client.Client
}

// Create places an order.
func (a *OrdersAPI) Create(ctx context.Context, req order.CreateRequest) (*order.Order, error) {
	var out OrderResponse
	if err := a.c.Do(ctx, client.Request{
		Method: http.MethodPost,
		Path:   PathOrderCreate,
		Body:   CreateOrderRequest{CreateRequest: req},
	}, &out); err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	return &out.Order, nil
}

// List returns the order history.
func (a *OrdersAPI) List(ctx context.Context) ([]order.Order, error) {
	var out OrdersResponse
	if err := a.c.Do(ctx, client.Request{Method: http.MethodGet, Path: PathOrders}, &out); err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	if out.Orders == nil {
		out.Orders = []order.Order{}
	}
	return out.Orders, nil
}

// Get returns one order. A 404 maps to order.ErrNotFound.
func (a *OrdersAPI) Get(ctx context.Context, id string) (*order.Order, error) {
	var out OrderResponse
	if err := a.c.Do(ctx, client.Request{Method: http.MethodGet, Path: PathOrders + "/" + url.PathEscape(id)}, &out); err != nil {
		if client.IsNotFound(err) {
			return nil, errors.Wrap(order.ErrNotFound, id)
		}
		return nil, errors.Wrapf(err, "get order %q", id)
	}
	return &out.Order, nil
}

// Cancel cancels an order.
func (a *OrdersAPI) Cancel(ctx context.Context, id string) (*order.Order, error) {
	var out OrderResponse
	if err := a.c.Do(ctx, client.Request{
		Method: http.MethodPost,
		Path:   PathOrders + "/" + url.PathEscape(id) + "/cancel",
	}, &out); err != nil {
		if client.IsNotFound(err) {
			return nil, errors.Wrap(order.ErrNotFound, id)
		}
		return nil, errors.Wrapf(err, "cancel order %q", id)
	}
	return &out.Order, nil
}
