package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/kart-storefront/internal/domain/cart"
)

// DefaultDeliveryFee is the flat fee added to non-empty orders.
var DefaultDeliveryFee = decimal.RequireFromString("5.00")

// Cart is the cart the checkout reads from and clears.
type Cart interface {
	Snapshot() cart.State
	Clear() cart.State
}

// Summary is the price breakdown shown before placing an order.
type Summary struct {
	Items       int
	Subtotal    decimal.Decimal
	DeliveryFee decimal.Decimal
	Total       decimal.Decimal
}

// PlaceRequest holds the checkout choices.
type PlaceRequest struct {
	Address       Address
	PaymentMethod PaymentMethod
}

// Service encapsulates checkout and order history.
type Service struct {
	orders      Gateway
	cart        Cart
	deliveryFee decimal.Decimal
	newKey      func() string
}

// NewService creates an order Service. A negative fee is treated as zero.
func NewService(orders Gateway, c Cart, deliveryFee decimal.Decimal) *Service {
	if deliveryFee.IsNegative() {
		deliveryFee = decimal.Zero
	}
	return &Service{
		orders:      orders,
		cart:        c,
		deliveryFee: deliveryFee,
		newKey:      func() string { return uuid.New().String() },
	}
}

// Summarize prices a cart state. An empty cart has no delivery fee.
func (s *Service) Summarize(state cart.State) Summary {
	sum := Summary{
		Items:       state.Count(),
		Subtotal:    state.Total.Round(2),
		DeliveryFee: decimal.Zero,
	}
	if !state.IsEmpty() {
		sum.DeliveryFee = s.deliveryFee.Round(2)
	}
	sum.Total = sum.Subtotal.Add(sum.DeliveryFee).Round(2)
	return sum
}

// Place creates an order from the current cart and clears the cart once the
// API has accepted it. The cart is left untouched on failure.
func (s *Service) Place(ctx context.Context, req PlaceRequest) (*Order, error) {
	state := s.cart.Snapshot()
	if state.IsEmpty() {
		return nil, ErrEmptyCart
	}
	if req.Address.IsZero() {
		return nil, ErrAddressRequired
	}
	if !req.PaymentMethod.Valid() {
		return nil, errors.Wrapf(ErrInvalidPaymentMethod, "%q", req.PaymentMethod)
	}

	items := make([]Item, len(state.Items))
	for i, li := range state.Items {
		items[i] = Item{
			ProductID: li.Product.ID,
			Name:      li.Product.Name,
			Price:     li.Product.Price,
			Quantity:  li.Quantity,
		}
	}

	sum := s.Summarize(state)
	key := s.newKey()
	o, err := s.orders.Create(ctx, CreateRequest{
		IdempotencyKey: key,
		Items:          items,
		Address:        req.Address,
		PaymentMethod:  req.PaymentMethod,
		Subtotal:       sum.Subtotal,
		DeliveryFee:    sum.DeliveryFee,
		Total:          sum.Total,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	s.cart.Clear()
	zctx.From(ctx).Info("Order placed",
		zap.String("order_id", o.ID),
		zap.String("idempotency_key", key),
		zap.Stringer("total", o.Total),
	)
	return o, nil
}

// List returns the customer's orders.
func (s *Service) List(ctx context.Context) ([]Order, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return orders, nil
}

// Get returns one order.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %s", id)
	}
	return o, nil
}

// Cancel cancels a pending or processing order. Other statuses are rejected
// locally without calling the API.
func (s *Service) Cancel(ctx context.Context, id string) (*Order, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.Status.Cancellable() {
		return nil, &NotCancellableError{ID: o.ID, Status: o.Status}
	}

	cancelled, err := s.orders.Cancel(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "cancel order %s", id)
	}
	return cancelled, nil
}
