package order

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/kart-storefront/internal/domain/cart"
	"github.com/xenking/kart-storefront/internal/domain/product"
)

// --- Mock implementations ---

type mockGateway struct {
	lastCreate *CreateRequest
	createErr  error
	orders     map[string]*Order
	cancelled  []string
}

func (m *mockGateway) Create(_ context.Context, req CreateRequest) (*Order, error) {
	m.lastCreate = &req
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &Order{
		ID:            "ord-1",
		Items:         req.Items,
		Subtotal:      req.Subtotal,
		DeliveryFee:   req.DeliveryFee,
		Total:         req.Total,
		Status:        StatusPending,
		PaymentMethod: req.PaymentMethod,
		Address:       req.Address,
		CreatedAt:     time.Now(),
	}, nil
}

func (m *mockGateway) List(context.Context) ([]Order, error) {
	var out []Order
	for _, o := range m.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (m *mockGateway) Get(_ context.Context, id string) (*Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return o, nil
}

func (m *mockGateway) Cancel(_ context.Context, id string) (*Order, error) {
	m.cancelled = append(m.cancelled, id)
	o := *m.orders[id]
	o.Status = StatusCancelled
	return &o, nil
}

// --- Helpers ---

func newTestProduct(id, price string) product.Product {
	return product.Product{
		ID:       id,
		Name:     "Product " + id,
		Price:    decimal.RequireFromString(price),
		Category: "test",
		Stock:    10,
	}
}

var testAddress = Address{Street: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US"}

func TestService_Summarize(t *testing.T) {
	svc := NewService(&mockGateway{}, cart.NewStore(), DefaultDeliveryFee)

	t.Run("Empty cart has no fee", func(t *testing.T) {
		sum := svc.Summarize(cart.Empty())
		assert.True(t, sum.DeliveryFee.IsZero())
		assert.True(t, sum.Total.IsZero())
	})

	t.Run("Fee added", func(t *testing.T) {
		store := cart.NewStore()
		store.AddItem(newTestProduct("p1", "10.00"))
		store.AddItem(newTestProduct("p2", "5.50"))

		sum := svc.Summarize(store.Snapshot())
		assert.Equal(t, 2, sum.Items)
		assert.Equal(t, "15.5", sum.Subtotal.String())
		assert.Equal(t, "5", sum.DeliveryFee.String())
		assert.Equal(t, "20.5", sum.Total.String())
	})

	t.Run("Negative fee clamped", func(t *testing.T) {
		s := NewService(&mockGateway{}, cart.NewStore(), decimal.NewFromInt(-1))
		store := cart.NewStore()
		store.AddItem(newTestProduct("p1", "1.00"))
		assert.True(t, s.Summarize(store.Snapshot()).DeliveryFee.IsZero())
	})
}

func TestService_Place(t *testing.T) {
	ctx := context.Background()

	t.Run("Success clears cart", func(t *testing.T) {
		gw := &mockGateway{}
		store := cart.NewStore()
		store.AddItem(newTestProduct("p1", "10.00"))
		store.AddItem(newTestProduct("p1", "10.00"))

		svc := NewService(gw, store, DefaultDeliveryFee)
		svc.newKey = func() string { return "key-1" }

		o, err := svc.Place(ctx, PlaceRequest{Address: testAddress, PaymentMethod: PaymentPayPal})
		require.NoError(t, err)
		assert.Equal(t, "ord-1", o.ID)
		assert.True(t, decimal.RequireFromString("25.00").Equal(o.Total))

		require.NotNil(t, gw.lastCreate)
		assert.Equal(t, "key-1", gw.lastCreate.IdempotencyKey)
		require.Len(t, gw.lastCreate.Items, 1)
		assert.Equal(t, 2, gw.lastCreate.Items[0].Quantity)
		assert.True(t, store.Snapshot().IsEmpty())
	})

	t.Run("Empty cart", func(t *testing.T) {
		gw := &mockGateway{}
		svc := NewService(gw, cart.NewStore(), DefaultDeliveryFee)
		_, err := svc.Place(ctx, PlaceRequest{Address: testAddress, PaymentMethod: PaymentPayPal})
		require.ErrorIs(t, err, ErrEmptyCart)
		assert.Nil(t, gw.lastCreate)
	})

	t.Run("Missing address", func(t *testing.T) {
		store := cart.NewStore()
		store.AddItem(newTestProduct("p1", "1.00"))
		svc := NewService(&mockGateway{}, store, DefaultDeliveryFee)
		_, err := svc.Place(ctx, PlaceRequest{PaymentMethod: PaymentPayPal})
		require.ErrorIs(t, err, ErrAddressRequired)
	})

	t.Run("Invalid payment method", func(t *testing.T) {
		store := cart.NewStore()
		store.AddItem(newTestProduct("p1", "1.00"))
		svc := NewService(&mockGateway{}, store, DefaultDeliveryFee)
		_, err := svc.Place(ctx, PlaceRequest{Address: testAddress, PaymentMethod: "bitcoin"})
		require.ErrorIs(t, err, ErrInvalidPaymentMethod)
	})

	t.Run("API failure keeps cart", func(t *testing.T) {
		errAPI := errors.New("api down")
		store := cart.NewStore()
		store.AddItem(newTestProduct("p1", "1.00"))
		svc := NewService(&mockGateway{createErr: errAPI}, store, DefaultDeliveryFee)

		_, err := svc.Place(ctx, PlaceRequest{Address: testAddress, PaymentMethod: PaymentCashOnDelivery})
		require.ErrorIs(t, err, errAPI)
		assert.Equal(t, 1, store.Count())
	})
}

func TestService_Cancel(t *testing.T) {
	ctx := context.Background()
	gw := &mockGateway{orders: map[string]*Order{
		"pending": {ID: "pending", Status: StatusPending},
		"shipped": {ID: "shipped", Status: StatusShipped},
	}}
	svc := NewService(gw, cart.NewStore(), DefaultDeliveryFee)

	o, err := svc.Cancel(ctx, "pending")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, o.Status)

	_, err = svc.Cancel(ctx, "shipped")
	var ncErr *NotCancellableError
	require.ErrorAs(t, err, &ncErr)
	assert.Equal(t, StatusShipped, ncErr.Status)
	assert.Equal(t, []string{"pending"}, gw.cancelled)

	_, err = svc.Cancel(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStatusAndPayment(t *testing.T) {
	assert.True(t, StatusProcessing.Cancellable())
	assert.False(t, StatusDelivered.Cancellable())
	assert.False(t, Status("lost").Valid())
	assert.True(t, PaymentDebitCard.Valid())
	assert.False(t, PaymentMethod("").Valid())
}
