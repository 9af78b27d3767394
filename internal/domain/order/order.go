package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status is the server-side order lifecycle state.
type Status string

// Order statuses.
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Cancellable reports whether an order in this status may still be cancelled.
func (s Status) Cancellable() bool {
	return s == StatusPending || s == StatusProcessing
}

// PaymentMethod selects how an order is paid.
type PaymentMethod string

// Payment methods.
const (
	PaymentCreditCard     PaymentMethod = "credit_card"
	PaymentDebitCard      PaymentMethod = "debit_card"
	PaymentPayPal         PaymentMethod = "paypal"
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
)

// PaymentMethods lists every supported payment method.
var PaymentMethods = []PaymentMethod{
	PaymentCreditCard,
	PaymentDebitCard,
	PaymentPayPal,
	PaymentCashOnDelivery,
}

// Valid reports whether m is a supported payment method.
func (m PaymentMethod) Valid() bool {
	for _, v := range PaymentMethods {
		if m == v {
			return true
		}
	}
	return false
}

// Address is a delivery address.
type Address struct {
	Street     string
	City       string
	State      string
	PostalCode string
	Country    string
}

// IsZero reports whether no field is set.
func (a Address) IsZero() bool {
	return a == Address{}
}

func (a Address) String() string {
	return fmt.Sprintf("%s, %s %s %s, %s", a.Street, a.City, a.State, a.PostalCode, a.Country)
}

// Item is an order line with the price captured at checkout.
type Item struct {
	ProductID string
	Name      string
	Price     decimal.Decimal
	Quantity  int
}

// Subtotal is price times quantity.
func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is a placed customer order.
type Order struct {
	ID            string
	Items         []Item
	Subtotal      decimal.Decimal
	DeliveryFee   decimal.Decimal
	Total         decimal.Decimal
	Status        Status
	PaymentMethod PaymentMethod
	Address       Address
	CreatedAt     time.Time
}

// Sentinel errors for checkout.
var (
	ErrEmptyCart            = errors.New("cart is empty")
	ErrAddressRequired      = errors.New("delivery address required")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrNotFound             = errors.New("order not found")
)

// NotCancellableError is returned when cancelling an order past processing.
type NotCancellableError struct {
	ID     string
	Status Status
}

func (e *NotCancellableError) Error() string {
	return fmt.Sprintf("order %s is %s and can no longer be cancelled", e.ID, e.Status)
}

// CreateRequest is sent to the API to place an order.
type CreateRequest struct {
	IdempotencyKey string
	Items          []Item
	Address        Address
	PaymentMethod  PaymentMethod
	Subtotal       decimal.Decimal
	DeliveryFee    decimal.Decimal
	Total          decimal.Decimal
}

// Gateway is the remote order API.
type Gateway interface {
	Create(ctx context.Context, req CreateRequest) (*Order, error)
	List(ctx context.Context) ([]Order, error)
	Get(ctx context.Context, id string) (*Order, error)
	Cancel(ctx context.Context, id string) (*Order, error)
}
