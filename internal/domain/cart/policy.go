package cart

import (
	"fmt"

	"github.com/xenking/kart-storefront/internal/domain/product"
)

// DefaultMaxQuantity is the per-line cap applied by callers of the store.
const DefaultMaxQuantity = 99

// QuantityLimitError is returned by Policy when a mutation would push a line
// past its cap.
type QuantityLimitError struct {
	ProductID string
	Max       int
}

func (e *QuantityLimitError) Error() string {
	return fmt.Sprintf("quantity for product %s cannot exceed %d", e.ProductID, e.Max)
}

// OutOfStockError is returned by Policy when stock gating is enabled and the
// product has no units left.
type OutOfStockError struct {
	ProductID string
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("product %s is out of stock", e.ProductID)
}

// Policy holds caller-side limits. The reducer itself never enforces them.
type Policy struct {
	// MaxQuantity caps a single line. Zero disables the cap.
	MaxQuantity int
	// GateStock rejects additions of products whose Stock is zero.
	GateStock bool
}

// DefaultPolicy returns the policy used by the storefront client.
func DefaultPolicy() Policy {
	return Policy{MaxQuantity: DefaultMaxQuantity}
}

// CheckAdd reports whether one more unit of p may be added to s.
func (p Policy) CheckAdd(s State, prod product.Product) error {
	if p.GateStock && !prod.InStock() {
		return &OutOfStockError{ProductID: prod.ID}
	}
	if p.MaxQuantity > 0 && s.Quantity(prod.ID)+1 > p.MaxQuantity {
		return &QuantityLimitError{ProductID: prod.ID, Max: p.MaxQuantity}
	}
	return nil
}

// CheckQuantity validates an explicit quantity update. Non-positive values
// are removals and always allowed.
func (p Policy) CheckQuantity(productID string, quantity int) error {
	if p.MaxQuantity > 0 && quantity > p.MaxQuantity {
		return &QuantityLimitError{ProductID: productID, Max: p.MaxQuantity}
	}
	return nil
}
