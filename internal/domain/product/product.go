package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Pagination defaults used when listing the catalog.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// CategoryAll is the pseudo-category that disables category filtering.
const CategoryAll = "All"

// Product represents a catalog item available for purchase. Products are
// immutable values sourced from the catalog API.
type Product struct {
	ID          string
	Name        string
	Price       decimal.Decimal
	Description string
	Image       string
	Category    string
	Stock       int
}

// InStock reports whether at least one unit is available.
func (p Product) InStock() bool {
	return p.Stock > 0
}

// ListParams filters and paginates catalog listings.
type ListParams struct {
	Page     int
	PageSize int
	Category string
	Search   string
}

// Normalize clamps pagination to sane bounds and drops the "All" category.
func (p ListParams) Normalize() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	switch {
	case p.PageSize <= 0:
		p.PageSize = DefaultPageSize
	case p.PageSize > MaxPageSize:
		p.PageSize = MaxPageSize
	}
	if p.Category == CategoryAll {
		p.Category = ""
	}
	return p
}

// Page is a single page of catalog results.
type Page struct {
	Items    []Product
	Total    int
	Page     int
	PageSize int
}

// HasMore reports whether further pages exist after this one.
func (p Page) HasMore() bool {
	return p.Page*p.PageSize < p.Total
}

// Catalog defines read operations against the remote product catalog.
type Catalog interface {
	List(ctx context.Context, params ListParams) (*Page, error)
	Get(ctx context.Context, id string) (*Product, error)
	Search(ctx context.Context, query string) (*Page, error)
	Categories(ctx context.Context) ([]string, error)
}

// Mirror is a local copy of catalog data used when the remote catalog is
// unreachable.
type Mirror interface {
	Upsert(ctx context.Context, products []Product) error
	List(ctx context.Context, params ListParams) (*Page, error)
	Get(ctx context.Context, id string) (*Product, error)
	Categories(ctx context.Context) ([]string, error)
}
