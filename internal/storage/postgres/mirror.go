package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-storefront/internal/domain/product"
)

var _ product.Mirror = (*Mirror)(nil)

// Mirror implements product.Mirror on the products table.
type Mirror struct {
	db DB
}

// NewMirror returns a Mirror that uses db.
func NewMirror(db DB) *Mirror {
	return &Mirror{db: db}
}

// Upsert stores products in one statement.
func (m *Mirror) Upsert(ctx context.Context, products []product.Product) error {
	if len(products) == 0 {
		return nil
	}

	n := len(products)
	var (
		ids          = make([]string, n)
		names        = make([]string, n)
		prices       = make([]decimal.Decimal, n)
		descriptions = make([]string, n)
		images       = make([]string, n)
		categories   = make([]string, n)
		stocks       = make([]int32, n)
	)
	for i, p := range products {
		ids[i] = p.ID
		names[i] = p.Name
		prices[i] = p.Price
		descriptions[i] = p.Description
		images[i] = p.Image
		categories[i] = p.Category
		stocks[i] = int32(p.Stock)
	}

	_, err := m.db.Exec(ctx, upsertProducts, ids, names, prices, descriptions, images, categories, stocks)
	if err != nil {
		return fmt.Errorf("upserting %d products: %w", n, err)
	}
	return nil
}

const upsertProducts = `INSERT INTO products (id, name, price, description, image, category, stock, updated_at)
SELECT id, name, price, description, image, category, stock, now()
FROM unnest($1::text[], $2::text[], $3::numeric[], $4::text[], $5::text[], $6::text[], $7::int[])
    AS t(id, name, price, description, image, category, stock)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    price = EXCLUDED.price,
    description = EXCLUDED.description,
    image = EXCLUDED.image,
    category = EXCLUDED.category,
    stock = EXCLUDED.stock,
    updated_at = now()`

const listProducts = `SELECT id, name, price, description, image, category, stock, count(*) OVER () AS total
FROM products
WHERE ($1 = '' OR category = $1)
  AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR description ILIKE '%' || $2 || '%')
ORDER BY id
LIMIT $3 OFFSET $4`

// List returns a page of mirrored products.
func (m *Mirror) List(ctx context.Context, params product.ListParams) (*product.Page, error) {
	params = params.Normalize()
	offset := (params.Page - 1) * params.PageSize

	rows, err := m.db.Query(ctx, listProducts, params.Category, params.Search, params.PageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("listing mirrored products: %w", err)
	}
	defer rows.Close()

	page := &product.Page{Items: []product.Product{}, Page: params.Page, PageSize: params.PageSize}
	for rows.Next() {
		var (
			p     product.Product
			stock int32
			total int64
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Description, &p.Image, &p.Category, &stock, &total); err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		p.Stock = int(stock)
		page.Total = int(total)
		page.Items = append(page.Items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating products: %w", err)
	}
	return page, nil
}

// Get returns one mirrored product.
func (m *Mirror) Get(ctx context.Context, id string) (*product.Product, error) {
	var (
		p     product.Product
		stock int32
	)
	err := m.db.QueryRow(ctx,
		`SELECT id, name, price, description, image, category, stock FROM products WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Price, &p.Description, &p.Image, &p.Category, &stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	p.Stock = int(stock)
	return &p, nil
}

// Categories returns the distinct mirrored categories.
func (m *Mirror) Categories(ctx context.Context) ([]string, error) {
	rows, err := m.db.Query(ctx, `SELECT DISTINCT category FROM products WHERE category <> '' ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	categories, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collecting categories: %w", err)
	}
	return categories, nil
}
