package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/ogen-go/ogen/validate"

	"github.com/xenking/kart-storefront/internal/client"
	"github.com/xenking/kart-storefront/internal/domain/product"
	"github.com/xenking/kart-storefront/internal/wire"
)

var _ product.Catalog = (*ProductsAPI)(nil)

// ProductsResponse is a page of products: {data, total, page, pageSize}.
type ProductsResponse struct {
	Data     []product.Product
	Total    int
	Page     int
	PageSize int
}

// Decode implements client.Result.
func (r *ProductsResponse) Decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "data", "products":
			r.Data, err = wire.DecodeProducts(d)
		case "total":
			r.Total, err = d.Int()
		case "page":
			r.Page, err = d.Int()
		case "pageSize":
			r.PageSize, err = d.Int()
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	})
}

// Validate checks the pagination counters.
func (r *ProductsResponse) Validate() error {
	var failures []validate.FieldError
	if r.Total < 0 {
		failures = append(failures, validate.FieldError{Name: "total", Error: errors.New("must not be negative")})
	}
	if r.Page < 0 {
		failures = append(failures, validate.FieldError{Name: "page", Error: errors.New("must not be negative")})
	}
	if r.PageSize < 0 {
		failures = append(failures, validate.FieldError{Name: "pageSize", Error: errors.New("must not be negative")})
	}
	if len(failures) > 0 {
		return &validate.Error{Fields: failures}
	}
	return nil
}

func (r *ProductsResponse) page(params product.ListParams) *product.Page {
	p := &product.Page{Items: r.Data, Total: r.Total, Page: r.Page, PageSize: r.PageSize}
	if p.Items == nil {
		p.Items = []product.Product{}
	}
	if p.Page == 0 {
		p.Page = params.Page
	}
	if p.PageSize == 0 {
		p.PageSize = params.PageSize
	}
	if p.Total < len(p.Items) {
		p.Total = len(p.Items)
	}
	return p
}

// ProductDetailResponse is {data: product}.
type ProductDetailResponse struct {
	Data product.Product
}

// Decode implements client.Result. DecodeProduct validates the product.
func (r *ProductDetailResponse) Decode(d *jx.Decoder) error {
	return envelope(d, "data", func(d *jx.Decoder) error {
		p, err := wire.DecodeProduct(d)
		r.Data = p
		return err
	})
}

// CategoriesResponse is a plain string array.
type CategoriesResponse struct {
	Categories []string
}

// Decode implements client.Result.
func (r *CategoriesResponse) Decode(d *jx.Decoder) error {
	return envelope(d, "data", func(d *jx.Decoder) error {
		v, err := wire.DecodeStrings(d)
		r.Categories = v
		return err
	})
}

// Validate rejects empty labels.
func (r *CategoriesResponse) Validate() error {
	for i, c := range r.Categories {
		if c == "" {
			return &validate.Error{Fields: []validate.FieldError{{
				Name:  "categories[" + strconv.Itoa(i) + "]",
				Error: validate.ErrFieldRequired,
			}}}
		}
	}
	return nil
}

// ProductsAPI covers /products and implements product.Catalog.
type ProductsAPI struct {
	c *client.Client
}

// List fetches a page of products.
func (a *ProductsAPI) List(ctx context.Context, params product.ListParams) (*product.Page, error) {
	params = params.Normalize()
	q := url.Values{}
	q.Set("page", strconv.Itoa(params.Page))
	q.Set("pageSize", strconv.Itoa(params.PageSize))
	if params.Category != "" {
		q.Set("category", params.Category)
	}
	if params.Search != "" {
		q.Set("search", params.Search)
	}

	var out ProductsResponse
	if err := a.c.Do(ctx, client.Request{Method: http.MethodGet, Path: PathProducts, Query: q}, &out); err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return out.page(params), nil
}

// Get fetches one product. A 404 maps to product.ErrNotFound.
func (a *ProductsAPI) Get(ctx context.Context, id string) (*product.Product, error) {
	var out ProductDetailResponse
	err := a.c.Do(ctx, client.Request{Method: http.MethodGet, Path: PathProducts + "/" + url.PathEscape(id)}, &out)
	if err != nil {
		if client.IsNotFound(err) {
			return nil, errors.Wrap(product.ErrNotFound, id)
		}
		return nil, errors.Wrapf(err, "get product %q", id)
	}
	return &out.Data, nil
}

// Search runs a free-text query.
func (a *ProductsAPI) Search(ctx context.Context, query string) (*product.Page, error) {
	var out ProductsResponse
	q := url.Values{"q": {query}}
	if err := a.c.Do(ctx, client.Request{Method: http.MethodGet, Path: PathSearch, Query: q}, &out); err != nil {
		return nil, errors.Wrap(err, "search products")
	}
	return out.page(product.ListParams{}.Normalize()), nil
}

// Categories lists category labels.
func (a *ProductsAPI) Categories(ctx context.Context) ([]string, error) {
	var out CategoriesResponse
	if err := a.c.Do(ctx, client.Request{Method: http.MethodGet, Path: PathCategories}, &out); err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	return out.Categories, nil
}
