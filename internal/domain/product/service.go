package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Home is the data shown on the landing screen.
type Home struct {
	Featured   *Page
	Categories []string
}

// Service wraps a Catalog with parameter normalization and an optional
// offline Mirror.
type Service struct {
	catalog Catalog
	mirror  Mirror
}

// NewService creates a catalog Service. mirror may be nil.
func NewService(catalog Catalog, mirror Mirror) *Service {
	return &Service{catalog: catalog, mirror: mirror}
}

// List returns one page of products. Successful results are copied to the
// mirror; when the remote call fails and a mirror is configured, the mirrored
// page is returned instead.
func (s *Service) List(ctx context.Context, params ListParams) (*Page, error) {
	params = params.Normalize()

	page, err := s.catalog.List(ctx, params)
	if err != nil {
		if s.mirror == nil || errors.Is(err, context.Canceled) {
			return nil, errors.Wrap(err, "list products")
		}
		zctx.From(ctx).Warn("Catalog unavailable, serving mirror", zap.Error(err))
		cached, merr := s.mirror.List(ctx, params)
		if merr != nil {
			return nil, errors.Wrap(err, "list products")
		}
		return cached, nil
	}
	s.remember(ctx, page.Items...)
	return page, nil
}

// Get returns a single product.
func (s *Service) Get(ctx context.Context, id string) (*Product, error) {
	p, err := s.catalog.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) || s.mirror == nil {
			return nil, err
		}
		cached, merr := s.mirror.Get(ctx, id)
		if merr != nil {
			return nil, err
		}
		return cached, nil
	}
	s.remember(ctx, *p)
	return p, nil
}

// Search runs a free-text catalog search. Search results are never served
// from the mirror.
func (s *Service) Search(ctx context.Context, query string) (*Page, error) {
	page, err := s.catalog.Search(ctx, query)
	if err != nil {
		return nil, errors.Wrapf(err, "search %q", query)
	}
	s.remember(ctx, page.Items...)
	return page, nil
}

// Categories returns the catalog's category labels.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	cats, err := s.catalog.Categories(ctx)
	if err != nil {
		if s.mirror == nil {
			return nil, errors.Wrap(err, "list categories")
		}
		cached, merr := s.mirror.Categories(ctx)
		if merr != nil {
			return nil, errors.Wrap(err, "list categories")
		}
		return cached, nil
	}
	return cats, nil
}

// Home fetches the first page of products and the category list concurrently.
func (s *Service) Home(ctx context.Context, pageSize int) (*Home, error) {
	var h Home

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		page, err := s.List(gctx, ListParams{Page: 1, PageSize: pageSize})
		if err != nil {
			return err
		}
		h.Featured = page
		return nil
	})
	g.Go(func() error {
		cats, err := s.Categories(gctx)
		if err != nil {
			return err
		}
		h.Categories = cats
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &h, nil
}

func (s *Service) remember(ctx context.Context, products ...Product) {
	if s.mirror == nil || len(products) == 0 {
		return
	}
	if err := s.mirror.Upsert(ctx, products); err != nil {
		zctx.From(ctx).Warn("Mirror products", zap.Error(err))
	}
}
