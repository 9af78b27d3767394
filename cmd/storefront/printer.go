package main

import (
	"io"

	"github.com/go-faster/jx"

	appkg "github.com/xenking/kart-storefront/internal/app"
	"github.com/xenking/kart-storefront/internal/domain/auth"
	"github.com/xenking/kart-storefront/internal/domain/cart"
	"github.com/xenking/kart-storefront/internal/domain/order"
	"github.com/xenking/kart-storefront/internal/domain/product"
	"github.com/xenking/kart-storefront/internal/domain/route"
	"github.com/xenking/kart-storefront/internal/wire"
)

// printer writes command results as indented JSON.
type printer struct {
	w io.Writer
}

func (p *printer) json(fn func(e *jx.Encoder)) error {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	e.SetIdent(2)
	fn(e)
	_, err := p.w.Write(append(e.Bytes(), '\n'))
	return err
}

func (p *printer) message(msg string) error {
	return p.json(func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("message", func(e *jx.Encoder) { e.Str(msg) })
		})
	})
}

func (p *printer) session(s auth.Session) error {
	return p.json(func(e *jx.Encoder) { encodeSession(e, s) })
}

func encodeSession(e *jx.Encoder, s auth.Session) {
	info := auth.InspectToken(s.Token)
	e.Obj(func(e *jx.Encoder) {
		e.Field("user", func(e *jx.Encoder) { wire.EncodeUser(e, s.User) })
		if info.JWT && !info.ExpiresAt.IsZero() {
			e.Field("tokenExpires", func(e *jx.Encoder) { e.Str(info.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z")) })
		}
	})
}

func (p *printer) page(pg *product.Page) error {
	return p.json(func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("data", func(e *jx.Encoder) { wire.EncodeProducts(e, pg.Items) })
			e.Field("total", func(e *jx.Encoder) { e.Int(pg.Total) })
			e.Field("page", func(e *jx.Encoder) { e.Int(pg.Page) })
			e.Field("pageSize", func(e *jx.Encoder) { e.Int(pg.PageSize) })
			e.Field("hasMore", func(e *jx.Encoder) { e.Bool(pg.HasMore()) })
		})
	})
}

func (p *printer) cart(st cart.State, sum order.Summary) error {
	return p.json(func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("items", func(e *jx.Encoder) { wire.EncodeLineItems(e, st.Items) })
			e.Field("count", func(e *jx.Encoder) { e.Int(st.Count()) })
			e.Field("subtotal", func(e *jx.Encoder) { wire.EncodeDecimal(e, sum.Subtotal) })
			e.Field("deliveryFee", func(e *jx.Encoder) { wire.EncodeDecimal(e, sum.DeliveryFee) })
			e.Field("total", func(e *jx.Encoder) { wire.EncodeDecimal(e, sum.Total) })
		})
	})
}

func (p *printer) orders(orders ...order.Order) error {
	return p.json(func(e *jx.Encoder) {
		if len(orders) == 1 {
			wire.EncodeOrder(e, orders[0])
			return
		}
		e.Arr(func(e *jx.Encoder) {
			for _, o := range orders {
				wire.EncodeOrder(e, o)
			}
		})
	})
}

func (p *printer) strings(vs []string) error {
	return p.json(func(e *jx.Encoder) { wire.EncodeStrings(e, vs) })
}

func (p *printer) target(t route.Target) error {
	return p.json(func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("screen", func(e *jx.Encoder) { e.Str(string(t.Screen)) })
			e.Field("root", func(e *jx.Encoder) { e.Str(t.Screen.Root().String()) })
			if len(t.Params) > 0 {
				e.Field("params", func(e *jx.Encoder) {
					e.Obj(func(e *jx.Encoder) {
						for k, v := range t.Params {
							e.Field(k, func(e *jx.Encoder) { e.Str(v) })
						}
					})
				})
			}
		})
	})
}

func (p *printer) settings(s appkg.Settings) error {
	return p.json(func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("language", func(e *jx.Encoder) { e.Str(s.Language) })
			e.Field("theme", func(e *jx.Encoder) { e.Str(s.Theme) })
			e.Field("onboarded", func(e *jx.Encoder) { e.Bool(s.Onboarded) })
			e.Field("stored", func(e *jx.Encoder) { wire.EncodeStrings(e, s.Stored) })
		})
	})
}
