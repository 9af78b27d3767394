package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-faster/jx"
	"github.com/ogen-go/ogen/validate"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/kart-storefront/internal/client"
	"github.com/xenking/kart-storefront/internal/domain/order"
	"github.com/xenking/kart-storefront/internal/domain/product"
)

type staticTokens struct {
	token string
}

func (s staticTokens) LoadToken(context.Context) (string, bool) { return s.token, s.token != "" }
func (staticTokens) ClearSession(context.Context) error { return nil }

func newTestAPI(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := client.New(srv.URL+"/api", staticTokens{token: "tok"}, client.Options{})
	require.NoError(t, err)
	return New(c)
}

func reply(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func readBody(t *testing.T, r *http.Request) map[string]string {
	t.Helper()
	out := map[string]string{}
	err := jx.Decode(r.Body, 256).Obj(func(d *jx.Decoder, key string) error {
		raw, err := d.Raw()
		out[key] = raw.String()
		return err
	})
	assert.NoError(t, err)
	return out
}

func TestAuth_Login(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		body := readBody(t, r)
		assert.Equal(t, `"jane@example.com"`, body["email"])
		assert.Equal(t, `"Secret123"`, body["password"])
		reply(w, http.StatusOK, `{"token":"t1","refreshToken":"r1","user":{"id":"u1","email":"jane@example.com","name":"Jane"}}`)
	})
	a := newTestAPI(t, mux)

	resp, err := a.Auth.Login(context.Background(), LoginRequest{Email: "jane@example.com", Password: "Secret123"})
	require.NoError(t, err)
	s := resp.Session()
	assert.Equal(t, "t1", s.Token)
	assert.Equal(t, "r1", s.RefreshToken)
	assert.Equal(t, "Jane", s.User.Name)
	assert.True(t, s.Valid())
}

func TestAuth_LoginInvalidResponse(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, `{"user":null}`)
	})
	a := newTestAPI(t, mux)

	_, err := a.Auth.Login(context.Background(), LoginRequest{Email: "a@b.c", Password: "x"})
	var verr *validate.Error
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 2)
}

func TestAuth_Register(t *testing.T) {
	for _, tc := range []struct {
		name         string
		body         string
		verification bool
	}{
		{name: "Session", body: `{"token":"t1","user":{"id":"u1","email":"a@b.c"}}`},
		{name: "Verification", body: `{"message":"Code sent"}`, verification: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("POST /api/auth/register", func(w http.ResponseWriter, r *http.Request) {
				body := readBody(t, r)
				_, hasPhone := body["phone"]
				assert.False(t, hasPhone)
				reply(w, http.StatusCreated, tc.body)
			})
			a := newTestAPI(t, mux)

			resp, err := a.Auth.Register(context.Background(), RegisterRequest{Name: "Jane", Email: "a@b.c", Password: "Secret123"})
			require.NoError(t, err)
			assert.Equal(t, tc.verification, resp.VerificationRequired())
		})
	}
}

func TestAuth_Refresh(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, `"r1"`, readBody(t, r)["refreshToken"])
		reply(w, http.StatusOK, `{"token":"t2"}`)
	})
	a := newTestAPI(t, mux)

	resp, err := a.Auth.Refresh(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "t2", resp.Token)
}

func TestProducts_List(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/products", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "20", q.Get("pageSize"))
		assert.Equal(t, "", q.Get("category"))
		assert.Equal(t, "mug", q.Get("search"))
		reply(w, http.StatusOK, `{"data":[{"id":"p1","name":"Mug","price":12.5,"category":"Home","stock":3}],"total":21,"page":2,"pageSize":20}`)
	})
	a := newTestAPI(t, mux)

	page, err := a.Products.List(context.Background(), product.ListParams{Page: 2, Category: product.CategoryAll, Search: "mug"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.True(t, decimal.RequireFromString("12.5").Equal(page.Items[0].Price))
	assert.Equal(t, 21, page.Total)
	assert.False(t, page.HasMore())
}

func TestProducts_RejectsInvalidProduct(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/products", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, `{"data":[{"id":"p1","price":-1}],"total":1}`)
	})
	a := newTestAPI(t, mux)

	_, err := a.Products.List(context.Background(), product.ListParams{})
	var verr *validate.Error
	require.ErrorAs(t, err, &verr)
}

func TestProducts_GetAndCategories(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/products/p1", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, `{"data":{"id":"p1","name":"Mug","price":"12.50"}}`)
	})
	mux.HandleFunc("GET /api/products/missing", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusNotFound, `{"message":"Product not found"}`)
	})
	mux.HandleFunc("GET /api/products/categories", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, `["Electronics","Home"]`)
	})
	mux.HandleFunc("GET /api/products/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "mug", r.URL.Query().Get("q"))
		reply(w, http.StatusOK, `{"data":[{"id":"p1","price":1}],"total":1}`)
	})
	a := newTestAPI(t, mux)
	ctx := context.Background()

	p, err := a.Products.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Mug", p.Name)

	_, err = a.Products.Get(ctx, "missing")
	require.ErrorIs(t, err, product.ErrNotFound)

	cats, err := a.Products.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Electronics", "Home"}, cats)

	page, err := a.Products.Search(ctx, "mug")
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 1, page.Page)
}

func TestCart(t *testing.T) {
	mux := http.NewServeMux()
	cartBody := `{"items":[{"product":{"id":"p1","price":10},"quantity":2}],"total":20}`
	mux.HandleFunc("POST /api/cart/add", func(w http.ResponseWriter, r *http.Request) {
		body := readBody(t, r)
		assert.Equal(t, `"p1"`, body["productId"])
		assert.Equal(t, `1`, body["quantity"])
		reply(w, http.StatusOK, cartBody)
	})
	mux.HandleFunc("DELETE /api/cart/remove/p1", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, `{"items":[],"total":0}`)
	})
	mux.HandleFunc("DELETE /api/cart/clear", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /api/cart", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, `{"items":[{"product":{"id":"p1","price":1},"quantity":1},{"product":{"id":"p1","price":1},"quantity":1}],"total":2}`)
	})
	a := newTestAPI(t, mux)
	ctx := context.Background()

	resp, err := a.Cart.Add(ctx, "p1", 0)
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.True(t, decimal.NewFromInt(20).Equal(resp.Total))

	resp, err = a.Cart.Remove(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, resp.Items)

	require.NoError(t, a.Cart.Clear(ctx))

	_, err = a.Cart.Get(ctx)
	require.ErrorContains(t, err, "duplicate product")
}

func TestOrders(t *testing.T) {
	orderJSON := `{"id":"o1","items":[{"productId":"p1","name":"Mug","price":10,"quantity":2}],"subtotal":20,"deliveryFee":5,"total":25,"status":"pending","paymentMethod":"paypal","createdAt":"2026-01-02T03:04:05Z"}`

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/orders/create", func(w http.ResponseWriter, r *http.Request) {
		body := readBody(t, r)
		assert.Equal(t, `"key-1"`, body["idempotencyKey"])
		assert.Equal(t, `"paypal"`, body["paymentMethod"])
		assert.Equal(t, `25`, body["total"])
		assert.Contains(t, body["shippingAddress"], `"city":"Springfield"`)
		reply(w, http.StatusCreated, `{"data":`+orderJSON+`}`)
	})
	mux.HandleFunc("GET /api/orders", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, `[`+orderJSON+`]`)
	})
	mux.HandleFunc("POST /api/orders/o1/cancel", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, `{"id":"o1","status":"cancelled","total":25}`)
	})
	mux.HandleFunc("GET /api/orders/o2", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusNotFound, `{"error":{"code":"not_found","message":"Order not found"}}`)
	})
	a := newTestAPI(t, mux)
	ctx := context.Background()

	created, err := a.Orders.Create(ctx, order.CreateRequest{
		IdempotencyKey: "key-1",
		Items:          []order.Item{{ProductID: "p1", Name: "Mug", Price: decimal.NewFromInt(10), Quantity: 2}},
		Address:        order.Address{Street: "1 Main St", City: "Springfield"},
		PaymentMethod:  order.PaymentPayPal,
		Subtotal:       decimal.NewFromInt(20),
		DeliveryFee:    decimal.NewFromInt(5),
		Total:          decimal.NewFromInt(25),
	})
	require.NoError(t, err)
	assert.Equal(t, "o1", created.ID)
	assert.Equal(t, order.StatusPending, created.Status)

	list, err := a.Orders.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	cancelled, err := a.Orders.Cancel(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, cancelled.Status)

	_, err = a.Orders.Get(ctx, "o2")
	require.ErrorIs(t, err, order.ErrNotFound)
}

func TestUser(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/user/profile", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		reply(w, http.StatusOK, `{"user":{"id":"u1","email":"a@b.c","name":"Jane"}}`)
	})
	mux.HandleFunc("PUT /api/user/update", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, `"+15551234567"`, readBody(t, r)["phone"])
		reply(w, http.StatusOK, `{"data":{"id":"u1","email":"a@b.c","name":"Janet","phone":"+15551234567"}}`)
	})
	mux.HandleFunc("GET /api/user/addresses", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, `[{"street":"1 Main St","city":"Springfield","postalCode":"62701","country":"US"}]`)
	})
	a := newTestAPI(t, mux)
	ctx := context.Background()

	u, err := a.User.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Jane", u.Name)

	u, err = a.User.Update(ctx, UpdateProfileRequest{Name: "Janet", Email: "a@b.c", Phone: "+15551234567"})
	require.NoError(t, err)
	assert.Equal(t, "Janet", u.Name)

	addrs, err := a.User.Addresses(ctx)
	require.NoError(t, err)
	require.Len(t, addrs, 1)
	assert.Equal(t, "62701", addrs[0].PostalCode)
}

func TestWishlist(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/wishlist", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, `{"data":["p1",{"id":"p2","name":"Tee"},{"productId":"p3"}]}`)
	})
	mux.HandleFunc("POST /api/wishlist/add", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, `"p4"`, readBody(t, r)["productId"])
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("DELETE /api/wishlist/remove/p4", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, `{"message":"removed"}`)
	})
	a := newTestAPI(t, mux)
	ctx := context.Background()

	ids, err := a.Wishlist.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2", "p3"}, ids)
	require.NoError(t, a.Wishlist.Add(ctx, "p4"))
	require.NoError(t, a.Wishlist.Remove(ctx, "p4"))
}
