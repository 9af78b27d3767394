package wire

import (
	"testing"

	"github.com/go-faster/jx"
	"github.com/ogen-go/ogen/validate"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/kart-storefront/internal/domain/auth"
	"github.com/xenking/kart-storefront/internal/domain/cart"
	"github.com/xenking/kart-storefront/internal/domain/product"
)

func TestDecodeDecimal(t *testing.T) {
	for input, want := range map[string]string{
		`10.50`:   "10.5",
		`"5.25"`:  "5.25",
		`0`:       "0",
		`1e2`:     "100",
		`"19.99"`: "19.99",
	} {
		got, err := DecodeDecimal(jx.DecodeStr(input))
		require.NoError(t, err, input)
		assert.True(t, decimal.RequireFromString(want).Equal(got), "%s: got %s", input, got)
	}

	_, err := DecodeDecimal(jx.DecodeStr(`"abc"`))
	require.Error(t, err)
}

func TestDecodeProduct(t *testing.T) {
	p, err := DecodeProduct(jx.DecodeStr(`{
		"id": "p1",
		"name": "Mug",
		"price": 12.5,
		"description": null,
		"image": "https://cdn.test/mug.png",
		"category": "Home",
		"stock": 3,
		"rating": 4.8
	}`))
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, "Mug", p.Name)
	assert.Equal(t, "", p.Description)
	assert.Equal(t, 3, p.Stock)
	assert.True(t, decimal.RequireFromString("12.5").Equal(p.Price))
}

func TestDecodeProduct_Invalid(t *testing.T) {
	for name, input := range map[string]string{
		"MissingID":     `{"price": 1}`,
		"MissingPrice":  `{"id": "p1"}`,
		"NegativePrice": `{"id": "p1", "price": -1}`,
		"NegativeStock": `{"id": "p1", "price": 1, "stock": -2}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeProduct(jx.DecodeStr(input))
			var verr *validate.Error
			require.ErrorAs(t, err, &verr)
			assert.NotEmpty(t, verr.Fields)
		})
	}

	_, err := DecodeProduct(jx.DecodeStr(`{"id": 5}`))
	require.Error(t, err)
}

func TestLineItems_RoundTrip(t *testing.T) {
	items := []cart.LineItem{
		{Product: product.Product{ID: "p1", Name: "A", Price: decimal.RequireFromString("10.00"), Stock: 1}, Quantity: 2},
		{Product: product.Product{ID: "p2", Name: "B", Price: decimal.RequireFromString("5.50")}, Quantity: 1},
	}

	e := &jx.Encoder{}
	EncodeLineItems(e, items)

	got, err := DecodeLineItems(jx.DecodeBytes(e.Bytes()))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].Quantity)
	assert.True(t, cart.CalculateTotal(items).Equal(cart.CalculateTotal(got)))
}

func TestDecodeLineItems_RejectsZeroQuantity(t *testing.T) {
	_, err := DecodeLineItems(jx.DecodeStr(`[{"product":{"id":"p1","price":1},"quantity":0}]`))
	require.Error(t, err)

	_, err = DecodeLineItems(jx.DecodeStr(`[{"quantity":1}]`))
	require.Error(t, err)
}

func TestUser(t *testing.T) {
	e := &jx.Encoder{}
	EncodeUser(e, auth.User{ID: "u1", Email: "a@b.c", Name: "Ann"})
	assert.NotContains(t, string(e.Bytes()), "phone")

	u, err := DecodeUser(jx.DecodeBytes(e.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, auth.User{ID: "u1", Email: "a@b.c", Name: "Ann"}, u)
}

func TestStrings(t *testing.T) {
	e := &jx.Encoder{}
	EncodeStrings(e, []string{"a", "b"})
	got, err := DecodeStrings(jx.DecodeBytes(e.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)

	got, err = DecodeStrings(jx.DecodeStr(`null`))
	require.NoError(t, err)
	assert.Nil(t, got)
}
