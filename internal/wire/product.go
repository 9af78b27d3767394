package wire

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/ogen-go/ogen/validate"

	"github.com/xenking/kart-storefront/internal/domain/cart"
	"github.com/xenking/kart-storefront/internal/domain/product"
)

// EncodeProduct writes p as an object.
func EncodeProduct(e *jx.Encoder, p product.Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("name")
	e.Str(p.Name)
	e.FieldStart("price")
	EncodeDecimal(e, p.Price)
	e.FieldStart("description")
	e.Str(p.Description)
	e.FieldStart("image")
	e.Str(p.Image)
	e.FieldStart("category")
	e.Str(p.Category)
	e.FieldStart("stock")
	e.Int(p.Stock)
	e.ObjEnd()
}

// DecodeProduct reads and validates a product. Unknown fields are skipped.
func DecodeProduct(d *jx.Decoder) (product.Product, error) {
	var (
		p        product.Product
		hasPrice bool
	)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			p.ID, err = d.Str()
		case "name":
			p.Name, err = DecodeOptStr(d)
		case "price":
			p.Price, err = DecodeDecimal(d)
			hasPrice = true
		case "description":
			p.Description, err = DecodeOptStr(d)
		case "image":
			p.Image, err = DecodeOptStr(d)
		case "category":
			p.Category, err = DecodeOptStr(d)
		case "stock":
			p.Stock, err = d.Int()
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	})
	if err != nil {
		return product.Product{}, errors.Wrap(err, "decode product")
	}
	if err := ValidateProduct(p, hasPrice); err != nil {
		return product.Product{}, err
	}
	return p, nil
}

// ValidateProduct checks the invariants every decoded product must hold.
func ValidateProduct(p product.Product, hasPrice bool) error {
	var failures []validate.FieldError
	if p.ID == "" {
		failures = append(failures, validate.FieldError{Name: "id", Error: validate.ErrFieldRequired})
	}
	if !hasPrice {
		failures = append(failures, validate.FieldError{Name: "price", Error: validate.ErrFieldRequired})
	} else if p.Price.IsNegative() {
		failures = append(failures, validate.FieldError{Name: "price", Error: errors.New("must not be negative")})
	}
	if p.Stock < 0 {
		failures = append(failures, validate.FieldError{Name: "stock", Error: errors.New("must not be negative")})
	}
	if len(failures) > 0 {
		return &validate.Error{Fields: failures}
	}
	return nil
}

// EncodeProducts writes a product array.
func EncodeProducts(e *jx.Encoder, ps []product.Product) {
	e.ArrStart()
	for _, p := range ps {
		EncodeProduct(e, p)
	}
	e.ArrEnd()
}

// DecodeProducts reads a product array.
func DecodeProducts(d *jx.Decoder) ([]product.Product, error) {
	out := []product.Product{}
	err := d.Arr(func(d *jx.Decoder) error {
		p, err := DecodeProduct(d)
		if err != nil {
			return err
		}
		out = append(out, p)
		return nil
	})
	return out, err
}

// EncodeLineItems writes cart lines as [{"product":{...},"quantity":n}].
func EncodeLineItems(e *jx.Encoder, items []cart.LineItem) {
	e.ArrStart()
	for _, li := range items {
		e.ObjStart()
		e.FieldStart("product")
		EncodeProduct(e, li.Product)
		e.FieldStart("quantity")
		e.Int(li.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
}

// DecodeLineItems reads cart lines. Lines with a non-positive quantity are
// rejected since they cannot exist in a cart.
func DecodeLineItems(d *jx.Decoder) ([]cart.LineItem, error) {
	out := []cart.LineItem{}
	err := d.Arr(func(d *jx.Decoder) error {
		var (
			li         cart.LineItem
			hasProduct bool
		)
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			switch key {
			case "product":
				p, err := DecodeProduct(d)
				li.Product, hasProduct = p, err == nil
				return err
			case "quantity":
				q, err := d.Int()
				li.Quantity = q
				return err
			default:
				return d.Skip()
			}
		}); err != nil {
			return err
		}
		if !hasProduct {
			return &validate.Error{Fields: []validate.FieldError{{Name: "product", Error: validate.ErrFieldRequired}}}
		}
		if li.Quantity < 1 {
			return &validate.Error{Fields: []validate.FieldError{{Name: "quantity", Error: errors.New("must be at least 1")}}}
		}
		out = append(out, li)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode line items")
	}
	return out, nil
}
