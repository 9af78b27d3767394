package wire

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/ogen-go/ogen/validate"

	"github.com/xenking/kart-storefront/internal/domain/order"
)

// EncodeAddress writes a delivery address.
func EncodeAddress(e *jx.Encoder, a order.Address) {
	e.ObjStart()
	e.FieldStart("street")
	e.Str(a.Street)
	e.FieldStart("city")
	e.Str(a.City)
	e.FieldStart("state")
	e.Str(a.State)
	e.FieldStart("postalCode")
	e.Str(a.PostalCode)
	e.FieldStart("country")
	e.Str(a.Country)
	e.ObjEnd()
}

// DecodeAddress reads a delivery address; null yields the zero address.
func DecodeAddress(d *jx.Decoder) (order.Address, error) {
	var a order.Address
	if d.Next() == jx.Null {
		return a, d.Null()
	}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "street":
			a.Street, err = DecodeOptStr(d)
		case "city":
			a.City, err = DecodeOptStr(d)
		case "state":
			a.State, err = DecodeOptStr(d)
		case "postalCode", "zipCode":
			a.PostalCode, err = DecodeOptStr(d)
		case "country":
			a.Country, err = DecodeOptStr(d)
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return order.Address{}, errors.Wrap(err, "decode address")
	}
	return a, nil
}

// EncodeOrderItems writes order lines.
func EncodeOrderItems(e *jx.Encoder, items []order.Item) {
	e.ArrStart()
	for _, it := range items {
		e.ObjStart()
		e.FieldStart("productId")
		e.Str(it.ProductID)
		e.FieldStart("name")
		e.Str(it.Name)
		e.FieldStart("price")
		EncodeDecimal(e, it.Price)
		e.FieldStart("quantity")
		e.Int(it.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
}

func decodeOrderItems(d *jx.Decoder) ([]order.Item, error) {
	out := []order.Item{}
	err := d.Arr(func(d *jx.Decoder) error {
		var it order.Item
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "productId":
				it.ProductID, err = d.Str()
			case "name":
				it.Name, err = DecodeOptStr(d)
			case "price":
				it.Price, err = DecodeDecimal(d)
			case "quantity":
				it.Quantity, err = d.Int()
			default:
				err = d.Skip()
			}
			return err
		}); err != nil {
			return err
		}
		out = append(out, it)
		return nil
	})
	return out, err
}

// DecodeOrder reads and validates an order.
func DecodeOrder(d *jx.Decoder) (order.Order, error) {
	var o order.Order
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			o.ID, err = d.Str()
		case "items":
			o.Items, err = decodeOrderItems(d)
		case "subtotal":
			o.Subtotal, err = DecodeDecimal(d)
		case "deliveryFee":
			o.DeliveryFee, err = DecodeDecimal(d)
		case "total":
			o.Total, err = DecodeDecimal(d)
		case "status":
			var s string
			s, err = d.Str()
			o.Status = order.Status(s)
		case "paymentMethod":
			var s string
			s, err = DecodeOptStr(d)
			o.PaymentMethod = order.PaymentMethod(s)
		case "address", "shippingAddress":
			o.Address, err = DecodeAddress(d)
		case "createdAt":
			var s string
			if s, err = d.Str(); err == nil {
				o.CreatedAt, err = time.Parse(time.RFC3339, s)
			}
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	})
	if err != nil {
		return order.Order{}, errors.Wrap(err, "decode order")
	}

	var failures []validate.FieldError
	if o.ID == "" {
		failures = append(failures, validate.FieldError{Name: "id", Error: validate.ErrFieldRequired})
	}
	if !o.Status.Valid() {
		failures = append(failures, validate.FieldError{Name: "status", Error: errors.Errorf("unknown status %q", o.Status)})
	}
	if o.Total.IsNegative() {
		failures = append(failures, validate.FieldError{Name: "total", Error: errors.New("must not be negative")})
	}
	if len(failures) > 0 {
		return order.Order{}, &validate.Error{Fields: failures}
	}
	return o, nil
}

// DecodeOrders reads an order array.
func DecodeOrders(d *jx.Decoder) ([]order.Order, error) {
	out := []order.Order{}
	err := d.Arr(func(d *jx.Decoder) error {
		o, err := DecodeOrder(d)
		if err != nil {
			return err
		}
		out = append(out, o)
		return nil
	})
	return out, err
}

// EncodeOrder writes an order in the shape DecodeOrder reads.
func EncodeOrder(e *jx.Encoder, o order.Order) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID)
	e.FieldStart("items")
	EncodeOrderItems(e, o.Items)
	e.FieldStart("subtotal")
	EncodeDecimal(e, o.Subtotal)
	e.FieldStart("deliveryFee")
	EncodeDecimal(e, o.DeliveryFee)
	e.FieldStart("total")
	EncodeDecimal(e, o.Total)
	e.FieldStart("status")
	e.Str(string(o.Status))
	e.FieldStart("paymentMethod")
	e.Str(string(o.PaymentMethod))
	e.FieldStart("address")
	EncodeAddress(e, o.Address)
	if !o.CreatedAt.IsZero() {
		e.FieldStart("createdAt")
		e.Str(o.CreatedAt.UTC().Format(time.RFC3339))
	}
	e.ObjEnd()
}
