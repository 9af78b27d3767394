package wire

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/kart-storefront/internal/domain/auth"
)

// EncodeUser writes u; an empty phone is omitted.
func EncodeUser(e *jx.Encoder, u auth.User) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(u.ID)
	e.FieldStart("email")
	e.Str(u.Email)
	e.FieldStart("name")
	e.Str(u.Name)
	if u.Phone != "" {
		e.FieldStart("phone")
		e.Str(u.Phone)
	}
	e.ObjEnd()
}

// DecodeUser reads a user record.
func DecodeUser(d *jx.Decoder) (auth.User, error) {
	var u auth.User
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			u.ID, err = DecodeOptStr(d)
		case "email":
			u.Email, err = DecodeOptStr(d)
		case "name":
			u.Name, err = DecodeOptStr(d)
		case "phone":
			u.Phone, err = DecodeOptStr(d)
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return auth.User{}, errors.Wrap(err, "decode user")
	}
	return u, nil
}
