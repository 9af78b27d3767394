package api

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/ogen-go/ogen/validate"

	"github.com/xenking/kart-storefront/internal/client"
	"github.com/xenking/kart-storefront/internal/domain/auth"
	"github.com/xenking/kart-storefront/internal/domain/order"
	"github.com/xenking/kart-storefront/internal/wire"
)

// UpdateProfileRequest is the body of PUT /user/update.
type UpdateProfileRequest struct {
	Name  string
	Email string
	Phone string
}

// Encode implements client.Payload.
func (r UpdateProfileRequest) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("name")
	e.Str(r.Name)
	e.FieldStart("email")
	e.Str(r.Email)
	if r.Phone != "" {
		e.FieldStart("phone")
		e.Str(r.Phone)
	}
	e.ObjEnd()
}

// ProfileResponse is {user: ...}, {data: ...} or a bare user.
type ProfileResponse struct {
	User auth.User
}

// Decode implements client.Result.
func (r *ProfileResponse) Decode(d *jx.Decoder) error {
	raw, err := d.Raw()
	if err != nil {
		return err
	}
	inner := func(d *jx.Decoder) error {
		u, err := wire.DecodeUser(d)
		r.User = u
		return err
	}
	if err := envelope(jx.DecodeBytes(raw), "user", inner); err != nil {
		return err
	}
	if r.User.IsZero() {
		return envelope(jx.DecodeBytes(raw), "data", inner)
	}
	return nil
}

// Validate requires an identifiable user.
func (r *ProfileResponse) Validate() error {
	if r.User.ID == "" && r.User.Email == "" {
		return &validate.Error{Fields: []validate.FieldError{{Name: "user", Error: validate.ErrFieldRequired}}}
	}
	return nil
}

// AddressesResponse is an address array.
type AddressesResponse struct {
	Addresses []order.Address
}

// Decode implements client.Result.
func (r *AddressesResponse) Decode(d *jx.Decoder) error {
	return envelope(d, "data", func(d *jx.Decoder) error {
		r.Addresses = []order.Address{}
		return d.Arr(func(d *jx.Decoder) error {
			a, err := wire.DecodeAddress(d)
			if err != nil {
				return err
			}
			r.Addresses = append(r.Addresses, a)
			return nil
		})
	})
}

// UserAPI covers /user.
type UserAPI struct {
	c *client.Client
}

// Profile fetches the signed-in user.
func (a *UserAPI) Profile(ctx context.Context) (auth.User, error) {
	var out ProfileResponse
	if err := a.c.Do(ctx, client.Request{Method: http.MethodGet, Path: PathProfile}, &out); err != nil {
		return auth.User{}, errors.Wrap(err, "get profile")
	}
	return out.User, nil
}

// Update changes profile fields and returns the stored user.
func (a *UserAPI) Update(ctx context.Context, req UpdateProfileRequest) (auth.User, error) {
	var out ProfileResponse
	if err := a.c.Do(ctx, client.Request{Method: http.MethodPut, Path: PathProfileUpdate, Body: req}, &out); err != nil {
		return auth.User{}, errors.Wrap(err, "update profile")
	}
	return out.User, nil
}

// Addresses lists saved delivery addresses.
func (a *UserAPI) Addresses(ctx context.Context) ([]order.Address, error) {
	var out AddressesResponse
	if err := a.c.Do(ctx, client.Request{Method: http.MethodGet, Path: PathAddresses}, &out); err != nil {
		return nil, errors.Wrap(err, "list addresses")
	}
	return out.Addresses, nil
}
