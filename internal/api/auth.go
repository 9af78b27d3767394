package api

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/ogen-go/ogen/validate"

	"github.com/xenking/kart-storefront/internal/client"
	"github.com/xenking/kart-storefront/internal/domain/auth"
	"github.com/xenking/kart-storefront/internal/wire"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string
	Password string
}

// Encode implements client.Payload.
func (r LoginRequest) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("email")
	e.Str(r.Email)
	e.FieldStart("password")
	e.Str(r.Password)
	e.ObjEnd()
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// Encode implements client.Payload.
func (r RegisterRequest) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("name")
	e.Str(r.Name)
	e.FieldStart("email")
	e.Str(r.Email)
	if r.Phone != "" {
		e.FieldStart("phone")
		e.Str(r.Phone)
	}
	e.FieldStart("password")
	e.Str(r.Password)
	e.ObjEnd()
}

// VerifyOTPRequest is the body of POST /auth/verify-otp.
type VerifyOTPRequest struct {
	Email string
	Code  string
}

// Encode implements client.Payload.
func (r VerifyOTPRequest) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("email")
	e.Str(r.Email)
	e.FieldStart("otp")
	e.Str(r.Code)
	e.ObjEnd()
}

type emailRequest struct {
	Email string
}

func (r emailRequest) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("email")
	e.Str(r.Email)
	e.ObjEnd()
}

type refreshRequest struct {
	RefreshToken string
}

func (r refreshRequest) Encode(e *jx.Encoder) {
	e.ObjStart()
	if r.RefreshToken != "" {
		e.FieldStart("refreshToken")
		e.Str(r.RefreshToken)
	}
	e.ObjEnd()
}

// AuthResponse is returned by login, refresh and OTP verification.
type AuthResponse struct {
	Token        string
	RefreshToken string
	User         auth.User
	Message      string

	hasUser bool
}

// Decode implements client.Result.
func (r *AuthResponse) Decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "token", "accessToken":
			r.Token, err = wire.DecodeOptStr(d)
		case "refreshToken":
			r.RefreshToken, err = wire.DecodeOptStr(d)
		case "user":
			if d.Next() == jx.Null {
				return d.Null()
			}
			r.User, err = wire.DecodeUser(d)
			r.hasUser = err == nil
		case "message":
			r.Message, err = wire.DecodeOptStr(d)
		default:
			err = d.Skip()
		}
		return err
	})
}

// Validate requires a token and a non-empty user.
func (r *AuthResponse) Validate() error {
	var failures []validate.FieldError
	if r.Token == "" {
		failures = append(failures, validate.FieldError{Name: "token", Error: validate.ErrFieldRequired})
	}
	if !r.hasUser || r.User.IsZero() {
		failures = append(failures, validate.FieldError{Name: "user", Error: validate.ErrFieldRequired})
	}
	if len(failures) > 0 {
		return &validate.Error{Fields: failures}
	}
	return nil
}

// Session converts the response to a session.
func (r *AuthResponse) Session() auth.Session {
	return auth.Session{Token: r.Token, RefreshToken: r.RefreshToken, User: r.User}
}

// RegisterResponse is returned by POST /auth/register. Backends that require
// OTP verification answer without a token.
type RegisterResponse struct {
	AuthResponse
}

// Validate accepts a token-less answer; a token without a user is invalid.
func (r *RegisterResponse) Validate() error {
	if r.Token == "" {
		return nil
	}
	return r.AuthResponse.Validate()
}

// VerificationRequired reports whether the account must be confirmed by OTP.
func (r *RegisterResponse) VerificationRequired() bool {
	return r.Token == ""
}

// MessageResponse is a generic {"message": "..."} answer.
type MessageResponse struct {
	Message string
}

// Decode implements client.Result.
func (r *MessageResponse) Decode(d *jx.Decoder) error {
	if d.Next() != jx.Object {
		return d.Skip()
	}
	return d.Obj(func(d *jx.Decoder, key string) error {
		if key != "message" {
			return d.Skip()
		}
		var err error
		r.Message, err = wire.DecodeOptStr(d)
		return err
	})
}

// AuthAPI covers /auth.
type AuthAPI struct {
	c *client.Client
}

// Login exchanges credentials for a session.
func (a *AuthAPI) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := a.c.Do(ctx, client.Request{Method: http.MethodPost, Path: PathLogin, Body: req, NoRefresh: true}, &out); err != nil {
		return nil, errors.Wrap(err, "login")
	}
	return &out, nil
}

// Register creates an account.
func (a *AuthAPI) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	var out RegisterResponse
	if err := a.c.Do(ctx, client.Request{Method: http.MethodPost, Path: PathRegister, Body: req, NoRefresh: true}, &out); err != nil {
		return nil, errors.Wrap(err, "register")
	}
	return &out, nil
}

// VerifyOTP confirms a one-time code and returns the resulting session.
func (a *AuthAPI) VerifyOTP(ctx context.Context, req VerifyOTPRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := a.c.Do(ctx, client.Request{Method: http.MethodPost, Path: PathVerifyOTP, Body: req, NoRefresh: true}, &out); err != nil {
		return nil, errors.Wrap(err, "verify otp")
	}
	return &out, nil
}

// ForgotPassword asks the backend to send a reset link.
func (a *AuthAPI) ForgotPassword(ctx context.Context, email string) (*MessageResponse, error) {
	var out MessageResponse
	if err := a.c.Do(ctx, client.Request{Method: http.MethodPost, Path: PathForgotPassword, Body: emailRequest{Email: email}, NoRefresh: true}, &out); err != nil {
		return nil, errors.Wrap(err, "forgot password")
	}
	return &out, nil
}

// Refresh exchanges the refresh token for a new access token. It never
// triggers the gateway's own refresh.
func (a *AuthAPI) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	var out refreshResponse
	if err := a.c.Do(ctx, client.Request{Method: http.MethodPost, Path: PathRefresh, Body: refreshRequest{RefreshToken: refreshToken}, NoRefresh: true}, &out); err != nil {
		return nil, errors.Wrap(err, "refresh token")
	}
	return &out.AuthResponse, nil
}

// refreshResponse only requires a token; the user is optional.
type refreshResponse struct {
	AuthResponse
}

func (r *refreshResponse) Validate() error {
	if r.Token == "" {
		return &validate.Error{Fields: []validate.FieldError{{Name: "token", Error: validate.ErrFieldRequired}}}
	}
	return nil
}

// Logout invalidates the session server-side.
func (a *AuthAPI) Logout(ctx context.Context) error {
	if err := a.c.Do(ctx, client.Request{Method: http.MethodPost, Path: PathLogout, NoRefresh: true}, nil); err != nil {
		return errors.Wrap(err, "logout")
	}
	return nil
}
