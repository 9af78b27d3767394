// Package session manages sign-in state: credential exchanges with the
// backend, the stored session, and token refresh for the HTTP gateway.
package session

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/kart-storefront/internal/api"
	"github.com/xenking/kart-storefront/internal/client"
	"github.com/xenking/kart-storefront/internal/domain/auth"
	"github.com/xenking/kart-storefront/internal/form"
)

// ErrNoRefreshToken is returned by Refresh when nothing can be exchanged.
var ErrNoRefreshToken = errors.New("no refresh token stored")

// Backend is the remote auth API.
type Backend interface {
	Login(ctx context.Context, req api.LoginRequest) (*api.AuthResponse, error)
	Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error)
	VerifyOTP(ctx context.Context, req api.VerifyOTPRequest) (*api.AuthResponse, error)
	ForgotPassword(ctx context.Context, email string) (*api.MessageResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*api.AuthResponse, error)
	Logout(ctx context.Context) error
}

// Store persists the session.
type Store interface {
	LoadSession(ctx context.Context) (auth.Session, bool)
	SaveSession(ctx context.Context, s auth.Session) error
	LoadRefreshToken(ctx context.Context) (string, bool)
	SaveToken(ctx context.Context, token string) error
	SaveRefreshToken(ctx context.Context, token string) error
	SaveUser(ctx context.Context, u auth.User) error
	ClearSession(ctx context.Context) error
}

var _ client.Refresher = (*Manager)(nil)

// Manager performs auth flows and keeps the stored session current.
type Manager struct {
	backend Backend
	store   Store
}

// NewManager creates a Manager.
func NewManager(backend Backend, store Store) *Manager {
	return &Manager{backend: backend, store: store}
}

// Registration is the outcome of Register.
type Registration struct {
	// Session is set when the backend signed the user in right away.
	Session auth.Session
	// VerificationRequired means a code was sent to Email and VerifyOTP must
	// be called next.
	VerificationRequired bool
	Email                string
	Message              string
}

// Login validates f, exchanges the credentials and stores the session.
func (m *Manager) Login(ctx context.Context, f form.Login) (auth.Session, error) {
	f.Normalize()
	if err := form.Validate(f); err != nil {
		return auth.Session{}, err
	}
	resp, err := m.backend.Login(ctx, api.LoginRequest{Email: f.Email, Password: f.Password})
	if err != nil {
		return auth.Session{}, err
	}
	return m.establish(ctx, resp.Session())
}

// Register validates f and creates the account. If the backend returns a
// session it is stored; otherwise the caller continues with VerifyOTP.
func (m *Manager) Register(ctx context.Context, f form.Register) (Registration, error) {
	f.Normalize()
	if err := form.Validate(f); err != nil {
		return Registration{}, err
	}
	resp, err := m.backend.Register(ctx, api.RegisterRequest{
		Name:     f.Name,
		Email:    f.Email,
		Phone:    f.Phone,
		Password: f.Password,
	})
	if err != nil {
		return Registration{}, err
	}
	reg := Registration{Email: f.Email, Message: resp.Message}
	if resp.VerificationRequired() {
		reg.VerificationRequired = true
		zctx.From(ctx).Info("Registration pending verification", zap.String("email", f.Email))
		return reg, nil
	}
	s, err := m.establish(ctx, resp.Session())
	if err != nil {
		return Registration{}, err
	}
	reg.Session = s
	return reg, nil
}

// VerifyOTP confirms a one-time code and stores the resulting session.
func (m *Manager) VerifyOTP(ctx context.Context, f form.OTP) (auth.Session, error) {
	f.Normalize()
	if err := form.Validate(f); err != nil {
		return auth.Session{}, err
	}
	resp, err := m.backend.VerifyOTP(ctx, api.VerifyOTPRequest{Email: f.Email, Code: f.Code})
	if err != nil {
		return auth.Session{}, err
	}
	return m.establish(ctx, resp.Session())
}

// ForgotPassword requests a password reset email and returns the backend's
// message.
func (m *Manager) ForgotPassword(ctx context.Context, email string) (string, error) {
	f := form.ForgotPassword{Email: email}
	f.Normalize()
	if err := form.Validate(f); err != nil {
		return "", err
	}
	resp, err := m.backend.ForgotPassword(ctx, f.Email)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Logout tells the backend and always removes the local session. Only a
// local storage failure is returned.
func (m *Manager) Logout(ctx context.Context) error {
	if _, ok := m.store.LoadSession(ctx); ok {
		if err := m.backend.Logout(ctx); err != nil {
			zctx.From(ctx).Warn("Server logout failed", zap.Error(err))
		}
	}
	if err := m.store.ClearSession(ctx); err != nil {
		return errors.Wrap(err, "logout")
	}
	zctx.From(ctx).Info("Signed out")
	return nil
}

// Current returns the stored session.
func (m *Manager) Current(ctx context.Context) (auth.Session, bool) {
	return m.store.LoadSession(ctx)
}

// SetUser replaces the stored user record, e.g. after a profile update.
func (m *Manager) SetUser(ctx context.Context, u auth.User) error {
	if u.IsZero() {
		return errors.New("empty user")
	}
	return m.store.SaveUser(ctx, u)
}

// Refresh implements client.Refresher. It exchanges the stored refresh token
// and persists what the backend returns.
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	refreshToken, ok := m.store.LoadRefreshToken(ctx)
	if !ok {
		return "", ErrNoRefreshToken
	}
	resp, err := m.backend.Refresh(ctx, refreshToken)
	if err != nil {
		return "", err
	}
	if err := m.store.SaveToken(ctx, resp.Token); err != nil {
		return "", err
	}
	if resp.RefreshToken != "" && resp.RefreshToken != refreshToken {
		if err := m.store.SaveRefreshToken(ctx, resp.RefreshToken); err != nil {
			return "", err
		}
	}
	if !resp.User.IsZero() {
		if err := m.store.SaveUser(ctx, resp.User); err != nil {
			zctx.From(ctx).Warn("Store refreshed user", zap.Error(err))
		}
	}
	zctx.From(ctx).Debug("Token refreshed")
	return resp.Token, nil
}

func (m *Manager) establish(ctx context.Context, s auth.Session) (auth.Session, error) {
	if err := m.store.SaveSession(ctx, s); err != nil {
		return auth.Session{}, errors.Wrap(err, "store session")
	}
	zctx.From(ctx).Info("Signed in", zap.String("user_id", s.User.ID))
	return s, nil
}
