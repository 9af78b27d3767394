// Package auth holds the session model and the launch-time authentication
// bootstrap.
package auth

import "context"

// User is the signed-in customer's profile as returned by the API.
type User struct {
	ID    string
	Email string
	Name  string
	Phone string
}

// IsZero reports whether the record carries no data at all.
func (u User) IsZero() bool {
	return u == User{}
}

// Session is the locally stored authentication state.
type Session struct {
	Token        string
	RefreshToken string
	User         User
}

// Valid reports whether the session has both a token and a user record.
// Validity is judged from presence only; the server is not consulted.
func (s Session) Valid() bool {
	return s.Token != "" && !s.User.IsZero()
}

// SessionReader loads the persisted session. Implementations fail open: read
// errors are reported as an absent value.
type SessionReader interface {
	LoadToken(ctx context.Context) (string, bool)
	LoadUser(ctx context.Context) (User, bool)
}
