// Package route maps authentication state to the root screen stack and
// resolves deep links to screens.
package route

import (
	"net/url"
	"strings"

	"github.com/xenking/kart-storefront/internal/domain/auth"
)

// Root is the top-level screen stack.
type Root int

const (
	RootSplash Root = iota
	RootAuth
	RootApp
)

func (r Root) String() string {
	switch r {
	case RootSplash:
		return "splash"
	case RootAuth:
		return "auth"
	case RootApp:
		return "app"
	default:
		return "unknown"
	}
}

// Select is a pure function of the bootstrap state.
func Select(st auth.State) Root {
	switch st {
	case auth.Authenticated:
		return RootApp
	case auth.Unauthenticated:
		return RootAuth
	default:
		return RootSplash
	}
}

// Screen names a destination.
type Screen string

const (
	Splash         Screen = "Splash"
	Login          Screen = "Login"
	Register       Screen = "Register"
	OTP            Screen = "OTP"
	ForgotPassword Screen = "ForgotPassword"
	Home           Screen = "Home"
	Categories     Screen = "Categories"
	Cart           Screen = "Cart"
	Orders         Screen = "Orders"
	Profile        Screen = "Profile"
	ProductDetail  Screen = "ProductDetail"
	Checkout       Screen = "Checkout"
	OrderSuccess   Screen = "OrderSuccess"
	OrderDetail    Screen = "OrderDetail"
	EditProfile    Screen = "EditProfile"
	Settings       Screen = "Settings"
)

// Root returns the stack the screen belongs to.
func (s Screen) Root() Root {
	switch s {
	case Splash:
		return RootSplash
	case Login, Register, OTP, ForgotPassword:
		return RootAuth
	default:
		return RootApp
	}
}

// Target is a resolved destination with its path parameters.
type Target struct {
	Screen Screen
	Params map[string]string
}

// Param returns a path or query parameter.
func (t Target) Param(name string) string {
	return t.Params[name]
}

// Path renders the target back to its link path.
func (t Target) Path() string {
	for _, p := range patterns {
		if p.screen != t.Screen {
			continue
		}
		segs := make([]string, len(p.segments))
		for i, seg := range p.segments {
			if name, ok := strings.CutPrefix(seg, ":"); ok {
				segs[i] = url.PathEscape(t.Params[name])
				continue
			}
			segs[i] = seg
		}
		return strings.Join(segs, "/")
	}
	return ""
}

type pattern struct {
	segments []string
	screen   Screen
}

func newPattern(path string, screen Screen) pattern {
	return pattern{segments: strings.Split(path, "/"), screen: screen}
}

// More specific patterns come first: order/success/:orderId before
// order/:orderId.
var patterns = []pattern{
	newPattern("splash", Splash),
	newPattern("auth/login", Login),
	newPattern("auth/register", Register),
	newPattern("auth/otp", OTP),
	newPattern("auth/forgot-password", ForgotPassword),
	newPattern("home", Home),
	newPattern("categories", Categories),
	newPattern("cart", Cart),
	newPattern("orders", Orders),
	newPattern("profile/edit", EditProfile),
	newPattern("profile", Profile),
	newPattern("product/:productId", ProductDetail),
	newPattern("checkout", Checkout),
	newPattern("order/success/:orderId", OrderSuccess),
	newPattern("order/:orderId", OrderDetail),
	newPattern("settings", Settings),
}

func (p pattern) match(segs []string) (map[string]string, bool) {
	if len(segs) != len(p.segments) {
		return nil, false
	}
	params := make(map[string]string)
	for i, want := range p.segments {
		if name, ok := strings.CutPrefix(want, ":"); ok {
			v, err := url.PathUnescape(segs[i])
			if err != nil || v == "" {
				return nil, false
			}
			params[name] = v
			continue
		}
		if segs[i] != want {
			return nil, false
		}
	}
	return params, true
}
