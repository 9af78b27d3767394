package route

import (
	"net/url"
	"strings"

	"github.com/xenking/kart-storefront/internal/domain/auth"
)

// DefaultPrefixes are the accepted link prefixes. A "*" matches exactly one
// or more leading host labels.
var DefaultPrefixes = []string{
	"shopify://",
	"https://shopify.app",
	"https://*.shopify.app",
}

// Resolver turns deep links into targets.
type Resolver struct {
	prefixes []string
}

// NewResolver creates a Resolver. Empty prefixes means DefaultPrefixes.
func NewResolver(prefixes []string) *Resolver {
	if len(prefixes) == 0 {
		prefixes = DefaultPrefixes
	}
	return &Resolver{prefixes: prefixes}
}

// Resolve maps link to a target. Links with a foreign prefix or an unknown
// path resolve to Home. Query parameters are added to Params without
// overriding path parameters.
func (r *Resolver) Resolve(link string) Target {
	rest, ok := r.strip(strings.TrimSpace(link))
	if !ok {
		return Target{Screen: Home}
	}

	path, rawQuery, _ := strings.Cut(rest, "?")
	path, _, _ = strings.Cut(path, "#")
	path = strings.Trim(path, "/")
	if path == "" {
		return Target{Screen: Home}
	}

	segs := strings.Split(path, "/")
	for _, p := range patterns {
		params, ok := p.match(segs)
		if !ok {
			continue
		}
		if q, err := url.ParseQuery(rawQuery); err == nil {
			for k, v := range q {
				if _, exists := params[k]; !exists && len(v) > 0 {
					params[k] = v[0]
				}
			}
		}
		return Target{Screen: p.screen, Params: params}
	}
	return Target{Screen: Home}
}

// strip removes the first matching prefix and returns the remaining path.
func (r *Resolver) strip(link string) (string, bool) {
	for _, prefix := range r.prefixes {
		before, after, wildcard := strings.Cut(prefix, "*")
		if !wildcard {
			if rest, ok := strings.CutPrefix(link, prefix); ok && boundary(prefix, rest) {
				return rest, true
			}
			continue
		}

		rest, ok := strings.CutPrefix(link, before)
		if !ok {
			continue
		}
		end := strings.IndexAny(rest, "/?#")
		if end < 0 {
			end = len(rest)
		}
		host := rest[:end]
		if label, ok := strings.CutSuffix(host, after); ok && label != "" && !strings.HasSuffix(label, ".") {
			return rest[end:], true
		}
	}
	return "", false
}

// boundary rejects matches like "https://shopify.apps.evil" for the prefix
// "https://shopify.app".
func boundary(prefix, rest string) bool {
	if strings.HasSuffix(prefix, "/") || rest == "" {
		return true
	}
	return strings.ContainsRune("/?#", rune(rest[0]))
}

// Gate applies authentication to a target: app screens require a session and
// auth screens are skipped once signed in. While the bootstrap is still
// checking, everything waits on Splash.
func (r *Resolver) Gate(t Target, st auth.State) Target {
	switch st {
	case auth.Checking:
		return Target{Screen: Splash}
	case auth.Unauthenticated:
		if t.Screen.Root() == RootApp {
			return Target{Screen: Login, Params: map[string]string{"redirect": t.Path()}}
		}
	case auth.Authenticated:
		if t.Screen.Root() != RootApp {
			return Target{Screen: Home}
		}
	}
	return t
}
