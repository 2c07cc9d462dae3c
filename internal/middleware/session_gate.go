package middleware

import (
	"net/http"
	"net/url"
	"strings"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"authgate/internal/auth"
)

const (
	// SessionCookie is the cookie carrying the session token in browser flows.
	SessionCookie = "session_token"
	// LoginPath is where unauthenticated requests are challenged to.
	LoginPath = "/login"
	// CallbackParam preserves the originally requested URL across the challenge.
	CallbackParam = "callbackUrl"

	sessionContextKey = "session"
)

// publicPrefixes is the ordered table of path prefixes reachable without a
// session token. Adding a public route is a one-line edit here.
var publicPrefixes = []string{
	LoginPath,
	"/register",
	"/api/auth",
}

// skipPrefixes are infrastructure paths that bypass classification entirely
// and must never trigger the challenge.
var skipPrefixes = []string{
	"/healthz",
	"/swagger",
	"/favicon.ico",
	"/assets",
	"/api/auth",
}

// SessionGate intercepts every request: public and infrastructure paths pass
// through untouched, everything else requires a valid session token. Token
// checks are pure in-memory signature/expiry validation; the gate never
// touches a store. Requests without a valid token are redirected to the login
// page with the original URL preserved as a callback parameter.
func SessionGate(jwtService *auth.JWTService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  sessionContextKey,
		TokenLookup: "cookie:" + SessionCookie + ",header:" + echo.HeaderAuthorization + ":Bearer ",
		Skipper: func(c echo.Context) bool {
			return bypassesGate(c.Request().URL.Path)
		},
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return jwtService.Validate(token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			// Expired and invalid tokens challenge identically; the log keeps
			// them apart.
			c.Logger().Infof("session gate: %v, challenging %s", err, c.Request().URL.Path)
			return Challenge(c)
		},
	})
}

// Challenge short-circuits the request with a redirect to the login page,
// carrying the originally requested URL so the client can be sent back after
// authenticating.
func Challenge(c echo.Context) error {
	req := c.Request()
	original := c.Scheme() + "://" + req.Host + req.RequestURI
	target := LoginPath + "?" + CallbackParam + "=" + url.QueryEscape(original)
	return c.Redirect(http.StatusTemporaryRedirect, target)
}

// SessionFromContext returns the validated session claims the gate attached,
// or nil on a public route reached without a token.
func SessionFromContext(c echo.Context) *auth.Claims {
	claims, _ := c.Get(sessionContextKey).(*auth.Claims)
	return claims
}

// TokenFromRequest extracts a session token the same way the gate does:
// cookie first, then bearer header. Returns "" if neither is present. Used by
// handlers on public routes, where the gate does not run.
func TokenFromRequest(c echo.Context) string {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return token
	}
	return ""
}

func bypassesGate(path string) bool {
	return matchesPrefix(path, skipPrefixes) || matchesPrefix(path, publicPrefixes)
}

func matchesPrefix(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
