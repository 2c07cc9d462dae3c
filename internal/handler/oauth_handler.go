package handler

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"authgate/internal/auth"
	"authgate/internal/middleware"
	"authgate/internal/service"
)

// OAuthHandler drives the redirect-based Google sign-in handshake.
type OAuthHandler struct {
	oauthService service.OAuthService
	stateStore   auth.StateStoreInterface
}

// NewOAuthHandler creates a new OAuth handler.
func NewOAuthHandler(oauthService service.OAuthService, stateStore auth.StateStoreInterface) *OAuthHandler {
	return &OAuthHandler{oauthService: oauthService, stateStore: stateStore}
}

// Start godoc
// @Summary Begin Google sign-in
// @Description Redirects to the provider's consent page. The callbackUrl query
// @Description parameter is preserved across the handshake.
// @Tags auth
// @Param callbackUrl query string false "URL to return to after sign-in"
// @Success 302
// @Router /auth/google [get]
func (h *OAuthHandler) Start(c echo.Context) error {
	callbackURL := c.QueryParam(middleware.CallbackParam)
	if callbackURL == "" {
		callbackURL = "/"
	}

	state, err := h.stateStore.Issue(c.Request().Context(), callbackURL)
	if err != nil {
		c.Logger().Errorf("oauth: issue state: %v", err)
		return h.denied(c, "signin_failed")
	}
	return c.Redirect(http.StatusFound, h.oauthService.AuthCodeURL(state))
}

// Callback godoc
// @Summary Google sign-in return leg
// @Description Validates state, reconciles the asserted identity against the
// @Description user store and issues a session token. Any failure denies
// @Description access and lands back on the login page.
// @Tags auth
// @Param code query string false "Authorization code"
// @Param state query string false "State nonce"
// @Success 302
// @Router /auth/google/callback [get]
func (h *OAuthHandler) Callback(c echo.Context) error {
	ctx := c.Request().Context()

	callbackURL, ok := h.stateStore.Consume(ctx, c.QueryParam("state"))
	if !ok {
		c.Logger().Warnf("oauth: state mismatch or replay")
		return h.denied(c, "invalid_state")
	}

	code := c.QueryParam("code")
	if code == "" {
		// Provider declined (error=access_denied and friends).
		return h.denied(c, "access_denied")
	}

	profile, err := h.oauthService.FetchProfile(ctx, code)
	if err != nil {
		c.Logger().Errorf("oauth: %v", err)
		return h.denied(c, "signin_failed")
	}

	token, _, err := h.oauthService.SignIn(ctx, profile)
	if err != nil {
		c.Logger().Errorf("oauth: %v", err)
		return h.denied(c, "signin_failed")
	}

	setSessionCookie(c, token)
	return c.Redirect(http.StatusFound, sanitizeCallback(c, callbackURL))
}

func (h *OAuthHandler) denied(c echo.Context, reason string) error {
	return c.Redirect(http.StatusFound, middleware.LoginPath+"?error="+url.QueryEscape(reason))
}

// sanitizeCallback keeps the post-login redirect on this host.
func sanitizeCallback(c echo.Context, callback string) string {
	parsed, err := url.Parse(callback)
	if err != nil {
		return "/"
	}
	if parsed.Host != "" && parsed.Host != c.Request().Host {
		return "/"
	}
	return callback
}
