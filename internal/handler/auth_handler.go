package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"authgate/internal/apperr"
	"authgate/internal/auth"
	"authgate/internal/middleware"
	"authgate/internal/model"
	"authgate/internal/service"
)

// AuthHandler handles registration, credential sign-in and session endpoints.
type AuthHandler struct {
	authService service.AuthService
	jwtService  *auth.JWTService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService, jwtService *auth.JWTService) *AuthHandler {
	return &AuthHandler{authService: authService, jwtService: jwtService}
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Name     string `json:"name" form:"name" validate:"required"`
	// Email is normalized (trimmed, lowercased) by the service, so only
	// presence is validated here.
	Email    string `json:"email" form:"email" validate:"required"`
	Password string `json:"password" form:"password" validate:"required,min=6"`
}

// LoginRequest represents a credential sign-in request.
type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// AuthResponse represents a successful sign-in response. The token is also set
// as the session cookie.
type AuthResponse struct {
	Token string         `json:"token"`
	User  model.Identity `json:"user"`
}

// RegisteredUser is the public projection returned after registration.
type RegisteredUser struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Register godoc
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} apperr.ErrorResponse
// @Failure 409 {object} apperr.ErrorResponse
// @Failure 500 {object} apperr.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.authService.Register(c.Request().Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return h.mapError(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "User created",
		"user":    RegisteredUser{ID: user.ID, Name: user.Name, Email: user.Email},
	})
}

// Login godoc
// @Summary Sign in with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} apperr.ErrorResponse
// @Failure 401 {object} apperr.ErrorResponse
// @Failure 500 {object} apperr.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, identity, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return h.mapError(c, err)
	}

	setSessionCookie(c, token)
	return c.JSON(http.StatusOK, AuthResponse{Token: token, User: identity})
}

// Logout godoc
// @Summary Sign out
// @Description Sessions are stateless; logout discards the client's cookie.
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]string
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	clearSessionCookie(c)
	return c.JSON(http.StatusOK, map[string]string{
		"message": "logged out successfully",
	})
}

// Session godoc
// @Summary Introspect the current session
// @Description Returns the session projection for a valid token, or user null.
// @Tags auth
// @Produce json
// @Success 200 {object} auth.Session
// @Router /auth/session [get]
func (h *AuthHandler) Session(c echo.Context) error {
	token := middleware.TokenFromRequest(c)
	if token == "" {
		return c.JSON(http.StatusOK, echo.Map{"user": nil})
	}
	claims, err := h.jwtService.Validate(token)
	if err != nil {
		// Introspection reports anonymity, it never challenges.
		return c.JSON(http.StatusOK, echo.Map{"user": nil})
	}
	return c.JSON(http.StatusOK, claims.Session())
}

// Me godoc
// @Summary Current session, from the gate-validated claims
// @Tags auth
// @Produce json
// @Success 200 {object} auth.Session
// @Security BearerAuth
// @Router /me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	claims := middleware.SessionFromContext(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "no session")
	}
	return c.JSON(http.StatusOK, claims.Session())
}

func (h *AuthHandler) mapError(c echo.Context, err error) error {
	he := apperr.MapToHTTP(err)
	if he.StatusCode >= http.StatusInternalServerError {
		c.Logger().Errorf("auth: %v", err)
	}
	return echo.NewHTTPError(he.StatusCode, he.ToErrorResponse())
}

func setSessionCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.SessionTokenExpiry.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
