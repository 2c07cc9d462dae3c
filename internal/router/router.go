package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"authgate/internal/auth"
	"authgate/internal/config"
	"authgate/internal/handler"
	"authgate/internal/middleware"
)

// Register wires routes and middleware. The session gate runs on every
// request; the public set and infrastructure skip list live in the gate's
// prefix tables.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	jwtService *auth.JWTService,
	authHandler *handler.AuthHandler,
	oauthHandler *handler.OAuthHandler,
	pageHandler *handler.PageHandler,
) {
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(middleware.SessionGate(jwtService))

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Pages
	e.GET("/", pageHandler.Welcome)
	e.GET("/login", pageHandler.Login)
	e.GET("/register", pageHandler.Register)

	api := e.Group("/api")

	// Authentication API namespace; public by the gate's prefix table.
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/logout", authHandler.Logout)
	api.GET("/auth/session", authHandler.Session)
	api.GET("/auth/google", oauthHandler.Start)
	api.GET("/auth/google/callback", oauthHandler.Callback)

	// Everything else under /api is protected by the gate.
	api.GET("/me", authHandler.Me)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
