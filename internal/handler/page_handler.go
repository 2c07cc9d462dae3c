package handler

import (
	"html"
	"net/http"

	"github.com/labstack/echo/v4"

	"authgate/internal/middleware"
)

// PageHandler serves minimal HTML stand-ins for the sign-in, registration and
// welcome pages. The real presentation layer lives elsewhere; these exist so
// the challenge redirect has somewhere to land.
type PageHandler struct{}

// NewPageHandler creates a new page handler.
func NewPageHandler() *PageHandler {
	return &PageHandler{}
}

const loginPage = `<!DOCTYPE html>
<html>
<head><title>Sign in</title></head>
<body>
<h1>Sign in</h1>
<form method="post" action="/api/auth/login">
  <input name="email" type="email" placeholder="Email" required>
  <input name="password" type="password" placeholder="Password" required>
  <button type="submit">Sign in</button>
</form>
<p><a href="/api/auth/google">Sign in with Google</a></p>
<p><a href="/register">Create an account</a></p>
</body>
</html>`

const registerPage = `<!DOCTYPE html>
<html>
<head><title>Register</title></head>
<body>
<h1>Register</h1>
<form method="post" action="/api/auth/register">
  <input name="name" type="text" placeholder="Name" required>
  <input name="email" type="email" placeholder="Email" required>
  <input name="password" type="password" placeholder="Password" minlength="6" required>
  <button type="submit">Register</button>
</form>
<p><a href="/login">Already have an account?</a></p>
</body>
</html>`

// Login serves the sign-in page.
func (h *PageHandler) Login(c echo.Context) error {
	return c.HTML(http.StatusOK, loginPage)
}

// Register serves the registration page.
func (h *PageHandler) Register(c echo.Context) error {
	return c.HTML(http.StatusOK, registerPage)
}

// Welcome serves the protected landing page. The gate guarantees a session is
// present by the time this runs.
func (h *PageHandler) Welcome(c echo.Context) error {
	claims := middleware.SessionFromContext(c)
	if claims == nil {
		return middleware.Challenge(c)
	}
	return c.HTML(http.StatusOK,
		"<!DOCTYPE html><html><body><h1>Welcome, "+html.EscapeString(claims.Name)+
			"</h1><p>"+html.EscapeString(claims.Email)+
			`</p><form method="post" action="/api/auth/logout"><button type="submit">Sign out</button></form></body></html>`)
}
