package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"authgate/internal/apperr"
	"authgate/internal/middleware"
	"authgate/internal/model"
	"authgate/internal/service"
)

// MockOAuthService is a mock implementation of service.OAuthService.
type MockOAuthService struct {
	mock.Mock
}

func (m *MockOAuthService) AuthCodeURL(state string) string {
	args := m.Called(state)
	return args.String(0)
}

func (m *MockOAuthService) FetchProfile(ctx context.Context, code string) (service.ProviderProfile, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(service.ProviderProfile), args.Error(1)
}

func (m *MockOAuthService) SignIn(ctx context.Context, profile service.ProviderProfile) (string, model.Identity, error) {
	args := m.Called(ctx, profile)
	return args.String(0), args.Get(1).(model.Identity), args.Error(2)
}

// MockStateStore is a mock implementation of auth.StateStoreInterface.
type MockStateStore struct {
	mock.Mock
}

func (m *MockStateStore) Issue(ctx context.Context, callbackURL string) (string, error) {
	args := m.Called(ctx, callbackURL)
	return args.String(0), args.Error(1)
}

func (m *MockStateStore) Consume(ctx context.Context, state string) (string, bool) {
	args := m.Called(ctx, state)
	return args.String(0), args.Bool(1)
}

func TestOAuthHandler_StartRedirectsToProvider(t *testing.T) {
	svc := new(MockOAuthService)
	states := new(MockStateStore)
	states.On("Issue", mock.Anything, "/dashboard").Return("nonce-1", nil)
	svc.On("AuthCodeURL", "nonce-1").Return("https://accounts.google.com/o/oauth2/auth?state=nonce-1")

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/google?callbackUrl="+url.QueryEscape("/dashboard"), nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	assert.NoError(t, NewOAuthHandler(svc, states).Start(c))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderLocation), "accounts.google.com")
	states.AssertExpectations(t)
}

func TestOAuthHandler_StartDefaultsCallbackToRoot(t *testing.T) {
	svc := new(MockOAuthService)
	states := new(MockStateStore)
	states.On("Issue", mock.Anything, "/").Return("nonce-1", nil)
	svc.On("AuthCodeURL", "nonce-1").Return("https://accounts.google.com/o/oauth2/auth")

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/google", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	assert.NoError(t, NewOAuthHandler(svc, states).Start(c))
	assert.Equal(t, http.StatusFound, rec.Code)
}

func TestOAuthHandler_CallbackSuccess(t *testing.T) {
	profile := service.ProviderProfile{Email: "new@gmail.com", Name: "New User"}
	svc := new(MockOAuthService)
	states := new(MockStateStore)
	states.On("Consume", mock.Anything, "nonce-1").Return("/dashboard", true)
	svc.On("FetchProfile", mock.Anything, "auth-code").Return(profile, nil)
	svc.On("SignIn", mock.Anything, profile).Return("signed-token", model.Identity{ID: 11}, nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?code=auth-code&state=nonce-1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	assert.NoError(t, NewOAuthHandler(svc, states).Callback(c))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get(echo.HeaderLocation))

	cookies := rec.Result().Cookies()
	assert.Len(t, cookies, 1)
	assert.Equal(t, middleware.SessionCookie, cookies[0].Name)
	assert.Equal(t, "signed-token", cookies[0].Value)
	svc.AssertExpectations(t)
	states.AssertExpectations(t)
}

func TestOAuthHandler_CallbackRejectsBadState(t *testing.T) {
	svc := new(MockOAuthService)
	states := new(MockStateStore)
	states.On("Consume", mock.Anything, "replayed").Return("", false)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?code=auth-code&state=replayed", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	assert.NoError(t, NewOAuthHandler(svc, states).Callback(c))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderLocation), middleware.LoginPath+"?error=invalid_state")
	assert.Empty(t, rec.Result().Cookies(), "no session on state mismatch")
	svc.AssertNotCalled(t, "FetchProfile", mock.Anything, mock.Anything)
}

func TestOAuthHandler_CallbackWithoutCode(t *testing.T) {
	svc := new(MockOAuthService)
	states := new(MockStateStore)
	states.On("Consume", mock.Anything, "nonce-1").Return("/", true)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?state=nonce-1&error=access_denied", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	assert.NoError(t, NewOAuthHandler(svc, states).Callback(c))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderLocation), "error=access_denied")
}

func TestOAuthHandler_CallbackFailsClosedOnStoreError(t *testing.T) {
	profile := service.ProviderProfile{Email: "new@gmail.com"}
	svc := new(MockOAuthService)
	states := new(MockStateStore)
	states.On("Consume", mock.Anything, "nonce-1").Return("/", true)
	svc.On("FetchProfile", mock.Anything, "auth-code").Return(profile, nil)
	svc.On("SignIn", mock.Anything, profile).Return("", model.Identity{}, apperr.ErrStoreUnavailable)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?code=auth-code&state=nonce-1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	assert.NoError(t, NewOAuthHandler(svc, states).Callback(c))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderLocation), "error=signin_failed")
	assert.Empty(t, rec.Result().Cookies())
}

func TestSanitizeCallback(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "example.com"
	c := e.NewContext(req, httptest.NewRecorder())

	assert.Equal(t, "/dashboard", sanitizeCallback(c, "/dashboard"))
	assert.Equal(t, "http://example.com/x", sanitizeCallback(c, "http://example.com/x"))
	assert.Equal(t, "/", sanitizeCallback(c, "https://evil.example.net/phish"))
}
