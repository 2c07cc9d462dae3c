package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"authgate/internal/model"
)

// SessionTokenExpiry is the fixed validity window of a session token. There is
// no sliding renewal; a token lives this long from issuance regardless of
// activity.
const SessionTokenExpiry = 10 * 24 * time.Hour

var (
	// ErrTokenInvalid is returned for malformed, unsigned or tampered tokens.
	ErrTokenInvalid = errors.New("invalid session token")
	// ErrTokenExpired is returned when the token is past its expiry. Callers
	// must treat it exactly like ErrTokenInvalid (deny); the distinction only
	// exists for logging.
	ErrTokenExpired = errors.New("expired session token")
)

// Claims are the session token claims: the identity projection minted at
// sign-in. The password hash is never part of a token.
type Claims struct {
	UserID uint   `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Session is the externally visible session object handed to callers after a
// token validates.
type Session struct {
	User model.Identity `json:"user"`
}

// JWTService signs and validates session tokens with a process-wide secret.
type JWTService struct {
	secret []byte
}

// NewJWTService creates a new JWT service with the given secret.
func NewJWTService(secret string) *JWTService {
	return &JWTService{
		secret: []byte(secret),
	}
}

// Issue mints a signed session token for a verified identity, valid for
// SessionTokenExpiry from now.
func (s *JWTService) Issue(identity model.Identity) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: identity.ID,
		Name:   identity.Name,
		Email:  identity.Email,
		Role:   identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate checks signature and expiry and returns the embedded claims.
func (s *JWTService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// Session projects validated claims into the session object.
func (c *Claims) Session() Session {
	return Session{User: model.Identity{
		ID:    c.UserID,
		Name:  c.Name,
		Email: c.Email,
		Role:  c.Role,
	}}
}
