package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"storefront-api/internal/service"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const principalKey = "principal"

// Claims are the bearer token claims. Subject carries the user id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// RequireAuth rejects requests without a valid HS256 bearer token.
func RequireAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, err := authenticate(c.Request(), secret)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized").SetInternal(err)
			}
			c.Set(principalKey, principal)
			return next(c)
		}
	}
}

// OptionalAuth attaches the principal when a token is sent; anonymous requests pass through.
func OptionalAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get(echo.HeaderAuthorization) == "" {
				return next(c)
			}
			principal, err := authenticate(c.Request(), secret)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized").SetInternal(err)
			}
			c.Set(principalKey, principal)
			return next(c)
		}
	}
}

func PrincipalFrom(c echo.Context) (service.Principal, bool) {
	principal, ok := c.Get(principalKey).(service.Principal)
	return principal, ok
}

func authenticate(r *http.Request, secret string) (service.Principal, error) {
	if secret == "" {
		return service.Principal{}, errors.New("jwt secret not configured")
	}

	header := r.Header.Get(echo.HeaderAuthorization)
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return service.Principal{}, errors.New("missing bearer token")
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return service.Principal{}, fmt.Errorf("parse token: %w", err)
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || userID == 0 {
		return service.Principal{}, fmt.Errorf("invalid subject %q", claims.Subject)
	}

	role := service.RoleCustomer
	if claims.Role == string(service.RoleAdmin) {
		role = service.RoleAdmin
	}

	return service.Principal{UserID: uint(userID), Role: role}, nil
}

// IssueToken signs a token for userID, used by tooling and tests.
func IssueToken(secret string, userID uint, role service.Role, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
