package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	ContextBuyerKey = "buyer_email"
	ContextRoleKey  = "role"

	RoleStaff = "staff"
)

type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Auth verifies the bearer token issued by the identity layer and puts the
// buyer identity on the request context. The core rejects any call lacking
// one.
func Auth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(header, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(
				strings.TrimPrefix(header, "Bearer "),
				claims,
				func(t *jwt.Token) (any, error) { return []byte(secret), nil },
				jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			)
			if err != nil || !token.Valid || claims.Email == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(ContextBuyerKey, claims.Email)
			c.Set(ContextRoleKey, claims.Role)
			return next(c)
		}
	}
}

// RequireStaff gates endpoints reserved for venue staff (gate scanners,
// booking lookups across buyers).
func RequireStaff() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if Role(c) != RoleStaff {
				return echo.NewHTTPError(http.StatusForbidden, "staff access required")
			}
			return next(c)
		}
	}
}

func BuyerEmail(c echo.Context) string {
	email, _ := c.Get(ContextBuyerKey).(string)
	return email
}

func Role(c echo.Context) string {
	role, _ := c.Get(ContextRoleKey).(string)
	return role
}
