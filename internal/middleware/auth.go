package middleware

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"kwetu-order-bot/internal/apperr"
)

const ClaimsKey = "admin_claims"

// AdminJWT guards the admin API with HS256 bearer tokens. An empty secret
// rejects every request.
func AdminJWT(secret string) echo.MiddlewareFunc {
	key := []byte(secret)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if len(key) == 0 {
				return apperr.UnauthorizedErr("admin api disabled")
			}

			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if auth == "" {
				return apperr.UnauthorizedErr("missing authorization")
			}
			parts := strings.Fields(auth)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return apperr.UnauthorizedErr("invalid authorization header")
			}

			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return key, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !token.Valid {
				return apperr.UnauthorizedErr("invalid token")
			}

			c.Set(ClaimsKey, claims)
			return next(c)
		}
	}
}
