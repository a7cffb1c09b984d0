package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// JWT validates bearer tokens issued by the external auth service and puts
// the caller's id and role on the request context. Token issuance, password
// storage and sessions live outside this service.
func JWT(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, role, err := parseToken(c.Request().Header.Get("Authorization"), secret)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}

			c.Set("user_id", userID)
			c.Set("role", role)
			return next(c)
		}
	}
}

func parseToken(header string, secret []byte) (userID, role string, err error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", "", errors.New("missing bearer token")
	}

	token, err := jwt.Parse(strings.TrimPrefix(header, prefix), func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return "", "", errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", errors.New("invalid token claims")
	}

	userID, ok = claims["id"].(string)
	if !ok || userID == "" {
		return "", "", errors.New("token has no user id")
	}
	role, _ = claims["role"].(string)
	return userID, role, nil
}
