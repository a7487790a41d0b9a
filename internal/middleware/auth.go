package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const customerIDKey = "customer_id"

// Auth resolves the authenticated customer from a bearer token issued by the
// identity service. This core only trusts the signature and reads the
// subject; account management lives elsewhere.
func Auth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			token, err := jwt.Parse(strings.TrimPrefix(header, "Bearer "),
				func(t *jwt.Token) (interface{}, error) {
					return []byte(secret), nil
				},
				jwt.WithValidMethods([]string{"HS256"}),
			)
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			subject, err := token.Claims.GetSubject()
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
			}
			customerID, err := strconv.ParseUint(subject, 10, 64)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
			}

			c.Set(customerIDKey, uint(customerID))
			return next(c)
		}
	}
}

// CustomerID returns the customer resolved by Auth.
func CustomerID(c echo.Context) (uint, error) {
	id, ok := c.Get(customerIDKey).(uint)
	if !ok || id == 0 {
		return 0, fmt.Errorf("no authenticated customer on request")
	}
	return id, nil
}
