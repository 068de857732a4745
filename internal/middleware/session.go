package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"enstore_storefront/internal/apiclient"
)

// CustomerTokenCookie carries the customer's API bearer token
const CustomerTokenCookie = "storefront_token"

// CustomerSession attaches the customer's bearer token, when present, to the
// request context so API calls made for this request are authenticated.
func CustomerSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(CustomerTokenCookie)
			if err == nil && cookie.Value != "" {
				req := c.Request()
				c.SetRequest(req.WithContext(apiclient.WithToken(req.Context(), cookie.Value)))
				c.Set("customerSignedIn", true)
			}
			return next(c)
		}
	}
}

// RequireCustomer rejects requests without a customer token.
func RequireCustomer() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if signedIn, _ := c.Get("customerSignedIn").(bool); !signedIn {
				return echo.NewHTTPError(http.StatusUnauthorized, "Please sign in to see your transactions.")
			}
			return next(c)
		}
	}
}
