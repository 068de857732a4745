package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"enstore_storefront/internal/middleware"
	"enstore_storefront/web/templates/pages"
)

// customerTokenTTL is how long the storefront keeps the customer's API token
const customerTokenTTL = 30 * 24 * time.Hour

type AccountHandler struct {
	customers CustomerAPI
	secure    bool
}

func NewAccountHandler(customers CustomerAPI, secureCookies bool) *AccountHandler {
	return &AccountHandler{customers: customers, secure: secureCookies}
}

// History renders the signed-in customer's transactions
func (h *AccountHandler) History(c echo.Context) error {
	ctx := c.Request().Context()

	customer, err := h.customers.Profile(ctx)
	if err != nil {
		return err
	}
	page, err := h.customers.Transactions(ctx, parsePage(c.QueryParam("page")))
	if err != nil {
		return err
	}

	props := pages.AccountHistoryProps{
		Layout:       layout(c, "My transactions", "account", "Account", ""),
		Customer:     customer,
		Transactions: page.Transactions,
		Pagination:   page.Pagination,
	}
	return pages.AccountHistory(props).Render(ctx, c.Response())
}

// StoreSession keeps the API token handed over by the sign-in page
func (h *AccountHandler) StoreSession(c echo.Context) error {
	token := strings.TrimSpace(c.FormValue("token"))
	if token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing token")
	}

	c.SetCookie(&http.Cookie{
		Name:     middleware.CustomerTokenCookie,
		Value:    token,
		MaxAge:   int(customerTokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
	return c.Redirect(http.StatusSeeOther, "/account/transactions")
}

// Logout clears the customer token
func (h *AccountHandler) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     middleware.CustomerTokenCookie,
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		Path:     "/",
	})
	return c.Redirect(http.StatusSeeOther, "/services")
}
