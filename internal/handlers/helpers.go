package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"enstore_storefront/internal/apiclient"
	"enstore_storefront/internal/checkout"
	"enstore_storefront/internal/models"
	"enstore_storefront/web/templates/shared"
)

// Helper to safely get string from context
func getStringFromContext(c echo.Context, key string) string {
	val := c.Get(key)
	if val == nil {
		return ""
	}
	strVal, ok := val.(string)
	if !ok {
		return ""
	}
	return strVal
}

// renderPage writes a page with a non-default status code.
func renderPage(c echo.Context, code int, page templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return page.Render(c.Request().Context(), c.Response())
}

func layout(c echo.Context, title, nav string, crumbs ...string) shared.Layout {
	return shared.Layout{
		Title:       title,
		ActiveNav:   nav,
		Breadcrumbs: shared.Crumbs(crumbs...),
		UserEmail:   getStringFromContext(c, "userEmail"),
		UserUID:     getStringFromContext(c, "userUID"),
	}
}

func parseUint(s string) uint {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return uint(v)
}

func parsePage(s string) int {
	page, err := strconv.Atoi(s)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// userMessage turns a checkout or API error into text for the form and the
// status code to render it with.
func userMessage(err error) (int, string, []string) {
	var (
		validErr *checkout.ValidationError
		apiErr   *apiclient.ApiError
		netErr   *apiclient.NetworkError
	)
	switch {
	case errors.As(err, &validErr):
		return http.StatusUnprocessableEntity, validErr.Message, nil
	case errors.Is(err, checkout.ErrItemUnavailable):
		return http.StatusUnprocessableEntity, "This package is not available right now.", nil
	case errors.Is(err, checkout.ErrChannelUnavailable):
		return http.StatusUnprocessableEntity, "This payment method is not available right now.", nil
	case errors.Is(err, checkout.ErrSubmitting):
		return http.StatusConflict, "Your order is already being processed.", nil
	case errors.As(err, &apiErr):
		code := apiErr.StatusCode
		if code < http.StatusBadRequest {
			code = http.StatusBadGateway
		}
		msg := apiErr.Message
		if msg == "" {
			msg = apiclient.DefaultErrorMessage
		}
		return code, msg, apiErr.FieldErrors()
	case errors.As(err, &netErr):
		return http.StatusBadGateway, apiclient.DefaultErrorMessage, nil
	default:
		return http.StatusInternalServerError, apiclient.DefaultErrorMessage, nil
	}
}

// notFound converts an API 404 into an echo 404 and passes other errors on.
func notFound(err error, message string) error {
	var apiErr *apiclient.ApiError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return echo.NewHTTPError(http.StatusNotFound, message)
	}
	return err
}

// observe records a status snapshot locally. The local mirror is best effort.
func observe(ctx context.Context, w Watcher, tx models.Transaction, source models.StatusSource) {
	if w == nil || tx.TransactionCode == "" {
		return
	}
	if _, err := w.Observe(context.WithoutCancel(ctx), tx, source); err != nil {
		log.Printf("Failed to record status of %s: %v", tx.TransactionCode, err)
	}
}
