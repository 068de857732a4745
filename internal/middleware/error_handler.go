package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"enstore_storefront/internal/apiclient"
	"enstore_storefront/internal/checkout"
	"enstore_storefront/web/templates/pages"
	"enstore_storefront/web/templates/shared"
)

// ErrorResponse is the JSON body returned to fetch() callers
type ErrorResponse struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

// CustomErrorHandler creates a custom error handler for Echo
func CustomErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		c.Logger().Error(err)
		return
	}

	code, errorTitle, errorMessage, fieldErrors := describe(err)

	c.Logger().Error(err)

	if WantsJSON(c) {
		if jerr := c.JSON(code, ErrorResponse{Message: errorMessage, Errors: fieldErrors}); jerr != nil {
			c.Logger().Error(jerr)
		}
		return
	}

	props := pages.ErrorPageProps{
		Layout: shared.Layout{
			Title:       errorTitle,
			Breadcrumbs: shared.Crumbs("Error", ""),
			UserEmail:   stringFromContext(c, "userEmail"),
			UserUID:     stringFromContext(c, "userUID"),
		},
		ErrorTitle:   errorTitle,
		ErrorMessage: errorMessage,
		FieldErrors:  fieldErrors,
	}
	if strings.HasPrefix(c.Request().URL.Path, "/ops") {
		props.BackLink, props.BackText = "/ops/transactions", "Back to transactions"
	} else {
		props.BackLink, props.BackText = "/services", "Back to services"
	}

	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	if renderErr := pages.ErrorPage(props).Render(c.Request().Context(), c.Response()); renderErr != nil {
		// Fallback to plain text if template fails
		c.Logger().Error(fmt.Errorf("failed to render error page: %w", renderErr))
		_, _ = c.Response().Write([]byte(errorMessage))
	}
}

// describe maps an error to status code, title, message and field errors.
func describe(err error) (int, string, string, []string) {
	var (
		he        *echo.HTTPError
		apiErr    *apiclient.ApiError
		netErr    *apiclient.NetworkError
		validErr  *checkout.ValidationError
		code      = http.StatusInternalServerError
		message   string
		fieldErrs []string
	)

	switch {
	case errors.As(err, &he):
		code = he.Code
		if msg, ok := he.Message.(string); ok {
			message = msg
		}
	case errors.As(err, &validErr):
		code = http.StatusUnprocessableEntity
		message = validErr.Message
	case errors.As(err, &apiErr):
		code = apiErr.StatusCode
		if code < http.StatusBadRequest {
			code = http.StatusBadGateway
		}
		message = apiErr.Message
		fieldErrs = apiErr.FieldErrors()
	case errors.As(err, &netErr):
		code = http.StatusBadGateway
		message = apiclient.DefaultErrorMessage
	}

	var title string
	switch code {
	case http.StatusNotFound:
		title = "Page Not Found"
		if message == "" {
			message = "The page you're looking for doesn't exist."
		}
	case http.StatusForbidden:
		title = "Access Denied"
		if message == "" {
			message = "You don't have permission to access this resource."
		}
	case http.StatusUnauthorized:
		title = "Unauthorized"
		if message == "" {
			message = "Please log in to continue."
		}
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		title = "Bad Request"
		if message == "" {
			message = "The request could not be processed."
		}
	case http.StatusBadGateway:
		title = "Service Unavailable"
	default:
		title = "Internal Server Error"
	}
	if message == "" {
		message = apiclient.DefaultErrorMessage
	}
	return code, title, message, fieldErrs
}

// WantsJSON reports whether the caller asked for a JSON response.
func WantsJSON(c echo.Context) bool {
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}

func stringFromContext(c echo.Context, key string) string {
	s, _ := c.Get(key).(string)
	return s
}
