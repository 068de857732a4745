package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"

	"enstore_storefront/internal/middleware"
	"enstore_storefront/web/templates/pages"
)

// opsSessionTTL is the lifetime of an operator session cookie
const opsSessionTTL = time.Hour * 24 * 5

// TokenExchanger verifies Firebase ID tokens and turns them into session
// cookies. *auth.Client implements it.
type TokenExchanger interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
	SessionCookie(ctx context.Context, idToken string, expiresIn time.Duration) (string, error)
}

// LoginConfig is the Firebase web config rendered into the sign-in page
type LoginConfig struct {
	APIKey     string
	AuthDomain string
	ProjectID  string
	Secure     bool
}

// AuthHandler handles operator authentication endpoints
type AuthHandler struct {
	authClient TokenExchanger
	cfg        LoginConfig
}

// NewAuthHandler creates a new AuthHandler. authClient may be nil when
// Firebase is not configured.
func NewAuthHandler(authClient TokenExchanger, cfg LoginConfig) *AuthHandler {
	return &AuthHandler{authClient: authClient, cfg: cfg}
}

// LoginPage renders the login page
func (h *AuthHandler) LoginPage(c echo.Context) error {
	props := pages.LoginProps{
		FirebaseAPIKey:     h.cfg.APIKey,
		FirebaseAuthDomain: h.cfg.AuthDomain,
		FirebaseProjectID:  h.cfg.ProjectID,
	}
	if c.QueryParam("error") == "auth_not_configured" {
		props.Error = "Sign-in is not configured on this server."
	}
	return pages.Login(props).Render(c.Request().Context(), c.Response())
}

// HandleLogin verifies the Firebase ID token and creates a session cookie
func (h *AuthHandler) HandleLogin(c echo.Context) error {
	if h.authClient == nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Firebase not initialized",
		})
	}

	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "Missing authorization header",
		})
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "Invalid authorization format",
		})
	}

	if _, err := h.authClient.VerifyIDToken(c.Request().Context(), tokenString); err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "Invalid token",
		})
	}

	cookieValue, err := h.authClient.SessionCookie(c.Request().Context(), tokenString, opsSessionTTL)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to create session",
		})
	}

	c.SetCookie(&http.Cookie{
		Name:     middleware.OpsSessionCookie,
		Value:    cookieValue,
		MaxAge:   int(opsSessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.Secure,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})

	return c.JSON(http.StatusOK, map[string]string{
		"status": "success",
	})
}

// HandleLogout clears the session cookie
func (h *AuthHandler) HandleLogout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     middleware.OpsSessionCookie,
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		Path:     "/",
	})

	return c.JSON(http.StatusOK, map[string]string{
		"status": "logged out",
	})
}
