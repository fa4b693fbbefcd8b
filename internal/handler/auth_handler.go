package handler

import (
	"fmt"
	"net/http"

	"mailnick/internal/config"
	"mailnick/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
)

type AuthHandler struct {
	authService service.AuthService
	config      *config.Config
	logger      echo.Logger
}

func NewAuthHandler(authService service.AuthService, config *config.Config, logger echo.Logger) *AuthHandler {
	// Set up goth with Google provider
	gothic.Store = NewSessionStore([]byte(config.SessionSecret))

	goth.UseProviders(
		google.New(
			config.GoogleClientID,
			config.GoogleClientSecret,
			config.BaseURL+"/auth/google/callback",
			"https://www.googleapis.com/auth/gmail.readonly",
			"https://www.googleapis.com/auth/gmail.modify",
			"https://www.googleapis.com/auth/gmail.labels",
			"https://www.googleapis.com/auth/userinfo.email",
		),
	)

	return &AuthHandler{
		authService: authService,
		config:      config,
		logger:      logger,
	}
}

// BeginAuthHandler initiates the OAuth flow
func (h *AuthHandler) BeginAuthHandler(c echo.Context) error {
	provider := c.Param("provider")
	if provider != "google" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid provider",
		})
	}

	// Set provider in the request URL so Goth can recognize it
	req := c.Request()
	q := req.URL.Query()
	q.Set("provider", "google")
	req.URL.RawQuery = q.Encode()

	gothic.BeginAuthHandler(c.Response(), req)
	return nil
}

// CallbackHandler handles the OAuth callback and stores the account
func (h *AuthHandler) CallbackHandler(c echo.Context) error {
	// Set provider in the request URL so Goth can recognize it
	req := c.Request()
	q := req.URL.Query()
	q.Set("provider", "google")
	req.URL.RawQuery = q.Encode()

	googleUser, err := gothic.CompleteUserAuth(c.Response(), req)
	if err != nil {
		h.logger.Error("Failed to complete user auth:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Authentication failed",
		})
	}

	account, err := h.authService.UpsertAccount(
		c.Request().Context(),
		googleUser.Email,
		googleUser.AccessToken,
		googleUser.RefreshToken,
		googleUser.ExpiresAt,
	)
	if err != nil {
		h.logger.Error("Failed to store account:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to store account",
		})
	}

	session, _ := gothic.Store.Get(req, sessionName)
	session.Values["account_id"] = account.ID
	if err := session.Save(req, c.Response()); err != nil {
		h.logger.Error("Failed to save session:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to save session",
		})
	}

	return c.Redirect(http.StatusTemporaryRedirect, "/app")
}

// LogoutHandler clears the session
func (h *AuthHandler) LogoutHandler(c echo.Context) error {
	req := c.Request()
	q := req.URL.Query()
	q.Set("provider", "google")
	req.URL.RawQuery = q.Encode()

	gothic.Logout(c.Response(), req)

	session, _ := gothic.Store.Get(req, sessionName)
	delete(session.Values, "account_id")
	session.Options.MaxAge = -1
	_ = session.Save(req, c.Response())

	return c.Redirect(http.StatusTemporaryRedirect, "/")
}

// CurrentAccountID resolves the account a request acts on: the account query
// parameter when given, otherwise the session's signed-in account.
func (h *AuthHandler) CurrentAccountID(c echo.Context) (string, error) {
	session, err := gothic.Store.Get(c.Request(), sessionName)
	if err != nil {
		return "", fmt.Errorf("failed to get session: %w", err)
	}

	sessionID, _ := session.Values["account_id"].(string)
	if sessionID == "" {
		return "", fmt.Errorf("not authenticated")
	}

	accountID := c.QueryParam("account")
	if accountID == "" {
		accountID = sessionID
	}
	if _, err := h.authService.GetAccount(c.Request().Context(), accountID); err != nil {
		return "", fmt.Errorf("unknown account %s: %w", accountID, err)
	}
	return accountID, nil
}

// GetAccounts lists connected account addresses
func (h *AuthHandler) GetAccounts(c echo.Context) error {
	ids, err := h.authService.ListAccountIDs(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to list accounts:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "Failed to list accounts",
		})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"accounts": ids,
	})
}

// DeleteAccount disconnects an account and removes its stored data
func (h *AuthHandler) DeleteAccount(c echo.Context) error {
	accountID := c.Param("accountId")
	if err := h.authService.DeleteAccount(c.Request().Context(), accountID); err != nil {
		return writeServiceError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Account disconnected",
	})
}
