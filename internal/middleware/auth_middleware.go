package middleware

import (
	"net/http"

	"mailnick/internal/handler"

	"github.com/labstack/echo/v4"
)

// AuthMiddleware rejects requests without a signed-in account
func AuthMiddleware(authHandler *handler.AuthHandler) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, err := authHandler.CurrentAccountID(c); err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error": "Unauthorized",
				})
			}
			return next(c)
		}
	}
}
