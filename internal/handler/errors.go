package handler

import (
	"errors"
	"net/http"

	"mailnick/internal/service"

	"github.com/labstack/echo/v4"
)

// writeServiceError maps service errors onto HTTP responses.
func writeServiceError(c echo.Context, logger echo.Logger, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": "Not found",
		})
	case errors.Is(err, service.ErrAlreadyUndone):
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Action already undone",
		})
	case errors.Is(err, service.ErrExpired):
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Undo window expired",
		})
	case errors.Is(err, service.ErrReauthRequired):
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "Account needs to be reconnected",
			"code":  "reauth_required",
		})
	default:
		logger.Error("Request failed:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": err.Error(),
		})
	}
}
