package handler

import (
	"errors"
	"net/http"
	"strconv"

	"mailnick/internal/repository"
	"mailnick/internal/service"

	"github.com/labstack/echo/v4"
)

type EmailHandler struct {
	emailRepo     repository.EmailRepository
	syncService   service.SyncService
	actionService service.ActionService
	authHandler   *AuthHandler
	logger        echo.Logger
}

func NewEmailHandler(
	emailRepo repository.EmailRepository,
	syncService service.SyncService,
	actionService service.ActionService,
	authHandler *AuthHandler,
	logger echo.Logger,
) *EmailHandler {
	return &EmailHandler{
		emailRepo:     emailRepo,
		syncService:   syncService,
		actionService: actionService,
		authHandler:   authHandler,
		logger:        logger,
	}
}

// GetEmails lists stored emails for the account, optionally filtered
func (h *EmailHandler) GetEmails(c echo.Context) error {
	accountID, err := h.authHandler.CurrentAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "Unauthorized",
		})
	}

	filter := repository.EmailFilter{
		UnreadOnly: c.QueryParam("unreadOnly") == "true",
		Category:   c.QueryParam("category"),
	}
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}

	emails, err := h.emailRepo.FindByAccount(c.Request().Context(), accountID, filter)
	if err != nil {
		return writeServiceError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"emails": emails,
	})
}

// SyncEmails pulls unread messages from Gmail into the local store
func (h *EmailHandler) SyncEmails(c echo.Context) error {
	accountID, err := h.authHandler.CurrentAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "Unauthorized",
		})
	}

	result, err := h.syncService.SyncUnread(c.Request().Context(), accountID)
	if err != nil {
		return writeServiceError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, result)
}

// GetEmailsWithActions lists emails joined with their live ledger entries
func (h *EmailHandler) GetEmailsWithActions(c echo.Context) error {
	accountID, err := h.authHandler.CurrentAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "Unauthorized",
		})
	}

	rows, err := h.actionService.EmailsWithActions(c.Request().Context(), accountID)
	if err != nil {
		return writeServiceError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"emails": rows,
	})
}

type actionRequest struct {
	RuleID string `json:"ruleId"`
	Label  string `json:"label"`
}

// MarkRead marks an email read, recording an undoable action
func (h *EmailHandler) MarkRead(c echo.Context) error {
	return h.performAction(c, func(c echo.Context, accountID, emailID string, req actionRequest) (*service.PerformOutcome, error) {
		return h.actionService.MarkRead(c.Request().Context(), accountID, emailID, req.RuleID)
	})
}

// Archive archives an email, recording an undoable action
func (h *EmailHandler) Archive(c echo.Context) error {
	return h.performAction(c, func(c echo.Context, accountID, emailID string, req actionRequest) (*service.PerformOutcome, error) {
		return h.actionService.Archive(c.Request().Context(), accountID, emailID, req.RuleID)
	})
}

// Trash moves an email to the trash, recording an undoable action
func (h *EmailHandler) Trash(c echo.Context) error {
	return h.performAction(c, func(c echo.Context, accountID, emailID string, req actionRequest) (*service.PerformOutcome, error) {
		return h.actionService.Trash(c.Request().Context(), accountID, emailID, req.RuleID)
	})
}

// Label applies a named label to an email, recording an undoable action
func (h *EmailHandler) Label(c echo.Context) error {
	return h.performAction(c, func(c echo.Context, accountID, emailID string, req actionRequest) (*service.PerformOutcome, error) {
		if req.Label == "" {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "label is required")
		}
		return h.actionService.Label(c.Request().Context(), accountID, emailID, req.Label, req.RuleID)
	})
}

func (h *EmailHandler) performAction(c echo.Context, run func(echo.Context, string, string, actionRequest) (*service.PerformOutcome, error)) error {
	accountID, err := h.authHandler.CurrentAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "Unauthorized",
		})
	}

	emailID := c.Param("id")
	var req actionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid request body",
		})
	}

	outcome, err := run(c, accountID, emailID, req)
	if err != nil {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			return err
		}
		return writeServiceError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, outcome)
}

// Undo reverses a recorded action while its undo window is open
func (h *EmailHandler) Undo(c echo.Context) error {
	accountID, err := h.authHandler.CurrentAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "Unauthorized",
		})
	}

	if err := h.actionService.Undo(c.Request().Context(), accountID, c.Param("actionId")); err != nil {
		return writeServiceError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Action undone",
	})
}
