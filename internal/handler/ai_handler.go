package handler

import (
	"net/http"

	"mailnick/internal/model"
	"mailnick/internal/repository"
	"mailnick/internal/service"

	"github.com/labstack/echo/v4"
)

type AIHandler struct {
	aiClient    service.AIClient
	emailRepo   repository.EmailRepository
	authHandler *AuthHandler
	logger      echo.Logger
}

func NewAIHandler(aiClient service.AIClient, emailRepo repository.EmailRepository, authHandler *AuthHandler, logger echo.Logger) *AIHandler {
	return &AIHandler{
		aiClient:    aiClient,
		emailRepo:   emailRepo,
		authHandler: authHandler,
		logger:      logger,
	}
}

// Status reports whether AI grouping is configured
func (h *AIHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{
		"available": h.aiClient.Available(),
	})
}

type groupRequest struct {
	EmailIDs []string `json:"emailIds"`
}

// GroupEmails asks the AI to cluster the given emails into batch-actionable
// groups. With no ids given it uses all unread emails for the account.
func (h *AIHandler) GroupEmails(c echo.Context) error {
	accountID, err := h.authHandler.CurrentAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "Unauthorized",
		})
	}

	if !h.aiClient.Available() {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"error": "AI grouping is not configured",
		})
	}

	var req groupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid request body",
		})
	}

	var emails []*model.Email
	ctx := c.Request().Context()
	if len(req.EmailIDs) > 0 {
		for _, id := range req.EmailIDs {
			email, err := h.emailRepo.FindByID(ctx, accountID, id)
			if err != nil {
				continue
			}
			emails = append(emails, email)
		}
	} else {
		emails, err = h.emailRepo.FindByAccount(ctx, accountID, repository.EmailFilter{UnreadOnly: true})
		if err != nil {
			return writeServiceError(c, h.logger, err)
		}
	}

	if len(emails) < 2 {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Need at least 2 emails to group",
		})
	}

	groups, err := h.aiClient.GroupEmails(ctx, emails)
	if err != nil {
		return writeServiceError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"groups": groups,
	})
}
