package handler

import (
	"net/http"
	"strings"

	"mailnick/internal/model"
	"mailnick/internal/service"

	"github.com/labstack/echo/v4"
)

type RuleHandler struct {
	ruleService service.RuleService
	authHandler *AuthHandler
	logger      echo.Logger
}

func NewRuleHandler(ruleService service.RuleService, authHandler *AuthHandler, logger echo.Logger) *RuleHandler {
	return &RuleHandler{
		ruleService: ruleService,
		authHandler: authHandler,
		logger:      logger,
	}
}

type createRuleRequest struct {
	Name          string              `json:"name"`
	MatchCriteria model.MatchCriteria `json:"matchCriteria"`
	Color         string              `json:"color"`
}

// CreateRule adds a cleanup rule at the end of the display order
func (h *RuleHandler) CreateRule(c echo.Context) error {
	accountID, err := h.authHandler.CurrentAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "Unauthorized",
		})
	}

	var req createRuleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid request body",
		})
	}

	rule, err := h.ruleService.CreateRule(c.Request().Context(), accountID, req.Name, req.MatchCriteria, req.Color)
	if err != nil {
		if strings.Contains(err.Error(), "required") || strings.Contains(err.Error(), "criteria type") {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": err.Error(),
			})
		}
		return writeServiceError(c, h.logger, err)
	}
	return c.JSON(http.StatusCreated, rule)
}

// GetRules lists the account's cleanup rules in display order
func (h *RuleHandler) GetRules(c echo.Context) error {
	accountID, err := h.authHandler.CurrentAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "Unauthorized",
		})
	}

	rules, err := h.ruleService.ListRules(c.Request().Context(), accountID)
	if err != nil {
		return writeServiceError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"rules": rules,
	})
}

type updateRuleRequest struct {
	Name          *string              `json:"name"`
	MatchCriteria *model.MatchCriteria `json:"matchCriteria"`
	Color         *string              `json:"color"`
	Enabled       *bool                `json:"enabled"`
}

// UpdateRule applies a partial update to a cleanup rule
func (h *RuleHandler) UpdateRule(c echo.Context) error {
	accountID, err := h.authHandler.CurrentAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "Unauthorized",
		})
	}

	var req updateRuleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid request body",
		})
	}

	rule, err := h.ruleService.UpdateRule(c.Request().Context(), accountID, c.Param("ruleId"), service.RuleUpdate{
		Name:          req.Name,
		MatchCriteria: req.MatchCriteria,
		Color:         req.Color,
		Enabled:       req.Enabled,
	})
	if err != nil {
		return writeServiceError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, rule)
}

// DeleteRule removes a cleanup rule
func (h *RuleHandler) DeleteRule(c echo.Context) error {
	accountID, err := h.authHandler.CurrentAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "Unauthorized",
		})
	}

	if err := h.ruleService.DeleteRule(c.Request().Context(), accountID, c.Param("ruleId")); err != nil {
		return writeServiceError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Rule deleted",
	})
}

type reorderRequest struct {
	RuleIDs []string `json:"ruleIds"`
}

// ReorderRules rewrites display order to match the given id sequence
func (h *RuleHandler) ReorderRules(c echo.Context) error {
	accountID, err := h.authHandler.CurrentAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "Unauthorized",
		})
	}

	var req reorderRequest
	if err := c.Bind(&req); err != nil || len(req.RuleIDs) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "ruleIds is required",
		})
	}

	if err := h.ruleService.Reorder(c.Request().Context(), accountID, req.RuleIDs); err != nil {
		return writeServiceError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Rules reordered",
	})
}

// GetStats returns per-rule counts of live actions by type
func (h *RuleHandler) GetStats(c echo.Context) error {
	accountID, err := h.authHandler.CurrentAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "Unauthorized",
		})
	}

	stats, err := h.ruleService.Stats(c.Request().Context(), accountID)
	if err != nil {
		return writeServiceError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"stats": stats,
	})
}

// GetTasks partitions unread emails into per-rule task groups
func (h *RuleHandler) GetTasks(c echo.Context) error {
	accountID, err := h.authHandler.CurrentAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "Unauthorized",
		})
	}

	var hidden []string
	if raw := c.QueryParam("hiddenRules"); raw != "" {
		hidden = strings.Split(raw, ",")
	}

	tasks, err := h.ruleService.Tasks(c.Request().Context(), accountID, hidden)
	if err != nil {
		return writeServiceError(c, h.logger, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"tasks": tasks,
	})
}
