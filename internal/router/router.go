package router

import (
	"net/http"

	"mailnick/internal/handler"
	"mailnick/internal/middleware"

	"github.com/labstack/echo/v4"
)

func SetupRoutes(
	e *echo.Echo,
	authHandler *handler.AuthHandler,
	emailHandler *handler.EmailHandler,
	ruleHandler *handler.RuleHandler,
	aiHandler *handler.AIHandler,
) {
	// Public routes
	e.GET("/auth/:provider", authHandler.BeginAuthHandler)
	e.GET("/auth/:provider/callback", authHandler.CallbackHandler)
	e.GET("/auth/logout", authHandler.LogoutHandler)

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	// Protected API routes
	protected := e.Group("/api")
	protected.Use(middleware.AuthMiddleware(authHandler))

	// Account API routes
	protected.GET("/accounts", authHandler.GetAccounts)
	protected.DELETE("/accounts/:accountId", authHandler.DeleteAccount)

	// Email API routes
	protected.GET("/emails", emailHandler.GetEmails)
	protected.POST("/emails/sync", emailHandler.SyncEmails)
	protected.GET("/emails/with-actions", emailHandler.GetEmailsWithActions)
	protected.POST("/emails/:id/mark-read", emailHandler.MarkRead)
	protected.POST("/emails/:id/archive", emailHandler.Archive)
	protected.POST("/emails/:id/trash", emailHandler.Trash)
	protected.POST("/emails/:id/label", emailHandler.Label)
	protected.POST("/actions/:actionId/undo", emailHandler.Undo)

	// Cleanup rule API routes
	protected.GET("/cleanup-rules", ruleHandler.GetRules)
	protected.POST("/cleanup-rules", ruleHandler.CreateRule)
	protected.POST("/cleanup-rules/reorder", ruleHandler.ReorderRules)
	protected.GET("/cleanup-rules/stats", ruleHandler.GetStats)
	protected.GET("/cleanup-rules/tasks", ruleHandler.GetTasks)
	protected.PUT("/cleanup-rules/:ruleId", ruleHandler.UpdateRule)
	protected.DELETE("/cleanup-rules/:ruleId", ruleHandler.DeleteRule)

	// AI API routes
	protected.GET("/ai/status", aiHandler.Status)
	protected.POST("/emails/ai-group", aiHandler.GroupEmails)
}
