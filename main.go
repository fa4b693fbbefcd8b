package main

import (
	"log"
	"time"

	"mailnick/internal/ai"
	"mailnick/internal/config"
	"mailnick/internal/gmail"
	"mailnick/internal/handler"
	"mailnick/internal/jobs"
	"mailnick/internal/logger"
	"mailnick/internal/repository"
	"mailnick/internal/repository/memory"
	"mailnick/internal/repository/sqldb"
	"mailnick/internal/router"
	"mailnick/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("Config validation failed:", err)
	}

	// Initialize logger
	appLogger := logger.New()

	// Initialize repositories: Postgres if DATABASE_URL is set, otherwise
	// the local SQLite file, otherwise in-memory
	var accountRepo repository.AccountRepository
	var emailRepo repository.EmailRepository
	var actionRepo repository.ActionRepository
	var ruleRepo repository.RuleRepository

	switch {
	case cfg.DatabaseURL != "":
		db, err := sqldb.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Fatal("Failed to connect to database:", err)
		}
		defer db.Close()

		accountRepo = sqldb.NewAccountRepository(db)
		emailRepo = sqldb.NewEmailRepository(db)
		actionRepo = sqldb.NewActionRepository(db)
		ruleRepo = sqldb.NewRuleRepository(db)
		appLogger.Info("Using PostgreSQL repositories")

	case cfg.DatabasePath != "":
		db, err := sqldb.Open("sqlite", cfg.DatabasePath)
		if err != nil {
			log.Fatal("Failed to open database:", err)
		}
		defer db.Close()

		accountRepo = sqldb.NewAccountRepository(db)
		emailRepo = sqldb.NewEmailRepository(db)
		actionRepo = sqldb.NewActionRepository(db)
		ruleRepo = sqldb.NewRuleRepository(db)
		appLogger.Info("Using SQLite repositories at", cfg.DatabasePath)

	default:
		memEmails := memory.NewEmailRepository()
		accountRepo = memory.NewAccountRepository()
		emailRepo = memEmails
		actionRepo = memory.NewActionRepository(memEmails)
		ruleRepo = memory.NewRuleRepository()
		appLogger.Info("Using in-memory repositories")
	}

	// Gmail client with per-account token refresh
	gmailClient := gmail.NewClient(
		accountRepo,
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.BaseURL+"/auth/google/callback",
		appLogger,
	)

	// AI client for email grouping
	aiClient := ai.NewAIClient(cfg.GeminiAPIKey, appLogger)

	// Initialize services
	authService := service.NewAuthService(accountRepo, appLogger)
	syncService := service.NewSyncService(emailRepo, accountRepo, gmailClient, cfg.MaxSyncResults, appLogger)
	actionService := service.NewActionService(emailRepo, actionRepo, accountRepo, gmailClient, cfg.UndoWindow, cfg.ActionRetention, appLogger)
	ruleService := service.NewRuleService(ruleRepo, emailRepo, actionRepo, appLogger)

	// Background purge of expired ledger entries
	retentionJob := jobs.NewRetentionJob(actionService, time.Hour, appLogger)
	go retentionJob.Start()
	defer retentionJob.Stop()

	// Initialize handlers
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	authHandler := handler.NewAuthHandler(authService, cfg, e.Logger)
	emailHandler := handler.NewEmailHandler(emailRepo, syncService, actionService, authHandler, e.Logger)
	ruleHandler := handler.NewRuleHandler(ruleService, authHandler, e.Logger)
	aiHandler := handler.NewAIHandler(aiClient, emailRepo, authHandler, e.Logger)

	router.SetupRoutes(e, authHandler, emailHandler, ruleHandler, aiHandler)

	// Start server
	appLogger.Info("Starting server on port", cfg.Port)
	if err := e.Start(":" + cfg.Port); err != nil {
		appLogger.Error("Server stopped:", err)
	}
}
