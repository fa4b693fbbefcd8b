// Package sqldb implements the repositories over database/sql via sqlx.
// The same implementation serves PostgreSQL (lib/pq) and SQLite
// (modernc.org/sqlite); queries are written with ? placeholders and rebound
// per driver.
package sqldb

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
)

// Open connects to the database and runs schema migrations. driver is
// "postgres" or "sqlite"; dsn is a connection URL or a file path
// respectively.
func Open(driver, dsn string) (*sqlx.DB, error) {
	if driver == "sqlite" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == "sqlite" {
		// WAL for concurrent readers while a request writes.
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
		if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func migrate(db *sqlx.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id TEXT PRIMARY KEY,
			access_token TEXT NOT NULL,
			refresh_token TEXT NOT NULL,
			token_expiry TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS emails (
			id TEXT NOT NULL,
			account_id TEXT NOT NULL,
			thread_id TEXT NOT NULL DEFAULT '',
			from_addr TEXT NOT NULL DEFAULT '',
			from_domain TEXT NOT NULL DEFAULT '',
			to_addr TEXT NOT NULL DEFAULT '',
			subject TEXT NOT NULL DEFAULT '',
			snippet TEXT NOT NULL DEFAULT '',
			received_at TIMESTAMP NOT NULL,
			is_unread BOOLEAN NOT NULL DEFAULT TRUE,
			label_ids TEXT NOT NULL DEFAULT '[]',
			category TEXT NOT NULL DEFAULT '',
			synced_at TIMESTAMP NOT NULL,
			PRIMARY KEY (account_id, id)
		)`,
		`CREATE TABLE IF NOT EXISTS action_history (
			id TEXT PRIMARY KEY,
			account_id TEXT NOT NULL,
			email_id TEXT NOT NULL,
			action_type TEXT NOT NULL,
			original_state TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			undone BOOLEAN NOT NULL DEFAULT FALSE,
			expires_at TIMESTAMP NOT NULL,
			rule_id TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS cleanup_rules (
			id TEXT PRIMARY KEY,
			account_id TEXT NOT NULL,
			name TEXT NOT NULL,
			match_criteria TEXT NOT NULL,
			display_order INTEGER NOT NULL,
			enabled BOOLEAN NOT NULL DEFAULT TRUE,
			color TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_emails_account_unread ON emails(account_id, is_unread)`,
		`CREATE INDEX IF NOT EXISTS idx_actions_account ON action_history(account_id, undone)`,
		`CREATE INDEX IF NOT EXISTS idx_actions_created ON action_history(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_rules_account ON cleanup_rules(account_id, display_order)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate schema: %w", err)
		}
	}
	return nil
}
