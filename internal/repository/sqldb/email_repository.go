package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"mailnick/internal/model"
	"mailnick/internal/repository"
)

const emailColumns = `id, account_id, thread_id, from_addr, from_domain, to_addr,
	subject, snippet, received_at, is_unread, label_ids, category, synced_at`

type EmailRepository struct {
	db *sqlx.DB
}

func NewEmailRepository(db *sqlx.DB) *EmailRepository {
	return &EmailRepository{db: db}
}

func (r *EmailRepository) Create(ctx context.Context, email *model.Email) error {
	labels, err := marshalLabels(email.LabelIDs)
	if err != nil {
		return err
	}
	query := r.db.Rebind(`
		INSERT INTO emails (` + emailColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (account_id, id) DO UPDATE SET
			subject = excluded.subject,
			snippet = excluded.snippet,
			is_unread = excluded.is_unread,
			label_ids = excluded.label_ids,
			category = excluded.category,
			synced_at = excluded.synced_at`)
	_, err = r.db.ExecContext(ctx, query,
		email.ID, email.AccountID, email.ThreadID, email.From, email.FromDomain,
		email.To, email.Subject, email.Snippet, email.ReceivedAt, email.IsUnread,
		labels, email.Category, email.SyncedAt)
	return err
}

func (r *EmailRepository) FindByID(ctx context.Context, accountID, id string) (*model.Email, error) {
	query := r.db.Rebind(`SELECT ` + emailColumns + ` FROM emails WHERE account_id = ? AND id = ?`)
	row := r.db.QueryRowContext(ctx, query, accountID, id)
	return scanEmail(row)
}

func (r *EmailRepository) FindByAccount(ctx context.Context, accountID string, filter repository.EmailFilter) ([]*model.Email, error) {
	query := `SELECT ` + emailColumns + ` FROM emails WHERE account_id = ?`
	args := []interface{}{accountID}
	if filter.UnreadOnly {
		query += ` AND is_unread = TRUE`
	}
	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, filter.Category)
	}
	query += ` ORDER BY received_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var emails []*model.Email
	for rows.Next() {
		email, err := scanEmail(rows)
		if err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}

func (r *EmailRepository) UpdateFlags(ctx context.Context, accountID, id string, update repository.EmailUpdate) error {
	return applyEmailUpdate(ctx, r.db, r.db.Rebind, accountID, id, update)
}

// execer is satisfied by both *sqlx.DB and *sqlx.Tx so flag updates can run
// inside the ledger's transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func applyEmailUpdate(ctx context.Context, e execer, rebind func(string) string, accountID, id string, update repository.EmailUpdate) error {
	if update.IsUnread != nil {
		query := rebind(`UPDATE emails SET is_unread = ? WHERE account_id = ? AND id = ?`)
		if _, err := e.ExecContext(ctx, query, *update.IsUnread, accountID, id); err != nil {
			return fmt.Errorf("update unread flag: %w", err)
		}
	}
	if update.LabelIDs != nil {
		labels, err := marshalLabels(update.LabelIDs)
		if err != nil {
			return err
		}
		query := rebind(`UPDATE emails SET label_ids = ? WHERE account_id = ? AND id = ?`)
		if _, err := e.ExecContext(ctx, query, labels, accountID, id); err != nil {
			return fmt.Errorf("update label set: %w", err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEmail(row rowScanner) (*model.Email, error) {
	email := &model.Email{}
	var labels string
	err := row.Scan(
		&email.ID, &email.AccountID, &email.ThreadID, &email.From, &email.FromDomain,
		&email.To, &email.Subject, &email.Snippet, &email.ReceivedAt, &email.IsUnread,
		&labels, &email.Category, &email.SyncedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal([]byte(labels), &email.LabelIDs); err != nil {
		return nil, fmt.Errorf("decode label set: %w", err)
	}
	return email, nil
}

func marshalLabels(labelIDs []string) (string, error) {
	if labelIDs == nil {
		labelIDs = []string{}
	}
	raw, err := json.Marshal(labelIDs)
	if err != nil {
		return "", fmt.Errorf("encode label set: %w", err)
	}
	return string(raw), nil
}
