package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"mailnick/internal/model"
	"mailnick/internal/repository"
)

const actionColumns = `id, account_id, email_id, action_type, original_state,
	created_at, undone, expires_at, rule_id`

type ActionRepository struct {
	db *sqlx.DB
}

func NewActionRepository(db *sqlx.DB) *ActionRepository {
	return &ActionRepository{db: db}
}

func (r *ActionRepository) Record(ctx context.Context, entry *model.ActionEntry, update *repository.EmailUpdate) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if update != nil {
		if err := applyEmailUpdate(ctx, tx, r.db.Rebind, entry.AccountID, entry.EmailID, *update); err != nil {
			return err
		}
	}

	query := r.db.Rebind(`
		INSERT INTO action_history (` + actionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err = tx.ExecContext(ctx, query,
		entry.ID, entry.AccountID, entry.EmailID, string(entry.Kind), entry.OriginalState,
		entry.CreatedAt, entry.Undone, entry.ExpiresAt, nullable(entry.RuleID))
	if err != nil {
		return fmt.Errorf("insert action entry: %w", err)
	}
	return tx.Commit()
}

func (r *ActionRepository) FindByID(ctx context.Context, accountID, id string) (*model.ActionEntry, error) {
	query := r.db.Rebind(`SELECT ` + actionColumns + ` FROM action_history WHERE account_id = ? AND id = ?`)
	return scanAction(r.db.QueryRowContext(ctx, query, accountID, id))
}

func (r *ActionRepository) MarkUndone(ctx context.Context, accountID, id string) error {
	query := r.db.Rebind(`UPDATE action_history SET undone = TRUE WHERE account_id = ? AND id = ?`)
	res, err := r.db.ExecContext(ctx, query, accountID, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ActionRepository) FindLive(ctx context.Context, accountID string) ([]repository.EmailWithAction, error) {
	query := r.db.Rebind(`
		SELECT e.id, e.account_id, e.thread_id, e.from_addr, e.from_domain, e.to_addr,
			e.subject, e.snippet, e.received_at, e.is_unread, e.label_ids, e.category, e.synced_at,
			a.id, a.account_id, a.email_id, a.action_type, a.original_state,
			a.created_at, a.undone, a.expires_at, a.rule_id
		FROM action_history a
		INNER JOIN emails e ON e.id = a.email_id AND e.account_id = a.account_id
		WHERE a.account_id = ? AND a.undone = FALSE
		ORDER BY a.created_at DESC`)
	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []repository.EmailWithAction
	for rows.Next() {
		email := &model.Email{}
		entry := &model.ActionEntry{}
		var labels, kind string
		var ruleID sql.NullString
		err := rows.Scan(
			&email.ID, &email.AccountID, &email.ThreadID, &email.From, &email.FromDomain,
			&email.To, &email.Subject, &email.Snippet, &email.ReceivedAt, &email.IsUnread,
			&labels, &email.Category, &email.SyncedAt,
			&entry.ID, &entry.AccountID, &entry.EmailID, &kind, &entry.OriginalState,
			&entry.CreatedAt, &entry.Undone, &entry.ExpiresAt, &ruleID)
		if err != nil {
			return nil, err
		}
		if err := decodeLabels(labels, &email.LabelIDs); err != nil {
			return nil, err
		}
		entry.Kind = model.ActionKind(kind)
		entry.RuleID = ruleID.String
		result = append(result, repository.EmailWithAction{Email: email, Action: entry})
	}
	return result, rows.Err()
}

func (r *ActionRepository) StatsByRule(ctx context.Context, accountID string) (map[string]map[model.ActionKind]int, error) {
	query := r.db.Rebind(`
		SELECT rule_id, action_type, COUNT(*)
		FROM action_history
		WHERE account_id = ? AND undone = FALSE AND rule_id IS NOT NULL AND rule_id != ''
		GROUP BY rule_id, action_type`)
	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make(map[string]map[model.ActionKind]int)
	for rows.Next() {
		var ruleID, kind string
		var count int
		if err := rows.Scan(&ruleID, &kind, &count); err != nil {
			return nil, err
		}
		if stats[ruleID] == nil {
			stats[ruleID] = make(map[model.ActionKind]int)
		}
		stats[ruleID][model.ActionKind(kind)] = count
	}
	return stats, rows.Err()
}

func (r *ActionRepository) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := r.db.Rebind(`DELETE FROM action_history WHERE created_at < ?`)
	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanAction(row rowScanner) (*model.ActionEntry, error) {
	entry := &model.ActionEntry{}
	var kind string
	var ruleID sql.NullString
	err := row.Scan(
		&entry.ID, &entry.AccountID, &entry.EmailID, &kind, &entry.OriginalState,
		&entry.CreatedAt, &entry.Undone, &entry.ExpiresAt, &ruleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	entry.Kind = model.ActionKind(kind)
	entry.RuleID = ruleID.String
	return entry, nil
}

func decodeLabels(raw string, dst *[]string) error {
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("decode label set: %w", err)
	}
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
