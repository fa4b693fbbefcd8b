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

const ruleColumns = `id, account_id, name, match_criteria, display_order, enabled, color, created_at, updated_at`

type RuleRepository struct {
	db *sqlx.DB
}

func NewRuleRepository(db *sqlx.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

func (r *RuleRepository) Create(ctx context.Context, rule *model.CleanupRule) error {
	criteria, err := json.Marshal(rule.MatchCriteria)
	if err != nil {
		return fmt.Errorf("encode match criteria: %w", err)
	}
	query := r.db.Rebind(`
		INSERT INTO cleanup_rules (` + ruleColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err = r.db.ExecContext(ctx, query,
		rule.ID, rule.AccountID, rule.Name, string(criteria), rule.DisplayOrder,
		rule.Enabled, rule.Color, rule.CreatedAt, rule.UpdatedAt)
	return err
}

func (r *RuleRepository) FindByID(ctx context.Context, accountID, id string) (*model.CleanupRule, error) {
	query := r.db.Rebind(`SELECT ` + ruleColumns + ` FROM cleanup_rules WHERE account_id = ? AND id = ?`)
	return scanRule(r.db.QueryRowContext(ctx, query, accountID, id))
}

func (r *RuleRepository) FindByAccount(ctx context.Context, accountID string) ([]*model.CleanupRule, error) {
	query := r.db.Rebind(`
		SELECT ` + ruleColumns + ` FROM cleanup_rules
		WHERE account_id = ? ORDER BY display_order ASC, created_at ASC`)
	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []*model.CleanupRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func (r *RuleRepository) Update(ctx context.Context, rule *model.CleanupRule) error {
	criteria, err := json.Marshal(rule.MatchCriteria)
	if err != nil {
		return fmt.Errorf("encode match criteria: %w", err)
	}
	query := r.db.Rebind(`
		UPDATE cleanup_rules
		SET name = ?, match_criteria = ?, enabled = ?, color = ?, updated_at = ?
		WHERE account_id = ? AND id = ?`)
	res, err := r.db.ExecContext(ctx, query,
		rule.Name, string(criteria), rule.Enabled, rule.Color, time.Now(),
		rule.AccountID, rule.ID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *RuleRepository) UpdateDisplayOrder(ctx context.Context, accountID, id string, order int) error {
	query := r.db.Rebind(`
		UPDATE cleanup_rules SET display_order = ?, updated_at = ?
		WHERE account_id = ? AND id = ?`)
	_, err := r.db.ExecContext(ctx, query, order, time.Now(), accountID, id)
	return err
}

func (r *RuleRepository) Delete(ctx context.Context, accountID, id string) error {
	query := r.db.Rebind(`DELETE FROM cleanup_rules WHERE account_id = ? AND id = ?`)
	res, err := r.db.ExecContext(ctx, query, accountID, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func scanRule(row rowScanner) (*model.CleanupRule, error) {
	rule := &model.CleanupRule{}
	var criteria string
	err := row.Scan(
		&rule.ID, &rule.AccountID, &rule.Name, &criteria, &rule.DisplayOrder,
		&rule.Enabled, &rule.Color, &rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal([]byte(criteria), &rule.MatchCriteria); err != nil {
		return nil, fmt.Errorf("decode match criteria: %w", err)
	}
	return rule, nil
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
