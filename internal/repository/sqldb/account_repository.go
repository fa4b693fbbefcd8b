package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"mailnick/internal/model"
	"mailnick/internal/repository"
)

type AccountRepository struct {
	db *sqlx.DB
}

func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Upsert(ctx context.Context, account *model.Account) error {
	query := r.db.Rebind(`
		INSERT INTO accounts (id, access_token, refresh_token, token_expiry, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			token_expiry = excluded.token_expiry,
			updated_at = excluded.updated_at`)
	_, err := r.db.ExecContext(ctx, query,
		account.ID, account.AccessToken, account.RefreshToken,
		account.TokenExpiry, account.CreatedAt, time.Now())
	return err
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*model.Account, error) {
	query := r.db.Rebind(`
		SELECT id, access_token, refresh_token, token_expiry, created_at, updated_at
		FROM accounts WHERE id = ?`)
	account := &model.Account{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&account.ID, &account.AccessToken, &account.RefreshToken,
		&account.TokenExpiry, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return account, nil
}

func (r *AccountRepository) FindAll(ctx context.Context) ([]*model.Account, error) {
	query := `
		SELECT id, access_token, refresh_token, token_expiry, created_at, updated_at
		FROM accounts ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*model.Account
	for rows.Next() {
		account := &model.Account{}
		if err := rows.Scan(
			&account.ID, &account.AccessToken, &account.RefreshToken,
			&account.TokenExpiry, &account.CreatedAt, &account.UpdatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, r.db.Rebind(`DELETE FROM action_history WHERE account_id = ?`), id); err != nil {
		return fmt.Errorf("delete actions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, r.db.Rebind(`DELETE FROM emails WHERE account_id = ?`), id); err != nil {
		return fmt.Errorf("delete emails: %w", err)
	}
	if _, err := tx.ExecContext(ctx, r.db.Rebind(`DELETE FROM cleanup_rules WHERE account_id = ?`), id); err != nil {
		return fmt.Errorf("delete rules: %w", err)
	}
	res, err := tx.ExecContext(ctx, r.db.Rebind(`DELETE FROM accounts WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return tx.Commit()
}

func (r *AccountRepository) DeleteCredentials(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM accounts WHERE id = ?`), id)
	return err
}
