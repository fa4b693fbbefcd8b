package repository

import (
	"context"
	"errors"
	"time"

	"mailnick/internal/model"
)

// ErrNotFound is returned when a requested record does not exist under the
// given account scope.
var ErrNotFound = errors.New("record not found")

// EmailUpdate carries the optional email-row changes recorded together with
// a ledger entry.
type EmailUpdate struct {
	IsUnread *bool
	LabelIDs []string // nil means unchanged
}

// AccountRepository stores per-account OAuth credentials.
type AccountRepository interface {
	Upsert(ctx context.Context, account *model.Account) error
	FindByID(ctx context.Context, id string) (*model.Account, error)
	FindAll(ctx context.Context) ([]*model.Account, error)
	// Delete removes the account along with its emails and ledger entries.
	// Returns ErrNotFound when no such account exists.
	Delete(ctx context.Context, id string) error
	// DeleteCredentials removes only the stored tokens, signaling that the
	// user must re-authenticate. Emails and ledger entries survive.
	DeleteCredentials(ctx context.Context, id string) error
}

// EmailFilter narrows account-scoped email queries.
type EmailFilter struct {
	UnreadOnly bool
	Category   string
	Limit      int
}

// EmailRepository stores synced Gmail messages.
type EmailRepository interface {
	Create(ctx context.Context, email *model.Email) error
	FindByID(ctx context.Context, accountID, id string) (*model.Email, error)
	FindByAccount(ctx context.Context, accountID string, filter EmailFilter) ([]*model.Email, error)
	UpdateFlags(ctx context.Context, accountID, id string, update EmailUpdate) error
}

// EmailWithAction joins an email with one of its live ledger entries.
type EmailWithAction struct {
	Email  *model.Email       `json:"email"`
	Action *model.ActionEntry `json:"action"`
}

// ActionRepository stores the action ledger.
type ActionRepository interface {
	// Record inserts the ledger entry and applies the email update as one
	// atomic unit where the backing store supports transactions.
	Record(ctx context.Context, entry *model.ActionEntry, update *EmailUpdate) error
	FindByID(ctx context.Context, accountID, id string) (*model.ActionEntry, error)
	// MarkUndone flips the undone flag, the only mutation an entry ever sees.
	MarkUndone(ctx context.Context, accountID, id string) error
	// FindLive returns not-undone entries joined with their emails, newest
	// first.
	FindLive(ctx context.Context, accountID string) ([]EmailWithAction, error)
	// StatsByRule counts not-undone entries per originating rule and kind.
	StatsByRule(ctx context.Context, accountID string) (map[string]map[model.ActionKind]int, error)
	// DeleteCreatedBefore physically removes entries created before the
	// cutoff, regardless of undone state.
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RuleRepository stores cleanup rules.
type RuleRepository interface {
	Create(ctx context.Context, rule *model.CleanupRule) error
	FindByID(ctx context.Context, accountID, id string) (*model.CleanupRule, error)
	// FindByAccount returns the account's rules ordered by display order.
	FindByAccount(ctx context.Context, accountID string) ([]*model.CleanupRule, error)
	Update(ctx context.Context, rule *model.CleanupRule) error
	UpdateDisplayOrder(ctx context.Context, accountID, id string, order int) error
	Delete(ctx context.Context, accountID, id string) error
}
