// Package memory provides in-memory repository implementations used when no
// database is configured and throughout the tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"mailnick/internal/model"
	"mailnick/internal/repository"
)

type AccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*model.Account
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{accounts: make(map[string]*model.Account)}
}

func (r *AccountRepository) Upsert(ctx context.Context, account *model.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *account
	copied.UpdatedAt = time.Now()
	r.accounts[account.ID] = &copied
	return nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*model.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	account, ok := r.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *account
	return &copied, nil
}

func (r *AccountRepository) FindAll(ctx context.Context) ([]*model.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	accounts := make([]*model.Account, 0, len(r.accounts))
	for _, account := range r.accounts {
		copied := *account
		accounts = append(accounts, &copied)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.accounts, id)
	return nil
}

func (r *AccountRepository) DeleteCredentials(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.AccessToken = ""
	account.RefreshToken = ""
	account.UpdatedAt = time.Now()
	return nil
}

type emailKey struct {
	accountID string
	id        string
}

type EmailRepository struct {
	mu     sync.RWMutex
	emails map[emailKey]*model.Email
}

func NewEmailRepository() *EmailRepository {
	return &EmailRepository{emails: make(map[emailKey]*model.Email)}
}

func (r *EmailRepository) Create(ctx context.Context, email *model.Email) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *email
	copied.LabelIDs = append([]string(nil), email.LabelIDs...)
	r.emails[emailKey{email.AccountID, email.ID}] = &copied
	return nil
}

func (r *EmailRepository) FindByID(ctx context.Context, accountID, id string) (*model.Email, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	email, ok := r.emails[emailKey{accountID, id}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyEmail(email), nil
}

func (r *EmailRepository) FindByAccount(ctx context.Context, accountID string, filter repository.EmailFilter) ([]*model.Email, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var emails []*model.Email
	for key, email := range r.emails {
		if key.accountID != accountID {
			continue
		}
		if filter.UnreadOnly && !email.IsUnread {
			continue
		}
		if filter.Category != "" && email.Category != filter.Category {
			continue
		}
		emails = append(emails, copyEmail(email))
	}
	sort.Slice(emails, func(i, j int) bool { return emails[i].ReceivedAt.After(emails[j].ReceivedAt) })
	if filter.Limit > 0 && len(emails) > filter.Limit {
		emails = emails[:filter.Limit]
	}
	return emails, nil
}

func (r *EmailRepository) UpdateFlags(ctx context.Context, accountID, id string, update repository.EmailUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	email, ok := r.emails[emailKey{accountID, id}]
	if !ok {
		return repository.ErrNotFound
	}
	if update.IsUnread != nil {
		email.IsUnread = *update.IsUnread
	}
	if update.LabelIDs != nil {
		email.LabelIDs = append([]string(nil), update.LabelIDs...)
	}
	return nil
}

func copyEmail(email *model.Email) *model.Email {
	copied := *email
	copied.LabelIDs = append([]string(nil), email.LabelIDs...)
	return &copied
}

type ActionRepository struct {
	mu      sync.RWMutex
	actions map[string]*model.ActionEntry
	emails  *EmailRepository
}

// NewActionRepository shares the email repository so Record can apply the
// email update together with the ledger insert.
func NewActionRepository(emails *EmailRepository) *ActionRepository {
	return &ActionRepository{
		actions: make(map[string]*model.ActionEntry),
		emails:  emails,
	}
}

func (r *ActionRepository) Record(ctx context.Context, entry *model.ActionEntry, update *repository.EmailUpdate) error {
	if update != nil {
		if err := r.emails.UpdateFlags(ctx, entry.AccountID, entry.EmailID, *update); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *entry
	r.actions[entry.ID] = &copied
	return nil
}

func (r *ActionRepository) FindByID(ctx context.Context, accountID, id string) (*model.ActionEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.actions[id]
	if !ok || entry.AccountID != accountID {
		return nil, repository.ErrNotFound
	}
	copied := *entry
	return &copied, nil
}

func (r *ActionRepository) MarkUndone(ctx context.Context, accountID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.actions[id]
	if !ok || entry.AccountID != accountID {
		return repository.ErrNotFound
	}
	entry.Undone = true
	return nil
}

func (r *ActionRepository) FindLive(ctx context.Context, accountID string) ([]repository.EmailWithAction, error) {
	r.mu.RLock()
	entries := make([]*model.ActionEntry, 0)
	for _, entry := range r.actions {
		if entry.AccountID == accountID && !entry.Undone {
			copied := *entry
			entries = append(entries, &copied)
		}
	}
	r.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt.After(entries[j].CreatedAt) })

	var result []repository.EmailWithAction
	for _, entry := range entries {
		email, err := r.emails.FindByID(ctx, accountID, entry.EmailID)
		if err != nil {
			continue
		}
		result = append(result, repository.EmailWithAction{Email: email, Action: entry})
	}
	return result, nil
}

func (r *ActionRepository) StatsByRule(ctx context.Context, accountID string) (map[string]map[model.ActionKind]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stats := make(map[string]map[model.ActionKind]int)
	for _, entry := range r.actions {
		if entry.AccountID != accountID || entry.Undone || entry.RuleID == "" {
			continue
		}
		if stats[entry.RuleID] == nil {
			stats[entry.RuleID] = make(map[model.ActionKind]int)
		}
		stats[entry.RuleID][entry.Kind]++
	}
	return stats, nil
}

func (r *ActionRepository) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for id, entry := range r.actions {
		if entry.CreatedAt.Before(cutoff) {
			delete(r.actions, id)
			deleted++
		}
	}
	return deleted, nil
}

type RuleRepository struct {
	mu    sync.RWMutex
	rules map[string]*model.CleanupRule
}

func NewRuleRepository() *RuleRepository {
	return &RuleRepository{rules: make(map[string]*model.CleanupRule)}
}

func (r *RuleRepository) Create(ctx context.Context, rule *model.CleanupRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *rule
	r.rules[rule.ID] = &copied
	return nil
}

func (r *RuleRepository) FindByID(ctx context.Context, accountID, id string) (*model.CleanupRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[id]
	if !ok || rule.AccountID != accountID {
		return nil, repository.ErrNotFound
	}
	copied := *rule
	return &copied, nil
}

func (r *RuleRepository) FindByAccount(ctx context.Context, accountID string) ([]*model.CleanupRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var rules []*model.CleanupRule
	for _, rule := range r.rules {
		if rule.AccountID == accountID {
			copied := *rule
			rules = append(rules, &copied)
		}
	}
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].DisplayOrder != rules[j].DisplayOrder {
			return rules[i].DisplayOrder < rules[j].DisplayOrder
		}
		return rules[i].CreatedAt.Before(rules[j].CreatedAt)
	})
	return rules, nil
}

func (r *RuleRepository) Update(ctx context.Context, rule *model.CleanupRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.rules[rule.ID]
	if !ok || existing.AccountID != rule.AccountID {
		return repository.ErrNotFound
	}
	copied := *rule
	copied.UpdatedAt = time.Now()
	copied.DisplayOrder = existing.DisplayOrder
	copied.CreatedAt = existing.CreatedAt
	r.rules[rule.ID] = &copied
	return nil
}

func (r *RuleRepository) UpdateDisplayOrder(ctx context.Context, accountID, id string, order int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rule, ok := r.rules[id]
	if !ok || rule.AccountID != accountID {
		return repository.ErrNotFound
	}
	rule.DisplayOrder = order
	rule.UpdatedAt = time.Now()
	return nil
}

func (r *RuleRepository) Delete(ctx context.Context, accountID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rule, ok := r.rules[id]
	if !ok || rule.AccountID != accountID {
		return repository.ErrNotFound
	}
	delete(r.rules, id)
	return nil
}
