package service

import (
	"context"
	"time"

	"mailnick/internal/cleanup"
	"mailnick/internal/model"
	"mailnick/internal/repository"
)

// AuthService manages connected accounts and their credentials.
type AuthService interface {
	UpsertAccount(ctx context.Context, address, accessToken, refreshToken string, tokenExpiry time.Time) (*model.Account, error)
	GetAccount(ctx context.Context, accountID string) (*model.Account, error)
	ListAccountIDs(ctx context.Context) ([]string, error)
	DeleteAccount(ctx context.Context, accountID string) error
}

// SyncResult reports one sync pass over an account's unread mail.
type SyncResult struct {
	Synced      int `json:"synced"`
	TotalUnread int `json:"total_unread"`
}

// SyncService pulls unread Gmail messages into the local store.
type SyncService interface {
	SyncUnread(ctx context.Context, accountID string) (*SyncResult, error)
}

// ActionResult is what a side effect reports back to the ledger: optional
// email-record updates, extra state to fold into the snapshot, and extra
// response data for the caller.
type ActionResult struct {
	SetUnread    *bool    // update the email's unread flag
	SetLabelIDs  []string // replace the email's stored label set (nil = unchanged)
	AddedLabelID string   // folded into the snapshot so undo removes exactly this label
	LabelID      string   // surfaced to the caller
}

// SideEffect performs the external mutation for an action. It receives the
// email as it was before the action.
type SideEffect func(ctx context.Context, email *model.Email) (*ActionResult, error)

// PerformOutcome is returned on a successful Perform.
type PerformOutcome struct {
	ActionID string `json:"action_id"`
	LabelID  string `json:"label_id,omitempty"`
}

// ActionService is the action ledger: it executes reversible email actions,
// records them with an undo window, and reverses them on request.
type ActionService interface {
	Perform(ctx context.Context, accountID, emailID string, kind model.ActionKind, effect SideEffect, ruleID string) (*PerformOutcome, error)
	MarkRead(ctx context.Context, accountID, emailID, ruleID string) (*PerformOutcome, error)
	Archive(ctx context.Context, accountID, emailID, ruleID string) (*PerformOutcome, error)
	Trash(ctx context.Context, accountID, emailID, ruleID string) (*PerformOutcome, error)
	Label(ctx context.Context, accountID, emailID, labelName, ruleID string) (*PerformOutcome, error)
	Undo(ctx context.Context, accountID, actionID string) error
	EmailsWithActions(ctx context.Context, accountID string) ([]repository.EmailWithAction, error)
	// PurgeExpired deletes entries older than the retention period.
	PurgeExpired(ctx context.Context) (int64, error)
}

// RuleUpdate carries a partial cleanup-rule update; nil fields are left
// unchanged.
type RuleUpdate struct {
	Name          *string
	MatchCriteria *model.MatchCriteria
	Color         *string
	Enabled       *bool
}

// RuleService manages cleanup rules and groups emails into tasks.
type RuleService interface {
	CreateRule(ctx context.Context, accountID, name string, criteria model.MatchCriteria, color string) (*model.CleanupRule, error)
	ListRules(ctx context.Context, accountID string) ([]*model.CleanupRule, error)
	UpdateRule(ctx context.Context, accountID, ruleID string, update RuleUpdate) (*model.CleanupRule, error)
	DeleteRule(ctx context.Context, accountID, ruleID string) error
	Reorder(ctx context.Context, accountID string, ruleIDs []string) error
	Stats(ctx context.Context, accountID string) (map[string]map[model.ActionKind]int, error)
	Tasks(ctx context.Context, accountID string, hiddenRuleIDs []string) ([]cleanup.TaskMatch, error)
}

// MailService is the external mail collaborator the ledger and sync act
// through.
type MailService interface {
	ListUnreadIDs(ctx context.Context, accountID string, max int64) ([]string, error)
	FetchMessage(ctx context.Context, accountID, messageID string) (*model.Email, error)
	ModifyLabels(ctx context.Context, accountID, messageID string, addLabelIDs, removeLabelIDs []string) error
	Trash(ctx context.Context, accountID, messageID string) error
	Untrash(ctx context.Context, accountID, messageID string) error
	EnsureLabel(ctx context.Context, accountID, labelName string) (string, error)
}

// SuggestedGroup is one AI-proposed cluster of emails with a batch action.
type SuggestedGroup struct {
	Name            string   `json:"name"`
	EmailIDs        []string `json:"emailIds"`
	SuggestedAction string   `json:"suggestedAction"`
	Reason          string   `json:"reason"`
}

// AIClient asks a generative model to cluster emails into actionable groups.
type AIClient interface {
	Available() bool
	GroupEmails(ctx context.Context, emails []*model.Email) ([]SuggestedGroup, error)
}
