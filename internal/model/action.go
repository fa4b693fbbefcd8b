package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ActionKind is the type of a reversible email mutation.
type ActionKind string

const (
	ActionMarkRead ActionKind = "mark_read"
	ActionArchive  ActionKind = "archive"
	ActionTrash    ActionKind = "trash"
	ActionLabel    ActionKind = "label"
)

func (k ActionKind) Valid() bool {
	switch k {
	case ActionMarkRead, ActionArchive, ActionTrash, ActionLabel:
		return true
	}
	return false
}

// OriginalState is the pre-action snapshot captured so the action can be
// reversed. AddedLabelID is set for label actions only and identifies the
// exact label the action attached.
type OriginalState struct {
	IsUnread     bool     `json:"isUnread"`
	LabelIDs     []string `json:"labelIds"`
	AddedLabelID string   `json:"addedLabelId,omitempty"`
}

// ActionEntry is one ledger record of a reversible mutation performed on an
// email. It is mutated exactly once, when undone.
type ActionEntry struct {
	ID            string     `json:"id"`
	AccountID     string     `json:"account_id"`
	EmailID       string     `json:"email_id"`
	Kind          ActionKind `json:"action_type"`
	OriginalState string     `json:"original_state"` // JSON snapshot
	CreatedAt     time.Time  `json:"created_at"`
	Undone        bool       `json:"undone"`
	ExpiresAt     time.Time  `json:"expires_at"`
	RuleID        string     `json:"rule_id,omitempty"`
}

func NewActionEntry(accountID, emailID string, kind ActionKind, state OriginalState, expiresAt time.Time, ruleID string) (*ActionEntry, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("marshal original state: %w", err)
	}
	return &ActionEntry{
		ID:            uuid.New().String(),
		AccountID:     accountID,
		EmailID:       emailID,
		Kind:          kind,
		OriginalState: string(raw),
		CreatedAt:     time.Now(),
		ExpiresAt:     expiresAt,
		RuleID:        ruleID,
	}, nil
}

// State deserializes the captured snapshot.
func (a *ActionEntry) State() (OriginalState, error) {
	var state OriginalState
	if err := json.Unmarshal([]byte(a.OriginalState), &state); err != nil {
		return OriginalState{}, fmt.Errorf("unmarshal original state: %w", err)
	}
	return state, nil
}

// Undoable reports whether the entry is still eligible for reversal at the
// given instant.
func (a *ActionEntry) Undoable(now time.Time) bool {
	return !a.Undone && now.Before(a.ExpiresAt)
}
