package model

import (
	"strings"
	"time"
)

// Email is a synced Gmail message. The ID is the Gmail message id, unique
// within an account.
type Email struct {
	ID         string    `json:"id"`
	AccountID  string    `json:"account_id"`
	ThreadID   string    `json:"thread_id"`
	From       string    `json:"from"`
	FromDomain string    `json:"from_domain"`
	To         string    `json:"to"`
	Subject    string    `json:"subject"`
	Snippet    string    `json:"snippet"`
	ReceivedAt time.Time `json:"received_at"`
	IsUnread   bool      `json:"is_unread"`
	LabelIDs   []string  `json:"label_ids"`
	Category   string    `json:"category"`
	SyncedAt   time.Time `json:"synced_at"`
}

func NewEmail(accountID, gmailID, threadID, from, to, subject, snippet string, receivedAt time.Time) *Email {
	return &Email{
		ID:         gmailID,
		AccountID:  accountID,
		ThreadID:   threadID,
		From:       from,
		FromDomain: ExtractDomain(from),
		To:         to,
		Subject:    subject,
		Snippet:    snippet,
		ReceivedAt: receivedAt,
		IsUnread:   true,
		SyncedAt:   time.Now(),
	}
}

// HasLabel reports whether the stored label set contains the given id.
func (e *Email) HasLabel(labelID string) bool {
	for _, id := range e.LabelIDs {
		if id == labelID {
			return true
		}
	}
	return false
}

// ExtractDomain pulls the sender domain out of a From header value,
// handling both `Name <user@domain>` and bare `user@domain` forms.
func ExtractDomain(from string) string {
	if start := strings.LastIndex(from, "<"); start != -1 {
		if end := strings.Index(from[start:], ">"); end != -1 {
			from = from[start+1 : start+end]
		}
	}
	if at := strings.LastIndex(from, "@"); at != -1 {
		return from[at+1:]
	}
	return from
}
