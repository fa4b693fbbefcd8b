package memory

import (
	"context"
	"testing"
	"time"

	"mailnick/internal/model"
	"mailnick/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAccount = "user@example.com"

func TestAccountRepositoryDeleteCredentials(t *testing.T) {
	repo := NewAccountRepository()
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, model.NewAccount(testAccount, "access", "refresh", time.Now().Add(time.Hour))))

	require.NoError(t, repo.DeleteCredentials(ctx, testAccount))

	account, err := repo.FindByID(ctx, testAccount)
	require.NoError(t, err)
	assert.Empty(t, account.AccessToken)
	assert.Empty(t, account.RefreshToken)

	assert.ErrorIs(t, repo.DeleteCredentials(ctx, "missing"), repository.ErrNotFound)
}

func TestActionRecordAppliesEmailUpdateTogether(t *testing.T) {
	emails := NewEmailRepository()
	actions := NewActionRepository(emails)
	ctx := context.Background()

	e := model.NewEmail(testAccount, "m1", "t1", "s@example.com", testAccount, "S", "sn", time.Now())
	e.LabelIDs = []string{"INBOX", "UNREAD"}
	require.NoError(t, emails.Create(ctx, e))

	entry, err := model.NewActionEntry(testAccount, "m1", model.ActionMarkRead,
		model.OriginalState{IsUnread: true, LabelIDs: e.LabelIDs}, time.Now().Add(time.Hour), "")
	require.NoError(t, err)

	read := false
	require.NoError(t, actions.Record(ctx, entry, &repository.EmailUpdate{IsUnread: &read}))

	got, err := emails.FindByID(ctx, testAccount, "m1")
	require.NoError(t, err)
	assert.False(t, got.IsUnread)

	stored, err := actions.FindByID(ctx, testAccount, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ActionMarkRead, stored.Kind)

	// entries are scoped to their account
	_, err = actions.FindByID(ctx, "other@example.com", entry.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestActionFindLiveNewestFirstExcludesUndone(t *testing.T) {
	emails := NewEmailRepository()
	actions := NewActionRepository(emails)
	ctx := context.Background()

	for _, id := range []string{"m1", "m2", "m3"} {
		require.NoError(t, emails.Create(ctx, model.NewEmail(testAccount, id, "t", "s@example.com", testAccount, "S", "sn", time.Now())))
	}

	mk := func(emailID string, createdAt time.Time) *model.ActionEntry {
		entry, err := model.NewActionEntry(testAccount, emailID, model.ActionTrash, model.OriginalState{}, time.Now().Add(time.Hour), "")
		require.NoError(t, err)
		entry.CreatedAt = createdAt
		require.NoError(t, actions.Record(ctx, entry, nil))
		return entry
	}

	now := time.Now()
	oldest := mk("m1", now.Add(-2*time.Hour))
	undone := mk("m2", now.Add(-time.Hour))
	newest := mk("m3", now)

	require.NoError(t, actions.MarkUndone(ctx, testAccount, undone.ID))

	rows, err := actions.FindLive(ctx, testAccount)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, newest.ID, rows[0].Action.ID)
	assert.Equal(t, oldest.ID, rows[1].Action.ID)
	assert.Equal(t, "m3", rows[0].Email.ID)
}

func TestEmailFindByAccountFilters(t *testing.T) {
	emails := NewEmailRepository()
	ctx := context.Background()

	unread := model.NewEmail(testAccount, "m1", "t1", "s@example.com", testAccount, "A", "sn", time.Now())
	read := model.NewEmail(testAccount, "m2", "t2", "s@example.com", testAccount, "B", "sn", time.Now().Add(-time.Hour))
	read.IsUnread = false
	read.Category = "promotions"
	require.NoError(t, emails.Create(ctx, unread))
	require.NoError(t, emails.Create(ctx, read))

	all, err := emails.FindByAccount(ctx, testAccount, repository.EmailFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyUnread, err := emails.FindByAccount(ctx, testAccount, repository.EmailFilter{UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, onlyUnread, 1)
	assert.Equal(t, "m1", onlyUnread[0].ID)

	byCategory, err := emails.FindByAccount(ctx, testAccount, repository.EmailFilter{Category: "promotions"})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "m2", byCategory[0].ID)

	limited, err := emails.FindByAccount(ctx, testAccount, repository.EmailFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestRuleRepositoryOrdering(t *testing.T) {
	rules := NewRuleRepository()
	ctx := context.Background()

	criteria := model.MatchCriteria{Type: model.CriteriaAll}
	b := model.NewCleanupRule(testAccount, "B", criteria, 1, "")
	a := model.NewCleanupRule(testAccount, "A", criteria, 0, "")
	require.NoError(t, rules.Create(ctx, b))
	require.NoError(t, rules.Create(ctx, a))

	ordered, err := rules.FindByAccount(ctx, testAccount)
	require.NoError(t, err)
	require.Len(t, ordered, 2)
	assert.Equal(t, "A", ordered[0].Name)
	assert.Equal(t, "B", ordered[1].Name)

	require.NoError(t, rules.UpdateDisplayOrder(ctx, testAccount, a.ID, 5))
	ordered, err = rules.FindByAccount(ctx, testAccount)
	require.NoError(t, err)
	assert.Equal(t, "B", ordered[0].Name)
}
