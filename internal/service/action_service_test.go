package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"mailnick/internal/gmail"
	"mailnick/internal/logger"
	"mailnick/internal/model"
	"mailnick/internal/repository"
	"mailnick/internal/repository/memory"
	"mailnick/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

const testAccount = "user@example.com"

type actionFixture struct {
	accounts *memory.AccountRepository
	emails   *memory.EmailRepository
	actions  *memory.ActionRepository
	mail     *gmail.MockClient
	svc      service.ActionService
}

func newActionFixture(t *testing.T) *actionFixture {
	t.Helper()

	accounts := memory.NewAccountRepository()
	emails := memory.NewEmailRepository()
	actions := memory.NewActionRepository(emails)
	mail := gmail.NewMockClient()

	require.NoError(t, accounts.Upsert(context.Background(),
		model.NewAccount(testAccount, "access", "refresh", time.Now().Add(time.Hour))))

	svc := service.NewActionService(emails, actions, accounts, mail, 24*time.Hour, 48*time.Hour, logger.New())
	return &actionFixture{accounts: accounts, emails: emails, actions: actions, mail: mail, svc: svc}
}

func (f *actionFixture) addEmail(t *testing.T, id string, unread bool, labels ...string) {
	t.Helper()
	e := model.NewEmail(testAccount, id, "t-"+id, "sender@example.com", testAccount, "Subject "+id, "snippet", time.Now())
	e.IsUnread = unread
	e.LabelIDs = labels
	require.NoError(t, f.emails.Create(context.Background(), e))
}

func TestMarkReadAndUndo(t *testing.T) {
	f := newActionFixture(t)
	f.addEmail(t, "m1", true, "INBOX", "UNREAD")
	ctx := context.Background()

	var removed []string
	f.mail.ModifyLabelsFunc = func(ctx context.Context, accountID, messageID string, add, remove []string) error {
		removed = append(removed, remove...)
		return nil
	}

	outcome, err := f.svc.MarkRead(ctx, testAccount, "m1", "")
	require.NoError(t, err)
	require.NotEmpty(t, outcome.ActionID)
	assert.Contains(t, removed, "UNREAD")

	// local record flipped to read
	e, err := f.emails.FindByID(ctx, testAccount, "m1")
	require.NoError(t, err)
	assert.False(t, e.IsUnread)

	// undo restores the unread flag and re-adds UNREAD upstream
	var added []string
	f.mail.ModifyLabelsFunc = func(ctx context.Context, accountID, messageID string, add, remove []string) error {
		added = append(added, add...)
		return nil
	}
	require.NoError(t, f.svc.Undo(ctx, testAccount, outcome.ActionID))
	assert.Contains(t, added, "UNREAD")

	e, err = f.emails.FindByID(ctx, testAccount, "m1")
	require.NoError(t, err)
	assert.True(t, e.IsUnread)

	// second undo is rejected without touching Gmail
	called := false
	f.mail.ModifyLabelsFunc = func(ctx context.Context, accountID, messageID string, add, remove []string) error {
		called = true
		return nil
	}
	err = f.svc.Undo(ctx, testAccount, outcome.ActionID)
	assert.ErrorIs(t, err, service.ErrAlreadyUndone)
	assert.False(t, called)
}

func TestMarkReadUndoSkipsAlreadyReadEmail(t *testing.T) {
	f := newActionFixture(t)
	f.addEmail(t, "m1", false, "INBOX")
	ctx := context.Background()

	outcome, err := f.svc.MarkRead(ctx, testAccount, "m1", "")
	require.NoError(t, err)

	// the email was already read, so undo must not mark it unread
	called := false
	f.mail.ModifyLabelsFunc = func(ctx context.Context, accountID, messageID string, add, remove []string) error {
		called = true
		return nil
	}
	require.NoError(t, f.svc.Undo(ctx, testAccount, outcome.ActionID))
	assert.False(t, called)

	e, err := f.emails.FindByID(ctx, testAccount, "m1")
	require.NoError(t, err)
	assert.False(t, e.IsUnread)
}

func TestArchiveCapturesAndRestoresState(t *testing.T) {
	f := newActionFixture(t)
	f.addEmail(t, "m1", true, "INBOX", "UNREAD")
	ctx := context.Background()

	outcome, err := f.svc.Archive(ctx, testAccount, "m1", "rule-9")
	require.NoError(t, err)

	entry, err := f.actions.FindByID(ctx, testAccount, outcome.ActionID)
	require.NoError(t, err)
	assert.Equal(t, model.ActionArchive, entry.Kind)
	assert.Equal(t, "rule-9", entry.RuleID)

	state, err := entry.State()
	require.NoError(t, err)
	assert.True(t, state.IsUnread)
	assert.Equal(t, []string{"INBOX", "UNREAD"}, state.LabelIDs)

	// undo puts the message back in the inbox and restores unread
	var added []string
	f.mail.ModifyLabelsFunc = func(ctx context.Context, accountID, messageID string, add, remove []string) error {
		added = append(added, add...)
		return nil
	}
	require.NoError(t, f.svc.Undo(ctx, testAccount, outcome.ActionID))
	assert.Contains(t, added, "INBOX")
	assert.Contains(t, added, "UNREAD")

	e, err := f.emails.FindByID(ctx, testAccount, "m1")
	require.NoError(t, err)
	assert.True(t, e.IsUnread)
}

func TestTrashAndUndo(t *testing.T) {
	f := newActionFixture(t)
	f.addEmail(t, "m1", true, "INBOX", "UNREAD")
	ctx := context.Background()

	trashed := false
	f.mail.TrashFunc = func(ctx context.Context, accountID, messageID string) error {
		trashed = true
		return nil
	}
	outcome, err := f.svc.Trash(ctx, testAccount, "m1", "")
	require.NoError(t, err)
	assert.True(t, trashed)

	// trash leaves the local record alone
	e, err := f.emails.FindByID(ctx, testAccount, "m1")
	require.NoError(t, err)
	assert.True(t, e.IsUnread)

	untrashed := false
	f.mail.UntrashFunc = func(ctx context.Context, accountID, messageID string) error {
		untrashed = true
		return nil
	}
	require.NoError(t, f.svc.Undo(ctx, testAccount, outcome.ActionID))
	assert.True(t, untrashed)
}

func TestLabelAddsAndUndoRemovesExactLabel(t *testing.T) {
	f := newActionFixture(t)
	f.addEmail(t, "m1", true, "Label_A")
	ctx := context.Background()

	f.mail.EnsureLabelFunc = func(ctx context.Context, accountID, labelName string) (string, error) {
		assert.Equal(t, "Later", labelName)
		return "Label_B", nil
	}

	outcome, err := f.svc.Label(ctx, testAccount, "m1", "Later", "")
	require.NoError(t, err)
	assert.Equal(t, "Label_B", outcome.LabelID)

	e, err := f.emails.FindByID(ctx, testAccount, "m1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Label_A", "Label_B"}, e.LabelIDs)

	entry, err := f.actions.FindByID(ctx, testAccount, outcome.ActionID)
	require.NoError(t, err)
	state, err := entry.State()
	require.NoError(t, err)
	assert.Equal(t, "Label_B", state.AddedLabelID)

	// undo removes exactly the added label, keeping Label_A
	var removed []string
	f.mail.ModifyLabelsFunc = func(ctx context.Context, accountID, messageID string, add, remove []string) error {
		removed = append(removed, remove...)
		return nil
	}
	require.NoError(t, f.svc.Undo(ctx, testAccount, outcome.ActionID))
	assert.Equal(t, []string{"Label_B"}, removed)

	e, err = f.emails.FindByID(ctx, testAccount, "m1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Label_A"}, e.LabelIDs)
}

func TestPerformUnknownEmail(t *testing.T) {
	f := newActionFixture(t)

	_, err := f.svc.MarkRead(context.Background(), testAccount, "missing", "")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestPerformFailureRecordsNothing(t *testing.T) {
	f := newActionFixture(t)
	f.addEmail(t, "m1", true, "INBOX", "UNREAD")
	ctx := context.Background()

	f.mail.ModifyLabelsFunc = func(ctx context.Context, accountID, messageID string, add, remove []string) error {
		return errors.New("rate limited")
	}

	_, err := f.svc.MarkRead(ctx, testAccount, "m1", "")
	assert.ErrorIs(t, err, service.ErrActionFailed)

	// no ledger entry and no local mutation
	rows, err := f.actions.FindLive(ctx, testAccount)
	require.NoError(t, err)
	assert.Empty(t, rows)

	e, err := f.emails.FindByID(ctx, testAccount, "m1")
	require.NoError(t, err)
	assert.True(t, e.IsUnread)
}

func TestPerformReauthPurgesCredentials(t *testing.T) {
	f := newActionFixture(t)
	f.addEmail(t, "m1", true, "INBOX", "UNREAD")
	ctx := context.Background()

	f.mail.ModifyLabelsFunc = func(ctx context.Context, accountID, messageID string, add, remove []string) error {
		return &googleapi.Error{Code: 401, Message: "Invalid Credentials"}
	}

	_, err := f.svc.MarkRead(ctx, testAccount, "m1", "")
	assert.ErrorIs(t, err, service.ErrReauthRequired)
	assert.NotErrorIs(t, err, service.ErrActionFailed)

	// tokens gone, account row still there
	account, err := f.accounts.FindByID(ctx, testAccount)
	require.NoError(t, err)
	assert.Empty(t, account.AccessToken)
	assert.Empty(t, account.RefreshToken)
}

func TestUndoExpiredWindow(t *testing.T) {
	accounts := memory.NewAccountRepository()
	emails := memory.NewEmailRepository()
	actions := memory.NewActionRepository(emails)
	mail := gmail.NewMockClient()
	ctx := context.Background()

	require.NoError(t, accounts.Upsert(ctx, model.NewAccount(testAccount, "a", "r", time.Now().Add(time.Hour))))

	// zero-length undo window: entries expire immediately
	svc := service.NewActionService(emails, actions, accounts, mail, 0, 48*time.Hour, logger.New())

	e := model.NewEmail(testAccount, "m1", "t1", "s@example.com", testAccount, "S", "sn", time.Now())
	require.NoError(t, emails.Create(ctx, e))

	outcome, err := svc.MarkRead(ctx, testAccount, "m1", "")
	require.NoError(t, err)

	called := false
	mail.ModifyLabelsFunc = func(ctx context.Context, accountID, messageID string, add, remove []string) error {
		called = true
		return nil
	}
	err = svc.Undo(ctx, testAccount, outcome.ActionID)
	assert.ErrorIs(t, err, service.ErrExpired)
	assert.False(t, called)
}

func TestUndoUnknownAction(t *testing.T) {
	f := newActionFixture(t)

	err := f.svc.Undo(context.Background(), testAccount, "nope")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestUndoFailureKeepsEntryUndoable(t *testing.T) {
	f := newActionFixture(t)
	f.addEmail(t, "m1", true, "INBOX", "UNREAD")
	ctx := context.Background()

	outcome, err := f.svc.MarkRead(ctx, testAccount, "m1", "")
	require.NoError(t, err)

	f.mail.ModifyLabelsFunc = func(ctx context.Context, accountID, messageID string, add, remove []string) error {
		return errors.New("backend unavailable")
	}
	err = f.svc.Undo(ctx, testAccount, outcome.ActionID)
	assert.ErrorIs(t, err, service.ErrUndoFailed)

	entry, err := f.actions.FindByID(ctx, testAccount, outcome.ActionID)
	require.NoError(t, err)
	assert.False(t, entry.Undone)

	// retry after the outage succeeds
	f.mail.ModifyLabelsFunc = nil
	assert.NoError(t, f.svc.Undo(ctx, testAccount, outcome.ActionID))
}

func TestPurgeExpiredUsesRetentionNotUndoWindow(t *testing.T) {
	f := newActionFixture(t)
	f.addEmail(t, "m1", true, "INBOX", "UNREAD")
	f.addEmail(t, "m2", true, "INBOX", "UNREAD")
	ctx := context.Background()

	old, err := f.svc.MarkRead(ctx, testAccount, "m1", "")
	require.NoError(t, err)
	fresh, err := f.svc.MarkRead(ctx, testAccount, "m2", "")
	require.NoError(t, err)

	// age the first entry past the 48h retention period
	entry, err := f.actions.FindByID(ctx, testAccount, old.ActionID)
	require.NoError(t, err)
	entry.CreatedAt = time.Now().Add(-72 * time.Hour)
	require.NoError(t, f.actions.Record(ctx, entry, nil))

	deleted, err := f.svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = f.actions.FindByID(ctx, testAccount, old.ActionID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = f.actions.FindByID(ctx, testAccount, fresh.ActionID)
	assert.NoError(t, err)
}
