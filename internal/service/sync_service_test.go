package service_test

import (
	"context"
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

func TestSyncUnreadSkipsExistingEmails(t *testing.T) {
	accounts := memory.NewAccountRepository()
	emails := memory.NewEmailRepository()
	mail := gmail.NewMockClient()
	ctx := context.Background()

	require.NoError(t, accounts.Upsert(ctx, model.NewAccount(testAccount, "a", "r", time.Now().Add(time.Hour))))

	// m1 is already stored locally
	existing := model.NewEmail(testAccount, "m1", "t1", "s@example.com", testAccount, "Old", "old", time.Now())
	require.NoError(t, emails.Create(ctx, existing))

	mail.ListUnreadIDsFunc = func(ctx context.Context, accountID string, max int64) ([]string, error) {
		return []string{"m1", "m2", "m3"}, nil
	}
	fetched := []string{}
	mail.FetchMessageFunc = func(ctx context.Context, accountID, messageID string) (*model.Email, error) {
		fetched = append(fetched, messageID)
		return model.NewEmail(accountID, messageID, "t-"+messageID, "s@example.com", accountID, "New", "new", time.Now()), nil
	}

	svc := service.NewSyncService(emails, accounts, mail, 100, logger.New())
	result, err := svc.SyncUnread(ctx, testAccount)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Synced)
	assert.Equal(t, 3, result.TotalUnread)
	assert.Equal(t, []string{"m2", "m3"}, fetched)

	stored, err := emails.FindByAccount(ctx, testAccount, repository.EmailFilter{})
	require.NoError(t, err)
	assert.Len(t, stored, 3)
}

func TestSyncUnreadContinuesPastFetchFailure(t *testing.T) {
	accounts := memory.NewAccountRepository()
	emails := memory.NewEmailRepository()
	mail := gmail.NewMockClient()
	ctx := context.Background()

	require.NoError(t, accounts.Upsert(ctx, model.NewAccount(testAccount, "a", "r", time.Now().Add(time.Hour))))

	mail.ListUnreadIDsFunc = func(ctx context.Context, accountID string, max int64) ([]string, error) {
		return []string{"m1", "m2"}, nil
	}
	mail.FetchMessageFunc = func(ctx context.Context, accountID, messageID string) (*model.Email, error) {
		if messageID == "m1" {
			return nil, assert.AnError
		}
		return model.NewEmail(accountID, messageID, "t", "s@example.com", accountID, "S", "sn", time.Now()), nil
	}

	svc := service.NewSyncService(emails, accounts, mail, 100, logger.New())
	result, err := svc.SyncUnread(ctx, testAccount)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Synced)
	assert.Equal(t, 2, result.TotalUnread)
}

func TestSyncUnreadReauthPurgesCredentials(t *testing.T) {
	accounts := memory.NewAccountRepository()
	emails := memory.NewEmailRepository()
	mail := gmail.NewMockClient()
	ctx := context.Background()

	require.NoError(t, accounts.Upsert(ctx, model.NewAccount(testAccount, "a", "r", time.Now().Add(time.Hour))))

	mail.ListUnreadIDsFunc = func(ctx context.Context, accountID string, max int64) ([]string, error) {
		return nil, &googleapi.Error{Code: 401, Message: "Invalid Credentials"}
	}

	svc := service.NewSyncService(emails, accounts, mail, 100, logger.New())
	_, err := svc.SyncUnread(ctx, testAccount)
	assert.ErrorIs(t, err, service.ErrReauthRequired)

	account, err := accounts.FindByID(ctx, testAccount)
	require.NoError(t, err)
	assert.Empty(t, account.AccessToken)
}
