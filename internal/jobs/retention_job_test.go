package jobs

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
)

func TestRetentionJobRunOnce(t *testing.T) {
	accounts := memory.NewAccountRepository()
	emails := memory.NewEmailRepository()
	actions := memory.NewActionRepository(emails)
	ctx := context.Background()

	svc := service.NewActionService(emails, actions, accounts, gmail.NewMockClient(), 24*time.Hour, 48*time.Hour, logger.New())

	old, err := model.NewActionEntry("user@example.com", "m1", model.ActionTrash, model.OriginalState{}, time.Now().Add(-24*time.Hour), "")
	require.NoError(t, err)
	old.CreatedAt = time.Now().Add(-72 * time.Hour)
	require.NoError(t, actions.Record(ctx, old, nil))

	fresh, err := model.NewActionEntry("user@example.com", "m2", model.ActionTrash, model.OriginalState{}, time.Now().Add(time.Hour), "")
	require.NoError(t, err)
	require.NoError(t, actions.Record(ctx, fresh, nil))

	job := NewRetentionJob(svc, time.Hour, logger.New())
	job.RunOnce()

	_, err = actions.FindByID(ctx, "user@example.com", old.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = actions.FindByID(ctx, "user@example.com", fresh.ID)
	assert.NoError(t, err)
}
