package service

import (
	"context"
	"errors"
	"fmt"

	"mailnick/internal/gmail"
	"mailnick/internal/logger"
	"mailnick/internal/repository"
)

type syncService struct {
	emailRepo   repository.EmailRepository
	accountRepo repository.AccountRepository
	mail        MailService
	maxResults  int64
	logger      *logger.Logger
}

// NewSyncService creates the sync service. maxResults caps how many unread
// messages one pass pulls.
func NewSyncService(
	emailRepo repository.EmailRepository,
	accountRepo repository.AccountRepository,
	mail MailService,
	maxResults int64,
	log *logger.Logger,
) SyncService {
	return &syncService{
		emailRepo:   emailRepo,
		accountRepo: accountRepo,
		mail:        mail,
		maxResults:  maxResults,
		logger:      log,
	}
}

func (s *syncService) SyncUnread(ctx context.Context, accountID string) (*SyncResult, error) {
	ids, err := s.mail.ListUnreadIDs(ctx, accountID, s.maxResults)
	if err != nil {
		return nil, s.classify(ctx, accountID, err)
	}

	synced := 0
	for _, id := range ids {
		_, err := s.emailRepo.FindByID(ctx, accountID, id)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("check email %s: %w", id, err)
		}

		email, err := s.mail.FetchMessage(ctx, accountID, id)
		if err != nil {
			if gmail.IsReauthError(err) {
				return nil, s.classify(ctx, accountID, err)
			}
			s.logger.Errorf("fetching message %s for %s: %v", id, accountID, err)
			continue
		}
		if err := s.emailRepo.Create(ctx, email); err != nil {
			s.logger.Errorf("storing message %s for %s: %v", id, accountID, err)
			continue
		}
		synced++
	}

	s.logger.Infof("synced %d of %d unread messages for %s", synced, len(ids), accountID)
	return &SyncResult{Synced: synced, TotalUnread: len(ids)}, nil
}

func (s *syncService) classify(ctx context.Context, accountID string, err error) error {
	if gmail.IsReauthError(err) {
		if purgeErr := s.accountRepo.DeleteCredentials(ctx, accountID); purgeErr != nil && !errors.Is(purgeErr, repository.ErrNotFound) {
			s.logger.Errorf("purging credentials for %s: %v", accountID, purgeErr)
		}
		return fmt.Errorf("%w: %w", ErrReauthRequired, err)
	}
	return fmt.Errorf("sync unread: %w", err)
}
