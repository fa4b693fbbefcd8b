package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mailnick/internal/logger"
	"mailnick/internal/model"
	"mailnick/internal/repository"
)

type authService struct {
	accountRepo repository.AccountRepository
	logger      *logger.Logger
}

// NewAuthService creates the account service.
func NewAuthService(accountRepo repository.AccountRepository, log *logger.Logger) AuthService {
	return &authService{accountRepo: accountRepo, logger: log}
}

// UpsertAccount stores or refreshes an account after an OAuth callback. An
// empty refresh token from Google keeps whatever was stored before, since
// Google only sends it on first consent.
func (s *authService) UpsertAccount(ctx context.Context, address, accessToken, refreshToken string, tokenExpiry time.Time) (*model.Account, error) {
	if address == "" {
		return nil, fmt.Errorf("account address required")
	}

	account, err := s.accountRepo.FindByID(ctx, address)
	switch {
	case err == nil:
		account.AccessToken = accessToken
		if refreshToken != "" {
			account.RefreshToken = refreshToken
		}
		account.TokenExpiry = tokenExpiry
		account.UpdatedAt = time.Now()
	case errors.Is(err, repository.ErrNotFound):
		account = model.NewAccount(address, accessToken, refreshToken, tokenExpiry)
	default:
		return nil, fmt.Errorf("load account: %w", err)
	}

	if err := s.accountRepo.Upsert(ctx, account); err != nil {
		return nil, fmt.Errorf("save account: %w", err)
	}
	s.logger.Infof("connected account %s", address)
	return account, nil
}

func (s *authService) GetAccount(ctx context.Context, accountID string) (*model.Account, error) {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: account %s", ErrNotFound, accountID)
		}
		return nil, fmt.Errorf("load account: %w", err)
	}
	return account, nil
}

func (s *authService) ListAccountIDs(ctx context.Context) ([]string, error) {
	accounts, err := s.accountRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	ids := make([]string, 0, len(accounts))
	for _, a := range accounts {
		ids = append(ids, a.ID)
	}
	return ids, nil
}

// DeleteAccount removes the account and everything stored for it.
func (s *authService) DeleteAccount(ctx context.Context, accountID string) error {
	if err := s.accountRepo.Delete(ctx, accountID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: account %s", ErrNotFound, accountID)
		}
		return fmt.Errorf("delete account: %w", err)
	}
	s.logger.Infof("disconnected account %s", accountID)
	return nil
}
