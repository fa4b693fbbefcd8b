package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mailnick/internal/cleanup"
	"mailnick/internal/logger"
	"mailnick/internal/model"
	"mailnick/internal/repository"
)

type ruleService struct {
	ruleRepo   repository.RuleRepository
	emailRepo  repository.EmailRepository
	actionRepo repository.ActionRepository
	logger     *logger.Logger
}

// NewRuleService creates the cleanup-rule service.
func NewRuleService(
	ruleRepo repository.RuleRepository,
	emailRepo repository.EmailRepository,
	actionRepo repository.ActionRepository,
	log *logger.Logger,
) RuleService {
	return &ruleService{
		ruleRepo:   ruleRepo,
		emailRepo:  emailRepo,
		actionRepo: actionRepo,
		logger:     log,
	}
}

func (s *ruleService) CreateRule(ctx context.Context, accountID, name string, criteria model.MatchCriteria, color string) (*model.CleanupRule, error) {
	if name == "" {
		return nil, fmt.Errorf("rule name required")
	}
	if criteria.Type != model.CriteriaAll && criteria.Type != model.CriteriaAny {
		return nil, fmt.Errorf("criteria type must be all or any, got %q", criteria.Type)
	}

	existing, err := s.ruleRepo.FindByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	order := 0
	for _, r := range existing {
		if r.DisplayOrder >= order {
			order = r.DisplayOrder + 1
		}
	}

	rule := model.NewCleanupRule(accountID, name, criteria, order, color)
	if err := s.ruleRepo.Create(ctx, rule); err != nil {
		return nil, fmt.Errorf("create rule: %w", err)
	}
	s.logger.Infof("created rule %q (%s) for %s", name, rule.ID, accountID)
	return rule, nil
}

func (s *ruleService) ListRules(ctx context.Context, accountID string) ([]*model.CleanupRule, error) {
	return s.ruleRepo.FindByAccount(ctx, accountID)
}

func (s *ruleService) UpdateRule(ctx context.Context, accountID, ruleID string, update RuleUpdate) (*model.CleanupRule, error) {
	rule, err := s.ruleRepo.FindByID(ctx, accountID, ruleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: rule %s", ErrNotFound, ruleID)
		}
		return nil, fmt.Errorf("load rule: %w", err)
	}

	if update.Name != nil {
		rule.Name = *update.Name
	}
	if update.MatchCriteria != nil {
		rule.MatchCriteria = *update.MatchCriteria
	}
	if update.Color != nil {
		rule.Color = *update.Color
	}
	if update.Enabled != nil {
		rule.Enabled = *update.Enabled
	}
	rule.UpdatedAt = time.Now()

	if err := s.ruleRepo.Update(ctx, rule); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: rule %s", ErrNotFound, ruleID)
		}
		return nil, fmt.Errorf("update rule: %w", err)
	}
	return rule, nil
}

func (s *ruleService) DeleteRule(ctx context.Context, accountID, ruleID string) error {
	if err := s.ruleRepo.Delete(ctx, accountID, ruleID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: rule %s", ErrNotFound, ruleID)
		}
		return fmt.Errorf("delete rule: %w", err)
	}
	return nil
}

// Reorder rewrites display order to match the given id sequence, 0-based.
func (s *ruleService) Reorder(ctx context.Context, accountID string, ruleIDs []string) error {
	for i, id := range ruleIDs {
		if err := s.ruleRepo.UpdateDisplayOrder(ctx, accountID, id, i); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: rule %s", ErrNotFound, id)
			}
			return fmt.Errorf("reorder rule %s: %w", id, err)
		}
	}
	return nil
}

func (s *ruleService) Stats(ctx context.Context, accountID string) (map[string]map[model.ActionKind]int, error) {
	return s.actionRepo.StatsByRule(ctx, accountID)
}

// Tasks partitions the account's unread emails into per-rule task groups.
func (s *ruleService) Tasks(ctx context.Context, accountID string, hiddenRuleIDs []string) ([]cleanup.TaskMatch, error) {
	rules, err := s.ruleRepo.FindByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	emails, err := s.emailRepo.FindByAccount(ctx, accountID, repository.EmailFilter{UnreadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("list emails: %w", err)
	}

	return cleanup.GroupByRules(emails, rules, hiddenRuleIDs), nil
}
