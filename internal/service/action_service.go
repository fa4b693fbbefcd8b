package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"mailnick/internal/gmail"
	"mailnick/internal/logger"
	"mailnick/internal/model"
	"mailnick/internal/repository"
)

const (
	unreadLabelID = "UNREAD"
	inboxLabelID  = "INBOX"
)

// keyedMutex serializes work per key so two actions on the same email never
// interleave between snapshot and record.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyedLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

type actionService struct {
	emailRepo   repository.EmailRepository
	actionRepo  repository.ActionRepository
	accountRepo repository.AccountRepository
	mail        MailService
	undoWindow  time.Duration
	retention   time.Duration
	logger      *logger.Logger
	locks       keyedMutex
}

// NewActionService creates the action ledger. undoWindow bounds how long an
// action stays reversible; retention bounds how long its entry is kept.
func NewActionService(
	emailRepo repository.EmailRepository,
	actionRepo repository.ActionRepository,
	accountRepo repository.AccountRepository,
	mail MailService,
	undoWindow, retention time.Duration,
	log *logger.Logger,
) ActionService {
	return &actionService{
		emailRepo:   emailRepo,
		actionRepo:  actionRepo,
		accountRepo: accountRepo,
		mail:        mail,
		undoWindow:  undoWindow,
		retention:   retention,
		logger:      log,
	}
}

func (s *actionService) Perform(ctx context.Context, accountID, emailID string, kind model.ActionKind, effect SideEffect, ruleID string) (*PerformOutcome, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown action type %q", ErrActionFailed, kind)
	}

	unlock := s.locks.lock(accountID + "/" + emailID)
	defer unlock()

	email, err := s.emailRepo.FindByID(ctx, accountID, emailID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: email %s", ErrNotFound, emailID)
		}
		return nil, fmt.Errorf("load email: %w", err)
	}

	// Snapshot before the side effect so undo restores exactly this state.
	state := model.OriginalState{
		IsUnread: email.IsUnread,
		LabelIDs: append([]string(nil), email.LabelIDs...),
	}

	result, err := effect(ctx, email)
	if err != nil {
		return nil, s.classifyFailure(ctx, accountID, err, ErrActionFailed)
	}

	var update *repository.EmailUpdate
	if result != nil {
		state.AddedLabelID = result.AddedLabelID
		if result.SetUnread != nil || result.SetLabelIDs != nil {
			update = &repository.EmailUpdate{IsUnread: result.SetUnread, LabelIDs: result.SetLabelIDs}
		}
	}

	entry, err := model.NewActionEntry(accountID, emailID, kind, state, time.Now().Add(s.undoWindow), ruleID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrActionFailed, err)
	}

	if err := s.actionRepo.Record(ctx, entry, update); err != nil {
		return nil, fmt.Errorf("%w: record entry: %w", ErrActionFailed, err)
	}

	s.logger.Debugf("recorded %s on %s for %s (undo until %s)", kind, emailID, accountID, entry.ExpiresAt.Format(time.RFC3339))

	outcome := &PerformOutcome{ActionID: entry.ID}
	if result != nil {
		outcome.LabelID = result.LabelID
	}
	return outcome, nil
}

func (s *actionService) MarkRead(ctx context.Context, accountID, emailID, ruleID string) (*PerformOutcome, error) {
	return s.Perform(ctx, accountID, emailID, model.ActionMarkRead, func(ctx context.Context, _ *model.Email) (*ActionResult, error) {
		if err := s.mail.ModifyLabels(ctx, accountID, emailID, nil, []string{unreadLabelID}); err != nil {
			return nil, err
		}
		read := false
		return &ActionResult{SetUnread: &read}, nil
	}, ruleID)
}

func (s *actionService) Archive(ctx context.Context, accountID, emailID, ruleID string) (*PerformOutcome, error) {
	return s.Perform(ctx, accountID, emailID, model.ActionArchive, func(ctx context.Context, _ *model.Email) (*ActionResult, error) {
		if err := s.mail.ModifyLabels(ctx, accountID, emailID, nil, []string{unreadLabelID, inboxLabelID}); err != nil {
			return nil, err
		}
		read := false
		return &ActionResult{SetUnread: &read}, nil
	}, ruleID)
}

func (s *actionService) Trash(ctx context.Context, accountID, emailID, ruleID string) (*PerformOutcome, error) {
	return s.Perform(ctx, accountID, emailID, model.ActionTrash, func(ctx context.Context, _ *model.Email) (*ActionResult, error) {
		if err := s.mail.Trash(ctx, accountID, emailID); err != nil {
			return nil, err
		}
		return nil, nil
	}, ruleID)
}

func (s *actionService) Label(ctx context.Context, accountID, emailID, labelName, ruleID string) (*PerformOutcome, error) {
	if labelName == "" {
		return nil, fmt.Errorf("%w: label name required", ErrActionFailed)
	}
	return s.Perform(ctx, accountID, emailID, model.ActionLabel, func(ctx context.Context, email *model.Email) (*ActionResult, error) {
		labelID, err := s.mail.EnsureLabel(ctx, accountID, labelName)
		if err != nil {
			return nil, err
		}
		if err := s.mail.ModifyLabels(ctx, accountID, emailID, []string{labelID}, nil); err != nil {
			return nil, err
		}
		labels := append([]string(nil), email.LabelIDs...)
		if !email.HasLabel(labelID) {
			labels = append(labels, labelID)
		}
		return &ActionResult{SetLabelIDs: labels, AddedLabelID: labelID, LabelID: labelID}, nil
	}, ruleID)
}

func (s *actionService) Undo(ctx context.Context, accountID, actionID string) error {
	entry, err := s.actionRepo.FindByID(ctx, accountID, actionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: action %s", ErrNotFound, actionID)
		}
		return fmt.Errorf("load action: %w", err)
	}

	unlock := s.locks.lock(accountID + "/" + entry.EmailID)
	defer unlock()

	// Re-read under the lock in case a concurrent undo got there first.
	entry, err = s.actionRepo.FindByID(ctx, accountID, actionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: action %s", ErrNotFound, actionID)
		}
		return fmt.Errorf("load action: %w", err)
	}
	if entry.Undone {
		return ErrAlreadyUndone
	}
	if !time.Now().Before(entry.ExpiresAt) {
		return ErrExpired
	}

	state, err := entry.State()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUndoFailed, err)
	}

	if err := s.reverse(ctx, entry, state); err != nil {
		return err
	}

	if err := s.actionRepo.MarkUndone(ctx, accountID, actionID); err != nil {
		return fmt.Errorf("%w: mark undone: %w", ErrUndoFailed, err)
	}
	s.logger.Debugf("undid %s on %s for %s", entry.Kind, entry.EmailID, accountID)
	return nil
}

// reverse applies the inverse of one recorded action, then restores the
// local email record.
func (s *actionService) reverse(ctx context.Context, entry *model.ActionEntry, state model.OriginalState) error {
	accountID, emailID := entry.AccountID, entry.EmailID

	switch entry.Kind {
	case model.ActionMarkRead:
		if !state.IsUnread {
			return nil
		}
		if err := s.mail.ModifyLabels(ctx, accountID, emailID, []string{unreadLabelID}, nil); err != nil {
			return s.classifyFailure(ctx, accountID, err, ErrUndoFailed)
		}
		unread := true
		return s.restoreFlags(ctx, accountID, emailID, repository.EmailUpdate{IsUnread: &unread})

	case model.ActionArchive:
		add := []string{inboxLabelID}
		if state.IsUnread {
			add = append(add, unreadLabelID)
		}
		if err := s.mail.ModifyLabels(ctx, accountID, emailID, add, nil); err != nil {
			return s.classifyFailure(ctx, accountID, err, ErrUndoFailed)
		}
		unread := state.IsUnread
		return s.restoreFlags(ctx, accountID, emailID, repository.EmailUpdate{IsUnread: &unread})

	case model.ActionTrash:
		if err := s.mail.Untrash(ctx, accountID, emailID); err != nil {
			return s.classifyFailure(ctx, accountID, err, ErrUndoFailed)
		}
		return nil

	case model.ActionLabel:
		if state.AddedLabelID == "" {
			return nil
		}
		if err := s.mail.ModifyLabels(ctx, accountID, emailID, nil, []string{state.AddedLabelID}); err != nil {
			return s.classifyFailure(ctx, accountID, err, ErrUndoFailed)
		}
		email, err := s.emailRepo.FindByID(ctx, accountID, emailID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil
			}
			return fmt.Errorf("%w: load email: %w", ErrUndoFailed, err)
		}
		labels := make([]string, 0, len(email.LabelIDs))
		for _, id := range email.LabelIDs {
			if id != state.AddedLabelID {
				labels = append(labels, id)
			}
		}
		return s.restoreFlags(ctx, accountID, emailID, repository.EmailUpdate{LabelIDs: labels})

	default:
		return fmt.Errorf("%w: unknown action type %q", ErrUndoFailed, entry.Kind)
	}
}

func (s *actionService) restoreFlags(ctx context.Context, accountID, emailID string, update repository.EmailUpdate) error {
	if err := s.emailRepo.UpdateFlags(ctx, accountID, emailID, update); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: restore email record: %w", ErrUndoFailed, err)
	}
	return nil
}

func (s *actionService) EmailsWithActions(ctx context.Context, accountID string) ([]repository.EmailWithAction, error) {
	return s.actionRepo.FindLive(ctx, accountID)
}

func (s *actionService) PurgeExpired(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-s.retention)
	return s.actionRepo.DeleteCreatedBefore(ctx, cutoff)
}

// classifyFailure turns an external-call error into the right sentinel. Auth
// failures purge the account's stored tokens so the UI forces a fresh sign
// in instead of retrying with dead credentials.
func (s *actionService) classifyFailure(ctx context.Context, accountID string, err error, fallback error) error {
	if gmail.IsReauthError(err) {
		if purgeErr := s.accountRepo.DeleteCredentials(ctx, accountID); purgeErr != nil && !errors.Is(purgeErr, repository.ErrNotFound) {
			s.logger.Errorf("purging credentials for %s: %v", accountID, purgeErr)
		} else {
			s.logger.Warnf("credentials for %s no longer valid, purged", accountID)
		}
		return fmt.Errorf("%w: %w", ErrReauthRequired, err)
	}
	return fmt.Errorf("%w: %w", fallback, err)
}
