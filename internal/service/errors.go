package service

import (
	"errors"

	"mailnick/internal/gmail"
)

var (
	// ErrNotFound means the requested email, action, or rule does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyUndone means the action was reversed before.
	ErrAlreadyUndone = errors.New("action already undone")

	// ErrExpired means the action's undo window has closed.
	ErrExpired = errors.New("undo window expired")

	// ErrReauthRequired means the account's Google credentials no longer
	// work and have been purged; the user must sign in again.
	ErrReauthRequired = gmail.ErrReauthRequired

	// ErrActionFailed wraps a non-auth failure while performing an action.
	ErrActionFailed = errors.New("action failed")

	// ErrUndoFailed wraps a non-auth failure while reversing an action.
	ErrUndoFailed = errors.New("undo failed")
)
