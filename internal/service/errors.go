package service

import "errors"

var (
	// ErrExpiredOrInvalidCode means no active session holds the submitted code.
	ErrExpiredOrInvalidCode = errors.New("invalid or expired code")
	// ErrLinkConflict means the chat is already verified for another user.
	ErrLinkConflict = errors.New("telegram chat is linked to another account")
	// ErrNotLinked means the chat or user has no verified link.
	ErrNotLinked = errors.New("telegram account is not linked")
	// ErrStoreUnavailable wraps store failures that abort a whole tick.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrTaskNotFound means the task does not exist for the acting user.
	ErrTaskNotFound = errors.New("task not found")
	// ErrReminderNotFound means no reminder has the given id.
	ErrReminderNotFound = errors.New("reminder not found")
	// ErrInvalidInput is returned for malformed caller input.
	ErrInvalidInput = errors.New("invalid input")
)
