package domain

import (
	"errors"
	"fmt"
)

var (
	ErrContextExceeded    = errors.New("context budget exceeded")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrProfileExists      = errors.New("profile already exists")
	ErrLastProfile        = errors.New("cannot remove the last profile")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSecretNotFound     = errors.New("secret not found")
	ErrAttachmentNotFound = errors.New("attachment not found")
	ErrNoEligibleFiles    = errors.New("no eligible files")
	ErrEmptyExtraction    = errors.New("no readable text extracted")
	ErrInvalidTransition  = errors.New("invalid turn transition")
	ErrInvalidName        = errors.New("invalid name")
)

// ContextExceededError reports a budget that cannot be met without removing
// protected history.
type ContextExceededError struct {
	Total int
	Limit int
}

func (e *ContextExceededError) Error() string {
	return fmt.Sprintf("context budget exceeded: %d tokens over a limit of %d; raise the context length or purge attachments", e.Total, e.Limit)
}

func (e *ContextExceededError) Is(target error) bool {
	return target == ErrContextExceeded
}
