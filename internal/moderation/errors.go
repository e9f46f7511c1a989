package moderation

import (
	"errors"
	"fmt"

	"github.com/disgoorg/snowflake/v2"
)

var (
	// ErrMalformedMatch indicates a rule pattern matched but its evidence could not be extracted.
	ErrMalformedMatch = errors.New("pattern matched but evidence extraction failed")
	// ErrDeliveryFailure indicates a notification or log message could not be delivered.
	ErrDeliveryFailure = errors.New("message delivery failed")
	// ErrDeletionFailure indicates the offending message could not be removed.
	ErrDeletionFailure = errors.New("message deletion failed")
	// ErrInvalidPattern indicates a configured rule pattern does not compile.
	ErrInvalidPattern = errors.New("invalid rule pattern")
	// ErrInvalidSettings indicates a moderation setting that cannot be enforced.
	ErrInvalidSettings = errors.New("invalid moderation setting")
)

// RuleError records a classification failure for a single rule.
type RuleError struct {
	Kind VerdictKind
	Err  error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("%s rule: %v", e.Kind, e.Err)
}

func (e *RuleError) Unwrap() error {
	return e.Err
}

// NotifyFailure is returned by the pipeline when the offending user could not be warned privately.
// The fallback notice has already been posted when this error is returned.
type NotifyFailure struct {
	UserID snowflake.ID
	Kind   VerdictKind
	Err    error
}

func (e *NotifyFailure) Error() string {
	return fmt.Sprintf("failed to notify user %s of %s warning: %v", e.UserID, e.Kind, e.Err)
}

func (e *NotifyFailure) Unwrap() error {
	return e.Err
}
