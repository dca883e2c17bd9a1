package business

import (
	"fmt"
)

// Error taxonomy shared by handlers and workers. Handlers translate these
// into HTTP statuses; callers distinguish "not ready yet" rejections from
// integrity problems that need an operator.

// NotFoundError reports an absent round, allocation or ledger entity.
type NotFoundError struct {
	Entity string
	Ref    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.Ref)
}

// ValidationError reports malformed input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// ConflictError is a business rejection: the request is well-formed but
// the current state forbids it (double claim, self-approval, executing a
// non-approved action).
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string {
	return e.Msg
}

// ExpiredActionError reports an attempt to act on an admin action past
// its expiry.
type ExpiredActionError struct {
	ActionID uint
}

func (e *ExpiredActionError) Error() string {
	return fmt.Sprintf("admin action %d has expired", e.ActionID)
}

// IntegrityViolationError is fatal: the ledger disagrees with its source
// of truth or an invariant that must hold exactly once was broken. It is
// never auto-repaired; the affected operation halts and the condition is
// escalated.
type IntegrityViolationError struct {
	Msg string
}

func (e *IntegrityViolationError) Error() string {
	return e.Msg
}
