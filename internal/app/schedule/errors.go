// internal/app/schedule/errors.go
package schedule

import (
	"errors"
	"fmt"
)

// Error classes. Every sentinel below wraps exactly one of these, so callers
// can branch on the class with errors.Is.
var (
	ErrNotFound  = errors.New("not found")
	ErrConflict  = errors.New("conflict")
	ErrForbidden = errors.New("forbidden")

	ErrInvalidCredentials = errors.New("invalid user id or password")
)

var (
	ErrUserNotFound  = classed(ErrNotFound, "user not found")
	ErrGroupNotFound = classed(ErrNotFound, "group not found")
	ErrTaskNotFound  = classed(ErrNotFound, "task not found")

	ErrUserExists        = classed(ErrConflict, "a user with this user id already exists")
	ErrPINTaken          = classed(ErrConflict, "a group with this pin already exists")
	ErrAlreadyMember     = classed(ErrConflict, "user is already a member of this group")
	ErrAlreadyAdmin      = classed(ErrConflict, "user is already an administrator of this group")
	ErrNotMember         = classed(ErrConflict, "user is not a member of this group")
	ErrLastAdmin         = classed(ErrConflict, "the last administrator cannot leave while other members remain")
	ErrGroupNameMismatch = classed(ErrConflict, "group name does not match the pin")
	ErrVersionConflict   = classed(ErrConflict, "document changed concurrently")
)

type classError struct {
	class error
	msg   string
}

func (e *classError) Error() string { return e.msg }
func (e *classError) Unwrap() error { return e.class }

func classed(class error, msg string) error {
	return &classError{class: class, msg: msg}
}

// forbidden wraps ErrForbidden with what was refused.
func forbidden(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrForbidden}, args...)...)
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
