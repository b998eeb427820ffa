// internal/app/system/inputval/inputval.go
//
// Package inputval checks caller-supplied values before anything is written.
// Every validator returns the normalized value or a *ValidationError naming the
// offending field.
package inputval

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/dalemusser/groupsched/internal/app/system/normalize"
	"github.com/dalemusser/groupsched/internal/domain/models"
)

// ValidationError reports a malformed or missing input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

// Invalid builds a *ValidationError.
func Invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

const (
	MinPIN          = 100000
	MaxPIN          = 999999
	MaxGroupNameLen = 60
	MinPasswordLen  = 8
)

var (
	nameRe   = regexp.MustCompile(`^[a-zA-Z]{2,20}$`)
	userIDRe = regexp.MustCompile(`^[a-zA-Z0-9]{5,10}$`)
	pinRe    = regexp.MustCompile(`^[0-9]{6}$`)
)

const passwordSymbols = `!@#$%^&*()_+-=[]{};':"\|,.<>/?`

// Name validates a first or last name: letters only, 2 to 20 characters.
func Name(field, s string) (string, error) {
	s = normalize.Name(s)
	if s == "" {
		return "", Invalid(field, "is required")
	}
	if !nameRe.MatchString(s) {
		return "", Invalid(field, "must be 2 to 20 letters")
	}
	return s, nil
}

// UserID validates a login id and returns it lower-cased.
func UserID(s string) (string, error) {
	s = normalize.UserID(s)
	if s == "" {
		return "", Invalid("userId", "is required")
	}
	if !userIDRe.MatchString(s) {
		return "", Invalid("userId", "must be 5 to 10 letters or digits")
	}
	return s, nil
}

// Password checks strength rules. The value is returned unchanged.
func Password(s string) (string, error) {
	if s == "" {
		return "", Invalid("password", "is required")
	}
	if len(s) < MinPasswordLen {
		return "", Invalid("password", "must be at least %d characters", MinPasswordLen)
	}
	var upper, digit, symbol bool
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			return "", Invalid("password", "cannot contain spaces")
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}
	if !upper || !digit || !symbol {
		return "", Invalid("password", "must contain an uppercase letter, a number and a special character")
	}
	return s, nil
}

// PIN checks that n is a positive six-digit group PIN.
func PIN(n int) (int, error) {
	if n < MinPIN || n > MaxPIN {
		return 0, Invalid("pin", "must be a 6-digit number")
	}
	return n, nil
}

// ParsePIN parses and validates a PIN supplied as text.
func ParsePIN(s string) (int, error) {
	s = strings.TrimSpace(s)
	if !pinRe.MatchString(s) {
		return 0, Invalid("pin", "must be a 6-digit number")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, Invalid("pin", "must be a 6-digit number")
	}
	return PIN(n)
}

// Role accepts administrator or member. An empty role means member.
func Role(s string) (string, error) {
	s = normalize.Role(s)
	switch s {
	case "":
		return models.RoleMember, nil
	case models.RoleAdministrator, models.RoleMember:
		return s, nil
	}
	return "", Invalid("role", "must be administrator or member")
}

// GroupName trims and length-checks a group name.
func GroupName(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", Invalid("groupName", "is required")
	}
	if len([]rune(s)) > MaxGroupNameLen {
		return "", Invalid("groupName", "must be at most %d characters", MaxGroupNameLen)
	}
	return s, nil
}

// Progress returns the canonical spelling of a task progress state.
func Progress(s string) (string, error) {
	p := normalize.Progress(s)
	for _, state := range models.ProgressStates {
		if p == state {
			return p, nil
		}
	}
	return "", Invalid("progress", "must be one of %q", models.ProgressStates)
}

// Urgency checks the 1 to 5 urgency scale.
func Urgency(n int) (int, error) {
	if n < 1 || n > 5 {
		return 0, Invalid("urgencyLevel", "must be between 1 and 5")
	}
	return n, nil
}
