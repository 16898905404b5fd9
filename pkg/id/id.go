package id

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// DefaultPattern is the safe-character pattern identifiers must match.
const DefaultPattern = `^[0-9a-zA-Z_-]+$`

// MaxLen bounds identifier length independently of the pattern.
const MaxLen = 128

// ValidationError reports a malformed identifier.
type ValidationError struct {
	ID     string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid log id %q: %s", e.ID, e.Reason)
}

// Validator checks identifiers against a compiled pattern.
type Validator struct {
	re *regexp.Regexp
}

var defaultValidator = &Validator{re: regexp.MustCompile(DefaultPattern)}

// NewValidator compiles pattern. An empty pattern selects DefaultPattern.
func NewValidator(pattern string) (*Validator, error) {
	if pattern == "" {
		return defaultValidator, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("id: compile pattern: %w", err)
	}
	return &Validator{re: re}, nil
}

// Validate returns a *ValidationError when s is not an acceptable identifier.
// Path separators are always rejected, whatever the pattern says.
func (v *Validator) Validate(s string) error {
	switch {
	case s == "":
		return &ValidationError{ID: s, Reason: "empty"}
	case len(s) > MaxLen:
		return &ValidationError{ID: s[:MaxLen], Reason: fmt.Sprintf("longer than %d bytes", MaxLen)}
	case strings.ContainsAny(s, `/\`) || strings.Contains(s, ".."):
		return &ValidationError{ID: s, Reason: "contains a path separator"}
	case !v.re.MatchString(s):
		return &ValidationError{ID: s, Reason: "does not match " + v.re.String()}
	}
	return nil
}

// DefaultValidator returns the validator for DefaultPattern.
func DefaultValidator() *Validator { return defaultValidator }

// Validate checks s against DefaultPattern.
func Validate(s string) error { return defaultValidator.Validate(s) }

// New returns a fresh random identifier.
func New() string { return uuid.NewString() }
