package urlutil

import (
	"fmt"
	"regexp"
	"strings"

	"isitdown/internal/models"
)

var specialChars = regexp.MustCompile("[;&|$`]")

// ValidationError reports the first rule a target broke.
// Keyword is empty when the character-class rule fired.
type ValidationError struct {
	Keyword string
	// Decoded is set when the rule only matched after percent-decoding.
	Decoded bool
}

func (e *ValidationError) Error() string {
	msg := "Special characters not allowed"
	if e.Keyword != "" {
		msg = fmt.Sprintf("Blocked keyword detected: %s", e.Keyword)
	}
	if e.Decoded {
		msg += " (after percent-decoding)"
	}
	return msg
}

// Validator rejects targets containing denylisted keywords or shell
// metacharacters.
type Validator struct {
	denylist    []string
	decodeFirst bool
}

// NewValidator creates a Validator. With decodeBeforeValidate set, a target
// that passes on its raw form is checked again after percent-decoding.
func NewValidator(denylist []string, decodeBeforeValidate bool) *Validator {
	lowered := make([]string, 0, len(denylist))
	for _, kw := range denylist {
		lowered = append(lowered, strings.ToLower(kw))
	}
	return &Validator{denylist: lowered, decodeFirst: decodeBeforeValidate}
}

// Validate returns nil or a *ValidationError. It has no side effects.
func (v *Validator) Validate(raw models.RawTarget) error {
	if err := v.check(string(raw)); err != nil {
		return err
	}
	if !v.decodeFirst {
		return nil
	}
	decoded := Unescape(string(raw))
	if decoded == string(raw) {
		return nil
	}
	if err := v.check(decoded); err != nil {
		err.Decoded = true
		return err
	}
	return nil
}

// check runs the keyword scan before the character-class scan; the first
// match wins.
func (v *Validator) check(input string) *ValidationError {
	lowered := strings.ToLower(input)
	for _, kw := range v.denylist {
		if strings.Contains(lowered, kw) {
			return &ValidationError{Keyword: kw}
		}
	}
	if specialChars.MatchString(input) {
		return &ValidationError{}
	}
	return nil
}
