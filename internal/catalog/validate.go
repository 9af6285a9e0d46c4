package catalog

import (
	"fmt"
	"regexp"
	"strings"
)

const minAnswerLength = 2

// compiledPatterns holds the validation regexps, compiled once at startup.
var compiledPatterns = func() map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp)
	for id, f := range fields {
		if f.Pattern != "" {
			m[id] = regexp.MustCompile(f.Pattern)
		}
	}
	return m
}()

// ValidationError explains why an answer was rejected. The Reason is safe
// to show to the end user verbatim.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid answer for %s: %s", e.Field, e.Reason)
}

// Validate checks a raw answer against the field's rules. A nil return
// means the answer is acceptable. Validation is a pure function of the
// static rule tables, so it is safe to call from any goroutine.
func Validate(fieldID, raw string) *ValidationError {
	answer := strings.TrimSpace(raw)

	if len(answer) < minAnswerLength {
		return &ValidationError{Field: fieldID, Reason: "Please provide more detail."}
	}

	if re, ok := compiledPatterns[fieldID]; ok {
		if !re.MatchString(answer) {
			return &ValidationError{Field: fieldID, Reason: FieldSpec(fieldID).PatternError}
		}
	}

	if choices := QuickReplies(fieldID); len(choices) > 0 {
		if !matchesChoice(answer, choices) {
			return &ValidationError{
				Field:  fieldID,
				Reason: fmt.Sprintf("Please choose one of: %s", strings.Join(choices, ", ")),
			}
		}
	}

	return nil
}

func matchesChoice(answer string, choices []string) bool {
	for _, c := range choices {
		if strings.EqualFold(answer, c) {
			return true
		}
	}
	return false
}
