package constraint

import "strings"

const CodeViolation = "CONSTRAINT_VIOLATION"

// Error reports an option combination the rules do not allow. It is distinct
// from pricing errors so callers can answer with a different status.
type Error struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// ErrorFromResult returns an *Error describing the violations in r, or nil.
func ErrorFromResult(r Result) error {
	if !r.Blocked() {
		return nil
	}
	return &Error{
		Code:    CodeViolation,
		Message: joinMessages(r.Violations),
		Context: map[string]any{"violations": r.Violations},
	}
}

// NewError builds a violation error for a single problem such as an
// unavailable choice.
func NewError(message string, context map[string]any) *Error {
	return &Error{Code: CodeViolation, Message: message, Context: context}
}

func joinMessages(vs []Violation) string {
	msgs := make([]string, len(vs))
	for i, v := range vs {
		msgs[i] = v.Message
	}
	return strings.Join(msgs, "; ")
}
