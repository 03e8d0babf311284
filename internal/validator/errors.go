package validator

import "fmt"

// SchemaViolationError reports a single malformed question by its 1-based
// index, so callers can tell the user exactly which question is broken.
// A schema violation in a successfully parsed response means the model
// ignored its instructions; it is never retried.
type SchemaViolationError struct {
	Index   int    `json:"index"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *SchemaViolationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("question %d: field %q %s", e.Index, e.Field, e.Message)
	}
	return fmt.Sprintf("question %d: %s", e.Index, e.Message)
}

func violation(index int, field, message string) *SchemaViolationError {
	return &SchemaViolationError{Index: index, Field: field, Message: message}
}
