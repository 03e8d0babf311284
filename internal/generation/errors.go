package generation

import (
	"errors"
	"fmt"
)

// ErrProviderExhausted is returned only after both the primary and the
// fallback provider have failed.
var ErrProviderExhausted = errors.New("all model providers exhausted")

// ParseError indicates the model response could not be turned into JSON
// even after the repair pipeline. Retryable within the attempt budget.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("model response is not valid JSON: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// InvalidResponseError indicates the response parsed but does not conform
// to the requested schema document. Retryable within the attempt budget.
type InvalidResponseError struct {
	Err error
}

func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("model response violates the requested schema: %v", e.Err)
}

func (e *InvalidResponseError) Unwrap() error { return e.Err }
