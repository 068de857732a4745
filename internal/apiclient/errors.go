package apiclient

import (
	"fmt"
	"sort"
)

// DefaultErrorMessage is shown when the server gives no message of its own.
const DefaultErrorMessage = "Something went wrong. Please try again later."

// ApiError is a non-2xx (or success:false) response from the API.
type ApiError struct {
	StatusCode int
	Message    string
	Errors     map[string][]string
}

func (e *ApiError) Error() string {
	return e.Message
}

// FieldErrors flattens the per-field errors into "field: message" lines,
// sorted by field name.
func (e *ApiError) FieldErrors() []string {
	fields := make([]string, 0, len(e.Errors))
	for field := range e.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var lines []string
	for _, field := range fields {
		for _, msg := range e.Errors[field] {
			lines = append(lines, fmt.Sprintf("%s: %s", field, msg))
		}
	}
	return lines
}

// NetworkError means no response was received at all.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
