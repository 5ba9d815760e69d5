// internal/services/errors.go
package services

import (
	"errors"
	"strings"

	"github.com/javajoker/applied-api/internal/utils"
)

var ErrApplicationNotFound = errors.New("application not found")

// ValidationError is returned when a request fails field validation. Nothing
// has been written when it is returned.
type ValidationError struct {
	Fields []utils.ValidationError
}

func (e *ValidationError) Error() string {
	messages := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		messages = append(messages, f.Message)
	}
	return "validation failed: " + strings.Join(messages, "; ")
}

func newValidationError(err error) *ValidationError {
	fields := utils.GetValidationErrors(err)
	if len(fields) == 0 {
		fields = []utils.ValidationError{{Field: "request", Tag: "invalid", Message: err.Error()}}
	}
	return &ValidationError{Fields: fields}
}
