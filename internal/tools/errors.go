package tools

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDuplicateOperation is returned by Register when the name is already taken.
var ErrDuplicateOperation = errors.New("operation already registered")

// UnknownOperationError reports a dispatch for a name that is not registered.
type UnknownOperationError struct {
	Name string
}

func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("unknown operation %q", e.Name)
}

// Violation is one schema failure on a single argument.
type Violation struct {
	Field    string `json:"field"`
	Expected string `json:"expected,omitempty"`
	Reason   string `json:"reason"`
}

func (v Violation) String() string {
	if v.Expected != "" {
		return fmt.Sprintf("%s (expected %s): %s", v.Field, v.Expected, v.Reason)
	}
	return fmt.Sprintf("%s: %s", v.Field, v.Reason)
}

// InvalidArgumentsError reports arguments that do not satisfy the input schema.
type InvalidArgumentsError struct {
	Operation  string
	Violations []Violation
}

func (e *InvalidArgumentsError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	return fmt.Sprintf("invalid arguments for %q: %s", e.Operation, strings.Join(parts, "; "))
}
