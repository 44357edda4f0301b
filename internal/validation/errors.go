// Package validation holds the rule contract, the error model and the runner that applies an
// ordered rule catalogue to a CSAF document.
package validation

import (
	"fmt"
	"strings"
)

// ValidationError is one violation: what is wrong and where in the document.
// InstancePath is a slash-delimited pointer with 0-based array indices.
type ValidationError struct {
	Message      string `json:"message" yaml:"message"`
	InstancePath string `json:"instancePath" yaml:"instancePath"`
}

// Errorf builds a ValidationError at path.
func Errorf(path, format string, args ...any) ValidationError {
	return ValidationError{Message: fmt.Sprintf(format, args...), InstancePath: path}
}

func (e ValidationError) Error() string {
	if e.InstancePath == "" {
		return e.Message
	}
	return e.InstancePath + ": " + e.Message
}

// Errors is a list of violations. A nil or empty list means success.
type Errors []ValidationError

func (es Errors) Error() string {
	switch len(es) {
	case 0:
		return "no validation errors"
	case 1:
		return es[0].Error()
	}
	lines := make([]string, 0, len(es)+1)
	lines = append(lines, fmt.Sprintf("%d validation errors:", len(es)))
	for _, e := range es {
		lines = append(lines, "  - "+e.Error())
	}
	return strings.Join(lines, "\n")
}

// Err returns es as an error, or nil when there are no violations.
func (es Errors) Err() error {
	if len(es) == 0 {
		return nil
	}
	return es
}
