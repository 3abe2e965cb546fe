// Package apierror defines the structured error envelopes of the closing
// engine. Validation errors block a forward step transition and carry
// field-level detail; submission errors preserve the upstream rejection
// verbatim so the operator sees exactly what the shift API said.
package apierror

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError reports the missing/invalid fields of one workflow step.
type ValidationError struct {
	Step   string            `json:"step"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(step string) *ValidationError {
	return &ValidationError{Step: step, Fields: make(map[string]string)}
}

// Add records a field-level message.
func (e *ValidationError) Add(field, msg string) { e.Fields[field] = msg }

// Empty reports whether any field failed.
func (e *ValidationError) Empty() bool { return len(e.Fields) == 0 }

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fmt.Sprintf("step %s incomplete: %s", e.Step, strings.Join(fields, ", "))
}

// SubmissionError wraps a rejection from the external shift-closing API.
// The session stays editable; Detail is shown to the user unmodified.
type SubmissionError struct {
	StatusCode int    `json:"statusCode"`
	Detail     string `json:"detail"`
}

func NewSubmission(status int, detail string) *SubmissionError {
	return &SubmissionError{StatusCode: status, Detail: detail}
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("shift close rejected (%d): %s", e.StatusCode, e.Detail)
}
