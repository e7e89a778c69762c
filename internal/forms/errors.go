package forms

import (
	"errors"
	"fmt"
)

// ErrDuplicateField marks two sibling fields sharing one identifier.
var ErrDuplicateField = errors.New("duplicate field identifier")

// ConfigError means the editor-authored configuration is internally
// inconsistent. The submitter cannot recover from it; the page editor must
// fix the form.
type ConfigError struct {
	FieldID string
	Message string
}

func (e *ConfigError) Error() string {
	if e.FieldID == "" {
		return "form configuration error: " + e.Message
	}
	return fmt.Sprintf("form configuration error on field %q: %s", e.FieldID, e.Message)
}

// FieldError is one user-facing validation failure, scoped to a single field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors collects every failure of one bind/validate pass. Validation
// never short-circuits: a submission with three invalid fields reports three
// errors.
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	if len(e) == 0 {
		return "no field errors"
	}
	return fmt.Sprintf("%d field error(s), first: %s: %s", len(e), e[0].Field, e[0].Message)
}

// ForField returns the messages attached to one field.
func (e FieldErrors) ForField(id string) []string {
	var out []string
	for _, fe := range e {
		if fe.Field == id {
			out = append(out, fe.Message)
		}
	}
	return out
}
