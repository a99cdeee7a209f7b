package schema

import (
	"strings"
)

// FieldError describes why one field was rejected.
type FieldError struct {
	Field   string
	Message string
	Value   any
}

func (e *FieldError) Error() string { return e.Field + " " + e.Message }

// ValidationError lists every rejected field of a draft, in field order.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for i := range e.Fields {
		msgs = append(msgs, e.Fields[i].Error())
	}
	return "validation failed: " + strings.Join(msgs, ", ")
}
