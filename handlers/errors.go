package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	ds "github.com/andredosreis/contacts-api/datastores"
	"github.com/andredosreis/contacts-api/schema"
)

func init() { //nolint: gochecknoinits // huma only exposes error customization as a package variable
	huma.NewError = NewError
}

// ErrorDetail points at the field responsible for an error.
type ErrorDetail struct {
	Field   string `json:"field,omitempty" example:"email"       doc:"Field the error refers to"`
	Message string `json:"message"         example:"is required" doc:"What is wrong with the field"`
	Value   any    `json:"value,omitempty"                       doc:"Offending value"`
}

// ErrorModel is the body of every error response.
type ErrorModel struct {
	Status  int            `json:"-"`
	Message string         `json:"error"             example:"contact not found" doc:"Error message"`
	Details []*ErrorDetail `json:"details,omitempty"                             doc:"Per-field details"`

	kind   errKind
	causes []error
}

func (e *ErrorModel) Error() string {
	if len(e.causes) == 0 {
		return e.Message
	}
	msgs := make([]string, 0, len(e.causes))
	for _, err := range e.causes {
		msgs = append(msgs, err.Error())
	}
	return e.Message + ": " + strings.Join(msgs, "; ")
}

func (e *ErrorModel) GetStatus() int { return e.Status }

func (e *ErrorModel) Unwrap() []error { return e.causes }

// Kind names the failure of an operation, it is empty for errors raised by huma.
func (e *ErrorModel) Kind() string { return errKinds[e.kind].name }

// NewError builds an [*ErrorModel], it replaces [huma.NewError] so that
// errors raised by huma itself share the same body. Only validation and
// duplicate key causes are exposed as details, other causes stay internal.
func NewError(status int, msg string, errs ...error) huma.StatusError {
	return newErrorModel(status, msg, errs...)
}

func newErrorModel(status int, msg string, errs ...error) *ErrorModel {
	if status == http.StatusUnprocessableEntity {
		status = http.StatusBadRequest
	}
	model := &ErrorModel{Status: status, Message: msg}
	for _, err := range errs {
		if err == nil {
			continue
		}
		model.causes = append(model.causes, err)

		var (
			validationErr *schema.ValidationError
			duplicateErr  *ds.DuplicateKeyError
			detailer      huma.ErrorDetailer
		)
		switch {
		case errors.As(err, &validationErr):
			for _, f := range validationErr.Fields {
				model.Details = append(model.Details, &ErrorDetail{Field: f.Field, Message: f.Message, Value: f.Value})
			}
		case errors.As(err, &duplicateErr):
			model.Details = append(model.Details, &ErrorDetail{
				Field:   duplicateErr.Field,
				Message: "already exists",
				Value:   duplicateErr.Value,
			})
		case errors.As(err, &detailer):
			d := detailer.ErrorDetail()
			model.Details = append(model.Details, &ErrorDetail{
				Field:   strings.TrimPrefix(d.Location, "body."),
				Message: d.Message,
				Value:   detailValue(d),
			})
		}
	}
	return model
}

// detailValue drops values huma reports for the enclosing object, such as
// the whole body of an unexpected property.
func detailValue(d *huma.ErrorDetail) any {
	if _, ok := d.Value.(map[string]any); ok {
		return nil
	}
	return d.Value
}

// errKind is the closed set of failures an operation reports.
type errKind int

const (
	errKindUnclassified errKind = iota + 1
	errKindValidation
	errKindDuplicateKey
	errKindNotFound
	errKindMalformedID
)

var errKinds = [...]struct { //nolint: gochecknoglobals,nolintlint
	name    string
	status  int
	message string
}{
	errKindUnclassified: {"unclassified", http.StatusInternalServerError, "internal error"},
	errKindValidation:   {"validation", http.StatusBadRequest, "validation failed"},
	errKindDuplicateKey: {"duplicate_key", http.StatusBadRequest, "duplicate key"},
	errKindNotFound:     {"not_found", http.StatusNotFound, "contact not found"},
	errKindMalformedID:  {"malformed_id", http.StatusBadRequest, "malformed id"},
}

func classify(err error) errKind {
	var validationErr *schema.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return errKindValidation
	case errors.Is(err, ds.ErrDuplicateKey):
		return errKindDuplicateKey
	case errors.Is(err, ds.ErrObjectNotFound):
		return errKindNotFound
	case errors.Is(err, ds.ErrMalformedID):
		return errKindMalformedID
	default:
		return errKindUnclassified
	}
}

// errorResponse maps err to its status and message.
func errorResponse(err error) huma.StatusError {
	kind := classify(err)
	model := newErrorModel(errKinds[kind].status, errKinds[kind].message, err)
	model.kind = kind
	return model
}
