// Package schema defines the shape of a contact on the wire and the rules a
// contact must satisfy before it is written.
package schema

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	ds "github.com/andredosreis/contacts-api/datastores"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Draft is a candidate contact. Fields are pointers so that an absent
// field can be told apart from an empty one.
type Draft struct {
	FirstName     *string `json:"firstName,omitempty"     example:"John"             doc:"First name"`
	LastName      *string `json:"lastName,omitempty"      example:"Doe"              doc:"Last name"`
	Email         *string `json:"email,omitempty"         example:"john@example.com" doc:"Email address, unique regardless of case"`
	FavoriteColor *string `json:"favoriteColor,omitempty" example:"Blue"             doc:"Favorite color"`
	Birthday      *string `json:"birthday,omitempty"      example:"1990-01-01"       doc:"Birthday as YYYY-MM-DD or RFC 3339"`
}

// fields is a trimmed [Draft], checked by [validate].
type fields struct {
	FirstName     string `json:"firstName"     validate:"required"`
	LastName      string `json:"lastName"      validate:"required"`
	Email         string `json:"email"         validate:"required,contact_email"`
	FavoriteColor string `json:"favoriteColor" validate:"required"`
	Birthday      string `json:"birthday"      validate:"required,contact_date"`
}

var validate = newValidate() //nolint: gochecknoglobals // validator caches struct metadata

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}
	must(v.RegisterValidation("contact_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	}))
	must(v.RegisterValidation("contact_date", func(fl validator.FieldLevel) bool {
		_, err := parseDate(fl.Field().String())
		return err == nil
	}))
	return v
}

var messages = map[string]string{ //nolint: gochecknoglobals,nolintlint
	"required":      "is required",
	"contact_email": "is not a valid email address",
	"contact_date":  "is not a valid date, expected YYYY-MM-DD",
}

// trim returns the trimmed fields of d and the struct field names of
// those present.
func (d *Draft) trim() (*fields, []string) {
	var (
		f       fields
		present []string
	)
	for _, p := range []struct {
		name  string
		value *string
		dst   *string
	}{
		{"FirstName", d.FirstName, &f.FirstName},
		{"LastName", d.LastName, &f.LastName},
		{"Email", d.Email, &f.Email},
		{"FavoriteColor", d.FavoriteColor, &f.FavoriteColor},
		{"Birthday", d.Birthday, &f.Birthday},
	} {
		if p.value != nil {
			*p.dst = strings.TrimSpace(*p.value)
			present = append(present, p.name)
		}
	}
	return &f, present
}

// Contact validates every field of d, which must all be present, and
// returns the normalized contact. The error is a [*ValidationError].
func (d *Draft) Contact() (*ds.Contact, error) {
	f, _ := d.trim()
	if err := validationError(validate.Struct(f)); err != nil {
		return nil, err
	}
	birthday, _ := parseDate(f.Birthday)
	return &ds.Contact{
		FirstName:     f.FirstName,
		LastName:      f.LastName,
		Email:         f.Email,
		FavoriteColor: f.FavoriteColor,
		Birthday:      birthday,
	}, nil
}

// Patch validates the fields present in d and returns them normalized.
// The error is a [*ValidationError].
func (d *Draft) Patch() (*ds.ContactPatch, error) {
	f, present := d.trim()
	p := &ds.ContactPatch{}
	if len(present) == 0 {
		return p, nil
	}
	if err := validationError(validate.StructPartial(f, present...)); err != nil {
		return nil, err
	}
	if d.FirstName != nil {
		p.FirstName = &f.FirstName
	}
	if d.LastName != nil {
		p.LastName = &f.LastName
	}
	if d.Email != nil {
		p.Email = &f.Email
	}
	if d.FavoriteColor != nil {
		p.FavoriteColor = &f.FavoriteColor
	}
	if d.Birthday != nil {
		birthday, _ := parseDate(f.Birthday)
		p.Birthday = &birthday
	}
	return p, nil
}

// validationError converts the errors of [validator.Validate] to a
// [*ValidationError], keeping the field order.
func validationError(err error) error {
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err
	}
	verr := &ValidationError{Fields: make([]FieldError, 0, len(errs))}
	for _, fe := range errs {
		var value any
		if s, _ := fe.Value().(string); s != "" {
			value = s
		}
		verr.Fields = append(verr.Fields, FieldError{Field: fe.Field(), Message: messages[fe.Tag()], Value: value})
	}
	return verr
}

// FormatDate renders a birthday the way it is accepted.
func FormatDate(t time.Time) string { return t.Format(time.DateOnly) }

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}
