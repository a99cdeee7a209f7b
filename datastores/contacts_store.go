package datastores

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type Contact struct {
	ID            ContactID
	FirstName     string
	LastName      string
	Email         string
	FavoriteColor string
	Birthday      time.Time
}

// ContactPatch holds the fields of an update, nil fields are left unchanged.
type ContactPatch struct {
	FirstName     *string
	LastName      *string
	Email         *string
	FavoriteColor *string
	Birthday      *time.Time
}

// Empty reports whether the patch changes nothing.
func (p *ContactPatch) Empty() bool {
	return p == nil || (p.FirstName == nil &&
		p.LastName == nil &&
		p.Email == nil &&
		p.FavoriteColor == nil &&
		p.Birthday == nil)
}

// apply writes the patch fields into c.
func (p *ContactPatch) apply(c *Contact) {
	if p == nil {
		return
	}
	if p.FirstName != nil {
		c.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		c.LastName = *p.LastName
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.FavoriteColor != nil {
		c.FavoriteColor = *p.FavoriteColor
	}
	if p.Birthday != nil {
		c.Birthday = *p.Birthday
	}
}

// ContactsStore persists contacts. Implementations enforce the uniqueness
// of Contact.Email, compared case-insensitively.
type ContactsStore interface {
	Create(context.Context, *Contact) (ContactID, error)
	List(context.Context) ([]*Contact, error)
	Get(context.Context, ContactID) (*Contact, error)
	Update(context.Context, ContactID, *ContactPatch) (*Contact, error)
	Delete(context.Context, ContactID) error
	Ping(context.Context) error
}

var (
	ErrObjectNotFound = errors.New("store: object not found")
	ErrDuplicateKey   = errors.New("store: duplicate key")
	ErrMalformedID    = errors.New("store: malformed id")
)

// DuplicateKeyError reports a write rejected by a unique constraint.
type DuplicateKeyError struct {
	Field string
	Value string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("store: duplicate key %s: %q", e.Field, e.Value)
}

func (e *DuplicateKeyError) Is(target error) bool { return target == ErrDuplicateKey }
