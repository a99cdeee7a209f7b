package datastores

import (
	"context"
	"slices"
	"strings"
	"sync"
)

// ContactsInmem implements [ContactsStore].
type ContactsInmem struct {
	mu       sync.Mutex
	index    map[ContactID]int
	emails   map[string]ContactID
	contacts []*Contact
}

var _ ContactsStore = (*ContactsInmem)(nil)

// NewContactsInmem returns a store seeded with cs. Seeds without an ID get
// one assigned, seeds repeating an email are dropped.
func NewContactsInmem(cs ...*Contact) *ContactsInmem {
	s := &ContactsInmem{
		index:  make(map[ContactID]int, len(cs)),
		emails: make(map[string]ContactID, len(cs)),
	}
	for _, c := range cs {
		if c.ID.IsZero() {
			c.ID = newContactID()
		}
		if _, loaded := s.emails[emailKey(c.Email)]; loaded {
			continue
		}
		s.insert(c)
	}
	return s
}

func emailKey(email string) string { return strings.ToLower(email) }

func (s *ContactsInmem) insert(c *Contact) {
	cc := *c
	s.index[cc.ID] = len(s.contacts)
	s.emails[emailKey(cc.Email)] = cc.ID
	s.contacts = append(s.contacts, &cc)
}

func (s *ContactsInmem) Create(_ context.Context, c *Contact) (ContactID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, loaded := s.emails[emailKey(c.Email)]; loaded {
		return ContactID{}, &DuplicateKeyError{Field: "email", Value: c.Email}
	}
retry:
	c.ID = newContactID()
	_, loaded := s.index[c.ID]
	if loaded {
		goto retry
	}
	s.insert(c)
	return c.ID, nil
}

func (s *ContactsInmem) List(_ context.Context) ([]*Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	contacts := make([]*Contact, 0, len(s.contacts))
	for _, c := range s.contacts {
		cc := *c
		contacts = append(contacts, &cc)
	}
	return contacts, nil
}

func (s *ContactsInmem) Get(_ context.Context, id ContactID) (*Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	index, ok := s.index[id]
	if !ok {
		return nil, ErrObjectNotFound
	}
	c := *s.contacts[index]
	return &c, nil
}

func (s *ContactsInmem) Update(_ context.Context, id ContactID, p *ContactPatch) (*Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	index, ok := s.index[id]
	if !ok {
		return nil, ErrObjectNotFound
	}
	current := s.contacts[index]
	if p != nil && p.Email != nil {
		owner, loaded := s.emails[emailKey(*p.Email)]
		if loaded && owner != id {
			return nil, &DuplicateKeyError{Field: "email", Value: *p.Email}
		}
		delete(s.emails, emailKey(current.Email))
		s.emails[emailKey(*p.Email)] = id
	}
	p.apply(current)
	c := *current
	return &c, nil
}

func (s *ContactsInmem) Delete(_ context.Context, id ContactID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	index, ok := s.index[id]
	if !ok {
		return ErrObjectNotFound
	}
	delete(s.index, id)
	delete(s.emails, emailKey(s.contacts[index].Email))
	s.contacts = slices.Delete(s.contacts, index, index+1)
	for i := index; i < len(s.contacts); i++ {
		s.index[s.contacts[i].ID] = i
	}
	return nil
}

func (s *ContactsInmem) Ping(_ context.Context) error { return nil }
