package datastores

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ContactsPostgres implements [ContactsStore] on a PostgreSQL table.
type ContactsPostgres struct {
	pool *pgxpool.Pool
}

var _ ContactsStore = (*ContactsPostgres)(nil)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS contacts (
	id             text PRIMARY KEY,
	first_name     text NOT NULL,
	last_name      text NOT NULL,
	email          text NOT NULL,
	favorite_color text NOT NULL,
	birthday       date NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS contacts_email_unique ON contacts (lower(email));
`

const contactColumns = `id, first_name, last_name, email, favorite_color, birthday`

// NewContactsPostgres creates the contacts table on pool if needed.
func NewContactsPostgres(ctx context.Context, pool *pgxpool.Pool) (*ContactsPostgres, error) {
	_, err := pool.Exec(ctx, postgresSchema)
	if err != nil {
		return nil, fmt.Errorf("create contacts table: %w", err)
	}
	return &ContactsPostgres{pool: pool}, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func scanContact(row pgx.Row) (*Contact, error) {
	var (
		c  Contact
		id string
	)
	err := row.Scan(&id, &c.FirstName, &c.LastName, &c.Email, &c.FavoriteColor, &c.Birthday)
	if err != nil {
		return nil, err
	}
	c.ID, err = ParseContactID(id)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *ContactsPostgres) Create(ctx context.Context, c *Contact) (ContactID, error) {
	id := newContactID()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO contacts (`+contactColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		id.Hex(), c.FirstName, c.LastName, c.Email, c.FavoriteColor, c.Birthday,
	)
	if isUniqueViolation(err) {
		return ContactID{}, &DuplicateKeyError{Field: "email", Value: c.Email}
	}
	if err != nil {
		return ContactID{}, err
	}
	c.ID = id
	return id, nil
}

func (s *ContactsPostgres) List(ctx context.Context) ([]*Contact, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+contactColumns+` FROM contacts`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := []*Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

func (s *ContactsPostgres) Get(ctx context.Context, id ContactID) (*Contact, error) {
	c, err := scanContact(s.pool.QueryRow(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE id = $1`, id.Hex(),
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrObjectNotFound
	}
	return c, err
}

func (s *ContactsPostgres) Update(ctx context.Context, id ContactID, p *ContactPatch) (*Contact, error) {
	if p.Empty() {
		return s.Get(ctx, id)
	}
	c, err := scanContact(s.pool.QueryRow(ctx,
		`UPDATE contacts SET
			first_name     = COALESCE($2, first_name),
			last_name      = COALESCE($3, last_name),
			email          = COALESCE($4, email),
			favorite_color = COALESCE($5, favorite_color),
			birthday       = COALESCE($6, birthday)
		WHERE id = $1
		RETURNING `+contactColumns,
		id.Hex(), p.FirstName, p.LastName, p.Email, p.FavoriteColor, p.Birthday,
	))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, ErrObjectNotFound
	case isUniqueViolation(err):
		return nil, &DuplicateKeyError{Field: "email", Value: *p.Email}
	default:
		return c, err
	}
}

func (s *ContactsPostgres) Delete(ctx context.Context, id ContactID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM contacts WHERE id = $1`, id.Hex())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrObjectNotFound
	}
	return nil
}

func (s *ContactsPostgres) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }
