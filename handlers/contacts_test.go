package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ds "github.com/andredosreis/contacts-api/datastores"
	"github.com/andredosreis/contacts-api/handlers"
	"github.com/andredosreis/contacts-api/router"
)

const unknownID = "65a1b2c3d4e5f60718293a4b"

func john() map[string]any {
	return map[string]any{
		"firstName":     "John",
		"lastName":      "Doe",
		"email":         "john@example.com",
		"favoriteColor": "Blue",
		"birthday":      "1990-01-01",
	}
}

func newAPI(t *testing.T, store ds.ContactsStore) (humatest.TestAPI, *[]error) {
	t.Helper()
	_, api := humatest.New(t, router.Config("Contacts API", "test"))
	var logged []error
	huma.AutoRegister(api, &handlers.Contacts{
		Store:        store,
		ErrorHandler: func(_ context.Context, err error) { logged = append(logged, err) },
	})
	return api, &logged
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &v), resp.Body.String())
	return v
}

func errorFields(t *testing.T, resp *httptest.ResponseRecorder) []string {
	t.Helper()
	model := decode[handlers.ErrorModel](t, resp)
	fields := make([]string, 0, len(model.Details))
	for _, d := range model.Details {
		fields = append(fields, d.Field)
	}
	return fields
}

func TestContactsCreateThenGet(t *testing.T) {
	api, _ := newAPI(t, ds.NewContactsInmem())

	body := john()
	body["firstName"] = "  John  "
	resp := api.Post("/contacts", body)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	created := decode[handlers.ContactModel](t, resp)
	assert.Len(t, created.ID, 24)
	assert.Equal(t, handlers.ContactModel{
		ID:            created.ID,
		FirstName:     "John",
		LastName:      "Doe",
		Email:         "john@example.com",
		FavoriteColor: "Blue",
		Birthday:      "1990-01-01",
	}, created)

	resp = api.Get("/contacts/" + created.ID)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, created, decode[handlers.ContactModel](t, resp))
}

func TestContactsCreateMissingFields(t *testing.T) {
	api, _ := newAPI(t, ds.NewContactsInmem())

	resp := api.Post("/contacts", map[string]any{
		"firstName": "John",
		"email":     "not-an-email",
		"birthday":  "1990-01-01",
	})
	require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
	assert.Equal(t, []string{"lastName", "email", "favoriteColor"}, errorFields(t, resp))
	assert.Equal(t, "validation failed", decode[handlers.ErrorModel](t, resp).Message)

	resp = api.Get("/contacts")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, decode[[]handlers.ContactModel](t, resp))
}

func TestContactsCreateDuplicateEmail(t *testing.T) {
	api, _ := newAPI(t, ds.NewContactsInmem())

	resp := api.Post("/contacts", john())
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	again := john()
	again["email"] = "John@Example.com"
	resp = api.Post("/contacts", again)
	require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
	model := decode[handlers.ErrorModel](t, resp)
	assert.Equal(t, "duplicate key", model.Message)
	require.Len(t, model.Details, 1)
	assert.Equal(t, "email", model.Details[0].Field)
	assert.Equal(t, "John@Example.com", model.Details[0].Value)

	resp = api.Get("/contacts")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, decode[[]handlers.ContactModel](t, resp), 1)
}

func TestContactsList(t *testing.T) {
	api, _ := newAPI(t, ds.NewContactsInmem())

	resp := api.Get("/contacts")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `[]`, resp.Body.String())

	for _, email := range []string{"a@example.com", "b@example.com"} {
		body := john()
		body["email"] = email
		require.Equal(t, http.StatusCreated, api.Post("/contacts", body).Code)
	}

	resp = api.Get("/contacts")
	require.Equal(t, http.StatusOK, resp.Code)
	emails := []string{}
	for _, c := range decode[[]handlers.ContactModel](t, resp) {
		emails = append(emails, c.Email)
	}
	assert.ElementsMatch(t, []string{"a@example.com", "b@example.com"}, emails)
}

func TestContactsMalformedID(t *testing.T) {
	api, _ := newAPI(t, ds.NewContactsInmem())

	for name, resp := range map[string]*httptest.ResponseRecorder{
		"get":    api.Get("/contacts/not-an-id"),
		"put":    api.Put("/contacts/not-an-id", map[string]any{"firstName": "Jane"}),
		"delete": api.Delete("/contacts/not-an-id"),
	} {
		assert.Equal(t, http.StatusBadRequest, resp.Code, name)
		assert.Equal(t, "malformed id", decode[handlers.ErrorModel](t, resp).Message, name)
	}
}

func TestContactsUnknownID(t *testing.T) {
	api, _ := newAPI(t, ds.NewContactsInmem())

	for name, resp := range map[string]*httptest.ResponseRecorder{
		"get":    api.Get("/contacts/" + unknownID),
		"put":    api.Put("/contacts/"+unknownID, map[string]any{"firstName": "Jane"}),
		"delete": api.Delete("/contacts/" + unknownID),
	} {
		assert.Equal(t, http.StatusNotFound, resp.Code, name)
		assert.Equal(t, "contact not found", decode[handlers.ErrorModel](t, resp).Message, name)
	}
}

func TestContactsDeleteThenGet(t *testing.T) {
	api, _ := newAPI(t, ds.NewContactsInmem())

	created := decode[handlers.ContactModel](t, api.Post("/contacts", john()))

	resp := api.Delete("/contacts/" + created.ID)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.JSONEq(t, `{"message":"contact deleted"}`, resp.Body.String())

	assert.Equal(t, http.StatusNotFound, api.Get("/contacts/"+created.ID).Code)
	assert.Equal(t, http.StatusNotFound, api.Delete("/contacts/"+created.ID).Code)
}

func TestContactsPartialUpdate(t *testing.T) {
	api, _ := newAPI(t, ds.NewContactsInmem())

	created := decode[handlers.ContactModel](t, api.Post("/contacts", john()))

	resp := api.Put("/contacts/"+created.ID, map[string]any{
		"favoriteColor": " Green ",
		"birthday":      "1991-02-03",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	want := created
	want.FavoriteColor = "Green"
	want.Birthday = "1991-02-03"
	assert.Equal(t, want, decode[handlers.ContactModel](t, resp))

	resp = api.Get("/contacts/" + created.ID)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, want, decode[handlers.ContactModel](t, resp))
}

func TestContactsEmptyUpdate(t *testing.T) {
	api, _ := newAPI(t, ds.NewContactsInmem())

	created := decode[handlers.ContactModel](t, api.Post("/contacts", john()))

	resp := api.Put("/contacts/"+created.ID, map[string]any{})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, created, decode[handlers.ContactModel](t, resp))
}

func TestContactsUpdateValidation(t *testing.T) {
	api, _ := newAPI(t, ds.NewContactsInmem())

	created := decode[handlers.ContactModel](t, api.Post("/contacts", john()))

	resp := api.Put("/contacts/"+created.ID, map[string]any{"email": "nope", "lastName": "  "})
	require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
	assert.Equal(t, []string{"lastName", "email"}, errorFields(t, resp))

	resp = api.Get("/contacts/" + created.ID)
	assert.Equal(t, created, decode[handlers.ContactModel](t, resp))
}

func TestContactsUpdateDuplicateEmail(t *testing.T) {
	api, _ := newAPI(t, ds.NewContactsInmem())

	require.Equal(t, http.StatusCreated, api.Post("/contacts", john()).Code)
	jane := john()
	jane["email"] = "jane@example.com"
	created := decode[handlers.ContactModel](t, api.Post("/contacts", jane))

	resp := api.Put("/contacts/"+created.ID, map[string]any{"email": "JOHN@example.com"})
	require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
	assert.Equal(t, []string{"email"}, errorFields(t, resp))
}

// failingStore fails every call with an internal error.
type failingStore struct{ ds.ContactsStore }

var errBackend = errors.New("backend unavailable: secret connection details")

func (failingStore) Create(context.Context, *ds.Contact) (ds.ContactID, error) {
	return ds.ContactID{}, errBackend
}
func (failingStore) List(context.Context) ([]*ds.Contact, error) { return nil, errBackend }
func (failingStore) Get(context.Context, ds.ContactID) (*ds.Contact, error) {
	return nil, errBackend
}
func (failingStore) Update(context.Context, ds.ContactID, *ds.ContactPatch) (*ds.Contact, error) {
	return nil, errBackend
}
func (failingStore) Delete(context.Context, ds.ContactID) error { return errBackend }

func TestContactsInternalError(t *testing.T) {
	api, logged := newAPI(t, failingStore{})

	for name, resp := range map[string]*httptest.ResponseRecorder{
		"create": api.Post("/contacts", john()),
		"list":   api.Get("/contacts"),
		"get":    api.Get("/contacts/" + unknownID),
		"put":    api.Put("/contacts/"+unknownID, map[string]any{"firstName": "Jane"}),
		"delete": api.Delete("/contacts/" + unknownID),
	} {
		assert.Equal(t, http.StatusInternalServerError, resp.Code, name)
		assert.JSONEq(t, `{"error":"internal error"}`, resp.Body.String(), name)
	}

	require.Len(t, *logged, 5)
	for _, err := range *logged {
		assert.ErrorIs(t, err, errBackend)
	}
}

func TestContactsMalformedBody(t *testing.T) {
	api, _ := newAPI(t, ds.NewContactsInmem())

	resp := api.Post("/contacts", map[string]any{
		"firstName":     42,
		"lastName":      "Doe",
		"email":         "john@example.com",
		"favoriteColor": "Blue",
		"birthday":      "1990-01-01",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
	assert.NotEmpty(t, decode[handlers.ErrorModel](t, resp).Message)
}

func TestContactsUpdateUnknownField(t *testing.T) {
	api, _ := newAPI(t, ds.NewContactsInmem())
	created := decode[handlers.ContactModel](t, api.Post("/contacts", john()))

	body := john()
	body["id"] = created.ID
	resp := api.Put("/contacts/"+created.ID, body)
	require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())

	model := decode[handlers.ErrorModel](t, resp)
	require.Len(t, model.Details, 1)
	assert.Equal(t, "id", model.Details[0].Field)
	assert.Equal(t, "unexpected property", model.Details[0].Message)
	assert.Nil(t, model.Details[0].Value)
	assert.NotContains(t, resp.Body.String(), `"value"`)
}
