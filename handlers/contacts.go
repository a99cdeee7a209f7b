package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	ds "github.com/andredosreis/contacts-api/datastores"
	"github.com/andredosreis/contacts-api/schema"
)

type Contacts struct {
	Store        ds.ContactsStore
	ErrorHandler func(context.Context, error)
}

type ContactModel struct {
	ID string `json:"id" readOnly:"true" example:"65a1b2c3d4e5f60718293a4b"`

	FirstName     string `json:"firstName"     example:"John"`
	LastName      string `json:"lastName"      example:"Doe"`
	Email         string `json:"email"         example:"john@example.com" format:"email"`
	FavoriteColor string `json:"favoriteColor" example:"Blue"`
	Birthday      string `json:"birthday"      example:"1990-01-01"       format:"date"`
}

func contactModel(c *ds.Contact) ContactModel {
	return ContactModel{
		ID:            c.ID.Hex(),
		FirstName:     c.FirstName,
		LastName:      c.LastName,
		Email:         c.Email,
		FavoriteColor: c.FavoriteColor,
		Birthday:      schema.FormatDate(c.Birthday),
	}
}

type contactIDInput struct {
	ID string `path:"id" example:"65a1b2c3d4e5f60718293a4b" doc:"ID of the contact"`
}

func (h *Contacts) RegisterCreate(api huma.API) { // called by [huma.AutoRegister]
	huma.Post(api, "/contacts",
		handlerWithErrorHandler(h.create, h.ErrorHandler),
		opSummary("Create a contact"),
		opStatus(http.StatusCreated),
		opErrors(http.StatusBadRequest, http.StatusInternalServerError),
	)
}

type ContactsCreateOutput struct {
	Body ContactModel
}

func (h *Contacts) create(ctx context.Context, input *struct {
	Body schema.Draft
}) (*ContactsCreateOutput, error) {
	contact, err := input.Body.Contact()
	if err != nil {
		return nil, errorResponse(err)
	}

	_, err = h.Store.Create(ctx, contact)
	if err != nil {
		return nil, errorResponse(err)
	}

	return &ContactsCreateOutput{Body: contactModel(contact)}, nil
}

func (h *Contacts) RegisterList(api huma.API) { // called by [huma.AutoRegister]
	huma.Get(api, "/contacts",
		handlerWithErrorHandler(h.list, h.ErrorHandler),
		opSummary("List contacts"),
		opErrors(http.StatusInternalServerError),
	)
}

type ContactsListOutput struct {
	Body []ContactModel
}

func (h *Contacts) list(ctx context.Context, _ *struct{}) (*ContactsListOutput, error) {
	contacts, err := h.Store.List(ctx)
	if err != nil {
		return nil, errorResponse(err)
	}

	body := make([]ContactModel, 0, len(contacts))
	for _, contact := range contacts {
		body = append(body, contactModel(contact))
	}

	return &ContactsListOutput{Body: body}, nil
}

func (h *Contacts) RegisterGet(api huma.API) { // called by [huma.AutoRegister]
	huma.Get(api, "/contacts/{id}",
		handlerWithErrorHandler(h.get, h.ErrorHandler),
		opSummary("Get a contact"),
		opErrors(http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError),
	)
}

type ContactsGetOutput struct {
	Body ContactModel
}

func (h *Contacts) get(ctx context.Context, input *contactIDInput) (*ContactsGetOutput, error) {
	id, err := ds.ParseContactID(input.ID)
	if err != nil {
		return nil, errorResponse(err)
	}

	contact, err := h.Store.Get(ctx, id)
	if err != nil {
		return nil, errorResponse(err)
	}

	return &ContactsGetOutput{Body: contactModel(contact)}, nil
}

func (h *Contacts) RegisterPut(api huma.API) { // called by [huma.AutoRegister]
	huma.Put(api, "/contacts/{id}",
		handlerWithErrorHandler(h.put, h.ErrorHandler),
		opSummary("Update a contact"),
		opErrors(http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError),
	)
}

type ContactsPutOutput struct {
	Body ContactModel
}

func (h *Contacts) put(ctx context.Context, input *struct {
	ID   string `path:"id" example:"65a1b2c3d4e5f60718293a4b" doc:"ID of the contact to update"`
	Body schema.Draft
}) (*ContactsPutOutput, error) {
	id, err := ds.ParseContactID(input.ID)
	if err != nil {
		return nil, errorResponse(err)
	}

	patch, err := input.Body.Patch()
	if err != nil {
		return nil, errorResponse(err)
	}

	contact, err := h.Store.Update(ctx, id, patch)
	if err != nil {
		return nil, errorResponse(err)
	}

	return &ContactsPutOutput{Body: contactModel(contact)}, nil
}

func (h *Contacts) RegisterDel(api huma.API) { // called by [huma.AutoRegister]
	huma.Delete(api, "/contacts/{id}",
		handlerWithErrorHandler(h.del, h.ErrorHandler),
		opSummary("Delete a contact"),
		opErrors(http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError),
	)
}

type ContactsDelOutput struct {
	Body struct {
		Message string `json:"message" example:"contact deleted"`
	}
}

func (h *Contacts) del(ctx context.Context, input *contactIDInput) (*ContactsDelOutput, error) {
	id, err := ds.ParseContactID(input.ID)
	if err != nil {
		return nil, errorResponse(err)
	}

	err = h.Store.Delete(ctx, id)
	if err != nil {
		return nil, errorResponse(err)
	}

	out := &ContactsDelOutput{}
	out.Body.Message = "contact deleted"
	return out, nil
}
