package datastores

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ContactsMongo implements [ContactsStore] on a MongoDB collection.
type ContactsMongo struct {
	coll *mongo.Collection
}

var _ ContactsStore = (*ContactsMongo)(nil)

// emailCollation compares emails case-insensitively.
var emailCollation = &options.Collation{Locale: "en", Strength: 2} //nolint: gochecknoglobals,nolintlint

type contactDocument struct {
	ID            bson.ObjectID `bson:"_id"`
	FirstName     string        `bson:"firstName"`
	LastName      string        `bson:"lastName"`
	Email         string        `bson:"email"`
	FavoriteColor string        `bson:"favoriteColor"`
	Birthday      time.Time     `bson:"birthday"`
}

func (d *contactDocument) contact() *Contact {
	return &Contact{
		ID:            d.ID,
		FirstName:     d.FirstName,
		LastName:      d.LastName,
		Email:         d.Email,
		FavoriteColor: d.FavoriteColor,
		Birthday:      d.Birthday.UTC(),
	}
}

// NewContactsMongo uses the collection named name in db and makes sure the
// unique email index exists.
func NewContactsMongo(ctx context.Context, db *mongo.Database, name string) (*ContactsMongo, error) {
	coll := db.Collection(name)
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
		Options: options.Index().
			SetName("email_unique").
			SetUnique(true).
			SetCollation(emailCollation),
	})
	if err != nil {
		return nil, fmt.Errorf("create email index: %w", err)
	}
	return &ContactsMongo{coll: coll}, nil
}

func (s *ContactsMongo) Create(ctx context.Context, c *Contact) (ContactID, error) {
	doc := contactDocument{
		ID:            newContactID(),
		FirstName:     c.FirstName,
		LastName:      c.LastName,
		Email:         c.Email,
		FavoriteColor: c.FavoriteColor,
		Birthday:      c.Birthday,
	}
	_, err := s.coll.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return ContactID{}, &DuplicateKeyError{Field: "email", Value: c.Email}
	}
	if err != nil {
		return ContactID{}, err
	}
	c.ID = doc.ID
	return c.ID, nil
}

func (s *ContactsMongo) List(ctx context.Context) ([]*Contact, error) {
	cursor, err := s.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	var docs []contactDocument
	err = cursor.All(ctx, &docs)
	if err != nil {
		return nil, err
	}
	contacts := make([]*Contact, 0, len(docs))
	for i := range docs {
		contacts = append(contacts, docs[i].contact())
	}
	return contacts, nil
}

func (s *ContactsMongo) Get(ctx context.Context, id ContactID) (*Contact, error) {
	var doc contactDocument
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.contact(), nil
}

func (s *ContactsMongo) Update(ctx context.Context, id ContactID, p *ContactPatch) (*Contact, error) {
	if p.Empty() {
		return s.Get(ctx, id)
	}

	set := bson.D{}
	appendSet := func(key string, value any) { set = append(set, bson.E{Key: key, Value: value}) }
	if p.FirstName != nil {
		appendSet("firstName", *p.FirstName)
	}
	if p.LastName != nil {
		appendSet("lastName", *p.LastName)
	}
	if p.Email != nil {
		appendSet("email", *p.Email)
	}
	if p.FavoriteColor != nil {
		appendSet("favoriteColor", *p.FavoriteColor)
	}
	if p.Birthday != nil {
		appendSet("birthday", *p.Birthday)
	}

	var doc contactDocument
	err := s.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: set}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	switch {
	case err == nil:
		return doc.contact(), nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, ErrObjectNotFound
	case mongo.IsDuplicateKeyError(err):
		return nil, &DuplicateKeyError{Field: "email", Value: *p.Email}
	default:
		return nil, err
	}
}

func (s *ContactsMongo) Delete(ctx context.Context, id ContactID) error {
	res, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrObjectNotFound
	}
	return nil
}

func (s *ContactsMongo) Ping(ctx context.Context) error {
	return s.coll.Database().Client().Ping(ctx, nil)
}
