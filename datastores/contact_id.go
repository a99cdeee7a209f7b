package datastores

import (
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ContactID is a [bson.ObjectID], shared by every store so that the
// identifier format does not depend on the backend. It marshals to text as
// 24 hexadecimal characters.
type ContactID = bson.ObjectID

func newContactID() ContactID { return bson.NewObjectID() }

// ParseContactID parses the hexadecimal form of a [ContactID].
// It fails with [ErrMalformedID] when s is not well-formed.
func ParseContactID(s string) (ContactID, error) {
	id, err := bson.ObjectIDFromHex(s)
	if err != nil {
		return ContactID{}, fmt.Errorf("%w: %q", ErrMalformedID, s)
	}
	return id, nil
}
