package storage

import "fmt"

// Collection names one of the fixed record collections.
type Collection string

const (
	Users    Collection = "users"
	Decks    Collection = "decks"
	Cards    Collection = "cards"
	SrsState Collection = "srs_state"
	Reviews  Collection = "reviews"
)

// Collections lists every known collection in a stable order.
var Collections = []Collection{Users, Decks, Cards, SrsState, Reviews}

// mustKnow panics for a collection outside the fixed set. Asking for one
// is a programming error, not a runtime condition.
func mustKnow(c Collection) Collection {
	for _, known := range Collections {
		if c == known {
			return c
		}
	}
	panic(fmt.Sprintf("storage: unknown collection %q", string(c)))
}

// FileName is the document name of the collection in the file backend.
func (c Collection) FileName() string {
	return string(mustKnow(c)) + ".json"
}
