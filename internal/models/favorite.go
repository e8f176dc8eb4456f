package models

import (
	"time"
)

// Favorite joins a user to a listing. At most one document may exist per
// (user_id, listing_id) pair; the unique compound index enforces this.
type Favorite struct {
	ID        string    `bson:"_id,omitempty" json:"id,omitempty"`
	UserID    string    `bson:"user_id" json:"user_id"`
	ListingID string    `bson:"listing_id" json:"listing_id"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`

	// Populated when listing a user's favorites, not persisted.
	Listing *Listing `bson:"-" json:"listing,omitempty"`
}
