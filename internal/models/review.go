package models

import (
	"time"
)

// Rating bounds enforced on review creation.
const (
	MinRating = 1
	MaxRating = 5
)

// Review represents a user's review of a listing.
type Review struct {
	ID        string    `bson:"_id,omitempty" json:"id,omitempty"`
	ListingID string    `bson:"listing_id" json:"listing_id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	Rating    int       `bson:"rating" json:"rating"` // MinRating..MaxRating
	Comment   string    `bson:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`

	// Populated when listing reviews, not persisted.
	Author *OwnerSummary `bson:"-" json:"author,omitempty"`
}
