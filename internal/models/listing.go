package models

import (
	"time"
)

// GeoJSON represents a GeoJSON Point for listing coordinates.
type GeoJSON struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"` // [lon, lat]
}

// OwnerSummary is the denormalized slice of a landlord's profile attached to
// search results and listing detail responses.
type OwnerSummary struct {
	ID        string `bson:"id" json:"id"`
	FullName  string `bson:"full_name" json:"full_name"`
	AvatarURL string `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`
}

// Listing represents a rental listing.
type Listing struct {
	ID            string     `bson:"_id,omitempty" json:"id,omitempty"`
	UserID        string     `bson:"user_id" json:"user_id"`
	Title         string     `bson:"title" json:"title"`
	Description   string     `bson:"description,omitempty" json:"description,omitempty"`
	RentPrice     float64    `bson:"rent_price" json:"rent_price"` // currency-agnostic
	Location      string     `bson:"location" json:"location"`
	Coordinates   *GeoJSON   `bson:"coordinates,omitempty" json:"coordinates,omitempty"`
	AvailableFrom *time.Time `bson:"available_from,omitempty" json:"available_from,omitempty"`
	Rooms         int        `bson:"rooms" json:"rooms"`
	Bathrooms     int        `bson:"bathrooms" json:"bathrooms"`
	Amenities     []string   `bson:"amenities" json:"amenities"`
	ImageURLs     []string   `bson:"image_urls" json:"image_urls"`
	IsAvailable   bool       `bson:"is_available" json:"is_available"`
	Featured      bool       `bson:"featured" json:"featured"`
	CreatedAt     time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `bson:"updated_at" json:"updated_at"`

	// Derived fields, recomputed from the reviews collection at read time.
	// Never persisted: the review set is the single source of truth.
	AverageRating float64       `bson:"-" json:"average_rating"`
	ReviewCount   int           `bson:"-" json:"review_count"`
	Owner         *OwnerSummary `bson:"-" json:"owner,omitempty"`
}
