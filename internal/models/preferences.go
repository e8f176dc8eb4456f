package models

import (
	"time"
)

// UserPreferences stores a user's saved search defaults. One document per user.
type UserPreferences struct {
	ID                 string    `bson:"_id,omitempty" json:"id,omitempty"`
	UserID             string    `bson:"user_id" json:"user_id"`
	MinPrice           float64   `bson:"min_price" json:"min_price"`
	MaxPrice           *float64  `bson:"max_price,omitempty" json:"max_price,omitempty"`
	PreferredLocations []string  `bson:"preferred_locations" json:"preferred_locations"`
	MinRooms           int       `bson:"min_rooms" json:"min_rooms"`
	RequiredAmenities  []string  `bson:"required_amenities" json:"required_amenities"`
	CreatedAt          time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time `bson:"updated_at" json:"updated_at"`
}
