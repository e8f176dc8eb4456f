package models

import (
	"time"
)

// Role tags a profile as either a tenant or a landlord.
type Role string

const (
	RoleTenant   Role = "tenant"
	RoleLandlord Role = "landlord"
)

// Valid reports whether r is one of the two recognized role variants.
func (r Role) Valid() bool {
	return r == RoleTenant || r == RoleLandlord
}

// UserProfile holds the application-level profile for a user. The ID is the
// identity provider's subject; credentials and sessions live entirely with the
// provider and are never stored here.
type UserProfile struct {
	ID        string    `bson:"_id" json:"id"`
	Email     string    `bson:"email" json:"email"`
	FullName  string    `bson:"full_name,omitempty" json:"full_name,omitempty"`
	AvatarURL string    `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`
	Role      Role      `bson:"role" json:"role"`
	Bio       string    `bson:"bio,omitempty" json:"bio,omitempty"`
	Phone     string    `bson:"phone,omitempty" json:"phone,omitempty"`
	Location  string    `bson:"location,omitempty" json:"location,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
