package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ToryFriday/Renta/internal/config"
	"github.com/ToryFriday/Renta/internal/models"
)

// IUserService defines the interface for profile and preference operations.
// Identity itself (credentials, sessions) belongs to the external identity
// provider; this service only manages the application profile keyed by the
// provider's subject.
type IUserService interface {
	FindProfileByID(ctx context.Context, userID string) (*models.UserProfile, error)
	UpsertProfile(ctx context.Context, profile *models.UserProfile) (*models.UserProfile, error)
	GetPreferences(ctx context.Context, userID string) (*models.UserPreferences, error)
	SavePreferences(ctx context.Context, prefs *models.UserPreferences) (*models.UserPreferences, error)
}

const preferencesCollection = "user_preferences"

// userService implements IUserService.
type userService struct {
	db  *mongo.Database
	cfg *config.Config
}

// NewUserService creates a new UserService.
func NewUserService(db *mongo.Database, cfg *config.Config) IUserService {
	return &userService{db: db, cfg: cfg}
}

// FindProfileByID fetches a profile by the identity provider's subject.
func (s *userService) FindProfileByID(ctx context.Context, userID string) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := s.db.Collection(profilesCollection).FindOne(ctx, bson.M{"_id": userID}).Decode(&profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding profile %s: %w", userID, err)
	}
	return &profile, nil
}

// UpsertProfile creates or replaces the profile document for profile.ID.
// CreatedAt is preserved on update.
func (s *userService) UpsertProfile(ctx context.Context, profile *models.UserProfile) (*models.UserProfile, error) {
	if profile.ID == "" {
		return nil, fmt.Errorf("profile ID is required")
	}
	if !profile.Role.Valid() {
		return nil, fmt.Errorf("invalid role %q", profile.Role)
	}

	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"email":      profile.Email,
			"full_name":  profile.FullName,
			"avatar_url": profile.AvatarURL,
			"role":       profile.Role,
			"bio":        profile.Bio,
			"phone":      profile.Phone,
			"location":   profile.Location,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var saved models.UserProfile
	err := s.db.Collection(profilesCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": profile.ID}, update, opts).Decode(&saved)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert profile %s: %w", profile.ID, err)
	}
	return &saved, nil
}

// GetPreferences fetches a user's saved search defaults.
func (s *userService) GetPreferences(ctx context.Context, userID string) (*models.UserPreferences, error) {
	var prefs models.UserPreferences
	err := s.db.Collection(preferencesCollection).FindOne(ctx, bson.M{"user_id": userID}).Decode(&prefs)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding preferences for user %s: %w", userID, err)
	}
	return &prefs, nil
}

// SavePreferences creates or replaces the single preferences document for
// prefs.UserID.
func (s *userService) SavePreferences(ctx context.Context, prefs *models.UserPreferences) (*models.UserPreferences, error) {
	if prefs.UserID == "" {
		return nil, fmt.Errorf("user ID is required")
	}
	if prefs.MinPrice < 0 {
		return nil, fmt.Errorf("min_price must not be negative")
	}
	if prefs.MaxPrice != nil && *prefs.MaxPrice < prefs.MinPrice {
		return nil, fmt.Errorf("max_price below min_price")
	}

	if prefs.PreferredLocations == nil {
		prefs.PreferredLocations = []string{}
	}
	if prefs.RequiredAmenities == nil {
		prefs.RequiredAmenities = []string{}
	}

	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"min_price":           prefs.MinPrice,
			"max_price":           prefs.MaxPrice,
			"preferred_locations": prefs.PreferredLocations,
			"min_rooms":           prefs.MinRooms,
			"required_amenities":  prefs.RequiredAmenities,
			"updated_at":          now,
		},
		"$setOnInsert": bson.M{
			"_id":        uuid.NewString(),
			"created_at": now,
		},
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var saved models.UserPreferences
	err := s.db.Collection(preferencesCollection).
		FindOneAndUpdate(ctx, bson.M{"user_id": prefs.UserID}, update, opts).Decode(&saved)
	if err != nil {
		return nil, fmt.Errorf("failed to save preferences for user %s: %w", prefs.UserID, err)
	}
	return &saved, nil
}
