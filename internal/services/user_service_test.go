package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ToryFriday/Renta/internal/models"
	"github.com/ToryFriday/Renta/internal/utils"
)

func setupTestDBUser(t *testing.T, dbName string) *mongo.Database {
	return utils.SetupTestDB(t, dbName, profilesCollection, preferencesCollection)
}

func TestUserService_UpsertProfile(t *testing.T) {
	db := setupTestDBUser(t, "testdb_user_profile")
	svc := NewUserService(db, testConfig())
	ctx := context.Background()

	userID := uuid.NewString()
	profile := &models.UserProfile{
		ID:       userID,
		Email:    "new@example.com",
		FullName: "New User",
		Role:     models.RoleTenant,
	}

	saved, err := svc.UpsertProfile(ctx, profile)
	require.NoError(t, err)
	assert.Equal(t, userID, saved.ID)
	assert.False(t, saved.CreatedAt.IsZero())

	// Update preserves created_at and bumps updated_at
	profile.FullName = "Renamed User"
	profile.Role = models.RoleLandlord
	updated, err := svc.UpsertProfile(ctx, profile)
	require.NoError(t, err)
	assert.Equal(t, "Renamed User", updated.FullName)
	assert.Equal(t, models.RoleLandlord, updated.Role)
	assert.Equal(t, saved.CreatedAt.Unix(), updated.CreatedAt.Unix())
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt) || updated.UpdatedAt.Equal(updated.CreatedAt))

	found, err := svc.FindProfileByID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed User", found.FullName)
}

func TestUserService_UpsertProfile_Validation(t *testing.T) {
	db := setupTestDBUser(t, "testdb_user_profile_invalid")
	svc := NewUserService(db, testConfig())
	ctx := context.Background()

	_, err := svc.UpsertProfile(ctx, &models.UserProfile{Role: models.RoleTenant})
	assert.Error(t, err, "missing ID should be rejected")

	_, err = svc.UpsertProfile(ctx, &models.UserProfile{ID: uuid.NewString(), Role: "admin"})
	assert.Error(t, err, "unknown role should be rejected")
}

func TestUserService_FindProfileByID_NotFound(t *testing.T) {
	db := setupTestDBUser(t, "testdb_user_profile_missing")
	svc := NewUserService(db, testConfig())

	profile, err := svc.FindProfileByID(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)
	assert.Nil(t, profile)
}

func TestUserService_Preferences(t *testing.T) {
	db := setupTestDBUser(t, "testdb_user_prefs")
	svc := NewUserService(db, testConfig())
	ctx := context.Background()

	userID := uuid.NewString()

	_, err := svc.GetPreferences(ctx, userID)
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)

	maxPrice := 1800.0
	saved, err := svc.SavePreferences(ctx, &models.UserPreferences{
		UserID:             userID,
		MinPrice:           800,
		MaxPrice:           &maxPrice,
		PreferredLocations: []string{"Berlin"},
		MinRooms:           2,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, 800.0, saved.MinPrice)

	// Saving again replaces the single document rather than adding one
	saved2, err := svc.SavePreferences(ctx, &models.UserPreferences{
		UserID:   userID,
		MinPrice: 900,
	})
	require.NoError(t, err)
	assert.Equal(t, saved.ID, saved2.ID)
	assert.Equal(t, 900.0, saved2.MinPrice)

	count, err := db.Collection(preferencesCollection).CountDocuments(ctx, map[string]interface{}{"user_id": userID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	got, err := svc.GetPreferences(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 900.0, got.MinPrice)
	assert.Nil(t, got.MaxPrice)
}

func TestUserService_SavePreferences_Validation(t *testing.T) {
	db := setupTestDBUser(t, "testdb_user_prefs_invalid")
	svc := NewUserService(db, testConfig())
	ctx := context.Background()

	_, err := svc.SavePreferences(ctx, &models.UserPreferences{MinPrice: 100})
	assert.Error(t, err, "missing user ID should be rejected")

	_, err = svc.SavePreferences(ctx, &models.UserPreferences{UserID: uuid.NewString(), MinPrice: -5})
	assert.Error(t, err, "negative min_price should be rejected")

	bad := 100.0
	_, err = svc.SavePreferences(ctx, &models.UserPreferences{UserID: uuid.NewString(), MinPrice: 500, MaxPrice: &bad})
	assert.Error(t, err, "max below min should be rejected")
}
