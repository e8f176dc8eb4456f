package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ToryFriday/Renta/internal/models"
)

// recordingNotifier captures review notifications instead of enqueueing them.
type recordingNotifier struct {
	reviews []*models.Review
}

func (n *recordingNotifier) NotifyReview(ctx context.Context, review *models.Review, listing *models.Listing) error {
	n.reviews = append(n.reviews, review)
	return nil
}

func TestReviewService_CreateReview(t *testing.T) {
	db := setupTestDBListing(t, "testdb_review_create")
	notifier := &recordingNotifier{}
	svc := NewReviewService(db, testConfig(), notifier)
	ctx := context.Background()

	listing := seedListing(t, db, models.Listing{Title: "Reviewed", IsAvailable: true})
	userID := uuid.NewString()

	review, err := svc.CreateReview(ctx, userID, listing.ID, 4, "Nice place")
	require.NoError(t, err)
	require.NotNil(t, review)
	assert.Equal(t, 4, review.Rating)
	assert.Equal(t, listing.ID, review.ListingID)
	assert.NotEmpty(t, review.ID)

	// The landlord notification is fired once per created review
	require.Len(t, notifier.reviews, 1)
	assert.Equal(t, review.ID, notifier.reviews[0].ID)
}

func TestReviewService_CreateReview_RatingBounds(t *testing.T) {
	db := setupTestDBListing(t, "testdb_review_bounds")
	svc := NewReviewService(db, testConfig(), nil)
	ctx := context.Background()

	listing := seedListing(t, db, models.Listing{Title: "Strict", IsAvailable: true})
	userID := uuid.NewString()

	for _, rating := range []int{0, -1, 6} {
		_, err := svc.CreateReview(ctx, userID, listing.ID, rating, "")
		assert.Error(t, err, "rating %d should be rejected", rating)
	}
	for _, rating := range []int{1, 5} {
		_, err := svc.CreateReview(ctx, userID, listing.ID, rating, "")
		assert.NoError(t, err, "rating %d should be accepted", rating)
	}
}

func TestReviewService_CreateReview_ListingMustExist(t *testing.T) {
	db := setupTestDBListing(t, "testdb_review_no_listing")
	svc := NewReviewService(db, testConfig(), nil)

	_, err := svc.CreateReview(context.Background(), uuid.NewString(), uuid.NewString(), 5, "")
	assert.Error(t, err)
}

func TestReviewService_ListReviews(t *testing.T) {
	db := setupTestDBListing(t, "testdb_review_list")
	svc := NewReviewService(db, testConfig(), nil)
	ctx := context.Background()

	listing := seedListing(t, db, models.Listing{Title: "Popular", IsAvailable: true})

	authorID := uuid.NewString()
	_, err := db.Collection(profilesCollection).InsertOne(ctx, models.UserProfile{
		ID:       authorID,
		Email:    "tenant@example.com",
		FullName: "Tom Tenant",
		Role:     models.RoleTenant,
	})
	require.NoError(t, err)

	_, err = svc.CreateReview(ctx, authorID, listing.ID, 5, "First")
	require.NoError(t, err)
	_, err = svc.CreateReview(ctx, uuid.NewString(), listing.ID, 3, "Second")
	require.NoError(t, err)

	reviews, err := svc.ListReviews(ctx, listing.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 2)

	var tomsReview *models.Review
	for i := range reviews {
		if reviews[i].UserID == authorID {
			tomsReview = &reviews[i]
		}
	}
	require.NotNil(t, tomsReview)
	require.NotNil(t, tomsReview.Author)
	assert.Equal(t, "Tom Tenant", tomsReview.Author.FullName)

	// Listings with no reviews produce an empty slice
	empty, err := svc.ListReviews(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Empty(t, empty)
}
