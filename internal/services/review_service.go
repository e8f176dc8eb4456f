package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ToryFriday/Renta/internal/config"
	"github.com/ToryFriday/Renta/internal/db"
	"github.com/ToryFriday/Renta/internal/models"
)

// ReviewNotifier is implemented by the task layer to deliver a "your listing
// was reviewed" notification out of band. Delivery is best effort: a notifier
// failure never fails the review write.
type ReviewNotifier interface {
	NotifyReview(ctx context.Context, review *models.Review, listing *models.Listing) error
}

// IReviewService defines the interface for review operations.
type IReviewService interface {
	CreateReview(ctx context.Context, userID, listingID string, rating int, comment string) (*models.Review, error)
	ListReviews(ctx context.Context, listingID string) ([]models.Review, error)
}

// reviewService implements IReviewService.
type reviewService struct {
	db       *mongo.Database
	cfg      *config.Config
	notifier ReviewNotifier // nil disables notifications
}

// NewReviewService creates a new ReviewService. notifier may be nil.
func NewReviewService(db *mongo.Database, cfg *config.Config, notifier ReviewNotifier) IReviewService {
	return &reviewService{db: db, cfg: cfg, notifier: notifier}
}

// CreateReview inserts a review for a listing. The rating must be within
// [MinRating, MaxRating] and the listing must exist.
func (s *reviewService) CreateReview(ctx context.Context, userID, listingID string, rating int, comment string) (*models.Review, error) {
	if rating < models.MinRating || rating > models.MaxRating {
		return nil, fmt.Errorf("rating must be between %d and %d", models.MinRating, models.MaxRating)
	}

	var listing models.Listing
	err := s.db.Collection(listingsCollection).FindOne(ctx, bson.M{"_id": listingID}).Decode(&listing)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("listing %s not found", listingID)
		}
		return nil, fmt.Errorf("error finding listing %s for review: %w", listingID, err)
	}

	var review *models.Review
	operation := func() error {
		review = &models.Review{
			ID:        uuid.NewString(),
			ListingID: listingID,
			UserID:    userID,
			Rating:    rating,
			Comment:   comment,
			CreatedAt: time.Now().UTC(),
		}
		_, insertErr := s.db.Collection(reviewsCollection).InsertOne(ctx, review)
		return insertErr
	}
	if err := db.Try(operation); err != nil {
		return nil, fmt.Errorf("failed to insert review for listing %s after multiple retries: %w", listingID, err)
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyReview(ctx, review, &listing); err != nil {
			log.Printf("WARN: failed to enqueue review notification for listing %s: %v", listingID, err)
		}
	}

	return review, nil
}

// ListReviews returns a listing's reviews, newest first, with author
// summaries attached.
func (s *reviewService) ListReviews(ctx context.Context, listingID string) ([]models.Review, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.db.Collection(reviewsCollection).Find(ctx, bson.M{"listing_id": listingID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reviews for listing %s: %w", listingID, err)
	}
	defer cursor.Close(ctx)

	reviews := []models.Review{}
	if err = cursor.All(ctx, &reviews); err != nil {
		return nil, fmt.Errorf("failed to decode reviews for listing %s: %w", listingID, err)
	}

	if len(reviews) == 0 {
		return reviews, nil
	}

	userIDs := make([]string, 0, len(reviews))
	seen := map[string]bool{}
	for _, r := range reviews {
		if !seen[r.UserID] {
			seen[r.UserID] = true
			userIDs = append(userIDs, r.UserID)
		}
	}

	profCursor, err := s.db.Collection(profilesCollection).Find(ctx, bson.M{"_id": bson.M{"$in": userIDs}})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch review authors: %w", err)
	}
	defer profCursor.Close(ctx)

	var profiles []models.UserProfile
	if err = profCursor.All(ctx, &profiles); err != nil {
		return nil, fmt.Errorf("failed to decode review authors: %w", err)
	}
	authors := map[string]*models.OwnerSummary{}
	for i := range profiles {
		p := profiles[i]
		authors[p.ID] = &models.OwnerSummary{ID: p.ID, FullName: p.FullName, AvatarURL: p.AvatarURL}
	}
	for i := range reviews {
		reviews[i].Author = authors[reviews[i].UserID]
	}

	return reviews, nil
}
