package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ToryFriday/Renta/internal/config"
	"github.com/ToryFriday/Renta/internal/db"
	"github.com/ToryFriday/Renta/internal/models"
)

// IListingService defines the interface for listing-related operations.
type IListingService interface {
	SearchListings(ctx context.Context, filter *ListingFilter) ([]models.Listing, int64, error)
	FeaturedListings(ctx context.Context, limit int) ([]models.Listing, error)
	FindListingByID(ctx context.Context, listingID string) (*models.Listing, error)
	CreateListing(ctx context.Context, userID string, input ListingInput) (*models.Listing, error)
	UpdateListing(ctx context.Context, listingID, userID string, updates map[string]interface{}) (*models.Listing, error)
	DeleteListing(ctx context.Context, listingID, userID string) error
	AddImageToListing(ctx context.Context, listingID, imageURL string) error
}

const (
	listingsCollection = "listings"
	reviewsCollection  = "reviews"
	profilesCollection = "user_profiles"
)

// ListingInput carries the writable fields for creating a listing.
type ListingInput struct {
	Title         string          `json:"title" binding:"required"`
	Description   string          `json:"description"`
	RentPrice     float64         `json:"rent_price" binding:"required"`
	Location      string          `json:"location" binding:"required"`
	Coordinates   *models.GeoJSON `json:"coordinates"`
	AvailableFrom *time.Time      `json:"available_from"`
	Rooms         int             `json:"rooms"`
	Bathrooms     int             `json:"bathrooms"`
	Amenities     []string        `json:"amenities"`
	ImageURLs     []string        `json:"image_urls"`
}

// listingService implements IListingService.
type listingService struct {
	db  *mongo.Database
	cfg *config.Config
	rdb *redis.Client // optional search-result cache; nil disables caching
}

// NewListingService creates a new ListingService. rdb may be nil, in which
// case search results are not cached.
func NewListingService(db *mongo.Database, cfg *config.Config, rdb *redis.Client) IListingService {
	return &listingService{db: db, cfg: cfg, rdb: rdb}
}

// searchPage is the cached representation of one search result page.
type searchPage struct {
	Data  []models.Listing `json:"data"`
	Total int64            `json:"total"`
}

// SearchListings runs a filtered, sorted, paginated query over available
// listings and returns the page plus the total match count ignoring
// pagination. Every returned listing carries its derived rating fields and an
// owner summary. Backend errors propagate unchanged: a failed fetch is "no
// data", never an empty result set.
func (s *listingService) SearchListings(ctx context.Context, filter *ListingFilter) ([]models.Listing, int64, error) {
	filter.Normalize(s.cfg.DefaultPageSize, s.cfg.MaxPageSize)
	if err := filter.Validate(); err != nil {
		return nil, 0, err
	}

	cacheKey := filter.CacheKey()
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var page searchPage
			if err := json.Unmarshal([]byte(cached), &page); err == nil {
				return page.Data, page.Total, nil
			}
			// Corrupt cache entry, fall through to Mongo.
		} else if !errors.Is(err, redis.Nil) {
			log.Printf("WARN: search cache get failed for %q: %v", cacheKey, err)
		}
	}

	query := filter.Query()
	collection := s.db.Collection(listingsCollection)

	total, err := collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count listings: %w", err)
	}

	opts := options.Find().
		SetSort(filter.Sort()).
		SetSkip(filter.Skip()).
		SetLimit(int64(filter.Limit))

	cursor, err := collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to execute listing search query: %w", err)
	}
	defer cursor.Close(ctx)

	listings := []models.Listing{}
	if err = cursor.All(ctx, &listings); err != nil {
		return nil, 0, fmt.Errorf("failed to decode listing search results: %w", err)
	}

	if err := s.enrichListings(ctx, listings); err != nil {
		return nil, 0, err
	}

	if s.rdb != nil && s.cfg.SearchCacheTTL > 0 {
		if data, err := json.Marshal(searchPage{Data: listings, Total: total}); err == nil {
			if err := s.rdb.Set(ctx, cacheKey, data, s.cfg.SearchCacheTTL).Err(); err != nil {
				log.Printf("WARN: search cache set failed for %q: %v", cacheKey, err)
			}
		}
	}

	return listings, total, nil
}

// FeaturedListings returns the newest available listings flagged as featured.
func (s *listingService) FeaturedListings(ctx context.Context, limit int) ([]models.Listing, error) {
	if limit <= 0 {
		limit = s.cfg.FeaturedLimit
	}
	if s.cfg.MaxPageSize > 0 && limit > s.cfg.MaxPageSize {
		limit = s.cfg.MaxPageSize
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.db.Collection(listingsCollection).Find(ctx, bson.M{
		"is_available": true,
		"featured":     true,
	}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch featured listings: %w", err)
	}
	defer cursor.Close(ctx)

	listings := []models.Listing{}
	if err = cursor.All(ctx, &listings); err != nil {
		return nil, fmt.Errorf("failed to decode featured listings: %w", err)
	}

	if err := s.enrichListings(ctx, listings); err != nil {
		return nil, err
	}
	return listings, nil
}

// FindListingByID fetches a single listing with derived rating fields and the
// owner summary attached. Availability is not required here: a landlord can
// still open their own unavailable listing by direct link.
func (s *listingService) FindListingByID(ctx context.Context, listingID string) (*models.Listing, error) {
	var listing models.Listing
	err := s.db.Collection(listingsCollection).FindOne(ctx, bson.M{"_id": listingID}).Decode(&listing)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding listing by ID %s: %w", listingID, err)
	}

	page := []models.Listing{listing}
	if err := s.enrichListings(ctx, page); err != nil {
		return nil, err
	}
	return &page[0], nil
}

// CreateListing inserts a new listing owned by userID. New listings start out
// available and not featured.
func (s *listingService) CreateListing(ctx context.Context, userID string, input ListingInput) (*models.Listing, error) {
	collection := s.db.Collection(listingsCollection)
	now := time.Now().UTC()

	amenities := input.Amenities
	if amenities == nil {
		amenities = []string{}
	}
	imageURLs := input.ImageURLs
	if imageURLs == nil {
		imageURLs = []string{}
	}

	var newListing *models.Listing

	operation := func() error {
		newListing = &models.Listing{
			ID:            uuid.NewString(),
			UserID:        userID,
			Title:         input.Title,
			Description:   input.Description,
			RentPrice:     input.RentPrice,
			Location:      input.Location,
			Coordinates:   input.Coordinates,
			AvailableFrom: input.AvailableFrom,
			Rooms:         input.Rooms,
			Bathrooms:     input.Bathrooms,
			Amenities:     amenities,
			ImageURLs:     imageURLs,
			IsAvailable:   true,
			Featured:      false,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		_, insertErr := collection.InsertOne(ctx, newListing)
		return insertErr
	}

	if err := db.Try(operation); err != nil {
		return nil, fmt.Errorf("failed to insert new listing for user %s after multiple retries: %w", userID, err)
	}

	return newListing, nil
}

// UpdateListing updates mutable fields of a listing owned by the specified
// user. `updates` maps BSON field names to new values; only allow-listed
// fields may change; ownership and timestamps are managed here.
func (s *listingService) UpdateListing(ctx context.Context, listingID, userID string, updates map[string]interface{}) (*models.Listing, error) {
	collection := s.db.Collection(listingsCollection)

	allowedUpdates := bson.M{}
	for key, value := range updates {
		switch key {
		case "title", "description", "rent_price", "location", "coordinates",
			"available_from", "rooms", "bathrooms", "amenities", "image_urls",
			"is_available":
			allowedUpdates[key] = value
		default:
			return nil, fmt.Errorf("field '%s' cannot be updated via UpdateListing", key)
		}
	}
	if len(allowedUpdates) == 0 {
		return nil, fmt.Errorf("no valid fields provided for update")
	}
	allowedUpdates["updated_at"] = time.Now().UTC()

	filter := bson.M{
		"_id":     listingID,
		"user_id": userID,
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updatedListing models.Listing
	err := collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": allowedUpdates}, opts).Decode(&updatedListing)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("listing not found or not owned by user")
		}
		return nil, fmt.Errorf("failed to update listing %s: %w", listingID, err)
	}

	return &updatedListing, nil
}

// DeleteListing removes a listing owned by the specified user, along with its
// reviews and favorites so no dangling relations remain.
func (s *listingService) DeleteListing(ctx context.Context, listingID, userID string) error {
	result, err := s.db.Collection(listingsCollection).DeleteOne(ctx, bson.M{
		"_id":     listingID,
		"user_id": userID,
	})
	if err != nil {
		return fmt.Errorf("db error deleting listing %s: %w", listingID, err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("listing %s not found or not owned by user %s", listingID, userID)
	}

	if _, err := s.db.Collection(reviewsCollection).DeleteMany(ctx, bson.M{"listing_id": listingID}); err != nil {
		log.Printf("WARN: failed to delete reviews for listing %s: %v", listingID, err)
	}
	if _, err := s.db.Collection("favorites").DeleteMany(ctx, bson.M{"listing_id": listingID}); err != nil {
		log.Printf("WARN: failed to delete favorites for listing %s: %v", listingID, err)
	}
	return nil
}

// AddImageToListing appends a processed image URL to a listing's image list.
// Called by the image worker once normalization completes.
func (s *listingService) AddImageToListing(ctx context.Context, listingID, imageURL string) error {
	result, err := s.db.Collection(listingsCollection).UpdateOne(ctx,
		bson.M{"_id": listingID},
		bson.M{
			"$addToSet": bson.M{"image_urls": imageURL},
			"$set":      bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("db error adding image %s to listing %s: %w", imageURL, listingID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("listing %s not found when adding image", listingID)
	}
	return nil
}

// enrichListings attaches derived rating fields and owner summaries to a page
// of listings. Both relations are fetched with one $in query each, then joined
// in memory.
func (s *listingService) enrichListings(ctx context.Context, listings []models.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	listingIDs := make([]string, 0, len(listings))
	userIDs := make([]string, 0, len(listings))
	seenUsers := map[string]bool{}
	for _, l := range listings {
		listingIDs = append(listingIDs, l.ID)
		if !seenUsers[l.UserID] {
			seenUsers[l.UserID] = true
			userIDs = append(userIDs, l.UserID)
		}
	}

	cursor, err := s.db.Collection(reviewsCollection).Find(ctx, bson.M{
		"listing_id": bson.M{"$in": listingIDs},
	})
	if err != nil {
		return fmt.Errorf("failed to fetch reviews for rating aggregation: %w", err)
	}
	defer cursor.Close(ctx)

	var reviews []models.Review
	if err = cursor.All(ctx, &reviews); err != nil {
		return fmt.Errorf("failed to decode reviews for rating aggregation: %w", err)
	}

	ratingsByListing := map[string][]int{}
	for _, r := range reviews {
		ratingsByListing[r.ListingID] = append(ratingsByListing[r.ListingID], r.Rating)
	}

	ownersByID := map[string]*models.OwnerSummary{}
	profCursor, err := s.db.Collection(profilesCollection).Find(ctx, bson.M{
		"_id": bson.M{"$in": userIDs},
	})
	if err != nil {
		return fmt.Errorf("failed to fetch owner profiles: %w", err)
	}
	defer profCursor.Close(ctx)

	var profiles []models.UserProfile
	if err = profCursor.All(ctx, &profiles); err != nil {
		return fmt.Errorf("failed to decode owner profiles: %w", err)
	}
	for i := range profiles {
		p := profiles[i]
		ownersByID[p.ID] = &models.OwnerSummary{ID: p.ID, FullName: p.FullName, AvatarURL: p.AvatarURL}
	}

	for i := range listings {
		avg, count := AverageRating(ratingsByListing[listings[i].ID])
		listings[i].AverageRating = avg
		listings[i].ReviewCount = count
		listings[i].Owner = ownersByID[listings[i].UserID]
	}
	return nil
}
