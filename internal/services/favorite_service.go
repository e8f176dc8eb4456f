package services

import (
	"context"
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

// ErrToggleInFlight is returned when a toggle for the same (user, listing)
// pair is already being processed. A double-click lands here instead of
// flipping the favorite twice.
var ErrToggleInFlight = errors.New("favorite toggle already in progress")

// IFavoriteService defines the interface for favorite operations.
type IFavoriteService interface {
	Toggle(ctx context.Context, userID, listingID string) (bool, error)
	ListFavorites(ctx context.Context, userID string) ([]models.Favorite, error)
	IsFavorite(ctx context.Context, userID, listingID string) (bool, error)
}

const favoritesCollection = "favorites"

// favoriteService implements IFavoriteService.
type favoriteService struct {
	db       *mongo.Database
	cfg      *config.Config
	rdb      *redis.Client   // optional toggle lock; nil disables it
	listings IListingService // for enriching favorites with rating fields
}

// NewFavoriteService creates a new FavoriteService. rdb may be nil, in which
// case concurrent double-toggles are only guarded by the unique index.
func NewFavoriteService(db *mongo.Database, cfg *config.Config, rdb *redis.Client, listings IListingService) IFavoriteService {
	return &favoriteService{db: db, cfg: cfg, rdb: rdb, listings: listings}
}

// Toggle flips membership of (userID, listingID) in the favorites relation
// and reports the resulting state: true if the pair is now favorited.
// A short-lived Redis lock makes rapid double-invocations settle on a single
// toggle rather than an add-then-remove pair.
func (s *favoriteService) Toggle(ctx context.Context, userID, listingID string) (bool, error) {
	if s.rdb != nil {
		lockKey := fmt.Sprintf("favlock:%s:%s", userID, listingID)
		ttl := s.cfg.FavoriteLockTTL
		if ttl <= 0 {
			ttl = 5 * time.Second
		}
		acquired, err := s.rdb.SetNX(ctx, lockKey, 1, ttl).Result()
		if err != nil {
			// Lock is an optimization; the unique index still holds the invariant.
			log.Printf("WARN: favorite toggle lock unavailable for %s/%s: %v", userID, listingID, err)
		} else if !acquired {
			return false, ErrToggleInFlight
		} else {
			defer s.rdb.Del(context.WithoutCancel(ctx), lockKey)
		}
	}

	pair := bson.M{"user_id": userID, "listing_id": listingID}
	collection := s.db.Collection(favoritesCollection)

	result, err := collection.DeleteOne(ctx, pair)
	if err != nil {
		return false, fmt.Errorf("db error removing favorite %s/%s: %w", userID, listingID, err)
	}
	if result.DeletedCount > 0 {
		return false, nil
	}

	favorite := models.Favorite{
		ID:        uuid.NewString(),
		UserID:    userID,
		ListingID: listingID,
		CreatedAt: time.Now().UTC(),
	}
	_, err = collection.InsertOne(ctx, favorite)
	if err != nil {
		// A concurrent add won the race; the pair is favorited either way.
		if db.IsMongoDuplicateKeyError(err) {
			return true, nil
		}
		return false, fmt.Errorf("db error adding favorite %s/%s: %w", userID, listingID, err)
	}

	return true, nil
}

// ListFavorites returns the user's favorites, newest first, each joined with
// its listing (enriched with derived rating fields). Favorites whose listing
// has been removed are skipped.
func (s *favoriteService) ListFavorites(ctx context.Context, userID string) ([]models.Favorite, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.db.Collection(favoritesCollection).Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch favorites for user %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	favorites := []models.Favorite{}
	if err = cursor.All(ctx, &favorites); err != nil {
		return nil, fmt.Errorf("failed to decode favorites for user %s: %w", userID, err)
	}

	out := make([]models.Favorite, 0, len(favorites))
	for _, f := range favorites {
		listing, err := s.listings.FindListingByID(ctx, f.ListingID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				continue
			}
			return nil, err
		}
		f.Listing = listing
		out = append(out, f)
	}
	return out, nil
}

// IsFavorite reports whether the (userID, listingID) pair is currently in the
// favorites relation.
func (s *favoriteService) IsFavorite(ctx context.Context, userID, listingID string) (bool, error) {
	err := s.db.Collection(favoritesCollection).FindOne(ctx, bson.M{
		"user_id":    userID,
		"listing_id": listingID,
	}).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, fmt.Errorf("db error checking favorite %s/%s: %w", userID, listingID, err)
	}
	return true, nil
}
