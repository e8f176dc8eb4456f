package services

import (
	"fmt"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SortOrder enumerates the recognized sort options for listing search.
type SortOrder string

const (
	SortNewest    SortOrder = "newest"
	SortPriceLow  SortOrder = "price_low"
	SortPriceHigh SortOrder = "price_high"
)

// ParseSortOrder maps a raw query value to a SortOrder, defaulting to newest.
func ParseSortOrder(s string) SortOrder {
	switch SortOrder(s) {
	case SortPriceLow:
		return SortPriceLow
	case SortPriceHigh:
		return SortPriceHigh
	default:
		return SortNewest
	}
}

// ListingFilter is the fully-enumerated search request. Optional bounds are
// pointers: nil means "no bound", so a zero minimum price is a real constraint
// rather than an unset one.
type ListingFilter struct {
	Search   string
	Location string
	MinPrice *float64
	MaxPrice *float64
	MinRooms *int
	SortBy   SortOrder
	Page     int
	Limit    int
}

// Normalize applies defaults and clamps the pagination window.
// maxLimit <= 0 disables the cap.
func (f *ListingFilter) Normalize(defaultLimit, maxLimit int) {
	if f.SortBy == "" {
		f.SortBy = SortNewest
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	if maxLimit > 0 && f.Limit > maxLimit {
		f.Limit = maxLimit
	}
}

// Validate rejects filters that cannot describe any result set.
func (f *ListingFilter) Validate() error {
	if f.MinPrice != nil && *f.MinPrice < 0 {
		return fmt.Errorf("minPrice must not be negative")
	}
	if f.MaxPrice != nil && *f.MaxPrice < 0 {
		return fmt.Errorf("maxPrice must not be negative")
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return fmt.Errorf("minPrice exceeds maxPrice")
	}
	if f.MinRooms != nil && *f.MinRooms < 0 {
		return fmt.Errorf("rooms must not be negative")
	}
	return nil
}

// containsPattern builds a case-insensitive substring regex for user input.
// The input is quoted so regex metacharacters match literally.
func containsPattern(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

// Query translates the filter into a conjunctive Mongo filter document.
// Only available listings are ever matched.
func (f *ListingFilter) Query() bson.M {
	filter := bson.M{"is_available": true}

	// Free-text search is an OR across title and description; everything else
	// ANDs onto the filter.
	if s := strings.TrimSpace(f.Search); s != "" {
		filter["$or"] = bson.A{
			bson.M{"title": containsPattern(s)},
			bson.M{"description": containsPattern(s)},
		}
	}

	if l := strings.TrimSpace(f.Location); l != "" {
		filter["location"] = containsPattern(l)
	}

	if f.MinPrice != nil || f.MaxPrice != nil {
		price := bson.M{}
		if f.MinPrice != nil {
			price["$gte"] = *f.MinPrice
		}
		if f.MaxPrice != nil {
			price["$lte"] = *f.MaxPrice
		}
		filter["rent_price"] = price
	}

	if f.MinRooms != nil {
		filter["rooms"] = bson.M{"$gte": *f.MinRooms}
	}

	return filter
}

// Sort returns the single-key sort document for the chosen order.
// Ties fall back to the store's natural row order.
func (f *ListingFilter) Sort() bson.D {
	switch f.SortBy {
	case SortPriceLow:
		return bson.D{{Key: "rent_price", Value: 1}}
	case SortPriceHigh:
		return bson.D{{Key: "rent_price", Value: -1}}
	default:
		return bson.D{{Key: "created_at", Value: -1}}
	}
}

// Skip returns the offset of the half-open pagination window.
func (f *ListingFilter) Skip() int64 {
	return int64(f.Page-1) * int64(f.Limit)
}

// CacheKey derives a stable Redis key for the normalized filter.
func (f *ListingFilter) CacheKey() string {
	var sb strings.Builder
	sb.WriteString("search:")
	// Free-text fields are quoted so a "|" in user input cannot
	// collide with the field separator.
	fmt.Fprintf(&sb, "%q|%q",
		strings.ToLower(strings.TrimSpace(f.Search)),
		strings.ToLower(strings.TrimSpace(f.Location)))
	if f.MinPrice != nil {
		fmt.Fprintf(&sb, "|min=%g", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		fmt.Fprintf(&sb, "|max=%g", *f.MaxPrice)
	}
	if f.MinRooms != nil {
		fmt.Fprintf(&sb, "|rooms=%d", *f.MinRooms)
	}
	fmt.Fprintf(&sb, "|%s|p=%d|l=%d", f.SortBy, f.Page, f.Limit)
	return sb.String()
}
