package services

import (
	"math"
)

// AverageRating computes the derived rating fields for a listing from its raw
// review ratings: the mean rounded to one decimal place, and the count.
// An empty slice yields (0, 0).
func AverageRating(ratings []int) (float64, int) {
	if len(ratings) == 0 {
		return 0, 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	avg := float64(sum) / float64(len(ratings))
	return math.Round(avg*10) / 10, len(ratings)
}
