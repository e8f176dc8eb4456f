package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ToryFriday/Renta/internal/api/middleware"
	"github.com/ToryFriday/Renta/internal/services"
)

// RestReviewHandler handles REST requests for reviews.
type RestReviewHandler struct {
	reviewService services.IReviewService
}

// NewRestReviewHandler creates a new RestReviewHandler.
func NewRestReviewHandler(reviewService services.IReviewService) *RestReviewHandler {
	return &RestReviewHandler{reviewService: reviewService}
}

// CreateReview handles POST /v1/listing/:id/review
func (h *RestReviewHandler) CreateReview(c *gin.Context) {
	userID := c.GetString(middleware.ContextKeyUserID)
	listingID := c.Param("id")

	var req struct {
		Rating  int    `json:"rating" binding:"required"`
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid review payload"})
		return
	}

	review, err := h.reviewService.CreateReview(c.Request.Context(), userID, listingID, req.Rating, req.Comment)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, review)
}

// ListReviews handles GET /v1/listing/:id/review
func (h *RestReviewHandler) ListReviews(c *gin.Context) {
	listingID := c.Param("id")

	reviews, err := h.reviewService.ListReviews(c.Request.Context(), listingID)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reviews"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": reviews})
}
