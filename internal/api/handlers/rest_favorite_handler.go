package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ToryFriday/Renta/internal/api/middleware"
	"github.com/ToryFriday/Renta/internal/services"
)

// RestFavoriteHandler handles REST requests for favorites.
type RestFavoriteHandler struct {
	favoriteService services.IFavoriteService
}

// NewRestFavoriteHandler creates a new RestFavoriteHandler.
func NewRestFavoriteHandler(favoriteService services.IFavoriteService) *RestFavoriteHandler {
	return &RestFavoriteHandler{favoriteService: favoriteService}
}

// ToggleFavorite handles POST /v1/listing/:id/favorite
func (h *RestFavoriteHandler) ToggleFavorite(c *gin.Context) {
	userID := c.GetString(middleware.ContextKeyUserID)
	listingID := c.Param("id")

	favorited, err := h.favoriteService.Toggle(c.Request.Context(), userID, listingID)
	if err != nil {
		if errors.Is(err, services.ErrToggleInFlight) {
			c.JSON(http.StatusConflict, gin.H{"error": "Toggle already in progress"})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to toggle favorite"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"favorited": favorited})
}

// ListFavorites handles GET /v1/favorites
func (h *RestFavoriteHandler) ListFavorites(c *gin.Context) {
	userID := c.GetString(middleware.ContextKeyUserID)

	favorites, err := h.favoriteService.ListFavorites(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch favorites"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": favorites})
}
