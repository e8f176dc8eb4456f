package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ToryFriday/Renta/internal/api/middleware"
	"github.com/ToryFriday/Renta/internal/models"
	"github.com/ToryFriday/Renta/internal/services"
)

// RestUserHandler handles REST requests for profiles and preferences.
type RestUserHandler struct {
	userService services.IUserService
}

// NewRestUserHandler creates a new RestUserHandler.
func NewRestUserHandler(userService services.IUserService) *RestUserHandler {
	return &RestUserHandler{userService: userService}
}

// GetProfile handles GET /v1/profile
func (h *RestUserHandler) GetProfile(c *gin.Context) {
	userID := c.GetString(middleware.ContextKeyUserID)

	profile, err := h.userService.FindProfileByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve profile"})
		}
		return
	}

	c.JSON(http.StatusOK, profile)
}

// PutProfile handles PUT /v1/profile
func (h *RestUserHandler) PutProfile(c *gin.Context) {
	userID := c.GetString(middleware.ContextKeyUserID)

	var profile models.UserProfile
	if err := c.ShouldBindJSON(&profile); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid profile payload"})
		return
	}
	// The subject from the token owns the document, whatever the body says.
	profile.ID = userID

	saved, err := h.userService.UpsertProfile(c.Request.Context(), &profile)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, saved)
}

// GetPreferences handles GET /v1/preferences
func (h *RestUserHandler) GetPreferences(c *gin.Context) {
	userID := c.GetString(middleware.ContextKeyUserID)

	prefs, err := h.userService.GetPreferences(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Preferences not set"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve preferences"})
		}
		return
	}

	c.JSON(http.StatusOK, prefs)
}

// PutPreferences handles PUT /v1/preferences
func (h *RestUserHandler) PutPreferences(c *gin.Context) {
	userID := c.GetString(middleware.ContextKeyUserID)

	var prefs models.UserPreferences
	if err := c.ShouldBindJSON(&prefs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid preferences payload"})
		return
	}
	prefs.UserID = userID

	saved, err := h.userService.SavePreferences(c.Request.Context(), &prefs)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, saved)
}
