package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"github.com/ToryFriday/Renta/internal/api/middleware"
	"github.com/ToryFriday/Renta/internal/config"
	"github.com/ToryFriday/Renta/internal/storage"
	"github.com/ToryFriday/Renta/internal/tasks"
)

// UploadHandler handles listing image uploads to the object store.
type UploadHandler struct {
	cfg           *config.Config
	objectStorage storage.IObjectStorage
	taskClient    *asynq.Client
}

// NewUploadHandler creates a new UploadHandler. taskClient may be nil, in
// which case uploaded images are registered without normalization.
func NewUploadHandler(cfg *config.Config, objectStorage storage.IObjectStorage, taskClient *asynq.Client) *UploadHandler {
	return &UploadHandler{cfg: cfg, objectStorage: objectStorage, taskClient: taskClient}
}

// UploadImage handles POST /v1/upload. Expects a multipart form with an
// "image" file and a "listing_id" field. The raw image goes to the object
// store immediately; normalization (resize, re-encode) runs in the image
// worker, which attaches the processed URL to the listing when done.
// A store-level failure propagates as an error response, never as a fake URL.
func (h *UploadHandler) UploadImage(c *gin.Context) {
	userID := c.GetString(middleware.ContextKeyUserID)

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing image file"})
		return
	}
	listingID := c.PostForm("listing_id")
	if listingID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing listing_id"})
		return
	}

	maxSizeBytes := int64(h.cfg.ImageMaxSizeMB) * 1024 * 1024
	if fileHeader.Size > maxSizeBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image exceeds maximum size"})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is not an image"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable image file"})
		return
	}
	defer file.Close()

	key := h.objectStorage.ObjectKey(userID, fileHeader.Filename)
	url, err := h.objectStorage.UploadObject(c.Request.Context(), key, contentType, file)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload image"})
		return
	}

	if h.taskClient != nil {
		if err := tasks.EnqueueImageProcess(h.taskClient, key, listingID); err != nil {
			// The original is stored; normalization can be retried out of band.
			_ = c.Error(err)
		}
	}

	c.JSON(http.StatusCreated, gin.H{"key": key, "url": url})
}
