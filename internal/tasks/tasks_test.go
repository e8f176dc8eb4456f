package tasks_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ToryFriday/Renta/internal/config"
	"github.com/ToryFriday/Renta/internal/models"
	"github.com/ToryFriday/Renta/internal/services"
	"github.com/ToryFriday/Renta/internal/tasks"
)

// --- Mocks ---

// MockEmailSender
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) Send(ctx context.Context, to []string, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

// MockObjectStorage
type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) UploadObject(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	args := m.Called(ctx, key, contentType, body)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStorage) DownloadObject(ctx context.Context, key string) (io.ReadCloser, string, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.String(1), args.Error(2)
}

func (m *MockObjectStorage) PublicURL(key string) string {
	args := m.Called(key)
	return args.String(0)
}

func (m *MockObjectStorage) ObjectKey(userID, filename string) string {
	args := m.Called(userID, filename)
	return args.String(0)
}

// MockListingService (only AddImageToListing matters for the image worker)
type MockListingService struct {
	mock.Mock
}

func (m *MockListingService) SearchListings(ctx context.Context, filter *services.ListingFilter) ([]models.Listing, int64, error) {
	args := m.Called(ctx, filter)
	return nil, 0, args.Error(2)
}
func (m *MockListingService) FeaturedListings(ctx context.Context, limit int) ([]models.Listing, error) {
	args := m.Called(ctx, limit)
	return nil, args.Error(1)
}
func (m *MockListingService) FindListingByID(ctx context.Context, listingID string) (*models.Listing, error) {
	args := m.Called(ctx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}
func (m *MockListingService) CreateListing(ctx context.Context, userID string, input services.ListingInput) (*models.Listing, error) {
	args := m.Called(ctx, userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}
func (m *MockListingService) UpdateListing(ctx context.Context, listingID, userID string, updates map[string]interface{}) (*models.Listing, error) {
	args := m.Called(ctx, listingID, userID, updates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}
func (m *MockListingService) DeleteListing(ctx context.Context, listingID, userID string) error {
	args := m.Called(ctx, listingID, userID)
	return args.Error(0)
}
func (m *MockListingService) AddImageToListing(ctx context.Context, listingID, imageURL string) error {
	args := m.Called(ctx, listingID, imageURL)
	return args.Error(0)
}

// MockUserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) FindProfileByID(ctx context.Context, userID string) (*models.UserProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProfile), args.Error(1)
}
func (m *MockUserService) UpsertProfile(ctx context.Context, profile *models.UserProfile) (*models.UserProfile, error) {
	args := m.Called(ctx, profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProfile), args.Error(1)
}
func (m *MockUserService) GetPreferences(ctx context.Context, userID string) (*models.UserPreferences, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserPreferences), args.Error(1)
}
func (m *MockUserService) SavePreferences(ctx context.Context, prefs *models.UserPreferences) (*models.UserPreferences, error) {
	args := m.Called(ctx, prefs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserPreferences), args.Error(1)
}

// pngBytes encodes a blank image of the given dimensions.
func pngBytes(t *testing.T, w, h int) []byte {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

// --- Tests ---

func TestHandleImageProcessTask_ResizesLargeImage(t *testing.T) {
	mockStorage := new(MockObjectStorage)
	mockListingSvc := new(MockListingService)
	cfg := &config.Config{ImageMaxDimension: 16, ImageMaxSizeMB: 10}
	p := tasks.NewTaskProcessor(cfg, nil, mockStorage, mockListingSvc, nil)

	key := "uploads/u1/photo.png"
	data := pngBytes(t, 64, 32)
	mockStorage.On("DownloadObject", mock.Anything, key).
		Return(io.NopCloser(bytes.NewReader(data)), "image/png", nil)
	mockStorage.On("UploadObject", mock.Anything, "processed/"+key, "image/jpeg", mock.Anything).
		Return("https://cdn.example.com/processed/"+key, nil)
	mockListingSvc.On("AddImageToListing", mock.Anything, "listing-1", "https://cdn.example.com/processed/"+key).
		Return(nil)

	payload, _ := json.Marshal(tasks.ImageTaskPayload{S3Key: key, ListingID: "listing-1"})
	err := p.HandleImageProcessTask(context.Background(), asynq.NewTask(tasks.TypeImageProcess, payload))

	assert.NoError(t, err)
	mockStorage.AssertExpectations(t)
	mockListingSvc.AssertExpectations(t)
	// The processed object is the canonical URL, not the raw upload.
	mockStorage.AssertNotCalled(t, "PublicURL", mock.Anything)
}

func TestHandleImageProcessTask_SmallImagePassthrough(t *testing.T) {
	mockStorage := new(MockObjectStorage)
	mockListingSvc := new(MockListingService)
	cfg := &config.Config{ImageMaxDimension: 2048, ImageMaxSizeMB: 10}
	p := tasks.NewTaskProcessor(cfg, nil, mockStorage, mockListingSvc, nil)

	key := "uploads/u1/small.png"
	data := pngBytes(t, 10, 10)
	mockStorage.On("DownloadObject", mock.Anything, key).
		Return(io.NopCloser(bytes.NewReader(data)), "image/png", nil)
	// Within bounds, the original object is used as-is
	mockStorage.On("PublicURL", key).Return("https://cdn.example.com/" + key)
	mockListingSvc.On("AddImageToListing", mock.Anything, "listing-2", "https://cdn.example.com/"+key).
		Return(nil)

	payload, _ := json.Marshal(tasks.ImageTaskPayload{S3Key: key, ListingID: "listing-2"})
	err := p.HandleImageProcessTask(context.Background(), asynq.NewTask(tasks.TypeImageProcess, payload))

	assert.NoError(t, err)
	mockStorage.AssertNotCalled(t, "UploadObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mockStorage.AssertExpectations(t)
	mockListingSvc.AssertExpectations(t)
}

func TestHandleImageProcessTask_CorruptImageSkipsRetry(t *testing.T) {
	mockStorage := new(MockObjectStorage)
	mockListingSvc := new(MockListingService)
	cfg := &config.Config{ImageMaxDimension: 2048, ImageMaxSizeMB: 10}
	p := tasks.NewTaskProcessor(cfg, nil, mockStorage, mockListingSvc, nil)

	key := "uploads/u1/garbage.bin"
	mockStorage.On("DownloadObject", mock.Anything, key).
		Return(io.NopCloser(bytes.NewReader([]byte("not an image"))), "application/octet-stream", nil)

	payload, _ := json.Marshal(tasks.ImageTaskPayload{S3Key: key, ListingID: "listing-3"})
	err := p.HandleImageProcessTask(context.Background(), asynq.NewTask(tasks.TypeImageProcess, payload))

	assert.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry), "corrupt images must not be retried")
	mockListingSvc.AssertNotCalled(t, "AddImageToListing", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleReviewNotifyTask_Success(t *testing.T) {
	mockEmailSender := new(MockEmailSender)
	mockUserSvc := new(MockUserService)
	cfg := &config.Config{AppName: "Renta"}
	p := tasks.NewTaskProcessor(cfg, mockEmailSender, nil, nil, mockUserSvc)

	owner := &models.UserProfile{ID: "owner-1", Email: "owner@example.com", FullName: "Olga Owner"}
	mockUserSvc.On("FindProfileByID", mock.Anything, "owner-1").Return(owner, nil)

	mockEmailSender.On("Send",
		mock.Anything,
		[]string{"owner@example.com"},
		mock.MatchedBy(func(subject string) bool {
			assert.Contains(t, subject, "Renta")
			assert.Contains(t, subject, "Cozy loft")
			return true
		}),
		mock.MatchedBy(func(body string) bool {
			assert.Contains(t, body, "4-star")
			assert.Contains(t, body, "Great stay")
			return true
		}),
	).Return(nil)

	payload, _ := json.Marshal(tasks.ReviewNotifyPayload{
		ListingID:    "listing-1",
		ListingTitle: "Cozy loft",
		OwnerID:      "owner-1",
		Rating:       4,
		Comment:      "Great stay",
	})
	err := p.HandleReviewNotifyTask(context.Background(), asynq.NewTask(tasks.TypeReviewNotify, payload))

	assert.NoError(t, err)
	mockUserSvc.AssertExpectations(t)
	mockEmailSender.AssertExpectations(t)
}

func TestHandleReviewNotifyTask_OwnerGone(t *testing.T) {
	mockEmailSender := new(MockEmailSender)
	mockUserSvc := new(MockUserService)
	cfg := &config.Config{AppName: "Renta"}
	p := tasks.NewTaskProcessor(cfg, mockEmailSender, nil, nil, mockUserSvc)

	mockUserSvc.On("FindProfileByID", mock.Anything, "gone").Return(nil, mongo.ErrNoDocuments)

	payload, _ := json.Marshal(tasks.ReviewNotifyPayload{OwnerID: "gone", ListingTitle: "Orphan"})
	err := p.HandleReviewNotifyTask(context.Background(), asynq.NewTask(tasks.TypeReviewNotify, payload))

	assert.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry), "missing owners must not be retried")
	mockEmailSender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
