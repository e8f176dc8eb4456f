package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register decoders for image.Decode
	"image/jpeg"
	_ "image/png"
	"io"
	"log"

	"github.com/hibiken/asynq"
	"github.com/nfnt/resize"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ToryFriday/Renta/internal/config"
	"github.com/ToryFriday/Renta/internal/email"
	"github.com/ToryFriday/Renta/internal/models"
	"github.com/ToryFriday/Renta/internal/services"
	"github.com/ToryFriday/Renta/internal/storage"
)

// Task type names.
const (
	TypeImageProcess = "image:process"
	TypeReviewNotify = "review:notify"
)

// --- Task Client (Enqueuing tasks) ---

func NewClient(rdb *redis.Client) *asynq.Client {
	clientOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}
	return asynq.NewClient(clientOpt)
}

// ImageTaskPayload describes an uploaded image awaiting normalization.
type ImageTaskPayload struct {
	S3Key     string `json:"s3_key"`
	ListingID string `json:"listing_id"`
}

// ReviewNotifyPayload carries what the notification handler needs without
// re-reading the review.
type ReviewNotifyPayload struct {
	ListingID    string `json:"listing_id"`
	ListingTitle string `json:"listing_title"`
	OwnerID      string `json:"owner_id"`
	Rating       int    `json:"rating"`
	Comment      string `json:"comment,omitempty"`
}

// EnqueueImageProcess schedules normalization of an uploaded listing image.
func EnqueueImageProcess(client *asynq.Client, s3Key, listingID string) error {
	payload, err := json.Marshal(ImageTaskPayload{S3Key: s3Key, ListingID: listingID})
	if err != nil {
		return fmt.Errorf("failed to marshal image task payload: %w", err)
	}
	_, err = client.Enqueue(asynq.NewTask(TypeImageProcess, payload), asynq.Queue("images"))
	if err != nil {
		return fmt.Errorf("failed to enqueue image task for %s: %w", s3Key, err)
	}
	return nil
}

// Notifier enqueues review notifications. It satisfies services.ReviewNotifier.
type Notifier struct {
	client *asynq.Client
}

func NewNotifier(client *asynq.Client) *Notifier {
	return &Notifier{client: client}
}

// NotifyReview schedules a "your listing was reviewed" email for the landlord.
func (n *Notifier) NotifyReview(ctx context.Context, review *models.Review, listing *models.Listing) error {
	payload, err := json.Marshal(ReviewNotifyPayload{
		ListingID:    listing.ID,
		ListingTitle: listing.Title,
		OwnerID:      listing.UserID,
		Rating:       review.Rating,
		Comment:      review.Comment,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal review notify payload: %w", err)
	}
	_, err = n.client.Enqueue(asynq.NewTask(TypeReviewNotify, payload), asynq.Queue("default"))
	if err != nil {
		return fmt.Errorf("failed to enqueue review notification for listing %s: %w", listing.ID, err)
	}
	return nil
}

// --- Task Server (Processing tasks) ---

// TaskProcessor handles the processing of tasks. It holds the dependencies
// the task handlers need.
type TaskProcessor struct {
	cfg            *config.Config
	emailSender    email.Sender
	objectStorage  storage.IObjectStorage
	listingService services.IListingService
	userService    services.IUserService
}

func NewTaskProcessor(
	cfg *config.Config,
	emailSender email.Sender,
	objectStorage storage.IObjectStorage,
	listingService services.IListingService,
	userService services.IUserService,
) *TaskProcessor {
	return &TaskProcessor{
		cfg:            cfg,
		emailSender:    emailSender,
		objectStorage:  objectStorage,
		listingService: listingService,
		userService:    userService,
	}
}

// NewServer configures an Asynq server with handlers registered for the
// worker role. Call Run on the result to start processing.
func NewServer(rdb *redis.Client, processor *TaskProcessor) (*asynq.Server, *asynq.ServeMux) {
	serverOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}

	srv := asynq.NewServer(
		serverOpt,
		asynq.Config{
			Queues: map[string]int{
				"default": 3,
				"images":  5,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("[Asynq Error] Task Type: %s, Payload: %s, Error: %v", task.Type(), string(task.Payload()), err)
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeImageProcess, processor.HandleImageProcessTask)
	mux.HandleFunc(TypeReviewNotify, processor.HandleReviewNotifyTask)

	return srv, mux
}

// HandleImageProcessTask normalizes an uploaded listing image: enforces the
// size limit, downscales to the configured max dimension, re-encodes as JPEG,
// and registers the processed object's public URL on the listing.
func (p *TaskProcessor) HandleImageProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload ImageTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal image task payload: %v: %w", err, asynq.SkipRetry)
	}

	log.Printf("Processing image task: S3Key=%s, ListingID=%s", payload.S3Key, payload.ListingID)

	body, _, err := p.objectStorage.DownloadObject(ctx, payload.S3Key)
	if err != nil {
		return fmt.Errorf("failed to download image from object store: %w", err)
	}
	defer body.Close()

	imgData, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("failed to read image data: %w", err)
	}

	// Check size before decoding
	maxSizeBytes := int64(p.cfg.ImageMaxSizeMB) * 1024 * 1024
	if int64(len(imgData)) > maxSizeBytes {
		log.Printf("Image %s exceeds max size (%d > %d bytes). Skipping.", payload.S3Key, len(imgData), maxSizeBytes)
		return fmt.Errorf("image exceeds max size: %w", asynq.SkipRetry)
	}

	img, format, err := image.Decode(bytes.NewReader(imgData))
	if err != nil {
		return fmt.Errorf("unsupported image format or corrupt image: %w", asynq.SkipRetry)
	}
	log.Printf("Decoded image %s, format: %s, size: %dx%d", payload.S3Key, format, img.Bounds().Dx(), img.Bounds().Dy())

	maxDim := uint(p.cfg.ImageMaxDimension)
	var imageURL string

	if uint(img.Bounds().Dx()) > maxDim || uint(img.Bounds().Dy()) > maxDim {
		resizedImg := resize.Thumbnail(maxDim, maxDim, img, resize.Lanczos3)
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, resizedImg, &jpeg.Options{Quality: 85}); err != nil {
			return fmt.Errorf("failed to re-encode resized image: %w", err)
		}
		processedKey := "processed/" + payload.S3Key
		imageURL, err = p.objectStorage.UploadObject(ctx, processedKey, "image/jpeg", &buf)
		if err != nil {
			return fmt.Errorf("failed to upload processed image: %w", err)
		}
		log.Printf("Resized image %s to %dx%d", payload.S3Key, resizedImg.Bounds().Dx(), resizedImg.Bounds().Dy())
	} else {
		// Small enough to serve as uploaded.
		imageURL = p.objectStorage.PublicURL(payload.S3Key)
	}

	if err := p.listingService.AddImageToListing(ctx, payload.ListingID, imageURL); err != nil {
		// Listing may have been deleted between upload and processing.
		log.Printf("Could not attach image %s to listing %s: %v", imageURL, payload.ListingID, err)
		return fmt.Errorf("failed to attach image: %w", asynq.SkipRetry)
	}
	return nil
}

// HandleReviewNotifyTask emails the landlord about a new review on their
// listing.
func (p *TaskProcessor) HandleReviewNotifyTask(ctx context.Context, t *asynq.Task) error {
	var payload ReviewNotifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal review notify payload: %v: %w", err, asynq.SkipRetry)
	}

	owner, err := p.userService.FindProfileByID(ctx, payload.OwnerID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			log.Printf("Owner profile %s not found for review notification, dropping.", payload.OwnerID)
			return fmt.Errorf("owner profile not found: %w", asynq.SkipRetry)
		}
		return err
	}

	subject := fmt.Sprintf("%s: new review on %q", p.cfg.AppName, payload.ListingTitle)
	body := fmt.Sprintf("Your listing %q received a %d-star review.", payload.ListingTitle, payload.Rating)
	if payload.Comment != "" {
		body += fmt.Sprintf("\n\n%q", payload.Comment)
	}

	if err := p.emailSender.Send(ctx, []string{owner.Email}, subject, body); err != nil {
		return fmt.Errorf("failed to send review notification to %s: %w", owner.Email, err)
	}
	return nil
}
