package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ToryFriday/Renta/internal/api/handlers"
	"github.com/ToryFriday/Renta/internal/api/middleware"
	"github.com/ToryFriday/Renta/internal/config"
	"github.com/ToryFriday/Renta/internal/services"
	"github.com/ToryFriday/Renta/internal/storage"
	"github.com/ToryFriday/Renta/internal/tasks"
)

// SetupRouter configures and returns the main Gin engine.
func SetupRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client, objectStorage storage.IObjectStorage, taskClient *asynq.Client) *gin.Engine {
	// Initialize services needed by API handlers
	listingService := services.NewListingService(db, cfg, rdb)
	favoriteService := services.NewFavoriteService(db, cfg, rdb, listingService)
	userService := services.NewUserService(db, cfg)

	var notifier services.ReviewNotifier
	if taskClient != nil {
		notifier = tasks.NewNotifier(taskClient)
	}
	reviewService := services.NewReviewService(db, cfg, notifier)

	r := gin.Default()

	// Initialize Middleware
	rateLimiter := middleware.NewRateLimiterMiddleware(cfg)

	// Apply global middleware first (order matters)
	r.Use(middleware.CORSMiddleware())
	r.Use(rateLimiter.Limit())

	// Initialize handlers
	listingHandler := handlers.NewRestListingHandler(listingService)
	favoriteHandler := handlers.NewRestFavoriteHandler(favoriteService)
	reviewHandler := handlers.NewRestReviewHandler(reviewService)
	userHandler := handlers.NewRestUserHandler(userService)
	uploadHandler := handlers.NewUploadHandler(cfg, objectStorage, taskClient)

	v1 := r.Group("/v1")
	{
		// Public routes
		v1.GET("/listing/search", listingHandler.SearchListings)
		v1.GET("/listing/featured", listingHandler.FeaturedListings)
		v1.GET("/listing/:id", listingHandler.GetListingByID)
		v1.GET("/listing/:id/review", reviewHandler.ListReviews)

		v1.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})

		// Authenticated routes
		authRequired := v1.Group("/")
		authRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret))
		{
			authRequired.POST("/listing/:id/favorite", favoriteHandler.ToggleFavorite)
			authRequired.GET("/favorites", favoriteHandler.ListFavorites)
			authRequired.POST("/listing/:id/review", reviewHandler.CreateReview)

			authRequired.GET("/profile", userHandler.GetProfile)
			authRequired.PUT("/profile", userHandler.PutProfile)
			authRequired.GET("/preferences", userHandler.GetPreferences)
			authRequired.PUT("/preferences", userHandler.PutPreferences)

			authRequired.POST("/upload", uploadHandler.UploadImage)

			// Listing writes are landlord-only
			landlordRequired := authRequired.Group("/")
			landlordRequired.Use(middleware.LandlordMiddleware())
			{
				landlordRequired.POST("/listing", listingHandler.CreateListing)
				landlordRequired.PUT("/listing/:id", listingHandler.UpdateListing)
				landlordRequired.DELETE("/listing/:id", listingHandler.DeleteListing)
			}
		}
	}

	return r
}
