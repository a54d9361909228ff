package router

import (
	"context"
	"log"
	"time"

	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/messaging"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/roamly-app/backend/internal/fanout"
	"github.com/roamly-app/backend/internal/handlers"
	"github.com/roamly-app/backend/internal/middleware"
	"github.com/roamly-app/backend/internal/models"
	"github.com/roamly-app/backend/internal/realtime"
	"github.com/roamly-app/backend/internal/repositories"
	"github.com/roamly-app/backend/internal/services"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// Deps bundles the external clients the routes are wired with. Firebase
// clients and the cache may be nil; the affected features degrade.
type Deps struct {
	Postgres     *gorm.DB
	Mongo        *mongo.Client
	MongoDBName  string
	Cache        *redis.Client
	FirebaseAuth *auth.Client
	Messaging    *messaging.Client
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Deps) {
	// AutoMigrate PostgreSQL models
	err := deps.Postgres.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.Notification{},
	)
	if err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	log.Println("PostgreSQL auto-migrations completed for all models.")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(deps.Postgres)
	followRepo := repositories.NewPostgresFollowRepository(deps.Postgres)
	notificationRepo := repositories.NewPostgresNotificationRepository(deps.Postgres)
	storyRepo := repositories.NewMongoStoryRepository(deps.Mongo.Database(deps.MongoDBName))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := storyRepo.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to create story indexes: %v", err)
	}
	log.Println("Story TTL and query indexes ensured.")

	// --- Realtime hub and fan-out router ---
	hub := realtime.NewHub()
	notificationService := services.NewNotificationService(notificationRepo, deps.Cache)

	var pusher fanout.Pusher
	if deps.Messaging != nil {
		pusher = fanout.NewFCMPusher(deps.Messaging, userRepo)
	}
	router := fanout.NewRouter(followRepo, hub, notificationService, pusher)

	storyService := services.NewStoryService(storyRepo, followRepo, userRepo, router)

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(userRepo, deps.FirebaseAuth)
	authHandler.RegisterAuthRoutes(authGroup)
	log.Println("Auth routes configured.")

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware())
	log.Println("JWT authentication middleware applied to /api/v1 group.")

	authHandler.RegisterProfileRoutes(api)

	// Story routes
	storyHandler := handlers.NewStoryHandler(storyService)
	storyHandler.RegisterStoryRoutes(api)
	log.Println("Story routes configured.")

	// Follow routes
	followHandler := handlers.NewFollowHandler(followRepo, userRepo, router)
	followHandler.RegisterFollowRoutes(api)
	log.Println("Follow routes configured.")

	// Notification routes
	notificationHandler := handlers.NewNotificationHandler(notificationService, userRepo)
	notificationHandler.RegisterNotificationRoutes(api)
	log.Println("Notification routes configured.")

	// Realtime websocket endpoint
	realtimeHandler := handlers.NewRealtimeHandler(hub)
	realtimeHandler.RegisterRealtimeRoutes(api)
	log.Println("Realtime routes configured.")

	log.Println("All routes configured.")
}
