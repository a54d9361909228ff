package main

import (
	"context"
	"log"

	"github.com/labstack/echo/v4"
	"github.com/roamly-app/backend/internal/router"
	"github.com/roamly-app/backend/pkg/config"
	"github.com/roamly-app/backend/pkg/firebase"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database connections
	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB()

	// Optional cache
	cache, err := config.InitRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to initialize Redis: %v", err)
	}

	deps := router.Deps{
		Postgres:    db.Postgres,
		Mongo:       db.Mongo,
		MongoDBName: cfg.MongoDBName,
		Cache:       cache,
	}

	// Firebase is optional: without credentials, Firebase login and FCM
	// push are disabled and everything else still works.
	if cfg.FirebaseCredentialsPath != "" {
		firebaseApp, err := firebase.InitFirebase(context.Background(), cfg.FirebaseCredentialsPath)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase: %v", err)
		}
		deps.FirebaseAuth = firebaseApp.AuthClient
		deps.Messaging = firebaseApp.MessagingClient
	} else {
		log.Println("FIREBASE_CREDENTIALS_PATH not set, running without Firebase.")
	}

	// Create Echo instance
	e := echo.New()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	router.SetupRoutes(e, deps)

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
