package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"alcyxob/training-calendar/internal/api"
	"alcyxob/training-calendar/internal/cache"
	"alcyxob/training-calendar/internal/config"
	"alcyxob/training-calendar/internal/repository/mongo"
	"alcyxob/training-calendar/internal/schedule"
	"alcyxob/training-calendar/internal/service"
	"alcyxob/training-calendar/internal/storage"
)

// @title Training Calendar API
// @version 1.0
// @description API for the weekly training calendar: templates, real trainings, drag-and-drop placement and attendance.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	log.Println("Starting Training Calendar Server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Println("Configuration loaded.")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Println("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Println("Database connection established.")

	// --- Ensure Indexes ---
	log.Println("Ensuring database indexes...")
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureUserIndexes(ctx, appDB.Collection("users"))
		mongo.EnsureTrainingTypeIndexes(ctx, appDB.Collection("training_types"))
		mongo.EnsureTemplateIndexes(ctx, appDB.Collection("training_templates"))
		mongo.EnsureTrainingIndexes(ctx, appDB.Collection("real_trainings"))
		mongo.EnsureExportIndexes(ctx, appDB.Collection("schedule_exports"))
		log.Println("Index creation process completed.")
	}()

	// --- Initialize Storage ---
	log.Println("Initializing file storage service...")
	fileStorage, err := storage.NewS3Storage(cfg.S3)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize S3 storage: %v", err)
	}

	// --- Initialize Repositories ---
	log.Println("Initializing repositories...")
	userRepo := mongo.NewMongoUserRepository(appDB)
	typeRepo := mongo.NewMongoTrainingTypeRepository(appDB)
	templateRepo := mongo.NewMongoTemplateRepository(appDB)
	trainingRepo := mongo.NewMongoTrainingRepository(appDB)
	exportRepo := mongo.NewMongoExportRepository(appDB)

	// --- Initialize Services ---
	log.Println("Initializing services...")
	eventCache := cache.New(cfg.Cache.TTL, cfg.Cache.CleanupInterval)

	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	calendarService := service.NewCalendarService(templateRepo, trainingRepo, typeRepo, userRepo, eventCache, cfg.Cache.TTL)
	attendanceService := service.NewAttendanceService(trainingRepo, calendarService)
	exportService := service.NewExportService(trainingRepo, exportRepo, fileStorage)

	// The calendar service doubles as the orchestrator's persistence backend
	// and week invalidator.
	orchestrator := schedule.NewOrchestrator(calendarService, calendarService, cfg.Calendar.DropTimeout)
	trackers := schedule.NewTrackerRegistry(cfg.Calendar.ModifierMaxHold)

	// --- Initialize Gin Engine ---
	// gin.SetMode(gin.ReleaseMode) // Uncomment for production
	router := gin.Default() // Includes Logger and Recovery middleware

	// --- Setup Routes ---
	log.Println("Setting up API routes...")
	api.SetupRoutes(router, cfg.JWT.Secret, authService, calendarService, attendanceService, exportService, orchestrator, trackers)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(router)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      corsHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("FATAL: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
