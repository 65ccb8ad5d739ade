package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"edupulse/lms-backend/internal/api"
	"edupulse/lms-backend/internal/config"
	"edupulse/lms-backend/internal/repository/mongo"
	"edupulse/lms-backend/internal/service"
	"edupulse/lms-backend/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("starting LMS backend server")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Fatal("could not load config", zap.Error(err))
	}

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		logger.Fatal("could not connect to MongoDB", zap.Error(err))
	}
	defer func() {
		if err := mongo.DisconnectDB(dbClient); err != nil {
			logger.Error("failed to disconnect MongoDB", zap.Error(err))
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	logger.Info("database connection established", zap.String("database", cfg.Database.Name))

	// --- Ensure Indexes ---
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureStudentIndexes(ctx, appDB.Collection("students"))
		mongo.EnsureEnrollmentIndexes(ctx, appDB.Collection("enrollments"))
		mongo.EnsureSessionIndexes(ctx, appDB.Collection("sessions"))
		logger.Info("index creation process completed")
	}()

	// --- Initialize Storage ---
	// Misconfiguration does not stop the process: the client comes up in an
	// explicit unavailable state and requests that need it fail fast.
	fileStorage := storage.NewS3Storage(cfg.S3, cfg.Upload, logger)

	// --- Initialize Repositories ---
	studentRepo := mongo.NewMongoStudentRepository(appDB)
	enrollmentRepo := mongo.NewMongoEnrollmentRepository(appDB)
	sessionRepo := mongo.NewMongoSessionRepository(appDB)

	// --- Initialize Services ---
	recordingService := service.NewRecordingService(
		fileStorage,
		studentRepo,
		enrollmentRepo,
		sessionRepo,
		cfg.Upload.URLExpiry,
		logger,
	)

	// --- Initialize Gin Engine ---
	router := gin.Default() // Includes Logger and Recovery middleware

	recordingHandler := api.NewRecordingHandler(recordingService, cfg.Upload.MemoryLimit(), logger)
	api.SetupRoutes(router, cfg.JWT.Secret, recordingHandler)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:        cfg.Server.Address,
		Handler:     router,
		ReadTimeout: 10 * time.Minute, // large recording uploads
		IdleTimeout: 120 * time.Second,
	}

	logger.Info("server starting", zap.String("address", cfg.Server.Address))

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen and serve error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exiting")
}
