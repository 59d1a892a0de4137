package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fittrackproapp-droid/fittrackProApp/internal/api"
	"github.com/fittrackproapp-droid/fittrackProApp/internal/app"
	"github.com/fittrackproapp-droid/fittrackProApp/internal/config"
	"github.com/fittrackproapp-droid/fittrackProApp/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// @title FitTrack API
// @version 1.0
// @description Workout submissions, coach review, plans and messaging.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load config")
	}
	logging.Init(cfg.Log.Level, cfg.Log.Pretty)
	log.Info().Str("storage", cfg.Storage.Provider).Str("database", cfg.Database.Driver).Msg("Starting FitTrack server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database, storage, services ---
	application, err := app.Open(ctx, &cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Startup failed")
	}
	defer application.Close()

	// --- Background workers ---
	go application.RunFeed(ctx, 5*time.Second)
	go application.SweepDrafts(ctx, 10*time.Minute, cfg.Server.DraftTTL)

	// --- Initialize Gin Engine ---
	if !cfg.Log.Pretty {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(api.RequestLogger(), gin.Recovery())
	router.MaxMultipartMemory = 32 << 20

	svc := application.Services
	api.SetupRoutes(router, api.Services{
		Auth:        svc.Auth,
		Plans:       svc.Plans,
		Submissions: svc.Submissions,
		Messages:    svc.Messages,
		Users:       svc.Users,
	}, cfg.Server.MaxUploadBytes)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:        cfg.Server.Address,
		Handler:     router,
		ReadTimeout: 2 * time.Minute, // clip uploads
		// Finalize waits for every clip upload.
		WriteTimeout: cfg.Storage.UploadTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("address", cfg.Server.Address).Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe error")
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		os.Exit(1)
	}
	log.Info().Msg("Server exiting")
}
