package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"suggestions-backend/internal/config"
	"suggestions-backend/internal/feedback_client"
	"suggestions-backend/internal/repository"
	"suggestions-backend/internal/scoring_client"
	"suggestions-backend/internal/server"
	"suggestions-backend/internal/service"
	"suggestions-backend/internal/stale_processor"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err) // Should not happen in development
	}
	defer func() {
		_ = logger.Sync() // Flushes buffer, if any
	}()

	// Load configuration
	cfgPath := "configs/config.yml"
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Database connection
	db, err := repository.NewPostgresDB(cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	repository.MigrateDB(db, logger)

	suggestionRepo := repository.NewSuggestionRepository(db, logger)

	// Initialize scoring service client (optional collaborator)
	var scoringClient service.ScoringClient
	if cfg.ScoringService.Enabled {
		scoringClient = scoring_client.NewClient(cfg.ScoringService.URL, logger)
		logger.Info("Scoring service enabled for author score increments")
	}

	// Initialize feedback service client (optional collaborator)
	var feedbackClient stale_processor.FeedbackPoster
	if cfg.FeedbackService.Enabled {
		feedbackClient = feedback_client.NewClient(cfg.FeedbackService.URL, logger)
		logger.Info("Feedback service enabled for auto-accept messages")
	}

	threshold := time.Duration(cfg.Review.ThresholdDaysBeforeAccept) * 24 * time.Hour
	suggestionService := service.NewSuggestionService(suggestionRepo, scoringClient, threshold, logger)

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Run the stale suggestion processor in a goroutine
	processor := stale_processor.NewProcessor(
		suggestionService,
		feedbackClient,
		cfg.Review.AutoAcceptReviewerID,
		cfg.Review.ThresholdDaysBeforeAccept,
		time.Duration(cfg.Review.SweepIntervalSeconds)*time.Second,
		logger,
	)
	go processor.Run(ctx)

	// Initialize and run the server
	srv := server.NewServer(suggestionRepo, cfg, scoringClient, logger)
	srv.Run(cfg.Server.Port)

	<-ctx.Done()
	logger.Info("Application stopped.")
}
