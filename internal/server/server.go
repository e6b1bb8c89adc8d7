package server

import (
	"net/http"
	"time"

	"suggestions-backend/internal/config"
	"suggestions-backend/internal/handler"
	"suggestions-backend/internal/middleware"
	"suggestions-backend/internal/repository"
	"suggestions-backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	router *gin.Engine
	repo   repository.SuggestionRepository
	cfg    *config.Config
	logger *zap.Logger

	scoringClient service.ScoringClient
}

// NewServer wires the HTTP shell over the suggestion repository. The shell
// binds the lifecycle, query and export operations one-to-one and owns no
// semantics of its own.
func NewServer(repo repository.SuggestionRepository, cfg *config.Config, scoringClient service.ScoringClient, logger *zap.Logger) *Server {
	router := gin.Default()

	s := &Server{
		router:        router,
		repo:          repo,
		cfg:           cfg,
		logger:        logger,
		scoringClient: scoringClient,
	}

	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	threshold := time.Duration(s.cfg.Review.ThresholdDaysBeforeAccept) * 24 * time.Hour
	suggestionService := service.NewSuggestionService(s.repo, s.scoringClient, threshold, s.logger)
	queryService := service.NewQueryService(s.repo, s.cfg.Review.QueryLimit, s.logger)
	exportService := service.NewExportService(s.repo, s.logger)
	suggestionHandler := handler.NewSuggestionHandler(suggestionService, queryService, exportService, s.logger)

	// Ping route for health check
	s.router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	authRequired := s.router.Group("/api")
	authRequired.Use(middleware.AuthMiddleware([]byte(s.cfg.Auth.JWTSecret), s.logger))
	{
		authRequired.POST("/suggestions", suggestionHandler.CreateSuggestion)
		authRequired.GET("/suggestions", suggestionHandler.QuerySuggestions)
		authRequired.GET("/suggestions/reviewable", suggestionHandler.GetReviewableByCategory)
		authRequired.GET("/suggestions/reviewable/:suggestion_type", suggestionHandler.GetReviewableByType)
		authRequired.GET("/suggestions/authored", suggestionHandler.GetAuthoredSuggestions)
		authRequired.GET("/suggestions/score-categories", suggestionHandler.ListScoreCategories)
		authRequired.GET("/suggestions/:id", suggestionHandler.GetSuggestion)
		authRequired.PUT("/suggestions/:id/accept", suggestionHandler.AcceptSuggestion)
		authRequired.PUT("/suggestions/:id/reject", suggestionHandler.RejectSuggestion)
		authRequired.GET("/users/:user_id/export", suggestionHandler.ExportUserData)
	}
}

func (s *Server) Run(addr string) {
	s.logger.Info("Server starting", zap.String("port", addr))
	if err := s.router.Run(addr); err != nil {
		s.logger.Fatal("Server failed to start", zap.Error(err))
	}
}
