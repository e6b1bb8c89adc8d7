package service

import (
	"fmt"
	"time"

	"suggestions-backend/internal/models"
	"suggestions-backend/internal/repository"

	"go.uber.org/zap"
)

// ScoringClient is the external user-scoring collaborator. The author's
// contribution score is incremented through it when a suggestion is accepted.
type ScoringClient interface {
	IncrementScore(userID, scoreCategory string, delta int) error
}

// SuggestionService is the suggestion lifecycle engine. It owns creation
// invariants and status transitions; accepted and rejected are terminal.
type SuggestionService interface {
	CreateSuggestion(input models.CreateSuggestionInput) (*models.Suggestion, error)
	GetSuggestionByID(id string) (*models.Suggestion, error)
	AcceptSuggestion(id, reviewerID string) (*models.Suggestion, error)
	RejectSuggestion(id, reviewerID string) (*models.Suggestion, error)
	GetAllStaleSuggestions() ([]*models.Suggestion, error)
}

type suggestionService struct {
	repo          repository.SuggestionRepository
	scoringClient ScoringClient
	threshold     time.Duration
	logger        *zap.Logger
}

// NewSuggestionService creates a lifecycle engine. threshold is the staleness
// threshold; scoringClient may be nil, in which case score increments are
// skipped.
func NewSuggestionService(
	repo repository.SuggestionRepository,
	scoringClient ScoringClient,
	threshold time.Duration,
	logger *zap.Logger,
) SuggestionService {
	return &suggestionService{
		repo:          repo,
		scoringClient: scoringClient,
		threshold:     threshold,
		logger:        logger,
	}
}

func (s *suggestionService) CreateSuggestion(input models.CreateSuggestionInput) (*models.Suggestion, error) {
	suggestion := &models.Suggestion{
		ID:                        input.ThreadID,
		SuggestionType:            input.SuggestionType,
		TargetType:                input.TargetType,
		TargetID:                  input.TargetID,
		TargetVersionAtSubmission: input.TargetVersionAtSubmission,
		Status:                    input.Status,
		AuthorID:                  input.AuthorID,
		FinalReviewerID:           input.FinalReviewerID,
		ChangeCmd:                 input.ChangeCmd,
		ScoreCategory:             input.ScoreCategory,
	}

	if err := suggestion.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(suggestion); err != nil {
		return nil, err
	}

	s.logger.Info("Suggestion created",
		zap.String("id", suggestion.ID),
		zap.String("suggestion_type", string(suggestion.SuggestionType)),
		zap.String("target_id", suggestion.TargetID))
	return suggestion, nil
}

func (s *suggestionService) GetSuggestionByID(id string) (*models.Suggestion, error) {
	return s.repo.GetByID(id)
}

func (s *suggestionService) AcceptSuggestion(id, reviewerID string) (*models.Suggestion, error) {
	suggestion, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if suggestion == nil {
		return nil, fmt.Errorf("%w: %s", repository.ErrSuggestionNotFound, id)
	}

	if err := s.repo.UpdateStatus(id, models.StatusAccepted, reviewerID); err != nil {
		return nil, err
	}

	// The score increment is a delegated side effect; the acceptance has
	// already been persisted, so a scoring failure is logged, not surfaced.
	if s.scoringClient != nil {
		if err := s.scoringClient.IncrementScore(suggestion.AuthorID, suggestion.ScoreCategory, models.IncrementScoreOfAuthorBy); err != nil {
			s.logger.Error("Failed to increment author score",
				zap.String("author_id", suggestion.AuthorID),
				zap.String("score_category", suggestion.ScoreCategory),
				zap.Error(err))
		}
	}

	s.logger.Info("Suggestion accepted", zap.String("id", id), zap.String("reviewer_id", reviewerID))
	return s.repo.GetByID(id)
}

func (s *suggestionService) RejectSuggestion(id, reviewerID string) (*models.Suggestion, error) {
	if err := s.repo.UpdateStatus(id, models.StatusRejected, reviewerID); err != nil {
		return nil, err
	}

	s.logger.Info("Suggestion rejected", zap.String("id", id), zap.String("reviewer_id", reviewerID))
	return s.repo.GetByID(id)
}

// GetAllStaleSuggestions returns every in-review suggestion whose age since
// last update is at least the staleness threshold.
func (s *suggestionService) GetAllStaleSuggestions() ([]*models.Suggestion, error) {
	cutoff := time.Now().Add(-s.threshold)
	return s.repo.StaleInReview(cutoff)
}
