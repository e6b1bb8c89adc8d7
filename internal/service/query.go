package service

import (
	"fmt"

	"suggestions-backend/internal/models"
	"suggestions-backend/internal/repository"

	"go.uber.org/zap"
)

// QueryService answers bounded queries over the suggestion store: ad-hoc
// allow-listed filtering, reviewer routing with self-review exclusion, and
// author-facing listings.
type QueryService interface {
	// Query applies the given equality filters conjunctively. Zero filters
	// returns the (bounded) unfiltered set.
	Query(filters []models.QueryFilter) ([]*models.Suggestion, error)
	// GetReviewableByCategory returns in-review suggestions in any of the
	// given score categories, excluding the user's own.
	GetReviewableByCategory(scoreCategories []string, excludingUserID string) ([]*models.Suggestion, error)
	// GetReviewableByType returns in-review suggestions of the given type,
	// excluding the user's own.
	GetReviewableByType(suggestionType models.SuggestionType, excludingUserID string) ([]*models.Suggestion, error)
	// GetAuthoredBy returns the user's own in-review suggestions of the
	// given type.
	GetAuthoredBy(suggestionType models.SuggestionType, userID string) ([]*models.Suggestion, error)
	// ListDistinctScoreCategories returns every distinct score category
	// across all suggestions, all statuses included.
	ListDistinctScoreCategories() ([]string, error)
}

type queryService struct {
	repo       repository.SuggestionRepository
	queryLimit int
	logger     *zap.Logger
}

// NewQueryService creates a query service. queryLimit bounds the result count
// of every query.
func NewQueryService(repo repository.SuggestionRepository, queryLimit int, logger *zap.Logger) QueryService {
	return &queryService{
		repo:       repo,
		queryLimit: queryLimit,
		logger:     logger,
	}
}

func (s *queryService) Query(filters []models.QueryFilter) ([]*models.Suggestion, error) {
	return s.repo.Query(filters, s.queryLimit)
}

func (s *queryService) GetReviewableByCategory(scoreCategories []string, excludingUserID string) ([]*models.Suggestion, error) {
	return s.repo.InReviewByScoreCategories(scoreCategories, excludingUserID, s.queryLimit)
}

func (s *queryService) GetReviewableByType(suggestionType models.SuggestionType, excludingUserID string) ([]*models.Suggestion, error) {
	if !suggestionType.Valid() {
		return nil, fmt.Errorf("suggestion_type %q: %w", suggestionType, models.ErrInvalidChoice)
	}
	return s.repo.InReviewByType(suggestionType, excludingUserID, s.queryLimit)
}

func (s *queryService) GetAuthoredBy(suggestionType models.SuggestionType, userID string) ([]*models.Suggestion, error) {
	if !suggestionType.Valid() {
		return nil, fmt.Errorf("suggestion_type %q: %w", suggestionType, models.ErrInvalidChoice)
	}
	return s.repo.InReviewByTypeAndAuthor(suggestionType, userID, s.queryLimit)
}

func (s *queryService) ListDistinctScoreCategories() ([]string, error) {
	return s.repo.DistinctScoreCategories()
}
