package service

import (
	"suggestions-backend/internal/models"
	"suggestions-backend/internal/repository"

	"go.uber.org/zap"
)

// ExportService extracts a user's suggestion data for takeout. Only authored
// suggestions are exported; author and reviewer identifiers and the score
// category are redacted from each record.
type ExportService interface {
	ExportForUser(userID string) (map[string]models.ExportedSuggestion, error)
	HasReferenceToUser(userID string) (bool, error)
}

type exportService struct {
	repo   repository.SuggestionRepository
	logger *zap.Logger
}

// NewExportService creates an export service.
func NewExportService(repo repository.SuggestionRepository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

func (s *exportService) ExportForUser(userID string) (map[string]models.ExportedSuggestion, error) {
	suggestions, err := s.repo.ByAuthor(userID)
	if err != nil {
		return nil, err
	}

	export := make(map[string]models.ExportedSuggestion, len(suggestions))
	for _, suggestion := range suggestions {
		export[suggestion.ID] = models.ExportedSuggestion{
			SuggestionType:            suggestion.SuggestionType,
			TargetType:                suggestion.TargetType,
			TargetID:                  suggestion.TargetID,
			TargetVersionAtSubmission: suggestion.TargetVersionAtSubmission,
			Status:                    suggestion.Status,
			ChangeCmd:                 suggestion.ChangeCmd,
		}
	}

	return export, nil
}

func (s *exportService) HasReferenceToUser(userID string) (bool, error) {
	return s.repo.HasReferenceToUser(userID)
}
