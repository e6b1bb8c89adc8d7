package repository

import (
	"fmt"
	"sync"
	"time"

	"suggestions-backend/internal/models"
)

// MemorySuggestionRepository implements SuggestionRepository using an
// in-memory map. It mirrors the Postgres implementation's semantics exactly
// and backs the test suites and storeless local runs.
type MemorySuggestionRepository struct {
	mu   sync.RWMutex
	byID map[string]models.Suggestion
	now  func() time.Time
}

// NewMemorySuggestionRepository constructs an empty memory repository.
func NewMemorySuggestionRepository() *MemorySuggestionRepository {
	return NewMemorySuggestionRepositoryWithClock(time.Now)
}

// NewMemorySuggestionRepositoryWithClock constructs an empty memory
// repository whose write timestamps come from the given clock.
func NewMemorySuggestionRepositoryWithClock(now func() time.Time) *MemorySuggestionRepository {
	return &MemorySuggestionRepository{byID: make(map[string]models.Suggestion), now: now}
}

// SetClock replaces the clock used for write timestamps.
func (m *MemorySuggestionRepository) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func (m *MemorySuggestionRepository) Create(s *models.Suggestion) error {
	if err := s.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[s.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, s.ID)
	}

	ts := m.now()
	s.CreatedAt = ts
	s.LastUpdated = ts

	copy := *s
	copy.ChangeCmd = cloneChangeCmd(s.ChangeCmd)
	m.byID[s.ID] = copy
	return nil
}

func (m *MemorySuggestionRepository) GetByID(id string) (*models.Suggestion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	existing, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	copy := existing
	copy.ChangeCmd = cloneChangeCmd(existing.ChangeCmd)
	return &copy, nil
}

func (m *MemorySuggestionRepository) Query(filters []models.QueryFilter, limit int) ([]*models.Suggestion, error) {
	if err := validateFilters(filters); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var suggestions []*models.Suggestion
	for _, s := range m.byID {
		if len(suggestions) >= limit {
			break
		}
		match := true
		for _, f := range filters {
			if fieldValue(&s, f.Field) != f.Value {
				match = false
				break
			}
		}
		if match {
			copy := s
			copy.ChangeCmd = cloneChangeCmd(s.ChangeCmd)
			suggestions = append(suggestions, &copy)
		}
	}

	return suggestions, nil
}

func (m *MemorySuggestionRepository) StaleInReview(before time.Time) ([]*models.Suggestion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var suggestions []*models.Suggestion
	for _, s := range m.byID {
		if s.Status != models.StatusInReview {
			continue
		}
		if s.LastUpdated.After(before) {
			continue
		}
		copy := s
		copy.ChangeCmd = cloneChangeCmd(s.ChangeCmd)
		suggestions = append(suggestions, &copy)
	}

	return suggestions, nil
}

func (m *MemorySuggestionRepository) InReviewByScoreCategories(categories []string, excludeAuthorID string, limit int) ([]*models.Suggestion, error) {
	if len(categories) == 0 {
		return nil, ErrEmptyScoreCategories
	}

	wanted := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		wanted[c] = struct{}{}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var suggestions []*models.Suggestion
	for _, s := range m.byID {
		if len(suggestions) >= limit {
			break
		}
		if s.Status != models.StatusInReview {
			continue
		}
		if _, ok := wanted[s.ScoreCategory]; !ok {
			continue
		}
		if s.AuthorID == excludeAuthorID {
			continue
		}
		copy := s
		copy.ChangeCmd = cloneChangeCmd(s.ChangeCmd)
		suggestions = append(suggestions, &copy)
	}

	return suggestions, nil
}

func (m *MemorySuggestionRepository) InReviewByType(suggestionType models.SuggestionType, excludeAuthorID string, limit int) ([]*models.Suggestion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var suggestions []*models.Suggestion
	for _, s := range m.byID {
		if len(suggestions) >= limit {
			break
		}
		if s.Status != models.StatusInReview || s.SuggestionType != suggestionType {
			continue
		}
		if s.AuthorID == excludeAuthorID {
			continue
		}
		copy := s
		copy.ChangeCmd = cloneChangeCmd(s.ChangeCmd)
		suggestions = append(suggestions, &copy)
	}

	return suggestions, nil
}

func (m *MemorySuggestionRepository) InReviewByTypeAndAuthor(suggestionType models.SuggestionType, authorID string, limit int) ([]*models.Suggestion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var suggestions []*models.Suggestion
	for _, s := range m.byID {
		if len(suggestions) >= limit {
			break
		}
		if s.Status != models.StatusInReview || s.SuggestionType != suggestionType {
			continue
		}
		if s.AuthorID != authorID {
			continue
		}
		copy := s
		copy.ChangeCmd = cloneChangeCmd(s.ChangeCmd)
		suggestions = append(suggestions, &copy)
	}

	return suggestions, nil
}

func (m *MemorySuggestionRepository) DistinctScoreCategories() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]struct{})
	var categories []string
	for _, s := range m.byID {
		if _, ok := seen[s.ScoreCategory]; ok {
			continue
		}
		seen[s.ScoreCategory] = struct{}{}
		categories = append(categories, s.ScoreCategory)
	}

	return categories, nil
}

func (m *MemorySuggestionRepository) ByAuthor(authorID string) ([]*models.Suggestion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var suggestions []*models.Suggestion
	for _, s := range m.byID {
		if s.AuthorID != authorID {
			continue
		}
		copy := s
		copy.ChangeCmd = cloneChangeCmd(s.ChangeCmd)
		suggestions = append(suggestions, &copy)
	}

	return suggestions, nil
}

func (m *MemorySuggestionRepository) UpdateStatus(id string, status models.SuggestionStatus, reviewerID string) error {
	if !status.Valid() {
		return fmt.Errorf("status %q: %w", status, models.ErrInvalidChoice)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSuggestionNotFound, id)
	}
	if existing.Status != models.StatusInReview {
		return fmt.Errorf("%w: %s", ErrNotInReview, id)
	}

	existing.Status = status
	existing.FinalReviewerID = reviewerID
	existing.LastUpdated = m.now()
	m.byID[id] = existing
	return nil
}

func (m *MemorySuggestionRepository) HasReferenceToUser(userID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.byID {
		if s.AuthorID == userID || s.FinalReviewerID == userID {
			return true, nil
		}
	}
	return false, nil
}

// fieldValue resolves an allow-listed field name to its value on s. The
// switch is the closed counterpart of the store's indexed columns; reflective
// lookup is deliberately avoided.
func fieldValue(s *models.Suggestion, field string) string {
	switch field {
	case "suggestion_type":
		return string(s.SuggestionType)
	case "target_type":
		return string(s.TargetType)
	case "target_id":
		return s.TargetID
	case "status":
		return string(s.Status)
	case "author_id":
		return s.AuthorID
	case "final_reviewer_id":
		return s.FinalReviewerID
	case "score_category":
		return s.ScoreCategory
	}
	return ""
}

func cloneChangeCmd(c models.ChangeCmd) models.ChangeCmd {
	if c == nil {
		return nil
	}
	copy := make(models.ChangeCmd, len(c))
	for k, v := range c {
		copy[k] = v
	}
	return copy
}
