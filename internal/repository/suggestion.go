package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"suggestions-backend/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

var (
	// ErrDuplicateID is returned when creating a suggestion whose ID is
	// already present in the store.
	ErrDuplicateID = errors.New("there is already a suggestion with the given id")
	// ErrInvalidQueryField is returned when an ad-hoc query references a
	// field outside the allow-list. The whole query fails.
	ErrInvalidQueryField = errors.New("not allowed to query on field")
	// ErrEmptyScoreCategories is returned when a category-routing query is
	// given zero categories.
	ErrEmptyScoreCategories = errors.New("received empty list of score categories")
	// ErrSuggestionNotFound is returned by status updates on a missing ID.
	ErrSuggestionNotFound = errors.New("suggestion not found")
	// ErrNotInReview is returned by status updates on a suggestion that has
	// already left review. Accepted and rejected are terminal.
	ErrNotInReview = errors.New("suggestion is not in review")
)

// SuggestionRepository is the record store adapter for suggestions. Every
// field in models.AllowedQueryFields is indexed by the implementations.
type SuggestionRepository interface {
	// Create persists a new suggestion. The duplicate-ID check and the
	// insert are a single atomic operation.
	Create(suggestion *models.Suggestion) error
	// GetByID returns the suggestion with the given ID, or (nil, nil) if
	// absent.
	GetByID(id string) (*models.Suggestion, error)
	// Query applies the given equality filters conjunctively, in order.
	// A filter on a field outside the allow-list fails the whole query
	// with ErrInvalidQueryField. Zero filters is legal. At most limit
	// suggestions are returned.
	Query(filters []models.QueryFilter, limit int) ([]*models.Suggestion, error)
	// StaleInReview returns every in-review suggestion whose last update
	// is at or before the given cutoff.
	StaleInReview(before time.Time) ([]*models.Suggestion, error)
	// InReviewByScoreCategories returns up to limit in-review suggestions
	// whose score category is in categories, excluding those authored by
	// excludeAuthorID. An empty category set fails with
	// ErrEmptyScoreCategories.
	InReviewByScoreCategories(categories []string, excludeAuthorID string, limit int) ([]*models.Suggestion, error)
	// InReviewByType returns up to limit in-review suggestions of the
	// given type, excluding those authored by excludeAuthorID.
	InReviewByType(suggestionType models.SuggestionType, excludeAuthorID string, limit int) ([]*models.Suggestion, error)
	// InReviewByTypeAndAuthor returns up to limit in-review suggestions of
	// the given type authored by authorID.
	InReviewByTypeAndAuthor(suggestionType models.SuggestionType, authorID string, limit int) ([]*models.Suggestion, error)
	// DistinctScoreCategories returns every distinct score category across
	// all suggestions, in no particular order.
	DistinctScoreCategories() ([]string, error)
	// ByAuthor returns all suggestions authored by authorID, unbounded.
	ByAuthor(authorID string) ([]*models.Suggestion, error)
	// UpdateStatus sets the status and the final reviewer atomically,
	// guarded on the suggestion currently being in review. Returns
	// ErrSuggestionNotFound or ErrNotInReview on guard failure.
	UpdateStatus(id string, status models.SuggestionStatus, reviewerID string) error
	// HasReferenceToUser reports whether any suggestion references the
	// user as author or final reviewer.
	HasReferenceToUser(userID string) (bool, error)
}

// validateFilters rejects any filter field outside the allow-list before a
// query touches the store.
func validateFilters(filters []models.QueryFilter) error {
	for _, f := range filters {
		if !models.IsAllowedQueryField(f.Field) {
			return fmt.Errorf("%w %s", ErrInvalidQueryField, f.Field)
		}
	}
	return nil
}

const suggestionColumns = `id, suggestion_type, target_type, target_id, target_version_at_submission, status, author_id, final_reviewer_id, change_cmd, score_category, created_at, last_updated`

type suggestionRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewSuggestionRepository creates a Postgres-backed suggestion repository.
func NewSuggestionRepository(db *sqlx.DB, logger *zap.Logger) SuggestionRepository {
	return &suggestionRepository{db: db, logger: logger}
}

func (r *suggestionRepository) Create(s *models.Suggestion) error {
	query := `
		INSERT INTO suggestions (id, suggestion_type, target_type, target_id, target_version_at_submission, status, author_id, final_reviewer_id, change_cmd, score_category)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, last_updated
	`

	err := r.db.QueryRow(
		query,
		s.ID,
		s.SuggestionType,
		s.TargetType,
		s.TargetID,
		s.TargetVersionAtSubmission,
		s.Status,
		s.AuthorID,
		s.FinalReviewerID,
		s.ChangeCmd,
		s.ScoreCategory,
	).Scan(&s.CreatedAt, &s.LastUpdated)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case "23505": // unique_violation on the primary key
				return fmt.Errorf("%w: %s", ErrDuplicateID, s.ID)
			case "23514": // check_violation from the enum constraints
				return fmt.Errorf("%s: %w", pqErr.Constraint, models.ErrInvalidChoice)
			}
		}
		r.logger.Error("Failed to create suggestion", zap.String("id", s.ID), zap.Error(err))
		return err
	}

	return nil
}

func (r *suggestionRepository) GetByID(id string) (*models.Suggestion, error) {
	var s models.Suggestion
	query := `SELECT ` + suggestionColumns + ` FROM suggestions WHERE id = $1`

	err := r.db.Get(&s, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get suggestion by ID", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return &s, nil
}

func (r *suggestionRepository) Query(filters []models.QueryFilter, limit int) ([]*models.Suggestion, error) {
	if err := validateFilters(filters); err != nil {
		return nil, err
	}

	query := `SELECT ` + suggestionColumns + ` FROM suggestions`
	args := make([]interface{}, 0, len(filters)+1)
	for i, f := range filters {
		if i == 0 {
			query += " WHERE "
		} else {
			query += " AND "
		}
		// Field names were validated against the closed allow-list
		// above; each one maps to an indexed column of the same name.
		query += fmt.Sprintf("%s = $%d", f.Field, i+1)
		args = append(args, f.Value)
	}
	query += fmt.Sprintf(" LIMIT $%d", len(filters)+1)
	args = append(args, limit)

	var suggestions []*models.Suggestion
	if err := r.db.Select(&suggestions, query, args...); err != nil {
		r.logger.Error("Failed to query suggestions", zap.Error(err))
		return nil, err
	}

	return suggestions, nil
}

func (r *suggestionRepository) StaleInReview(before time.Time) ([]*models.Suggestion, error) {
	var suggestions []*models.Suggestion
	query := `SELECT ` + suggestionColumns + ` FROM suggestions WHERE status = $1 AND last_updated <= $2`

	if err := r.db.Select(&suggestions, query, models.StatusInReview, before); err != nil {
		r.logger.Error("Failed to query stale suggestions", zap.Error(err))
		return nil, err
	}

	return suggestions, nil
}

func (r *suggestionRepository) InReviewByScoreCategories(categories []string, excludeAuthorID string, limit int) ([]*models.Suggestion, error) {
	if len(categories) == 0 {
		return nil, ErrEmptyScoreCategories
	}

	query, args, err := sqlx.In(
		`SELECT `+suggestionColumns+` FROM suggestions WHERE status = ? AND score_category IN (?) AND author_id <> ? LIMIT ?`,
		models.StatusInReview, categories, excludeAuthorID, limit,
	)
	if err != nil {
		return nil, err
	}
	query = r.db.Rebind(query)

	var suggestions []*models.Suggestion
	if err := r.db.Select(&suggestions, query, args...); err != nil {
		r.logger.Error("Failed to query suggestions by score categories", zap.Error(err))
		return nil, err
	}

	return suggestions, nil
}

func (r *suggestionRepository) InReviewByType(suggestionType models.SuggestionType, excludeAuthorID string, limit int) ([]*models.Suggestion, error) {
	var suggestions []*models.Suggestion
	query := `
		SELECT ` + suggestionColumns + ` FROM suggestions
		WHERE status = $1 AND suggestion_type = $2 AND author_id <> $3
		LIMIT $4
	`

	if err := r.db.Select(&suggestions, query, models.StatusInReview, suggestionType, excludeAuthorID, limit); err != nil {
		r.logger.Error("Failed to query suggestions by type", zap.Error(err))
		return nil, err
	}

	return suggestions, nil
}

func (r *suggestionRepository) InReviewByTypeAndAuthor(suggestionType models.SuggestionType, authorID string, limit int) ([]*models.Suggestion, error) {
	var suggestions []*models.Suggestion
	query := `
		SELECT ` + suggestionColumns + ` FROM suggestions
		WHERE status = $1 AND suggestion_type = $2 AND author_id = $3
		LIMIT $4
	`

	if err := r.db.Select(&suggestions, query, models.StatusInReview, suggestionType, authorID, limit); err != nil {
		r.logger.Error("Failed to query authored suggestions", zap.Error(err))
		return nil, err
	}

	return suggestions, nil
}

func (r *suggestionRepository) DistinctScoreCategories() ([]string, error) {
	var categories []string
	query := `SELECT DISTINCT score_category FROM suggestions`

	if err := r.db.Select(&categories, query); err != nil {
		r.logger.Error("Failed to list score categories", zap.Error(err))
		return nil, err
	}

	return categories, nil
}

func (r *suggestionRepository) ByAuthor(authorID string) ([]*models.Suggestion, error) {
	var suggestions []*models.Suggestion
	query := `SELECT ` + suggestionColumns + ` FROM suggestions WHERE author_id = $1`

	if err := r.db.Select(&suggestions, query, authorID); err != nil {
		r.logger.Error("Failed to query suggestions by author", zap.String("author_id", authorID), zap.Error(err))
		return nil, err
	}

	return suggestions, nil
}

func (r *suggestionRepository) UpdateStatus(id string, status models.SuggestionStatus, reviewerID string) error {
	query := `
		UPDATE suggestions
		SET status = $1, final_reviewer_id = $2, last_updated = CURRENT_TIMESTAMP
		WHERE id = $3 AND status = $4
	`

	result, err := r.db.Exec(query, status, reviewerID, id, models.StatusInReview)
	if err != nil {
		r.logger.Error("Failed to update suggestion status", zap.String("id", id), zap.String("status", string(status)), zap.Error(err))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		existing, err := r.GetByID(id)
		if err != nil {
			return err
		}
		if existing == nil {
			return fmt.Errorf("%w: %s", ErrSuggestionNotFound, id)
		}
		return fmt.Errorf("%w: %s", ErrNotInReview, id)
	}

	return nil
}

func (r *suggestionRepository) HasReferenceToUser(userID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM suggestions WHERE author_id = $1 OR final_reviewer_id = $1)`

	if err := r.db.Get(&exists, query, userID); err != nil {
		r.logger.Error("Failed to check user references", zap.String("user_id", userID), zap.Error(err))
		return false, err
	}

	return exists, nil
}
