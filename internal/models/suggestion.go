package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SuggestionType is the type of change a suggestion proposes.
type SuggestionType string

const (
	SuggestionTypeEditStateContent SuggestionType = "edit_exploration_state_content"
	SuggestionTypeTranslateContent SuggestionType = "translate_content"
	SuggestionTypeAddQuestion      SuggestionType = "add_question"
)

// TargetType is the type of content entity a suggestion targets.
type TargetType string

const (
	TargetTypeExploration TargetType = "exploration"
	TargetTypeQuestion    TargetType = "question"
	TargetTypeSkill       TargetType = "skill"
	TargetTypeTopic       TargetType = "topic"
)

// SuggestionStatus is the review status of a suggestion.
type SuggestionStatus string

const (
	StatusInReview SuggestionStatus = "review"
	StatusAccepted SuggestionStatus = "accepted"
	StatusRejected SuggestionStatus = "rejected"
)

// ScoreType is the first component of a score category.
type ScoreType string

const (
	ScoreTypeContent     ScoreType = "content"
	ScoreTypeTranslation ScoreType = "translation"
	ScoreTypeQuestion    ScoreType = "question"
)

// ScoreCategoryDelimiter separates the score type from the subcategory.
const ScoreCategoryDelimiter = "."

// ThresholdDaysBeforeAccept is the default number of days after which an
// in-review suggestion is considered stale and eligible for auto-acceptance.
const ThresholdDaysBeforeAccept = 7

// ThresholdTimeBeforeAccept is the default staleness threshold as a duration.
const ThresholdTimeBeforeAccept = ThresholdDaysBeforeAccept * 24 * time.Hour

// IncrementScoreOfAuthorBy is the amount added to the author's contribution
// score in the suggestion's score category when the suggestion is accepted.
const IncrementScoreOfAuthorBy = 1

// ErrInvalidChoice marks an enum-valued field set outside its closed set.
var ErrInvalidChoice = errors.New("value not in the allowed choices")

// ErrMalformedScoreCategory marks a score category without the delimiter.
var ErrMalformedScoreCategory = errors.New("score category has no delimiter")

// ErrNonPositiveTargetVersion marks a target version at or below zero.
var ErrNonPositiveTargetVersion = errors.New("target_version_at_submission must be positive")

// Valid reports whether t is a member of the suggestion type choices.
func (t SuggestionType) Valid() bool {
	switch t {
	case SuggestionTypeEditStateContent, SuggestionTypeTranslateContent, SuggestionTypeAddQuestion:
		return true
	}
	return false
}

// Valid reports whether t is a member of the target type choices.
func (t TargetType) Valid() bool {
	switch t {
	case TargetTypeExploration, TargetTypeQuestion, TargetTypeSkill, TargetTypeTopic:
		return true
	}
	return false
}

// Valid reports whether s is a member of the status choices.
func (s SuggestionStatus) Valid() bool {
	switch s {
	case StatusInReview, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// Valid reports whether s is a member of the score type choices.
func (s ScoreType) Valid() bool {
	switch s {
	case ScoreTypeContent, ScoreTypeTranslation, ScoreTypeQuestion:
		return true
	}
	return false
}

// BuildScoreCategory joins a score type and a free-form subcategory.
func BuildScoreCategory(scoreType ScoreType, subcategory string) (string, error) {
	if !scoreType.Valid() {
		return "", fmt.Errorf("score type %q: %w", scoreType, ErrInvalidChoice)
	}
	return string(scoreType) + ScoreCategoryDelimiter + subcategory, nil
}

// SplitScoreCategory splits a score category into its score type and
// subcategory. The score type component must be a member of the score type
// choices, which guarantees it never contains the delimiter itself.
func SplitScoreCategory(scoreCategory string) (ScoreType, string, error) {
	parts := strings.SplitN(scoreCategory, ScoreCategoryDelimiter, 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedScoreCategory, scoreCategory)
	}
	scoreType := ScoreType(parts[0])
	if !scoreType.Valid() {
		return "", "", fmt.Errorf("score type %q: %w", parts[0], ErrInvalidChoice)
	}
	return scoreType, parts[1], nil
}

// ChangeCmd is the opaque structured payload describing the proposed change.
// It is stored as JSONB and interpreted by collaborators outside this service.
type ChangeCmd map[string]interface{}

// Value implements driver.Valuer for JSONB storage.
func (c ChangeCmd) Value() (driver.Value, error) {
	if c == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(c)
}

// Scan implements sql.Scanner for JSONB retrieval.
func (c *ChangeCmd) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	case nil:
		*c = nil
		return nil
	}
	return fmt.Errorf("cannot scan %T into ChangeCmd", src)
}

// Suggestion represents one proposed change to a target entity. The ID is the
// same as the ID of the feedback thread linked to the suggestion.
type Suggestion struct {
	ID                        string           `db:"id" json:"id"`
	SuggestionType            SuggestionType   `db:"suggestion_type" json:"suggestion_type"`
	TargetType                TargetType       `db:"target_type" json:"target_type"`
	TargetID                  string           `db:"target_id" json:"target_id"`
	TargetVersionAtSubmission int              `db:"target_version_at_submission" json:"target_version_at_submission"`
	Status                    SuggestionStatus `db:"status" json:"status"`
	AuthorID                  string           `db:"author_id" json:"author_id"`
	FinalReviewerID           string           `db:"final_reviewer_id" json:"final_reviewer_id,omitempty"`
	ChangeCmd                 ChangeCmd        `db:"change_cmd" json:"change_cmd"`
	ScoreCategory             string           `db:"score_category" json:"score_category"`
	CreatedAt                 time.Time        `db:"created_at" json:"created_at"`
	LastUpdated               time.Time        `db:"last_updated" json:"last_updated"`
}

// Validate checks every enum-valued field and the score category shape.
func (s *Suggestion) Validate() error {
	if !s.SuggestionType.Valid() {
		return fmt.Errorf("suggestion_type %q: %w", s.SuggestionType, ErrInvalidChoice)
	}
	if !s.TargetType.Valid() {
		return fmt.Errorf("target_type %q: %w", s.TargetType, ErrInvalidChoice)
	}
	if !s.Status.Valid() {
		return fmt.Errorf("status %q: %w", s.Status, ErrInvalidChoice)
	}
	if s.TargetVersionAtSubmission <= 0 {
		return fmt.Errorf("%w: got %d", ErrNonPositiveTargetVersion, s.TargetVersionAtSubmission)
	}
	if _, _, err := SplitScoreCategory(s.ScoreCategory); err != nil {
		return err
	}
	return nil
}

// DefaultAcceptMessage is the message used when auto-accepting a suggestion
// that went stale, embedding the configured threshold in days.
func DefaultAcceptMessage(thresholdDays int) string {
	return fmt.Sprintf("Automatically accepting suggestion after %d days", thresholdDays)
}

// QueryFilter is one (field, value) equality pair of an ad-hoc query.
type QueryFilter struct {
	Field string
	Value string
}

// AllowedQueryFields is the closed set of fields the generic query may filter
// on. The store keeps an index on each of them.
var AllowedQueryFields = []string{
	"suggestion_type",
	"target_type",
	"target_id",
	"status",
	"author_id",
	"final_reviewer_id",
	"score_category",
}

// IsAllowedQueryField reports whether field is in AllowedQueryFields.
func IsAllowedQueryField(field string) bool {
	for _, f := range AllowedQueryFields {
		if f == field {
			return true
		}
	}
	return false
}

// ExportedSuggestion is the redacted per-user export record. Author and
// reviewer identifiers and the score category are deliberately omitted.
type ExportedSuggestion struct {
	SuggestionType            SuggestionType   `json:"suggestion_type"`
	TargetType                TargetType       `json:"target_type"`
	TargetID                  string           `json:"target_id"`
	TargetVersionAtSubmission int              `json:"target_version_at_submission"`
	Status                    SuggestionStatus `json:"status"`
	ChangeCmd                 ChangeCmd        `json:"change_cmd"`
}

// CreateSuggestionInput is the payload for creating a suggestion. ThreadID is
// the ID of the feedback thread linked to the suggestion and becomes the
// suggestion ID.
type CreateSuggestionInput struct {
	ThreadID                  string           `json:"thread_id" binding:"required"`
	SuggestionType            SuggestionType   `json:"suggestion_type" binding:"required"`
	TargetType                TargetType       `json:"target_type" binding:"required"`
	TargetID                  string           `json:"target_id" binding:"required"`
	TargetVersionAtSubmission int              `json:"target_version_at_submission" binding:"required"`
	Status                    SuggestionStatus `json:"status" binding:"required"`
	AuthorID                  string           `json:"author_id" binding:"required"`
	FinalReviewerID           string           `json:"final_reviewer_id"`
	ChangeCmd                 ChangeCmd        `json:"change_cmd" binding:"required"`
	ScoreCategory             string           `json:"score_category" binding:"required"`
}
