package models

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSuggestion() *Suggestion {
	return &Suggestion{
		ID:                        "exploration.exp1.thread_1",
		SuggestionType:            SuggestionTypeEditStateContent,
		TargetType:                TargetTypeExploration,
		TargetID:                  "exp1",
		TargetVersionAtSubmission: 1,
		Status:                    StatusInReview,
		AuthorID:                  "author_1",
		ChangeCmd:                 ChangeCmd{"cmd": "edit_state_property"},
		ScoreCategory:             "content.Algebra",
	}
}

func TestSuggestionValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Suggestion)
		wantErr error
	}{
		{
			name:   "valid suggestion",
			mutate: func(s *Suggestion) {},
		},
		{
			name:    "unknown suggestion type",
			mutate:  func(s *Suggestion) { s.SuggestionType = "invalid_type" },
			wantErr: ErrInvalidChoice,
		},
		{
			name:    "unknown target type",
			mutate:  func(s *Suggestion) { s.TargetType = "galaxy" },
			wantErr: ErrInvalidChoice,
		},
		{
			name:    "unknown status",
			mutate:  func(s *Suggestion) { s.Status = "pending" },
			wantErr: ErrInvalidChoice,
		},
		{
			name:    "zero target version",
			mutate:  func(s *Suggestion) { s.TargetVersionAtSubmission = 0 },
			wantErr: ErrNonPositiveTargetVersion,
		},
		{
			name:    "score category without delimiter",
			mutate:  func(s *Suggestion) { s.ScoreCategory = "content" },
			wantErr: ErrMalformedScoreCategory,
		},
		{
			name:    "score category with unknown score type",
			mutate:  func(s *Suggestion) { s.ScoreCategory = "karma.Algebra" },
			wantErr: ErrInvalidChoice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSuggestion()
			tt.mutate(s)
			err := s.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBuildAndSplitScoreCategory(t *testing.T) {
	category, err := BuildScoreCategory(ScoreTypeTranslation, "hi")
	require.NoError(t, err)
	assert.Equal(t, "translation.hi", category)

	scoreType, subcategory, err := SplitScoreCategory(category)
	require.NoError(t, err)
	assert.Equal(t, ScoreTypeTranslation, scoreType)
	assert.Equal(t, "hi", subcategory)

	_, err = BuildScoreCategory("karma", "hi")
	assert.ErrorIs(t, err, ErrInvalidChoice)
}

func TestScoreTypeNeverContainsDelimiter(t *testing.T) {
	// The first component of every valid score category is a member of the
	// score type choices, so it can never contain the delimiter itself.
	for _, scoreType := range []ScoreType{ScoreTypeContent, ScoreTypeTranslation, ScoreTypeQuestion} {
		assert.NotContains(t, string(scoreType), ScoreCategoryDelimiter)

		category, err := BuildScoreCategory(scoreType, "sub.with.dots")
		require.NoError(t, err)

		first, _, err := SplitScoreCategory(category)
		require.NoError(t, err)
		assert.Equal(t, scoreType, first)
		assert.NotContains(t, string(first), ScoreCategoryDelimiter)
	}
}

func TestDefaultAcceptMessage(t *testing.T) {
	assert.Equal(t, "Automatically accepting suggestion after 7 days", DefaultAcceptMessage(ThresholdDaysBeforeAccept))
	assert.Equal(t, "Automatically accepting suggestion after 1 days", DefaultAcceptMessage(1))
}

func TestIsAllowedQueryField(t *testing.T) {
	for _, field := range AllowedQueryFields {
		assert.True(t, IsAllowedQueryField(field), field)
	}
	assert.False(t, IsAllowedQueryField("change_cmd"))
	assert.False(t, IsAllowedQueryField("last_updated"))
	assert.False(t, IsAllowedQueryField(""))
}

func TestCanReview(t *testing.T) {
	// Only edit suggestions have a minimum role threshold.
	assert.False(t, CanReview(RoleLearner, SuggestionTypeEditStateContent))
	assert.True(t, CanReview(RoleExplorationEditor, SuggestionTypeEditStateContent))
	assert.True(t, CanReview(RoleAdmin, SuggestionTypeEditStateContent))
	assert.True(t, CanReview(RoleLearner, SuggestionTypeTranslateContent))
	assert.True(t, CanReview(RoleLearner, SuggestionTypeAddQuestion))
}

func TestChangeCmdRoundTrip(t *testing.T) {
	cmd := ChangeCmd{"cmd": "add_question", "difficulty": float64(2)}

	value, err := cmd.Value()
	require.NoError(t, err)

	var decoded ChangeCmd
	require.NoError(t, decoded.Scan(value))
	assert.Equal(t, cmd, decoded)

	var fromString ChangeCmd
	require.NoError(t, fromString.Scan(`{"cmd":"add_question","difficulty":2}`))
	assert.Equal(t, cmd, fromString)
}

func TestExportedSuggestionOmitsSubjectIdentifiers(t *testing.T) {
	exported := ExportedSuggestion{
		SuggestionType:            SuggestionTypeAddQuestion,
		TargetType:                TargetTypeSkill,
		TargetID:                  "skill1",
		TargetVersionAtSubmission: 1,
		Status:                    StatusAccepted,
		ChangeCmd:                 ChangeCmd{"cmd": "add_question"},
	}

	data, err := json.Marshal(exported)
	require.NoError(t, err)

	body := string(data)
	assert.False(t, strings.Contains(body, "author_id"))
	assert.False(t, strings.Contains(body, "final_reviewer_id"))
	assert.False(t, strings.Contains(body, "score_category"))
}
