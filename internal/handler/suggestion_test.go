package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"suggestions-backend/internal/middleware"
	"suggestions-backend/internal/models"
	"suggestions-backend/internal/repository"
	"suggestions-backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var testSecret = []byte("test-secret")

func newTestRouter(t *testing.T) (*gin.Engine, repository.SuggestionRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t)

	repo := repository.NewMemorySuggestionRepository()
	suggestionService := service.NewSuggestionService(repo, nil, models.ThresholdTimeBeforeAccept, logger)
	queryService := service.NewQueryService(repo, 1000, logger)
	exportService := service.NewExportService(repo, logger)
	h := NewSuggestionHandler(suggestionService, queryService, exportService, logger)

	router := gin.New()
	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware(testSecret, logger))
	{
		api.POST("/suggestions", h.CreateSuggestion)
		api.GET("/suggestions", h.QuerySuggestions)
		api.GET("/suggestions/reviewable", h.GetReviewableByCategory)
		api.GET("/suggestions/reviewable/:suggestion_type", h.GetReviewableByType)
		api.GET("/suggestions/authored", h.GetAuthoredSuggestions)
		api.GET("/suggestions/score-categories", h.ListScoreCategories)
		api.GET("/suggestions/:id", h.GetSuggestion)
		api.PUT("/suggestions/:id/accept", h.AcceptSuggestion)
		api.PUT("/suggestions/:id/reject", h.RejectSuggestion)
		api.GET("/users/:user_id/export", h.ExportUserData)
	}
	return router, repo
}

func bearerToken(t *testing.T, userID, role string) string {
	t.Helper()
	claims := &models.Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	return "Bearer " + token
}

func doRequest(router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func suggestionBody(threadID string) map[string]interface{} {
	return map[string]interface{}{
		"thread_id":                    threadID,
		"suggestion_type":              "edit_exploration_state_content",
		"target_type":                  "exploration",
		"target_id":                    "exp1",
		"target_version_at_submission": 1,
		"status":                       "review",
		"author_id":                    "author_1",
		"change_cmd":                   map[string]interface{}{"cmd": "edit_state_property"},
		"score_category":               "content.Algebra",
	}
}

func TestAuthRequired(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(router, http.MethodGet, "/api/suggestions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(router, http.MethodGet, "/api/suggestions", "Bearer not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateSuggestionEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)
	token := bearerToken(t, "author_1", models.RoleLearner)

	w := doRequest(router, http.MethodPost, "/api/suggestions", token, suggestionBody("thread_1"))
	require.Equal(t, http.StatusCreated, w.Code)

	// Duplicate thread id conflicts.
	w = doRequest(router, http.MethodPost, "/api/suggestions", token, suggestionBody("thread_1"))
	assert.Equal(t, http.StatusConflict, w.Code)

	// Invalid enum value is a bad request.
	body := suggestionBody("thread_2")
	body["target_type"] = "galaxy"
	w = doRequest(router, http.MethodPost, "/api/suggestions", token, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAcceptSuggestionRoleThreshold(t *testing.T) {
	router, _ := newTestRouter(t)
	token := bearerToken(t, "author_1", models.RoleLearner)

	w := doRequest(router, http.MethodPost, "/api/suggestions", token, suggestionBody("thread_1"))
	require.Equal(t, http.StatusCreated, w.Code)

	// Edit suggestions require at least the exploration editor role.
	learner := bearerToken(t, "reviewer_1", models.RoleLearner)
	w = doRequest(router, http.MethodPut, "/api/suggestions/thread_1/accept", learner, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	editor := bearerToken(t, "reviewer_1", models.RoleExplorationEditor)
	w = doRequest(router, http.MethodPut, "/api/suggestions/thread_1/accept", editor, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var accepted models.Suggestion
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &accepted))
	assert.Equal(t, models.StatusAccepted, accepted.Status)
	assert.Equal(t, "reviewer_1", accepted.FinalReviewerID)

	// Terminal state: a second transition conflicts.
	w = doRequest(router, http.MethodPut, "/api/suggestions/thread_1/reject", editor, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(router, http.MethodPut, "/api/suggestions/missing/accept", editor, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestQuerySuggestionsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)
	token := bearerToken(t, "author_1", models.RoleLearner)

	w := doRequest(router, http.MethodPost, "/api/suggestions", token, suggestionBody("thread_1"))
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(router, http.MethodGet, "/api/suggestions?author_id=author_1", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Suggestions []models.Suggestion `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Suggestions, 1)

	// Filtering on a field outside the allow-list fails the whole query.
	w = doRequest(router, http.MethodGet, "/api/suggestions?author_id=author_1&change_cmd=x", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReviewableEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)
	author := bearerToken(t, "author_1", models.RoleLearner)

	w := doRequest(router, http.MethodPost, "/api/suggestions", author, suggestionBody("thread_1"))
	require.Equal(t, http.StatusCreated, w.Code)

	// Empty category set is rejected, not interpreted.
	w = doRequest(router, http.MethodGet, "/api/suggestions/reviewable", author, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	reviewer := bearerToken(t, "reviewer_1", models.RoleExplorationEditor)
	w = doRequest(router, http.MethodGet, "/api/suggestions/reviewable?score_category=content.Algebra", reviewer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Suggestions []models.Suggestion `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Suggestions, 1)

	// The author sees nothing reviewable in their own category.
	w = doRequest(router, http.MethodGet, "/api/suggestions/reviewable?score_category=content.Algebra", author, nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp.Suggestions = nil
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Suggestions)

	w = doRequest(router, http.MethodGet, "/api/suggestions/reviewable/bad_type", reviewer, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)
	author := bearerToken(t, "author_1", models.RoleLearner)

	w := doRequest(router, http.MethodPost, "/api/suggestions", author, suggestionBody("thread_1"))
	require.Equal(t, http.StatusCreated, w.Code)

	// Users may export their own data.
	w = doRequest(router, http.MethodGet, "/api/users/author_1/export", author, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Suggestions map[string]models.ExportedSuggestion `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Suggestions, 1)
	_, ok := resp.Suggestions["thread_1"]
	assert.True(t, ok)

	// But not another user's.
	other := bearerToken(t, "someone_else", models.RoleLearner)
	w = doRequest(router, http.MethodGet, "/api/users/author_1/export", other, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Moderators can.
	moderator := bearerToken(t, "mod_1", models.RoleModerator)
	w = doRequest(router, http.MethodGet, "/api/users/author_1/export", moderator, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
