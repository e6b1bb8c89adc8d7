package handler

import (
	"errors"
	"net/http"

	"suggestions-backend/internal/models"
	"suggestions-backend/internal/repository"
	"suggestions-backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SuggestionHandler interface {
	CreateSuggestion(c *gin.Context)
	GetSuggestion(c *gin.Context)
	AcceptSuggestion(c *gin.Context)
	RejectSuggestion(c *gin.Context)
	QuerySuggestions(c *gin.Context)
	GetReviewableByCategory(c *gin.Context)
	GetReviewableByType(c *gin.Context)
	GetAuthoredSuggestions(c *gin.Context)
	ListScoreCategories(c *gin.Context)
	ExportUserData(c *gin.Context)
}

type suggestionHandler struct {
	suggestionService service.SuggestionService
	queryService      service.QueryService
	exportService     service.ExportService
	logger            *zap.Logger
}

func NewSuggestionHandler(
	suggestionService service.SuggestionService,
	queryService service.QueryService,
	exportService service.ExportService,
	logger *zap.Logger,
) SuggestionHandler {
	return &suggestionHandler{
		suggestionService: suggestionService,
		queryService:      queryService,
		exportService:     exportService,
		logger:            logger,
	}
}

// CreateSuggestion creates a new suggestion, keyed by its feedback thread ID.
func (h *suggestionHandler) CreateSuggestion(c *gin.Context) {
	var input models.CreateSuggestionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	suggestion, err := h.suggestionService.CreateSuggestion(input)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateID):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, models.ErrInvalidChoice),
			errors.Is(err, models.ErrMalformedScoreCategory),
			errors.Is(err, models.ErrNonPositiveTargetVersion):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.Error("Failed to create suggestion", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create suggestion"})
		}
		return
	}

	c.JSON(http.StatusCreated, suggestion)
}

func (h *suggestionHandler) GetSuggestion(c *gin.Context) {
	suggestion, err := h.suggestionService.GetSuggestionByID(c.Param("id"))
	if err != nil {
		h.logger.Error("Failed to get suggestion", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get suggestion"})
		return
	}
	if suggestion == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Suggestion not found"})
		return
	}

	c.JSON(http.StatusOK, suggestion)
}

// reviewTransition runs the shared accept/reject flow: the caller must meet
// the minimum role threshold for the suggestion's type.
func (h *suggestionHandler) reviewTransition(c *gin.Context, transition func(id, reviewerID string) (*models.Suggestion, error)) {
	id := c.Param("id")
	reviewerID := c.MustGet("user_id").(string)
	role := c.MustGet("role").(string)

	suggestion, err := h.suggestionService.GetSuggestionByID(id)
	if err != nil {
		h.logger.Error("Failed to get suggestion", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get suggestion"})
		return
	}
	if suggestion == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Suggestion not found"})
		return
	}

	if !models.CanReview(role, suggestion.SuggestionType) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient role to review this suggestion type"})
		return
	}

	updated, err := transition(id, reviewerID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrSuggestionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrNotInReview):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			h.logger.Error("Failed to update suggestion status", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update suggestion"})
		}
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (h *suggestionHandler) AcceptSuggestion(c *gin.Context) {
	h.reviewTransition(c, h.suggestionService.AcceptSuggestion)
}

func (h *suggestionHandler) RejectSuggestion(c *gin.Context) {
	h.reviewTransition(c, h.suggestionService.RejectSuggestion)
}

// QuerySuggestions answers the bounded ad-hoc query. Every query parameter
// must name an allow-listed field; anything else fails the whole query.
func (h *suggestionHandler) QuerySuggestions(c *gin.Context) {
	var filters []models.QueryFilter
	for field, values := range c.Request.URL.Query() {
		for _, value := range values {
			filters = append(filters, models.QueryFilter{Field: field, Value: value})
		}
	}

	suggestions, err := h.queryService.Query(filters)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidQueryField) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to query suggestions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query suggestions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

// GetReviewableByCategory lists in-review suggestions in the caller's
// reviewable score categories, excluding the caller's own.
func (h *suggestionHandler) GetReviewableByCategory(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	categories := c.QueryArray("score_category")

	suggestions, err := h.queryService.GetReviewableByCategory(categories, userID)
	if err != nil {
		if errors.Is(err, repository.ErrEmptyScoreCategories) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to query reviewable suggestions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query reviewable suggestions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

// GetReviewableByType lists in-review suggestions of one type, excluding the
// caller's own.
func (h *suggestionHandler) GetReviewableByType(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	suggestionType := models.SuggestionType(c.Param("suggestion_type"))

	suggestions, err := h.queryService.GetReviewableByType(suggestionType, userID)
	if err != nil {
		if errors.Is(err, models.ErrInvalidChoice) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to query reviewable suggestions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query reviewable suggestions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

// GetAuthoredSuggestions lists the caller's own open suggestions of one type.
func (h *suggestionHandler) GetAuthoredSuggestions(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	suggestionType := models.SuggestionType(c.Query("suggestion_type"))

	suggestions, err := h.queryService.GetAuthoredBy(suggestionType, userID)
	if err != nil {
		if errors.Is(err, models.ErrInvalidChoice) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to query authored suggestions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query authored suggestions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

func (h *suggestionHandler) ListScoreCategories(c *gin.Context) {
	categories, err := h.queryService.ListDistinctScoreCategories()
	if err != nil {
		h.logger.Error("Failed to list score categories", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list score categories"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"score_categories": categories})
}

// ExportUserData returns the takeout export for a user. Users can export
// their own data; moderators and admins can export anyone's.
func (h *suggestionHandler) ExportUserData(c *gin.Context) {
	callerID := c.MustGet("user_id").(string)
	role := c.MustGet("role").(string)
	userID := c.Param("user_id")

	if userID != callerID && role != models.RoleModerator && role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Cannot export another user's data"})
		return
	}

	export, err := h.exportService.ExportForUser(userID)
	if err != nil {
		h.logger.Error("Failed to export user data", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export user data"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": export})
}
