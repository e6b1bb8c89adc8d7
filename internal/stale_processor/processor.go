package stale_processor

import (
	"context"
	"time"

	"suggestions-backend/internal/models"
	"suggestions-backend/internal/service"

	"go.uber.org/zap"
)

// FeedbackPoster posts messages to the feedback thread linked to a
// suggestion.
type FeedbackPoster interface {
	PostMessage(ctx context.Context, threadID, authorID, text string) error
}

// Processor periodically auto-accepts suggestions that went stale in review.
// Reviewers abandoning a suggestion should not block its author indefinitely.
type Processor struct {
	suggestionService service.SuggestionService
	feedbackClient    FeedbackPoster
	reviewerID        string
	thresholdDays     int
	sweepInterval     time.Duration
	logger            *zap.Logger
}

// NewProcessor creates a stale-suggestion processor. reviewerID is the bot
// user the auto-acceptance is attributed to; feedbackClient may be nil, in
// which case no thread message is posted.
func NewProcessor(
	suggestionService service.SuggestionService,
	feedbackClient FeedbackPoster,
	reviewerID string,
	thresholdDays int,
	sweepInterval time.Duration,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		suggestionService: suggestionService,
		feedbackClient:    feedbackClient,
		reviewerID:        reviewerID,
		thresholdDays:     thresholdDays,
		sweepInterval:     sweepInterval,
		logger:            logger,
	}
}

// Run starts the periodic sweep until ctx is cancelled.
func (p *Processor) Run(ctx context.Context) {
	p.logger.Info("Stale suggestion processor started.",
		zap.Int("threshold_days", p.thresholdDays),
		zap.Duration("sweep_interval", p.sweepInterval))

	ticker := time.NewTicker(p.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Stale suggestion processor stopped.")
			return
		case <-ticker.C:
			p.Sweep(ctx)
		}
	}
}

// Sweep accepts every currently stale in-review suggestion and posts the
// default acceptance message to its feedback thread.
func (p *Processor) Sweep(ctx context.Context) {
	stale, err := p.suggestionService.GetAllStaleSuggestions()
	if err != nil {
		p.logger.Error("Failed to list stale suggestions", zap.Error(err))
		return
	}

	if len(stale) == 0 {
		return
	}

	p.logger.Info("Auto-accepting stale suggestions", zap.Int("count", len(stale)))
	message := models.DefaultAcceptMessage(p.thresholdDays)

	for _, suggestion := range stale {
		if _, err := p.suggestionService.AcceptSuggestion(suggestion.ID, p.reviewerID); err != nil {
			p.logger.Error("Failed to auto-accept stale suggestion",
				zap.String("id", suggestion.ID), zap.Error(err))
			continue
		}

		if p.feedbackClient != nil {
			if err := p.feedbackClient.PostMessage(ctx, suggestion.ID, p.reviewerID, message); err != nil {
				p.logger.Error("Failed to post auto-accept message",
					zap.String("thread_id", suggestion.ID), zap.Error(err))
			}
		}
	}
}
