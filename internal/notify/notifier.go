package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/akulagin/docflow/internal/core/domain"
)

// LogNotifier consumes the terminal pipeline topics and emits a structured
// review-complete notification. Real delivery channels (email, webhooks)
// are collaborators outside this service.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) HandleReviewed(_ context.Context, data []byte) error {
	var event domain.DocumentReviewedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "decode reviewed event", err)
	}

	n.logger.Info("review_complete",
		"document_id", event.DocumentID,
		"decision", event.Decision,
		"reviewer", event.ReviewerName,
		"comments", event.Comments,
		"status", event.Status,
	)
	return nil
}

func (n *LogNotifier) HandleAutodecided(_ context.Context, data []byte) error {
	var event domain.DocumentAutodecidedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "decode autodecided event", err)
	}

	n.logger.Info("auto_decision_complete",
		"document_id", event.DocumentID,
		"risk_score", event.RiskScore,
		"status", event.Status,
	)
	return nil
}
