package ports

import (
	"context"
	"io"
	"time"

	"github.com/akulagin/docflow/internal/core/domain"
)

// DocumentRepository persists and reads document state. The conditional
// Save/Apply/Finalize methods advance a document only when its current
// status (and stage field) still match the stage's precondition; losing
// that race surfaces as a conflict, which duplicate deliveries treat as
// already-done.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	List(ctx context.Context, status domain.DocumentStatus, limit int) ([]domain.Document, error)
	ListPendingReview(ctx context.Context) ([]domain.Document, error)
	Delete(ctx context.Context, id string) error

	// SaveClassification stores the classification result and advances
	// UPLOADED -> PROCESSING.
	SaveClassification(ctx context.Context, id string, cls domain.Classification) error
	// SaveSummary stores the summary for a PROCESSING document without one.
	SaveSummary(ctx context.Context, id string, summary string) error
	// ApplyRiskResult stores the score and routes PROCESSING -> APPROVED
	// or PROCESSING -> PENDING_REVIEW.
	ApplyRiskResult(ctx context.Context, id string, result domain.RiskResult) error
	// FinalizeReview applies a human decision to a PENDING_REVIEW document.
	FinalizeReview(ctx context.Context, id string, status domain.DocumentStatus, comment string, decidedAt time.Time) error
	// MarkFailed moves any non-terminal document to FAILED with a reason.
	MarkFailed(ctx context.Context, id string, reason string) error
}

// ObjectStorage stores raw uploaded bytes.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// EventBus carries per-document pipeline events. Delivery is at-least-once;
// handlers must tolerate duplicate invocations.
type EventBus interface {
	Publish(ctx context.Context, topic string, event any) error
	Subscribe(topic string, handler EventHandler) error
}

type EventHandler func(ctx context.Context, data []byte) error

// TextExtractor turns raw uploaded bytes into plain text.
type TextExtractor interface {
	Extract(filename string, raw []byte) (string, error)
}

// DocumentClassifier is the external classification capability.
type DocumentClassifier interface {
	Classify(ctx context.Context, documentType, text string) (domain.Classification, error)
}

// Summarizer is the external summarization capability.
type Summarizer interface {
	Summarize(ctx context.Context, documentType, text string, cls domain.Classification) (string, error)
}

// RiskAssessor produces the AI-derived risk signal.
type RiskAssessor interface {
	Assess(ctx context.Context, documentType, summary string, cls domain.Classification) (domain.RiskAssessment, error)
}
