package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/akulagin/docflow/internal/core/domain"
	"github.com/akulagin/docflow/internal/core/ports"
)

// SummarizeDocumentUseCase consumes document.classified and attaches the AI
// summary. Status stays PROCESSING; risk scoring owns the next transition.
type SummarizeDocumentUseCase struct {
	repo       ports.DocumentRepository
	summarizer ports.Summarizer
	bus        ports.EventBus
}

func NewSummarizeDocumentUseCase(
	repo ports.DocumentRepository,
	summarizer ports.Summarizer,
	bus ports.EventBus,
) *SummarizeDocumentUseCase {
	return &SummarizeDocumentUseCase{
		repo:       repo,
		summarizer: summarizer,
		bus:        bus,
	}
}

func (uc *SummarizeDocumentUseCase) HandleEvent(ctx context.Context, data []byte) error {
	var event domain.DocumentClassifiedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "decode classified event", err)
	}
	return uc.SummarizeByID(ctx, event.DocumentID)
}

func (uc *SummarizeDocumentUseCase) SummarizeByID(ctx context.Context, documentID string) error {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("fetch document by id: %w", err)
	}

	if doc.AISummary != "" || doc.Status != domain.StatusProcessing {
		slog.Info("summarization_skipped", "document_id", documentID, "status", doc.Status)
		return nil
	}

	// The causal chain guarantees classification is visible here.
	var cls domain.Classification
	if doc.Classification != nil {
		cls = *doc.Classification
	}

	summary, err := uc.summarizer.Summarize(ctx, doc.DocumentType, doc.ExtractedText, cls)
	if err != nil {
		return failDocument(ctx, uc.repo, documentID, doc.Status, fmt.Errorf("summarize document: %w", err))
	}

	if err := uc.repo.SaveSummary(ctx, documentID, summary); err != nil {
		if domain.IsKind(err, domain.ErrConflict) {
			slog.Info("summarization_lost_race", "document_id", documentID)
			return nil
		}
		return fmt.Errorf("save summary: %w", err)
	}

	event := domain.DocumentSummarizedEvent{
		DocumentID:   documentID,
		DocumentType: doc.DocumentType,
		Summary:      summary,
		EmittedAt:    time.Now().UTC(),
	}
	if err := uc.bus.Publish(ctx, domain.TopicDocumentSummarized, event); err != nil {
		return fmt.Errorf("publish summarized event: %w", err)
	}
	return nil
}
