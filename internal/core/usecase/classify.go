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

// ClassifyDocumentUseCase consumes document.uploaded, classifies the
// extracted text and advances the document into the pipeline.
type ClassifyDocumentUseCase struct {
	repo       ports.DocumentRepository
	classifier ports.DocumentClassifier
	bus        ports.EventBus
}

func NewClassifyDocumentUseCase(
	repo ports.DocumentRepository,
	classifier ports.DocumentClassifier,
	bus ports.EventBus,
) *ClassifyDocumentUseCase {
	return &ClassifyDocumentUseCase{
		repo:       repo,
		classifier: classifier,
		bus:        bus,
	}
}

func (uc *ClassifyDocumentUseCase) HandleEvent(ctx context.Context, data []byte) error {
	var event domain.DocumentUploadedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "decode uploaded event", err)
	}
	return uc.ClassifyByID(ctx, event.DocumentID)
}

func (uc *ClassifyDocumentUseCase) ClassifyByID(ctx context.Context, documentID string) error {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("fetch document by id: %w", err)
	}

	// Redundant delivery: the stage already ran, or the document moved on.
	if doc.Classification != nil || !domain.CanTransition(doc.Status, domain.StatusProcessing) {
		slog.Info("classification_skipped", "document_id", documentID, "status", doc.Status)
		return nil
	}

	cls, err := uc.classifier.Classify(ctx, doc.DocumentType, doc.ExtractedText)
	if err != nil {
		return failDocument(ctx, uc.repo, documentID, doc.Status, fmt.Errorf("classify document: %w", err))
	}

	if err := uc.repo.SaveClassification(ctx, documentID, cls); err != nil {
		if domain.IsKind(err, domain.ErrConflict) {
			slog.Info("classification_lost_race", "document_id", documentID)
			return nil
		}
		return fmt.Errorf("save classification: %w", err)
	}

	event := domain.DocumentClassifiedEvent{
		DocumentID:     documentID,
		DocumentType:   doc.DocumentType,
		Classification: cls,
		EmittedAt:      time.Now().UTC(),
	}
	if err := uc.bus.Publish(ctx, domain.TopicDocumentClassified, event); err != nil {
		return fmt.Errorf("publish classified event: %w", err)
	}
	return nil
}
