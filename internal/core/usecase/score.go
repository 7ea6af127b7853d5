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

// ScoreDocumentUseCase consumes document.summarized, computes the risk
// score and routes the document: low risk is approved automatically,
// everything else waits for the review gate.
type ScoreDocumentUseCase struct {
	repo     ports.DocumentRepository
	assessor ports.RiskAssessor
	bus      ports.EventBus

	now func() time.Time
}

func NewScoreDocumentUseCase(
	repo ports.DocumentRepository,
	assessor ports.RiskAssessor,
	bus ports.EventBus,
) *ScoreDocumentUseCase {
	return &ScoreDocumentUseCase{
		repo:     repo,
		assessor: assessor,
		bus:      bus,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (uc *ScoreDocumentUseCase) HandleEvent(ctx context.Context, data []byte) error {
	var event domain.DocumentSummarizedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "decode summarized event", err)
	}
	return uc.ScoreByID(ctx, event.DocumentID)
}

func (uc *ScoreDocumentUseCase) ScoreByID(ctx context.Context, documentID string) error {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("fetch document by id: %w", err)
	}

	if doc.RiskScore != nil || doc.Status != domain.StatusProcessing {
		slog.Info("risk_scoring_skipped", "document_id", documentID, "status", doc.Status)
		return nil
	}

	var cls domain.Classification
	if doc.Classification != nil {
		cls = *doc.Classification
	}

	assessment, err := uc.assessor.Assess(ctx, doc.DocumentType, doc.AISummary, cls)
	if err != nil {
		return failDocument(ctx, uc.repo, documentID, doc.Status, fmt.Errorf("assess document risk: %w", err))
	}

	score := ComputeRiskScore(doc, assessment)
	result := routeByScore(score, assessment, uc.now())

	if err := domain.Transition(doc.Status, result.Status); err != nil {
		return fmt.Errorf("route risk result: %w", err)
	}
	if err := uc.repo.ApplyRiskResult(ctx, documentID, result); err != nil {
		if domain.IsKind(err, domain.ErrConflict) {
			slog.Info("risk_scoring_lost_race", "document_id", documentID)
			return nil
		}
		return fmt.Errorf("apply risk result: %w", err)
	}

	slog.Info("risk_score_committed",
		"document_id", documentID,
		"score", score,
		"level", assessment.RiskLevel,
		"status", result.Status,
	)

	if result.Status != domain.StatusApproved {
		// The document now waits at the review gate; no event until a
		// human decides.
		return nil
	}

	event := domain.DocumentAutodecidedEvent{
		DocumentID: documentID,
		RiskScore:  score,
		Status:     result.Status,
		EmittedAt:  uc.now(),
	}
	if err := uc.bus.Publish(ctx, domain.TopicDocumentAutodecided, event); err != nil {
		return fmt.Errorf("publish autodecided event: %w", err)
	}
	return nil
}
