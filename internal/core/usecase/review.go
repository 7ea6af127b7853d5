package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/akulagin/docflow/internal/core/domain"
	"github.com/akulagin/docflow/internal/core/ports"
)

const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// ReviewDocumentUseCase is the review gate: it admits human decisions for
// PENDING_REVIEW documents and finalizes their disposition.
type ReviewDocumentUseCase struct {
	repo ports.DocumentRepository
	bus  ports.EventBus

	now func() time.Time
}

func NewReviewDocumentUseCase(repo ports.DocumentRepository, bus ports.EventBus) *ReviewDocumentUseCase {
	return &ReviewDocumentUseCase{
		repo: repo,
		bus:  bus,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (uc *ReviewDocumentUseCase) Review(
	ctx context.Context,
	id, decision, reviewerName, comments string,
) (*domain.Document, error) {
	var target domain.DocumentStatus
	switch decision {
	case DecisionApprove:
		target = domain.StatusApproved
	case DecisionReject:
		target = domain.StatusRejected
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "review document",
			fmt.Errorf("invalid decision %q: must be %q or %q", decision, DecisionApprove, DecisionReject))
	}

	doc, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Re-applying the same terminal decision is a harmless duplicate;
	// anything else must not flip a settled disposition.
	if doc.Status == target {
		return doc, nil
	}
	if doc.Status != domain.StatusPendingReview {
		return nil, domain.WrapError(domain.ErrConflict, "review document",
			fmt.Errorf("document %s is %s, not %s", id, doc.Status, domain.StatusPendingReview))
	}
	if err := domain.Transition(doc.Status, target); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(reviewerName)
	if name == "" {
		name = "Unknown"
	}
	note := strings.TrimSpace(comments)
	if note == "" {
		note = "No comments provided."
	}
	comment := fmt.Sprintf("Human review by %s: %s. %s", name, strings.ToUpper(decision), note)

	decidedAt := uc.now()
	if err := uc.repo.FinalizeReview(ctx, id, target, comment, decidedAt); err != nil {
		if domain.IsKind(err, domain.ErrConflict) {
			// Lost a race with another delivery of a decision. Same outcome
			// is a no-op; a different one is a real conflict.
			current, getErr := uc.repo.GetByID(ctx, id)
			if getErr == nil && current.Status == target {
				return current, nil
			}
			return nil, err
		}
		return nil, err
	}

	doc.Status = target
	doc.ReviewerComments = comment
	doc.ApprovedAt = &decidedAt

	event := domain.DocumentReviewedEvent{
		DocumentID:   id,
		Decision:     decision,
		ReviewerName: name,
		Comments:     note,
		Status:       target,
		EmittedAt:    decidedAt,
	}
	if err := uc.bus.Publish(ctx, domain.TopicDocumentReviewed, event); err != nil {
		return nil, fmt.Errorf("publish reviewed event: %w", err)
	}
	return doc, nil
}
