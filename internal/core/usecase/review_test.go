package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/akulagin/docflow/internal/core/domain"
)

func pendingDoc(id string) *domain.Document {
	score := 55
	return &domain.Document{
		ID:           id,
		Filename:     "claim.txt",
		DocumentType: domain.TypeInsuranceClaim,
		Status:       domain.StatusPendingReview,
		RiskScore:    &score,
	}
}

func newReviewFixture(docs ...*domain.Document) (*ReviewDocumentUseCase, *fakeRepo, *fakeBus) {
	repo := newFakeRepo(docs...)
	bus := &fakeBus{}
	uc := NewReviewDocumentUseCase(repo, bus)
	uc.now = func() time.Time { return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC) }
	return uc, repo, bus
}

func TestReviewApproveFinalizesDocument(t *testing.T) {
	uc, repo, bus := newReviewFixture(pendingDoc("doc_4"))

	doc, err := uc.Review(context.Background(), "doc_4", DecisionApprove, "Dana Reyes", "Verified against policy records.")
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if doc.Status != domain.StatusApproved {
		t.Errorf("status = %s, want %s", doc.Status, domain.StatusApproved)
	}
	want := "Human review by Dana Reyes: APPROVE. Verified against policy records."
	if doc.ReviewerComments != want {
		t.Errorf("comment = %q, want %q", doc.ReviewerComments, want)
	}
	if doc.ApprovedAt == nil {
		t.Error("approved_at not stamped")
	}

	stored := repo.stored("doc_4")
	if stored.Status != domain.StatusApproved {
		t.Errorf("persisted status = %s", stored.Status)
	}

	events := bus.events()
	if len(events) != 1 || events[0].topic != domain.TopicDocumentReviewed {
		t.Fatalf("events = %+v, want one reviewed event", events)
	}
	event := events[0].event.(domain.DocumentReviewedEvent)
	if event.Decision != DecisionApprove || event.ReviewerName != "Dana Reyes" || event.Status != domain.StatusApproved {
		t.Errorf("unexpected event payload %+v", event)
	}
}

func TestReviewRejectWithDefaults(t *testing.T) {
	uc, repo, _ := newReviewFixture(pendingDoc("doc_4"))

	doc, err := uc.Review(context.Background(), "doc_4", DecisionReject, "", "")
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if doc.Status != domain.StatusRejected {
		t.Errorf("status = %s, want %s", doc.Status, domain.StatusRejected)
	}
	want := "Human review by Unknown: REJECT. No comments provided."
	if repo.stored("doc_4").ReviewerComments != want {
		t.Errorf("comment = %q, want %q", repo.stored("doc_4").ReviewerComments, want)
	}
}

func TestReviewInvalidDecision(t *testing.T) {
	uc, _, bus := newReviewFixture(pendingDoc("doc_4"))

	_, err := uc.Review(context.Background(), "doc_4", "maybe", "Dana", "")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("error = %v, want invalid input", err)
	}
	if len(bus.events()) != 0 {
		t.Error("invalid decision must not publish")
	}
}

func TestReviewUnknownDocument(t *testing.T) {
	uc, _, _ := newReviewFixture()

	_, err := uc.Review(context.Background(), "doc_missing", DecisionApprove, "", "")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("error = %v, want not found", err)
	}
}

func TestReviewRepeatedSameDecisionIsNoOp(t *testing.T) {
	doc := pendingDoc("doc_4")
	doc.Status = domain.StatusApproved
	doc.ReviewerComments = "Human review by Dana Reyes: APPROVE. Looks fine."
	uc, _, bus := newReviewFixture(doc)

	got, err := uc.Review(context.Background(), "doc_4", DecisionApprove, "Dana Reyes", "Looks fine.")
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if got.ReviewerComments != doc.ReviewerComments {
		t.Errorf("repeat decision must not rewrite the comment, got %q", got.ReviewerComments)
	}
	if len(bus.events()) != 0 {
		t.Error("repeat decision must not publish again")
	}
}

func TestReviewConflictingDecisionRejected(t *testing.T) {
	doc := pendingDoc("doc_4")
	doc.Status = domain.StatusApproved
	uc, repo, _ := newReviewFixture(doc)

	_, err := uc.Review(context.Background(), "doc_4", DecisionReject, "Sam", "Changed my mind.")
	if !domain.IsKind(err, domain.ErrConflict) {
		t.Fatalf("error = %v, want conflict", err)
	}
	if repo.stored("doc_4").Status != domain.StatusApproved {
		t.Error("settled disposition must not flip")
	}
}

func TestReviewNotPendingYet(t *testing.T) {
	doc := pendingDoc("doc_4")
	doc.Status = domain.StatusProcessing
	uc, _, _ := newReviewFixture(doc)

	_, err := uc.Review(context.Background(), "doc_4", DecisionApprove, "", "")
	if !domain.IsKind(err, domain.ErrConflict) {
		t.Fatalf("error = %v, want conflict", err)
	}
}
