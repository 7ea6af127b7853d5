package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/akulagin/docflow/internal/core/domain"
)

func TestFailDocumentMarksNonTerminalDocument(t *testing.T) {
	repo := newFakeRepo(&domain.Document{ID: "doc_1", Status: domain.StatusProcessing})
	cause := errors.New("summarizer exploded")

	err := failDocument(context.Background(), repo, "doc_1", domain.StatusProcessing, cause)
	if !errors.Is(err, cause) {
		t.Fatalf("error = %v, want original cause", err)
	}
	if got := repo.stored("doc_1").Status; got != domain.StatusFailed {
		t.Errorf("status = %s, want %s", got, domain.StatusFailed)
	}
	if repo.failReasons["doc_1"] != "summarizer exploded" {
		t.Errorf("fail reason = %q", repo.failReasons["doc_1"])
	}
}

func TestFailDocumentBubblesTemporaryErrors(t *testing.T) {
	repo := newFakeRepo(&domain.Document{ID: "doc_1", Status: domain.StatusProcessing})
	cause := domain.WrapError(domain.ErrTemporary, "call model", errors.New("timeout"))

	err := failDocument(context.Background(), repo, "doc_1", domain.StatusProcessing, cause)
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("error = %v, want temporary", err)
	}
	if got := repo.stored("doc_1").Status; got != domain.StatusProcessing {
		t.Errorf("status = %s, temporary failure must not mark the document", got)
	}
}

func TestFailDocumentSkipsSettledDocuments(t *testing.T) {
	for _, status := range domain.TerminalStatuses() {
		repo := newFakeRepo(&domain.Document{ID: "doc_1", Status: status})
		repo.markFailedErr = errors.New("must not be called")
		cause := errors.New("late stage failure")

		err := failDocument(context.Background(), repo, "doc_1", status, cause)
		if err != cause {
			t.Fatalf("status %s: error = %v, want original cause untouched", status, err)
		}
		if got := repo.stored("doc_1").Status; got != status {
			t.Errorf("status %s changed to %s", status, got)
		}
	}
}
