package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/akulagin/docflow/internal/core/domain"
)

func processingDoc(id string) *domain.Document {
	return &domain.Document{
		ID:            id,
		Filename:      "grant.txt",
		DocumentType:  domain.TypeGrantApplication,
		Status:        domain.StatusProcessing,
		ExtractedText: "Grant application for a community garden.",
		Classification: &domain.Classification{
			DocumentCategory:  "grant",
			Confidence:        0.9,
			CompletenessScore: 0.7,
		},
	}
}

func TestSummarizePersistsSummaryAndPublishes(t *testing.T) {
	repo := newFakeRepo(processingDoc("doc_2"))
	bus := &fakeBus{}
	summarizer := &fakeSummarizer{summary: "Community garden funding request."}
	uc := NewSummarizeDocumentUseCase(repo, summarizer, bus)

	payload, _ := json.Marshal(domain.DocumentClassifiedEvent{DocumentID: "doc_2"})
	if err := uc.HandleEvent(context.Background(), payload); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	stored := repo.stored("doc_2")
	if stored.AISummary != "Community garden funding request." {
		t.Errorf("summary = %q", stored.AISummary)
	}
	if stored.Status != domain.StatusProcessing {
		t.Errorf("status = %s, summarization must not change status", stored.Status)
	}

	events := bus.events()
	if len(events) != 1 || events[0].topic != domain.TopicDocumentSummarized {
		t.Fatalf("events = %+v, want one summarized event", events)
	}
	event := events[0].event.(domain.DocumentSummarizedEvent)
	if event.Summary != "Community garden funding request." {
		t.Errorf("event summary = %q", event.Summary)
	}
}

func TestSummarizeSkipsWhenAlreadySummarized(t *testing.T) {
	doc := processingDoc("doc_2")
	doc.AISummary = "already there"
	repo := newFakeRepo(doc)
	summarizer := &fakeSummarizer{}
	uc := NewSummarizeDocumentUseCase(repo, summarizer, &fakeBus{})

	if err := uc.SummarizeByID(context.Background(), "doc_2"); err != nil {
		t.Fatalf("SummarizeByID: %v", err)
	}
	if summarizer.calls != 0 {
		t.Error("summarizer must not run again")
	}
}

func TestSummarizeSkipsWrongStatus(t *testing.T) {
	doc := processingDoc("doc_2")
	doc.Status = domain.StatusFailed
	repo := newFakeRepo(doc)
	uc := NewSummarizeDocumentUseCase(repo, &fakeSummarizer{summary: "s"}, &fakeBus{})

	if err := uc.SummarizeByID(context.Background(), "doc_2"); err != nil {
		t.Fatalf("SummarizeByID: %v", err)
	}
	if repo.stored("doc_2").AISummary != "" {
		t.Error("failed document must not gain a summary")
	}
}

func TestSummarizeFatalFailureMarksDocumentFailed(t *testing.T) {
	repo := newFakeRepo(processingDoc("doc_2"))
	uc := NewSummarizeDocumentUseCase(repo, &fakeSummarizer{err: errors.New("bad prompt")}, &fakeBus{})

	if err := uc.SummarizeByID(context.Background(), "doc_2"); err == nil {
		t.Fatal("expected error")
	}
	if repo.stored("doc_2").Status != domain.StatusFailed {
		t.Error("document must be marked failed")
	}
}
