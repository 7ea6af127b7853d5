package domain

import "time"

// Event bus topics. Each document's pipeline forms a causal chain across
// these topics: an event is published only after the stage's state mutation
// is committed to the store.
const (
	TopicDocumentUploaded    = "document.uploaded"
	TopicDocumentClassified  = "document.classified"
	TopicDocumentSummarized  = "document.summarized"
	TopicDocumentAutodecided = "document.autodecided"
	TopicDocumentReviewed    = "document.reviewed"
)

// EmittedAt carries the publish timestamp so consumers can measure how long
// an event sat on the bus before its stage started.

type DocumentUploadedEvent struct {
	DocumentID   string    `json:"document_id"`
	DocumentType string    `json:"document_type"`
	Filename     string    `json:"filename"`
	EmittedAt    time.Time `json:"emitted_at"`
}

type DocumentClassifiedEvent struct {
	DocumentID     string         `json:"document_id"`
	DocumentType   string         `json:"document_type"`
	Classification Classification `json:"classification"`
	EmittedAt      time.Time      `json:"emitted_at"`
}

type DocumentSummarizedEvent struct {
	DocumentID   string    `json:"document_id"`
	DocumentType string    `json:"document_type"`
	Summary      string    `json:"summary"`
	EmittedAt    time.Time `json:"emitted_at"`
}

type DocumentAutodecidedEvent struct {
	DocumentID string         `json:"document_id"`
	RiskScore  int            `json:"risk_score"`
	Status     DocumentStatus `json:"status"`
	EmittedAt  time.Time      `json:"emitted_at"`
}

type DocumentReviewedEvent struct {
	DocumentID   string         `json:"document_id"`
	Decision     string         `json:"decision"`
	ReviewerName string         `json:"reviewer_name"`
	Comments     string         `json:"comments"`
	Status       DocumentStatus `json:"status"`
	EmittedAt    time.Time      `json:"emitted_at"`
}
