package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/akulagin/docflow/internal/core/domain"
	"github.com/akulagin/docflow/internal/core/ports"
)

// The asynchronous stages are what the worker binds to bus subscriptions.
var (
	_ ports.StageExecutor = (*ClassifyDocumentUseCase)(nil)
	_ ports.StageExecutor = (*SummarizeDocumentUseCase)(nil)
	_ ports.StageExecutor = (*ScoreDocumentUseCase)(nil)
)

// fakeRepo is an in-memory DocumentRepository enforcing the same
// conditional-update semantics as the SQL implementation.
type fakeRepo struct {
	mu   sync.Mutex
	docs map[string]*domain.Document

	createErr     error
	getErr        error
	markFailedErr error

	failReasons map[string]string
}

func newFakeRepo(docs ...*domain.Document) *fakeRepo {
	repo := &fakeRepo{
		docs:        make(map[string]*domain.Document),
		failReasons: make(map[string]string),
	}
	for _, doc := range docs {
		copied := *doc
		repo.docs[doc.ID] = &copied
	}
	return repo
}

func (r *fakeRepo) Create(_ context.Context, doc *domain.Document) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *doc
	r.docs[doc.ID] = &copied
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*domain.Document, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", errors.New(id))
	}
	copied := *doc
	return &copied, nil
}

func (r *fakeRepo) List(_ context.Context, status domain.DocumentStatus, limit int) ([]domain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Document
	for _, doc := range r.docs {
		if status != "" && doc.Status != status {
			continue
		}
		out = append(out, *doc)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeRepo) ListPendingReview(ctx context.Context) ([]domain.Document, error) {
	return r.List(ctx, domain.StatusPendingReview, 0)
}

func (r *fakeRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[id]; !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "delete document", errors.New(id))
	}
	delete(r.docs, id)
	return nil
}

func (r *fakeRepo) SaveClassification(_ context.Context, id string, cls domain.Classification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "save classification", errors.New(id))
	}
	if doc.Status != domain.StatusUploaded || doc.Classification != nil {
		return domain.WrapError(domain.ErrConflict, "save classification", errors.New(string(doc.Status)))
	}
	doc.Classification = &cls
	doc.Status = domain.StatusProcessing
	return nil
}

func (r *fakeRepo) SaveSummary(_ context.Context, id string, summary string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "save summary", errors.New(id))
	}
	if doc.Status != domain.StatusProcessing || doc.AISummary != "" {
		return domain.WrapError(domain.ErrConflict, "save summary", errors.New(string(doc.Status)))
	}
	doc.AISummary = summary
	return nil
}

func (r *fakeRepo) ApplyRiskResult(_ context.Context, id string, result domain.RiskResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "apply risk result", errors.New(id))
	}
	if doc.Status != domain.StatusProcessing || doc.RiskScore != nil {
		return domain.WrapError(domain.ErrConflict, "apply risk result", errors.New(string(doc.Status)))
	}
	score := result.Score
	doc.RiskScore = &score
	doc.Status = result.Status
	if result.Comment != "" {
		doc.ReviewerComments = result.Comment
	}
	processedAt := result.ProcessedAt
	doc.ProcessedAt = &processedAt
	doc.ApprovedAt = result.ApprovedAt
	return nil
}

func (r *fakeRepo) FinalizeReview(_ context.Context, id string, status domain.DocumentStatus, comment string, decidedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "finalize review", errors.New(id))
	}
	if doc.Status != domain.StatusPendingReview {
		return domain.WrapError(domain.ErrConflict, "finalize review", errors.New(string(doc.Status)))
	}
	doc.Status = status
	doc.ReviewerComments = comment
	doc.ApprovedAt = &decidedAt
	return nil
}

func (r *fakeRepo) MarkFailed(_ context.Context, id string, reason string) error {
	if r.markFailedErr != nil {
		return r.markFailedErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "mark failed", errors.New(id))
	}
	if domain.IsTerminalStatus(doc.Status) {
		return domain.WrapError(domain.ErrConflict, "mark failed", errors.New(string(doc.Status)))
	}
	doc.Status = domain.StatusFailed
	r.failReasons[id] = reason
	return nil
}

func (r *fakeRepo) stored(id string) *domain.Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil
	}
	copied := *doc
	return &copied
}

type publishedEvent struct {
	topic string
	event any
}

type fakeBus struct {
	mu        sync.Mutex
	published []publishedEvent
	pubErr    error
}

func (b *fakeBus) Publish(_ context.Context, topic string, event any) error {
	if b.pubErr != nil {
		return b.pubErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, publishedEvent{topic: topic, event: event})
	return nil
}

func (b *fakeBus) Subscribe(string, ports.EventHandler) error {
	return nil
}

func (b *fakeBus) events() []publishedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]publishedEvent(nil), b.published...)
}

type fakeStorage struct {
	mu      sync.Mutex
	saved   map[string][]byte
	saveErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{saved: make(map[string][]byte)}
}

func (s *fakeStorage) Save(_ context.Context, key string, data io.Reader) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved[key] = raw
	return nil
}

func (s *fakeStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.saved[key]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "open object", errors.New(key))
	}
	return io.NopCloser(strings.NewReader(string(raw))), nil
}

type fakeExtractor struct {
	err error
}

func (e *fakeExtractor) Extract(_ string, raw []byte) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	return strings.TrimSpace(string(raw)), nil
}

type fakeClassifier struct {
	cls   domain.Classification
	err   error
	calls int
}

func (c *fakeClassifier) Classify(context.Context, string, string) (domain.Classification, error) {
	c.calls++
	if c.err != nil {
		return domain.Classification{}, c.err
	}
	return c.cls, nil
}

type fakeSummarizer struct {
	summary string
	err     error
	calls   int
}

func (s *fakeSummarizer) Summarize(context.Context, string, string, domain.Classification) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.summary, nil
}

type fakeAssessor struct {
	assessment domain.RiskAssessment
	err        error
	calls      int
}

func (a *fakeAssessor) Assess(context.Context, string, string, domain.Classification) (domain.RiskAssessment, error) {
	a.calls++
	if a.err != nil {
		return domain.RiskAssessment{}, a.err
	}
	return a.assessment, nil
}
