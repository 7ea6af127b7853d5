package usecase

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/akulagin/docflow/internal/core/domain"
	"github.com/akulagin/docflow/internal/core/ports"
)

const DefaultUploadMaxBytes = 10 * 1024 * 1024

type IngestDocumentUseCase struct {
	repo      ports.DocumentRepository
	storage   ports.ObjectStorage
	bus       ports.EventBus
	extractor ports.TextExtractor

	maxFileBytes int64
	now          func() time.Time
}

func NewIngestDocumentUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	bus ports.EventBus,
	extractor ports.TextExtractor,
	maxFileBytes int64,
) *IngestDocumentUseCase {
	if maxFileBytes <= 0 {
		maxFileBytes = DefaultUploadMaxBytes
	}
	return &IngestDocumentUseCase{
		repo:         repo,
		storage:      storage,
		bus:          bus,
		extractor:    extractor,
		maxFileBytes: maxFileBytes,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// UploadText ingests a document submitted as plain text in the request body.
func (uc *IngestDocumentUseCase) UploadText(
	ctx context.Context,
	filename, documentType, content string,
) (*domain.Document, error) {
	filename = strings.TrimSpace(filename)
	documentType = strings.TrimSpace(documentType)
	if filename == "" || documentType == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload document",
			errors.New("missing filename or document_type"))
	}
	if !domain.IsKnownDocumentType(documentType) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload document",
			fmt.Errorf("unknown document_type %q", documentType))
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload document",
			errors.New("missing document content"))
	}

	doc := &domain.Document{
		ID:            newDocumentID(),
		Filename:      filename,
		DocumentType:  documentType,
		Status:        domain.StatusUploaded,
		ExtractedText: content,
		UploadedAt:    uc.now(),
	}
	return uc.persistAndPublish(ctx, doc)
}

// UploadFile ingests a base64-encoded file. Plain-text files only; decoded
// size is capped. Each rejection reason is reported distinctly.
func (uc *IngestDocumentUseCase) UploadFile(
	ctx context.Context,
	filename, documentType, base64Data string,
) (*domain.Document, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" || strings.TrimSpace(base64Data) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload file",
			errors.New("missing filename or file_data"))
	}
	documentType = strings.TrimSpace(documentType)
	if documentType == "" {
		documentType = domain.TypeGeneral
	}
	if !domain.IsKnownDocumentType(documentType) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload file",
			fmt.Errorf("unknown document_type %q", documentType))
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext != "txt" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload file",
			fmt.Errorf("unsupported file type %q: only txt files are accepted", ext))
	}

	raw, err := base64.StdEncoding.DecodeString(base64Data)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload file",
			errors.New("invalid base64 data"))
	}
	if int64(len(raw)) > uc.maxFileBytes {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload file",
			fmt.Errorf("file too large: maximum size is %d bytes", uc.maxFileBytes))
	}

	text, err := uc.extractor.Extract(filename, raw)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload file",
			errors.New("no text content found in file"))
	}

	id := newDocumentID()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	if err := uc.storage.Save(ctx, storageKey, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	doc := &domain.Document{
		ID:            id,
		Filename:      filename,
		DocumentType:  documentType,
		Status:        domain.StatusUploaded,
		StoragePath:   storageKey,
		FileType:      ext,
		FileSize:      int64(len(raw)),
		ExtractedText: text,
		UploadedAt:    uc.now(),
	}
	return uc.persistAndPublish(ctx, doc)
}

func (uc *IngestDocumentUseCase) persistAndPublish(ctx context.Context, doc *domain.Document) (*domain.Document, error) {
	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document record: %w", err)
	}

	// Published only after the record is durably committed so downstream
	// stages always observe the ingested state.
	event := domain.DocumentUploadedEvent{
		DocumentID:   doc.ID,
		DocumentType: doc.DocumentType,
		Filename:     doc.Filename,
		EmittedAt:    uc.now(),
	}
	if err := uc.bus.Publish(ctx, domain.TopicDocumentUploaded, event); err != nil {
		return nil, fmt.Errorf("publish ingestion event: %w", err)
	}
	return doc, nil
}

func newDocumentID() string {
	raw := uuid.New()
	return fmt.Sprintf("doc_%x", raw[:6])
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "document.txt"
	}
	return base
}
