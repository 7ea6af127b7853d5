package ports

import (
	"context"

	"github.com/akulagin/docflow/internal/core/domain"
)

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	UploadText(ctx context.Context, filename, documentType, content string) (*domain.Document, error)
	UploadFile(ctx context.Context, filename, documentType, base64Data string) (*domain.Document, error)
}

// DocumentReader is the inbound read model for document metadata/state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	List(ctx context.Context, status domain.DocumentStatus, limit int) ([]domain.Document, error)
	ListPendingReview(ctx context.Context) ([]domain.Document, error)
}

// DocumentReviewer admits human decisions for pending documents.
type DocumentReviewer interface {
	Review(ctx context.Context, id, decision, reviewerName, comments string) (*domain.Document, error)
}

// DocumentRemover is the administrative removal contract.
type DocumentRemover interface {
	Delete(ctx context.Context, id string) error
}

// StageExecutor is the shape shared by the asynchronous pipeline stages.
type StageExecutor interface {
	HandleEvent(ctx context.Context, data []byte) error
}

// StageExecutorFunc adapts a bare handler function to StageExecutor.
type StageExecutorFunc func(ctx context.Context, data []byte) error

func (f StageExecutorFunc) HandleEvent(ctx context.Context, data []byte) error {
	return f(ctx, data)
}
