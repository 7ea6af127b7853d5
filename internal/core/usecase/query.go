package usecase

import (
	"context"
	"log/slog"

	"github.com/akulagin/docflow/internal/core/domain"
	"github.com/akulagin/docflow/internal/core/ports"
)

// QueryDocumentsUseCase serves the read side of the API.
type QueryDocumentsUseCase struct {
	repo ports.DocumentRepository
}

func NewQueryDocumentsUseCase(repo ports.DocumentRepository) *QueryDocumentsUseCase {
	return &QueryDocumentsUseCase{repo: repo}
}

func (uc *QueryDocumentsUseCase) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	return uc.repo.GetByID(ctx, id)
}

func (uc *QueryDocumentsUseCase) List(ctx context.Context, status domain.DocumentStatus, limit int) ([]domain.Document, error) {
	return uc.repo.List(ctx, status, limit)
}

func (uc *QueryDocumentsUseCase) ListPendingReview(ctx context.Context) ([]domain.Document, error) {
	return uc.repo.ListPendingReview(ctx)
}

// RemoveDocumentUseCase deletes document records. The raw upload in object
// storage is left behind for audit; only the workflow record goes away.
type RemoveDocumentUseCase struct {
	repo ports.DocumentRepository
}

func NewRemoveDocumentUseCase(repo ports.DocumentRepository) *RemoveDocumentUseCase {
	return &RemoveDocumentUseCase{repo: repo}
}

func (uc *RemoveDocumentUseCase) Delete(ctx context.Context, id string) error {
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("document_deleted", slog.String("document_id", id))
	return nil
}
