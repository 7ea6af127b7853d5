package usecase

import (
	"context"
	"fmt"

	"github.com/akulagin/docflow/internal/core/domain"
	"github.com/akulagin/docflow/internal/core/ports"
)

// failDocument converts a stage failure into its terminal effect. Temporary
// failures bubble up untouched so the delivery layer can retry; anything
// else marks the document FAILED with the reason persisted for the reviewer.
func failDocument(ctx context.Context, repo ports.DocumentRepository, id string, current domain.DocumentStatus, err error) error {
	if domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if trErr := domain.Transition(current, domain.StatusFailed); trErr != nil {
		// The document already settled; there is nothing left to fail.
		return err
	}
	if markErr := repo.MarkFailed(ctx, id, err.Error()); markErr != nil {
		return fmt.Errorf("%w; mark failed status: %v", err, markErr)
	}
	return err
}
