package nats

import (
	"context"
	"errors"
	"testing"

	"github.com/nats-io/nats.go"

	"github.com/akulagin/docflow/internal/core/domain"
)

func TestClassifyNATSError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantRetryable bool
	}{
		{"no servers", nats.ErrNoServers, true},
		{"timeout", nats.ErrTimeout, true},
		{"connection closed", nats.ErrConnectionClosed, true},
		{"context canceled", context.Canceled, false},
		{"marshal failure", errors.New("json: unsupported type"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			class := classifyNATSError(tt.err)
			if class.Retryable != tt.wantRetryable {
				t.Errorf("Retryable = %v, want %v", class.Retryable, tt.wantRetryable)
			}
		})
	}
}

func TestClassifyHandlerErrorOnlyRetriesTemporary(t *testing.T) {
	temporary := domain.WrapError(domain.ErrTemporary, "classify", errors.New("rate limited"))
	if !classifyHandlerError(temporary).Retryable {
		t.Error("temporary handler failures must be retryable")
	}

	fatal := errors.New("document malformed")
	if classifyHandlerError(fatal).Retryable {
		t.Error("fatal handler failures must not be retried")
	}

	if classifyHandlerError(context.Canceled).Retryable {
		t.Error("cancellation must not be retried")
	}
}

func TestWrapTemporaryIfNeeded(t *testing.T) {
	wrapped := wrapTemporaryIfNeeded("document.uploaded", nats.ErrTimeout)
	if !domain.IsKind(wrapped, domain.ErrTemporary) {
		t.Errorf("timeout should surface as temporary, got %v", wrapped)
	}

	fatal := errors.New("marshal failed")
	if domain.IsKind(wrapTemporaryIfNeeded("document.uploaded", fatal), domain.ErrTemporary) {
		t.Error("non-retryable errors must keep their kind")
	}

	already := domain.WrapError(domain.ErrTemporary, "publish", nats.ErrTimeout)
	if wrapTemporaryIfNeeded("document.uploaded", already) != already {
		t.Error("already-temporary errors must pass through unchanged")
	}
}
