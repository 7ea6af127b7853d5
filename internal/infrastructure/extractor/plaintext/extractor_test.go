package plaintext

import (
	"testing"

	"github.com/akulagin/docflow/internal/core/domain"
)

func TestExtractTrimsWhitespace(t *testing.T) {
	e := NewExtractor()

	got, err := e.Extract("notes.txt", []byte("  hello world \n\n"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "hello world" {
		t.Errorf("got %q", got)
	}
}

func TestExtractEmptyYieldsEmptyString(t *testing.T) {
	e := NewExtractor()

	got, err := e.Extract("empty.txt", []byte("   \n\t"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestExtractRejectsBinaryContent(t *testing.T) {
	e := NewExtractor()

	_, err := e.Extract("image.txt", []byte{0xff, 0xfe, 0x00, 0x80})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("error = %v, want invalid input", err)
	}
}
