package plaintext

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/akulagin/docflow/internal/core/domain"
)

// Extractor produces plain text from uploaded bytes. Binary formats are
// out of scope; anything that is not valid UTF-8 is rejected.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(filename string, raw []byte) (string, error) {
	if !utf8.Valid(raw) {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract text",
			fmt.Errorf("unsupported binary content in %s", filename))
	}
	return strings.TrimSpace(string(raw)), nil
}
