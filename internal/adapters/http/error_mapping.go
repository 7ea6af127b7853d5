package httpadapter

import (
	"net/http"

	"github.com/akulagin/docflow/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrDocumentNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrConflict):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage keeps failure bodies to one line and never leaks internal
// detail for server-side failures.
func errorMessage(err error, status int) string {
	switch {
	case status == http.StatusServiceUnavailable:
		return "service temporarily unavailable"
	case status >= 500:
		return "internal server error"
	default:
		return err.Error()
	}
}
