package httpadapter

import (
	"errors"
	"net/http"

	"github.com/kirillkom/docstudio/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrNoActiveInput), domain.IsKind(err, domain.ErrRequestInFlight):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrRemoteRejected):
		return http.StatusBadGateway
	case domain.IsKind(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTemporary), domain.IsKind(err, domain.ErrPreviewUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage returns what the client sees. Backend rejections carry their
// own wording, which is passed through unchanged.
func errorMessage(err error) string {
	var remote *domain.RemoteError
	if errors.As(err, &remote) {
		return remote.Message
	}
	return err.Error()
}
