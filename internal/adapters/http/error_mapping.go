package httpadapter

import (
	"net/http"

	"github.com/provoco/clauseadvisor/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// publicErrorMessage keeps backend details out of 5xx responses while 4xx
// errors carry their cause to the client.
func publicErrorMessage(err error, status int) string {
	if status >= 500 {
		if status == http.StatusServiceUnavailable {
			return "a dependent service is temporarily unavailable"
		}
		return "internal server error"
	}
	return err.Error()
}
