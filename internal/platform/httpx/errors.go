package httpx

import (
	"errors"
	"net/http"

	"github.com/lectoria/lectoria/internal/shared"
)

// PermissionDeniedBody is the exact body returned on any authorization
// failure. The 405 status is a compatibility requirement carried over from the
// previous system; do not change it to 403.
const PermissionDeniedBody = "Method not allowed!"

// RespondError maps domain errors to HTTP responses.
//
// Permission denials and access-level denials are collapsed into a single
// message class so the caller cannot probe the role hierarchy. Not-found is
// always 404 regardless of the operation that detected it.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrPermissionDenied):
		Message(w, http.StatusMethodNotAllowed, PermissionDeniedBody)
	case errors.Is(err, shared.ErrUnauthenticated):
		Message(w, http.StatusUnauthorized, "Not authenticated")
	case errors.Is(err, shared.ErrInvalidCredentials):
		Message(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, shared.ErrNotFound):
		Message(w, http.StatusNotFound, err.Error())
	case errors.Is(err, shared.ErrConflict):
		Message(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, shared.ErrValidation):
		Message(w, http.StatusBadRequest, err.Error())
	default:
		Message(w, http.StatusInternalServerError, "Internal error")
	}
}
