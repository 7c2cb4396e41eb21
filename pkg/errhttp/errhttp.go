// Package errhttp maps domain sentinel errors to HTTP status codes.
// Add a case to mapErrorToStatus for each new domain sentinel error.
package errhttp

import (
	"errors"
	"net/http"

	"github.com/sourcedhq/sourced/pkg/httpx"
	catalogdomain "github.com/sourcedhq/sourced/services/catalog/domain"
)

// WriteError maps err to an HTTP status code and writes a JSON error response.
// Uses errors.Is() so wrapped sentinel errors are matched correctly.
// Defaults to 500 Internal Server Error for unrecognized errors.
func WriteError(w http.ResponseWriter, err error) {
	httpx.JSONError(w, mapErrorToStatus(err), err.Error())
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, catalogdomain.ErrInvalidImage):
		return http.StatusBadRequest // 400
	case errors.Is(err, catalogdomain.ErrNotCatalogOwner):
		return http.StatusForbidden // 403
	case errors.Is(err, catalogdomain.ErrItemNotFound),
		errors.Is(err, catalogdomain.ErrCatalogNotFound):
		return http.StatusNotFound // 404
	case errors.Is(err, catalogdomain.ErrValidation),
		errors.Is(err, catalogdomain.ErrContentRejected):
		return http.StatusUnprocessableEntity // 422
	case errors.Is(err, catalogdomain.ErrImageFetchFailed):
		return http.StatusBadGateway // 502
	case errors.Is(err, catalogdomain.ErrStorageUnavailable):
		return http.StatusServiceUnavailable // 503
	default:
		return http.StatusInternalServerError // 500
	}
}
