// Package httperr maps the core error taxonomy onto HTTP status codes so
// every handler reports failures the same way.
package httperr

import (
	"errors"
	"net/http"

	"github.com/roseline-shop/storefront/internal/domain"
)

func Status(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrProductUnavailable):
		return http.StatusGone
	case errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the error text for taxonomy errors and a generic message
// for everything else, so storage failures never leak details to clients.
func Message(err error) string {
	if Status(err) == http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}
