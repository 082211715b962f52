package api

import (
	"errors"
	"net/http"

	"github.com/aslema/aslema-api/internal/domain"
	"github.com/aslema/aslema-api/internal/service/review"
	"github.com/aslema/aslema-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status
// codes. Anything unrecognized is a 500: unknown errors must never leak a
// more specific status than we can stand behind.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, review.ErrReviewNotOwned):
		return http.StatusForbidden

	case errors.Is(err, review.ErrReviewNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrInvalidQuality),
		errors.Is(err, review.ErrInvalidAnswer),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-facing message for the
// error. Raw error strings stay in the logs.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, review.ErrReviewNotOwned):
		return "You do not own this review"

	case errors.Is(err, review.ErrReviewNotFound):
		return "Review not found"

	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	case errors.Is(err, domain.ErrInvalidQuality):
		return "Quality must be between 0 and 5"

	case errors.Is(err, review.ErrInvalidAnswer):
		return "Invalid answer"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	default:
		return "An unexpected error occurred"
	}
}
