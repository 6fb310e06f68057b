package gmail

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"

	apperrors "github.com/alexey192/calendarit/internal/errors"
)

// classifyHistoryError maps provider failures on the history listing into
// the application's closed error set. The provider reports an expired or
// too-old startHistoryId as 404, which for long-silent accounts is a
// normal condition requiring resubscription, not an internal error.
func classifyHistoryError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
		return fmt.Errorf("history list: %w", apperrors.ErrCursorExpired)
	}
	return classifyError(err, "history list")
}

// classifyError maps generic provider failures
func classifyError(err error, op string) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized:
			return fmt.Errorf("%s: %w", op, apperrors.ErrAuthExpired)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%s: %w", op, apperrors.ErrRateLimited)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
