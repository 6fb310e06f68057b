package gmail

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"

	apperrors "github.com/alexey192/calendarit/internal/errors"
)

func TestClassifyHistoryError_ExpiredCursor(t *testing.T) {
	err := classifyHistoryError(&googleapi.Error{Code: 404, Message: "Requested entity was not found."})
	assert.ErrorIs(t, err, apperrors.ErrCursorExpired)
}

func TestClassifyHistoryError_AuthAndRateLimit(t *testing.T) {
	assert.ErrorIs(t, classifyHistoryError(&googleapi.Error{Code: 401}), apperrors.ErrAuthExpired)
	assert.ErrorIs(t, classifyHistoryError(&googleapi.Error{Code: 429}), apperrors.ErrRateLimited)
}

func TestClassifyError_PassesThroughUnknown(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := classifyError(cause, "message fetch")
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, apperrors.ErrCursorExpired)
}

func TestClassifyError_MessageFetch404IsNotCursorExpiry(t *testing.T) {
	// Only the history listing treats 404 as an expired cursor.
	err := classifyError(&googleapi.Error{Code: 404}, "message fetch")
	assert.NotErrorIs(t, err, apperrors.ErrCursorExpired)
}
