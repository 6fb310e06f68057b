package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "github.com/alexey192/calendarit/internal/errors"
)

// APIResponse is the envelope for successful responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ErrorResponse is the envelope for failures. Code carries the
// machine-readable error code for clients that branch on it.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

// PaginatedResponse wraps list responses with paging metadata.
type PaginatedResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Meta    Meta        `json:"meta"`
}

type Meta struct {
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

// statusByCode maps domain error codes onto HTTP statuses. Codes not
// listed here surface as 500.
var statusByCode = map[string]int{
	apperrors.CodeNotFound:       http.StatusNotFound,
	apperrors.CodeDuplicateEntry: http.StatusConflict,
	apperrors.CodeInvalidInput:   http.StatusBadRequest,
	apperrors.CodeUnauthorized:   http.StatusUnauthorized,
	apperrors.CodeAuthExpired:    http.StatusUnauthorized,
	apperrors.CodeRateLimited:    http.StatusTooManyRequests,
}

func Success(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// Accepted acknowledges work that continues asynchronously.
func Accepted(c echo.Context, message string) error {
	return c.JSON(http.StatusAccepted, APIResponse{Success: true, Message: message})
}

func NoContent(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

func Paginated(c echo.Context, data interface{}, total int64, limit, offset int) error {
	return c.JSON(http.StatusOK, PaginatedResponse{
		Success: true,
		Data:    data,
		Meta:    Meta{Total: total, Limit: limit, Offset: offset},
	})
}

// Error renders err with the HTTP status its domain code maps to.
func Error(c echo.Context, err error) error {
	code := apperrors.GetErrorCode(err)
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	return fail(c, status, err.Error(), code)
}

func BadRequest(c echo.Context, message string) error {
	return fail(c, http.StatusBadRequest, message, apperrors.CodeInvalidInput)
}

func NotFound(c echo.Context, message string) error {
	return fail(c, http.StatusNotFound, message, apperrors.CodeNotFound)
}

func InternalError(c echo.Context, message string) error {
	return fail(c, http.StatusInternalServerError, message, apperrors.CodeInternalError)
}

func fail(c echo.Context, status int, message, code string) error {
	return c.JSON(status, ErrorResponse{Error: message, Code: code})
}
