package apierr

import (
	"fmt"
	"net/http"

	domain "github.com/yungbote/schoolbridge-backend/internal/domain/mastery"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

var statusByCode = map[domain.ErrorCode]int{
	domain.CodeValidation:         http.StatusBadRequest,
	domain.CodeScopeEmpty:         http.StatusUnprocessableEntity,
	domain.CodeNotFound:           http.StatusNotFound,
	domain.CodeConflict:           http.StatusConflict,
	domain.CodePreconditionFailed: http.StatusPreconditionFailed,
	domain.CodeRetryable:          http.StatusServiceUnavailable,
	domain.CodeInvariantViolation: http.StatusInternalServerError,
	domain.CodeInternal:           http.StatusInternalServerError,
}

// FromDomain maps an engine error onto an HTTP status. Errors without a code
// are treated as internal.
func FromDomain(err error) *Error {
	code := domain.CodeOf(err)
	status, ok := statusByCode[code]
	if !ok {
		code = domain.CodeInternal
		status = http.StatusInternalServerError
	}
	return New(status, string(code), err)
}
