package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domain "github.com/yungbote/schoolbridge-backend/internal/domain/mastery"
	"github.com/yungbote/schoolbridge-backend/internal/platform/apierr"
)

type APIError struct {
	Message string            `json:"message"`
	Code    string            `json:"code,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	Details any               `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	respondError(c, status, code, err, nil)
}

func respondError(c *gin.Context, status int, code string, err error, details any) {
	msg := "unknown error"
	if err != nil {
		msg = domain.MessageOf(err)
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
			Fields:  domain.FieldsOf(err),
			Details: details,
		},
	})
}

// RespondErr renders err with the status its code maps to. Internal failures
// never leak their cause to the client.
func RespondErr(c *gin.Context, err error) {
	RespondErrWithDetails(c, err, nil)
}

// RespondErrWithDetails is RespondErr with a payload describing partial work,
// such as a run that was persisted before it stopped.
func RespondErrWithDetails(c *gin.Context, err error, details any) {
	var ae *apierr.Error
	if !errors.As(err, &ae) {
		ae = apierr.FromDomain(err)
	}
	_ = c.Error(err)
	if ae.Status >= http.StatusInternalServerError && ae.Code == string(domain.CodeInternal) {
		respondError(c, ae.Status, ae.Code, errors.New("internal error"), nil)
		return
	}
	respondError(c, ae.Status, ae.Code, ae.Err, details)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
