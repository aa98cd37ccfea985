package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/eventforge/internal/domain/events"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RespondError aborts with an error envelope. err is attached to the gin
// context so the request logger reports it.
func RespondError(c *gin.Context, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
		_ = c.Error(err)
	}
	abort(c, status, code, msg)
}

func abort(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: code}})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondDomainError maps the pipeline error taxonomy to a status. Storage and
// unknown errors are reported without their detail, which stays in the request log.
func RespondDomainError(c *gin.Context, err error) {
	var (
		vErr *events.ValidationError
		gErr *events.GenerationError
		pErr *events.PersistenceError
	)
	switch {
	case errors.As(err, &vErr):
		RespondError(c, http.StatusBadRequest, "validation_failed", err)
	case errors.Is(err, events.ErrEventNotFound):
		RespondError(c, http.StatusNotFound, "event_not_found", err)
	case errors.Is(err, events.ErrNoEligibleEvents):
		RespondError(c, http.StatusNotFound, "no_eligible_events", err)
	case errors.As(err, &gErr):
		RespondError(c, http.StatusServiceUnavailable, "generation_failed", err)
	case errors.As(err, &pErr):
		_ = c.Error(err)
		abort(c, http.StatusInternalServerError, "store_failed", "storage error")
	default:
		_ = c.Error(err)
		abort(c, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
