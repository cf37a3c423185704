package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-rfq-backend/internal/http/middleware"
)

// ErrorResponse is the error envelope returned by every endpoint.
//
//	HTTP/1.1 409 Conflict
//	{"request_id": "...", "code": "invalid_state", "message": "invalid state: rfq is closed"}
type ErrorResponse struct {
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	Code      string `json:"code" example:"not_found"`
	Message   string `json:"message" example:"resource not found"`
}

// fail aborts with the envelope. 5xx responses are logged.
func fail(c *gin.Context, status int, code, msg string) {
	rid := middleware.GetRequestID(c)
	if rid == "" {
		rid = c.Writer.Header().Get("X-Request-ID")
	}
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{RequestID: rid, Code: code, Message: msg})
}

// Fail is fail for the router's fallback handlers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failFromService answers with the status and code of err's kind. Errors of
// no known kind become a 500 whose detail goes to the log only.
func failFromService(c *gin.Context, err error) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.kind) {
			fail(c, m.status, m.code, err.Error())
			return
		}
	}
	_ = c.Error(err)
	fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
}

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
