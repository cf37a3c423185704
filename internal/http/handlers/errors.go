// Package handlers implements the HTTP endpoints for RFQs, quotations and
// negotiation decisions on top of the services package.
package handlers

import (
	"net/http"

	"github.com/tbourn/go-rfq-backend/internal/services"
)

// Error codes in the error envelope. Clients branch on these; the middleware
// adds unauthorized, forbidden, rate_limited and bad_idempotency_key.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternal         = "internal_error"

	ErrCodeValidation         = "validation_failed"
	ErrCodeInvalidState       = "invalid_state"
	ErrCodeDuplicateQuotation = "duplicate_quotation"
	ErrCodeQuotationExpired   = "quotation_expired"
	ErrCodeSweepRunning       = "sweep_running"
	ErrCodeUnavailable        = "unavailable"
)

// serviceErrors maps each service error kind to its status and code. Order
// matters only if a service error ever wraps two kinds; the first match wins.
var serviceErrors = []struct {
	kind   error
	status int
	code   string
}{
	{services.ErrValidation, http.StatusBadRequest, ErrCodeValidation},
	{services.ErrForbidden, http.StatusForbidden, ErrCodeForbidden},
	{services.ErrNotFound, http.StatusNotFound, ErrCodeNotFound},
	{services.ErrDuplicate, http.StatusConflict, ErrCodeDuplicateQuotation},
	{services.ErrExpired, http.StatusConflict, ErrCodeQuotationExpired},
	{services.ErrInvalidState, http.StatusConflict, ErrCodeInvalidState},
}
