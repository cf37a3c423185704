// Admin HTTP handlers.
//
//   - POST /admin/rfq/expiry-sweep   (run the expiry sweep now)
//
// The sweep normally runs on the scheduler; this endpoint triggers one pass
// on demand through the same sweeper and reports what changed.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-rfq-backend/internal/scheduler"
)

// RunExpirySweep godoc
// @ID          runExpirySweep
// @Summary     Run the expiry sweep
// @Description Expires lapsed RFQs and quotations. Safe to repeat; a second run changes nothing.
// @Tags        Admin
// @Produce     json
// @Success     200  {object} services.SweepResult
// @Failure     403  {object} handlers.ErrorResponse "Not an admin"
// @Failure     409  {object} handlers.ErrorResponse "A sweep is already running"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Failure     503  {object} handlers.ErrorResponse "No sweeper configured"
// @Security    BearerAuth
// @Router      /admin/rfq/expiry-sweep [post]
func (h *Handlers) RunExpirySweep(c *gin.Context) {
	if h.Sweeper == nil {
		fail(c, http.StatusServiceUnavailable, ErrCodeUnavailable, "expiry sweeper not configured")
		return
	}
	res, err := h.Sweeper.RunOnce(c.Request.Context())
	if errors.Is(err, scheduler.ErrAlreadyRunning) {
		fail(c, http.StatusConflict, ErrCodeSweepRunning, err.Error())
		return
	}
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}
