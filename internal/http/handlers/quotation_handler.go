// Quotation HTTP handlers.
//
// This file exposes REST endpoints for vendor bids and buyer decisions:
//   - POST  /rfq/quotations                (submit, idempotent with Idempotency-Key)
//   - GET   /rfq/quotations/my-quotations  (the calling vendor's quotations, paginated)
//   - GET   /rfq/quotations/{id}           (read)
//   - PUT   /rfq/quotations/{id}           (vendor revises own pending bid)
//   - GET   /rfq/quotations/{id}/revisions (superseded terms, oldest first)
//   - PATCH /rfq/quotations/{id}/accept    (buyer accepts; closes the RFQ)
//   - PATCH /rfq/quotations/{id}/reject    (buyer rejects one bid)
//   - PATCH /rfq/quotations/{id}/withdraw  (vendor withdraws own bid)
//
// Accept and reject are expressed as domain.Decision values so a winner is
// only ever chosen by an explicit buyer action.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/tbourn/go-rfq-backend/internal/domain"
	"github.com/tbourn/go-rfq-backend/internal/services"
)

//
// DTOs
//

// SubmitQuotationRequest is the JSON payload for a vendor bid. Price may be
// sent as a JSON number or a decimal string.
type SubmitQuotationRequest struct {
	RFQID        string          `json:"rfqId" binding:"required" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
	Price        decimal.Decimal `json:"price" swaggertype:"string" example:"450.00"`
	Quantity     int             `json:"quantity" binding:"required" example:"100"`
	MOQ          int             `json:"moq" example:"50"`
	DeliveryTime string          `json:"deliveryTime" example:"14 days"`
	ValidUntil   time.Time       `json:"validUntil" example:"2025-06-15T00:00:00Z"`
	Notes        string          `json:"notes,omitempty"`
}

// ReviseQuotationRequest carries new terms for a pending quotation. Omitted
// fields keep their current value.
type ReviseQuotationRequest struct {
	Price        *decimal.Decimal `json:"price,omitempty" swaggertype:"string" example:"425.00"`
	Quantity     *int             `json:"quantity,omitempty" example:"120"`
	MOQ          *int             `json:"moq,omitempty" example:"40"`
	DeliveryTime *string          `json:"deliveryTime,omitempty" example:"10 days"`
	ValidUntil   *time.Time       `json:"validUntil,omitempty" example:"2025-06-20T00:00:00Z"`
	Notes        *string          `json:"notes,omitempty"`
	Reason       string           `json:"changeReason,omitempty" example:"volume discount"`
}

// ListRevisionsResponse carries a quotation's revision ledger.
type ListRevisionsResponse struct {
	Data []domain.QuotationRevision `json:"data"`
}

// RejectQuotationRequest optionally carries the buyer's reason.
type RejectQuotationRequest struct {
	Reason string `json:"reason,omitempty" example:"price above budget"`
}

//
// Handlers
//

// SubmitQuotation godoc
// @ID          submitQuotation
// @Summary     Submit a quotation
// @Description Records a pending bid by the calling vendor. A vendor holds at most one pending quotation per RFQ.
// @Description Supports idempotency via the Idempotency-Key header.
// @Tags        Quotations
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"
// @Param       body             body    handlers.SubmitQuotationRequest  true  "Quotation payload"
//
// @Success     201  {object}  domain.Quotation
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     403  {object}  handlers.ErrorResponse  "Not a vendor"
// @Failure     404  {object}  handlers.ErrorResponse  "RFQ not found"
// @Failure     409  {object}  handlers.ErrorResponse  "RFQ not taking bids, or duplicate pending quotation"
// @Security    BearerAuth
// @Router      /rfq/quotations [post]
func (h *Handlers) SubmitQuotation(c *gin.Context) {
	var req SubmitQuotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body: rfqId and quantity are required")
		return
	}

	if h.replayed(c, func(ctx context.Context, id string) (any, error) { return h.quoteSvc.Get(ctx, id) }) {
		return
	}

	q, err := h.quoteSvc.Submit(c.Request.Context(), services.SubmitQuotationInput{
		RFQID:        req.RFQID,
		VendorID:     userID(c),
		Price:        req.Price,
		Quantity:     req.Quantity,
		MOQ:          req.MOQ,
		DeliveryTime: req.DeliveryTime,
		ValidUntil:   req.ValidUntil,
		Notes:        req.Notes,
	})
	if err != nil {
		failFromService(c, err)
		return
	}

	h.remember(c, q.ID, http.StatusCreated)
	ok(c, http.StatusCreated, q)
}

// GetQuotation godoc
// @ID          getQuotation
// @Summary     Get a quotation
// @Tags        Quotations
// @Produce     json
// @Param       id   path  string  true  "Quotation ID (UUID)"  format(uuid)
// @Success     200  {object} domain.Quotation
// @Failure     404  {object} handlers.ErrorResponse "Quotation not found"
// @Security    BearerAuth
// @Router      /rfq/quotations/{id} [get]
func (h *Handlers) GetQuotation(c *gin.Context) {
	q, err := h.quoteSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, q)
}

// AcceptQuotation godoc
// @ID          acceptQuotation
// @Summary     Accept a quotation
// @Description Accepts a pending quotation, rejects every other pending quotation of the RFQ and closes the RFQ, atomically.
// @Description Accepting the already-accepted quotation again succeeds without changes.
// @Tags        Quotations
// @Produce     json
// @Param       id   path  string  true  "Quotation ID (UUID)"  format(uuid)
// @Success     200  {object} services.DecisionResult
// @Failure     403  {object} handlers.ErrorResponse "Not the RFQ owner"
// @Failure     404  {object} handlers.ErrorResponse "Quotation not found"
// @Failure     409  {object} handlers.ErrorResponse "Decision already made, RFQ not open, or quotation expired"
// @Security    BearerAuth
// @Router      /rfq/quotations/{id}/accept [patch]
func (h *Handlers) AcceptQuotation(c *gin.Context) {
	res, err := h.negSvc.Decide(c.Request.Context(), userID(c), domain.Decision{
		Kind:        domain.DecisionAccept,
		QuotationID: c.Param("id"),
	})
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// RejectQuotation godoc
// @ID          rejectQuotation
// @Summary     Reject a quotation
// @Description Rejects one pending quotation. The RFQ stays open for further bids and decisions.
// @Tags        Quotations
// @Accept      json
// @Produce     json
// @Param       id    path  string  true   "Quotation ID (UUID)"  format(uuid)
// @Param       body  body  handlers.RejectQuotationRequest  false  "Optional reason"
// @Success     200  {object} domain.Quotation
// @Failure     403  {object} handlers.ErrorResponse "Not the RFQ owner"
// @Failure     404  {object} handlers.ErrorResponse "Quotation not found"
// @Failure     409  {object} handlers.ErrorResponse "Quotation not pending"
// @Security    BearerAuth
// @Router      /rfq/quotations/{id}/reject [patch]
func (h *Handlers) RejectQuotation(c *gin.Context) {
	var req RejectQuotationRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}

	res, err := h.negSvc.Decide(c.Request.Context(), userID(c), domain.Decision{
		Kind:        domain.DecisionReject,
		QuotationID: c.Param("id"),
		Reason:      req.Reason,
	})
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, res.Quotation)
}

// WithdrawQuotation godoc
// @ID          withdrawQuotation
// @Summary     Withdraw a quotation
// @Description The submitting vendor withdraws a pending quotation so it can re-bid.
// @Tags        Quotations
// @Produce     json
// @Param       id   path  string  true  "Quotation ID (UUID)"  format(uuid)
// @Success     200  {object} domain.Quotation
// @Failure     403  {object} handlers.ErrorResponse "Not the submitting vendor"
// @Failure     404  {object} handlers.ErrorResponse "Quotation not found"
// @Failure     409  {object} handlers.ErrorResponse "Quotation not pending"
// @Security    BearerAuth
// @Router      /rfq/quotations/{id}/withdraw [patch]
func (h *Handlers) WithdrawQuotation(c *gin.Context) {
	q, err := h.quoteSvc.Withdraw(c.Request.Context(), c.Param("id"), userID(c))
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, q)
}

// ListMyQuotations godoc
// @ID          listMyQuotations
// @Summary     List the caller's quotations
// @Description The calling vendor's quotations across all RFQs, newest first.
// @Tags        Quotations
// @Produce     json
// @Param       status  query  string  false "Filter by status"  Enums(pending, accepted, rejected, withdrawn, expired)
// @Param       page    query  int     false "Page number"     minimum(1) default(1)
// @Param       limit   query  int     false "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object} handlers.ListQuotationsResponse
// @Failure     400  {object} handlers.ErrorResponse "Validation failed"
// @Failure     403  {object} handlers.ErrorResponse "Not a vendor"
// @Security    BearerAuth
// @Router      /rfq/quotations/my-quotations [get]
func (h *Handlers) ListMyQuotations(c *gin.Context) {
	page, limit := h.clampPagination(c)
	items, total, err := h.quoteSvc.ListByVendor(c.Request.Context(), userID(c), domain.QuotationStatus(c.Query("status")), page, limit)
	if err != nil {
		failFromService(c, err)
		return
	}
	if items == nil {
		items = []domain.Quotation{}
	}
	ok(c, http.StatusOK, ListQuotationsResponse{Data: items, Total: total, Page: page, Limit: limit})
}

// ReviseQuotation godoc
// @ID          reviseQuotation
// @Summary     Revise a quotation
// @Description The submitting vendor replaces the terms of a pending quotation while the RFQ takes bids.
// @Description The previous terms are kept in the quotation's revision history.
// @Tags        Quotations
// @Accept      json
// @Produce     json
// @Param       id    path  string  true  "Quotation ID (UUID)"  format(uuid)
// @Param       body  body  handlers.ReviseQuotationRequest  true  "New terms"
// @Success     200  {object} domain.Quotation
// @Failure     400  {object} handlers.ErrorResponse "Validation failed"
// @Failure     403  {object} handlers.ErrorResponse "Not the submitting vendor"
// @Failure     404  {object} handlers.ErrorResponse "Quotation not found"
// @Failure     409  {object} handlers.ErrorResponse "Quotation not pending, expired, or RFQ not taking bids"
// @Security    BearerAuth
// @Router      /rfq/quotations/{id} [put]
func (h *Handlers) ReviseQuotation(c *gin.Context) {
	var req ReviseQuotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	q, err := h.quoteSvc.Revise(c.Request.Context(), services.ReviseQuotationInput{
		QuotationID:  c.Param("id"),
		VendorID:     userID(c),
		Price:        req.Price,
		Quantity:     req.Quantity,
		MOQ:          req.MOQ,
		DeliveryTime: req.DeliveryTime,
		ValidUntil:   req.ValidUntil,
		Notes:        req.Notes,
		Reason:       req.Reason,
	})
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, q)
}

// ListQuotationRevisions godoc
// @ID          listQuotationRevisions
// @Summary     List a quotation's revisions
// @Description Terms the quotation carried before each revision, oldest version first.
// @Tags        Quotations
// @Produce     json
// @Param       id   path  string  true  "Quotation ID (UUID)"  format(uuid)
// @Success     200  {object} handlers.ListRevisionsResponse
// @Failure     404  {object} handlers.ErrorResponse "Quotation not found"
// @Security    BearerAuth
// @Router      /rfq/quotations/{id}/revisions [get]
func (h *Handlers) ListQuotationRevisions(c *gin.Context) {
	revs, err := h.quoteSvc.Revisions(c.Request.Context(), c.Param("id"))
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, ListRevisionsResponse{Data: revs})
}
