// RFQ HTTP handlers.
//
// This file exposes REST endpoints for RFQ resources:
//   - POST  /rfq                   (create, idempotent with Idempotency-Key)
//   - GET   /rfq                   (list, paginated, ETag support)
//   - GET   /rfq/{id}              (read)
//   - PATCH /rfq/{id}/status       (cancel)
//   - PATCH /rfq/{id}/deadline     (extend)
//   - GET   /rfq/{id}/summary      (price statistics)
//   - GET   /rfq/{id}/quotations   (quotations, cheapest first)
//
// Handlers are transport-thin: they bind DTOs, call the services and map the
// service error kinds onto statuses. Mutations return the fresh entity so
// clients never need to reload to see the outcome.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tbourn/go-rfq-backend/internal/domain"
	"github.com/tbourn/go-rfq-backend/internal/http/middleware"
	"github.com/tbourn/go-rfq-backend/internal/repo"
	"github.com/tbourn/go-rfq-backend/internal/services"
	"github.com/tbourn/go-rfq-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// RFQService defines the RFQ registry operations consumed by the handlers.
type RFQService interface {
	Create(ctx context.Context, in services.CreateRFQInput) (*domain.RFQ, error)
	Get(ctx context.Context, id string) (*domain.RFQ, error)
	List(ctx context.Context, f services.RFQFilter, page, limit int) ([]domain.RFQ, int64, error)
	Cancel(ctx context.Context, id, buyerID, reason string) (*domain.RFQ, error)
	ExtendDeadline(ctx context.Context, id, buyerID string, deadline time.Time) (*domain.RFQ, error)
	Summary(ctx context.Context, id string) (*services.RFQSummary, error)
}

// ExpiryRunner runs one expiry sweep on its own clock. It fails with
// scheduler.ErrAlreadyRunning while another sweep is in flight.
type ExpiryRunner interface {
	RunOnce(ctx context.Context) (services.SweepResult, error)
}

// QuotationService defines the quotation ledger operations.
type QuotationService interface {
	Submit(ctx context.Context, in services.SubmitQuotationInput) (*domain.Quotation, error)
	Withdraw(ctx context.Context, id, vendorID string) (*domain.Quotation, error)
	Get(ctx context.Context, id string) (*domain.Quotation, error)
	List(ctx context.Context, rfqID string) ([]domain.Quotation, error)
	ListByVendor(ctx context.Context, vendorID string, status domain.QuotationStatus, page, limit int) ([]domain.Quotation, int64, error)
	Revise(ctx context.Context, in services.ReviseQuotationInput) (*domain.Quotation, error)
	Revisions(ctx context.Context, id string) ([]domain.QuotationRevision, error)
}

// NegotiationService applies explicit buyer decisions.
type NegotiationService interface {
	Decide(ctx context.Context, buyerID string, d domain.Decision) (*services.DecisionResult, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints of the negotiation API.
type Handlers struct {
	rfqSvc   RFQService
	quoteSvc QuotationService
	negSvc   NegotiationService

	// db backs idempotency records and ETag stats; nil disables both.
	db      *gorm.DB
	idemTTL time.Duration

	// MaxPageSize caps list limits; zero leaves capping to the service.
	MaxPageSize int
	// Sweeper serves the manual expiry sweep; nil answers 503.
	Sweeper ExpiryRunner
}

// New constructs a Handlers instance bound to the given services.
func New(rfqSvc RFQService, quoteSvc QuotationService, negSvc NegotiationService, db *gorm.DB, idemTTL time.Duration) *Handlers {
	if idemTTL <= 0 {
		idemTTL = 24 * time.Hour
	}
	return &Handlers{rfqSvc: rfqSvc, quoteSvc: quoteSvc, negSvc: negSvc, db: db, idemTTL: idemTTL, MaxPageSize: 100}
}

// userID returns the caller id set by middleware.Authenticate. It falls back
// to the X-User-ID header for handlers mounted without authentication.
func userID(c *gin.Context) string {
	if v, ok := c.Get(middleware.CtxUserID); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "anonymous"
}

//
// DTOs
//

// CreateRFQRequest is the JSON payload for creating an RFQ.
type CreateRFQRequest struct {
	Title       string           `json:"title" binding:"required,max=255" example:"Stainless M8 bolts"`
	Description string           `json:"description" example:"A2-70, DIN 933, bulk packed"`
	Category    string           `json:"category" example:"fasteners"`
	Quantity    int              `json:"quantity" binding:"required" example:"100"`
	Budget      *decimal.Decimal `json:"budget,omitempty" swaggertype:"string" example:"500.00"`
	Deadline    *time.Time       `json:"deadline,omitempty" example:"2025-06-01T00:00:00Z"`
	Notes       string           `json:"notes,omitempty"`
}

// UpdateRFQStatusRequest changes an RFQ's status. Only "cancelled" may be set
// by clients; every other transition is driven by quotations or the sweep.
type UpdateRFQStatusRequest struct {
	Status string `json:"status" binding:"required" example:"cancelled"`
	Reason string `json:"reason,omitempty" example:"requirement withdrawn"`
}

// ExtendDeadlineRequest moves an RFQ's deadline later.
type ExtendDeadlineRequest struct {
	Deadline time.Time `json:"deadline" example:"2025-07-01T00:00:00Z"`
}

// ListRFQsResponse is a page of RFQs.
type ListRFQsResponse struct {
	Data  []domain.RFQ `json:"data"`
	Total int64        `json:"total"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
}

// ListQuotationsResponse carries every quotation of an RFQ.
type ListQuotationsResponse struct {
	Data  []domain.Quotation `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

//
// Helpers
//

// clampPagination parses page and limit query params. page_size is accepted
// as an alias for limit.
func (h *Handlers) clampPagination(c *gin.Context) (page, limit int) {
	const defaultLimit = 20
	raw := c.Query("limit")
	if raw == "" {
		raw = c.Query("page_size")
	}
	p := utils.NormalizePaging(utils.AtoiDefault(c.Query("page"), 1), utils.AtoiDefault(raw, 0), defaultLimit, h.MaxPageSize)
	return p.Page, p.Limit
}

// notModified sets a weak ETag and reports whether the client's copy matches.
func notModified(c *gin.Context, etag string) bool {
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}

func unixOrZero(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.UnixNano()
}

// replayed serves a stored result for the request's Idempotency-Key, if one
// exists and the resource can still be loaded.
func (h *Handlers) replayed(c *gin.Context, load func(ctx context.Context, id string) (any, error)) bool {
	key, present := middleware.GetIdempotencyKey(c)
	if !present || h.db == nil {
		return false
	}
	ctx := c.Request.Context()
	rec, err := repo.GetIdempotency(ctx, h.db, userID(c), middleware.IdempotencyScope(c), key, time.Now().UTC())
	if err != nil {
		return false
	}
	v, err := load(ctx, rec.ResourceID)
	if err != nil {
		return false
	}
	c.Header("Idempotency-Replayed", "true")
	ok(c, rec.Status, v)
	return true
}

// remember records the created resource under the request's key. Best effort:
// a concurrent request with the same key keeps the first record.
func (h *Handlers) remember(c *gin.Context, resourceID string, status int) {
	key, present := middleware.GetIdempotencyKey(c)
	if !present || h.db == nil {
		return
	}
	if _, err := repo.CreateIdempotency(c.Request.Context(), h.db, userID(c), middleware.IdempotencyScope(c), key, resourceID, status, h.idemTTL); err != nil && !errors.Is(err, repo.ErrDuplicate) {
		lg := middleware.LoggerFrom(c)
		lg.Warn().Err(err).Str("resource_id", resourceID).Msg("idempotency record not stored")
	}
}

//
// Handlers
//

// CreateRFQ godoc
// @ID          createRFQ
// @Summary     Create an RFQ
// @Description Opens a new request for quotation owned by the calling buyer.
// @Description Supports idempotency via the Idempotency-Key header.
// @Tags        RFQ
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"
// @Param       body             body    handlers.CreateRFQRequest  true  "RFQ payload"
//
// @Success     201  {object}  domain.RFQ
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthenticated"
// @Failure     403  {object}  handlers.ErrorResponse  "Not a buyer"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Security    BearerAuth
// @Router      /rfq [post]
func (h *Handlers) CreateRFQ(c *gin.Context) {
	var req CreateRFQRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body: title and quantity are required")
		return
	}

	if h.replayed(c, func(ctx context.Context, id string) (any, error) { return h.rfqSvc.Get(ctx, id) }) {
		return
	}

	r, err := h.rfqSvc.Create(c.Request.Context(), services.CreateRFQInput{
		BuyerID:     userID(c),
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Quantity:    req.Quantity,
		Budget:      req.Budget,
		Deadline:    req.Deadline,
		Notes:       req.Notes,
	})
	if err != nil {
		failFromService(c, err)
		return
	}

	h.remember(c, r.ID, http.StatusCreated)
	ok(c, http.StatusCreated, r)
}

// ListRFQs godoc
// @ID          listRFQs
// @Summary     List RFQs (paginated)
// @Description Returns RFQs newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        RFQ
// @Produce     json
//
// @Param       status         query   string  false "Filter by status"  Enums(open, quoted, closed, cancelled, expired)
// @Param       buyer_id       query   string  false "Filter by buyer"
// @Param       category       query   string  false "Filter by category"
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       limit          query   int     false "Items per page"  minimum(1) maximum(100) default(20)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
//
// @Success     200  {object} handlers.ListRFQsResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Validation failed"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Security    BearerAuth
// @Router      /rfq [get]
func (h *Handlers) ListRFQs(c *gin.Context) {
	ctx := c.Request.Context()
	page, limit := h.clampPagination(c)
	f := services.NormalizeRFQFilter(services.RFQFilter{
		Status:   domain.RFQStatus(c.Query("status")),
		BuyerID:  c.Query("buyer_id"),
		Category: c.Query("category"),
	})

	// ETag pre-check (best effort).
	if h.db != nil && (f.Status == "" || f.Status.IsValid()) {
		if count, maxTS, err := repo.RFQsStats(ctx, h.db, f); err == nil {
			etag := fmt.Sprintf(`W/"rfqs:%d:%d:%d:%d"`, count, unixOrZero(maxTS), page, limit)
			if notModified(c, etag) {
				return
			}
		}
	}

	items, total, err := h.rfqSvc.List(ctx, f, page, limit)
	if err != nil {
		failFromService(c, err)
		return
	}
	if items == nil {
		items = []domain.RFQ{}
	}
	ok(c, http.StatusOK, ListRFQsResponse{Data: items, Total: total, Page: page, Limit: limit})
}

// GetRFQ godoc
// @ID          getRFQ
// @Summary     Get an RFQ
// @Tags        RFQ
// @Produce     json
// @Param       id   path  string  true  "RFQ ID (UUID)"  format(uuid)
// @Success     200  {object} domain.RFQ
// @Failure     404  {object} handlers.ErrorResponse "RFQ not found"
// @Security    BearerAuth
// @Router      /rfq/{id} [get]
func (h *Handlers) GetRFQ(c *gin.Context) {
	r, err := h.rfqSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, r)
}

// UpdateRFQStatus godoc
// @ID          updateRFQStatus
// @Summary     Cancel an RFQ
// @Description Cancels an open or quoted RFQ owned by the caller. Pending quotations are rejected.
// @Tags        RFQ
// @Accept      json
// @Produce     json
// @Param       id    path  string  true  "RFQ ID (UUID)"  format(uuid)
// @Param       body  body  handlers.UpdateRFQStatusRequest  true  "Target status"
// @Success     200  {object} domain.RFQ
// @Failure     400  {object} handlers.ErrorResponse "Unsupported status"
// @Failure     403  {object} handlers.ErrorResponse "Not the owner"
// @Failure     404  {object} handlers.ErrorResponse "RFQ not found"
// @Failure     409  {object} handlers.ErrorResponse "RFQ already terminal"
// @Security    BearerAuth
// @Router      /rfq/{id}/status [patch]
func (h *Handlers) UpdateRFQStatus(c *gin.Context) {
	var req UpdateRFQStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "status required")
		return
	}
	if domain.RFQStatus(strings.ToLower(strings.TrimSpace(req.Status))) != domain.RFQCancelled {
		fail(c, http.StatusBadRequest, ErrCodeValidation, `only "cancelled" may be set`)
		return
	}

	r, err := h.rfqSvc.Cancel(c.Request.Context(), c.Param("id"), userID(c), req.Reason)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, r)
}

// ExtendDeadline godoc
// @ID          extendRFQDeadline
// @Summary     Extend an RFQ deadline
// @Tags        RFQ
// @Accept      json
// @Produce     json
// @Param       id    path  string  true  "RFQ ID (UUID)"  format(uuid)
// @Param       body  body  handlers.ExtendDeadlineRequest  true  "New deadline"
// @Success     200  {object} domain.RFQ
// @Failure     400  {object} handlers.ErrorResponse "Deadline not later"
// @Failure     403  {object} handlers.ErrorResponse "Not the owner"
// @Failure     404  {object} handlers.ErrorResponse "RFQ not found"
// @Failure     409  {object} handlers.ErrorResponse "RFQ no longer takes bids"
// @Security    BearerAuth
// @Router      /rfq/{id}/deadline [patch]
func (h *Handlers) ExtendDeadline(c *gin.Context) {
	var req ExtendDeadlineRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Deadline.IsZero() {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "deadline required (RFC 3339)")
		return
	}

	r, err := h.rfqSvc.ExtendDeadline(c.Request.Context(), c.Param("id"), userID(c), req.Deadline)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, r)
}

// RFQSummary godoc
// @ID          rfqSummary
// @Summary     Summarize an RFQ's quotations
// @Description Price statistics over non-withdrawn quotations. Display only; never picks a winner.
// @Tags        RFQ
// @Produce     json
// @Param       id   path  string  true  "RFQ ID (UUID)"  format(uuid)
// @Success     200  {object} services.RFQSummary
// @Failure     404  {object} handlers.ErrorResponse "RFQ not found"
// @Security    BearerAuth
// @Router      /rfq/{id}/summary [get]
func (h *Handlers) RFQSummary(c *gin.Context) {
	sum, err := h.rfqSvc.Summary(c.Request.Context(), c.Param("id"))
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, sum)
}

// ListQuotations godoc
// @ID          listQuotations
// @Summary     List an RFQ's quotations
// @Description Every quotation of the RFQ, cheapest first. The order is a display aid, not a ranking.
// @Tags        Quotations
// @Produce     json
// @Param       id             path    string  true   "RFQ ID (UUID)"  format(uuid)
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Success     200  {object} handlers.ListQuotationsResponse
// @Success     304  {string} string "Not Modified"
// @Failure     404  {object} handlers.ErrorResponse "RFQ not found"
// @Security    BearerAuth
// @Router      /rfq/{id}/quotations [get]
func (h *Handlers) ListQuotations(c *gin.Context) {
	ctx := c.Request.Context()
	rfqID := c.Param("id")

	if h.db != nil {
		if count, maxTS, err := repo.QuotationsStats(ctx, h.db, rfqID); err == nil && count > 0 {
			if notModified(c, fmt.Sprintf(`W/"quotations:%s:%d:%d"`, rfqID, count, unixOrZero(maxTS))) {
				return
			}
		}
	}

	items, err := h.quoteSvc.List(ctx, rfqID)
	if err != nil {
		failFromService(c, err)
		return
	}
	if items == nil {
		items = []domain.Quotation{}
	}
	ok(c, http.StatusOK, ListQuotationsResponse{Data: items, Total: int64(len(items)), Page: 1, Limit: len(items)})
}
