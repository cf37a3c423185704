// Package services – NegotiationService
//
// This file implements the buyer's side of the negotiation: accepting or
// rejecting a pending quotation. Accepting is the only way an RFQ reaches
// closed, and it rejects every sibling pending quotation in the same
// transaction, so an RFQ never ends up with two accepted quotations.
//
// Both decisions are idempotent for the owning buyer: repeating a decision
// that already took effect returns the current state instead of an error.
package services

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-rfq-backend/internal/domain"
	"github.com/tbourn/go-rfq-backend/internal/observability"
	"github.com/tbourn/go-rfq-backend/internal/repo"
)

// RejectSiblingReason is recorded on quotations auto-rejected by an accept.
const RejectSiblingReason = "another quotation was accepted"

// DecisionResult is the state after a buyer decision.
type DecisionResult struct {
	RFQ       *domain.RFQ        `json:"rfq"`
	Quotation *domain.Quotation  `json:"quotation"`
	Rejected  []domain.Quotation `json:"rejected,omitempty"`
}

// NegotiationService applies buyer decisions to quotations.
type NegotiationService struct {
	DB       *gorm.DB
	Notifier Notifier
	Now      Clock
}

// NewNegotiationService constructs a NegotiationService.
func NewNegotiationService(db *gorm.DB, n Notifier) *NegotiationService {
	return &NegotiationService{DB: db, Notifier: n}
}

// Decide dispatches d on behalf of buyerID.
func (s *NegotiationService) Decide(ctx context.Context, buyerID string, d domain.Decision) (*DecisionResult, error) {
	if !d.IsValid() {
		return nil, validationf("unknown decision %q", d.Kind)
	}
	switch d.Kind {
	case domain.DecisionAccept:
		return s.Accept(ctx, d.QuotationID, buyerID)
	default:
		return s.Reject(ctx, d.QuotationID, buyerID, d.Reason)
	}
}

// Accept accepts a pending quotation, rejects its pending siblings and
// closes the RFQ, all in one transaction. The quotation must still be valid
// at the time of the call; validity ending exactly now still counts. A lapsed
// quotation yields ErrExpired whether or not the expiry sweep has marked it.
func (s *NegotiationService) Accept(ctx context.Context, quotationID, buyerID string) (*DecisionResult, error) {
	ctx, span := otel.Tracer("services/NegotiationService").Start(ctx, "Accept",
		trace.WithAttributes(
			attribute.String("quotation.id", quotationID),
			attribute.String("buyer.id", buyerID),
		),
	)
	defer span.End()

	now := s.Now.now()
	var (
		res     DecisionResult
		ob      outbox
		changed bool
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q, r, err := s.lockDecision(ctx, tx, quotationID, buyerID)
		if err != nil {
			return err
		}

		switch q.Status {
		case domain.QuotationAccepted:
			res.RFQ, res.Quotation = r, q
			return nil
		case domain.QuotationExpired:
			// Same answer whether or not the sweep got here first.
			return ErrExpired
		case domain.QuotationPending:
		default:
			return invalidStatef("quotation is %s", q.Status)
		}
		if !r.Status.CanTransitionTo(domain.RFQClosed) {
			return invalidStatef("rfq is %s", r.Status)
		}
		if !q.IsLive(now) {
			return ErrExpired
		}

		err = repo.UpdatePendingQuotation(ctx, tx, q.ID, q.Version, map[string]any{
			"status":       domain.QuotationAccepted,
			"responded_at": now,
			"updated_at":   now,
		})
		if err != nil {
			return lostRace(err, "quotation")
		}
		rejected, err := cascadePending(ctx, tx, r, q.ID, domain.QuotationRejected, RejectSiblingReason, now)
		if err != nil {
			return err
		}
		err = repo.UpdateRFQ(ctx, tx, r.ID, r.Version, []domain.RFQStatus{r.Status}, map[string]any{
			"status":                domain.RFQClosed,
			"accepted_quotation_id": q.ID,
			"closed_at":             now,
			"updated_at":            now,
		})
		if err != nil {
			return lostRace(err, "rfq")
		}

		if res.RFQ, err = repo.GetRFQ(ctx, tx, r.ID); err != nil {
			return err
		}
		if res.Quotation, err = repo.GetQuotation(ctx, tx, q.ID); err != nil {
			return err
		}
		res.Rejected = rejected

		ob.add(domain.EventQuotationAccepted, domain.NewQuotationEvent(res.Quotation, r.BuyerID))
		for i := range rejected {
			ob.add(domain.EventQuotationRejected, domain.NewQuotationEvent(&rejected[i], r.BuyerID))
		}
		ob.add(domain.EventRFQClosed, domain.NewRFQEvent(res.RFQ, ""))
		changed = true
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if changed {
		observability.QuotationTransitions(string(domain.QuotationAccepted), 1)
		observability.QuotationTransitions(string(domain.QuotationRejected), len(res.Rejected))
		observability.RFQTransition(string(domain.RFQClosed))
		ob.flush(ctx, s.Notifier)
	}
	return &res, nil
}

// Reject rejects a single pending quotation. The RFQ is left as it is so the
// buyer can keep negotiating with other vendors.
func (s *NegotiationService) Reject(ctx context.Context, quotationID, buyerID, reason string) (*DecisionResult, error) {
	ctx, span := otel.Tracer("services/NegotiationService").Start(ctx, "Reject",
		trace.WithAttributes(
			attribute.String("quotation.id", quotationID),
			attribute.String("buyer.id", buyerID),
		),
	)
	defer span.End()

	now := s.Now.now()
	reason = normalizeTitle(reason)
	var (
		res     DecisionResult
		ob      outbox
		changed bool
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q, r, err := s.lockDecision(ctx, tx, quotationID, buyerID)
		if err != nil {
			return err
		}

		if q.Status == domain.QuotationRejected {
			res.RFQ, res.Quotation = r, q
			return nil
		}
		if q.Status != domain.QuotationPending {
			return invalidStatef("quotation is %s", q.Status)
		}
		if !r.Status.AllowsBidding() {
			return invalidStatef("rfq is %s", r.Status)
		}

		err = repo.UpdatePendingQuotation(ctx, tx, q.ID, q.Version, map[string]any{
			"status":           domain.QuotationRejected,
			"rejection_reason": reason,
			"responded_at":     now,
			"updated_at":       now,
		})
		if err != nil {
			return lostRace(err, "quotation")
		}

		res.RFQ = r
		if res.Quotation, err = repo.GetQuotation(ctx, tx, q.ID); err != nil {
			return err
		}
		ob.add(domain.EventQuotationRejected, domain.NewQuotationEvent(res.Quotation, r.BuyerID))
		changed = true
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if changed {
		observability.QuotationTransitions(string(domain.QuotationRejected), 1)
		ob.flush(ctx, s.Notifier)
	}
	return &res, nil
}

// lockDecision resolves the quotation's RFQ, locks it for buyerID and
// re-reads the quotation under that lock.
func (s *NegotiationService) lockDecision(ctx context.Context, tx *gorm.DB, quotationID, buyerID string) (*domain.Quotation, *domain.RFQ, error) {
	q, err := repo.GetQuotation(ctx, tx, quotationID)
	if err != nil {
		return nil, nil, notFound(err, "quotation", quotationID)
	}
	r, err := lockOwnedRFQ(ctx, tx, q.RFQID, buyerID)
	if err != nil {
		return nil, nil, err
	}
	if q, err = repo.GetQuotation(ctx, tx, quotationID); err != nil {
		return nil, nil, err
	}
	return q, r, nil
}
