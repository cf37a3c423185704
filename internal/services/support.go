package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-rfq-backend/internal/domain"
	"github.com/tbourn/go-rfq-backend/internal/repo"
)

// Notifier publishes events once a transaction has committed. Delivery is
// fire-and-forget: implementations must not block the caller and a failed
// delivery never rolls state back.
type Notifier interface {
	SendEvent(ctx context.Context, eventType string, payload any)
}

// Clock returns the current time. A nil Clock uses the wall clock.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}

// outbox collects events inside a transaction so they are only sent after
// commit.
type outbox struct {
	events []pendingEvent
}

type pendingEvent struct {
	typ     string
	payload any
}

func (o *outbox) add(typ string, payload any) {
	o.events = append(o.events, pendingEvent{typ: typ, payload: payload})
}

func (o *outbox) flush(ctx context.Context, n Notifier) {
	if n == nil {
		return
	}
	for _, e := range o.events {
		n.SendEvent(ctx, e.typ, e.payload)
	}
}

// cascadePending moves every pending quotation of rfq except exceptID to the
// target state in one statement and returns the affected quotations as they
// now are. It is shared by accept (rejected), cancel (rejected) and the
// expiry sweep (expired), and must run inside the RFQ transaction.
func cascadePending(ctx context.Context, tx *gorm.DB, rfq *domain.RFQ, exceptID string, to domain.QuotationStatus, reason string, at time.Time) ([]domain.Quotation, error) {
	all, err := repo.ListQuotationsByRFQ(ctx, tx, rfq.ID)
	if err != nil {
		return nil, err
	}
	var affected []domain.Quotation
	for _, q := range all {
		if q.Status == domain.QuotationPending && q.ID != exceptID {
			affected = append(affected, q)
		}
	}
	if len(affected) == 0 {
		return nil, nil
	}

	fields := map[string]any{
		"status":       to,
		"responded_at": at,
		"updated_at":   at,
	}
	if reason != "" {
		fields["rejection_reason"] = reason
	}
	n, err := repo.UpdatePendingQuotationsByRFQ(ctx, tx, rfq.ID, exceptID, fields)
	if err != nil {
		return nil, err
	}
	if n != int64(len(affected)) {
		return nil, invalidStatef("quotations of rfq %s were modified concurrently", rfq.ID)
	}

	for i := range affected {
		affected[i].Status = to
		affected[i].RespondedAt = &at
		affected[i].UpdatedAt = at
		affected[i].Version++
		if reason != "" {
			affected[i].RejectionReason = reason
		}
	}
	return affected, nil
}

// lockOwnedRFQ loads and locks an RFQ for a write by its buyer.
func lockOwnedRFQ(ctx context.Context, tx *gorm.DB, rfqID, buyerID string) (*domain.RFQ, error) {
	r, err := repo.LockRFQ(ctx, tx, rfqID)
	if err != nil {
		return nil, notFound(err, "rfq", rfqID)
	}
	if r.BuyerID != buyerID {
		return nil, fmt.Errorf("%w: rfq %s belongs to another buyer", ErrForbidden, rfqID)
	}
	return r, nil
}
