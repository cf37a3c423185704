// Package services – QuotationService
//
// This file implements QuotationService, the ledger of vendor bids. A vendor
// submits at most one pending quotation per RFQ and may revise or withdraw it
// until the buyer decides. Submission and withdrawal lock the parent RFQ so they
// serialize with accept, cancel and the expiry sweep.
package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-rfq-backend/internal/domain"
	"github.com/tbourn/go-rfq-backend/internal/observability"
	"github.com/tbourn/go-rfq-backend/internal/repo"
	"github.com/tbourn/go-rfq-backend/internal/utils"
)

// SubmitQuotationInput carries a vendor's bid.
type SubmitQuotationInput struct {
	RFQID        string
	VendorID     string
	Price        decimal.Decimal
	Quantity     int
	MOQ          int
	DeliveryTime string
	ValidUntil   time.Time
	Notes        string
}

// ReviseQuotationInput carries a vendor's new terms for a pending
// quotation. Nil fields keep their current value.
type ReviseQuotationInput struct {
	QuotationID  string
	VendorID     string
	Price        *decimal.Decimal
	Quantity     *int
	MOQ          *int
	DeliveryTime *string
	ValidUntil   *time.Time
	Notes        *string
	Reason       string
}

// QuotationService provides the quotation ledger operations.
type QuotationService struct {
	DB       *gorm.DB
	Notifier Notifier
	Now      Clock

	// MaxPageSize caps ListByVendor page sizes.
	MaxPageSize int
}

// NewQuotationService constructs a QuotationService.
func NewQuotationService(db *gorm.DB, n Notifier) *QuotationService {
	return &QuotationService{DB: db, Notifier: n, MaxPageSize: 100}
}

// Submit records a pending quotation against a live RFQ. Input is validated
// before any state is read. The first quotation moves the RFQ from open to
// quoted; later ones only bump its count.
func (s *QuotationService) Submit(ctx context.Context, in SubmitQuotationInput) (*domain.Quotation, error) {
	ctx, span := otel.Tracer("services/QuotationService").Start(ctx, "Submit",
		trace.WithAttributes(
			attribute.String("rfq.id", in.RFQID),
			attribute.String("vendor.id", in.VendorID),
		),
	)
	defer span.End()

	now := s.Now.now()
	switch {
	case strings.TrimSpace(in.VendorID) == "":
		return nil, validationf("vendor id is required")
	case strings.TrimSpace(in.RFQID) == "":
		return nil, validationf("rfq id is required")
	}
	if err := validateTerms(in.Price, in.Quantity, in.MOQ, in.ValidUntil, now); err != nil {
		return nil, err
	}

	q := &domain.Quotation{
		ID:           uuid.NewString(),
		RFQID:        in.RFQID,
		VendorID:     in.VendorID,
		Price:        in.Price,
		Quantity:     in.Quantity,
		MOQ:          in.MOQ,
		DeliveryTime: strings.TrimSpace(in.DeliveryTime),
		ValidUntil:   in.ValidUntil.UTC(),
		Notes:        strings.TrimSpace(in.Notes),
		Status:       domain.QuotationPending,
		CreatedAt:    now,
		UpdatedAt:    now,
		Version:      1,
	}

	var (
		ob     outbox
		opened bool
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := repo.LockRFQ(ctx, tx, in.RFQID)
		if err != nil {
			return notFound(err, "rfq", in.RFQID)
		}
		if !r.AcceptsBids(now) {
			return invalidStatef("rfq is not accepting quotations")
		}
		if _, err := repo.FindPendingQuotation(ctx, tx, r.ID, in.VendorID); err == nil {
			return ErrDuplicate
		} else if !repo.IsNotFound(err) {
			return err
		}

		if err := repo.CreateQuotation(ctx, tx, q); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return ErrDuplicate
			}
			return err
		}
		err = repo.UpdateRFQ(ctx, tx, r.ID, r.Version, []domain.RFQStatus{r.Status}, map[string]any{
			"status":          domain.RFQQuoted,
			"quotation_count": gorm.Expr("quotation_count + 1"),
			"updated_at":      now,
		})
		if err != nil {
			return lostRace(err, "rfq")
		}

		opened = r.Status == domain.RFQOpen
		ob.add(domain.EventQuotationSubmitted, domain.NewQuotationEvent(q, r.BuyerID))
		return nil
	})
	if err != nil {
		return nil, err
	}

	if opened {
		observability.RFQTransition(string(domain.RFQQuoted))
	}
	ob.flush(ctx, s.Notifier)
	return q, nil
}

// Withdraw lets the submitting vendor retract a pending quotation. The RFQ's
// count is recomputed from its non-withdrawn quotations; its status stays
// quoted.
func (s *QuotationService) Withdraw(ctx context.Context, id, vendorID string) (*domain.Quotation, error) {
	ctx, span := otel.Tracer("services/QuotationService").Start(ctx, "Withdraw",
		trace.WithAttributes(
			attribute.String("quotation.id", id),
			attribute.String("vendor.id", vendorID),
		),
	)
	defer span.End()

	now := s.Now.now()
	var (
		out *domain.Quotation
		ob  outbox
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q, err := repo.GetQuotation(ctx, tx, id)
		if err != nil {
			return notFound(err, "quotation", id)
		}
		if q.VendorID != vendorID {
			return ErrForbidden
		}
		r, err := repo.LockRFQ(ctx, tx, q.RFQID)
		if err != nil {
			return notFound(err, "rfq", q.RFQID)
		}
		// Re-read under the RFQ lock.
		if q, err = repo.GetQuotation(ctx, tx, id); err != nil {
			return err
		}
		if q.Status != domain.QuotationPending {
			return invalidStatef("quotation is %s", q.Status)
		}

		err = repo.UpdatePendingQuotation(ctx, tx, q.ID, q.Version, map[string]any{
			"status":       domain.QuotationWithdrawn,
			"responded_at": now,
			"updated_at":   now,
		})
		if err != nil {
			return lostRace(err, "quotation")
		}
		active, err := repo.CountActiveQuotations(ctx, tx, r.ID)
		if err != nil {
			return err
		}
		err = repo.UpdateRFQ(ctx, tx, r.ID, r.Version, []domain.RFQStatus{r.Status}, map[string]any{
			"quotation_count": active,
			"updated_at":      now,
		})
		if err != nil {
			return lostRace(err, "rfq")
		}

		if out, err = repo.GetQuotation(ctx, tx, id); err != nil {
			return err
		}
		ob.add(domain.EventQuotationWithdrawn, domain.NewQuotationEvent(out, r.BuyerID))
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.QuotationTransitions(string(domain.QuotationWithdrawn), 1)
	ob.flush(ctx, s.Notifier)
	return out, nil
}

// Get returns the quotation with id.
func (s *QuotationService) Get(ctx context.Context, id string) (*domain.Quotation, error) {
	q, err := repo.GetQuotation(ctx, s.DB, id)
	if err != nil {
		return nil, notFound(err, "quotation", id)
	}
	return q, nil
}

// List returns every quotation of an RFQ ordered by price ascending, ties
// broken by submission time and then id. The order is for display only.
func (s *QuotationService) List(ctx context.Context, rfqID string) ([]domain.Quotation, error) {
	ctx, span := otel.Tracer("services/QuotationService").Start(ctx, "List",
		trace.WithAttributes(attribute.String("rfq.id", rfqID)),
	)
	defer span.End()

	if _, err := repo.GetRFQ(ctx, s.DB, rfqID); err != nil {
		return nil, notFound(err, "rfq", rfqID)
	}
	qs, err := repo.ListQuotationsByRFQ(ctx, s.DB, rfqID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(qs, func(i, j int) bool {
		if c := qs[i].Price.Cmp(qs[j].Price); c != 0 {
			return c < 0
		}
		if !qs[i].CreatedAt.Equal(qs[j].CreatedAt) {
			return qs[i].CreatedAt.Before(qs[j].CreatedAt)
		}
		return qs[i].ID < qs[j].ID
	})
	return qs, nil
}

// ListByVendor returns one page of the vendor's own quotations across all
// RFQs, newest first, optionally narrowed to one status.
func (s *QuotationService) ListByVendor(ctx context.Context, vendorID string, status domain.QuotationStatus, page, limit int) ([]domain.Quotation, int64, error) {
	ctx, span := otel.Tracer("services/QuotationService").Start(ctx, "ListByVendor",
		trace.WithAttributes(
			attribute.String("vendor.id", vendorID),
			attribute.String("filter.status", string(status)),
		),
	)
	defer span.End()

	f := repo.VendorQuotationFilter{
		VendorID: strings.TrimSpace(vendorID),
		Status:   domain.QuotationStatus(strings.ToLower(strings.TrimSpace(string(status)))),
	}
	if f.VendorID == "" {
		return nil, 0, validationf("vendor id is required")
	}
	if f.Status != "" && !f.Status.IsValid() {
		return nil, 0, validationf("unknown status %q", f.Status)
	}
	p := utils.NormalizePaging(page, limit, 20, s.MaxPageSize)

	total, err := repo.CountVendorQuotations(ctx, s.DB, f)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Quotation{}, 0, nil
	}
	items, err := repo.ListVendorQuotationsPage(ctx, s.DB, f, p.Offset(), p.Limit)
	return items, total, err
}

// Revise replaces the terms of the vendor's pending quotation while its RFQ
// still takes bids. The superseded terms are appended to the revision ledger
// under the old version, then the quotation's version is bumped. The ledger
// plus the current row hold every offer the quotation carried.
func (s *QuotationService) Revise(ctx context.Context, in ReviseQuotationInput) (*domain.Quotation, error) {
	ctx, span := otel.Tracer("services/QuotationService").Start(ctx, "Revise",
		trace.WithAttributes(
			attribute.String("quotation.id", in.QuotationID),
			attribute.String("vendor.id", in.VendorID),
		),
	)
	defer span.End()

	now := s.Now.now()
	switch {
	case strings.TrimSpace(in.VendorID) == "":
		return nil, validationf("vendor id is required")
	case in.Price == nil && in.Quantity == nil && in.MOQ == nil &&
		in.DeliveryTime == nil && in.ValidUntil == nil && in.Notes == nil:
		return nil, validationf("revision changes nothing")
	case in.Price != nil && !in.Price.IsPositive():
		return nil, validationf("price must be > 0")
	case in.Quantity != nil && *in.Quantity <= 0:
		return nil, validationf("quantity must be > 0")
	case in.MOQ != nil && *in.MOQ < 0:
		return nil, validationf("moq must be >= 0")
	case in.ValidUntil != nil && !in.ValidUntil.After(now):
		return nil, validationf("valid_until must be in the future")
	}

	var (
		out *domain.Quotation
		ob  outbox
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q, err := repo.GetQuotation(ctx, tx, in.QuotationID)
		if err != nil {
			return notFound(err, "quotation", in.QuotationID)
		}
		if q.VendorID != in.VendorID {
			return ErrForbidden
		}
		r, err := repo.LockRFQ(ctx, tx, q.RFQID)
		if err != nil {
			return notFound(err, "rfq", q.RFQID)
		}
		if q, err = repo.GetQuotation(ctx, tx, in.QuotationID); err != nil {
			return err
		}
		if q.Status != domain.QuotationPending {
			return invalidStatef("quotation is %s", q.Status)
		}
		if !q.IsLive(now) {
			return ErrExpired
		}
		if !r.AcceptsBids(now) {
			return invalidStatef("rfq is not accepting quotations")
		}

		next := *q
		if in.Price != nil {
			next.Price = *in.Price
		}
		if in.Quantity != nil {
			next.Quantity = *in.Quantity
		}
		if in.MOQ != nil {
			next.MOQ = *in.MOQ
		}
		if in.DeliveryTime != nil {
			next.DeliveryTime = strings.TrimSpace(*in.DeliveryTime)
		}
		if in.ValidUntil != nil {
			next.ValidUntil = in.ValidUntil.UTC()
		}
		if in.Notes != nil {
			next.Notes = strings.TrimSpace(*in.Notes)
		}
		if err := validateTerms(next.Price, next.Quantity, next.MOQ, next.ValidUntil, now); err != nil {
			return err
		}
		if sameTerms(q, &next) {
			return validationf("revision changes nothing")
		}

		rev := domain.NewRevision(uuid.NewString(), q, strings.TrimSpace(in.Reason), now)
		if err := repo.CreateQuotationRevision(ctx, tx, &rev); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return invalidStatef("quotation was modified concurrently")
			}
			return err
		}
		err = repo.UpdatePendingQuotation(ctx, tx, q.ID, q.Version, map[string]any{
			"price":         next.Price,
			"quantity":      next.Quantity,
			"moq":           next.MOQ,
			"delivery_time": next.DeliveryTime,
			"valid_until":   next.ValidUntil,
			"notes":         next.Notes,
			"updated_at":    now,
		})
		if err != nil {
			return lostRace(err, "quotation")
		}

		if out, err = repo.GetQuotation(ctx, tx, q.ID); err != nil {
			return err
		}
		ob.add(domain.EventQuotationRevised, domain.NewQuotationEvent(out, r.BuyerID))
		return nil
	})
	if err != nil {
		return nil, err
	}

	ob.flush(ctx, s.Notifier)
	return out, nil
}

// Revisions returns the superseded terms of a quotation, oldest first. A
// quotation that was never revised has none.
func (s *QuotationService) Revisions(ctx context.Context, id string) ([]domain.QuotationRevision, error) {
	if _, err := repo.GetQuotation(ctx, s.DB, id); err != nil {
		return nil, notFound(err, "quotation", id)
	}
	revs, err := repo.ListQuotationRevisions(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if revs == nil {
		revs = []domain.QuotationRevision{}
	}
	return revs, nil
}

// validateTerms checks a quotation's commercial terms at now.
func validateTerms(price decimal.Decimal, quantity, moq int, validUntil, now time.Time) error {
	switch {
	case !price.IsPositive():
		return validationf("price must be > 0")
	case quantity <= 0:
		return validationf("quantity must be > 0")
	case moq < 0:
		return validationf("moq must be >= 0")
	case moq > quantity:
		return validationf("moq must not exceed quantity")
	case !validUntil.After(now):
		return validationf("valid_until must be in the future")
	}
	return nil
}

func sameTerms(a, b *domain.Quotation) bool {
	return a.Price.Equal(b.Price) &&
		a.Quantity == b.Quantity &&
		a.MOQ == b.MOQ &&
		a.DeliveryTime == b.DeliveryTime &&
		a.ValidUntil.Equal(b.ValidUntil) &&
		a.Notes == b.Notes
}
