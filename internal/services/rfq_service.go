// Package services – RFQService
//
// This file implements RFQService, the registry of buyer requests. It
// validates and normalizes new RFQs, lists them with pagination, lets the
// owning buyer cancel or extend them, summarizes their quotations, and runs
// the expiry sweep that closes out lapsed RFQs.
//
// Every state change runs inside one transaction per RFQ: the RFQ row is
// locked, the write is a compare-and-swap on (status, version), and events
// are published only after commit.
package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tbourn/go-rfq-backend/internal/domain"
	"github.com/tbourn/go-rfq-backend/internal/observability"
	"github.com/tbourn/go-rfq-backend/internal/repo"
	"github.com/tbourn/go-rfq-backend/internal/utils"
)

// RFQFilter narrows RFQ listings.
type RFQFilter = repo.RFQFilter

// CreateRFQInput carries the buyer-supplied fields of a new RFQ.
type CreateRFQInput struct {
	BuyerID     string
	Title       string
	Description string
	Category    string
	Quantity    int
	Budget      *decimal.Decimal
	Deadline    *time.Time
	Notes       string
}

// RFQSummary is display data over an RFQ's non-withdrawn quotations. It never
// selects a winner.
type RFQSummary struct {
	RFQID          string           `json:"rfq_id"`
	Status         domain.RFQStatus `json:"status"`
	QuotationCount int              `json:"quotation_count"`
	Pending        int              `json:"pending"`
	Lowest         *decimal.Decimal `json:"lowest_price,omitempty"`
	Highest        *decimal.Decimal `json:"highest_price,omitempty"`
	Average        *decimal.Decimal `json:"average_price,omitempty"`
}

// SweepResult reports what one expiry sweep changed.
type SweepResult struct {
	RFQsExpired       int   `json:"rfqs_expired"`
	QuotationsExpired int   `json:"quotations_expired"`
	Failed            int   `json:"failed"`
	IdempotencyPurged int64 `json:"idempotency_purged"`
}

// RFQService provides the RFQ registry operations.
type RFQService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Notifier receives events after commit; nil disables publishing.
	Notifier Notifier
	// Now is the clock; nil uses the wall clock.
	Now Clock

	// TitleMaxLen caps stored titles by rune length.
	TitleMaxLen int
	// MaxPageSize caps List page sizes.
	MaxPageSize int
}

// NewRFQService constructs an RFQService with default limits.
func NewRFQService(db *gorm.DB, n Notifier) *RFQService {
	return &RFQService{
		DB:          db,
		Notifier:    n,
		TitleMaxLen: 255,
		MaxPageSize: 100,
	}
}

const rfqNumberAttempts = 3

// Create validates in and stores a new open RFQ owned by in.BuyerID.
func (s *RFQService) Create(ctx context.Context, in CreateRFQInput) (*domain.RFQ, error) {
	ctx, span := otel.Tracer("services/RFQService").Start(ctx, "Create",
		trace.WithAttributes(attribute.String("buyer.id", in.BuyerID)),
	)
	defer span.End()

	now := s.Now.now()

	title := s.clip(normalizeTitle(in.Title))
	switch {
	case strings.TrimSpace(in.BuyerID) == "":
		return nil, validationf("buyer id is required")
	case title == "":
		return nil, validationf("title is required")
	case in.Quantity <= 0:
		return nil, validationf("quantity must be > 0")
	case in.Budget != nil && !in.Budget.IsPositive():
		return nil, validationf("budget must be > 0")
	case in.Deadline != nil && !in.Deadline.After(now):
		return nil, validationf("deadline must be in the future")
	}

	r := &domain.RFQ{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Category:    normalizeCategory(in.Category),
		Quantity:    in.Quantity,
		Budget:      in.Budget,
		Notes:       strings.TrimSpace(in.Notes),
		BuyerID:     in.BuyerID,
		Status:      domain.RFQOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     1,
	}
	if in.Deadline != nil {
		dl := in.Deadline.UTC()
		r.Deadline = &dl
	}

	var err error
	for i := 0; i < rfqNumberAttempts; i++ {
		r.ID = uuid.NewString()
		r.RFQNumber = newRFQNumber(now)
		if err = repo.CreateRFQ(ctx, s.DB, r); !errors.Is(err, repo.ErrDuplicate) {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	observability.RFQTransition(string(domain.RFQOpen))
	var ob outbox
	ob.add(domain.EventRFQCreated, domain.NewRFQEvent(r, ""))
	ob.flush(ctx, s.Notifier)
	return r, nil
}

// Get returns the RFQ with id.
func (s *RFQService) Get(ctx context.Context, id string) (*domain.RFQ, error) {
	r, err := repo.GetRFQ(ctx, s.DB, id)
	if err != nil {
		return nil, notFound(err, "rfq", id)
	}
	return r, nil
}

// List returns a page of RFQs matching f, newest first, and the total count.
// It applies defaults for invalid page/limit values.
func (s *RFQService) List(ctx context.Context, f RFQFilter, page, limit int) ([]domain.RFQ, int64, error) {
	ctx, span := otel.Tracer("services/RFQService").Start(ctx, "List",
		trace.WithAttributes(
			attribute.String("filter.status", string(f.Status)),
			attribute.Int("page", page),
			attribute.Int("limit", limit),
		),
	)
	defer span.End()

	f = NormalizeRFQFilter(f)
	if f.Status != "" && !f.Status.IsValid() {
		return nil, 0, validationf("unknown status %q", f.Status)
	}
	p := utils.NormalizePaging(page, limit, 20, s.MaxPageSize)

	total, err := repo.CountRFQs(ctx, s.DB, f)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.RFQ{}, 0, nil
	}
	items, err := repo.ListRFQsPage(ctx, s.DB, f, p.Offset(), p.Limit)
	return items, total, err
}

// Cancel moves an open or quoted RFQ to cancelled on behalf of its buyer.
// Pending quotations are rejected in the same transaction so no bid stays
// pending on a terminal RFQ.
func (s *RFQService) Cancel(ctx context.Context, id, buyerID, reason string) (*domain.RFQ, error) {
	ctx, span := otel.Tracer("services/RFQService").Start(ctx, "Cancel",
		trace.WithAttributes(
			attribute.String("rfq.id", id),
			attribute.String("buyer.id", buyerID),
		),
	)
	defer span.End()

	now := s.Now.now()
	reason = strings.TrimSpace(reason)

	var (
		out *domain.RFQ
		ob  outbox
		n   int
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := lockOwnedRFQ(ctx, tx, id, buyerID)
		if err != nil {
			return err
		}
		if !r.Status.CanTransitionTo(domain.RFQCancelled) {
			return invalidStatef("rfq is %s", r.Status)
		}

		rejected, err := cascadePending(ctx, tx, r, "", domain.QuotationRejected, "rfq cancelled", now)
		if err != nil {
			return err
		}
		err = repo.UpdateRFQ(ctx, tx, r.ID, r.Version, []domain.RFQStatus{r.Status}, map[string]any{
			"status":        domain.RFQCancelled,
			"cancel_reason": reason,
			"updated_at":    now,
		})
		if err != nil {
			return lostRace(err, "rfq")
		}

		if out, err = repo.GetRFQ(ctx, tx, r.ID); err != nil {
			return err
		}
		for i := range rejected {
			ob.add(domain.EventQuotationRejected, domain.NewQuotationEvent(&rejected[i], r.BuyerID))
		}
		ob.add(domain.EventRFQCancelled, domain.NewRFQEvent(out, reason))
		n = len(rejected)
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.RFQTransition(string(domain.RFQCancelled))
	observability.QuotationTransitions(string(domain.QuotationRejected), n)
	ob.flush(ctx, s.Notifier)
	return out, nil
}

// ExtendDeadline moves a live RFQ's deadline later. The new deadline must be
// in the future and after the current one; an RFQ whose deadline already
// passed cannot be revived.
func (s *RFQService) ExtendDeadline(ctx context.Context, id, buyerID string, deadline time.Time) (*domain.RFQ, error) {
	ctx, span := otel.Tracer("services/RFQService").Start(ctx, "ExtendDeadline",
		trace.WithAttributes(attribute.String("rfq.id", id)),
	)
	defer span.End()

	now := s.Now.now()
	deadline = deadline.UTC()
	if !deadline.After(now) {
		return nil, validationf("deadline must be in the future")
	}

	var (
		out *domain.RFQ
		ob  outbox
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := lockOwnedRFQ(ctx, tx, id, buyerID)
		if err != nil {
			return err
		}
		if !r.AcceptsBids(now) {
			return invalidStatef("rfq is no longer accepting quotations")
		}
		if r.Deadline != nil && !deadline.After(*r.Deadline) {
			return validationf("deadline must be after the current deadline")
		}
		err = repo.UpdateRFQ(ctx, tx, r.ID, r.Version, []domain.RFQStatus{r.Status}, map[string]any{
			"deadline":   deadline,
			"updated_at": now,
		})
		if err != nil {
			return lostRace(err, "rfq")
		}
		if out, err = repo.GetRFQ(ctx, tx, r.ID); err != nil {
			return err
		}
		ob.add(domain.EventRFQDeadlineExtended, domain.NewRFQEvent(out, ""))
		return nil
	})
	if err != nil {
		return nil, err
	}
	ob.flush(ctx, s.Notifier)
	return out, nil
}

// Summary computes price statistics over the RFQ's non-withdrawn quotations.
func (s *RFQService) Summary(ctx context.Context, id string) (*RFQSummary, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	qs, err := repo.ListQuotationsByRFQ(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}

	sum := &RFQSummary{RFQID: r.ID, Status: r.Status}
	var total decimal.Decimal
	for _, q := range qs {
		if q.Status == domain.QuotationWithdrawn {
			continue
		}
		if q.Status == domain.QuotationPending {
			sum.Pending++
		}
		p := q.Price
		if sum.QuotationCount == 0 || p.LessThan(*sum.Lowest) {
			sum.Lowest = &p
		}
		if sum.QuotationCount == 0 || p.GreaterThan(*sum.Highest) {
			sum.Highest = &p
		}
		total = total.Add(p)
		sum.QuotationCount++
	}
	if sum.QuotationCount > 0 {
		avg := total.Div(decimal.NewFromInt(int64(sum.QuotationCount))).Round(4)
		sum.Average = &avg
	}
	return sum, nil
}

// CurrentTime is the service clock's reading in UTC.
func (s *RFQService) CurrentTime() time.Time { return s.Now.now() }

// ExpirySweep expires every live RFQ whose deadline is before now, cascading
// its pending quotations to expired, then expires pending quotations whose
// own validity lapsed. Each RFQ is handled in its own transaction; a failure
// is logged and counted but never aborts the batch. Running it twice with the
// same now changes nothing the second time. Idempotency records that expired
// by now are purged at the end.
func (s *RFQService) ExpirySweep(ctx context.Context, now time.Time) (SweepResult, error) {
	ctx, span := otel.Tracer("services/RFQService").Start(ctx, "ExpirySweep")
	defer span.End()

	now = now.UTC()
	var res SweepResult

	lapsed, err := repo.ListLapsedRFQs(ctx, s.DB, now)
	if err != nil {
		return res, err
	}
	for _, r := range lapsed {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		n, expired, err := s.expireRFQ(ctx, r.ID, now)
		if err != nil {
			res.Failed++
			log.Warn().Err(err).Str("rfq_id", r.ID).Msg("expiry sweep: rfq skipped")
			continue
		}
		if expired {
			res.RFQsExpired++
			res.QuotationsExpired += n
		}
	}

	stale, err := repo.ListLapsedQuotations(ctx, s.DB, now)
	if err != nil {
		return res, err
	}
	for _, q := range stale {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		expired, err := s.expireQuotation(ctx, q.ID, now)
		if err != nil {
			res.Failed++
			log.Warn().Err(err).Str("quotation_id", q.ID).Msg("expiry sweep: quotation skipped")
			continue
		}
		if expired {
			res.QuotationsExpired++
		}
	}

	// Stored replay results are disposable; a failed purge waits for the next run.
	if n, err := repo.PurgeExpiredIdempotency(ctx, s.DB, now); err != nil {
		log.Warn().Err(err).Msg("expiry sweep: idempotency purge failed")
	} else {
		res.IdempotencyPurged = n
	}

	observability.SweepCompleted(res.Failed)
	span.SetAttributes(
		attribute.Int("sweep.rfqs_expired", res.RFQsExpired),
		attribute.Int("sweep.quotations_expired", res.QuotationsExpired),
		attribute.Int("sweep.failed", res.Failed),
		attribute.Int64("sweep.idempotency_purged", res.IdempotencyPurged),
	)
	if res != (SweepResult{}) {
		log.Info().
			Int("rfqs_expired", res.RFQsExpired).
			Int("quotations_expired", res.QuotationsExpired).
			Int("failed", res.Failed).
			Int64("idempotency_purged", res.IdempotencyPurged).
			Msg("expiry sweep finished")
	}
	return res, nil
}

// expireRFQ expires one RFQ if it is still lapsed under lock. It reports the
// number of cascaded quotations and whether the RFQ changed.
func (s *RFQService) expireRFQ(ctx context.Context, id string, now time.Time) (int, bool, error) {
	var (
		ob      outbox
		n       int
		changed bool
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := repo.LockRFQ(ctx, tx, id)
		if err != nil {
			return err
		}
		// Decided, cancelled or extended since the candidate query.
		if !r.Lapsed(now) {
			return nil
		}

		expired, err := cascadePending(ctx, tx, r, "", domain.QuotationExpired, "", now)
		if err != nil {
			return err
		}
		err = repo.UpdateRFQ(ctx, tx, r.ID, r.Version, []domain.RFQStatus{r.Status}, map[string]any{
			"status":     domain.RFQExpired,
			"updated_at": now,
		})
		if err != nil {
			return err
		}

		r.Status = domain.RFQExpired
		for i := range expired {
			ob.add(domain.EventQuotationExpired, domain.NewQuotationEvent(&expired[i], r.BuyerID))
		}
		ob.add(domain.EventRFQExpired, domain.NewRFQEvent(r, "deadline passed"))
		n, changed = len(expired), true
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	if changed {
		observability.RFQTransition(string(domain.RFQExpired))
		observability.QuotationTransitions(string(domain.QuotationExpired), n)
		ob.flush(ctx, s.Notifier)
	}
	return n, changed, nil
}

// expireQuotation expires one pending quotation whose validity lapsed.
func (s *RFQService) expireQuotation(ctx context.Context, id string, now time.Time) (bool, error) {
	var (
		ob      outbox
		changed bool
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q, err := repo.GetQuotation(ctx, tx, id)
		if err != nil {
			return err
		}
		r, err := repo.LockRFQ(ctx, tx, q.RFQID)
		if err != nil {
			return err
		}
		if q, err = repo.GetQuotation(ctx, tx, id); err != nil {
			return err
		}
		if q.Status != domain.QuotationPending || !q.ValidUntil.Before(now) {
			return nil
		}
		err = repo.UpdatePendingQuotation(ctx, tx, q.ID, q.Version, map[string]any{
			"status":       domain.QuotationExpired,
			"responded_at": now,
			"updated_at":   now,
		})
		if err != nil {
			return err
		}
		q.Status = domain.QuotationExpired
		ob.add(domain.EventQuotationExpired, domain.NewQuotationEvent(q, r.BuyerID))
		changed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if changed {
		observability.QuotationTransitions(string(domain.QuotationExpired), 1)
		ob.flush(ctx, s.Notifier)
	}
	return changed, nil
}

// clip truncates a title to the configured maximum rune length.
func (s *RFQService) clip(title string) string {
	if s.TitleMaxLen > 0 && utf8.RuneCountInString(title) > s.TitleMaxLen {
		return string([]rune(title)[:s.TitleMaxLen])
	}
	return title
}

// newRFQNumber builds the human-facing reference RFQ-YYYYMMDD-XXXXXXXX.
func newRFQNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("RFQ-%s-%s", now.Format("20060102"), suffix)
}

// normalizeTitle trims whitespace and collapses multiple spaces to one.
func normalizeTitle(s string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}

// NormalizeRFQFilter canonicalizes a filter the way stored RFQs are
// canonicalized, so callers that query the store directly (ETag stats) see
// the same rows List returns.
func NormalizeRFQFilter(f RFQFilter) RFQFilter {
	f.Status = domain.RFQStatus(strings.ToLower(strings.TrimSpace(string(f.Status))))
	f.BuyerID = strings.TrimSpace(f.BuyerID)
	f.Category = normalizeCategory(f.Category)
	return f
}

// normalizeCategory folds case so "Metals" and "metals" list together.
func normalizeCategory(s string) string {
	return categoryCaser.String(normalizeTitle(s))
}

var (
	// whitespaceRE collapses consecutive whitespace to a single space.
	whitespaceRE = regexp.MustCompile(`\s+`)

	categoryCaser = cases.Lower(language.Und)
)
