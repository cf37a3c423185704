package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-rfq-backend/internal/domain"
	"github.com/tbourn/go-rfq-backend/internal/repo"
)

// ---------- test helpers ----------

var epoch = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := repo.OpenSQLite(dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Logger = logger.Default.LogMode(logger.Silent)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type recordedEvent struct {
	typ     string
	payload any
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (n *recordingNotifier) SendEvent(_ context.Context, typ string, payload any) {
	n.mu.Lock()
	n.events = append(n.events, recordedEvent{typ: typ, payload: payload})
	n.mu.Unlock()
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.events))
	for i, e := range n.events {
		out[i] = e.typ
	}
	return out
}

func (n *recordingNotifier) reset() {
	n.mu.Lock()
	n.events = nil
	n.mu.Unlock()
}

type fixture struct {
	db     *gorm.DB
	clock  *testClock
	notes  *recordingNotifier
	rfqs   *RFQService
	quotes *QuotationService
	neg    *NegotiationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newServiceDB(t)
	clock := &testClock{t: epoch}
	notes := &recordingNotifier{}

	rfqs := NewRFQService(db, notes)
	rfqs.Now = clock.Now
	quotes := NewQuotationService(db, notes)
	quotes.Now = clock.Now
	neg := NewNegotiationService(db, notes)
	neg.Now = clock.Now

	return &fixture{db: db, clock: clock, notes: notes, rfqs: rfqs, quotes: quotes, neg: neg}
}

func (f *fixture) createRFQ(t *testing.T, buyerID string, deadline *time.Time) *domain.RFQ {
	t.Helper()
	r, err := f.rfqs.Create(context.Background(), CreateRFQInput{
		BuyerID:  buyerID,
		Title:    "Steel beams",
		Category: "metals",
		Quantity: 100,
		Deadline: deadline,
	})
	if err != nil {
		t.Fatalf("create rfq: %v", err)
	}
	return r
}

func (f *fixture) submit(t *testing.T, rfqID, vendorID string, price int64) *domain.Quotation {
	t.Helper()
	q, err := f.quotes.Submit(context.Background(), f.bid(rfqID, vendorID, price))
	if err != nil {
		t.Fatalf("submit %s: %v", vendorID, err)
	}
	return q
}

func (f *fixture) bid(rfqID, vendorID string, price int64) SubmitQuotationInput {
	return SubmitQuotationInput{
		RFQID:        rfqID,
		VendorID:     vendorID,
		Price:        decimal.NewFromInt(price),
		Quantity:     100,
		MOQ:          10,
		DeliveryTime: "14 days",
		ValidUntil:   f.clock.Now().Add(72 * time.Hour),
	}
}

func (f *fixture) reloadRFQ(t *testing.T, id string) *domain.RFQ {
	t.Helper()
	r, err := repo.GetRFQ(context.Background(), f.db, id)
	if err != nil {
		t.Fatalf("reload rfq: %v", err)
	}
	return r
}

func (f *fixture) reloadQuotation(t *testing.T, id string) *domain.Quotation {
	t.Helper()
	q, err := repo.GetQuotation(context.Background(), f.db, id)
	if err != nil {
		t.Fatalf("reload quotation: %v", err)
	}
	return q
}

// assertInvariants checks the cross-entity rules that must hold after any
// sequence of operations.
func assertInvariants(t *testing.T, db *gorm.DB) {
	t.Helper()
	var rfqs []domain.RFQ
	if err := db.Find(&rfqs).Error; err != nil {
		t.Fatalf("load rfqs: %v", err)
	}
	for _, r := range rfqs {
		qs, err := repo.ListQuotationsByRFQ(context.Background(), db, r.ID)
		if err != nil {
			t.Fatalf("load quotations: %v", err)
		}
		var accepted, pending, live int
		for _, q := range qs {
			switch q.Status {
			case domain.QuotationAccepted:
				accepted++
				if r.Status != domain.RFQClosed || r.AcceptedQuotationID == nil || *r.AcceptedQuotationID != q.ID {
					t.Fatalf("rfq %s: accepted quotation %s not recorded on closed rfq", r.ID, q.ID)
				}
			case domain.QuotationPending:
				pending++
			}
			if q.Status != domain.QuotationWithdrawn {
				live++
			}
		}
		if accepted > 1 {
			t.Fatalf("rfq %s: %d accepted quotations", r.ID, accepted)
		}
		if r.Status == domain.RFQClosed && accepted != 1 {
			t.Fatalf("rfq %s: closed without exactly one accepted quotation", r.ID)
		}
		if r.Status.IsTerminal() && pending > 0 {
			t.Fatalf("rfq %s: %s with %d pending quotations", r.ID, r.Status, pending)
		}
		active, err := repo.CountActiveQuotations(context.Background(), db, r.ID)
		if err != nil {
			t.Fatalf("count active: %v", err)
		}
		if int64(r.QuotationCount) != active || int(active) != live {
			t.Fatalf("rfq %s: quotation_count=%d, non-withdrawn=%d/%d", r.ID, r.QuotationCount, active, live)
		}
	}
}

func ptrTime(t time.Time) *time.Time { return &t }
