package repo

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tbourn/go-rfq-backend/internal/domain"
)

func TestCreateQuotation_DuplicatePending(t *testing.T) {
	db := newTestDB(t, true)
	ctx := context.Background()
	r := seedRFQ(t, db, nil)

	q := &domain.Quotation{
		ID: uuid.NewString(), RFQID: r.ID, VendorID: "v1", Price: decimal.NewFromInt(10),
		Quantity: 5, ValidUntil: testEpoch.Add(time.Hour), Status: domain.QuotationPending, Version: 1,
	}
	if err := CreateQuotation(ctx, db, q); err != nil {
		t.Fatalf("CreateQuotation: %v", err)
	}
	q2 := *q
	q2.ID = uuid.NewString()
	if err := CreateQuotation(ctx, db, &q2); err != ErrDuplicate {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	got, err := GetQuotation(ctx, db, q.ID)
	if err != nil || got.VendorID != "v1" || !got.Price.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("GetQuotation = (%+v, %v)", got, err)
	}
	if _, err := GetQuotation(ctx, db, "missing"); !IsNotFound(err) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFindPendingQuotation(t *testing.T) {
	db := newTestDB(t, true)
	ctx := context.Background()
	r := seedRFQ(t, db, nil)

	seedQuotation(t, db, r.ID, "v1", func(q *domain.Quotation) { q.Status = domain.QuotationWithdrawn })
	if _, err := FindPendingQuotation(ctx, db, r.ID, "v1"); !IsNotFound(err) {
		t.Fatalf("withdrawn quotation must not count as pending, got %v", err)
	}

	p := seedQuotation(t, db, r.ID, "v1", nil)
	got, err := FindPendingQuotation(ctx, db, r.ID, "v1")
	if err != nil || got.ID != p.ID {
		t.Fatalf("FindPendingQuotation = (%+v, %v)", got, err)
	}
}

func TestListQuotationsByRFQ_SubmissionOrder(t *testing.T) {
	db := newTestDB(t, true)
	r := seedRFQ(t, db, nil)
	other := seedRFQ(t, db, nil)

	second := seedQuotation(t, db, r.ID, "v2", func(q *domain.Quotation) { q.CreatedAt = testEpoch.Add(time.Minute) })
	first := seedQuotation(t, db, r.ID, "v1", nil)
	seedQuotation(t, db, other.ID, "v1", nil)

	got, err := ListQuotationsByRFQ(context.Background(), db, r.ID)
	if err != nil {
		t.Fatalf("ListQuotationsByRFQ: %v", err)
	}
	if len(got) != 2 || got[0].ID != first.ID || got[1].ID != second.ID {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestUpdatePendingQuotation_CompareAndSwap(t *testing.T) {
	db := newTestDB(t, true)
	ctx := context.Background()
	r := seedRFQ(t, db, nil)
	q := seedQuotation(t, db, r.ID, "v1", nil)

	if err := UpdatePendingQuotation(ctx, db, q.ID, q.Version+5, map[string]any{"status": domain.QuotationAccepted}); err != ErrStale {
		t.Fatalf("expected ErrStale for wrong version, got %v", err)
	}
	if err := UpdatePendingQuotation(ctx, db, q.ID, q.Version, map[string]any{"status": domain.QuotationAccepted}); err != nil {
		t.Fatalf("UpdatePendingQuotation: %v", err)
	}
	// no longer pending: the second writer loses
	if err := UpdatePendingQuotation(ctx, db, q.ID, q.Version+1, map[string]any{"status": domain.QuotationRejected}); err != ErrStale {
		t.Fatalf("expected ErrStale on non-pending row, got %v", err)
	}
	got, _ := GetQuotation(ctx, db, q.ID)
	if got.Status != domain.QuotationAccepted || got.Version != q.Version+1 {
		t.Fatalf("after CAS: %+v", got)
	}
}

func TestUpdatePendingQuotationsByRFQ_SkipsExceptAndTerminal(t *testing.T) {
	db := newTestDB(t, true)
	ctx := context.Background()
	r := seedRFQ(t, db, nil)

	keep := seedQuotation(t, db, r.ID, "v1", nil)
	a := seedQuotation(t, db, r.ID, "v2", nil)
	b := seedQuotation(t, db, r.ID, "v3", nil)
	w := seedQuotation(t, db, r.ID, "v4", func(q *domain.Quotation) { q.Status = domain.QuotationWithdrawn })

	n, err := UpdatePendingQuotationsByRFQ(ctx, db, r.ID, keep.ID, map[string]any{
		"status":           domain.QuotationRejected,
		"rejection_reason": "another quotation was accepted",
	})
	if err != nil || n != 2 {
		t.Fatalf("UpdatePendingQuotationsByRFQ = (%d, %v); want 2", n, err)
	}

	for _, id := range []string{a.ID, b.ID} {
		got, _ := GetQuotation(ctx, db, id)
		if got.Status != domain.QuotationRejected || got.RejectionReason == "" || got.Version != 2 {
			t.Fatalf("sibling not cascaded: %+v", got)
		}
	}
	if got, _ := GetQuotation(ctx, db, keep.ID); got.Status != domain.QuotationPending {
		t.Fatalf("excepted quotation changed: %+v", got)
	}
	if got, _ := GetQuotation(ctx, db, w.ID); got.Status != domain.QuotationWithdrawn {
		t.Fatalf("terminal quotation changed: %+v", got)
	}

	active, err := CountActiveQuotations(ctx, db, r.ID)
	if err != nil || active != 3 {
		t.Fatalf("CountActiveQuotations = (%d, %v); want 3", active, err)
	}
}

func TestListLapsedQuotations_OnlyLiveRFQs(t *testing.T) {
	db := newTestDB(t, true)
	now := testEpoch.Add(48 * time.Hour)

	live := seedRFQ(t, db, nil)
	closed := seedRFQ(t, db, func(r *domain.RFQ) { r.Status = domain.RFQClosed })

	lapsed := seedQuotation(t, db, live.ID, "v1", func(q *domain.Quotation) { q.ValidUntil = now.Add(-time.Second) })
	seedQuotation(t, db, live.ID, "v2", func(q *domain.Quotation) { q.ValidUntil = now })
	seedQuotation(t, db, live.ID, "v3", func(q *domain.Quotation) {
		q.ValidUntil = now.Add(-time.Hour)
		q.Status = domain.QuotationRejected
	})
	seedQuotation(t, db, closed.ID, "v1", func(q *domain.Quotation) { q.ValidUntil = now.Add(-time.Hour) })

	got, err := ListLapsedQuotations(context.Background(), db, now)
	if err != nil {
		t.Fatalf("ListLapsedQuotations: %v", err)
	}
	if len(got) != 1 || got[0].ID != lapsed.ID {
		t.Fatalf("expected only the lapsed pending quotation, got %+v", got)
	}
}

func TestVendorQuotations_FilterAndPage(t *testing.T) {
	db := newTestDB(t, true)
	ctx := context.Background()
	r1 := seedRFQ(t, db, nil)
	r2 := seedRFQ(t, db, nil)
	r3 := seedRFQ(t, db, nil)

	old := seedQuotation(t, db, r1.ID, "v1", func(q *domain.Quotation) { q.Status = domain.QuotationRejected })
	mid := seedQuotation(t, db, r2.ID, "v1", func(q *domain.Quotation) { q.CreatedAt = testEpoch.Add(time.Hour) })
	newest := seedQuotation(t, db, r3.ID, "v1", func(q *domain.Quotation) { q.CreatedAt = testEpoch.Add(2 * time.Hour) })
	seedQuotation(t, db, r1.ID, "v2", nil)

	all := VendorQuotationFilter{VendorID: "v1"}
	if n, err := CountVendorQuotations(ctx, db, all); err != nil || n != 3 {
		t.Fatalf("count = (%d, %v); want 3", n, err)
	}
	page, err := ListVendorQuotationsPage(ctx, db, all, 0, 2)
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if len(page) != 2 || page[0].ID != newest.ID || page[1].ID != mid.ID {
		t.Fatalf("page 1 order: %+v", page)
	}
	if page, _ = ListVendorQuotationsPage(ctx, db, all, 2, 2); len(page) != 1 || page[0].ID != old.ID {
		t.Fatalf("page 2: %+v", page)
	}

	pending := VendorQuotationFilter{VendorID: "v1", Status: domain.QuotationPending}
	if n, _ := CountVendorQuotations(ctx, db, pending); n != 2 {
		t.Fatalf("pending count = %d; want 2", n)
	}
	if n, _ := CountVendorQuotations(ctx, db, VendorQuotationFilter{VendorID: "v9"}); n != 0 {
		t.Fatalf("unknown vendor count = %d", n)
	}
}

func TestQuotationRevisions_AppendOnlyPerVersion(t *testing.T) {
	db := newTestDB(t, true)
	ctx := context.Background()
	r := seedRFQ(t, db, nil)
	q := seedQuotation(t, db, r.ID, "v1", nil)

	v1 := domain.NewRevision(uuid.NewString(), q, "initial terms", testEpoch)
	if err := CreateQuotationRevision(ctx, db, &v1); err != nil {
		t.Fatalf("revision v1: %v", err)
	}
	again := domain.NewRevision(uuid.NewString(), q, "", testEpoch)
	if err := CreateQuotationRevision(ctx, db, &again); err != ErrDuplicate {
		t.Fatalf("second v1 revision: err = %v; want ErrDuplicate", err)
	}

	q.Version = 2
	q.Price = decimal.NewFromInt(950)
	v2 := domain.NewRevision(uuid.NewString(), q, "volume discount", testEpoch.Add(time.Hour))
	if err := CreateQuotationRevision(ctx, db, &v2); err != nil {
		t.Fatalf("revision v2: %v", err)
	}

	got, err := ListQuotationRevisions(ctx, db, q.ID)
	if err != nil {
		t.Fatalf("ListQuotationRevisions: %v", err)
	}
	if len(got) != 2 || got[0].Version != 1 || got[1].Version != 2 {
		t.Fatalf("unexpected revisions: %+v", got)
	}
	if !got[1].Price.Equal(decimal.NewFromInt(950)) || got[1].ChangeReason != "volume discount" {
		t.Fatalf("v2 snapshot = %+v", got[1])
	}
	if none, err := ListQuotationRevisions(ctx, db, "missing"); err != nil || len(none) != 0 {
		t.Fatalf("unknown quotation = (%v, %v)", none, err)
	}
}
