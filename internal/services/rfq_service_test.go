package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tbourn/go-rfq-backend/internal/domain"
	"github.com/tbourn/go-rfq-backend/internal/repo"
)

// ---------- Create ----------

func TestRFQService_Create_Validation(t *testing.T) {
	f := newFixture(t)
	neg := decimal.NewFromInt(-5)
	past := epoch.Add(-time.Minute)

	cases := map[string]CreateRFQInput{
		"no buyer":      {Title: "x", Quantity: 1},
		"blank title":   {BuyerID: "b1", Title: "   ", Quantity: 1},
		"zero quantity": {BuyerID: "b1", Title: "x", Quantity: 0},
		"neg budget":    {BuyerID: "b1", Title: "x", Quantity: 1, Budget: &neg},
		"past deadline": {BuyerID: "b1", Title: "x", Quantity: 1, Deadline: &past},
		"now deadline":  {BuyerID: "b1", Title: "x", Quantity: 1, Deadline: ptrTime(epoch)},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.rfqs.Create(context.Background(), in)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
	if got := f.notes.types(); len(got) != 0 {
		t.Fatalf("no events expected on validation failure, got %v", got)
	}
}

func TestRFQService_Create_NormalizesAndNumbers(t *testing.T) {
	f := newFixture(t)
	budget := decimal.RequireFromString("2500.50")

	r, err := f.rfqs.Create(context.Background(), CreateRFQInput{
		BuyerID:  "b1",
		Title:    "  Steel    beams\tgrade  A ",
		Category: " Metals ",
		Quantity: 50,
		Budget:   &budget,
		Deadline: ptrTime(epoch.Add(48 * time.Hour)),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if r.Title != "Steel beams grade A" {
		t.Fatalf("title not normalized: %q", r.Title)
	}
	if r.Category != "metals" {
		t.Fatalf("category not folded: %q", r.Category)
	}
	if r.Status != domain.RFQOpen || r.QuotationCount != 0 || r.Version != 1 {
		t.Fatalf("unexpected initial state: %+v", r)
	}
	if !regexp.MustCompile(`^RFQ-20250501-[0-9A-F]{8}$`).MatchString(r.RFQNumber) {
		t.Fatalf("bad rfq number %q", r.RFQNumber)
	}

	got := f.reloadRFQ(t, r.ID)
	if !got.Budget.Equal(budget) {
		t.Fatalf("budget round-trip: %v", got.Budget)
	}
	if types := f.notes.types(); len(types) != 1 || types[0] != domain.EventRFQCreated {
		t.Fatalf("events = %v", types)
	}
}

func TestRFQService_Create_ClipsTitle(t *testing.T) {
	f := newFixture(t)
	f.rfqs.TitleMaxLen = 5
	r, err := f.rfqs.Create(context.Background(), CreateRFQInput{BuyerID: "b1", Title: "ΑΒΓΔΕΖΗ", Quantity: 1})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if r.Title != "ΑΒΓΔΕ" {
		t.Fatalf("title = %q", r.Title)
	}
}

// ---------- Get / List ----------

func TestRFQService_Get_NotFound(t *testing.T) {
	f := newFixture(t)
	if _, err := f.rfqs.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRFQService_List_PaginationAndFilters(t *testing.T) {
	f := newFixture(t)
	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, f.createRFQ(t, "b1", nil).ID)
		f.clock.Advance(time.Minute)
	}
	f.createRFQ(t, "b2", nil)

	items, total, err := f.rfqs.List(context.Background(), RFQFilter{BuyerID: "b1"}, 2, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 5 || len(items) != 2 {
		t.Fatalf("total=%d len=%d", total, len(items))
	}
	// newest first: page 2 holds the 3rd and 2nd created
	if items[0].ID != ids[2] || items[1].ID != ids[1] {
		t.Fatalf("unexpected page order")
	}

	// defaults for bad paging
	items, total, err = f.rfqs.List(context.Background(), RFQFilter{}, 0, 0)
	if err != nil || total != 6 || len(items) != 6 {
		t.Fatalf("defaults: total=%d len=%d err=%v", total, len(items), err)
	}

	// cap
	f.rfqs.MaxPageSize = 3
	items, _, _ = f.rfqs.List(context.Background(), RFQFilter{}, 1, 50)
	if len(items) != 3 {
		t.Fatalf("limit not capped: %d", len(items))
	}

	// category folds case
	_, total, _ = f.rfqs.List(context.Background(), RFQFilter{Category: "METALS"}, 1, 10)
	if total != 6 {
		t.Fatalf("category filter total=%d", total)
	}

	// empty result
	items, total, err = f.rfqs.List(context.Background(), RFQFilter{Status: domain.RFQClosed}, 1, 10)
	if err != nil || total != 0 || items == nil || len(items) != 0 {
		t.Fatalf("empty: items=%v total=%d err=%v", items, total, err)
	}

	if _, _, err := f.rfqs.List(context.Background(), RFQFilter{Status: "bogus"}, 1, 10); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for bogus status, got %v", err)
	}
}

// ---------- Cancel ----------

func TestRFQService_Cancel_CascadesPending(t *testing.T) {
	f := newFixture(t)
	r := f.createRFQ(t, "b1", nil)
	q1 := f.submit(t, r.ID, "v1", 100)
	q2 := f.submit(t, r.ID, "v2", 90)
	if _, err := f.quotes.Withdraw(context.Background(), q2.ID, "v2"); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	f.notes.reset()

	out, err := f.rfqs.Cancel(context.Background(), r.ID, "b1", " budget cut ")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if out.Status != domain.RFQCancelled || out.CancelReason != "budget cut" {
		t.Fatalf("unexpected rfq: status=%s reason=%q", out.Status, out.CancelReason)
	}

	got := f.reloadQuotation(t, q1.ID)
	if got.Status != domain.QuotationRejected || got.RejectionReason != "rfq cancelled" || got.RespondedAt == nil {
		t.Fatalf("pending quotation not rejected: %+v", got)
	}
	if f.reloadQuotation(t, q2.ID).Status != domain.QuotationWithdrawn {
		t.Fatalf("withdrawn quotation must stay withdrawn")
	}

	want := []string{domain.EventQuotationRejected, domain.EventRFQCancelled}
	if got := f.notes.types(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("events = %v, want %v", got, want)
	}
	assertInvariants(t, f.db)
}

func TestRFQService_Cancel_Errors(t *testing.T) {
	f := newFixture(t)
	r := f.createRFQ(t, "b1", nil)

	if _, err := f.rfqs.Cancel(context.Background(), "missing", "b1", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := f.rfqs.Cancel(context.Background(), r.ID, "intruder", ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := f.rfqs.Cancel(context.Background(), r.ID, "b1", ""); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := f.rfqs.Cancel(context.Background(), r.ID, "b1", ""); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on second cancel, got %v", err)
	}
}

// ---------- ExtendDeadline ----------

func TestRFQService_ExtendDeadline(t *testing.T) {
	f := newFixture(t)
	r := f.createRFQ(t, "b1", ptrTime(epoch.Add(time.Hour)))

	if _, err := f.rfqs.ExtendDeadline(context.Background(), r.ID, "b1", epoch.Add(30*time.Minute)); !errors.Is(err, ErrValidation) {
		t.Fatalf("earlier deadline: expected ErrValidation, got %v", err)
	}
	if _, err := f.rfqs.ExtendDeadline(context.Background(), r.ID, "b2", epoch.Add(2*time.Hour)); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	out, err := f.rfqs.ExtendDeadline(context.Background(), r.ID, "b1", epoch.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("extend: %v", err)
	}
	if !out.Deadline.Equal(epoch.Add(2*time.Hour)) || out.Version != r.Version+1 {
		t.Fatalf("deadline=%v version=%d", out.Deadline, out.Version)
	}

	f.clock.Advance(3 * time.Hour)
	if _, err := f.rfqs.ExtendDeadline(context.Background(), r.ID, "b1", epoch.Add(5*time.Hour)); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("lapsed rfq: expected ErrInvalidState, got %v", err)
	}
}

// ---------- Summary ----------

func TestRFQService_Summary(t *testing.T) {
	f := newFixture(t)
	r := f.createRFQ(t, "b1", nil)

	sum, err := f.rfqs.Summary(context.Background(), r.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.QuotationCount != 0 || sum.Lowest != nil || sum.Average != nil {
		t.Fatalf("empty summary: %+v", sum)
	}

	f.submit(t, r.ID, "v1", 100)
	f.submit(t, r.ID, "v2", 50)
	q3 := f.submit(t, r.ID, "v3", 10)
	f.submit(t, r.ID, "v4", 70)
	if _, err := f.quotes.Withdraw(context.Background(), q3.ID, "v3"); err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	sum, err = f.rfqs.Summary(context.Background(), r.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.QuotationCount != 3 || sum.Pending != 3 {
		t.Fatalf("counts: %+v", sum)
	}
	if !sum.Lowest.Equal(decimal.NewFromInt(50)) || !sum.Highest.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("range: %v..%v", sum.Lowest, sum.Highest)
	}
	if sum.Average.String() != "73.3333" {
		t.Fatalf("average = %s", sum.Average)
	}

	if _, err := f.rfqs.Summary(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// ---------- ExpirySweep ----------

func TestRFQService_ExpirySweep(t *testing.T) {
	f := newFixture(t)
	lapsing := f.createRFQ(t, "b1", ptrTime(epoch.Add(time.Hour)))
	q1 := f.submit(t, lapsing.ID, "v1", 100)
	q2 := f.submit(t, lapsing.ID, "v2", 120)
	if _, err := f.quotes.Withdraw(context.Background(), q2.ID, "v2"); err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	openEnded := f.createRFQ(t, "b1", nil)
	shortBid, err := f.quotes.Submit(context.Background(), SubmitQuotationInput{
		RFQID: openEnded.ID, VendorID: "v1", Price: decimal.NewFromInt(10),
		Quantity: 1, ValidUntil: epoch.Add(30 * time.Minute),
	})
	if err != nil {
		t.Fatalf("submit short bid: %v", err)
	}

	closing := f.createRFQ(t, "b2", ptrTime(epoch.Add(time.Hour)))
	win := f.submit(t, closing.ID, "v3", 80)
	if _, err := f.neg.Accept(context.Background(), win.ID, "b2"); err != nil {
		t.Fatalf("accept: %v", err)
	}

	// Validity ending exactly now has not lapsed yet.
	res, err := f.rfqs.ExpirySweep(context.Background(), epoch.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if res != (SweepResult{}) {
		t.Fatalf("nothing should expire at the boundary, got %+v", res)
	}

	f.notes.reset()
	res, err = f.rfqs.ExpirySweep(context.Background(), epoch.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if res.RFQsExpired != 1 || res.QuotationsExpired != 2 || res.Failed != 0 {
		t.Fatalf("unexpected result %+v", res)
	}

	if got := f.reloadRFQ(t, lapsing.ID); got.Status != domain.RFQExpired {
		t.Fatalf("lapsing rfq status = %s", got.Status)
	}
	if got := f.reloadQuotation(t, q1.ID); got.Status != domain.QuotationExpired {
		t.Fatalf("pending bid on lapsed rfq = %s", got.Status)
	}
	if got := f.reloadQuotation(t, q2.ID); got.Status != domain.QuotationWithdrawn {
		t.Fatalf("withdrawn bid changed to %s", got.Status)
	}
	if got := f.reloadRFQ(t, openEnded.ID); got.Status != domain.RFQQuoted {
		t.Fatalf("rfq without deadline changed to %s", got.Status)
	}
	if got := f.reloadQuotation(t, shortBid.ID); got.Status != domain.QuotationExpired {
		t.Fatalf("lapsed bid on live rfq = %s", got.Status)
	}
	if got := f.reloadRFQ(t, closing.ID); got.Status != domain.RFQClosed {
		t.Fatalf("closed rfq changed to %s", got.Status)
	}
	if len(f.notes.types()) != 3 {
		t.Fatalf("events = %v", f.notes.types())
	}
	assertInvariants(t, f.db)

	// Idempotent.
	res, err = f.rfqs.ExpirySweep(context.Background(), epoch.Add(2*time.Hour))
	if err != nil || res != (SweepResult{}) {
		t.Fatalf("second sweep: %+v err=%v", res, err)
	}
}

func TestRFQService_ExpirySweep_ContextCancelled(t *testing.T) {
	f := newFixture(t)
	f.createRFQ(t, "b1", ptrTime(epoch.Add(time.Minute)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.rfqs.ExpirySweep(ctx, epoch.Add(time.Hour)); err == nil {
		t.Fatalf("expected error from cancelled context")
	}
}

func TestRFQService_ExpirySweep_PurgesLapsedReplayRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := repo.CreateIdempotency(ctx, f.db, "b1", "POST /api/v1/rfq", "short", "r1", 201, time.Minute); err != nil {
		t.Fatalf("seed short: %v", err)
	}
	if _, err := repo.CreateIdempotency(ctx, f.db, "b1", "POST /api/v1/rfq", "long", "r2", 201, 24*time.Hour); err != nil {
		t.Fatalf("seed long: %v", err)
	}

	res, err := f.rfqs.ExpirySweep(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if res != (SweepResult{IdempotencyPurged: 1}) {
		t.Fatalf("unexpected result %+v", res)
	}
	if _, err := repo.GetIdempotency(ctx, f.db, "b1", "POST /api/v1/rfq", "long", time.Now().UTC()); err != nil {
		t.Fatalf("live record purged: %v", err)
	}
}
