package repo

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-rfq-backend/internal/domain"
)

// newTestDB opens a private in-memory database through OpenSQLite so tests
// run against the production pool and PRAGMA settings.
func newTestDB(t *testing.T, migrate bool) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repo_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := OpenSQLite(dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Logger = logger.Default.LogMode(logger.Silent)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if migrate {
		if err := AutoMigrate(db); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

var testEpoch = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

func seedRFQ(t *testing.T, db *gorm.DB, mut func(*domain.RFQ)) *domain.RFQ {
	t.Helper()
	id := uuid.NewString()
	r := &domain.RFQ{
		ID:        id,
		RFQNumber: "RFQ-20250501-" + id[:8],
		Title:     "Steel beams",
		Quantity:  100,
		BuyerID:   "buyer-1",
		Status:    domain.RFQOpen,
		CreatedAt: testEpoch,
		UpdatedAt: testEpoch,
		Version:   1,
	}
	if mut != nil {
		mut(r)
	}
	if err := db.Create(r).Error; err != nil {
		t.Fatalf("seed rfq: %v", err)
	}
	return r
}

func seedQuotation(t *testing.T, db *gorm.DB, rfqID, vendorID string, mut func(*domain.Quotation)) *domain.Quotation {
	t.Helper()
	q := &domain.Quotation{
		ID:         uuid.NewString(),
		RFQID:      rfqID,
		VendorID:   vendorID,
		Price:      decimal.NewFromInt(1000),
		Quantity:   100,
		ValidUntil: testEpoch.Add(72 * time.Hour),
		Status:     domain.QuotationPending,
		CreatedAt:  testEpoch,
		UpdatedAt:  testEpoch,
		Version:    1,
	}
	if mut != nil {
		mut(q)
	}
	if err := db.Omit("RFQ").Create(q).Error; err != nil {
		t.Fatalf("seed quotation: %v", err)
	}
	return q
}
