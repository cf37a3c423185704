// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Quotation
// model, including the conditional (compare-and-swap) status writes used by
// the negotiation engine.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-rfq-backend/internal/domain"
)

// CreateQuotation inserts q. A second pending quotation for the same
// (rfq_id, vendor_id) trips the partial unique index and yields ErrDuplicate.
func CreateQuotation(ctx context.Context, db *gorm.DB, q *domain.Quotation) error {
	if err := db.WithContext(ctx).Omit("RFQ").Create(q).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetQuotation fetches a quotation by id.
func GetQuotation(ctx context.Context, db *gorm.DB, id string) (*domain.Quotation, error) {
	var q domain.Quotation
	if err := db.WithContext(ctx).Where("id = ?", id).First(&q).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

// ListQuotationsByRFQ returns every quotation of an RFQ in submission order
// (CreatedAt ASC, ID ASC). Callers decide the display order.
func ListQuotationsByRFQ(ctx context.Context, db *gorm.DB, rfqID string) ([]domain.Quotation, error) {
	var out []domain.Quotation
	err := db.WithContext(ctx).
		Where("rfq_id = ?", rfqID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// FindPendingQuotation returns the vendor's pending quotation on an RFQ, or
// ErrNotFound when there is none.
func FindPendingQuotation(ctx context.Context, db *gorm.DB, rfqID, vendorID string) (*domain.Quotation, error) {
	var out []domain.Quotation
	err := db.WithContext(ctx).
		Where("rfq_id = ? AND vendor_id = ? AND status = ?", rfqID, vendorID, domain.QuotationPending).
		Limit(1).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return &out[0], nil
}

// UpdatePendingQuotation applies fields to one quotation only if it is still
// pending at the given version, bumping the version. It returns ErrStale when
// no row matched.
func UpdatePendingQuotation(ctx context.Context, db *gorm.DB, id string, version int64, fields map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.Quotation{}).
		Where("id = ? AND status = ? AND version = ?", id, domain.QuotationPending, version).
		Updates(withVersionBump(fields))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStale
	}
	return nil
}

// UpdatePendingQuotationsByRFQ applies fields to every pending quotation of
// an RFQ except exceptID (may be empty) and returns how many rows changed.
func UpdatePendingQuotationsByRFQ(ctx context.Context, db *gorm.DB, rfqID, exceptID string, fields map[string]any) (int64, error) {
	q := db.WithContext(ctx).
		Model(&domain.Quotation{}).
		Where("rfq_id = ? AND status = ?", rfqID, domain.QuotationPending)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	res := q.Updates(withVersionBump(fields))
	return res.RowsAffected, res.Error
}

// ListLapsedQuotations returns pending quotations on live RFQs whose own
// validity ended strictly before now.
func ListLapsedQuotations(ctx context.Context, db *gorm.DB, now time.Time) ([]domain.Quotation, error) {
	var out []domain.Quotation
	err := db.WithContext(ctx).
		Joins("JOIN rfqs ON rfqs.id = quotations.rfq_id").
		Where("quotations.status = ? AND quotations.valid_until < ? AND rfqs.status IN ?",
			domain.QuotationPending, now, liveRFQStatuses).
		Order("quotations.valid_until ASC, quotations.id ASC").
		Find(&out).Error
	return out, err
}

// CountActiveQuotations counts the non-withdrawn quotations of an RFQ.
func CountActiveQuotations(ctx context.Context, db *gorm.DB, rfqID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Quotation{}).
		Where("rfq_id = ? AND status <> ?", rfqID, domain.QuotationWithdrawn).
		Count(&n).Error
	return n, err
}

// VendorQuotationFilter narrows a vendor's quotation listing. An empty
// Status matches every status.
type VendorQuotationFilter struct {
	VendorID string
	Status   domain.QuotationStatus
}

func (f VendorQuotationFilter) apply(db *gorm.DB) *gorm.DB {
	q := db.Model(&domain.Quotation{}).Where("vendor_id = ?", f.VendorID)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	return q
}

// CountVendorQuotations counts the quotations matching f.
func CountVendorQuotations(ctx context.Context, db *gorm.DB, f VendorQuotationFilter) (int64, error) {
	var n int64
	err := f.apply(db.WithContext(ctx)).Count(&n).Error
	return n, err
}

// ListVendorQuotationsPage returns one page of the quotations matching f,
// newest first.
func ListVendorQuotationsPage(ctx context.Context, db *gorm.DB, f VendorQuotationFilter, offset, limit int) ([]domain.Quotation, error) {
	var out []domain.Quotation
	err := f.apply(db.WithContext(ctx)).
		Order("created_at desc, id desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CreateQuotationRevision appends rev. A second revision for the same
// (quotation, version) yields ErrDuplicate.
func CreateQuotationRevision(ctx context.Context, db *gorm.DB, rev *domain.QuotationRevision) error {
	if err := db.WithContext(ctx).Omit("Quotation").Create(rev).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// ListQuotationRevisions returns a quotation's revisions, oldest version first.
func ListQuotationRevisions(ctx context.Context, db *gorm.DB, quotationID string) ([]domain.QuotationRevision, error) {
	var out []domain.QuotationRevision
	err := db.WithContext(ctx).
		Where("quotation_id = ?", quotationID).
		Order("version asc").
		Find(&out).Error
	return out, err
}

// IsNotFound reports whether err means the record does not exist.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func withVersionBump(fields map[string]any) map[string]any {
	upd := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		upd[k] = v
	}
	upd["version"] = gorm.Expr("version + 1")
	return upd
}
