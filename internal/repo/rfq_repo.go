// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the RFQ model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions. They follow the "thin repository"
// approach: no business rules, only persistence and query composition.
//
// Error semantics:
//   - A missing RFQ yields ErrNotFound (gorm.ErrRecordNotFound).
//   - A conditional update that matches no row yields ErrStale.
//   - Other DB errors are propagated unchanged.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-rfq-backend/internal/domain"
)

// RFQFilter narrows RFQ listings. Zero fields are ignored.
type RFQFilter struct {
	Status   domain.RFQStatus
	BuyerID  string
	Category string
}

func (f RFQFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.BuyerID != "" {
		q = q.Where("buyer_id = ?", f.BuyerID)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	return q
}

// liveRFQStatuses are the states in which an RFQ takes bids and decisions.
var liveRFQStatuses = []domain.RFQStatus{domain.RFQOpen, domain.RFQQuoted}

// CreateRFQ inserts r. A clash on rfq_number yields ErrDuplicate so callers
// can regenerate the number and retry.
func CreateRFQ(ctx context.Context, db *gorm.DB, r *domain.RFQ) error {
	if err := db.WithContext(ctx).Create(r).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetRFQ fetches a single RFQ by id.
func GetRFQ(ctx context.Context, db *gorm.DB, id string) (*domain.RFQ, error) {
	var r domain.RFQ
	if err := db.WithContext(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// LockRFQ loads an RFQ for update inside a transaction. On Postgres the row
// is locked with SELECT ... FOR UPDATE; SQLite serializes writers on its
// single connection, so a plain read is enough there.
func LockRFQ(ctx context.Context, tx *gorm.DB, id string) (*domain.RFQ, error) {
	q := tx.WithContext(ctx)
	if tx.Dialector.Name() == DriverPostgres {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var r domain.RFQ
	if err := q.Where("id = ?", id).First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// CountRFQs returns the number of RFQs matching f.
func CountRFQs(ctx context.Context, db *gorm.DB, f RFQFilter) (int64, error) {
	var total int64
	err := f.apply(db.WithContext(ctx).Model(&domain.RFQ{})).Count(&total).Error
	return total, err
}

// ListRFQsPage returns a page of RFQs matching f, newest first.
func ListRFQsPage(ctx context.Context, db *gorm.DB, f RFQFilter, offset, limit int) ([]domain.RFQ, error) {
	var out []domain.RFQ
	err := f.apply(db.WithContext(ctx)).
		Order("created_at desc, id desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// UpdateRFQ applies fields to the RFQ only if it still carries version and is
// in one of the from states, bumping the version. It returns ErrStale when no
// row matched.
func UpdateRFQ(ctx context.Context, db *gorm.DB, id string, version int64, from []domain.RFQStatus, fields map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.RFQ{}).
		Where("id = ? AND version = ? AND status IN ?", id, version, from).
		Updates(withVersionBump(fields))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStale
	}
	return nil
}

// ListLapsedRFQs returns live RFQs whose deadline is strictly before now,
// oldest deadline first.
func ListLapsedRFQs(ctx context.Context, db *gorm.DB, now time.Time) ([]domain.RFQ, error) {
	var out []domain.RFQ
	err := db.WithContext(ctx).
		Where("status IN ? AND deadline IS NOT NULL AND deadline < ?", liveRFQStatuses, now).
		Order("deadline asc, id asc").
		Find(&out).Error
	return out, err
}
