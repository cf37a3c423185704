package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-rfq-backend/internal/domain"
)

// RFQsStats returns how many RFQs match f and the newest UpdatedAt among
// them, for weak ETags on list responses. maxUpdatedAt is nil when count is 0.
func RFQsStats(ctx context.Context, db *gorm.DB, f RFQFilter) (count int64, maxUpdatedAt *time.Time, err error) {
	return countAndLatest(f.apply(db.WithContext(ctx).Model(&domain.RFQ{})))
}

// QuotationsStats is RFQsStats for the quotations on one RFQ.
func QuotationsStats(ctx context.Context, db *gorm.DB, rfqID string) (count int64, maxUpdatedAt *time.Time, err error) {
	return countAndLatest(db.WithContext(ctx).Model(&domain.Quotation{}).Where("rfq_id = ?", rfqID))
}

// countAndLatest orders by updated_at instead of using MAX(), which the sqlite
// driver hands back as TEXT.
func countAndLatest(q *gorm.DB) (int64, *time.Time, error) {
	var n int64
	if err := q.Session(&gorm.Session{}).Count(&n).Error; err != nil || n == 0 {
		return 0, nil, err
	}
	var newest struct{ UpdatedAt time.Time }
	err := q.Session(&gorm.Session{}).
		Select("updated_at").
		Order("updated_at DESC").
		Limit(1).
		Scan(&newest).Error
	if err != nil {
		return 0, nil, err
	}
	return n, &newest.UpdatedAt, nil
}
