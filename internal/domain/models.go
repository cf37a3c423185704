// Package domain defines the persistence models for RFQs and quotations.
// These types are mapped with GORM and form the core data layer of the
// negotiation engine. Rows are never deleted: terminal states are kept as
// audit history.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RFQ is a buyer-owned request for quotation. Vendors bid on it with
// quotations until the buyer accepts one, cancels it, or its deadline lapses.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - RFQNumber: unique human-facing reference (RFQ-YYYYMMDD-XXXXXXXX).
//   - BuyerID: owner of the RFQ; only the owner may decide or cancel.
//   - Quantity: requested units, always > 0.
//   - Budget: optional buyer budget.
//   - Deadline: optional bidding cutoff; nil means no deadline.
//   - QuotationCount: number of non-withdrawn quotations.
//   - Version: optimistic concurrency token, incremented on every state write.
type RFQ struct {
	ID                  string           `json:"id"                              gorm:"type:char(36);primaryKey"`
	RFQNumber           string           `json:"rfq_number"                      gorm:"column:rfq_number;type:varchar(32);not null;uniqueIndex:ux_rfqs_number"`
	Title               string           `json:"title"                           gorm:"type:varchar(255);not null"`
	Description         string           `json:"description"                     gorm:"type:text;not null;default:''"`
	Category            string           `json:"category"                        gorm:"type:varchar(64);not null;default:'';index:idx_rfqs_category"`
	Quantity            int              `json:"quantity"                        gorm:"not null;check:chk_rfqs_quantity,quantity > 0"`
	Budget              *decimal.Decimal `json:"budget,omitempty"                gorm:"type:decimal(18,4)"`
	Notes               string           `json:"notes,omitempty"                 gorm:"type:text;not null;default:''"`
	BuyerID             string           `json:"buyer_id"                        gorm:"type:varchar(64);not null;index:idx_rfqs_buyer"`
	Status              RFQStatus        `json:"status"                          gorm:"type:varchar(16);not null;index:idx_rfqs_status"`
	Deadline            *time.Time       `json:"deadline,omitempty"`
	QuotationCount      int              `json:"quotation_count"                 gorm:"not null;default:0"`
	AcceptedQuotationID *string          `json:"accepted_quotation_id,omitempty" gorm:"column:accepted_quotation_id;type:char(36)"`
	CancelReason        string           `json:"cancel_reason,omitempty"         gorm:"type:text;not null;default:''"`
	ClosedAt            *time.Time       `json:"closed_at,omitempty"`
	CreatedAt           time.Time        `json:"created_at"                      gorm:"index:idx_rfqs_created"`
	UpdatedAt           time.Time        `json:"updated_at"`
	Version             int64            `json:"version"                         gorm:"not null;default:1"`
}

// TableName returns the database table name for RFQ.
func (RFQ) TableName() string { return "rfqs" }

// Quotation is a vendor's priced offer against one RFQ.
//
// At most one pending quotation may exist per (RFQ, vendor); this is enforced
// by the services inside the RFQ transaction and backed by a partial unique
// index created in repo.AutoMigrate.
type Quotation struct {
	ID              string          `json:"id"                         gorm:"type:char(36);primaryKey"`
	RFQID           string          `json:"rfq_id"                     gorm:"column:rfq_id;type:char(36);not null;index:idx_quotations_rfq"`
	VendorID        string          `json:"vendor_id"                  gorm:"type:varchar(64);not null;index:idx_quotations_vendor"`
	Price           decimal.Decimal `json:"price"                      gorm:"type:decimal(18,4);not null"`
	Quantity        int             `json:"quantity"                   gorm:"not null;check:chk_quotations_quantity,quantity > 0"`
	MOQ             int             `json:"moq"                        gorm:"column:moq;not null;default:0"`
	DeliveryTime    string          `json:"delivery_time"              gorm:"type:varchar(64);not null;default:''"`
	ValidUntil      time.Time       `json:"valid_until"                gorm:"not null"`
	Notes           string          `json:"notes,omitempty"            gorm:"type:text;not null;default:''"`
	Status          QuotationStatus `json:"status"                     gorm:"type:varchar(16);not null;index:idx_quotations_status"`
	RejectionReason string          `json:"rejection_reason,omitempty" gorm:"type:text;not null;default:''"`
	RespondedAt     *time.Time      `json:"responded_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Version         int64           `json:"version"                    gorm:"not null;default:1"`

	// RFQ is the parent request. Quotations are never removed, so the
	// relation restricts deletes.
	RFQ RFQ `json:"-" gorm:"foreignKey:RFQID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for Quotation.
func (Quotation) TableName() string { return "quotations" }

// QuotationRevision records the terms a quotation carried at Version before
// the vendor revised it. Revisions are append-only; the quotation row always
// holds the current terms.
type QuotationRevision struct {
	ID           string          `json:"id"                      gorm:"type:char(36);primaryKey"`
	QuotationID  string          `json:"quotation_id"            gorm:"type:char(36);not null;uniqueIndex:ux_quotation_revisions_version,priority:1"`
	Version      int64           `json:"version"                 gorm:"not null;uniqueIndex:ux_quotation_revisions_version,priority:2"`
	Price        decimal.Decimal `json:"price"                   gorm:"type:decimal(18,4);not null"`
	Quantity     int             `json:"quantity"                gorm:"not null"`
	MOQ          int             `json:"moq"                     gorm:"column:moq;not null;default:0"`
	DeliveryTime string          `json:"delivery_time"           gorm:"type:varchar(64);not null;default:''"`
	ValidUntil   time.Time       `json:"valid_until"             gorm:"not null"`
	Notes        string          `json:"notes,omitempty"         gorm:"type:text;not null;default:''"`
	ChangeReason string          `json:"change_reason,omitempty" gorm:"type:text;not null;default:''"`
	CreatedAt    time.Time       `json:"created_at"`

	Quotation Quotation `json:"-" gorm:"foreignKey:QuotationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for QuotationRevision.
func (QuotationRevision) TableName() string { return "quotation_revisions" }

// NewRevision snapshots q's current terms.
func NewRevision(id string, q *Quotation, reason string, at time.Time) QuotationRevision {
	return QuotationRevision{
		ID:           id,
		QuotationID:  q.ID,
		Version:      q.Version,
		Price:        q.Price,
		Quantity:     q.Quantity,
		MOQ:          q.MOQ,
		DeliveryTime: q.DeliveryTime,
		ValidUntil:   q.ValidUntil,
		Notes:        q.Notes,
		ChangeReason: reason,
		CreatedAt:    at,
	}
}

// IsLive reports whether the quotation can still be decided at now.
// The boundary is inclusive: a quotation valid until exactly now is live.
func (q *Quotation) IsLive(now time.Time) bool {
	return q.Status == QuotationPending && !q.ValidUntil.Before(now)
}

// AcceptsBids reports whether vendors may submit quotations at now.
// Bidding closes at the deadline instant.
func (r *RFQ) AcceptsBids(now time.Time) bool {
	if !r.Status.AllowsBidding() {
		return false
	}
	return r.Deadline == nil || now.Before(*r.Deadline)
}

// Lapsed reports whether the RFQ's deadline has passed while it is still live.
func (r *RFQ) Lapsed(now time.Time) bool {
	return r.Status.AllowsBidding() && r.Deadline != nil && r.Deadline.Before(now)
}
