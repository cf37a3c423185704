package domain

// Event types published after a negotiation state change commits.
const (
	EventRFQCreated          = "rfq.created"
	EventRFQCancelled        = "rfq.cancelled"
	EventRFQClosed           = "rfq.closed"
	EventRFQExpired          = "rfq.expired"
	EventRFQDeadlineExtended = "rfq.deadline_extended"

	EventQuotationSubmitted = "quotation.submitted"
	EventQuotationRevised   = "quotation.revised"
	EventQuotationWithdrawn = "quotation.withdrawn"
	EventQuotationAccepted  = "quotation.accepted"
	EventQuotationRejected  = "quotation.rejected"
	EventQuotationExpired   = "quotation.expired"
)

// RFQEvent is the payload of rfq.* events.
type RFQEvent struct {
	RFQID     string    `json:"rfq_id"`
	RFQNumber string    `json:"rfq_number"`
	BuyerID   string    `json:"buyer_id"`
	Status    RFQStatus `json:"status"`
	Reason    string    `json:"reason,omitempty"`
}

// QuotationEvent is the payload of quotation.* events. It carries both
// parties so a consumer can notify the buyer or the vendor.
type QuotationEvent struct {
	QuotationID string          `json:"quotation_id"`
	RFQID       string          `json:"rfq_id"`
	BuyerID     string          `json:"buyer_id"`
	VendorID    string          `json:"vendor_id"`
	Status      QuotationStatus `json:"status"`
	Reason      string          `json:"reason,omitempty"`
}

// NewRFQEvent snapshots r for publishing.
func NewRFQEvent(r *RFQ, reason string) RFQEvent {
	return RFQEvent{RFQID: r.ID, RFQNumber: r.RFQNumber, BuyerID: r.BuyerID, Status: r.Status, Reason: reason}
}

// NewQuotationEvent snapshots q for publishing; buyerID is taken from the RFQ.
func NewQuotationEvent(q *Quotation, buyerID string) QuotationEvent {
	return QuotationEvent{
		QuotationID: q.ID,
		RFQID:       q.RFQID,
		BuyerID:     buyerID,
		VendorID:    q.VendorID,
		Status:      q.Status,
		Reason:      q.RejectionReason,
	}
}
