package domain

// RFQStatus is the lifecycle state of an RFQ.
type RFQStatus string

const (
	RFQOpen      RFQStatus = "open"
	RFQQuoted    RFQStatus = "quoted"
	RFQClosed    RFQStatus = "closed"
	RFQCancelled RFQStatus = "cancelled"
	RFQExpired   RFQStatus = "expired"
)

// rfqTransitions lists the allowed exits of every RFQ state.
// Terminal states have none.
var rfqTransitions = map[RFQStatus][]RFQStatus{
	RFQOpen:   {RFQQuoted, RFQCancelled, RFQExpired},
	RFQQuoted: {RFQClosed, RFQCancelled, RFQExpired},
}

// IsValid checks if the status is a known RFQ state.
func (s RFQStatus) IsValid() bool {
	switch s {
	case RFQOpen, RFQQuoted, RFQClosed, RFQCancelled, RFQExpired:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s RFQStatus) IsTerminal() bool {
	return s == RFQClosed || s == RFQCancelled || s == RFQExpired
}

// AllowsBidding reports whether quotations may be submitted or decided.
func (s RFQStatus) AllowsBidding() bool {
	return s == RFQOpen || s == RFQQuoted
}

// CanTransitionTo checks if the RFQ can move from s to target.
func (s RFQStatus) CanTransitionTo(target RFQStatus) bool {
	for _, t := range rfqTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// String returns the string representation.
func (s RFQStatus) String() string { return string(s) }

// QuotationStatus is the lifecycle state of a quotation.
type QuotationStatus string

const (
	QuotationPending   QuotationStatus = "pending"
	QuotationAccepted  QuotationStatus = "accepted"
	QuotationRejected  QuotationStatus = "rejected"
	QuotationWithdrawn QuotationStatus = "withdrawn"
	QuotationExpired   QuotationStatus = "expired"
)

// IsValid checks if the status is a known quotation state.
func (s QuotationStatus) IsValid() bool {
	switch s {
	case QuotationPending, QuotationAccepted, QuotationRejected, QuotationWithdrawn, QuotationExpired:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
// Every state except pending is terminal.
func (s QuotationStatus) IsTerminal() bool {
	return s.IsValid() && s != QuotationPending
}

// CanTransitionTo checks if the quotation can move from s to target.
func (s QuotationStatus) CanTransitionTo(target QuotationStatus) bool {
	return s == QuotationPending && target.IsTerminal()
}

// String returns the string representation.
func (s QuotationStatus) String() string { return string(s) }

// DecisionKind is the buyer's explicit choice on a quotation.
type DecisionKind string

const (
	DecisionAccept DecisionKind = "accept"
	DecisionReject DecisionKind = "reject"
)

// Decision is the only way a winner is chosen: an explicit buyer action on
// a single quotation. List ordering never implies a decision.
type Decision struct {
	Kind        DecisionKind `json:"kind"`
	QuotationID string       `json:"quotation_id"`
	Reason      string       `json:"reason,omitempty"`
}

// IsValid checks the decision carries a known kind and a target.
func (d Decision) IsValid() bool {
	return (d.Kind == DecisionAccept || d.Kind == DecisionReject) && d.QuotationID != ""
}
