package model

// AuctionStatus is the closed lifecycle state of an auction.
// Transitions only move forward along the legal graph; success, failed and
// cancelled are terminal.
type AuctionStatus string

const (
	StatusScheduled      AuctionStatus = "scheduled"
	StatusLive           AuctionStatus = "live"
	StatusAwaitingResult AuctionStatus = "awaiting_result"
	StatusSuccess        AuctionStatus = "success"
	StatusFailed         AuctionStatus = "failed"
	StatusCancelled      AuctionStatus = "cancelled"
)

// auctionTransitions is the legal edge set of the lifecycle graph.
// cancelled is reachable from any non-terminal state by admin override.
var auctionTransitions = map[AuctionStatus][]AuctionStatus{
	StatusScheduled:      {StatusLive, StatusCancelled},
	StatusLive:           {StatusAwaitingResult, StatusCancelled},
	StatusAwaitingResult: {StatusSuccess, StatusFailed, StatusCancelled},
	StatusSuccess:        {},
	StatusFailed:         {},
	StatusCancelled:      {},
}

// Valid reports whether s is a known auction status.
func (s AuctionStatus) Valid() bool {
	_, ok := auctionTransitions[s]
	return ok
}

// IsTerminal reports whether no further transitions exist from s.
func (s AuctionStatus) IsTerminal() bool {
	return len(auctionTransitions[s]) == 0 && s.Valid()
}

// CanTransitionTo reports whether the edge s → to exists in the lifecycle graph.
func (s AuctionStatus) CanTransitionTo(to AuctionStatus) bool {
	for _, next := range auctionTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// RefundStatus is the per-participant refund workflow state.
// none → pending → {approved | rejected}; approved → processed.
// forfeited is terminal and reachable only through winner-default handling.
type RefundStatus string

const (
	RefundNone      RefundStatus = "none"
	RefundPending   RefundStatus = "pending"
	RefundApproved  RefundStatus = "approved"
	RefundRejected  RefundStatus = "rejected"
	RefundProcessed RefundStatus = "processed"
	RefundForfeited RefundStatus = "forfeited"
)

// Valid reports whether s is a known refund status.
func (s RefundStatus) Valid() bool {
	switch s {
	case RefundNone, RefundPending, RefundApproved, RefundRejected, RefundProcessed, RefundForfeited:
		return true
	}
	return false
}
