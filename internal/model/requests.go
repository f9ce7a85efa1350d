package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateAuctionRequest is the payload for creating a new auction.
type CreateAuctionRequest struct {
	Code            string          `json:"code"`
	Name            string          `json:"name"`
	StartingPrice   decimal.Decimal `json:"starting_price"`
	BidIncrement    decimal.Decimal `json:"bid_increment"`
	SaleStartAt     time.Time       `json:"sale_start_at"`
	SaleEndAt       time.Time       `json:"sale_end_at"`
	DepositDeadline time.Time       `json:"deposit_deadline"`
	AuctionStartAt  time.Time       `json:"auction_start_at"`
	AuctionEndAt    time.Time       `json:"auction_end_at"`
	CheckInOpensAt  time.Time       `json:"check_in_opens_at"`
	CheckInClosesAt time.Time       `json:"check_in_closes_at"`
}

// PlaceBidRequest is the payload for submitting a bid.
type PlaceBidRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// DenyBidRequest is the admin payload for invalidating a bid.
type DenyBidRequest struct {
	Reason string `json:"reason"`
}

// StatusOverrideRequest is the admin payload for a lifecycle override.
type StatusOverrideRequest struct {
	Status AuctionStatus `json:"status"`
}

// DepositRequest carries the payment session to verify with the gateway.
type DepositRequest struct {
	SessionID string `json:"session_id"`
}

// RefundRequest is the participant payload for requesting a deposit refund.
type RefundRequest struct {
	Reason string `json:"reason,omitempty"`
}

// RefundActionRequest is the admin payload for approve/reject/process.
type RefundActionRequest struct {
	Reason string `json:"reason,omitempty"`
}

// WinnerDefaultRequest is the admin payload for recording a winner default.
type WinnerDefaultRequest struct {
	Reason string `json:"reason"`
}

// DisqualifyRequest is the admin payload for disqualifying a participant.
type DisqualifyRequest struct {
	Reason string `json:"reason"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// BidPlacement is returned from a successful bid, together with the state
// delta published to subscribers.
type BidPlacement struct {
	Bid         *Bid            `json:"bid"`
	NextMinimum decimal.Decimal `json:"next_minimum"`
	TotalBids   int             `json:"total_bids"`
}

// BidDenial is returned from a denial, carrying the newly promoted winner
// when one exists.
type BidDenial struct {
	Bid      *Bid `json:"bid"`
	Promoted *Bid `json:"promoted,omitempty"`
}

// FinalizeResult summarises the definitive outcome of an auction.
type FinalizeResult struct {
	AuctionID      string        `json:"auction_id"`
	Status         AuctionStatus `json:"status"`
	WinningBid     *Bid          `json:"winning_bid,omitempty"`
	TotalValidBids int           `json:"total_valid_bids"`
}

// WinnerDefaultResult describes the cascade after a winner default.
type WinnerDefaultResult struct {
	AuctionID    string        `json:"auction_id"`
	Status       AuctionStatus `json:"status"`
	DefaultedBid *Bid          `json:"defaulted_bid"`
	Promoted     *Bid          `json:"promoted,omitempty"`
	Participant  *Participant  `json:"participant"`
}

// AuctionSnapshot is the state pushed to a subscriber on join.
// TimeRemaining is in milliseconds, clamped at zero once the auction ends.
type AuctionSnapshot struct {
	Auction       *Auction `json:"auction"`
	WinningBid    *Bid     `json:"winning_bid,omitempty"`
	BidHistory    []Bid    `json:"bid_history"`
	TotalBids     int      `json:"total_bids"`
	TimeRemaining int64    `json:"time_remaining_ms"`
}
