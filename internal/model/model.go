// Package model defines the core domain types for the auction engine.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DisqualifiedPaymentDefault is recorded when a winner fails to settle.
const DisqualifiedPaymentDefault = "PAYMENT_DEFAULT"

// Auction is a single time-boxed sale with exactly one recognized winner.
type Auction struct {
	ID              string          `json:"id"`
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
	Status          AuctionStatus   `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Participant links a user to an auction and carries eligibility state.
// Never hard-deleted while bids reference it.
type Participant struct {
	ID                 string           `json:"id"`
	AuctionID          string           `json:"auction_id"`
	UserID             string           `json:"user_id"`
	RegisteredAt       time.Time        `json:"registered_at"`
	ConfirmedAt        *time.Time       `json:"confirmed_at,omitempty"`
	CheckedInAt        *time.Time       `json:"checked_in_at,omitempty"`
	WithdrawnAt        *time.Time       `json:"withdrawn_at,omitempty"`
	DepositPaidAt      *time.Time       `json:"deposit_paid_at,omitempty"`
	DepositAmount      *decimal.Decimal `json:"deposit_amount,omitempty"`
	IsDisqualified     bool             `json:"is_disqualified"`
	DisqualifiedReason string           `json:"disqualified_reason,omitempty"`
	RefundStatus       RefundStatus     `json:"refund_status"`
}

// IsConfirmed reports whether an admin has approved the registration.
func (p *Participant) IsConfirmed() bool { return p.ConfirmedAt != nil }

// IsCheckedIn reports whether the participant checked in for the live session.
func (p *Participant) IsCheckedIn() bool { return p.CheckedInAt != nil }

// HasWithdrawn reports whether the participant left the auction.
func (p *Participant) HasWithdrawn() bool { return p.WithdrawnAt != nil }

// DepositPaid reports whether the deposit has been captured.
func (p *Participant) DepositPaid() bool { return p.DepositPaidAt != nil }

// CanBid reports whether the participant may place bids right now.
// The caller still has to verify the auction itself is live.
func (p *Participant) CanBid() bool {
	return p.IsConfirmed() && p.IsCheckedIn() && !p.HasWithdrawn() && !p.IsDisqualified
}

// Bid is an append-only record of a single monetary offer.
// Denial mutates IsDenied/IsWinningBid but never deletes the row.
type Bid struct {
	ID            string          `json:"id"`
	AuctionID     string          `json:"auction_id"`
	ParticipantID string          `json:"participant_id"`
	Amount        decimal.Decimal `json:"amount"`
	BidAt         time.Time       `json:"bid_at"`
	IsWinningBid  bool            `json:"is_winning_bid"`
	IsDenied      bool            `json:"is_denied"`
	DeniedAt      *time.Time      `json:"denied_at,omitempty"`
	DenierID      string          `json:"denier_id,omitempty"`
	DenialReason  string          `json:"denial_reason,omitempty"`
}

// AuditLog is the append-only record of every state-changing decision.
// Rows are written inside the same transaction as the change they describe.
type AuditLog struct {
	ID          string    `json:"id"`
	AuctionID   string    `json:"auction_id"`
	Action      string    `json:"action"`
	PerformedBy string    `json:"performed_by"`
	Metadata    string    `json:"metadata,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Audit actions.
const (
	ActionAuctionCreated       = "auction.created"
	ActionStatusChanged        = "auction.status_changed"
	ActionBidPlaced            = "bid.placed"
	ActionBidDenied            = "bid.denied"
	ActionWinnerPromoted       = "bid.winner_promoted"
	ActionFinalized            = "auction.finalized"
	ActionWinnerDefaulted      = "auction.winner_defaulted"
	ActionParticipantConfirmed = "participant.confirmed"
	ActionCheckedIn            = "participant.checked_in"
	ActionWithdrawn            = "participant.withdrawn"
	ActionDisqualified         = "participant.disqualified"
	ActionDepositPaid          = "participant.deposit_paid"
	ActionRefundRequested      = "refund.requested"
	ActionRefundApproved       = "refund.approved"
	ActionRefundRejected       = "refund.rejected"
	ActionRefundProcessed      = "refund.processed"
)
