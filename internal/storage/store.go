// Package storage provides abstractions for persistent auction state.
package storage

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Tanh1603/auction-hub-sub000/internal/model"
)

// Store is the persistence interface for the auction engine. It exposes
// atomic domain operations rather than row-level CRUD: every method that
// reads-then-writes the current winning bid for an auction executes as one
// serialized transaction scoped to that auction, so concurrent callers on
// the same auction never observe zero or two winners. Operations on
// different auctions do not contend.
//
// Audit-log rows are written inside the same transaction as the state
// change they describe; if the audit write fails, the operation fails.
//
// This abstraction allows swapping storage backends (PostgreSQL, SQLite)
// without changing the service layer.
type Store interface {
	// Auctions.
	CreateAuction(ctx context.Context, a *model.Auction, performedBy string) error
	GetAuction(ctx context.Context, id string) (*model.Auction, error)
	ListAuctions(ctx context.Context) ([]model.Auction, error)
	// TransitionAuction validates the lifecycle edge inside the transaction
	// and rejects illegal transitions, admin or not.
	TransitionAuction(ctx context.Context, auctionID string, to model.AuctionStatus, performedBy string) (*model.Auction, error)

	// Participants.
	RegisterParticipant(ctx context.Context, auctionID, userID string) (*model.Participant, error)
	GetParticipant(ctx context.Context, id string) (*model.Participant, error)
	GetParticipantByUser(ctx context.Context, auctionID, userID string) (*model.Participant, error)
	ListParticipants(ctx context.Context, auctionID string) ([]model.Participant, error)
	ConfirmParticipant(ctx context.Context, participantID, adminID string) (*model.Participant, error)
	CheckInParticipant(ctx context.Context, participantID string) (*model.Participant, error)
	WithdrawParticipant(ctx context.Context, participantID string) (*model.Participant, error)
	DisqualifyParticipant(ctx context.Context, participantID, reason, adminID string) (*model.Participant, error)
	MarkDepositPaid(ctx context.Context, participantID string, amount decimal.Decimal) (*model.Participant, error)

	// Bids. PlaceBid runs the full arbitration step: status gate,
	// eligibility, increment rule, demotion of the previous winner and
	// insertion of the new one. DenyBid invalidates a bid and re-runs
	// winner promotion in the same transaction.
	PlaceBid(ctx context.Context, auctionID, participantID string, amount decimal.Decimal) (*model.BidPlacement, error)
	DenyBid(ctx context.Context, bidID, reason, denierID string) (*model.BidDenial, error)
	GetBid(ctx context.Context, id string) (*model.Bid, error)
	ListBids(ctx context.Context, auctionID string, limit int) ([]model.Bid, error)
	GetWinningBid(ctx context.Context, auctionID string) (*model.Bid, error)

	// Settlement. Finalize is single-shot per auction; minConfirmed is the
	// injectable participant threshold. HandleWinnerDefault disqualifies
	// the current winner, forfeits the deposit and promotes the runner-up.
	Finalize(ctx context.Context, auctionID, adminID string, minConfirmed int) (*model.FinalizeResult, error)
	HandleWinnerDefault(ctx context.Context, auctionID, reason, adminID string) (*model.WinnerDefaultResult, error)

	// Refund workflow.
	RequestRefund(ctx context.Context, participantID, reason string, window time.Duration) (*model.Participant, error)
	ApproveRefund(ctx context.Context, participantID, adminID string) (*model.Participant, error)
	RejectRefund(ctx context.Context, participantID, reason, adminID string) (*model.Participant, error)
	ProcessRefund(ctx context.Context, participantID, adminID string) (*model.Participant, error)

	// Audit.
	ListAuditLog(ctx context.Context, auctionID string) ([]model.AuditLog, error)

	// Close releases any resources held by the store.
	Close() error
}
