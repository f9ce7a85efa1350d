// Package service implements business logic and orchestration between HTTP
// handlers and the storage layer. External collaborators (payments, contracts,
// the notification channel) are consumed through the interfaces defined here.
package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Tanh1603/auction-hub-sub000/internal/model"
)

// Publisher pushes state deltas to auction subscribers. Publication happens
// only after the storage transaction commits; delivery guarantees belong to
// the channel, not to the arbitration core.
type Publisher interface {
	PublishNewBid(auctionID string, placement *model.BidPlacement)
	PublishBidDenied(auctionID string, denial *model.BidDenial)
}

// PaymentGateway reports whether a payment session has been settled.
// Payment capture itself is owned by an external system.
type PaymentGateway interface {
	DepositStatus(ctx context.Context, sessionID string) (paid bool, amount decimal.Decimal, err error)
}

// ContractCreator requests contract document generation for a finalized
// auction. Document handling and e-signature are external.
type ContractCreator interface {
	CreateContract(ctx context.Context, auctionID, buyerUserID string, price decimal.Decimal) (contractID string, err error)
}

// NopPublisher discards all events. Used when no channel is wired.
type NopPublisher struct{}

func (NopPublisher) PublishNewBid(string, *model.BidPlacement) {}

func (NopPublisher) PublishBidDenied(string, *model.BidDenial) {}
