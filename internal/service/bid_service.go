package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Tanh1603/auction-hub-sub000/internal/apperr"
	"github.com/Tanh1603/auction-hub-sub000/internal/model"
	"github.com/Tanh1603/auction-hub-sub000/internal/storage"
)

// BidService orchestrates bid submission and denial around the store's
// atomic arbitration operations.
type BidService struct {
	store           storage.Store
	publisher       Publisher
	bidHistoryLimit int
}

// NewBidService constructs a BidService. publisher may be nil.
func NewBidService(store storage.Store, publisher Publisher, bidHistoryLimit int) *BidService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &BidService{store: store, publisher: publisher, bidHistoryLimit: bidHistoryLimit}
}

// PlaceBid submits a bid on behalf of the authenticated user. On success
// the state delta is published to subscribers after commit; a publish
// failure never rolls back the bid.
func (s *BidService) PlaceBid(ctx context.Context, auctionID, userID string, amount decimal.Decimal) (*model.BidPlacement, error) {
	if auctionID == "" {
		return nil, apperr.Validation("auction id is required")
	}

	p, err := s.store.GetParticipantByUser(ctx, auctionID, userID)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			// Unregistered users learn nothing beyond ineligibility.
			return nil, apperr.Forbidden("ineligible participant")
		}
		return nil, err
	}

	placement, err := s.store.PlaceBid(ctx, auctionID, p.ID, amount)
	if err != nil {
		bidsRejected.WithLabelValues(string(apperr.KindOf(err))).Inc()
		slog.Info("bid rejected", "auction_id", auctionID, "user_id", userID,
			"amount", amount.String(), "error", err)
		return nil, err
	}

	bidsPlaced.Inc()
	slog.Info("bid placed", "auction_id", auctionID, "bid_id", placement.Bid.ID,
		"amount", amount.String(), "total_bids", placement.TotalBids)
	s.publisher.PublishNewBid(auctionID, placement)
	return placement, nil
}

// DenyBid invalidates a bid (admin) and publishes the denial along with the
// promoted winner, if any.
func (s *BidService) DenyBid(ctx context.Context, bidID, reason, adminID string) (*model.BidDenial, error) {
	if reason == "" {
		return nil, apperr.Validation("denial reason is required")
	}

	denial, err := s.store.DenyBid(ctx, bidID, reason, adminID)
	if err != nil {
		slog.Warn("bid denial failed", "bid_id", bidID, "error", err)
		return nil, err
	}

	bidsDenied.Inc()
	promotedID := ""
	if denial.Promoted != nil {
		promotedID = denial.Promoted.ID
	}
	slog.Info("bid denied", "bid_id", bidID, "admin", adminID, "promoted_bid", promotedID)
	s.publisher.PublishBidDenied(denial.Bid.AuctionID, denial)
	return denial, nil
}

// ListBids returns the bid history for an auction, newest first.
func (s *BidService) ListBids(ctx context.Context, auctionID string) ([]model.Bid, error) {
	if _, err := s.store.GetAuction(ctx, auctionID); err != nil {
		return nil, err
	}
	return s.store.ListBids(ctx, auctionID, 0)
}

// Snapshot builds the auction state pushed to a subscriber on join.
func (s *BidService) Snapshot(ctx context.Context, auctionID string) (*model.AuctionSnapshot, error) {
	a, err := s.store.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	winner, err := s.store.GetWinningBid(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	history, err := s.store.ListBids(ctx, auctionID, s.bidHistoryLimit)
	if err != nil {
		return nil, err
	}
	remaining := time.Until(a.AuctionEndAt)
	if remaining < 0 {
		remaining = 0
	}
	return &model.AuctionSnapshot{
		Auction:       a,
		WinningBid:    winner,
		BidHistory:    history,
		TotalBids:     len(history),
		TimeRemaining: remaining.Milliseconds(),
	}, nil
}
